package dispatch

import (
	"testing"

	"github.com/cerberusfw/pldm"
	"github.com/cerberusfw/pldm/codec"
	"github.com/cerberusfw/pldm/devicemgr"
	"github.com/cerberusfw/pldm/flash"
	"github.com/cerberusfw/pldm/session"
	"github.com/cerberusfw/pldm/state"
)

func newTestDispatcher() (*Dispatcher, *devicemgr.Registry) {
	devices := devicemgr.NewRegistry()
	return New(session.NewMemoryStore(), devices), devices
}

func TestQueryDeviceIdentifiersHappyPath(t *testing.T) {
	d, devices := newTestDispatcher()
	devices.Add(&devicemgr.Record{
		EID: 1,
		Descriptors: []codec.Descriptor{
			{Type: codec.DescriptorTypePCIVendorID, Value: []byte{0x86, 0x80}},
			{Type: codec.DescriptorTypePCIDeviceID, Value: []byte{0x34, 0x12}},
			{Type: codec.DescriptorTypePCISubsystemVID, Value: []byte{0x86, 0x80}},
			{Type: codec.DescriptorTypePCISubsystemID, Value: []byte{0x78, 0x56}},
		},
	})

	reqBuf := make([]byte, 16)
	n, err := codec.EncodeQueryDeviceIdentifiersRequest(3, reqBuf)
	if err != nil {
		t.Fatalf("encode request: %v", err)
	}

	result := d.ProcessMessage(1, reqBuf[:n])
	if result.Outcome != Emit {
		t.Fatalf("expected Emit, got %v (err=%v)", result.Outcome, result.Err)
	}

	resp, _, err := codec.DecodeQueryDeviceIdentifiersResponse(result.Message)
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	vid, did, svid, sid, ok := codec.PCIDescriptors(resp.Descriptors)
	if !ok || vid != 0x8086 || did != 0x1234 || svid != 0x8086 || sid != 0x5678 {
		t.Fatalf("unexpected descriptors: vid=%04x did=%04x svid=%04x sid=%04x ok=%v", vid, did, svid, sid, ok)
	}
}

func TestRequestUpdateWhileAlreadyInUpdateMode(t *testing.T) {
	d, _ := newTestDispatcher()

	req := codec.RequestUpdateRequest{
		MaxTransferSize:           32,
		NumberOfComponents:        1,
		MaxOutstandingTransferReq: 1,
		CompImageSetVerStrType:    codec.VerStrTypeASCII,
	}
	buf := make([]byte, 64)
	n, err := codec.EncodeRequestUpdateRequest(1, req, buf)
	if err != nil {
		t.Fatalf("encode request: %v", err)
	}

	first := d.ProcessMessage(5, buf[:n])
	if first.Outcome != Emit {
		t.Fatalf("first RequestUpdate: expected Emit, got %v (%v)", first.Outcome, first.Err)
	}
	firstResp, _, err := codec.DecodeRequestUpdateResponse(first.Message)
	if err != nil || firstResp.CompletionCode != pldm.CcSuccess {
		t.Fatalf("expected SUCCESS on first RequestUpdate: %+v, %v", firstResp, err)
	}

	second := d.ProcessMessage(5, buf[:n])
	if second.Outcome != Emit {
		t.Fatalf("second RequestUpdate: expected Emit, got %v (%v)", second.Outcome, second.Err)
	}
	secondResp, _, err := codec.DecodeRequestUpdateResponse(second.Message)
	if err != nil {
		t.Fatalf("decode second response: %v", err)
	}
	if secondResp.CompletionCode != pldm.CcAlreadyInUpdateMode {
		t.Fatalf("expected ALREADY_IN_UPDATE_MODE, got %v", secondResp.CompletionCode)
	}
}

func TestCancelFromDownloadReturnsToIdle(t *testing.T) {
	d, _ := newTestDispatcher()

	reqBuf := make([]byte, 64)
	n, _ := codec.EncodeRequestUpdateRequest(1, codec.RequestUpdateRequest{
		MaxTransferSize: 32, NumberOfComponents: 1, MaxOutstandingTransferReq: 1,
		CompImageSetVerStrType: codec.VerStrTypeASCII,
	}, reqBuf)
	if res := d.ProcessMessage(9, reqBuf[:n]); res.Outcome != Emit {
		t.Fatalf("RequestUpdate failed: %v", res.Err)
	}

	n, _ = codec.EncodePassComponentTableRequest(2, codec.PassComponentTableRequest{
		TransferFlag: codec.FlagStartAndEnd, ComponentVersionStrType: codec.VerStrTypeASCII,
	}, reqBuf)
	if res := d.ProcessMessage(9, reqBuf[:n]); res.Outcome != Emit {
		t.Fatalf("PassComponentTable failed: %v", res.Err)
	}

	n, _ = codec.EncodeUpdateComponentRequest(3, codec.UpdateComponentRequest{
		ComponentVersionStrType: codec.VerStrTypeASCII,
	}, reqBuf)
	if res := d.ProcessMessage(9, reqBuf[:n]); res.Outcome != Emit {
		t.Fatalf("UpdateComponent failed: %v", res.Err)
	}

	statusBuf := make([]byte, 16)
	n, _ = codec.EncodeGetStatusRequest(4, statusBuf)
	statusRes := d.ProcessMessage(9, statusBuf[:n])
	statusResp, _, err := codec.DecodeGetStatusResponse(statusRes.Message)
	if err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if statusResp.CurrentState != 3 { // state.Download
		t.Fatalf("expected DOWNLOAD (3) before cancel, got %d", statusResp.CurrentState)
	}

	cancelBuf := make([]byte, 16)
	n, _ = codec.EncodeCancelUpdateRequest(5, cancelBuf)
	cancelRes := d.ProcessMessage(9, cancelBuf[:n])
	if cancelRes.Outcome != Emit {
		t.Fatalf("CancelUpdate failed: %v", cancelRes.Err)
	}
	cancelResp, _, err := codec.DecodeCancelUpdateResponse(cancelRes.Message)
	if err != nil || cancelResp.CompletionCode != pldm.CcSuccess {
		t.Fatalf("expected SUCCESS cancel response: %+v, %v", cancelResp, err)
	}

	n, _ = codec.EncodeUpdateComponentRequest(6, codec.UpdateComponentRequest{
		ComponentVersionStrType: codec.VerStrTypeASCII,
	}, reqBuf)
	postCancel := d.ProcessMessage(9, reqBuf[:n])
	if postCancel.Outcome != ErrorOutcome {
		t.Fatalf("expected ErrorOutcome after cancel (NOT_IN_UPDATE_MODE/invalid state), got %v", postCancel.Outcome)
	}
}

func TestPassComponentTableReportsAlreadyUpToDate(t *testing.T) {
	d, devices := newTestDispatcher()
	devices.Add(&devicemgr.Record{
		EID: 9,
		ComponentParameterTable: []codec.ComponentParameterEntry{
			{
				ComponentClassification: 0x000a,
				ComponentIdentifier:     0x1234,
				ActiveVersionString:     []byte("1.2.0"),
			},
		},
	})

	reqBuf := make([]byte, 64)
	n, _ := codec.EncodeRequestUpdateRequest(1, codec.RequestUpdateRequest{
		MaxTransferSize: 32, NumberOfComponents: 1, MaxOutstandingTransferReq: 1,
		CompImageSetVerStrType: codec.VerStrTypeASCII,
	}, reqBuf)
	if res := d.ProcessMessage(9, reqBuf[:n]); res.Outcome != Emit {
		t.Fatalf("RequestUpdate failed: %v", res.Err)
	}

	n, _ = codec.EncodePassComponentTableRequest(2, codec.PassComponentTableRequest{
		TransferFlag:             codec.FlagStartAndEnd,
		ComponentClassification:  0x000a,
		ComponentIdentifier:      0x1234,
		ComponentVersionStrType:  codec.VerStrTypeASCII,
		ComponentVersionStrLength: uint8(len("1.2.0")),
		ComponentVersionStr:      []byte("1.2.0"),
	}, reqBuf)
	res := d.ProcessMessage(9, reqBuf[:n])
	if res.Outcome != Emit {
		t.Fatalf("PassComponentTable failed: %v", res.Err)
	}
	resp, _, err := codec.DecodePassComponentTableResponse(res.Message)
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ComponentResponse != codec.ComponentResponseWillNotUpdate {
		t.Fatalf("expected WillNotUpdate for an identical version, got %d", resp.ComponentResponse)
	}
	if resp.ComponentResponseCode != codec.ComponentResponseCodeComparisonStampIdentical {
		t.Fatalf("expected identical-version code, got %d", resp.ComponentResponseCode)
	}
}

func TestPassComponentTableReportsNewerVersionCanUpdate(t *testing.T) {
	d, devices := newTestDispatcher()
	devices.Add(&devicemgr.Record{
		EID: 9,
		ComponentParameterTable: []codec.ComponentParameterEntry{
			{
				ComponentClassification: 0x000a,
				ComponentIdentifier:     0x1234,
				ActiveVersionString:     []byte("1.2.0"),
			},
		},
	})

	reqBuf := make([]byte, 64)
	n, _ := codec.EncodeRequestUpdateRequest(1, codec.RequestUpdateRequest{
		MaxTransferSize: 32, NumberOfComponents: 1, MaxOutstandingTransferReq: 1,
		CompImageSetVerStrType: codec.VerStrTypeASCII,
	}, reqBuf)
	if res := d.ProcessMessage(9, reqBuf[:n]); res.Outcome != Emit {
		t.Fatalf("RequestUpdate failed: %v", res.Err)
	}

	n, _ = codec.EncodePassComponentTableRequest(2, codec.PassComponentTableRequest{
		TransferFlag:             codec.FlagStartAndEnd,
		ComponentClassification:  0x000a,
		ComponentIdentifier:      0x1234,
		ComponentVersionStrType:  codec.VerStrTypeASCII,
		ComponentVersionStrLength: uint8(len("1.3.0")),
		ComponentVersionStr:      []byte("1.3.0"),
	}, reqBuf)
	res := d.ProcessMessage(9, reqBuf[:n])
	if res.Outcome != Emit {
		t.Fatalf("PassComponentTable failed: %v", res.Err)
	}
	resp, _, err := codec.DecodePassComponentTableResponse(res.Message)
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ComponentResponse != codec.ComponentResponseCanUpdate {
		t.Fatalf("expected CanUpdate for a newer version, got %d", resp.ComponentResponse)
	}
}

func TestFullUpdateLifecycleReachesIdleViaActivate(t *testing.T) {
	d, _ := newTestDispatcher()
	d.WithFlash(flash.NewMap())

	reqBuf := make([]byte, 64)
	n, _ := codec.EncodeRequestUpdateRequest(1, codec.RequestUpdateRequest{
		MaxTransferSize: 32, NumberOfComponents: 1, MaxOutstandingTransferReq: 1,
		CompImageSetVerStrType: codec.VerStrTypeASCII,
	}, reqBuf)
	if res := d.ProcessMessage(7, reqBuf[:n]); res.Outcome != Emit {
		t.Fatalf("RequestUpdate failed: %v", res.Err)
	}

	n, _ = codec.EncodePassComponentTableRequest(2, codec.PassComponentTableRequest{
		TransferFlag: codec.FlagStartAndEnd, ComponentVersionStrType: codec.VerStrTypeASCII,
	}, reqBuf)
	if res := d.ProcessMessage(7, reqBuf[:n]); res.Outcome != Emit {
		t.Fatalf("PassComponentTable failed: %v", res.Err)
	}

	n, _ = codec.EncodeUpdateComponentRequest(3, codec.UpdateComponentRequest{
		ComponentVersionStrType: codec.VerStrTypeASCII,
	}, reqBuf)
	if res := d.ProcessMessage(7, reqBuf[:n]); res.Outcome != Emit {
		t.Fatalf("UpdateComponent failed: %v", res.Err)
	}

	fdBuf := make([]byte, 32)
	if _, err := d.CompleteTransfer(7, codec.TransferSuccess, fdBuf); err != nil {
		t.Fatalf("CompleteTransfer: %v", err)
	}
	if _, err := d.CompleteVerify(7, codec.VerifySuccess, fdBuf); err != nil {
		t.Fatalf("CompleteVerify: %v", err)
	}
	if _, err := d.CompleteApply(7, codec.ApplySuccessWithActivationMethod, fdBuf); err != nil {
		t.Fatalf("CompleteApply: %v", err)
	}

	statusBuf := make([]byte, 16)
	n, _ = codec.EncodeGetStatusRequest(4, statusBuf)
	statusRes := d.ProcessMessage(7, statusBuf[:n])
	statusResp, _, err := codec.DecodeGetStatusResponse(statusRes.Message)
	if err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if statusResp.CurrentState != uint8(state.Activate) {
		t.Fatalf("expected ACTIVATE before ActivateFirmware, got %d", statusResp.CurrentState)
	}

	activateBuf := make([]byte, 16)
	n, _ = codec.EncodeActivateFirmwareRequest(5, codec.ActivateFirmwareRequest{}, activateBuf)
	activateRes := d.ProcessMessage(7, activateBuf[:n])
	if activateRes.Outcome != Emit {
		t.Fatalf("ActivateFirmware failed: %v", activateRes.Err)
	}
	activateResp, _, err := codec.DecodeActivateFirmwareResponse(activateRes.Message)
	if err != nil || activateResp.CompletionCode != pldm.CcSuccess {
		t.Fatalf("expected SUCCESS activate response: %+v, %v", activateResp, err)
	}

	if _, err := d.sessions.Get(7); err != pldm.ErrSessionNotFound {
		t.Fatalf("expected session to be torn down after activation, got %v", err)
	}
}

func TestGenerateRequestInstanceIDWrapsAndCorrelates(t *testing.T) {
	d, _ := newTestDispatcher()
	buf := make([]byte, 16)

	var lastID uint8
	for i := 0; i < 33; i++ {
		h, _, err := pldm.DecodeHeader(mustGenerate(t, d, buf))
		if err != nil {
			t.Fatalf("decode generated request: %v", err)
		}
		lastID = h.InstanceID
	}
	if lastID != 0 {
		t.Fatalf("expected instance ID to wrap back to 0 after 33 requests, got %d", lastID)
	}

	n, err := d.GenerateRequest(1, pldm.CmdGetStatus, buf)
	if err != nil {
		t.Fatalf("generate request: %v", err)
	}
	h, _, err := pldm.DecodeHeader(buf[:n])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if err := d.MatchResponse(1, pldm.CmdGetStatus, h.InstanceID+1); err == nil {
		t.Fatal("expected UNEXPECTED_INSTANCE_ID for a mismatched response")
	}
	if err := d.MatchResponse(1, pldm.CmdGetStatus, h.InstanceID); err != nil {
		t.Fatalf("expected the correct instance ID to correlate: %v", err)
	}
}

func mustGenerate(t *testing.T, d *Dispatcher, buf []byte) []byte {
	t.Helper()
	n, err := d.GenerateRequest(1, pldm.CmdGetStatus, buf)
	if err != nil {
		t.Fatalf("generate request: %v", err)
	}
	return buf[:n]
}
