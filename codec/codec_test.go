package codec

import (
	"bytes"
	"testing"

	"github.com/cerberusfw/pldm"
)

func TestQueryDeviceIdentifiersRoundTrip(t *testing.T) {
	buf := make([]byte, 256)
	n, err := EncodeQueryDeviceIdentifiersRequest(3, buf)
	if err != nil {
		t.Fatalf("encode request: %v", err)
	}
	h, err := DecodeQueryDeviceIdentifiersRequest(buf[:n])
	if err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if h.InstanceID != 3 || !h.RequestBit {
		t.Fatalf("unexpected header %+v", h)
	}

	resp := QueryDeviceIdentifiersResponse{
		CompletionCode: pldm.CcSuccess,
		Descriptors: []Descriptor{
			{Type: DescriptorTypePCIVendorID, Value: []byte{0x86, 0x80}},
			{Type: DescriptorTypePCIDeviceID, Value: []byte{0x34, 0x12}},
			{Type: DescriptorTypePCISubsystemVID, Value: []byte{0x86, 0x80}},
			{Type: DescriptorTypePCISubsystemID, Value: []byte{0x78, 0x56}},
		},
	}
	n, err = EncodeQueryDeviceIdentifiersResponse(3, resp, buf)
	if err != nil {
		t.Fatalf("encode response: %v", err)
	}
	got, _, err := DecodeQueryDeviceIdentifiersResponse(buf[:n])
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.DescriptorCount != 4 {
		t.Fatalf("expected 4 descriptors, got %d", got.DescriptorCount)
	}
	vid, did, svid, sid, ok := PCIDescriptors(got.Descriptors)
	if !ok {
		t.Fatal("PCIDescriptors reported not-ok on a well-formed table")
	}
	if vid != 0x8086 || did != 0x1234 || svid != 0x8086 || sid != 0x5678 {
		t.Fatalf("unexpected PCI ids: vid=%04x did=%04x svid=%04x sid=%04x", vid, did, svid, sid)
	}
}

func TestQueryDeviceIdentifiersTruncated(t *testing.T) {
	buf := make([]byte, pldm.HeaderSize-1)
	if _, err := DecodeQueryDeviceIdentifiersRequest(buf); err == nil {
		t.Fatal("expected MSG_TOO_SHORT on truncated header")
	}
}

func TestGetFirmwareParametersRoundTrip(t *testing.T) {
	buf := make([]byte, 256)
	resp := FirmwareParameters{
		CompletionCode:               pldm.CcSuccess,
		Capabilities:                 0x1,
		ComponentCount:               1,
		ActiveCompImgSetVerStrType:   VerStrTypeASCII,
		ActiveCompImgSetVerStrLength: 5,
		ActiveCompImgSetVerStr:       []byte("1.2.3"),
		PendingCompImgSetVerStrType:  VerStrTypeASCII,
		PendingCompImgSetVerStr:      nil,
		ComponentParameterTable: []ComponentParameterEntry{
			{
				ComponentClassification: 0x0a,
				ComponentIdentifier:     0x1234,
				ActiveVersionStringType: VerStrTypeASCII,
				ActiveVersionStringLength: 3,
				ActiveVersionString:     []byte("1.0"),
				PendingVersionStringType: VerStrTypeASCII,
			},
		},
	}
	n, err := EncodeGetFirmwareParametersResponse(7, resp, buf)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, _, err := DecodeGetFirmwareParametersResponse(buf[:n])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ComponentCount != 1 || len(got.ComponentParameterTable) != 1 {
		t.Fatalf("unexpected component table: %+v", got)
	}
	if !bytes.Equal(got.ComponentParameterTable[0].ActiveVersionString, []byte("1.0")) {
		t.Fatalf("unexpected active version string: %q", got.ComponentParameterTable[0].ActiveVersionString)
	}
	if !bytes.Equal(got.ActiveCompImgSetVerStr, []byte("1.2.3")) {
		t.Fatalf("unexpected image set version: %q", got.ActiveCompImgSetVerStr)
	}
}

func TestRequestUpdateRoundTrip(t *testing.T) {
	buf := make([]byte, 64)
	req := RequestUpdateRequest{
		MaxTransferSize:           32,
		NumberOfComponents:        2,
		MaxOutstandingTransferReq: 1,
		PackageDataLength:         0,
		CompImageSetVerStrType:    VerStrTypeASCII,
		CompImageSetVerStrLength:  3,
		CompImageSetVerStr:        []byte("2.0"),
	}
	n, err := EncodeRequestUpdateRequest(1, req, buf)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, _, err := DecodeRequestUpdateRequest(buf[:n])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.MaxTransferSize != 32 || got.NumberOfComponents != 2 {
		t.Fatalf("unexpected decode: %+v", got)
	}
	if !bytes.Equal(got.CompImageSetVerStr, []byte("2.0")) {
		t.Fatalf("unexpected version string: %q", got.CompImageSetVerStr)
	}

	resp := RequestUpdateResponse{CompletionCode: pldm.CcSuccess, FDMetaDataLength: 10, FDWillSendPkgData: true}
	n, err = EncodeRequestUpdateResponse(1, resp, buf)
	if err != nil {
		t.Fatalf("encode resp: %v", err)
	}
	gotResp, _, err := DecodeRequestUpdateResponse(buf[:n])
	if err != nil {
		t.Fatalf("decode resp: %v", err)
	}
	if gotResp.FDMetaDataLength != 10 || !gotResp.FDWillSendPkgData {
		t.Fatalf("unexpected response: %+v", gotResp)
	}
}

func TestRequestUpdateAlreadyInUpdateMode(t *testing.T) {
	buf := make([]byte, 16)
	resp := RequestUpdateResponse{CompletionCode: pldm.CcAlreadyInUpdateMode}
	n, err := EncodeRequestUpdateResponse(1, resp, buf)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, _, err := DecodeRequestUpdateResponse(buf[:n])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.CompletionCode != pldm.CcAlreadyInUpdateMode {
		t.Fatalf("expected ALREADY_IN_UPDATE_MODE, got %v", got.CompletionCode)
	}
}

func TestMultipartDataGetPackageDataRoundTrip(t *testing.T) {
	buf := make([]byte, 64)
	req := MultipartDataRequest{DataTransferHandle: 0, TransferOperationFlag: OpGetFirstPart}
	n, err := EncodeGetPackageDataRequest(2, req, buf)
	if err != nil {
		t.Fatalf("encode req: %v", err)
	}
	got, _, err := DecodeGetPackageDataRequest(buf[:n])
	if err != nil {
		t.Fatalf("decode req: %v", err)
	}
	if got.TransferOperationFlag != OpGetFirstPart {
		t.Fatalf("unexpected op flag: %v", got.TransferOperationFlag)
	}

	portion := bytes.Repeat([]byte{0xAB}, 32)
	resp := MultipartDataResponse{
		CompletionCode:         pldm.CcSuccess,
		NextDataTransferHandle: 1,
		TransferFlag:           FlagStart,
		Portion:                portion,
	}
	n, err = EncodeGetPackageDataResponse(2, resp, buf)
	if err != nil {
		t.Fatalf("encode resp: %v", err)
	}
	gotResp, _, err := DecodeGetPackageDataResponse(buf[:n])
	if err != nil {
		t.Fatalf("decode resp: %v", err)
	}
	if gotResp.TransferFlag != FlagStart || !bytes.Equal(gotResp.Portion, portion) {
		t.Fatalf("unexpected multipart response: %+v", gotResp)
	}
}

func TestPassComponentTableRoundTrip(t *testing.T) {
	buf := make([]byte, 64)
	req := PassComponentTableRequest{
		TransferFlag:                 FlagStartAndEnd,
		ComponentClassification:      0x0a,
		ComponentIdentifier:          0x1234,
		ComponentClassificationIndex: 0,
		ComponentComparisonStamp:     0xFFFFFFFF,
		ComponentVersionStrType:      VerStrTypeASCII,
		ComponentVersionStrLength:    3,
		ComponentVersionStr:          []byte("1.1"),
	}
	n, err := EncodePassComponentTableRequest(4, req, buf)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, _, err := DecodePassComponentTableRequest(buf[:n])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ComponentIdentifier != 0x1234 || !bytes.Equal(got.ComponentVersionStr, []byte("1.1")) {
		t.Fatalf("unexpected decode: %+v", got)
	}
}

func TestUpdateComponentRoundTrip(t *testing.T) {
	buf := make([]byte, 64)
	req := UpdateComponentRequest{
		ComponentClassification:   0x0a,
		ComponentIdentifier:       0x1234,
		ComponentImageSize:        4096,
		ComponentVersionStrType:   VerStrTypeASCII,
		ComponentVersionStrLength: 3,
		ComponentVersionStr:       []byte("1.2"),
	}
	n, err := EncodeUpdateComponentRequest(5, req, buf)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, _, err := DecodeUpdateComponentRequest(buf[:n])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ComponentImageSize != 4096 {
		t.Fatalf("unexpected image size: %d", got.ComponentImageSize)
	}

	resp := UpdateComponentResponse{
		CompletionCode:                     pldm.CcSuccess,
		ComponentCompatibilityResponse:     0,
		UpdateOptionFlagsEnabled:           1,
		EstimatedTimeBeforeReqFWData:       5,
	}
	n, err = EncodeUpdateComponentResponse(5, resp, buf)
	if err != nil {
		t.Fatalf("encode resp: %v", err)
	}
	gotResp, _, err := DecodeUpdateComponentResponse(buf[:n])
	if err != nil {
		t.Fatalf("decode resp: %v", err)
	}
	if gotResp.EstimatedTimeBeforeReqFWData != 5 {
		t.Fatalf("unexpected response: %+v", gotResp)
	}
}

func TestRequestFirmwareDataRoundTrip(t *testing.T) {
	buf := make([]byte, 64)
	req := RequestFirmwareDataRequest{Offset: 32, Length: 32}
	n, err := EncodeRequestFirmwareDataRequest(6, req, buf)
	if err != nil {
		t.Fatalf("encode req: %v", err)
	}
	got, _, err := DecodeRequestFirmwareDataRequest(buf[:n])
	if err != nil {
		t.Fatalf("decode req: %v", err)
	}
	if got.Offset != 32 || got.Length != 32 {
		t.Fatalf("unexpected decode: %+v", got)
	}

	data := bytes.Repeat([]byte{0x42}, 32)
	resp := RequestFirmwareDataResponse{CompletionCode: pldm.CcSuccess, Data: data}
	n, err = EncodeRequestFirmwareDataResponse(6, resp, buf)
	if err != nil {
		t.Fatalf("encode resp: %v", err)
	}
	gotResp, _, err := DecodeRequestFirmwareDataResponse(buf[:n])
	if err != nil {
		t.Fatalf("decode resp: %v", err)
	}
	if !bytes.Equal(gotResp.Data, data) {
		t.Fatalf("unexpected data payload")
	}
}

func TestTransferVerifyApplyCompleteRoundTrip(t *testing.T) {
	buf := make([]byte, 16)

	if _, err := EncodeTransferCompleteRequest(1, TransferCompleteRequest{TransferResult: TransferSuccess}, buf); err != nil {
		t.Fatalf("encode transfer complete: %v", err)
	}
	tc, _, err := DecodeTransferCompleteRequest(buf)
	if err != nil || tc.TransferResult != TransferSuccess {
		t.Fatalf("transfer complete round trip failed: %+v, %v", tc, err)
	}

	if _, err := EncodeVerifyCompleteRequest(1, VerifyCompleteRequest{VerifyResult: VerifySuccess}, buf); err != nil {
		t.Fatalf("encode verify complete: %v", err)
	}
	vc, _, err := DecodeVerifyCompleteRequest(buf)
	if err != nil || vc.VerifyResult != VerifySuccess {
		t.Fatalf("verify complete round trip failed: %+v, %v", vc, err)
	}

	if _, err := EncodeApplyCompleteRequest(1, ApplyCompleteRequest{ApplyResult: ApplySuccess}, buf); err != nil {
		t.Fatalf("encode apply complete: %v", err)
	}
	ac, _, err := DecodeApplyCompleteRequest(buf)
	if err != nil || ac.ApplyResult != ApplySuccess {
		t.Fatalf("apply complete round trip failed: %+v, %v", ac, err)
	}
}

func TestActivateFirmwareRoundTrip(t *testing.T) {
	buf := make([]byte, 16)
	n, err := EncodeActivateFirmwareRequest(1, ActivateFirmwareRequest{SelfContainedActivationRequest: true}, buf)
	if err != nil {
		t.Fatalf("encode req: %v", err)
	}
	got, _, err := DecodeActivateFirmwareRequest(buf[:n])
	if err != nil || !got.SelfContainedActivationRequest {
		t.Fatalf("unexpected decode: %+v, %v", got, err)
	}

	resp := ActivateFirmwareResponse{CompletionCode: pldm.CcSuccess, EstimatedTimeForActivation: 30}
	n, err = EncodeActivateFirmwareResponse(1, resp, buf)
	if err != nil {
		t.Fatalf("encode resp: %v", err)
	}
	gotResp, _, err := DecodeActivateFirmwareResponse(buf[:n])
	if err != nil || gotResp.EstimatedTimeForActivation != 30 {
		t.Fatalf("unexpected response: %+v, %v", gotResp, err)
	}
}

func TestGetStatusRoundTrip(t *testing.T) {
	buf := make([]byte, 32)
	n, err := EncodeGetStatusRequest(1, buf)
	if err != nil {
		t.Fatalf("encode req: %v", err)
	}
	if _, _, err := DecodeGetStatusRequest(buf[:n]); err != nil {
		t.Fatalf("decode req: %v", err)
	}

	resp := GetStatusResponse{
		CompletionCode:  pldm.CcSuccess,
		CurrentState:    3,
		PreviousState:   2,
		AuxState:        AuxOperationInProgress,
		ProgressPercent: 50,
	}
	n, err = EncodeGetStatusResponse(1, resp, buf)
	if err != nil {
		t.Fatalf("encode resp: %v", err)
	}
	gotResp, _, err := DecodeGetStatusResponse(buf[:n])
	if err != nil {
		t.Fatalf("decode resp: %v", err)
	}
	if gotResp.CurrentState != 3 || gotResp.ProgressPercent != 50 {
		t.Fatalf("unexpected status: %+v", gotResp)
	}
}

func TestCancelUpdateRoundTrip(t *testing.T) {
	buf := make([]byte, 32)
	n, err := EncodeCancelUpdateRequest(1, buf)
	if err != nil {
		t.Fatalf("encode req: %v", err)
	}
	if _, _, err := DecodeCancelUpdateRequest(buf[:n]); err != nil {
		t.Fatalf("decode req: %v", err)
	}

	resp := CancelUpdateResponse{CompletionCode: pldm.CcSuccess, NonFunctioningComponentBitmap: 0x0102030405060708}
	n, err = EncodeCancelUpdateResponse(1, resp, buf)
	if err != nil {
		t.Fatalf("encode resp: %v", err)
	}
	gotResp, _, err := DecodeCancelUpdateResponse(buf[:n])
	if err != nil {
		t.Fatalf("decode resp: %v", err)
	}
	if gotResp.NonFunctioningComponentBitmap != 0x0102030405060708 {
		t.Fatalf("unexpected bitmap: %x", gotResp.NonFunctioningComponentBitmap)
	}
}

func TestHeaderTruncatedBuffer(t *testing.T) {
	short := []byte{0x01, 0x02}
	if _, _, err := pldm.DecodeHeader(short); err == nil {
		t.Fatal("expected error decoding a 2-byte buffer")
	}
}
