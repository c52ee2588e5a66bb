package multipart

import (
	"bytes"
	"testing"

	"github.com/cerberusfw/pldm"
	"github.com/cerberusfw/pldm/codec"
	"github.com/cerberusfw/pldm/flash"
)

func TestEightyByteTransferAtBaselineChunking(t *testing.T) {
	dev := flash.NewMock(128)
	m := flash.NewMap()
	m.Bind(flash.Region{Name: flash.RegionPackageData, Device: "dev0", BaseAddress: 0, Size: 80}, dev)

	c := NewCoordinator(m, flash.RegionPackageData)

	chunk0 := bytes.Repeat([]byte{0x01}, 32)
	chunk1 := bytes.Repeat([]byte{0x02}, 32)
	chunk2 := bytes.Repeat([]byte{0x03}, 16)

	req := c.NextRequest()
	if req.TransferOperationFlag != codec.OpGetFirstPart || req.DataTransferHandle != 0 {
		t.Fatalf("unexpected initial request: %+v", req)
	}
	if err := c.AcceptResponse(codec.MultipartDataResponse{
		CompletionCode: pldm.CcSuccess, NextDataTransferHandle: 32, TransferFlag: codec.FlagStart, Portion: chunk0,
	}); err != nil {
		t.Fatalf("accept chunk0: %v", err)
	}
	if c.Done() {
		t.Fatal("should not be done after START")
	}

	req = c.NextRequest()
	if req.TransferOperationFlag != codec.OpGetNextPart || req.DataTransferHandle != 32 {
		t.Fatalf("unexpected request after START: %+v", req)
	}
	if err := c.AcceptResponse(codec.MultipartDataResponse{
		CompletionCode: pldm.CcSuccess, NextDataTransferHandle: 64, TransferFlag: codec.FlagMiddle, Portion: chunk1,
	}); err != nil {
		t.Fatalf("accept chunk1: %v", err)
	}

	req = c.NextRequest()
	if req.DataTransferHandle != 64 {
		t.Fatalf("unexpected request after MIDDLE: %+v", req)
	}
	if err := c.AcceptResponse(codec.MultipartDataResponse{
		CompletionCode: pldm.CcSuccess, NextDataTransferHandle: 80, TransferFlag: codec.FlagEnd, Portion: chunk2,
	}); err != nil {
		t.Fatalf("accept chunk2: %v", err)
	}
	if !c.Done() {
		t.Fatal("expected transfer complete after END")
	}
	if c.BytesWritten() != 80 {
		t.Fatalf("expected 80 bytes written, got %d", c.BytesWritten())
	}

	got := dev.Contents()[:80]
	want := append(append(append([]byte{}, chunk0...), chunk1...), chunk2...)
	if !bytes.Equal(got, want) {
		t.Fatal("assembled flash contents do not match the concatenated chunks")
	}

	finalReq := c.NextRequest()
	if finalReq.TransferOperationFlag != codec.OpGetFirstPart {
		t.Fatalf("expected transfer_op_flag to reset to GET_FIRSTPART, got %v", finalReq.TransferOperationFlag)
	}
}

func TestSingleMessageStartAndEnd(t *testing.T) {
	dev := flash.NewMock(32)
	m := flash.NewMap()
	m.Bind(flash.Region{Name: flash.RegionDeviceMetaData, Device: "dev0", BaseAddress: 0, Size: 32}, dev)

	c := NewCoordinator(m, flash.RegionDeviceMetaData)
	payload := bytes.Repeat([]byte{0xEE}, 32)
	if err := c.AcceptResponse(codec.MultipartDataResponse{
		CompletionCode: pldm.CcSuccess, NextDataTransferHandle: 32, TransferFlag: codec.FlagStartAndEnd, Portion: payload,
	}); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if !c.Done() || c.BytesWritten() != 32 {
		t.Fatalf("expected single-message completion, done=%v written=%d", c.Done(), c.BytesWritten())
	}
}

func TestNonSuccessAbortsTransfer(t *testing.T) {
	dev := flash.NewMock(32)
	m := flash.NewMap()
	m.Bind(flash.Region{Name: flash.RegionPackageData, Device: "dev0", BaseAddress: 0, Size: 32}, dev)

	c := NewCoordinator(m, flash.RegionPackageData)
	err := c.AcceptResponse(codec.MultipartDataResponse{CompletionCode: pldm.CcError})
	if err == nil {
		t.Fatal("expected an error on non-SUCCESS completion code")
	}
	if !c.Done() {
		t.Fatal("transfer should be marked done (aborted) after a failure response")
	}
}
