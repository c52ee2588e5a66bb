// Package multipart drives the GetPackageData/GetDeviceMetaData-style
// conversations (§4.3): one endpoint pulls an opaque blob from its peer
// (in this module, the FD pulling from the UA; see dispatch/fd_requests.go)
// across many request/response pairs, tracking transfer_handle and
// transfer_op_flag and staging each chunk into a flash region.
package multipart

import (
	"github.com/cerberusfw/pldm"
	"github.com/cerberusfw/pldm/codec"
	"github.com/cerberusfw/pldm/flash"
)

// Coordinator drives one multipart pull into one flash region. A fresh
// Coordinator always begins at transfer_handle=0,
// transfer_op_flag=GET_FIRSTPART per §4.3.
type Coordinator struct {
	region   flash.RegionName
	flashMap *flash.Map

	nextHandle uint32
	opFlag     codec.TransferOpFlag
	written    uint32
	done       bool
}

// NewCoordinator begins a pull of data into region via m.
func NewCoordinator(m *flash.Map, region flash.RegionName) *Coordinator {
	return &Coordinator{
		region:   region,
		flashMap: m,
		opFlag:   codec.OpGetFirstPart,
	}
}

// NextRequest returns the MultipartDataRequest to send for the next
// round trip.
func (c *Coordinator) NextRequest() codec.MultipartDataRequest {
	return codec.MultipartDataRequest{
		DataTransferHandle:    c.nextHandle,
		TransferOperationFlag: c.opFlag,
	}
}

// Done reports whether the transfer has reached END/START_AND_END.
func (c *Coordinator) Done() bool {
	return c.done
}

// BytesWritten is the running total of bytes staged into the region,
// used by callers to confirm the final transfer_handle equals the
// region size once Done.
func (c *Coordinator) BytesWritten() uint32 {
	return c.written
}

// AcceptResponse consumes one MultipartDataResponse: stages its portion
// into the flash region at the coordinator's running offset and
// advances transfer_handle/transfer_op_flag per the flag semantics in
// §4.3. The response arrives already decoded. A non-SUCCESS completion
// code, a flash write failure, or an unknown transfer flag aborts the
// transfer (caller surfaces this to the session).
func (c *Coordinator) AcceptResponse(resp codec.MultipartDataResponse) error {
	if c.done {
		return pldm.ErrTransferAborted
	}
	if resp.CompletionCode != pldm.CcSuccess {
		c.done = true
		return pldm.WrapFault(pldm.ErrFlashIOError, resp.CompletionCode, pldm.ErrTransferAborted)
	}

	offset := c.written
	if resp.TransferFlag == codec.FlagStart || resp.TransferFlag == codec.FlagStartAndEnd {
		// A START (or START_AND_END) always lands at the region base; this
		// is also where a UA restart from GET_FIRSTPART re-lands, so a
		// retry is the only case allowed to overwrite already-staged bytes.
		offset = 0
		c.written = 0
	}
	if err := c.flashMap.Write(c.region, offset, resp.Portion); err != nil {
		c.done = true
		return err
	}
	c.written = offset + uint32(len(resp.Portion))

	switch resp.TransferFlag {
	case codec.FlagStart:
		c.nextHandle = resp.NextDataTransferHandle
		c.opFlag = codec.OpGetNextPart
	case codec.FlagMiddle:
		c.nextHandle = resp.NextDataTransferHandle
		c.opFlag = codec.OpGetNextPart
	case codec.FlagEnd:
		c.nextHandle = resp.NextDataTransferHandle
		c.opFlag = codec.OpGetFirstPart
		c.done = true
	case codec.FlagStartAndEnd:
		c.nextHandle = resp.NextDataTransferHandle
		c.opFlag = codec.OpGetFirstPart
		c.done = true
	default:
		c.done = true
		return pldm.NewFault(pldm.ErrInvalidLength, pldm.CcErrorInvalidData)
	}
	return nil
}
