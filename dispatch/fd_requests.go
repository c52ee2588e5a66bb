package dispatch

import (
	"github.com/cerberusfw/pldm"
	"github.com/cerberusfw/pldm/codec"
	"github.com/cerberusfw/pldm/flash"
	"github.com/cerberusfw/pldm/multipart"
	"github.com/cerberusfw/pldm/state"
)

// multipartKey identifies one peer's in-flight multipart conversation
// over one logical flash region (GetPackageData during LEARN_COMPONENTS,
// GetDeviceMetaData at RequestUpdate time).
type multipartKey struct {
	peer   uint8
	region flash.RegionName
}

// WithFlash attaches the region map FD-initiated download requests
// stage their writes through. Returns d for chaining at construction.
func (d *Dispatcher) WithFlash(m *flash.Map) *Dispatcher {
	d.flashMap = m
	return d
}

func (d *Dispatcher) coordinator(eid uint8, region flash.RegionName) *multipart.Coordinator {
	if d.transfers == nil {
		d.transfers = make(map[multipartKey]*multipart.Coordinator)
	}
	key := multipartKey{peer: eid, region: region}
	c, ok := d.transfers[key]
	if !ok {
		c = multipart.NewCoordinator(d.flashMap, region)
		d.transfers[key] = c
	}
	return c
}

// NextPackageDataRequest is the FD's half of the GetPackageData/
// GetDeviceMetaData conversation (§4.3): it returns the next
// multipart request to send the UA for region, lazily starting a new
// Coordinator on the first call for (eid, region).
func (d *Dispatcher) NextPackageDataRequest(eid uint8, region flash.RegionName, buf []byte) (int, error) {
	next := d.coordinator(eid, region).NextRequest()
	id := d.allocatorFor(eid).Next()
	switch region {
	case flash.RegionDeviceMetaData:
		return codec.EncodeGetDeviceMetaDataRequest(id, next, buf)
	default:
		return codec.EncodeGetPackageDataRequest(id, next, buf)
	}
}

// AcceptPackageDataResponse feeds a decoded UA response into the
// Coordinator for (eid, region), writing the carried bytes into flash.
// It reports whether the transfer has completed.
func (d *Dispatcher) AcceptPackageDataResponse(eid uint8, region flash.RegionName, resp codec.MultipartDataResponse) (bool, error) {
	c := d.coordinator(eid, region)
	if err := c.AcceptResponse(resp); err != nil {
		return false, err
	}
	return c.Done(), nil
}

// CompleteTransfer is the FD's local determination that a component
// image download finished (§4.4 DOWNLOAD -> VERIFY). It advances
// session state and builds the TransferComplete request the FD sends to
// the UA to announce the result.
func (d *Dispatcher) CompleteTransfer(eid uint8, result codec.TransferResult, buf []byte) (Result, error) {
	rec, err := d.sessionOrInvalidState(eid)
	if err != nil {
		return Result{}, err
	}
	if result != codec.TransferSuccess {
		return Result{}, pldm.ErrTransferAborted
	}
	if err := d.advance(rec, pldm.CmdTransferComplete, state.OutcomeDefault); err != nil {
		return Result{}, err
	}
	id := d.allocatorFor(eid).Next()
	n, err := codec.EncodeTransferCompleteRequest(id, codec.TransferCompleteRequest{TransferResult: result}, buf)
	if err != nil {
		return Result{}, err
	}
	return Result{Outcome: Emit, Message: buf[:n]}, nil
}

// CompleteVerify mirrors CompleteTransfer for VERIFY -> APPLY.
func (d *Dispatcher) CompleteVerify(eid uint8, result codec.VerifyResult, buf []byte) (Result, error) {
	rec, err := d.sessionOrInvalidState(eid)
	if err != nil {
		return Result{}, err
	}
	if result != codec.VerifySuccess {
		return Result{}, pldm.ErrTransferAborted
	}
	if err := d.advance(rec, pldm.CmdVerifyComplete, state.OutcomeDefault); err != nil {
		return Result{}, err
	}
	id := d.allocatorFor(eid).Next()
	n, err := codec.EncodeVerifyCompleteRequest(id, codec.VerifyCompleteRequest{VerifyResult: result}, buf)
	if err != nil {
		return Result{}, err
	}
	return Result{Outcome: Emit, Message: buf[:n]}, nil
}

// CompleteApply mirrors CompleteTransfer for APPLY -> READY_XFER or, when
// the FD reports an activation method in its own ApplyComplete result,
// APPLY -> ACTIVATE.
func (d *Dispatcher) CompleteApply(eid uint8, result codec.ApplyResult, buf []byte) (Result, error) {
	rec, err := d.sessionOrInvalidState(eid)
	if err != nil {
		return Result{}, err
	}
	if result == codec.ApplyError {
		return Result{}, pldm.ErrTransferAborted
	}
	outcome := state.OutcomeDefault
	if result == codec.ApplySuccessWithActivationMethod {
		outcome = state.OutcomeApplyActivate
	}
	if err := d.advance(rec, pldm.CmdApplyComplete, outcome); err != nil {
		return Result{}, err
	}
	id := d.allocatorFor(eid).Next()
	n, err := codec.EncodeApplyCompleteRequest(id, codec.ApplyCompleteRequest{ApplyResult: result}, buf)
	if err != nil {
		return Result{}, err
	}
	return Result{Outcome: Emit, Message: buf[:n]}, nil
}
