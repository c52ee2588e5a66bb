// Package dispatch implements the command dispatcher (§4.5): the
// only component permitted to mutate session.state. It routes an
// inbound PLDM message to a handler keyed on (role, command), consults
// the state machine for the legal successor, and produces an outbound
// message, a no-reply marker, or an error.
//
// Handlers are split per (role, command, direction) per §9's
// re-architecture note: no handler serves both FD and UA logic for one
// command. ProcessMessage routes to FD-role request handlers for
// QueryDeviceIdentifiers, GetFirmwareParameters, RequestUpdate,
// PassComponentTable, UpdateComponent, GetStatus, CancelUpdate,
// CancelUpdateComponent and ActivateFirmware; any other command is
// answered with UNSUPPORTED_PLDM_CMD. The FD-initiated requests live in
// fd_requests.go. On the UA side the package only stamps requests
// (GenerateRequest) and checks response instance IDs (MatchResponse);
// it has no handlers that decode UA-role responses.
package dispatch

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/cerberusfw/pldm"
	"github.com/cerberusfw/pldm/codec"
	"github.com/cerberusfw/pldm/devicemgr"
	"github.com/cerberusfw/pldm/flash"
	"github.com/cerberusfw/pldm/instanceid"
	"github.com/cerberusfw/pldm/multipart"
	"github.com/cerberusfw/pldm/session"
	"github.com/cerberusfw/pldm/state"
	"github.com/cerberusfw/pldm/telemetry"
	"github.com/cerberusfw/pldm/version"
)

// Outcome is what ProcessMessage did with an inbound message.
type Outcome int

const (
	Emit Outcome = iota
	NoReply
	ErrorOutcome
)

// Result is ProcessMessage's return value, §4.5/§6.
type Result struct {
	Outcome Outcome
	Message []byte
	Err     error
}

// correlationCacheSize bounds the outstanding-request cache the way
// kryptco-kr bounds its LRU-backed correlation caches; one peer rarely
// has more than a handful of requests in flight at once, one session
// per endpoint pair.
const correlationCacheSize = 64

// Dispatcher ties the session store, device registry, and flash map
// together behind process_message/generate_request (§6).
type Dispatcher struct {
	sessions *session.Store
	devices  *devicemgr.Registry

	// outstanding holds one instanceid.Correlator per (peer, command),
	// bounding how many pairs the dispatcher remembers at once the way
	// kryptco-kr bounds its own pairing-request cache (kryptco-kr's
	// me.pairings), keyed here by (peer, command) instead of a pairing
	// UUID.
	outstanding *lru.Cache

	allocators map[uint8]*instanceid.Allocator

	// telemetry is nil until WithTelemetry is called (as in the tests);
	// publish is then a no-op (see Dispatcher.publish). pldm-fd always
	// attaches a Publisher, which sends nothing when no topic is set.
	telemetry *telemetry.Publisher

	// flashMap and transfers back the FD-initiated GetPackageData /
	// GetDeviceMetaData conversations (see fd_requests.go). Both are
	// nil until WithFlash is called, which is fine for any test that
	// never exercises the download path.
	flashMap  *flash.Map
	transfers map[multipartKey]*multipart.Coordinator
}

// WithTelemetry attaches a fleet-monitoring publisher; session lifecycle
// transitions are pushed to it as they happen. Returns d for chaining at
// construction time.
func (d *Dispatcher) WithTelemetry(p *telemetry.Publisher) *Dispatcher {
	d.telemetry = p
	return d
}

func (d *Dispatcher) publish(rec *session.Record, kind telemetry.EventKind, detail string) {
	if d.telemetry == nil {
		return
	}
	ev := telemetry.Event{Kind: kind, Detail: detail}
	if rec != nil {
		ev.PeerEID = rec.PeerEID
		ev.State = rec.State.String()
		ev.TrackingID = rec.TrackingID
	}
	if err := d.telemetry.Publish(ev); err != nil {
		log.Warning("telemetry publish failed:", err)
	}
}

func peerCommandKey(peer uint8, cmd pldm.Command) [2]uint8 {
	return [2]uint8{peer, uint8(cmd)}
}

func New(sessions *session.Store, devices *devicemgr.Registry) *Dispatcher {
	cache, err := lru.New(correlationCacheSize)
	if err != nil {
		// Only returns an error for a non-positive size, which
		// correlationCacheSize never is.
		panic(err)
	}
	return &Dispatcher{
		sessions:    sessions,
		devices:     devices,
		outstanding: cache,
		allocators:  make(map[uint8]*instanceid.Allocator),
	}
}

// allocatorFor returns the per-peer instance ID allocator, creating
// one on first use.
func (d *Dispatcher) allocatorFor(eid uint8) *instanceid.Allocator {
	alloc, ok := d.allocators[eid]
	if !ok {
		alloc = &instanceid.Allocator{}
		d.allocators[eid] = alloc
	}
	return alloc
}

// correlatorFor returns the Correlator tracking outstanding requests
// for (eid, cmd), creating one in the LRU cache on first use.
func (d *Dispatcher) correlatorFor(eid uint8, cmd pldm.Command) *instanceid.Correlator {
	key := peerCommandKey(eid, cmd)
	if v, ok := d.outstanding.Get(key); ok {
		return v.(*instanceid.Correlator)
	}
	c := instanceid.NewCorrelator()
	d.outstanding.Add(key, c)
	return c
}

// GenerateRequest is generate_request(eid, command, params, out_buf)
// from §6: the UA side's entry point for issuing a GetStatus or
// CancelUpdate request to a peer FD (any other command is
// UNSUPPORTED_PLDM_CMD), stamping the next instance ID from that peer's
// allocator and tracking it with a Correlator so a later response can
// be matched and dropped with UNEXPECTED_INSTANCE_ID if it doesn't.
func (d *Dispatcher) GenerateRequest(eid uint8, cmd pldm.Command, buf []byte) (int, error) {
	id := d.allocatorFor(eid).Next()

	var n int
	var err error
	switch cmd {
	case pldm.CmdGetStatus:
		n, err = codec.EncodeGetStatusRequest(id, buf)
	case pldm.CmdCancelUpdate:
		n, err = codec.EncodeCancelUpdateRequest(id, buf)
	default:
		return 0, pldm.NewFault(pldm.ErrUnsupportedCommand, pldm.CcErrorUnsupportedPldmCmd)
	}
	if err != nil {
		return 0, err
	}
	d.correlatorFor(eid, cmd).Track(id)
	return n, nil
}

// MatchResponse validates that a response's instance ID is the one
// GenerateRequest stamped on the matching outstanding request for
// (eid, cmd). A mismatch (or no outstanding request at all) is
// UNEXPECTED_INSTANCE_ID and the caller must drop the message.
func (d *Dispatcher) MatchResponse(eid uint8, cmd pldm.Command, instanceID uint8) error {
	if !d.correlatorFor(eid, cmd).Match(instanceID) {
		return pldm.NewFault(pldm.ErrUnexpectedInstanceID, pldm.CcError)
	}
	return nil
}

func errorResult(err error) Result {
	return Result{Outcome: ErrorOutcome, Err: err}
}

// ProcessMessage is process_message(eid, bytes) from §6: decode the
// header, dispatch on command, and return Emit/NoReply/Error.
func (d *Dispatcher) ProcessMessage(eid uint8, msg []byte) Result {
	h, _, err := pldm.DecodeHeader(msg)
	if err != nil {
		return errorResult(err)
	}
	if err := pldm.RequireFWUPType(h); err != nil {
		return errorResult(err)
	}

	switch h.Command {
	case pldm.CmdQueryDeviceIdentifiers:
		return d.handleQueryDeviceIdentifiers(eid, h, msg)
	case pldm.CmdGetFirmwareParameters:
		return d.handleGetFirmwareParameters(eid, h, msg)
	case pldm.CmdRequestUpdate:
		return d.handleRequestUpdate(eid, h, msg)
	case pldm.CmdPassComponentTable:
		return d.handlePassComponentTable(eid, h, msg)
	case pldm.CmdUpdateComponent:
		return d.handleUpdateComponent(eid, h, msg)
	case pldm.CmdGetStatus:
		return d.handleGetStatus(eid, h, msg)
	case pldm.CmdCancelUpdate:
		return d.handleCancelUpdate(eid, h, msg)
	case pldm.CmdCancelUpdateComponent:
		return d.handleCancelUpdateComponent(eid, h, msg)
	case pldm.CmdActivateFirmware:
		return d.handleActivateFirmware(eid, h, msg)
	default:
		return errorResult(pldm.NewFault(pldm.ErrUnsupportedCommand, pldm.CcErrorUnsupportedPldmCmd))
	}
}

func (d *Dispatcher) handleQueryDeviceIdentifiers(eid uint8, h pldm.Header, msg []byte) Result {
	buf := make([]byte, 512)
	dev, ok := d.devices.LookupByEID(eid)
	if !ok {
		n, err := codec.EncodeQueryDeviceIdentifiersResponse(h.InstanceID, codec.QueryDeviceIdentifiersResponse{
			CompletionCode: pldm.CcError,
		}, buf)
		if err != nil {
			return errorResult(err)
		}
		return Result{Outcome: Emit, Message: buf[:n]}
	}
	n, err := codec.EncodeQueryDeviceIdentifiersResponse(h.InstanceID, codec.QueryDeviceIdentifiersResponse{
		CompletionCode: pldm.CcSuccess,
		Descriptors:    dev.Descriptors,
	}, buf)
	if err != nil {
		return errorResult(err)
	}
	return Result{Outcome: Emit, Message: buf[:n]}
}

func (d *Dispatcher) handleGetFirmwareParameters(eid uint8, h pldm.Header, msg []byte) Result {
	buf := make([]byte, 1024)
	dev, ok := d.devices.LookupByEID(eid)
	if !ok {
		n, err := codec.EncodeGetFirmwareParametersResponse(h.InstanceID, codec.FirmwareParameters{CompletionCode: pldm.CcError}, buf)
		if err != nil {
			return errorResult(err)
		}
		return Result{Outcome: Emit, Message: buf[:n]}
	}
	fp := codec.FirmwareParameters{
		CompletionCode:               pldm.CcSuccess,
		Capabilities:                 dev.Capabilities,
		ComponentCount:               uint16(len(dev.ComponentParameterTable)),
		ActiveCompImgSetVerStrType:   codec.VerStrTypeASCII,
		ActiveCompImgSetVerStrLength: uint8(len(dev.ActiveVersionString)),
		ActiveCompImgSetVerStr:       dev.ActiveVersionString,
		PendingCompImgSetVerStrType:  codec.VerStrTypeASCII,
		PendingCompImgSetVerStrLength: uint8(len(dev.PendingVersionString)),
		PendingCompImgSetVerStr:      dev.PendingVersionString,
		ComponentParameterTable:      dev.ComponentParameterTable,
	}
	n, err := codec.EncodeGetFirmwareParametersResponse(h.InstanceID, fp, buf)
	if err != nil {
		return errorResult(err)
	}
	return Result{Outcome: Emit, Message: buf[:n]}
}

// sessionOrInvalidState loads eid's session for a command that requires
// one to already exist; returns a *pldm.Fault carrying
// INVALID_STATE_FOR_COMMAND if there is none (the command is illegal in
// the implicit IDLE state).
func (d *Dispatcher) sessionOrInvalidState(eid uint8) (*session.Record, error) {
	rec, err := d.sessions.Get(eid)
	if err != nil {
		return nil, pldm.NewFault(pldm.ErrInvalidStateForCommand, pldm.CcInvalidStateForCommand)
	}
	return rec, nil
}

func (d *Dispatcher) handleRequestUpdate(eid uint8, h pldm.Header, msg []byte) Result {
	req, _, err := codec.DecodeRequestUpdateRequest(msg)
	if err != nil {
		return errorResult(err)
	}

	buf := make([]byte, 64)
	rec, err := d.sessions.Begin(eid)
	if err != nil {
		f, _ := err.(*pldm.Fault)
		cc := pldm.CcAlreadyInUpdateMode
		if f != nil {
			cc = f.CompletionCode
		}
		d.publish(nil, telemetry.EventUpdateFailed, "RequestUpdate rejected: already in update mode")
		n, encErr := codec.EncodeRequestUpdateResponse(h.InstanceID, codec.RequestUpdateResponse{CompletionCode: cc}, buf)
		if encErr != nil {
			return errorResult(encErr)
		}
		return Result{Outcome: Emit, Message: buf[:n]}
	}

	rec.MaxTransferSize = req.MaxTransferSize
	rec.MaxOutstandingTransferReq = req.MaxOutstandingTransferReq
	rec.NumComponents = req.NumberOfComponents
	rec.CompImageSetVerStrType = req.CompImageSetVerStrType
	rec.CompImageSetVerStrLength = req.CompImageSetVerStrLength
	rec.CompImageSetVerStr = append([]byte(nil), req.CompImageSetVerStr...)
	rec.PreviousState = rec.State
	rec.State = state.LearnComponents
	rec.Command = h.Command
	if err := d.sessions.Save(rec); err != nil {
		return errorResult(err)
	}
	d.publish(rec, telemetry.EventUpdateStarted, "")

	n, err := codec.EncodeRequestUpdateResponse(h.InstanceID, codec.RequestUpdateResponse{
		CompletionCode:    pldm.CcSuccess,
		FDMetaDataLength:  0,
		FDWillSendPkgData: false,
	}, buf)
	if err != nil {
		return errorResult(err)
	}
	return Result{Outcome: Emit, Message: buf[:n]}
}

func (d *Dispatcher) advance(rec *session.Record, cmd pldm.Command, outcome state.Outcome) error {
	next, err := state.Transition(rec.State, cmd, outcome)
	if err != nil {
		return err
	}
	rec.PreviousState = rec.State
	rec.State = next
	rec.PreviousCommand = rec.Command
	rec.Command = cmd
	return d.sessions.Save(rec)
}

func (d *Dispatcher) handlePassComponentTable(eid uint8, h pldm.Header, msg []byte) Result {
	req, _, err := codec.DecodePassComponentTableRequest(msg)
	if err != nil {
		return errorResult(err)
	}
	rec, err := d.sessionOrInvalidState(eid)
	if err != nil {
		return errorResult(err)
	}

	outcome := state.OutcomeDefault
	if req.TransferFlag == codec.FlagEnd || req.TransferFlag == codec.FlagStartAndEnd {
		outcome = state.OutcomeLearnComponentsDone
	}
	if err := d.advance(rec, pldm.CmdPassComponentTable, outcome); err != nil {
		return d.stateErrorResponse(h, pldm.CmdPassComponentTable, err)
	}

	componentResponse, componentResponseCode := d.componentUpdateDecision(eid, req)

	buf := make([]byte, 32)
	n, err := codec.EncodePassComponentTableResponse(h.InstanceID, codec.PassComponentTableResponse{
		CompletionCode:        pldm.CcSuccess,
		ComponentResponse:     componentResponse,
		ComponentResponseCode: componentResponseCode,
	}, buf)
	if err != nil {
		return errorResult(err)
	}
	return Result{Outcome: Emit, Message: buf[:n]}
}

// componentUpdateDecision compares req's incoming version string
// against the device's recorded active version for that component,
// reporting whether PassComponentTable should tell the UA the
// component can be updated or is already current. Any device or
// component lookup miss defaults to "can update", since with no
// recorded version to compare against there is nothing to decline.
func (d *Dispatcher) componentUpdateDecision(eid uint8, req codec.PassComponentTableRequest) (response, code uint8) {
	dev, ok := d.devices.LookupByEID(eid)
	if !ok {
		return codec.ComponentResponseCanUpdate, codec.ComponentResponseCodeCanUpdate
	}
	for _, entry := range dev.ComponentParameterTable {
		if entry.ComponentIdentifier != req.ComponentIdentifier ||
			entry.ComponentClassification != req.ComponentClassification {
			continue
		}
		if version.Equal(req.ComponentVersionStr, entry.ActiveVersionString) {
			return codec.ComponentResponseWillNotUpdate, codec.ComponentResponseCodeComparisonStampIdentical
		}
		if !version.IsNewer(req.ComponentVersionStr, entry.ActiveVersionString) {
			return codec.ComponentResponseWillNotUpdate, codec.ComponentResponseCodeComparisonStampLower
		}
		return codec.ComponentResponseCanUpdate, codec.ComponentResponseCodeCanUpdate
	}
	return codec.ComponentResponseCanUpdate, codec.ComponentResponseCodeCanUpdate
}

func (d *Dispatcher) handleUpdateComponent(eid uint8, h pldm.Header, msg []byte) Result {
	_, _, err := codec.DecodeUpdateComponentRequest(msg)
	if err != nil {
		return errorResult(err)
	}
	rec, err := d.sessionOrInvalidState(eid)
	if err != nil {
		return errorResult(err)
	}
	if err := d.advance(rec, pldm.CmdUpdateComponent, state.OutcomeDefault); err != nil {
		return d.stateErrorResponse(h, pldm.CmdUpdateComponent, err)
	}

	buf := make([]byte, 32)
	n, err := codec.EncodeUpdateComponentResponse(h.InstanceID, codec.UpdateComponentResponse{
		CompletionCode: pldm.CcSuccess,
	}, buf)
	if err != nil {
		return errorResult(err)
	}
	return Result{Outcome: Emit, Message: buf[:n]}
}

func (d *Dispatcher) handleGetStatus(eid uint8, h pldm.Header, msg []byte) Result {
	buf := make([]byte, 32)
	rec, err := d.sessions.Get(eid)
	if err != nil {
		n, encErr := codec.EncodeGetStatusResponse(h.InstanceID, codec.GetStatusResponse{
			CompletionCode: pldm.CcSuccess,
			CurrentState:   uint8(state.Idle),
			PreviousState:  uint8(state.Idle),
			AuxState:       codec.AuxIdle,
		}, buf)
		if encErr != nil {
			return errorResult(encErr)
		}
		return Result{Outcome: Emit, Message: buf[:n]}
	}
	n, err := codec.EncodeGetStatusResponse(h.InstanceID, codec.GetStatusResponse{
		CompletionCode: pldm.CcSuccess,
		CurrentState:   uint8(rec.State),
		PreviousState:  uint8(rec.PreviousState),
		AuxState:       codec.AuxIdle,
	}, buf)
	if err != nil {
		return errorResult(err)
	}
	return Result{Outcome: Emit, Message: buf[:n]}
}

func (d *Dispatcher) handleCancelUpdate(eid uint8, h pldm.Header, msg []byte) Result {
	buf := make([]byte, 16)
	rec, err := d.sessions.Get(eid)
	if err != nil {
		n, encErr := codec.EncodeCancelUpdateResponse(h.InstanceID, codec.CancelUpdateResponse{
			CompletionCode: pldm.CcInvalidStateForCommand,
		}, buf)
		if encErr != nil {
			return errorResult(encErr)
		}
		return Result{Outcome: Emit, Message: buf[:n]}
	}
	if _, err := state.Transition(rec.State, pldm.CmdCancelUpdate, state.OutcomeDefault); err != nil {
		n, encErr := codec.EncodeCancelUpdateResponse(h.InstanceID, codec.CancelUpdateResponse{
			CompletionCode: pldm.CcInvalidStateForCommand,
		}, buf)
		if encErr != nil {
			return errorResult(encErr)
		}
		return Result{Outcome: Emit, Message: buf[:n]}
	}

	d.publish(rec, telemetry.EventUpdateCancelled, "")
	if err := d.sessions.End(eid); err != nil {
		return errorResult(err)
	}

	n, err := codec.EncodeCancelUpdateResponse(h.InstanceID, codec.CancelUpdateResponse{
		CompletionCode: pldm.CcSuccess,
	}, buf)
	if err != nil {
		return errorResult(err)
	}
	return Result{Outcome: Emit, Message: buf[:n]}
}

func (d *Dispatcher) handleCancelUpdateComponent(eid uint8, h pldm.Header, msg []byte) Result {
	rec, err := d.sessionOrInvalidState(eid)
	if err != nil {
		return errorResult(err)
	}
	if err := d.advance(rec, pldm.CmdCancelUpdateComponent, state.OutcomeDefault); err != nil {
		return d.stateErrorResponse(h, pldm.CmdCancelUpdateComponent, err)
	}
	buf := make([]byte, 16)
	n, err := codec.EncodeCancelUpdateComponentResponse(h.InstanceID, pldm.CcSuccess, buf)
	if err != nil {
		return errorResult(err)
	}
	return Result{Outcome: Emit, Message: buf[:n]}
}

func (d *Dispatcher) handleActivateFirmware(eid uint8, h pldm.Header, msg []byte) Result {
	_, _, err := codec.DecodeActivateFirmwareRequest(msg)
	if err != nil {
		return errorResult(err)
	}
	rec, err := d.sessionOrInvalidState(eid)
	if err != nil {
		return errorResult(err)
	}
	if err := d.advance(rec, pldm.CmdActivateFirmware, state.OutcomeDefault); err != nil {
		return d.stateErrorResponse(h, pldm.CmdActivateFirmware, err)
	}

	d.publish(rec, telemetry.EventUpdateCompleted, "")
	if err := d.sessions.End(eid); err != nil {
		return errorResult(err)
	}

	buf := make([]byte, 16)
	n, err := codec.EncodeActivateFirmwareResponse(h.InstanceID, codec.ActivateFirmwareResponse{
		CompletionCode: pldm.CcSuccess,
	}, buf)
	if err != nil {
		return errorResult(err)
	}
	return Result{Outcome: Emit, Message: buf[:n]}
}

// stateErrorResponse turns a state-machine rejection into the matching
// command's completion-code-only error response, per §4.5 ("the
// dispatcher encodes an error response if the inbound message was a
// request").
func (d *Dispatcher) stateErrorResponse(h pldm.Header, cmd pldm.Command, err error) Result {
	f, ok := err.(*pldm.Fault)
	cc := pldm.CcInvalidStateForCommand
	if ok {
		cc = f.CompletionCode
	}
	buf := make([]byte, 16)
	n, encErr := codec.EncodeErrorResponse(h.InstanceID, cmd, cc, buf)
	if encErr != nil {
		return errorResult(encErr)
	}
	return Result{Outcome: Emit, Message: buf[:n]}
}
