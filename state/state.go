// Package state implements the FWUP finite state machine (§4.4) as
// a table of legal (state, command) -> state transitions, rather than
// the scattered assignments the source used against a shared
// fwup_state struct (§9's re-architecture note). dispatch is the only
// caller that invokes Transition; nothing else may mutate a session's state.
package state

import "github.com/cerberusfw/pldm"

// State is one node of the FD/UA FWUP graph, §4.4.
type State uint8

const (
	Idle State = iota
	LearnComponents
	ReadyXfer
	Download
	Verify
	Apply
	Activate
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case LearnComponents:
		return "LEARN_COMPONENTS"
	case ReadyXfer:
		return "READY_XFER"
	case Download:
		return "DOWNLOAD"
	case Verify:
		return "VERIFY"
	case Apply:
		return "APPLY"
	case Activate:
		return "ACTIVATE"
	default:
		return "UNKNOWN_STATE"
	}
}

// Outcome selects which of a command's several legal successor states
// applies, for the handful of commands whose post-state depends on a
// runtime condition rather than being fixed (PassComponentTable's
// "after last component", ApplyComplete's "or ACTIVATE per response").
type Outcome uint8

const (
	OutcomeDefault Outcome = iota
	OutcomeLearnComponentsDone
	OutcomeApplyActivate
)

type transition struct {
	from    State
	command pldm.Command
	to      map[Outcome]State
}

// cancelableFrom lists every state CancelUpdate is legal from: any
// non-IDLE state, per §4.4.
var cancelableFrom = []State{LearnComponents, ReadyXfer, Download, Verify, Apply, Activate}

var table = []transition{
	{Idle, pldm.CmdQueryDeviceIdentifiers, map[Outcome]State{OutcomeDefault: Idle}},
	{Idle, pldm.CmdGetFirmwareParameters, map[Outcome]State{OutcomeDefault: Idle}},
	{Idle, pldm.CmdRequestUpdate, map[Outcome]State{OutcomeDefault: LearnComponents}},

	{LearnComponents, pldm.CmdGetPackageData, map[Outcome]State{OutcomeDefault: LearnComponents}},
	{LearnComponents, pldm.CmdPassComponentTable, map[Outcome]State{
		OutcomeDefault:             LearnComponents,
		OutcomeLearnComponentsDone: ReadyXfer,
	}},

	{ReadyXfer, pldm.CmdUpdateComponent, map[Outcome]State{OutcomeDefault: Download}},

	{Download, pldm.CmdRequestFirmwareData, map[Outcome]State{OutcomeDefault: Download}},
	{Download, pldm.CmdTransferComplete, map[Outcome]State{OutcomeDefault: Verify}},
	{Download, pldm.CmdCancelUpdateComponent, map[Outcome]State{OutcomeDefault: ReadyXfer}},

	{Verify, pldm.CmdVerifyComplete, map[Outcome]State{OutcomeDefault: Apply}},
	{Verify, pldm.CmdCancelUpdateComponent, map[Outcome]State{OutcomeDefault: ReadyXfer}},

	{Apply, pldm.CmdApplyComplete, map[Outcome]State{
		OutcomeDefault:       ReadyXfer,
		OutcomeApplyActivate: Activate,
	}},
	{Apply, pldm.CmdCancelUpdateComponent, map[Outcome]State{OutcomeDefault: ReadyXfer}},

	{Activate, pldm.CmdActivateFirmware, map[Outcome]State{OutcomeDefault: Idle}},
}

func findTransition(from State, cmd pldm.Command) (transition, bool) {
	for _, t := range table {
		if t.from == from && t.command == cmd {
			return t, true
		}
	}
	return transition{}, false
}

func isCancelable(from State) bool {
	for _, s := range cancelableFrom {
		if s == from {
			return true
		}
	}
	return false
}

// Transition looks up the legal successor of (current, cmd, outcome) and
// returns it. GetStatus is legal from every state and never changes it.
// CancelUpdate is legal from every non-IDLE state and always returns to
// IDLE. Any other illegal pair returns INVALID_STATE_FOR_COMMAND without
// mutating current.
func Transition(current State, cmd pldm.Command, outcome Outcome) (State, error) {
	if cmd == pldm.CmdGetStatus {
		return current, nil
	}
	if cmd == pldm.CmdCancelUpdate {
		if current == Idle || !isCancelable(current) {
			return current, pldm.NewFault(pldm.ErrInvalidStateForCommand, pldm.CcInvalidStateForCommand)
		}
		return Idle, nil
	}
	t, ok := findTransition(current, cmd)
	if !ok {
		return current, pldm.NewFault(pldm.ErrInvalidStateForCommand, pldm.CcInvalidStateForCommand)
	}
	to, ok := t.to[outcome]
	if !ok {
		to = t.to[OutcomeDefault]
	}
	return to, nil
}
