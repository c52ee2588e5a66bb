package state

import (
	"testing"

	"github.com/cerberusfw/pldm"
)

func TestRequestUpdateEntersLearnComponents(t *testing.T) {
	got, err := Transition(Idle, pldm.CmdRequestUpdate, OutcomeDefault)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != LearnComponents {
		t.Fatalf("expected LEARN_COMPONENTS, got %v", got)
	}
}

func TestRequestUpdateIllegalFromLearnComponents(t *testing.T) {
	got, err := Transition(LearnComponents, pldm.CmdRequestUpdate, OutcomeDefault)
	if err == nil {
		t.Fatal("expected INVALID_STATE_FOR_COMMAND")
	}
	if got != LearnComponents {
		t.Fatalf("state must not mutate on rejection, got %v", got)
	}
	f, ok := err.(*pldm.Fault)
	if !ok || f.CompletionCode != pldm.CcInvalidStateForCommand {
		t.Fatalf("unexpected fault: %+v", err)
	}
}

func TestCancelFromDownloadReturnsIdle(t *testing.T) {
	got, err := Transition(Download, pldm.CmdCancelUpdate, OutcomeDefault)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != Idle {
		t.Fatalf("expected IDLE, got %v", got)
	}
}

func TestCancelFromIdleRejected(t *testing.T) {
	if _, err := Transition(Idle, pldm.CmdCancelUpdate, OutcomeDefault); err == nil {
		t.Fatal("expected CancelUpdate from IDLE to be rejected")
	}
}

func TestGetStatusLegalFromEveryState(t *testing.T) {
	for _, s := range []State{Idle, LearnComponents, ReadyXfer, Download, Verify, Apply, Activate} {
		got, err := Transition(s, pldm.CmdGetStatus, OutcomeDefault)
		if err != nil {
			t.Fatalf("GetStatus rejected from %v: %v", s, err)
		}
		if got != s {
			t.Fatalf("GetStatus must not mutate state, started %v got %v", s, got)
		}
	}
}

func TestPassComponentTableLoopsThenAdvances(t *testing.T) {
	got, err := Transition(LearnComponents, pldm.CmdPassComponentTable, OutcomeDefault)
	if err != nil || got != LearnComponents {
		t.Fatalf("expected loop back to LEARN_COMPONENTS, got %v, %v", got, err)
	}
	got, err = Transition(LearnComponents, pldm.CmdPassComponentTable, OutcomeLearnComponentsDone)
	if err != nil || got != ReadyXfer {
		t.Fatalf("expected READY_XFER after last component, got %v, %v", got, err)
	}
}

func TestApplyCompleteMayActivate(t *testing.T) {
	got, err := Transition(Apply, pldm.CmdApplyComplete, OutcomeApplyActivate)
	if err != nil || got != Activate {
		t.Fatalf("expected ACTIVATE, got %v, %v", got, err)
	}
}
