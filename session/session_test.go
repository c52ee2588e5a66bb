package session

import (
	"testing"

	"github.com/cerberusfw/pldm"
)

func TestBeginTwiceFailsAlreadyInUpdateMode(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Begin(7); err != nil {
		t.Fatalf("first begin: %v", err)
	}
	_, err := s.Begin(7)
	if err == nil {
		t.Fatal("expected ALREADY_IN_UPDATE_MODE on second begin")
	}
	f, ok := err.(*pldm.Fault)
	if !ok || f.CompletionCode != pldm.CcAlreadyInUpdateMode {
		t.Fatalf("unexpected error: %+v", err)
	}
}

func TestEndIsIdempotent(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Begin(1); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := s.End(1); err != nil {
		t.Fatalf("first end: %v", err)
	}
	if err := s.End(1); err != nil {
		t.Fatalf("second end should be a no-op, got: %v", err)
	}
	if _, err := s.Get(1); err != pldm.ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound after end, got %v", err)
	}
}

func TestBeginAfterEndSucceeds(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Begin(2); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := s.End(2); err != nil {
		t.Fatalf("end: %v", err)
	}
	if _, err := s.Begin(2); err != nil {
		t.Fatalf("expected begin to succeed after end, got: %v", err)
	}
}

func TestTwoPeersIndependent(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Begin(1); err != nil {
		t.Fatalf("begin peer 1: %v", err)
	}
	if _, err := s.Begin(2); err != nil {
		t.Fatalf("begin peer 2 should not be blocked by peer 1: %v", err)
	}
}
