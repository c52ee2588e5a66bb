package instanceid

import "testing"

func TestAllocatorWrapsAt32(t *testing.T) {
	var a Allocator
	var got []uint8
	for i := 0; i < 33; i++ {
		got = append(got, a.Next())
	}
	if got[0] != 0 || got[31] != 31 || got[32] != 0 {
		t.Fatalf("expected wrap 0..31,0, got first=%d last-in-cycle=%d wrapped=%d", got[0], got[31], got[32])
	}
}

func TestCorrelatorRejectsUnexpectedID(t *testing.T) {
	c := NewCorrelator()
	c.Track(5)
	if c.Match(6) {
		t.Fatal("matched an instance ID that was never tracked")
	}
	if !c.Match(5) {
		t.Fatal("failed to match a tracked instance ID")
	}
	if c.Match(5) {
		t.Fatal("matched the same instance ID twice")
	}
}
