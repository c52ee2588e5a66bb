package version

import "testing"

func TestSemverOrdering(t *testing.T) {
	if !IsNewer([]byte("1.2.0"), []byte("1.1.9")) {
		t.Fatal("expected 1.2.0 to be newer than 1.1.9")
	}
	if IsNewer([]byte("1.1.0"), []byte("1.2.0")) {
		t.Fatal("expected 1.1.0 to not be newer than 1.2.0")
	}
}

func TestOpaqueFallbackByteCompare(t *testing.T) {
	if !Equal([]byte("BUILD-42"), []byte("BUILD-42")) {
		t.Fatal("expected identical opaque strings to compare equal")
	}
	if Equal([]byte("BUILD-42"), []byte("BUILD-43")) {
		t.Fatal("expected different opaque strings to compare unequal")
	}
}
