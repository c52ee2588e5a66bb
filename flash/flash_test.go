package flash

import (
	"bytes"
	"testing"
)

func TestReadWriteRoundTrip(t *testing.T) {
	dev := NewMock(128)
	m := NewMap()
	m.Bind(Region{Name: RegionPackageData, Device: "dev0", BaseAddress: 16, Size: 64}, dev)

	payload := bytes.Repeat([]byte{0xCC}, 32)
	if err := m.Write(RegionPackageData, 0, payload); err != nil {
		t.Fatalf("write: %v", err)
	}
	got := make([]byte, 32)
	if err := m.Read(RegionPackageData, 0, got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("round trip mismatch")
	}
	if !bytes.Equal(dev.Contents()[16:48], payload) {
		t.Fatal("write did not land at region.BaseAddress")
	}
}

func TestWriteOutOfRangeRejected(t *testing.T) {
	dev := NewMock(128)
	m := NewMap()
	m.Bind(Region{Name: RegionPackageData, Device: "dev0", BaseAddress: 0, Size: 32}, dev)

	if err := m.Write(RegionPackageData, 30, make([]byte, 8)); err == nil {
		t.Fatal("expected FLASH_OUT_OF_RANGE for a write that overruns the region")
	}
}

func TestUnknownRegionRejected(t *testing.T) {
	m := NewMap()
	if err := m.Read(RegionDeviceMetaData, 0, make([]byte, 1)); err == nil {
		t.Fatal("expected an error reading an unbound region")
	}
}
