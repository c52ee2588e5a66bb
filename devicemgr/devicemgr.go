// Package devicemgr is a minimal stand-in for the device manager
// registry the original design treats as an out-of-scope collaborator
// (§1, "referenced only by interface"). It provides exactly the
// two calls §6 names plus the per-device record the codec and
// dispatcher need to exercise QueryDeviceIdentifiers and
// GetFirmwareParameters in tests, without claiming to be the real
// registry.
package devicemgr

import (
	"sync"

	"github.com/cerberusfw/pldm/codec"
)

// Record is the per-peer inventory the FD role answers
// QueryDeviceIdentifiers/GetFirmwareParameters from.
type Record struct {
	EID uint8

	Descriptors []codec.Descriptor

	Capabilities            uint32
	ComponentParameterTable []codec.ComponentParameterEntry

	ActiveVersionString  []byte
	PendingVersionString []byte
}

// Registry tracks devices by EID.
type Registry struct {
	mu      sync.RWMutex
	devices map[uint8]*Record
}

func NewRegistry() *Registry {
	return &Registry{devices: make(map[uint8]*Record)}
}

// Add registers or replaces a device record.
func (r *Registry) Add(rec *Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices[rec.EID] = rec
}

// LookupByEID is device_manager.lookup_by_eid from §6. ok is false
// if no device is registered at eid.
func (r *Registry) LookupByEID(eid uint8) (*Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.devices[eid]
	return rec, ok
}

// NumDevices is device_manager.num_devices from §6.
func (r *Registry) NumDevices() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}
