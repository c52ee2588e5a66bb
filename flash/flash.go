// Package flash implements the region map the FWUP engine stages inbound
// bytes through (§4.6): a fixed binding of logical regions to
// (device, base_address, size) tuples, with every read/write
// bounds-checked against the declared region. The engine above this
// package never sees a raw address.
package flash

import (
	"fmt"

	"github.com/cerberusfw/pldm"
)

// RegionName identifies one of the logical regions the engine stages
// data through.
type RegionName string

const (
	RegionPackageData        RegionName = "package-data"
	RegionFirmwareUpdatePkg  RegionName = "firmware-update-package"
	RegionDeviceMetaData     RegionName = "device-meta-data"
)

// ComponentImageRegion names the logical region for the i-th component
// image in an update package.
func ComponentImageRegion(index int) RegionName {
	return RegionName(fmt.Sprintf("component-image[%d]", index))
}

// Region is an immutable binding of a logical name to a device and a
// byte range on it.
type Region struct {
	Name       RegionName
	Device     string
	BaseAddress uint32
	Size       uint32
}

// Device is the read/write surface a region map entry is bound to. The
// real implementation is a separate collaborator (§1 Out of
// scope); Mock below stands in for it in this repository's tests.
type Device interface {
	ReadAt(addr uint32, buf []byte) error
	WriteAt(addr uint32, buf []byte) error
}

// Map is an immutable, constructed-once binding from region name to its
// backing device and address range.
type Map struct {
	regions map[RegionName]Region
	devices map[string]Device
}

func NewMap() *Map {
	return &Map{
		regions: make(map[RegionName]Region),
		devices: make(map[string]Device),
	}
}

// Bind registers a region and the device instance backing it. Bind is
// only meant to be called during construction, before any Read/Write;
// the map is treated as immutable afterward (§4.6).
func (m *Map) Bind(region Region, dev Device) {
	m.regions[region.Name] = region
	m.devices[region.Device] = dev
}

func (m *Map) lookup(name RegionName) (Region, Device, error) {
	r, ok := m.regions[name]
	if !ok {
		return Region{}, nil, pldm.ErrRegionNotFound
	}
	dev, ok := m.devices[r.Device]
	if !ok {
		return Region{}, nil, pldm.ErrRegionNotFound
	}
	return r, dev, nil
}

// Read returns len(buf) bytes starting at offset within region, failing
// with FLASH_OUT_OF_RANGE if offset+len exceeds the region's declared
// size.
func (m *Map) Read(name RegionName, offset uint32, buf []byte) error {
	r, dev, err := m.lookup(name)
	if err != nil {
		return pldm.WrapFault(pldm.ErrFlashIOError, pldm.CcError, err)
	}
	if uint64(offset)+uint64(len(buf)) > uint64(r.Size) {
		return pldm.NewFault(pldm.ErrFlashOutOfRange, pldm.CcError)
	}
	if err := dev.ReadAt(r.BaseAddress+offset, buf); err != nil {
		return pldm.WrapFault(pldm.ErrFlashIOError, pldm.CcError, err)
	}
	return nil
}

// Write stages buf at offset within region, failing with
// FLASH_OUT_OF_RANGE if offset+len(buf) exceeds the region's declared
// size.
func (m *Map) Write(name RegionName, offset uint32, buf []byte) error {
	r, dev, err := m.lookup(name)
	if err != nil {
		return pldm.WrapFault(pldm.ErrFlashIOError, pldm.CcError, err)
	}
	if uint64(offset)+uint64(len(buf)) > uint64(r.Size) {
		return pldm.NewFault(pldm.ErrFlashOutOfRange, pldm.CcError)
	}
	if err := dev.WriteAt(r.BaseAddress+offset, buf); err != nil {
		return pldm.WrapFault(pldm.ErrFlashIOError, pldm.CcError, err)
	}
	return nil
}

// Size returns the declared size of region, for multipart completeness
// checks.
func (m *Map) Size(name RegionName) (uint32, error) {
	r, _, err := m.lookup(name)
	if err != nil {
		return 0, err
	}
	return r.Size, nil
}
