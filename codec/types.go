// Package codec implements encode/decode for every PLDM FWUP command body
// (DSP0267 §6). Every function here is a pure transform over byte slices
// with no I/O. Encoders write only into the caller-supplied output
// buffer. Decoders allocate one slice when a body carries a descriptor
// table or a component parameter table, to hold its entries; every other
// variable-length field is returned as a slice into the input the way
// the original Cerberus source's `variable_field` does it
// (original_source/core/pldm/pldm_fwup_protocol_commands.c).
package codec

import (
	"github.com/cerberusfw/pldm"
)

// VersionStringType is the wire tag for how a version string is encoded,
// DSP0267 Table 31.
type VersionStringType uint8

const (
	VerStrTypeUnknown VersionStringType = 0
	VerStrTypeASCII   VersionStringType = 1
	VerStrTypeUTF8    VersionStringType = 2
	VerStrTypeUTF16   VersionStringType = 3
	VerStrTypeUTF16LE VersionStringType = 4
	VerStrTypeUTF16BE VersionStringType = 5
)

// VersionString is a length-prefixed, typed identifier string: a
// component image-set version, or one component's active/pending
// version. The Bytes field aliases the decode input buffer; callers copy
// before the input is reused, per the codec's no-copy contract.
type VersionString struct {
	Type  VersionStringType
	Bytes []byte
}

func (v VersionString) String() string {
	return string(v.Bytes)
}

// Descriptor is one vendor-defined (type, length, value) entry from a
// QueryDeviceIdentifiers response, DSP0267 §6.1. Value aliases the
// decode input buffer.
type Descriptor struct {
	Type  uint16
	Value []byte
}

const (
	DescriptorTypePCIVendorID       uint16 = 0x0000
	DescriptorTypePCIDeviceID       uint16 = 0x0002
	DescriptorTypePCISubsystemVID   uint16 = 0x0003
	DescriptorTypePCISubsystemID    uint16 = 0x0004
)

// PCIDescriptors interprets the first four entries of a descriptor table
// as PCI VID/DID/SVID/SID (16-bit little-endian each) per the data
// model's PCI-class special case (§3). Returns ok=false if there are
// fewer than four entries or any entry isn't 2 bytes.
func PCIDescriptors(table []Descriptor) (vid, did, svid, sid uint16, ok bool) {
	if len(table) < 4 {
		return 0, 0, 0, 0, false
	}
	for _, d := range table[:4] {
		if len(d.Value) != 2 {
			return 0, 0, 0, 0, false
		}
	}
	vid = pldm.Uint16LE(table[0].Value)
	did = pldm.Uint16LE(table[1].Value)
	svid = pldm.Uint16LE(table[2].Value)
	sid = pldm.Uint16LE(table[3].Value)
	return vid, did, svid, sid, true
}

// encodeDescriptorTable writes count descriptors as (type:u16, length:u16,
// value) tuples back to back and returns the number of bytes written.
func encodeDescriptorTable(buf []byte, table []Descriptor) (int, error) {
	off := 0
	for _, d := range table {
		if off+4+len(d.Value) > len(buf) {
			return 0, pldm.NewFault(pldm.ErrInvalidLength, pldm.CcErrorInvalidLength)
		}
		pldm.PutUint16LE(buf[off:], d.Type)
		pldm.PutUint16LE(buf[off+2:], uint16(len(d.Value)))
		copy(buf[off+4:], d.Value)
		off += 4 + len(d.Value)
	}
	return off, nil
}

func descriptorTableSize(table []Descriptor) int {
	n := 0
	for _, d := range table {
		n += 4 + len(d.Value)
	}
	return n
}

// decodeDescriptorTable parses count descriptors out of buf, returning
// slices that alias buf.
func decodeDescriptorTable(buf []byte, count uint8) ([]Descriptor, int, error) {
	table := make([]Descriptor, 0, count)
	off := 0
	for i := uint8(0); i < count; i++ {
		if off+4 > len(buf) {
			return nil, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
		}
		typ := pldm.Uint16LE(buf[off:])
		length := pldm.Uint16LE(buf[off+2:])
		off += 4
		if off+int(length) > len(buf) {
			return nil, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
		}
		table = append(table, Descriptor{Type: typ, Value: buf[off : off+int(length)]})
		off += int(length)
	}
	return table, off, nil
}

// ComponentParameterEntry is one row of the component parameter table
// from a GetFirmwareParameters response, DSP0267 Table 12. The fixed
// header fields (componentParameterFixedSize, 23 bytes as encoded here)
// precede the two version strings whose lengths it carries.
type ComponentParameterEntry struct {
	ComponentClassification      uint16
	ComponentIdentifier          uint16
	ComponentClassificationIndex uint8
	ActiveComponentComparisonStamp   uint32
	ActiveVersionStringType      VersionStringType
	ActiveVersionStringLength    uint8
	PendingComponentComparisonStamp  uint32
	PendingVersionStringType     VersionStringType
	PendingVersionStringLength   uint8
	ComponentActivationMethods   uint16
	CapabilitiesDuringUpdate     uint32

	ActiveVersionString  []byte
	PendingVersionString []byte
}

const componentParameterFixedSize = 2 + 2 + 1 + 4 + 1 + 1 + 4 + 1 + 1 + 2 + 4 // = 23

func encodeComponentParameterEntry(buf []byte, e ComponentParameterEntry) (int, error) {
	need := componentParameterFixedSize + len(e.ActiveVersionString) + len(e.PendingVersionString)
	if len(buf) < need {
		return 0, pldm.NewFault(pldm.ErrInvalidLength, pldm.CcErrorInvalidLength)
	}
	off := 0
	pldm.PutUint16LE(buf[off:], e.ComponentClassification)
	off += 2
	pldm.PutUint16LE(buf[off:], e.ComponentIdentifier)
	off += 2
	buf[off] = e.ComponentClassificationIndex
	off++
	pldm.PutUint32LE(buf[off:], e.ActiveComponentComparisonStamp)
	off += 4
	buf[off] = uint8(e.ActiveVersionStringType)
	off++
	buf[off] = e.ActiveVersionStringLength
	off++
	pldm.PutUint32LE(buf[off:], e.PendingComponentComparisonStamp)
	off += 4
	buf[off] = uint8(e.PendingVersionStringType)
	off++
	buf[off] = e.PendingVersionStringLength
	off++
	pldm.PutUint16LE(buf[off:], e.ComponentActivationMethods)
	off += 2
	pldm.PutUint32LE(buf[off:], e.CapabilitiesDuringUpdate)
	off += 4
	off += copy(buf[off:], e.ActiveVersionString)
	off += copy(buf[off:], e.PendingVersionString)
	return off, nil
}

func decodeComponentParameterEntry(buf []byte) (ComponentParameterEntry, int, error) {
	if len(buf) < componentParameterFixedSize {
		return ComponentParameterEntry{}, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
	}
	var e ComponentParameterEntry
	off := 0
	e.ComponentClassification = pldm.Uint16LE(buf[off:])
	off += 2
	e.ComponentIdentifier = pldm.Uint16LE(buf[off:])
	off += 2
	e.ComponentClassificationIndex = buf[off]
	off++
	e.ActiveComponentComparisonStamp = pldm.Uint32LE(buf[off:])
	off += 4
	e.ActiveVersionStringType = VersionStringType(buf[off])
	off++
	e.ActiveVersionStringLength = buf[off]
	off++
	e.PendingComponentComparisonStamp = pldm.Uint32LE(buf[off:])
	off += 4
	e.PendingVersionStringType = VersionStringType(buf[off])
	off++
	e.PendingVersionStringLength = buf[off]
	off++
	e.ComponentActivationMethods = pldm.Uint16LE(buf[off:])
	off += 2
	e.CapabilitiesDuringUpdate = pldm.Uint32LE(buf[off:])
	off += 4

	need := int(e.ActiveVersionStringLength) + int(e.PendingVersionStringLength)
	if off+need > len(buf) {
		return ComponentParameterEntry{}, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
	}
	e.ActiveVersionString = buf[off : off+int(e.ActiveVersionStringLength)]
	off += int(e.ActiveVersionStringLength)
	e.PendingVersionString = buf[off : off+int(e.PendingVersionStringLength)]
	off += int(e.PendingVersionStringLength)
	return e, off, nil
}
