package pldm

// Header is the 3-byte PLDM header from DSP0240 §6.2 that precedes every
// command body. The one-byte MCTP message-type tag that precedes the
// header on the wire is not encoded or decoded here, and no other
// package of this module adds or strips it either (§4.1).
type Header struct {
	InstanceID  uint8 // 5 bits
	RequestBit  bool
	Datagram    bool
	Type        uint8 // 6 bits, PLDMType for FWUP
	Command     Command
}

const HeaderSize = 3

// EncodeHeader writes the 3-byte PLDM header into buf[0:3]. It is
// length-exact and never allocates.
func EncodeHeader(h Header, buf []byte) (int, error) {
	if len(buf) < HeaderSize {
		return 0, NewFault(ErrMsgTooShort, CcErrorInvalidLength)
	}
	if h.InstanceID > 0x1F {
		return 0, NewFault(ErrInvalidLength, CcErrorInvalidData)
	}
	b0 := h.InstanceID & 0x1F
	if h.RequestBit {
		b0 |= 1 << 7
	}
	if h.Datagram {
		b0 |= 1 << 6
	}
	// header_ver occupies bit 5, always 0 for the version this engine speaks.
	buf[0] = b0
	buf[1] = h.Type & 0x3F
	buf[2] = byte(h.Command)
	return HeaderSize, nil
}

// DecodeHeader reads the 3-byte PLDM header from buf[0:3].
func DecodeHeader(buf []byte) (Header, int, error) {
	if len(buf) < HeaderSize {
		return Header{}, 0, NewFault(ErrMsgTooShort, CcErrorInvalidLength)
	}
	h := Header{
		InstanceID: buf[0] & 0x1F,
		RequestBit: buf[0]&(1<<7) != 0,
		Datagram:   buf[0]&(1<<6) != 0,
		Type:       buf[1] & 0x3F,
		Command:    Command(buf[2]),
	}
	return h, HeaderSize, nil
}

// RequireFWUPType validates that a decoded header's type field is PLDM
// FWUP (type 5); callers that dispatch on command code call this
// explicitly rather than DecodeHeader rejecting other types itself, since
// the header codec is generic across all PLDM message types.
func RequireFWUPType(h Header) error {
	if h.Type != PLDMType {
		return NewFault(ErrInvalidPLDMType, CcErrorInvalidPldmType)
	}
	return nil
}

// PutUint16LE/PutUint32LE and Uint16LE/Uint32LE are the little-endian
// primitives every codec file in package codec builds on. The header
// itself uses none of them; its fields are single bytes.
func PutUint16LE(buf []byte, v uint16) {
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
}

func Uint16LE(buf []byte) uint16 {
	return uint16(buf[0]) | uint16(buf[1])<<8
}

func PutUint32LE(buf []byte, v uint32) {
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
	buf[2] = byte(v >> 16)
	buf[3] = byte(v >> 24)
}

func Uint32LE(buf []byte) uint32 {
	return uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
}
