package codec

import (
	"github.com/cerberusfw/pldm"
)

func EncodeGetFirmwareParametersRequest(instanceID uint8, buf []byte) (int, error) {
	return pldm.EncodeHeader(pldm.Header{
		InstanceID: instanceID,
		RequestBit: true,
		Type:       pldm.PLDMType,
		Command:    pldm.CmdGetFirmwareParameters,
	}, buf)
}

func DecodeGetFirmwareParametersRequest(buf []byte) (pldm.Header, error) {
	h, _, err := pldm.DecodeHeader(buf)
	return h, err
}

// FirmwareParameters is the decoded/encodable GetFirmwareParameters
// response body, DSP0267 §6.2 Table 9. Per its Open Questions
// (§9), the completion code is the first field on the wire — the
// original Cerberus source's `rsp_data` copy-before-completion-code bug
// is not reproduced here.
type FirmwareParameters struct {
	CompletionCode                  pldm.CompletionCode
	Capabilities                    uint32
	ComponentCount                  uint16
	ActiveCompImgSetVerStrType      VersionStringType
	ActiveCompImgSetVerStrLength    uint8
	PendingCompImgSetVerStrType     VersionStringType
	PendingCompImgSetVerStrLength   uint8

	ActiveCompImgSetVerStr  []byte
	PendingCompImgSetVerStr []byte

	ComponentParameterTable []ComponentParameterEntry
}

const fwParamsFixedSize = 1 + 4 + 2 + 1 + 1 + 1 + 1 // completion + capabilities + count + 2*(type+len)

func EncodeGetFirmwareParametersResponse(instanceID uint8, fp FirmwareParameters, buf []byte) (int, error) {
	n, err := pldm.EncodeHeader(pldm.Header{
		InstanceID: instanceID,
		Type:       pldm.PLDMType,
		Command:    pldm.CmdGetFirmwareParameters,
	}, buf)
	if err != nil {
		return 0, err
	}
	body := buf[n:]
	if len(body) < 1 {
		return 0, pldm.NewFault(pldm.ErrInvalidLength, pldm.CcErrorInvalidLength)
	}
	body[0] = byte(fp.CompletionCode)
	if fp.CompletionCode != pldm.CcSuccess {
		return n + 1, nil
	}
	if len(body) < fwParamsFixedSize {
		return 0, pldm.NewFault(pldm.ErrInvalidLength, pldm.CcErrorInvalidLength)
	}
	off := 1
	pldm.PutUint32LE(body[off:], fp.Capabilities)
	off += 4
	pldm.PutUint16LE(body[off:], fp.ComponentCount)
	off += 2
	body[off] = uint8(fp.ActiveCompImgSetVerStrType)
	off++
	body[off] = fp.ActiveCompImgSetVerStrLength
	off++
	body[off] = uint8(fp.PendingCompImgSetVerStrType)
	off++
	body[off] = fp.PendingCompImgSetVerStrLength
	off++

	if off+len(fp.ActiveCompImgSetVerStr)+len(fp.PendingCompImgSetVerStr) > len(body) {
		return 0, pldm.NewFault(pldm.ErrInvalidLength, pldm.CcErrorInvalidLength)
	}
	off += copy(body[off:], fp.ActiveCompImgSetVerStr)
	off += copy(body[off:], fp.PendingCompImgSetVerStr)

	// The component parameter table follows the version strings; off
	// advances by each entry's encoded size.
	for _, entry := range fp.ComponentParameterTable {
		written, err := encodeComponentParameterEntry(body[off:], entry)
		if err != nil {
			return 0, err
		}
		off += written
	}
	return n + off, nil
}

func DecodeGetFirmwareParametersResponse(buf []byte) (FirmwareParameters, int, error) {
	h, n, err := pldm.DecodeHeader(buf)
	if err != nil {
		return FirmwareParameters{}, 0, err
	}
	_ = h
	body := buf[n:]
	if len(body) < 1 {
		return FirmwareParameters{}, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
	}
	fp := FirmwareParameters{CompletionCode: pldm.CompletionCode(body[0])}
	if fp.CompletionCode != pldm.CcSuccess {
		return fp, n + 1, nil
	}
	if len(body) < fwParamsFixedSize {
		return FirmwareParameters{}, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
	}
	off := 1
	fp.Capabilities = pldm.Uint32LE(body[off:])
	off += 4
	fp.ComponentCount = pldm.Uint16LE(body[off:])
	off += 2
	fp.ActiveCompImgSetVerStrType = VersionStringType(body[off])
	off++
	fp.ActiveCompImgSetVerStrLength = body[off]
	off++
	fp.PendingCompImgSetVerStrType = VersionStringType(body[off])
	off++
	fp.PendingCompImgSetVerStrLength = body[off]
	off++

	need := int(fp.ActiveCompImgSetVerStrLength) + int(fp.PendingCompImgSetVerStrLength)
	if off+need > len(body) {
		return FirmwareParameters{}, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
	}
	fp.ActiveCompImgSetVerStr = body[off : off+int(fp.ActiveCompImgSetVerStrLength)]
	off += int(fp.ActiveCompImgSetVerStrLength)
	fp.PendingCompImgSetVerStr = body[off : off+int(fp.PendingCompImgSetVerStrLength)]
	off += int(fp.PendingCompImgSetVerStrLength)

	// The component parameter table follows the version strings; off
	// advances by each entry's decoded size.
	table := make([]ComponentParameterEntry, 0, fp.ComponentCount)
	for i := uint16(0); i < fp.ComponentCount; i++ {
		entry, consumed, err := decodeComponentParameterEntry(body[off:])
		if err != nil {
			return FirmwareParameters{}, 0, err
		}
		table = append(table, entry)
		off += consumed
	}
	fp.ComponentParameterTable = table
	return fp, n + off, nil
}
