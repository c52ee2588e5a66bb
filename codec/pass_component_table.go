package codec

import (
	"github.com/cerberusfw/pldm"
)

// ComponentTransferFlag marks an entry's position within the
// PassComponentTable loop (LEARN_COMPONENTS state, §4.4), reusing the
// same Start/Middle/End/StartAndEnd vocabulary as multipart transfers
// per DSP0267 §6.6.
type ComponentTransferFlag = TransferFlag

// PassComponentTableRequest is DSP0267 §6.6 Table 15.
type PassComponentTableRequest struct {
	TransferFlag                 ComponentTransferFlag
	ComponentClassification      uint16
	ComponentIdentifier          uint16
	ComponentClassificationIndex uint8
	ComponentComparisonStamp     uint32
	ComponentVersionStrType      VersionStringType
	ComponentVersionStrLength    uint8
	ComponentVersionStr          []byte
}

const passComponentTableFixedSize = 1 + 2 + 2 + 1 + 4 + 1 + 1

func EncodePassComponentTableRequest(instanceID uint8, req PassComponentTableRequest, buf []byte) (int, error) {
	n, err := pldm.EncodeHeader(pldm.Header{
		InstanceID: instanceID,
		RequestBit: true,
		Type:       pldm.PLDMType,
		Command:    pldm.CmdPassComponentTable,
	}, buf)
	if err != nil {
		return 0, err
	}
	body := buf[n:]
	need := passComponentTableFixedSize + len(req.ComponentVersionStr)
	if len(body) < need {
		return 0, pldm.NewFault(pldm.ErrInvalidLength, pldm.CcErrorInvalidLength)
	}
	off := 0
	body[off] = uint8(req.TransferFlag)
	off++
	pldm.PutUint16LE(body[off:], req.ComponentClassification)
	off += 2
	pldm.PutUint16LE(body[off:], req.ComponentIdentifier)
	off += 2
	body[off] = req.ComponentClassificationIndex
	off++
	pldm.PutUint32LE(body[off:], req.ComponentComparisonStamp)
	off += 4
	body[off] = uint8(req.ComponentVersionStrType)
	off++
	body[off] = req.ComponentVersionStrLength
	off++
	off += copy(body[off:], req.ComponentVersionStr)
	return n + off, nil
}

func DecodePassComponentTableRequest(buf []byte) (PassComponentTableRequest, int, error) {
	h, n, err := pldm.DecodeHeader(buf)
	if err != nil {
		return PassComponentTableRequest{}, 0, err
	}
	_ = h
	body := buf[n:]
	if len(body) < passComponentTableFixedSize {
		return PassComponentTableRequest{}, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
	}
	var req PassComponentTableRequest
	off := 0
	req.TransferFlag = ComponentTransferFlag(body[off])
	off++
	req.ComponentClassification = pldm.Uint16LE(body[off:])
	off += 2
	req.ComponentIdentifier = pldm.Uint16LE(body[off:])
	off += 2
	req.ComponentClassificationIndex = body[off]
	off++
	req.ComponentComparisonStamp = pldm.Uint32LE(body[off:])
	off += 4
	req.ComponentVersionStrType = VersionStringType(body[off])
	off++
	req.ComponentVersionStrLength = body[off]
	off++
	if off+int(req.ComponentVersionStrLength) > len(body) {
		return PassComponentTableRequest{}, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
	}
	req.ComponentVersionStr = body[off : off+int(req.ComponentVersionStrLength)]
	off += int(req.ComponentVersionStrLength)
	return req, n + off, nil
}

// ComponentResponse values for PassComponentTableResponse, DSP0267
// §6.6 Table 16.
const (
	ComponentResponseCanUpdate     uint8 = 0x00
	ComponentResponseWillNotUpdate uint8 = 0x01
)

// ComponentResponseCode values, DSP0267 §6.6 Table 16.
const (
	ComponentResponseCodeCanUpdate                uint8 = 0x00
	ComponentResponseCodeComparisonStampIdentical uint8 = 0x01
	ComponentResponseCodeComparisonStampLower     uint8 = 0x02
)

// PassComponentTableResponse is DSP0267 §6.6 Table 16.
type PassComponentTableResponse struct {
	CompletionCode        pldm.CompletionCode
	ComponentResponse     uint8
	ComponentResponseCode uint8
}

const passComponentTableRespSize = 1 + 1 + 1

func EncodePassComponentTableResponse(instanceID uint8, resp PassComponentTableResponse, buf []byte) (int, error) {
	n, err := pldm.EncodeHeader(pldm.Header{
		InstanceID: instanceID,
		Type:       pldm.PLDMType,
		Command:    pldm.CmdPassComponentTable,
	}, buf)
	if err != nil {
		return 0, err
	}
	body := buf[n:]
	if len(body) < 1 {
		return 0, pldm.NewFault(pldm.ErrInvalidLength, pldm.CcErrorInvalidLength)
	}
	body[0] = byte(resp.CompletionCode)
	if resp.CompletionCode != pldm.CcSuccess {
		return n + 1, nil
	}
	if len(body) < passComponentTableRespSize {
		return 0, pldm.NewFault(pldm.ErrInvalidLength, pldm.CcErrorInvalidLength)
	}
	body[1] = resp.ComponentResponse
	body[2] = resp.ComponentResponseCode
	return n + passComponentTableRespSize, nil
}

func DecodePassComponentTableResponse(buf []byte) (PassComponentTableResponse, int, error) {
	h, n, err := pldm.DecodeHeader(buf)
	if err != nil {
		return PassComponentTableResponse{}, 0, err
	}
	_ = h
	body := buf[n:]
	if len(body) < 1 {
		return PassComponentTableResponse{}, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
	}
	resp := PassComponentTableResponse{CompletionCode: pldm.CompletionCode(body[0])}
	if resp.CompletionCode != pldm.CcSuccess {
		return resp, n + 1, nil
	}
	if len(body) < passComponentTableRespSize {
		return PassComponentTableResponse{}, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
	}
	resp.ComponentResponse = body[1]
	resp.ComponentResponseCode = body[2]
	return resp, n + passComponentTableRespSize, nil
}
