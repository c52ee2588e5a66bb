package codec

import (
	"github.com/cerberusfw/pldm"
)

// UpdateComponentRequest is DSP0267 §6.7 Table 17.
type UpdateComponentRequest struct {
	ComponentClassification      uint16
	ComponentIdentifier          uint16
	ComponentClassificationIndex uint8
	ComponentComparisonStamp     uint32
	ComponentImageSize           uint32
	UpdateOptionFlags            uint32
	ComponentVersionStrType      VersionStringType
	ComponentVersionStrLength    uint8
	ComponentVersionStr          []byte
}

const updateComponentFixedSize = 2 + 2 + 1 + 4 + 4 + 4 + 1 + 1

func EncodeUpdateComponentRequest(instanceID uint8, req UpdateComponentRequest, buf []byte) (int, error) {
	n, err := pldm.EncodeHeader(pldm.Header{
		InstanceID: instanceID,
		RequestBit: true,
		Type:       pldm.PLDMType,
		Command:    pldm.CmdUpdateComponent,
	}, buf)
	if err != nil {
		return 0, err
	}
	body := buf[n:]
	need := updateComponentFixedSize + len(req.ComponentVersionStr)
	if len(body) < need {
		return 0, pldm.NewFault(pldm.ErrInvalidLength, pldm.CcErrorInvalidLength)
	}
	off := 0
	pldm.PutUint16LE(body[off:], req.ComponentClassification)
	off += 2
	pldm.PutUint16LE(body[off:], req.ComponentIdentifier)
	off += 2
	body[off] = req.ComponentClassificationIndex
	off++
	pldm.PutUint32LE(body[off:], req.ComponentComparisonStamp)
	off += 4
	pldm.PutUint32LE(body[off:], req.ComponentImageSize)
	off += 4
	pldm.PutUint32LE(body[off:], req.UpdateOptionFlags)
	off += 4
	body[off] = uint8(req.ComponentVersionStrType)
	off++
	body[off] = req.ComponentVersionStrLength
	off++
	off += copy(body[off:], req.ComponentVersionStr)
	return n + off, nil
}

func DecodeUpdateComponentRequest(buf []byte) (UpdateComponentRequest, int, error) {
	h, n, err := pldm.DecodeHeader(buf)
	if err != nil {
		return UpdateComponentRequest{}, 0, err
	}
	_ = h
	body := buf[n:]
	if len(body) < updateComponentFixedSize {
		return UpdateComponentRequest{}, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
	}
	var req UpdateComponentRequest
	off := 0
	req.ComponentClassification = pldm.Uint16LE(body[off:])
	off += 2
	req.ComponentIdentifier = pldm.Uint16LE(body[off:])
	off += 2
	req.ComponentClassificationIndex = body[off]
	off++
	req.ComponentComparisonStamp = pldm.Uint32LE(body[off:])
	off += 4
	req.ComponentImageSize = pldm.Uint32LE(body[off:])
	off += 4
	req.UpdateOptionFlags = pldm.Uint32LE(body[off:])
	off += 4
	req.ComponentVersionStrType = VersionStringType(body[off])
	off++
	req.ComponentVersionStrLength = body[off]
	off++
	if off+int(req.ComponentVersionStrLength) > len(body) {
		return UpdateComponentRequest{}, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
	}
	req.ComponentVersionStr = body[off : off+int(req.ComponentVersionStrLength)]
	off += int(req.ComponentVersionStrLength)
	return req, n + off, nil
}

// UpdateComponentResponse is DSP0267 §6.7 Table 18.
type UpdateComponentResponse struct {
	CompletionCode                      pldm.CompletionCode
	ComponentCompatibilityResponse      uint8
	ComponentCompatibilityResponseCode  uint8
	UpdateOptionFlagsEnabled            uint32
	EstimatedTimeBeforeReqFWData        uint16
}

const updateComponentRespSize = 1 + 1 + 1 + 4 + 2

func EncodeUpdateComponentResponse(instanceID uint8, resp UpdateComponentResponse, buf []byte) (int, error) {
	n, err := pldm.EncodeHeader(pldm.Header{
		InstanceID: instanceID,
		Type:       pldm.PLDMType,
		Command:    pldm.CmdUpdateComponent,
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
	if len(body) < updateComponentRespSize {
		return 0, pldm.NewFault(pldm.ErrInvalidLength, pldm.CcErrorInvalidLength)
	}
	body[1] = resp.ComponentCompatibilityResponse
	body[2] = resp.ComponentCompatibilityResponseCode
	pldm.PutUint32LE(body[3:], resp.UpdateOptionFlagsEnabled)
	pldm.PutUint16LE(body[7:], resp.EstimatedTimeBeforeReqFWData)
	return n + updateComponentRespSize, nil
}

func DecodeUpdateComponentResponse(buf []byte) (UpdateComponentResponse, int, error) {
	h, n, err := pldm.DecodeHeader(buf)
	if err != nil {
		return UpdateComponentResponse{}, 0, err
	}
	_ = h
	body := buf[n:]
	if len(body) < 1 {
		return UpdateComponentResponse{}, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
	}
	resp := UpdateComponentResponse{CompletionCode: pldm.CompletionCode(body[0])}
	if resp.CompletionCode != pldm.CcSuccess {
		return resp, n + 1, nil
	}
	if len(body) < updateComponentRespSize {
		return UpdateComponentResponse{}, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
	}
	resp.ComponentCompatibilityResponse = body[1]
	resp.ComponentCompatibilityResponseCode = body[2]
	resp.UpdateOptionFlagsEnabled = pldm.Uint32LE(body[3:])
	resp.EstimatedTimeBeforeReqFWData = pldm.Uint16LE(body[7:])
	return resp, n + updateComponentRespSize, nil
}
