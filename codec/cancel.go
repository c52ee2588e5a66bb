package codec

import (
	"github.com/cerberusfw/pldm"
)

// CancelUpdateComponentRequest is DSP0267 §6.14 Table 30 (empty body).
// Drops the FD back to READY_XFER for the current component only.
type CancelUpdateComponentRequest struct{}

func EncodeCancelUpdateComponentRequest(instanceID uint8, buf []byte) (int, error) {
	return pldm.EncodeHeader(pldm.Header{
		InstanceID: instanceID,
		RequestBit: true,
		Type:       pldm.PLDMType,
		Command:    pldm.CmdCancelUpdateComponent,
	}, buf)
}

func DecodeCancelUpdateComponentRequest(buf []byte) (CancelUpdateComponentRequest, int, error) {
	_, n, err := pldm.DecodeHeader(buf)
	if err != nil {
		return CancelUpdateComponentRequest{}, 0, err
	}
	return CancelUpdateComponentRequest{}, n, nil
}

func EncodeCancelUpdateComponentResponse(instanceID uint8, cc pldm.CompletionCode, buf []byte) (int, error) {
	return encodeSimpleResponse(instanceID, pldm.CmdCancelUpdateComponent, cc, buf)
}
func DecodeCancelUpdateComponentResponse(buf []byte) (SimpleCompletionResponse, int, error) {
	return decodeSimpleResponse(buf)
}

// CancelUpdateRequest is DSP0267 §6.15 Table 31 (empty body), callable
// from any non-IDLE FD state (§4.4 special case) to abort the whole
// update session.
type CancelUpdateRequest struct{}

func EncodeCancelUpdateRequest(instanceID uint8, buf []byte) (int, error) {
	return pldm.EncodeHeader(pldm.Header{
		InstanceID: instanceID,
		RequestBit: true,
		Type:       pldm.PLDMType,
		Command:    pldm.CmdCancelUpdate,
	}, buf)
}

func DecodeCancelUpdateRequest(buf []byte) (CancelUpdateRequest, int, error) {
	_, n, err := pldm.DecodeHeader(buf)
	if err != nil {
		return CancelUpdateRequest{}, 0, err
	}
	return CancelUpdateRequest{}, n, nil
}

// CancelUpdateResponse is DSP0267 §6.15 Table 32.
type CancelUpdateResponse struct {
	CompletionCode            pldm.CompletionCode
	NonFunctioningComponentBitmap uint64
}

const cancelUpdateRespSize = 1 + 8

func EncodeCancelUpdateResponse(instanceID uint8, resp CancelUpdateResponse, buf []byte) (int, error) {
	n, err := pldm.EncodeHeader(pldm.Header{
		InstanceID: instanceID,
		Type:       pldm.PLDMType,
		Command:    pldm.CmdCancelUpdate,
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
	if len(body) < cancelUpdateRespSize {
		return 0, pldm.NewFault(pldm.ErrInvalidLength, pldm.CcErrorInvalidLength)
	}
	lo := uint32(resp.NonFunctioningComponentBitmap & 0xFFFFFFFF)
	hi := uint32(resp.NonFunctioningComponentBitmap >> 32)
	pldm.PutUint32LE(body[1:], lo)
	pldm.PutUint32LE(body[5:], hi)
	return n + cancelUpdateRespSize, nil
}

func DecodeCancelUpdateResponse(buf []byte) (CancelUpdateResponse, int, error) {
	h, n, err := pldm.DecodeHeader(buf)
	if err != nil {
		return CancelUpdateResponse{}, 0, err
	}
	_ = h
	body := buf[n:]
	if len(body) < 1 {
		return CancelUpdateResponse{}, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
	}
	resp := CancelUpdateResponse{CompletionCode: pldm.CompletionCode(body[0])}
	if resp.CompletionCode != pldm.CcSuccess {
		return resp, n + 1, nil
	}
	if len(body) < cancelUpdateRespSize {
		return CancelUpdateResponse{}, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
	}
	lo := pldm.Uint32LE(body[1:])
	hi := pldm.Uint32LE(body[5:])
	resp.NonFunctioningComponentBitmap = uint64(hi)<<32 | uint64(lo)
	return resp, n + cancelUpdateRespSize, nil
}
