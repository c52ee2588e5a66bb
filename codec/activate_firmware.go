package codec

import (
	"github.com/cerberusfw/pldm"
)

// ActivateFirmwareRequest is DSP0267 §6.12 Table 26, UA-initiated: the
// UA tells the FD to switch the newly applied images into service.
type ActivateFirmwareRequest struct {
	SelfContainedActivationRequest bool
}

const activateFirmwareReqSize = 1

func EncodeActivateFirmwareRequest(instanceID uint8, req ActivateFirmwareRequest, buf []byte) (int, error) {
	n, err := pldm.EncodeHeader(pldm.Header{
		InstanceID: instanceID,
		RequestBit: true,
		Type:       pldm.PLDMType,
		Command:    pldm.CmdActivateFirmware,
	}, buf)
	if err != nil {
		return 0, err
	}
	body := buf[n:]
	if len(body) < activateFirmwareReqSize {
		return 0, pldm.NewFault(pldm.ErrInvalidLength, pldm.CcErrorInvalidLength)
	}
	if req.SelfContainedActivationRequest {
		body[0] = 1
	} else {
		body[0] = 0
	}
	return n + activateFirmwareReqSize, nil
}

func DecodeActivateFirmwareRequest(buf []byte) (ActivateFirmwareRequest, int, error) {
	h, n, err := pldm.DecodeHeader(buf)
	if err != nil {
		return ActivateFirmwareRequest{}, 0, err
	}
	_ = h
	body := buf[n:]
	if len(body) < activateFirmwareReqSize {
		return ActivateFirmwareRequest{}, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
	}
	return ActivateFirmwareRequest{SelfContainedActivationRequest: body[0] != 0}, n + activateFirmwareReqSize, nil
}

// ActivateFirmwareResponse is DSP0267 §6.12 Table 27.
type ActivateFirmwareResponse struct {
	CompletionCode              pldm.CompletionCode
	EstimatedTimeForActivation  uint16
}

const activateFirmwareRespSize = 1 + 2

func EncodeActivateFirmwareResponse(instanceID uint8, resp ActivateFirmwareResponse, buf []byte) (int, error) {
	n, err := pldm.EncodeHeader(pldm.Header{
		InstanceID: instanceID,
		Type:       pldm.PLDMType,
		Command:    pldm.CmdActivateFirmware,
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
	if len(body) < activateFirmwareRespSize {
		return 0, pldm.NewFault(pldm.ErrInvalidLength, pldm.CcErrorInvalidLength)
	}
	pldm.PutUint16LE(body[1:], resp.EstimatedTimeForActivation)
	return n + activateFirmwareRespSize, nil
}

func DecodeActivateFirmwareResponse(buf []byte) (ActivateFirmwareResponse, int, error) {
	h, n, err := pldm.DecodeHeader(buf)
	if err != nil {
		return ActivateFirmwareResponse{}, 0, err
	}
	_ = h
	body := buf[n:]
	if len(body) < 1 {
		return ActivateFirmwareResponse{}, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
	}
	resp := ActivateFirmwareResponse{CompletionCode: pldm.CompletionCode(body[0])}
	if resp.CompletionCode != pldm.CcSuccess {
		return resp, n + 1, nil
	}
	if len(body) < activateFirmwareRespSize {
		return ActivateFirmwareResponse{}, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
	}
	resp.EstimatedTimeForActivation = pldm.Uint16LE(body[1:])
	return resp, n + activateFirmwareRespSize, nil
}
