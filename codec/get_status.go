package codec

import (
	"github.com/cerberusfw/pldm"
)

// AuxState is the FD's fine-grained activity within its current FWUP
// state, DSP0267 Table 29.
type AuxState uint8

const (
	AuxOperationInProgress AuxState = 0x00
	AuxOperationSuccessful AuxState = 0x01
	AuxOperationFailed     AuxState = 0x02
	AuxIdle                AuxState = 0x03
)

// GetStatusRequest is DSP0267 §6.13 Table 28 (empty body), callable by
// the UA from any FD state (§4.4 special case).
type GetStatusRequest struct{}

func EncodeGetStatusRequest(instanceID uint8, buf []byte) (int, error) {
	return pldm.EncodeHeader(pldm.Header{
		InstanceID: instanceID,
		RequestBit: true,
		Type:       pldm.PLDMType,
		Command:    pldm.CmdGetStatus,
	}, buf)
}

func DecodeGetStatusRequest(buf []byte) (GetStatusRequest, int, error) {
	_, n, err := pldm.DecodeHeader(buf)
	if err != nil {
		return GetStatusRequest{}, 0, err
	}
	return GetStatusRequest{}, n, nil
}

// GetStatusResponse is DSP0267 §6.13 Table 29.
type GetStatusResponse struct {
	CompletionCode        pldm.CompletionCode
	CurrentState          uint8
	PreviousState         uint8
	AuxState              AuxState
	AuxStateStatus        uint8
	ProgressPercent       uint8
	ReasonCode            uint8
	UpdateOptionFlagsEnabled uint32
}

const getStatusRespSize = 1 + 1 + 1 + 1 + 1 + 1 + 1 + 4

func EncodeGetStatusResponse(instanceID uint8, resp GetStatusResponse, buf []byte) (int, error) {
	n, err := pldm.EncodeHeader(pldm.Header{
		InstanceID: instanceID,
		Type:       pldm.PLDMType,
		Command:    pldm.CmdGetStatus,
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
	if len(body) < getStatusRespSize {
		return 0, pldm.NewFault(pldm.ErrInvalidLength, pldm.CcErrorInvalidLength)
	}
	body[1] = resp.CurrentState
	body[2] = resp.PreviousState
	body[3] = uint8(resp.AuxState)
	body[4] = resp.AuxStateStatus
	body[5] = resp.ProgressPercent
	body[6] = resp.ReasonCode
	pldm.PutUint32LE(body[7:], resp.UpdateOptionFlagsEnabled)
	return n + getStatusRespSize, nil
}

func DecodeGetStatusResponse(buf []byte) (GetStatusResponse, int, error) {
	h, n, err := pldm.DecodeHeader(buf)
	if err != nil {
		return GetStatusResponse{}, 0, err
	}
	_ = h
	body := buf[n:]
	if len(body) < 1 {
		return GetStatusResponse{}, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
	}
	resp := GetStatusResponse{CompletionCode: pldm.CompletionCode(body[0])}
	if resp.CompletionCode != pldm.CcSuccess {
		return resp, n + 1, nil
	}
	if len(body) < getStatusRespSize {
		return GetStatusResponse{}, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
	}
	resp.CurrentState = body[1]
	resp.PreviousState = body[2]
	resp.AuxState = AuxState(body[3])
	resp.AuxStateStatus = body[4]
	resp.ProgressPercent = body[5]
	resp.ReasonCode = body[6]
	resp.UpdateOptionFlagsEnabled = pldm.Uint32LE(body[7:])
	return resp, n + getStatusRespSize, nil
}
