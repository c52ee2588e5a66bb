package codec

import (
	"github.com/cerberusfw/pldm"
)

// ApplyResult is the outcome code reported in ApplyComplete, DSP0267
// Table 25.
type ApplyResult uint8

const (
	ApplySuccess               ApplyResult = 0x00
	ApplySuccessWithActivationMethod ApplyResult = 0x01
	ApplyError                 ApplyResult = 0x02
)

// ApplyCompleteRequest is DSP0267 §6.11 Table 24, FD-initiated.
type ApplyCompleteRequest struct {
	ApplyResult           ApplyResult
	ComponentActivationMethodsModification uint16
}

const applyCompleteReqSize = 1 + 2

func EncodeApplyCompleteRequest(instanceID uint8, req ApplyCompleteRequest, buf []byte) (int, error) {
	n, err := pldm.EncodeHeader(pldm.Header{
		InstanceID: instanceID,
		RequestBit: true,
		Type:       pldm.PLDMType,
		Command:    pldm.CmdApplyComplete,
	}, buf)
	if err != nil {
		return 0, err
	}
	body := buf[n:]
	if len(body) < applyCompleteReqSize {
		return 0, pldm.NewFault(pldm.ErrInvalidLength, pldm.CcErrorInvalidLength)
	}
	body[0] = uint8(req.ApplyResult)
	pldm.PutUint16LE(body[1:], req.ComponentActivationMethodsModification)
	return n + applyCompleteReqSize, nil
}

func DecodeApplyCompleteRequest(buf []byte) (ApplyCompleteRequest, int, error) {
	h, n, err := pldm.DecodeHeader(buf)
	if err != nil {
		return ApplyCompleteRequest{}, 0, err
	}
	_ = h
	body := buf[n:]
	if len(body) < applyCompleteReqSize {
		return ApplyCompleteRequest{}, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
	}
	req := ApplyCompleteRequest{
		ApplyResult: ApplyResult(body[0]),
		ComponentActivationMethodsModification: pldm.Uint16LE(body[1:]),
	}
	return req, n + applyCompleteReqSize, nil
}

func EncodeApplyCompleteResponse(instanceID uint8, cc pldm.CompletionCode, buf []byte) (int, error) {
	return encodeSimpleResponse(instanceID, pldm.CmdApplyComplete, cc, buf)
}
func DecodeApplyCompleteResponse(buf []byte) (SimpleCompletionResponse, int, error) {
	return decodeSimpleResponse(buf)
}
