package codec

import (
	"github.com/cerberusfw/pldm"
)

// VerifyResult is the outcome code reported in VerifyComplete, DSP0267
// Table 23.
type VerifyResult uint8

const (
	VerifySuccess            VerifyResult = 0x00
	VerifyErrorVerification  VerifyResult = 0x02
	VerifyErrorVersionMismatch VerifyResult = 0x03
)

// VerifyCompleteRequest is DSP0267 §6.10 Table 22, FD-initiated.
type VerifyCompleteRequest struct {
	VerifyResult VerifyResult
}

func EncodeVerifyCompleteRequest(instanceID uint8, req VerifyCompleteRequest, buf []byte) (int, error) {
	n, err := pldm.EncodeHeader(pldm.Header{
		InstanceID: instanceID,
		RequestBit: true,
		Type:       pldm.PLDMType,
		Command:    pldm.CmdVerifyComplete,
	}, buf)
	if err != nil {
		return 0, err
	}
	body := buf[n:]
	if len(body) < 1 {
		return 0, pldm.NewFault(pldm.ErrInvalidLength, pldm.CcErrorInvalidLength)
	}
	body[0] = uint8(req.VerifyResult)
	return n + 1, nil
}

func DecodeVerifyCompleteRequest(buf []byte) (VerifyCompleteRequest, int, error) {
	h, n, err := pldm.DecodeHeader(buf)
	if err != nil {
		return VerifyCompleteRequest{}, 0, err
	}
	_ = h
	body := buf[n:]
	if len(body) < 1 {
		return VerifyCompleteRequest{}, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
	}
	return VerifyCompleteRequest{VerifyResult: VerifyResult(body[0])}, n + 1, nil
}

func EncodeVerifyCompleteResponse(instanceID uint8, cc pldm.CompletionCode, buf []byte) (int, error) {
	return encodeSimpleResponse(instanceID, pldm.CmdVerifyComplete, cc, buf)
}
func DecodeVerifyCompleteResponse(buf []byte) (SimpleCompletionResponse, int, error) {
	return decodeSimpleResponse(buf)
}
