package codec

import (
	"github.com/cerberusfw/pldm"
)

// RequestFirmwareDataRequest is DSP0267 §6.8 Table 19. Unlike the
// inventory/setup commands, this one is FD-initiated: the FD is the
// requester pulling a chunk of component image data from the UA during
// DOWNLOAD (§4.4).
type RequestFirmwareDataRequest struct {
	Offset uint32
	Length uint32
}

const requestFirmwareDataReqSize = 4 + 4

func EncodeRequestFirmwareDataRequest(instanceID uint8, req RequestFirmwareDataRequest, buf []byte) (int, error) {
	n, err := pldm.EncodeHeader(pldm.Header{
		InstanceID: instanceID,
		RequestBit: true,
		Type:       pldm.PLDMType,
		Command:    pldm.CmdRequestFirmwareData,
	}, buf)
	if err != nil {
		return 0, err
	}
	body := buf[n:]
	if len(body) < requestFirmwareDataReqSize {
		return 0, pldm.NewFault(pldm.ErrInvalidLength, pldm.CcErrorInvalidLength)
	}
	pldm.PutUint32LE(body, req.Offset)
	pldm.PutUint32LE(body[4:], req.Length)
	return n + requestFirmwareDataReqSize, nil
}

func DecodeRequestFirmwareDataRequest(buf []byte) (RequestFirmwareDataRequest, int, error) {
	h, n, err := pldm.DecodeHeader(buf)
	if err != nil {
		return RequestFirmwareDataRequest{}, 0, err
	}
	_ = h
	body := buf[n:]
	if len(body) < requestFirmwareDataReqSize {
		return RequestFirmwareDataRequest{}, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
	}
	req := RequestFirmwareDataRequest{
		Offset: pldm.Uint32LE(body),
		Length: pldm.Uint32LE(body[4:]),
	}
	return req, n + requestFirmwareDataReqSize, nil
}

// RequestFirmwareDataResponse carries the requested image bytes. Data
// aliases the decode input buffer.
type RequestFirmwareDataResponse struct {
	CompletionCode pldm.CompletionCode
	Data           []byte
}

func EncodeRequestFirmwareDataResponse(instanceID uint8, resp RequestFirmwareDataResponse, buf []byte) (int, error) {
	n, err := pldm.EncodeHeader(pldm.Header{
		InstanceID: instanceID,
		Type:       pldm.PLDMType,
		Command:    pldm.CmdRequestFirmwareData,
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
	if len(body) < 1+len(resp.Data) {
		return 0, pldm.NewFault(pldm.ErrInvalidLength, pldm.CcErrorInvalidLength)
	}
	copy(body[1:], resp.Data)
	return n + 1 + len(resp.Data), nil
}

func DecodeRequestFirmwareDataResponse(buf []byte) (RequestFirmwareDataResponse, int, error) {
	h, n, err := pldm.DecodeHeader(buf)
	if err != nil {
		return RequestFirmwareDataResponse{}, 0, err
	}
	_ = h
	body := buf[n:]
	if len(body) < 1 {
		return RequestFirmwareDataResponse{}, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
	}
	resp := RequestFirmwareDataResponse{CompletionCode: pldm.CompletionCode(body[0])}
	if resp.CompletionCode != pldm.CcSuccess {
		return resp, n + 1, nil
	}
	resp.Data = body[1:]
	return resp, n + 1 + len(resp.Data), nil
}

// TransferResult is the outcome code a FD reports in TransferComplete,
// DSP0267 Table 21.
type TransferResult uint8

const (
	TransferSuccess          TransferResult = 0x00
	TransferErrorImageCorrupt TransferResult = 0x02
	TransferErrorVersionMismatch TransferResult = 0x03
)

// TransferCompleteRequest is DSP0267 §6.9 Table 20, FD-initiated.
type TransferCompleteRequest struct {
	TransferResult TransferResult
}

func EncodeTransferCompleteRequest(instanceID uint8, req TransferCompleteRequest, buf []byte) (int, error) {
	n, err := pldm.EncodeHeader(pldm.Header{
		InstanceID: instanceID,
		RequestBit: true,
		Type:       pldm.PLDMType,
		Command:    pldm.CmdTransferComplete,
	}, buf)
	if err != nil {
		return 0, err
	}
	body := buf[n:]
	if len(body) < 1 {
		return 0, pldm.NewFault(pldm.ErrInvalidLength, pldm.CcErrorInvalidLength)
	}
	body[0] = uint8(req.TransferResult)
	return n + 1, nil
}

func DecodeTransferCompleteRequest(buf []byte) (TransferCompleteRequest, int, error) {
	h, n, err := pldm.DecodeHeader(buf)
	if err != nil {
		return TransferCompleteRequest{}, 0, err
	}
	_ = h
	body := buf[n:]
	if len(body) < 1 {
		return TransferCompleteRequest{}, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
	}
	return TransferCompleteRequest{TransferResult: TransferResult(body[0])}, n + 1, nil
}

type SimpleCompletionResponse struct {
	CompletionCode pldm.CompletionCode
}

func encodeSimpleResponse(instanceID uint8, cmd pldm.Command, cc pldm.CompletionCode, buf []byte) (int, error) {
	n, err := pldm.EncodeHeader(pldm.Header{InstanceID: instanceID, Type: pldm.PLDMType, Command: cmd}, buf)
	if err != nil {
		return 0, err
	}
	body := buf[n:]
	if len(body) < 1 {
		return 0, pldm.NewFault(pldm.ErrInvalidLength, pldm.CcErrorInvalidLength)
	}
	body[0] = byte(cc)
	return n + 1, nil
}

func decodeSimpleResponse(buf []byte) (SimpleCompletionResponse, int, error) {
	h, n, err := pldm.DecodeHeader(buf)
	if err != nil {
		return SimpleCompletionResponse{}, 0, err
	}
	_ = h
	body := buf[n:]
	if len(body) < 1 {
		return SimpleCompletionResponse{}, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
	}
	return SimpleCompletionResponse{CompletionCode: pldm.CompletionCode(body[0])}, n + 1, nil
}

// EncodeErrorResponse writes a bare completion-code body for cmd. The
// dispatcher uses this for commands whose full response shape doesn't
// matter once the completion code is non-SUCCESS (§4.5).
func EncodeErrorResponse(instanceID uint8, cmd pldm.Command, cc pldm.CompletionCode, buf []byte) (int, error) {
	return encodeSimpleResponse(instanceID, cmd, cc, buf)
}

func EncodeTransferCompleteResponse(instanceID uint8, cc pldm.CompletionCode, buf []byte) (int, error) {
	return encodeSimpleResponse(instanceID, pldm.CmdTransferComplete, cc, buf)
}
func DecodeTransferCompleteResponse(buf []byte) (SimpleCompletionResponse, int, error) {
	return decodeSimpleResponse(buf)
}
