package codec

import (
	"github.com/cerberusfw/pldm"
)

// TransferOpFlag is the UA's requested operation on a multipart pull,
// DSP0267 Table 13.
type TransferOpFlag uint8

const (
	OpGetNextPart TransferOpFlag = 0
	OpGetFirstPart TransferOpFlag = 1
)

// TransferFlag marks a chunk's position within a multipart sequence,
// DSP0267 Table 14.
type TransferFlag uint8

const (
	FlagStart       TransferFlag = 1
	FlagMiddle      TransferFlag = 2
	FlagEnd         TransferFlag = 4
	FlagStartAndEnd TransferFlag = 5
)

// MultipartDataRequest is the wire shape shared by GetPackageData and
// GetDeviceMetaData requests, DSP0267 §6.4/§6.5.
type MultipartDataRequest struct {
	DataTransferHandle   uint32
	TransferOperationFlag TransferOpFlag
}

const multipartRequestSize = 4 + 1

func encodeMultipartDataRequest(instanceID uint8, cmd pldm.Command, req MultipartDataRequest, buf []byte) (int, error) {
	n, err := pldm.EncodeHeader(pldm.Header{
		InstanceID: instanceID,
		RequestBit: true,
		Type:       pldm.PLDMType,
		Command:    cmd,
	}, buf)
	if err != nil {
		return 0, err
	}
	body := buf[n:]
	if len(body) < multipartRequestSize {
		return 0, pldm.NewFault(pldm.ErrInvalidLength, pldm.CcErrorInvalidLength)
	}
	pldm.PutUint32LE(body, req.DataTransferHandle)
	body[4] = uint8(req.TransferOperationFlag)
	return n + multipartRequestSize, nil
}

func decodeMultipartDataRequest(buf []byte) (MultipartDataRequest, int, error) {
	h, n, err := pldm.DecodeHeader(buf)
	if err != nil {
		return MultipartDataRequest{}, 0, err
	}
	_ = h
	body := buf[n:]
	if len(body) < multipartRequestSize {
		return MultipartDataRequest{}, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
	}
	req := MultipartDataRequest{
		DataTransferHandle:    pldm.Uint32LE(body),
		TransferOperationFlag: TransferOpFlag(body[4]),
	}
	return req, n + multipartRequestSize, nil
}

// MultipartDataResponse is the wire shape shared by GetPackageData and
// GetDeviceMetaData responses. Portion aliases the decode input buffer.
type MultipartDataResponse struct {
	CompletionCode        pldm.CompletionCode
	NextDataTransferHandle uint32
	TransferFlag          TransferFlag
	Portion               []byte
}

const multipartRespFixedSize = 1 + 4 + 1

func encodeMultipartDataResponse(instanceID uint8, cmd pldm.Command, resp MultipartDataResponse, buf []byte) (int, error) {
	n, err := pldm.EncodeHeader(pldm.Header{
		InstanceID: instanceID,
		Type:       pldm.PLDMType,
		Command:    cmd,
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
	need := multipartRespFixedSize + len(resp.Portion)
	if len(body) < need {
		return 0, pldm.NewFault(pldm.ErrInvalidLength, pldm.CcErrorInvalidLength)
	}
	pldm.PutUint32LE(body[1:], resp.NextDataTransferHandle)
	body[5] = uint8(resp.TransferFlag)
	copy(body[6:], resp.Portion)
	return n + need, nil
}

func decodeMultipartDataResponse(buf []byte) (MultipartDataResponse, int, error) {
	h, n, err := pldm.DecodeHeader(buf)
	if err != nil {
		return MultipartDataResponse{}, 0, err
	}
	_ = h
	body := buf[n:]
	if len(body) < 1 {
		return MultipartDataResponse{}, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
	}
	resp := MultipartDataResponse{CompletionCode: pldm.CompletionCode(body[0])}
	if resp.CompletionCode != pldm.CcSuccess {
		return resp, n + 1, nil
	}
	if len(body) < multipartRespFixedSize {
		return MultipartDataResponse{}, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
	}
	resp.NextDataTransferHandle = pldm.Uint32LE(body[1:])
	resp.TransferFlag = TransferFlag(body[5])
	resp.Portion = body[6:]
	return resp, n + 6 + len(resp.Portion), nil
}

// GetPackageData

func EncodeGetPackageDataRequest(instanceID uint8, req MultipartDataRequest, buf []byte) (int, error) {
	return encodeMultipartDataRequest(instanceID, pldm.CmdGetPackageData, req, buf)
}
func DecodeGetPackageDataRequest(buf []byte) (MultipartDataRequest, int, error) {
	return decodeMultipartDataRequest(buf)
}
func EncodeGetPackageDataResponse(instanceID uint8, resp MultipartDataResponse, buf []byte) (int, error) {
	return encodeMultipartDataResponse(instanceID, pldm.CmdGetPackageData, resp, buf)
}
func DecodeGetPackageDataResponse(buf []byte) (MultipartDataResponse, int, error) {
	return decodeMultipartDataResponse(buf)
}

// GetDeviceMetaData

func EncodeGetDeviceMetaDataRequest(instanceID uint8, req MultipartDataRequest, buf []byte) (int, error) {
	return encodeMultipartDataRequest(instanceID, pldm.CmdGetDeviceMetaData, req, buf)
}
func DecodeGetDeviceMetaDataRequest(buf []byte) (MultipartDataRequest, int, error) {
	return decodeMultipartDataRequest(buf)
}
func EncodeGetDeviceMetaDataResponse(instanceID uint8, resp MultipartDataResponse, buf []byte) (int, error) {
	return encodeMultipartDataResponse(instanceID, pldm.CmdGetDeviceMetaData, resp, buf)
}
func DecodeGetDeviceMetaDataResponse(buf []byte) (MultipartDataResponse, int, error) {
	return decodeMultipartDataResponse(buf)
}
