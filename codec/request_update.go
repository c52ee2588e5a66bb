package codec

import (
	"github.com/cerberusfw/pldm"
)

// RequestUpdateRequest is DSP0267 §6.3 Table 10, grounded on
// original_source's decode_request_update_req field order.
type RequestUpdateRequest struct {
	MaxTransferSize           uint32
	NumberOfComponents        uint16
	MaxOutstandingTransferReq uint8
	PackageDataLength         uint16
	CompImageSetVerStrType    VersionStringType
	CompImageSetVerStrLength  uint8
	CompImageSetVerStr        []byte
}

const requestUpdateFixedSize = 4 + 2 + 1 + 2 + 1 + 1

func EncodeRequestUpdateRequest(instanceID uint8, req RequestUpdateRequest, buf []byte) (int, error) {
	n, err := pldm.EncodeHeader(pldm.Header{
		InstanceID: instanceID,
		RequestBit: true,
		Type:       pldm.PLDMType,
		Command:    pldm.CmdRequestUpdate,
	}, buf)
	if err != nil {
		return 0, err
	}
	body := buf[n:]
	need := requestUpdateFixedSize + len(req.CompImageSetVerStr)
	if len(body) < need {
		return 0, pldm.NewFault(pldm.ErrInvalidLength, pldm.CcErrorInvalidLength)
	}
	off := 0
	pldm.PutUint32LE(body[off:], req.MaxTransferSize)
	off += 4
	pldm.PutUint16LE(body[off:], req.NumberOfComponents)
	off += 2
	body[off] = req.MaxOutstandingTransferReq
	off++
	pldm.PutUint16LE(body[off:], req.PackageDataLength)
	off += 2
	body[off] = uint8(req.CompImageSetVerStrType)
	off++
	body[off] = req.CompImageSetVerStrLength
	off++
	off += copy(body[off:], req.CompImageSetVerStr)
	return n + off, nil
}

func DecodeRequestUpdateRequest(buf []byte) (RequestUpdateRequest, int, error) {
	h, n, err := pldm.DecodeHeader(buf)
	if err != nil {
		return RequestUpdateRequest{}, 0, err
	}
	_ = h
	body := buf[n:]
	if len(body) < requestUpdateFixedSize {
		return RequestUpdateRequest{}, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
	}
	var req RequestUpdateRequest
	off := 0
	req.MaxTransferSize = pldm.Uint32LE(body[off:])
	off += 4
	req.NumberOfComponents = pldm.Uint16LE(body[off:])
	off += 2
	req.MaxOutstandingTransferReq = body[off]
	off++
	req.PackageDataLength = pldm.Uint16LE(body[off:])
	off += 2
	req.CompImageSetVerStrType = VersionStringType(body[off])
	off++
	req.CompImageSetVerStrLength = body[off]
	off++
	if off+int(req.CompImageSetVerStrLength) > len(body) {
		return RequestUpdateRequest{}, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
	}
	req.CompImageSetVerStr = body[off : off+int(req.CompImageSetVerStrLength)]
	off += int(req.CompImageSetVerStrLength)
	return req, n + off, nil
}

// RequestUpdateResponse is DSP0267 §6.3 Table 11.
type RequestUpdateResponse struct {
	CompletionCode      pldm.CompletionCode
	FDMetaDataLength    uint16
	FDWillSendPkgData   bool
}

const requestUpdateRespSize = 1 + 2 + 1

func EncodeRequestUpdateResponse(instanceID uint8, resp RequestUpdateResponse, buf []byte) (int, error) {
	n, err := pldm.EncodeHeader(pldm.Header{
		InstanceID: instanceID,
		Type:       pldm.PLDMType,
		Command:    pldm.CmdRequestUpdate,
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
	if len(body) < requestUpdateRespSize {
		return 0, pldm.NewFault(pldm.ErrInvalidLength, pldm.CcErrorInvalidLength)
	}
	pldm.PutUint16LE(body[1:], resp.FDMetaDataLength)
	if resp.FDWillSendPkgData {
		body[3] = 1
	} else {
		body[3] = 0
	}
	return n + requestUpdateRespSize, nil
}

func DecodeRequestUpdateResponse(buf []byte) (RequestUpdateResponse, int, error) {
	h, n, err := pldm.DecodeHeader(buf)
	if err != nil {
		return RequestUpdateResponse{}, 0, err
	}
	_ = h
	body := buf[n:]
	if len(body) < 1 {
		return RequestUpdateResponse{}, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
	}
	resp := RequestUpdateResponse{CompletionCode: pldm.CompletionCode(body[0])}
	if resp.CompletionCode != pldm.CcSuccess {
		return resp, n + 1, nil
	}
	if len(body) < requestUpdateRespSize {
		return RequestUpdateResponse{}, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
	}
	resp.FDMetaDataLength = pldm.Uint16LE(body[1:])
	resp.FDWillSendPkgData = body[3] != 0
	return resp, n + requestUpdateRespSize, nil
}
