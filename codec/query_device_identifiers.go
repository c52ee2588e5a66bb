package codec

import (
	"github.com/cerberusfw/pldm"
)

// EncodeQueryDeviceIdentifiersRequest writes the 3-byte header only: the
// command carries no request payload (original_source's
// pldm_fwup_generate_query_device_identifiers_request passes a zero
// payload length).
func EncodeQueryDeviceIdentifiersRequest(instanceID uint8, buf []byte) (int, error) {
	return pldm.EncodeHeader(pldm.Header{
		InstanceID: instanceID,
		RequestBit: true,
		Type:       pldm.PLDMType,
		Command:    pldm.CmdQueryDeviceIdentifiers,
	}, buf)
}

// DecodeQueryDeviceIdentifiersRequest validates and strips the header; the
// body is empty by contract.
func DecodeQueryDeviceIdentifiersRequest(buf []byte) (pldm.Header, error) {
	h, _, err := pldm.DecodeHeader(buf)
	return h, err
}

// QueryDeviceIdentifiersResponse is the decoded/encodable response body,
// DSP0267 §6.1 Table 4.
type QueryDeviceIdentifiersResponse struct {
	CompletionCode      pldm.CompletionCode
	DeviceIdentifiersLength uint32
	DescriptorCount     uint8
	Descriptors         []Descriptor
}

func EncodeQueryDeviceIdentifiersResponse(instanceID uint8, resp QueryDeviceIdentifiersResponse, buf []byte) (int, error) {
	n, err := pldm.EncodeHeader(pldm.Header{
		InstanceID: instanceID,
		Type:       pldm.PLDMType,
		Command:    pldm.CmdQueryDeviceIdentifiers,
	}, buf)
	if err != nil {
		return 0, err
	}
	body := buf[n:]
	tableSize := descriptorTableSize(resp.Descriptors)
	need := 1 + 4 + 1 + tableSize
	if len(body) < need {
		return 0, pldm.NewFault(pldm.ErrInvalidLength, pldm.CcErrorInvalidLength)
	}
	body[0] = byte(resp.CompletionCode)
	if resp.CompletionCode != pldm.CcSuccess {
		return n + 1, nil
	}
	pldm.PutUint32LE(body[1:], uint32(tableSize))
	body[5] = uint8(len(resp.Descriptors))
	if _, err := encodeDescriptorTable(body[6:], resp.Descriptors); err != nil {
		return 0, err
	}
	return n + need, nil
}

func DecodeQueryDeviceIdentifiersResponse(buf []byte) (QueryDeviceIdentifiersResponse, int, error) {
	h, n, err := pldm.DecodeHeader(buf)
	if err != nil {
		return QueryDeviceIdentifiersResponse{}, 0, err
	}
	_ = h
	body := buf[n:]
	if len(body) < 1 {
		return QueryDeviceIdentifiersResponse{}, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
	}
	resp := QueryDeviceIdentifiersResponse{CompletionCode: pldm.CompletionCode(body[0])}
	if resp.CompletionCode != pldm.CcSuccess {
		return resp, n + 1, nil
	}
	if len(body) < 6 {
		return QueryDeviceIdentifiersResponse{}, 0, pldm.NewFault(pldm.ErrMsgTooShort, pldm.CcErrorInvalidLength)
	}
	resp.DeviceIdentifiersLength = pldm.Uint32LE(body[1:])
	resp.DescriptorCount = body[5]
	table, consumed, err := decodeDescriptorTable(body[6:], resp.DescriptorCount)
	if err != nil {
		return QueryDeviceIdentifiersResponse{}, 0, err
	}
	resp.Descriptors = table
	return resp, n + 6 + consumed, nil
}
