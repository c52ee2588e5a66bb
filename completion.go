package pldm

// CompletionCode is the 8-bit status every PLDM response body carries,
// per DSP0240. FWUP-specific codes are defined in DSP0267 §5; the base
// codes are defined in DSP0240 §13.
type CompletionCode uint8

const (
	CcSuccess             CompletionCode = 0x00
	CcError               CompletionCode = 0x01
	CcErrorInvalidData    CompletionCode = 0x02
	CcErrorInvalidLength  CompletionCode = 0x03
	CcErrorNotReady       CompletionCode = 0x04
	CcErrorUnsupportedPldmCmd CompletionCode = 0x05
	CcErrorInvalidPldmType CompletionCode = 0x20

	// DSP0267 FWUP completion codes.
	CcNotInUpdateMode            CompletionCode = 0x80
	CcAlreadyInUpdateMode        CompletionCode = 0x81
	CcDataOutOfRange             CompletionCode = 0x82
	CcInvalidTransferLength      CompletionCode = 0x83
	CcInvalidStateForCommand     CompletionCode = 0x84
	CcIncompleteUpdate           CompletionCode = 0x85
	CcBusyInBackground           CompletionCode = 0x86
	CcCancelPending              CompletionCode = 0x87
	CcCommandNotExpected         CompletionCode = 0x88
	CcRetryRequestFWData         CompletionCode = 0x89
	CcUnableToInitiateUpdate     CompletionCode = 0x8A
	CcActivationNotRequired      CompletionCode = 0x8B
	CcSelfContainedActivationNotPermitted CompletionCode = 0x8C
	CcNoDeviceMetadata           CompletionCode = 0x8D
	CcRetryRequestUpdate         CompletionCode = 0x8E
	CcNoPackageData              CompletionCode = 0x8F
	CcInvalidTransferHandle      CompletionCode = 0x90
	CcInvalidTransferOperationFlag CompletionCode = 0x91
	CcActivatePendingImageNotPermitted CompletionCode = 0x92
	CcPackageDataError           CompletionCode = 0x93
)

func (c CompletionCode) String() string {
	if name, ok := completionCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

var completionCodeNames = map[CompletionCode]string{
	CcSuccess:                  "SUCCESS",
	CcError:                    "ERROR",
	CcErrorInvalidData:         "ERROR_INVALID_DATA",
	CcErrorInvalidLength:       "ERROR_INVALID_LENGTH",
	CcErrorNotReady:            "ERROR_NOT_READY",
	CcErrorUnsupportedPldmCmd:  "ERROR_UNSUPPORTED_PLDM_CMD",
	CcErrorInvalidPldmType:     "ERROR_INVALID_PLDM_TYPE",
	CcNotInUpdateMode:          "NOT_IN_UPDATE_MODE",
	CcAlreadyInUpdateMode:      "ALREADY_IN_UPDATE_MODE",
	CcDataOutOfRange:           "DATA_OUT_OF_RANGE",
	CcInvalidTransferLength:    "INVALID_TRANSFER_LENGTH",
	CcInvalidStateForCommand:   "INVALID_STATE_FOR_COMMAND",
	CcIncompleteUpdate:         "INCOMPLETE_UPDATE",
	CcBusyInBackground:         "BUSY_IN_BACKGROUND",
	CcCancelPending:            "CANCEL_PENDING",
	CcCommandNotExpected:       "COMMAND_NOT_EXPECTED",
	CcRetryRequestFWData:       "RETRY_REQUEST_FW_DATA",
	CcUnableToInitiateUpdate:   "UNABLE_TO_INITIATE_UPDATE",
	CcActivationNotRequired:    "ACTIVATION_NOT_REQUIRED",
	CcSelfContainedActivationNotPermitted: "SELF_CONTAINED_ACTIVATION_NOT_PERMITTED",
	CcNoDeviceMetadata:         "NO_DEVICE_METADATA",
	CcRetryRequestUpdate:       "RETRY_REQUEST_UPDATE",
	CcNoPackageData:            "NO_PACKAGE_DATA",
	CcInvalidTransferHandle:    "INVALID_TRANSFER_HANDLE",
	CcInvalidTransferOperationFlag: "INVALID_TRANSFER_OPERATION_FLAG",
	CcActivatePendingImageNotPermitted: "ACTIVATE_PENDING_IMAGE_NOT_PERMITTED",
	CcPackageDataError:         "PACKAGE_DATA_ERROR",
}

// Command is a PLDM FWUP command code, DSP0267 Table 7.
type Command uint8

const (
	CmdQueryDeviceIdentifiers Command = 0x01
	CmdGetFirmwareParameters  Command = 0x02
	CmdRequestUpdate          Command = 0x10
	CmdGetPackageData         Command = 0x11
	CmdGetDeviceMetaData      Command = 0x12
	CmdPassComponentTable     Command = 0x13
	CmdUpdateComponent        Command = 0x14
	CmdRequestFirmwareData    Command = 0x15
	CmdTransferComplete       Command = 0x16
	CmdVerifyComplete         Command = 0x17
	CmdApplyComplete          Command = 0x18
	CmdGetStatus              Command = 0x1B
	CmdCancelUpdateComponent  Command = 0x1C
	CmdCancelUpdate           Command = 0x1D
	CmdActivateFirmware       Command = 0x1A
)

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "UNKNOWN_COMMAND"
}

var commandNames = map[Command]string{
	CmdQueryDeviceIdentifiers: "QueryDeviceIdentifiers",
	CmdGetFirmwareParameters:  "GetFirmwareParameters",
	CmdRequestUpdate:          "RequestUpdate",
	CmdGetPackageData:         "GetPackageData",
	CmdGetDeviceMetaData:      "GetDeviceMetaData",
	CmdPassComponentTable:     "PassComponentTable",
	CmdUpdateComponent:        "UpdateComponent",
	CmdRequestFirmwareData:    "RequestFirmwareData",
	CmdTransferComplete:       "TransferComplete",
	CmdVerifyComplete:         "VerifyComplete",
	CmdApplyComplete:          "ApplyComplete",
	CmdGetStatus:              "GetStatus",
	CmdCancelUpdateComponent:  "CancelUpdateComponent",
	CmdCancelUpdate:           "CancelUpdate",
	CmdActivateFirmware:       "ActivateFirmware",
}

// PLDMType is the value carried in the PLDM header's type field. FWUP is
// PLDM type 5 per DSP0267.
const PLDMType = 0x05

// MCTPMessageTypePLDM is the MCTP message-type byte that precedes every
// PLDM message on the wire (DSP0240 §6).
const MCTPMessageTypePLDM = 0x01

// BaselineTransferSize is the minimum max_transfer_size a PLDM FWUP
// endpoint may negotiate, per DSP0267 §5.1.
const BaselineTransferSize = 32
