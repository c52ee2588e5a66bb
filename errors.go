// Package pldm implements the PLDM Firmware Update (FWUP) protocol engine
// for a Root-of-Trust firmware device: the wire codec, instance-ID
// correlation, multipart transfer coordination, the FD/UA state machines,
// and the command dispatcher that ties them together.
package pldm

import "fmt"

// ErrorKind classifies a Fault the way the PLDM FWUP engine's collaborators
// need to distinguish: codec failures are retried differently than protocol
// violations, which are handled differently than flash I/O failures.
type ErrorKind int

const (
	ErrKindNone ErrorKind = iota

	// Encoding/decoding
	ErrMsgTooShort
	ErrInvalidPLDMType
	ErrUnsupportedCommand
	ErrInvalidLength

	// Protocol
	ErrInvalidStateForCommand
	ErrAlreadyInUpdateMode
	ErrNotInUpdateMode
	ErrUnexpectedInstanceID
	ErrUnexpectedTransferHandle

	// Storage
	ErrFlashOutOfRange
	ErrFlashIOError

	// Operational
	ErrTimeout
	ErrRetryRequestFWData
	ErrVerifyFailed
	ErrApplyFailed
)

func (k ErrorKind) String() string {
	switch k {
	case ErrMsgTooShort:
		return "MSG_TOO_SHORT"
	case ErrInvalidPLDMType:
		return "INVALID_PLDM_TYPE"
	case ErrUnsupportedCommand:
		return "UNSUPPORTED_COMMAND"
	case ErrInvalidLength:
		return "INVALID_LENGTH"
	case ErrInvalidStateForCommand:
		return "INVALID_STATE_FOR_COMMAND"
	case ErrAlreadyInUpdateMode:
		return "ALREADY_IN_UPDATE_MODE"
	case ErrNotInUpdateMode:
		return "NOT_IN_UPDATE_MODE"
	case ErrUnexpectedInstanceID:
		return "UNEXPECTED_INSTANCE_ID"
	case ErrUnexpectedTransferHandle:
		return "UNEXPECTED_TRANSFER_HANDLE"
	case ErrFlashOutOfRange:
		return "FLASH_OUT_OF_RANGE"
	case ErrFlashIOError:
		return "FLASH_IO_ERROR"
	case ErrTimeout:
		return "TIMEOUT"
	case ErrRetryRequestFWData:
		return "RETRY_REQUEST_FW_DATA"
	case ErrVerifyFailed:
		return "VERIFY_FAILED"
	case ErrApplyFailed:
		return "APPLY_FAILED"
	default:
		return "NONE"
	}
}

// Fault is the typed error that codec, state machine, and dispatcher
// operations return for protocol failures, so a caller can recover the
// completion code to put on the wire without string matching. Some paths
// also return a bare sentinel such as ErrTransferAborted or
// ErrSessionNotFound.
type Fault struct {
	Kind             ErrorKind
	CompletionCode   CompletionCode
	Cause            error
}

func NewFault(kind ErrorKind, cc CompletionCode) *Fault {
	return &Fault{Kind: kind, CompletionCode: cc}
}

func WrapFault(kind ErrorKind, cc CompletionCode, cause error) *Fault {
	return &Fault{Kind: kind, CompletionCode: cc, Cause: cause}
}

func (f *Fault) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("pldm: %s (completion=%s): %s", f.Kind, f.CompletionCode, f.Cause)
	}
	return fmt.Sprintf("pldm: %s (completion=%s)", f.Kind, f.CompletionCode)
}

func (f *Fault) Unwrap() error {
	return f.Cause
}

// Operational sentinels mirroring kryptco-kr's plain package-level error
// values (kryptco-kr/error.go) for conditions that never carry a completion
// code because they never cross the wire.
var (
	ErrSessionNotFound = fmt.Errorf("pldm: no session for peer")
	ErrRegionNotFound  = fmt.Errorf("pldm: no such flash region")
	ErrTransferAborted = fmt.Errorf("pldm: multipart transfer aborted")
)
