package ledger

import (
	"fmt"

	"github.com/pkg/errors"
)

// Validation kinds. Every ValidationError also matches ErrValidation.
var (
	ErrValidation   = errors.New("ledger: validation failed")
	ErrInvalidPath  = errors.New("invalid derivation path")
	ErrOutOfRange   = errors.New("value out of range")
	ErrMissingField = errors.New("missing field")
	ErrInvalidInput = errors.New("invalid input")
)

// Protocol kinds, carried by ProtocolError.Kind.
var (
	ErrUnexpectedStatus               = errors.New("unexpected status")
	ErrMalformedResponse              = errors.New("malformed response")
	ErrTransactionRejectedOrMalformed = errors.New("transaction rejected or malformed")
)

// ValidationError reports malformed caller input. It is raised before any
// device I/O happens.
type ValidationError struct {
	Kind   error
	Field  string
	Reason string
}

// NewValidationError creates a ValidationError of the given kind.
func NewValidationError(kind error, field string, format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		Kind:   kind,
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("ledger: %v: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("ledger: %v: %s: %s", e.Kind, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Kind }

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ProtocolError reports a device reply that violates the command contract.
type ProtocolError struct {
	Kind    error
	Status  uint16 // only set for ErrUnexpectedStatus
	Message string
}

func (e *ProtocolError) Error() string {
	if e.Kind == ErrUnexpectedStatus {
		return fmt.Sprintf("ledger: %v 0x%04x: %s", e.Kind, e.Status, e.Message)
	}
	if e.Message == "" {
		return fmt.Sprintf("ledger: %v", e.Kind)
	}
	return fmt.Sprintf("ledger: %v: %s", e.Kind, e.Message)
}

func (e *ProtocolError) Unwrap() error { return e.Kind }

// NewStatusError creates the ProtocolError for a non-success status word.
func NewStatusError(status uint16) *ProtocolError {
	return &ProtocolError{
		Kind:    ErrUnexpectedStatus,
		Status:  status,
		Message: StatusMessage(status),
	}
}

// Malformed creates an ErrMalformedResponse ProtocolError.
func Malformed(format string, args ...interface{}) *ProtocolError {
	return &ProtocolError{
		Kind:    ErrMalformedResponse,
		Message: fmt.Sprintf(format, args...),
	}
}

// StatusOf extracts the device status word from err, if there is one.
func StatusOf(err error) (uint16, bool) {
	var perr *ProtocolError
	if errors.As(err, &perr) && perr.Kind == ErrUnexpectedStatus {
		return perr.Status, true
	}
	return 0, false
}
