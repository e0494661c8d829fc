package errors

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrTerminalURLMissing   = errors.New("terminal base URL is not configured")
	ErrUnsupportedTransport = errors.New("unsupported transport mode")
	ErrInvalidAmount        = errors.New("invalid amount")

	// Transport errors
	ErrEmptyResponse       = errors.New("terminal returned an empty response")
	ErrTerminalUnreachable = errors.New("terminal is not reachable")

	// Bridge errors
	ErrAppLaunchFailed     = errors.New("terminal application could not be launched")
	ErrOperationCancelled  = errors.New("operation cancelled")
	ErrOperationSuperseded = errors.New("operation superseded by a newer request")
	ErrNoPendingOperation  = errors.New("no pending operation for callback")

	// Vendor errors
	ErrPaymentDeclined = errors.New("payment declined by acquirer")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")
)

// DomainError wraps errors with additional context
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
