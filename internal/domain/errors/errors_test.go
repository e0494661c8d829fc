package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{
			name: "with wrapped error",
			err: &DomainError{
				Code:    "transport_error",
				Message: "terminal call failed",
				Err:     errors.New("connection refused"),
			},
			expected: "terminal call failed: connection refused",
		},
		{
			name: "without wrapped error",
			err: &DomainError{
				Code:    "config_error",
				Message: "terminal base URL is not configured",
				Err:     nil,
			},
			expected: "terminal base URL is not configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	domainErr := NewDomainError("bridge_error", "launch failed", ErrAppLaunchFailed)

	assert.True(t, errors.Is(domainErr, ErrAppLaunchFailed))
	assert.Equal(t, ErrAppLaunchFailed, domainErr.Unwrap())
}

func TestNewDomainError(t *testing.T) {
	underlying := errors.New("underlying error")
	err := NewDomainError("test_code", "test message", underlying)

	assert.NotNil(t, err)
	assert.Equal(t, "test_code", err.Code)
	assert.Equal(t, "test message", err.Message)
	assert.Equal(t, underlying, err.Err)
}
