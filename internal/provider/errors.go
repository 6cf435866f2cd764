package provider

import (
	"errors"
	"fmt"
	"strings"
)

// EIP-1193 / EIP-1474 error codes.
const (
	CodeUserRejected      = 4001
	CodeUnauthorized      = 4100
	CodeUnsupportedMethod = 4200
	CodeDisconnected      = 4900
	CodeChainDisconnected = 4901
	CodeUnrecognizedChain = 4902
	CodeRequestPending    = -32002
	CodeInvalidParams     = -32602
	CodeInternal          = -32603
)

// Error is a wallet-side failure carrying a numeric code.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

// NewError builds a provider error.
func NewError(code int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Code extracts the provider error code from err, or 0 when err carries none.
func Code(err error) int {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return 0
}

// IsUserRejection reports whether the user declined a prompt. Structured
// codes win; the message match only applies to errors without a code.
func IsUserRejection(err error) bool {
	if err == nil {
		return false
	}
	if code := Code(err); code != 0 {
		return code == CodeUserRejected
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "user denied") || strings.Contains(msg, "user rejected")
}
