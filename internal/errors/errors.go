// Package errors provides typed error codes for the bridge command surface.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Code classifies a bridge error.
type Code string

const (
	// NotRunning means a command was issued while the daemon is stopped
	// or uninitialized.
	NotRunning Code = "NOT_RUNNING"
	// NotFound means a query referenced an unknown identifier.
	NotFound Code = "NOT_FOUND"
	// InvalidArgument means the caller supplied malformed input.
	InvalidArgument Code = "INVALID_ARGUMENT"
	// DaemonRejected means the native layer refused the operation.
	DaemonRejected Code = "DAEMON_REJECTED"
	// Timeout means a bounded synchronous wait was exceeded.
	Timeout Code = "TIMEOUT"
	// ProtocolAnomaly means an event referenced an unknown or terminal entity.
	ProtocolAnomaly Code = "PROTOCOL_ANOMALY"
)

// Error is a bridge error with a stable code and optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error wrapping cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: cause}
}

// CodeOf extracts the bridge code from err, or "" if err is not a bridge error.
func CodeOf(err error) Code {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
