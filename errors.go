package uring

import (
	"errors"
	"fmt"
	"strings"
	"syscall"
)

// Error represents a structured ring error with operation context and
// errno mapping
type Error struct {
	Op    string        // Operation that failed (e.g., "IO_URING_SETUP", "MMAP")
	Code  ErrorCode     // High-level error category
	Errno syscall.Errno // Kernel errno (0 if not applicable)
	Msg   string        // Human-readable message
	Inner error         // Wrapped error
}

// Error implements the error interface
func (e *Error) Error() string {
	var parts []string

	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.Errno != 0 {
		parts = append(parts, fmt.Sprintf("errno=%d", int(e.Errno)))
	}

	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}

	if len(parts) > 0 {
		return fmt.Sprintf("uring: %s (%s)", msg, strings.Join(parts, ", "))
	}
	return fmt.Sprintf("uring: %s", msg)
}

// Unwrap returns the wrapped error for errors.Is/As support
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is matches other structured errors by code
func (e *Error) Is(target error) bool {
	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}
	return false
}

// ErrorCode represents high-level error categories
type ErrorCode string

const (
	ErrCodeSetup             ErrorCode = "ring setup rejected"
	ErrCodeEnter             ErrorCode = "enter rejected"
	ErrCodeMapping           ErrorCode = "memory mapping failed"
	ErrCodeSizeQuery         ErrorCode = "size query failed"
	ErrCodeAllocation        ErrorCode = "buffer allocation failed"
	ErrCodeInvalidParameters ErrorCode = "invalid parameters"
	ErrCodeNotSupported      ErrorCode = "not supported by kernel"
	ErrCodeIOError           ErrorCode = "I/O error"
)

// NewError creates a new structured error
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{
		Op:   op,
		Code: code,
		Msg:  msg,
	}
}

// WrapErrno creates a structured error around a kernel errno, refining
// the given default code where the errno implies a more specific one
func WrapErrno(op string, code ErrorCode, err error) *Error {
	e := &Error{
		Op:    op,
		Code:  code,
		Msg:   err.Error(),
		Inner: err,
	}
	if errno, ok := err.(syscall.Errno); ok {
		e.Errno = errno
		switch errno {
		case syscall.EINVAL, syscall.E2BIG:
			e.Code = ErrCodeInvalidParameters
		case syscall.ENOSYS, syscall.EOPNOTSUPP:
			e.Code = ErrCodeNotSupported
		}
	}
	return e
}

// IsCode checks if an error matches a specific error code
func IsCode(err error, code ErrorCode) bool {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Code == code
	}
	return false
}

// IsErrno checks if an error carries a specific errno
func IsErrno(err error, errno syscall.Errno) bool {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Errno == errno
	}
	return false
}
