package uring

import (
	"errors"
	"syscall"
	"testing"
)

func TestStructuredError(t *testing.T) {
	err := NewError("IO_URING_SETUP", ErrCodeSetup, "too many entries")

	if err.Op != "IO_URING_SETUP" {
		t.Errorf("Expected Op=IO_URING_SETUP, got %s", err.Op)
	}
	if err.Code != ErrCodeSetup {
		t.Errorf("Expected Code=ErrCodeSetup, got %s", err.Code)
	}

	expected := "uring: too many entries (op=IO_URING_SETUP)"
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}
}

func TestErrorMessageWithErrno(t *testing.T) {
	err := WrapErrno("MMAP_SQ_RING", ErrCodeMapping, syscall.ENOMEM)

	expected := "uring: cannot allocate memory (op=MMAP_SQ_RING, errno=12)"
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}
}

func TestWrapErrno(t *testing.T) {
	err := WrapErrno("IO_URING_ENTER", ErrCodeEnter, syscall.EBADF)

	if err.Code != ErrCodeEnter {
		t.Errorf("Expected Code=ErrCodeEnter, got %s", err.Code)
	}
	if err.Errno != syscall.EBADF {
		t.Errorf("Expected Errno=EBADF, got %v", err.Errno)
	}
	if !errors.Is(err, syscall.EBADF) {
		t.Error("Expected wrapped error to satisfy errors.Is for EBADF")
	}
}

func TestWrapErrnoRefinesCode(t *testing.T) {
	tests := []struct {
		errno syscall.Errno
		want  ErrorCode
	}{
		{syscall.EINVAL, ErrCodeInvalidParameters},
		{syscall.E2BIG, ErrCodeInvalidParameters},
		{syscall.ENOSYS, ErrCodeNotSupported},
		{syscall.EOPNOTSUPP, ErrCodeNotSupported},
		{syscall.ENOMEM, ErrCodeSetup}, // default code preserved
	}

	for _, tt := range tests {
		err := WrapErrno("IO_URING_SETUP", ErrCodeSetup, tt.errno)
		if err.Code != tt.want {
			t.Errorf("WrapErrno(%v) code = %s, want %s", tt.errno, err.Code, tt.want)
		}
	}
}

func TestErrorsIsByCode(t *testing.T) {
	err := WrapErrno("MMAP_CQ_RING", ErrCodeMapping, syscall.ENOMEM)

	if !errors.Is(err, &Error{Code: ErrCodeMapping}) {
		t.Error("Structured errors should match by code via errors.Is")
	}
	if errors.Is(err, &Error{Code: ErrCodeEnter}) {
		t.Error("Mismatched codes should not satisfy errors.Is")
	}
}

func TestIsCode(t *testing.T) {
	err := NewError("FILE_SIZE", ErrCodeSizeQuery, "not a regular file or block device")

	if !IsCode(err, ErrCodeSizeQuery) {
		t.Error("IsCode should return true for matching code")
	}
	if IsCode(err, ErrCodeIOError) {
		t.Error("IsCode should return false for non-matching code")
	}
	if IsCode(nil, ErrCodeSizeQuery) {
		t.Error("IsCode should return false for nil error")
	}
}

func TestIsErrno(t *testing.T) {
	err := WrapErrno("IO_URING_SETUP", ErrCodeSetup, syscall.EPERM)

	if !IsErrno(err, syscall.EPERM) {
		t.Error("IsErrno should return true for matching errno")
	}
	if IsErrno(err, syscall.EINVAL) {
		t.Error("IsErrno should return false for non-matching errno")
	}
	if IsErrno(errors.New("plain"), syscall.EPERM) {
		t.Error("IsErrno should return false for non-structured error")
	}
}
