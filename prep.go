//go:build linux

package uring

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/ehrlich-b/go-uring/internal/uapi"
)

// SQE preparation helpers. Each fully overwrites the entry, so they are
// safe on recycled slots obtained through SQEs() as well as Push.

// PrepNop prepares a no-op entry
func PrepNop(sqe *SQE, userData uint64) {
	*sqe = SQE{
		OpCode:   uapi.OpNop,
		FD:       -1,
		UserData: userData,
	}
}

// PrepReadv prepares a vectored read from fd at the given file offset.
// The iovec slice and every buffer it references must stay live and
// unmodified until the completion is observed.
func PrepReadv(sqe *SQE, fd int, iovs []unix.Iovec, off uint64, userData uint64) {
	*sqe = SQE{
		OpCode:   uapi.OpReadv,
		FD:       int32(fd),
		Off:      off,
		Addr:     uint64(uintptr(unsafe.Pointer(&iovs[0]))),
		Len:      uint32(len(iovs)),
		UserData: userData,
	}
}

// PrepWritev prepares a vectored write to fd at the given file offset
func PrepWritev(sqe *SQE, fd int, iovs []unix.Iovec, off uint64, userData uint64) {
	*sqe = SQE{
		OpCode:   uapi.OpWritev,
		FD:       int32(fd),
		Off:      off,
		Addr:     uint64(uintptr(unsafe.Pointer(&iovs[0]))),
		Len:      uint32(len(iovs)),
		UserData: userData,
	}
}

// PrepRead prepares a plain read into buf at the given file offset
func PrepRead(sqe *SQE, fd int, buf []byte, off uint64, userData uint64) {
	*sqe = SQE{
		OpCode:   uapi.OpRead,
		FD:       int32(fd),
		Off:      off,
		Addr:     uint64(uintptr(unsafe.Pointer(&buf[0]))),
		Len:      uint32(len(buf)),
		UserData: userData,
	}
}

// PrepWrite prepares a plain write of buf at the given file offset
func PrepWrite(sqe *SQE, fd int, buf []byte, off uint64, userData uint64) {
	*sqe = SQE{
		OpCode:   uapi.OpWrite,
		FD:       int32(fd),
		Off:      off,
		Addr:     uint64(uintptr(unsafe.Pointer(&buf[0]))),
		Len:      uint32(len(buf)),
		UserData: userData,
	}
}

// PrepFsync prepares an fsync of fd
func PrepFsync(sqe *SQE, fd int, userData uint64) {
	*sqe = SQE{
		OpCode:   uapi.OpFsync,
		FD:       int32(fd),
		UserData: userData,
	}
}
