//go:build linux

package uapi

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// Setup invokes io_uring_setup(2). On success the kernel has filled
// params with negotiated entry counts and per-ring field offsets, and
// the returned descriptor is ready for the ring mmaps. Failure returns
// the raw errno.
func Setup(entries uint32, params *Params) (int, error) {
	fd, _, errno := unix.Syscall(
		unix.SYS_IO_URING_SETUP,
		uintptr(entries),
		uintptr(unsafe.Pointer(params)),
		0)
	if errno != 0 {
		return -1, errno
	}
	return int(fd), nil
}

// Enter invokes io_uring_enter(2): submits up to toSubmit published
// entries and, with EnterGetEvents set and minComplete > 0, blocks
// until minComplete completions are available or a signal in sig
// interrupts the wait. Returns the number of entries the kernel
// consumed, which may be less than toSubmit.
func Enter(fd int, toSubmit, minComplete, flags uint32, sig *unix.Sigset_t) (int, error) {
	var sigPtr, sigSz uintptr
	if sig != nil {
		sigPtr = uintptr(unsafe.Pointer(sig))
		sigSz = NSig / 8
	}
	n, _, errno := unix.Syscall6(
		unix.SYS_IO_URING_ENTER,
		uintptr(fd),
		uintptr(toSubmit),
		uintptr(minComplete),
		uintptr(flags),
		sigPtr,
		sigSz)
	if errno != 0 {
		return 0, errno
	}
	return int(n), nil
}
