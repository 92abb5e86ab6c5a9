// Package uapi mirrors the io_uring kernel ABI: setup parameters, ring
// offsets, submission and completion entries, and the raw syscalls.
// Layouts must match include/uapi/linux/io_uring.h byte for byte.
package uapi

import "unsafe"

// SQRingOffsets describes byte offsets of every submission ring field
// within the SQ ring mapping. Filled by the kernel at setup.
//
//	struct io_sqring_offsets {
//	  __u32 head;
//	  __u32 tail;
//	  __u32 ring_mask;
//	  __u32 ring_entries;
//	  __u32 flags;
//	  __u32 dropped;
//	  __u32 array;
//	  __u32 resv1;
//	  __u64 user_addr;
//	};
type SQRingOffsets struct {
	Head        uint32
	Tail        uint32
	RingMask    uint32
	RingEntries uint32
	Flags       uint32
	Dropped     uint32
	Array       uint32
	Resv1       uint32
	UserAddr    uint64
}

// CQRingOffsets describes byte offsets of every completion ring field
// within the CQ ring mapping. Filled by the kernel at setup.
type CQRingOffsets struct {
	Head        uint32
	Tail        uint32
	RingMask    uint32
	RingEntries uint32
	Overflow    uint32
	CQEs        uint32
	Flags       uint32
	Resv1       uint32
	UserAddr    uint64
}

// Params is struct io_uring_params. The caller sets Flags (and CQEntries
// with SetupCQSize); the kernel fills everything else at setup.
type Params struct {
	SQEntries    uint32
	CQEntries    uint32
	Flags        uint32
	SQThreadCPU  uint32
	SQThreadIdle uint32
	Features     uint32
	WQFD         uint32
	Resv         [3]uint32
	SQOff        SQRingOffsets
	CQOff        CQRingOffsets
}

// SQEntry is struct io_uring_sqe (64-byte form; SQE128 is not used here).
type SQEntry struct {
	OpCode      uint8
	Flags       uint8
	IOPrio      uint16
	FD          int32
	Off         uint64 // offset union: off / addr2 / cmd_op
	Addr        uint64 // address union: addr / splice_off_in
	Len         uint32
	OpFlags     uint32 // per-opcode flags union: rw_flags / fsync_flags / ...
	UserData    uint64
	BufIndex    uint16 // buffer union: buf_index / buf_group
	Personality uint16
	SpliceFDIn  int32
	Addr3       uint64
	_           uint64
}

// CQEntry is struct io_uring_cqe (16-byte form; CQE32 is not used here).
type CQEntry struct {
	UserData uint64
	Res      int32
	Flags    uint32
}

// Compile-time layout checks against the kernel ABI
var (
	_ [40]byte  = [unsafe.Sizeof(SQRingOffsets{})]byte{}
	_ [40]byte  = [unsafe.Sizeof(CQRingOffsets{})]byte{}
	_ [120]byte = [unsafe.Sizeof(Params{})]byte{}
	_ [64]byte  = [unsafe.Sizeof(SQEntry{})]byte{}
	_ [16]byte  = [unsafe.Sizeof(CQEntry{})]byte{}
)
