//go:build linux

package uring

import (
	"fmt"
	"unsafe"

	"github.com/ehrlich-b/go-uring/internal/uapi"
)

// sqView exposes typed, bounds-checked pointers into the submission
// ring mapping. The tail is the only counter this side writes; head and
// dropped belong to the kernel.
type sqView struct {
	head    *uint32 // kernel-owned consumer index
	tail    *uint32 // caller-owned producer index
	mask    *uint32
	entries *uint32
	flags   *uint32
	dropped *uint32 // kernel-owned
	array   []uint32
}

// cqView exposes typed, bounds-checked pointers into the completion
// ring mapping. The head is the only counter this side writes; tail and
// overflow belong to the kernel.
type cqView struct {
	head     *uint32 // caller-owned consumer index
	tail     *uint32 // kernel-owned producer index
	mask     *uint32
	entries  *uint32
	overflow *uint32 // kernel-owned
	cqes     []CQE
}

// field32 derives a uint32 pointer at a kernel-supplied byte offset,
// verifying it falls inside the mapping and is naturally aligned.
func field32(mem []byte, off uint32) (*uint32, error) {
	if off%4 != 0 {
		return nil, fmt.Errorf("misaligned field offset %d", off)
	}
	if int(off)+4 > len(mem) {
		return nil, fmt.Errorf("field offset %d outside %d-byte mapping", off, len(mem))
	}
	return (*uint32)(unsafe.Pointer(&mem[off])), nil
}

func newSQView(mem []byte, off uapi.SQRingOffsets, entries uint32) (sqView, error) {
	var v sqView
	var err error

	if v.head, err = field32(mem, off.Head); err != nil {
		return sqView{}, err
	}
	if v.tail, err = field32(mem, off.Tail); err != nil {
		return sqView{}, err
	}
	if v.mask, err = field32(mem, off.RingMask); err != nil {
		return sqView{}, err
	}
	if v.entries, err = field32(mem, off.RingEntries); err != nil {
		return sqView{}, err
	}
	if v.flags, err = field32(mem, off.Flags); err != nil {
		return sqView{}, err
	}
	if v.dropped, err = field32(mem, off.Dropped); err != nil {
		return sqView{}, err
	}

	arrayEnd := uint64(off.Array) + uint64(entries)*uint64(unsafe.Sizeof(uint32(0)))
	if off.Array%4 != 0 || arrayEnd > uint64(len(mem)) {
		return sqView{}, fmt.Errorf("index array [%d, %d) outside %d-byte mapping", off.Array, arrayEnd, len(mem))
	}
	v.array = unsafe.Slice((*uint32)(unsafe.Pointer(&mem[off.Array])), entries)

	return v, nil
}

func newCQView(mem []byte, off uapi.CQRingOffsets, entries uint32) (cqView, error) {
	var v cqView
	var err error

	if v.head, err = field32(mem, off.Head); err != nil {
		return cqView{}, err
	}
	if v.tail, err = field32(mem, off.Tail); err != nil {
		return cqView{}, err
	}
	if v.mask, err = field32(mem, off.RingMask); err != nil {
		return cqView{}, err
	}
	if v.entries, err = field32(mem, off.RingEntries); err != nil {
		return cqView{}, err
	}
	if v.overflow, err = field32(mem, off.Overflow); err != nil {
		return cqView{}, err
	}

	cqeSize := uint64(unsafe.Sizeof(CQE{}))
	cqesEnd := uint64(off.CQEs) + uint64(entries)*cqeSize
	if uint64(off.CQEs)%cqeSize != 0 || cqesEnd > uint64(len(mem)) {
		return cqView{}, fmt.Errorf("cqe array [%d, %d) outside %d-byte mapping", off.CQEs, cqesEnd, len(mem))
	}
	v.cqes = unsafe.Slice((*CQE)(unsafe.Pointer(&mem[off.CQEs])), entries)

	return v, nil
}
