//go:build linux

// Package mem provides owned, alignment-constrained byte buffers backed
// by anonymous mappings, so allocation failure is an error value rather
// than an abort and release is explicit.
package mem

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Buffer is an owned buffer whose start address satisfies the alignment
// requested at allocation. The zero value is not usable; use Alloc.
type Buffer struct {
	raw []byte // full mapping, kept for Release
	buf []byte // aligned window of the requested size
}

// Alloc returns a buffer of the given size whose address is a multiple
// of align. align must be a power of two.
func Alloc(size, align int) (*Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("mem: invalid size %d", size)
	}
	if align <= 0 || align&(align-1) != 0 {
		return nil, fmt.Errorf("mem: alignment %d is not a power of two", align)
	}

	// Anonymous mappings are page aligned; over-allocate so any larger
	// alignment can be satisfied by sliding the window.
	raw, err := unix.Mmap(-1, 0, size+align,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, err
	}

	base := uintptr(unsafe.Pointer(&raw[0]))
	pad := 0
	if rem := int(base & uintptr(align-1)); rem != 0 {
		pad = align - rem
	}

	return &Buffer{
		raw: raw,
		buf: raw[pad : pad+size],
	}, nil
}

// Bytes returns the aligned window. The slice stays valid until Release.
func (b *Buffer) Bytes() []byte { return b.buf }

// Len returns the usable buffer size.
func (b *Buffer) Len() int { return len(b.buf) }

// Release unmaps the buffer. The slices returned by Bytes must not be
// used afterwards.
func (b *Buffer) Release() error {
	if b.raw == nil {
		return nil
	}
	raw := b.raw
	b.raw = nil
	b.buf = nil
	return unix.Munmap(raw)
}
