//go:build linux

// Package uring is a thin user-space wrapper around the Linux io_uring
// interface. It owns the ring descriptor and the shared-memory mappings
// the kernel and the process use to exchange submission and completion
// records, and exposes the atomic counter protocol directly. A
// companion block planner (BlockFile) partitions a file into
// fixed-size, alignment-satisfying buffers for aligned I/O against the
// ring.
package uring

import (
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/ehrlich-b/go-uring/internal/logging"
	"github.com/ehrlich-b/go-uring/internal/uapi"
)

// Ring owns an io_uring descriptor and its three shared-memory regions:
// the submission ring, the completion ring, and the submission entry
// array. The ring protocol is single-producer/single-consumer against
// the kernel; a Ring holds no internal lock and its own bookkeeping is
// not goroutine safe.
type Ring struct {
	fd     int
	params uapi.Params

	sqMem  []byte
	cqMem  []byte // aliases sqMem when the kernel reports FeatSingleMMap
	sqeMem []byte

	sq   sqView
	cq   cqView
	sqes []SQE

	metrics *Metrics
	logger  *logging.Logger
}

// New creates a ring with the requested submission queue depth by
// invoking io_uring_setup(2) and mapping the regions described by the
// kernel-filled parameter block. flags are IORING_SETUP_* bits (see the
// Setup* constants). If any mapping or offset validation fails, every
// region mapped so far is torn down and the descriptor closed; no
// partially-mapped ring is ever returned.
func New(entries uint32, flags uint32) (*Ring, error) {
	logger := logging.Default()

	var params uapi.Params
	params.Flags = flags

	fd, err := uapi.Setup(entries, &params)
	if err != nil {
		return nil, WrapErrno("IO_URING_SETUP", ErrCodeSetup, err)
	}
	logger = logger.WithRing(fd)
	logger.Debug("ring descriptor created",
		"sq_entries", params.SQEntries, "cq_entries", params.CQEntries,
		"features", params.Features)

	r := &Ring{
		fd:      fd,
		params:  params,
		metrics: NewMetrics(),
		logger:  logger,
	}
	if err := r.mapRegions(); err != nil {
		r.unmapAll()
		unix.Close(fd)
		return nil, err
	}

	return r, nil
}

// mapRegions maps the submission ring, completion ring, and submission
// entry array, then derives the validated field views. On error the
// caller unmaps whatever was established.
func (r *Ring) mapRegions() error {
	sqSize := int(r.params.SQOff.Array) + int(r.params.SQEntries)*int(unsafe.Sizeof(uint32(0)))
	cqSize := int(r.params.CQOff.CQEs) + int(r.params.CQEntries)*int(unsafe.Sizeof(CQE{}))

	// With FeatSingleMMap one kernel window backs both rings; the
	// mapping must cover whichever ring extends further. Older kernels
	// export a distinct completion ring window at OffCQRing.
	single := r.params.Features&uapi.FeatSingleMMap != 0
	if single {
		if cqSize > sqSize {
			sqSize = cqSize
		}
		cqSize = sqSize
	}

	var err error
	r.sqMem, err = unix.Mmap(r.fd, int64(uapi.OffSQRing), sqSize,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		return WrapErrno("MMAP_SQ_RING", ErrCodeMapping, err)
	}

	if single {
		r.cqMem = r.sqMem
	} else {
		r.cqMem, err = unix.Mmap(r.fd, int64(uapi.OffCQRing), cqSize,
			unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
		if err != nil {
			return WrapErrno("MMAP_CQ_RING", ErrCodeMapping, err)
		}
	}

	sqeSize := int(r.params.SQEntries) * int(unsafe.Sizeof(SQE{}))
	r.sqeMem, err = unix.Mmap(r.fd, int64(uapi.OffSQEs), sqeSize,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		return WrapErrno("MMAP_SQES", ErrCodeMapping, err)
	}
	r.sqes = unsafe.Slice((*SQE)(unsafe.Pointer(&r.sqeMem[0])), r.params.SQEntries)

	r.sq, err = newSQView(r.sqMem, r.params.SQOff, r.params.SQEntries)
	if err != nil {
		return NewError("SQ_RING_VIEW", ErrCodeMapping, err.Error())
	}
	r.cq, err = newCQView(r.cqMem, r.params.CQOff, r.params.CQEntries)
	if err != nil {
		return NewError("CQ_RING_VIEW", ErrCodeMapping, err.Error())
	}

	return nil
}

func (r *Ring) unmapAll() {
	if r.sqeMem != nil {
		unix.Munmap(r.sqeMem)
		r.sqeMem = nil
	}
	if r.cqMem != nil && (r.sqMem == nil || &r.cqMem[0] != &r.sqMem[0]) {
		unix.Munmap(r.cqMem)
	}
	r.cqMem = nil
	if r.sqMem != nil {
		unix.Munmap(r.sqMem)
		r.sqMem = nil
	}
	r.sqes = nil
	r.sq = sqView{}
	r.cq = cqView{}
}

// Close unmaps all three regions and closes the descriptor
func (r *Ring) Close() error {
	r.metrics.Stop()
	r.unmapAll()
	if r.fd < 0 {
		return nil
	}
	err := unix.Close(r.fd)
	r.fd = -1
	if err != nil {
		return WrapErrno("CLOSE", ErrCodeIOError, err)
	}
	return nil
}

// FD returns the ring descriptor
func (r *Ring) FD() int { return r.fd }

// Params returns a copy of the kernel-negotiated setup parameters
func (r *Ring) Params() Params { return r.params }

// Metrics returns the ring's metrics instance
func (r *Ring) Metrics() *Metrics { return r.metrics }

// SQHead atomically loads the submission head (written by the kernel).
// The counter increases mod 2^32; wrapping is normal operation.
func (r *Ring) SQHead() uint32 { return atomic.LoadUint32(r.sq.head) }

// SQTail atomically loads the submission tail (written by this side)
func (r *Ring) SQTail() uint32 { return atomic.LoadUint32(r.sq.tail) }

// CQHead atomically loads the completion head (written by this side)
func (r *Ring) CQHead() uint32 { return atomic.LoadUint32(r.cq.head) }

// CQTail atomically loads the completion tail (written by the kernel)
func (r *Ring) CQTail() uint32 { return atomic.LoadUint32(r.cq.tail) }

// CQOverflow atomically loads the completion overflow counter
func (r *Ring) CQOverflow() uint32 { return atomic.LoadUint32(r.cq.overflow) }

// SQDropped atomically loads the count of submissions the kernel
// rejected for malformed index array entries
func (r *Ring) SQDropped() uint32 { return atomic.LoadUint32(r.sq.dropped) }

// SetSQTail atomically stores the submission tail. The store has
// release semantics: SQE contents and index array writes made before
// the call are visible to the kernel before the new tail is.
func (r *Ring) SetSQTail(v uint32) { atomic.StoreUint32(r.sq.tail, v) }

// SetCQHead atomically stores the completion head, returning consumed
// CQE slots to the kernel
func (r *Ring) SetCQHead(v uint32) { atomic.StoreUint32(r.cq.head, v) }

// SQMask returns the submission ring mask (entry count minus one,
// fixed at setup)
func (r *Ring) SQMask() uint32 { return *r.sq.mask }

// CQMask returns the completion ring mask
func (r *Ring) CQMask() uint32 { return *r.cq.mask }

// SQEs returns the mapped submission entry array. Slots are addressed
// by index, not ring position; a slot referenced by a published entry
// must not be reused until its completion is observed.
func (r *Ring) SQEs() []SQE { return r.sqes }

// CQEs returns the mapped completion entry array. Entries at positions
// [CQHead, CQTail) mod mask are valid.
func (r *Ring) CQEs() []CQE { return r.cq.cqes }

// SQArray returns the submission index array mapping ring positions to
// SQE slots
func (r *Ring) SQArray() []uint32 { return r.sq.array }

// Enter invokes io_uring_enter(2), submitting up to toSubmit published
// entries. With EnterGetEvents in flags and minComplete > 0, the call
// blocks until minComplete completions are available or a signal in
// sig interrupts the wait; minComplete == 0 never blocks. Returns the
// number of entries the kernel accepted, which may be less than
// toSubmit.
func (r *Ring) Enter(toSubmit, minComplete, flags uint32, sig *unix.Sigset_t) (int, error) {
	start := time.Now()
	n, err := uapi.Enter(r.fd, toSubmit, minComplete, flags, sig)
	r.metrics.RecordEnter(n, uint64(time.Since(start).Nanoseconds()), err)
	if err != nil {
		r.logger.Debug("enter failed",
			"to_submit", toSubmit, "min_complete", minComplete, "error", err)
		return 0, WrapErrno("IO_URING_ENTER", ErrCodeEnter, err)
	}
	return n, nil
}

// Push runs the two-step publish protocol for one entry: it fills the
// SQE slot at tail&mask via prep, writes that slot index into the
// submission index array, then release-stores the advanced tail.
// Returns false without side effects when the ring is full. The entry
// still needs an Enter call to be consumed.
func (r *Ring) Push(prep func(*SQE)) bool {
	head := atomic.LoadUint32(r.sq.head)
	tail := atomic.LoadUint32(r.sq.tail)
	if tail-head >= r.params.SQEntries {
		return false
	}

	idx := tail & r.SQMask()
	sqe := &r.sqes[idx]
	*sqe = SQE{}
	prep(sqe)
	r.sq.array[idx] = idx

	atomic.StoreUint32(r.sq.tail, tail+1)
	return true
}

// NextCQE drains one completion: the kernel tail is acquire-loaded so
// the CQE payload it published is fully observable before the copy,
// then the head advance returns the slot. Returns false when the
// completion ring is empty.
func (r *Ring) NextCQE() (CQE, bool) {
	head := atomic.LoadUint32(r.cq.head)
	tail := atomic.LoadUint32(r.cq.tail)
	if head == tail {
		return CQE{}, false
	}

	cqe := r.cq.cqes[head&r.CQMask()]
	atomic.StoreUint32(r.cq.head, head+1)
	r.metrics.RecordCompletion()
	return cqe, true
}
