//go:build linux

package uring

import (
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ehrlich-b/go-uring/internal/uapi"
)

// newTestRing creates a ring or skips when the environment does not
// provide io_uring (old kernel, seccomp, rlimits).
func newTestRing(t *testing.T, entries uint32) *Ring {
	t.Helper()

	r, err := New(entries, 0)
	if err != nil {
		if IsCode(err, ErrCodeNotSupported) ||
			IsErrno(err, syscall.EPERM) || IsErrno(err, syscall.ENOMEM) {
			t.Skipf("io_uring unavailable: %v", err)
		}
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestNewRingParams(t *testing.T) {
	r := newTestRing(t, 8)

	params := r.Params()
	require.Equal(t, uint32(8), params.SQEntries)
	require.GreaterOrEqual(t, params.CQEntries, params.SQEntries)
	require.Equal(t, params.SQEntries-1, r.SQMask())
	require.Equal(t, params.CQEntries-1, r.CQMask())

	require.Len(t, r.SQEs(), int(params.SQEntries))
	require.Len(t, r.CQEs(), int(params.CQEntries))
	require.Len(t, r.SQArray(), int(params.SQEntries))
}

func TestInvalidEntries(t *testing.T) {
	_, err := New(0, 0)
	require.Error(t, err)
	if IsCode(err, ErrCodeNotSupported) || IsErrno(err, syscall.EPERM) {
		t.Skipf("io_uring unavailable: %v", err)
	}
	require.True(t, IsErrno(err, syscall.EINVAL), "expected EINVAL, got %v", err)
}

// Mirrors the raw publish protocol: fill the SQE slot, set the index
// array entry, advance the tail, enter, drain one completion.
func TestSingleNop(t *testing.T) {
	r := newTestRing(t, 1)

	require.Equal(t, uint32(0), r.SQHead())

	PrepNop(&r.SQEs()[0], 42)
	r.SQArray()[0] = 0

	tail := r.SQTail()
	r.SetSQTail(tail + 1)

	n, err := r.Enter(1, 1, EnterGetEvents, nil)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.Equal(t, uint32(1), r.SQHead())
	require.Equal(t, uint32(1), r.CQTail())

	cqe := r.CQEs()[0]
	require.Equal(t, uint64(42), cqe.UserData)
	require.Equal(t, int32(0), cqe.Res)

	r.SetCQHead(r.CQHead() + 1)
}

func TestQueueingNops(t *testing.T) {
	r := newTestRing(t, 4)

	sqes := r.SQEs()
	array := r.SQArray()
	for i := 0; i < 4; i++ {
		PrepNop(&sqes[i], uint64(42+i))
		idx := uint32(i) & r.SQMask()
		array[idx] = idx
	}
	r.SetSQTail(r.SQTail() + 4)

	// Submit and reap in two batches of two
	n, err := r.Enter(2, 2, EnterGetEvents, nil)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, uint32(2), r.SQHead())
	require.Equal(t, uint32(2), r.CQTail())

	cqes := r.CQEs()
	for i := 0; i < 2; i++ {
		require.Equal(t, int32(0), cqes[i].Res)
		require.Equal(t, uint64(42+i), cqes[i].UserData)
	}
	r.SetCQHead(r.CQHead() + 2)

	n, err = r.Enter(2, 2, EnterGetEvents, nil)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, uint32(4), r.SQHead())
	require.Equal(t, uint32(4), r.CQTail())
	require.Equal(t, uint32(0), r.SQDropped())
	require.Equal(t, uint32(0), r.CQOverflow())

	for i := 2; i < 4; i++ {
		require.Equal(t, int32(0), cqes[i].Res)
		require.Equal(t, uint64(42+i), cqes[i].UserData)
	}
	r.SetCQHead(r.CQHead() + 2)
}

// Logical positions past the ring size must wrap onto the same physical
// slots via position & mask.
func TestRingWrapAround(t *testing.T) {
	r := newTestRing(t, 4)

	sqes := r.SQEs()
	array := r.SQArray()
	for round := 0; round < 2; round++ {
		for i := 0; i < 4; i++ {
			PrepNop(&sqes[i], uint64(100*round+i))
			idx := uint32(i) & r.SQMask()
			array[idx] = idx
		}
		r.SetSQTail(r.SQTail() + 4)

		n, err := r.Enter(4, 4, EnterGetEvents, nil)
		require.NoError(t, err)
		require.Equal(t, 4, n)

		require.Equal(t, uint32(4*(round+1)), r.SQHead())
		require.Equal(t, uint32(4*(round+1)), r.CQTail())

		for i := 0; i < 4; i++ {
			cqe, ok := r.NextCQE()
			require.True(t, ok)
			require.Equal(t, int32(0), cqe.Res)
			require.Equal(t, uint64(100*round+i), cqe.UserData)
		}
	}
	require.Equal(t, uint32(8), r.CQHead())
}

func TestMaskSlotCycling(t *testing.T) {
	// slot(t) = t & M cycles 0..R-1 twice over 0..2R-1
	const R = 8
	const M = R - 1
	for pos := uint32(0); pos < 2*R; pos++ {
		require.Equal(t, pos%R, pos&M)
	}
}

func TestPushUntilFull(t *testing.T) {
	r := newTestRing(t, 4)

	for i := 0; i < 4; i++ {
		ud := uint64(i)
		ok := r.Push(func(sqe *SQE) { PrepNop(sqe, ud) })
		require.True(t, ok, "push %d should fit", i)
	}

	ok := r.Push(func(sqe *SQE) { PrepNop(sqe, 99) })
	require.False(t, ok, "push into a full ring must fail")

	n, err := r.Enter(4, 4, EnterGetEvents, nil)
	require.NoError(t, err)
	require.Equal(t, 4, n)

	seen := make(map[uint64]bool)
	for i := 0; i < 4; i++ {
		cqe, ok := r.NextCQE()
		require.True(t, ok)
		seen[cqe.UserData] = true
	}
	_, ok = r.NextCQE()
	require.False(t, ok, "completion ring should be drained")
	require.Len(t, seen, 4, "each submission completed exactly once")
}

func TestEnterZeroMinCompleteDoesNotBlock(t *testing.T) {
	r := newTestRing(t, 4)

	// Nothing submitted, nothing to wait for: must return immediately
	n, err := r.Enter(0, 0, EnterGetEvents, nil)
	require.NoError(t, err)
	require.Equal(t, 0, n)
	require.Equal(t, uint32(0), r.CQTail())
}

func TestInvalidOpcodeCompletesWithEINVAL(t *testing.T) {
	r := newTestRing(t, 1)

	ok := r.Push(func(sqe *SQE) {
		sqe.OpCode = 255
		sqe.UserData = 42
	})
	require.True(t, ok)

	n, err := r.Enter(1, 1, EnterGetEvents, nil)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	cqe, ok := r.NextCQE()
	require.True(t, ok)
	require.Equal(t, uint64(42), cqe.UserData)
	require.Equal(t, int32(-int32(syscall.EINVAL)), cqe.Res)
}

// Mirrors the planner-driven read path: plan an existing file, submit
// one READV across the plan's iovecs, verify content lands in the
// aligned buffers.
func TestReadvWithBlockPlan(t *testing.T) {
	r := newTestRing(t, 1)

	content := "Hello, IO_URING!\n"
	path := filepath.Join(t.TempDir(), "readv.txt")
	bf, err := CreateBlockFile(path, []byte(content))
	require.NoError(t, err)
	defer bf.Close()

	size, err := bf.FileSize()
	require.NoError(t, err)
	require.Equal(t, int64(len(content)), size)

	plan, err := bf.Plan()
	require.NoError(t, err)
	iovs := plan.Iovecs()
	require.Len(t, iovs, 1)

	ok := r.Push(func(sqe *SQE) { PrepReadv(sqe, bf.Fd(), iovs, 0, 7) })
	require.True(t, ok)

	n, err := r.Enter(1, 1, EnterGetEvents, nil)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	cqe, ok := r.NextCQE()
	require.True(t, ok)
	require.Equal(t, uint64(7), cqe.UserData)
	require.Equal(t, int32(len(content)), cqe.Res)
	require.Equal(t, content, string(plan.Bytes()))
}

// Three 4096-byte writes to distinct offsets, one enter, three
// completions each reporting the full write.
func TestThreeAlignedWrites(t *testing.T) {
	r := newTestRing(t, 8)

	path := filepath.Join(t.TempDir(), "writes.dat")
	bf, err := CreateBlockFile(path, nil)
	require.NoError(t, err)
	defer bf.Close()

	bufs := make([][]byte, 3)
	for i := range bufs {
		bufs[i] = make([]byte, 4096)
		for j := range bufs[i] {
			bufs[i][j] = byte(i + 1)
		}
	}

	require.Equal(t, uint32(0), r.CQHead())
	for i := 0; i < 3; i++ {
		i := i
		ok := r.Push(func(sqe *SQE) {
			PrepWrite(sqe, bf.Fd(), bufs[i], uint64(i)*4096, uint64(i))
		})
		require.True(t, ok)
	}

	n, err := r.Enter(3, 3, EnterGetEvents, nil)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	for i := 0; i < 3; i++ {
		cqe, ok := r.NextCQE()
		require.True(t, ok)
		require.Equal(t, int32(4096), cqe.Res)
	}
	require.Equal(t, uint32(3), r.CQHead())

	size, err := bf.FileSize()
	require.NoError(t, err)
	require.Equal(t, int64(3*4096), size)
}

func TestMetricsWiredIntoEnter(t *testing.T) {
	r := newTestRing(t, 1)

	require.True(t, r.Push(func(sqe *SQE) { PrepNop(sqe, 1) }))
	_, err := r.Enter(1, 1, EnterGetEvents, nil)
	require.NoError(t, err)
	_, ok := r.NextCQE()
	require.True(t, ok)

	snap := r.Metrics().Snapshot()
	require.Equal(t, uint64(1), snap.EnterCalls)
	require.Equal(t, uint64(1), snap.Submitted)
	require.Equal(t, uint64(1), snap.Completions)
}

func TestCloseReleasesDescriptor(t *testing.T) {
	r := newTestRing(t, 1)
	fd := r.FD()

	require.NoError(t, r.Close())

	// The descriptor is gone; a raw enter on it must fail
	_, err := uapi.Enter(fd, 0, 0, 0, nil)
	require.Error(t, err)
}
