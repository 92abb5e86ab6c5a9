//go:build linux

package uring

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/ehrlich-b/go-uring/internal/constants"
	"github.com/ehrlich-b/go-uring/internal/logging"
	"github.com/ehrlich-b/go-uring/internal/mem"
)

// Block is one planner block: an owned, BlockSize-aligned buffer plus
// the logical length of file content it covers. The buffer is always a
// full BlockSize allocation even when the logical length is shorter.
type Block struct {
	length int
	buf    *mem.Buffer
}

// Len returns the logical length of the block
func (b Block) Len() int { return b.length }

// Bytes returns the logical window of the block's buffer
func (b Block) Bytes() []byte { return b.buf.Bytes()[:b.length] }

// Iovec adapts the block for a vectored submission entry
func (b Block) Iovec() unix.Iovec {
	return unix.Iovec{
		Base: &b.buf.Bytes()[0],
		Len:  uint64(b.length),
	}
}

// BlockPlan partitions a file's bytes into aligned blocks. Plans are
// recomputed wholesale, never patched in place.
type BlockPlan struct {
	FileSize int64
	Blocks   []Block
}

// Iovecs returns one iovec per block, sized to the logical lengths,
// ready for PrepReadv/PrepWritev
func (p *BlockPlan) Iovecs() []unix.Iovec {
	iovs := make([]unix.Iovec, len(p.Blocks))
	for i, b := range p.Blocks {
		iovs[i] = b.Iovec()
	}
	return iovs
}

// Bytes concatenates the logical content of all blocks
func (p *BlockPlan) Bytes() []byte {
	out := make([]byte, 0, p.FileSize)
	for _, b := range p.Blocks {
		out = append(out, b.Bytes()...)
	}
	return out
}

func (p *BlockPlan) release() {
	for _, b := range p.Blocks {
		b.buf.Release()
	}
	p.Blocks = nil
}

// BlockFile owns a backing file and a lazily computed block plan over
// its bytes. Writes append at a monotonically advancing offset and
// trigger a plan recomputation; a recompute failure keeps the previous
// plan valid.
type BlockFile struct {
	path   string
	f      *os.File
	offset int64
	plan   *BlockPlan
	logger *logging.Logger
}

// CreateBlockFile creates or truncates the file at path, writes initial
// at offset 0, and positions the write offset past it
func CreateBlockFile(path string, initial []byte) (*BlockFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, WrapErrno("CREATE", ErrCodeIOError, err)
	}

	bf := &BlockFile{
		path:   path,
		f:      f,
		logger: logging.Default().WithFile(path),
	}
	if len(initial) > 0 {
		if err := bf.Write(initial); err != nil {
			f.Close()
			return nil, err
		}
	}
	return bf, nil
}

// OpenBlockFile opens an existing file for planning; the write offset
// starts at the current size so writes append
func OpenBlockFile(path string) (*BlockFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, WrapErrno("OPEN", ErrCodeIOError, err)
	}

	bf := &BlockFile{
		path:   path,
		f:      f,
		logger: logging.Default().WithFile(path),
	}
	size, err := bf.FileSize()
	if err != nil {
		f.Close()
		return nil, err
	}
	bf.offset = size
	return bf, nil
}

// Fd returns the backing file descriptor for submission entries
func (bf *BlockFile) Fd() int { return int(bf.f.Fd()) }

// Path returns the backing file path
func (bf *BlockFile) Path() string { return bf.path }

// Offset returns the current write offset
func (bf *BlockFile) Offset() int64 { return bf.offset }

// Write appends p at the current write offset, advances the offset,
// and recomputes the block plan
func (bf *BlockFile) Write(p []byte) error {
	n, err := bf.f.WriteAt(p, bf.offset)
	bf.offset += int64(n)
	if err != nil {
		return WrapErrno("PWRITE", ErrCodeIOError, err)
	}
	return bf.Recompute()
}

// FileSize returns the backing file's byte size: the device-reported
// size for block special files, the stat size for regular files
func (bf *BlockFile) FileSize() (int64, error) {
	var st unix.Stat_t
	if err := unix.Fstat(bf.Fd(), &st); err != nil {
		return 0, WrapErrno("FSTAT", ErrCodeSizeQuery, err)
	}

	switch st.Mode & unix.S_IFMT {
	case unix.S_IFBLK:
		var bytes uint64
		_, _, errno := unix.Syscall(unix.SYS_IOCTL,
			uintptr(bf.Fd()), unix.BLKGETSIZE64, uintptr(unsafe.Pointer(&bytes)))
		if errno != 0 {
			return 0, WrapErrno("BLKGETSIZE64", ErrCodeSizeQuery, errno)
		}
		return int64(bytes), nil
	case unix.S_IFREG:
		return st.Size, nil
	}
	return 0, NewError("FILE_SIZE", ErrCodeSizeQuery, "not a regular file or block device")
}

// Recompute replaces the cached plan wholesale: ceil(size/BlockSize)
// blocks, each backed by a fresh full-size aligned buffer. On any
// failure the previous plan remains in place.
func (bf *BlockFile) Recompute() error {
	size, err := bf.FileSize()
	if err != nil {
		return err
	}

	nblocks := int((size + constants.BlockSize - 1) / constants.BlockSize)
	blocks := make([]Block, 0, nblocks)
	remaining := size
	for remaining > 0 {
		n := remaining
		if n > constants.BlockSize {
			n = constants.BlockSize
		}
		buf, err := mem.Alloc(constants.BlockSize, constants.BlockSize)
		if err != nil {
			for _, b := range blocks {
				b.buf.Release()
			}
			return WrapErrno("ALLOC", ErrCodeAllocation, err)
		}
		blocks = append(blocks, Block{length: int(n), buf: buf})
		remaining -= n
	}

	old := bf.plan
	bf.plan = &BlockPlan{FileSize: size, Blocks: blocks}
	if old != nil {
		old.release()
	}
	bf.logger.Debug("block plan recomputed", "size", size, "blocks", nblocks)
	return nil
}

// Plan returns the cached block plan, computing it first if absent
func (bf *BlockFile) Plan() (*BlockPlan, error) {
	if bf.plan == nil {
		if err := bf.Recompute(); err != nil {
			return nil, err
		}
	}
	return bf.plan, nil
}

// Close releases the plan's buffers and closes the backing file
func (bf *BlockFile) Close() error {
	if bf.plan != nil {
		bf.plan.release()
		bf.plan = nil
	}
	return bf.f.Close()
}
