package constants

// Ring configuration constants
const (
	// DefaultEntries is the default submission queue depth
	DefaultEntries = 64

	// MaxEntries is the maximum submission queue depth the kernel
	// accepts (IORING_MAX_ENTRIES)
	MaxEntries = 32768
)

// Block I/O constants
const (
	// BlockSize is the I/O granularity used to size and align planner
	// buffers. 4KiB satisfies O_DIRECT alignment on every mainstream
	// filesystem and block device.
	BlockSize = 4096
)
