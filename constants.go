package uring

import (
	"github.com/ehrlich-b/go-uring/internal/constants"
	"github.com/ehrlich-b/go-uring/internal/uapi"
)

// SQE is a submission queue entry as the kernel consumes it
type SQE = uapi.SQEntry

// CQE is a completion queue entry as the kernel produces it
type CQE = uapi.CQEntry

// Params is the kernel-filled io_uring_setup parameter block, including
// the negotiated entry counts and per-ring field offsets
type Params = uapi.Params

// Re-export configuration constants for the public API
const (
	DefaultEntries = constants.DefaultEntries
	MaxEntries     = constants.MaxEntries
	BlockSize      = constants.BlockSize
)

// Opcodes for SQE preparation
const (
	OpNop    = uapi.OpNop
	OpReadv  = uapi.OpReadv
	OpWritev = uapi.OpWritev
	OpFsync  = uapi.OpFsync
	OpRead   = uapi.OpRead
	OpWrite  = uapi.OpWrite
)

// Setup flags accepted by New
const (
	SetupIOPoll = uapi.SetupIOPoll
	SetupSQPoll = uapi.SetupSQPoll
	SetupCQSize = uapi.SetupCQSize
	SetupClamp  = uapi.SetupClamp
)

// Enter flags
const (
	EnterGetEvents = uapi.EnterGetEvents
	EnterSQWakeup  = uapi.EnterSQWakeup
)

// Feature bits reported by the kernel after setup
const (
	FeatSingleMMap = uapi.FeatSingleMMap
	FeatNoDrop     = uapi.FeatNoDrop
)
