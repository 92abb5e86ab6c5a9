package uapi

// Opcodes for SQEntry.OpCode
const (
	OpNop           = 0
	OpReadv         = 1
	OpWritev        = 2
	OpFsync         = 3
	OpReadFixed     = 4
	OpWriteFixed    = 5
	OpPollAdd       = 6
	OpPollRemove    = 7
	OpSyncFileRange = 8
	OpSendMsg       = 9
	OpRecvMsg       = 10
	OpTimeout       = 11
	OpRead          = 22
	OpWrite         = 23
)

// Setup flags for Params.Flags
const (
	SetupIOPoll   = 1 << 0 // IORING_SETUP_IOPOLL
	SetupSQPoll   = 1 << 1 // IORING_SETUP_SQPOLL
	SetupSQAff    = 1 << 2 // IORING_SETUP_SQ_AFF
	SetupCQSize   = 1 << 3 // IORING_SETUP_CQSIZE
	SetupClamp    = 1 << 4 // IORING_SETUP_CLAMP
	SetupAttachWQ = 1 << 5 // IORING_SETUP_ATTACH_WQ
	SetupSQE128   = 1 << 10
	SetupCQE32    = 1 << 11
)

// Feature bits reported in Params.Features
const (
	FeatSingleMMap     = 1 << 0 // IORING_FEAT_SINGLE_MMAP
	FeatNoDrop         = 1 << 1
	FeatSubmitStable   = 1 << 2
	FeatRWCurPos       = 1 << 3
	FeatCurPersonality = 1 << 4
)

// Enter flags
const (
	EnterGetEvents = 1 << 0 // IORING_ENTER_GETEVENTS
	EnterSQWakeup  = 1 << 1 // IORING_ENTER_SQ_WAKEUP
	EnterSQWait    = 1 << 2
	EnterExtArg    = 1 << 3
)

// Magic mmap offsets selecting which ring region the kernel exposes
const (
	OffSQRing uint64 = 0
	OffCQRing uint64 = 0x8000000
	OffSQEs   uint64 = 0x10000000
)

// NSig is the kernel _NSIG; io_uring_enter expects sigset size _NSIG/8
const NSig = 64
