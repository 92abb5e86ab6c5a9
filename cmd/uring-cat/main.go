//go:build linux

// uring-cat reads files through an io_uring ring and writes their
// content to stdout. Each file is partitioned into aligned blocks by
// the planner and read with a single vectored submission.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	uring "github.com/ehrlich-b/go-uring"
	"github.com/ehrlich-b/go-uring/internal/logging"
)

func main() {
	// Optional .env next to the binary can set URING_ENTRIES / URING_LOG_LEVEL
	_ = godotenv.Load()

	var (
		entries = flag.Uint("entries", envUint("URING_ENTRIES", uring.DefaultEntries), "Submission queue depth")
		verbose = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose || os.Getenv("URING_LOG_LEVEL") == "debug" {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s [-entries n] [-v] file...\n", os.Args[0])
		os.Exit(2)
	}

	ring, err := uring.New(uint32(*entries), 0)
	if err != nil {
		logger.Error("failed to create ring", "error", err)
		os.Exit(1)
	}
	defer ring.Close()

	exitCode := 0
	for _, path := range flag.Args() {
		if err := catFile(ring, path); err != nil {
			logger.Error("read failed", "file", path, "error", err)
			exitCode = 1
		}
	}

	if *verbose {
		snap := ring.Metrics().Snapshot()
		logger.Info("ring stats",
			"enter_calls", snap.EnterCalls,
			"submitted", snap.Submitted,
			"completions", snap.Completions,
			"avg_latency_ns", snap.AvgLatencyNs)
	}

	os.Exit(exitCode)
}

// catFile plans the file into aligned blocks, submits one READV across
// the plan, waits for the completion, and writes the content to stdout.
func catFile(ring *uring.Ring, path string) error {
	bf, err := uring.OpenBlockFile(path)
	if err != nil {
		return err
	}
	defer bf.Close()

	plan, err := bf.Plan()
	if err != nil {
		return err
	}
	iovs := plan.Iovecs()
	if len(iovs) == 0 {
		return nil
	}

	if ok := ring.Push(func(sqe *uring.SQE) {
		uring.PrepReadv(sqe, bf.Fd(), iovs, 0, 0)
	}); !ok {
		return fmt.Errorf("submission ring full")
	}

	n, err := ring.Enter(1, 1, uring.EnterGetEvents, nil)
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("kernel accepted %d of 1 submissions", n)
	}

	cqe, ok := ring.NextCQE()
	if !ok {
		return fmt.Errorf("no completion after blocking enter")
	}
	if cqe.Res < 0 {
		return fmt.Errorf("readv: %v", syscall.Errno(-cqe.Res))
	}

	content := plan.Bytes()
	if int(cqe.Res) < len(content) {
		content = content[:cqe.Res]
	}
	_, err = os.Stdout.Write(content)
	return err
}

func envUint(key string, fallback uint) uint {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil && n > 0 {
			return uint(n)
		}
	}
	return fallback
}
