//go:build linux

// Package rtprio attempts to promote the calling OS thread to real-time
// scheduling priority, per spec §5: StudioWorker and MidiIo attempt
// promotion at thread start, and failure is non-fatal. The linux/fallback
// split here mirrors the teacher's mixer_arm64.go/mixer_scalar.go
// build-tag split between a platform-specific fast path and a portable
// one.
package rtprio

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Promote attempts to switch the calling goroutine's underlying OS thread
// to SCHED_FIFO at the given priority (1-99). The caller must have already
// locked the goroutine to its OS thread with runtime.LockOSThread. Returns
// an error describing the failure; callers log it and continue at normal
// priority, per spec §5.
func Promote(priority int) error {
	if priority < 1 || priority > 99 {
		return fmt.Errorf("rtprio: priority %d out of range [1,99]", priority)
	}
	param := &unix.SchedParam{Priority: int32(priority)}
	if err := unix.SchedSetscheduler(0, unix.SCHED_FIFO, param); err != nil {
		return fmt.Errorf("rtprio: SchedSetscheduler: %w", err)
	}
	return nil
}
