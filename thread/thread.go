// Copyright 2026 by Thorsten von Eicken, see LICENSE file

//go:build linux

// The thread package gives the goroutine running a radio polling loop a kernel thread of its
// own with a realtime scheduling priority, so the loop keeps its millisecond cadence on a busy
// single-board computer.
package thread

import (
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	FIFO = 1 // fifo scheduling policy
	RR   = 2 // round-robin scheduling policy

	DefaultPriority = 10 // somewhere in the lower middle of the 1..99 range
)

type schedParam struct {
	Priority int32
}

// Realtime locks the calling goroutine to its own kernel thread and switches that thread to
// the round-robin realtime policy at the given priority. The goroutine stays locked even if
// changing the policy fails, which requires CAP_SYS_NICE.
func Realtime(priority int) error {
	if priority < 1 || priority > 99 {
		return fmt.Errorf("thread: priority %d out of range 1..99", priority)
	}
	runtime.LockOSThread()
	tid := unix.Gettid()
	param := schedParam{int32(priority)}
	_, _, errno := unix.RawSyscall(unix.SYS_SCHED_SETSCHEDULER, uintptr(tid), uintptr(RR),
		uintptr(unsafe.Pointer(&param)))
	if errno != 0 {
		return fmt.Errorf("thread: sched_setscheduler: %w", errno)
	}
	return nil
}

// Pin restricts the calling goroutine's thread to one CPU. Realtime must have been called
// first, otherwise the goroutine may move to another thread.
func Pin(cpu int) error {
	var set unix.CPUSet
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("thread: cannot pin to cpu %d: %w", cpu, err)
	}
	return nil
}
