// Copyright 2026 by Thorsten von Eicken, see LICENSE file

//go:build linux

package thread

import (
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

func TestRealtimeRange(t *testing.T) {
	assert.Error(t, Realtime(0))
	assert.Error(t, Realtime(100))
}

func TestRealtime(t *testing.T) {
	done := make(chan error)
	go func() {
		// the thread stays locked and gets discarded when this goroutine exits
		done <- Realtime(DefaultPriority)
	}()
	err := <-done
	if errors.Is(err, unix.EPERM) {
		t.Skip("no permission to use realtime scheduling")
	}
	assert.NoError(t, err)
}

func TestPin(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	var orig unix.CPUSet
	if err := unix.SchedGetaffinity(0, &orig); err != nil {
		t.Skip(err)
	}
	cpu := -1
	for i := 0; i < 1024 && cpu < 0; i++ {
		if orig.IsSet(i) {
			cpu = i
		}
	}
	assert.NoError(t, Pin(cpu))
	assert.NoError(t, unix.SchedSetaffinity(0, &orig))
}
