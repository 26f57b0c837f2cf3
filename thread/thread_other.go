// Copyright 2026 by Thorsten von Eicken, see LICENSE file

//go:build !linux

package thread

import "errors"

const DefaultPriority = 10

var errUnsupported = errors.New("thread: realtime scheduling is only supported on linux")

func Realtime(priority int) error { return errUnsupported }
func Pin(cpu int) error           { return errUnsupported }
