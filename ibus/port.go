// Copyright 2026 by Thorsten von Eicken, see LICENSE file

package ibus

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"
)

// DefaultPeriod is the frame rate of FlySky receivers.
const DefaultPeriod = 7 * time.Millisecond

// Port sends the most recent channel values to a flight controller at a fixed rate. As long as
// no values have been set, or after Hold, nothing is sent, which flight controllers detect as
// a failsafe condition.
type Port struct {
	w     io.WriteCloser
	mu    sync.Mutex
	frame [FrameSize]byte
	valid bool
	sent  int
}

// Open opens a serial port at the given baud rate, 8N1, and returns a Port writing to it.
func Open(name string, baud int) (*Port, error) {
	p, err := serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("ibus: cannot open %s: %w", name, err)
	}
	return NewPort(p), nil
}

// NewPort returns a Port writing to w.
func NewPort(w io.WriteCloser) *Port {
	return &Port{w: w}
}

// Set replaces the values sent from the next frame on.
func (p *Port) Set(ch Channels) {
	f := Encode(ch)
	p.mu.Lock()
	p.frame = f
	p.valid = true
	p.mu.Unlock()
}

// Hold stops sending frames until the next Set.
func (p *Port) Hold() {
	p.mu.Lock()
	p.valid = false
	p.mu.Unlock()
}

// Sent returns the number of frames written so far.
func (p *Port) Sent() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sent
}

// Send writes the current frame once, if there is one.
func (p *Port) Send() error {
	p.mu.Lock()
	f, valid := p.frame, p.valid
	p.mu.Unlock()
	if !valid {
		return nil
	}
	if _, err := p.w.Write(f[:]); err != nil {
		return fmt.Errorf("ibus: %w", err)
	}
	p.mu.Lock()
	p.sent++
	p.mu.Unlock()
	return nil
}

// Run sends a frame every period until the context is canceled or a write fails.
func (p *Port) Run(ctx context.Context, period time.Duration) error {
	if period <= 0 {
		period = DefaultPeriod
	}
	tick := time.NewTicker(period)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			if err := p.Send(); err != nil {
				return err
			}
		}
	}
}

// Close closes the underlying serial port.
func (p *Port) Close() error { return p.w.Close() }
