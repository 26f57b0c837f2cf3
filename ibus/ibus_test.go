// Copyright 2026 by Thorsten von Eicken, see LICENSE file

package ibus

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/execuc/v202-receiver/v202"
)

func TestEncode(t *testing.T) {
	var ch Channels
	for i := range ch {
		ch[i] = Center
	}
	f := Encode(ch)
	assert.Equal(t, []byte{0x20, 0x40, 0xDC, 0x05, 0xDC, 0x05}, f[:6])
	// 0xFFFF - (0x20 + 0x40 + 14*(0xDC+0x05))
	assert.Equal(t, []byte{0x51, 0xF3}, f[30:])

	got, err := Decode(f[:])
	require.NoError(t, err)
	assert.Equal(t, ch, got)
}

func TestDecodeErrors(t *testing.T) {
	good := Encode(Channels{1000, 2000})
	var tests = map[string]struct {
		mangle func(f []byte) []byte
		err    error
	}{
		"short":    {func(f []byte) []byte { return f[:31] }, ErrFrameSize},
		"header":   {func(f []byte) []byte { f[1] = 0x41; return f }, ErrHeader},
		"checksum": {func(f []byte) []byte { f[5]++; return f }, ErrChecksum},
	}
	for n, tc := range tests {
		f := good
		_, err := Decode(tc.mangle(f[:]))
		assert.ErrorIs(t, err, tc.err, n)
	}
}

func TestDecodeAny(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var ch Channels
		for i := range ch {
			ch[i] = rapid.Uint16Range(Min, Max).Draw(t, "ch")
		}
		f := Encode(ch)
		got, err := Decode(f[:])
		if err != nil || got != ch {
			t.Fatalf("decoded %v, %v from %v", got, err, ch)
		}
	})
}

func TestFromSticks(t *testing.T) {
	var tests = map[string]struct {
		sticks v202.Sticks
		want   Channels
	}{
		"centered": {v202.Sticks{},
			Channels{1500, 1500, 1000, 1500, 1500, 1500, 1500,
				1000, 1000, 1000, 1000, 1000, 1000, 1000}},
		"full": {v202.Sticks{Throttle: 255, Roll: 127, Pitch: -127, Yaw: -128,
			TrimYaw: 127, TrimPitch: -128, Flags: 0x85},
			Channels{2000, 1000, 2000, 1000, 1996, 1000, 1500,
				2000, 1000, 2000, 1000, 1000, 1000, 1000}},
	}
	for n, tc := range tests {
		assert.Equal(t, tc.want, FromSticks(tc.sticks), n)
	}

	rapid.Check(t, func(t *rapid.T) {
		s := v202.Sticks{
			Throttle: rapid.Uint8().Draw(t, "throttle"),
			Yaw:      rapid.Int8().Draw(t, "yaw"),
			TrimRoll: rapid.Int8().Draw(t, "trim"),
			Flags:    rapid.Uint8().Draw(t, "flags"),
		}
		for i, v := range FromSticks(s) {
			if v < Min || v > Max {
				t.Fatalf("channel %d out of range: %d for %+v", i, v, s)
			}
		}
	})
}

type bufCloser struct {
	sync.Mutex
	bytes.Buffer
	fail   error
	closed bool
}

func (b *bufCloser) Write(p []byte) (int, error) {
	b.Lock()
	defer b.Unlock()
	if b.fail != nil {
		return 0, b.fail
	}
	return b.Buffer.Write(p)
}

func (b *bufCloser) Close() error { b.closed = true; return nil }

func TestPort(t *testing.T) {
	w := &bufCloser{}
	p := NewPort(w)

	require.NoError(t, p.Send())
	assert.Zero(t, w.Len(), "nothing is sent before the first Set")

	ch := FromSticks(v202.Sticks{Throttle: 100})
	p.Set(ch)
	require.NoError(t, p.Send())
	require.NoError(t, p.Send())
	assert.Equal(t, 2*FrameSize, w.Len())
	got, err := Decode(w.Bytes()[FrameSize:])
	require.NoError(t, err)
	assert.Equal(t, ch, got)

	p.Hold()
	require.NoError(t, p.Send())
	assert.Equal(t, 2, p.Sent())

	w.fail = errors.New("device gone")
	p.Set(ch)
	assert.ErrorContains(t, p.Send(), "device gone")

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPortRun(t *testing.T) {
	w := &bufCloser{}
	p := NewPort(w)
	p.Set(Channels{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := p.Run(ctx, time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Greater(t, p.Sent(), 5)

	w.fail = errors.New("EIO")
	err = p.Run(context.Background(), time.Millisecond)
	assert.ErrorContains(t, err, "EIO")
}
