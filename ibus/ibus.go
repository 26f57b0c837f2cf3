// Copyright 2026 by Thorsten von Eicken, see LICENSE file

// The ibus package encodes FlySky iBus servo frames, which most flight controllers accept on a
// UART at 115200 baud. A frame carries 14 channels of 1000..2000us pulse widths:
//
//	0x20 0x40 ch0-lo ch0-hi ... ch13-lo ch13-hi sum-lo sum-hi
//
// where the checksum is 0xFFFF minus the sum of the 30 preceding bytes.
package ibus

import (
	"encoding/binary"
	"errors"

	"github.com/execuc/v202-receiver/v202"
)

const (
	FrameSize   = 32
	NumChannels = 14

	header0 = 0x20 // frame length
	header1 = 0x40 // servo command

	Min    = 1000
	Center = 1500
	Max    = 2000
)

var (
	ErrFrameSize = errors.New("ibus: frame must be 32 bytes")
	ErrHeader    = errors.New("ibus: bad frame header")
	ErrChecksum  = errors.New("ibus: checksum mismatch")
)

// Channels holds one pulse width in microseconds per channel.
type Channels [NumChannels]uint16

// Encode builds the frame for ch.
func Encode(ch Channels) [FrameSize]byte {
	var f [FrameSize]byte
	f[0], f[1] = header0, header1
	for i, v := range ch {
		binary.LittleEndian.PutUint16(f[2+2*i:], v)
	}
	binary.LittleEndian.PutUint16(f[FrameSize-2:], checksum(f[:FrameSize-2]))
	return f
}

// Decode parses a frame, mostly useful to check what was sent.
func Decode(f []byte) (Channels, error) {
	var ch Channels
	if len(f) != FrameSize {
		return ch, ErrFrameSize
	}
	if f[0] != header0 || f[1] != header1 {
		return ch, ErrHeader
	}
	if checksum(f[:FrameSize-2]) != binary.LittleEndian.Uint16(f[FrameSize-2:]) {
		return ch, ErrChecksum
	}
	for i := range ch {
		ch[i] = binary.LittleEndian.Uint16(f[2+2*i:])
	}
	return ch, nil
}

func checksum(b []byte) uint16 {
	sum := uint16(0xFFFF)
	for _, v := range b {
		sum -= uint16(v)
	}
	return sum
}

// FromSticks maps decoded v202 values onto channels in AETR order: roll, pitch, throttle, yaw,
// then the yaw, pitch and roll trims, then the 7 low bits of the flags byte as on/off switches.
func FromSticks(s v202.Sticks) Channels {
	var ch Channels
	ch[0] = axis(s.Roll)
	ch[1] = axis(s.Pitch)
	ch[2] = Min + uint16(int(s.Throttle)*(Max-Min)/255)
	ch[3] = axis(s.Yaw)
	ch[4] = trim(s.TrimYaw)
	ch[5] = trim(s.TrimPitch)
	ch[6] = trim(s.TrimRoll)
	for bit := 0; bit < 7; bit++ {
		if s.Flags&(1<<uint(bit)) != 0 {
			ch[7+bit] = Max
		} else {
			ch[7+bit] = Min
		}
	}
	return ch
}

// axis maps -127..127 onto 1000..2000, -128 is clamped.
func axis(v int8) uint16 {
	if v < -127 {
		v = -127
	}
	return uint16(Center + int(v)*(Max-Center)/127)
}

// trim maps -128..127 onto 1000..1996.
func trim(v int8) uint16 {
	return uint16(Center + int(v)*(Max-Center)/128)
}
