// Copyright 2026 by Thorsten von Eicken, see LICENSE file

package v202

// FrameSize is the fixed payload size of v202 frames.
const FrameSize = 16

// BindMarker in the flags byte identifies a bind frame.
const BindMarker = 0xC0

// Frame is one raw payload as read from the radio.
//
// Layout:
//
//	0      throttle, 0..255
//	1..3   yaw, pitch, roll: 0x00..0x7F is 0..-127, 0x80..0xFF is 0..127
//	4..6   yaw, pitch, roll trims biased by 0x40
//	7..9   transmitter id
//	10..13 unused
//	14     flags, 0xC0 in bind frames
//	15     checksum, byte sum of 0..14
type Frame [FrameSize]byte

// TxID is the 3-byte transmitter id carried in every frame.
type TxID [3]byte

// Sticks are the control values decoded from a data frame.
type Sticks struct {
	Throttle  uint8 `json:"throttle"`
	Yaw       int8  `json:"yaw"`
	Pitch     int8  `json:"pitch"`
	Roll      int8  `json:"roll"`
	TrimYaw   int8  `json:"trim_yaw"`
	TrimPitch int8  `json:"trim_pitch"`
	TrimRoll  int8  `json:"trim_roll"`
	Flags     uint8 `json:"flags"`
}

// Checksum returns the byte sum of b.
func Checksum(b []byte) byte {
	var sum byte
	for _, v := range b {
		sum += v
	}
	return sum
}

// ChecksumOK returns whether the last byte matches the sum of the 15 others.
func (f *Frame) ChecksumOK() bool { return Checksum(f[:FrameSize-1]) == f[FrameSize-1] }

// TxID returns the transmitter id carried in the frame.
func (f *Frame) TxID() TxID { return TxID{f[7], f[8], f[9]} }

// FromTx returns whether the frame carries the given transmitter id.
func (f *Frame) FromTx(id TxID) bool { return f[7] == id[0] && f[8] == id[1] && f[9] == id[2] }

// IsBind returns whether the flags byte holds the bind marker.
func (f *Frame) IsBind() bool { return f[14] == BindMarker }

// Sticks decodes the control values. The axis encoding is kept exactly as transmitters send
// it: values below 0x80 are negated as-is, values from 0x80 have 0x80 subtracted.
func (f *Frame) Sticks() Sticks {
	return Sticks{
		Throttle:  f[0],
		Yaw:       decodeAxis(f[1]),
		Pitch:     decodeAxis(f[2]),
		Roll:      decodeAxis(f[3]),
		TrimYaw:   int8(f[4] - 0x40),
		TrimPitch: int8(f[5] - 0x40),
		TrimRoll:  int8(f[6] - 0x40),
		Flags:     f[14],
	}
}

func decodeAxis(b byte) int8 {
	if b < 0x80 {
		return -int8(b)
	}
	return int8(b - 0x80)
}

func encodeAxis(v int8) byte {
	switch {
	case v == -128:
		return 0x7F
	case v <= 0:
		return byte(-v)
	default:
		return byte(v) + 0x80
	}
}

// EncodeSticks builds the data frame a transmitter with the given id sends for s. An axis value
// of -128 cannot be represented and is sent as -127. Flags equal to BindMarker produce a
// bind frame.
func EncodeSticks(id TxID, s Sticks) Frame {
	var f Frame
	f[0] = s.Throttle
	f[1] = encodeAxis(s.Yaw)
	f[2] = encodeAxis(s.Pitch)
	f[3] = encodeAxis(s.Roll)
	f[4] = byte(s.TrimYaw) + 0x40
	f[5] = byte(s.TrimPitch) + 0x40
	f[6] = byte(s.TrimRoll) + 0x40
	f[7], f[8], f[9] = id[0], id[1], id[2]
	f[14] = s.Flags
	f[15] = Checksum(f[:FrameSize-1])
	return f
}

// BindFrame builds the frame a transmitter sends while binding: centered sticks, zero
// throttle, and the bind marker.
func BindFrame(id TxID) Frame {
	return EncodeSticks(id, Sticks{Flags: BindMarker})
}
