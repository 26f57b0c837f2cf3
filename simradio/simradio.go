// Copyright 2026 by Thorsten von Eicken, see LICENSE file

// The simradio package simulates the receive side of an nRF24L01+ and a v202 transmitter in
// memory. It is used to test the v202 decoder and to run it on a host without a radio.
//
// A Radio behaves like the chip as seen through the nrf24 driver: it has a 3-deep receive FIFO
// that drops frames when full, an RX_DR flag that is raised on every arrival and only cleared
// explicitly, and it only hears frames sent on the channel it is tuned to. A Transmitter produces
// the frames a real transmitter sends, and Air moves them from the one to the other in simulated
// time.
package simradio

import (
	"errors"

	"github.com/execuc/v202-receiver/v202"
)

// FIFODepth is the number of payloads the receive FIFO holds.
const FIFODepth = 3

// maxChannel mirrors the RF_CH limit of the chip.
const maxChannel = 125

var ErrInvalidChannel = errors.New("simradio: channel out of range")

// Radio is a simulated receiver. It implements v202.Transport. It is not safe for concurrent
// use.
type Radio struct {
	channel byte
	fifo    [][v202.FrameSize]byte
	rxFlag  bool

	Switches []byte // channels passed to SwitchChannel, in order
	RxModes  int    // number of RxMode calls
	Dropped  int    // frames lost to a full FIFO
	Missed   int    // frames sent on another channel
	Reads    int    // payloads read, including reads of an empty FIFO
}

// New returns a powered-down radio.
func New() *Radio {
	return &Radio{}
}

// RxMode tunes to the channel and empties the FIFO.
func (r *Radio) RxMode(channel byte) error {
	if channel > maxChannel {
		return ErrInvalidChannel
	}
	r.channel = channel
	r.fifo = r.fifo[:0]
	r.rxFlag = false
	r.RxModes++
	return nil
}

// SwitchChannel retunes and records the channel in Switches.
func (r *Radio) SwitchChannel(channel byte) {
	r.channel = channel
	r.Switches = append(r.Switches, channel)
}

// Channel returns the channel the radio is tuned to.
func (r *Radio) Channel() byte { return r.channel }

func (r *Radio) RxFlag() bool  { return r.rxFlag }
func (r *Radio) ResetRxFlag()  { r.rxFlag = false }
func (r *Radio) RxEmpty() bool { return len(r.fifo) == 0 }

// ReadPayload pops the oldest frame. Reading an empty FIFO yields zeros.
func (r *Radio) ReadPayload(buf []byte) {
	r.Reads++
	if len(r.fifo) == 0 {
		for i := range buf {
			buf[i] = 0
		}
		return
	}
	copy(buf, r.fifo[0][:])
	r.fifo = r.fifo[1:]
}

func (r *Radio) FlushRx() { r.fifo = r.fifo[:0] }
func (r *Radio) FlushTx() {}

// Pending returns the number of frames in the FIFO.
func (r *Radio) Pending() int { return len(r.fifo) }

// Inject places a payload into the FIFO regardless of the channel and raises the RX flag. It
// returns false if the FIFO was full and the payload was dropped. Short payloads are padded
// with zeros.
func (r *Radio) Inject(payload []byte) bool {
	if len(r.fifo) >= FIFODepth {
		r.Dropped++
		return false
	}
	var p [v202.FrameSize]byte
	copy(p[:], payload)
	r.fifo = append(r.fifo, p)
	r.rxFlag = true
	return true
}

// Send delivers a payload transmitted on the given channel, it is only received if the radio
// is tuned to that channel.
func (r *Radio) Send(channel byte, payload []byte) bool {
	if channel != r.channel {
		r.Missed++
		return false
	}
	return r.Inject(payload)
}
