// Copyright 2026 by Thorsten von Eicken, see LICENSE file

package simradio

import (
	"github.com/execuc/v202-receiver/v202"
)

// Transmitter produces the frame sequence of a v202 transmitter: after power-up it sends a
// number of bind frames, then data frames carrying Sticks. Every frame goes out on the next
// channel of the hop table derived from its id.
type Transmitter struct {
	ID     v202.TxID
	Sticks v202.Sticks // values sent in data frames, may be changed at any time

	bindLeft int
	hops     v202.HopTable
	hop      int
}

// NewTransmitter returns a transmitter that sends bindFrames bind frames before switching to
// data frames.
func NewTransmitter(id v202.TxID, bindFrames int) *Transmitter {
	return &Transmitter{ID: id, bindLeft: bindFrames, hops: v202.DeriveHopTable(id)}
}

// Binding returns whether the next frame is a bind frame.
func (t *Transmitter) Binding() bool { return t.bindLeft > 0 }

// Rebind makes the transmitter send n more bind frames.
func (t *Transmitter) Rebind(n int) { t.bindLeft = n }

// Next returns the channel and the frame of the next transmission.
func (t *Transmitter) Next() (byte, v202.Frame) {
	ch := t.hops[t.hop]
	t.hop = (t.hop + 1) % v202.NumHops
	if t.bindLeft > 0 {
		t.bindLeft--
		return ch, v202.BindFrame(t.ID)
	}
	return ch, v202.EncodeSticks(t.ID, t.Sticks)
}
