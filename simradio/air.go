// Copyright 2026 by Thorsten von Eicken, see LICENSE file

package simradio

import (
	"math/rand"
)

// Clock is a manually advanced millisecond clock, it implements v202.Clock.
type Clock struct {
	Now uint32
}

func (c *Clock) Millis() uint32 { return c.Now }

// Air connects a transmitter to a radio in simulated time. Each call to Tick advances the clock
// by one millisecond and sends a frame whenever a frame period has elapsed.
type Air struct {
	Clock
	Tx      *Transmitter
	Rx      *Radio
	Period  uint32  // milliseconds between frames
	Loss    float64 // probability that a frame vanishes
	Corrupt float64 // probability that a frame arrives with a bit flipped
	Off     bool    // transmitter switched off

	Sent int // frames transmitted
	next uint32
	rnd  *rand.Rand
}

// NewAir returns an Air sending a frame every period ms, starting with the first Tick. The seed
// makes losses and corruption reproducible.
func NewAir(tx *Transmitter, rx *Radio, period uint32, seed int64) *Air {
	return &Air{Tx: tx, Rx: rx, Period: period, rnd: rand.New(rand.NewSource(seed))}
}

// Tick advances time by one millisecond and transmits if a frame is due. It returns whether
// the radio received a frame.
func (a *Air) Tick() bool {
	a.Now++
	if int32(a.Now-a.next) < 0 || a.Off {
		return false
	}
	a.next = a.Now + a.Period
	ch, f := a.Tx.Next()
	a.Sent++
	if a.Loss > 0 && a.rnd.Float64() < a.Loss {
		return false
	}
	if a.Corrupt > 0 && a.rnd.Float64() < a.Corrupt {
		f[a.rnd.Intn(len(f))] ^= 1 << uint(a.rnd.Intn(8))
	}
	return a.Rx.Send(ch, f[:])
}

// Wait advances time by n milliseconds without running anything else.
func (a *Air) Wait(n uint32) {
	for ; n > 0; n-- {
		a.Tick()
	}
}
