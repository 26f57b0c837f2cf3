// Copyright 2026 by Thorsten von Eicken, see LICENSE file

package main

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/execuc/v202-receiver/ibus"
	"github.com/execuc/v202-receiver/simradio"
	"github.com/execuc/v202-receiver/v202"
)

type message struct {
	topic   string
	payload interface{}
}

type fakeMQ struct {
	msgs []message
}

func (f *fakeMQ) Publish(topic string, payload interface{}) {
	f.msgs = append(f.msgs, message{topic, payload})
}

func (f *fakeMQ) links() []link {
	var l []link
	for _, m := range f.msgs {
		if s, ok := m.payload.(linkStatus); ok {
			l = append(l, s.Link)
		}
	}
	return l
}

type nopCloser struct{ bytes.Buffer }

func (nopCloser) Close() error { return nil }

// simLoop wires a receive loop to a simulated transmitter whose clock also drives the loop.
func simLoop(t *testing.T) (*rxLoop, *simradio.Air, *fakeMQ, *nopCloser) {
	radio := simradio.New()
	tx := simradio.NewTransmitter(v202.TxID{0x31, 0x6E, 0x01}, 100)
	tx.Sticks = v202.Sticks{Throttle: 255, Roll: 127}
	air := simradio.NewAir(tx, radio, 8, 3)
	dec, err := v202.New(radio, v202.Opts{Clock: &air.Clock})
	require.NoError(t, err)

	conf := defaultConfig()
	conf.Mqtt.Stats = 0
	l := newRxLoop(dec, conf, log.New(io.Discard))
	l.now = func() time.Time { return time.UnixMilli(int64(air.Millis())) }
	mq := &fakeMQ{}
	l.mq = mq
	w := &nopCloser{}
	l.ibus = ibus.NewPort(w)
	return l, air, mq, w
}

func run(l *rxLoop, air *simradio.Air, ms int) {
	for i := 0; i < ms; i++ {
		air.Tick()
		l.step()
	}
}

func TestLoopLink(t *testing.T) {
	l, air, mq, w := simLoop(t)

	run(l, air, 3000)
	assert.Equal(t, linkUp, l.link)
	assert.Equal(t, []link{linkBinding, linkUp}, mq.links())

	// sticks are rate limited to one publication per 100ms
	n := 0
	for _, m := range mq.msgs {
		if m.topic == "sticks" {
			n++
			assert.Equal(t, v202.Sticks{Throttle: 255, Roll: 127}, m.payload)
		}
	}
	assert.InDelta(t, 20, n, 3)

	require.NoError(t, l.ibus.Send())
	ch, err := ibus.Decode(w.Bytes())
	require.NoError(t, err)
	assert.Equal(t, uint16(2000), ch[0])
	assert.Equal(t, uint16(2000), ch[2])

	// transmitter goes away: failsafe after 500ms, no more iBus frames
	air.Off = true
	run(l, air, 400)
	assert.Equal(t, linkUp, l.link)
	run(l, air, 200)
	assert.Equal(t, linkLost, l.link)
	w.Reset()
	require.NoError(t, l.ibus.Send())
	assert.Zero(t, w.Len())

	// and it comes back
	air.Off = false
	run(l, air, 2000)
	assert.Equal(t, linkUp, l.link)
	assert.Equal(t, []link{linkBinding, linkUp, linkLost, linkUp}, mq.links())
	st := l.status()
	assert.Equal(t, "316e01", st.TxID)
	assert.NotZero(t, st.Stats.Decoded)
}

func TestLoopRun(t *testing.T) {
	l, _, _, _ := simLoop(t)
	l.now = time.Now
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	assert.NoError(t, l.run(ctx, time.Millisecond))
	assert.Equal(t, linkUnbound, l.link)
}
