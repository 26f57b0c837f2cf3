// Copyright 2026 by Thorsten von Eicken, see LICENSE file

// v202-sim runs the v202 decoder against a simulated transmitter, either as fast as possible
// or in real time. In real time, the decoded sticks can be sent to a flight controller as iBus
// frames, which is handy to bench test the flight controller side without any radio.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/execuc/v202-receiver/ibus"
	"github.com/execuc/v202-receiver/simradio"
	"github.com/execuc/v202-receiver/v202"
)

type simConfig struct {
	id       v202.TxID
	bind     int        // bind frames sent at power-up
	period   uint32     // ms between frames
	loss     float64    // frame loss probability
	corrupt  float64    // frame corruption probability
	seed     int64      // random seed for loss and corruption
	duration uint32     // simulated ms
	offAt    uint32     // ms at which the transmitter goes silent, 0 for never
	offFor   uint32     // ms the transmitter stays silent
	realtime bool       // pace the simulation with the wall clock
	ibus     *ibus.Port // optional iBus output
	logger   *log.Logger
}

// result summarizes a simulation run.
type result struct {
	TxID        string      `json:"txid"`
	State       string      `json:"state"`
	BoundAt     uint32      `json:"bound_at_ms"` // time of the first decoded values, 0 if none
	Sent        int         `json:"sent"`
	Transitions int         `json:"transitions"`
	Stats       v202.Stats  `json:"stats"`
	Sticks      v202.Sticks `json:"sticks"`
}

func simulate(ctx context.Context, c simConfig) result {
	radio := simradio.New()
	tx := simradio.NewTransmitter(c.id, c.bind)
	tx.Sticks = v202.Sticks{Throttle: 0x80, TrimYaw: 1}
	air := simradio.NewAir(tx, radio, c.period, c.seed)
	air.Loss, air.Corrupt = c.loss, c.corrupt
	dec, err := v202.New(radio, v202.Opts{Clock: &air.Clock, Logger: c.logger.Debugf})
	if err != nil {
		// simradio always accepts the probe channel
		panic(err)
	}

	var res result
	var sticks v202.Sticks
	var tick <-chan time.Time
	if c.realtime {
		t := time.NewTicker(time.Millisecond)
		defer t.Stop()
		tick = t.C
	}
	last := v202.Unknown
loop:
	for ms := uint32(0); ms < c.duration; ms++ {
		if tick != nil {
			select {
			case <-ctx.Done():
				break loop
			case <-tick:
			}
		}
		if c.offAt > 0 {
			air.Off = ms >= c.offAt && ms < c.offAt+c.offFor
		}
		// wiggle the sticks so the output visibly changes
		tx.Sticks.Roll = int8(int(ms/8)%200 - 100)
		air.Tick()

		st := dec.Step(&sticks)
		if st == v202.BoundNewValues {
			if res.BoundAt == 0 {
				res.BoundAt = air.Millis()
			}
			if c.ibus != nil {
				c.ibus.Set(ibus.FromSticks(sticks))
			}
		}
		// new values or not doesn't count as a transition
		if st == v202.BoundNewValues {
			st = v202.BoundNoValues
		}
		if st != last {
			c.logger.Info(st.String(), "ms", air.Millis(), "state", dec.State(),
				"channel", fmt.Sprintf("%#x", dec.Channel()))
			res.Transitions++
		}
		last = st
	}

	id := dec.TxID()
	res.TxID = hex.EncodeToString(id[:])
	res.State = dec.State().String()
	res.Sent = air.Sent
	res.Stats = dec.Stats()
	res.Sticks = sticks
	return res
}

func parseID(s string) (v202.TxID, error) {
	var id v202.TxID
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("transmitter id: %w", err)
	}
	if len(b) != len(id) {
		return id, fmt.Errorf("transmitter id must be 3 bytes, got %d", len(b))
	}
	copy(id[:], b)
	return id, nil
}

func mainImpl() error {
	idStr := pflag.StringP("id", "i", "316e01", "transmitter id, 3 bytes hex")
	bind := pflag.IntP("bind", "b", 400, "bind frames sent at power-up")
	period := pflag.Uint32P("period", "p", 8, "ms between frames")
	loss := pflag.Float64P("loss", "l", 0, "frame loss probability")
	corrupt := pflag.Float64P("corrupt", "x", 0, "frame corruption probability")
	seed := pflag.Int64("seed", 1, "random seed")
	duration := pflag.DurationP("time", "t", 10*time.Second, "simulated time")
	offAt := pflag.Duration("off-at", 0, "switch the transmitter off at this time")
	offFor := pflag.Duration("off-for", time.Second, "keep the transmitter off this long")
	realtime := pflag.BoolP("realtime", "r", false, "run in real time")
	ibusPort := pflag.String("ibus", "", "serial port for iBus output, implies --realtime")
	jsonOut := pflag.BoolP("json", "j", false, "print the result as JSON")
	debug := pflag.BoolP("debug", "d", false, "enable debug output")
	pflag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "v202-sim"})
	if *debug {
		logger.SetLevel(log.DebugLevel)
	}
	id, err := parseID(*idStr)
	if err != nil {
		return err
	}
	if *period == 0 {
		return fmt.Errorf("frame period must be at least 1ms")
	}
	c := simConfig{
		id: id, bind: *bind, period: *period, loss: *loss, corrupt: *corrupt, seed: *seed,
		duration: uint32(duration.Milliseconds()),
		offAt:    uint32(offAt.Milliseconds()),
		offFor:   uint32(offFor.Milliseconds()),
		realtime: *realtime,
		logger:   logger,
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if *ibusPort != "" {
		port, err := ibus.Open(*ibusPort, 115200)
		if err != nil {
			return err
		}
		defer port.Close()
		c.ibus, c.realtime = port, true
		go port.Run(ctx, ibus.DefaultPeriod)
	}

	hops := v202.DeriveHopTable(id)
	logger.Info("simulating", "txid", *idStr, "hops", hex.EncodeToString(hops[:]))
	res := simulate(ctx, c)
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	logger.Info("done", "state", res.State, "bound_at", res.BoundAt, "sent", res.Sent,
		"stats", fmt.Sprintf("%+v", res.Stats))
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "v202-sim: %s.\n", err)
		os.Exit(1)
	}
}
