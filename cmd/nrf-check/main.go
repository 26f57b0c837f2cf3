// Copyright 2026 by Thorsten von Eicken, see LICENSE file

// nrf-check verifies that an nRF24L01+ responds on the SPI bus and optionally sweeps the 2.4GHz
// band for activity or listens on one channel for v202 frames.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"periph.io/x/periph/host"

	receiver "github.com/execuc/v202-receiver"
	"github.com/execuc/v202-receiver/nrf24"
	"github.com/execuc/v202-receiver/spimux"
	"github.com/execuc/v202-receiver/v202"
)

// sweep visits every channel passes times and returns how often a carrier was detected on each.
func sweep(r *nrf24.Radio, passes int) []int {
	hits := make([]int, nrf24.MaxChannel+1)
	for p := 0; p < passes; p++ {
		for ch := range hits {
			r.SwitchChannel(byte(ch))
			time.Sleep(200 * time.Microsecond)
			if r.Carrier() {
				hits[ch]++
			}
		}
	}
	return hits
}

// histogram renders sweep hits as one character per channel.
func histogram(hits []int, passes int) string {
	const levels = " .:-=+*#%@"
	var sb strings.Builder
	for _, h := range hits {
		i := 0
		if h > 0 {
			i = 1 + h*(len(levels)-2)/passes
		}
		sb.WriteByte(levels[i])
	}
	return sb.String()
}

// listen stays on one channel and logs every payload received.
func listen(r *nrf24.Radio, channel byte, d time.Duration, logger *log.Logger) (good, bad int) {
	r.SwitchChannel(channel)
	var f v202.Frame
	for t0 := time.Now(); time.Since(t0) < d; time.Sleep(time.Millisecond) {
		if !r.RxFlag() {
			continue
		}
		r.ResetRxFlag()
		for !r.RxEmpty() {
			r.ReadPayload(f[:])
			if !f.ChecksumOK() {
				bad++
				logger.Debugf("bad checksum % x", f[:])
				continue
			}
			good++
			id := f.TxID()
			logger.Infof("tx %02x%02x%02x bind=%v %+v", id[0], id[1], id[2], f.IsBind(), f.Sticks())
		}
	}
	return
}

func mainImpl() error {
	spiPort := pflag.StringP("spi", "s", "", "SPI port name")
	cePin := pflag.StringP("ce", "c", "GPIO25", "CE pin name")
	selPin := pflag.String("mux", "", "chip select mux pin name")
	muxSel := pflag.Int("mux-sel", 0, "side of the mux the radio is on")
	speed := pflag.Int64("speed", 1000000, "SPI clock in Hz")
	sweepN := pflag.IntP("sweep", "w", 0, "sweep all channels this many times")
	channel := pflag.IntP("listen", "l", -1, "listen for v202 frames on this channel")
	duration := pflag.DurationP("time", "t", 10*time.Second, "how long to listen")
	debug := pflag.BoolP("debug", "d", false, "enable debug output")
	pflag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	if *debug {
		logger.SetLevel(log.DebugLevel)
	}
	if *channel > nrf24.MaxChannel {
		return fmt.Errorf("channel %d out of range", *channel)
	}

	if _, err := host.Init(); err != nil {
		return err
	}
	bus, err := receiver.NewPeriphSPI(*spiPort)
	if err != nil {
		return err
	}
	if *selPin != "" {
		sel, err := receiver.NewPeriphGPIO(*selPin)
		if err != nil {
			return err
		}
		spi0, spi1 := spimux.New(bus, sel)
		bus = spi0
		if *muxSel == 1 {
			bus = spi1
		}
	}
	ce, err := receiver.NewPeriphGPIO(*cePin)
	if err != nil {
		return err
	}

	logger.Info("Checking nRF24L01+...")
	r, err := nrf24.New(bus, ce, nrf24.RadioOpts{
		PayloadSize: v202.FrameSize,
		Speed:       *speed,
		Logger:      logger.Debugf,
	})
	if err != nil {
		return err
	}
	defer r.Close()
	logger.Infof("  found nRF24L01+, status %#x: OK!", r.ReadReg(nrf24.REG_STATUS))

	if err := r.RxMode(v202.BindProbeTable()[0]); err != nil {
		return err
	}
	if rfSetup := r.ReadReg(nrf24.REG_RF_SETUP); rfSetup != 0x05 {
		logger.Warnf("  oops, RF_SETUP is %#x instead of 0x05, is this a clone?", rfSetup)
	}
	if *debug {
		r.LogRegs()
	}

	if *sweepN > 0 {
		logger.Infof("Sweeping channels 0..%d, %d passes", nrf24.MaxChannel, *sweepN)
		fmt.Printf("|%s|\n", histogram(sweep(r, *sweepN), *sweepN))
	}
	if *channel >= 0 {
		logger.Infof("Listening on channel %d for %s", *channel, *duration)
		good, bad := listen(r, byte(*channel), *duration, logger)
		logger.Infof("  %d good frames, %d bad checksums", good, bad)
	}
	return r.Error()
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "nrf-check: %s.\n", err)
		os.Exit(1)
	}
}
