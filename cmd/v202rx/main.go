// Copyright 2026 by Thorsten von Eicken, see LICENSE file

// v202rx receives a v202 RC transmitter with an nRF24L01+ and forwards the sticks to a flight
// controller as iBus frames and/or to an MQTT broker as JSON.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/kidoman/embd"
	_ "github.com/kidoman/embd/host/chip"
	"github.com/spf13/pflag"
	"periph.io/x/periph/host"

	receiver "github.com/execuc/v202-receiver"
	"github.com/execuc/v202-receiver/ibus"
	"github.com/execuc/v202-receiver/nrf24"
	"github.com/execuc/v202-receiver/spimux"
	"github.com/execuc/v202-receiver/thread"
	"github.com/execuc/v202-receiver/v202"
)

// openSPI opens the SPI bus with the selected backend, going through the chip select mux if
// one is configured.
func openSPI(rc RadioConfig) (receiver.SPI, error) {
	var bus receiver.SPI
	var err error
	switch rc.Backend {
	case "embd":
		if err := embd.InitSPI(); err != nil {
			return nil, fmt.Errorf("embd: %w", err)
		}
		bus = receiver.NewEmbdSPI(int(rc.Speed))
	default:
		bus, err = receiver.NewPeriphSPI(rc.SPI)
		if err != nil {
			return nil, err
		}
	}
	if rc.MuxPin == "" {
		return bus, nil
	}
	selPin, err := openPin(rc.Backend, rc.MuxPin)
	if err != nil {
		bus.Close()
		return nil, err
	}
	spi0, spi1 := spimux.New(bus, selPin)
	if rc.MuxSel == 1 {
		spi0.Close()
		return spi1, nil
	}
	spi1.Close()
	return spi0, nil
}

// openPin opens a GPIO output by name with the selected backend.
func openPin(backend, name string) (receiver.GPIO, error) {
	if backend == "embd" {
		if err := embd.InitGPIO(); err != nil {
			return nil, fmt.Errorf("embd: %w", err)
		}
		return receiver.NewEmbdGPIO(name)
	}
	return receiver.NewPeriphGPIO(name)
}

// openRadio initializes the hardware and the nRF24L01+ driver.
func openRadio(rc RadioConfig, logger *log.Logger) (*nrf24.Radio, error) {
	if rc.Backend == "periph" {
		if _, err := host.Init(); err != nil {
			return nil, fmt.Errorf("periph: %w", err)
		}
	}
	bus, err := openSPI(rc)
	if err != nil {
		return nil, err
	}
	var ce receiver.GPIO
	if rc.CEChip != "" {
		ce, err = receiver.NewCdevGPIO(rc.CEChip, rc.CELine)
	} else {
		ce, err = openPin(rc.Backend, rc.CEPin)
	}
	if err != nil {
		bus.Close()
		return nil, err
	}
	radio, err := nrf24.New(bus, ce, nrf24.RadioOpts{
		PayloadSize: v202.FrameSize,
		Speed:       rc.Speed,
		Logger:      logger.Debugf,
	})
	if err != nil {
		bus.Close()
		ce.Close()
		return nil, err
	}
	return radio, nil
}

func mainImpl() error {
	confPath := pflag.StringP("config", "c", "", "yaml config file")
	debug := pflag.BoolP("debug", "d", false, "enable debug output")
	backend := pflag.StringP("backend", "b", "", "hardware access: periph or embd")
	spiPort := pflag.String("spi", "", "SPI port name (periph)")
	cePin := pflag.String("ce", "", "CE pin name")
	mqttHost := pflag.StringP("mqtt", "m", "", "MQTT broker host, empty to disable")
	ibusPort := pflag.StringP("ibus", "i", "", "serial port for iBus output, empty to disable")
	realtime := pflag.BoolP("realtime", "r", false, "poll the radio from a realtime thread")
	help := pflag.BoolP("help", "h", false, "display help text")
	pflag.Parse()
	if *help {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		pflag.PrintDefaults()
		os.Exit(0)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.StampMilli,
		Prefix:          "v202rx",
	})
	if *debug {
		logger.SetLevel(log.DebugLevel)
	}

	conf, err := loadConfig(*confPath)
	if err != nil {
		return err
	}
	flags := map[string]func(){
		"backend":  func() { conf.Radio.Backend = *backend },
		"spi":      func() { conf.Radio.SPI = *spiPort },
		"ce":       func() { conf.Radio.CEPin = *cePin; conf.Radio.CEChip = "" },
		"mqtt":     func() { conf.Mqtt.Host = *mqttHost },
		"ibus":     func() { conf.Ibus.Port = *ibusPort },
		"realtime": func() { conf.Loop.Realtime = *realtime },
	}
	pflag.Visit(func(f *pflag.Flag) {
		if set, ok := flags[f.Name]; ok {
			set()
		}
	})
	if err := conf.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	radio, err := openRadio(conf.Radio, logger)
	if err != nil {
		return err
	}
	defer radio.Close()

	dec, err := v202.New(radio, v202.Opts{Logger: logger.Debugf})
	if err != nil {
		return err
	}
	if conf.Radio.Registers {
		radio.LogRegs()
	}
	loop := newRxLoop(dec, conf, logger)

	if conf.Mqtt.Host != "" {
		mq, err := newMQ(conf.Mqtt, logger)
		if err != nil {
			return err
		}
		defer mq.Close()
		loop.mq = mq
	}
	if conf.Ibus.Port != "" {
		port, err := ibus.Open(conf.Ibus.Port, conf.Ibus.Baud)
		if err != nil {
			return err
		}
		defer port.Close()
		loop.ibus = port
		go func() {
			if err := port.Run(ctx, conf.Ibus.Period); err != nil && ctx.Err() == nil {
				logger.Error("iBus output stopped", "err", err)
			}
		}()
	}

	if conf.Loop.Realtime {
		if err := thread.Realtime(conf.Loop.Priority); err != nil {
			logger.Warn("cannot switch to realtime scheduling", "err", err)
		} else if conf.Loop.CPU >= 0 {
			if err := thread.Pin(conf.Loop.CPU); err != nil {
				logger.Warn("cannot pin receive loop", "err", err)
			}
		}
	}

	logger.Info("receiver ready, waiting for a bind frame", "channel", dec.Channel())
	if err := loop.run(ctx, conf.Loop.Poll); err != nil {
		return err
	}
	return radio.Error()
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "v202rx: %s.\n", err)
		os.Exit(1)
	}
}
