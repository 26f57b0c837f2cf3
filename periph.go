// Copyright 2026 by Thorsten von Eicken, see LICENSE file

package receiver

import (
	"fmt"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/conn/spi"
	"periph.io/x/periph/conn/spi/spireg"
)

//===== SPI shim for periph

// NewPeriphSPI opens the named SPI port (empty string for the first one) using periph.
// host.Init must have been called. The connection is established lazily so Speed and
// Configure can be called first, as the radio drivers do.
func NewPeriphSPI(name string) (SPI, error) {
	p, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("periph: spi %q: %w", name, err)
	}
	return &periphSPI{port: p, hz: physic.MegaHertz, mode: spi.Mode0, bits: 8}, nil
}

type periphSPI struct {
	port spi.PortCloser
	conn spi.Conn
	hz   physic.Frequency
	mode spi.Mode
	bits int
}

func (s *periphSPI) Tx(w, r []byte) error {
	if s.conn == nil {
		c, err := s.port.Connect(s.hz, s.mode, s.bits)
		if err != nil {
			return err
		}
		s.conn = c
	}
	return s.conn.Tx(w, r)
}

func (s *periphSPI) Speed(hz int64) error {
	if s.conn != nil {
		return fmt.Errorf("periph: cannot change speed of connected spi port %v", s.port)
	}
	s.hz = physic.Frequency(hz) * physic.Hertz
	return nil
}

func (s *periphSPI) Configure(mode int, bits int) error {
	if s.conn != nil {
		return fmt.Errorf("periph: cannot reconfigure connected spi port %v", s.port)
	}
	s.mode = spi.Mode(mode)
	s.bits = bits
	return nil
}

func (s *periphSPI) Close() error { return s.port.Close() }

//===== GPIO shim for periph

// NewPeriphGPIO looks a pin up by name in periph's registry and drives it low.
func NewPeriphGPIO(name string) (GPIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("periph: cannot open pin %s", name)
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("periph: pin %s: %w", name, err)
	}
	return &periphGPIO{p}, nil
}

type periphGPIO struct {
	p gpio.PinIO
}

func (g *periphGPIO) Out(level int) error {
	return g.p.Out(gpio.Level(level != GpioLow))
}

func (g *periphGPIO) Read() int {
	if g.p.Read() == gpio.High {
		return GpioHigh
	}
	return GpioLow
}

func (g *periphGPIO) Number() int  { return g.p.Number() }
func (g *periphGPIO) Close() error { return g.p.Halt() }
