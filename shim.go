// Copyright 2026 by Thorsten von Eicken, see LICENSE file

package receiver

// stuff in here allows the radio driver to switch between periph, embd and gpiocdev...

import (
	"errors"
	"fmt"

	"github.com/kidoman/embd"
)

// SPI is the subset of an SPI bus connection the radio drivers need.
type SPI interface {
	Tx(w, r []byte) error
	Speed(hz int64) error
	Configure(mode int, bits int) error
	Close() error
}

const (
	SPIMode0 = 0x0 // CPOL=0, CPHA=0
	SPIMode1 = 0x1 // CPOL=0, CPHA=1
	SPIMode2 = 0x2 // CPOL=1, CPHA=0
	SPIMode3 = 0x3 // CPOL=1, CPHA=1
)

// GPIO is an output pin, such as the nRF24's CE line or a chip-select mux.
type GPIO interface {
	Out(level int) error
	Read() int
	Number() int
	Close() error
}

const (
	GpioLow  = 0
	GpioHigh = 1
)

//===== SPI shim for embd

// NewEmbdSPI opens SPI channel 0 using embd. embd.InitSPI must have been called.
func NewEmbdSPI(hz int) SPI {
	return &embdSPI{SPIBus: embd.NewSPIBus(embd.SPIMode0, 0, hz, 8, 0), hz: int64(hz)}
}

type embdSPI struct {
	embd.SPIBus
	hz int64
}

func (s *embdSPI) Tx(w, r []byte) error {
	copy(r, w)
	return s.TransferAndReceiveData(r)
}

func (s *embdSPI) Speed(hz int64) error {
	if hz != s.hz {
		return fmt.Errorf("SPI: sorry, embd bus was opened at %dHz", s.hz)
	}
	return nil
}

func (s *embdSPI) Configure(mode int, bits int) error {
	if mode != SPIMode0 {
		return errors.New("SPI: sorry, only SPI mode 0 supported")
	}
	if bits != 8 {
		return errors.New("SPI: sorry, only 8-bit mode supported")
	}
	return nil
}

//===== GPIO shim for embd

// NewEmbdGPIO opens a pin by name using embd and makes it an output.
func NewEmbdGPIO(name string) (GPIO, error) {
	p, err := embd.NewDigitalPin(name)
	if err != nil {
		return nil, fmt.Errorf("embd: pin %s: %w", name, err)
	}
	if err := p.SetDirection(embd.Out); err != nil {
		p.Close()
		return nil, fmt.Errorf("embd: pin %s: %w", name, err)
	}
	return &embdGPIO{p: p}, nil
}

type embdGPIO struct {
	p embd.DigitalPin
}

func (g *embdGPIO) Out(level int) error { return g.p.Write(level) }

func (g *embdGPIO) Read() int {
	v, _ := g.p.Read()
	return v
}

func (g *embdGPIO) Number() int  { return g.p.N() }
func (g *embdGPIO) Close() error { return g.p.Close() }
