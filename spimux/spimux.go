// Copyright 2026 by Thorsten von Eicken, see LICENSE file

package spimux

import (
	"sync"

	receiver "github.com/execuc/v202-receiver"
)

// Conn represents a connection to a device on an SPI bus with a multiplexed chip select.
//
// It allows two devices, e.g. an nRF24L01+ and a second radio, to share an SPI bus that only
// has a single chip select line. A demux on the CS line, such as a 74LVC1G19 with the SPI CS
// connected to E, the select pin to A, and the two devices' CS to Y0 and Y1, steers the chip
// select to one device or the other. A pull-down on A keeps both CS inactive when the SPI CS
// is not driven.
//
// The speed and the configuration (SPI mode and number of bits) are shared between the two
// devices: a Speed or Configure call on one Conn applies to both.
type Conn struct {
	bus *bus
	sel int // select pin level for this device
}

type bus struct {
	sync.Mutex               // prevent concurrent access to the shared SPI bus
	spi        receiver.SPI  // the underlying SPI bus with shared chip select
	selPin     receiver.GPIO // pin to select between the two devices
	open       int           // number of Conns not yet closed
}

// New returns two connections for the provided SPI bus, the first one using a low select pin,
// the second a high one.
func New(spi receiver.SPI, selPin receiver.GPIO) (*Conn, *Conn) {
	b := &bus{spi: spi, selPin: selPin, open: 2}
	return &Conn{b, receiver.GpioLow}, &Conn{b, receiver.GpioHigh}
}

// Tx sets the select pin for this device and performs the transaction.
func (c *Conn) Tx(w, r []byte) error {
	c.bus.Lock()
	defer c.bus.Unlock()
	if err := c.bus.selPin.Out(c.sel); err != nil {
		return err
	}
	return c.bus.spi.Tx(w, r)
}

func (c *Conn) Speed(hz int64) error {
	c.bus.Lock()
	defer c.bus.Unlock()
	return c.bus.spi.Speed(hz)
}

func (c *Conn) Configure(mode, bits int) error {
	c.bus.Lock()
	defer c.bus.Unlock()
	return c.bus.spi.Configure(mode, bits)
}

// Close closes the underlying bus and releases the select pin once both Conns are closed.
// Closing the same Conn twice counts twice.
func (c *Conn) Close() error {
	c.bus.Lock()
	defer c.bus.Unlock()
	c.bus.open--
	if c.bus.open != 0 {
		return nil
	}
	err := c.bus.spi.Close()
	if err2 := c.bus.selPin.Close(); err == nil {
		err = err2
	}
	return err
}
