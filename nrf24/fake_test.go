// Copyright 2026 by Thorsten von Eicken, see LICENSE file

package nrf24

import (
	"errors"

	receiver "github.com/execuc/v202-receiver"
)

// fakeChip emulates the nRF24L01+ register file and RX FIFO behind the SPI interface.
type fakeChip struct {
	regs    [0x20][]byte
	fifo    [][]byte
	txFlush int
	writes  []byte // register addresses written, in order
	dead    bool   // return zeros for everything, like an absent chip
	fail    error  // returned by Tx
	speed   int64
	mode    int
	bits    int
	closed  bool
}

func newFakeChip() *fakeChip {
	c := &fakeChip{}
	for i := range c.regs {
		c.regs[i] = []byte{0}
	}
	c.regs[REG_SETUP_AW] = []byte{0x03}
	c.regs[REG_RX_ADDR_P0] = []byte{0xE7, 0xE7, 0xE7, 0xE7, 0xE7}
	c.regs[REG_TX_ADDR] = []byte{0xE7, 0xE7, 0xE7, 0xE7, 0xE7}
	return c
}

func (c *fakeChip) statusByte() byte {
	s := c.regs[REG_STATUS][0] & 0x70
	if len(c.fifo) == 0 {
		s |= 0x0E // RX_P_NO = empty
	}
	return s
}

func (c *fakeChip) fifoStatus() byte {
	s := byte(TX_EMPTY)
	if len(c.fifo) == 0 {
		s |= RX_EMPTY
	}
	if len(c.fifo) == 3 {
		s |= RX_FULL
	}
	return s
}

// push queues a received payload and raises RX_DR.
func (c *fakeChip) push(pl []byte) {
	if len(c.fifo) == 3 {
		return
	}
	c.fifo = append(c.fifo, append([]byte(nil), pl...))
	c.regs[REG_STATUS][0] |= RX_DR
}

func (c *fakeChip) Tx(w, r []byte) error {
	if c.fail != nil {
		return c.fail
	}
	if len(w) != len(r) {
		return errors.New("fake: w and r differ in length")
	}
	for i := range r {
		r[i] = 0
	}
	if c.dead {
		return nil
	}
	cmd := w[0]
	r[0] = c.statusByte()
	switch {
	case cmd == R_RX_PAYLOAD:
		if len(c.fifo) > 0 {
			copy(r[1:], c.fifo[0])
			c.fifo = c.fifo[1:]
		}
	case cmd == FLUSH_RX:
		c.fifo = nil
	case cmd == FLUSH_TX:
		c.txFlush++
	case cmd == NOP:
	case cmd&0xE0 == W_REGISTER:
		addr := cmd & REGISTER_MASK
		c.writes = append(c.writes, addr)
		switch addr {
		case REG_STATUS:
			c.regs[addr][0] &^= w[1] & 0x70 // write 1 to clear
		case REG_FIFO_STATUS:
		case REG_SETUP_AW:
			c.regs[addr] = []byte{w[1] & 0x03}
		default:
			c.regs[addr] = append([]byte(nil), w[1:]...)
		}
	case cmd&0xE0 == R_REGISTER:
		addr := cmd & REGISTER_MASK
		switch addr {
		case REG_STATUS:
			r[1] = c.statusByte()
		case REG_FIFO_STATUS:
			r[1] = c.fifoStatus()
		default:
			copy(r[1:], c.regs[addr])
		}
	}
	return nil
}

func (c *fakeChip) Speed(hz int64) error { c.speed = hz; return nil }

func (c *fakeChip) Configure(mode int, bits int) error {
	c.mode, c.bits = mode, bits
	return nil
}

func (c *fakeChip) Close() error { c.closed = true; return nil }

// fakePin records the levels driven onto it.
type fakePin struct {
	levels []int
}

func (p *fakePin) Out(level int) error { p.levels = append(p.levels, level); return nil }

func (p *fakePin) Read() int {
	if len(p.levels) == 0 {
		return receiver.GpioLow
	}
	return p.levels[len(p.levels)-1]
}

func (p *fakePin) Number() int  { return 22 }
func (p *fakePin) Close() error { return nil }
