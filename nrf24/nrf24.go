// Copyright 2026 by Thorsten von Eicken, see LICENSE file

// The nrf24 package interfaces with a Nordic nRF24L01+ 2.4GHz transceiver connected to an SPI
// bus and a CE (chip enable) GPIO pin.
//
// The driver only implements what a receiver for the v202 RC protocol needs: a fixed-size
// payload on pipe 0 without auto-acknowledgment, channel switching, and polled access to the
// RX_DR flag and the receive FIFO. It does not use the IRQ pin: the protocol decoder polls the
// STATUS register from a tight loop, which keeps the timing entirely in its hands.
//
// Errors on the SPI bus are sticky: the first one is recorded and can be retrieved using the
// Error function, after which the methods continue to operate on whatever the bus returns. The
// polling functions are written such that a dead bus reads as "no data", so a receiver loop
// degrades into channel hunting rather than spinning on garbage.
//
// The methods on the Radio object may be called from multiple goroutines, each SPI transaction
// is guarded by a mutex, but only one goroutine should drive the receive state.
package nrf24

import (
	"fmt"
	"sync"
	"time"

	receiver "github.com/execuc/v202-receiver"
)

// LogPrintf is a function used by the driver to print logging info.
type LogPrintf func(format string, v ...interface{})

// RadioOpts contains options used when initializing a Radio.
type RadioOpts struct {
	PayloadSize int       // fixed payload size on pipe 0, 16 for v202
	RxAddr      []byte    // pipe 0 address, LSByte first, defaults to DefaultRxAddr
	Speed       int64     // SPI clock in Hz, defaults to 8Mhz
	Logger      LogPrintf // function to use for logging
}

// Radio represents an nRF24L01+ chip.
type Radio struct {
	// configuration
	spi         receiver.SPI  // SPI device to access the radio
	ce          receiver.GPIO // chip enable pin
	payloadSize int           // bytes per payload
	rxAddr      []byte        // pipe 0 address
	// state
	sync.Mutex           // guard concurrent access to the radio
	channel    byte      // last channel programmed into RF_CH
	status     byte      // STATUS byte clocked out by the last transaction
	err        error     // persistent error
	log        LogPrintf // function to use for logging
}

// sleep is replaced in tests.
var sleep = time.Sleep

// New initializes an nRF24L01+ given an SPI connection and the CE pin. It checks that the chip
// responds by writing and reading back the address width register, but it leaves the chip
// powered down: call RxMode to start receiving.
//
// The SPI bus must be set to 10Mhz max and mode 0.
func New(dev receiver.SPI, ce receiver.GPIO, opts RadioOpts) (*Radio, error) {
	r := &Radio{
		spi: dev, ce: ce,
		payloadSize: opts.PayloadSize,
		rxAddr:      opts.RxAddr,
		log:         func(format string, v ...interface{}) {},
	}
	if opts.Logger != nil {
		r.log = func(format string, v ...interface{}) {
			opts.Logger("nrf24: "+format, v...)
		}
	}
	if r.payloadSize == 0 {
		r.payloadSize = 16
	}
	if r.payloadSize < 1 || r.payloadSize > MaxPayload {
		return nil, ErrPayloadSize
	}
	if r.rxAddr == nil {
		r.rxAddr = DefaultRxAddr
	}
	if len(r.rxAddr) < 3 || len(r.rxAddr) > 5 {
		return nil, ErrAddrSize
	}
	speed := opts.Speed
	if speed == 0 {
		speed = 8 * 1000 * 1000
	}

	// Set SPI parameters.
	if err := dev.Speed(speed); err != nil {
		return nil, fmt.Errorf("nrf24: cannot set speed, %w", err)
	}
	if err := dev.Configure(receiver.SPIMode0, 8); err != nil {
		return nil, fmt.Errorf("nrf24: cannot set mode, %w", err)
	}
	if err := ce.Out(receiver.GpioLow); err != nil {
		return nil, fmt.Errorf("nrf24: cannot drive CE, %w", err)
	}

	// Try to synchronize communication with the chip. SETUP_AW only has two valid bits and
	// 0 is illegal, so an absent chip (all 0s or all 1s) cannot fake a match.
	sync := func(pattern byte) error {
		for n := 3; n > 0; n-- {
			r.writeReg(REG_SETUP_AW, pattern)
			if r.err != nil {
				return r.err
			}
			if r.ReadReg(REG_SETUP_AW) == pattern {
				return nil
			}
		}
		return ErrNoChip
	}
	if err := sync(0x01); err != nil {
		return nil, err
	}
	if err := sync(0x03); err != nil {
		return nil, err
	}

	r.log("nRF24L01+ found, status %#x", r.ReadReg(REG_STATUS))
	return r, nil
}

// RxMode programs the receive configuration, tunes to the channel, powers the chip up in
// PRIM_RX and raises CE. Calling it again reprograms the same values, so it is idempotent.
// It sleeps for the chip's power-up delays and is intended to be called once at startup.
func (r *Radio) RxMode(channel byte) error {
	if channel > MaxChannel {
		return ErrInvalidChannel
	}
	r.ce.Out(receiver.GpioLow)

	// Write the configuration into the registers.
	r.writeReg(rxConfigRegs[0], rxConfigRegs[1])
	sleep(100 * time.Microsecond)
	for i := 2; i < len(rxConfigRegs)-1; i += 2 {
		r.writeReg(rxConfigRegs[i], rxConfigRegs[i+1])
	}
	r.writeReg(REG_RF_CH, channel)
	r.writeReg(REG_RX_PW_P0, byte(r.payloadSize))
	r.writeReg(REG_RX_ADDR_P0, r.rxAddr...)
	sleep(50 * time.Millisecond)
	r.FlushTx()
	r.FlushRx()
	sleep(100 * time.Microsecond)

	// Power up, then switch to RX and enable the receiver.
	r.writeReg(REG_CONFIG, EN_CRC|CRCO|PWR_UP)
	sleep(100 * time.Microsecond)
	r.writeReg(REG_CONFIG, EN_CRC|CRCO|PWR_UP|PRIM_RX)
	sleep(100 * time.Microsecond)
	ceErr := r.ce.Out(receiver.GpioHigh)
	sleep(100 * time.Microsecond)

	r.Lock()
	r.channel = channel
	if ceErr != nil && r.err == nil {
		r.err = fmt.Errorf("nrf24: cannot drive CE, %w", ceErr)
	}
	r.Unlock()
	r.log("RX mode on channel %d (%dMHz), %d byte payload", channel, 2400+int(channel),
		r.payloadSize)
	return r.Error()
}

// SwitchChannel reprograms RF_CH. The chip only uses the low 7 bits.
func (r *Radio) SwitchChannel(channel byte) {
	r.writeReg(REG_RF_CH, channel)
	r.Lock()
	r.channel = channel
	r.Unlock()
}

// Channel returns the channel last programmed.
func (r *Radio) Channel() byte {
	r.Lock()
	defer r.Unlock()
	return r.channel
}

// RxFlag returns whether the RX_DR (data ready) flag is set.
func (r *Radio) RxFlag() bool { return r.ReadReg(REG_STATUS)&RX_DR != 0 }

// ResetRxFlag clears RX_DR, it is a write-1-to-clear bit.
func (r *Radio) ResetRxFlag() { r.writeReg(REG_STATUS, RX_DR) }

// RxEmpty returns whether the receive FIFO is empty. It reports true once a bus error has
// occurred.
func (r *Radio) RxEmpty() bool {
	v := r.ReadReg(REG_FIFO_STATUS)
	return r.Error() != nil || v&RX_EMPTY != 0
}

// Carrier returns the received power detector bit: whether a signal above -64dBm was present
// on the channel during the last 40us. It takes 170us after entering RX mode or retuning to
// become valid.
func (r *Radio) Carrier() bool { return r.ReadReg(REG_RPD)&0x01 != 0 }

// ReadPayload pops one payload off the receive FIFO into buf. The chip always clocks out a full
// payload, if buf is shorter the tail is discarded, if it is longer the extra bytes are left
// alone.
func (r *Radio) ReadPayload(buf []byte) {
	var wBuf, rBuf [MaxPayload + 1]byte
	wBuf[0] = R_RX_PAYLOAD
	for i := 1; i <= r.payloadSize; i++ {
		wBuf[i] = NOP
	}
	r.tx(wBuf[:r.payloadSize+1], rBuf[:r.payloadSize+1])
	n := len(buf)
	if n > r.payloadSize {
		n = r.payloadSize
	}
	copy(buf[:n], rBuf[1:1+n])
}

// FlushRx empties the receive FIFO.
func (r *Radio) FlushRx() { r.command(FLUSH_RX) }

// FlushTx empties the transmit FIFO.
func (r *Radio) FlushTx() { r.command(FLUSH_TX) }

// Status returns the STATUS byte the chip clocked out during the most recent transaction.
func (r *Radio) Status() byte {
	r.Lock()
	defer r.Unlock()
	return r.status
}

// Error returns any persistent error that may have been encountered.
func (r *Radio) Error() error {
	r.Lock()
	defer r.Unlock()
	return r.err
}

// Close powers the chip down and closes the SPI connection.
func (r *Radio) Close() error {
	r.ce.Out(receiver.GpioLow)
	r.writeReg(REG_CONFIG, EN_CRC|CRCO)
	return r.spi.Close()
}

// Regs reads registers 0x00 through FIFO_STATUS, one byte each (the address registers only
// show their first byte).
func (r *Radio) Regs() []byte {
	regs := make([]byte, REG_FIFO_STATUS+1)
	for i := range regs {
		regs[i] = r.ReadReg(byte(i))
	}
	return regs
}

// LogRegs is a debug helper function to print the chip's registers.
func (r *Radio) LogRegs() {
	regs := r.Regs()
	r.log("     0  1  2  3  4  5  6  7  8  9  A  B  C  D  E  F")
	for i := 0; i < len(regs); i += 16 {
		line := fmt.Sprintf("%02x:", i)
		for j := 0; j < 16 && i+j < len(regs); j++ {
			line += fmt.Sprintf(" %02x", regs[i+j])
		}
		r.log(line)
	}
}

// ReadReg reads one register and returns its value.
func (r *Radio) ReadReg(addr byte) byte {
	var buf [2]byte
	r.tx([]byte{R_REGISTER | (addr & REGISTER_MASK), NOP}, buf[:])
	return buf[1]
}

// writeReg writes one register, or a multi-byte register such as an address.
func (r *Radio) writeReg(addr byte, data ...byte) {
	var wBuf, rBuf [6]byte
	wBuf[0] = W_REGISTER | (addr & REGISTER_MASK)
	n := copy(wBuf[1:], data)
	r.tx(wBuf[:n+1], rBuf[:n+1])
}

// command sends a single byte command.
func (r *Radio) command(cmd byte) {
	var buf [1]byte
	r.tx([]byte{cmd}, buf[:])
}

// tx performs one SPI transaction, recording the STATUS byte and the first error.
func (r *Radio) tx(w, rd []byte) {
	r.Lock()
	defer r.Unlock()
	if err := r.spi.Tx(w, rd); err != nil {
		if r.err == nil {
			r.err = fmt.Errorf("nrf24: %w", err)
		}
		return
	}
	r.status = rd[0]
}
