// Copyright 2026 by Thorsten von Eicken, see LICENSE file

package nrf24

const (
	REG_CONFIG      = 0x00
	REG_EN_AA       = 0x01
	REG_EN_RXADDR   = 0x02
	REG_SETUP_AW    = 0x03
	REG_SETUP_RETR  = 0x04
	REG_RF_CH       = 0x05
	REG_RF_SETUP    = 0x06
	REG_STATUS      = 0x07
	REG_OBSERVE_TX  = 0x08
	REG_RPD         = 0x09
	REG_RX_ADDR_P0  = 0x0A
	REG_TX_ADDR     = 0x10
	REG_RX_PW_P0    = 0x11
	REG_FIFO_STATUS = 0x17

	// CONFIG bits
	MASK_RX_DR  = 1 << 6
	MASK_TX_DS  = 1 << 5
	MASK_MAX_RT = 1 << 4
	EN_CRC      = 1 << 3
	CRCO        = 1 << 2
	PWR_UP      = 1 << 1
	PRIM_RX     = 1 << 0

	// STATUS bits
	RX_DR  = 1 << 6
	TX_DS  = 1 << 5
	MAX_RT = 1 << 4

	// FIFO_STATUS bits
	FIFO_FULL = 1 << 5
	TX_EMPTY  = 1 << 4
	RX_FULL   = 1 << 1
	RX_EMPTY  = 1 << 0

	// SPI commands
	R_REGISTER    = 0x00
	W_REGISTER    = 0x20
	REGISTER_MASK = 0x1F
	R_RX_PL_WID   = 0x60
	R_RX_PAYLOAD  = 0x61
	W_TX_PAYLOAD  = 0xA0
	FLUSH_TX      = 0xE1
	FLUSH_RX      = 0xE2
	NOP           = 0xFF

	MaxPayload = 32  // size of the chip's payload buffers
	MaxChannel = 125 // highest RF_CH value, 2400MHz + 125MHz
)

// DefaultRxAddr is the pipe 0 address v202 transmitters use.
var DefaultRxAddr = []byte{0x66, 0x88, 0x68, 0x68, 0x68}

// register values to put the chip into a receive-only configuration, this array has pairs of
// <address, data>. RF_CH, RX_PW_P0 and RX_ADDR_P0 are set separately.
var rxConfigRegs = []byte{
	REG_CONFIG, EN_CRC | CRCO, // 2-byte CRC, powered down
	REG_EN_AA, 0x00, // no auto-ack
	REG_EN_RXADDR, 0x01, // only pipe 0
	REG_SETUP_AW, 0x03, // 5 byte addresses
	REG_SETUP_RETR, 0xFF, // 15 retransmits, 4000us delay, unused in RX
	REG_RF_SETUP, 0x05, // 1Mbps, -6dBm
	REG_STATUS, RX_DR | TX_DS | MAX_RT, // clear interrupt flags
	REG_FIFO_STATUS, 0x00, // read-only, write is a no-op
}
