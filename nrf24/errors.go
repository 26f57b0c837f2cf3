// Copyright 2026 by Thorsten von Eicken, see LICENSE file

package nrf24

import "errors"

var (
	ErrNoChip         = errors.New("nrf24: no response from chip")
	ErrPayloadSize    = errors.New("nrf24: payload size must be 1..32")
	ErrAddrSize       = errors.New("nrf24: rx address must be 3..5 bytes")
	ErrInvalidChannel = errors.New("nrf24: channel out of range")
	ErrNotInitialized = errors.New("nrf24: radio not initialized")
)
