// Copyright 2026 by Thorsten von Eicken, see LICENSE file

package receiver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/gpio/gpiotest"
)

func TestPeriphGPIO(t *testing.T) {
	pin := &gpiotest.Pin{N: "NRF_CE", Num: 125, L: gpio.High}
	require.NoError(t, gpioreg.Register(pin))

	g, err := NewPeriphGPIO("NRF_CE")
	require.NoError(t, err)
	assert.Equal(t, gpio.Low, pin.L, "pin starts out low")
	assert.Equal(t, 125, g.Number())

	require.NoError(t, g.Out(GpioHigh))
	assert.Equal(t, gpio.High, pin.L)
	assert.Equal(t, GpioHigh, g.Read())
	require.NoError(t, g.Out(GpioLow))
	assert.Equal(t, GpioLow, g.Read())
	assert.NoError(t, g.Close())

	_, err = NewPeriphGPIO("NO_SUCH_PIN")
	assert.Error(t, err)
}

func TestPeriphSPIMissing(t *testing.T) {
	_, err := NewPeriphSPI("/dev/spidev99.9")
	assert.Error(t, err)
}
