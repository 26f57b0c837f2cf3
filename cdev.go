// Copyright 2026 by Thorsten von Eicken, see LICENSE file

package receiver

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

//===== GPIO shim for the GPIO character device

// NewCdevGPIO requests a line on a gpiochip (e.g. "gpiochip0") as an output initially low.
// This works on kernels where the sysfs GPIO interface used by embd is gone.
func NewCdevGPIO(chip string, offset int) (GPIO, error) {
	l, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsOutput(GpioLow), gpiocdev.WithConsumer("v202rx"))
	if err != nil {
		return nil, fmt.Errorf("gpiocdev: %s:%d: %w", chip, offset, err)
	}
	return &cdevGPIO{l: l, offset: offset}, nil
}

type cdevGPIO struct {
	l      *gpiocdev.Line
	offset int
	level  int
}

func (g *cdevGPIO) Out(level int) error {
	if level != GpioLow {
		level = GpioHigh
	}
	if err := g.l.SetValue(level); err != nil {
		return err
	}
	g.level = level
	return nil
}

// Read returns the last level driven, output lines cannot be read back on all chips.
func (g *cdevGPIO) Read() int    { return g.level }
func (g *cdevGPIO) Number() int  { return g.offset }
func (g *cdevGPIO) Close() error { return g.l.Close() }
