// Copyright 2026 by Thorsten von Eicken, see LICENSE file

package main

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/execuc/v202-receiver/v202"
)

func TestParseID(t *testing.T) {
	id, err := parseID("316E01")
	require.NoError(t, err)
	assert.Equal(t, v202.TxID{0x31, 0x6E, 0x01}, id)

	_, err = parseID("3161")
	assert.Error(t, err)
	_, err = parseID("xyz")
	assert.Error(t, err)
}

func TestSimulate(t *testing.T) {
	c := simConfig{
		id:       v202.TxID{1, 2, 3},
		bind:     100,
		period:   8,
		seed:     1,
		duration: 5000,
		offAt:    3000,
		offFor:   1000,
		logger:   log.New(io.Discard),
	}
	res := simulate(context.Background(), c)
	assert.Equal(t, "010203", res.TxID)
	assert.Equal(t, "bound", res.State)
	assert.NotZero(t, res.BoundAt)
	assert.Less(t, res.BoundAt, uint32(1500))
	assert.Equal(t, uint8(0x80), res.Sticks.Throttle)
	assert.Equal(t, int8(1), res.Sticks.TrimYaw)
	assert.Equal(t, 5000/8-1000/8, res.Sent)
	assert.NotZero(t, res.Stats.Hunts, "the transmitter was off for a second")
	// not-bound, bind-in-progress, bound
	assert.Equal(t, 3, res.Transitions)
}
