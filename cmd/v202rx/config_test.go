// Copyright 2026 by Thorsten von Eicken, see LICENSE file

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValid(t *testing.T) {
	conf := defaultConfig()
	assert.NoError(t, conf.Validate())
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v202rx.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
radio:
  backend: embd
  ce_pin: XIO-P3
  mux_pin: CSID0
  mux_sel: 1
mqtt:
  host: core.example.com
  prefix: quad/rx
  interval: 250ms
ibus:
  port: /dev/ttyS1
loop:
  poll: 2ms
  realtime: true
`), 0o644))

	conf, err := loadConfig(path)
	require.NoError(t, err)
	require.NoError(t, conf.Validate())
	assert.Equal(t, "embd", conf.Radio.Backend)
	assert.Equal(t, "XIO-P3", conf.Radio.CEPin)
	assert.Equal(t, 1, conf.Radio.MuxSel)
	assert.Equal(t, int64(8000000), conf.Radio.Speed, "defaults are kept")
	assert.Equal(t, "quad/rx", conf.Mqtt.Prefix)
	assert.Equal(t, 1883, conf.Mqtt.Port)
	assert.Equal(t, 250*time.Millisecond, conf.Mqtt.Interval)
	assert.Equal(t, "/dev/ttyS1", conf.Ibus.Port)
	assert.Equal(t, 115200, conf.Ibus.Baud)
	assert.Equal(t, 2*time.Millisecond, conf.Loop.Poll)
	assert.True(t, conf.Loop.Realtime)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	conf := defaultConfig()
	assert.Error(t, parseConfig([]byte("radio:\n  bakend: embd\n"), &conf), "typo")
	assert.Error(t, parseConfig([]byte("loop: [1, 2]\n"), &conf))
	assert.NoError(t, parseConfig(nil, &conf), "empty file")

	conf, err = loadConfig("")
	assert.NoError(t, err)
	assert.Equal(t, defaultConfig(), conf)
}

func TestValidate(t *testing.T) {
	var tests = map[string]func(c *Config){
		"backend":     func(c *Config) { c.Radio.Backend = "wiringpi" },
		"speed":       func(c *Config) { c.Radio.Speed = 16000000 },
		"no ce":       func(c *Config) { c.Radio.CEPin = "" },
		"ce line":     func(c *Config) { c.Radio.CEChip = "gpiochip0" },
		"mux":         func(c *Config) { c.Radio.MuxSel = 2 },
		"mqtt port":   func(c *Config) { c.Mqtt.Host = "x"; c.Mqtt.Port = 0 },
		"baud":        func(c *Config) { c.Ibus.Port = "/dev/ttyS0"; c.Ibus.Baud = 0 },
		"slow poll":   func(c *Config) { c.Loop.Poll = 20 * time.Millisecond },
		"zero poll":   func(c *Config) { c.Loop.Poll = 0 },
		"failsafe":    func(c *Config) { c.Loop.Failsafe = time.Millisecond },
		"rt priority": func(c *Config) { c.Loop.Realtime = true; c.Loop.Priority = 0 },
	}
	for n, mangle := range tests {
		conf := defaultConfig()
		mangle(&conf)
		assert.Error(t, conf.Validate(), n)
	}

	conf := defaultConfig()
	conf.Radio.CEChip, conf.Radio.CELine = "gpiochip0", 25
	assert.NoError(t, conf.Validate())
}
