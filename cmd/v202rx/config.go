// Copyright 2026 by Thorsten von Eicken, see LICENSE file

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/execuc/v202-receiver/thread"
)

// Config is the contents of the yaml config file. Command line flags override it.
type Config struct {
	Radio RadioConfig `yaml:"radio"`
	Mqtt  MqttConfig  `yaml:"mqtt"`
	Ibus  IbusConfig  `yaml:"ibus"`
	Loop  LoopConfig  `yaml:"loop"`
}

// RadioConfig describes how the nRF24L01+ is wired.
type RadioConfig struct {
	Backend   string `yaml:"backend"`   // periph or embd, used for SPI and the CE pin
	SPI       string `yaml:"spi"`       // periph SPI port name, empty for the first one
	Speed     int64  `yaml:"speed"`     // SPI clock in Hz
	CEPin     string `yaml:"ce_pin"`    // CE pin name for periph or embd
	CEChip    string `yaml:"ce_chip"`   // gpiochip for the CE line, overrides ce_pin
	CELine    int    `yaml:"ce_line"`   // line offset on ce_chip
	MuxPin    string `yaml:"mux_pin"`   // chip select mux pin, see spimux
	MuxSel    int    `yaml:"mux_sel"`   // which side of the mux the radio is on, 0 or 1
	Registers bool   `yaml:"registers"` // log the chip registers after setup
}

// MqttConfig describes the broker to publish to, an empty host disables MQTT.
type MqttConfig struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	User     string        `yaml:"user"`
	Password string        `yaml:"password"`
	Prefix   string        `yaml:"prefix"`   // topic prefix
	Interval time.Duration `yaml:"interval"` // minimum time between stick publications
	Stats    time.Duration `yaml:"stats"`    // time between statistics publications, 0 to disable
}

// IbusConfig describes the serial port to the flight controller, an empty port disables it.
type IbusConfig struct {
	Port   string        `yaml:"port"`
	Baud   int           `yaml:"baud"`
	Period time.Duration `yaml:"period"`
}

// LoopConfig controls the decoder polling loop.
type LoopConfig struct {
	Poll     time.Duration `yaml:"poll"`     // time between decoder steps
	Failsafe time.Duration `yaml:"failsafe"` // link is declared lost after this long without values
	Realtime bool          `yaml:"realtime"` // run the loop on a realtime thread
	Priority int           `yaml:"priority"` // realtime priority
	CPU      int           `yaml:"cpu"`      // pin the loop to a CPU, -1 for no pinning
}

func defaultConfig() Config {
	return Config{
		Radio: RadioConfig{
			Backend: "periph",
			Speed:   8000000,
			CEPin:   "GPIO25",
			CELine:  -1,
			MuxSel:  0,
		},
		Mqtt: MqttConfig{
			Port:     1883,
			Prefix:   "v202",
			Interval: 100 * time.Millisecond,
			Stats:    10 * time.Second,
		},
		Ibus: IbusConfig{
			Baud:   115200,
			Period: 7 * time.Millisecond,
		},
		Loop: LoopConfig{
			Poll:     time.Millisecond,
			Failsafe: 500 * time.Millisecond,
			Priority: thread.DefaultPriority,
			CPU:      -1,
		},
	}
}

// loadConfig reads the yaml file on top of the defaults. Unknown keys are an error so typos
// don't go unnoticed.
func loadConfig(path string) (Config, error) {
	conf := defaultConfig()
	if path == "" {
		return conf, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return conf, err
	}
	if err := parseConfig(data, &conf); err != nil {
		return conf, fmt.Errorf("%s: %w", path, err)
	}
	return conf, nil
}

func parseConfig(data []byte, conf *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(conf); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks the values that would otherwise fail in obscure ways later on.
func (c *Config) Validate() error {
	switch c.Radio.Backend {
	case "periph", "embd":
	default:
		return fmt.Errorf("radio backend must be periph or embd, not %q", c.Radio.Backend)
	}
	if c.Radio.Speed <= 0 || c.Radio.Speed > 10000000 {
		return fmt.Errorf("radio SPI speed %dHz out of range, the nRF24L01+ does 10MHz max",
			c.Radio.Speed)
	}
	if c.Radio.CEPin == "" && c.Radio.CEChip == "" {
		return errors.New("radio CE pin missing")
	}
	if c.Radio.CEChip != "" && c.Radio.CELine < 0 {
		return fmt.Errorf("radio ce_line must be set with ce_chip %s", c.Radio.CEChip)
	}
	if c.Radio.MuxSel != 0 && c.Radio.MuxSel != 1 {
		return fmt.Errorf("radio mux_sel must be 0 or 1, not %d", c.Radio.MuxSel)
	}
	if c.Mqtt.Host != "" && (c.Mqtt.Port <= 0 || c.Mqtt.Port > 65535) {
		return fmt.Errorf("mqtt port %d out of range", c.Mqtt.Port)
	}
	if c.Ibus.Port != "" && c.Ibus.Baud <= 0 {
		return fmt.Errorf("ibus baud rate %d invalid", c.Ibus.Baud)
	}
	if c.Loop.Poll <= 0 || c.Loop.Poll > 5*time.Millisecond {
		return fmt.Errorf("loop poll interval %s out of range, the decoder needs a step every few ms",
			c.Loop.Poll)
	}
	if c.Loop.Failsafe < 50*time.Millisecond {
		return fmt.Errorf("loop failsafe %s too short", c.Loop.Failsafe)
	}
	if c.Loop.Realtime && (c.Loop.Priority < 1 || c.Loop.Priority > 99) {
		return fmt.Errorf("loop priority %d out of range 1..99", c.Loop.Priority)
	}
	return nil
}
