// Copyright 2023 Gilles Henrard. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the daemon configuration, loaded from YAML.
type Config struct {
	SPI struct {
		// DisplayPort and SensorPort are spireg names, empty for the
		// first available port.
		DisplayPort string `yaml:"display_port"`
		SensorPort  string `yaml:"sensor_port"`
	} `yaml:"spi"`
	Pins struct {
		DC  string `yaml:"dc"`
		CS  string `yaml:"cs"`
		RST string `yaml:"rst"`
	} `yaml:"pins"`
	Display struct {
		Page     uint8 `yaml:"page"`
		Column   uint8 `yaml:"column"`
		PeriodMs int   `yaml:"period_ms"`
	} `yaml:"display"`
}

func defaultConfig() Config {
	var c Config
	c.SPI.DisplayPort = "SPI0.0"
	c.SPI.SensorPort = "SPI0.1"
	c.Pins.DC = "GPIO25"
	c.Pins.CS = "GPIO8"
	c.Pins.RST = "GPIO24"
	c.Display.Page = 2
	c.Display.Column = 10
	c.Display.PeriodMs = 100
	return c
}

// loadConfig overlays the file at path on the defaults.
func loadConfig(path string) (Config, error) {
	c := defaultConfig()
	if path == "" {
		return c, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("parsing %s: %w", path, err)
	}
	if c.Display.PeriodMs <= 0 {
		return c, fmt.Errorf("parsing %s: period_ms must be positive", path)
	}
	return c, nil
}
