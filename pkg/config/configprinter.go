// MoonPrint
// Copyright (c) 2026 The MoonPrint Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of MoonPrint.
//
// MoonPrint is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// MoonPrint is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with MoonPrint.  If not, see <http://www.gnu.org/licenses/>.

package config

import "time"

const (
	DefaultBaudRate         = 115200
	DefaultReadTimeoutMs    = 100
	DefaultMultiplier       = 10
	DefaultTemperatureWidth = 7
)

type Serial struct {
	Port          string `toml:"port,omitempty"`
	BaudRate      int    `toml:"baud_rate"`
	ReadTimeoutMs int    `toml:"read_timeout_ms,omitempty"`
}

type Extruder struct {
	Multiplier int `toml:"multiplier"`
}

type Wire struct {
	TemperatureWidth int `toml:"temperature_width,omitempty"`
}

type Print struct {
	ModalAxes bool `toml:"modal_axes"`
}

func (c *Instance) SerialPort() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Serial.Port
}

func (c *Instance) SetSerialPort(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Serial.Port = path
}

func (c *Instance) BaudRate() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Serial.BaudRate <= 0 {
		return DefaultBaudRate
	}
	return c.vals.Serial.BaudRate
}

func (c *Instance) SetBaudRate(baud int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Serial.BaudRate = baud
}

// ReadTimeout bounds how long a single serial read blocks, which is how
// quickly a closed port is noticed.
func (c *Instance) ReadTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ms := c.vals.Serial.ReadTimeoutMs
	if ms <= 0 {
		ms = DefaultReadTimeoutMs
	}
	return time.Duration(ms) * time.Millisecond
}

// ExtruderMultiplier is the initial extrusion distance per acknowledgment.
// Out of range values fall back to the default.
func (c *Instance) ExtruderMultiplier() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m := c.vals.Extruder.Multiplier
	if m < 1 || m > 1000 {
		return DefaultMultiplier
	}
	return m
}

func (c *Instance) TemperatureWidth() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Wire.TemperatureWidth <= 0 {
		return DefaultTemperatureWidth
	}
	return c.vals.Wire.TemperatureWidth
}

// ModalAxes reports whether print file motion lines carry forward the last
// seen value of every axis.
func (c *Instance) ModalAxes() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Print.ModalAxes
}
