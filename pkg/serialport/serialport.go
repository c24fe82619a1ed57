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

// Package serialport provides the line-buffered serial channel the protocol
// engine talks to the printer through.
package serialport

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/LiBa001/moonprint/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

const (
	DefaultBaudRate    = 115200
	DefaultReadTimeout = 100 * time.Millisecond
	readChunkSize      = 256
)

var (
	ErrConnection = errors.New("failed to connect to printer")
	ErrClosed     = errors.New("serial channel closed")
)

// Channel is a half-duplex, line oriented link to the printer. ReadLine blocks
// until a newline terminated frame arrives or the channel is closed, in which
// case it returns ErrClosed.
type Channel interface {
	ReadLine() ([]byte, error)
	Write(line []byte) error
	Close() error
	IsOpen() bool
}

// Port defines the serial port operations used by SerialChannel (for mocking
// in tests).
type Port interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error
	SetReadTimeout(t time.Duration) error
}

// PortFactory opens a serial port.
type PortFactory func(path string, mode *serial.Mode) (Port, error)

// DefaultPortFactory opens real serial ports.
func DefaultPortFactory(path string, mode *serial.Mode) (Port, error) {
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	return port, nil
}

// Options configures Open. Zero values fall back to the defaults.
type Options struct {
	Factory     PortFactory
	Path        string
	BaudRate    int
	ReadTimeout time.Duration
}

// SerialChannel implements Channel on top of a serial port.
//
// The port is given a short read timeout. It bounds how long a closed
// channel keeps ReadLine blocked and is not a protocol timeout: ReadLine keeps
// waiting for as long as the channel stays open.
type SerialChannel struct {
	port    Port
	path    string
	pending []byte
	chunk   []byte
	mu      syncutil.Mutex // protects open
	open    bool
}

// Open connects to the serial device described by opts. Failures wrap
// ErrConnection.
func Open(opts Options) (*SerialChannel, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("%w: no serial port configured", ErrConnection)
	}
	if opts.BaudRate <= 0 {
		opts.BaudRate = DefaultBaudRate
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	if opts.Factory == nil {
		opts.Factory = DefaultPortFactory
	}

	port, err := opts.Factory(opts.Path, &serial.Mode{
		BaudRate: opts.BaudRate,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConnection, opts.Path, err)
	}

	err = port.SetReadTimeout(opts.ReadTimeout)
	if err != nil {
		if closeErr := port.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close serial port after setup error")
		}
		return nil, fmt.Errorf("%w: failed to set read timeout: %w", ErrConnection, err)
	}

	log.Info().Str("path", opts.Path).Int("baud", opts.BaudRate).Msg("connected to serial port")

	return NewChannel(port, opts.Path), nil
}

// NewChannel wraps an already open port.
func NewChannel(port Port, path string) *SerialChannel {
	return &SerialChannel{
		port:  port,
		path:  path,
		chunk: make([]byte, readChunkSize),
		open:  true,
	}
}

// Path returns the device path the channel was opened on.
func (c *SerialChannel) Path() string {
	return c.path
}

func (c *SerialChannel) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// ReadLine returns the next line including its terminating newline. It must
// only be called from a single goroutine.
func (c *SerialChannel) ReadLine() ([]byte, error) {
	for {
		if !c.IsOpen() {
			return nil, ErrClosed
		}

		if i := bytes.IndexByte(c.pending, '\n'); i >= 0 {
			line := make([]byte, i+1)
			copy(line, c.pending[:i+1])
			c.pending = c.pending[i+1:]
			return line, nil
		}

		n, err := c.port.Read(c.chunk)
		if err != nil {
			if !c.IsOpen() {
				return nil, ErrClosed
			}
			if closeErr := c.Close(); closeErr != nil {
				log.Warn().Err(closeErr).Msg("failed to close serial port after read error")
			}
			return nil, fmt.Errorf("failed to read from serial port: %w", err)
		}

		// n == 0 is a driver timeout, go round again and recheck open
		c.pending = append(c.pending, c.chunk[:n]...)
	}
}

func (c *SerialChannel) Write(line []byte) error {
	if !c.IsOpen() {
		return ErrClosed
	}

	for len(line) > 0 {
		n, err := c.port.Write(line)
		if err != nil {
			return fmt.Errorf("failed to write to serial port: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("failed to write to serial port: %w", io.ErrShortWrite)
		}
		line = line[n:]
	}

	return nil
}

// Close closes the port. It is safe to call more than once and from any
// goroutine; a blocked ReadLine returns ErrClosed shortly after.
func (c *SerialChannel) Close() error {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return nil
	}
	c.open = false
	c.mu.Unlock()

	err := c.port.Close()
	if err != nil {
		return fmt.Errorf("failed to close serial port: %w", err)
	}
	log.Info().Str("path", c.path).Msg("disconnected from serial port")
	return nil
}

// ListPorts returns the serial devices present on the system that look like
// USB serial adapters, which is how printer boards show up.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to get serial ports list: %w", err)
	}
	return filterPorts(runtime.GOOS, ports), nil
}

func filterPorts(goos string, ports []string) []string {
	var prefixes []string
	switch goos {
	case "linux":
		prefixes = []string{"/dev/ttyUSB", "/dev/ttyACM"}
	case "darwin":
		prefixes = []string{"/dev/tty.usbserial", "/dev/tty.usbmodem", "/dev/cu.usbserial", "/dev/cu.usbmodem"}
	case "windows":
		prefixes = []string{"COM"}
	default:
		return ports
	}

	devices := make([]string, 0, len(ports))
	for _, p := range ports {
		for _, prefix := range prefixes {
			if strings.HasPrefix(p, prefix) {
				devices = append(devices, p)
				break
			}
		}
	}
	return devices
}
