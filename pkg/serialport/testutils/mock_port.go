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

// Package testutils provides serial test doubles: a byte level mock port and a
// scripted line channel standing in for a printer.
package testutils

import (
	"bytes"
	"errors"
	"time"

	"github.com/LiBa001/moonprint/pkg/helpers/syncutil"
)

// MockSerialPort is a mock implementation of serialport.Port.
type MockSerialPort struct {
	ReadError  error
	WriteError error
	CloseError error
	TimeoutErr error
	ReadFunc   func(p []byte) (n int, err error)
	ReadData   []byte
	written    bytes.Buffer
	ReadIndex  int
	Closed     bool
	mu         syncutil.RWMutex // protects all fields once the port is in use
}

// NewMockSerialPort creates a new mock serial port for testing.
func NewMockSerialPort() *MockSerialPort {
	return &MockSerialPort{}
}

// Read returns ReadData in order, then behaves like a driver timeout
// (0, nil) once the data runs out.
func (m *MockSerialPort) Read(p []byte) (n int, err error) {
	m.mu.Lock()
	closed := m.Closed
	readFunc := m.ReadFunc
	readErr := m.ReadError
	m.mu.Unlock()

	if closed {
		return 0, errors.New("port closed")
	}
	if readFunc != nil {
		return readFunc(p)
	}
	if readErr != nil {
		return 0, readErr
	}

	m.mu.Lock()
	if m.ReadIndex >= len(m.ReadData) {
		m.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		return 0, nil
	}
	n = copy(p, m.ReadData[m.ReadIndex:])
	m.ReadIndex += n
	m.mu.Unlock()
	return n, nil
}

// Write records p so tests can inspect what was sent.
func (m *MockSerialPort) Write(p []byte) (n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Closed {
		return 0, errors.New("port closed")
	}
	if m.WriteError != nil {
		return 0, m.WriteError
	}
	return m.written.Write(p)
}

// Feed appends data for later reads.
func (m *MockSerialPort) Feed(data string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadData = append(m.ReadData, data...)
}

// Written returns everything written so far.
func (m *MockSerialPort) Written() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.written.String()
}

func (m *MockSerialPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return m.CloseError
}

func (m *MockSerialPort) SetReadTimeout(_ time.Duration) error {
	return m.TimeoutErr
}

// IsClosed returns true if the port has been closed (thread-safe).
func (m *MockSerialPort) IsClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Closed
}
