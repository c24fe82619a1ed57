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

package serialport_test

import (
	"errors"
	"testing"
	"time"

	"github.com/LiBa001/moonprint/pkg/serialport"
	"github.com/LiBa001/moonprint/pkg/serialport/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

func mockFactory(port *testutils.MockSerialPort, gotMode **serial.Mode) serialport.PortFactory {
	return func(_ string, mode *serial.Mode) (serialport.Port, error) {
		if gotMode != nil {
			*gotMode = mode
		}
		return port, nil
	}
}

func TestOpen_Defaults(t *testing.T) {
	t.Parallel()

	port := testutils.NewMockSerialPort()
	var mode *serial.Mode

	ch, err := serialport.Open(serialport.Options{
		Path:    "/dev/ttyUSB0",
		Factory: mockFactory(port, &mode),
	})
	require.NoError(t, err)

	assert.True(t, ch.IsOpen())
	assert.Equal(t, "/dev/ttyUSB0", ch.Path())
	require.NotNil(t, mode)
	assert.Equal(t, serialport.DefaultBaudRate, mode.BaudRate)
}

func TestOpen_NoPath(t *testing.T) {
	t.Parallel()

	_, err := serialport.Open(serialport.Options{})

	require.Error(t, err)
	assert.ErrorIs(t, err, serialport.ErrConnection)
}

func TestOpen_FactoryError(t *testing.T) {
	t.Parallel()

	openErr := errors.New("permission denied")
	_, err := serialport.Open(serialport.Options{
		Path: "/dev/ttyACM0",
		Factory: func(string, *serial.Mode) (serialport.Port, error) {
			return nil, openErr
		},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, serialport.ErrConnection)
	assert.ErrorIs(t, err, openErr)
}

func TestOpen_TimeoutErrorClosesPort(t *testing.T) {
	t.Parallel()

	port := testutils.NewMockSerialPort()
	port.TimeoutErr = errors.New("unsupported")

	_, err := serialport.Open(serialport.Options{
		Path:    "/dev/ttyACM0",
		Factory: mockFactory(port, nil),
	})

	require.ErrorIs(t, err, serialport.ErrConnection)
	assert.True(t, port.IsClosed())
}

func TestReadLine_SplitsFrames(t *testing.T) {
	t.Parallel()

	port := testutils.NewMockSerialPort()
	port.Feed("OK\nT 20")
	port.Feed("5\nOK\n")
	ch := serialport.NewChannel(port, "mock")

	for _, want := range []string{"OK\n", "T 205\n", "OK\n"} {
		line, err := ch.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, want, string(line))
	}
}

func TestReadLine_ClosedWhileWaiting(t *testing.T) {
	t.Parallel()

	port := testutils.NewMockSerialPort()
	ch := serialport.NewChannel(port, "mock")

	errCh := make(chan error, 1)
	go func() {
		_, err := ch.ReadLine()
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, ch.Close())

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, serialport.ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("ReadLine did not return after Close")
	}
	assert.True(t, port.IsClosed())
}

func TestReadLine_ReadErrorClosesChannel(t *testing.T) {
	t.Parallel()

	port := testutils.NewMockSerialPort()
	port.ReadError = errors.New("device unplugged")
	ch := serialport.NewChannel(port, "mock")

	_, err := ch.ReadLine()

	require.Error(t, err)
	assert.NotErrorIs(t, err, serialport.ErrClosed)
	assert.False(t, ch.IsOpen())
}

func TestWrite(t *testing.T) {
	t.Parallel()

	port := testutils.NewMockSerialPort()
	ch := serialport.NewChannel(port, "mock")

	require.NoError(t, ch.Write([]byte("M104 S0000200\n")))
	assert.Equal(t, "M104 S0000200\n", port.Written())

	require.NoError(t, ch.Close())
	assert.ErrorIs(t, ch.Write([]byte("G1   X0000001\n")), serialport.ErrClosed)
}

func TestClose_Idempotent(t *testing.T) {
	t.Parallel()

	port := testutils.NewMockSerialPort()
	ch := serialport.NewChannel(port, "mock")

	require.NoError(t, ch.Close())
	require.NoError(t, ch.Close())
	assert.False(t, ch.IsOpen())
}

func TestFakeChannel_EndOfInput(t *testing.T) {
	t.Parallel()

	ch := testutils.NewFakeChannel(4)
	ch.Feed("OK")
	ch.EndOfInput()

	line, err := ch.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "OK\n", string(line))

	_, err = ch.ReadLine()
	require.ErrorIs(t, err, serialport.ErrClosed)
	assert.False(t, ch.IsOpen())
}

var _ serialport.Channel = (*serialport.SerialChannel)(nil)

var _ serialport.Channel = (*testutils.FakeChannel)(nil)
