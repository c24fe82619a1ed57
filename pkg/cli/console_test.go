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

package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/LiBa001/moonprint/pkg/notifications"
	"github.com/LiBa001/moonprint/pkg/printer/engine"
	"github.com/LiBa001/moonprint/pkg/printer/panel"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSession struct {
	mock.Mock
	panel *panel.Panel
}

func newMockSession() *mockSession {
	return &mockSession{panel: panel.New(nil, clockwork.NewFakeClock(), panel.DefaultMultiplier)}
}

func (m *mockSession) Panel() *panel.Panel {
	return m.panel
}

func (m *mockSession) StartPrint(path string) (*engine.PrintJob, error) {
	args := m.Called(path)
	job, _ := args.Get(0).(*engine.PrintJob)
	return job, args.Error(1)
}

func (m *mockSession) State() engine.State {
	args := m.Called()
	state, _ := args.Get(0).(engine.State)
	return state
}

func TestExecute_Controls(t *testing.T) {
	t.Parallel()

	s := newMockSession()
	c := NewConsole(s, &bytes.Buffer{})

	for _, line := range []string{
		"x 12.5",
		"Y 3",
		"z 1000",
		"temp 210",
		"extrude insert",
		"multiplier 25",
		"sync on",
		"",
	} {
		quit, err := c.Execute(line)
		require.NoError(t, err, line)
		assert.False(t, quit)
	}

	snap := s.panel.Snapshot()
	assert.Equal(t, panel.Axes{X: 12.5, Y: 3, Z: 1000}, snap.Axes)
	assert.Equal(t, 210, snap.TargetTemp)
	assert.Equal(t, panel.ExtruderInsert, snap.Extruder.Mode)
	assert.Equal(t, 25, snap.Extruder.Multiplier)
	assert.True(t, snap.Sync)
}

func TestExecute_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		want error
		line string
	}{
		{line: "x", want: ErrUsage},
		{line: "x far", want: ErrUsage},
		{line: "x 1001", want: panel.ErrOutOfRange},
		{line: "temp 20.5", want: ErrUsage},
		{line: "temp 301", want: panel.ErrOutOfRange},
		{line: "multiplier 0", want: panel.ErrOutOfRange},
		{line: "sync maybe", want: ErrUsage},
		{line: "print", want: ErrUsage},
		{line: "jog", want: ErrUnknownCommand},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.line, func(t *testing.T) {
			t.Parallel()

			c := NewConsole(newMockSession(), &bytes.Buffer{})
			_, err := c.Execute(tt.line)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestExecute_SubmitRefusedWhileSyncing(t *testing.T) {
	t.Parallel()

	s := newMockSession()
	c := NewConsole(s, &bytes.Buffer{})

	_, err := c.Execute("submit")
	require.NoError(t, err)
	assert.True(t, s.panel.Snapshot().Submitting)

	s.panel.FinishSubmission(engine.StepLines)
	s.panel.SetSync(true)
	_, err = c.Execute("submit")
	require.ErrorIs(t, err, panel.ErrSyncActive)
}

func TestExecute_LockedWhilePrinting(t *testing.T) {
	t.Parallel()

	s := newMockSession()
	s.panel.SetPrinting(true)
	s.On("State").Return(engine.StatePrinting)
	out := &bytes.Buffer{}
	c := NewConsole(s, out)

	for _, line := range []string{"x 1", "temp 200", "extrude insert", "multiplier 5", "submit", "sync on"} {
		_, err := c.Execute(line)
		require.ErrorIs(t, err, ErrLocked, line)
	}

	_, err := c.Execute("status")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "state: printing")
}

func TestExecute_Print(t *testing.T) {
	t.Parallel()

	s := newMockSession()
	s.On("StartPrint", "cube.gcode").Return(&engine.PrintJob{ID: "job-1"}, nil).Once()
	s.On("StartPrint", "other.gcode").Return(nil, engine.ErrPrintActive).Once()
	out := &bytes.Buffer{}
	c := NewConsole(s, out)

	_, err := c.Execute("print cube.gcode")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "printing cube.gcode (job job-1)")

	_, err = c.Execute("print other.gcode")
	require.ErrorIs(t, err, engine.ErrPrintActive)

	s.AssertExpectations(t)
}

func TestRun_ReportsErrorsAndQuits(t *testing.T) {
	t.Parallel()

	s := newMockSession()
	out := &bytes.Buffer{}
	c := NewConsole(s, out)

	in := strings.NewReader("x 5\nbogus\nquit\nx 7\n")
	require.NoError(t, c.Run(in))

	assert.InDelta(t, 5.0, s.panel.Snapshot().Axes.X, 0, "commands after quit are not run")
	assert.Contains(t, out.String(), "error: unknown command: bogus")
}

func TestNotify(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	c := NewConsole(newMockSession(), out)

	ns := make(chan notifications.Notification, 8)
	notifications.PrintingStarted(ns, notifications.PrintParams{File: "cube.gcode", Total: 3})
	notifications.PrintingFinished(ns, notifications.PrintParams{File: "cube.gcode", Sent: 3, Total: 3})
	notifications.PrintingFinished(ns, notifications.PrintParams{
		File: "vase.gcode", Sent: 1, Total: 9, Error: "printer is not connected",
	})
	notifications.SubmissionDone(ns, notifications.SubmissionParams{Lines: 2})
	notifications.Temperature(ns, notifications.TemperatureParams{Current: 20})
	notifications.Disconnected(ns, notifications.ConnectionParams{Path: "/dev/ttyUSB0"})
	close(ns)

	c.Notify(ns)

	assert.Equal(t, "print started: cube.gcode (3 lines)\n"+
		"print finished: cube.gcode (3 lines)\n"+
		"print stopped: vase.gcode after 1/9 lines: printer is not connected\n"+
		"step sent\n"+
		"printer disconnected\n", out.String())
}
