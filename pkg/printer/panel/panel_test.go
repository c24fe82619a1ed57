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

package panel

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/LiBa001/moonprint/pkg/notifications"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	p := New(nil, nil, 0)
	snap := p.Snapshot()

	assert.Equal(t, DefaultMultiplier, snap.Extruder.Multiplier)
	assert.Equal(t, ExtruderIdle, snap.Extruder.Mode)
	assert.Equal(t, Axes{}, snap.Axes)
	assert.False(t, snap.Sync)
	assert.False(t, snap.Submitting)
}

func TestSetAxis(t *testing.T) {
	t.Parallel()

	p := New(nil, nil, DefaultMultiplier)

	require.NoError(t, p.SetAxis("x", 5))
	require.NoError(t, p.SetAxis("Y", 1000))
	require.NoError(t, p.SetAxis("z", 0.5))

	assert.Equal(t, Axes{X: 5, Y: 1000, Z: 0.5}, p.Snapshot().Axes)
}

func TestSetAxis_Invalid(t *testing.T) {
	t.Parallel()

	p := New(nil, nil, DefaultMultiplier)

	require.ErrorIs(t, p.SetAxis("x", -1), ErrOutOfRange)
	require.ErrorIs(t, p.SetAxis("x", 1000.5), ErrOutOfRange)
	require.ErrorIs(t, p.SetAxis("x", math.NaN()), ErrOutOfRange)
	require.ErrorIs(t, p.SetAxis("w", 1), ErrUnknownAxis)
	assert.Equal(t, Axes{}, p.Snapshot().Axes)
}

func TestSetTargetTemperature(t *testing.T) {
	t.Parallel()

	p := New(nil, nil, DefaultMultiplier)

	require.NoError(t, p.SetTargetTemperature(210))
	require.ErrorIs(t, p.SetTargetTemperature(301), ErrOutOfRange)
	assert.Equal(t, 210, p.Snapshot().TargetTemp)
}

func TestSetMultiplier(t *testing.T) {
	t.Parallel()

	p := New(nil, nil, DefaultMultiplier)

	require.NoError(t, p.SetMultiplier(1))
	require.ErrorIs(t, p.SetMultiplier(0), ErrOutOfRange)
	assert.Equal(t, 1, p.Snapshot().Extruder.Multiplier)
}

func TestAdvanceExtruder(t *testing.T) {
	t.Parallel()

	p := New(nil, nil, 10)

	assert.InDelta(t, 0.0, p.AdvanceExtruder(), 0, "idle extruder must not move")

	p.SetExtruderMode(ExtruderInsert)
	assert.InDelta(t, 10.0, p.AdvanceExtruder(), 0)
	assert.InDelta(t, 20.0, p.AdvanceExtruder(), 0)

	p.SetExtruderMode(ExtruderRetract)
	require.NoError(t, p.SetMultiplier(5))
	assert.InDelta(t, 15.0, p.AdvanceExtruder(), 0)
	assert.InDelta(t, 15.0, p.Snapshot().Extruder.Position, 0)
}

func TestBeginSubmission(t *testing.T) {
	t.Parallel()

	p := New(nil, nil, DefaultMultiplier)

	require.NoError(t, p.BeginSubmission())
	assert.True(t, p.Snapshot().Submitting)

	p.FinishSubmission(2)
	assert.False(t, p.Snapshot().Submitting)
}

func TestBeginSubmission_Refused(t *testing.T) {
	t.Parallel()

	p := New(nil, nil, DefaultMultiplier)

	p.SetSync(true)
	require.ErrorIs(t, p.BeginSubmission(), ErrSyncActive)

	p.SetSync(false)
	p.SetPrinting(true)
	require.ErrorIs(t, p.BeginSubmission(), ErrPrinting)

	assert.False(t, p.Snapshot().Submitting)
}

func TestSetCurrentTemperature(t *testing.T) {
	t.Parallel()

	ns := make(chan notifications.Notification, 1)
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	p := New(ns, clock, DefaultMultiplier)
	require.NoError(t, p.SetTargetTemperature(200))

	p.SetCurrentTemperature(187)

	snap := p.Snapshot()
	assert.Equal(t, 187, snap.CurrentTemp)
	assert.Equal(t, clock.Now(), snap.TempUpdatedAt)

	n := <-ns
	assert.Equal(t, notifications.TemperatureUpdated, n.Method)
	var params notifications.TemperatureParams
	require.NoError(t, json.Unmarshal(n.Params, &params))
	assert.Equal(t, notifications.TemperatureParams{Current: 187, Target: 200}, params)
}

func TestParseExtruderMode(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]ExtruderMode{
		"insert":  ExtruderInsert,
		"Retract": ExtruderRetract,
		"remove":  ExtruderRetract,
		"stop":    ExtruderIdle,
		"idle":    ExtruderIdle,
	} {
		got, err := ParseExtruderMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseExtruderMode("sideways")
	require.Error(t, err)
}
