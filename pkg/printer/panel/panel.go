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

// Package panel holds the operator controlled printer state: axis targets,
// extruder, hot end temperatures and the submission flags.
//
// The presentation layer writes it and the protocol worker reads it once per
// acknowledgment. The worker writes back the current temperature and clears
// the submitting flag.
//
// LOCKING RULES: mu protects every field. Notifications are sent after the
// lock is released.
package panel

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/LiBa001/moonprint/pkg/helpers/syncutil"
	"github.com/LiBa001/moonprint/pkg/notifications"
	"github.com/jonboulle/clockwork"
)

const (
	MinAxis           = 0
	MaxAxis           = 1000
	MinTemperature    = 0
	MaxTemperature    = 300
	MinMultiplier     = 1
	MaxMultiplier     = 1000
	DefaultMultiplier = 10
)

var (
	ErrOutOfRange  = errors.New("value out of range")
	ErrUnknownAxis = errors.New("unknown axis")
	ErrSyncActive  = errors.New("sync is enabled")
	ErrPrinting    = errors.New("a print job is active")
)

// ExtruderMode is the direction the extruder runs in while submitting.
type ExtruderMode int

const (
	ExtruderRetract ExtruderMode = -1
	ExtruderIdle    ExtruderMode = 0
	ExtruderInsert  ExtruderMode = 1
)

func (m ExtruderMode) String() string {
	switch m {
	case ExtruderRetract:
		return "retract"
	case ExtruderInsert:
		return "insert"
	default:
		return "idle"
	}
}

// ParseExtruderMode accepts the console names of the modes.
func ParseExtruderMode(s string) (ExtruderMode, error) {
	switch strings.ToLower(s) {
	case "retract", "remove":
		return ExtruderRetract, nil
	case "insert":
		return ExtruderInsert, nil
	case "idle", "stop":
		return ExtruderIdle, nil
	default:
		return ExtruderIdle, fmt.Errorf("unknown extruder mode: %s", s)
	}
}

type Axes struct {
	X float64
	Y float64
	Z float64
}

type Extruder struct {
	Mode       ExtruderMode
	Multiplier int
	Position   float64
}

// Snapshot is a consistent copy of the panel.
type Snapshot struct {
	TempUpdatedAt time.Time
	Axes          Axes
	Extruder      Extruder
	TargetTemp    int
	CurrentTemp   int
	Sync          bool
	Submitting    bool
	Printing      bool
}

type Panel struct {
	clock         clockwork.Clock
	notifications chan<- notifications.Notification
	state         Snapshot
	mu            syncutil.RWMutex
}

// New creates a panel with all axes at zero, the extruder idle and the given
// step multiplier. ns may be nil.
func New(ns chan<- notifications.Notification, clock clockwork.Clock, multiplier int) *Panel {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if multiplier < MinMultiplier || multiplier > MaxMultiplier {
		multiplier = DefaultMultiplier
	}
	return &Panel{
		clock:         clock,
		notifications: ns,
		state: Snapshot{
			Extruder: Extruder{Multiplier: multiplier},
		},
	}
}

func (p *Panel) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

func (p *Panel) SetAxis(axis string, value float64) error {
	if math.IsNaN(value) || value < MinAxis || value > MaxAxis {
		return fmt.Errorf("%w: %s=%g, must be between %d and %d", ErrOutOfRange, axis, value, MinAxis, MaxAxis)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch strings.ToLower(axis) {
	case "x":
		p.state.Axes.X = value
	case "y":
		p.state.Axes.Y = value
	case "z":
		p.state.Axes.Z = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownAxis, axis)
	}
	return nil
}

func (p *Panel) SetExtruderMode(mode ExtruderMode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.Extruder.Mode = mode
}

func (p *Panel) SetMultiplier(multiplier int) error {
	if multiplier < MinMultiplier || multiplier > MaxMultiplier {
		return fmt.Errorf("%w: multiplier %d", ErrOutOfRange, multiplier)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.Extruder.Multiplier = multiplier
	return nil
}

func (p *Panel) SetTargetTemperature(target int) error {
	if target < MinTemperature || target > MaxTemperature {
		return fmt.Errorf("%w: temperature %d", ErrOutOfRange, target)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.TargetTemp = target
	return nil
}

func (p *Panel) SetSync(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.Sync = enabled
}

// BeginSubmission starts a bounded manual submission of one step.
func (p *Panel) BeginSubmission() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.state.Printing:
		return ErrPrinting
	case p.state.Sync:
		return ErrSyncActive
	}
	p.state.Submitting = true
	return nil
}

// AdvanceExtruder moves the accumulated extruder position one step in the
// current mode and returns the new position. Only the protocol worker calls
// it.
func (p *Panel) AdvanceExtruder() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	e := &p.state.Extruder
	e.Position += float64(int(e.Mode) * e.Multiplier)
	return e.Position
}

// FinishSubmission clears the submitting flag once the worker has sent a
// whole step.
func (p *Panel) FinishSubmission(lines int) {
	p.mu.Lock()
	p.state.Submitting = false
	p.mu.Unlock()

	notifications.SubmissionDone(p.notifications, notifications.SubmissionParams{Lines: lines})
}

// SetCurrentTemperature stores the latest telemetry value.
func (p *Panel) SetCurrentTemperature(current int) {
	p.mu.Lock()
	p.state.CurrentTemp = current
	p.state.TempUpdatedAt = p.clock.Now()
	target := p.state.TargetTemp
	p.mu.Unlock()

	notifications.Temperature(p.notifications, notifications.TemperatureParams{
		Current: current,
		Target:  target,
	})
}

// SetPrinting records whether a print job owns the channel, so the
// presentation layer can lock out the manual controls.
func (p *Panel) SetPrinting(printing bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.Printing = printing
}
