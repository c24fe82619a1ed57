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

// Package sources implements the producers of wire lines the protocol engine
// sends on each acknowledgment: the manual jog controls, continuous sync and
// print files.
package sources

import (
	"github.com/LiBa001/moonprint/pkg/gcode"
	"github.com/LiBa001/moonprint/pkg/printer/panel"
)

type Kind int

const (
	KindNone Kind = iota
	KindManual
	KindSync
	KindPrint
)

func (k Kind) String() string {
	switch k {
	case KindManual:
		return "manual"
	case KindSync:
		return "sync"
	case KindPrint:
		return "print"
	default:
		return "none"
	}
}

// Source produces the next wire line on demand. ok is false once the source
// is exhausted.
type Source interface {
	Next() (line string, ok bool)
	Kind() Kind
}

// ControlReader gives read access to the live control panel.
type ControlReader interface {
	Snapshot() panel.Snapshot
}

type stepPhase int

const (
	phaseMotion stepPhase = iota
	phaseTemperature
)

// Stepper generates one logical step from the control panel at a time: a
// motion line for all axes plus extrusion, then a temperature line. It never
// runs out and always reflects the control values at the time of the call.
//
// The manual and sync sources share one Stepper so the alternation holds
// across switches between them. It is used by the protocol worker only and
// is not safe for concurrent use.
type Stepper struct {
	controls  ControlReader
	tempWidth int
	phase     stepPhase
}

func NewStepper(controls ControlReader, tempWidth int) *Stepper {
	if tempWidth <= 0 {
		tempWidth = gcode.DefaultWidth
	}
	return &Stepper{
		controls:  controls,
		tempWidth: tempWidth,
	}
}

// Next returns the next line of the current step.
func (s *Stepper) Next() string {
	snap := s.controls.Snapshot()

	if s.phase == phaseTemperature {
		s.phase = phaseMotion
		return gcode.FormatTemperatureLine(snap.TargetTemp, s.tempWidth)
	}

	s.phase = phaseTemperature
	return gcode.FormatMotionLine([]gcode.Field{
		gcode.FloatField('X', snap.Axes.X),
		gcode.FloatField('Y', snap.Axes.Y),
		gcode.FloatField('Z', snap.Axes.Z),
		gcode.FloatField('E', snap.Extruder.Position),
	})
}

// Manual returns the manual jog source.
func (s *Stepper) Manual() Source {
	return stepSource{stepper: s, kind: KindManual}
}

// Sync returns the continuous sync source.
func (s *Stepper) Sync() Source {
	return stepSource{stepper: s, kind: KindSync}
}

type stepSource struct {
	stepper *Stepper
	kind    Kind
}

func (s stepSource) Next() (string, bool) {
	return s.stepper.Next(), true
}

func (s stepSource) Kind() Kind {
	return s.kind
}
