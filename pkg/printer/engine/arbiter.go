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

package engine

import (
	"github.com/LiBa001/moonprint/pkg/printer/sources"
)

// Arbitrate picks the source allowed to send on an acknowledgment. An active
// print job owns the channel exclusively. Otherwise sync wins over a bounded
// manual submission when both are set. KindNone means the acknowledgment is
// consumed without sending anything.
func Arbitrate(printing, sync, submitting bool) sources.Kind {
	switch {
	case printing:
		return sources.KindPrint
	case sync:
		return sources.KindSync
	case submitting:
		return sources.KindManual
	default:
		return sources.KindNone
	}
}

// State is the engine state as seen by the presentation layer.
type State int

const (
	StateIdle State = iota
	StateManualSubmitting
	StateSyncing
	StatePrinting
	StateTerminal
)

func (s State) String() string {
	switch s {
	case StateManualSubmitting:
		return "submitting"
	case StateSyncing:
		return "syncing"
	case StatePrinting:
		return "printing"
	case StateTerminal:
		return "terminal"
	default:
		return "idle"
	}
}

func stateFor(kind sources.Kind) State {
	switch kind {
	case sources.KindPrint:
		return StatePrinting
	case sources.KindSync:
		return StateSyncing
	case sources.KindManual:
		return StateManualSubmitting
	default:
		return StateIdle
	}
}
