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

package gcode

import (
	"strings"
)

const commentMarker = ";"

// modalAxes are the axes a modal Normalizer states on every motion line.
var modalAxes = []byte{'X', 'Y', 'Z', 'E'}

// Normalizer rewrites print file lines into the wire format. The zero value
// rewrites each G1 line from its own fields only.
//
// With Modal set, the last value seen for every parameter is carried into
// following G1 lines, and X, Y, Z and E start at zero, so each motion line
// restates the full position.
type Normalizer struct {
	last  map[byte]string
	Modal bool
}

// NormalizePrintLine normalizes a single line without modal state. It returns
// false when the line should not be sent.
func NormalizePrintLine(raw string) (string, bool) {
	var n Normalizer
	return n.Normalize(raw)
}

// Normalize strips comments and rewrites raw into a wire line. Feed rates are
// dropped from G1 lines, temperature commands are dropped because the operator
// owns the hot end target, and anything other than G1 and single axis G92 is
// skipped.
func (n *Normalizer) Normalize(raw string) (string, bool) {
	line := raw
	if i := strings.Index(line, commentMarker); i >= 0 {
		line = line[:i]
	}

	words := strings.Fields(line)
	if len(words) == 0 {
		return "", false
	}

	switch strings.ToUpper(words[0]) {
	case CmdMove:
		if len(words) < 2 {
			return "", false
		}
		fields := n.motionFields(words[1:])
		if len(fields) == 0 {
			return "", false
		}
		return FormatMotionLine(SortFields(fields)), true
	case CmdSetPosition:
		if len(words) != 2 || len(words[1]) == 0 {
			return "", false
		}
		return FormatPositionLine(upper(words[1][0]), words[1][1:]), true
	case CmdSetTemp, CmdSetTempWait:
		return "", false
	default:
		return "", false
	}
}

func (n *Normalizer) motionFields(words []string) []Field {
	values := make(map[byte]string, len(words)+len(modalAxes))

	if n.Modal {
		if n.last == nil {
			n.last = make(map[byte]string, len(modalAxes))
			for _, axis := range modalAxes {
				n.last[axis] = "0"
			}
		}
		for k, v := range n.last {
			values[k] = v
		}
	}

	for _, w := range words {
		values[upper(w[0])] = w[1:]
	}
	delete(values, 'F')

	if n.Modal {
		for k, v := range values {
			n.last[k] = v
		}
	}

	fields := make([]Field, 0, len(values))
	for k, v := range values {
		fields = append(fields, Field{Letter: k, Value: v})
	}
	return fields
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}
