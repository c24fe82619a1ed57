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

// Package gcode implements the fixed-width G-code wire format spoken to the
// printer: numeric field encoding, command line formatting, classification of
// printer responses and normalization of print file lines.
package gcode

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// DefaultWidth is the number of characters a numeric field is padded or
// truncated to on the wire.
const DefaultWidth = 7

const (
	CmdMove        = "G1"
	CmdSetPosition = "G92"
	CmdSetTemp     = "M104"
	CmdSetTempWait = "M109"
)

// commandColumn is the column where the first field of a command starts.
const commandColumn = 5

// Field is a single parameter of a command, e.g. X10. Value is kept in its
// textual form so print file values reach the wire exactly as written.
type Field struct {
	Value  string
	Letter byte
}

func (f Field) String() string {
	return string(f.Letter) + FormatField(f.Value, DefaultWidth)
}

// FormatField pads value with leading zeros to width, or keeps only its first
// width characters when it is longer. A minus sign anywhere in the result is
// moved to the front, so the sign survives truncation and the result is never
// longer than width+1.
func FormatField(value string, width int) string {
	if n := len(value); n < width {
		value = strings.Repeat("0", width-n) + value
	} else if n > width {
		value = value[:width]
	}

	if strings.Contains(value, "-") {
		value = "-" + strings.ReplaceAll(value, "-", "")
	}

	return value
}

// FormatInt formats an integer field.
func FormatInt(value, width int) string {
	return FormatField(strconv.Itoa(value), width)
}

// FormatFloat formats a real field using the shortest decimal form that
// round-trips, so whole numbers render without a fraction (5, not 5.0).
func FormatFloat(value float64, width int) string {
	return FormatField(strconv.FormatFloat(value, 'f', -1, 64), width)
}

// FloatField builds a field from a real value.
func FloatField(letter byte, value float64) Field {
	return Field{
		Letter: letter,
		Value:  strconv.FormatFloat(value, 'f', -1, 64),
	}
}

func command(name string) string {
	return fmt.Sprintf("%-*s", commandColumn, name)
}

// SortFields returns the fields ordered by letter, except that an E field is
// always placed last.
func SortFields(fields []Field) []Field {
	sorted := make([]Field, len(fields))
	copy(sorted, fields)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Letter, sorted[j].Letter
		switch {
		case a == 'E' && b != 'E':
			return false
		case b == 'E' && a != 'E':
			return true
		default:
			return a < b
		}
	})

	return sorted
}

// FormatMotionLine renders a G1 line with fields in the given order.
func FormatMotionLine(fields []Field) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.String())
	}
	return command(CmdMove) + strings.Join(parts, " ") + "\n"
}

// FormatTemperatureLine renders an M104 line setting the hot end target.
func FormatTemperatureLine(target, width int) string {
	return command(CmdSetTemp) + "S" + FormatInt(target, width) + "\n"
}

// FormatPositionLine renders a single axis G92 line.
func FormatPositionLine(axis byte, value string) string {
	return command(CmdSetPosition) + Field{Letter: axis, Value: value}.String() + "\n"
}
