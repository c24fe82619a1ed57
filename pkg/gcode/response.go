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
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

var ErrMalformedTelemetry = errors.New("malformed temperature report")

var (
	ackToken          = []byte("OK")
	temperaturePrefix = []byte("T")
)

// LineKind is the classification of a line received from the printer.
type LineKind int

const (
	LineUnknown LineKind = iota
	LineAcknowledgment
	LineTemperature
)

func (k LineKind) String() string {
	switch k {
	case LineAcknowledgment:
		return "acknowledgment"
	case LineTemperature:
		return "temperature"
	default:
		return "unknown"
	}
}

// IsAcknowledgment reports whether the printer is ready for the next command.
// The comparison is case-sensitive and ignores surrounding whitespace.
func IsAcknowledgment(line []byte) bool {
	return bytes.Equal(bytes.TrimSpace(line), ackToken)
}

// IsTemperatureReport reports whether line is a telemetry line.
func IsTemperatureReport(line []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(line), temperaturePrefix)
}

// ClassifyLine sorts a printer line into one of the known kinds.
func ClassifyLine(line []byte) LineKind {
	switch {
	case IsAcknowledgment(line):
		return LineAcknowledgment
	case IsTemperatureReport(line):
		return LineTemperature
	default:
		return LineUnknown
	}
}

// ParseTemperatureReport returns the current temperature carried by a telemetry
// line such as "T 205".
func ParseTemperatureReport(line []byte) (int, error) {
	trimmed := bytes.TrimSpace(line)
	if !bytes.HasPrefix(trimmed, temperaturePrefix) {
		return 0, fmt.Errorf("%w: missing prefix in %q", ErrMalformedTelemetry, trimmed)
	}

	payload := bytes.TrimSpace(trimmed[len(temperaturePrefix):])
	temp, err := strconv.Atoi(string(payload))
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrMalformedTelemetry, trimmed, err)
	}

	return temp, nil
}
