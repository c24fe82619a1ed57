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

package sources

import (
	"bufio"
	"fmt"
	"io"

	"github.com/LiBa001/moonprint/pkg/gcode"
	"github.com/rs/zerolog/log"
)

const maxLineLength = 1024 * 1024

// FileSource releases the normalized lines of a print file one at a time. It
// reads one line ahead so Done reports exhaustion as soon as the last line has
// been handed out.
type FileSource struct {
	err        error
	closer     io.Closer
	scanner    *bufio.Scanner
	name       string
	next       string
	normalizer gcode.Normalizer
	sent       int
	total      int
	hasNext    bool
}

// NewFileSource wraps r. total is the expected number of normalized lines, or
// 0 if unknown. If r is an io.Closer it is closed once the file is exhausted
// or Close is called.
func NewFileSource(name string, r io.Reader, modal bool, total int) *FileSource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	f := &FileSource{
		scanner:    scanner,
		name:       name,
		normalizer: gcode.Normalizer{Modal: modal},
		total:      total,
	}
	if c, ok := r.(io.Closer); ok {
		f.closer = c
	}
	f.advance()
	return f
}

func (f *FileSource) advance() {
	for f.scanner.Scan() {
		if line, ok := f.normalizer.Normalize(f.scanner.Text()); ok {
			f.next = line
			f.hasNext = true
			return
		}
	}

	f.next = ""
	f.hasNext = false
	if err := f.scanner.Err(); err != nil {
		f.err = fmt.Errorf("failed to read print file %s: %w", f.name, err)
	}
	f.Close()
}

// Close releases the underlying reader. It is safe to call more than once.
func (f *FileSource) Close() {
	if f.closer == nil {
		return
	}
	if err := f.closer.Close(); err != nil {
		log.Warn().Err(err).Str("file", f.name).Msg("failed to close print file")
	}
	f.closer = nil
}

func (f *FileSource) Next() (string, bool) {
	if !f.hasNext {
		return "", false
	}
	line := f.next
	f.sent++
	f.advance()
	return line, true
}

func (*FileSource) Kind() Kind {
	return KindPrint
}

// Done reports whether every line has been released.
func (f *FileSource) Done() bool {
	return !f.hasNext
}

// Err returns the read error that ended the file early, if any.
func (f *FileSource) Err() error {
	return f.err
}

func (f *FileSource) Name() string {
	return f.name
}

func (f *FileSource) Sent() int {
	return f.sent
}

func (f *FileSource) Total() int {
	return f.total
}

// CountPrintLines returns how many lines of r would be sent to the printer.
func CountPrintLines(r io.Reader, modal bool) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	n := gcode.Normalizer{Modal: modal}
	count := 0
	for scanner.Scan() {
		if _, ok := n.Normalize(scanner.Text()); ok {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("failed to count print file lines: %w", err)
	}
	return count, nil
}
