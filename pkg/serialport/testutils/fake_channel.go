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

package testutils

import (
	"sync"

	"github.com/LiBa001/moonprint/pkg/helpers/syncutil"
	"github.com/LiBa001/moonprint/pkg/serialport"
)

// FakeChannel is a serialport.Channel driven by a test script. Lines passed to
// Feed are returned by ReadLine in order; EndOfInput makes ReadLine report
// the channel closed once they are consumed.
type FakeChannel struct {
	writeErr error
	lines    chan []byte
	done     chan struct{}
	writes   []string
	reads    int
	mu       syncutil.Mutex // protects writes, reads, writeErr
	doneOnce sync.Once
	endOnce  sync.Once
}

// NewFakeChannel creates an open channel with room for buffer queued lines.
func NewFakeChannel(buffer int) *FakeChannel {
	return &FakeChannel{
		lines: make(chan []byte, buffer),
		done:  make(chan struct{}),
	}
}

// Feed queues printer responses. It blocks if the buffer is full.
func (f *FakeChannel) Feed(lines ...string) {
	for _, l := range lines {
		f.lines <- []byte(l + "\n")
	}
}

// EndOfInput closes the channel after all queued lines have been read.
func (f *FakeChannel) EndOfInput() {
	f.endOnce.Do(func() { close(f.lines) })
}

// FailWrites makes every following Write return err.
func (f *FakeChannel) FailWrites(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writeErr = err
}

func (f *FakeChannel) ReadLine() ([]byte, error) {
	select {
	case <-f.done:
		return nil, serialport.ErrClosed
	default:
	}

	select {
	case <-f.done:
		return nil, serialport.ErrClosed
	case line, ok := <-f.lines:
		if !ok {
			f.markClosed()
			return nil, serialport.ErrClosed
		}
		f.mu.Lock()
		f.reads++
		f.mu.Unlock()
		return line, nil
	}
}

func (f *FakeChannel) Write(line []byte) error {
	if !f.IsOpen() {
		return serialport.ErrClosed
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, string(line))
	return nil
}

func (f *FakeChannel) Close() error {
	f.markClosed()
	return nil
}

func (f *FakeChannel) IsOpen() bool {
	select {
	case <-f.done:
		return false
	default:
		return true
	}
}

// Writes returns a copy of every line written so far.
func (f *FakeChannel) Writes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.writes))
	copy(out, f.writes)
	return out
}

// Reads returns the number of lines handed to the reader.
func (f *FakeChannel) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

func (f *FakeChannel) markClosed() {
	f.doneOnce.Do(func() { close(f.done) })
}
