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

// Package engine runs the acknowledgment driven protocol loop: the single
// worker that owns the serial channel and decides, for every OK the printer
// sends, which source may transmit the next line.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/LiBa001/moonprint/pkg/gcode"
	"github.com/LiBa001/moonprint/pkg/helpers/syncutil"
	"github.com/LiBa001/moonprint/pkg/notifications"
	"github.com/LiBa001/moonprint/pkg/printer/panel"
	"github.com/LiBa001/moonprint/pkg/printer/sources"
	"github.com/LiBa001/moonprint/pkg/serialport"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// StepLines is the number of lines in one logical manual step: a motion line
// and a temperature line.
const StepLines = 2

var (
	ErrNotConnected = errors.New("printer is not connected")
	ErrPrintActive  = errors.New("a print job is already active")
)

type Options struct {
	// TemperatureWidth is the field width of M104 values sent by the manual
	// and sync sources.
	TemperatureWidth int
}

// PrintJob is a file being streamed to the printer.
type PrintJob struct {
	source *sources.FileSource
	ID     string
}

func (j *PrintJob) params(err error) notifications.PrintParams {
	p := notifications.PrintParams{
		JobID: j.ID,
		File:  j.source.Name(),
		Sent:  j.source.Sent(),
		Total: j.source.Total(),
	}
	if err != nil {
		p.Error = err.Error()
	}
	return p
}

// Stats counts protocol traffic since the engine was created.
type Stats struct {
	Acknowledgments int64
	Writes          int64
}

// Engine owns the serial channel for its lifetime. Run must be called from
// exactly one goroutine; StartPrint and State may be called from any.
type Engine struct {
	channel       serialport.Channel
	panel         *panel.Panel
	stepper       *sources.Stepper
	notifications chan<- notifications.Notification
	job           *PrintJob
	acks          atomic.Int64
	writes        atomic.Int64
	submitted     int // worker only
	mu            syncutil.Mutex // protects job, terminal
	terminal      bool
}

func New(
	ch serialport.Channel,
	pnl *panel.Panel,
	ns chan<- notifications.Notification,
	opts Options,
) *Engine {
	return &Engine{
		channel:       ch,
		panel:         pnl,
		stepper:       sources.NewStepper(pnl, opts.TemperatureWidth),
		notifications: ns,
	}
}

// StartPrint hands the channel to a print job. The job starts sending on the
// next acknowledgment.
func (e *Engine) StartPrint(src *sources.FileSource) (*PrintJob, error) {
	if !e.channel.IsOpen() {
		return nil, ErrNotConnected
	}

	e.mu.Lock()
	if e.terminal {
		e.mu.Unlock()
		return nil, ErrNotConnected
	}
	if e.job != nil {
		e.mu.Unlock()
		return nil, ErrPrintActive
	}
	job := &PrintJob{
		ID:     uuid.New().String(),
		source: src,
	}
	e.job = job
	e.mu.Unlock()

	e.panel.SetPrinting(true)
	log.Info().Str("job", job.ID).Str("file", src.Name()).Int("lines", src.Total()).Msg("start printing")
	notifications.PrintingStarted(e.notifications, job.params(nil))

	return job, nil
}

// State reports what the engine would do with the next acknowledgment.
func (e *Engine) State() State {
	e.mu.Lock()
	terminal, printing := e.terminal, e.job != nil
	e.mu.Unlock()

	if terminal || !e.channel.IsOpen() {
		return StateTerminal
	}
	snap := e.panel.Snapshot()
	return stateFor(Arbitrate(printing, snap.Sync, snap.Submitting))
}

func (e *Engine) Stats() Stats {
	return Stats{
		Acknowledgments: e.acks.Load(),
		Writes:          e.writes.Load(),
	}
}

// Run reads from the channel until it is closed, which is also how a
// cancelled ctx stops the loop. A closed channel is a normal exit and returns
// nil.
func (e *Engine) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		if err := e.channel.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close channel on cancel")
		}
	})
	defer stop()
	defer e.terminate()

	for {
		line, err := e.channel.ReadLine()
		if err != nil {
			if errors.Is(err, serialport.ErrClosed) {
				log.Info().Msg("serial channel closed, stopping protocol loop")
				return nil
			}
			return fmt.Errorf("failed to read from printer: %w", err)
		}

		switch gcode.ClassifyLine(line) {
		case gcode.LineAcknowledgment:
			if err := e.acknowledge(); err != nil {
				return err
			}
		case gcode.LineTemperature:
			e.temperature(line)
		default:
			log.Warn().Msgf("received unrecognized message: %s", strings.TrimSpace(string(line)))
		}
	}
}

func (e *Engine) acknowledge() error {
	e.acks.Add(1)

	e.mu.Lock()
	job := e.job
	e.mu.Unlock()

	snap := e.panel.Snapshot()
	kind := Arbitrate(job != nil, snap.Sync, snap.Submitting)

	if kind == sources.KindPrint {
		line, ok := job.source.Next()
		if ok {
			log.Debug().Str("job", job.ID).Msgf("sending line: %s", strings.TrimSpace(line))
			if err := e.write(line); err != nil {
				return err
			}
			if job.source.Done() {
				e.finishJob(job, job.source.Err())
			}
			return nil
		}

		// nothing left to send, the job ends and this acknowledgment
		// goes to the manual controls
		e.finishJob(job, job.source.Err())
		kind = Arbitrate(false, snap.Sync, snap.Submitting)
	}

	var src sources.Source
	switch kind {
	case sources.KindSync:
		src = e.stepper.Sync()
	case sources.KindManual:
		src = e.stepper.Manual()
	default:
		return nil
	}

	e.panel.AdvanceExtruder()
	line, _ := src.Next()
	log.Debug().Str("source", src.Kind().String()).Msgf("sending line: %s", strings.TrimSpace(line))
	if err := e.write(line); err != nil {
		return err
	}

	if kind == sources.KindManual {
		e.submitted++
		if e.submitted >= StepLines {
			e.submitted = 0
			e.panel.FinishSubmission(StepLines)
		}
	}

	return nil
}

func (e *Engine) write(line string) error {
	if err := e.channel.Write([]byte(line)); err != nil {
		return fmt.Errorf("failed to write to printer: %w", err)
	}
	e.writes.Add(1)
	return nil
}

func (e *Engine) temperature(line []byte) {
	temp, err := gcode.ParseTemperatureReport(line)
	if err != nil {
		log.Warn().Err(err).Msg("ignoring temperature report")
		return
	}
	e.panel.SetCurrentTemperature(temp)
}

func (e *Engine) finishJob(job *PrintJob, err error) {
	e.mu.Lock()
	if e.job == job {
		e.job = nil
	}
	e.mu.Unlock()

	job.source.Close()
	e.panel.SetPrinting(false)
	if err != nil {
		log.Error().Err(err).Str("job", job.ID).Msg("print job ended early")
	} else {
		log.Info().Str("job", job.ID).Int("lines", job.source.Sent()).Msg("printing finished")
	}
	notifications.PrintingFinished(e.notifications, job.params(err))
}

func (e *Engine) terminate() {
	if err := e.channel.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close serial channel")
	}

	e.mu.Lock()
	e.terminal = true
	job := e.job
	e.mu.Unlock()

	if job != nil {
		e.finishJob(job, ErrNotConnected)
	}
}
