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

// Package service wires the serial channel, control panel, protocol engine
// and notification broker into one running printer session.
package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/LiBa001/moonprint/pkg/config"
	"github.com/LiBa001/moonprint/pkg/notifications"
	"github.com/LiBa001/moonprint/pkg/printer/engine"
	"github.com/LiBa001/moonprint/pkg/printer/panel"
	"github.com/LiBa001/moonprint/pkg/printer/sources"
	"github.com/LiBa001/moonprint/pkg/serialport"
	"github.com/LiBa001/moonprint/pkg/service/broker"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

const notificationBuffer = 100

var ErrNoPort = errors.New("no serial port configured")

type Options struct {
	// Factory opens the serial port. Defaults to the real serial driver.
	Factory serialport.PortFactory
	// Fs is where print files are read from. Defaults to the OS filesystem.
	Fs    afero.Fs
	Clock clockwork.Clock
}

type Service struct {
	cfg          *config.Instance
	fs           afero.Fs
	channel      *serialport.SerialChannel
	panel        *panel.Panel
	engine       *engine.Engine
	broker       *broker.Broker
	ns           chan notifications.Notification
	cancel       context.CancelFunc
	cancelBroker context.CancelFunc
	done         chan struct{}
	err          error
}

// Start connects to the configured printer and starts the protocol loop. The
// session ends when Stop is called or the printer disconnects.
func Start(cfg *config.Instance, opts Options) (*Service, error) {
	log.Info().Msgf("version: %s", config.AppVersion)
	log.Info().Msgf("device id: %s", cfg.DeviceID())

	path := cfg.SerialPort()
	if path == "" {
		return nil, ErrNoPort
	}

	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	log.Info().Str("port", path).Int("baud", cfg.BaudRate()).Msg("connecting to printer")
	ch, err := serialport.Open(serialport.Options{
		Factory:     opts.Factory,
		Path:        path,
		BaudRate:    cfg.BaudRate(),
		ReadTimeout: cfg.ReadTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to printer: %w", err)
	}

	ns := make(chan notifications.Notification, notificationBuffer)
	pnl := panel.New(ns, opts.Clock, cfg.ExtruderMultiplier())

	ctx, cancel := context.WithCancel(context.Background())
	brokerCtx, cancelBroker := context.WithCancel(context.Background())

	s := &Service{
		cfg:     cfg,
		fs:      opts.Fs,
		channel: ch,
		panel:   pnl,
		engine: engine.New(ch, pnl, ns, engine.Options{
			TemperatureWidth: cfg.TemperatureWidth(),
		}),
		broker:       broker.NewBroker(brokerCtx, ns),
		ns:           ns,
		cancel:       cancel,
		cancelBroker: cancelBroker,
		done:         make(chan struct{}),
	}

	logNotifications, _ := s.broker.Subscribe(notificationBuffer)
	s.broker.Start()

	notifications.Connected(ns, notifications.ConnectionParams{Path: path})

	var g errgroup.Group
	g.Go(func() error {
		defer s.cancelBroker()
		err := s.engine.Run(ctx)
		notifications.Disconnected(ns, notifications.ConnectionParams{Path: path})
		if err != nil {
			log.Error().Err(err).Msg("protocol loop stopped")
		}
		return err
	})
	g.Go(func() error {
		for n := range logNotifications {
			event := log.Debug().Str("method", n.Method)
			if len(n.Params) > 0 {
				event = event.RawJSON("params", n.Params)
			}
			event.Msg("notification")
		}
		return nil
	})

	go func() {
		s.err = g.Wait()
		<-s.broker.Done()
		cancel()
		log.Info().Msg("printer session ended")
		close(s.done)
	}()

	return s, nil
}

func (s *Service) Panel() *panel.Panel {
	return s.panel
}

func (s *Service) Engine() *engine.Engine {
	return s.engine
}

// State reports what the protocol loop will do on the next acknowledgment.
func (s *Service) State() engine.State {
	return s.engine.State()
}

// Path is the serial device the session is connected to.
func (s *Service) Path() string {
	return s.channel.Path()
}

// Subscribe returns a channel of session notifications. It is closed when the
// session ends.
func (s *Service) Subscribe(buffer int) (<-chan notifications.Notification, int) {
	return s.broker.Subscribe(buffer)
}

func (s *Service) Unsubscribe(id int) {
	s.broker.Unsubscribe(id)
}

// StartPrint opens a print file and hands the channel to it. File errors are
// returned before the job starts.
func (s *Service) StartPrint(path string) (*engine.PrintJob, error) {
	modal := s.cfg.ModalAxes()

	counted, err := s.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open print file: %w", err)
	}
	total, err := sources.CountPrintLines(counted, modal)
	if closeErr := counted.Close(); closeErr != nil {
		log.Warn().Err(closeErr).Msg("failed to close print file")
	}
	if err != nil {
		return nil, err
	}

	f, err := s.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open print file: %w", err)
	}

	src := sources.NewFileSource(filepath.Base(path), f, modal, total)
	job, err := s.engine.StartPrint(src)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("failed to start print: %w", err)
	}
	return job, nil
}

// Done is closed once the session has fully shut down.
func (s *Service) Done() <-chan struct{} {
	return s.done
}

// Stop disconnects from the printer and waits for shutdown. It returns the
// error that ended the protocol loop, if any.
func (s *Service) Stop() error {
	s.cancel()
	<-s.done
	return s.err
}
