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

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/LiBa001/moonprint/pkg/cli"
	"github.com/LiBa001/moonprint/pkg/config"
	"github.com/LiBa001/moonprint/pkg/helpers"
	"github.com/LiBa001/moonprint/pkg/service"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() (err error) {
	flags := cli.SetupFlags(flag.CommandLine)
	flag.Parse()

	exit, err := flags.Pre(os.Stdout, nil)
	if exit || err != nil {
		return err
	}

	dirs, err := helpers.DefaultDirs()
	if err != nil {
		return err
	}
	if _, ok := helpers.HasUserDir(); ok {
		_, _ = fmt.Fprintf(os.Stderr, "using 'user' directory for storage: %s\n", dirs.Config)
	}

	var logWriters []io.Writer
	if *flags.Daemon {
		logWriters = []io.Writer{os.Stderr}
	}

	cfg, err := cli.Setup(dirs, config.BaseDefaults, logWriters)
	if err != nil {
		return err
	}
	flags.Post(cfg)

	defer func() {
		if r := recover(); r != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Panic: %s\n", r)
			log.Fatal().Msgf("panic: %v", r)
		}
	}()

	svc, err := service.Start(cfg, service.Options{})
	if err != nil {
		log.Error().Msgf("error starting service: %s", err)
		return fmt.Errorf("error starting service: %w", err)
	}
	defer func() {
		stopErr := svc.Stop()
		if stopErr != nil {
			log.Error().Msgf("error stopping service: %s", stopErr)
			if err == nil {
				err = stopErr
			}
		}
	}()

	if *flags.Print != "" {
		job, printErr := svc.StartPrint(*flags.Print)
		if printErr != nil {
			return printErr
		}
		log.Info().Str("job", job.ID).Msgf("printing %s", *flags.Print)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	consoleDone := make(chan struct{})

	if *flags.Daemon {
		log.Info().Msg("started in daemon mode")
	} else {
		console := cli.NewConsole(svc, os.Stdout)
		events, _ := svc.Subscribe(100)
		go console.Notify(events)

		_, _ = fmt.Printf("connected to %s, type help for commands\n", svc.Path())
		go func() {
			defer close(consoleDone)
			if runErr := console.Run(os.Stdin); runErr != nil {
				log.Error().Err(runErr).Msg("console stopped")
			}
		}()
	}

	select {
	case <-sigs:
		log.Info().Msg("interrupted, disconnecting")
	case <-consoleDone:
	case <-svc.Done():
	}

	return nil
}
