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

package cli

import (
	"flag"
	"fmt"
	"io"

	"github.com/LiBa001/moonprint/pkg/config"
	"github.com/LiBa001/moonprint/pkg/helpers"
	"github.com/LiBa001/moonprint/pkg/serialport"
	"github.com/rs/zerolog"
)

type Flags struct {
	Port    *string
	Baud    *int
	Ports   *bool
	Print   *string
	Daemon  *bool
	Version *bool
}

// SetupFlags defines all CLI flags on fs.
func SetupFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		Port: fs.String(
			"port",
			"",
			"serial device the printer is connected to",
		),
		Baud: fs.Int(
			"baud",
			0,
			"serial baud rate (default from config)",
		),
		Ports: fs.Bool(
			"ports",
			false,
			"list serial ports and exit",
		),
		Print: fs.String(
			"print",
			"",
			"start printing a G-code file once connected",
		),
		Daemon: fs.Bool(
			"daemon",
			false,
			"run with no console, logging to stderr",
		),
		Version: fs.Bool(
			"version",
			false,
			"print version and exit",
		),
	}
}

// Pre actions the flags that don't need config or logging. It returns true
// if the program should exit.
func (f *Flags) Pre(out io.Writer, listPorts func() ([]string, error)) (bool, error) {
	switch {
	case *f.Version:
		_, _ = fmt.Fprintf(out, "MoonPrint v%s\n", config.AppVersion)
		return true, nil
	case *f.Ports:
		if listPorts == nil {
			listPorts = serialport.ListPorts
		}
		ports, err := listPorts()
		if err != nil {
			return true, fmt.Errorf("error listing serial ports: %w", err)
		}
		if len(ports) == 0 {
			_, _ = fmt.Fprintln(out, "no serial ports found")
		}
		for _, p := range ports {
			_, _ = fmt.Fprintln(out, p)
		}
		return true, nil
	}
	return false, nil
}

// Post applies the connection flags on top of the loaded config. Overrides
// are not saved.
func (f *Flags) Post(cfg *config.Instance) {
	if *f.Port != "" {
		cfg.SetSerialPort(*f.Port)
	}
	if *f.Baud > 0 {
		cfg.SetBaudRate(*f.Baud)
	}
}

// Setup initializes directories, logging and the user config.
//
//nolint:gocritic // config struct copied for immutability
func Setup(
	dirs helpers.Dirs,
	defaultConfig config.Values,
	writers []io.Writer,
) (*config.Instance, error) {
	err := helpers.EnsureDirectories(dirs)
	if err != nil {
		return nil, fmt.Errorf("error creating directories: %w", err)
	}

	err = helpers.InitLogging(dirs.Log, writers)
	if err != nil {
		return nil, fmt.Errorf("error initializing logging: %w", err)
	}

	cfg, err := config.NewConfig(dirs.Config, defaultConfig)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	if cfg.DebugLogging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	return cfg, nil
}
