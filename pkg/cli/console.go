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
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/LiBa001/moonprint/pkg/helpers/syncutil"
	"github.com/LiBa001/moonprint/pkg/notifications"
	"github.com/LiBa001/moonprint/pkg/printer/engine"
	"github.com/LiBa001/moonprint/pkg/printer/panel"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("invalid arguments")
	ErrLocked         = errors.New("manual controls are locked while printing")
)

const helpText = `commands:
  x|y|z <value>                  set axis position (0-1000)
  temp <value>                   set target temperature (0-300)
  extrude insert|retract|stop    set extruder mode
  multiplier <n>                 set extrusion per acknowledgment (1-1000)
  submit                         send one manual step
  sync on|off                    stream controls continuously
  print <file>                   print a G-code file
  status                         show printer state
  quit                           disconnect and exit
`

// Session is the printer connection the console drives.
type Session interface {
	Panel() *panel.Panel
	StartPrint(path string) (*engine.PrintJob, error)
	State() engine.State
}

// Console interprets operator commands, one per line.
type Console struct {
	session Session
	out     io.Writer
	mu      syncutil.Mutex // serializes writes to out
}

func NewConsole(session Session, out io.Writer) *Console {
	return &Console{
		session: session,
		out:     out,
	}
}

func (c *Console) printf(format string, a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.out, format, a...)
}

// Run reads commands from in until EOF or quit. Command errors are reported
// to the operator and do not stop the console.
func (c *Console) Run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		quit, err := c.Execute(scanner.Text())
		if err != nil {
			c.printf("error: %s\n", err)
		}
		if quit {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read console input: %w", err)
	}
	return nil
}

// Execute runs a single command line.
func (c *Console) Execute(line string) (quit bool, err error) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false, nil
	}
	cmd, args := strings.ToLower(args[0]), args[1:]
	pnl := c.session.Panel()

	switch cmd {
	case "quit", "exit":
		return true, nil
	case "help":
		c.printf("%s", helpText)
		return false, nil
	case "status":
		c.status()
		return false, nil
	case "print":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: print <file>", ErrUsage)
		}
		job, err := c.session.StartPrint(args[0])
		if err != nil {
			return false, err
		}
		c.printf("printing %s (job %s)\n", args[0], job.ID)
		return false, nil
	}

	if pnl.Snapshot().Printing {
		if _, ok := manualCommands[cmd]; ok {
			return false, ErrLocked
		}
	}

	switch cmd {
	case "x", "y", "z":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: %s <value>", ErrUsage, cmd)
		}
		v, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return false, fmt.Errorf("%w: %s is not a number", ErrUsage, args[0])
		}
		return false, pnl.SetAxis(cmd, v)
	case "temp":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: temp <value>", ErrUsage)
		}
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return false, fmt.Errorf("%w: %s is not a whole number", ErrUsage, args[0])
		}
		return false, pnl.SetTargetTemperature(v)
	case "extrude":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: extrude insert|retract|stop", ErrUsage)
		}
		mode, err := panel.ParseExtruderMode(args[0])
		if err != nil {
			return false, err
		}
		pnl.SetExtruderMode(mode)
		return false, nil
	case "multiplier":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: multiplier <n>", ErrUsage)
		}
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return false, fmt.Errorf("%w: %s is not a whole number", ErrUsage, args[0])
		}
		return false, pnl.SetMultiplier(v)
	case "submit":
		return false, pnl.BeginSubmission()
	case "sync":
		if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
			return false, fmt.Errorf("%w: sync on|off", ErrUsage)
		}
		pnl.SetSync(args[0] == "on")
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s (try help)", ErrUnknownCommand, cmd)
	}
}

var manualCommands = map[string]struct{}{
	"x":          {},
	"y":          {},
	"z":          {},
	"temp":       {},
	"extrude":    {},
	"multiplier": {},
	"submit":     {},
	"sync":       {},
}

func (c *Console) status() {
	snap := c.session.Panel().Snapshot()
	c.printf(
		"state: %s\naxes: x=%g y=%g z=%g\nextruder: %s x%d at %g\ntemperature: %d (target %d)\n",
		c.session.State(),
		snap.Axes.X, snap.Axes.Y, snap.Axes.Z,
		snap.Extruder.Mode, snap.Extruder.Multiplier, snap.Extruder.Position,
		snap.CurrentTemp, snap.TargetTemp,
	)
}

// Notify reports session events to the operator until ns is closed.
// Temperature updates are left to the status command.
func (c *Console) Notify(ns <-chan notifications.Notification) {
	for n := range ns {
		switch n.Method {
		case notifications.PrintStarted, notifications.PrintFinished:
			var p notifications.PrintParams
			if err := json.Unmarshal(n.Params, &p); err != nil {
				log.Warn().Err(err).Str("method", n.Method).Msg("bad notification payload")
				continue
			}
			switch {
			case n.Method == notifications.PrintStarted:
				c.printf("print started: %s (%d lines)\n", p.File, p.Total)
			case p.Error != "":
				c.printf("print stopped: %s after %d/%d lines: %s\n", p.File, p.Sent, p.Total, p.Error)
			default:
				c.printf("print finished: %s (%d lines)\n", p.File, p.Sent)
			}
		case notifications.SubmissionFinished:
			c.printf("step sent\n")
		case notifications.PrinterDisconnected:
			c.printf("printer disconnected\n")
		}
	}
}
