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
	"bytes"
	"errors"
	"flag"
	"path/filepath"
	"testing"

	"github.com/LiBa001/moonprint/pkg/config"
	"github.com/LiBa001/moonprint/pkg/helpers"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFlags(t *testing.T, args ...string) *Flags {
	t.Helper()
	fs := flag.NewFlagSet("moonprint", flag.ContinueOnError)
	f := SetupFlags(fs)
	require.NoError(t, fs.Parse(args))
	return f
}

func TestPre(t *testing.T) {
	t.Parallel()

	tests := []struct {
		lister   func() ([]string, error)
		name     string
		want     string
		args     []string
		exit     bool
		wantsErr bool
	}{
		{name: "no flags", args: nil},
		{name: "version", args: []string{"-version"}, exit: true, want: "MoonPrint v" + config.AppVersion + "\n"},
		{
			name:   "ports",
			args:   []string{"-ports"},
			lister: func() ([]string, error) { return []string{"/dev/ttyUSB0", "/dev/ttyACM0"}, nil },
			exit:   true,
			want:   "/dev/ttyUSB0\n/dev/ttyACM0\n",
		},
		{
			name:   "no ports",
			args:   []string{"-ports"},
			lister: func() ([]string, error) { return nil, nil },
			exit:   true,
			want:   "no serial ports found\n",
		},
		{
			name:     "ports error",
			args:     []string{"-ports"},
			lister:   func() ([]string, error) { return nil, errors.New("no /dev") },
			exit:     true,
			wantsErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out := &bytes.Buffer{}
			exit, err := parseFlags(t, tt.args...).Pre(out, tt.lister)

			if tt.wantsErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.exit, exit)
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestSetupAndPost(t *testing.T) {
	// changes the global logger and reads the environment
	t.Setenv(config.CfgEnv, "")
	prev := log.Logger
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	})

	root := t.TempDir()
	cfg, err := Setup(helpers.Dirs{
		Config: filepath.Join(root, "config"),
		Log:    filepath.Join(root, "log"),
	}, config.BaseDefaults, nil)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "config", config.CfgFile))
	assert.Empty(t, cfg.SerialPort())

	parseFlags(t, "-port", "/dev/ttyUSB1", "-baud", "57600").Post(cfg)
	assert.Equal(t, "/dev/ttyUSB1", cfg.SerialPort())
	assert.Equal(t, 57600, cfg.BaudRate())

	parseFlags(t).Post(cfg)
	assert.Equal(t, "/dev/ttyUSB1", cfg.SerialPort(), "unset flags keep config values")
}
