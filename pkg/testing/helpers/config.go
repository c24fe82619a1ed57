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

package helpers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/LiBa001/moonprint/pkg/config"
	toml "github.com/pelletier/go-toml/v2"
)

// NewTestConfig writes vals to a config file in configDir and loads it back
// over the base defaults.
//
//nolint:gocritic // config struct copied for immutability
func NewTestConfig(configDir string, vals config.Values) (*config.Instance, error) {
	vals.ConfigSchema = config.SchemaVersion

	data, err := toml.Marshal(&vals)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal test config: %w", err)
	}

	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create test config directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, config.CfgFile), data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write test config: %w", err)
	}

	cfg, err := config.NewConfig(configDir, config.BaseDefaults)
	if err != nil {
		return nil, fmt.Errorf("failed to load test config: %w", err)
	}
	return cfg, nil
}
