// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"code.vegaprotocol.io/betvex/config"

	"github.com/BurntSushi/toml"
	"github.com/jessevdk/go-flags"
)

type InitCmd struct {
	Home  string `long:"home" description:"directory holding the configuration and the state"`
	Force bool   `long:"force" description:"overwrite an existing configuration file"`
}

func (cmd *InitCmd) Execute(_ []string) error {
	path := filepath.Join(cmd.Home, config.ConfigFileName)
	if _, err := os.Stat(path); err == nil && !cmd.Force {
		return fmt.Errorf("%s already exists, use --force to overwrite it", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(cmd.Home, 0o700); err != nil {
		return err
	}

	cfg := config.NewDefaultConfig()
	cfg.Snapshot.DBPath = filepath.Join(cmd.Home, "snapshots")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return err
	}
	fmt.Printf("configuration written to %s\n", path)
	return nil
}

func Init(_ context.Context, parser *flags.Parser) error {
	_, err := parser.AddCommand("init", "Write a default configuration", "Write a default configuration file in the home directory", &InitCmd{Home: defaultHome()})
	return err
}
