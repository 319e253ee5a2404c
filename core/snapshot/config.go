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

package snapshot

import (
	"errors"
	"time"

	"code.vegaprotocol.io/betvex/config/encoding"
	"code.vegaprotocol.io/betvex/logging"
)

const (
	namedLogger = "snapshot"
	goLevelDB   = "GOLevelDB"
	memDB       = "memory"
)

var ErrInvalidStorageMethod = errors.New("invalid snapshot storage method")

type Config struct {
	Level      encoding.LogLevel `choice:"debug" choice:"info" choice:"warning" choice:"error" choice:"panic" choice:"fatal" description:"Logging level (default: info)" long:"log-level"`
	KeepRecent int               `description:"Number of historic snapshots to keep" long:"snapshot-keep-recent"`
	Storage    string            `choice:"GOLevelDB" choice:"memory" description:"Storage type to use" long:"storage"`
	DBPath     string            `description:"Path to database" long:"db-path"`
	Interval   encoding.Duration `description:"Minimum time between two snapshots" long:"interval"`
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level:      encoding.LogLevel{Level: logging.InfoLevel},
		KeepRecent: 10,
		Storage:    goLevelDB,
		DBPath:     "betvex/snapshots",
		Interval:   encoding.Duration{Duration: time.Minute},
	}
}

func NewTestConfig() Config {
	cfg := NewDefaultConfig()
	cfg.Storage = memDB
	cfg.DBPath = ""
	return cfg
}

// Validate checks the values in the config file are sensible.
func (c *Config) Validate() error {
	if c.KeepRecent < 1 {
		return errors.New("at least one snapshot must be kept")
	}
	if c.Interval.Get() < 0 {
		return errors.New("snapshot interval cannot be negative")
	}
	switch c.Storage {
	case memDB:
		if len(c.DBPath) != 0 {
			return errors.New("dbpath cannot be set when storage method is in-memory")
		}
	case goLevelDB:
		if len(c.DBPath) == 0 {
			return errors.New("dbpath is required with GOLevelDB storage")
		}
	default:
		return ErrInvalidStorageMethod
	}
	return nil
}
