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

package broker

import (
	"code.vegaprotocol.io/betvex/config/encoding"
	"code.vegaprotocol.io/betvex/logging"
)

const namedLogger = "broker"

// Config represent the configuration of the broker.
type Config struct {
	Level      encoding.LogLevel `long:"log-level"`
	BufferSize int               `long:"buffer-size" description:"number of recent events kept for the API"`
	LogEvents  bool              `long:"log-events" description:"write every event as an EVENT_JSON log line"`
}

// NewDefaultConfig creates an instance of config with default values.
func NewDefaultConfig() Config {
	return Config{
		Level:      encoding.LogLevel{Level: logging.InfoLevel},
		BufferSize: 1000,
		LogEvents:  true,
	}
}
