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

package processor

import (
	"time"

	"code.vegaprotocol.io/betvex/config/encoding"
	"code.vegaprotocol.io/betvex/logging"
)

const namedLogger = "processor"

// Config represent the configuration of the processor.
type Config struct {
	Level         encoding.LogLevel `long:"log-level"`
	QueueSize     int               `long:"queue-size" description:"number of pending transactions and continuations buffered before submitters block"`
	SubmitTimeout encoding.Duration `long:"submit-timeout" description:"maximum time a submitter waits for its transaction to be executed"`
	ReplayWindow  int               `long:"replay-window" description:"number of recent transaction ids whose result is returned again instead of re-executing them, 0 disables it"`
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level:         encoding.LogLevel{Level: logging.InfoLevel},
		QueueSize:     1024,
		SubmitTimeout: encoding.Duration{Duration: 10 * time.Second},
		ReplayWindow:  10000,
	}
}
