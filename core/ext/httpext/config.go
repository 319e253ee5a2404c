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

package httpext

import (
	"time"

	"code.vegaprotocol.io/betvex/config/encoding"
	"code.vegaprotocol.io/betvex/logging"
)

const namedLogger = "httpext"

// Config holds the endpoints of the token and liquidity pool services.
type Config struct {
	Level         encoding.LogLevel `long:"log-level"`
	USDCURL       string            `long:"usdc-url" description:"base url of the USDC token service"`
	VEXURL        string            `long:"vex-url" description:"base url of the VEX token service"`
	PoolURL       string            `long:"pool-url" description:"base url of the liquidity pool service"`
	PoolAccount   string            `long:"pool-account" description:"account of the liquidity pool on the token ledgers"`
	Timeout       encoding.Duration `long:"timeout" description:"timeout of a single request"`
	Retries       uint64            `long:"retries" description:"number of retries of a failing request"`
	RetryInterval encoding.Duration `long:"retry-interval" description:"initial interval between retries"`
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level:         encoding.LogLevel{Level: logging.InfoLevel},
		USDCURL:       "http://127.0.0.1:3030/usdc",
		VEXURL:        "http://127.0.0.1:3030/vex",
		PoolURL:       "http://127.0.0.1:3031",
		PoolAccount:   "pool.near",
		Timeout:       encoding.Duration{Duration: 5 * time.Second},
		Retries:       3,
		RetryInterval: encoding.Duration{Duration: 200 * time.Millisecond},
	}
}
