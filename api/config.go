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

package api

import (
	"time"

	"code.vegaprotocol.io/betvex/config/encoding"
	vghttp "code.vegaprotocol.io/betvex/libs/http"
	"code.vegaprotocol.io/betvex/logging"
)

const namedLogger = "api"

// Config represent the configuration of the api.
type Config struct {
	Level     encoding.LogLevel      `long:"log-level"`
	Timeout   encoding.Duration      `long:"timeout"`
	Port      int                    `long:"port" description:"Listen for connection on port <port>"`
	IP        string                 `long:"ip" description:"Bind to address <ip>"`
	PageSize  uint64                 `long:"page-size" description:"default number of items of paginated views"`
	CORS      vghttp.CORSConfig      `group:"CORS" namespace:"cors"`
	RateLimit vghttp.RateLimitConfig `group:"RateLimit" namespace:"rate-limit"`
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level:    encoding.LogLevel{Level: logging.InfoLevel},
		Timeout:  encoding.Duration{Duration: 5 * time.Second},
		IP:       "0.0.0.0",
		Port:     3003,
		PageSize: 50,
		CORS: vghttp.CORSConfig{
			AllowedOrigins: []string{"*"},
		},
	}
}
