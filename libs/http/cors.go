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

package http

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
)

// CORSConfig represents the configuration for CORS.
type CORSConfig struct {
	AllowedOrigins []string `long:"allowed-origins" description:"Allowed origins for CORS"`
	MaxAge         int      `long:"max-age" description:"Max age (in seconds) for preflight cache"`
}

// CORS wraps h with the cross origin policy of cfg.
func CORS(cfg CORSConfig, h http.Handler) http.Handler {
	return cors.New(CORSOptions(cfg)).Handler(h)
}

func CORSOptions(cfg CORSConfig) cors.Options {
	return cors.Options{
		AllowOriginFunc:  AllowedOrigin(cfg.AllowedOrigins),
		AllowedMethods:   []string{http.MethodHead, http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Content-Type", "Idempotency-Key"},
		MaxAge:           cfg.MaxAge,
		AllowCredentials: false,
	}
}

// AllowedOrigin matches origins with or without their scheme, an empty
// list or a leading "*" allows everything.
func AllowedOrigin(allowed []string) func(origin string) bool {
	trim := func(origin string) string {
		return strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://")
	}
	return func(origin string) bool {
		if len(allowed) == 0 || allowed[0] == "*" {
			return true
		}
		for _, a := range allowed {
			if a == origin || trim(a) == trim(origin) {
				return true
			}
		}
		return false
	}
}
