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
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"code.vegaprotocol.io/betvex/config/encoding"
)

type RateLimitConfig struct {
	CoolDown  encoding.Duration `long:"cool-down" description:"minimum time between two requests of the same client, e.g. 100ms, 1s"`
	AllowList []string          `long:"allow-list" description:"ip/subnets never limited, e.g. 10.0.0.0/8, 192.168.0.0/16"`
}

// RateLimit greylists a client for CoolDown after each request. A request
// arriving while greylisted extends the penalty.
type RateLimit struct {
	cd    time.Duration
	allow []net.IPNet
	now   func() time.Time

	mu    sync.Mutex
	until map[string]time.Time
}

func NewRateLimit(ctx context.Context, cfg RateLimitConfig) (*RateLimit, error) {
	allow := make([]net.IPNet, 0, len(cfg.AllowList))
	for _, item := range cfg.AllowList {
		_, ipnet, err := net.ParseCIDR(item)
		if err != nil {
			return nil, fmt.Errorf("invalid allow list entry %q: %w", item, err)
		}
		allow = append(allow, *ipnet)
	}
	r := &RateLimit{
		cd:    cfg.CoolDown.Get(),
		allow: allow,
		now:   time.Now,
		until: map[string]time.Time{},
	}
	go r.cleanup(ctx)
	return r, nil
}

// NewRequest returns an error if the client identified by prefix and ip
// is still cooling down.
func (r *RateLimit) NewRequest(prefix, ip string) error {
	if r.cd <= 0 || r.allowed(ip) {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	id := prefix + " " + ip
	now := r.now()
	if until, ok := r.until[id]; ok && now.Before(until) {
		r.until[id] = until.Add(r.cd)
		return fmt.Errorf("rate-limited (%s for %s) until %v", prefix, ip, r.until[id])
	}
	r.until[id] = now.Add(r.cd)
	return nil
}

func (r *RateLimit) allowed(ip string) bool {
	parsed := net.ParseIP(ip)
	for _, n := range r.allow {
		if n.Contains(parsed) {
			return true
		}
	}
	return false
}

func (r *RateLimit) cleanup(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := r.now()
			r.mu.Lock()
			for id, until := range r.until {
				if until.Before(now) {
					delete(r.until, id)
				}
			}
			r.mu.Unlock()
		}
	}
}
