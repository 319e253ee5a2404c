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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"code.vegaprotocol.io/betvex/core/types"
	"code.vegaprotocol.io/betvex/libs/num"
	"code.vegaprotocol.io/betvex/logging"
	"code.vegaprotocol.io/betvex/metrics"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/atomic"
)

const requestIDHeader = "Idempotency-Key"

// Enqueuer runs continuations on the processor goroutine.
type Enqueuer interface {
	Enqueue(ctx context.Context, f func(context.Context)) error
}

type response struct {
	Amount *num.Uint `json:"amount,omitempty"`
	Error  string    `json:"error,omitempty"`
}

// client posts JSON requests to one service. Every call runs on its own
// goroutine and its continuation is handed back to the processor.
type client struct {
	log     *logging.Logger
	cfg     Config
	base    string
	http    *http.Client
	q       Enqueuer
	pending *atomic.Int64
}

func newClient(log *logging.Logger, cfg Config, base string, q Enqueuer, pending *atomic.Int64) *client {
	return &client{
		log:     log,
		cfg:     cfg,
		base:    strings.TrimSuffix(base, "/"),
		http:    &http.Client{Timeout: cfg.Timeout.Get()},
		q:       q,
		pending: pending,
	}
}

// async performs the call in the background and enqueues done with the
// outcome. The request id stays the same across retries so the service
// can deduplicate them.
func (c *client) async(ctx context.Context, method string, body any, done func(context.Context, *response, error)) {
	ctx = context.WithoutCancel(ctx)
	reqID := uuid.NewString()
	metrics.PendingCallsGaugeSet(int(c.pending.Inc()))

	go func() {
		defer func() {
			metrics.PendingCallsGaugeSet(int(c.pending.Dec()))
		}()
		resp, err := c.call(ctx, reqID, method, body)
		if err != nil {
			c.log.Warn("external call failed",
				logging.String("method", method),
				logging.String("request-id", reqID),
				logging.Error(err),
			)
		}
		if qerr := c.q.Enqueue(ctx, func(ctx context.Context) { done(ctx, resp, err) }); qerr != nil {
			c.log.Error("continuation dropped",
				logging.String("method", method),
				logging.String("request-id", reqID),
				logging.Error(qerr),
			)
		}
	}()
}

// fail hands err to the continuation without calling the service.
func (c *client) fail(ctx context.Context, err error, done func(context.Context, error)) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		if qerr := c.q.Enqueue(ctx, func(ctx context.Context) { done(ctx, err) }); qerr != nil {
			c.log.Error("continuation dropped", logging.Error(qerr))
		}
	}()
}

func (c *client) call(ctx context.Context, reqID, method string, body any) (*response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.RetryInterval.Get()
	policy := backoff.WithContext(backoff.WithMaxRetries(b, c.cfg.Retries), ctx)

	resp := &response{}
	op := func() error {
		return c.post(ctx, reqID, method, payload, resp)
	}
	notify := func(err error, next time.Duration) {
		c.log.Debug("retrying external call",
			logging.String("method", method),
			logging.String("request-id", reqID),
			logging.Duration("in", next),
			logging.Error(err),
		)
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", method, err, types.ErrExternalCallFailure)
	}
	return resp, nil
}

func (c *client) post(ctx context.Context, reqID, method string, payload []byte, out *response) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/"+method, bytes.NewReader(payload))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(requestIDHeader, reqID)

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}

	*out = response{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return backoff.Permanent(fmt.Errorf("invalid response: %w", err))
		}
	}
	switch {
	case res.StatusCode >= 500:
		return fmt.Errorf("status %d: %s", res.StatusCode, out.Error)
	case res.StatusCode >= 300:
		return backoff.Permanent(fmt.Errorf("status %d: %s", res.StatusCode, out.Error))
	}
	return nil
}
