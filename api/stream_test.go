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

package api_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"code.vegaprotocol.io/betvex/api"
	"code.vegaprotocol.io/betvex/core/broker"
	"code.vegaprotocol.io/betvex/core/events"
	"code.vegaprotocol.io/betvex/logging"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := logging.NewTestLogger()
	brk := broker.New(log, broker.NewDefaultConfig())
	send := func(id string) {
		brk.Send(events.NewTransactionResultEventSuccess(ctx, id, "alice.near", "claim"))
	}
	send("tx-1")
	send("tx-2")

	cfg := api.NewDefaultConfig()
	cfg.PageSize = 1
	s, err := api.New(ctx, log, cfg, &fakeProcessor{}, &fakeViews{}, brk)
	require.NoError(t, err)
	srv := httptest.NewServer(s)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/events/stream?since=1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	next := func() events.BusEvent {
		t.Helper()
		var e events.BusEvent
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		require.NoError(t, conn.ReadJSON(&e))
		return e
	}

	// the backlog after since first
	assert.Equal(t, uint64(2), next().ID)

	// then live events, more than a page at once
	brk.SendBatch([]events.Event{
		events.NewTransactionResultEventSuccess(ctx, "tx-3", "alice.near", "stake"),
		events.NewTransactionResultEventSuccess(ctx, "tx-4", "alice.near", "unstake"),
	})
	assert.Equal(t, uint64(3), next().ID)
	assert.Equal(t, uint64(4), next().ID)

	send("tx-5")
	e := next()
	assert.Equal(t, uint64(5), e.ID)
	assert.Equal(t, "transaction_result", e.Event)
}

func TestStreamEventsRejectsBadSince(t *testing.T) {
	ts := getTestServer(t)
	assert.Equal(t, 400, ts.get(t, "/api/v1/events/stream?since=abc", nil))
}
