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

package events_test

import (
	"context"
	"encoding/json"
	"testing"

	"code.vegaprotocol.io/betvex/core/events"
	"code.vegaprotocol.io/betvex/core/types"
	vgcontext "code.vegaprotocol.io/betvex/libs/context"
	"code.vegaprotocol.io/betvex/libs/num"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceIsSetOnce(t *testing.T) {
	e := events.NewEndBettingEvent(context.Background(), "a-b-1")
	e.SetSequenceID(3)
	e.SetSequenceID(7)
	assert.Equal(t, uint64(3), e.Sequence())
	assert.Equal(t, events.EndBettingEvent, e.Type())
	assert.NotEmpty(t, e.TraceID())
}

func TestBetStreamMessage(t *testing.T) {
	ctx := vgcontext.WithTraceID(context.Background(), "trace")
	b := &types.Bet{
		ID:                4,
		Bettor:            "alice",
		MatchID:           "a-b-1",
		Team:              types.Team2,
		Amount:            num.NewUint(100),
		PotentialWinnings: num.NewUint(180),
	}
	e := events.NewBetEvent(ctx, b, num.NewUint(500), num.NewUint(1100))
	e.SetSequenceID(1)

	raw := e.StreamMessage().JSON()
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	assert.Equal(t, "betvex-contract", got["standard"])
	assert.Equal(t, "bet", got["event"])
	assert.Equal(t, "trace", got["trace_id"])

	data := got["data"].([]any)
	require.Len(t, data, 1)
	payload := data[0].(map[string]any)
	assert.Equal(t, "alice", payload["account_id"])
	assert.Equal(t, "Team2", payload["team"])
	assert.Equal(t, "180", payload["potential_winnings"])
	assert.Equal(t, "1100", payload["new_team_2_pool_size"])
}

func TestEventsCopyState(t *testing.T) {
	b := &types.Bet{
		ID:                1,
		Amount:            num.NewUint(10),
		PotentialWinnings: num.NewUint(20),
	}
	e := events.NewBetEvent(context.Background(), b, num.NewUint(1), num.NewUint(1))
	b.Amount.SetUint64(99)
	bet := e.Bet()
	assert.Equal(t, "10", bet.Amount.String())
}

func TestFinishMatchCarriesWinner(t *testing.T) {
	e := events.NewFinishMatchEvent(context.Background(), "a-b-1", types.Team1)
	raw := e.StreamMessage().JSON()
	assert.Contains(t, raw, `"winner":"Team1"`)
	assert.Equal(t, types.Team1, e.Winner())
}
