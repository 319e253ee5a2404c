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
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"code.vegaprotocol.io/betvex/api"
	"code.vegaprotocol.io/betvex/core/contract"
	"code.vegaprotocol.io/betvex/core/events"
	"code.vegaprotocol.io/betvex/core/matches"
	"code.vegaprotocol.io/betvex/core/processor"
	"code.vegaprotocol.io/betvex/core/txn"
	"code.vegaprotocol.io/betvex/core/types"
	"code.vegaprotocol.io/betvex/libs/num"
	"code.vegaprotocol.io/betvex/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcessor struct {
	submitted []*txn.Tx
	result    func(tx *txn.Tx) (*processor.Result, error)
}

func (f *fakeProcessor) Submit(_ context.Context, tx *txn.Tx) (*processor.Result, error) {
	f.submitted = append(f.submitted, tx)
	return f.result(tx)
}

func (f *fakeProcessor) Query(_ context.Context, q func() (any, error)) (any, error) {
	return q()
}

type fakeViews struct {
	pages [][2]uint64
}

func (f *fakeViews) Info() contract.Info {
	return contract.Info{Admin: "admin.near"}
}

func (f *fakeViews) GetMatches(from, limit uint64) []*matches.View {
	f.pages = append(f.pages, [2]uint64{from, limit})
	return []*matches.View{{MatchID: "RUBY-Nexus-17-08-2024"}}
}

func (f *fakeViews) GetMatch(id string) (*matches.View, error) {
	if id != "RUBY-Nexus-17-08-2024" {
		return nil, fmt.Errorf("match %s: %w", id, types.ErrNotFound)
	}
	return &matches.View{MatchID: id}, nil
}

func (f *fakeViews) GetPotentialWinnings(_ string, team types.Team, amount *num.Uint) (*num.Uint, error) {
	if team == types.Team2 {
		return num.UintZero().Mul(amount, num.NewUint(3)), nil
	}
	return num.UintZero().Mul(amount, num.NewUint(2)), nil
}

func (f *fakeViews) GetBet(bettor string, id uint64) (*types.Bet, error) {
	return &types.Bet{ID: id, Bettor: bettor}, nil
}

func (f *fakeViews) GetUsersBets(string, uint64, uint64) ([]*types.Bet, error) {
	return []*types.Bet{}, nil
}

func (f *fakeViews) GetUserStakeInfo(string) (*types.UserStake, error) {
	return types.NewUserStake(), nil
}

func (f *fakeViews) GetStakingQueue() []*types.MatchStakeInfo {
	return nil
}

func (f *fakeViews) GetFunds() contract.Funds {
	return contract.Funds{Insurance: num.NewUint(25)}
}

func (f *fakeViews) GetSagas() contract.Sagas {
	return contract.Sagas{}
}

func (f *fakeViews) GetLossSaga(id string) (*types.LossSaga, error) {
	return nil, fmt.Errorf("saga %s: %w", id, types.ErrNotFound)
}

type fakeEvents struct{}

func (fakeEvents) Since(seq uint64, limit int) []*events.BusEvent {
	out := []*events.BusEvent{}
	for i := seq + 1; i <= 5 && (limit == 0 || len(out) < limit); i++ {
		out = append(out, &events.BusEvent{ID: i, Event: "bet"})
	}
	return out
}

func (fakeEvents) Wait() <-chan struct{} {
	return nil
}

type testServer struct {
	*httptest.Server
	proc  *fakeProcessor
	views *fakeViews
}

func getTestServer(t *testing.T) *testServer {
	t.Helper()
	proc := &fakeProcessor{result: func(tx *txn.Tx) (*processor.Result, error) {
		return &processor.Result{TxID: tx.ID, Value: "ok"}, nil
	}}
	views := &fakeViews{}
	s, err := api.New(context.Background(), logging.NewTestLogger(), api.NewDefaultConfig(), proc, views, fakeEvents{})
	require.NoError(t, err)
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, proc: proc, views: views}
}

func (ts *testServer) get(t *testing.T, path string, into any) int {
	t.Helper()
	res, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer res.Body.Close()
	if into != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(into))
	}
	return res.StatusCode
}

func (ts *testServer) post(t *testing.T, body string, into any) int {
	t.Helper()
	res, err := http.Post(ts.URL+"/api/v1/transactions", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()
	if into != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(into))
	}
	return res.StatusCode
}

func TestViews(t *testing.T) {
	ts := getTestServer(t)

	info := contract.Info{}
	assert.Equal(t, http.StatusOK, ts.get(t, "/api/v1/info", &info))
	assert.Equal(t, "admin.near", info.Admin)

	list := []*matches.View{}
	assert.Equal(t, http.StatusOK, ts.get(t, "/api/v1/matches?from=2&limit=3", &list))
	require.Len(t, list, 1)
	assert.Equal(t, http.StatusOK, ts.get(t, "/api/v1/matches", nil))
	assert.Equal(t, [][2]uint64{{2, 3}, {0, 50}}, ts.views.pages)

	herr := api.HTTPError{}
	assert.Equal(t, http.StatusNotFound, ts.get(t, "/api/v1/matches/nope", &herr))
	assert.Contains(t, herr.ErrorStr, "not found")

	var winnings string
	assert.Equal(t, http.StatusOK, ts.get(t, "/api/v1/matches/RUBY-Nexus-17-08-2024/potential-winnings?team=Team2&amount=10", &winnings))
	assert.Equal(t, "30", winnings)
	assert.Equal(t, http.StatusBadRequest, ts.get(t, "/api/v1/matches/RUBY-Nexus-17-08-2024/potential-winnings?team=Team3&amount=10", nil))
	assert.Equal(t, http.StatusBadRequest, ts.get(t, "/api/v1/matches/RUBY-Nexus-17-08-2024/potential-winnings?team=Team1", nil))

	bet := types.Bet{}
	assert.Equal(t, http.StatusOK, ts.get(t, "/api/v1/bets/alice/7", &bet))
	assert.Equal(t, uint64(7), bet.ID)
	assert.Equal(t, http.StatusBadRequest, ts.get(t, "/api/v1/bets/alice/seven", nil))

	funds := contract.Funds{}
	assert.Equal(t, http.StatusOK, ts.get(t, "/api/v1/funds", &funds))
	assert.Equal(t, "25", funds.Insurance.String())

	assert.Equal(t, http.StatusNotFound, ts.get(t, "/api/v1/sagas/RUBY-Nexus-17-08-2024", nil))

	evts := []*events.BusEvent{}
	assert.Equal(t, http.StatusOK, ts.get(t, "/api/v1/events?since=3", &evts))
	require.Len(t, evts, 2)
	assert.Equal(t, uint64(4), evts[0].ID)
}

func TestSubmitTransaction(t *testing.T) {
	ts := getTestServer(t)

	res := processor.Result{}
	status := ts.post(t, `{"id":"tx-1","command":"claim","caller":"alice","payload":{"bet_id":1}}`, &res)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "tx-1", res.TxID)
	require.Len(t, ts.proc.submitted, 1)
	assert.Equal(t, txn.ClaimCommand, ts.proc.submitted[0].Command)

	assert.Equal(t, http.StatusBadRequest, ts.post(t, `{"command":"place_order"}`, nil))
	assert.Equal(t, http.StatusBadRequest, ts.post(t, `not json`, nil))

	ts.proc.result = func(tx *txn.Tx) (*processor.Result, error) {
		return processor.NewResult(tx.ID, nil, fmt.Errorf("not the admin: %w", types.ErrPermissionDenied)), nil
	}
	res = processor.Result{}
	assert.Equal(t, http.StatusForbidden, ts.post(t, `{"command":"end_betting","caller":"alice"}`, &res))
	assert.Contains(t, res.Error, "permission denied")

	ts.proc.result = func(tx *txn.Tx) (*processor.Result, error) {
		return nil, processor.ErrStopped
	}
	assert.Equal(t, http.StatusServiceUnavailable, ts.post(t, `{"command":"claim","caller":"alice"}`, nil))
}
