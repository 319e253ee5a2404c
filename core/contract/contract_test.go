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

package contract_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"code.vegaprotocol.io/betvex/core/contract"
	"code.vegaprotocol.io/betvex/core/events"
	"code.vegaprotocol.io/betvex/core/ext"
	"code.vegaprotocol.io/betvex/core/ext/mocks"
	"code.vegaprotocol.io/betvex/core/types"
	"code.vegaprotocol.io/betvex/libs/num"
	"code.vegaprotocol.io/betvex/logging"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 8, 17, 12, 0, 0, 0, time.UTC)

const (
	admin   = "admin.near"
	usdcID  = "usdc.near"
	vexID   = "vex.near"
	matchID = "RUBY-Nexus-17-08-2024"
)

type transfer struct {
	token  string
	to     string
	amount *num.Uint
	cb     ext.Callback
}

type testContract struct {
	*contract.Contract
	usdc      *mocks.MockToken
	vex       *mocks.MockToken
	pool      *mocks.MockLiquidityPool
	sent      []events.Event
	transfers []transfer
}

func defaultParams() types.Params {
	return types.Params{
		Admin:                   admin,
		Treasury:                "treasury.near",
		USDC:                    usdcID,
		VEX:                     vexID,
		MinBet:                  num.NewUint(1),
		MinStakeResidual:        num.NewUint(50),
		MinSwapAmount:           num.NewUint(1),
		SharePriceGuaranteeFund: num.NewUint(10),
		RewardsPeriod:           30 * 24 * time.Hour,
		UnstakeLockup:           time.Hour,
	}
}

func getTestContract(t *testing.T) *testContract {
	t.Helper()
	ctrl := gomock.NewController(t)
	broker := mocks.NewMockBroker(ctrl)
	ts := mocks.NewMockTimeService(ctrl)
	tc := &testContract{
		usdc: mocks.NewMockToken(ctrl),
		vex:  mocks.NewMockToken(ctrl),
		pool: mocks.NewMockLiquidityPool(ctrl),
	}

	broker.EXPECT().Send(gomock.Any()).AnyTimes().Do(func(e events.Event) {
		tc.sent = append(tc.sent, e)
	})
	ts.EXPECT().GetTimeNow().AnyTimes().Return(now)
	tc.usdc.EXPECT().ID().AnyTimes().Return(usdcID)
	tc.vex.EXPECT().ID().AnyTimes().Return(vexID)
	for _, tok := range []struct {
		id string
		m  *mocks.MockToken
	}{{usdcID, tc.usdc}, {vexID, tc.vex}} {
		id := tok.id
		tok.m.EXPECT().Transfer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes().Do(
			func(_ context.Context, to string, amount *num.Uint, cb ext.Callback) {
				tc.transfers = append(tc.transfers, transfer{token: id, to: to, amount: amount.Clone(), cb: cb})
			},
		)
	}

	c, err := contract.New(logging.NewTestLogger(), contract.NewDefaultConfig(), defaultParams(), broker, ts, tc.usdc, tc.vex, tc.pool)
	require.NoError(t, err)
	tc.Contract = c
	return tc
}

func (tc *testContract) createMatch(t *testing.T) {
	t.Helper()
	_, err := tc.CreateMatch(context.Background(), admin, "csgo", "RUBY", "Nexus", num.MustDecimalFromString("2"), num.MustDecimalFromString("2"), "17-08-2024")
	require.NoError(t, err)
}

func (tc *testContract) bet(t *testing.T, bettor string, amount uint64, team string) {
	t.Helper()
	msg := `{"Bet":{"match_id":"` + matchID + `","team":"` + team + `"}}`
	refund, err := tc.FtOnTransfer(context.Background(), usdcID, bettor, num.NewUint(amount), msg)
	require.NoError(t, err)
	require.True(t, refund.IsZero())
}

func TestNew(t *testing.T) {
	ctrl := gomock.NewController(t)
	usdc := mocks.NewMockToken(ctrl)
	vex := mocks.NewMockToken(ctrl)
	usdc.EXPECT().ID().AnyTimes().Return(usdcID)
	vex.EXPECT().ID().AnyTimes().Return("other.near")
	log := logging.NewTestLogger()

	params := defaultParams()
	params.MinBet = nil
	_, err := contract.New(log, contract.NewDefaultConfig(), params, nil, nil, usdc, vex, nil)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	_, err = contract.New(log, contract.NewDefaultConfig(), defaultParams(), nil, nil, usdc, vex, nil)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestAdmin(t *testing.T) {
	tc := getTestContract(t)
	ctx := context.Background()

	_, err := tc.CreateMatch(ctx, "alice", "csgo", "RUBY", "Nexus", num.MustDecimalFromString("2"), num.MustDecimalFromString("2"), "17-08-2024")
	assert.ErrorIs(t, err, types.ErrPermissionDenied)
	assert.ErrorIs(t, tc.EndBetting(ctx, "alice", matchID), types.ErrPermissionDenied)
	assert.ErrorIs(t, tc.CancelMatch(ctx, "alice", matchID), types.ErrPermissionDenied)
	_, err = tc.FinishMatch(ctx, "alice", matchID, types.Team1)
	assert.ErrorIs(t, err, types.ErrPermissionDenied)
	assert.ErrorIs(t, tc.RetryLoss(ctx, "alice", matchID), types.ErrPermissionDenied)
	_, err = tc.FlushTreasury(ctx, "alice")
	assert.ErrorIs(t, err, types.ErrPermissionDenied)

	assert.ErrorIs(t, tc.ChangeAdmin(ctx, "alice", "alice"), types.ErrPermissionDenied)
	assert.ErrorIs(t, tc.ChangeAdmin(ctx, "alice", "alice"), contract.ErrNotAdmin)
	require.NoError(t, tc.ChangeAdmin(ctx, admin, "alice"))
	assert.Equal(t, "alice", tc.Info().Admin)
	_, err = tc.CreateMatch(ctx, admin, "csgo", "RUBY", "Nexus", num.MustDecimalFromString("2"), num.MustDecimalFromString("2"), "17-08-2024")
	assert.ErrorIs(t, err, types.ErrPermissionDenied)
	_, err = tc.CreateMatch(ctx, "alice", "csgo", "RUBY", "Nexus", num.MustDecimalFromString("2"), num.MustDecimalFromString("2"), "17-08-2024")
	require.NoError(t, err)
}

func TestTransferMsg(t *testing.T) {
	cases := []struct {
		msg    string
		action contract.Action
		err    bool
	}{
		{msg: `"Stake"`, action: contract.ActionStake},
		{msg: `"AddFunds"`, action: contract.ActionAddFunds},
		{msg: `{"Bet":{"match_id":"a-b-1","team":"Team2"}}`, action: contract.ActionBet},
		{msg: `"Unstake"`, err: true},
		{msg: `{"Claim":{}}`, err: true},
		{msg: `{"Bet":{"match_id":"a-b-1","team":"Team3"}}`, err: true},
		{msg: `not json`, err: true},
	}
	for _, c := range cases {
		t.Run(c.msg, func(t *testing.T) {
			m := contract.TransferMsg{}
			err := json.Unmarshal([]byte(c.msg), &m)
			if c.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.action, m.Action)
			out, err := json.Marshal(m)
			require.NoError(t, err)
			assert.JSONEq(t, c.msg, string(out))
		})
	}
}

func TestFtOnTransfer(t *testing.T) {
	t.Run("tokens are only accepted for their actions", testTransferTokenOrigin)
	t.Run("stake deposit", testTransferStake)
	t.Run("add funds", testTransferAddFunds)
}

func testTransferTokenOrigin(t *testing.T) {
	tc := getTestContract(t)
	ctx := context.Background()
	tc.createMatch(t)

	bet := `{"Bet":{"match_id":"` + matchID + `","team":"Team1"}}`
	for _, c := range []struct{ token, msg string }{
		{vexID, bet},
		{vexID, `"AddFunds"`},
		{usdcID, `"Stake"`},
		{"fake.near", `"Stake"`},
	} {
		refund, err := tc.FtOnTransfer(ctx, c.token, "alice", num.NewUint(100), c.msg)
		assert.ErrorIs(t, err, types.ErrPermissionDenied)
		assert.ErrorIs(t, err, contract.ErrWrongToken)
		assert.Equal(t, uint64(100), refund.Uint64())
	}

	refund, err := tc.FtOnTransfer(ctx, usdcID, "alice", num.NewUint(100), "garbage")
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
	assert.Equal(t, uint64(100), refund.Uint64())

	bets, err := tc.GetUsersBets("alice", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, bets)
}

func testTransferStake(t *testing.T) {
	tc := getTestContract(t)
	ctx := context.Background()

	refund, err := tc.FtOnTransfer(ctx, vexID, "alice", num.NewUint(40), `"Stake"`)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
	assert.Equal(t, uint64(40), refund.Uint64())

	refund, err = tc.FtOnTransfer(ctx, vexID, "alice", num.NewUint(400), `"Stake"`)
	require.NoError(t, err)
	assert.True(t, refund.IsZero())

	shares, err := tc.Stake(ctx, "alice", num.NewUint(400))
	require.NoError(t, err)
	assert.Equal(t, uint64(400), shares.Uint64())
	staked, err := tc.GetUserStakedBalance("alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(400), staked.Uint64())

	// locked until an hour after staking
	_, err = tc.Unstake(ctx, "alice", num.NewUint(100))
	assert.ErrorIs(t, err, types.ErrInvalidState)
}

func testTransferAddFunds(t *testing.T) {
	tc := getTestContract(t)
	refund, err := tc.FtOnTransfer(context.Background(), usdcID, "admin.near", num.NewUint(25), `"AddFunds"`)
	require.NoError(t, err)
	assert.True(t, refund.IsZero())
	assert.Equal(t, uint64(25), tc.GetFunds().Insurance.Uint64())
}

func TestFinishWithProfit(t *testing.T) {
	tc := getTestContract(t)
	ctx := context.Background()
	tc.createMatch(t)
	tc.bet(t, "alice", 100, "Team1")

	require.NoError(t, tc.EndBetting(ctx, admin, matchID))
	out, err := tc.FinishMatch(ctx, admin, matchID, types.Team2)
	require.NoError(t, err)
	assert.Equal(t, types.OutcomeProfit, out.Kind)
	assert.Equal(t, uint64(100), out.Amount.Uint64())

	funds := tc.GetFunds()
	assert.True(t, funds.FundsToPayout.IsZero())
	assert.Equal(t, uint64(5), funds.Insurance.Uint64())
	assert.Equal(t, uint64(5), funds.Fees.Uint64())
	assert.Equal(t, uint64(60), funds.StakingRewards.Uint64())

	queue := tc.GetStakingQueue()
	require.Len(t, queue, 1)
	assert.Equal(t, matchID, queue[0].MatchID)
	assert.Equal(t, now.Add(30*24*time.Hour), queue[0].End)

	require.Len(t, tc.transfers, 1)
	assert.Equal(t, usdcID, tc.transfers[0].token)
	assert.Equal(t, "treasury.near", tc.transfers[0].to)
	assert.Equal(t, uint64(30), tc.transfers[0].amount.Uint64())

	// the losing bet can't be claimed
	_, err = tc.Claim(ctx, "alice", 1)
	assert.ErrorIs(t, err, types.ErrInvalidState)

	// the match is settled once
	_, err = tc.FinishMatch(ctx, admin, matchID, types.Team2)
	assert.ErrorIs(t, err, types.ErrInvalidState)
}

func TestFinishWithLoss(t *testing.T) {
	tc := getTestContract(t)
	ctx := context.Background()
	tc.createMatch(t)
	tc.bet(t, "alice", 100, "Team1")

	var quoted *num.Uint
	tc.pool.EXPECT().Quote(gomock.Any(), vexID, usdcID, gomock.Any(), gomock.Any()).Times(1).Do(
		func(_ context.Context, _, _ string, amount *num.Uint, _ ext.AmountCallback) {
			quoted = amount.Clone()
		},
	)

	require.NoError(t, tc.EndBetting(ctx, admin, matchID))
	out, err := tc.FinishMatch(ctx, admin, matchID, types.Team1)
	require.NoError(t, err)
	assert.Equal(t, types.OutcomeLoss, out.Kind)
	require.NotNil(t, quoted)
	assert.Equal(t, out.Amount, quoted)

	bets, err := tc.GetUsersBets("alice", 0, 0)
	require.NoError(t, err)
	require.Len(t, bets, 1)
	assert.Equal(t, bets[0].PotentialWinnings, tc.GetFunds().FundsToPayout)

	saga, err := tc.GetLossSaga(matchID)
	require.NoError(t, err)
	assert.Equal(t, types.SagaStateAwaitingQuote, saga.State)
	assert.Len(t, tc.GetSagas().Losses, 1)

	paid, err := tc.Claim(ctx, "alice", bets[0].ID)
	require.NoError(t, err)
	assert.Equal(t, bets[0].PotentialWinnings, paid)
	require.Len(t, tc.transfers, 1)
	assert.Equal(t, "alice", tc.transfers[0].to)
	tc.transfers[0].cb(ctx, nil)
	assert.True(t, tc.GetFunds().FundsToPayout.IsZero())
}

func TestCancelMakesBetsRefundable(t *testing.T) {
	tc := getTestContract(t)
	ctx := context.Background()
	tc.createMatch(t)
	tc.bet(t, "alice", 100, "Team1")
	tc.bet(t, "bob", 50, "Team2")

	require.NoError(t, tc.CancelMatch(ctx, admin, matchID))
	assert.Equal(t, uint64(150), tc.GetFunds().FundsToPayout.Uint64())

	refund, err := tc.Claim(ctx, "bob", 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), refund.Uint64())

	m, err := tc.GetMatch(matchID)
	require.NoError(t, err)
	assert.Equal(t, types.MatchStateError, m.MatchState)
}

func TestCheckpointRoundTrip(t *testing.T) {
	tc := getTestContract(t)
	ctx := context.Background()
	tc.createMatch(t)
	tc.bet(t, "alice", 100, "Team1")
	_, err := tc.FtOnTransfer(ctx, vexID, "bob", num.NewUint(400), `"Stake"`)
	require.NoError(t, err)
	require.NoError(t, tc.ChangeAdmin(ctx, admin, "carol"))

	tc2 := getTestContract(t)
	states := tc.States()
	restored := tc2.States()
	require.Len(t, restored, len(states))
	for i, s := range states {
		data, err := s.Checkpoint()
		require.NoError(t, err)
		require.Equal(t, s.Name(), restored[i].Name())
		require.NoError(t, restored[i].Load(ctx, data))
	}

	assert.Equal(t, "carol", tc2.Admin())
	assert.Equal(t, tc.GetMatches(0, 0), tc2.GetMatches(0, 0))
	bets, err := tc2.GetUsersBets("alice", 0, 0)
	require.NoError(t, err)
	assert.Len(t, bets, 1)
	info, err := tc2.GetUserStakeInfo("bob")
	require.NoError(t, err)
	assert.Equal(t, uint64(400), info.UnstakedBalance.Uint64())
}
