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

package settlement_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"code.vegaprotocol.io/betvex/core/events"
	"code.vegaprotocol.io/betvex/core/ext"
	"code.vegaprotocol.io/betvex/core/ext/mocks"
	"code.vegaprotocol.io/betvex/core/settlement"
	"code.vegaprotocol.io/betvex/core/types"
	"code.vegaprotocol.io/betvex/libs/num"
	"code.vegaprotocol.io/betvex/logging"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 8, 17, 12, 0, 0, 0, time.UTC)

type fakeStaking struct {
	staked   *num.Uint
	absorbed *num.Uint
}

func (f *fakeStaking) TotalStaked() *num.Uint {
	return f.staked.Clone()
}

func (f *fakeStaking) AbsorbLoss(_ context.Context, amount *num.Uint) error {
	if f.staked.LT(amount) {
		return types.ErrInsufficientBalance
	}
	f.staked.Sub(f.staked, amount)
	f.absorbed.Add(f.absorbed, amount)
	return nil
}

type enqueued struct {
	matchID string
	amount  *num.Uint
}

type fakeVesting struct {
	queue []enqueued
	// number of swaps attempted before each enqueue, then after
	swaps []int
}

func (f *fakeVesting) Enqueue(_ context.Context, matchID string, amount *num.Uint, _ time.Time) error {
	f.queue = append(f.queue, enqueued{matchID: matchID, amount: amount.Clone()})
	return nil
}

func (f *fakeVesting) PerformStakeSwap(_ context.Context, _ string, _ time.Time) (*types.StakeSwap, error) {
	f.swaps = append(f.swaps, len(f.queue))
	return nil, types.ErrInvalidState
}

type call struct {
	tokenIn  string
	tokenOut string
	amount   *num.Uint
	cb       ext.Callback
	acb      ext.AmountCallback
}

type testEngine struct {
	*settlement.Engine
	staking   *fakeStaking
	vesting   *fakeVesting
	sent      []events.Event
	transfers []call
	quotes    []call
	deposits  []call
	swaps     []call
	withdraws []call
}

func getTestEngine(t *testing.T) *testEngine {
	t.Helper()
	ctrl := gomock.NewController(t)
	broker := mocks.NewMockBroker(ctrl)
	pool := mocks.NewMockLiquidityPool(ctrl)
	usdc := mocks.NewMockToken(ctrl)
	te := &testEngine{
		staking: &fakeStaking{staked: num.NewUint(1000), absorbed: num.UintZero()},
		vesting: &fakeVesting{},
	}

	broker.EXPECT().Send(gomock.Any()).AnyTimes().Do(func(e events.Event) {
		te.sent = append(te.sent, e)
	})
	usdc.EXPECT().ID().AnyTimes().Return("usdc.token")
	usdc.EXPECT().Transfer(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes().Do(
		func(_ context.Context, to string, amount *num.Uint, cb ext.Callback) {
			te.transfers = append(te.transfers, call{tokenOut: to, amount: amount.Clone(), cb: cb})
		},
	)
	pool.EXPECT().Quote(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes().Do(
		func(_ context.Context, in, out string, amount *num.Uint, cb ext.AmountCallback) {
			te.quotes = append(te.quotes, call{tokenIn: in, tokenOut: out, amount: amount.Clone(), acb: cb})
		},
	)
	pool.EXPECT().Deposit(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes().Do(
		func(_ context.Context, token string, amount *num.Uint, cb ext.Callback) {
			te.deposits = append(te.deposits, call{tokenIn: token, amount: amount.Clone(), cb: cb})
		},
	)
	pool.EXPECT().Swap(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes().Do(
		func(_ context.Context, in, out string, amount, _ *num.Uint, cb ext.AmountCallback) {
			te.swaps = append(te.swaps, call{tokenIn: in, tokenOut: out, amount: amount.Clone(), acb: cb})
		},
	)
	pool.EXPECT().Withdraw(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes().Do(
		func(_ context.Context, token string, amount *num.Uint, cb ext.Callback) {
			te.withdraws = append(te.withdraws, call{tokenOut: token, amount: amount.Clone(), cb: cb})
		},
	)

	te.Engine = settlement.New(logging.NewTestLogger(), settlement.NewDefaultConfig(), broker, pool, usdc, "vex.token", te.staking, te.vesting, "treasury")
	return te
}

func (te *testEngine) lastSaga(t *testing.T) types.LossSaga {
	t.Helper()
	for i := len(te.sent) - 1; i >= 0; i-- {
		if e, ok := te.sent[i].(*events.LossSettlement); ok {
			return e.Saga()
		}
	}
	t.Fatal("no loss settlement event")
	return types.LossSaga{}
}

func TestProfit(t *testing.T) {
	t.Run("split between stakers, treasury, insurance and fees", testProfitSplit)
	t.Run("failed treasury transfer kept in arrears", testTreasuryArrears)
}

func testProfitSplit(t *testing.T) {
	te := getTestEngine(t)
	ctx := context.Background()

	outcome := &types.SettlementOutcome{MatchID: "a-b-1", Kind: types.OutcomeProfit, Amount: num.NewUint(1001)}
	require.NoError(t, te.Settle(ctx, "admin", outcome, now))

	require.Len(t, te.vesting.queue, 1)
	assert.Equal(t, "a-b-1", te.vesting.queue[0].matchID)
	assert.Equal(t, uint64(600), te.vesting.queue[0].amount.Uint64())
	// a single swap, before the new entry
	assert.Equal(t, []int{0}, te.vesting.swaps)

	require.Len(t, te.transfers, 1)
	assert.Equal(t, "treasury", te.transfers[0].tokenOut)
	assert.Equal(t, uint64(300), te.transfers[0].amount.Uint64())
	te.transfers[0].cb(ctx, nil)

	assert.Equal(t, uint64(50), te.InsuranceFund().Uint64())
	assert.Equal(t, uint64(51), te.FeesFund().Uint64())
	assert.True(t, te.TreasuryArrears().IsZero())

	ev, ok := te.sent[len(te.sent)-1].(*events.ProfitDistribution)
	require.True(t, ok)
	assert.Equal(t, uint64(600), ev.Staking.Uint64())
	assert.Equal(t, uint64(51), ev.Fees.Uint64())
}

func testTreasuryArrears(t *testing.T) {
	te := getTestEngine(t)
	ctx := context.Background()

	_, err := te.FlushTreasury(ctx)
	assert.ErrorIs(t, err, types.ErrInvalidState)
	assert.ErrorIs(t, err, settlement.ErrNoArrears)

	te.HandleProfit(ctx, "admin", "a-b-1", num.NewUint(100), now)
	require.Len(t, te.transfers, 1)
	te.transfers[0].cb(ctx, errors.New("account not registered"))
	assert.Equal(t, uint64(30), te.TreasuryArrears().Uint64())

	te.HandleProfit(ctx, "admin", "c-d-1", num.NewUint(200), now)
	te.transfers[1].cb(ctx, errors.New("account not registered"))
	assert.Equal(t, uint64(90), te.TreasuryArrears().Uint64())

	flushed, err := te.FlushTreasury(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(90), flushed.Uint64())
	assert.True(t, te.TreasuryArrears().IsZero())
	require.Len(t, te.transfers, 3)
	assert.Equal(t, uint64(90), te.transfers[2].amount.Uint64())

	te.transfers[2].cb(ctx, errors.New("still not registered"))
	assert.Equal(t, uint64(90), te.TreasuryArrears().Uint64())
}

func TestLossCoveredByInsurance(t *testing.T) {
	te := getTestEngine(t)
	ctx := context.Background()
	te.AddFunds(ctx, "admin", num.NewUint(25))

	require.NoError(t, te.HandleLoss(ctx, "a-b-1", num.NewUint(10)))
	assert.Equal(t, uint64(15), te.InsuranceFund().Uint64())
	assert.Empty(t, te.quotes)
	assert.Empty(t, te.deposits)

	saga, err := te.GetSaga("a-b-1")
	require.NoError(t, err)
	assert.Equal(t, types.SagaStateSettled, saga.State)
	assert.Equal(t, uint64(10), saga.Covered.Uint64())

	err = te.HandleLoss(ctx, "a-b-1", num.NewUint(10))
	assert.ErrorIs(t, err, types.ErrInvalidState)
	assert.ErrorIs(t, err, settlement.ErrSagaExists)
}

func TestLossSaga(t *testing.T) {
	te := getTestEngine(t)
	ctx := context.Background()
	te.AddFunds(ctx, "admin", num.NewUint(25))

	require.NoError(t, te.HandleLoss(ctx, "a-b-1", num.NewUint(30)))
	require.Len(t, te.quotes, 1)
	assert.Equal(t, "vex.token", te.quotes[0].tokenIn)
	assert.Equal(t, "usdc.token", te.quotes[0].tokenOut)
	assert.Equal(t, uint64(5), te.quotes[0].amount.Uint64())
	assert.Equal(t, types.SagaStateAwaitingQuote, te.lastSaga(t).State)
	// nothing moves before the deposit
	assert.Equal(t, uint64(25), te.InsuranceFund().Uint64())

	te.quotes[0].acb(ctx, num.NewUint(100), nil)
	require.Len(t, te.deposits, 1)
	assert.Equal(t, "vex.token", te.deposits[0].tokenIn)
	assert.Equal(t, uint64(105), te.deposits[0].amount.Uint64())
	assert.Equal(t, uint64(1000), te.staking.staked.Uint64())

	te.deposits[0].cb(ctx, nil)
	assert.Equal(t, uint64(105), te.staking.absorbed.Uint64())
	assert.True(t, te.InsuranceFund().IsZero())
	require.Len(t, te.swaps, 1)
	assert.Equal(t, uint64(105), te.swaps[0].amount.Uint64())

	te.swaps[0].acb(ctx, num.NewUint(7), nil)
	require.Len(t, te.withdraws, 1)
	assert.Equal(t, "usdc.token", te.withdraws[0].tokenOut)
	te.withdraws[0].cb(ctx, nil)

	saga := te.lastSaga(t)
	assert.Equal(t, types.SagaStateSettled, saga.State)
	assert.Equal(t, uint64(7), saga.Withdrawn.Uint64())
	// the excess over the shortfall goes back to insurance
	assert.Equal(t, uint64(2), te.InsuranceFund().Uint64())
	assert.True(t, te.FundsToAdd().IsZero())

	// a late continuation changes nothing
	te.withdraws[0].cb(ctx, nil)
	assert.Equal(t, uint64(2), te.InsuranceFund().Uint64())
}

func TestLossProceedsBelowShortfall(t *testing.T) {
	te := getTestEngine(t)
	ctx := context.Background()
	te.AddFunds(ctx, "admin", num.NewUint(25))
	require.NoError(t, te.HandleLoss(ctx, "a-b-1", num.NewUint(30)))
	te.quotes[0].acb(ctx, num.NewUint(100), nil)
	te.deposits[0].cb(ctx, nil)
	te.swaps[0].acb(ctx, num.NewUint(3), nil)
	te.withdraws[0].cb(ctx, nil)

	assert.True(t, te.InsuranceFund().IsZero())
	assert.Equal(t, uint64(2), te.FundsToAdd().Uint64())

	// added funds pay down what is owed first
	te.AddFunds(ctx, "admin", num.NewUint(10))
	assert.True(t, te.FundsToAdd().IsZero())
	assert.Equal(t, uint64(8), te.InsuranceFund().Uint64())
}

func TestLossQuote(t *testing.T) {
	t.Run("failure can be retried", testQuoteFailureRetry)
	t.Run("insurance covers the loss by the time of the quote", testQuoteRevalidates)
	t.Run("quote scaled when the shortfall changed", testQuoteScaled)
}

func testQuoteFailureRetry(t *testing.T) {
	te := getTestEngine(t)
	ctx := context.Background()
	te.AddFunds(ctx, "admin", num.NewUint(25))

	err := te.RetryLoss(ctx, "a-b-1")
	assert.ErrorIs(t, err, types.ErrNotFound)

	require.NoError(t, te.HandleLoss(ctx, "a-b-1", num.NewUint(30)))
	te.quotes[0].acb(ctx, nil, errors.New("pool paused"))

	saga, err := te.GetSaga("a-b-1")
	require.NoError(t, err)
	assert.Equal(t, types.SagaStateIdle, saga.State)
	assert.Equal(t, "pool paused", saga.Reason)
	assert.Equal(t, uint64(25), te.InsuranceFund().Uint64())
	assert.True(t, te.FundsToAdd().IsZero())
	assert.Empty(t, te.deposits)

	// a second start for the same match is refused
	err = te.HandleLoss(ctx, "a-b-1", num.NewUint(30))
	assert.ErrorIs(t, err, types.ErrInvalidState)

	require.NoError(t, te.RetryLoss(ctx, "a-b-1"))
	require.Len(t, te.quotes, 2)
	assert.Equal(t, uint64(5), te.quotes[1].amount.Uint64())

	err = te.RetryLoss(ctx, "a-b-1")
	assert.ErrorIs(t, err, types.ErrInvalidState)
	assert.ErrorIs(t, err, settlement.ErrSagaNotRetriable)
}

func testQuoteRevalidates(t *testing.T) {
	te := getTestEngine(t)
	ctx := context.Background()
	te.AddFunds(ctx, "admin", num.NewUint(25))
	require.NoError(t, te.HandleLoss(ctx, "a-b-1", num.NewUint(30)))

	te.AddFunds(ctx, "admin", num.NewUint(10))
	te.quotes[0].acb(ctx, num.NewUint(100), nil)

	assert.Empty(t, te.deposits)
	assert.Equal(t, uint64(5), te.InsuranceFund().Uint64())
	saga, err := te.GetSaga("a-b-1")
	require.NoError(t, err)
	assert.Equal(t, types.SagaStateSettled, saga.State)
}

func testQuoteScaled(t *testing.T) {
	te := getTestEngine(t)
	ctx := context.Background()
	te.AddFunds(ctx, "admin", num.NewUint(25))
	require.NoError(t, te.HandleLoss(ctx, "a-b-1", num.NewUint(30)))

	// shortfall goes from 5 to 3
	te.AddFunds(ctx, "admin", num.NewUint(2))
	te.quotes[0].acb(ctx, num.NewUint(100), nil)

	require.Len(t, te.deposits, 1)
	// 100*3/5 = 60, padded to 63
	assert.Equal(t, uint64(63), te.deposits[0].amount.Uint64())
	saga, err := te.GetSaga("a-b-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(27), saga.Covered.Uint64())
	assert.Equal(t, uint64(3), saga.Shortfall.Uint64())
}

func TestLossSagaDegraded(t *testing.T) {
	start := func(t *testing.T) *testEngine {
		t.Helper()
		te := getTestEngine(t)
		ctx := context.Background()
		te.AddFunds(ctx, "admin", num.NewUint(25))
		require.NoError(t, te.HandleLoss(ctx, "a-b-1", num.NewUint(30)))
		te.quotes[0].acb(ctx, num.NewUint(100), nil)
		return te
	}

	t.Run("deposit fails", func(t *testing.T) {
		te := start(t)
		te.deposits[0].cb(context.Background(), errors.New("transfer refused"))

		saga := te.lastSaga(t)
		assert.Equal(t, types.SagaStateDegraded, saga.State)
		assert.Equal(t, uint64(5), te.FundsToAdd().Uint64())
		assert.True(t, te.InsuranceFund().IsZero())
		assert.True(t, te.staking.absorbed.IsZero())
		assert.Empty(t, te.Stranded())
		assert.Empty(t, te.swaps)

		// not retriable
		err := te.RetryLoss(context.Background(), "a-b-1")
		assert.ErrorIs(t, err, types.ErrInvalidState)
	})

	t.Run("swap fails", func(t *testing.T) {
		te := start(t)
		ctx := context.Background()
		te.deposits[0].cb(ctx, nil)
		te.swaps[0].acb(ctx, nil, errors.New("slippage"))

		assert.Equal(t, types.SagaStateDegraded, te.lastSaga(t).State)
		assert.Equal(t, uint64(5), te.FundsToAdd().Uint64())
		assert.Equal(t, uint64(105), te.Stranded()["vex.token"].Uint64())
		assert.Equal(t, uint64(105), te.staking.absorbed.Uint64())
		assert.Empty(t, te.withdraws)
	})

	t.Run("withdraw fails", func(t *testing.T) {
		te := start(t)
		ctx := context.Background()
		te.deposits[0].cb(ctx, nil)
		te.swaps[0].acb(ctx, num.NewUint(7), nil)
		te.withdraws[0].cb(ctx, errors.New("paused"))

		assert.Equal(t, types.SagaStateDegraded, te.lastSaga(t).State)
		assert.Equal(t, uint64(5), te.FundsToAdd().Uint64())
		assert.Equal(t, uint64(7), te.Stranded()["usdc.token"].Uint64())
		assert.True(t, te.InsuranceFund().IsZero())
	})
}

func TestLossDepositCappedByStake(t *testing.T) {
	te := getTestEngine(t)
	ctx := context.Background()
	te.staking.staked = num.NewUint(50)
	require.NoError(t, te.HandleLoss(ctx, "a-b-1", num.NewUint(30)))
	te.quotes[0].acb(ctx, num.NewUint(100), nil)
	require.Len(t, te.deposits, 1)
	assert.Equal(t, uint64(50), te.deposits[0].amount.Uint64())

	te2 := getTestEngine(t)
	te2.staking.staked = num.UintZero()
	require.NoError(t, te2.HandleLoss(ctx, "a-b-1", num.NewUint(30)))
	te2.quotes[0].acb(ctx, num.NewUint(100), nil)
	assert.Empty(t, te2.deposits)
	assert.Equal(t, types.SagaStateDegraded, te2.lastSaga(t).State)
	assert.Equal(t, uint64(30), te2.FundsToAdd().Uint64())
}

func TestCheckpoint(t *testing.T) {
	te := getTestEngine(t)
	ctx := context.Background()
	te.AddFunds(ctx, "admin", num.NewUint(25))
	te.HandleProfit(ctx, "admin", "p-q-1", num.NewUint(100), now)
	te.transfers[0].cb(ctx, errors.New("refused"))

	// one saga past its deposit, one waiting on a quote
	require.NoError(t, te.HandleLoss(ctx, "a-b-1", num.NewUint(40)))
	te.quotes[0].acb(ctx, num.NewUint(100), nil)
	te.deposits[0].cb(ctx, nil)
	require.NoError(t, te.HandleLoss(ctx, "c-d-1", num.NewUint(20)))

	data, err := te.Checkpoint()
	require.NoError(t, err)

	te2 := getTestEngine(t)
	require.NoError(t, te2.Load(ctx, data))
	assert.Equal(t, te.FeesFund(), te2.FeesFund())
	assert.Equal(t, uint64(30), te2.TreasuryArrears().Uint64())
	assert.True(t, te2.InsuranceFund().IsZero())

	// 25+5 covered, 10 short
	swapped, err := te2.GetSaga("a-b-1")
	require.NoError(t, err)
	assert.Equal(t, types.SagaStateDegraded, swapped.State)
	assert.Equal(t, uint64(10), te2.FundsToAdd().Uint64())
	assert.Equal(t, uint64(105), te2.Stranded()["vex.token"].Uint64())

	quoting, err := te2.GetSaga("c-d-1")
	require.NoError(t, err)
	assert.Equal(t, types.SagaStateIdle, quoting.State)
	require.NoError(t, te2.RetryLoss(ctx, "c-d-1"))
	require.Len(t, te2.quotes, 1)
	assert.Equal(t, uint64(20), te2.quotes[0].amount.Uint64())

	assert.Len(t, te2.Sagas(), 2)
}

func TestRestoreInterruptedDeposit(t *testing.T) {
	te := getTestEngine(t)
	ctx := context.Background()
	te.AddFunds(ctx, "admin", num.NewUint(25))

	require.NoError(t, te.HandleLoss(ctx, "a-b-1", num.NewUint(30)))
	te.quotes[0].acb(ctx, num.NewUint(50), nil)
	require.Len(t, te.deposits, 1)
	assert.Equal(t, uint64(52), te.deposits[0].amount.Uint64())

	data, err := te.Checkpoint()
	require.NoError(t, err)

	te2 := getTestEngine(t)
	require.NoError(t, te2.Load(ctx, data))

	// counted as sent: stakers pay for it and the tokens are stranded
	assert.Equal(t, uint64(52), te2.staking.absorbed.Uint64())
	assert.Equal(t, uint64(948), te2.staking.staked.Uint64())
	assert.Equal(t, uint64(52), te2.Stranded()["vex.token"].Uint64())
	assert.Equal(t, uint64(5), te2.FundsToAdd().Uint64())
	assert.True(t, te2.InsuranceFund().IsZero())

	saga, err := te2.GetSaga("a-b-1")
	require.NoError(t, err)
	assert.Equal(t, types.SagaStateDegraded, saga.State)
	assert.Equal(t, uint64(52), saga.Deposited.Uint64())
}
