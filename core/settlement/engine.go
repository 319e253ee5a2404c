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

package settlement

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"code.vegaprotocol.io/betvex/core/events"
	"code.vegaprotocol.io/betvex/core/ext"
	"code.vegaprotocol.io/betvex/core/types"
	"code.vegaprotocol.io/betvex/libs/num"
	"code.vegaprotocol.io/betvex/logging"
	"code.vegaprotocol.io/betvex/metrics"
)

var (
	ErrSagaExists       = errors.New("a loss settlement already exists for this match")
	ErrSagaNotRetriable = errors.New("loss settlement is not waiting for a retry")
	ErrNoArrears        = errors.New("nothing owed to the treasury")
)

const (
	stakingShare   = 60
	treasuryShare  = 30
	insuranceShare = 5
	// the quoted amount is padded to absorb price moves until the swap
	quotePadding = 105
)

var hundred = num.NewUint(100)

// Broker send events.
type Broker interface {
	Send(event events.Event)
}

// Staking is the pool selling staked tokens on a loss.
type Staking interface {
	TotalStaked() *num.Uint
	AbsorbLoss(ctx context.Context, amount *num.Uint) error
}

// Vesting receives the staking share of the profits.
type Vesting interface {
	Enqueue(ctx context.Context, matchID string, amount *num.Uint, now time.Time) error
	PerformStakeSwap(ctx context.Context, caller string, now time.Time) (*types.StakeSwap, error)
}

// Engine distributes the result of finished matches.
type Engine struct {
	log     *logging.Logger
	cfg     Config
	broker  Broker
	pool    ext.LiquidityPool
	usdc    ext.Token
	staking Staking
	vesting Vesting
	vex     string

	treasury        string
	treasuryArrears *num.Uint
	insurance       *num.Uint
	fees            *num.Uint
	fundsToAdd      *num.Uint
	stranded        map[string]*num.Uint

	sagas map[string]*types.LossSaga
}

func New(log *logging.Logger, cfg Config, broker Broker, pool ext.LiquidityPool, usdc ext.Token, vex string, staking Staking, vesting Vesting, treasury string) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	return &Engine{
		log:             log,
		cfg:             cfg,
		broker:          broker,
		pool:            pool,
		usdc:            usdc,
		vex:             vex,
		staking:         staking,
		vesting:         vesting,
		treasury:        treasury,
		treasuryArrears: num.UintZero(),
		insurance:       num.UintZero(),
		fees:            num.UintZero(),
		fundsToAdd:      num.UintZero(),
		stranded:        map[string]*num.Uint{},
		sagas:           map[string]*types.LossSaga{},
	}
}

// ReloadConf updates the internal configuration.
func (e *Engine) ReloadConf(cfg Config) {
	e.log.Info("reloading configuration")
	if e.log.GetLevel() != cfg.Level.Get() {
		e.log.Info("updating log level",
			logging.String("old", e.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		e.log.SetLevel(cfg.Level.Get())
	}
	e.cfg = cfg
}

func (e *Engine) OnTreasuryUpdate(_ context.Context, account string) error {
	if account == "" {
		return fmt.Errorf("empty treasury account: %w", types.ErrInvalidArgument)
	}
	e.treasury = account
	return nil
}

// Settle dispatches the outcome of a finished match.
func (e *Engine) Settle(ctx context.Context, caller string, outcome *types.SettlementOutcome, now time.Time) error {
	switch outcome.Kind {
	case types.OutcomeProfit:
		e.HandleProfit(ctx, caller, outcome.MatchID, outcome.Amount, now)
		return nil
	case types.OutcomeLoss:
		return e.HandleLoss(ctx, outcome.MatchID, outcome.Amount)
	case types.OutcomeNone:
		return nil
	}
	return fmt.Errorf("unknown settlement outcome %v: %w", outcome.Kind, types.ErrInvariantViolation)
}

// HandleProfit splits profit between stakers, treasury, insurance and fees.
// The staking share vests over the rewards period.
func (e *Engine) HandleProfit(ctx context.Context, caller, matchID string, profit *num.Uint, now time.Time) {
	staking := share(profit, stakingShare)
	treasury := share(profit, treasuryShare)
	insurance := share(profit, insuranceShare)
	fees := num.UintZero().Sub(profit, num.Sum(staking, treasury, insurance))

	e.fees.Add(e.fees, fees)
	e.insurance.Add(e.insurance, insurance)
	e.payTreasury(ctx, treasury)

	// vest what is queued up to now before the new entry starts, the new
	// entry has nothing vested yet
	e.tryStakeSwap(ctx, caller, now)
	if err := e.vesting.Enqueue(ctx, matchID, staking, now); err != nil {
		e.log.Panic("could not queue staking rewards",
			logging.MatchID(matchID),
			logging.Error(err),
		)
	}

	e.broker.Send(events.NewProfitDistributionEvent(ctx, matchID, staking, treasury, insurance, fees))
	e.log.Info("profit distributed",
		logging.MatchID(matchID),
		logging.BigUint("profit", profit),
		logging.BigUint("staking", staking),
		logging.BigUint("treasury", treasury),
		logging.BigUint("insurance", insurance),
		logging.BigUint("fees", fees),
	)
}

func share(amount *num.Uint, pct uint64) *num.Uint {
	return num.UintZero().Div(num.UintZero().Mul(amount, num.NewUint(pct)), hundred)
}

func (e *Engine) tryStakeSwap(ctx context.Context, caller string, now time.Time) {
	if _, err := e.vesting.PerformStakeSwap(ctx, caller, now); err != nil {
		e.log.Debug("no stake swap after profit", logging.Error(err))
	}
}

func (e *Engine) payTreasury(ctx context.Context, amount *num.Uint) {
	if amount.IsZero() {
		return
	}
	amount = amount.Clone()
	e.usdc.Transfer(ctx, e.treasury, amount, func(ctx context.Context, err error) {
		if err == nil {
			return
		}
		e.treasuryArrears.Add(e.treasuryArrears, amount)
		e.log.Error("treasury transfer failed, amount kept in arrears",
			logging.String("treasury", e.treasury),
			logging.BigUint("amount", amount),
			logging.BigUint("arrears", e.treasuryArrears),
			logging.Error(err),
		)
	})
}

// FlushTreasury retries every failed treasury transfer at once.
func (e *Engine) FlushTreasury(ctx context.Context) (*num.Uint, error) {
	if e.treasuryArrears.IsZero() {
		return nil, fmt.Errorf("%w: %w", ErrNoArrears, types.ErrInvalidState)
	}
	amount := e.treasuryArrears
	e.treasuryArrears = num.UintZero()
	e.payTreasury(ctx, amount)
	return amount.Clone(), nil
}

// AddFunds pays down the outstanding liability first, the rest goes to
// the insurance fund.
func (e *Engine) AddFunds(ctx context.Context, party string, amount *num.Uint) {
	toDebt := num.Min(amount, e.fundsToAdd).Clone()
	toInsurance := num.UintZero().Sub(amount, toDebt)
	e.fundsToAdd.Sub(e.fundsToAdd, toDebt)
	e.insurance.Add(e.insurance, toInsurance)

	e.broker.Send(events.NewFundsAddedEvent(ctx, party, toDebt, toInsurance))
	e.log.Info("funds added",
		logging.PartyID(party),
		logging.BigUint("to-funds-to-add", toDebt),
		logging.BigUint("to-insurance", toInsurance),
	)
}

// HandleLoss covers a match loss from the insurance fund, selling staked
// tokens for whatever it can't cover.
func (e *Engine) HandleLoss(ctx context.Context, matchID string, loss *num.Uint) error {
	if _, ok := e.sagas[matchID]; ok {
		return fmt.Errorf("%w: %s: %w", ErrSagaExists, matchID, types.ErrInvalidState)
	}
	saga := &types.LossSaga{
		MatchID:   matchID,
		State:     types.SagaStateIdle,
		Loss:      loss.Clone(),
		Covered:   num.UintZero(),
		Shortfall: num.UintZero(),
	}
	e.sagas[matchID] = saga
	e.startLoss(ctx, saga)
	return nil
}

// RetryLoss starts again a loss settlement whose quote failed.
func (e *Engine) RetryLoss(ctx context.Context, matchID string) error {
	saga, ok := e.sagas[matchID]
	if !ok {
		return fmt.Errorf("no loss settlement for %s: %w", matchID, types.ErrNotFound)
	}
	if saga.State != types.SagaStateIdle {
		return fmt.Errorf("%w: %s is %v: %w", ErrSagaNotRetriable, matchID, saga.State, types.ErrInvalidState)
	}
	saga.Reason = ""
	e.startLoss(ctx, saga)
	return nil
}

func (e *Engine) startLoss(ctx context.Context, saga *types.LossSaga) {
	if e.coverFromInsurance(ctx, saga) {
		return
	}
	saga.Covered = e.insurance.Clone()
	saga.Shortfall = num.UintZero().Sub(saga.Loss, e.insurance)
	saga.State = types.SagaStateAwaitingQuote
	e.broker.Send(events.NewLossSettlementEvent(ctx, saga))
	e.log.Warn("insurance fund can't cover the loss, selling staked tokens",
		logging.MatchID(saga.MatchID),
		logging.BigUint("loss", saga.Loss),
		logging.BigUint("shortfall", saga.Shortfall),
	)

	id, shortfall := saga.MatchID, saga.Shortfall.Clone()
	e.pool.Quote(ctx, e.vex, e.usdc.ID(), shortfall, func(ctx context.Context, amountIn *num.Uint, err error) {
		e.onQuote(ctx, id, shortfall, amountIn, err)
	})
}

// coverFromInsurance settles the saga synchronously if the insurance fund
// is enough.
func (e *Engine) coverFromInsurance(ctx context.Context, saga *types.LossSaga) bool {
	if e.insurance.LT(saga.Loss) {
		return false
	}
	e.insurance.Sub(e.insurance, saga.Loss)
	saga.Covered = saga.Loss.Clone()
	saga.Shortfall = num.UintZero()
	saga.State = types.SagaStateSettled
	e.broker.Send(events.NewLossSettlementEvent(ctx, saga))
	e.log.Info("loss covered by the insurance fund",
		logging.MatchID(saga.MatchID),
		logging.BigUint("loss", saga.Loss),
		logging.BigUint("insurance", e.insurance),
	)
	return true
}

func (e *Engine) current(matchID string, state types.SagaState) *types.LossSaga {
	saga, ok := e.sagas[matchID]
	if !ok || saga.State != state {
		e.log.Error("unexpected loss settlement continuation",
			logging.MatchID(matchID),
			logging.String("expected-state", state.String()),
		)
		return nil
	}
	return saga
}

func (e *Engine) onQuote(ctx context.Context, matchID string, quoted, amountIn *num.Uint, err error) {
	saga := e.current(matchID, types.SagaStateAwaitingQuote)
	if saga == nil {
		return
	}
	if err == nil && (amountIn == nil || amountIn.IsZero()) {
		err = fmt.Errorf("empty quote: %w", types.ErrExternalCallFailure)
	}
	if err != nil {
		// nothing moved yet, the saga waits for a retry
		saga.State = types.SagaStateIdle
		saga.Covered = num.UintZero()
		saga.Shortfall = num.UintZero()
		saga.Reason = err.Error()
		e.broker.Send(events.NewLossSettlementEvent(ctx, saga))
		e.log.Warn("quote for the loss failed, settlement can be retried",
			logging.MatchID(matchID),
			logging.Error(err),
		)
		return
	}

	// the insurance fund may have changed since the quote was asked
	if e.coverFromInsurance(ctx, saga) {
		return
	}
	saga.Covered = e.insurance.Clone()
	saga.Shortfall = num.UintZero().Sub(saga.Loss, e.insurance)
	if !saga.Shortfall.EQ(quoted) {
		amountIn, _ = num.MulDivUp(amountIn, saga.Shortfall, quoted)
	}

	deposit := num.UintZero().Div(num.UintZero().Mul(amountIn, num.NewUint(quotePadding)), hundred)
	if staked := e.staking.TotalStaked(); staked.LT(deposit) {
		e.log.Error("not enough staked to sell for the loss",
			logging.MatchID(matchID),
			logging.BigUint("needed", deposit),
			logging.BigUint("staked", staked),
		)
		deposit = staked
	}
	if deposit.IsZero() {
		e.degradeUncommitted(ctx, saga, errors.New("nothing staked to sell"))
		return
	}

	saga.AmountIn = deposit.Clone()
	saga.State = types.SagaStateAwaitingDeposit
	e.broker.Send(events.NewLossSettlementEvent(ctx, saga))
	e.pool.Deposit(ctx, e.vex, deposit.Clone(), func(ctx context.Context, err error) {
		e.onDeposit(ctx, matchID, err)
	})
}

func (e *Engine) onDeposit(ctx context.Context, matchID string, err error) {
	saga := e.current(matchID, types.SagaStateAwaitingDeposit)
	if saga == nil {
		return
	}
	if err != nil {
		e.degradeUncommitted(ctx, saga, err)
		return
	}

	deposited := e.absorbDeposit(ctx, saga)
	e.debitCovered(saga)

	saga.Deposited = deposited
	saga.State = types.SagaStateAwaitingSwap
	e.broker.Send(events.NewLossSettlementEvent(ctx, saga))
	e.pool.Swap(ctx, e.vex, e.usdc.ID(), deposited.Clone(), num.UintZero(), func(ctx context.Context, out *num.Uint, err error) {
		e.onSwap(ctx, matchID, out, err)
	})
}

// absorbDeposit takes the staked tokens sent to the pool out of the total
// staked balance and returns the deposit.
func (e *Engine) absorbDeposit(ctx context.Context, saga *types.LossSaga) *num.Uint {
	deposited := saga.AmountIn.Clone()
	absorbed := num.Min(deposited, e.staking.TotalStaked()).Clone()
	if err := e.staking.AbsorbLoss(ctx, absorbed); err != nil {
		e.log.Panic("could not absorb the loss", logging.MatchID(saga.MatchID), logging.Error(err))
	}
	if absorbed.LT(deposited) {
		e.log.Error("staked balance dropped below the deposit",
			logging.MatchID(saga.MatchID),
			logging.BigUint("deposited", deposited),
			logging.BigUint("absorbed", absorbed),
		)
	}
	return deposited
}

// debitCovered takes the covered part of the loss out of the insurance
// fund, what it no longer holds is added to the shortfall.
func (e *Engine) debitCovered(saga *types.LossSaga) {
	debit := num.Min(saga.Covered, e.insurance).Clone()
	if gap := num.UintZero().Sub(saga.Covered, debit); !gap.IsZero() {
		saga.Shortfall.Add(saga.Shortfall, gap)
		saga.Covered = debit.Clone()
	}
	e.insurance.Sub(e.insurance, debit)
}

func (e *Engine) onSwap(ctx context.Context, matchID string, out *num.Uint, err error) {
	saga := e.current(matchID, types.SagaStateAwaitingSwap)
	if saga == nil {
		return
	}
	if err == nil && (out == nil || out.IsZero()) {
		err = fmt.Errorf("swap returned nothing: %w", types.ErrExternalCallFailure)
	}
	if err != nil {
		e.degrade(ctx, saga, e.vex, saga.Deposited, err)
		return
	}
	saga.Swapped = out.Clone()
	saga.State = types.SagaStateAwaitingWithdraw
	e.broker.Send(events.NewLossSettlementEvent(ctx, saga))
	e.pool.Withdraw(ctx, e.usdc.ID(), out.Clone(), func(ctx context.Context, err error) {
		e.onWithdraw(ctx, matchID, err)
	})
}

func (e *Engine) onWithdraw(ctx context.Context, matchID string, err error) {
	saga := e.current(matchID, types.SagaStateAwaitingWithdraw)
	if saga == nil {
		return
	}
	if err != nil {
		e.degrade(ctx, saga, e.usdc.ID(), saga.Swapped, err)
		return
	}
	withdrawn := saga.Swapped.Clone()
	saga.Withdrawn = withdrawn.Clone()
	saga.State = types.SagaStateSettled

	if withdrawn.GTE(saga.Shortfall) {
		excess := num.UintZero().Sub(withdrawn, saga.Shortfall)
		e.insurance.Add(e.insurance, excess)
	} else {
		deficit := num.UintZero().Sub(saga.Shortfall, withdrawn)
		e.fundsToAdd.Add(e.fundsToAdd, deficit)
		e.log.Error("swap proceeds below the shortfall, funds need to be added",
			logging.MatchID(matchID),
			logging.BigUint("deficit", deficit),
			logging.BigUint("funds-to-add", e.fundsToAdd),
		)
	}

	metrics.SagaSettledCounterInc("loss")
	e.broker.Send(events.NewLossSettlementEvent(ctx, saga))
	e.log.Info("loss settled",
		logging.MatchID(matchID),
		logging.BigUint("sold", saga.Deposited),
		logging.BigUint("withdrawn", withdrawn),
	)
}

// degradeUncommitted fails a saga before any staked token left the
// contract. The loss still stands so the insurance fund is used and the
// rest is owed.
func (e *Engine) degradeUncommitted(ctx context.Context, saga *types.LossSaga, cause error) {
	e.debitCovered(saga)
	e.degrade(ctx, saga, "", nil, cause)
}

func (e *Engine) degrade(ctx context.Context, saga *types.LossSaga, token string, amount *num.Uint, cause error) {
	saga.State = types.SagaStateDegraded
	saga.Reason = cause.Error()
	e.fundsToAdd.Add(e.fundsToAdd, saga.Shortfall)
	e.addStranded(token, amount)

	metrics.SagaDegradedCounterInc("loss")
	e.broker.Send(events.NewLossSettlementEvent(ctx, saga))
	e.log.Error("loss settlement degraded, manual action required",
		logging.MatchID(saga.MatchID),
		logging.String("token", token),
		logging.BigUint("stranded", amount),
		logging.BigUint("funds-to-add", e.fundsToAdd),
		logging.Error(cause),
	)
}

func (e *Engine) addStranded(token string, amount *num.Uint) {
	if amount == nil || amount.IsZero() {
		return
	}
	s, ok := e.stranded[token]
	if !ok {
		s = num.UintZero()
		e.stranded[token] = s
	}
	s.Add(s, amount)
}

func (e *Engine) InsuranceFund() *num.Uint {
	return e.insurance.Clone()
}

func (e *Engine) FeesFund() *num.Uint {
	return e.fees.Clone()
}

func (e *Engine) FundsToAdd() *num.Uint {
	return e.fundsToAdd.Clone()
}

func (e *Engine) TreasuryArrears() *num.Uint {
	return e.treasuryArrears.Clone()
}

// Stranded returns the tokens left in the pool by degraded loss settlements.
func (e *Engine) Stranded() map[string]*num.Uint {
	out := make(map[string]*num.Uint, len(e.stranded))
	for k, v := range e.stranded {
		out[k] = v.Clone()
	}
	return out
}

func (e *Engine) GetSaga(matchID string) (*types.LossSaga, error) {
	saga, ok := e.sagas[matchID]
	if !ok {
		return nil, fmt.Errorf("no loss settlement for %s: %w", matchID, types.ErrNotFound)
	}
	return saga.Clone(), nil
}

// Sagas returns every loss settlement sorted by match id.
func (e *Engine) Sagas() []*types.LossSaga {
	ids := make([]string, 0, len(e.sagas))
	for id := range e.sagas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*types.LossSaga, 0, len(ids))
	for _, id := range ids {
		out = append(out, e.sagas[id].Clone())
	}
	return out
}
