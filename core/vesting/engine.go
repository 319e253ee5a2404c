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

package vesting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"code.vegaprotocol.io/betvex/core/events"
	"code.vegaprotocol.io/betvex/core/ext"
	"code.vegaprotocol.io/betvex/core/types"
	"code.vegaprotocol.io/betvex/libs/num"
	"code.vegaprotocol.io/betvex/logging"
	"code.vegaprotocol.io/betvex/metrics"
)

var (
	ErrSwapInFlight       = errors.New("a stake swap is already in flight")
	ErrNotEnoughToSwap    = errors.New("rewards to swap under the minimum")
	ErrRewardsPeriodUnset = errors.New("rewards period is not set")
)

// incentive paid to the caller of a stake swap, in percent of the proceeds.
var callerIncentive = num.NewUint(1)

// Broker send events.
type Broker interface {
	Send(event events.Event)
}

// Staking receives the proceeds of the swaps.
type Staking interface {
	AddRewards(ctx context.Context, amount *num.Uint)
}

// Engine queues the staking share of every profitable match and releases
// it linearly over the rewards period. Released rewards are swapped for the
// staking token in the liquidity pool and added to the staked balance.
type Engine struct {
	log     *logging.Logger
	cfg     Config
	broker  Broker
	pool    ext.LiquidityPool
	vex     ext.Token
	staking Staking
	usdc    string

	queue []*types.MatchStakeInfo
	// sum of what is left to release in the queue
	rewards  *num.Uint
	lastSwap time.Time

	swapID   uint64
	inFlight *pendingSwap
	degraded []*types.StakeSwap
	stranded map[string]*num.Uint

	rewardsPeriod time.Duration
	minSwapAmount *num.Uint
}

// pendingSwap holds what is needed to undo an accepted swap whose deposit
// failed.
type pendingSwap struct {
	swap     *types.StakeSwap
	prevSwap time.Time
	// entries removed from the head of the queue, as they were
	dequeued []*types.MatchStakeInfo
	// slices released from entries left in the queue
	released map[string]*num.Uint
}

func New(log *logging.Logger, cfg Config, broker Broker, pool ext.LiquidityPool, vex ext.Token, usdc string, staking Staking) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	return &Engine{
		log:           log,
		cfg:           cfg,
		broker:        broker,
		pool:          pool,
		vex:           vex,
		staking:       staking,
		usdc:          usdc,
		rewards:       num.UintZero(),
		stranded:      map[string]*num.Uint{},
		minSwapAmount: num.UintZero(),
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

func (e *Engine) OnRewardsPeriodUpdate(_ context.Context, d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%w: %w", ErrRewardsPeriodUnset, types.ErrInvalidArgument)
	}
	e.rewardsPeriod = d
	return nil
}

func (e *Engine) OnMinSwapAmountUpdate(_ context.Context, v *num.Uint) error {
	e.minSwapAmount = v.Clone()
	return nil
}

// Enqueue adds the staking share of a match, vesting from now until the end
// of the rewards period.
func (e *Engine) Enqueue(_ context.Context, matchID string, amount *num.Uint, now time.Time) error {
	if e.rewardsPeriod <= 0 {
		return fmt.Errorf("%w: %w", ErrRewardsPeriodUnset, types.ErrInvalidState)
	}
	if amount.IsZero() {
		return nil
	}
	e.queue = append(e.queue, &types.MatchStakeInfo{
		MatchID:  matchID,
		Rewards:  amount.Clone(),
		Released: num.UintZero(),
		Start:    now,
		End:      now.Add(e.rewardsPeriod),
	})
	e.rewards.Add(e.rewards, amount)
	e.log.Info("staking rewards queued",
		logging.MatchID(matchID),
		logging.BigUint("amount", amount),
		logging.Time("vested-at", now.Add(e.rewardsPeriod)),
	)
	return nil
}

// release is what an entry vests between the last swap and now.
func (e *Engine) release(info *types.MatchStakeInfo, now time.Time) (*num.Uint, bool, error) {
	remaining := info.Remaining()
	if !info.End.After(now) {
		return remaining, true, nil
	}
	from := info.Start
	if e.lastSwap.After(from) {
		from = e.lastSwap
	}
	if !now.After(from) {
		return num.UintZero(), false, nil
	}
	slice, err := num.MulDiv(info.Rewards, num.NewUint(uint64(now.Sub(from))), num.NewUint(uint64(e.rewardsPeriod)))
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", err, types.ErrInvariantViolation)
	}
	return num.Min(slice, remaining), false, nil
}

// Vested returns what a stake swap at now would move, without changing anything.
func (e *Engine) Vested(now time.Time) (*num.Uint, error) {
	total := num.UintZero()
	for _, info := range e.queue {
		r, _, err := e.release(info, now)
		if err != nil {
			return nil, err
		}
		total.Add(total, r)
	}
	return total, nil
}

// PerformStakeSwap swaps everything vested since the last swap for the
// staking token. The caller is paid an incentive out of the proceeds.
func (e *Engine) PerformStakeSwap(ctx context.Context, caller string, now time.Time) (*types.StakeSwap, error) {
	if e.inFlight != nil {
		return nil, fmt.Errorf("%w: %w", ErrSwapInFlight, types.ErrInvalidState)
	}
	if e.rewardsPeriod <= 0 {
		return nil, fmt.Errorf("%w: %w", ErrRewardsPeriodUnset, types.ErrInvalidState)
	}

	total := num.UintZero()
	dequeue := 0
	slices := map[string]*num.Uint{}
	for i, info := range e.queue {
		r, expired, err := e.release(info, now)
		if err != nil {
			return nil, err
		}
		total.Add(total, r)
		if expired {
			// entries are ordered by end time
			if dequeue == i {
				dequeue++
				continue
			}
		}
		if !r.IsZero() {
			slices[info.MatchID] = r
		}
	}
	if !total.GT(e.minSwapAmount) {
		return nil, fmt.Errorf("%w: %s vested, must be more than %s: %w", ErrNotEnoughToSwap, total, e.minSwapAmount, types.ErrInvalidState)
	}

	// accepted, from here the compensation record tracks every change
	e.swapID++
	pending := &pendingSwap{
		swap: &types.StakeSwap{
			ID:     e.swapID,
			Caller: caller,
			State:  types.SagaStateAwaitingDeposit,
			Amount: total.Clone(),
		},
		prevSwap: e.lastSwap,
		released: slices,
	}
	for _, info := range e.queue[:dequeue] {
		pending.dequeued = append(pending.dequeued, info.Clone())
	}
	e.queue = e.queue[dequeue:]
	for _, info := range e.queue {
		if r, ok := slices[info.MatchID]; ok {
			info.Released.Add(info.Released, r)
		}
	}
	e.rewards.Sub(e.rewards, total)
	e.lastSwap = now
	e.inFlight = pending

	e.log.Info("stake swap started",
		logging.Uint64("swap-id", pending.swap.ID),
		logging.PartyID(caller),
		logging.BigUint("amount", total),
		logging.Int("dequeued", dequeue),
	)
	e.broker.Send(events.NewStakeSwapEvent(ctx, pending.swap))

	id := pending.swap.ID
	e.pool.Deposit(ctx, e.usdc, total.Clone(), func(ctx context.Context, err error) {
		e.onDeposit(ctx, id, err)
	})
	return pending.swap.Clone(), nil
}

func (e *Engine) current(id uint64, state types.SagaState) *pendingSwap {
	if e.inFlight == nil || e.inFlight.swap.ID != id || e.inFlight.swap.State != state {
		e.log.Error("unexpected stake swap continuation",
			logging.Uint64("swap-id", id),
			logging.String("expected-state", state.String()),
		)
		return nil
	}
	return e.inFlight
}

func (e *Engine) onDeposit(ctx context.Context, id uint64, err error) {
	p := e.current(id, types.SagaStateAwaitingDeposit)
	if p == nil {
		return
	}
	if err != nil {
		e.compensate(ctx, p, err)
		return
	}
	p.swap.Deposited = p.swap.Amount.Clone()
	p.swap.State = types.SagaStateAwaitingSwap
	e.broker.Send(events.NewStakeSwapEvent(ctx, p.swap))

	e.pool.Swap(ctx, e.usdc, e.vex.ID(), p.swap.Amount.Clone(), num.UintZero(), func(ctx context.Context, out *num.Uint, err error) {
		e.onSwap(ctx, id, out, err)
	})
}

// compensate undoes an accepted swap whose deposit failed, a later swap
// recomputes the same obligation.
func (e *Engine) compensate(ctx context.Context, p *pendingSwap, cause error) {
	for _, info := range e.queue {
		if r, ok := p.released[info.MatchID]; ok {
			info.Released.Sub(info.Released, r)
		}
	}
	e.queue = append(p.dequeued, e.queue...)
	e.rewards.Add(e.rewards, p.swap.Amount)
	e.lastSwap = p.prevSwap
	e.inFlight = nil

	p.swap.State = types.SagaStateIdle
	p.swap.Reason = cause.Error()
	e.broker.Send(events.NewStakeSwapEvent(ctx, p.swap))
	e.log.Warn("stake swap deposit failed, rewards restored",
		logging.Uint64("swap-id", p.swap.ID),
		logging.BigUint("amount", p.swap.Amount),
		logging.Error(cause),
	)
}

func (e *Engine) onSwap(ctx context.Context, id uint64, out *num.Uint, err error) {
	p := e.current(id, types.SagaStateAwaitingSwap)
	if p == nil {
		return
	}
	if err == nil && (out == nil || out.IsZero()) {
		err = fmt.Errorf("swap returned nothing: %w", types.ErrExternalCallFailure)
	}
	if err != nil {
		e.degrade(ctx, p, e.usdc, p.swap.Amount, err)
		return
	}
	p.swap.Swapped = out.Clone()
	p.swap.State = types.SagaStateAwaitingWithdraw
	e.broker.Send(events.NewStakeSwapEvent(ctx, p.swap))

	e.pool.Withdraw(ctx, e.vex.ID(), out.Clone(), func(ctx context.Context, err error) {
		e.onWithdraw(ctx, id, err)
	})
}

func (e *Engine) onWithdraw(ctx context.Context, id uint64, err error) {
	p := e.current(id, types.SagaStateAwaitingWithdraw)
	if p == nil {
		return
	}
	if err != nil {
		e.degrade(ctx, p, e.vex.ID(), p.swap.Swapped, err)
		return
	}
	withdrawn := p.swap.Swapped.Clone()
	p.swap.Withdrawn = withdrawn.Clone()
	p.swap.State = types.SagaStateSettled
	e.inFlight = nil

	incentive := num.UintZero().Div(num.UintZero().Mul(withdrawn, callerIncentive), num.NewUint(100))
	rewards := num.UintZero().Sub(withdrawn, incentive)
	e.staking.AddRewards(ctx, rewards)
	if !incentive.IsZero() {
		caller := p.swap.Caller
		e.vex.Transfer(ctx, caller, incentive, func(ctx context.Context, err error) {
			if err != nil {
				e.log.Warn("stake swap incentive transfer failed, given to stakers",
					logging.PartyID(caller),
					logging.BigUint("amount", incentive),
					logging.Error(err),
				)
				e.staking.AddRewards(ctx, incentive)
			}
		})
	}

	metrics.SagaSettledCounterInc("stake_swap")
	e.broker.Send(events.NewStakeSwapEvent(ctx, p.swap))
	e.log.Info("stake swap settled",
		logging.Uint64("swap-id", p.swap.ID),
		logging.BigUint("withdrawn", withdrawn),
		logging.BigUint("incentive", incentive),
	)
}

func (e *Engine) degrade(ctx context.Context, p *pendingSwap, token string, amount *num.Uint, cause error) {
	p.swap.State = types.SagaStateDegraded
	p.swap.Reason = cause.Error()
	e.addStranded(token, amount)
	e.degraded = append(e.degraded, p.swap)
	e.inFlight = nil

	metrics.SagaDegradedCounterInc("stake_swap")
	e.broker.Send(events.NewStakeSwapEvent(ctx, p.swap))
	e.log.Error("stake swap degraded, funds left in the pool",
		logging.Uint64("swap-id", p.swap.ID),
		logging.String("token", token),
		logging.BigUint("stranded", amount),
		logging.Error(cause),
	)
}

func (e *Engine) addStranded(token string, amount *num.Uint) {
	s, ok := e.stranded[token]
	if !ok {
		s = num.UintZero()
		e.stranded[token] = s
	}
	s.Add(s, amount)
}

func (e *Engine) Queue() []*types.MatchStakeInfo {
	out := make([]*types.MatchStakeInfo, 0, len(e.queue))
	for _, info := range e.queue {
		out = append(out, info.Clone())
	}
	return out
}

func (e *Engine) Rewards() *num.Uint {
	return e.rewards.Clone()
}

func (e *Engine) LastSwap() time.Time {
	return e.lastSwap
}

func (e *Engine) InFlight() *types.StakeSwap {
	if e.inFlight == nil {
		return nil
	}
	return e.inFlight.swap.Clone()
}

func (e *Engine) Degraded() []*types.StakeSwap {
	out := make([]*types.StakeSwap, 0, len(e.degraded))
	for _, s := range e.degraded {
		out = append(out, s.Clone())
	}
	return out
}

// Stranded returns the tokens left in the pool by degraded swaps.
func (e *Engine) Stranded() map[string]*num.Uint {
	out := make(map[string]*num.Uint, len(e.stranded))
	for k, v := range e.stranded {
		out[k] = v.Clone()
	}
	return out
}
