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

package staking

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
)

var (
	ErrNoStake                = errors.New("account does not have any stake")
	ErrUnstakeLocked          = errors.New("stake is locked")
	ErrResidualTooSmall       = errors.New("residual balance under the minimum")
	ErrGuaranteeFundExhausted = errors.New("share price guarantee fund exhausted")
	ErrAmountMustBePositive   = errors.New("amount must be positive")
	ErrLossAboveStakedBalance = errors.New("loss above the total staked balance")
)

// Broker send events.
type Broker interface {
	Send(event events.Event)
}

// Engine does the share accounting of the staking pool. Stakers own shares
// of the total staked balance, the price of a share only goes down when a
// loss is absorbed.
type Engine struct {
	log    *logging.Logger
	cfg    Config
	broker Broker
	token  ext.Token

	accounts    map[string]*types.UserStake
	totalStaked *num.Uint
	totalShares *num.Uint
	// pays the rounding drift of unstakes, not part of the staked balance
	guaranteeFund *num.Uint

	minResidual   *num.Uint
	unstakeLockup time.Duration
}

func New(log *logging.Logger, cfg Config, broker Broker, token ext.Token) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	return &Engine{
		log:           log,
		cfg:           cfg,
		broker:        broker,
		token:         token,
		accounts:      map[string]*types.UserStake{},
		totalStaked:   num.UintZero(),
		totalShares:   num.UintZero(),
		guaranteeFund: num.UintZero(),
		minResidual:   num.UintZero(),
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

func (e *Engine) OnMinStakeResidualUpdate(_ context.Context, v *num.Uint) error {
	e.minResidual = v.Clone()
	return nil
}

func (e *Engine) OnUnstakeLockupUpdate(_ context.Context, d time.Duration) error {
	e.unstakeLockup = d
	return nil
}

func (e *Engine) OnGuaranteeFundUpdate(_ context.Context, v *num.Uint) error {
	e.guaranteeFund = v.Clone()
	return nil
}

// Deposit credits the unstaked balance of party with tokens already
// received by the contract.
func (e *Engine) Deposit(_ context.Context, party string, amount *num.Uint) error {
	if amount.IsZero() {
		return fmt.Errorf("%w: %w", ErrAmountMustBePositive, types.ErrInvalidArgument)
	}
	staked := num.UintZero()
	unstaked := num.UintZero()
	if acc, ok := e.accounts[party]; ok {
		unstaked = acc.UnstakedBalance
		if !acc.StakeShares.IsZero() {
			var err error
			if staked, err = e.AmountFromShares(acc.StakeShares, true); err != nil {
				return err
			}
		}
	}
	if total := num.Sum(staked, unstaked, amount); total.LT(e.minResidual) {
		return fmt.Errorf("%w: must hold at least %s staked or deposited: %w", ErrResidualTooSmall, e.minResidual, types.ErrInvalidArgument)
	}

	acc, ok := e.accounts[party]
	if !ok {
		acc = types.NewUserStake()
		e.accounts[party] = acc
	}
	acc.UnstakedBalance.Add(acc.UnstakedBalance, amount)
	e.log.Debug("stake deposit", logging.PartyID(party), logging.BigUint("amount", amount))
	return nil
}

// Stake moves amount from the unstaked balance into shares. The shares are
// rounded down and the amount charged for them rounded up.
func (e *Engine) Stake(ctx context.Context, party string, amount *num.Uint, now time.Time) (*num.Uint, error) {
	if amount.IsZero() {
		return nil, fmt.Errorf("%w: %w", ErrAmountMustBePositive, types.ErrInvalidArgument)
	}
	acc, ok := e.accounts[party]
	if !ok {
		return nil, fmt.Errorf("%w: %w", ErrNoStake, types.ErrNotFound)
	}

	var shares, charge *num.Uint
	if e.totalShares.IsZero() {
		// empty pool, one share per token
		shares, charge = amount.Clone(), amount.Clone()
	} else {
		var err error
		if shares, err = e.SharesFromAmount(amount, false); err != nil {
			return nil, err
		}
		if shares.IsZero() {
			return nil, fmt.Errorf("amount %s is worth less than a share: %w", amount, types.ErrInvalidArgument)
		}
		if charge, err = e.AmountFromShares(shares, true); err != nil {
			return nil, err
		}
		if charge.GT(amount) {
			return nil, fmt.Errorf("charge %s above staked amount %s: %w", charge, amount, types.ErrInvariantViolation)
		}
	}
	if acc.UnstakedBalance.LT(charge) {
		return nil, fmt.Errorf("unstaked balance %s under %s: %w", acc.UnstakedBalance, charge, types.ErrInsufficientBalance)
	}

	acc.UnstakedBalance.Sub(acc.UnstakedBalance, charge)
	acc.StakeShares.Add(acc.StakeShares, shares)
	acc.UnstakeTimestamp = now.Add(e.unstakeLockup)
	e.totalStaked.Add(e.totalStaked, charge)
	e.totalShares.Add(e.totalShares, shares)

	e.broker.Send(events.NewStakeVexEvent(ctx, party, charge, e.totalStaked))
	e.log.Debug("stake",
		logging.PartyID(party),
		logging.BigUint("charge", charge),
		logging.BigUint("shares", shares),
	)
	return shares, nil
}

// StakeAll stakes the whole unstaked balance.
func (e *Engine) StakeAll(ctx context.Context, party string, now time.Time) (*num.Uint, error) {
	acc, ok := e.accounts[party]
	if !ok {
		return nil, fmt.Errorf("%w: %w", ErrNoStake, types.ErrNotFound)
	}
	return e.Stake(ctx, party, acc.UnstakedBalance.Clone(), now)
}

// Unstake burns the shares worth amount, rounded up, into the unstaked
// balance. The party receives the up-rounded value of the shares while the
// total staked balance only loses the down-rounded one, the guarantee fund
// pays the difference.
func (e *Engine) Unstake(ctx context.Context, party string, amount *num.Uint, now time.Time) (*num.Uint, error) {
	if amount.IsZero() {
		return nil, fmt.Errorf("%w: %w", ErrAmountMustBePositive, types.ErrInvalidArgument)
	}
	acc, ok := e.accounts[party]
	if !ok || acc.StakeShares.IsZero() {
		return nil, fmt.Errorf("%w: %w", ErrNoStake, types.ErrNotFound)
	}
	if now.Before(acc.UnstakeTimestamp) {
		return nil, fmt.Errorf("%w until %s: %w", ErrUnstakeLocked, acc.UnstakeTimestamp.UTC().Format(time.RFC3339), types.ErrInvalidState)
	}

	shares, err := e.SharesFromAmount(amount, true)
	if err != nil {
		return nil, err
	}
	if shares.IsZero() {
		return nil, fmt.Errorf("shares to unstake must be positive: %w", types.ErrInvariantViolation)
	}
	if acc.StakeShares.LT(shares) {
		return nil, fmt.Errorf("not enough staked balance to unstake %s: %w", amount, types.ErrInsufficientBalance)
	}
	return e.burn(ctx, party, acc, shares)
}

// UnstakeAll burns every share of party. The shares are burnt as they are,
// an amount round trip could leave dust shares behind once the share price
// is under one.
func (e *Engine) UnstakeAll(ctx context.Context, party string, now time.Time) (*num.Uint, error) {
	acc, ok := e.accounts[party]
	if !ok || acc.StakeShares.IsZero() {
		return nil, fmt.Errorf("%w: %w", ErrNoStake, types.ErrNotFound)
	}
	if now.Before(acc.UnstakeTimestamp) {
		return nil, fmt.Errorf("%w until %s: %w", ErrUnstakeLocked, acc.UnstakeTimestamp.UTC().Format(time.RFC3339), types.ErrInvalidState)
	}
	return e.burn(ctx, party, acc, acc.StakeShares.Clone())
}

// burn moves shares of acc into its unstaked balance.
func (e *Engine) burn(ctx context.Context, party string, acc *types.UserStake, shares *num.Uint) (*num.Uint, error) {
	receive, err := e.AmountFromShares(shares, true)
	if err != nil {
		return nil, err
	}
	if receive.IsZero() {
		return nil, fmt.Errorf("unstaked amount must be positive: %w", types.ErrInvariantViolation)
	}
	debit, err := e.AmountFromShares(shares, false)
	if err != nil {
		return nil, err
	}
	stakedBalance, err := e.AmountFromShares(acc.StakeShares, true)
	if err != nil {
		return nil, err
	}

	remainingShares := num.UintZero().Sub(acc.StakeShares, shares)
	if !remainingShares.IsZero() {
		residual, underflow := num.UintZero().SubOverflow(stakedBalance, debit)
		if underflow || residual.LT(e.minResidual) {
			return nil, fmt.Errorf("%w: keep at least %s staked or unstake all: %w", ErrResidualTooSmall, e.minResidual, types.ErrInvalidArgument)
		}
	}
	drift := num.UintZero().Sub(receive, debit)
	if e.guaranteeFund.LT(drift) {
		return nil, fmt.Errorf("%w: %w", ErrGuaranteeFundExhausted, types.ErrInsufficientBalance)
	}

	acc.StakeShares = remainingShares
	acc.UnstakedBalance.Add(acc.UnstakedBalance, receive)
	e.totalStaked.Sub(e.totalStaked, debit)
	e.totalShares.Sub(e.totalShares, shares)
	e.guaranteeFund.Sub(e.guaranteeFund, drift)

	e.broker.Send(events.NewUnstakeVexEvent(ctx, party, receive, e.totalStaked))
	e.log.Debug("unstake",
		logging.PartyID(party),
		logging.BigUint("received", receive),
		logging.BigUint("shares", shares),
		logging.BigUint("drift", drift),
	)
	return receive, nil
}

// Withdraw transfers unstaked tokens back to party. The balance is debited
// before the transfer and credited again if it fails.
func (e *Engine) Withdraw(ctx context.Context, party string, amount *num.Uint) error {
	if amount.IsZero() {
		return fmt.Errorf("%w: %w", ErrAmountMustBePositive, types.ErrInvalidArgument)
	}
	acc, ok := e.accounts[party]
	if !ok {
		return fmt.Errorf("%w: %w", ErrNoStake, types.ErrNotFound)
	}
	if acc.UnstakedBalance.LT(amount) {
		return fmt.Errorf("unstaked balance %s under %s: %w", acc.UnstakedBalance, amount, types.ErrInsufficientBalance)
	}
	remaining := num.UintZero().Sub(acc.UnstakedBalance, amount)
	if !remaining.IsZero() {
		staked := num.UintZero()
		if !acc.StakeShares.IsZero() {
			var err error
			if staked, err = e.AmountFromShares(acc.StakeShares, true); err != nil {
				return err
			}
		}
		if num.Sum(remaining, staked).LT(e.minResidual) {
			return fmt.Errorf("%w: keep at least %s or withdraw all: %w", ErrResidualTooSmall, e.minResidual, types.ErrInvalidArgument)
		}
	}

	acc.UnstakedBalance = remaining
	if acc.IsEmpty() {
		delete(e.accounts, party)
	}
	amount = amount.Clone()
	e.token.Transfer(ctx, party, amount, func(ctx context.Context, err error) {
		e.onWithdrawTransfer(ctx, party, amount, err)
	})
	return nil
}

// WithdrawAll withdraws the whole unstaked balance.
func (e *Engine) WithdrawAll(ctx context.Context, party string) (*num.Uint, error) {
	acc, ok := e.accounts[party]
	if !ok {
		return nil, fmt.Errorf("%w: %w", ErrNoStake, types.ErrNotFound)
	}
	amount := acc.UnstakedBalance.Clone()
	if err := e.Withdraw(ctx, party, amount); err != nil {
		return nil, err
	}
	return amount, nil
}

func (e *Engine) onWithdrawTransfer(ctx context.Context, party string, amount *num.Uint, err error) {
	if err == nil {
		e.broker.Send(events.NewWithdrawVexEvent(ctx, party, amount, e.totalStaked))
		return
	}
	e.log.Warn("withdraw transfer failed, crediting back",
		logging.PartyID(party),
		logging.BigUint("amount", amount),
		logging.Error(err),
	)
	acc, ok := e.accounts[party]
	if !ok {
		acc = types.NewUserStake()
		e.accounts[party] = acc
	}
	acc.UnstakedBalance.Add(acc.UnstakedBalance, amount)
}

// AddRewards grows the staked balance without minting shares, raising the
// share price.
func (e *Engine) AddRewards(ctx context.Context, amount *num.Uint) {
	e.totalStaked.Add(e.totalStaked, amount)
	e.log.Info("staking rewards added",
		logging.BigUint("amount", amount),
		logging.BigUint("total-staked", e.totalStaked),
	)
}

// AbsorbLoss takes amount out of the staked balance to cover a betting loss.
func (e *Engine) AbsorbLoss(ctx context.Context, amount *num.Uint) error {
	if e.totalStaked.LT(amount) {
		return fmt.Errorf("%w: %s above %s: %w", ErrLossAboveStakedBalance, amount, e.totalStaked, types.ErrInsufficientBalance)
	}
	e.totalStaked.Sub(e.totalStaked, amount)
	e.log.Warn("loss absorbed by stakers",
		logging.BigUint("amount", amount),
		logging.BigUint("total-staked", e.totalStaked),
	)
	return nil
}

func (e *Engine) TotalStaked() *num.Uint {
	return e.totalStaked.Clone()
}

func (e *Engine) TotalShares() *num.Uint {
	return e.totalShares.Clone()
}

func (e *Engine) GuaranteeFund() *num.Uint {
	return e.guaranteeFund.Clone()
}

func (e *Engine) GetUserStakeInfo(party string) (*types.UserStake, error) {
	acc, ok := e.accounts[party]
	if !ok {
		return nil, fmt.Errorf("%w: %w", ErrNoStake, types.ErrNotFound)
	}
	return acc.Clone(), nil
}

// GetUserStakedBalance is the down-rounded value of the shares of party.
func (e *Engine) GetUserStakedBalance(party string) (*num.Uint, error) {
	acc, ok := e.accounts[party]
	if !ok {
		return nil, fmt.Errorf("%w: %w", ErrNoStake, types.ErrNotFound)
	}
	if acc.StakeShares.IsZero() {
		return num.UintZero(), nil
	}
	return e.AmountFromShares(acc.StakeShares, false)
}
