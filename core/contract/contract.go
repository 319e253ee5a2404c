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

// Package contract holds the state of the betting and staking contract and
// the entry points acting on it.
package contract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"code.vegaprotocol.io/betvex/core/betting"
	"code.vegaprotocol.io/betvex/core/events"
	"code.vegaprotocol.io/betvex/core/ext"
	"code.vegaprotocol.io/betvex/core/matches"
	"code.vegaprotocol.io/betvex/core/settlement"
	"code.vegaprotocol.io/betvex/core/staking"
	"code.vegaprotocol.io/betvex/core/types"
	"code.vegaprotocol.io/betvex/core/vesting"
	"code.vegaprotocol.io/betvex/libs/num"
	"code.vegaprotocol.io/betvex/logging"
)

var ErrNotAdmin = errors.New("only the admin can call this method")

// Broker send events.
type Broker interface {
	Send(event events.Event)
}

type Contract struct {
	log    *logging.Logger
	cfg    Config
	params types.Params
	admin  string
	time   ext.TimeService

	usdc ext.Token
	vex  ext.Token

	matches    *matches.Engine
	betting    *betting.Engine
	staking    *staking.Engine
	vesting    *vesting.Engine
	settlement *settlement.Engine
}

// New initialises the contract, params can't change afterwards apart from
// the admin.
func New(
	log *logging.Logger,
	cfg Config,
	params types.Params,
	broker Broker,
	timeService ext.TimeService,
	usdc, vex ext.Token,
	pool ext.LiquidityPool,
) (*Contract, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if usdc.ID() != params.USDC || vex.ID() != params.VEX {
		return nil, fmt.Errorf("token clients don't match the params: %w", types.ErrInvalidArgument)
	}
	c := &Contract{
		log:    log.Named(namedLogger),
		cfg:    cfg,
		params: params,
		admin:  params.Admin,
		time:   timeService,
		usdc:   usdc,
		vex:    vex,
	}
	c.log.SetLevel(cfg.Level.Get())
	c.matches = matches.New(log, cfg.Matches, broker)
	c.betting = betting.New(log, cfg.Betting, broker, c.matches, usdc)
	c.staking = staking.New(log, cfg.Staking, broker, vex)
	c.vesting = vesting.New(log, cfg.Vesting, broker, pool, vex, params.USDC, c.staking)
	c.settlement = settlement.New(log, cfg.Settlement, broker, pool, usdc, params.VEX, c.staking, c.vesting, params.Treasury)

	ctx := context.Background()
	for _, set := range []func() error{
		func() error { return c.betting.OnMinBetUpdate(ctx, params.MinBet) },
		func() error { return c.staking.OnMinStakeResidualUpdate(ctx, params.MinStakeResidual) },
		func() error { return c.staking.OnUnstakeLockupUpdate(ctx, params.UnstakeLockup) },
		func() error { return c.staking.OnGuaranteeFundUpdate(ctx, params.SharePriceGuaranteeFund) },
		func() error { return c.vesting.OnRewardsPeriodUpdate(ctx, params.RewardsPeriod) },
		func() error { return c.vesting.OnMinSwapAmountUpdate(ctx, params.MinSwapAmount) },
	} {
		if err := set(); err != nil {
			return nil, err
		}
	}

	c.log.Info("contract initialised",
		logging.String("admin", params.Admin),
		logging.String("usdc", params.USDC),
		logging.String("vex", params.VEX),
		logging.String("treasury", params.Treasury),
	)
	return c, nil
}

// ReloadConf updates the configuration of the contract and its engines.
func (c *Contract) ReloadConf(cfg Config) {
	c.log.Info("reloading configuration")
	if c.log.GetLevel() != cfg.Level.Get() {
		c.log.Info("updating log level",
			logging.String("old", c.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		c.log.SetLevel(cfg.Level.Get())
	}
	c.cfg = cfg
	c.matches.ReloadConf(cfg.Matches)
	c.betting.ReloadConf(cfg.Betting)
	c.staking.ReloadConf(cfg.Staking)
	c.vesting.ReloadConf(cfg.Vesting)
	c.settlement.ReloadConf(cfg.Settlement)
}

func (c *Contract) now() time.Time {
	return c.time.GetTimeNow()
}

func (c *Contract) requireAdmin(caller string) error {
	if caller != c.admin {
		return fmt.Errorf("%w: %w", ErrNotAdmin, types.ErrPermissionDenied)
	}
	return nil
}

func (c *Contract) ChangeAdmin(_ context.Context, caller, newAdmin string) error {
	if err := c.requireAdmin(caller); err != nil {
		return err
	}
	if newAdmin == "" {
		return fmt.Errorf("empty admin: %w", types.ErrInvalidArgument)
	}
	c.log.Info("admin changed",
		logging.String("old", c.admin),
		logging.String("new", newAdmin),
	)
	c.admin = newAdmin
	return nil
}

func (c *Contract) CreateMatch(ctx context.Context, caller, game, team1, team2 string, odds1, odds2 num.Decimal, date string) (*types.Match, error) {
	if err := c.requireAdmin(caller); err != nil {
		return nil, err
	}
	return c.matches.CreateMatch(ctx, game, team1, team2, odds1, odds2, date)
}

func (c *Contract) EndBetting(ctx context.Context, caller, matchID string) error {
	if err := c.requireAdmin(caller); err != nil {
		return err
	}
	return c.matches.EndBetting(ctx, matchID)
}

// FinishMatch records the winner, makes the winnings claimable and settles
// the result of the match with the stakers.
func (c *Contract) FinishMatch(ctx context.Context, caller, matchID string, winner types.Team) (*types.SettlementOutcome, error) {
	if err := c.requireAdmin(caller); err != nil {
		return nil, err
	}
	out, err := c.matches.FinishMatch(ctx, matchID, winner)
	if err != nil {
		return nil, err
	}
	c.betting.AddPayout(out.Liability)
	if err := c.settlement.Settle(ctx, caller, out, c.now()); err != nil {
		// the transition is consumed, the match can't be settled twice
		c.log.Panic("could not settle finished match",
			logging.MatchID(matchID),
			logging.Error(err),
		)
	}
	return out, nil
}

// CancelMatch makes every bet of the match refundable.
func (c *Contract) CancelMatch(ctx context.Context, caller, matchID string) error {
	if err := c.requireAdmin(caller); err != nil {
		return err
	}
	refunds, err := c.matches.CancelMatch(ctx, matchID)
	if err != nil {
		return err
	}
	c.betting.AddPayout(refunds)
	return nil
}

func (c *Contract) Claim(ctx context.Context, caller string, betID uint64) (*num.Uint, error) {
	return c.betting.Claim(ctx, caller, betID)
}

func (c *Contract) Stake(ctx context.Context, caller string, amount *num.Uint) (*num.Uint, error) {
	return c.staking.Stake(ctx, caller, amount, c.now())
}

func (c *Contract) StakeAll(ctx context.Context, caller string) (*num.Uint, error) {
	return c.staking.StakeAll(ctx, caller, c.now())
}

func (c *Contract) Unstake(ctx context.Context, caller string, amount *num.Uint) (*num.Uint, error) {
	return c.staking.Unstake(ctx, caller, amount, c.now())
}

func (c *Contract) UnstakeAll(ctx context.Context, caller string) (*num.Uint, error) {
	return c.staking.UnstakeAll(ctx, caller, c.now())
}

func (c *Contract) Withdraw(ctx context.Context, caller string, amount *num.Uint) error {
	return c.staking.Withdraw(ctx, caller, amount)
}

func (c *Contract) WithdrawAll(ctx context.Context, caller string) (*num.Uint, error) {
	return c.staking.WithdrawAll(ctx, caller)
}

func (c *Contract) PerformStakeSwap(ctx context.Context, caller string) (*types.StakeSwap, error) {
	return c.vesting.PerformStakeSwap(ctx, caller, c.now())
}

func (c *Contract) RetryLoss(ctx context.Context, caller, matchID string) error {
	if err := c.requireAdmin(caller); err != nil {
		return err
	}
	return c.settlement.RetryLoss(ctx, matchID)
}

func (c *Contract) FlushTreasury(ctx context.Context, caller string) (*num.Uint, error) {
	if err := c.requireAdmin(caller); err != nil {
		return nil, err
	}
	return c.settlement.FlushTreasury(ctx)
}
