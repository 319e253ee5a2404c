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

package betting

import (
	"context"
	"errors"
	"fmt"

	"code.vegaprotocol.io/betvex/core/events"
	"code.vegaprotocol.io/betvex/core/ext"
	"code.vegaprotocol.io/betvex/core/pricing"
	"code.vegaprotocol.io/betvex/core/types"
	"code.vegaprotocol.io/betvex/libs/num"
	"code.vegaprotocol.io/betvex/logging"

	"github.com/google/btree"
)

var ErrNotWinningTeam = errors.New("bet did not select the winning team")

// Broker send events.
type Broker interface {
	Send(event events.Event)
}

// Matches is the registry of matches the bets are placed on.
type Matches interface {
	GetMatch(matchID string) (*types.Match, error)
	RecordBet(matchID string, team types.Team, amount, winnings *num.Uint) error
}

// Engine keeps every bet and pays them out once their match is over.
type Engine struct {
	log     *logging.Logger
	cfg     Config
	broker  Broker
	matches Matches
	token   ext.Token

	minBet    *num.Uint
	lastBetID uint64
	// bets of every bettor ordered by id
	bets map[string]*btree.BTree
	// owed to winners and refunds, not claimed yet
	fundsToPayout *num.Uint
}

type betItem struct {
	bet *types.Bet
}

func (b *betItem) Less(other btree.Item) bool {
	return b.bet.ID < other.(*betItem).bet.ID
}

func New(log *logging.Logger, cfg Config, broker Broker, matches Matches, token ext.Token) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	return &Engine{
		log:           log,
		cfg:           cfg,
		broker:        broker,
		matches:       matches,
		token:         token,
		minBet:        num.UintZero(),
		bets:          map[string]*btree.BTree{},
		fundsToPayout: num.UintZero(),
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

func (e *Engine) OnMinBetUpdate(_ context.Context, v *num.Uint) error {
	e.minBet = v.Clone()
	return nil
}

// Bet places amount on team for a match still open for bets. The tokens
// have already been received by the contract.
func (e *Engine) Bet(ctx context.Context, bettor string, amount *num.Uint, matchID string, team types.Team) (*types.Bet, error) {
	if amount.IsZero() || amount.LT(e.minBet) {
		return nil, fmt.Errorf("bet of %s is under the minimum of %s: %w", amount, e.minBet, types.ErrInvalidArgument)
	}
	if !team.IsValid() {
		return nil, fmt.Errorf("team must be Team1 or Team2: %w", types.ErrInvalidArgument)
	}
	m, err := e.matches.GetMatch(matchID)
	if err != nil {
		return nil, err
	}
	if m.State != types.MatchStateFuture {
		return nil, fmt.Errorf("match state must be Future to bet on it, is %s: %w", m.State, types.ErrInvalidState)
	}
	winnings, err := pricing.PotentialWinnings(team, m.Team1Pool, m.Team2Pool, amount)
	if err != nil {
		return nil, err
	}
	if err := e.matches.RecordBet(matchID, team, amount, winnings); err != nil {
		return nil, err
	}

	e.lastBetID++
	bet := &types.Bet{
		ID:                e.lastBetID,
		Bettor:            bettor,
		MatchID:           matchID,
		Team:              team,
		Amount:            amount.Clone(),
		PotentialWinnings: winnings,
		PayState:          types.PayStateNone,
	}
	e.insert(bet)

	updated, err := e.matches.GetMatch(matchID)
	if err != nil {
		return nil, err
	}
	e.broker.Send(events.NewBetEvent(ctx, bet, updated.Team1Pool, updated.Team2Pool))
	e.log.Debug("bet placed",
		logging.PartyID(bettor),
		logging.BetID(bet.ID),
		logging.MatchID(matchID),
		logging.BigUint("amount", amount),
		logging.BigUint("potential-winnings", winnings),
	)
	return bet.Clone(), nil
}

func (e *Engine) insert(bet *types.Bet) {
	userBets, ok := e.bets[bet.Bettor]
	if !ok {
		userBets = btree.New(2)
		e.bets[bet.Bettor] = userBets
	}
	userBets.ReplaceOrInsert(&betItem{bet: bet})
}

func (e *Engine) get(bettor string, betID uint64) (*types.Bet, error) {
	userBets, ok := e.bets[bettor]
	if !ok {
		return nil, fmt.Errorf("%s has not made a bet: %w", bettor, types.ErrNotFound)
	}
	item := userBets.Get(&betItem{bet: &types.Bet{ID: betID}})
	if item == nil {
		return nil, fmt.Errorf("no bet exists with bet id %d: %w", betID, types.ErrNotFound)
	}
	return item.(*betItem).bet, nil
}

// Claim pays out a winning bet of a finished match, or refunds a bet of a
// cancelled one. The bet is marked paid straight away and rolled back if the
// transfer fails.
func (e *Engine) Claim(ctx context.Context, bettor string, betID uint64) (*num.Uint, error) {
	bet, err := e.get(bettor, betID)
	if err != nil {
		return nil, err
	}
	if bet.PayState != types.PayStateNone {
		return nil, fmt.Errorf("bet %d has already been paid out: %w", betID, types.ErrInvalidState)
	}
	m, err := e.matches.GetMatch(bet.MatchID)
	if err != nil {
		return nil, err
	}

	var (
		amount   *num.Uint
		payState types.PayState
	)
	switch m.State {
	case types.MatchStateFinished:
		if bet.Team != m.Winner {
			return nil, fmt.Errorf("%w: %w", ErrNotWinningTeam, types.ErrInvalidState)
		}
		amount, payState = bet.PotentialWinnings.Clone(), types.PayStatePaid
	case types.MatchStateError:
		amount, payState = bet.Amount.Clone(), types.PayStateRefundPaid
	case types.MatchStateFuture, types.MatchStateCurrent:
		return nil, fmt.Errorf("match state must be Finished or Error to claim funds, is %s: %w", m.State, types.ErrInvalidState)
	default:
		return nil, fmt.Errorf("unknown match state %v: %w", m.State, types.ErrInvariantViolation)
	}

	bet.PayState = payState
	e.decreasePayout(amount)
	e.token.Transfer(ctx, bettor, amount, func(ctx context.Context, err error) {
		e.onClaimTransfer(ctx, bettor, betID, amount, err)
	})
	return amount, nil
}

func (e *Engine) onClaimTransfer(ctx context.Context, bettor string, betID uint64, amount *num.Uint, err error) {
	bet, gerr := e.get(bettor, betID)
	if gerr != nil {
		e.log.Panic("claimed bet disappeared", logging.PartyID(bettor), logging.BetID(betID), logging.Error(gerr))
	}
	if err != nil {
		e.log.Warn("claim transfer failed, bet can be claimed again",
			logging.PartyID(bettor),
			logging.BetID(betID),
			logging.Error(err),
		)
		bet.PayState = types.PayStateNone
		e.fundsToPayout.Add(e.fundsToPayout, amount)
		return
	}
	switch bet.PayState {
	case types.PayStatePaid:
		e.broker.Send(events.NewClaimWinningsEvent(ctx, bettor, betID, amount))
	case types.PayStateRefundPaid:
		e.broker.Send(events.NewClaimRefundEvent(ctx, bettor, betID, amount))
	case types.PayStateNone:
		e.log.Error("claim transfer succeeded on a bet not marked paid", logging.PartyID(bettor), logging.BetID(betID))
	}
}

func (e *Engine) decreasePayout(amount *num.Uint) {
	if e.fundsToPayout.LT(amount) {
		e.log.Error("claim above the funds to payout",
			logging.BigUint("funds-to-payout", e.fundsToPayout),
			logging.BigUint("amount", amount),
		)
		e.fundsToPayout = num.UintZero()
		return
	}
	e.fundsToPayout.Sub(e.fundsToPayout, amount)
}

// AddPayout records funds owed to bettors once a match is settled.
func (e *Engine) AddPayout(amount *num.Uint) {
	e.fundsToPayout.Add(e.fundsToPayout, amount)
}

func (e *Engine) FundsToPayout() *num.Uint {
	return e.fundsToPayout.Clone()
}

func (e *Engine) LastBetID() uint64 {
	return e.lastBetID
}

func (e *Engine) GetBet(bettor string, betID uint64) (*types.Bet, error) {
	bet, err := e.get(bettor, betID)
	if err != nil {
		return nil, err
	}
	return bet.Clone(), nil
}

// GetUsersBets returns up to limit bets of bettor ordered by id, skipping
// the first from. A zero limit returns everything after from. An account
// that never bet has an empty list.
func (e *Engine) GetUsersBets(bettor string, from, limit uint64) ([]*types.Bet, error) {
	out := []*types.Bet{}
	userBets, ok := e.bets[bettor]
	if !ok {
		return out, nil
	}
	var i uint64
	userBets.Ascend(func(item btree.Item) bool {
		if i < from {
			i++
			return true
		}
		if limit > 0 && uint64(len(out)) >= limit {
			return false
		}
		out = append(out, item.(*betItem).bet.Clone())
		return true
	})
	return out, nil
}

// GetPotentialWinnings quotes a bet without placing it.
func (e *Engine) GetPotentialWinnings(matchID string, team types.Team, amount *num.Uint) (*num.Uint, error) {
	m, err := e.matches.GetMatch(matchID)
	if err != nil {
		return nil, err
	}
	return pricing.PotentialWinnings(team, m.Team1Pool, m.Team2Pool, amount)
}
