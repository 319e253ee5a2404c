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

package matches

import (
	"context"
	"fmt"

	"code.vegaprotocol.io/betvex/core/events"
	"code.vegaprotocol.io/betvex/core/pricing"
	"code.vegaprotocol.io/betvex/core/types"
	"code.vegaprotocol.io/betvex/libs/num"
	"code.vegaprotocol.io/betvex/logging"

	"github.com/google/btree"
)

// Broker send events.
type Broker interface {
	Send(event events.Event)
}

// Engine keeps every match ever created and drives their lifecycle.
type Engine struct {
	log    *logging.Logger
	cfg    Config
	broker Broker

	matches map[string]*types.Match
	// creation order, for listing
	index   *btree.BTree
	lastSeq uint64
}

type matchItem struct {
	seq uint64
	id  string
}

func (m *matchItem) Less(other btree.Item) bool {
	return m.seq < other.(*matchItem).seq
}

func New(log *logging.Logger, cfg Config, broker Broker) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	return &Engine{
		log:     log,
		cfg:     cfg,
		broker:  broker,
		matches: map[string]*types.Match{},
		index:   btree.New(2),
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

// CreateMatch registers a new match open for bets, its pools seeded from
// the opening odds.
func (e *Engine) CreateMatch(ctx context.Context, game, team1, team2 string, odds1, odds2 num.Decimal, date string) (*types.Match, error) {
	if team1 == "" || team2 == "" || date == "" {
		return nil, fmt.Errorf("teams and date are required: %w", types.ErrInvalidArgument)
	}
	id := types.MatchID(team1, team2, date)
	if _, ok := e.matches[id]; ok {
		return nil, fmt.Errorf("match %s already exists: %w", id, types.ErrInvalidState)
	}
	pool1, pool2, err := pricing.SeedPools(odds1, odds2)
	if err != nil {
		return nil, err
	}

	e.lastSeq++
	m := &types.Match{
		ID:               id,
		Seq:              e.lastSeq,
		Game:             game,
		Team1:            team1,
		Team2:            team2,
		Date:             date,
		State:            types.MatchStateFuture,
		Team1Pool:        pool1.Clone(),
		Team2Pool:        pool2.Clone(),
		Team1InitialPool: pool1,
		Team2InitialPool: pool2,
		Team1Liability:   num.UintZero(),
		Team2Liability:   num.UintZero(),
	}
	e.matches[id] = m
	e.index.ReplaceOrInsert(&matchItem{seq: m.Seq, id: id})

	e.log.Debug("match created",
		logging.MatchID(id),
		logging.BigUint("team1-pool", pool1),
		logging.BigUint("team2-pool", pool2),
	)
	e.broker.Send(events.NewNewMatchEvent(ctx, m))
	return m.Clone(), nil
}

func (e *Engine) EndBetting(ctx context.Context, matchID string) error {
	_, err := e.transition(ctx, matchID, types.TransitionEndBetting, types.TeamUnspecified)
	return err
}

// FinishMatch closes the match with a winner and returns what the market
// made or lost on it.
func (e *Engine) FinishMatch(ctx context.Context, matchID string, winner types.Team) (*types.SettlementOutcome, error) {
	return e.transition(ctx, matchID, types.TransitionFinish, winner)
}

// CancelMatch voids the match, every real bet is refunded. The amount to
// refund is returned.
func (e *Engine) CancelMatch(ctx context.Context, matchID string) (*num.Uint, error) {
	m, err := e.get(matchID)
	if err != nil {
		return nil, err
	}
	if _, err := e.transition(ctx, matchID, types.TransitionCancel, types.TeamUnspecified); err != nil {
		return nil, err
	}
	return m.Collected(), nil
}

func (e *Engine) transition(ctx context.Context, matchID string, tr types.Transition, winner types.Team) (*types.SettlementOutcome, error) {
	m, err := e.get(matchID)
	if err != nil {
		return nil, err
	}

	switch tr {
	case types.TransitionEndBetting:
		if m.State != types.MatchStateFuture {
			return nil, requireState(tr, m, types.MatchStateFuture)
		}
		m.State = types.MatchStateCurrent
		e.broker.Send(events.NewEndBettingEvent(ctx, m.ID))
		e.log.Info("betting ended", logging.MatchID(m.ID))
		return nil, nil

	case types.TransitionFinish:
		if m.State != types.MatchStateCurrent {
			return nil, requireState(tr, m, types.MatchStateCurrent)
		}
		if !winner.IsValid() {
			return nil, fmt.Errorf("winner must be Team1 or Team2: %w", types.ErrInvalidArgument)
		}
		m.State = types.MatchStateFinished
		m.Winner = winner
		out := outcome(m)
		e.broker.Send(events.NewFinishMatchEvent(ctx, m.ID, winner))
		e.log.Info("match finished",
			logging.MatchID(m.ID),
			logging.String("winner", winner.String()),
			logging.String("outcome", out.Kind.String()),
			logging.BigUint("amount", out.Amount),
		)
		return out, nil

	case types.TransitionCancel:
		if m.State != types.MatchStateFuture && m.State != types.MatchStateCurrent {
			return nil, fmt.Errorf("match %s is %s, must be Future or Current to %s: %w", m.ID, m.State, tr, types.ErrInvalidState)
		}
		m.State = types.MatchStateError
		e.broker.Send(events.NewCancelMatchEvent(ctx, m.ID))
		e.log.Info("match cancelled", logging.MatchID(m.ID))
		return nil, nil
	}

	return nil, fmt.Errorf("unknown transition %v: %w", tr, types.ErrInvalidArgument)
}

func requireState(tr types.Transition, m *types.Match, required types.MatchState) error {
	return fmt.Errorf("match %s is %s, must be %s to %s: %w", m.ID, m.State, required, tr, types.ErrInvalidState)
}

func outcome(m *types.Match) *types.SettlementOutcome {
	collected := m.Collected()
	liability := m.Liability(m.Winner).Clone()
	out := &types.SettlementOutcome{
		MatchID:   m.ID,
		Kind:      types.OutcomeNone,
		Amount:    num.UintZero(),
		Collected: collected,
		Liability: liability,
	}
	switch {
	case collected.GT(liability):
		out.Kind = types.OutcomeProfit
		out.Amount.Sub(collected, liability)
	case collected.LT(liability):
		out.Kind = types.OutcomeLoss
		out.Amount.Sub(liability, collected)
	}
	return out
}

// RecordBet moves the pools and the liability of a match open for bets.
func (e *Engine) RecordBet(matchID string, team types.Team, amount, winnings *num.Uint) error {
	m, err := e.get(matchID)
	if err != nil {
		return err
	}
	if m.State != types.MatchStateFuture {
		return fmt.Errorf("match %s is %s, bets are only accepted while Future: %w", m.ID, m.State, types.ErrInvalidState)
	}
	switch team {
	case types.Team1:
		m.Team1Pool.Add(m.Team1Pool, amount)
		m.Team1Liability.Add(m.Team1Liability, winnings)
		return nil
	case types.Team2:
		m.Team2Pool.Add(m.Team2Pool, amount)
		m.Team2Liability.Add(m.Team2Liability, winnings)
		return nil
	case types.TeamUnspecified:
	}
	return fmt.Errorf("team must be Team1 or Team2: %w", types.ErrInvalidArgument)
}

// GetMatch returns a copy of the match.
func (e *Engine) GetMatch(matchID string) (*types.Match, error) {
	m, err := e.get(matchID)
	if err != nil {
		return nil, err
	}
	return m.Clone(), nil
}

func (e *Engine) get(matchID string) (*types.Match, error) {
	m, ok := e.matches[matchID]
	if !ok {
		return nil, fmt.Errorf("no match exists with match id %s: %w", matchID, types.ErrNotFound)
	}
	return m, nil
}

// ListMatches returns up to limit matches in creation order, skipping the
// first from. A zero limit returns everything after from.
func (e *Engine) ListMatches(from, limit uint64) []*types.Match {
	out := []*types.Match{}
	var i uint64
	e.index.Ascend(func(item btree.Item) bool {
		if i < from {
			i++
			return true
		}
		if limit > 0 && uint64(len(out)) >= limit {
			return false
		}
		out = append(out, e.matches[item.(*matchItem).id].Clone())
		return true
	})
	return out
}

func (e *Engine) Len() int {
	return len(e.matches)
}
