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

package events

import (
	"context"

	"code.vegaprotocol.io/betvex/core/types"
)

type NewMatch struct {
	*Base
	m types.Match
}

func NewNewMatchEvent(ctx context.Context, m *types.Match) *NewMatch {
	return &NewMatch{
		Base: newBase(ctx, NewMatchEvent),
		m:    *m.Clone(),
	}
}

func (n NewMatch) Match() types.Match {
	return n.m
}

func (n NewMatch) MatchID() string {
	return n.m.ID
}

func (n NewMatch) StreamMessage() *BusEvent {
	return newBusEventFromBase(n.Base, struct {
		MatchID          string `json:"match_id"`
		Game             string `json:"game"`
		Date             string `json:"date"`
		Team1            string `json:"team_1"`
		Team2            string `json:"team_2"`
		Team1InitialPool string `json:"team_1_initial_pool"`
		Team2InitialPool string `json:"team_2_initial_pool"`
	}{
		MatchID:          n.m.ID,
		Game:             n.m.Game,
		Date:             n.m.Date,
		Team1:            n.m.Team1,
		Team2:            n.m.Team2,
		Team1InitialPool: n.m.Team1InitialPool.String(),
		Team2InitialPool: n.m.Team2InitialPool.String(),
	})
}

// MatchState covers the lifecycle transitions after creation.
type MatchState struct {
	*Base
	matchID string
	winner  types.Team
}

func NewEndBettingEvent(ctx context.Context, matchID string) *MatchState {
	return &MatchState{
		Base:    newBase(ctx, EndBettingEvent),
		matchID: matchID,
	}
}

func NewCancelMatchEvent(ctx context.Context, matchID string) *MatchState {
	return &MatchState{
		Base:    newBase(ctx, CancelMatchEvent),
		matchID: matchID,
	}
}

func NewFinishMatchEvent(ctx context.Context, matchID string, winner types.Team) *MatchState {
	return &MatchState{
		Base:    newBase(ctx, FinishMatchEvent),
		matchID: matchID,
		winner:  winner,
	}
}

func (m MatchState) MatchID() string {
	return m.matchID
}

func (m MatchState) Winner() types.Team {
	return m.winner
}

func (m MatchState) StreamMessage() *BusEvent {
	if m.et == FinishMatchEvent {
		return newBusEventFromBase(m.Base, struct {
			MatchID string     `json:"match_id"`
			Winner  types.Team `json:"winner"`
		}{m.matchID, m.winner})
	}
	return newBusEventFromBase(m.Base, struct {
		MatchID string `json:"match_id"`
	}{m.matchID})
}
