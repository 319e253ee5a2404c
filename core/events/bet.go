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
	"code.vegaprotocol.io/betvex/libs/num"
)

type Bet struct {
	*Base
	b         types.Bet
	team1Pool *num.Uint
	team2Pool *num.Uint
}

func NewBetEvent(ctx context.Context, b *types.Bet, team1Pool, team2Pool *num.Uint) *Bet {
	return &Bet{
		Base:      newBase(ctx, BetEvent),
		b:         *b.Clone(),
		team1Pool: team1Pool.Clone(),
		team2Pool: team2Pool.Clone(),
	}
}

func (b Bet) Bet() types.Bet {
	return b.b
}

func (b Bet) PartyID() string {
	return b.b.Bettor
}

func (b Bet) MatchID() string {
	return b.b.MatchID
}

func (b Bet) StreamMessage() *BusEvent {
	return newBusEventFromBase(b.Base, struct {
		AccountID         string     `json:"account_id"`
		BetID             uint64     `json:"bet_id"`
		Amount            string     `json:"amount"`
		MatchID           string     `json:"match_id"`
		Team              types.Team `json:"team"`
		PotentialWinnings string     `json:"potential_winnings"`
		NewTeam1PoolSize  string     `json:"new_team_1_pool_size"`
		NewTeam2PoolSize  string     `json:"new_team_2_pool_size"`
	}{
		AccountID:         b.b.Bettor,
		BetID:             b.b.ID,
		Amount:            b.b.Amount.String(),
		MatchID:           b.b.MatchID,
		Team:              b.b.Team,
		PotentialWinnings: b.b.PotentialWinnings.String(),
		NewTeam1PoolSize:  b.team1Pool.String(),
		NewTeam2PoolSize:  b.team2Pool.String(),
	})
}

// Claim is sent once the payout of a bet has been transferred.
type Claim struct {
	*Base
	party  string
	betID  uint64
	amount *num.Uint
}

func NewClaimWinningsEvent(ctx context.Context, party string, betID uint64, amount *num.Uint) *Claim {
	return &Claim{
		Base:   newBase(ctx, ClaimWinningsEvent),
		party:  party,
		betID:  betID,
		amount: amount.Clone(),
	}
}

func NewClaimRefundEvent(ctx context.Context, party string, betID uint64, amount *num.Uint) *Claim {
	return &Claim{
		Base:   newBase(ctx, ClaimRefundEvent),
		party:  party,
		betID:  betID,
		amount: amount.Clone(),
	}
}

func (c Claim) PartyID() string {
	return c.party
}

func (c Claim) BetID() uint64 {
	return c.betID
}

func (c Claim) Amount() *num.Uint {
	return c.amount.Clone()
}

func (c Claim) StreamMessage() *BusEvent {
	return newBusEventFromBase(c.Base, struct {
		AccountID      string `json:"account_id"`
		BetID          uint64 `json:"bet_id"`
		AmountReceived string `json:"amount_received"`
	}{c.party, c.betID, c.amount.String()})
}
