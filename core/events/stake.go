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

	"code.vegaprotocol.io/betvex/libs/num"
)

// StakeVex covers stake, unstake and withdraw movements of a party.
type StakeVex struct {
	*Base
	party          string
	amount         *num.Uint
	newTotalStaked *num.Uint
}

func NewStakeVexEvent(ctx context.Context, party string, amount, totalStaked *num.Uint) *StakeVex {
	return newStakeVex(ctx, StakeVexEvent, party, amount, totalStaked)
}

func NewUnstakeVexEvent(ctx context.Context, party string, amount, totalStaked *num.Uint) *StakeVex {
	return newStakeVex(ctx, UnstakeVexEvent, party, amount, totalStaked)
}

func NewWithdrawVexEvent(ctx context.Context, party string, amount, totalStaked *num.Uint) *StakeVex {
	return newStakeVex(ctx, WithdrawVexEvent, party, amount, totalStaked)
}

func newStakeVex(ctx context.Context, t Type, party string, amount, totalStaked *num.Uint) *StakeVex {
	return &StakeVex{
		Base:           newBase(ctx, t),
		party:          party,
		amount:         amount.Clone(),
		newTotalStaked: totalStaked.Clone(),
	}
}

func (s StakeVex) PartyID() string {
	return s.party
}

func (s StakeVex) Amount() *num.Uint {
	return s.amount.Clone()
}

func (s StakeVex) TotalStaked() *num.Uint {
	return s.newTotalStaked.Clone()
}

func (s StakeVex) StreamMessage() *BusEvent {
	return newBusEventFromBase(s.Base, struct {
		AccountID      string `json:"account_id"`
		Amount         string `json:"amount"`
		NewTotalStaked string `json:"new_total_staked"`
	}{s.party, s.amount.String(), s.newTotalStaked.String()})
}
