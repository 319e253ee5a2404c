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

type ProfitDistribution struct {
	*Base
	MatchID   string
	Staking   *num.Uint
	Treasury  *num.Uint
	Insurance *num.Uint
	Fees      *num.Uint
}

func NewProfitDistributionEvent(ctx context.Context, matchID string, staking, treasury, insurance, fees *num.Uint) *ProfitDistribution {
	return &ProfitDistribution{
		Base:      newBase(ctx, ProfitDistributionEvent),
		MatchID:   matchID,
		Staking:   staking.Clone(),
		Treasury:  treasury.Clone(),
		Insurance: insurance.Clone(),
		Fees:      fees.Clone(),
	}
}

func (p ProfitDistribution) StreamMessage() *BusEvent {
	return newBusEventFromBase(p.Base, struct {
		MatchID   string `json:"match_id"`
		Staking   string `json:"staking"`
		Treasury  string `json:"treasury"`
		Insurance string `json:"insurance"`
		Fees      string `json:"fees"`
	}{p.MatchID, p.Staking.String(), p.Treasury.String(), p.Insurance.String(), p.Fees.String()})
}

// LossSettlement is sent on every state change of a loss saga.
type LossSettlement struct {
	*Base
	s types.LossSaga
}

func NewLossSettlementEvent(ctx context.Context, s *types.LossSaga) *LossSettlement {
	return &LossSettlement{
		Base: newBase(ctx, LossSettlementEvent),
		s:    *s.Clone(),
	}
}

func (l LossSettlement) Saga() types.LossSaga {
	return l.s
}

func (l LossSettlement) MatchID() string {
	return l.s.MatchID
}

func (l LossSettlement) StreamMessage() *BusEvent {
	return newBusEventFromBase(l.Base, l.s)
}

// StakeSwap is sent on every state change of a stake swap.
type StakeSwap struct {
	*Base
	s types.StakeSwap
}

func NewStakeSwapEvent(ctx context.Context, s *types.StakeSwap) *StakeSwap {
	return &StakeSwap{
		Base: newBase(ctx, StakeSwapEvent),
		s:    *s.Clone(),
	}
}

func (s StakeSwap) Swap() types.StakeSwap {
	return s.s
}

func (s StakeSwap) StreamMessage() *BusEvent {
	return newBusEventFromBase(s.Base, s.s)
}

type FundsAdded struct {
	*Base
	party       string
	toDebt      *num.Uint
	toInsurance *num.Uint
}

func NewFundsAddedEvent(ctx context.Context, party string, toDebt, toInsurance *num.Uint) *FundsAdded {
	return &FundsAdded{
		Base:        newBase(ctx, FundsAddedEvent),
		party:       party,
		toDebt:      toDebt.Clone(),
		toInsurance: toInsurance.Clone(),
	}
}

func (f FundsAdded) StreamMessage() *BusEvent {
	return newBusEventFromBase(f.Base, struct {
		AccountID   string `json:"account_id"`
		ToDebt      string `json:"to_funds_to_add"`
		ToInsurance string `json:"to_insurance"`
	}{f.party, f.toDebt.String(), f.toInsurance.String()})
}
