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

package types

import (
	"encoding/json"
	"fmt"

	"code.vegaprotocol.io/betvex/libs/num"
)

// SagaState is the step a multi-call settlement is waiting on.
type SagaState uint8

const (
	SagaStateIdle SagaState = iota
	SagaStateAwaitingQuote
	SagaStateAwaitingDeposit
	SagaStateAwaitingSwap
	SagaStateAwaitingWithdraw
	SagaStateSettled
	// SagaStateDegraded is terminal: an external step failed after funds
	// left the contract and an operator has to reconcile.
	SagaStateDegraded
)

var sagaStateNames = map[SagaState]string{
	SagaStateIdle:             "Idle",
	SagaStateAwaitingQuote:    "AwaitingQuote",
	SagaStateAwaitingDeposit:  "AwaitingDeposit",
	SagaStateAwaitingSwap:     "AwaitingSwap",
	SagaStateAwaitingWithdraw: "AwaitingWithdraw",
	SagaStateSettled:          "Settled",
	SagaStateDegraded:         "Degraded",
}

func (s SagaState) String() string {
	if n, ok := sagaStateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("SagaState(%d)", uint8(s))
}

// IsTerminal reports whether no further continuation is expected.
func (s SagaState) IsTerminal() bool {
	return s == SagaStateSettled || s == SagaStateDegraded
}

// IsCommitted reports whether the irreversible deposit has been issued.
func (s SagaState) IsCommitted() bool {
	switch s {
	case SagaStateAwaitingSwap, SagaStateAwaitingWithdraw, SagaStateSettled, SagaStateDegraded:
		return true
	case SagaStateIdle, SagaStateAwaitingQuote, SagaStateAwaitingDeposit:
		return false
	}
	return false
}

func (s SagaState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SagaState) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	for k, v := range sagaStateNames {
		if v == str {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown saga state %q: %w", str, ErrInvalidArgument)
}

// LossSaga tracks the sale of staked tokens covering a match loss the
// insurance fund could not absorb.
type LossSaga struct {
	MatchID string    `json:"match_id"`
	State   SagaState `json:"state"`
	// full loss of the match
	Loss *num.Uint `json:"loss"`
	// part of the loss covered by the insurance fund
	Covered *num.Uint `json:"covered"`
	// part of the loss to raise by selling staked tokens
	Shortfall *num.Uint `json:"shortfall"`
	AmountIn  *num.Uint `json:"amount_in,omitempty"`
	Deposited *num.Uint `json:"deposited,omitempty"`
	Swapped   *num.Uint `json:"swapped,omitempty"`
	Withdrawn *num.Uint `json:"withdrawn,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

func (s LossSaga) Clone() *LossSaga {
	cpy := s
	cpy.Loss = cloneOpt(s.Loss)
	cpy.Covered = cloneOpt(s.Covered)
	cpy.Shortfall = cloneOpt(s.Shortfall)
	cpy.AmountIn = cloneOpt(s.AmountIn)
	cpy.Deposited = cloneOpt(s.Deposited)
	cpy.Swapped = cloneOpt(s.Swapped)
	cpy.Withdrawn = cloneOpt(s.Withdrawn)
	return &cpy
}

// StakeSwap tracks the conversion of vested rewards into staked tokens.
type StakeSwap struct {
	ID        uint64    `json:"id"`
	Caller    string    `json:"caller"`
	State     SagaState `json:"state"`
	Amount    *num.Uint `json:"amount"`
	Deposited *num.Uint `json:"deposited,omitempty"`
	Swapped   *num.Uint `json:"swapped,omitempty"`
	Withdrawn *num.Uint `json:"withdrawn,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

func (s StakeSwap) Clone() *StakeSwap {
	cpy := s
	cpy.Amount = cloneOpt(s.Amount)
	cpy.Deposited = cloneOpt(s.Deposited)
	cpy.Swapped = cloneOpt(s.Swapped)
	cpy.Withdrawn = cloneOpt(s.Withdrawn)
	return &cpy
}

func cloneOpt(u *num.Uint) *num.Uint {
	if u == nil {
		return nil
	}
	return u.Clone()
}
