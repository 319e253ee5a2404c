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

type PayState uint8

const (
	PayStateNone PayState = iota
	PayStatePaid
	PayStateRefundPaid
)

func (p PayState) String() string {
	switch p {
	case PayStateNone:
		return "None"
	case PayStatePaid:
		return "Paid"
	case PayStateRefundPaid:
		return "RefundPaid"
	}
	return fmt.Sprintf("PayState(%d)", uint8(p))
}

func (p PayState) MarshalJSON() ([]byte, error) {
	if p == PayStateNone {
		return []byte("null"), nil
	}
	return json.Marshal(p.String())
}

func (p *PayState) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = PayStateNone
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "None":
		*p = PayStateNone
	case "Paid":
		*p = PayStatePaid
	case "RefundPaid":
		*p = PayStateRefundPaid
	default:
		return fmt.Errorf("unknown pay state %q: %w", s, ErrInvalidArgument)
	}
	return nil
}

type Bet struct {
	ID                uint64    `json:"bet_id"`
	Bettor            string    `json:"bettor"`
	MatchID           string    `json:"match_id"`
	Team              Team      `json:"team"`
	Amount            *num.Uint `json:"bet_amount"`
	PotentialWinnings *num.Uint `json:"potential_winnings"`
	PayState          PayState  `json:"pay_state"`
}

func (b Bet) Clone() *Bet {
	cpy := b
	cpy.Amount = b.Amount.Clone()
	cpy.PotentialWinnings = b.PotentialWinnings.Clone()
	return &cpy
}
