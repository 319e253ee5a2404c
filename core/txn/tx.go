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

package txn

import (
	"encoding/json"
	"errors"
	"fmt"

	"code.vegaprotocol.io/betvex/core/types"
	"code.vegaprotocol.io/betvex/libs/num"
)

var ErrMissingCaller = errors.New("missing caller")

// Tx is a single command submitted by Caller. For FtOnTransfer the
// caller is the token contract and the payload names the sender.
type Tx struct {
	ID      string          `json:"id"`
	Command Command         `json:"command"`
	Caller  string          `json:"caller"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (t *Tx) Validate() error {
	if len(t.Caller) == 0 {
		return fmt.Errorf("%w: %w", ErrMissingCaller, types.ErrInvalidArgument)
	}
	if len(t.Command.String()) == 0 {
		return fmt.Errorf("unknown command %d: %w", t.Command, types.ErrInvalidArgument)
	}
	return nil
}

// Unmarshal decodes the payload into v.
func (t *Tx) Unmarshal(v any) error {
	if len(t.Payload) == 0 {
		return fmt.Errorf("%v requires a payload: %w", t.Command, types.ErrInvalidArgument)
	}
	if err := json.Unmarshal(t.Payload, v); err != nil {
		return fmt.Errorf("invalid %v payload %v: %w", t.Command, err, types.ErrInvalidArgument)
	}
	return nil
}

type ChangeAdmin struct {
	NewAdmin string `json:"new_admin"`
}

type CreateMatch struct {
	Game    string      `json:"game"`
	Team1   string      `json:"team_1"`
	Team2   string      `json:"team_2"`
	InOdds1 num.Decimal `json:"in_odds_1"`
	InOdds2 num.Decimal `json:"in_odds_2"`
	Date    string      `json:"date"`
}

type MatchRef struct {
	MatchID string `json:"match_id"`
}

type FinishMatch struct {
	MatchID string     `json:"match_id"`
	Winner  types.Team `json:"winner"`
}

type FtOnTransfer struct {
	SenderID string    `json:"sender_id"`
	Amount   *num.Uint `json:"amount"`
	Msg      string    `json:"msg"`
}

type Claim struct {
	BetID uint64 `json:"bet_id"`
}

type Amount struct {
	Amount *num.Uint `json:"amount"`
}
