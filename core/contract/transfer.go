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

package contract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"code.vegaprotocol.io/betvex/core/types"
	"code.vegaprotocol.io/betvex/libs/num"
	"code.vegaprotocol.io/betvex/logging"
)

var (
	ErrUnknownAction = errors.New("unknown transfer action")
	ErrWrongToken    = errors.New("token not accepted for this action")
)

type Action uint8

const (
	ActionUnspecified Action = iota
	ActionStake
	ActionAddFunds
	ActionBet
)

func (a Action) String() string {
	switch a {
	case ActionStake:
		return "Stake"
	case ActionAddFunds:
		return "AddFunds"
	case ActionBet:
		return "Bet"
	case ActionUnspecified:
	}
	return "Unspecified"
}

type BetInfo struct {
	MatchID string     `json:"match_id"`
	Team    types.Team `json:"team"`
}

// TransferMsg is the message attached to a token transfer to the contract,
// either the JSON string "Stake" or "AddFunds", or {"Bet":{...}}.
type TransferMsg struct {
	Action Action
	Bet    *BetInfo
}

func (m *TransferMsg) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		switch name {
		case "Stake":
			m.Action = ActionStake
		case "AddFunds":
			m.Action = ActionAddFunds
		default:
			return fmt.Errorf("%w %q: %w", ErrUnknownAction, name, types.ErrInvalidArgument)
		}
		return nil
	}
	var obj struct {
		Bet *BetInfo `json:"Bet"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("%w: %w", err, types.ErrInvalidArgument)
	}
	if obj.Bet == nil {
		return fmt.Errorf("%w: %w", ErrUnknownAction, types.ErrInvalidArgument)
	}
	m.Action = ActionBet
	m.Bet = obj.Bet
	return nil
}

func (m TransferMsg) MarshalJSON() ([]byte, error) {
	if m.Action == ActionBet {
		return json.Marshal(struct {
			Bet *BetInfo `json:"Bet"`
		}{m.Bet})
	}
	return json.Marshal(m.Action.String())
}

// FtOnTransfer handles tokens sent to the contract. It returns the amount
// to refund to the sender, all of it when the action fails.
func (c *Contract) FtOnTransfer(ctx context.Context, token, sender string, amount *num.Uint, msg string) (*num.Uint, error) {
	if err := c.onTransfer(ctx, token, sender, amount, msg); err != nil {
		c.log.Debug("transfer refused, refunding",
			logging.String("token", token),
			logging.PartyID(sender),
			logging.BigUint("amount", amount),
			logging.Error(err),
		)
		return amount.Clone(), err
	}
	return num.UintZero(), nil
}

func (c *Contract) onTransfer(ctx context.Context, token, sender string, amount *num.Uint, msg string) error {
	if amount == nil || amount.IsZero() {
		return fmt.Errorf("nothing transferred: %w", types.ErrInvalidArgument)
	}
	m := TransferMsg{}
	if err := json.Unmarshal([]byte(msg), &m); err != nil {
		return fmt.Errorf("invalid message %q: %w: %w", msg, err, types.ErrInvalidArgument)
	}

	switch m.Action {
	case ActionStake:
		if token != c.params.VEX {
			return fmt.Errorf("%w: %s to %s: %w", ErrWrongToken, token, m.Action, types.ErrPermissionDenied)
		}
		return c.staking.Deposit(ctx, sender, amount)
	case ActionAddFunds:
		if token != c.params.USDC {
			return fmt.Errorf("%w: %s to %s: %w", ErrWrongToken, token, m.Action, types.ErrPermissionDenied)
		}
		c.settlement.AddFunds(ctx, sender, amount)
		return nil
	case ActionBet:
		if token != c.params.USDC {
			return fmt.Errorf("%w: %s to %s: %w", ErrWrongToken, token, m.Action, types.ErrPermissionDenied)
		}
		_, err := c.betting.Bet(ctx, sender, amount, m.Bet.MatchID, m.Bet.Team)
		return err
	case ActionUnspecified:
	}
	return fmt.Errorf("%w: %w", ErrUnknownAction, types.ErrInvalidArgument)
}
