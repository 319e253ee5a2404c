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

package staking

import (
	"context"
	"encoding/json"
	"sort"

	"code.vegaprotocol.io/betvex/core/types"
	"code.vegaprotocol.io/betvex/libs/num"
	"code.vegaprotocol.io/betvex/logging"
)

type checkpointAccount struct {
	Party string `json:"party"`
	*types.UserStake
}

type checkpointState struct {
	TotalStaked   *num.Uint           `json:"total_staked_balance"`
	TotalShares   *num.Uint           `json:"total_stake_shares"`
	GuaranteeFund *num.Uint           `json:"guarantee_fund"`
	Accounts      []checkpointAccount `json:"accounts"`
}

func (e *Engine) Name() string {
	return "staking"
}

func (e *Engine) Checkpoint() ([]byte, error) {
	parties := make([]string, 0, len(e.accounts))
	for p := range e.accounts {
		parties = append(parties, p)
	}
	sort.Strings(parties)

	state := checkpointState{
		TotalStaked:   e.totalStaked.Clone(),
		TotalShares:   e.totalShares.Clone(),
		GuaranteeFund: e.guaranteeFund.Clone(),
		Accounts:      make([]checkpointAccount, 0, len(parties)),
	}
	for _, p := range parties {
		state.Accounts = append(state.Accounts, checkpointAccount{
			Party:     p,
			UserStake: e.accounts[p].Clone(),
		})
	}
	return json.Marshal(state)
}

func (e *Engine) Load(_ context.Context, data []byte) error {
	state := checkpointState{}
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}

	sumShares := num.UintZero()
	accounts := make(map[string]*types.UserStake, len(state.Accounts))
	for _, a := range state.Accounts {
		if a.UserStake == nil || a.StakeShares == nil || a.UnstakedBalance == nil {
			continue
		}
		accounts[a.Party] = a.UserStake
		sumShares.Add(sumShares, a.StakeShares)
	}
	if state.TotalShares == nil || !sumShares.EQ(state.TotalShares) {
		e.log.Error("stake shares of accounts don't add up to the total",
			logging.BigUint("accounts", sumShares),
			logging.BigUint("total", state.TotalShares),
		)
		state.TotalShares = sumShares
	}

	e.accounts = accounts
	e.totalShares = state.TotalShares
	e.totalStaked = orZero(state.TotalStaked)
	e.guaranteeFund = orZero(state.GuaranteeFund)
	e.log.Info("stakes restored from checkpoint",
		logging.Int("accounts", len(accounts)),
		logging.BigUint("total-staked", e.totalStaked),
	)
	return nil
}

func orZero(u *num.Uint) *num.Uint {
	if u == nil {
		return num.UintZero()
	}
	return u
}
