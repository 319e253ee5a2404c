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

package betting

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"code.vegaprotocol.io/betvex/core/types"
	"code.vegaprotocol.io/betvex/libs/num"
	"code.vegaprotocol.io/betvex/logging"

	"github.com/google/btree"
)

type checkpointState struct {
	LastBetID     uint64       `json:"last_bet_id"`
	FundsToPayout *num.Uint    `json:"funds_to_payout"`
	Bets          []*types.Bet `json:"bets"`
}

func (e *Engine) Name() string {
	return "betting"
}

func (e *Engine) Checkpoint() ([]byte, error) {
	bettors := make([]string, 0, len(e.bets))
	for b := range e.bets {
		bettors = append(bettors, b)
	}
	sort.Strings(bettors)

	state := checkpointState{
		LastBetID:     e.lastBetID,
		FundsToPayout: e.fundsToPayout.Clone(),
		Bets:          []*types.Bet{},
	}
	for _, b := range bettors {
		e.bets[b].Ascend(func(item btree.Item) bool {
			state.Bets = append(state.Bets, item.(*betItem).bet.Clone())
			return true
		})
	}
	return json.Marshal(state)
}

// Load restores the ledger. A claim whose transfer outcome was not known
// when the checkpoint was taken stays paid.
func (e *Engine) Load(_ context.Context, data []byte) error {
	state := checkpointState{}
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}

	e.bets = map[string]*btree.BTree{}
	for _, b := range state.Bets {
		if b.ID > state.LastBetID {
			return fmt.Errorf("bet %d after last bet id %d: %w", b.ID, state.LastBetID, types.ErrInvariantViolation)
		}
		e.insert(b)
	}
	e.lastBetID = state.LastBetID
	e.fundsToPayout = num.UintZero()
	if state.FundsToPayout != nil {
		e.fundsToPayout = state.FundsToPayout
	}
	e.log.Info("bets restored from checkpoint",
		logging.Int("count", len(state.Bets)),
		logging.BigUint("funds-to-payout", e.fundsToPayout),
	)
	return nil
}
