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

package vesting

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"code.vegaprotocol.io/betvex/core/types"
	"code.vegaprotocol.io/betvex/libs/num"
	"code.vegaprotocol.io/betvex/logging"
	"code.vegaprotocol.io/betvex/metrics"
)

type checkpointStranded struct {
	Token  string    `json:"token"`
	Amount *num.Uint `json:"amount"`
}

type checkpointState struct {
	Queue    []*types.MatchStakeInfo `json:"queue"`
	Rewards  *num.Uint               `json:"usdc_staking_rewards"`
	LastSwap time.Time               `json:"last_stake_swap_timestamp"`
	SwapID   uint64                  `json:"swap_id"`
	InFlight *types.StakeSwap        `json:"in_flight,omitempty"`
	Degraded []*types.StakeSwap      `json:"degraded"`
	Stranded []checkpointStranded    `json:"stranded"`
}

func (e *Engine) Name() string {
	return "vesting"
}

func (e *Engine) Checkpoint() ([]byte, error) {
	state := checkpointState{
		Queue:    e.Queue(),
		Rewards:  e.rewards.Clone(),
		LastSwap: e.lastSwap,
		SwapID:   e.swapID,
		InFlight: e.InFlight(),
		Degraded: e.Degraded(),
	}
	tokens := make([]string, 0, len(e.stranded))
	for t := range e.stranded {
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)
	for _, t := range tokens {
		state.Stranded = append(state.Stranded, checkpointStranded{Token: t, Amount: e.stranded[t].Clone()})
	}
	return json.Marshal(state)
}

// Load restores the engine. A swap still in flight when the checkpoint was
// taken never gets its continuation, so it is marked degraded.
func (e *Engine) Load(_ context.Context, data []byte) error {
	state := checkpointState{}
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}

	e.queue = state.Queue
	e.rewards = num.UintZero()
	for _, info := range e.queue {
		if info.Released == nil {
			info.Released = num.UintZero()
		}
		e.rewards.Add(e.rewards, info.Remaining())
	}
	if state.Rewards != nil && !state.Rewards.EQ(e.rewards) {
		e.log.Error("queued rewards don't add up to the total",
			logging.BigUint("queue", e.rewards),
			logging.BigUint("total", state.Rewards),
		)
	}
	e.lastSwap = state.LastSwap
	e.swapID = state.SwapID
	e.degraded = state.Degraded
	e.stranded = map[string]*num.Uint{}
	for _, s := range state.Stranded {
		e.stranded[s.Token] = s.Amount
	}
	e.inFlight = nil

	if s := state.InFlight; s != nil {
		token, amount := e.usdc, s.Amount
		if s.State == types.SagaStateAwaitingWithdraw {
			token, amount = e.vex.ID(), s.Swapped
		}
		s.State = types.SagaStateDegraded
		s.Reason = "interrupted by restart"
		e.addStranded(token, amount)
		e.degraded = append(e.degraded, s)
		metrics.SagaDegradedCounterInc("stake_swap")
		e.log.Error("in flight stake swap interrupted by restart",
			logging.Uint64("swap-id", s.ID),
			logging.String("token", token),
			logging.BigUint("stranded", amount),
		)
	}
	return nil
}
