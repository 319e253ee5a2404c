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

package settlement

import (
	"context"
	"encoding/json"
	"sort"

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
	Insurance       *num.Uint            `json:"insurance_fund"`
	Fees            *num.Uint            `json:"fees_fund"`
	FundsToAdd      *num.Uint            `json:"funds_to_add"`
	TreasuryArrears *num.Uint            `json:"treasury_arrears"`
	Stranded        []checkpointStranded `json:"stranded_in_pool"`
	Sagas           []*types.LossSaga    `json:"sagas"`
}

func (e *Engine) Name() string {
	return "settlement"
}

func (e *Engine) Checkpoint() ([]byte, error) {
	state := checkpointState{
		Insurance:       e.insurance.Clone(),
		Fees:            e.fees.Clone(),
		FundsToAdd:      e.fundsToAdd.Clone(),
		TreasuryArrears: e.treasuryArrears.Clone(),
		Sagas:           e.Sagas(),
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

// Load restores the engine. Continuations of sagas in flight are lost with
// the process: a saga waiting on its quote goes back to idle so it can be
// retried, one that may have moved tokens is degraded. The staking engine
// must be restored first.
func (e *Engine) Load(ctx context.Context, data []byte) error {
	state := checkpointState{}
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}

	e.insurance = orZero(state.Insurance)
	e.fees = orZero(state.Fees)
	e.fundsToAdd = orZero(state.FundsToAdd)
	e.treasuryArrears = orZero(state.TreasuryArrears)
	e.stranded = map[string]*num.Uint{}
	for _, s := range state.Stranded {
		e.stranded[s.Token] = s.Amount
	}
	e.sagas = make(map[string]*types.LossSaga, len(state.Sagas))
	for _, saga := range state.Sagas {
		e.sagas[saga.MatchID] = saga
		e.recover(ctx, saga)
	}
	e.log.Info("settlement restored from checkpoint",
		logging.Int("sagas", len(e.sagas)),
		logging.BigUint("insurance", e.insurance),
		logging.BigUint("funds-to-add", e.fundsToAdd),
	)
	return nil
}

func (e *Engine) recover(ctx context.Context, saga *types.LossSaga) {
	var token string
	var amount *num.Uint
	switch saga.State {
	case types.SagaStateIdle, types.SagaStateSettled, types.SagaStateDegraded:
		return
	case types.SagaStateAwaitingQuote:
		saga.State = types.SagaStateIdle
		saga.Covered = num.UintZero()
		saga.Shortfall = num.UintZero()
		saga.Reason = "interrupted by restart"
		return
	case types.SagaStateAwaitingDeposit:
		// the deposit may or may not have reached the pool, it is counted
		// as sent like the stranded tokens
		saga.Deposited = e.absorbDeposit(ctx, saga)
		e.debitCovered(saga)
		token, amount = e.vex, saga.AmountIn
		e.log.Error("staked balance debited for a deposit interrupted by restart, check the pool balance",
			logging.MatchID(saga.MatchID),
			logging.BigUint("deposit", saga.AmountIn),
		)
	case types.SagaStateAwaitingSwap:
		token, amount = e.vex, saga.Deposited
	case types.SagaStateAwaitingWithdraw:
		token, amount = e.usdc.ID(), saga.Swapped
	}

	saga.State = types.SagaStateDegraded
	saga.Reason = "interrupted by restart"
	e.fundsToAdd.Add(e.fundsToAdd, saga.Shortfall)
	e.addStranded(token, amount)
	metrics.SagaDegradedCounterInc("loss")
	e.log.Error("loss settlement interrupted by restart",
		logging.MatchID(saga.MatchID),
		logging.String("token", token),
		logging.BigUint("stranded", amount),
	)
}

func orZero(u *num.Uint) *num.Uint {
	if u == nil {
		return num.UintZero()
	}
	return u
}
