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

package processor

import (
	"context"
	"fmt"

	"code.vegaprotocol.io/betvex/core/txn"
	"code.vegaprotocol.io/betvex/core/types"
	"code.vegaprotocol.io/betvex/libs/num"
)

func (app *App) DeliverChangeAdmin(ctx context.Context, tx *txn.Tx) (any, error) {
	p := txn.ChangeAdmin{}
	if err := tx.Unmarshal(&p); err != nil {
		return nil, err
	}
	return nil, app.contract.ChangeAdmin(ctx, tx.Caller, p.NewAdmin)
}

func (app *App) DeliverCreateMatch(ctx context.Context, tx *txn.Tx) (any, error) {
	p := txn.CreateMatch{}
	if err := tx.Unmarshal(&p); err != nil {
		return nil, err
	}
	return app.contract.CreateMatch(ctx, tx.Caller, p.Game, p.Team1, p.Team2, p.InOdds1, p.InOdds2, p.Date)
}

func (app *App) DeliverEndBetting(ctx context.Context, tx *txn.Tx) (any, error) {
	p := txn.MatchRef{}
	if err := tx.Unmarshal(&p); err != nil {
		return nil, err
	}
	return nil, app.contract.EndBetting(ctx, tx.Caller, p.MatchID)
}

func (app *App) DeliverFinishMatch(ctx context.Context, tx *txn.Tx) (any, error) {
	p := txn.FinishMatch{}
	if err := tx.Unmarshal(&p); err != nil {
		return nil, err
	}
	return app.contract.FinishMatch(ctx, tx.Caller, p.MatchID, p.Winner)
}

func (app *App) DeliverCancelMatch(ctx context.Context, tx *txn.Tx) (any, error) {
	p := txn.MatchRef{}
	if err := tx.Unmarshal(&p); err != nil {
		return nil, err
	}
	return nil, app.contract.CancelMatch(ctx, tx.Caller, p.MatchID)
}

func (app *App) DeliverRetryLoss(ctx context.Context, tx *txn.Tx) (any, error) {
	p := txn.MatchRef{}
	if err := tx.Unmarshal(&p); err != nil {
		return nil, err
	}
	return nil, app.contract.RetryLoss(ctx, tx.Caller, p.MatchID)
}

func (app *App) DeliverFlushTreasury(ctx context.Context, tx *txn.Tx) (any, error) {
	return app.contract.FlushTreasury(ctx, tx.Caller)
}

// DeliverFtOnTransfer is submitted by the token contract, the caller is
// the token id. The refund is what the token has to give back to the
// sender.
func (app *App) DeliverFtOnTransfer(ctx context.Context, tx *txn.Tx) (any, error) {
	p := txn.FtOnTransfer{}
	if err := tx.Unmarshal(&p); err != nil {
		return nil, err
	}
	amount, err := requireAmount(p.Amount)
	if err != nil {
		return nil, err
	}
	return app.contract.FtOnTransfer(ctx, tx.Caller, p.SenderID, amount, p.Msg)
}

func (app *App) DeliverClaim(ctx context.Context, tx *txn.Tx) (any, error) {
	p := txn.Claim{}
	if err := tx.Unmarshal(&p); err != nil {
		return nil, err
	}
	return app.contract.Claim(ctx, tx.Caller, p.BetID)
}

func (app *App) DeliverStake(ctx context.Context, tx *txn.Tx) (any, error) {
	amount, err := amountOf(tx)
	if err != nil {
		return nil, err
	}
	return app.contract.Stake(ctx, tx.Caller, amount)
}

func (app *App) DeliverStakeAll(ctx context.Context, tx *txn.Tx) (any, error) {
	return app.contract.StakeAll(ctx, tx.Caller)
}

func (app *App) DeliverUnstake(ctx context.Context, tx *txn.Tx) (any, error) {
	amount, err := amountOf(tx)
	if err != nil {
		return nil, err
	}
	return app.contract.Unstake(ctx, tx.Caller, amount)
}

func (app *App) DeliverUnstakeAll(ctx context.Context, tx *txn.Tx) (any, error) {
	return app.contract.UnstakeAll(ctx, tx.Caller)
}

func (app *App) DeliverWithdraw(ctx context.Context, tx *txn.Tx) (any, error) {
	amount, err := amountOf(tx)
	if err != nil {
		return nil, err
	}
	return nil, app.contract.Withdraw(ctx, tx.Caller, amount)
}

func (app *App) DeliverWithdrawAll(ctx context.Context, tx *txn.Tx) (any, error) {
	return app.contract.WithdrawAll(ctx, tx.Caller)
}

func (app *App) DeliverPerformStakeSwap(ctx context.Context, tx *txn.Tx) (any, error) {
	return app.contract.PerformStakeSwap(ctx, tx.Caller)
}

func amountOf(tx *txn.Tx) (*num.Uint, error) {
	p := txn.Amount{}
	if err := tx.Unmarshal(&p); err != nil {
		return nil, err
	}
	return requireAmount(p.Amount)
}

func requireAmount(amount *num.Uint) (*num.Uint, error) {
	if amount == nil {
		return nil, fmt.Errorf("missing amount: %w", types.ErrInvalidArgument)
	}
	return amount, nil
}
