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

// Package ext declares the collaborators living outside of the contract.
// None of them may invoke a callback before the call issuing it returns,
// callbacks are delivered later through the processor as continuations.
package ext

import (
	"context"
	"time"

	"code.vegaprotocol.io/betvex/core/events"
	"code.vegaprotocol.io/betvex/libs/num"
)

// Callback reports the outcome of a call returning no value.
type Callback func(ctx context.Context, err error)

// AmountCallback reports the outcome of a call returning an amount.
type AmountCallback func(ctx context.Context, amount *num.Uint, err error)

//go:generate go run github.com/golang/mock/mockgen -destination mocks/mocks.go -package mocks code.vegaprotocol.io/betvex/core/ext Token,LiquidityPool,Broker,TimeService

// Token is a fungible token ledger.
type Token interface {
	ID() string
	Transfer(ctx context.Context, receiver string, amount *num.Uint, cb Callback)
	// TransferCall reports the amount the receiver actually used.
	TransferCall(ctx context.Context, receiver string, amount *num.Uint, msg string, cb AmountCallback)
	BalanceOf(ctx context.Context, account string, cb AmountCallback)
}

// LiquidityPool is the external pool swapping the betting token for the
// staking token. All amounts held by the pool are on the contract's behalf.
type LiquidityPool interface {
	// Quote reports the amount of tokenIn needed to receive amountOut of tokenOut.
	Quote(ctx context.Context, tokenIn, tokenOut string, amountOut *num.Uint, cb AmountCallback)
	Deposit(ctx context.Context, token string, amount *num.Uint, cb Callback)
	// Swap reports the amount of tokenOut received.
	Swap(ctx context.Context, tokenIn, tokenOut string, amountIn, minAmountOut *num.Uint, cb AmountCallback)
	Withdraw(ctx context.Context, token string, amount *num.Uint, cb Callback)
}

type Broker interface {
	Send(e events.Event)
	SendBatch(e []events.Event)
}

type TimeService interface {
	GetTimeNow() time.Time
}
