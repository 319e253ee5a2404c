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

package httpext

import (
	"context"
	"fmt"

	"code.vegaprotocol.io/betvex/core/ext"
	"code.vegaprotocol.io/betvex/core/types"
	"code.vegaprotocol.io/betvex/libs/num"
	"code.vegaprotocol.io/betvex/logging"

	"go.uber.org/atomic"
)

// Clients are the token and pool adapters sharing one pending calls
// counter.
type Clients struct {
	USDC *Token
	VEX  *Token
	Pool *Pool
}

func New(log *logging.Logger, cfg Config, usdcID, vexID string, q Enqueuer) *Clients {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())
	pending := atomic.NewInt64(0)

	usdc := &Token{id: usdcID, c: newClient(log.With(logging.String("token", usdcID)), cfg, cfg.USDCURL, q, pending)}
	vex := &Token{id: vexID, c: newClient(log.With(logging.String("token", vexID)), cfg, cfg.VEXURL, q, pending)}
	return &Clients{
		USDC: usdc,
		VEX:  vex,
		Pool: &Pool{
			c:       newClient(log.With(logging.String("service", "pool")), cfg, cfg.PoolURL, q, pending),
			account: cfg.PoolAccount,
			tokens:  map[string]*Token{usdcID: usdc, vexID: vex},
		},
	}
}

// Token is a fungible token ledger reached over HTTP.
type Token struct {
	id string
	c  *client
}

func (t *Token) ID() string {
	return t.id
}

func (t *Token) Transfer(ctx context.Context, receiver string, amount *num.Uint, cb ext.Callback) {
	body := map[string]any{
		"receiver_id": receiver,
		"amount":      amount,
	}
	t.c.async(ctx, "ft_transfer", body, func(ctx context.Context, _ *response, err error) {
		cb(ctx, err)
	})
}

func (t *Token) TransferCall(ctx context.Context, receiver string, amount *num.Uint, msg string, cb ext.AmountCallback) {
	body := map[string]any{
		"receiver_id": receiver,
		"amount":      amount,
		"msg":         msg,
	}
	t.c.async(ctx, "ft_transfer_call", body, amountCallback(cb))
}

func (t *Token) BalanceOf(ctx context.Context, account string, cb ext.AmountCallback) {
	body := map[string]any{
		"account_id": account,
	}
	t.c.async(ctx, "ft_balance_of", body, amountCallback(cb))
}

// Pool is the liquidity pool reached over HTTP. Deposits go through the
// token ledger of the deposited token.
type Pool struct {
	c       *client
	account string
	tokens  map[string]*Token
}

func (p *Pool) Quote(ctx context.Context, tokenIn, tokenOut string, amountOut *num.Uint, cb ext.AmountCallback) {
	body := map[string]any{
		"token_in":   tokenIn,
		"token_out":  tokenOut,
		"amount_out": amountOut,
	}
	p.c.async(ctx, "quote", body, amountCallback(cb))
}

func (p *Pool) Deposit(ctx context.Context, token string, amount *num.Uint, cb ext.Callback) {
	t, ok := p.tokens[token]
	if !ok {
		p.c.fail(ctx, fmt.Errorf("deposit of unknown token %s: %w", token, types.ErrInvalidArgument), cb)
		return
	}
	t.TransferCall(ctx, p.account, amount, "", func(ctx context.Context, used *num.Uint, err error) {
		if err == nil && !used.EQ(amount) {
			err = fmt.Errorf("pool used %s of a %s deposit: %w", used, amount, types.ErrExternalCallFailure)
		}
		cb(ctx, err)
	})
}

func (p *Pool) Swap(ctx context.Context, tokenIn, tokenOut string, amountIn, minAmountOut *num.Uint, cb ext.AmountCallback) {
	body := map[string]any{
		"token_in":       tokenIn,
		"token_out":      tokenOut,
		"amount_in":      amountIn,
		"min_amount_out": minAmountOut,
	}
	p.c.async(ctx, "swap", body, amountCallback(cb))
}

func (p *Pool) Withdraw(ctx context.Context, token string, amount *num.Uint, cb ext.Callback) {
	body := map[string]any{
		"token":  token,
		"amount": amount,
	}
	p.c.async(ctx, "withdraw", body, func(ctx context.Context, _ *response, err error) {
		cb(ctx, err)
	})
}

func amountCallback(cb ext.AmountCallback) func(context.Context, *response, error) {
	return func(ctx context.Context, resp *response, err error) {
		if err != nil {
			cb(ctx, nil, err)
			return
		}
		if resp.Amount == nil {
			cb(ctx, nil, fmt.Errorf("response without amount: %w", types.ErrExternalCallFailure))
			return
		}
		cb(ctx, resp.Amount, nil)
	}
}
