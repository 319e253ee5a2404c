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
	"fmt"

	"code.vegaprotocol.io/betvex/core/types"
	"code.vegaprotocol.io/betvex/libs/num"
)

// SharesFromAmount converts an amount of staked tokens into shares at the
// current share price.
func (e *Engine) SharesFromAmount(amount *num.Uint, roundUp bool) (*num.Uint, error) {
	if e.totalStaked.IsZero() {
		return nil, fmt.Errorf("total staked balance can't be 0: %w", types.ErrInvariantViolation)
	}
	return mulDiv(amount, e.totalShares, e.totalStaked, roundUp)
}

// AmountFromShares converts shares into an amount of staked tokens at the
// current share price.
func (e *Engine) AmountFromShares(shares *num.Uint, roundUp bool) (*num.Uint, error) {
	if e.totalShares.IsZero() {
		return nil, fmt.Errorf("total stake shares can't be 0: %w", types.ErrInvariantViolation)
	}
	return mulDiv(shares, e.totalStaked, e.totalShares, roundUp)
}

func mulDiv(x, y, d *num.Uint, roundUp bool) (*num.Uint, error) {
	var (
		res *num.Uint
		err error
	)
	if roundUp {
		res, err = num.MulDivUp(x, y, d)
	} else {
		res, err = num.MulDiv(x, y, d)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", err, types.ErrInvariantViolation)
	}
	return res, nil
}

// SharePrice is display only.
func (e *Engine) SharePrice() num.Decimal {
	if e.totalShares.IsZero() {
		return num.DecimalOne()
	}
	return e.totalStaked.ToDecimal().Div(e.totalShares.ToDecimal())
}
