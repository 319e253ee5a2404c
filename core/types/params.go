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

package types

import (
	"fmt"
	"time"

	"code.vegaprotocol.io/betvex/libs/num"
)

// Params are fixed at contract initialisation.
type Params struct {
	Admin    string
	Treasury string
	// token identifiers
	USDC string
	VEX  string
	// smallest accepted bet
	MinBet *num.Uint
	// minimum of VEX an account keeps between staked and unstaked, unless it exits fully
	MinStakeResidual *num.Uint
	// minimum USDC a stake swap has to move
	MinSwapAmount *num.Uint
	// VEX set aside to absorb the rounding drift of unstakes
	SharePriceGuaranteeFund *num.Uint
	RewardsPeriod           time.Duration
	UnstakeLockup           time.Duration
}

func (p Params) Validate() error {
	if p.Admin == "" || p.Treasury == "" || p.USDC == "" || p.VEX == "" {
		return fmt.Errorf("admin, treasury and token ids are required: %w", ErrInvalidArgument)
	}
	if p.USDC == p.VEX {
		return fmt.Errorf("staking and betting tokens must differ: %w", ErrInvalidArgument)
	}
	if p.MinBet == nil || p.MinBet.IsZero() {
		return fmt.Errorf("minimum bet must be positive: %w", ErrInvalidArgument)
	}
	if p.MinStakeResidual == nil || p.MinSwapAmount == nil || p.SharePriceGuaranteeFund == nil {
		return fmt.Errorf("staking amounts are required: %w", ErrInvalidArgument)
	}
	if p.RewardsPeriod <= 0 {
		return fmt.Errorf("rewards period must be positive: %w", ErrInvalidArgument)
	}
	if p.UnstakeLockup < 0 {
		return fmt.Errorf("unstake lockup can't be negative: %w", ErrInvalidArgument)
	}
	return nil
}
