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

// Package pricing prices bets against the two pools of a match.
//
// Winnings follow a logarithmic market scoring rule: a bet moves the pool
// of the team it backs, and the payout integrates the opposing pool over
// that move, minus the market margin. Floating point is used for the
// logarithm only, every input and output is an integer amount.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"code.vegaprotocol.io/betvex/core/types"
	"code.vegaprotocol.io/betvex/libs/num"
)

const (
	// WeightFactor is the size of the synthetic pools seeded at match creation.
	WeightFactor = 1000
)

var (
	// Margin is the share the market keeps on every bet.
	Margin = num.MustDecimalFromString("0.05")

	marginF, _ = Margin.Float64()

	ErrEmptyPool = errors.New("team pool is empty")
)

// PotentialWinnings returns the amount paid out if betAmount on team wins,
// given the current pools of both teams. The result is truncated.
func PotentialWinnings(team types.Team, team1Pool, team2Pool, betAmount *num.Uint) (*num.Uint, error) {
	own, opposing := team1Pool, team2Pool
	switch team {
	case types.Team1:
	case types.Team2:
		own, opposing = team2Pool, team1Pool
	case types.TeamUnspecified:
		return nil, fmt.Errorf("team must be specified: %w", types.ErrInvalidArgument)
	default:
		return nil, fmt.Errorf("unknown team %v: %w", team, types.ErrInvalidArgument)
	}
	if own.IsZero() {
		return nil, fmt.Errorf("%w: %w", ErrEmptyPool, types.ErrInvariantViolation)
	}

	ownF := own.Float64()
	bet := betAmount.Float64()
	val := (1 / (1 + marginF)) * (bet + opposing.Float64()*math.Log((ownF+bet)/ownF))
	if val <= 0 || math.IsNaN(val) {
		return num.UintZero(), nil
	}
	bi, _ := new(big.Float).SetFloat64(math.Floor(val)).Int(nil)
	res, overflow := num.UintFromBig(bi)
	if overflow {
		return nil, fmt.Errorf("potential winnings: %w", num.ErrOverflow)
	}
	return res, nil
}

// ApproxOdds returns the decimal odds of an infinitesimal bet on each team.
// The implied probabilities are normalised to sum to 1 + margin.
func ApproxOdds(team1Pool, team2Pool *num.Uint) (num.Decimal, num.Decimal) {
	total := num.Sum(team1Pool, team2Pool)
	if total.IsZero() || team1Pool.IsZero() || team2Pool.IsZero() {
		return num.DecimalZero(), num.DecimalZero()
	}
	// odds = total / (pool * (1 + margin))
	totalD := total.ToDecimal()
	scale := num.DecimalOne().Add(Margin)
	odds1 := totalD.Div(team1Pool.ToDecimal().Mul(scale))
	odds2 := totalD.Div(team2Pool.ToDecimal().Mul(scale))
	return odds1, odds2
}

// SeedPools turns the opening odds of a match into the synthetic pools
// backing it before any real bet is placed.
func SeedPools(odds1, odds2 num.Decimal) (*num.Uint, *num.Uint, error) {
	one := num.DecimalOne()
	if odds1.LessThanOrEqual(one) || odds2.LessThanOrEqual(one) {
		return nil, nil, fmt.Errorf("odds must be greater than 1: %w", types.ErrInvalidArgument)
	}
	prob1 := one.Div(odds1)
	prob2 := one.Div(odds2)
	divider := prob1.Add(prob2)
	weight := num.DecimalFromInt64(WeightFactor)

	pool1, _ := num.UintFromDecimal(prob1.Div(divider).Mul(weight).Round(0))
	pool2, _ := num.UintFromDecimal(prob2.Div(divider).Mul(weight).Round(0))
	if pool1.IsZero() || pool2.IsZero() {
		return nil, nil, fmt.Errorf("odds %s/%s leave an empty pool: %w", odds1, odds2, types.ErrInvalidArgument)
	}
	return pool1, pool2, nil
}
