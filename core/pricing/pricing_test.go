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

package pricing_test

import (
	"testing"

	"code.vegaprotocol.io/betvex/core/pricing"
	"code.vegaprotocol.io/betvex/core/types"
	"code.vegaprotocol.io/betvex/libs/num"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestPotentialWinnings(t *testing.T) {
	t.Run("reference bet", testReferenceBet)
	t.Run("team selects the pools", testTeamSelectsPools)
	t.Run("empty own pool is rejected", testEmptyPool)
	t.Run("unspecified team is rejected", testUnspecifiedTeam)
	t.Run("zero bet wins nothing", testZeroBet)
}

func testReferenceBet(t *testing.T) {
	w, err := pricing.PotentialWinnings(types.Team1, num.NewUint(500_000_000), num.NewUint(1_000_000_000), num.NewUint(100_000_000))
	require.NoError(t, err)
	assert.Equal(t, "268877673", w.String())
}

func testTeamSelectsPools(t *testing.T) {
	w1, err := pricing.PotentialWinnings(types.Team1, num.NewUint(500_000_000), num.NewUint(1_000_000_000), num.NewUint(100_000_000))
	require.NoError(t, err)
	w2, err := pricing.PotentialWinnings(types.Team2, num.NewUint(1_000_000_000), num.NewUint(500_000_000), num.NewUint(100_000_000))
	require.NoError(t, err)
	assert.True(t, w1.EQ(w2))
}

func testEmptyPool(t *testing.T) {
	_, err := pricing.PotentialWinnings(types.Team2, num.NewUint(10), num.UintZero(), num.NewUint(5))
	assert.ErrorIs(t, err, types.ErrInvariantViolation)
	assert.ErrorIs(t, err, pricing.ErrEmptyPool)
}

func testUnspecifiedTeam(t *testing.T) {
	_, err := pricing.PotentialWinnings(types.TeamUnspecified, num.NewUint(10), num.NewUint(10), num.NewUint(5))
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func testZeroBet(t *testing.T) {
	w, err := pricing.PotentialWinnings(types.Team1, num.NewUint(10), num.NewUint(10), num.UintZero())
	require.NoError(t, err)
	assert.True(t, w.IsZero())
}

func TestPotentialWinningsIsMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		own := rapid.Uint64Range(1, 1e12).Draw(t, "own")
		opp := rapid.Uint64Range(1, 1e12).Draw(t, "opposing")
		small := rapid.Uint64Range(0, 1e11).Draw(t, "small")
		big := small + rapid.Uint64Range(0, 1e11).Draw(t, "delta")

		ws, err := pricing.PotentialWinnings(types.Team1, num.NewUint(own), num.NewUint(opp), num.NewUint(small))
		if err != nil {
			t.Fatal(err)
		}
		wb, err := pricing.PotentialWinnings(types.Team1, num.NewUint(own), num.NewUint(opp), num.NewUint(big))
		if err != nil {
			t.Fatal(err)
		}
		if wb.LT(ws) {
			t.Fatalf("winnings decreased: %s for %d, %s for %d", wb, big, ws, small)
		}
	})
}

func TestPotentialWinningsKeepsTheMargin(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		own := rapid.Uint64Range(1, 1e12).Draw(t, "own")
		opp := rapid.Uint64Range(1, 1e12).Draw(t, "opposing")
		bet := rapid.Uint64Range(1, 1e11).Draw(t, "bet")

		w, err := pricing.PotentialWinnings(types.Team1, num.NewUint(own), num.NewUint(opp), num.NewUint(bet))
		if err != nil {
			t.Fatal(err)
		}
		// never more than the bet at the quoted odds of an infinitesimal bet
		odds, _ := pricing.ApproxOdds(num.NewUint(own), num.NewUint(opp))
		bound := num.DecimalFromInt64(int64(bet)).Mul(odds).Add(num.DecimalOne())
		if w.ToDecimal().GreaterThan(bound) {
			t.Fatalf("winnings %s above %s", w, bound)
		}
	})
}

func TestApproxOdds(t *testing.T) {
	o1, o2 := pricing.ApproxOdds(num.NewUint(500), num.NewUint(500))
	assert.True(t, o1.Equal(o2))
	assert.Equal(t, "1.9048", o1.StringFixed(4))

	// implied probabilities sum to 1 + margin
	o1, o2 = pricing.ApproxOdds(num.NewUint(250), num.NewUint(750))
	sum := num.DecimalOne().Div(o1).Add(num.DecimalOne().Div(o2))
	assert.Equal(t, "1.05", sum.Round(10).String())

	o1, o2 = pricing.ApproxOdds(num.UintZero(), num.NewUint(10))
	assert.True(t, o1.IsZero())
	assert.True(t, o2.IsZero())
}

func TestSeedPools(t *testing.T) {
	cases := []struct {
		name         string
		odds1, odds2 string
		pool1, pool2 uint64
	}{
		{name: "even", odds1: "2", odds2: "2", pool1: 500, pool2: 500},
		{name: "favourite", odds1: "1.5", odds2: "3", pool1: 667, pool2: 333},
		{name: "with margin", odds1: "1.8", odds2: "2.1", pool1: 538, pool2: 462},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p1, p2, err := pricing.SeedPools(num.MustDecimalFromString(tc.odds1), num.MustDecimalFromString(tc.odds2))
			require.NoError(t, err)
			assert.Equal(t, tc.pool1, p1.Uint64())
			assert.Equal(t, tc.pool2, p2.Uint64())
		})
	}

	_, _, err := pricing.SeedPools(num.MustDecimalFromString("1"), num.MustDecimalFromString("2"))
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}
