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

package num_test

import (
	"math/big"
	"testing"

	"code.vegaprotocol.io/betvex/libs/num"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestUint256Constructors(t *testing.T) {
	var expected uint64 = 42

	t.Run("test from uint64", func(t *testing.T) {
		n := num.NewUint(expected)
		assert.Equal(t, expected, n.Uint64())
	})

	t.Run("test from string", func(t *testing.T) {
		n, ok := num.UintFromString("42", 10)
		assert.False(t, ok)
		assert.Equal(t, expected, n.Uint64())
	})

	t.Run("test from negative string", func(t *testing.T) {
		_, ok := num.UintFromString("-42", 10)
		assert.True(t, ok)
	})

	t.Run("test from big", func(t *testing.T) {
		n, ok := num.UintFromBig(big.NewInt(int64(expected)))
		assert.False(t, ok)
		assert.Equal(t, expected, n.Uint64())
	})
}

func TestUint256Clone(t *testing.T) {
	var (
		expect1 uint64 = 42
		expect2 uint64 = 84
		first          = num.NewUint(expect1)
		second         = first.Clone()
	)

	assert.Equal(t, expect1, first.Uint64())
	assert.Equal(t, expect1, second.Uint64())

	// now we change second value, and ensure 1 hasn't changed
	second.Add(second, num.NewUint(42))

	assert.Equal(t, expect1, first.Uint64())
	assert.Equal(t, expect2, second.Uint64())
}

func TestSum(t *testing.T) {
	a, b, c := num.NewUint(1), num.NewUint(20), num.NewUint(300)

	assert.Equal(t, uint64(321), num.Sum(a, b, c).Uint64())
	assert.True(t, num.Sum().IsZero())
	// operands are left untouched
	assert.Equal(t, uint64(1), a.Uint64())

	z := num.NewUint(1000)
	assert.Equal(t, uint64(1321), z.AddSum(a, b, c).Uint64())
	assert.Equal(t, uint64(1321), z.Uint64())
}

func TestMulDiv(t *testing.T) {
	t.Run("exact division rounds the same both ways", func(t *testing.T) {
		down, err := num.MulDiv(num.NewUint(10), num.NewUint(6), num.NewUint(3))
		require.NoError(t, err)
		up, err := num.MulDivUp(num.NewUint(10), num.NewUint(6), num.NewUint(3))
		require.NoError(t, err)
		assert.Equal(t, "20", down.String())
		assert.Equal(t, "20", up.String())
	})

	t.Run("inexact division differs by one", func(t *testing.T) {
		down, err := num.MulDiv(num.NewUint(10), num.NewUint(7), num.NewUint(3))
		require.NoError(t, err)
		up, err := num.MulDivUp(num.NewUint(10), num.NewUint(7), num.NewUint(3))
		require.NoError(t, err)
		assert.Equal(t, "23", down.String())
		assert.Equal(t, "24", up.String())
	})

	t.Run("product wider than 256 bits", func(t *testing.T) {
		// 2^200 * 2^100 / 2^150 = 2^150
		x, _ := num.UintFromBig(new(big.Int).Lsh(big.NewInt(1), 200))
		y, _ := num.UintFromBig(new(big.Int).Lsh(big.NewInt(1), 100))
		d, _ := num.UintFromBig(new(big.Int).Lsh(big.NewInt(1), 150))
		res, err := num.MulDiv(x, y, d)
		require.NoError(t, err)
		assert.Equal(t, new(big.Int).Lsh(big.NewInt(1), 150).String(), res.String())
	})

	t.Run("quotient overflow", func(t *testing.T) {
		x, _ := num.UintFromBig(new(big.Int).Lsh(big.NewInt(1), 200))
		_, err := num.MulDiv(x, x, num.NewUint(1))
		assert.ErrorIs(t, err, num.ErrOverflow)
	})

	t.Run("zero denominator", func(t *testing.T) {
		_, err := num.MulDivUp(num.NewUint(1), num.NewUint(1), num.UintZero())
		assert.ErrorIs(t, err, num.ErrDivisionByZero)
	})
}

func TestMulDivMatchesBigInt(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		x := rapid.Uint64().Draw(t, "x")
		y := rapid.Uint64().Draw(t, "y")
		d := rapid.Uint64Range(1, ^uint64(0)).Draw(t, "d")

		prod := new(big.Int).Mul(new(big.Int).SetUint64(x), new(big.Int).SetUint64(y))
		q, r := new(big.Int).QuoRem(prod, new(big.Int).SetUint64(d), new(big.Int))

		down, err := num.MulDiv(num.NewUint(x), num.NewUint(y), num.NewUint(d))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		up, err := num.MulDivUp(num.NewUint(x), num.NewUint(y), num.NewUint(d))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if down.BigInt().Cmp(q) != 0 {
			t.Fatalf("floor mismatch: got %s want %s", down, q)
		}
		if r.Sign() != 0 {
			q.Add(q, big.NewInt(1))
		}
		if up.BigInt().Cmp(q) != 0 {
			t.Fatalf("ceil mismatch: got %s want %s", up, q)
		}
	})
}

func TestUintJSON(t *testing.T) {
	u := num.MustUintFromString("340282366920938463463374607431768211456")
	buf, err := u.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"340282366920938463463374607431768211456"`, string(buf))

	var back num.Uint
	require.NoError(t, back.UnmarshalJSON(buf))
	assert.True(t, back.EQ(u))
}
