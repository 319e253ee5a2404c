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

package num

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

var (
	// ErrOverflow signals an arithmetic result does not fit in 256 bits.
	ErrOverflow = errors.New("uint256 overflow")
	// ErrDivisionByZero signals a zero denominator in a proportional computation.
	ErrDivisionByZero = errors.New("division by zero")
)

// Uint A wrapper for a big unsigned int.
type Uint struct {
	u uint256.Int
}

// NewUint creates a new Uint with the value of the
// uint64 passed as a parameter.
func NewUint(val uint64) *Uint {
	return &Uint{*uint256.NewInt(val)}
}

// UintZero returns a new zero value.
func UintZero() *Uint {
	return NewUint(0)
}

// Min returns the smallest of the 2 numbers.
func Min(a, b *Uint) *Uint {
	if a.LT(b) {
		return a
	}
	return b
}

// UintFromBig construct a new Uint with a big.Int
// returns true if overflow happened.
func UintFromBig(b *big.Int) (*Uint, bool) {
	u, ok := uint256.FromBig(b)
	// ok means an overflow happened
	if ok {
		return NewUint(0), true
	}
	return &Uint{*u}, false
}

// UintFromString created a new Uint from a string
// interpreted using the give base.
// A big.Int is used to read the string, so
// all error related to big.Int parsing applied here.
// will return true if an error/overflow happened.
func UintFromString(str string, base int) (*Uint, bool) {
	b, ok := big.NewInt(0).SetString(str, base)
	if !ok || b.Sign() < 0 {
		return NewUint(0), true
	}
	return UintFromBig(b)
}

// MustUintFromString is UintFromString for constants and tests.
func MustUintFromString(str string) *Uint {
	u, overflow := UintFromString(str, 10)
	if overflow {
		panic(fmt.Sprintf("invalid uint: %q", str))
	}
	return u
}

// UintFromDecimal truncates the decimal to an integer.
// returns true if the value is negative or overflows.
func UintFromDecimal(d Decimal) (*Uint, bool) {
	if d.IsNegative() {
		return NewUint(0), true
	}
	return UintFromBig(d.BigInt())
}

// Sum just removes the need to write num.NewUint(0).Sum(x, y, z)
// so you can write num.Sum(x, y, z) instead, equivalent to x + y + z.
func Sum(vals ...*Uint) *Uint {
	return NewUint(0).AddSum(vals...)
}

// MulDiv computes x * y / d rounded down. The product is computed on
// 512 bits so only the quotient has to fit in 256 bits.
func MulDiv(x, y, d *Uint) (*Uint, error) {
	if d.IsZero() {
		return nil, ErrDivisionByZero
	}
	z := &Uint{}
	if _, overflow := z.u.MulDivOverflow(&x.u, &y.u, &d.u); overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

// MulDivUp computes x * y / d rounded up.
func MulDivUp(x, y, d *Uint) (*Uint, error) {
	z, err := MulDiv(x, y, d)
	if err != nil {
		return nil, err
	}
	rem := &Uint{}
	rem.u.MulMod(&x.u, &y.u, &d.u)
	if rem.IsZero() {
		return z, nil
	}
	if _, overflow := z.u.AddOverflow(&z.u, uint256.NewInt(1)); overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

func (z *Uint) Set(oth *Uint) *Uint {
	z.u.Set(&oth.u)
	return z
}

func (z *Uint) SetUint64(val uint64) *Uint {
	z.u.SetUint64(val)
	return z
}

func (z Uint) Uint64() uint64 {
	return z.u.Uint64()
}

func (z Uint) BigInt() *big.Int {
	return z.u.ToBig()
}

func (z Uint) ToDecimal() Decimal {
	return DecimalFromUint(&z)
}

// Float64 is lossy and meant for pricing only.
func (z Uint) Float64() float64 {
	f, _ := new(big.Float).SetInt(z.u.ToBig()).Float64()
	return f
}

// Add will add x and y then store the result
// into z
// this is equivalent to:
// `z = x + y`
// z is returned for convenience, no
// new variable is created.
func (z *Uint) Add(x, y *Uint) *Uint {
	z.u.Add(&x.u, &y.u)
	return z
}

// Sub will subtract y from x then store the result
// into z
// this is equivalent to:
// `z = x - y`
// z is returned for convenience, no
// new variable is created.
func (z *Uint) Sub(x, y *Uint) *Uint {
	z.u.Sub(&x.u, &y.u)
	return z
}

// SubOverflow will subtract y to x then store the result
// into z
// this is equivalent to:
// `z = x - y`
// true is returned if an underflow occurred.
func (z *Uint) SubOverflow(x, y *Uint) (*Uint, bool) {
	_, ok := z.u.SubOverflow(&x.u, &y.u)
	return z, ok
}

// Mul will multiply x and y then store the result
// into z
// this is equivalent to:
// `z = x * y`
// z is returned for convenience, no
// new variable is created.
func (z *Uint) Mul(x, y *Uint) *Uint {
	z.u.Mul(&x.u, &y.u)
	return z
}

// AddSum adds every value to z, x.AddSum(y, z) is x + y + z.
func (z *Uint) AddSum(vals ...*Uint) *Uint {
	for _, x := range vals {
		if x == nil {
			continue
		}
		z.u.Add(&z.u, &x.u)
	}
	return z
}

// Div will divide x by y then store the result
// into z
// this is equivalent to:
// `z = x / y`
// z is returned for convenience, no
// new variable is created.
func (z *Uint) Div(x, y *Uint) *Uint {
	z.u.Div(&x.u, &y.u)
	return z
}

// LT with check if the value stored in u is
// lesser than oth
// this is equivalent to:
// `u < oth`.
func (u Uint) LT(oth *Uint) bool {
	return u.u.Lt(&oth.u)
}

// EQ with check if the value stored in u is
// equal to oth.
func (u Uint) EQ(oth *Uint) bool {
	return u.u.Eq(&oth.u)
}

// GT with check if the value stored in u is
// greater than oth.
func (u Uint) GT(oth *Uint) bool {
	return u.u.Gt(&oth.u)
}

// GTE with check if the value stored in u is
// greater than or equal to oth.
func (u Uint) GTE(oth *Uint) bool {
	return u.u.Gt(&oth.u) || u.u.Eq(&oth.u)
}

// IsZero return whether u == 0 or not.
func (u Uint) IsZero() bool {
	return u.u.IsZero()
}

// Clone create copy of this value
// this is the equivalent to:
// x := z.
func (z Uint) Clone() *Uint {
	return &Uint{z.u}
}

// String returns the stored value as a string
// this is internally using big.Int.String().
func (u Uint) String() string {
	return u.u.ToBig().String()
}

// Format implement fmt.Formatter.
func (u Uint) Format(s fmt.State, ch rune) {
	u.u.Format(s, ch)
}

// MarshalJSON encodes the value as a decimal string so amounts
// wider than 53 bits survive javascript clients.
func (u Uint) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

func (u *Uint) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, overflow := UintFromString(s, 10)
	if overflow {
		return fmt.Errorf("invalid uint %q", s)
	}
	u.u = v.u
	return nil
}
