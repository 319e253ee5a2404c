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

package encoding

import (
	"fmt"
	"time"

	"code.vegaprotocol.io/betvex/libs/num"
	"code.vegaprotocol.io/betvex/logging"
)

type Duration struct {
	time.Duration
}

func (d *Duration) Get() time.Duration {
	return d.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d *Duration) UnmarshalFlag(s string) error {
	return d.UnmarshalText([]byte(s))
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type LogLevel struct {
	logging.Level
}

func (l *LogLevel) Get() logging.Level {
	return l.Level
}

func (l *LogLevel) UnmarshalText(text []byte) error {
	var err error
	l.Level, err = logging.ParseLevel(string(text))
	return err
}

func (l *LogLevel) UnmarshalFlag(s string) error {
	return l.UnmarshalText([]byte(s))
}

func (l LogLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Uint reads amounts in the token's smallest unit from configuration files.
type Uint struct {
	*num.Uint
}

func (u *Uint) Get() *num.Uint {
	if u.Uint == nil {
		return num.UintZero()
	}
	return u.Uint.Clone()
}

func (u *Uint) UnmarshalText(text []byte) error {
	v, overflow := num.UintFromString(string(text), 10)
	if overflow {
		return fmt.Errorf("invalid unsigned integer %q", string(text))
	}
	u.Uint = v
	return nil
}

func (u *Uint) UnmarshalFlag(s string) error {
	return u.UnmarshalText([]byte(s))
}

func (u Uint) MarshalText() ([]byte, error) {
	if u.Uint == nil {
		return []byte("0"), nil
	}
	return []byte(u.Uint.String()), nil
}
