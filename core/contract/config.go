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

package contract

import (
	"code.vegaprotocol.io/betvex/config/encoding"
	"code.vegaprotocol.io/betvex/core/betting"
	"code.vegaprotocol.io/betvex/core/matches"
	"code.vegaprotocol.io/betvex/core/settlement"
	"code.vegaprotocol.io/betvex/core/staking"
	"code.vegaprotocol.io/betvex/core/vesting"
	"code.vegaprotocol.io/betvex/logging"
)

const namedLogger = "contract"

// Config holds the configuration of the contract and of its engines.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`

	Matches    matches.Config    `group:"Matches" namespace:"matches"`
	Betting    betting.Config    `group:"Betting" namespace:"betting"`
	Staking    staking.Config    `group:"Staking" namespace:"staking"`
	Vesting    vesting.Config    `group:"Vesting" namespace:"vesting"`
	Settlement settlement.Config `group:"Settlement" namespace:"settlement"`
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level:      encoding.LogLevel{Level: logging.InfoLevel},
		Matches:    matches.NewDefaultConfig(),
		Betting:    betting.NewDefaultConfig(),
		Staking:    staking.NewDefaultConfig(),
		Vesting:    vesting.NewDefaultConfig(),
		Settlement: settlement.NewDefaultConfig(),
	}
}
