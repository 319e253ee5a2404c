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

package config

import (
	"time"

	"code.vegaprotocol.io/betvex/api"
	"code.vegaprotocol.io/betvex/config/encoding"
	"code.vegaprotocol.io/betvex/core/broker"
	"code.vegaprotocol.io/betvex/core/contract"
	"code.vegaprotocol.io/betvex/core/ext/httpext"
	"code.vegaprotocol.io/betvex/core/processor"
	"code.vegaprotocol.io/betvex/core/snapshot"
	"code.vegaprotocol.io/betvex/core/types"
	"code.vegaprotocol.io/betvex/libs/num"
	"code.vegaprotocol.io/betvex/logging"
	"code.vegaprotocol.io/betvex/metrics"

	"github.com/BurntSushi/toml"
)

const ConfigFileName = "config.toml"

// Config is the configuration of the whole node.
type Config struct {
	Logging   logging.Config   `group:"Logging" namespace:"logging"`
	Metrics   metrics.Config   `group:"Metrics" namespace:"metrics"`
	API       api.Config       `group:"API" namespace:"api"`
	Processor processor.Config `group:"Processor" namespace:"processor"`
	Contract  contract.Config  `group:"Contract" namespace:"contract"`
	Snapshot  snapshot.Config  `group:"Snapshot" namespace:"snapshot"`
	Broker    broker.Config    `group:"Broker" namespace:"broker"`
	External  httpext.Config   `group:"External" namespace:"external"`
	Params    Params           `group:"Params" namespace:"params"`
}

// Params are the contract parameters, only read at the first start.
type Params struct {
	Admin                   string            `long:"admin"`
	Treasury                string            `long:"treasury"`
	USDC                    string            `long:"usdc"`
	VEX                     string            `long:"vex"`
	MinBet                  encoding.Uint     `long:"min-bet"`
	MinStakeResidual        encoding.Uint     `long:"min-stake-residual"`
	MinSwapAmount           encoding.Uint     `long:"min-swap-amount"`
	SharePriceGuaranteeFund encoding.Uint     `long:"share-price-guarantee-fund"`
	RewardsPeriod           encoding.Duration `long:"rewards-period"`
	UnstakeLockup           encoding.Duration `long:"unstake-lockup"`
}

func NewDefaultConfig() Config {
	return Config{
		Logging:   logging.NewDefaultConfig(),
		Metrics:   metrics.NewDefaultConfig(),
		API:       api.NewDefaultConfig(),
		Processor: processor.NewDefaultConfig(),
		Contract:  contract.NewDefaultConfig(),
		Snapshot:  snapshot.NewDefaultConfig(),
		Broker:    broker.NewDefaultConfig(),
		External:  httpext.NewDefaultConfig(),
		Params:    NewDefaultParams(),
	}
}

func NewDefaultParams() Params {
	oneUSDC, _ := num.UintFromString("1000000000000000000000000", 10)
	oneVEX, _ := num.UintFromString("1000000000000000000", 10)
	return Params{
		Admin:                   "admin.near",
		Treasury:                "treasury.near",
		USDC:                    "usdc.near",
		VEX:                     "vex.near",
		MinBet:                  encoding.Uint{Uint: oneUSDC.Clone()},
		MinStakeResidual:        encoding.Uint{Uint: num.UintZero().Mul(oneVEX, num.NewUint(50))},
		MinSwapAmount:           encoding.Uint{Uint: oneUSDC.Clone()},
		SharePriceGuaranteeFund: encoding.Uint{Uint: oneVEX.Clone()},
		RewardsPeriod:           encoding.Duration{Duration: 30 * 24 * time.Hour},
		UnstakeLockup:           encoding.Duration{Duration: 24 * time.Hour},
	}
}

func (p Params) Get() types.Params {
	return types.Params{
		Admin:                   p.Admin,
		Treasury:                p.Treasury,
		USDC:                    p.USDC,
		VEX:                     p.VEX,
		MinBet:                  p.MinBet.Get(),
		MinStakeResidual:        p.MinStakeResidual.Get(),
		MinSwapAmount:           p.MinSwapAmount.Get(),
		SharePriceGuaranteeFund: p.SharePriceGuaranteeFund.Get(),
		RewardsPeriod:           p.RewardsPeriod.Get(),
		UnstakeLockup:           p.UnstakeLockup.Get(),
	}
}

// Read loads the configuration file on top of the defaults.
func Read(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
