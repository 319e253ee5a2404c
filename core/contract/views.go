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
	"time"

	"code.vegaprotocol.io/betvex/core/matches"
	"code.vegaprotocol.io/betvex/core/types"
	"code.vegaprotocol.io/betvex/libs/num"
)

type Info struct {
	Admin         string    `json:"admin"`
	USDC          string    `json:"usdc_token_contract"`
	VEX           string    `json:"vex_token_contract"`
	Treasury      string    `json:"treasury"`
	MinBet        *num.Uint `json:"min_bet"`
	MinStake      *num.Uint `json:"min_stake_residual"`
	MinSwapAmount *num.Uint `json:"min_swap_amount"`
	RewardsPeriod string    `json:"rewards_period"`
	UnstakeLockup string    `json:"unstake_lockup"`
}

// Funds are the balances the contract keeps on behalf of the protocol.
type Funds struct {
	TotalStaked     *num.Uint            `json:"total_staked_balance"`
	TotalShares     *num.Uint            `json:"total_stake_shares"`
	GuaranteeFund   *num.Uint            `json:"guarantee_fund"`
	StakingRewards  *num.Uint            `json:"usdc_staking_rewards"`
	LastStakeSwap   time.Time            `json:"last_stake_swap_timestamp"`
	Fees            *num.Uint            `json:"fees_fund"`
	Insurance       *num.Uint            `json:"insurance_fund"`
	FundsToPayout   *num.Uint            `json:"funds_to_payout"`
	FundsToAdd      *num.Uint            `json:"funds_to_add"`
	TreasuryArrears *num.Uint            `json:"treasury_arrears"`
	StrandedInPool  map[string]*num.Uint `json:"stranded_in_pool"`
}

// Sagas are the multi-call settlements either in flight or needing an
// operator.
type Sagas struct {
	Losses        []*types.LossSaga  `json:"losses"`
	StakeSwap     *types.StakeSwap   `json:"stake_swap,omitempty"`
	DegradedSwaps []*types.StakeSwap `json:"degraded_stake_swaps"`
}

func (c *Contract) Info() Info {
	return Info{
		Admin:         c.admin,
		USDC:          c.params.USDC,
		VEX:           c.params.VEX,
		Treasury:      c.params.Treasury,
		MinBet:        c.params.MinBet.Clone(),
		MinStake:      c.params.MinStakeResidual.Clone(),
		MinSwapAmount: c.params.MinSwapAmount.Clone(),
		RewardsPeriod: c.params.RewardsPeriod.String(),
		UnstakeLockup: c.params.UnstakeLockup.String(),
	}
}

func (c *Contract) Admin() string {
	return c.admin
}

func (c *Contract) GetMatches(from, limit uint64) []*matches.View {
	ms := c.matches.ListMatches(from, limit)
	out := make([]*matches.View, 0, len(ms))
	for _, m := range ms {
		out = append(out, matches.NewView(m))
	}
	return out
}

func (c *Contract) GetMatch(matchID string) (*matches.View, error) {
	m, err := c.matches.GetMatch(matchID)
	if err != nil {
		return nil, err
	}
	return matches.NewView(m), nil
}

func (c *Contract) GetPotentialWinnings(matchID string, team types.Team, amount *num.Uint) (*num.Uint, error) {
	return c.betting.GetPotentialWinnings(matchID, team, amount)
}

func (c *Contract) GetBet(bettor string, betID uint64) (*types.Bet, error) {
	return c.betting.GetBet(bettor, betID)
}

func (c *Contract) GetUsersBets(bettor string, from, limit uint64) ([]*types.Bet, error) {
	return c.betting.GetUsersBets(bettor, from, limit)
}

func (c *Contract) GetUserStakeInfo(party string) (*types.UserStake, error) {
	return c.staking.GetUserStakeInfo(party)
}

func (c *Contract) GetUserStakedBalance(party string) (*num.Uint, error) {
	return c.staking.GetUserStakedBalance(party)
}

func (c *Contract) GetStakingQueue() []*types.MatchStakeInfo {
	return c.vesting.Queue()
}

func (c *Contract) GetFunds() Funds {
	stranded := c.settlement.Stranded()
	for token, amount := range c.vesting.Stranded() {
		if s, ok := stranded[token]; ok {
			s.Add(s, amount)
			continue
		}
		stranded[token] = amount
	}
	return Funds{
		TotalStaked:     c.staking.TotalStaked(),
		TotalShares:     c.staking.TotalShares(),
		GuaranteeFund:   c.staking.GuaranteeFund(),
		StakingRewards:  c.vesting.Rewards(),
		LastStakeSwap:   c.vesting.LastSwap(),
		Fees:            c.settlement.FeesFund(),
		Insurance:       c.settlement.InsuranceFund(),
		FundsToPayout:   c.betting.FundsToPayout(),
		FundsToAdd:      c.settlement.FundsToAdd(),
		TreasuryArrears: c.settlement.TreasuryArrears(),
		StrandedInPool:  stranded,
	}
}

func (c *Contract) GetSagas() Sagas {
	return Sagas{
		Losses:        c.settlement.Sagas(),
		StakeSwap:     c.vesting.InFlight(),
		DegradedSwaps: c.vesting.Degraded(),
	}
}

func (c *Contract) GetLossSaga(matchID string) (*types.LossSaga, error) {
	return c.settlement.GetSaga(matchID)
}
