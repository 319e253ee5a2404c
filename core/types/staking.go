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
	"time"

	"code.vegaprotocol.io/betvex/libs/num"
)

type UserStake struct {
	StakeShares     *num.Uint `json:"stake_shares"`
	UnstakedBalance *num.Uint `json:"unstaked_balance"`
	// no unstake is allowed before this time
	UnstakeTimestamp time.Time `json:"unstake_timestamp"`
}

func NewUserStake() *UserStake {
	return &UserStake{
		StakeShares:     num.UintZero(),
		UnstakedBalance: num.UintZero(),
	}
}

func (u *UserStake) IsEmpty() bool {
	return u.StakeShares.IsZero() && u.UnstakedBalance.IsZero()
}

func (u UserStake) Clone() *UserStake {
	return &UserStake{
		StakeShares:      u.StakeShares.Clone(),
		UnstakedBalance:  u.UnstakedBalance.Clone(),
		UnstakeTimestamp: u.UnstakeTimestamp,
	}
}

// MatchStakeInfo is a reward queued for linear release to stakers.
type MatchStakeInfo struct {
	MatchID  string    `json:"match_id"`
	Rewards  *num.Uint `json:"staking_rewards"`
	Released *num.Uint `json:"released"`
	Start    time.Time `json:"stake_start_time"`
	End      time.Time `json:"stake_end_time"`
}

// Remaining is the part of the reward not yet handed to a swap.
func (m *MatchStakeInfo) Remaining() *num.Uint {
	return num.UintZero().Sub(m.Rewards, m.Released)
}

func (m MatchStakeInfo) Clone() *MatchStakeInfo {
	return &MatchStakeInfo{
		MatchID:  m.MatchID,
		Rewards:  m.Rewards.Clone(),
		Released: m.Released.Clone(),
		Start:    m.Start,
		End:      m.End,
	}
}
