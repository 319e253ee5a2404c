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

package matches

import (
	"code.vegaprotocol.io/betvex/core/pricing"
	"code.vegaprotocol.io/betvex/core/types"
	"code.vegaprotocol.io/betvex/libs/num"
)

// View is the display form of a match.
type View struct {
	MatchID       string           `json:"match_id"`
	Game          string           `json:"game"`
	Team1         string           `json:"team_1"`
	Team2         string           `json:"team_2"`
	Date          string           `json:"date"`
	Team1Odds     num.Decimal      `json:"team_1_odds"`
	Team2Odds     num.Decimal      `json:"team_2_odds"`
	Team1RealBets *num.Uint        `json:"team_1_real_bets"`
	Team2RealBets *num.Uint        `json:"team_2_real_bets"`
	MatchState    types.MatchState `json:"match_state"`
	Winner        *types.Team      `json:"winner"`
}

func NewView(m *types.Match) *View {
	odds1, odds2 := pricing.ApproxOdds(m.Team1Pool, m.Team2Pool)
	v := &View{
		MatchID:       m.ID,
		Game:          m.Game,
		Team1:         m.Team1,
		Team2:         m.Team2,
		Date:          m.Date,
		Team1Odds:     odds1.Round(4),
		Team2Odds:     odds2.Round(4),
		Team1RealBets: m.RealBets(types.Team1),
		Team2RealBets: m.RealBets(types.Team2),
		MatchState:    m.State,
	}
	if m.Winner.IsValid() {
		w := m.Winner
		v.Winner = &w
	}
	return v
}
