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
	"encoding/json"
	"fmt"

	"code.vegaprotocol.io/betvex/libs/num"
)

type Team uint8

const (
	TeamUnspecified Team = iota
	Team1
	Team2
)

func (t Team) String() string {
	switch t {
	case Team1:
		return "Team1"
	case Team2:
		return "Team2"
	case TeamUnspecified:
		return "Unspecified"
	}
	return fmt.Sprintf("Team(%d)", uint8(t))
}

// Opponent returns the other side of a match.
func (t Team) Opponent() Team {
	switch t {
	case Team1:
		return Team2
	case Team2:
		return Team1
	case TeamUnspecified:
	}
	return TeamUnspecified
}

func (t Team) IsValid() bool {
	return t == Team1 || t == Team2
}

func TeamFromString(s string) (Team, error) {
	switch s {
	case "Team1":
		return Team1, nil
	case "Team2":
		return Team2, nil
	}
	return TeamUnspecified, fmt.Errorf("unknown team %q: %w", s, ErrInvalidArgument)
}

func (t Team) MarshalJSON() ([]byte, error) {
	if t == TeamUnspecified {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

func (t *Team) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = TeamUnspecified
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := TeamFromString(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

type MatchState uint8

const (
	MatchStateFuture MatchState = iota
	MatchStateCurrent
	MatchStateFinished
	MatchStateError
)

func (s MatchState) String() string {
	switch s {
	case MatchStateFuture:
		return "Future"
	case MatchStateCurrent:
		return "Current"
	case MatchStateFinished:
		return "Finished"
	case MatchStateError:
		return "Error"
	}
	return fmt.Sprintf("MatchState(%d)", uint8(s))
}

func (s MatchState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *MatchState) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	switch str {
	case "Future":
		*s = MatchStateFuture
	case "Current":
		*s = MatchStateCurrent
	case "Finished":
		*s = MatchStateFinished
	case "Error":
		*s = MatchStateError
	default:
		return fmt.Errorf("unknown match state %q: %w", str, ErrInvalidArgument)
	}
	return nil
}

// Transition is one of the admin actions driving a match lifecycle.
type Transition uint8

const (
	TransitionEndBetting Transition = iota
	TransitionFinish
	TransitionCancel
)

func (t Transition) String() string {
	switch t {
	case TransitionEndBetting:
		return "end_betting"
	case TransitionFinish:
		return "finish_match"
	case TransitionCancel:
		return "cancel_match"
	}
	return fmt.Sprintf("Transition(%d)", uint8(t))
}

type Match struct {
	ID     string     `json:"match_id"`
	Seq    uint64     `json:"seq"`
	Game   string     `json:"game"`
	Team1  string     `json:"team_1"`
	Team2  string     `json:"team_2"`
	Date   string     `json:"date"`
	State  MatchState `json:"match_state"`
	Winner Team       `json:"winner"`

	Team1Pool        *num.Uint `json:"team_1_total_bets"`
	Team2Pool        *num.Uint `json:"team_2_total_bets"`
	Team1InitialPool *num.Uint `json:"team_1_initial_pool"`
	Team2InitialPool *num.Uint `json:"team_2_initial_pool"`
	// liability owed to each side if it wins
	Team1Liability *num.Uint `json:"team_1_potential_winnings"`
	Team2Liability *num.Uint `json:"team_2_potential_winnings"`
}

func MatchID(team1, team2, date string) string {
	return fmt.Sprintf("%s-%s-%s", team1, team2, date)
}

// Pools returns the pools ordered as (own, opposing) for the given team.
func (m *Match) Pools(t Team) (own, opposing *num.Uint) {
	if t == Team2 {
		return m.Team2Pool, m.Team1Pool
	}
	return m.Team1Pool, m.Team2Pool
}

func (m *Match) Liability(t Team) *num.Uint {
	if t == Team2 {
		return m.Team2Liability
	}
	return m.Team1Liability
}

// RealBets returns the bets collected on a side, net of the synthetic pool.
func (m *Match) RealBets(t Team) *num.Uint {
	if t == Team2 {
		return num.UintZero().Sub(m.Team2Pool, m.Team2InitialPool)
	}
	return num.UintZero().Sub(m.Team1Pool, m.Team1InitialPool)
}

// Collected is the total of real bets on both sides.
func (m *Match) Collected() *num.Uint {
	return num.Sum(m.RealBets(Team1), m.RealBets(Team2))
}

func (m Match) Clone() *Match {
	cpy := m
	cpy.Team1Pool = m.Team1Pool.Clone()
	cpy.Team2Pool = m.Team2Pool.Clone()
	cpy.Team1InitialPool = m.Team1InitialPool.Clone()
	cpy.Team2InitialPool = m.Team2InitialPool.Clone()
	cpy.Team1Liability = m.Team1Liability.Clone()
	cpy.Team2Liability = m.Team2Liability.Clone()
	return &cpy
}

type OutcomeKind uint8

const (
	OutcomeNone OutcomeKind = iota
	OutcomeProfit
	OutcomeLoss
)

func (o OutcomeKind) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeProfit:
		return "profit"
	case OutcomeLoss:
		return "loss"
	}
	return fmt.Sprintf("OutcomeKind(%d)", uint8(o))
}

// SettlementOutcome is the net result of a finished match for the operator.
type SettlementOutcome struct {
	MatchID   string
	Kind      OutcomeKind
	Amount    *num.Uint
	Collected *num.Uint
	Liability *num.Uint
}
