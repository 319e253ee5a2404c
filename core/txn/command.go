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

package txn

import (
	"encoding/json"
	"fmt"
)

// Command ...
type Command byte

const (
	// ChangeAdminCommand ...
	ChangeAdminCommand Command = 0x40
	// CreateMatchCommand ...
	CreateMatchCommand Command = 0x41
	// EndBettingCommand ...
	EndBettingCommand Command = 0x42
	// FinishMatchCommand ...
	FinishMatchCommand Command = 0x43
	// CancelMatchCommand ...
	CancelMatchCommand Command = 0x44
	// RetryLossCommand ...
	RetryLossCommand Command = 0x45
	// FlushTreasuryCommand ...
	FlushTreasuryCommand Command = 0x46
	// FtOnTransferCommand is delivered by a token on behalf of the sender.
	FtOnTransferCommand Command = 0x50
	// ClaimCommand ...
	ClaimCommand Command = 0x51
	// StakeCommand ...
	StakeCommand Command = 0x52
	// StakeAllCommand ...
	StakeAllCommand Command = 0x53
	// UnstakeCommand ...
	UnstakeCommand Command = 0x54
	// UnstakeAllCommand ...
	UnstakeAllCommand Command = 0x55
	// WithdrawCommand ...
	WithdrawCommand Command = 0x56
	// WithdrawAllCommand ...
	WithdrawAllCommand Command = 0x57
	// PerformStakeSwapCommand ...
	PerformStakeSwapCommand Command = 0x58
)

var commandName = map[Command]string{
	ChangeAdminCommand:      "Change Admin",
	CreateMatchCommand:      "Create Match",
	EndBettingCommand:       "End Betting",
	FinishMatchCommand:      "Finish Match",
	CancelMatchCommand:      "Cancel Match",
	RetryLossCommand:        "Retry Loss",
	FlushTreasuryCommand:    "Flush Treasury",
	FtOnTransferCommand:     "Ft On Transfer",
	ClaimCommand:            "Claim",
	StakeCommand:            "Stake",
	StakeAllCommand:         "Stake All",
	UnstakeCommand:          "Unstake",
	UnstakeAllCommand:       "Unstake All",
	WithdrawCommand:         "Withdraw",
	WithdrawAllCommand:      "Withdraw All",
	PerformStakeSwapCommand: "Perform Stake Swap",
}

var commandByPath = map[string]Command{}

func init() {
	for cmd := range commandName {
		commandByPath[cmd.Path()] = cmd
	}
}

// IsAdminCommand returns true for commands only the contract admin may submit.
func (cmd Command) IsAdminCommand() bool {
	switch cmd {
	case ChangeAdminCommand, CreateMatchCommand, EndBettingCommand, FinishMatchCommand,
		CancelMatchCommand, RetryLossCommand, FlushTreasuryCommand:
		return true
	default:
		return false
	}
}

func (cmd Command) String() string {
	s, ok := commandName[cmd]
	if ok {
		return s
	}
	return ""
}

// Path is the snake_case name used on the HTTP surface, e.g. "create_match".
func (cmd Command) Path() string {
	s := commandName[cmd]
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == ' ':
			out = append(out, '_')
		case c >= 'A' && c <= 'Z':
			out = append(out, c+'a'-'A')
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

func CommandFromPath(path string) (Command, error) {
	cmd, ok := commandByPath[path]
	if !ok {
		return 0, fmt.Errorf("unknown command %q", path)
	}
	return cmd, nil
}

func (cmd Command) MarshalJSON() ([]byte, error) {
	return json.Marshal(cmd.Path())
}

func (cmd *Command) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	c, err := CommandFromPath(s)
	if err != nil {
		return err
	}
	*cmd = c
	return nil
}
