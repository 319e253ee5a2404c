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

package txn_test

import (
	"encoding/json"
	"testing"

	"code.vegaprotocol.io/betvex/core/txn"
	"code.vegaprotocol.io/betvex/core/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandPath(t *testing.T) {
	assert.Equal(t, "create_match", txn.CreateMatchCommand.Path())
	assert.Equal(t, "ft_on_transfer", txn.FtOnTransferCommand.Path())
	assert.Equal(t, "perform_stake_swap", txn.PerformStakeSwapCommand.Path())

	cmd, err := txn.CommandFromPath("withdraw_all")
	require.NoError(t, err)
	assert.Equal(t, txn.WithdrawAllCommand, cmd)

	_, err = txn.CommandFromPath("place_order")
	assert.Error(t, err)
}

func TestAdminCommands(t *testing.T) {
	admin := []txn.Command{
		txn.ChangeAdminCommand, txn.CreateMatchCommand, txn.EndBettingCommand,
		txn.FinishMatchCommand, txn.CancelMatchCommand, txn.RetryLossCommand,
		txn.FlushTreasuryCommand,
	}
	for _, c := range admin {
		assert.True(t, c.IsAdminCommand(), c.String())
	}
	assert.False(t, txn.ClaimCommand.IsAdminCommand())
	assert.False(t, txn.FtOnTransferCommand.IsAdminCommand())
}

func TestTxDecode(t *testing.T) {
	raw := `{"id":"1","command":"finish_match","caller":"admin","payload":{"match_id":"a-b-1","winner":"Team2"}}`
	var tx txn.Tx
	require.NoError(t, json.Unmarshal([]byte(raw), &tx))
	require.NoError(t, tx.Validate())
	assert.Equal(t, txn.FinishMatchCommand, tx.Command)

	var p txn.FinishMatch
	require.NoError(t, tx.Unmarshal(&p))
	assert.Equal(t, "a-b-1", p.MatchID)
	assert.Equal(t, types.Team2, p.Winner)

	tx.Caller = ""
	assert.ErrorIs(t, tx.Validate(), types.ErrInvalidArgument)

	empty := txn.Tx{Command: txn.ClaimCommand, Caller: "bob"}
	assert.ErrorIs(t, empty.Unmarshal(&txn.Claim{}), types.ErrInvalidArgument)
}
