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

package events

import (
	"context"
)

type TransactionResult struct {
	*Base
	txID    string
	party   string
	command string
	status  bool
	err     string
}

func NewTransactionResultEventSuccess(ctx context.Context, txID, party, command string) *TransactionResult {
	return &TransactionResult{
		Base:    newBase(ctx, TransactionResultEvent),
		txID:    txID,
		party:   party,
		command: command,
		status:  true,
	}
}

func NewTransactionResultEventFailure(ctx context.Context, txID, party, command string, err error) *TransactionResult {
	return &TransactionResult{
		Base:    newBase(ctx, TransactionResultEvent),
		txID:    txID,
		party:   party,
		command: command,
		err:     err.Error(),
	}
}

func (t TransactionResult) TxID() string {
	return t.txID
}

func (t TransactionResult) Status() bool {
	return t.status
}

func (t TransactionResult) Error() string {
	return t.err
}

func (t TransactionResult) StreamMessage() *BusEvent {
	return newBusEventFromBase(t.Base, struct {
		TxID    string `json:"tx_id"`
		Party   string `json:"party"`
		Command string `json:"command"`
		Status  bool   `json:"status"`
		Error   string `json:"error,omitempty"`
	}{t.txID, t.party, t.command, t.status, t.err})
}
