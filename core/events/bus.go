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
	"encoding/json"
	"fmt"

	vgcontext "code.vegaprotocol.io/betvex/libs/context"
)

const (
	eventStandard        = "betvex-contract"
	eventStandardVersion = "1.0.0"
)

type Type int

const (
	// All is used by subscribers to receive every event, no payload matches it.
	All Type = iota
	NewMatchEvent
	EndBettingEvent
	CancelMatchEvent
	FinishMatchEvent
	BetEvent
	ClaimWinningsEvent
	ClaimRefundEvent
	StakeVexEvent
	UnstakeVexEvent
	WithdrawVexEvent
	ProfitDistributionEvent
	LossSettlementEvent
	StakeSwapEvent
	FundsAddedEvent
	TransactionResultEvent
)

var eventStrings = map[Type]string{
	All:                     "all",
	NewMatchEvent:           "new_match",
	EndBettingEvent:         "end_betting",
	CancelMatchEvent:        "cancel_match",
	FinishMatchEvent:        "finish_match",
	BetEvent:                "bet",
	ClaimWinningsEvent:      "claim_winnings",
	ClaimRefundEvent:        "claim_refund",
	StakeVexEvent:           "stake_vex",
	UnstakeVexEvent:         "unstake_vex",
	WithdrawVexEvent:        "withdraw_vex",
	ProfitDistributionEvent: "profit_distribution",
	LossSettlementEvent:     "loss_settlement",
	StakeSwapEvent:          "stake_swap",
	FundsAddedEvent:         "funds_added",
	TransactionResultEvent:  "transaction_result",
}

func (t Type) String() string {
	if s, ok := eventStrings[t]; ok {
		return s
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Event is what the engines emit through their broker.
type Event interface {
	Type() Type
	Context() context.Context
	TraceID() string
	Sequence() uint64
	SetSequenceID(s uint64)
	StreamMessage() *BusEvent
}

// BusEvent is the wire form of an event, as logged and served by the API.
type BusEvent struct {
	ID       uint64 `json:"id"`
	TraceID  string `json:"trace_id,omitempty"`
	Standard string `json:"standard"`
	Version  string `json:"version"`
	Event    string `json:"event"`
	Data     []any  `json:"data"`
}

func (b *BusEvent) JSON() string {
	out, err := json.Marshal(b)
	if err != nil {
		return fmt.Sprintf(`{"event":%q,"error":%q}`, b.Event, err.Error())
	}
	return string(out)
}

type Base struct {
	ctx     context.Context
	traceID string
	seq     uint64
	et      Type
}

func newBase(ctx context.Context, t Type) *Base {
	ctx, tID := vgcontext.TraceIDFromContext(ctx)
	return &Base{
		ctx:     ctx,
		traceID: tID,
		et:      t,
	}
}

func (b Base) Type() Type {
	return b.et
}

func (b Base) Context() context.Context {
	return b.ctx
}

func (b Base) TraceID() string {
	return b.traceID
}

func (b Base) Sequence() uint64 {
	return b.seq
}

// SetSequenceID only sets the sequence once.
func (b *Base) SetSequenceID(s uint64) {
	if b.seq != 0 {
		return
	}
	b.seq = s
}

func newBusEventFromBase(b *Base, data any) *BusEvent {
	return &BusEvent{
		ID:       b.seq,
		TraceID:  b.traceID,
		Standard: eventStandard,
		Version:  eventStandardVersion,
		Event:    b.et.String(),
		Data:     []any{data},
	}
}
