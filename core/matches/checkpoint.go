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
	"context"
	"encoding/json"
	"fmt"

	"code.vegaprotocol.io/betvex/core/types"
	"code.vegaprotocol.io/betvex/logging"

	"github.com/google/btree"
)

type checkpointState struct {
	LastSeq uint64         `json:"last_seq"`
	Matches []*types.Match `json:"matches"`
}

func (e *Engine) Name() string {
	return "matches"
}

func (e *Engine) Checkpoint() ([]byte, error) {
	state := checkpointState{
		LastSeq: e.lastSeq,
		Matches: e.ListMatches(0, 0),
	}
	return json.Marshal(state)
}

func (e *Engine) Load(_ context.Context, data []byte) error {
	state := checkpointState{}
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}

	matches := make(map[string]*types.Match, len(state.Matches))
	index := btree.New(2)
	for _, m := range state.Matches {
		if _, ok := matches[m.ID]; ok {
			return fmt.Errorf("duplicate match %s in checkpoint: %w", m.ID, types.ErrInvariantViolation)
		}
		if m.Seq > state.LastSeq {
			return fmt.Errorf("match %s sequence %d after last sequence %d: %w", m.ID, m.Seq, state.LastSeq, types.ErrInvariantViolation)
		}
		matches[m.ID] = m
		index.ReplaceOrInsert(&matchItem{seq: m.Seq, id: m.ID})
	}

	e.matches = matches
	e.index = index
	e.lastSeq = state.LastSeq
	e.log.Info("matches restored from checkpoint", logging.Int("count", len(matches)))
	return nil
}
