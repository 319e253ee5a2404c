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
	"context"
	"encoding/json"
	"fmt"

	"code.vegaprotocol.io/betvex/core/types"
)

// State is a part of the contract that can be saved and restored.
type State interface {
	Name() string
	Checkpoint() ([]byte, error)
	Load(ctx context.Context, data []byte) error
}

type checkpointState struct {
	Admin string `json:"admin"`
}

func (c *Contract) Name() string {
	return "contract"
}

func (c *Contract) Checkpoint() ([]byte, error) {
	return json.Marshal(checkpointState{Admin: c.admin})
}

func (c *Contract) Load(_ context.Context, data []byte) error {
	state := checkpointState{}
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}
	if state.Admin == "" {
		return fmt.Errorf("checkpoint without admin: %w", types.ErrInvalidArgument)
	}
	c.admin = state.Admin
	return nil
}

// States returns every part of the contract to save, in the order they are
// to be restored.
func (c *Contract) States() []State {
	return []State{
		c,
		c.matches,
		c.betting,
		c.staking,
		c.vesting,
		c.settlement,
	}
}
