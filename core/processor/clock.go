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

package processor

import (
	"sync"
	"time"
)

// Clock is the time service of the contract. It only moves when the
// processor ticks it before running a work item, so every engine sees the
// same instant for the whole item.
type Clock struct {
	mu     sync.RWMutex
	now    time.Time
	source func() time.Time
}

func NewClock() *Clock {
	return NewClockWithSource(time.Now)
}

func NewClockWithSource(source func() time.Time) *Clock {
	return &Clock{
		now:    source().UTC(),
		source: source,
	}
}

func (c *Clock) GetTimeNow() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// SetTimeNow moves the clock forward, earlier times are ignored.
func (c *Clock) SetTimeNow(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.After(c.now) {
		c.now = t.UTC()
	}
}

// Tick reads the source and moves the clock to it.
func (c *Clock) Tick() time.Time {
	c.SetTimeNow(c.source())
	return c.GetTimeNow()
}
