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

package broker

import (
	"sync"

	"code.vegaprotocol.io/betvex/core/events"
	"code.vegaprotocol.io/betvex/logging"
	"code.vegaprotocol.io/betvex/metrics"
)

// Broker numbers the events sent by the engines, logs them and keeps the
// most recent ones for the API.
type Broker struct {
	log *logging.Logger
	cfg Config

	mu   sync.RWMutex
	seq  uint64
	ring []*events.BusEvent
	next int
	full bool
	// closed and replaced whenever events are added
	wake chan struct{}
}

func New(log *logging.Logger, cfg Config) *Broker {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())
	size := cfg.BufferSize
	if size < 1 {
		size = 1
	}
	return &Broker{
		log:  log,
		cfg:  cfg,
		ring: make([]*events.BusEvent, size),
		wake: make(chan struct{}),
	}
}

// ReloadConf updates the internal configuration, the buffer keeps its size.
func (b *Broker) ReloadConf(cfg Config) {
	b.log.Info("reloading configuration")
	if b.log.GetLevel() != cfg.Level.Get() {
		b.log.Info("updating log level",
			logging.String("old", b.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		b.log.SetLevel(cfg.Level.Get())
	}
	b.mu.Lock()
	b.cfg.Level = cfg.Level
	b.cfg.LogEvents = cfg.LogEvents
	b.mu.Unlock()
}

func (b *Broker) Send(event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.send(event)
	b.notify()
}

func (b *Broker) SendBatch(evts []events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range evts {
		b.send(e)
	}
	if len(evts) > 0 {
		b.notify()
	}
}

func (b *Broker) notify() {
	close(b.wake)
	b.wake = make(chan struct{})
}

// Wait returns a channel closed once an event is sent after the call.
func (b *Broker) Wait() <-chan struct{} {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.wake
}

func (b *Broker) send(e events.Event) {
	b.seq++
	e.SetSequenceID(b.seq)
	msg := e.StreamMessage()

	b.ring[b.next] = msg
	b.next = (b.next + 1) % len(b.ring)
	if b.next == 0 {
		b.full = true
	}

	metrics.EventCounterInc(e.Type().String())
	if b.cfg.LogEvents {
		b.log.Info("EVENT_JSON: " + msg.JSON())
	}
}

// Since returns up to limit buffered events with an id greater than seq,
// oldest first. A limit of 0 returns everything available.
func (b *Broker) Since(seq uint64, limit int) []*events.BusEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := []*events.BusEvent{}
	start, n := 0, b.next
	if b.full {
		start, n = b.next, len(b.ring)
	}
	for i := 0; i < n; i++ {
		e := b.ring[(start+i)%len(b.ring)]
		if e.ID <= seq {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// LastSequence returns the id of the last event sent.
func (b *Broker) LastSequence() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.seq
}
