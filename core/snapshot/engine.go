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

package snapshot

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"code.vegaprotocol.io/betvex/logging"
	"code.vegaprotocol.io/betvex/metrics"
	"code.vegaprotocol.io/betvex/version"

	"github.com/blang/semver/v4"
	"github.com/klauspost/compress/zstd"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
	"golang.org/x/crypto/sha3"
)

var (
	ErrDuplicateState = errors.New("duplicate state")
	ErrNoSnapshot     = errors.New("no snapshot available")
	ErrHashMismatch   = errors.New("snapshot hash does not match its content")
	// ErrIncompatibleVersion is returned when loading a snapshot taken by a
	// release with a different major version, or minor version before 1.0.
	ErrIncompatibleVersion = errors.New("snapshot taken by an incompatible version")
)

var keyPrefix = []byte("snap:")

//go:generate go run github.com/golang/mock/mockgen -destination mocks/mocks.go -package mocks code.vegaprotocol.io/betvex/core/snapshot State

// State is a component whose state is part of a snapshot.
type State interface {
	Name() string
	Checkpoint() ([]byte, error)
	Load(ctx context.Context, data []byte) error
}

// NamedState is the checkpoint of one component.
type NamedState struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

// Snapshot is what is stored for each sequence number, zstd compressed.
type Snapshot struct {
	Seq     uint64       `json:"seq"`
	Time    int64        `json:"time"`
	Version string       `json:"version"`
	Hash    string       `json:"hash"`
	States  []NamedState `json:"states"`
}

// Info describes a stored snapshot.
type Info struct {
	Seq     uint64    `json:"seq"`
	Time    time.Time `json:"time"`
	Version string    `json:"version"`
	Hash    string    `json:"hash"`
	// compressed size in bytes
	Size int `json:"size"`
}

type Engine struct {
	log *logging.Logger
	cfg Config
	db  *leveldb.DB

	enc     *zstd.Encoder
	dec     *zstd.Decoder
	version string

	states []State
	names  map[string]struct{}

	seq  uint64
	next time.Time
}

// New opens the snapshot store, states are snapshotted in the order they
// were added.
func New(log *logging.Logger, cfg Config, states ...State) (*Engine, error) {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		db  *leveldb.DB
		err error
	)
	switch cfg.Storage {
	case memDB:
		db, err = leveldb.Open(storage.NewMemStorage(), nil)
	default:
		db, err = leveldb.OpenFile(cfg.DBPath, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("couldn't open snapshot store: %w", err)
	}

	// neither fails without options
	enc, _ := zstd.NewWriter(nil)
	dec, _ := zstd.NewReader(nil)
	e := &Engine{
		log:     log,
		cfg:     cfg,
		db:      db,
		enc:     enc,
		dec:     dec,
		version: version.Get(),
		names:   map[string]struct{}{},
	}
	if err := e.Add(states...); err != nil {
		_ = e.Close()
		return nil, err
	}
	latest, err := e.latestSeq()
	if err != nil {
		_ = e.Close()
		return nil, err
	}
	e.seq = latest
	return e, nil
}

// ReloadConf updates the internal configuration.
func (e *Engine) ReloadConf(cfg Config) {
	e.log.Info("reloading configuration")
	if e.log.GetLevel() != cfg.Level.Get() {
		e.log.Info("updating log level",
			logging.String("old", e.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		e.log.SetLevel(cfg.Level.Get())
	}
	// storage can't change while the store is open
	e.cfg.Level = cfg.Level
	if cfg.KeepRecent > 0 {
		e.cfg.KeepRecent = cfg.KeepRecent
	}
	if cfg.Interval.Get() != e.cfg.Interval.Get() {
		e.next = e.next.Add(cfg.Interval.Get() - e.cfg.Interval.Get())
		e.cfg.Interval = cfg.Interval
	}
}

func (e *Engine) Add(states ...State) error {
	for _, s := range states {
		name := s.Name()
		if _, ok := e.names[name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateState, name)
		}
		e.names[name] = struct{}{}
		e.states = append(e.states, s)
	}
	return nil
}

func (e *Engine) ShouldSnapshot(now time.Time) bool {
	return !now.Before(e.next)
}

// Snapshot stores the state of every component and returns the hash.
func (e *Engine) Snapshot(_ context.Context, now time.Time) ([]byte, error) {
	defer metrics.EngineTimeCounterAdd(time.Now(), "snapshot", "snapshot")

	snap := Snapshot{
		Seq:     e.seq + 1,
		Time:    now.UnixNano(),
		Version: e.version,
		States:  make([]NamedState, 0, len(e.states)),
	}
	for _, s := range e.states {
		data, err := s.Checkpoint()
		if err != nil {
			return nil, fmt.Errorf("couldn't snapshot %s: %w", s.Name(), err)
		}
		snap.States = append(snap.States, NamedState{Name: s.Name(), Data: data})
	}
	hash := hashStates(snap.States)
	snap.Hash = hex.EncodeToString(hash)

	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}
	if err := e.db.Put(seqKey(snap.Seq), e.enc.EncodeAll(raw, nil), nil); err != nil {
		return nil, fmt.Errorf("couldn't store snapshot: %w", err)
	}
	e.seq = snap.Seq
	e.next = now.Add(e.cfg.Interval.Get())

	if err := e.prune(); err != nil {
		e.log.Warn("couldn't prune old snapshots", logging.Error(err))
	}
	e.log.Debug("snapshot stored",
		logging.Uint64("seq", snap.Seq),
		logging.String("hash", snap.Hash),
	)
	return hash, nil
}

// LoadLatest restores every registered component from the most recent
// snapshot. ErrNoSnapshot is returned on an empty store.
func (e *Engine) LoadLatest(ctx context.Context) (*Info, error) {
	if e.seq == 0 {
		return nil, ErrNoSnapshot
	}
	return e.Load(ctx, e.seq)
}

// Load restores every registered component from the given snapshot.
// Components missing from the snapshot are left untouched.
func (e *Engine) Load(ctx context.Context, seq uint64) (*Info, error) {
	raw, err := e.db.Get(seqKey(seq), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrNoSnapshot, seq)
	}
	if err != nil {
		return nil, err
	}
	snap, err := e.decode(raw)
	if err != nil {
		return nil, fmt.Errorf("couldn't decode snapshot %d: %w", seq, err)
	}
	if hex.EncodeToString(hashStates(snap.States)) != snap.Hash {
		return nil, ErrHashMismatch
	}
	if err := e.checkVersion(snap.Version); err != nil {
		return nil, err
	}

	data := make(map[string][]byte, len(snap.States))
	for _, s := range snap.States {
		if _, ok := e.names[s.Name]; !ok {
			e.log.Warn("snapshot holds an unknown state", logging.String("name", s.Name))
			continue
		}
		data[s.Name] = s.Data
	}
	for _, s := range e.states {
		d, ok := data[s.Name()]
		if !ok {
			continue
		}
		if err := s.Load(ctx, d); err != nil {
			return nil, fmt.Errorf("couldn't load %s: %w", s.Name(), err)
		}
	}

	info := snap.info(len(raw))
	e.log.Info("state restored from snapshot",
		logging.Uint64("seq", info.Seq),
		logging.String("hash", info.Hash),
		logging.String("version", info.Version),
		logging.Time("taken-at", info.Time),
	)
	return info, nil
}

// List returns the stored snapshots, oldest first.
func (e *Engine) List() ([]*Info, error) {
	it := e.db.NewIterator(util.BytesPrefix(keyPrefix), nil)
	defer it.Release()

	out := []*Info{}
	for it.Next() {
		snap, err := e.decode(it.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, snap.info(len(it.Value())))
	}
	return out, it.Error()
}

func (e *Engine) Close() error {
	e.dec.Close()
	_ = e.enc.Close()
	return e.db.Close()
}

func (e *Engine) decode(raw []byte) (*Snapshot, error) {
	data, err := e.dec.DecodeAll(raw, nil)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{}
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// checkVersion accepts snapshots from the same major release, or the same
// minor release while the major is 0.
func (e *Engine) checkVersion(taken string) error {
	running, err := semver.ParseTolerant(e.version)
	if err != nil {
		e.log.Warn("running version is not semver, skipping the snapshot version check",
			logging.String("version", e.version))
		return nil
	}
	v, err := semver.ParseTolerant(taken)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrIncompatibleVersion, taken)
	}
	if v.Major != running.Major || (v.Major == 0 && v.Minor != running.Minor) {
		return fmt.Errorf("%w: %s, running %s", ErrIncompatibleVersion, taken, e.version)
	}
	return nil
}

func (e *Engine) prune() error {
	if e.seq <= uint64(e.cfg.KeepRecent) {
		return nil
	}
	oldest := e.seq - uint64(e.cfg.KeepRecent)
	it := e.db.NewIterator(&util.Range{Start: seqKey(0), Limit: seqKey(oldest + 1)}, nil)
	defer it.Release()

	batch := new(leveldb.Batch)
	for it.Next() {
		batch.Delete(append([]byte{}, it.Key()...))
	}
	if err := it.Error(); err != nil {
		return err
	}
	return e.db.Write(batch, nil)
}

func (e *Engine) latestSeq() (uint64, error) {
	it := e.db.NewIterator(util.BytesPrefix(keyPrefix), nil)
	defer it.Release()
	if !it.Last() {
		return 0, it.Error()
	}
	return binary.BigEndian.Uint64(bytes.TrimPrefix(it.Key(), keyPrefix)), nil
}

func (s Snapshot) info(size int) *Info {
	return &Info{
		Seq:     s.Seq,
		Time:    time.Unix(0, s.Time).UTC(),
		Version: s.Version,
		Hash:    s.Hash,
		Size:    size,
	}
}

func seqKey(seq uint64) []byte {
	k := make([]byte, len(keyPrefix)+8)
	copy(k, keyPrefix)
	binary.BigEndian.PutUint64(k[len(keyPrefix):], seq)
	return k
}

func hashStates(states []NamedState) []byte {
	h := sha3.New256()
	for _, s := range states {
		h.Write([]byte(s.Name))
		h.Write(s.Data)
	}
	return h.Sum(nil)
}
