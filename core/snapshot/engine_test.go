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

package snapshot_test

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"code.vegaprotocol.io/betvex/core/snapshot"
	"code.vegaprotocol.io/betvex/core/snapshot/mocks"
	"code.vegaprotocol.io/betvex/logging"

	"github.com/golang/mock/gomock"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb"
)

var now = time.Date(2024, 8, 17, 12, 0, 0, 0, time.UTC)

type testEngine struct {
	*snapshot.Engine
	ctrl *gomock.Controller
}

func getTestEngine(t *testing.T, cfg snapshot.Config) *testEngine {
	t.Helper()
	ctrl := gomock.NewController(t)
	eng, err := snapshot.New(logging.NewTestLogger(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return &testEngine{
		Engine: eng,
		ctrl:   ctrl,
	}
}

func (te *testEngine) state(name string, data []byte) *mocks.MockState {
	s := mocks.NewMockState(te.ctrl)
	s.EXPECT().Name().AnyTimes().Return(name)
	s.EXPECT().Checkpoint().AnyTimes().Return(data, nil)
	return s
}

func TestConfig(t *testing.T) {
	cfg := snapshot.NewDefaultConfig()
	require.NoError(t, cfg.Validate())
	cfg = snapshot.NewTestConfig()
	require.NoError(t, cfg.Validate())

	cfg = snapshot.NewDefaultConfig()
	cfg.KeepRecent = 0
	require.Error(t, cfg.Validate())

	cfg = snapshot.NewTestConfig()
	cfg.DBPath = "somewhere"
	require.Error(t, cfg.Validate())

	cfg = snapshot.NewDefaultConfig()
	cfg.DBPath = ""
	require.Error(t, cfg.Validate())

	cfg = snapshot.NewDefaultConfig()
	cfg.Storage = "redis"
	require.ErrorIs(t, cfg.Validate(), snapshot.ErrInvalidStorageMethod)
}

func TestAddDuplicate(t *testing.T) {
	eng := getTestEngine(t, snapshot.NewTestConfig())
	require.NoError(t, eng.Add(eng.state("staking", nil)))
	require.ErrorIs(t, eng.Add(eng.state("staking", nil)), snapshot.ErrDuplicateState)
}

func TestSnapshotInterval(t *testing.T) {
	eng := getTestEngine(t, snapshot.NewTestConfig())
	require.NoError(t, eng.Add(eng.state("staking", []byte("{}"))))

	// nothing taken yet
	require.True(t, eng.ShouldSnapshot(now))
	_, err := eng.Snapshot(context.Background(), now)
	require.NoError(t, err)

	require.False(t, eng.ShouldSnapshot(now.Add(30*time.Second)))
	require.True(t, eng.ShouldSnapshot(now.Add(time.Minute)))

	cfg := snapshot.NewTestConfig()
	cfg.Interval.Duration = 10 * time.Second
	eng.ReloadConf(cfg)
	require.True(t, eng.ShouldSnapshot(now.Add(10*time.Second)))
}

func TestLoad(t *testing.T) {
	t.Run("restore the latest snapshot", testLoadLatest)
	t.Run("empty store has nothing to load", testLoadEmpty)
	t.Run("unknown and missing states are skipped", testLoadSparse)
	t.Run("load errors are reported", testLoadError)
	t.Run("tampered snapshot is rejected", testLoadTampered)
	t.Run("snapshots from another release line are rejected", testLoadVersion)
}

func testLoadLatest(t *testing.T) {
	eng := getTestEngine(t, snapshot.NewTestConfig())
	ctx := context.Background()

	matches := eng.state("matches", []byte(`{"matches":[]}`))
	staking := mocks.NewMockState(eng.ctrl)
	staking.EXPECT().Name().AnyTimes().Return("staking")
	gomock.InOrder(
		staking.EXPECT().Checkpoint().Return([]byte(`{"total":"1"}`), nil),
		staking.EXPECT().Checkpoint().Return([]byte(`{"total":"2"}`), nil),
	)
	require.NoError(t, eng.Add(matches, staking))

	h1, err := eng.Snapshot(ctx, now)
	require.NoError(t, err)
	h2, err := eng.Snapshot(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	require.NotEqual(t, h1, h2)

	gomock.InOrder(
		matches.EXPECT().Load(gomock.Any(), []byte(`{"matches":[]}`)).Return(nil),
		staking.EXPECT().Load(gomock.Any(), []byte(`{"total":"2"}`)).Return(nil),
	)
	info, err := eng.LoadLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), info.Seq)
	assert.Equal(t, hex.EncodeToString(h2), info.Hash)
	assert.Equal(t, now.Add(time.Minute), info.Time)
}

func testLoadEmpty(t *testing.T) {
	eng := getTestEngine(t, snapshot.NewTestConfig())
	_, err := eng.LoadLatest(context.Background())
	require.ErrorIs(t, err, snapshot.ErrNoSnapshot)
	_, err = eng.Load(context.Background(), 42)
	require.ErrorIs(t, err, snapshot.ErrNoSnapshot)
}

func testLoadSparse(t *testing.T) {
	cfg := snapshot.NewDefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "snapshots")
	ctx := context.Background()

	eng := getTestEngine(t, cfg)
	require.NoError(t, eng.Add(eng.state("vesting", []byte("v")), eng.state("settlement", []byte("s"))))
	_, err := eng.Snapshot(ctx, now)
	require.NoError(t, err)
	require.NoError(t, eng.Close())

	// settlement was dropped and contract is new
	reopened := getTestEngine(t, cfg)
	vesting := reopened.state("vesting", nil)
	contract := reopened.state("contract", nil)
	require.NoError(t, reopened.Add(contract, vesting))
	vesting.EXPECT().Load(gomock.Any(), []byte("v")).Times(1).Return(nil)

	info, err := reopened.LoadLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), info.Seq)

	// sequence continues after a restart
	_, err = reopened.Snapshot(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	list, err := reopened.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, uint64(2), list[1].Seq)
}

func testLoadError(t *testing.T) {
	eng := getTestEngine(t, snapshot.NewTestConfig())
	staking := eng.state("staking", []byte("{}"))
	require.NoError(t, eng.Add(staking))
	_, err := eng.Snapshot(context.Background(), now)
	require.NoError(t, err)

	boom := errors.New("boom")
	staking.EXPECT().Load(gomock.Any(), gomock.Any()).Return(boom)
	_, err = eng.LoadLatest(context.Background())
	require.ErrorIs(t, err, boom)
}

func testLoadTampered(t *testing.T) {
	cfg := snapshot.NewDefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "snapshots")
	ctx := context.Background()

	eng := getTestEngine(t, cfg)
	require.NoError(t, eng.Add(eng.state("staking", []byte(`{"total":"1"}`))))
	_, err := eng.Snapshot(ctx, now)
	require.NoError(t, err)
	require.NoError(t, eng.Close())

	db, err := leveldb.OpenFile(cfg.DBPath, nil)
	require.NoError(t, err)
	it := db.NewIterator(nil, nil)
	require.True(t, it.Next())
	key := append([]byte{}, it.Key()...)
	dec, err := zstd.NewReader(nil)
	require.NoError(t, err)
	defer dec.Close()
	raw, err := dec.DecodeAll(it.Value(), nil)
	require.NoError(t, err)
	it.Release()

	snap := snapshot.Snapshot{}
	require.NoError(t, json.Unmarshal(raw, &snap))
	assert.NotEmpty(t, snap.Version)
	snap.States[0].Data = []byte(`{"total":"1000000"}`)
	raw, err = json.Marshal(snap)
	require.NoError(t, err)
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	require.NoError(t, db.Put(key, enc.EncodeAll(raw, nil), nil))
	require.NoError(t, db.Close())

	reopened := getTestEngine(t, cfg)
	require.NoError(t, reopened.Add(reopened.state("staking", nil)))
	_, err = reopened.LoadLatest(ctx)
	require.ErrorIs(t, err, snapshot.ErrHashMismatch)
}

func testLoadVersion(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		taken, running string
		ok             bool
	}{
		{taken: "v0.1.0", running: "v0.1.3+dev", ok: true},
		{taken: "v0.1.0", running: "v0.2.0", ok: false},
		{taken: "v1.2.0", running: "v1.7.1", ok: true},
		{taken: "v1.2.0", running: "v2.0.0", ok: false},
		{taken: "nightly", running: "v0.1.0", ok: false},
		// no check without a semver release
		{taken: "v0.1.0", running: "local", ok: true},
	}
	for _, tc := range cases {
		eng := getTestEngine(t, snapshot.NewTestConfig())
		staking := eng.state("staking", []byte("{}"))
		require.NoError(t, eng.Add(staking))

		eng.SetVersion(tc.taken)
		_, err := eng.Snapshot(ctx, now)
		require.NoError(t, err)

		eng.SetVersion(tc.running)
		if !tc.ok {
			_, err = eng.LoadLatest(ctx)
			assert.ErrorIs(t, err, snapshot.ErrIncompatibleVersion, "%s -> %s", tc.taken, tc.running)
			continue
		}
		staking.EXPECT().Load(gomock.Any(), []byte("{}")).Return(nil)
		info, err := eng.LoadLatest(ctx)
		require.NoError(t, err, "%s -> %s", tc.taken, tc.running)
		assert.Equal(t, tc.taken, info.Version)
		assert.Positive(t, info.Size)
	}
}

func TestPrune(t *testing.T) {
	cfg := snapshot.NewTestConfig()
	cfg.KeepRecent = 2
	eng := getTestEngine(t, cfg)
	require.NoError(t, eng.Add(eng.state("staking", []byte("{}"))))

	for i := 0; i < 4; i++ {
		_, err := eng.Snapshot(context.Background(), now.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}
	list, err := eng.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, uint64(3), list[0].Seq)
	assert.Equal(t, uint64(4), list[1].Seq)
}
