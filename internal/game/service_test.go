package game

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fzj270452746/MJSort/internal/game/core"
	"github.com/fzj270452746/MJSort/internal/game/table"
	"github.com/fzj270452746/MJSort/internal/model"
	"github.com/fzj270452746/MJSort/internal/task"
)

type publishedEvent struct {
	sessionID string
	seq       int64
	kind      table.EventKind
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *fakePublisher) Publish(sessionID string, seq int64, event table.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, publishedEvent{sessionID: sessionID, seq: seq, kind: event.Kind()})
	return p.err
}

func (p *fakePublisher) Events() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]publishedEvent(nil), p.events...)
}

type fakeSnapshotStore struct {
	mu    sync.Mutex
	snaps map[string]table.Snapshot
}

func newFakeSnapshotStore() *fakeSnapshotStore {
	return &fakeSnapshotStore{snaps: make(map[string]table.Snapshot)}
}

func (s *fakeSnapshotStore) Save(ctx context.Context, snap table.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snaps[snap.SessionID] = snap
	return nil
}

func (s *fakeSnapshotStore) Load(ctx context.Context, sessionID string) (*table.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.snaps[sessionID]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

func (s *fakeSnapshotStore) Get(sessionID string) (table.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.snaps[sessionID]
	return snap, ok
}

type fakeRecordStore struct {
	mu      sync.Mutex
	records []*model.GameRecord
}

func (s *fakeRecordStore) Create(ctx context.Context, rec *model.GameRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)
	return int64(len(s.records)), nil
}

func (s *fakeRecordStore) Records() []*model.GameRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]*model.GameRecord(nil), s.records...)
}

func newTestService(t *testing.T) (*GameService, *task.VirtualScheduler) {
	t.Helper()
	sched := task.NewVirtualScheduler()
	svc := NewGameService(NewManager(0, 0), sched, table.DefaultConfig())
	t.Cleanup(func() {
		_ = svc.Stop(context.Background())
		_ = svc.Manager().Shutdown(context.Background())
	})
	return svc, sched
}

// finish 用脚本玩家推进到牌局结束
func finish(t *testing.T, tbl *table.Table, sched *task.VirtualScheduler) table.Snapshot {
	t.Helper()
	snap, err := playOut(tbl, sched, ScriptedPlayer{})
	require.NoError(t, err)
	return snap
}

func TestServiceCreateStartsGame(t *testing.T) {
	svc, sched := newTestService(t)
	pub := &fakePublisher{}
	svc.WithPublisher(pub)

	sess, err := svc.Create(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID())
	assert.Equal(t, 1, svc.SessionCount())
	assert.Equal(t, table.PhaseDealing, sess.Table().Phase())
	assert.Equal(t, 1, sched.Pending())

	events := pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, publishedEvent{sessionID: sess.ID(), seq: 1, kind: table.KindGameStarted}, events[0])

	// 第一次发牌后序号继续递增
	require.True(t, sched.RunNext())
	events = pub.Events()
	require.Greater(t, len(events), 1)
	for i, e := range events {
		assert.Equal(t, int64(i+1), e.seq)
	}
}

func TestServiceExecuteErrors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	err := svc.Execute(ctx, "missing", table.CmdDeal, 0)
	assert.True(t, core.IsCode(err, core.ErrSessionNotFound))

	sess, err := svc.Create(ctx)
	require.NoError(t, err)

	err = svc.Execute(ctx, sess.ID(), table.Command("fly"), 0)
	assert.True(t, core.IsCode(err, core.ErrUnknownCommand))

	err = svc.Execute(ctx, sess.ID(), table.CmdStart, 0)
	assert.True(t, core.IsCode(err, core.ErrGameAlreadyStarted))

	err = svc.Execute(ctx, sess.ID(), table.CmdConfirm, 0)
	assert.True(t, core.IsCode(err, core.ErrInvalidPhase))

	require.NoError(t, svc.Execute(ctx, sess.ID(), table.CmdDeal, 0))
	assert.Equal(t, table.PhaseAwaitingResolution, sess.Table().Phase())
}

func TestServicePublishErrorDoesNotChangeState(t *testing.T) {
	svc, sched := newTestService(t)
	svc.WithPublisher(&fakePublisher{err: errors.New("nats down")})

	sess, err := svc.Create(context.Background())
	require.NoError(t, err)

	snap := finish(t, sess.Table(), sched)
	assert.Equal(t, table.PhaseGameOver, snap.Phase)
}

func TestServiceSnapshotAndClose(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Create(ctx)
	require.NoError(t, err)

	snap, err := svc.Snapshot(ctx, sess.ID())
	require.NoError(t, err)
	assert.Equal(t, sess.ID(), snap.SessionID)
	assert.Equal(t, core.TotalTiles, snap.TileCount())

	require.NoError(t, svc.Close(ctx, sess.ID()))
	assert.Equal(t, 0, svc.SessionCount())

	_, err = svc.Snapshot(ctx, sess.ID())
	assert.True(t, core.IsCode(err, core.ErrSessionNotFound))

	err = svc.Close(ctx, sess.ID())
	assert.True(t, core.IsCode(err, core.ErrSessionNotFound))
}

func TestServicePersistsSnapshotsAndRecords(t *testing.T) {
	svc, sched := newTestService(t)
	snapshots := newFakeSnapshotStore()
	records := &fakeRecordStore{}
	svc.WithSeed(11).WithSnapshotStore(snapshots).WithRecordStore(records)
	svc.Start()

	ctx := context.Background()
	sess, err := svc.Create(ctx)
	require.NoError(t, err)

	final := finish(t, sess.Table(), sched)
	require.NotNil(t, final.Outcome)

	require.Eventually(t, func() bool {
		return len(records.Records()) == 1
	}, time.Second, 5*time.Millisecond)

	rec := records.Records()[0]
	assert.Equal(t, sess.ID(), rec.SessionId)
	assert.Equal(t, int64(1), rec.Epoch)
	assert.Equal(t, string(final.Outcome.Reason), rec.EndReason)
	assert.Equal(t, final.Scores.Player, rec.PlayerScore)
	assert.Equal(t, final.Scores.Computer, rec.ComputerScore)

	require.Eventually(t, func() bool {
		snap, ok := snapshots.Get(sess.ID())
		return ok && snap.Phase == table.PhaseGameOver
	}, time.Second, 5*time.Millisecond)

	// 会话关闭后仍可从快照存储读取
	require.NoError(t, svc.Close(ctx, sess.ID()))
	snap, err := svc.Snapshot(ctx, sess.ID())
	require.NoError(t, err)
	assert.Equal(t, table.PhaseGameOver, snap.Phase)
}

func TestServiceSeedIsReproducible(t *testing.T) {
	firstHands := func() ([]core.Tile, []core.Tile) {
		svc, sched := newTestService(t)
		svc.WithSeed(42)
		sess, err := svc.Create(context.Background())
		require.NoError(t, err)
		for i := 0; i < 6; i++ {
			require.True(t, sched.RunNext())
		}
		snap := sess.Table().Snapshot()
		return snap.PlayerHand, snap.ComputerHand
	}

	p1, c1 := firstHands()
	p2, c2 := firstHands()
	assert.Equal(t, p1, p2)
	assert.Equal(t, c1, c2)
}

func TestRecordFromGame(t *testing.T) {
	player := core.SidePlayer
	fin := finishedGame{
		epoch: 3,
		event: table.GameEnded{Winner: &player, PlayerScore: 200, Reward: 300, Reason: core.EndHandEmptied},
		at:    time.Now(),
	}

	snap := &table.Snapshot{Epoch: 3, Round: 5, PlayerDeals: 4, ComputerDeals: 4, DeckRemaining: 100}
	rec := recordFromGame("s-1", fin, snap)
	assert.Equal(t, model.GameResultWin, rec.Result)
	require.NotNil(t, rec.Winner)
	assert.Equal(t, "player", *rec.Winner)
	assert.Equal(t, 5, rec.Rounds)
	assert.Equal(t, 100, rec.DeckRemaining)

	// 快照已属于下一局时不使用其中的轮次
	snap.Epoch = 4
	rec = recordFromGame("s-1", fin, snap)
	assert.Zero(t, rec.Rounds)

	fin.event.Winner = nil
	rec = recordFromGame("s-1", fin, nil)
	assert.Equal(t, model.GameResultTie, rec.Result)
	assert.Nil(t, rec.Winner)
}
