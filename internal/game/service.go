package game

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/fzj270452746/MJSort/internal/game/core"
	"github.com/fzj270452746/MJSort/internal/game/table"
	"github.com/fzj270452746/MJSort/internal/model"
)

// persistTimeout 单次快照/记录写入的超时
const persistTimeout = 3 * time.Second

// EventPublisher 牌局事件的外部推送方
type EventPublisher interface {
	Publish(sessionID string, seq int64, event table.Event) error
}

// SnapshotStore 牌局快照存储
type SnapshotStore interface {
	Save(ctx context.Context, snap table.Snapshot) error
	Load(ctx context.Context, sessionID string) (*table.Snapshot, error)
}

// RecordStore 对局记录存储
type RecordStore interface {
	Create(ctx context.Context, rec *model.GameRecord) (int64, error)
}

// finishedGame 一局结束时的结算信息
type finishedGame struct {
	epoch int64
	event table.GameEnded
	at    time.Time
}

// persistJob 等待写入的会话
type persistJob struct {
	finished []finishedGame
}

// GameService 游戏服务
// 负责创建会话、分发命令，并把事件推送出去、把快照和对局记录异步落盘
type GameService struct {
	manager *Manager
	timer   table.Timer
	cfg     table.Config
	decks   func() table.DeckSource

	publisher EventPublisher
	snapshots SnapshotStore
	records   RecordStore

	mu    sync.Mutex
	dirty map[string]*persistJob
	wake  chan struct{}

	stopChan  chan struct{}
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool

	logger *slog.Logger
}

// NewGameService 创建游戏服务
func NewGameService(manager *Manager, timer table.Timer, cfg table.Config) *GameService {
	return &GameService{
		manager:  manager,
		timer:    timer,
		cfg:      cfg,
		decks:    func() table.DeckSource { return table.ShuffledDecks(nil) },
		dirty:    make(map[string]*persistJob),
		wake:     make(chan struct{}, 1),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   slog.Default().With("component", "GameService"),
	}
}

// WithSeed 使用固定种子洗牌，第 n 个会话的随机源种子为 seed+n；seed 为 0 时按时间取种子
func (s *GameService) WithSeed(seed int64) *GameService {
	if seed == 0 {
		return s
	}
	var n atomic.Int64
	s.decks = func() table.DeckSource {
		return table.ShuffledDecks(rand.New(rand.NewSource(seed + n.Add(1) - 1)))
	}
	return s
}

// WithDecks 每个会话使用 source 返回的牌堆来源
func (s *GameService) WithDecks(source func() table.DeckSource) *GameService {
	s.decks = source
	return s
}

// WithPublisher 设置事件推送方
func (s *GameService) WithPublisher(p EventPublisher) *GameService {
	s.publisher = p
	return s
}

// WithSnapshotStore 设置快照存储
func (s *GameService) WithSnapshotStore(store SnapshotStore) *GameService {
	s.snapshots = store
	return s
}

// WithRecordStore 设置对局记录存储
func (s *GameService) WithRecordStore(store RecordStore) *GameService {
	s.records = store
	return s
}

// Start 启动落盘协程
func (s *GameService) Start() {
	s.startOnce.Do(func() {
		s.started.Store(true)
		go s.persistLoop()
		s.logger.Info("GameService started",
			"publisher", s.publisher != nil,
			"snapshots", s.snapshots != nil,
			"records", s.records != nil)
	})
}

// Stop 停止落盘协程，退出前写完积压的数据
func (s *GameService) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	if !s.started.Load() {
		return nil
	}

	select {
	case <-s.done:
		s.logger.Info("GameService stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Manager 会话管理器
func (s *GameService) Manager() *Manager {
	return s.manager
}

// SessionCount 当前会话数
func (s *GameService) SessionCount() int {
	return s.manager.Count()
}

// Create 创建会话并开局
func (s *GameService) Create(ctx context.Context) (*Session, error) {
	sess := NewSession(uuid.NewString(), nil)
	sess.table = table.New(sess.ID(), s.cfg, s.timer, s.sessionSink(sess), s.decks())

	if err := s.manager.Add(sess); err != nil {
		s.logger.Warn("Failed to create session", "error", err, "sessions", s.manager.Count())
		return nil, err
	}

	if err := sess.Table().Start(); err != nil {
		s.manager.Remove(sess.ID())
		return nil, err
	}

	s.logger.Info("Session created", "sessionId", sess.ID(), "sessions", s.manager.Count())
	return sess, nil
}

// Execute 对会话执行一条命令
func (s *GameService) Execute(ctx context.Context, sessionID string, cmd table.Command, tileID uint16) error {
	sess, ok := s.manager.Get(sessionID)
	if !ok {
		return core.ErrSessionNotFound.WithContext("sessionId", sessionID)
	}
	sess.Touch()

	tbl := sess.Table()
	switch cmd {
	case table.CmdStart:
		return tbl.Start()
	case table.CmdDeal:
		return tbl.RequestDeal()
	case table.CmdSelect:
		return tbl.SelectTile(tileID)
	case table.CmdConfirm:
		return tbl.ConfirmRemoval()
	case table.CmdSkip:
		return tbl.Skip()
	case table.CmdTimerExpired:
		return tbl.TimerExpired()
	case table.CmdRestart:
		return tbl.Restart()
	default:
		return core.ErrUnknownCommand.WithContext("command", string(cmd))
	}
}

// Snapshot 获取会话快照；会话不在内存中时从快照存储读取
func (s *GameService) Snapshot(ctx context.Context, sessionID string) (table.Snapshot, error) {
	if sess, ok := s.manager.Get(sessionID); ok {
		sess.Touch()
		return sess.Table().Snapshot(), nil
	}

	if s.snapshots != nil {
		snap, err := s.snapshots.Load(ctx, sessionID)
		if err != nil {
			return table.Snapshot{}, err
		}
		if snap != nil {
			return *snap, nil
		}
	}

	return table.Snapshot{}, core.ErrSessionNotFound.WithContext("sessionId", sessionID)
}

// Close 关闭会话
func (s *GameService) Close(ctx context.Context, sessionID string) error {
	if !s.manager.Remove(sessionID) {
		return core.ErrSessionNotFound.WithContext("sessionId", sessionID)
	}
	return nil
}

// sessionSink 会话的事件出口，在 Table 持锁期间调用，不能回调 Table
func (s *GameService) sessionSink(sess *Session) table.EventSink {
	return table.SinkFunc(func(event table.Event) {
		if started, ok := event.(table.GameStarted); ok {
			sess.epoch = started.Epoch
		}

		seq := sess.NextSeq()
		if s.publisher != nil {
			if err := s.publisher.Publish(sess.ID(), seq, event); err != nil {
				s.logger.Warn("Failed to publish event", "sessionId", sess.ID(), "kind", event.Kind(), "error", err)
			}
		}

		s.markDirty(sess, event)
	})
}

// markDirty 记录需要落盘的会话并唤醒落盘协程
func (s *GameService) markDirty(sess *Session, event table.Event) {
	if s.snapshots == nil && s.records == nil {
		return
	}

	s.mu.Lock()
	job, ok := s.dirty[sess.ID()]
	if !ok {
		job = &persistJob{}
		s.dirty[sess.ID()] = job
	}
	if ended, ok := event.(table.GameEnded); ok {
		job.finished = append(job.finished, finishedGame{epoch: sess.epoch, event: ended, at: time.Now()})
	}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// persistLoop 落盘循环
func (s *GameService) persistLoop() {
	defer close(s.done)

	for {
		select {
		case <-s.wake:
			s.flush()
		case <-s.stopChan:
			s.flush()
			return
		}
	}
}

// flush 写入积压的快照和对局记录
func (s *GameService) flush() {
	s.mu.Lock()
	jobs := s.dirty
	s.dirty = make(map[string]*persistJob)
	s.mu.Unlock()

	for sessionID, job := range jobs {
		var snap *table.Snapshot
		if sess, ok := s.manager.Get(sessionID); ok {
			current := sess.Table().Snapshot()
			snap = &current
		}

		if snap != nil && s.snapshots != nil {
			ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
			if err := s.snapshots.Save(ctx, *snap); err != nil {
				s.logger.Warn("Failed to save snapshot", "sessionId", sessionID, "error", err)
			}
			cancel()
		}

		if s.records == nil {
			continue
		}
		for _, fin := range job.finished {
			rec := recordFromGame(sessionID, fin, snap)
			ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
			id, err := s.records.Create(ctx, rec)
			cancel()
			if err != nil {
				s.logger.Warn("Failed to save game record", "sessionId", sessionID, "epoch", fin.epoch, "error", err)
				continue
			}
			s.logger.Info("Game record saved", "sessionId", sessionID, "epoch", fin.epoch, "recordId", id, "result", rec.Result)
		}
	}
}

// recordFromGame 构建对局记录；快照仍属于同一局时补充轮次与发牌数
func recordFromGame(sessionID string, fin finishedGame, snap *table.Snapshot) *model.GameRecord {
	rec := &model.GameRecord{
		SessionId:     sessionID,
		Epoch:         fin.epoch,
		Result:        model.GameResultTie,
		EndReason:     string(fin.event.Reason),
		PlayerScore:   fin.event.PlayerScore,
		ComputerScore: fin.event.ComputerScore,
		CreatedAt:     fin.at,
	}

	if fin.event.Winner != nil {
		winner := fin.event.Winner.String()
		rec.Winner = &winner
		if *fin.event.Winner == core.SidePlayer {
			rec.Result = model.GameResultWin
		} else {
			rec.Result = model.GameResultLose
		}
	}

	if snap != nil && snap.Epoch == fin.epoch {
		rec.Rounds = snap.Round
		rec.PlayerDeals = snap.PlayerDeals
		rec.ComputerDeals = snap.ComputerDeals
		rec.DeckRemaining = snap.DeckRemaining
	}
	return rec
}
