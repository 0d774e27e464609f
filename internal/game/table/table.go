package table

import (
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/fzj270452746/MJSort/internal/game/core"
)

// Command 外部命令名称
type Command string

const (
	CmdStart        Command = "start"
	CmdDeal         Command = "deal"
	CmdSelect       Command = "select"
	CmdConfirm      Command = "confirm"
	CmdSkip         Command = "skip"
	CmdTimerExpired Command = "timer_expired"
	CmdRestart      Command = "restart"
)

// Config 牌局节奏配置，单位为调度器时钟格
type Config struct {
	StartTicks     int // 开局到第一次发牌
	SettleTicks    int // 发牌到结算
	DealTicks      int // 结算到下一次发牌
	CountdownTicks int // 玩家选牌倒计时
}

// DefaultConfig 默认节奏
func DefaultConfig() Config {
	return Config{
		StartTicks:     1,
		SettleTicks:    1,
		DealTicks:      1,
		CountdownTicks: 10,
	}
}

// normalize 非法值回落到默认值
func (c Config) normalize() Config {
	def := DefaultConfig()
	if c.StartTicks <= 0 {
		c.StartTicks = def.StartTicks
	}
	if c.SettleTicks <= 0 {
		c.SettleTicks = def.SettleTicks
	}
	if c.DealTicks <= 0 {
		c.DealTicks = def.DealTicks
	}
	if c.CountdownTicks <= 0 {
		c.CountdownTicks = def.CountdownTicks
	}
	return c
}

// DeckSource 每局开始时提供一副新牌
type DeckSource func() *core.Deck

// ShuffledDecks 用同一个随机源连续洗牌，rng 为空时按时间取种子
func ShuffledDecks(rng *rand.Rand) DeckSource {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return func() *core.Deck {
		return core.NewDeck(rng)
	}
}

// FixedDeck 每局都使用同样顺序的牌（最后一张最先发出）
func FixedDeck(tiles []core.Tile) DeckSource {
	return func() *core.Deck {
		return core.NewOrderedDeck(tiles)
	}
}

// Table 一个牌局会话的回合/发牌状态机
//
// 所有命令和回调都在 mu 下串行执行，事件在持锁期间按顺序发出。
type Table struct {
	mu sync.Mutex

	sessionID string
	cfg       Config
	timer     Timer
	sink      EventSink
	decks     DeckSource
	logger    *slog.Logger

	state   *GameState
	epoch   int64
	seq     int64
	pending map[string]timerKind // 待执行回调 ID
}

// New 创建牌局
func New(sessionID string, cfg Config, timer Timer, sink EventSink, decks DeckSource) *Table {
	if sink == nil {
		sink = discardSink{}
	}
	if decks == nil {
		decks = ShuffledDecks(nil)
	}

	return &Table{
		sessionID: sessionID,
		cfg:       cfg.normalize(),
		timer:     timer,
		sink:      sink,
		decks:     decks,
		logger:    slog.Default().With("component", "Table", "session", sessionID),
		state:     newGameState(core.NewOrderedDeck(nil)),
		pending:   make(map[string]timerKind),
	}
}

// SessionID 会话 ID
func (t *Table) SessionID() string {
	return t.sessionID
}

// Epoch 当前局的代数，每次开局加一
func (t *Table) Epoch() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.epoch
}

// Phase 当前阶段
func (t *Table) Phase() Phase {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.state.Phase
}

// IsGameOver 是否已结束
func (t *Table) IsGameOver() bool {
	return t.Phase() == PhaseGameOver
}

// PendingTimers 待执行回调数量
func (t *Table) PendingTimers() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.pending)
}

// Snapshot 获取只读副本
func (t *Table) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.state.snapshot(t.sessionID, t.epoch)
}

// Start 开局，只能在未开始时调用
func (t *Table) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.Phase != PhaseIdle {
		return t.reject(CmdStart, core.ErrGameAlreadyStarted)
	}

	t.begin()
	return nil
}

// Restart 丢弃当前局并重新开局，旧局的回调全部失效
func (t *Table) Restart() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cancelAll()
	t.logger.Info("重新开局", "oldEpoch", t.epoch, "phase", t.state.Phase)
	t.begin()
	return nil
}

// Close 取消全部回调，之后的回调都会被忽略
func (t *Table) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cancelAll()
	t.epoch++
}

// begin 创建新一局并安排第一次发牌，调用方需持有锁
func (t *Table) begin() {
	t.epoch++
	t.state = newGameState(t.decks())
	t.state.Phase = PhaseDealing

	t.logger.Info("牌局开始", "epoch", t.epoch, "deckRemaining", t.state.Deck.Remaining())
	t.emit(GameStarted{Epoch: t.epoch, DeckRemaining: t.state.Deck.Remaining()})

	t.schedule(timerDeal, t.cfg.StartTicks, t.dealLocked)
}

// RequestDeal 发一张牌
//
// 等待结算时调用不做任何事；牌堆为空时直接结束牌局。
func (t *Table) RequestDeal() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state.Phase {
	case PhaseIdle:
		return t.reject(CmdDeal, core.ErrGameNotStarted)
	case PhaseGameOver:
		return t.reject(CmdDeal, core.ErrGameOver)
	case PhaseAwaitingResolution:
		return nil
	}

	// 外部触发的发牌替代已安排的发牌
	t.cancelKind(timerDeal)
	t.dealLocked()
	return nil
}

// dealLocked 执行发牌，调用方需持有锁
func (t *Table) dealLocked() {
	s := t.state
	if s.Phase == PhaseGameOver || s.Phase == PhaseAwaitingResolution {
		return
	}

	if s.Deck.IsEmpty() {
		t.endGame(nil)
		return
	}

	turn, forced := BalanceTurn(s.balanceInput())
	s.ForcedBalance = forced
	t.setTurn(turn)

	tile, ok := s.Deck.Draw()
	if !ok {
		t.endGame(nil)
		return
	}

	s.hand(turn).Add(tile)
	s.countDeal(turn)
	s.Phase = PhaseAwaitingResolution
	s.Stage = StageSettling

	t.logger.Debug("发牌",
		"side", turn,
		"tile", tile.String(),
		"deckRemaining", s.Deck.Remaining(),
		"playerDeals", s.PlayerDeals,
		"computerDeals", s.ComputerDeals,
		"forced", s.ForcedBalance)

	t.emit(TileDealt{
		Side:          turn,
		DeckRemaining: s.Deck.Remaining(),
		TileID:        tile.ID,
		Tile:          tile,
	})

	t.schedule(timerSettle, t.cfg.SettleTicks, t.settle)
}

// setTurn 切换回合，发生变化时发出 TurnChanged
func (t *Table) setTurn(side core.Side) {
	if t.state.CurrentTurn == side {
		return
	}
	t.state.CurrentTurn = side
	t.emit(TurnChanged{Side: side, Round: t.state.Round})
}

// scheduleNextDeal 回到发牌阶段并安排下一次发牌
func (t *Table) scheduleNextDeal() {
	t.state.Phase = PhaseDealing
	t.state.Stage = StageNone
	t.schedule(timerDeal, t.cfg.DealTicks, t.dealLocked)
}

// emit 发出事件，调用方需持有锁
func (t *Table) emit(event Event) {
	t.sink.Publish(event)
}

// reject 拒绝命令：发出 InvalidOperation 并返回错误，状态不变
func (t *Table) reject(cmd Command, err error) error {
	var ge *core.GameError
	reason := err.Error()
	if errors.As(err, &ge) {
		reason = ge.Message
	}

	t.logger.Warn("命令被拒绝", "command", cmd, "code", core.CodeOf(err), "reason", reason, "phase", t.state.Phase)
	t.emit(InvalidOperation{Command: cmd, Code: core.CodeOf(err), Reason: reason})
	return err
}
