package table

import (
	"sync"

	"github.com/fzj270452746/MJSort/internal/game/core"
)

// EventKind 事件类型
type EventKind string

const (
	KindGameStarted           EventKind = "game_started"
	KindTileDealt             EventKind = "tile_dealt"
	KindComboAutoResolved     EventKind = "combo_auto_resolved"
	KindSelectionPhaseStarted EventKind = "selection_phase_started"
	KindSelectionChanged      EventKind = "selection_changed"
	KindComboValidated        EventKind = "combo_validated"
	KindComboInvalid          EventKind = "combo_invalid"
	KindComboRemoved          EventKind = "combo_removed"
	KindScoreChanged          EventKind = "score_changed"
	KindTurnChanged           EventKind = "turn_changed"
	KindGameEnded             EventKind = "game_ended"
	KindInvalidOperation      EventKind = "invalid_operation"
)

// Event 牌局事件
type Event interface {
	Kind() EventKind
}

// EventSink 事件接收方
//
// Publish 在 Table 持锁期间按状态转换顺序同步调用，实现不能回调 Table。
type EventSink interface {
	Publish(event Event)
}

// GameStarted 新一局开始
type GameStarted struct {
	Epoch         int64 `json:"epoch"`
	DeckRemaining int   `json:"deckRemaining"`
}

// TileDealt 发出一张牌
type TileDealt struct {
	Side          core.Side `json:"side"`
	DeckRemaining int       `json:"deckRemaining"`
	TileID        uint16    `json:"tileId"`
	Tile          core.Tile `json:"tile"`
}

// ComboAutoResolved 电脑自动消除组合
type ComboAutoResolved struct {
	Side      core.Side      `json:"side"`
	ComboType core.ComboType `json:"comboType"`
	Score     int            `json:"score"`
	TileIDs   []uint16       `json:"tileIds"`
}

// SelectionPhaseStarted 玩家选牌窗口打开
type SelectionPhaseStarted struct {
	Recommended []uint16        `json:"recommended,omitempty"`
	ComboType   *core.ComboType `json:"comboType,omitempty"`
	ComboScore  *int            `json:"comboScore,omitempty"`
	Countdown   int             `json:"countdown"` // 倒计时格数
}

// SelectionChanged 选中的牌发生变化
type SelectionChanged struct {
	Count    int      `json:"count"`
	Selected []uint16 `json:"selected"`
}

// ComboValidated 选中的三张牌是有效组合
type ComboValidated struct {
	Type  core.ComboType `json:"type"`
	Score int            `json:"score"`
}

// ComboInvalid 选中的三张牌不是有效组合
type ComboInvalid struct {
	Reason string `json:"reason"`
}

// ComboRemoved 玩家确认消除组合
type ComboRemoved struct {
	Side      core.Side      `json:"side"`
	ComboType core.ComboType `json:"comboType"`
	Score     int            `json:"score"`
	TileIDs   []uint16       `json:"tileIds"`
}

// ScoreChanged 分数变化
type ScoreChanged struct {
	Side  core.Side `json:"side"`
	Score int       `json:"score"`
}

// TurnChanged 回合切换
type TurnChanged struct {
	Side  core.Side `json:"side"`
	Round int       `json:"round"`
}

// GameEnded 对局结束
type GameEnded struct {
	Winner         *core.Side     `json:"winner,omitempty"`
	PlayerScore    int            `json:"playerScore"`
	ComputerScore  int            `json:"computerScore"`
	Reward         int            `json:"reward"` // 玩家获得的金币
	ComputerReward int            `json:"computerReward"`
	Reason         core.EndReason `json:"reason"`
}

// InvalidOperation 命令被拒绝
type InvalidOperation struct {
	Command Command `json:"command"`
	Code    string  `json:"code"`
	Reason  string  `json:"reason"`
}

func (GameStarted) Kind() EventKind           { return KindGameStarted }
func (TileDealt) Kind() EventKind             { return KindTileDealt }
func (ComboAutoResolved) Kind() EventKind     { return KindComboAutoResolved }
func (SelectionPhaseStarted) Kind() EventKind { return KindSelectionPhaseStarted }
func (SelectionChanged) Kind() EventKind      { return KindSelectionChanged }
func (ComboValidated) Kind() EventKind        { return KindComboValidated }
func (ComboInvalid) Kind() EventKind          { return KindComboInvalid }
func (ComboRemoved) Kind() EventKind          { return KindComboRemoved }
func (ScoreChanged) Kind() EventKind          { return KindScoreChanged }
func (TurnChanged) Kind() EventKind           { return KindTurnChanged }
func (GameEnded) Kind() EventKind             { return KindGameEnded }
func (InvalidOperation) Kind() EventKind      { return KindInvalidOperation }

// SinkFunc 函数形式的事件接收方
type SinkFunc func(event Event)

// Publish 实现 EventSink
func (f SinkFunc) Publish(event Event) {
	f(event)
}

// MultiSink 把事件依次分发给多个接收方
type MultiSink []EventSink

// Publish 实现 EventSink
func (m MultiSink) Publish(event Event) {
	for _, sink := range m {
		if sink != nil {
			sink.Publish(event)
		}
	}
}

// discardSink 丢弃所有事件
type discardSink struct{}

func (discardSink) Publish(Event) {}

// Recorder 在内存中记录事件
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder 创建事件记录器
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Publish 实现 EventSink
func (r *Recorder) Publish(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
}

// Events 返回已记录事件的副本
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Event(nil), r.events...)
}

// Kinds 按顺序返回事件类型
func (r *Recorder) Kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()

	kinds := make([]EventKind, len(r.events))
	for i, e := range r.events {
		kinds[i] = e.Kind()
	}
	return kinds
}

// Count 统计某类事件数量
func (r *Recorder) Count(kind EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, e := range r.events {
		if e.Kind() == kind {
			n++
		}
	}
	return n
}

// Last 返回某类事件的最后一条
func (r *Recorder) Last(kind EventKind) (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Kind() == kind {
			return r.events[i], true
		}
	}
	return nil, false
}

// Reset 清空记录
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = nil
}
