package table

import (
	"fmt"
	"time"

	"github.com/fzj270452746/MJSort/internal/game/core"
)

// Phase 牌局阶段
type Phase int8

const (
	PhaseIdle               Phase = iota // 未开始
	PhaseDealing                         // 等待下一次发牌
	PhaseAwaitingResolution              // 已发牌，等待结算
	PhaseGameOver                        // 已结束
)

var phaseNames = map[Phase]string{
	PhaseIdle:               "idle",
	PhaseDealing:            "dealing",
	PhaseAwaitingResolution: "awaiting_resolution",
	PhaseGameOver:           "game_over",
}

// String 返回阶段的字符串表示
func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "unknown"
}

// MarshalText 序列化阶段
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText 解析阶段
func (p *Phase) UnmarshalText(text []byte) error {
	for phase, name := range phaseNames {
		if name == string(text) {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown phase: %q", text)
}

// Stage 等待结算阶段的子状态
type Stage int8

const (
	StageNone      Stage = iota
	StageSettling        // 刚发完牌，等待结算回调
	StageSelecting       // 玩家选牌窗口已打开
)

var stageNames = map[Stage]string{
	StageNone:      "none",
	StageSettling:  "settling",
	StageSelecting: "selecting",
}

// String 返回子状态的字符串表示
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText 序列化子状态
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText 解析子状态
func (s *Stage) UnmarshalText(text []byte) error {
	for stage, name := range stageNames {
		if name == string(text) {
			*s = stage
			return nil
		}
	}
	return fmt.Errorf("unknown stage: %q", text)
}

// GameState 一局的全部可变状态，只由 Table 持有
type GameState struct {
	Deck          *core.Deck
	PlayerHand    *core.Hand
	ComputerHand  *core.Hand
	Scores        core.ScoreBoard
	CurrentTurn   core.Side
	Round         int
	PlayerDeals   int
	ComputerDeals int
	Phase         Phase
	Stage         Stage
	ForcedBalance bool // 强制轮换标记

	Removed     int      // 已被组合消除的牌数
	Selection   []uint16 // 玩家当前选中的牌
	Recommended *core.Combination
	Outcome     *core.Outcome
}

// newGameState 创建新一局的状态，第一张牌发给玩家
func newGameState(deck *core.Deck) *GameState {
	return &GameState{
		Deck:         deck,
		PlayerHand:   core.NewHand(),
		ComputerHand: core.NewHand(),
		CurrentTurn:  core.SidePlayer,
		Round:        1,
		Phase:        PhaseIdle,
		Stage:        StageNone,
	}
}

// hand 获取一方手牌
func (s *GameState) hand(side core.Side) *core.Hand {
	if side == core.SidePlayer {
		return s.PlayerHand
	}
	return s.ComputerHand
}

// deals 获取一方已发牌数
func (s *GameState) deals(side core.Side) int {
	if side == core.SidePlayer {
		return s.PlayerDeals
	}
	return s.ComputerDeals
}

// countDeal 记录一次发牌
func (s *GameState) countDeal(side core.Side) {
	if side == core.SidePlayer {
		s.PlayerDeals++
		return
	}
	s.ComputerDeals++
}

// balanceInput 当前的轮换判断输入
func (s *GameState) balanceInput() BalanceInput {
	return BalanceInput{
		Turn:          s.CurrentTurn,
		Round:         s.Round,
		PlayerDeals:   s.PlayerDeals,
		ComputerDeals: s.ComputerDeals,
		Forced:        s.ForcedBalance,
	}
}

// isSelected 判断牌是否已被选中
func (s *GameState) isSelected(id uint16) bool {
	for _, sel := range s.Selection {
		if sel == id {
			return true
		}
	}
	return false
}

// toggle 切换选中状态
func (s *GameState) toggle(id uint16) {
	for i, sel := range s.Selection {
		if sel == id {
			s.Selection = append(s.Selection[:i], s.Selection[i+1:]...)
			return
		}
	}
	s.Selection = append(s.Selection, id)
}

// Snapshot 牌局的只读副本
type Snapshot struct {
	SessionID     string            `json:"sessionId"`
	Epoch         int64             `json:"epoch"`
	Phase         Phase             `json:"phase"`
	Stage         Stage             `json:"stage"`
	CurrentTurn   core.Side         `json:"currentTurn"`
	Round         int               `json:"round"`
	PlayerDeals   int               `json:"playerDeals"`
	ComputerDeals int               `json:"computerDeals"`
	ForcedBalance bool              `json:"forcedBalance"`
	DeckRemaining int               `json:"deckRemaining"`
	PlayerHand    []core.Tile       `json:"playerHand"`
	ComputerHand  []core.Tile       `json:"computerHand"`
	Scores        core.ScoreBoard   `json:"scores"`
	Removed       int               `json:"removed"`
	Selection     []uint16          `json:"selection"`
	Recommended   *core.Combination `json:"recommended,omitempty"`
	Outcome       *core.Outcome     `json:"outcome,omitempty"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// TileCount 牌堆、双方手牌与已消除牌数之和，恒为 108
func (s Snapshot) TileCount() int {
	return s.DeckRemaining + len(s.PlayerHand) + len(s.ComputerHand) + s.Removed
}

// snapshot 生成只读副本，调用方需持有锁
func (s *GameState) snapshot(sessionID string, epoch int64) Snapshot {
	snap := Snapshot{
		SessionID:     sessionID,
		Epoch:         epoch,
		Phase:         s.Phase,
		Stage:         s.Stage,
		CurrentTurn:   s.CurrentTurn,
		Round:         s.Round,
		PlayerDeals:   s.PlayerDeals,
		ComputerDeals: s.ComputerDeals,
		ForcedBalance: s.ForcedBalance,
		DeckRemaining: s.Deck.Remaining(),
		PlayerHand:    s.PlayerHand.Tiles(),
		ComputerHand:  s.ComputerHand.Tiles(),
		Scores:        s.Scores,
		Removed:       s.Removed,
		Selection:     append([]uint16(nil), s.Selection...),
		UpdatedAt:     time.Now(),
	}
	if s.Recommended != nil {
		rec := *s.Recommended
		snap.Recommended = &rec
	}
	if s.Outcome != nil {
		out := *s.Outcome
		snap.Outcome = &out
	}
	return snap
}
