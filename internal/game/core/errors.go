package core

import (
	"errors"
	"fmt"
)

// GameError 游戏错误类型
type GameError struct {
	Code    string         // 错误代码
	Message string         // 错误消息
	Context map[string]any // 错误上下文
}

func (e *GameError) Error() string {
	if len(e.Context) > 0 {
		return fmt.Sprintf("[%s] %s %v", e.Code, e.Message, e.Context)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// NewGameError 创建游戏错误
func NewGameError(code, message string) *GameError {
	return &GameError{
		Code:    code,
		Message: message,
	}
}

// WithContext 返回附带上下文信息的副本，哨兵错误本身不被修改
func (e *GameError) WithContext(key string, value any) *GameError {
	ctx := make(map[string]any, len(e.Context)+1)
	for k, v := range e.Context {
		ctx[k] = v
	}
	ctx[key] = value
	return &GameError{Code: e.Code, Message: e.Message, Context: ctx}
}

// Is 支持 errors.Is，按错误代码比较
func (e *GameError) Is(target error) bool {
	var ge *GameError
	if errors.As(target, &ge) {
		return ge.Code == e.Code
	}
	return false
}

// IsCode 判断 err 是否为指定的游戏错误
func IsCode(err error, target *GameError) bool {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Code == target.Code
	}
	return false
}

// CodeOf 获取错误代码，非 GameError 返回 INTERNAL
func CodeOf(err error) string {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return "INTERNAL"
}

// 牌局阶段相关错误
var (
	ErrGameNotStarted     = NewGameError("GAME_NOT_STARTED", "game has not started")
	ErrGameAlreadyStarted = NewGameError("GAME_ALREADY_STARTED", "game already started")
	ErrGameOver           = NewGameError("GAME_OVER", "game is over")
	ErrInvalidPhase       = NewGameError("INVALID_PHASE", "operation not allowed in current phase")
	ErrDeckEmpty          = NewGameError("DECK_EMPTY", "deck is empty")
)

// 选牌相关错误
var (
	ErrTileNotInHand  = NewGameError("TILE_NOT_IN_HAND", "tile is not in your hand")
	ErrSelectionFull  = NewGameError("SELECTION_FULL", "please select exactly 3 cards")
	ErrNeedThreeTiles = NewGameError("NEED_THREE_TILES", "need exactly 3 cards")
	ErrInvalidCombo   = NewGameError("INVALID_COMBO", "not a valid sequence or triplet")
)

// 会话相关错误
var (
	ErrSessionNotFound = NewGameError("SESSION_NOT_FOUND", "session not found")
	ErrUnknownCommand  = NewGameError("UNKNOWN_COMMAND", "unknown command")
)
