package game

import "github.com/fzj270452746/MJSort/internal/game/core"

// 会话管理相关错误定义

var (
	// ErrSessionLimit 活跃会话数已达上限
	ErrSessionLimit = core.NewGameError("SESSION_LIMIT", "too many active sessions")
)
