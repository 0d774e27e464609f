package game

import (
	"sync/atomic"
	"time"

	"github.com/fzj270452746/MJSort/internal/game/table"
)

// Session 一个在线牌局会话
// 牌局本身由 table.Table 串行化，这里只记录活跃时间和事件序号
type Session struct {
	id        string
	table     *table.Table
	createdAt time.Time

	lastActive atomic.Int64 // UnixNano
	seq        atomic.Int64 // 事件序号，会话内递增

	// epoch 最近一次开局的代数，只在事件回调中读写（Table 持锁期间）
	epoch int64
}

// NewSession 创建会话
func NewSession(id string, tbl *table.Table) *Session {
	now := time.Now()
	s := &Session{
		id:        id,
		table:     tbl,
		createdAt: now,
	}
	s.lastActive.Store(now.UnixNano())
	return s
}

// ID 会话 ID
func (s *Session) ID() string {
	return s.id
}

// Table 会话对应的牌局
func (s *Session) Table() *table.Table {
	return s.table
}

// CreatedAt 创建时间
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// Touch 刷新活跃时间
func (s *Session) Touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

// LastActiveTime 获取最后活跃时间
func (s *Session) LastActiveTime() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// NextSeq 下一条事件的序号，从 1 开始
func (s *Session) NextSeq() int64 {
	return s.seq.Add(1)
}
