package game

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Manager 会话管理器
type Manager struct {
	sessions sync.Map // sessionId -> *Session
	count    atomic.Int64

	// 淘汰配置
	maxSessions int
	idleTimeout time.Duration
	evictTicker *time.Ticker

	stopChan chan struct{} // 停止信号通道
	stopOnce sync.Once

	logger *slog.Logger
}

// NewManager 创建会话管理器
// idleTimeout 大于 0 时启动淘汰循环；maxSessions 小于等于 0 表示不限制
func NewManager(maxSessions int, idleTimeout time.Duration) *Manager {
	m := &Manager{
		maxSessions: maxSessions,
		idleTimeout: idleTimeout,
		stopChan:    make(chan struct{}),
		logger:      slog.Default().With("component", "SessionManager"),
	}

	if idleTimeout > 0 {
		interval := time.Minute
		if half := idleTimeout / 2; half > 0 && half < interval {
			interval = half
		}
		m.evictTicker = time.NewTicker(interval)
		go m.evictLoop()
	}

	return m
}

// Add 登记会话，超过上限返回 ErrSessionLimit
func (m *Manager) Add(s *Session) error {
	if n := m.count.Add(1); m.maxSessions > 0 && n > int64(m.maxSessions) {
		m.count.Add(-1)
		return ErrSessionLimit.WithContext("maxSessions", m.maxSessions)
	}

	if _, loaded := m.sessions.LoadOrStore(s.ID(), s); loaded {
		m.count.Add(-1)
		m.logger.Warn("Session already registered", "sessionId", s.ID())
	}
	return nil
}

// Get 获取会话
func (m *Manager) Get(sessionID string) (*Session, bool) {
	val, ok := m.sessions.Load(sessionID)
	if !ok {
		return nil, false
	}
	return val.(*Session), true
}

// Remove 移除会话并使其全部回调失效
func (m *Manager) Remove(sessionID string) bool {
	val, ok := m.sessions.LoadAndDelete(sessionID)
	if !ok {
		return false
	}
	m.count.Add(-1)

	val.(*Session).Table().Close()

	m.logger.Info("Removed session", "sessionId", sessionID)
	return true
}

// Count 返回当前会话数
func (m *Manager) Count() int {
	return int(m.count.Load())
}

// Range 遍历会话
func (m *Manager) Range(fn func(s *Session) bool) {
	m.sessions.Range(func(key, value any) bool {
		return fn(value.(*Session))
	})
}

// evictLoop 淘汰循环
func (m *Manager) evictLoop() {
	for {
		select {
		case <-m.evictTicker.C:
			m.EvictIdle(time.Now())
		case <-m.stopChan:
			m.logger.Info("Evict loop stopped")
			return
		}
	}
}

// EvictIdle 淘汰在 now 之前超过 idleTimeout 未活跃的会话，返回被淘汰的会话 ID
func (m *Manager) EvictIdle(now time.Time) []string {
	if m.idleTimeout <= 0 {
		return nil
	}

	toEvict := []string{}
	m.Range(func(s *Session) bool {
		if now.Sub(s.LastActiveTime()) > m.idleTimeout {
			toEvict = append(toEvict, s.ID())
		}
		return true
	})

	for _, sessionID := range toEvict {
		if m.Remove(sessionID) {
			m.logger.Info("Evicted inactive session", "sessionId", sessionID)
		}
	}
	return toEvict
}

// Shutdown 关闭管理器，移除全部会话
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("Shutting down SessionManager")

	m.stopOnce.Do(func() {
		close(m.stopChan)
		if m.evictTicker != nil {
			m.evictTicker.Stop()
		}
	})

	ids := []string{}
	m.Range(func(s *Session) bool {
		ids = append(ids, s.ID())
		return true
	})
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.Remove(id)
	}

	m.logger.Info("SessionManager shutdown complete", "closed", len(ids))
	return nil
}
