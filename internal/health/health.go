package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

// 依赖状态
const (
	StateConnected    = "connected"
	StateDisconnected = "disconnected"
	StateDisabled     = "disabled" // 未配置该依赖
)

// Status 健康状态
type Status struct {
	NATS     string         `json:"nats"`
	Redis    string         `json:"redis"`
	Database string         `json:"database"`
	Stats    map[string]any `json:"stats,omitempty"`
}

// Healthy 没有断开的依赖
func (s *Status) Healthy() bool {
	return s.NATS != StateDisconnected &&
		s.Redis != StateDisconnected &&
		s.Database != StateDisconnected
}

// Checker 健康检查器，依赖为空时视为未启用
type Checker struct {
	nc          *nats.Conn
	redisClient *redis.Client
	db          *pgxpool.Pool
	stats       func() map[string]any
}

// NewChecker 创建健康检查器
func NewChecker(nc *nats.Conn, redisClient *redis.Client, db *pgxpool.Pool) *Checker {
	return &Checker{
		nc:          nc,
		redisClient: redisClient,
		db:          db,
	}
}

// WithStats 附加运行统计（会话数、缓冲区使用等）
func (h *Checker) WithStats(stats func() map[string]any) *Checker {
	h.stats = stats
	return h
}

// Check 执行健康检查
func (h *Checker) Check(ctx context.Context) *Status {
	status := &Status{
		NATS:     StateDisabled,
		Redis:    StateDisabled,
		Database: StateDisabled,
	}

	// 检查 NATS
	if h.nc != nil {
		status.NATS = stateOf(h.nc.IsConnected())
	}

	// 检查 Redis
	if h.redisClient != nil {
		redisCtx, redisCancel := context.WithTimeout(ctx, 2*time.Second)
		status.Redis = stateOf(h.redisClient.Ping(redisCtx).Err() == nil)
		redisCancel()
	}

	// 检查 PostgreSQL
	if h.db != nil {
		dbCtx, dbCancel := context.WithTimeout(ctx, 2*time.Second)
		status.Database = stateOf(h.db.Ping(dbCtx) == nil)
		dbCancel()
	}

	if h.stats != nil {
		status.Stats = h.stats()
	}

	return status
}

func stateOf(ok bool) string {
	if ok {
		return StateConnected
	}
	return StateDisconnected
}

// IsHealthy 检查是否健康
func (h *Checker) IsHealthy(ctx context.Context) bool {
	return h.Check(ctx).Healthy()
}

// ServeHTTP HTTP 健康检查端点
func (h *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Check(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if status.Healthy() {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	json.NewEncoder(w).Encode(status)
}
