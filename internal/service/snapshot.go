package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fzj270452746/MJSort/internal/game/table"
)

const (
	// SnapshotKeyPrefix 牌局快照 Redis Key 前缀
	SnapshotKeyPrefix = "mjsort:game:snapshot:"

	// ActiveSessionsKey 活跃会话集合
	ActiveSessionsKey = "mjsort:game:active"

	// DefaultSnapshotTTL 默认快照 TTL
	DefaultSnapshotTTL = time.Hour
)

// BuildSnapshotKey 构建牌局快照 Key
// Key: mjsort:game:snapshot:{sessionId}
func BuildSnapshotKey(sessionID string) string {
	return fmt.Sprintf("%s%s", SnapshotKeyPrefix, sessionID)
}

// SnapshotStore 牌局快照存储，用于断线重连和只读查询
type SnapshotStore struct {
	redisClient *redis.Client
	ttl         time.Duration
	logger      *slog.Logger
}

// NewSnapshotStore 创建快照存储
func NewSnapshotStore(redisClient *redis.Client, ttl time.Duration) *SnapshotStore {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &SnapshotStore{
		redisClient: redisClient,
		ttl:         ttl,
		logger:      slog.Default().With("component", "SnapshotStore"),
	}
}

// Save 保存快照并刷新 TTL；已结束的牌局移出活跃集合
func (s *SnapshotStore) Save(ctx context.Context, snap table.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	pipe := s.redisClient.TxPipeline()
	pipe.Set(ctx, BuildSnapshotKey(snap.SessionID), data, s.ttl)
	if snap.Phase == table.PhaseGameOver {
		pipe.SRem(ctx, ActiveSessionsKey, snap.SessionID)
	} else {
		pipe.SAdd(ctx, ActiveSessionsKey, snap.SessionID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn("Failed to save snapshot", "sessionId", snap.SessionID, "error", err)
		return err
	}
	return nil
}

// Load 读取快照，不存在时返回 nil, nil
func (s *SnapshotStore) Load(ctx context.Context, sessionID string) (*table.Snapshot, error) {
	data, err := s.redisClient.Get(ctx, BuildSnapshotKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snap table.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Delete 删除快照
func (s *SnapshotStore) Delete(ctx context.Context, sessionID string) error {
	pipe := s.redisClient.TxPipeline()
	pipe.Del(ctx, BuildSnapshotKey(sessionID))
	pipe.SRem(ctx, ActiveSessionsKey, sessionID)
	_, err := pipe.Exec(ctx)
	return err
}

// ActiveSessions 未结束的会话
func (s *SnapshotStore) ActiveSessions(ctx context.Context) ([]string, error) {
	return s.redisClient.SMembers(ctx, ActiveSessionsKey).Result()
}
