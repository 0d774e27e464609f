package task

import (
	"context"
	"time"
)

// TaskFunc 任务执行函数类型
type TaskFunc func(ctx context.Context, target string, metadata map[string]any) error

// Task 延迟任务
//
// Target 是任务所属对象（牌局会话 ID），同一 Target 的任务总是由同一个
// 工作协程按顺序执行。
type Task struct {
	ID        string         `json:"id"`        // 任务唯一ID
	Epoch     int64          `json:"epoch"`     // 所属牌局的代数，重开后旧任务作废
	Target    string         `json:"target"`    // 操作对象标识
	Delay     int            `json:"delay"`     // 延迟的时钟格数 (1-SlotCount)
	Fn        TaskFunc       `json:"-"`         // 执行函数
	Metadata  map[string]any `json:"metadata"`  // 元数据
	CreatedAt time.Time      `json:"createdAt"` // 创建时间
}

// NewTask 创建新任务
func NewTask(id, target string, delay int, fn TaskFunc) *Task {
	return &Task{
		ID:        id,
		Target:    target,
		Delay:     delay,
		Fn:        fn,
		Metadata:  make(map[string]any),
		CreatedAt: time.Now(),
	}
}

// WithEpoch 设置牌局代数
func (t *Task) WithEpoch(epoch int64) *Task {
	t.Epoch = epoch
	return t
}

// WithMetadata 添加元数据
func (t *Task) WithMetadata(key string, value any) *Task {
	t.Metadata[key] = value
	return t
}

// Execute 执行任务
func (t *Task) Execute(ctx context.Context) error {
	if t.Fn == nil {
		return nil
	}
	return t.Fn(ctx, t.Target, t.Metadata)
}

// normalizeDelay 把延迟限制在时间轮可表示的范围内
func normalizeDelay(delay int) int {
	if delay < 1 {
		return 1
	}
	if delay > SlotCount {
		return SlotCount
	}
	return delay
}
