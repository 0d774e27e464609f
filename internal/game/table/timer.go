package table

import (
	"context"
	"fmt"

	"github.com/fzj270452746/MJSort/internal/task"
)

// Timer 延迟回调的驱动方，task.Scheduler 与 task.VirtualScheduler 都满足
type Timer interface {
	AddTask(t *task.Task) error
	RemoveTask(taskID string) error
}

// timerKind 回调类型
type timerKind string

const (
	timerDeal      timerKind = "deal"
	timerSettle    timerKind = "settle"
	timerCountdown timerKind = "countdown"
)

// taskID 生成回调 ID: <session>:<epoch>:<seq>:<kind>
func taskID(session string, epoch, seq int64, kind timerKind) string {
	return fmt.Sprintf("%s:%d:%d:%s", session, epoch, seq, kind)
}

// schedule 安排一个回调，调用方需持有锁
func (t *Table) schedule(kind timerKind, delay int, fn func()) {
	t.seq++
	id := taskID(t.sessionID, t.epoch, t.seq, kind)
	epoch := t.epoch

	tk := task.NewTask(id, t.sessionID, delay, func(ctx context.Context, target string, metadata map[string]any) error {
		t.fire(id, epoch, fn)
		return nil
	}).WithEpoch(epoch).WithMetadata("kind", string(kind))

	t.pending[id] = kind
	if err := t.timer.AddTask(tk); err != nil {
		delete(t.pending, id)
		t.logger.Error("安排回调失败", "taskID", id, "kind", kind, "error", err)
		return
	}

	t.logger.Debug("安排回调", "taskID", id, "kind", kind, "delay", delay)
}

// fire 回调入口，已取消或属于旧局的回调直接忽略
func (t *Table) fire(id string, epoch int64, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.pending[id]; !ok || epoch != t.epoch {
		t.logger.Debug("忽略过期回调", "taskID", id, "epoch", epoch, "current", t.epoch)
		return
	}
	delete(t.pending, id)

	fn()
}

// cancelKind 取消某类待执行回调，调用方需持有锁
func (t *Table) cancelKind(kind timerKind) {
	for id, k := range t.pending {
		if k != kind {
			continue
		}
		delete(t.pending, id)
		_ = t.timer.RemoveTask(id)
	}
}

// cancelAll 取消全部待执行回调，调用方需持有锁
func (t *Table) cancelAll() {
	for id := range t.pending {
		delete(t.pending, id)
		_ = t.timer.RemoveTask(id)
	}
}
