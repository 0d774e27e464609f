package task

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// VirtualScheduler 手动推进的调度器
//
// 时钟只在调用 Advance / RunNext 时前进，到期任务在调用方协程中同步执行。
// 用于测试和离线模拟，接口与 Scheduler 保持一致。
type VirtualScheduler struct {
	mu     sync.Mutex
	now    int64
	seq    int64
	tasks  map[string]*virtualEntry
	logger *slog.Logger
}

type virtualEntry struct {
	task *Task
	due  int64
	seq  int64
}

// NewVirtualScheduler 创建手动调度器
func NewVirtualScheduler() *VirtualScheduler {
	return &VirtualScheduler{
		tasks:  make(map[string]*virtualEntry),
		logger: slog.Default().With("component", "VirtualScheduler"),
	}
}

// AddTask 添加任务，同 ID 任务会被替换
func (v *VirtualScheduler) AddTask(task *Task) error {
	if task == nil {
		return fmt.Errorf("任务不能为空")
	}
	if task.ID == "" {
		return fmt.Errorf("任务ID不能为空")
	}
	task.Delay = normalizeDelay(task.Delay)

	v.mu.Lock()
	defer v.mu.Unlock()

	v.seq++
	v.tasks[task.ID] = &virtualEntry{
		task: task,
		due:  v.now + int64(task.Delay),
		seq:  v.seq,
	}
	return nil
}

// RemoveTask 删除任务
func (v *VirtualScheduler) RemoveTask(taskID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, exists := v.tasks[taskID]; !exists {
		return fmt.Errorf("任务不存在: %s", taskID)
	}
	delete(v.tasks, taskID)
	return nil
}

// RemoveByTarget 删除某个对象的全部任务
func (v *VirtualScheduler) RemoveByTarget(target string) int {
	v.mu.Lock()
	defer v.mu.Unlock()

	removed := 0
	for id, e := range v.tasks {
		if e.task.Target == target {
			delete(v.tasks, id)
			removed++
		}
	}
	return removed
}

// Advance 推进若干格，返回执行的任务数
func (v *VirtualScheduler) Advance(ticks int) int {
	executed := 0
	for i := 0; i < ticks; i++ {
		v.mu.Lock()
		v.now++
		v.mu.Unlock()

		for {
			task := v.popDue()
			if task == nil {
				break
			}
			v.execute(task)
			executed++
		}
	}
	return executed
}

// RunNext 时钟跳到最早的到期任务并执行它，没有待执行任务时返回 false
func (v *VirtualScheduler) RunNext() bool {
	v.mu.Lock()
	next := v.earliestLocked()
	if next == nil {
		v.mu.Unlock()
		return false
	}
	if next.due > v.now {
		v.now = next.due
	}
	delete(v.tasks, next.task.ID)
	v.mu.Unlock()

	v.execute(next.task)
	return true
}

// RunAll 依次执行任务直到没有待执行任务或达到上限，返回执行数
func (v *VirtualScheduler) RunAll(limit int) int {
	executed := 0
	for executed < limit && v.RunNext() {
		executed++
	}
	return executed
}

// Pending 待执行任务数
func (v *VirtualScheduler) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	return len(v.tasks)
}

// PendingIDs 按到期顺序列出待执行任务
func (v *VirtualScheduler) PendingIDs() []string {
	v.mu.Lock()
	entries := make([]*virtualEntry, 0, len(v.tasks))
	for _, e := range v.tasks {
		entries = append(entries, e)
	}
	v.mu.Unlock()

	sortEntries(entries)
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.task.ID
	}
	return ids
}

// Now 当前虚拟时钟
func (v *VirtualScheduler) Now() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.now
}

// popDue 取出一个当前时刻已到期的任务
func (v *VirtualScheduler) popDue() *Task {
	v.mu.Lock()
	defer v.mu.Unlock()

	next := v.earliestLocked()
	if next == nil || next.due > v.now {
		return nil
	}
	delete(v.tasks, next.task.ID)
	return next.task
}

func (v *VirtualScheduler) earliestLocked() *virtualEntry {
	var best *virtualEntry
	for _, e := range v.tasks {
		if best == nil || e.due < best.due || (e.due == best.due && e.seq < best.seq) {
			best = e
		}
	}
	return best
}

func (v *VirtualScheduler) execute(task *Task) {
	if err := task.Execute(context.Background()); err != nil {
		v.logger.Error("任务执行失败", "taskID", task.ID, "target", task.Target, "error", err)
	}
}

func sortEntries(entries []*virtualEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].due != entries[j].due {
			return entries[i].due < entries[j].due
		}
		return entries[i].seq < entries[j].seq
	})
}
