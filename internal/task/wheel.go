package task

import (
	"sync"
	"time"
)

const (
	// SlotCount 时间轮槽位数量
	SlotCount = 60

	// DefaultTickInterval 默认每格时长
	DefaultTickInterval = time.Second
)

// TimeWheel 时间轮
type TimeWheel struct {
	slots       [SlotCount]*Slot
	currentSlot int
	index       map[string]int // taskID -> 槽位，用于精确删除
	mu          sync.RWMutex   // 保护 currentSlot 与 index
	interval    time.Duration
	ticker      *time.Ticker
}

// NewTimeWheel 创建时间轮，interval <= 0 时使用 1 秒
func NewTimeWheel(interval time.Duration) *TimeWheel {
	if interval <= 0 {
		interval = DefaultTickInterval
	}

	tw := &TimeWheel{
		index:    make(map[string]int),
		interval: interval,
	}

	for i := 0; i < SlotCount; i++ {
		tw.slots[i] = NewSlot()
	}

	return tw
}

// AddTask 添加任务到时间轮
func (tw *TimeWheel) AddTask(task *Task) error {
	task.Delay = normalizeDelay(task.Delay)

	tw.mu.Lock()
	if old, exists := tw.index[task.ID]; exists {
		tw.slots[old].RemoveTask(task.ID)
	}
	targetSlot := (tw.currentSlot + task.Delay) % SlotCount
	tw.index[task.ID] = targetSlot
	tw.mu.Unlock()

	tw.slots[targetSlot].AddTask(task)

	return nil
}

// RemoveTask 从时间轮删除任务
func (tw *TimeWheel) RemoveTask(taskID string) bool {
	tw.mu.Lock()
	slot, exists := tw.index[taskID]
	if exists {
		delete(tw.index, taskID)
	}
	tw.mu.Unlock()

	if !exists {
		return false
	}
	return tw.slots[slot].RemoveTask(taskID)
}

// RemoveByTarget 删除某个对象的全部任务，返回删除数量
func (tw *TimeWheel) RemoveByTarget(target string) int {
	removed := 0
	for i := 0; i < SlotCount; i++ {
		ids := tw.slots[i].RemoveByTarget(target)
		if len(ids) == 0 {
			continue
		}
		tw.mu.Lock()
		for _, id := range ids {
			delete(tw.index, id)
		}
		tw.mu.Unlock()
		removed += len(ids)
	}
	return removed
}

// Tick 推进一格，返回到期的任务
func (tw *TimeWheel) Tick() []*Task {
	tw.mu.Lock()
	tw.currentSlot = (tw.currentSlot + 1) % SlotCount
	currentSlot := tw.currentSlot
	tw.mu.Unlock()

	tasks := tw.slots[currentSlot].GetAndClear()
	if len(tasks) == 0 {
		return nil
	}

	tw.mu.Lock()
	for _, task := range tasks {
		// 执行前被重新加入到其他槽位的任务保留索引
		if tw.index[task.ID] == currentSlot {
			delete(tw.index, task.ID)
		}
	}
	tw.mu.Unlock()

	return tasks
}

// GetCurrentSlot 获取当前槽位索引
func (tw *TimeWheel) GetCurrentSlot() int {
	tw.mu.RLock()
	defer tw.mu.RUnlock()

	return tw.currentSlot
}

// Interval 每格时长
func (tw *TimeWheel) Interval() time.Duration {
	return tw.interval
}

// start 创建定时器
func (tw *TimeWheel) start() *time.Ticker {
	tw.ticker = time.NewTicker(tw.interval)
	return tw.ticker
}

// Stop 停止时间轮
func (tw *TimeWheel) Stop() {
	if tw.ticker != nil {
		tw.ticker.Stop()
	}
}

// GetTotalTaskCount 获取所有槽位的任务总数
func (tw *TimeWheel) GetTotalTaskCount() int {
	total := 0
	for i := 0; i < SlotCount; i++ {
		total += tw.slots[i].Count()
	}
	return total
}
