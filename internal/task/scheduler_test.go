package task

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTick = 10 * time.Millisecond

func noop(ctx context.Context, target string, metadata map[string]any) error {
	return nil
}

func TestNewTask(t *testing.T) {
	task := NewTask("task-1", "session-1", 5, noop).WithEpoch(3).WithMetadata("kind", "deal")

	assert.Equal(t, "task-1", task.ID)
	assert.Equal(t, "session-1", task.Target)
	assert.Equal(t, 5, task.Delay)
	assert.Equal(t, int64(3), task.Epoch)
	assert.Equal(t, "deal", task.Metadata["kind"])
}

func TestNormalizeDelay(t *testing.T) {
	assert.Equal(t, 1, normalizeDelay(0))
	assert.Equal(t, 1, normalizeDelay(-3))
	assert.Equal(t, 7, normalizeDelay(7))
	assert.Equal(t, SlotCount, normalizeDelay(SlotCount+10))
}

func TestSlotAddAndRemove(t *testing.T) {
	slot := NewSlot()

	slot.AddTask(NewTask("task-1", "s-1", 5, nil))
	slot.AddTask(NewTask("task-2", "s-2", 5, nil))
	assert.Equal(t, 2, slot.Count())

	assert.True(t, slot.RemoveTask("task-1"))
	assert.Equal(t, 1, slot.Count())

	assert.False(t, slot.RemoveTask("task-not-exist"))
}

func TestSlotGetAndClearKeepsOrder(t *testing.T) {
	slot := NewSlot()

	for i := 1; i <= 5; i++ {
		slot.AddTask(NewTask(fmt.Sprintf("task-%d", i), "s", 1, nil))
	}
	// 同 ID 重新加入排到末尾
	slot.AddTask(NewTask("task-2", "s", 1, nil))

	tasks := slot.GetAndClear()
	require.Len(t, tasks, 5)

	ids := make([]string, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
	}
	assert.Equal(t, []string{"task-1", "task-3", "task-4", "task-5", "task-2"}, ids)
	assert.Equal(t, 0, slot.Count())
	assert.Nil(t, slot.GetAndClear())
}

func TestSlotRemoveByTarget(t *testing.T) {
	slot := NewSlot()
	slot.AddTask(NewTask("a-1", "a", 1, nil))
	slot.AddTask(NewTask("b-1", "b", 1, nil))
	slot.AddTask(NewTask("a-2", "a", 1, nil))

	removed := slot.RemoveByTarget("a")
	assert.ElementsMatch(t, []string{"a-1", "a-2"}, removed)
	assert.Equal(t, 1, slot.Count())
}

func TestTimeWheelTick(t *testing.T) {
	wheel := NewTimeWheel(testTick)

	require.NoError(t, wheel.AddTask(NewTask("task-1", "s-1", 1, nil)))
	require.NoError(t, wheel.AddTask(NewTask("task-3", "s-1", 3, nil)))
	assert.Equal(t, 2, wheel.GetTotalTaskCount())

	tasks := wheel.Tick()
	require.Len(t, tasks, 1)
	assert.Equal(t, "task-1", tasks[0].ID)

	assert.Empty(t, wheel.Tick())

	tasks = wheel.Tick()
	require.Len(t, tasks, 1)
	assert.Equal(t, "task-3", tasks[0].ID)
	assert.Equal(t, 0, wheel.GetTotalTaskCount())
}

func TestTimeWheelReAddMovesTask(t *testing.T) {
	wheel := NewTimeWheel(testTick)

	require.NoError(t, wheel.AddTask(NewTask("task-1", "s-1", 1, nil)))
	require.NoError(t, wheel.AddTask(NewTask("task-1", "s-1", 2, nil)))
	assert.Equal(t, 1, wheel.GetTotalTaskCount())

	assert.Empty(t, wheel.Tick())
	assert.Len(t, wheel.Tick(), 1)
}

func TestTimeWheelRemove(t *testing.T) {
	wheel := NewTimeWheel(testTick)

	require.NoError(t, wheel.AddTask(NewTask("a-1", "a", 2, nil)))
	require.NoError(t, wheel.AddTask(NewTask("a-2", "a", 5, nil)))
	require.NoError(t, wheel.AddTask(NewTask("b-1", "b", 5, nil)))

	assert.True(t, wheel.RemoveTask("b-1"))
	assert.False(t, wheel.RemoveTask("b-1"))
	assert.Equal(t, 2, wheel.RemoveByTarget("a"))
	assert.Equal(t, 0, wheel.GetTotalTaskCount())
}

func TestSchedulerStartStop(t *testing.T) {
	scheduler := NewScheduler(5, testTick)

	require.NoError(t, scheduler.Start())
	assert.True(t, scheduler.IsRunning())

	assert.Error(t, scheduler.Start(), "重复启动应该失败")

	scheduler.Stop()
	assert.False(t, scheduler.IsRunning())

	assert.Error(t, scheduler.AddTask(NewTask("late", "s", 1, noop)))
}

func TestSchedulerAddRemoveTask(t *testing.T) {
	scheduler := NewScheduler(5, time.Second)
	require.NoError(t, scheduler.Start())
	defer scheduler.Stop()

	require.NoError(t, scheduler.AddTask(NewTask("task-1", "s-1", 5, noop)))
	assert.NoError(t, scheduler.RemoveTask("task-1"))
	assert.Error(t, scheduler.RemoveTask("task-not-exist"))
	assert.Error(t, scheduler.RemoveTask(""))
	assert.Error(t, scheduler.AddTask(nil))
}

func TestSchedulerTaskExecution(t *testing.T) {
	scheduler := NewScheduler(5, testTick)
	require.NoError(t, scheduler.Start())
	defer scheduler.Stop()

	var executed atomic.Int32
	var mu sync.Mutex
	var results []string

	fn := func(ctx context.Context, target string, metadata map[string]any) error {
		mu.Lock()
		results = append(results, target)
		mu.Unlock()
		executed.Add(1)
		return nil
	}

	for i := 1; i <= 5; i++ {
		require.NoError(t, scheduler.AddTask(NewTask(fmt.Sprintf("task-%d", i), fmt.Sprintf("s-%d", i), 1, fn)))
	}

	require.Eventually(t, func() bool { return executed.Load() == 5 }, 2*time.Second, testTick)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, results, 5)
}

func TestSchedulerSameTargetRunsInOrder(t *testing.T) {
	scheduler := NewScheduler(8, testTick)
	require.NoError(t, scheduler.Start())
	defer scheduler.Stop()

	var mu sync.Mutex
	var order []int

	for i := 0; i < 20; i++ {
		n := i
		fn := func(ctx context.Context, target string, metadata map[string]any) error {
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
			return nil
		}
		require.NoError(t, scheduler.AddTask(NewTask(fmt.Sprintf("task-%d", i), "session", 1, fn)))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 20
	}, 2*time.Second, testTick)

	mu.Lock()
	defer mu.Unlock()
	for i, n := range order {
		assert.Equal(t, i, n)
	}
}

func TestSchedulerConcurrent(t *testing.T) {
	scheduler := NewScheduler(10, testTick)
	require.NoError(t, scheduler.Start())
	defer scheduler.Stop()

	var executed atomic.Int32
	fn := func(ctx context.Context, target string, metadata map[string]any) error {
		executed.Add(1)
		return nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_ = scheduler.AddTask(NewTask(fmt.Sprintf("task-%d", id), fmt.Sprintf("s-%d", id%7), 1, fn))
		}(i)
	}
	wg.Wait()

	require.Eventually(t, func() bool { return executed.Load() == 100 }, 3*time.Second, testTick)
}

func TestWorkerPoolPanicRecover(t *testing.T) {
	scheduler := NewScheduler(5, testTick)
	require.NoError(t, scheduler.Start())
	defer scheduler.Stop()

	var executed atomic.Int32

	panicFn := func(ctx context.Context, target string, metadata map[string]any) error {
		executed.Add(1)
		panic("测试 panic")
	}

	require.NoError(t, scheduler.AddTask(NewTask("task-panic", "s-1", 1, panicFn)))
	require.NoError(t, scheduler.AddTask(NewTask("task-normal", "s-1", 1, func(ctx context.Context, target string, metadata map[string]any) error {
		executed.Add(1)
		return nil
	})))

	// 同一工作协程中 panic 之后的任务仍会执行
	require.Eventually(t, func() bool { return executed.Load() == 2 }, 2*time.Second, testTick)
}

func TestSchedulerStats(t *testing.T) {
	scheduler := NewScheduler(3, time.Second)
	require.NoError(t, scheduler.Start())
	defer scheduler.Stop()

	require.NoError(t, scheduler.AddTask(NewTask("task-1", "s", 10, noop)))

	stats := scheduler.GetStats()
	assert.Equal(t, true, stats["running"])
	assert.Equal(t, 1, stats["totalTaskCount"])
	assert.Equal(t, 3, stats["workerCount"])
}

func BenchmarkSchedulerAddTask(b *testing.B) {
	scheduler := NewScheduler(10, time.Second)
	_ = scheduler.Start()
	defer scheduler.Stop()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = scheduler.AddTask(NewTask("task", "s", 1, noop))
	}
}

func BenchmarkTimeWheelTick(b *testing.B) {
	wheel := NewTimeWheel(time.Second)

	for i := 0; i < 100; i++ {
		_ = wheel.AddTask(NewTask(fmt.Sprintf("task-%d", i), "s", 1, nil))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		wheel.Tick()
	}
}
