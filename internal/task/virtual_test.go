package task

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordTo(log *[]string, name string) TaskFunc {
	return func(ctx context.Context, target string, metadata map[string]any) error {
		*log = append(*log, name)
		return nil
	}
}

func TestVirtualSchedulerAdvance(t *testing.T) {
	v := NewVirtualScheduler()
	var log []string

	require.NoError(t, v.AddTask(NewTask("late", "s", 3, recordTo(&log, "late"))))
	require.NoError(t, v.AddTask(NewTask("early", "s", 1, recordTo(&log, "early"))))
	require.NoError(t, v.AddTask(NewTask("early-2", "s", 1, recordTo(&log, "early-2"))))

	assert.Equal(t, 2, v.Advance(1))
	assert.Equal(t, []string{"early", "early-2"}, log)

	assert.Equal(t, 0, v.Advance(1))
	assert.Equal(t, 1, v.Advance(1))
	assert.Equal(t, []string{"early", "early-2", "late"}, log)
	assert.Equal(t, int64(3), v.Now())
	assert.Equal(t, 0, v.Pending())
}

func TestVirtualSchedulerRunNextJumpsClock(t *testing.T) {
	v := NewVirtualScheduler()
	var log []string

	require.NoError(t, v.AddTask(NewTask("b", "s", 10, recordTo(&log, "b"))))
	require.NoError(t, v.AddTask(NewTask("a", "s", 4, recordTo(&log, "a"))))
	assert.Equal(t, []string{"a", "b"}, v.PendingIDs())

	require.True(t, v.RunNext())
	assert.Equal(t, int64(4), v.Now())
	require.True(t, v.RunNext())
	assert.Equal(t, int64(10), v.Now())
	assert.False(t, v.RunNext())
	assert.Equal(t, []string{"a", "b"}, log)
}

func TestVirtualSchedulerChainedTasks(t *testing.T) {
	v := NewVirtualScheduler()
	count := 0

	var step TaskFunc
	step = func(ctx context.Context, target string, metadata map[string]any) error {
		count++
		if count < 5 {
			return v.AddTask(NewTask("step", target, 2, step))
		}
		return nil
	}
	require.NoError(t, v.AddTask(NewTask("step", "s", 2, step)))

	assert.Equal(t, 5, v.RunAll(100))
	assert.Equal(t, int64(10), v.Now())
}

func TestVirtualSchedulerRemove(t *testing.T) {
	v := NewVirtualScheduler()

	require.NoError(t, v.AddTask(NewTask("a-1", "a", 1, noop)))
	require.NoError(t, v.AddTask(NewTask("a-2", "a", 2, noop)))
	require.NoError(t, v.AddTask(NewTask("b-1", "b", 2, noop)))

	assert.NoError(t, v.RemoveTask("b-1"))
	assert.Error(t, v.RemoveTask("b-1"))
	assert.Equal(t, 2, v.RemoveByTarget("a"))
	assert.Equal(t, 0, v.Advance(5))
	assert.Error(t, v.AddTask(nil))
}
