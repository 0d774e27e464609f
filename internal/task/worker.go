package task

import (
	"context"
	"log/slog"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// WorkerPool 工作协程池
//
// 每个工作协程有独立的任务通道，任务按 Target 哈希分配，
// 同一牌局的回调不会并发执行且保持到期顺序。
type WorkerPool struct {
	workerCount int
	queues      []chan *Task
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	logger      *slog.Logger
}

// NewWorkerPool 创建工作协程池
func NewWorkerPool(workerCount int) *WorkerPool {
	if workerCount <= 0 {
		workerCount = 10 // 默认10个工作协程
	}

	ctx, cancel := context.WithCancel(context.Background())

	queues := make([]chan *Task, workerCount)
	for i := range queues {
		queues[i] = make(chan *Task, 64)
	}

	return &WorkerPool{
		workerCount: workerCount,
		queues:      queues,
		ctx:         ctx,
		cancel:      cancel,
		logger:      slog.Default().With("component", "WorkerPool"),
	}
}

// Start 启动工作协程池
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i, wp.queues[i])
	}

	wp.logger.Info("工作协程池已启动", "workerCount", wp.workerCount)
}

// worker 工作协程
func (wp *WorkerPool) worker(id int, queue <-chan *Task) {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.ctx.Done():
			return

		case task := <-queue:
			if task == nil {
				continue
			}
			wp.executeTask(id, task)
		}
	}
}

// executeTask 执行任务，panic 只影响当前任务
func (wp *WorkerPool) executeTask(workerID int, task *Task) {
	defer func() {
		if r := recover(); r != nil {
			wp.logger.Error("任务执行 panic",
				"workerID", workerID,
				"taskID", task.ID,
				"target", task.Target,
				"panic", r)
		}
	}()

	if err := task.Execute(wp.ctx); err != nil {
		wp.logger.Error("任务执行失败",
			"workerID", workerID,
			"taskID", task.ID,
			"target", task.Target,
			"error", err)
		return
	}

	wp.logger.Debug("任务执行成功",
		"workerID", workerID,
		"taskID", task.ID,
		"target", task.Target,
		"epoch", task.Epoch)
}

// shard 计算任务所属的工作协程
func (wp *WorkerPool) shard(target string) int {
	return int(xxhash.Sum64String(target) % uint64(wp.workerCount))
}

// Submit 提交任务，通道满时阻塞等待直到工作池关闭
func (wp *WorkerPool) Submit(task *Task) {
	queue := wp.queues[wp.shard(task.Target)]

	select {
	case queue <- task:
		return
	case <-wp.ctx.Done():
		wp.logger.Warn("工作池已关闭,任务提交失败", "taskID", task.ID)
		return
	default:
	}

	wp.logger.Warn("任务通道已满,任务可能延迟执行", "taskID", task.ID)
	select {
	case queue <- task:
	case <-wp.ctx.Done():
	}
}

// SubmitBatch 批量提交任务
func (wp *WorkerPool) SubmitBatch(tasks []*Task) {
	for _, task := range tasks {
		wp.Submit(task)
	}
}

// Stop 停止工作协程池
func (wp *WorkerPool) Stop() {
	wp.cancel()
	wp.wg.Wait()
	wp.logger.Info("工作协程池已停止")
}
