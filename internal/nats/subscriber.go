package nats

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/nats-io/nats.go"

	"github.com/fzj270452746/MJSort/pkg/proto"
)

// CommandHandler 命令处理器接口
type CommandHandler interface {
	HandleCommand(ctx context.Context, req *proto.CommandRequest) *proto.CommandReply
}

// SubscriberConfig Worker Pool 配置
type SubscriberConfig struct {
	WorkerCount int // Worker 数量
	BufferSize  int // 每个 Worker 的消息缓冲区大小
}

// commandMsg 已解码的命令及其应答地址
type commandMsg struct {
	req *proto.CommandRequest
	msg *nats.Msg
}

// CommandSubscriber 命令订阅器
// 同一会话的命令进入同一个 Worker，保证按到达顺序执行
type CommandSubscriber struct {
	nc           *nats.Conn
	handler      CommandHandler
	logger       *slog.Logger
	subscription *nats.Subscription
	config       SubscriberConfig
	queues       []chan commandMsg
	wg           sync.WaitGroup
	cancelFunc   context.CancelFunc
}

// NewCommandSubscriber 创建命令订阅器
func NewCommandSubscriber(nc *nats.Conn, handler CommandHandler, config SubscriberConfig) *CommandSubscriber {
	// 设置默认值
	if config.WorkerCount <= 0 {
		config.WorkerCount = 32
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 1024
	}

	return &CommandSubscriber{
		nc:      nc,
		handler: handler,
		logger:  slog.Default().With("component", "CommandSubscriber"),
		config:  config,
	}
}

// Start 启动订阅
func (s *CommandSubscriber) Start(ctx context.Context) error {
	workerCtx, cancel := context.WithCancel(ctx)
	s.cancelFunc = cancel

	// 启动 Worker Pool
	s.queues = make([]chan commandMsg, s.config.WorkerCount)
	for i := range s.queues {
		s.queues[i] = make(chan commandMsg, s.config.BufferSize)
		s.wg.Add(1)
		go s.worker(workerCtx, s.queues[i])
	}

	// 使用队列组实现负载均衡
	sub, err := s.nc.QueueSubscribe(proto.SubjectGameCommand, proto.QueueGroupLogic, s.dispatch)
	if err != nil {
		cancel()
		return err
	}

	s.subscription = sub
	s.logger.Info("NATS subscriber started",
		"subject", proto.SubjectGameCommand,
		"queue", proto.QueueGroupLogic,
		"workerCount", s.config.WorkerCount,
		"bufferSize", s.config.BufferSize,
	)
	return nil
}

// dispatch 解码命令并按会话分片入队
func (s *CommandSubscriber) dispatch(msg *nats.Msg) {
	var req proto.CommandRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.logger.Warn("Failed to unmarshal command", "error", err)
		s.respond(msg, &proto.CommandReply{Code: "BAD_REQUEST", Message: err.Error()})
		return
	}

	queue := s.queues[shardOf(&req, len(s.queues))]
	select {
	case queue <- commandMsg{req: &req, msg: msg}:
		// 入队成功
	default:
		// 缓冲区满，记录警告
		s.logger.Warn("Command buffer full, dropping command",
			"sessionId", req.SessionId,
			"command", req.Command,
			"bufferSize", s.config.BufferSize)
		s.respond(msg, proto.ErrorReply(&req, "BUSY", "server busy"))
	}
}

// shardOf 会话命令的 Worker 下标，create 命令按请求 ID 分散
func shardOf(req *proto.CommandRequest, workers int) int {
	key := req.SessionId
	if key == "" {
		key = req.ReqId
	}
	return int(xxhash.Sum64String(key) % uint64(workers))
}

// worker 工作协程
func (s *CommandSubscriber) worker(ctx context.Context, queue <-chan commandMsg) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case cm, ok := <-queue:
			if !ok {
				return
			}
			reply := s.handler.HandleCommand(ctx, cm.req)
			s.respond(cm.msg, reply)
		}
	}
}

// respond 消息带有应答地址时回复
func (s *CommandSubscriber) respond(msg *nats.Msg, reply *proto.CommandReply) {
	if msg.Reply == "" || reply == nil {
		return
	}

	data, err := json.Marshal(reply)
	if err != nil {
		s.logger.Error("Failed to marshal reply", "error", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		s.logger.Warn("Failed to respond", "error", err)
	}
}

// Stop 停止订阅
func (s *CommandSubscriber) Stop() error {
	// 取消订阅，不再接收新命令
	if s.subscription != nil {
		if err := s.subscription.Unsubscribe(); err != nil {
			s.logger.Error("Failed to unsubscribe", "error", err)
		}
	}

	// 取消 worker 上下文
	if s.cancelFunc != nil {
		s.cancelFunc()
	}

	// 等待所有 worker 完成
	s.wg.Wait()

	s.logger.Info("NATS subscriber stopped")
	return nil
}

// GetBufferUsage 获取缓冲区使用情况（用于监控）
func (s *CommandSubscriber) GetBufferUsage() (current int, capacity int) {
	for _, q := range s.queues {
		current += len(q)
		capacity += cap(q)
	}
	return current, capacity
}
