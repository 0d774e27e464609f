package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/fzj270452746/MJSort/internal/game"
	"github.com/fzj270452746/MJSort/internal/game/core"
	"github.com/fzj270452746/MJSort/internal/game/table"
	"github.com/fzj270452746/MJSort/pkg/proto"
)

// GameHandler 牌局命令处理器
type GameHandler struct {
	gameService *game.GameService
	logger      *slog.Logger
}

// NewGameHandler 创建牌局命令处理器
func NewGameHandler(gameService *game.GameService) *GameHandler {
	return &GameHandler{
		gameService: gameService,
		logger:      slog.Default().With("component", "GameHandler"),
	}
}

// HandleCommand 处理一条命令并返回应答
func (h *GameHandler) HandleCommand(ctx context.Context, req *proto.CommandRequest) *proto.CommandReply {
	h.logger.Debug("Command received",
		"reqId", req.ReqId,
		"sessionId", req.SessionId,
		"command", req.Command,
		"tileId", req.TileId)

	switch req.Command {
	case proto.CommandCreate:
		sess, err := h.gameService.Create(ctx)
		if err != nil {
			return h.errorReply(req, err)
		}
		return proto.OkReply(req, sess.ID())

	case proto.CommandSnapshot:
		snap, err := h.gameService.Snapshot(ctx, req.SessionId)
		if err != nil {
			return h.errorReply(req, err)
		}
		data, err := json.Marshal(snap)
		if err != nil {
			return h.errorReply(req, err)
		}
		reply := proto.OkReply(req, req.SessionId)
		reply.Snapshot = data
		return reply

	case proto.CommandClose:
		if err := h.gameService.Close(ctx, req.SessionId); err != nil {
			return h.errorReply(req, err)
		}
		return proto.OkReply(req, req.SessionId)
	}

	cmd, ok := tableCommands[req.Command]
	if !ok {
		return h.errorReply(req, core.ErrUnknownCommand.WithContext("command", req.Command))
	}
	if err := h.gameService.Execute(ctx, req.SessionId, cmd, req.TileId); err != nil {
		return h.errorReply(req, err)
	}
	return proto.OkReply(req, req.SessionId)
}

// tableCommands 命令名称到牌局命令的映射
var tableCommands = map[string]table.Command{
	proto.CommandStart:        table.CmdStart,
	proto.CommandDeal:         table.CmdDeal,
	proto.CommandSelect:       table.CmdSelect,
	proto.CommandConfirm:      table.CmdConfirm,
	proto.CommandSkip:         table.CmdSkip,
	proto.CommandTimerExpired: table.CmdTimerExpired,
	proto.CommandRestart:      table.CmdRestart,
}

// errorReply 把错误转换为应答，GameError 使用自身的代码和消息
func (h *GameHandler) errorReply(req *proto.CommandRequest, err error) *proto.CommandReply {
	var ge *core.GameError
	if errors.As(err, &ge) {
		return proto.ErrorReply(req, ge.Code, ge.Message)
	}

	h.logger.Error("Command failed", "command", req.Command, "sessionId", req.SessionId, "error", err)
	return proto.ErrorReply(req, core.CodeOf(err), "internal error")
}
