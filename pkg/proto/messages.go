package proto

import "encoding/json"

// 命令名称
const (
	CommandCreate       = "create"
	CommandStart        = "start"
	CommandDeal         = "deal"
	CommandSelect       = "select"
	CommandConfirm      = "confirm"
	CommandSkip         = "skip"
	CommandTimerExpired = "timer_expired"
	CommandRestart      = "restart"
	CommandSnapshot     = "snapshot"
	CommandClose        = "close"
)

// CommandRequest 客户端 -> Logic 的牌局命令
type CommandRequest struct {
	ReqId     string `json:"reqId,omitempty"`
	SessionId string `json:"sessionId,omitempty"` // create 命令可为空
	Command   string `json:"command"`
	TileId    uint16 `json:"tileId,omitempty"` // select 命令使用
}

// CommandReply 命令应答
type CommandReply struct {
	ReqId     string          `json:"reqId,omitempty"`
	SessionId string          `json:"sessionId,omitempty"`
	Ok        bool            `json:"ok"`
	Code      string          `json:"code,omitempty"`
	Message   string          `json:"message,omitempty"`
	Snapshot  json.RawMessage `json:"snapshot,omitempty"` // snapshot 命令返回
}

// EventEnvelope Logic -> 客户端 的牌局事件
type EventEnvelope struct {
	SessionId string          `json:"sessionId"`
	Seq       int64           `json:"seq"` // 会话内递增
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"` // 毫秒
}

// OkReply 成功应答
func OkReply(req *CommandRequest, sessionId string) *CommandReply {
	return &CommandReply{
		ReqId:     req.ReqId,
		SessionId: sessionId,
		Ok:        true,
	}
}

// ErrorReply 失败应答
func ErrorReply(req *CommandRequest, code, message string) *CommandReply {
	return &CommandReply{
		ReqId:     req.ReqId,
		SessionId: req.SessionId,
		Code:      code,
		Message:   message,
	}
}
