package proto

// NATS Subject 常量定义
const (
	// SubjectGameCommand 客户端 -> Logic 命令
	SubjectGameCommand = "mjsort.game.command"

	// SubjectGameEventsPrefix Logic -> 客户端 事件前缀
	// 完整格式: mjsort.game.{session_id}.events
	SubjectGameEventsPrefix = "mjsort.game."
	SubjectGameEventsSuffix = ".events"

	// QueueGroupLogic Logic 服务队列组名称
	QueueGroupLogic = "mjsort-logic"
)

// BuildEventSubject 构建会话事件 Subject
func BuildEventSubject(sessionID string) string {
	return SubjectGameEventsPrefix + sessionID + SubjectGameEventsSuffix
}
