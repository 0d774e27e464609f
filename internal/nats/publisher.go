package nats

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/fzj270452746/MJSort/internal/game/table"
	"github.com/fzj270452746/MJSort/pkg/proto"
)

// EventPublisher 牌局事件发布器
type EventPublisher struct {
	nc     *nats.Conn
	logger *slog.Logger
}

// NewEventPublisher 创建事件发布器
func NewEventPublisher(nc *nats.Conn) *EventPublisher {
	return &EventPublisher{
		nc:     nc,
		logger: slog.Default().With("component", "EventPublisher"),
	}
}

// Publish 推送事件到 mjsort.game.{session_id}.events
func (p *EventPublisher) Publish(sessionID string, seq int64, event table.Event) error {
	data, err := buildEnvelope(sessionID, seq, event, time.Now())
	if err != nil {
		p.logger.Error("Failed to marshal event", "kind", event.Kind(), "error", err)
		return err
	}

	subject := proto.BuildEventSubject(sessionID)
	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Error("Failed to publish event", "sessionId", sessionID, "kind", event.Kind(), "error", err)
		return err
	}

	p.logger.Debug("Published event", "subject", subject, "kind", event.Kind(), "seq", seq)
	return nil
}

// buildEnvelope 把事件封装为 EventEnvelope 的 JSON
func buildEnvelope(sessionID string, seq int64, event table.Event, at time.Time) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return json.Marshal(&proto.EventEnvelope{
		SessionId: sessionID,
		Seq:       seq,
		Kind:      string(event.Kind()),
		Payload:   payload,
		Timestamp: at.UnixMilli(),
	})
}
