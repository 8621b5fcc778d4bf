package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/darbify/schoolbus-backend/module/trips/domain"
	"github.com/darbify/schoolbus-backend/module/trips/internal/repository/publisher"
)

var _ publisher.NotificationPublisher = (*NotificationPublisher)(nil)

const (
	exchangeName = "bus.events"
	queueName    = "parent_notifications"
)

type NotificationPublisher struct {
	ch *amqp.Channel
}

func NewNotificationPublisher(conn *amqp.Connection) (*NotificationPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchangeName, "fanout", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(queueName, "", exchangeName, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	return &NotificationPublisher{ch: ch}, nil
}

type eventMessage struct {
	EventID   string         `json:"event_id"`
	TripID    string         `json:"trip_id"`
	StopID    *string        `json:"stop_id,omitempty"`
	StudentID *string        `json:"student_id,omitempty"`
	EventType string         `json:"event_type"`
	Meta      map[string]any `json:"meta,omitempty"`
	CreatedAt int64          `json:"created_at"`
}

func (p *NotificationPublisher) PublishEvent(ctx context.Context, ev *domain.Event) error {
	msg := eventMessage{
		EventID:   ev.ID,
		TripID:    ev.TripID,
		StopID:    ev.StopID,
		StudentID: ev.StudentID,
		EventType: string(ev.Type),
		Meta:      ev.Meta,
		CreatedAt: ev.CreatedAt.Unix(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	return p.ch.PublishWithContext(ctx, exchangeName, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
}
