package publisher

import (
	"context"

	"github.com/darbify/schoolbus-backend/module/trips/domain"
)

// NotificationPublisher hands recorded events to the notification pipeline
// (the push-notification sender consumes them downstream).
type NotificationPublisher interface {
	PublishEvent(ctx context.Context, ev *domain.Event) error
}
