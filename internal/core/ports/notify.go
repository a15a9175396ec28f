package ports

import (
	"context"
	"time"

	"github.com/vipadm/api-mocker/internal/core/domain"
)

// NotificationOutbox queues change notifications for best-effort
// delivery. Enqueue is called from the edit path; the remaining methods
// belong to the background dispatcher.
type NotificationOutbox interface {
	Enqueue(ctx context.Context, n domain.ChangeNotification) error
	FetchPending(ctx context.Context, limit int) ([]domain.OutboxNotification, error)
	MarkDispatched(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, attempts int, nextAttemptAt time.Time, errMsg string) error
	MarkDead(ctx context.Context, id int64, attempts int, errMsg string) error
}

// NotificationPublisher delivers one notification to an external channel
// (webhook, message broker, log).
type NotificationPublisher interface {
	Publish(ctx context.Context, topic string, n domain.ChangeNotification) error
}
