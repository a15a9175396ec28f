package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vipadm/api-mocker/internal/core/domain"
	"github.com/vipadm/api-mocker/internal/core/ports"
)

// NotifyDispatcher drains the notification outbox in the background.
// Delivery failures are retried with a quadratic backoff and moved to
// the dead-letter state after the retry budget is spent; nothing here
// ever blocks or fails an edit.
type NotifyDispatcher struct {
	outbox    ports.NotificationOutbox
	publisher ports.NotificationPublisher
	interval  time.Duration
	batchSize int
	maxRetry  int
	log       logrus.FieldLogger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup

	deliveredTotal atomic.Int64
	failedTotal    atomic.Int64
	deadTotal      atomic.Int64
}

type NotifyDispatcherStats struct {
	DeliveredTotal int64
	FailedTotal    int64
	DeadTotal      int64
}

func NewNotifyDispatcher(outbox ports.NotificationOutbox, publisher ports.NotificationPublisher, interval time.Duration, batchSize int, log logrus.FieldLogger) *NotifyDispatcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	return &NotifyDispatcher{
		outbox:    outbox,
		publisher: publisher,
		interval:  interval,
		batchSize: batchSize,
		maxRetry:  5,
		log:       log.WithField("component", "notify"),
	}
}

func (d *NotifyDispatcher) Start(parent context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	d.cancel = cancel
	d.wg.Add(1)
	go d.loop(ctx)
}

func (d *NotifyDispatcher) Close() error {
	d.mu.Lock()
	cancel := d.cancel
	d.cancel = nil
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	d.wg.Wait()
	return nil
}

func (d *NotifyDispatcher) loop(ctx context.Context) {
	defer d.wg.Done()
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		if err := d.dispatchBatch(ctx); err != nil {
			d.log.WithError(err).Warn("dispatch batch")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (d *NotifyDispatcher) dispatchBatch(ctx context.Context) error {
	pending, err := d.outbox.FetchPending(ctx, d.batchSize)
	if err != nil {
		return err
	}

	for _, row := range pending {
		var n domain.ChangeNotification
		if err := json.Unmarshal(row.PayloadJSON, &n); err != nil {
			if markErr := d.markFailure(ctx, row, fmt.Sprintf("decode payload: %v", err)); markErr != nil {
				return markErr
			}
			d.failedTotal.Add(1)
			continue
		}

		if err := d.publisher.Publish(ctx, row.Topic, n); err != nil {
			if markErr := d.markFailure(ctx, row, err.Error()); markErr != nil {
				return markErr
			}
			d.failedTotal.Add(1)
			continue
		}

		if err := d.outbox.MarkDispatched(ctx, row.ID); err != nil {
			return err
		}
		d.deliveredTotal.Add(1)
		d.log.WithFields(logrus.Fields{
			"notification_id": row.NotificationID,
			"definition_id":   row.DefinitionID,
			"recipients":      len(n.Recipients),
		}).Info("notification delivered")
	}

	return nil
}

func (d *NotifyDispatcher) markFailure(ctx context.Context, row domain.OutboxNotification, errMsg string) error {
	attempts := row.Attempts + 1
	if attempts >= d.maxRetry {
		if err := d.outbox.MarkDead(ctx, row.ID, attempts, errMsg); err != nil {
			return err
		}
		d.deadTotal.Add(1)
		d.log.WithFields(logrus.Fields{
			"notification_id": row.NotificationID,
			"attempts":        attempts,
		}).Warn("notification dead-lettered")
		return nil
	}
	next := time.Now().UTC().Add(retryBackoff(attempts))
	return d.outbox.MarkFailed(ctx, row.ID, attempts, next, errMsg)
}

func (d *NotifyDispatcher) Stats() NotifyDispatcherStats {
	return NotifyDispatcherStats{
		DeliveredTotal: d.deliveredTotal.Load(),
		FailedTotal:    d.failedTotal.Load(),
		DeadTotal:      d.deadTotal.Load(),
	}
}

func retryBackoff(attempt int) time.Duration {
	if attempt <= 1 {
		return 1 * time.Second
	}
	d := time.Duration(attempt*attempt) * time.Second
	if d > 5*time.Minute {
		return 5 * time.Minute
	}
	return d
}
