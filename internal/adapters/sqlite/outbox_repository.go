package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vipadm/api-mocker/internal/adapters/sqlite/gormsqlite"
	"github.com/vipadm/api-mocker/internal/core/domain"
)

type outboxModel struct {
	ID             int64      `gorm:"column:id;primaryKey;autoIncrement"`
	NotificationID string     `gorm:"column:notification_id;not null"`
	DefinitionID   string     `gorm:"column:definition_id;not null"`
	Topic          string     `gorm:"column:topic;not null"`
	PayloadJSON    string     `gorm:"column:payload_json;not null"`
	Status         string     `gorm:"column:status;not null"`
	Attempts       int        `gorm:"column:attempts;not null"`
	NextAttemptAt  time.Time  `gorm:"column:next_attempt_at;not null"`
	LastError      string     `gorm:"column:last_error;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;not null"`
	DispatchedAt   *time.Time `gorm:"column:dispatched_at"`
}

func (outboxModel) TableName() string {
	return "notification_outbox"
}

type OutboxRepository struct {
	db *gormsqlite.DB
}

func NewOutboxRepository(db *gormsqlite.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

func (r *OutboxRepository) Enqueue(ctx context.Context, n domain.ChangeNotification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	now := time.Now().UTC()
	model := outboxModel{
		NotificationID: n.ID,
		DefinitionID:   n.DefinitionID,
		Topic:          "api.changed." + n.GroupID,
		PayloadJSON:    string(payload),
		Status:         domain.OutboxStatusPending,
		Attempts:       0,
		NextAttemptAt:  now,
		CreatedAt:      now,
	}
	err = r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}

func (r *OutboxRepository) FetchPending(ctx context.Context, limit int) ([]domain.OutboxNotification, error) {
	now := time.Now().UTC()

	var rows []outboxModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("status = ? AND next_attempt_at <= ?", domain.OutboxStatusPending, now).
			Order("id ASC").
			Limit(limit).
			Find(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("fetch pending notifications: %w", err)
	}

	result := make([]domain.OutboxNotification, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.OutboxNotification{
			ID:             row.ID,
			NotificationID: row.NotificationID,
			DefinitionID:   row.DefinitionID,
			Topic:          row.Topic,
			PayloadJSON:    json.RawMessage(row.PayloadJSON),
			Status:         row.Status,
			Attempts:       row.Attempts,
			NextAttemptAt:  row.NextAttemptAt,
			LastError:      row.LastError,
			CreatedAt:      row.CreatedAt,
			DispatchedAt:   row.DispatchedAt,
		})
	}
	return result, nil
}

func (r *OutboxRepository) MarkDispatched(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Model(&outboxModel{}).Where("id = ?", id).
			Updates(map[string]any{
				"status":        domain.OutboxStatusDispatched,
				"dispatched_at": &now,
				"last_error":    "",
			}).Error
	})
	if err != nil {
		return fmt.Errorf("mark notification dispatched: %w", err)
	}
	return nil
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, id int64, attempts int, nextAttemptAt time.Time, errMsg string) error {
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Model(&outboxModel{}).Where("id = ?", id).
			Updates(map[string]any{
				"attempts":        attempts,
				"next_attempt_at": nextAttemptAt,
				"last_error":      errMsg,
			}).Error
	})
	if err != nil {
		return fmt.Errorf("mark notification failed: %w", err)
	}
	return nil
}

func (r *OutboxRepository) MarkDead(ctx context.Context, id int64, attempts int, errMsg string) error {
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Model(&outboxModel{}).Where("id = ?", id).
			Updates(map[string]any{
				"status":     domain.OutboxStatusDead,
				"attempts":   attempts,
				"last_error": errMsg,
			}).Error
	})
	if err != nil {
		return fmt.Errorf("mark notification dead: %w", err)
	}
	return nil
}
