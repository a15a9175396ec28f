package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vipadm/api-mocker/internal/adapters/sqlite/gormsqlite"
	"github.com/vipadm/api-mocker/internal/core/domain"
)

type historyModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	DefinitionID string    `gorm:"column:definition_id;not null"`
	SnapshotJSON string    `gorm:"column:snapshot_json;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
}

func (historyModel) TableName() string {
	return "api_history"
}

type HistoryRepository struct {
	db *gormsqlite.DB
}

func NewHistoryRepository(db *gormsqlite.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Append(ctx context.Context, def domain.Definition) (domain.HistoryEntry, error) {
	snapshot, err := json.Marshal(def)
	if err != nil {
		return domain.HistoryEntry{}, fmt.Errorf("encode snapshot: %w", err)
	}

	model := historyModel{
		ID:           uuid.NewString(),
		DefinitionID: def.ID,
		SnapshotJSON: string(snapshot),
		CreatedAt:    time.Now().UTC(),
	}
	err = r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return domain.HistoryEntry{}, fmt.Errorf("insert history entry: %w", err)
	}

	return domain.HistoryEntry{
		ID:           model.ID,
		DefinitionID: model.DefinitionID,
		Snapshot:     json.RawMessage(model.SnapshotJSON),
		CreatedAt:    model.CreatedAt,
	}, nil
}

func (r *HistoryRepository) ListFor(ctx context.Context, definitionID string) ([]domain.HistoryEntry, error) {
	var rows []historyModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("definition_id = ?", definitionID).
			Order("created_at ASC, id ASC").
			Find(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	entries := make([]domain.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, domain.HistoryEntry{
			ID:           row.ID,
			DefinitionID: row.DefinitionID,
			Snapshot:     json.RawMessage(row.SnapshotJSON),
			CreatedAt:    row.CreatedAt,
		})
	}
	return entries, nil
}
