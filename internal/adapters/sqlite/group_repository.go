package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/vipadm/api-mocker/internal/adapters/sqlite/gormsqlite"
	"gorm.io/gorm/clause"
)

type groupModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	Name       string    `gorm:"column:name;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;not null"`
	ModifiedAt time.Time `gorm:"column:modified_at;not null"`
}

func (groupModel) TableName() string {
	return "groups"
}

type GroupRepository struct {
	db *gormsqlite.DB
}

func NewGroupRepository(db *gormsqlite.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// Touch bumps the group's modified_at, creating the row if the group is
// not known yet so imports into fresh groups do not fail.
func (r *GroupRepository) Touch(ctx context.Context, groupID string) error {
	now := time.Now().UTC()
	model := groupModel{
		ID:         groupID,
		Name:       groupID,
		CreatedAt:  now,
		ModifiedAt: now,
	}

	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{"modified_at": now}),
		}).Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("touch group: %w", err)
	}
	return nil
}
