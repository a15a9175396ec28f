package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vipadm/api-mocker/internal/adapters/sqlite/gormsqlite"
	"github.com/vipadm/api-mocker/internal/core/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Email     string    `gorm:"column:email;not null"`
	TokenHash string    `gorm:"column:token_hash;not null"`
	Active    bool      `gorm:"column:active;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (userModel) TableName() string {
	return "users"
}

type UserRepository struct {
	db *gormsqlite.DB
}

func NewUserRepository(db *gormsqlite.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []userModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("id IN ?", ids).Find(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("find users by ids: %w", err)
	}
	return fromUserModels(rows), nil
}

func (r *UserRepository) Search(ctx context.Context, query string) ([]domain.User, error) {
	pattern := "%" + strings.ToLower(query) + "%"

	var rows []userModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("lower(name) LIKE ? OR lower(email) LIKE ?", pattern, pattern).
			Order("name ASC").
			Find(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return fromUserModels(rows), nil
}

func (r *UserRepository) FindByTokenHash(ctx context.Context, tokenHash string) (domain.User, error) {
	var model userModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("token_hash = ?", tokenHash).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("find user by token: %w", err)
	}
	return fromUserModel(model), nil
}

func (r *UserRepository) Upsert(ctx context.Context, user domain.User) error {
	model := userModel{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		TokenHash: user.TokenHash,
		Active:    user.Active,
		CreatedAt: user.CreatedAt,
	}
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC()
	}

	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "email", "token_hash", "active"}),
		}).Create(&model).Error
	})
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func fromUserModel(model userModel) domain.User {
	return domain.User{
		ID:        model.ID,
		Name:      model.Name,
		Email:     model.Email,
		TokenHash: model.TokenHash,
		Active:    model.Active,
		CreatedAt: model.CreatedAt,
	}
}

func fromUserModels(rows []userModel) []domain.User {
	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, fromUserModel(row))
	}
	return users
}
