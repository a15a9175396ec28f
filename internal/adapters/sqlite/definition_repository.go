package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vipadm/api-mocker/internal/adapters/sqlite/gormsqlite"
	"github.com/vipadm/api-mocker/internal/core/domain"
	"gorm.io/gorm"
)

type definitionModel struct {
	ID            string    `gorm:"column:id;primaryKey"`
	GroupID       string    `gorm:"column:group_id;not null"`
	Name          string    `gorm:"column:name;not null"`
	URL           string    `gorm:"column:url;not null"`
	Description   string    `gorm:"column:description;not null"`
	ProdURL       string    `gorm:"column:prod_url;not null"`
	OptionsJSON   string    `gorm:"column:options_json;not null"`
	Creator       string    `gorm:"column:creator;not null"`
	Manager       string    `gorm:"column:manager;not null"`
	FollowersJSON string    `gorm:"column:followers_json;not null"`
	Deleted       bool      `gorm:"column:deleted;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;not null"`
	ModifiedAt    time.Time `gorm:"column:modified_at;not null"`
}

func (definitionModel) TableName() string {
	return "api_definitions"
}

type DefinitionRepository struct {
	db *gormsqlite.DB
}

func NewDefinitionRepository(db *gormsqlite.DB) *DefinitionRepository {
	return &DefinitionRepository{db: db}
}

func (r *DefinitionRepository) Create(ctx context.Context, def domain.Definition) (domain.Definition, error) {
	model, err := toDefinitionModel(def)
	if err != nil {
		return domain.Definition{}, err
	}

	err = r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return domain.Definition{}, fmt.Errorf("insert definition: %w", err)
	}
	return fromDefinitionModel(model)
}

func (r *DefinitionRepository) Get(ctx context.Context, id string) (domain.Definition, error) {
	var model definitionModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("id = ? AND deleted = 0", id).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Definition{}, domain.ErrNotFound
		}
		return domain.Definition{}, fmt.Errorf("find definition: %w", err)
	}
	return fromDefinitionModel(model)
}

func (r *DefinitionRepository) Update(ctx context.Context, def domain.Definition) (domain.Definition, error) {
	model, err := toDefinitionModel(def)
	if err != nil {
		return domain.Definition{}, err
	}

	err = r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		result := tx.Model(&definitionModel{}).
			Where("id = ? AND deleted = 0", def.ID).
			Updates(map[string]any{
				"name":           model.Name,
				"url":            model.URL,
				"description":    model.Description,
				"prod_url":       model.ProdURL,
				"options_json":   model.OptionsJSON,
				"manager":        model.Manager,
				"followers_json": model.FollowersJSON,
				"modified_at":    model.ModifiedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Definition{}, domain.ErrNotFound
		}
		return domain.Definition{}, fmt.Errorf("update definition: %w", err)
	}
	return r.Get(ctx, def.ID)
}

func (r *DefinitionRepository) UpdateFollowers(ctx context.Context, id string, followers domain.FollowerSet) (domain.Definition, error) {
	if followers == nil {
		followers = domain.FollowerSet{}
	}
	raw, err := json.Marshal(followers)
	if err != nil {
		return domain.Definition{}, fmt.Errorf("encode followers: %w", err)
	}

	err = r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		result := tx.Model(&definitionModel{}).
			Where("id = ? AND deleted = 0", id).
			Update("followers_json", string(raw))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Definition{}, domain.ErrNotFound
		}
		return domain.Definition{}, fmt.Errorf("update followers: %w", err)
	}
	return r.Get(ctx, id)
}

func (r *DefinitionRepository) SoftDelete(ctx context.Context, id string) (bool, error) {
	var affected int64
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		result := tx.Model(&definitionModel{}).
			Where("id = ? AND deleted = 0", id).
			Updates(map[string]any{"deleted": true, "modified_at": time.Now().UTC()})
		affected = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return false, fmt.Errorf("soft delete definition: %w", err)
	}
	return affected > 0, nil
}

func (r *DefinitionRepository) Search(ctx context.Context, query domain.SearchQuery) ([]domain.Definition, int64, error) {
	var (
		rows  []definitionModel
		count int64
	)
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		scope := tx.Model(&definitionModel{}).Where("deleted = 0")
		if query.GroupID != "" {
			scope = scope.Where("group_id = ?", query.GroupID)
		}
		if query.Text != "" {
			pattern := "%" + strings.ToLower(query.Text) + "%"
			text := tx.Session(&gorm.Session{NewDB: true}).
				Where("lower(name) LIKE ?", pattern).
				Or("lower(url) LIKE ?", pattern).
				Or("lower(description) LIKE ?", pattern).
				Or("lower(prod_url) LIKE ?", pattern).
				Or("lower(json_extract(options_json, '$.method')) LIKE ?", pattern)
			if len(query.CreatorIDs) > 0 {
				text = text.Or("creator IN ?", query.CreatorIDs)
			}
			scope = scope.Where(text)
		}

		if err := scope.Count(&count).Error; err != nil {
			return err
		}

		if query.OrderByModified {
			scope = scope.Order("modified_at DESC")
		} else {
			scope = scope.Order("created_at ASC")
		}
		offset := (query.Page - 1) * query.Limit
		return scope.Offset(offset).Limit(query.Limit).Find(&rows).Error
	})
	if err != nil {
		return nil, 0, fmt.Errorf("search definitions: %w", err)
	}

	defs := make([]domain.Definition, 0, len(rows))
	for _, row := range rows {
		def, err := fromDefinitionModel(row)
		if err != nil {
			return nil, 0, err
		}
		defs = append(defs, def)
	}
	return defs, count, nil
}

func (r *DefinitionRepository) ListManaged(ctx context.Context) ([]domain.Definition, error) {
	var rows []definitionModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("manager <> '' AND deleted = 0").
			Order("modified_at DESC").
			Find(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list managed definitions: %w", err)
	}

	defs := make([]domain.Definition, 0, len(rows))
	for _, row := range rows {
		def, err := fromDefinitionModel(row)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func toDefinitionModel(def domain.Definition) (definitionModel, error) {
	options := "{}"
	if len(def.Options) > 0 {
		options = string(def.Options)
	}
	followers := def.Followers
	if followers == nil {
		followers = domain.FollowerSet{}
	}
	followersRaw, err := json.Marshal(followers)
	if err != nil {
		return definitionModel{}, fmt.Errorf("encode followers: %w", err)
	}

	return definitionModel{
		ID:            def.ID,
		GroupID:       def.GroupID,
		Name:          def.Name,
		URL:           def.URL,
		Description:   def.Description,
		ProdURL:       def.ProdURL,
		OptionsJSON:   options,
		Creator:       def.Creator,
		Manager:       def.Manager,
		FollowersJSON: string(followersRaw),
		Deleted:       def.Deleted,
		CreatedAt:     def.CreatedAt,
		ModifiedAt:    def.ModifiedAt,
	}, nil
}

func fromDefinitionModel(model definitionModel) (domain.Definition, error) {
	var followers domain.FollowerSet
	if model.FollowersJSON != "" {
		if err := json.Unmarshal([]byte(model.FollowersJSON), &followers); err != nil {
			return domain.Definition{}, fmt.Errorf("decode followers for %s: %w", model.ID, err)
		}
	}
	if followers == nil {
		followers = domain.FollowerSet{}
	}

	return domain.Definition{
		ID:          model.ID,
		GroupID:     model.GroupID,
		Name:        model.Name,
		URL:         model.URL,
		Description: model.Description,
		ProdURL:     model.ProdURL,
		Options:     json.RawMessage(model.OptionsJSON),
		Creator:     model.Creator,
		Manager:     model.Manager,
		Followers:   followers,
		Deleted:     model.Deleted,
		CreatedAt:   model.CreatedAt,
		ModifiedAt:  model.ModifiedAt,
	}, nil
}
