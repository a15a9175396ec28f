package ports

import (
	"context"

	"github.com/vipadm/api-mocker/internal/core/domain"
)

// DefinitionRepository is the single source of truth for definitions.
// Get, Update, SoftDelete and UpdateFollowers never see tombstoned rows.
type DefinitionRepository interface {
	Create(ctx context.Context, def domain.Definition) (domain.Definition, error)
	Get(ctx context.Context, id string) (domain.Definition, error)
	Update(ctx context.Context, def domain.Definition) (domain.Definition, error)
	UpdateFollowers(ctx context.Context, id string, followers domain.FollowerSet) (domain.Definition, error)
	SoftDelete(ctx context.Context, id string) (bool, error)
	Search(ctx context.Context, query domain.SearchQuery) ([]domain.Definition, int64, error)
	ListManaged(ctx context.Context) ([]domain.Definition, error)
}
