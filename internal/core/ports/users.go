package ports

import (
	"context"

	"github.com/vipadm/api-mocker/internal/core/domain"
)

// UserDirectory resolves user ids to user records and backs auth token
// lookup. FindByIDs silently drops unknown ids.
type UserDirectory interface {
	FindByIDs(ctx context.Context, ids []string) ([]domain.User, error)
	Search(ctx context.Context, query string) ([]domain.User, error)
	FindByTokenHash(ctx context.Context, tokenHash string) (domain.User, error)
	Upsert(ctx context.Context, user domain.User) error
}
