package ports

import (
	"context"

	"github.com/vipadm/api-mocker/internal/core/domain"
)

// HistoryStore persists immutable snapshots of a definition, append-only.
// ListFor returns entries in creation-time ascending order.
type HistoryStore interface {
	Append(ctx context.Context, def domain.Definition) (domain.HistoryEntry, error)
	ListFor(ctx context.Context, definitionID string) ([]domain.HistoryEntry, error)
}
