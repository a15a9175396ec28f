package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/vipadm/api-mocker/internal/core/domain"
)

func TestUserRepositoryUpsertAndLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t))

	user := domain.User{ID: "u-1", Name: "Alice", Email: "alice@example.com", TokenHash: "hash-1", Active: true}
	if err := repo.Upsert(ctx, user); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := repo.FindByTokenHash(ctx, "hash-1")
	if err != nil {
		t.Fatalf("find by token: %v", err)
	}
	if got.ID != "u-1" || !got.Active {
		t.Fatalf("unexpected user: %+v", got)
	}

	user.Name = "Alice B"
	if err := repo.Upsert(ctx, user); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	got, err = repo.FindByTokenHash(ctx, "hash-1")
	if err != nil {
		t.Fatalf("find after update: %v", err)
	}
	if got.Name != "Alice B" {
		t.Fatalf("upsert did not update name: %s", got.Name)
	}
}

func TestUserRepositoryFindByTokenHashUnknown(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))

	_, err := repo.FindByTokenHash(context.Background(), "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepositoryFindByIDsDropsUnknown(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t))

	if err := repo.Upsert(ctx, domain.User{ID: "u-1", Name: "Alice", Active: true}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	users, err := repo.FindByIDs(ctx, []string{"u-1", "ghost"})
	if err != nil {
		t.Fatalf("find by ids: %v", err)
	}
	if len(users) != 1 || users[0].ID != "u-1" {
		t.Fatalf("expected only u-1, got %v", users)
	}

	users, err = repo.FindByIDs(ctx, nil)
	if err != nil {
		t.Fatalf("find by empty ids: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("empty id list should return nothing, got %v", users)
	}
}

func TestUserRepositorySearchByNameAndEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t))

	if err := repo.Upsert(ctx, domain.User{ID: "u-1", Name: "Alice", Email: "alice@example.com", Active: true}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.Upsert(ctx, domain.User{ID: "u-2", Name: "Bob", Email: "bob@example.com", Active: true}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	users, err := repo.Search(ctx, "ALI")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(users) != 1 || users[0].ID != "u-1" {
		t.Fatalf("case-insensitive name search failed: %v", users)
	}
}

func TestGroupRepositoryTouchCreatesAndBumps(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewGroupRepository(db)

	if err := repo.Touch(ctx, "grp-1"); err != nil {
		t.Fatalf("first touch: %v", err)
	}
	if err := repo.Touch(ctx, "grp-1"); err != nil {
		t.Fatalf("second touch: %v", err)
	}

	var count int64
	err := db.R.Model(&groupModel{}).Where("id = ?", "grp-1").Count(&count).Error
	if err != nil {
		t.Fatalf("count groups: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single group row, got %d", count)
	}
}
