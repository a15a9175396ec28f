package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/vipadm/api-mocker/internal/core/domain"
)

func newDefinitionService(t *testing.T, defs *stubDefinitionRepo, users *stubUserDirectory, groups *stubGroups) *DefinitionService {
	t.Helper()
	validator, err := NewOptionsValidator(nil)
	if err != nil {
		t.Fatalf("new options validator: %v", err)
	}
	return NewDefinitionService(defs, &stubHistoryStore{}, users, groups, validator, testLogger())
}

func TestCreateRequiresName(t *testing.T) {
	svc := newDefinitionService(t, &stubDefinitionRepo{}, &stubUserDirectory{}, &stubGroups{})

	_, err := svc.Create(context.Background(), uuid.NewString(), Draft{URL: "/v1/users"}, uuid.NewString())
	if !errors.Is(err, domain.ErrInvalidDefinition) {
		t.Fatalf("expected invalid definition, got %v", err)
	}
}

func TestCreateAssignsIdentityAndTouchesGroup(t *testing.T) {
	groupID, creator := uuid.NewString(), uuid.NewString()
	groups := &stubGroups{}
	svc := newDefinitionService(t, &stubDefinitionRepo{}, &stubUserDirectory{}, groups)

	def, err := svc.Create(context.Background(), groupID, Draft{Name: "users-list", URL: "/v1/users"}, creator)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := domain.ValidateID(def.ID); err != nil {
		t.Fatalf("created definition has no valid id: %q", def.ID)
	}
	if def.Creator != creator || def.GroupID != groupID {
		t.Fatalf("unexpected identity: %+v", def)
	}
	if def.Deleted {
		t.Fatal("new definition must not be tombstoned")
	}
	if len(groups.touched) != 1 || groups.touched[0] != groupID {
		t.Fatalf("expected group touch, got %v", groups.touched)
	}
}

func TestCreateRejectsBadOptions(t *testing.T) {
	svc := newDefinitionService(t, &stubDefinitionRepo{}, &stubUserDirectory{}, &stubGroups{})

	_, err := svc.Create(context.Background(), uuid.NewString(), Draft{
		Name:    "users-list",
		Options: []byte(`{"method":"YEET"}`),
	}, uuid.NewString())
	var violation *domain.ErrOptionsViolation
	if !errors.As(err, &violation) {
		t.Fatalf("expected options violation, got %v", err)
	}
}

func TestBulkCreateTouchesGroupOnce(t *testing.T) {
	groupID, creator := uuid.NewString(), uuid.NewString()
	groups := &stubGroups{}
	svc := newDefinitionService(t, &stubDefinitionRepo{}, &stubUserDirectory{}, groups)

	defs, err := svc.BulkCreate(context.Background(), groupID, []Draft{
		{Name: "a", URL: "/a"},
		{Name: "b", URL: "/b"},
	}, creator)
	if err != nil {
		t.Fatalf("bulk create: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(defs))
	}
	if len(groups.touched) != 1 {
		t.Fatalf("expected a single group touch, got %v", groups.touched)
	}
}

func TestListWidensSearchWithCreators(t *testing.T) {
	creator := uuid.NewString()
	users := &stubUserDirectory{
		searchFn: func(_ context.Context, q string) ([]domain.User, error) {
			if q != "alice" {
				t.Fatalf("unexpected user query %q", q)
			}
			return []domain.User{{ID: creator, Name: "alice"}}, nil
		},
	}

	var got domain.SearchQuery
	defs := &stubDefinitionRepo{
		searchFn: func(_ context.Context, q domain.SearchQuery) ([]domain.Definition, int64, error) {
			got = q
			return []domain.Definition{{Name: "alice-api"}}, 1, nil
		},
	}

	svc := newDefinitionService(t, defs, users, &stubGroups{})

	result, page, err := svc.List(context.Background(), domain.SearchQuery{Text: "alice"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got.CreatorIDs) != 1 || got.CreatorIDs[0] != creator {
		t.Fatalf("creator ids not propagated: %v", got.CreatorIDs)
	}
	if len(result) != 1 || page.Count != 1 {
		t.Fatalf("unexpected result: %d items, count %d", len(result), page.Count)
	}
}

func TestListShortQuerySkipsCreatorSearch(t *testing.T) {
	users := &stubUserDirectory{
		searchFn: func(context.Context, string) ([]domain.User, error) {
			t.Fatal("two-character query must not hit the user directory")
			return nil, nil
		},
	}
	svc := newDefinitionService(t, &stubDefinitionRepo{}, users, &stubGroups{})

	if _, _, err := svc.List(context.Background(), domain.SearchQuery{Text: "ab"}); err != nil {
		t.Fatalf("list: %v", err)
	}
}

func TestListSurvivesUserDirectoryFailure(t *testing.T) {
	users := &stubUserDirectory{
		searchFn: func(context.Context, string) ([]domain.User, error) {
			return nil, errors.New("directory down")
		},
	}
	svc := newDefinitionService(t, &stubDefinitionRepo{}, users, &stubGroups{})

	if _, _, err := svc.List(context.Background(), domain.SearchQuery{Text: "alice"}); err != nil {
		t.Fatalf("directory failure must narrow, not fail: %v", err)
	}
}

func TestSoftDeleteUnknownDefinition(t *testing.T) {
	defs := &stubDefinitionRepo{
		softDeleteFn: func(context.Context, string) (bool, error) { return false, nil },
	}
	svc := newDefinitionService(t, defs, &stubUserDirectory{}, &stubGroups{})

	err := svc.SoftDelete(context.Background(), uuid.NewString(), uuid.NewString())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetReturnsHistory(t *testing.T) {
	defID := uuid.NewString()
	history := []domain.HistoryEntry{
		{ID: "h1", DefinitionID: defID},
		{ID: "h2", DefinitionID: defID},
	}

	defs := &stubDefinitionRepo{
		getFn: func(context.Context, string) (domain.Definition, error) {
			return domain.Definition{ID: defID, Name: "users-list"}, nil
		},
	}
	validator, err := NewOptionsValidator(nil)
	if err != nil {
		t.Fatalf("new options validator: %v", err)
	}
	store := &stubHistoryStore{listForFn: func(context.Context, string) ([]domain.HistoryEntry, error) {
		return history, nil
	}}
	svc := NewDefinitionService(defs, store, &stubUserDirectory{}, &stubGroups{}, validator, testLogger())

	_, got, err := svc.Get(context.Background(), defID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 2 || got[0].ID != "h1" {
		t.Fatalf("unexpected history: %+v", got)
	}
}
