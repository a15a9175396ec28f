package usecase

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vipadm/api-mocker/internal/core/domain"
)

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type stubDefinitionRepo struct {
	createFn          func(ctx context.Context, def domain.Definition) (domain.Definition, error)
	getFn             func(ctx context.Context, id string) (domain.Definition, error)
	updateFn          func(ctx context.Context, def domain.Definition) (domain.Definition, error)
	updateFollowersFn func(ctx context.Context, id string, followers domain.FollowerSet) (domain.Definition, error)
	softDeleteFn      func(ctx context.Context, id string) (bool, error)
	searchFn          func(ctx context.Context, query domain.SearchQuery) ([]domain.Definition, int64, error)
	listManagedFn     func(ctx context.Context) ([]domain.Definition, error)
}

func (s *stubDefinitionRepo) Create(ctx context.Context, def domain.Definition) (domain.Definition, error) {
	if s.createFn != nil {
		return s.createFn(ctx, def)
	}
	return def, nil
}

func (s *stubDefinitionRepo) Get(ctx context.Context, id string) (domain.Definition, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return domain.Definition{}, domain.ErrNotFound
}

func (s *stubDefinitionRepo) Update(ctx context.Context, def domain.Definition) (domain.Definition, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, def)
	}
	return def, nil
}

func (s *stubDefinitionRepo) UpdateFollowers(ctx context.Context, id string, followers domain.FollowerSet) (domain.Definition, error) {
	if s.updateFollowersFn != nil {
		return s.updateFollowersFn(ctx, id, followers)
	}
	return domain.Definition{ID: id, Followers: followers}, nil
}

func (s *stubDefinitionRepo) SoftDelete(ctx context.Context, id string) (bool, error) {
	if s.softDeleteFn != nil {
		return s.softDeleteFn(ctx, id)
	}
	return true, nil
}

func (s *stubDefinitionRepo) Search(ctx context.Context, query domain.SearchQuery) ([]domain.Definition, int64, error) {
	if s.searchFn != nil {
		return s.searchFn(ctx, query)
	}
	return nil, 0, nil
}

func (s *stubDefinitionRepo) ListManaged(ctx context.Context) ([]domain.Definition, error) {
	if s.listManagedFn != nil {
		return s.listManagedFn(ctx)
	}
	return nil, nil
}

type stubHistoryStore struct {
	appendFn  func(ctx context.Context, def domain.Definition) (domain.HistoryEntry, error)
	listForFn func(ctx context.Context, definitionID string) ([]domain.HistoryEntry, error)

	entries []domain.HistoryEntry
}

func (s *stubHistoryStore) Append(ctx context.Context, def domain.Definition) (domain.HistoryEntry, error) {
	if s.appendFn != nil {
		return s.appendFn(ctx, def)
	}
	entry := domain.HistoryEntry{
		ID:           "h" + def.ID,
		DefinitionID: def.ID,
		CreatedAt:    time.Now().UTC(),
	}
	s.entries = append(s.entries, entry)
	return entry, nil
}

func (s *stubHistoryStore) ListFor(ctx context.Context, definitionID string) ([]domain.HistoryEntry, error) {
	if s.listForFn != nil {
		return s.listForFn(ctx, definitionID)
	}
	return s.entries, nil
}

type stubUserDirectory struct {
	findByIDsFn func(ctx context.Context, ids []string) ([]domain.User, error)
	searchFn    func(ctx context.Context, query string) ([]domain.User, error)
	findByHash  func(ctx context.Context, tokenHash string) (domain.User, error)
}

func (s *stubUserDirectory) FindByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	if s.findByIDsFn != nil {
		return s.findByIDsFn(ctx, ids)
	}
	users := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		users = append(users, domain.User{ID: id, Name: "user-" + id, Active: true})
	}
	return users, nil
}

func (s *stubUserDirectory) Search(ctx context.Context, query string) ([]domain.User, error) {
	if s.searchFn != nil {
		return s.searchFn(ctx, query)
	}
	return nil, nil
}

func (s *stubUserDirectory) FindByTokenHash(ctx context.Context, tokenHash string) (domain.User, error) {
	if s.findByHash != nil {
		return s.findByHash(ctx, tokenHash)
	}
	return domain.User{}, domain.ErrNotFound
}

func (s *stubUserDirectory) Upsert(context.Context, domain.User) error { return nil }

type stubGroups struct {
	touched []string
	err     error
}

func (s *stubGroups) Touch(_ context.Context, groupID string) error {
	s.touched = append(s.touched, groupID)
	return s.err
}

type stubOutbox struct {
	enqueued   []domain.ChangeNotification
	enqueueErr error

	rows       []domain.OutboxNotification
	dispatched []int64
	failed     []failedMark
	dead       []deadMark
}

type failedMark struct {
	id       int64
	attempts int
	next     time.Time
	errMsg   string
}

type deadMark struct {
	id       int64
	attempts int
	errMsg   string
}

func (s *stubOutbox) Enqueue(_ context.Context, n domain.ChangeNotification) error {
	if s.enqueueErr != nil {
		return s.enqueueErr
	}
	s.enqueued = append(s.enqueued, n)
	return nil
}

func (s *stubOutbox) FetchPending(_ context.Context, limit int) ([]domain.OutboxNotification, error) {
	out := make([]domain.OutboxNotification, 0, limit)
	now := time.Now().UTC()
	for _, row := range s.rows {
		if row.Status != domain.OutboxStatusPending || row.NextAttemptAt.After(now) {
			continue
		}
		out = append(out, row)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *stubOutbox) MarkDispatched(_ context.Context, id int64) error {
	s.dispatched = append(s.dispatched, id)
	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows[i].Status = domain.OutboxStatusDispatched
		}
	}
	return nil
}

func (s *stubOutbox) MarkFailed(_ context.Context, id int64, attempts int, nextAttemptAt time.Time, errMsg string) error {
	s.failed = append(s.failed, failedMark{id: id, attempts: attempts, next: nextAttemptAt, errMsg: errMsg})
	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows[i].Attempts = attempts
			s.rows[i].NextAttemptAt = nextAttemptAt
			s.rows[i].LastError = errMsg
		}
	}
	return nil
}

func (s *stubOutbox) MarkDead(_ context.Context, id int64, attempts int, errMsg string) error {
	s.dead = append(s.dead, deadMark{id: id, attempts: attempts, errMsg: errMsg})
	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows[i].Status = domain.OutboxStatusDead
			s.rows[i].Attempts = attempts
			s.rows[i].LastError = errMsg
		}
	}
	return nil
}

type stubPublisher struct {
	errByID   map[string]error
	published []domain.ChangeNotification
	topics    []string
}

func (p *stubPublisher) Publish(_ context.Context, topic string, n domain.ChangeNotification) error {
	p.published = append(p.published, n)
	p.topics = append(p.topics, topic)
	if err, ok := p.errByID[n.ID]; ok {
		return err
	}
	return nil
}
