package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vipadm/api-mocker/internal/core/domain"
	"github.com/vipadm/api-mocker/internal/core/ports"
)

// creatorSearchMinLength is the minimum query length before a listing
// also matches against creators resolved through the user directory.
const creatorSearchMinLength = 3

// DefinitionService covers the plain CRUD surface around definitions:
// create, import, fetch with history, search, managed list, soft delete.
type DefinitionService struct {
	defs    ports.DefinitionRepository
	history ports.HistoryStore
	users   ports.UserDirectory
	groups  ports.GroupTimestampUpdater
	options *OptionsValidator
	log     logrus.FieldLogger
	now     func() time.Time
}

func NewDefinitionService(
	defs ports.DefinitionRepository,
	history ports.HistoryStore,
	users ports.UserDirectory,
	groups ports.GroupTimestampUpdater,
	options *OptionsValidator,
	log logrus.FieldLogger,
) *DefinitionService {
	return &DefinitionService{
		defs:    defs,
		history: history,
		users:   users,
		groups:  groups,
		options: options,
		log:     log.WithField("component", "definitions"),
		now:     time.Now,
	}
}

// Draft carries the caller-supplied fields of a new definition.
type Draft struct {
	Name        string
	URL         string
	Description string
	ProdURL     string
	Options     []byte
}

func (s *DefinitionService) Create(ctx context.Context, groupID string, draft Draft, creatorID string) (domain.Definition, error) {
	if err := domain.ValidateID(groupID); err != nil {
		return domain.Definition{}, err
	}
	if err := domain.ValidateID(creatorID); err != nil {
		return domain.Definition{}, err
	}
	if draft.Name == "" {
		return domain.Definition{}, domain.ErrInvalidDefinition
	}
	if len(draft.Options) > 0 {
		if err := s.options.Validate(draft.Options); err != nil {
			return domain.Definition{}, err
		}
	}

	now := s.now().UTC()
	def := domain.Definition{
		ID:          uuid.NewString(),
		GroupID:     groupID,
		Name:        draft.Name,
		URL:         draft.URL,
		Description: draft.Description,
		ProdURL:     draft.ProdURL,
		Options:     draft.Options,
		Creator:     creatorID,
		Followers:   domain.FollowerSet{},
		CreatedAt:   now,
		ModifiedAt:  now,
	}

	created, err := s.defs.Create(ctx, def)
	if err != nil {
		return domain.Definition{}, err
	}

	if err := s.groups.Touch(ctx, groupID); err != nil {
		s.log.WithError(err).WithField("group_id", groupID).Warn("touch group timestamp")
	}

	s.log.WithFields(logrus.Fields{
		"definition_id": created.ID,
		"group_id":      groupID,
		"name":          created.Name,
	}).Info("definition created")

	return created, nil
}

// BulkCreate imports a batch of definitions into a group. The group
// timestamp is touched once for the whole batch.
func (s *DefinitionService) BulkCreate(ctx context.Context, groupID string, drafts []Draft, creatorID string) ([]domain.Definition, error) {
	if err := domain.ValidateID(groupID); err != nil {
		return nil, err
	}

	result := make([]domain.Definition, 0, len(drafts))
	for i, draft := range drafts {
		if err := domain.ValidateID(creatorID); err != nil {
			return nil, err
		}
		if draft.Name == "" {
			return nil, fmt.Errorf("import entry %d: %w", i, domain.ErrInvalidDefinition)
		}
		if len(draft.Options) > 0 {
			if err := s.options.Validate(draft.Options); err != nil {
				return nil, fmt.Errorf("import entry %d: %w", i, err)
			}
		}

		now := s.now().UTC()
		created, err := s.defs.Create(ctx, domain.Definition{
			ID:          uuid.NewString(),
			GroupID:     groupID,
			Name:        draft.Name,
			URL:         draft.URL,
			Description: draft.Description,
			ProdURL:     draft.ProdURL,
			Options:     draft.Options,
			Creator:     creatorID,
			Followers:   domain.FollowerSet{},
			CreatedAt:   now,
			ModifiedAt:  now,
		})
		if err != nil {
			return nil, fmt.Errorf("import entry %d: %w", i, err)
		}
		result = append(result, created)
	}

	if err := s.groups.Touch(ctx, groupID); err != nil {
		s.log.WithError(err).WithField("group_id", groupID).Warn("touch group timestamp")
	}
	return result, nil
}

// Get returns a definition with its full ordered history. Soft-deleted
// definitions are not found.
func (s *DefinitionService) Get(ctx context.Context, id string) (domain.Definition, []domain.HistoryEntry, error) {
	if err := domain.ValidateID(id); err != nil {
		return domain.Definition{}, nil, err
	}

	def, err := s.defs.Get(ctx, id)
	if err != nil {
		return domain.Definition{}, nil, err
	}

	history, err := s.history.ListFor(ctx, id)
	if err != nil {
		return domain.Definition{}, nil, fmt.Errorf("list history: %w", err)
	}
	return def, history, nil
}

// List searches definitions. Queries longer than two characters also
// match definitions whose creator matches the query through the user
// directory; a directory failure narrows the search instead of failing it.
func (s *DefinitionService) List(ctx context.Context, query domain.SearchQuery) ([]domain.Definition, domain.PageInfo, error) {
	query = query.Normalize()
	if err := query.Validate(); err != nil {
		return nil, domain.PageInfo{}, err
	}

	if len(query.Text) >= creatorSearchMinLength {
		users, err := s.users.Search(ctx, query.Text)
		if err != nil {
			s.log.WithError(err).Warn("search creators")
		}
		for _, u := range users {
			query.CreatorIDs = append(query.CreatorIDs, u.ID)
		}
	}

	defs, count, err := s.defs.Search(ctx, query)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}

	s.log.WithFields(logrus.Fields{
		"group_id": query.GroupID,
		"text":     query.Text,
		"count":    count,
	}).Info("definitions listed")

	return defs, domain.PageInfo{Page: query.Page, Limit: query.Limit, Count: count}, nil
}

// ListManaged returns definitions that have a manager, most recently
// modified first.
func (s *DefinitionService) ListManaged(ctx context.Context) ([]domain.Definition, error) {
	return s.defs.ListManaged(ctx)
}

func (s *DefinitionService) SoftDelete(ctx context.Context, groupID, id string) error {
	if err := domain.ValidateID(groupID); err != nil {
		return err
	}
	if err := domain.ValidateID(id); err != nil {
		return err
	}

	deleted, err := s.defs.SoftDelete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}

	if err := s.groups.Touch(ctx, groupID); err != nil {
		s.log.WithError(err).WithField("group_id", groupID).Warn("touch group timestamp")
	}

	s.log.WithField("definition_id", id).Info("definition deleted")
	return nil
}
