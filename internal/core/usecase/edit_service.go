package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vipadm/api-mocker/internal/core/domain"
	"github.com/vipadm/api-mocker/internal/core/ports"
)

// EditService coordinates one edit: merge the patch, persist, decide the
// notification gate, enqueue notifications, append history. Notification
// and group-touch failures are logged and swallowed; a history append
// failure is surfaced after the update is already durable.
type EditService struct {
	defs    ports.DefinitionRepository
	history ports.HistoryStore
	users   ports.UserDirectory
	groups  ports.GroupTimestampUpdater
	outbox  ports.NotificationOutbox
	options *OptionsValidator
	log     logrus.FieldLogger
	now     func() time.Time
}

func NewEditService(
	defs ports.DefinitionRepository,
	history ports.HistoryStore,
	users ports.UserDirectory,
	groups ports.GroupTimestampUpdater,
	outbox ports.NotificationOutbox,
	options *OptionsValidator,
	log logrus.FieldLogger,
) *EditService {
	return &EditService{
		defs:    defs,
		history: history,
		users:   users,
		groups:  groups,
		outbox:  outbox,
		options: options,
		log:     log.WithField("component", "edit"),
		now:     time.Now,
	}
}

// EditResult is a successful edit: the merged definition plus its full
// ordered history.
type EditResult struct {
	Definition domain.Definition
	History    []domain.HistoryEntry
}

func (s *EditService) ApplyEdit(ctx context.Context, groupID, definitionID, editorID string, patch domain.Patch, clientSeen *time.Time) (EditResult, error) {
	if err := domain.ValidateID(groupID); err != nil {
		return EditResult{}, err
	}
	if err := domain.ValidateID(definitionID); err != nil {
		return EditResult{}, err
	}
	if err := domain.ValidateID(editorID); err != nil {
		return EditResult{}, err
	}

	current, err := s.defs.Get(ctx, definitionID)
	if err != nil {
		return EditResult{}, err
	}

	merged := patch.Apply(current)
	merged.Manager = resolveManager(current.Manager, patch.Manager, editorID)
	if patch.Options != nil {
		if err := s.options.Validate(merged.Options); err != nil {
			return EditResult{}, err
		}
	}
	merged.ModifiedAt = s.now().UTC()

	updated, err := s.defs.Update(ctx, merged)
	if err != nil {
		return EditResult{}, err
	}

	if domain.ShouldNotify(updated.ModifiedAt, clientSeen) {
		s.enqueueNotification(ctx, updated, editorID)
	}

	if err := s.groups.Touch(ctx, groupID); err != nil {
		s.log.WithError(err).WithField("group_id", groupID).Warn("touch group timestamp")
	}

	if _, err := s.history.Append(ctx, updated); err != nil {
		return EditResult{}, fmt.Errorf("%w: %v", domain.ErrHistoryAppend, err)
	}

	history, err := s.history.ListFor(ctx, definitionID)
	if err != nil {
		return EditResult{}, fmt.Errorf("list history: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"definition_id": definitionID,
		"editor":        editorID,
	}).Info("definition edited")

	return EditResult{Definition: updated, History: history}, nil
}

// resolveManager implements the ownership-bootstrap policy: an explicit
// manager in the patch wins, an existing manager is kept, and an unowned
// definition is claimed by its first editor.
func resolveManager(current string, patched *string, editorID string) string {
	if patched != nil && *patched != "" {
		return *patched
	}
	if current != "" {
		return current
	}
	return editorID
}

func (s *EditService) enqueueNotification(ctx context.Context, def domain.Definition, editorID string) {
	recipientIDs := def.Followers.Without(editorID)
	if len(recipientIDs) == 0 {
		return
	}

	users, err := s.users.FindByIDs(ctx, recipientIDs)
	if err != nil {
		s.log.WithError(err).WithField("definition_id", def.ID).Warn("resolve notification recipients")
		return
	}
	if len(users) == 0 {
		return
	}

	snapshot, err := json.Marshal(def)
	if err != nil {
		s.log.WithError(err).WithField("definition_id", def.ID).Warn("encode notification snapshot")
		return
	}

	recipients := make([]domain.Recipient, 0, len(users))
	for _, u := range users {
		recipients = append(recipients, domain.Recipient{ID: u.ID, Name: u.Name, Email: u.Email})
	}

	n := domain.ChangeNotification{
		ID:           uuid.NewString(),
		DefinitionID: def.ID,
		GroupID:      def.GroupID,
		Name:         def.Name,
		URL:          def.URL,
		Editor:       editorID,
		ModifiedAt:   def.ModifiedAt,
		Recipients:   recipients,
		Definition:   snapshot,
	}
	if err := s.outbox.Enqueue(ctx, n); err != nil {
		s.log.WithError(err).WithField("definition_id", def.ID).Warn("enqueue change notification")
	}
}
