package usecase

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/vipadm/api-mocker/internal/core/domain"
	"github.com/vipadm/api-mocker/internal/core/ports"
)

// FollowService mutates the follower list of a definition. The whole
// list is re-persisted on every change; no-op changes skip the write.
type FollowService struct {
	defs ports.DefinitionRepository
	log  logrus.FieldLogger
}

func NewFollowService(defs ports.DefinitionRepository, log logrus.FieldLogger) *FollowService {
	return &FollowService{defs: defs, log: log.WithField("component", "follow")}
}

func (s *FollowService) Follow(ctx context.Context, definitionID, userID string) (domain.Definition, error) {
	if err := domain.ValidateID(definitionID); err != nil {
		return domain.Definition{}, err
	}
	if err := domain.ValidateID(userID); err != nil {
		return domain.Definition{}, err
	}

	def, err := s.defs.Get(ctx, definitionID)
	if err != nil {
		return domain.Definition{}, err
	}
	if def.Followers.Contains(userID) {
		return def, nil
	}

	updated, err := s.defs.UpdateFollowers(ctx, definitionID, def.Followers.Follow(userID))
	if err != nil {
		return domain.Definition{}, err
	}

	s.log.WithFields(logrus.Fields{"definition_id": definitionID, "user": userID}).Info("follower added")
	return updated, nil
}

func (s *FollowService) Unfollow(ctx context.Context, definitionID, userID string) (domain.Definition, error) {
	if err := domain.ValidateID(definitionID); err != nil {
		return domain.Definition{}, err
	}
	if err := domain.ValidateID(userID); err != nil {
		return domain.Definition{}, err
	}

	def, err := s.defs.Get(ctx, definitionID)
	if err != nil {
		return domain.Definition{}, err
	}
	if !def.Followers.Contains(userID) {
		return def, nil
	}

	updated, err := s.defs.UpdateFollowers(ctx, definitionID, def.Followers.Unfollow(userID))
	if err != nil {
		return domain.Definition{}, err
	}

	s.log.WithFields(logrus.Fields{"definition_id": definitionID, "user": userID}).Info("follower removed")
	return updated, nil
}
