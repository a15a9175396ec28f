package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/vipadm/api-mocker/internal/core/domain"
	"github.com/vipadm/api-mocker/internal/core/ports"
)

var ErrUnauthorized = errors.New("unauthorized")

// AuthService resolves a bearer token to the calling user.
type AuthService struct {
	users ports.UserDirectory
}

func NewAuthService(users ports.UserDirectory) *AuthService {
	return &AuthService{users: users}
}

func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.User{}, ErrUnauthorized
	}

	user, err := s.users.FindByTokenHash(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, ErrUnauthorized
		}
		return domain.User{}, err
	}
	if !user.Active {
		return domain.User{}, ErrUnauthorized
	}
	return user, nil
}

func HashToken(token string) string {
	digest := sha256.Sum256([]byte(token))
	return hex.EncodeToString(digest[:])
}
