// Package auth resolves staff identity: credential checks, admin-gated
// registration, and the session middleware for HTTP handlers.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/alexedwards/argon2id"

	"github.com/nvoropaev/venue-till/internal/common"
	"github.com/nvoropaev/venue-till/internal/repo"
)

// Wording of the two user-facing rejections is part of the till's response
// contract; the terminal frontend matches on these strings.
const (
	msgWrongCredentials = "Wrong username or password"
	msgUsernameTaken    = "Username is already taken"
)

// Service coordinates credential verification and account registration.
type Service struct {
	Users repo.UserRepo
}

// Authenticate verifies the supplied credentials. A rejection is reported as
// a user-facing message, never distinguishing unknown user from bad password.
func (s *Service) Authenticate(ctx context.Context, username, password string) (repo.User, error) {
	name := strings.TrimSpace(username)
	if name == "" || password == "" {
		return repo.User{}, common.NewAppError("INVALID_CREDENTIALS", msgWrongCredentials, http.StatusUnauthorized, nil)
	}
	user, err := s.Users.GetByUsername(ctx, name)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return repo.User{}, common.NewAppError("INVALID_CREDENTIALS", msgWrongCredentials, http.StatusUnauthorized, nil)
		}
		return repo.User{}, fmt.Errorf("look up user: %w", err)
	}
	ok, err := argon2id.ComparePasswordAndHash(password, user.PasswordHash)
	if err != nil || !ok {
		return repo.User{}, common.NewAppError("INVALID_CREDENTIALS", msgWrongCredentials, http.StatusUnauthorized, nil)
	}
	return user, nil
}

// Register creates a new staff account with the supplied credentials.
func (s *Service) Register(ctx context.Context, username, password string, isAdmin bool) (repo.User, error) {
	name := strings.TrimSpace(username)
	if name == "" {
		return repo.User{}, common.NewAppError("VALIDATION_ERROR", "username is required", http.StatusBadRequest, nil)
	}
	if len(password) < 8 {
		return repo.User{}, common.NewAppError("VALIDATION_ERROR", "password must be at least 8 characters", http.StatusBadRequest, nil)
	}
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return repo.User{}, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.Users.Create(ctx, name, hash, isAdmin)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return repo.User{}, common.NewAppError("USERNAME_TAKEN", msgUsernameTaken, http.StatusConflict, err)
		}
		return repo.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}
