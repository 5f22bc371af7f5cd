package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/freshcounty/adminauth/internal/adminauth/domain"
	"github.com/freshcounty/adminauth/internal/adminauth/store"
	"github.com/freshcounty/adminauth/pkg/cryptox"
	"github.com/freshcounty/adminauth/pkg/idx"
)

var (
	ErrEmailTaken      = errors.New("email already in use")
	ErrWeakPassword    = errors.New("password too short")
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrInvalidFullName = errors.New("full name required")
)

// minPasswordLength keeps obviously throwaway passwords out of staff
// accounts. Anything stronger is an operator policy, not ours to enforce.
const minPasswordLength = 8

// UserService covers account lookups and management outside the login
// flow itself.
type UserService struct {
	Store store.Store
}

// GetProfile returns the public shape of a user.
func (s *UserService) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.Profile{}, err
	}
	return domain.ProfileOf(user), nil
}

// CreateUser inserts a new account with a hashed password.
func (s *UserService) CreateUser(ctx context.Context, email, fullName, password string, role domain.Role) (domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	fullName = strings.TrimSpace(fullName)

	if email == "" || !strings.Contains(email, "@") {
		return domain.User{}, ErrInvalidEmail
	}
	if fullName == "" {
		return domain.User{}, ErrInvalidFullName
	}
	if len(password) < minPasswordLength {
		return domain.User{}, ErrWeakPassword
	}
	if _, err := domain.ParseRole(role.String()); err != nil {
		return domain.User{}, err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, err
	}

	return user, nil
}

// ChangePassword rotates a user's password after verifying the current one.
func (s *UserService) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if cryptox.VerifyPassword(current, user.PasswordHash) != nil {
		return ErrInvalidCredentials
	}
	if len(next) < minPasswordLength {
		return ErrWeakPassword
	}

	hash, err := cryptox.HashPassword(next)
	if err != nil {
		return err
	}

	return s.Store.Users().UpdatePasswordHash(ctx, userID, hash)
}
