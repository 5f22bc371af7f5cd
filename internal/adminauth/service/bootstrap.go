package service

import (
	"context"

	"github.com/freshcounty/adminauth/internal/adminauth/domain"
	"github.com/freshcounty/adminauth/internal/adminauth/store"
	"github.com/freshcounty/adminauth/pkg/slogx"
)

// BootstrapService seeds the very first admin account so a fresh
// deployment is reachable. It only ever acts on an empty users table;
// once any account exists it is a no-op.
type BootstrapService struct {
	Store store.Store
	Users *UserService

	// Email and Password come from configuration. Both must be set for
	// seeding to happen.
	Email    string
	Password string
}

// EnsureAdmin creates the initial admin user if the store is empty.
func (s *BootstrapService) EnsureAdmin(ctx context.Context) error {
	log := slogx.FromContext(ctx)

	if s.Email == "" || s.Password == "" {
		return nil
	}

	empty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return err
	}
	if !empty {
		return nil
	}

	user, err := s.Users.CreateUser(ctx, s.Email, "Administrator", s.Password, domain.RoleAdmin)
	if err != nil {
		return err
	}

	log.Info("seeded initial admin account", "user_id", user.ID, "email", user.Email)
	return nil
}
