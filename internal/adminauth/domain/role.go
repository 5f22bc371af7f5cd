package domain

import (
	"errors"
	"strings"
)

// Role is the closed set of account roles in the users table. The admin
// panel only ever issues tokens for staff, manager and admin; customer
// accounts exist in the same table but are rejected at the guard boundary.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// ErrUnknownRole reports a role value outside the enumerated set.
var ErrUnknownRole = errors.New("domain: unknown role")

// ParseRole validates a stored or transmitted role string.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleCustomer:
		return RoleCustomer, nil
	case RoleStaff:
		return RoleStaff, nil
	case RoleManager:
		return RoleManager, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", ErrUnknownRole
	}
}

// CanAccessPanel reports whether the role may hold an admin-panel token.
func (r Role) CanAccessPanel() bool {
	switch r {
	case RoleStaff, RoleManager, RoleAdmin:
		return true
	default:
		return false
	}
}

func (r Role) String() string { return string(r) }
