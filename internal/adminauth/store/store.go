package store

import (
	"context"
	"errors"
	"time"

	"github.com/freshcounty/adminauth/internal/adminauth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today,
// postgres later) implement this. It exposes sub-repositories to keep
// concerns tidy and testable.
type Store interface {
	Users() Users
	BackupCodes() BackupCodes
	MFALoginSessions() MFALoginSessions
	AuditEvents() AuditEvents

	ApplyMigrations() error

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login; email lookup is case-insensitive.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// UpdateMFASecret stores the enrollment secret without enabling MFA.
	UpdateMFASecret(ctx context.Context, userID string, secret string) error

	// EnableMFA marks MFA as enabled (sets the mfa_enabled timestamp).
	EnableMFA(ctx context.Context, userID string) error

	// DisableMFA clears both the enabled timestamp and the secret.
	DisableMFA(ctx context.Context, userID string) error

	// IsEmpty returns true if there are no users (bootstrap check).
	IsEmpty(ctx context.Context) (bool, error)
}

type BackupCodes interface {
	// CreateBackupCode stores a backup code fingerprint for a user.
	CreateBackupCode(ctx context.Context, userID string, codeHash string) error

	// ConsumeBackupCode atomically removes the code if present and reports
	// whether it existed. Under concurrent submission of the same code
	// exactly one caller observes true.
	ConsumeBackupCode(ctx context.Context, userID string, codeHash string) (bool, error)

	// DeleteAllBackupCodes removes every backup code for a user.
	DeleteAllBackupCodes(ctx context.Context, userID string) error

	// CountBackupCodes returns the number of unused codes remaining.
	CountBackupCodes(ctx context.Context, userID string) (int, error)
}

type MFALoginSessions interface {
	// CreateSession stores a pending second-factor challenge.
	CreateSession(ctx context.Context, s domain.MFALoginSession) error

	// GetSession retrieves a challenge by its token, expired or not; the
	// caller decides how to report expiry.
	GetSession(ctx context.Context, token string) (domain.MFALoginSession, error)

	// RedeemSession atomically deletes an unexpired session and reports
	// whether this caller won the deletion. A replay of an already
	// redeemed token observes false.
	RedeemSession(ctx context.Context, token string, now time.Time) (bool, error)

	// IncrementAttempts bumps the failed-attempt counter and returns the
	// updated session.
	IncrementAttempts(ctx context.Context, token string) (domain.MFALoginSession, error)

	// DeleteSession removes a session outright (attempt cap exceeded).
	DeleteSession(ctx context.Context, token string) error

	// DeleteExpiredSessions is housekeeping.
	DeleteExpiredSessions(ctx context.Context, now time.Time) error
}

type AuditEvents interface {
	// InsertEvent appends to the audit trail.
	InsertEvent(ctx context.Context, e domain.AuditEvent) error

	// ListRecentByUser returns the newest events for a user, newest first.
	ListRecentByUser(ctx context.Context, userID string, limit int) ([]domain.AuditEvent, error)

	// DeleteEventsBefore prunes the trail for retention (housekeeping).
	DeleteEventsBefore(ctx context.Context, cutoff time.Time) error
}
