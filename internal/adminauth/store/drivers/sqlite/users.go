package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/freshcounty/adminauth/internal/adminauth/domain"
)

type usersRepo struct {
	q querier
}

const userColumns = `id, email, full_name, password_hash, role, mfa_enabled, mfa_secret, created_at, updated_at`

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? COLLATE NOCASE`,
		strings.TrimSpace(email))
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now().UTC()
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO users (id, email, full_name, password_hash, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, strings.TrimSpace(u.Email), u.FullName, u.PasswordHash, string(u.Role), now, now)
	return mapConflict(err)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, time.Now().UTC(), userID)
	return requireRow(res, err)
}

func (r *usersRepo) UpdateMFASecret(ctx context.Context, userID string, secret string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET mfa_secret = ?, updated_at = ? WHERE id = ?`,
		secret, time.Now().UTC(), userID)
	return requireRow(res, err)
}

func (r *usersRepo) EnableMFA(ctx context.Context, userID string) error {
	now := time.Now().UTC()
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET mfa_enabled = ?, updated_at = ? WHERE id = ?`,
		now, now, userID)
	return requireRow(res, err)
}

func (r *usersRepo) DisableMFA(ctx context.Context, userID string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET mfa_enabled = NULL, mfa_secret = NULL, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), userID)
	return requireRow(res, err)
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}

func scanUser(row *sql.Row) (domain.User, error) {
	var (
		u          domain.User
		role       string
		mfaEnabled sql.NullTime
		mfaSecret  sql.NullString
	)

	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &role,
		&mfaEnabled, &mfaSecret, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	parsed, err := domain.ParseRole(role)
	if err != nil {
		return domain.User{}, err
	}
	u.Role = parsed

	if mfaEnabled.Valid {
		t := mfaEnabled.Time
		u.MFAEnabled = &t
	}
	if mfaSecret.Valid {
		s := mfaSecret.String
		u.MFASecret = &s
	}

	return u, nil
}

// requireRow maps a zero-row UPDATE onto ErrNotFound.
func requireRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}
