package sqlite

import (
	"context"
	"time"

	"github.com/freshcounty/adminauth/internal/adminauth/domain"
)

type mfaLoginSessionsRepo struct {
	q querier
}

const mfaSessionColumns = `id, user_id, attempts, created_at, expires_at`

func (r *mfaLoginSessionsRepo) CreateSession(ctx context.Context, s domain.MFALoginSession) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO mfa_login_sessions (id, user_id, attempts, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.Attempts, s.CreatedAt.UTC(), s.ExpiresAt.UTC())
	return err
}

func (r *mfaLoginSessionsRepo) GetSession(ctx context.Context, token string) (domain.MFALoginSession, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+mfaSessionColumns+` FROM mfa_login_sessions WHERE id = ?`, token)

	var s domain.MFALoginSession
	if err := row.Scan(&s.ID, &s.UserID, &s.Attempts, &s.CreatedAt, &s.ExpiresAt); err != nil {
		return domain.MFALoginSession{}, mapNotFound(err)
	}
	return s, nil
}

// RedeemSession deletes the row only while it is still unexpired. The
// single DELETE makes redemption atomic: a replayed token finds no row and
// reports false.
func (r *mfaLoginSessionsRepo) RedeemSession(ctx context.Context, token string, now time.Time) (bool, error) {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM mfa_login_sessions WHERE id = ? AND expires_at > ?`,
		token, now.UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *mfaLoginSessionsRepo) IncrementAttempts(ctx context.Context, token string) (domain.MFALoginSession, error) {
	row := r.q.QueryRowContext(ctx,
		`UPDATE mfa_login_sessions SET attempts = attempts + 1 WHERE id = ?
		 RETURNING `+mfaSessionColumns, token)

	var s domain.MFALoginSession
	if err := row.Scan(&s.ID, &s.UserID, &s.Attempts, &s.CreatedAt, &s.ExpiresAt); err != nil {
		return domain.MFALoginSession{}, mapNotFound(err)
	}
	return s, nil
}

func (r *mfaLoginSessionsRepo) DeleteSession(ctx context.Context, token string) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM mfa_login_sessions WHERE id = ?`, token)
	return err
}

func (r *mfaLoginSessionsRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM mfa_login_sessions WHERE expires_at <= ?`, now.UTC())
	return err
}
