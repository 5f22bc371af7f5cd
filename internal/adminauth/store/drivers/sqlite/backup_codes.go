package sqlite

import (
	"context"
	"time"
)

type backupCodesRepo struct {
	q querier
}

func (r *backupCodesRepo) CreateBackupCode(ctx context.Context, userID string, codeHash string) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO mfa_backup_codes (user_id, code_hash, created_at) VALUES (?, ?, ?)`,
		userID, codeHash, time.Now().UTC())
	return err
}

// ConsumeBackupCode deletes the code in a single statement and checks the
// affected row count, so concurrent redemptions of the same code resolve to
// exactly one winner inside sqlite's write lock.
func (r *backupCodesRepo) ConsumeBackupCode(ctx context.Context, userID string, codeHash string) (bool, error) {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM mfa_backup_codes WHERE user_id = ? AND code_hash = ?`,
		userID, codeHash)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *backupCodesRepo) DeleteAllBackupCodes(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM mfa_backup_codes WHERE user_id = ?`, userID)
	return err
}

func (r *backupCodesRepo) CountBackupCodes(ctx context.Context, userID string) (int, error) {
	var count int64
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM mfa_backup_codes WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return int(count), nil
}
