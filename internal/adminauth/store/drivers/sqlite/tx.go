package sqlite

import (
	"context"
	"database/sql"

	"github.com/freshcounty/adminauth/internal/adminauth/store"
)

type txStore struct {
	tx *sql.Tx
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{tx: tx}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error { return nil } // caller commits/rollbacks; outer DB stays open

// Ping is a no-op for transactions; the connection already exists.
func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return sql.ErrTxDone
}

func (t *txStore) Users() store.Users                       { return &usersRepo{q: t.tx} }
func (t *txStore) BackupCodes() store.BackupCodes           { return &backupCodesRepo{q: t.tx} }
func (t *txStore) MFALoginSessions() store.MFALoginSessions { return &mfaLoginSessionsRepo{q: t.tx} }
func (t *txStore) AuditEvents() store.AuditEvents           { return &auditEventsRepo{q: t.tx} }

func (t *txStore) ApplyMigrations() error { return nil } // migrations run before any tx starts
