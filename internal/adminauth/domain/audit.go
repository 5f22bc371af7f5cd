package domain

import "time"

// Audit event kinds recorded by the auth flow. The user-facing responses
// stay generic; these are where the specific failure kind lives.
const (
	AuditLoginSuccess  = "login_success"
	AuditLoginFailed   = "login_failed"
	AuditLoginDenied   = "login_denied" // valid credentials, role not permitted
	AuditMFAChallenge  = "mfa_challenge"
	AuditMFASuccess    = "mfa_success"
	AuditMFAFailed     = "mfa_failed"
	AuditMFAEnabled    = "mfa_enabled"
	AuditMFADisabled   = "mfa_disabled"
	AuditBackupCodeUse = "backup_code_used"
	AuditLogout        = "logout"
)

// AuditEvent is a single row in the audit trail. UserID may be empty when
// the event concerns an unknown account (failed login by email).
type AuditEvent struct {
	ID         string
	UserID     string
	Email      string
	Kind       string
	RemoteAddr string
	CreatedAt  time.Time
}
