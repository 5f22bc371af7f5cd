package domain

import "time"

// MFALoginSession is the pending second-factor challenge created when a
// password check succeeds for an MFA-enabled account. Its ID is the opaque
// mfaLoginToken handed to the client; the row is deleted on redemption so
// a token can be spent at most once.
type MFALoginSession struct {
	ID        string // ULID, doubles as the mfaLoginToken
	UserID    string
	Attempts  int // failed code submissions; capped to prevent brute force
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the challenge window has closed.
func (s MFALoginSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// MFASetup is returned when a user starts TOTP enrollment. MFA is not
// active until the first code is confirmed.
type MFASetup struct {
	Secret     string `json:"secret"`     // base32 TOTP secret
	OTPAuthURL string `json:"otpauthUrl"` // otpauth:// URL for QR rendering
	Issuer     string `json:"issuer"`
	Account    string `json:"account"`
}

// MFAStatus summarises the second-factor state of an account.
type MFAStatus struct {
	Enabled         bool       `json:"enabled"`
	EnrolledAt      *time.Time `json:"enrolledAt,omitempty"`
	BackupCodesLeft int        `json:"backupCodesLeft"`
	PendingSetup    bool       `json:"pendingSetup"` // secret stored, not yet confirmed
}
