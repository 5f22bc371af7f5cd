package adminsdk

import "time"

// LoginRequest is the body for POST /api/auth/admin-login. It carries
// either the credential pair or, on the second round-trip of an MFA
// login, the code plus the challenge token from the first response.
type LoginRequest struct {
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`

	// MFAToken is the 6-digit TOTP code or a backup code.
	MFAToken string `json:"mfaToken,omitempty"`

	// MFALoginToken is the single-use challenge token returned when a
	// password login requires a second factor.
	MFALoginToken string `json:"mfaLoginToken,omitempty"`
}

// Profile is the public user shape returned by login and profile calls.
type Profile struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	FullName   string `json:"fullName"`
	Role       string `json:"role"`
	MFAEnabled bool   `json:"mfaEnabled"`
}

// LoginData is the payload of a successful login response.
type LoginData struct {
	Token string  `json:"token"`
	User  Profile `json:"user"`
}

// MFAConfirmRequest carries the first TOTP code during enrollment.
type MFAConfirmRequest struct {
	Code string `json:"code"`
}

// MFAReconfirmRequest is the body for disabling MFA or regenerating
// backup codes. Both operations require the password and a current code.
type MFAReconfirmRequest struct {
	Password string `json:"password"`
	Code     string `json:"code"`
}

// MFASetupData is returned when enrollment starts. The secret is only
// provisional until the first code is confirmed.
type MFASetupData struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauthUrl"`
	Issuer     string `json:"issuer"`
	Account    string `json:"account"`
}

// BackupCodesData carries freshly generated backup codes. They are shown
// exactly once; the server keeps only fingerprints.
type BackupCodesData struct {
	BackupCodes []string `json:"backupCodes"`
}

// MFAStatusData summarises the second-factor state of the account.
type MFAStatusData struct {
	Enabled         bool       `json:"enabled"`
	EnrolledAt      *time.Time `json:"enrolledAt,omitempty"`
	BackupCodesLeft int        `json:"backupCodesLeft"`
	PendingSetup    bool       `json:"pendingSetup"`
}

// HealthChecks reports per-dependency health on the readiness endpoint.
type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}
