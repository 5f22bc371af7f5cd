package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/freshcounty/adminauth/internal/adminauth/domain"
	"github.com/freshcounty/adminauth/internal/adminauth/store"
	"github.com/freshcounty/adminauth/pkg/cryptox"
	"github.com/freshcounty/adminauth/pkg/jwtx"
	"github.com/freshcounty/adminauth/pkg/slogx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// MaxMFAAttempts caps failed code submissions per login challenge.
	MaxMFAAttempts = 5

	// DefaultChallengeTTL is how long a pending second-factor challenge
	// stays redeemable after the password check.
	DefaultChallengeTTL = 5 * time.Minute

	// DefaultGraceTTL is the lifetime of the post-login grace marker.
	// Long enough to cover the redirect into the panel, short enough
	// that a leaked marker is worthless moments later.
	DefaultGraceTTL = 45 * time.Second
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password.
	// Callers must not tell the two apart in responses.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccessDenied means the credentials were valid but the account's
	// role is not permitted in the admin panel.
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidMFACode means the submitted TOTP or backup code did not
	// verify. The challenge stays open until the attempt cap is hit.
	ErrInvalidMFACode = errors.New("invalid MFA code")

	// ErrLoginTokenInvalid covers an unknown or already redeemed
	// mfaLoginToken. Redemption is single-use, so a replay lands here.
	ErrLoginTokenInvalid = errors.New("login token invalid or already used")

	// ErrLoginTokenExpired means the challenge window has closed and the
	// user must log in again.
	ErrLoginTokenExpired = errors.New("login token expired")

	// ErrTooManyAttempts means the attempt cap for this challenge was
	// exceeded and the challenge has been destroyed.
	ErrTooManyAttempts = errors.New("too many failed attempts")
)

// AuthService implements the admin login flow: password check, optional
// second-factor challenge, and bearer token issuance.
type AuthService struct {
	Store  store.Store
	Signer *jwtx.EdDSASigner
	Audit  *AuditService

	// Issuer is stamped into every token and enforced on verification.
	Issuer string

	// AccessTokenTTL defaults to jwtx.DefaultAccessTokenTTL when zero.
	AccessTokenTTL time.Duration

	// GraceTTL defaults to DefaultGraceTTL when zero.
	GraceTTL time.Duration

	// ChallengeTTL defaults to DefaultChallengeTTL when zero.
	ChallengeTTL time.Duration
}

// Authenticate checks an email/password pair and either issues tokens
// directly or opens a second-factor challenge when MFA is enabled.
//
// Failure modes are deliberately flattened: unknown email and wrong
// password both return ErrInvalidCredentials, and the unknown-email path
// burns an equivalent password hash so response timing does not reveal
// which accounts exist. The specific outcome goes to the audit trail.
func (s *AuthService) Authenticate(ctx context.Context, email, password, remoteAddr string) (domain.LoginResult, error) {
	log := slogx.FromContext(ctx)
	email = strings.TrimSpace(email)

	if email == "" || password == "" {
		return domain.LoginResult{}, ErrInvalidCredentials
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			cryptox.DummyVerify()
			s.Audit.Record(ctx, domain.AuditLoginFailed, "", email, remoteAddr)
			return domain.LoginResult{}, ErrInvalidCredentials
		}
		return domain.LoginResult{}, err
	}

	if cryptox.VerifyPassword(password, user.PasswordHash) != nil {
		s.Audit.Record(ctx, domain.AuditLoginFailed, user.ID, email, remoteAddr)
		return domain.LoginResult{}, ErrInvalidCredentials
	}

	if !user.Role.CanAccessPanel() {
		log.Warn("login rejected for non-panel role", "user_id", user.ID, "role", user.Role)
		s.Audit.Record(ctx, domain.AuditLoginDenied, user.ID, email, remoteAddr)
		return domain.LoginResult{}, ErrAccessDenied
	}

	if user.HasMFA() {
		// The challenge token is an opaque random value, not a ULID:
		// it doubles as a secret the client must echo back.
		token, err := cryptox.GenerateToken(cryptox.TokenSize128)
		if err != nil {
			return domain.LoginResult{}, err
		}

		now := time.Now().UTC()
		session := domain.MFALoginSession{
			ID:        token,
			UserID:    user.ID,
			CreatedAt: now,
			ExpiresAt: now.Add(s.challengeTTL()),
		}
		if err := s.Store.MFALoginSessions().CreateSession(ctx, session); err != nil {
			return domain.LoginResult{}, err
		}

		s.Audit.Record(ctx, domain.AuditMFAChallenge, user.ID, email, remoteAddr)
		return domain.LoginResult{
			MFARequired:   true,
			MFALoginToken: session.ID,
		}, nil
	}

	result, err := s.issueTokens(user)
	if err != nil {
		return domain.LoginResult{}, err
	}

	s.Audit.Record(ctx, domain.AuditLoginSuccess, user.ID, email, remoteAddr)
	return result, nil
}

// VerifyMFA completes a pending challenge with a TOTP or backup code and
// issues tokens. The challenge is redeemed atomically: a token can be
// spent exactly once, and concurrent submissions race for the deletion.
func (s *AuthService) VerifyMFA(ctx context.Context, loginToken, code, remoteAddr string) (domain.LoginResult, error) {
	log := slogx.FromContext(ctx)

	loginToken = strings.TrimSpace(loginToken)
	code = normalizeCode(code)
	if loginToken == "" || code == "" {
		return domain.LoginResult{}, ErrInvalidMFACode
	}

	session, err := s.Store.MFALoginSessions().GetSession(ctx, loginToken)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.LoginResult{}, ErrLoginTokenInvalid
		}
		return domain.LoginResult{}, err
	}

	now := time.Now().UTC()
	if session.Expired(now) {
		_ = s.Store.MFALoginSessions().DeleteSession(ctx, loginToken)
		return domain.LoginResult{}, ErrLoginTokenExpired
	}

	if session.Attempts >= MaxMFAAttempts {
		_ = s.Store.MFALoginSessions().DeleteSession(ctx, loginToken)
		log.Warn("login challenge exceeded attempt cap", "user_id", session.UserID, "attempts", session.Attempts)
		return domain.LoginResult{}, ErrTooManyAttempts
	}

	user, err := s.Store.Users().GetUserByID(ctx, session.UserID)
	if err != nil {
		return domain.LoginResult{}, err
	}
	if !user.HasMFA() || user.MFASecret == nil || *user.MFASecret == "" {
		// Account changed between challenge creation and redemption.
		_ = s.Store.MFALoginSessions().DeleteSession(ctx, loginToken)
		return domain.LoginResult{}, ErrLoginTokenInvalid
	}
	if !user.Role.CanAccessPanel() {
		_ = s.Store.MFALoginSessions().DeleteSession(ctx, loginToken)
		s.Audit.Record(ctx, domain.AuditLoginDenied, user.ID, user.Email, remoteAddr)
		return domain.LoginResult{}, ErrAccessDenied
	}

	usedBackupCode := false
	if isTOTPCode(code) {
		if !validateTOTP(code, *user.MFASecret, now) {
			return domain.LoginResult{}, s.failAttempt(ctx, loginToken, user, remoteAddr)
		}

		redeemed, err := s.Store.MFALoginSessions().RedeemSession(ctx, loginToken, now)
		if err != nil {
			return domain.LoginResult{}, err
		}
		if !redeemed {
			return domain.LoginResult{}, ErrLoginTokenInvalid
		}
	} else {
		// Backup code path: consume the code and redeem the challenge in
		// one transaction so neither can be spent without the other.
		hash := cryptox.FingerprintToken(code)
		err := s.Store.WithTx(ctx, func(tx store.Tx) error {
			consumed, err := tx.BackupCodes().ConsumeBackupCode(ctx, user.ID, hash)
			if err != nil {
				return err
			}
			if !consumed {
				return ErrInvalidMFACode
			}

			redeemed, err := tx.MFALoginSessions().RedeemSession(ctx, loginToken, now)
			if err != nil {
				return err
			}
			if !redeemed {
				return ErrLoginTokenInvalid
			}
			return nil
		})
		if errors.Is(err, ErrInvalidMFACode) {
			return domain.LoginResult{}, s.failAttempt(ctx, loginToken, user, remoteAddr)
		}
		if err != nil {
			return domain.LoginResult{}, err
		}

		usedBackupCode = true
		s.Audit.Record(ctx, domain.AuditBackupCodeUse, user.ID, user.Email, remoteAddr)
	}

	result, err := s.issueTokens(user)
	if err != nil {
		return domain.LoginResult{}, err
	}

	if usedBackupCode {
		if left, err := s.Store.BackupCodes().CountBackupCodes(ctx, user.ID); err == nil && left <= 2 {
			log.Warn("backup codes running low", "user_id", user.ID, "remaining", left)
		}
	}

	s.Audit.Record(ctx, domain.AuditMFASuccess, user.ID, user.Email, remoteAddr)
	s.Audit.Record(ctx, domain.AuditLoginSuccess, user.ID, user.Email, remoteAddr)
	return result, nil
}

// Logout records the event. Tokens are stateless, so there is nothing to
// revoke server-side; the client clears its own state.
func (s *AuthService) Logout(ctx context.Context, userID, email, remoteAddr string) {
	s.Audit.Record(ctx, domain.AuditLogout, userID, email, remoteAddr)
}

// failAttempt bumps the challenge attempt counter after a bad code and
// destroys the challenge once the cap is reached.
func (s *AuthService) failAttempt(ctx context.Context, loginToken string, user domain.User, remoteAddr string) error {
	log := slogx.FromContext(ctx)
	s.Audit.Record(ctx, domain.AuditMFAFailed, user.ID, user.Email, remoteAddr)

	updated, err := s.Store.MFALoginSessions().IncrementAttempts(ctx, loginToken)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrLoginTokenInvalid
		}
		log.Error("failed to increment challenge attempts", "error", err)
		return ErrInvalidMFACode
	}

	if updated.Attempts >= MaxMFAAttempts {
		_ = s.Store.MFALoginSessions().DeleteSession(ctx, loginToken)
		log.Warn("login challenge destroyed after repeated failures", "user_id", user.ID)
		return ErrTooManyAttempts
	}

	return ErrInvalidMFACode
}

// issueTokens signs the bearer token and the short-lived grace marker.
func (s *AuthService) issueTokens(user domain.User) (domain.LoginResult, error) {
	now := time.Now().UTC()

	accessTTL := s.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = jwtx.DefaultAccessTokenTTL
	}
	graceTTL := s.GraceTTL
	if graceTTL <= 0 {
		graceTTL = DefaultGraceTTL
	}

	token, err := s.Signer.Sign(jwtx.NewAccessClaims(
		user.ID, user.Role.String(), user.Email, user.FullName,
		accessTTL, s.Issuer, now,
	))
	if err != nil {
		return domain.LoginResult{}, err
	}

	marker, err := s.Signer.Sign(jwtx.NewGraceClaims(user.ID, s.Issuer, graceTTL, now))
	if err != nil {
		return domain.LoginResult{}, err
	}

	return domain.LoginResult{
		Token:       token,
		GraceMarker: marker,
		User:        domain.ProfileOf(user),
	}, nil
}

func (s *AuthService) challengeTTL() time.Duration {
	if s.ChallengeTTL > 0 {
		return s.ChallengeTTL
	}
	return DefaultChallengeTTL
}

// normalizeCode strips spaces so "123 456" and pasted backup codes with
// surrounding whitespace still verify. Backup codes keep their dashes.
func normalizeCode(code string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(code), " ", ""))
}

// isTOTPCode distinguishes a 6-digit authenticator code from the longer
// dashed backup code format.
func isTOTPCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// validateTOTP accepts one 30s period of clock skew in either direction.
func validateTOTP(code, secret string, now time.Time) bool {
	ok, err := totp.ValidateCustom(code, secret, now, totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}
