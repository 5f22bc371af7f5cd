package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/freshcounty/adminauth/internal/adminauth/domain"
	"github.com/freshcounty/adminauth/internal/adminauth/store"
	"github.com/freshcounty/adminauth/internal/adminauth/store/drivers/sqlite"
	"github.com/freshcounty/adminauth/pkg/cryptox"
	"github.com/freshcounty/adminauth/pkg/idx"
	"github.com/freshcounty/adminauth/pkg/jwtx"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

const testIssuer = "test-adminauth"

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper"))

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newTestAuthService(t *testing.T, st store.Store) *AuthService {
	t.Helper()

	pemKey, err := jwtx.GenerateKeyPEM()
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA("test-key", pemKey)
	require.NoError(t, err)

	return &AuthService{
		Store:  st,
		Signer: signer,
		Audit:  &AuditService{Store: st},
		Issuer: testIssuer,
	}
}

func createTestUser(t *testing.T, st store.Store, email, password string, role domain.Role) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	now := time.Now().UTC()
	user := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		FullName:     "Test User",
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), user))
	return user
}

// enrollMFA enables the second factor directly through the store and
// returns the TOTP secret.
func enrollMFA(t *testing.T, st store.Store, userID string) string {
	t.Helper()
	ctx := context.Background()

	key, err := totp.Generate(totp.GenerateOpts{Issuer: testIssuer, AccountName: "test"})
	require.NoError(t, err)

	require.NoError(t, st.Users().UpdateMFASecret(ctx, userID, key.Secret()))
	require.NoError(t, st.Users().EnableMFA(ctx, userID))
	return key.Secret()
}

func TestAuthenticateIssuesTokenForAdmin(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newTestAuthService(t, st)

	user := createTestUser(t, st, "admin@example.com", "admin123", domain.RoleAdmin)

	result, err := svc.Authenticate(ctx, "admin@example.com", "admin123", "127.0.0.1")
	require.NoError(t, err)
	require.False(t, result.MFARequired)
	require.NotEmpty(t, result.Token)
	require.NotEmpty(t, result.GraceMarker)
	require.Equal(t, user.ID, result.User.ID)
	require.Equal(t, domain.RoleAdmin, result.User.Role)

	claims, err := svc.Signer.Verifier(testIssuer).Verify(result.Token)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.Subject)
	require.Equal(t, "admin", claims.Role)
	require.Equal(t, "admin@example.com", claims.Email)
	require.NoError(t, claims.ValidatePurpose(jwtx.PurposeAccess))
}

func TestAuthenticateGraceMarkerCarriesNoRole(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newTestAuthService(t, st)

	createTestUser(t, st, "staff@example.com", "password1", domain.RoleStaff)

	result, err := svc.Authenticate(ctx, "staff@example.com", "password1", "")
	require.NoError(t, err)

	claims, err := svc.Signer.Verifier(testIssuer).Verify(result.GraceMarker)
	require.NoError(t, err)
	require.Empty(t, claims.Role)
	require.NoError(t, claims.ValidatePurpose(jwtx.PurposeLoginGrace))
	require.ErrorIs(t, claims.ValidatePurpose(jwtx.PurposeAccess), jwtx.ErrPurpose)
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newTestAuthService(t, st)

	createTestUser(t, st, "admin@example.com", "admin123", domain.RoleAdmin)

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "nobody@example.com", "admin123", "")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "admin@example.com", "wrong", "")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("empty password", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "admin@example.com", "", "")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuthenticateRejectsCustomerRole(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newTestAuthService(t, st)

	createTestUser(t, st, "shopper@example.com", "password1", domain.RoleCustomer)

	result, err := svc.Authenticate(ctx, "shopper@example.com", "password1", "")
	require.ErrorIs(t, err, ErrAccessDenied)
	require.Empty(t, result.Token)
}

func TestAuthenticateWithMFAWithholdsToken(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newTestAuthService(t, st)

	user := createTestUser(t, st, "manager@example.com", "password1", domain.RoleManager)
	enrollMFA(t, st, user.ID)

	result, err := svc.Authenticate(ctx, "manager@example.com", "password1", "")
	require.NoError(t, err)
	require.True(t, result.MFARequired)
	require.NotEmpty(t, result.MFALoginToken)
	require.Empty(t, result.Token)
	require.Empty(t, result.GraceMarker)
}

func TestVerifyMFACompletesLogin(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newTestAuthService(t, st)

	user := createTestUser(t, st, "manager@example.com", "password1", domain.RoleManager)
	secret := enrollMFA(t, st, user.ID)

	result, err := svc.Authenticate(ctx, "manager@example.com", "password1", "")
	require.NoError(t, err)
	require.True(t, result.MFARequired)

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)

	completed, err := svc.VerifyMFA(ctx, result.MFALoginToken, code, "")
	require.NoError(t, err)
	require.NotEmpty(t, completed.Token)
	require.Equal(t, user.ID, completed.User.ID)
}

func TestVerifyMFALoginTokenIsSingleUse(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newTestAuthService(t, st)

	user := createTestUser(t, st, "manager@example.com", "password1", domain.RoleManager)
	secret := enrollMFA(t, st, user.ID)

	result, err := svc.Authenticate(ctx, "manager@example.com", "password1", "")
	require.NoError(t, err)

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)

	_, err = svc.VerifyMFA(ctx, result.MFALoginToken, code, "")
	require.NoError(t, err)

	// Replaying the same token fails even with a valid code.
	_, err = svc.VerifyMFA(ctx, result.MFALoginToken, code, "")
	require.ErrorIs(t, err, ErrLoginTokenInvalid)
}

func TestVerifyMFARejectsExpiredChallenge(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newTestAuthService(t, st)
	svc.ChallengeTTL = time.Nanosecond // expires before it can be redeemed

	user := createTestUser(t, st, "manager@example.com", "password1", domain.RoleManager)
	secret := enrollMFA(t, st, user.ID)

	result, err := svc.Authenticate(ctx, "manager@example.com", "password1", "")
	require.NoError(t, err)

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)

	_, err = svc.VerifyMFA(ctx, result.MFALoginToken, code, "")
	require.ErrorIs(t, err, ErrLoginTokenExpired)
}

func TestVerifyMFAAttemptCap(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newTestAuthService(t, st)

	user := createTestUser(t, st, "manager@example.com", "password1", domain.RoleManager)
	secret := enrollMFA(t, st, user.ID)

	result, err := svc.Authenticate(ctx, "manager@example.com", "password1", "")
	require.NoError(t, err)

	for i := 0; i < MaxMFAAttempts-1; i++ {
		_, err = svc.VerifyMFA(ctx, result.MFALoginToken, "000000", "")
		require.ErrorIs(t, err, ErrInvalidMFACode)
	}

	// The cap-hitting attempt destroys the challenge.
	_, err = svc.VerifyMFA(ctx, result.MFALoginToken, "000000", "")
	require.ErrorIs(t, err, ErrTooManyAttempts)

	// Even a valid code is now useless.
	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	_, err = svc.VerifyMFA(ctx, result.MFALoginToken, code, "")
	require.ErrorIs(t, err, ErrLoginTokenInvalid)
}

func TestVerifyMFAAcceptsBackupCodeOnce(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := newTestAuthService(t, st)

	user := createTestUser(t, st, "manager@example.com", "password1", domain.RoleManager)
	enrollMFA(t, st, user.ID)

	backup, err := cryptox.GenerateBackupCode()
	require.NoError(t, err)
	require.NoError(t, st.BackupCodes().CreateBackupCode(ctx, user.ID, cryptox.FingerprintToken(backup)))

	result, err := svc.Authenticate(ctx, "manager@example.com", "password1", "")
	require.NoError(t, err)

	completed, err := svc.VerifyMFA(ctx, result.MFALoginToken, backup, "")
	require.NoError(t, err)
	require.NotEmpty(t, completed.Token)

	// The code is consumed: a fresh challenge rejects it.
	second, err := svc.Authenticate(ctx, "manager@example.com", "password1", "")
	require.NoError(t, err)
	_, err = svc.VerifyMFA(ctx, second.MFALoginToken, backup, "")
	require.ErrorIs(t, err, ErrInvalidMFACode)
}

func TestNormalizeAndClassifyCodes(t *testing.T) {
	t.Parallel()

	require.Equal(t, "123456", normalizeCode(" 123 456 "))
	require.Equal(t, "AB12-CD34-EF56", normalizeCode("ab12-cd34-ef56"))

	require.True(t, isTOTPCode("123456"))
	require.False(t, isTOTPCode("12345"))
	require.False(t, isTOTPCode("abcdef"))
	require.False(t, isTOTPCode("AB12-CD34-EF56"))
}
