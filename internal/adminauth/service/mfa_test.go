package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/freshcounty/adminauth/internal/adminauth/domain"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

var backupCodePattern = regexp.MustCompile(`^[2-9A-HJKMNP-Z]{4}-[2-9A-HJKMNP-Z]{4}-[2-9A-HJKMNP-Z]{4}$`)

func newTestMFAService(t *testing.T) (*MFAService, *AuthService, domain.User) {
	t.Helper()

	st := newTestStore(t)
	auth := newTestAuthService(t, st)
	user := createTestUser(t, st, "staff@example.com", "password1", domain.RoleStaff)

	return &MFAService{
		Store:  st,
		Audit:  &AuditService{Store: st},
		Issuer: testIssuer,
	}, auth, user
}

func TestMFASetupAndConfirm(t *testing.T) {
	ctx := context.Background()
	svc, _, user := newTestMFAService(t)

	setup, err := svc.Setup(ctx, user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, setup.Secret)
	require.Contains(t, setup.OTPAuthURL, "otpauth://totp/")
	require.Equal(t, testIssuer, setup.Issuer)
	require.Equal(t, user.Email, setup.Account)

	// Not enabled yet: status shows a pending enrollment.
	status, err := svc.Status(ctx, user.ID)
	require.NoError(t, err)
	require.False(t, status.Enabled)
	require.True(t, status.PendingSetup)

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)

	codes, err := svc.Confirm(ctx, user.ID, code)
	require.NoError(t, err)
	require.Len(t, codes, backupCodeCount)
	for _, c := range codes {
		require.Regexp(t, backupCodePattern, c)
	}

	status, err = svc.Status(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, status.Enabled)
	require.NotNil(t, status.EnrolledAt)
	require.Equal(t, backupCodeCount, status.BackupCodesLeft)
	require.False(t, status.PendingSetup)
}

func TestMFAConfirmRejectsBadCode(t *testing.T) {
	ctx := context.Background()
	svc, _, user := newTestMFAService(t)

	_, err := svc.Setup(ctx, user.ID)
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, user.ID, "000000")
	require.ErrorIs(t, err, ErrInvalidMFACode)

	status, err := svc.Status(ctx, user.ID)
	require.NoError(t, err)
	require.False(t, status.Enabled)
}

func TestMFAConfirmRequiresSetup(t *testing.T) {
	ctx := context.Background()
	svc, _, user := newTestMFAService(t)

	_, err := svc.Confirm(ctx, user.ID, "123456")
	require.ErrorIs(t, err, ErrMFANotEnrolled)
}

func TestMFASetupRejectedWhenAlreadyEnabled(t *testing.T) {
	ctx := context.Background()
	svc, _, user := newTestMFAService(t)

	enrollMFA(t, svc.Store, user.ID)

	_, err := svc.Setup(ctx, user.ID)
	require.ErrorIs(t, err, ErrMFAAlreadyEnabled)
}

func TestMFADisableRequiresPasswordAndCode(t *testing.T) {
	ctx := context.Background()
	svc, _, user := newTestMFAService(t)

	secret := enrollMFA(t, svc.Store, user.ID)

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		require.ErrorIs(t, svc.Disable(ctx, user.ID, "wrong", code), ErrInvalidCredentials)
	})

	t.Run("wrong code", func(t *testing.T) {
		require.ErrorIs(t, svc.Disable(ctx, user.ID, "password1", "000000"), ErrInvalidMFACode)
	})

	t.Run("valid pair disables and clears codes", func(t *testing.T) {
		code, err := totp.GenerateCode(secret, time.Now())
		require.NoError(t, err)
		require.NoError(t, svc.Disable(ctx, user.ID, "password1", code))

		u, err := svc.Store.Users().GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		require.False(t, u.HasMFA())
		require.Nil(t, u.MFASecret)

		left, err := svc.Store.BackupCodes().CountBackupCodes(ctx, user.ID)
		require.NoError(t, err)
		require.Zero(t, left)
	})
}

func TestMFARegenerateBackupCodesReplacesSet(t *testing.T) {
	ctx := context.Background()
	svc, auth, user := newTestMFAService(t)

	setup, err := svc.Setup(ctx, user.ID)
	require.NoError(t, err)
	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	oldCodes, err := svc.Confirm(ctx, user.ID, code)
	require.NoError(t, err)

	code, err = totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	newCodes, err := svc.RegenerateBackupCodes(ctx, user.ID, "password1", code)
	require.NoError(t, err)
	require.Len(t, newCodes, backupCodeCount)
	require.NotElementsMatch(t, oldCodes, newCodes)

	// Old codes are dead, new codes work.
	result, err := auth.Authenticate(ctx, user.Email, "password1", "")
	require.NoError(t, err)
	_, err = auth.VerifyMFA(ctx, result.MFALoginToken, oldCodes[0], "")
	require.ErrorIs(t, err, ErrInvalidMFACode)

	_, err = auth.VerifyMFA(ctx, result.MFALoginToken, newCodes[0], "")
	require.NoError(t, err)
}

func TestMFADisableWithBackupCodeConsumesIt(t *testing.T) {
	ctx := context.Background()
	svc, _, user := newTestMFAService(t)

	setup, err := svc.Setup(ctx, user.ID)
	require.NoError(t, err)
	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	codes, err := svc.Confirm(ctx, user.ID, code)
	require.NoError(t, err)

	require.NoError(t, svc.Disable(ctx, user.ID, "password1", codes[0]))
}
