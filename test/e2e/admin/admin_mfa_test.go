package admin_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/freshcounty/adminauth/internal/adminauth/domain"
	"github.com/freshcounty/adminauth/pkg/adminsdk"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

func TestMFAEnrollmentAndLogin(t *testing.T) {
	env := setupServer(t)
	env.createUser(t, adminEmail, adminPass, domain.RoleAdmin)

	client := adminsdk.NewClient(env.BaseURL)
	ctx := context.Background()

	data, err := client.Login(ctx, adminEmail, adminPass)
	require.NoError(t, err)
	token := data.Token

	// Enroll.
	setup, err := client.MFASetup(ctx, token)
	require.NoError(t, err)
	require.NotEmpty(t, setup.Secret)
	require.Contains(t, setup.OTPAuthURL, "otpauth://totp/")

	status, err := client.MFAStatus(ctx, token)
	require.NoError(t, err)
	require.False(t, status.Enabled)
	require.True(t, status.PendingSetup)

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)

	backupCodes, err := client.MFAConfirm(ctx, token, code)
	require.NoError(t, err)
	require.Len(t, backupCodes, 10)

	status, err = client.MFAStatus(ctx, token)
	require.NoError(t, err)
	require.True(t, status.Enabled)
	require.False(t, status.PendingSetup)
	require.Equal(t, 10, status.BackupCodesLeft)

	// The next login withholds the token until the code is presented.
	_, err = client.Login(ctx, adminEmail, adminPass)
	var mfaErr *adminsdk.MFARequiredError
	require.ErrorAs(t, err, &mfaErr)
	require.NotEmpty(t, mfaErr.MFALoginToken)

	verified, err := client.VerifyMFA(ctx, mfaErr.MFALoginToken, totpCode(t, setup.Secret))
	require.NoError(t, err)
	require.NotEmpty(t, verified.Token)
	require.True(t, verified.User.MFAEnabled)

	_, err = client.Profile(ctx, verified.Token)
	require.NoError(t, err)
}

func TestMFALoginWithBackupCode(t *testing.T) {
	env := setupServer(t)
	user := env.createUser(t, adminEmail, adminPass, domain.RoleAdmin)
	secret := enrollTOTP(t, env, user.ID)

	client := adminsdk.NewClient(env.BaseURL)
	ctx := context.Background()

	// Mint backup codes through the management endpoint.
	data := loginWithTOTP(t, client, adminEmail, adminPass, secret)
	codes, err := client.MFARegenerateBackupCodes(ctx, data.Token, adminPass, totpCode(t, secret))
	require.NoError(t, err)
	require.Len(t, codes, 10)

	// Burn one backup code at login.
	_, err = client.Login(ctx, adminEmail, adminPass)
	var mfaErr *adminsdk.MFARequiredError
	require.ErrorAs(t, err, &mfaErr)

	verified, err := client.VerifyMFA(ctx, mfaErr.MFALoginToken, codes[0])
	require.NoError(t, err)
	require.NotEmpty(t, verified.Token)

	status, err := client.MFAStatus(ctx, verified.Token)
	require.NoError(t, err)
	require.Equal(t, 9, status.BackupCodesLeft)

	// The spent code no longer works.
	_, err = client.Login(ctx, adminEmail, adminPass)
	require.ErrorAs(t, err, &mfaErr)

	_, err = client.VerifyMFA(ctx, mfaErr.MFALoginToken, codes[0])
	var apiErr *adminsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestMFAWrongCodeKeepsChallengeAlive(t *testing.T) {
	env := setupServer(t)
	user := env.createUser(t, staffEmail, staffPass, domain.RoleStaff)
	secret := enrollTOTP(t, env, user.ID)

	client := adminsdk.NewClient(env.BaseURL)
	ctx := context.Background()

	session := adminsdk.NewSession(client, nil)
	err := session.Login(ctx, staffEmail, staffPass)
	var mfaErr *adminsdk.MFARequiredError
	require.ErrorAs(t, err, &mfaErr)
	require.False(t, session.IsAuthenticated())

	// A wrong code costs an attempt but the challenge survives.
	err = session.CompleteMFA(ctx, "000000")
	var apiErr *adminsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	require.NoError(t, session.CompleteMFA(ctx, totpCode(t, secret)))
	require.True(t, session.IsAuthenticated())
	require.Equal(t, staffEmail, session.User().Email)
}

func TestMFADisableRestoresPasswordOnlyLogin(t *testing.T) {
	env := setupServer(t)
	user := env.createUser(t, adminEmail, adminPass, domain.RoleAdmin)
	secret := enrollTOTP(t, env, user.ID)

	client := adminsdk.NewClient(env.BaseURL)
	ctx := context.Background()

	data := loginWithTOTP(t, client, adminEmail, adminPass, secret)

	// Disabling demands a fresh reconfirmation.
	err := client.MFADisable(ctx, data.Token, "wrong-password", totpCode(t, secret))
	var apiErr *adminsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	require.NoError(t, client.MFADisable(ctx, data.Token, adminPass, totpCode(t, secret)))

	status, err := client.MFAStatus(ctx, data.Token)
	require.NoError(t, err)
	require.False(t, status.Enabled)

	again, err := client.Login(ctx, adminEmail, adminPass)
	require.NoError(t, err)
	require.NotEmpty(t, again.Token)
}

// loginWithTOTP completes the two-step login for an MFA-enabled user.
func loginWithTOTP(t *testing.T, client *adminsdk.Client, email, password, secret string) adminsdk.LoginData {
	t.Helper()

	_, err := client.Login(context.Background(), email, password)
	var mfaErr *adminsdk.MFARequiredError
	require.ErrorAs(t, err, &mfaErr)

	data, err := client.VerifyMFA(context.Background(), mfaErr.MFALoginToken, totpCode(t, secret))
	require.NoError(t, err)
	return data
}
