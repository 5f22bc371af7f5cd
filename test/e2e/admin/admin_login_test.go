package admin_test

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/freshcounty/adminauth/internal/adminauth/domain"
	"github.com/freshcounty/adminauth/pkg/adminsdk"
	"github.com/freshcounty/adminauth/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestLoginLogoutRoundTrip(t *testing.T) {
	env := setupServer(t)
	env.createUser(t, adminEmail, adminPass, domain.RoleAdmin)

	client := adminsdk.NewClient(env.BaseURL)
	ctx := context.Background()

	data, err := client.Login(ctx, adminEmail, adminPass)
	require.NoError(t, err)
	require.NotEmpty(t, data.Token)
	require.Equal(t, adminEmail, data.User.Email)
	require.Equal(t, "admin", data.User.Role)
	require.False(t, data.User.MFAEnabled)

	profile, err := client.Profile(ctx, data.Token)
	require.NoError(t, err)
	require.Equal(t, data.User.ID, profile.ID)

	require.NoError(t, client.Logout(ctx, data.Token))
}

func TestLoginFailuresAreGeneric(t *testing.T) {
	env := setupServer(t)
	env.createUser(t, adminEmail, adminPass, domain.RoleAdmin)
	env.createUser(t, "shopper@example.com", "shopperpass", domain.RoleCustomer)

	client := adminsdk.NewClient(env.BaseURL)
	ctx := context.Background()

	for name, attempt := range map[string][2]string{
		"unknown email":  {"nobody@example.com", adminPass},
		"wrong password": {adminEmail, "wrong-password"},
		"customer role":  {"shopper@example.com", "shopperpass"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := client.Login(ctx, attempt[0], attempt[1])

			var apiErr *adminsdk.APIError
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
			require.Equal(t, "Login failed", apiErr.Message)
		})
	}
}

func TestProfileRejectsTamperedToken(t *testing.T) {
	env := setupServer(t)
	env.createUser(t, adminEmail, adminPass, domain.RoleAdmin)

	client := adminsdk.NewClient(env.BaseURL)
	ctx := context.Background()

	data, err := client.Login(ctx, adminEmail, adminPass)
	require.NoError(t, err)

	_, err = client.Profile(ctx, data.Token+"x")
	var apiErr *adminsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	_, err = client.Profile(ctx, "")
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestLoginSetsSessionCookies(t *testing.T) {
	env := setupServer(t)
	env.createUser(t, adminEmail, adminPass, domain.RoleAdmin)

	resp, err := http.Post(
		env.BaseURL+"/api/auth/admin-login",
		"application/json",
		jsonBody(t, adminsdk.LoginRequest{Email: adminEmail, Password: adminPass}),
	)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cookies := map[string]*http.Cookie{}
	for _, c := range resp.Cookies() {
		cookies[c.Name] = c
	}

	token, ok := cookies[httpx.TokenCookieName]
	require.True(t, ok, "bearer mirror cookie missing")
	require.NotEmpty(t, token.Value)
	require.True(t, token.HttpOnly)

	grace, ok := cookies[httpx.GraceCookieName]
	require.True(t, ok, "grace marker cookie missing")
	require.NotEmpty(t, grace.Value)
	require.True(t, grace.HttpOnly)
	require.Greater(t, grace.MaxAge, 0)
	require.LessOrEqual(t, grace.MaxAge, 60)

	// The cookie alone authenticates API calls.
	req, err := http.NewRequest(http.MethodGet, env.BaseURL+"/api/auth/profile", nil)
	require.NoError(t, err)
	req.AddCookie(token)

	profileResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer profileResp.Body.Close()
	require.Equal(t, http.StatusOK, profileResp.StatusCode)
}

func TestSessionRestore(t *testing.T) {
	env := setupServer(t)
	env.createUser(t, staffEmail, staffPass, domain.RoleStaff)

	ctx := context.Background()
	tokenPath := filepath.Join(t.TempDir(), "token")
	client := adminsdk.NewClient(env.BaseURL)

	session := adminsdk.NewSession(client, &adminsdk.FileTokenStore{Path: tokenPath})

	var changes int
	session.OnChange(func() { changes++ })

	require.NoError(t, session.Login(ctx, staffEmail, staffPass))
	require.True(t, session.IsAuthenticated())
	require.Equal(t, staffEmail, session.User().Email)
	require.Equal(t, 1, changes)

	// A fresh session restores from the persisted token.
	restored := adminsdk.NewSession(client, &adminsdk.FileTokenStore{Path: tokenPath})
	require.NoError(t, restored.Restore(ctx))
	require.True(t, restored.IsAuthenticated())
	require.Equal(t, staffEmail, restored.User().Email)

	// Logout clears local state and the store.
	require.NoError(t, session.Logout(ctx))
	require.False(t, session.IsAuthenticated())
	require.Nil(t, session.User())
	require.Equal(t, 2, changes)

	empty := adminsdk.NewSession(client, &adminsdk.FileTokenStore{Path: tokenPath})
	require.ErrorIs(t, empty.Restore(ctx), adminsdk.ErrNotAuthenticated)
}

func TestHealthEndpoints(t *testing.T) {
	env := setupServer(t)

	resp, err := http.Get(env.BaseURL + "/livez")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(env.BaseURL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogoutWithoutTokenSucceeds(t *testing.T) {
	env := setupServer(t)

	resp, err := http.Post(env.BaseURL+"/api/auth/enhanced-logout", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogoutExpiresSessionCookies(t *testing.T) {
	env := setupServer(t)
	env.createUser(t, adminEmail, adminPass, domain.RoleAdmin)

	client := adminsdk.NewClient(env.BaseURL)
	data, err := client.Login(context.Background(), adminEmail, adminPass)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, env.BaseURL+"/api/auth/enhanced-logout", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+data.Token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	expired := map[string]bool{}
	for _, c := range resp.Cookies() {
		if c.MaxAge < 0 {
			expired[c.Name] = true
		}
	}
	require.True(t, expired[httpx.TokenCookieName])
	require.True(t, expired[httpx.GraceCookieName])
}

func TestLoginTokenSingleUseOverHTTP(t *testing.T) {
	env := setupServer(t)
	user := env.createUser(t, staffEmail, staffPass, domain.RoleStaff)
	secret := enrollTOTP(t, env, user.ID)

	client := adminsdk.NewClient(env.BaseURL)
	ctx := context.Background()

	_, err := client.Login(ctx, staffEmail, staffPass)
	var mfaErr *adminsdk.MFARequiredError
	require.ErrorAs(t, err, &mfaErr)

	code := totpCode(t, secret)
	_, err = client.VerifyMFA(ctx, mfaErr.MFALoginToken, code)
	require.NoError(t, err)

	// Replay of the challenge token is refused.
	_, err = client.VerifyMFA(ctx, mfaErr.MFALoginToken, code)
	var apiErr *adminsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusGone, apiErr.StatusCode)
}
