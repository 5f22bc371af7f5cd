package admin_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/freshcounty/adminauth/internal/adminauth/domain"
	httpapi "github.com/freshcounty/adminauth/internal/adminauth/http"
	"github.com/freshcounty/adminauth/internal/adminauth/service"
	"github.com/freshcounty/adminauth/internal/adminauth/store"
	"github.com/freshcounty/adminauth/internal/adminauth/store/drivers/sqlite"
	"github.com/freshcounty/adminauth/pkg/cryptox"
	"github.com/freshcounty/adminauth/pkg/httpx"
	"github.com/freshcounty/adminauth/pkg/jwtx"
	"github.com/freshcounty/adminauth/pkg/slogx"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer = "test-adminauth"
	adminEmail = "admin@example.com"
	adminPass  = "admin123"
	staffEmail = "staff@example.com"
	staffPass  = "staffpass1"
)

// testEnv is an in-process instance of the service for end-to-end tests.
type testEnv struct {
	BaseURL string
	Store   store.Store
	Auth    *service.AuthService
	MFA     *service.MFAService
	Users   *service.UserService
}

// setupServer builds the full application stack against an in-memory
// database and serves it over httptest. Rate limits are relaxed so tests
// can hammer the endpoints.
func setupServer(t *testing.T) *testEnv {
	t.Helper()

	relaxed := httpx.RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000}
	httpx.StrictLimit = relaxed
	httpx.ModerateLimit = relaxed
	httpx.LenientLimit = relaxed

	cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper"))

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	pemKey, err := jwtx.GenerateKeyPEM()
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA("test-key", pemKey)
	require.NoError(t, err)

	audit := &service.AuditService{Store: st}
	users := &service.UserService{Store: st}
	auth := &service.AuthService{
		Store:  st,
		Signer: signer,
		Audit:  audit,
		Issuer: testIssuer,
	}
	mfa := &service.MFAService{Store: st, Audit: audit, Issuer: testIssuer}

	logger := slogx.New(slogx.Config{
		Service: "adminauth",
		Version: "test",
		Env:     "test",
		Level:   "error",
		Format:  "text",
	})

	router := httpapi.NewRouter(signer, signer.Verifier(testIssuer), "test", false, st, logger)
	router.AuthService = auth
	router.UserService = users
	router.MFAService = mfa
	router.ApplyRoutes()

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testEnv{
		BaseURL: server.URL,
		Store:   st,
		Auth:    auth,
		MFA:     mfa,
		Users:   users,
	}
}

func (env *testEnv) createUser(t *testing.T, email, password string, role domain.Role) domain.User {
	t.Helper()

	user, err := env.Users.CreateUser(context.Background(), email, "Test User", password, role)
	require.NoError(t, err)
	return user
}

// enrollTOTP enables MFA for an existing user directly through the store,
// skipping the setup/confirm handshake. Returns the shared secret.
func enrollTOTP(t *testing.T, env *testEnv, userID string) string {
	t.Helper()

	key, err := totp.Generate(totp.GenerateOpts{Issuer: testIssuer, AccountName: "e2e@example.com"})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, env.Store.Users().UpdateMFASecret(ctx, userID, key.Secret()))
	require.NoError(t, env.Store.Users().EnableMFA(ctx, userID))
	return key.Secret()
}

func totpCode(t *testing.T, secret string) string {
	t.Helper()

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	return code
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()

	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(raw)
}
