package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/freshcounty/adminauth/internal/adminauth/domain"
	"github.com/freshcounty/adminauth/internal/adminauth/service"
	"github.com/freshcounty/adminauth/internal/adminauth/store"
	"github.com/freshcounty/adminauth/pkg/httpx"
	"github.com/freshcounty/adminauth/pkg/jwtx"
	"github.com/freshcounty/adminauth/pkg/slogx"

	httpSwagger "github.com/swaggo/http-swagger"
)

// panelRoles is the closed set of roles allowed to hold a panel session.
var panelRoles = []string{
	domain.RoleStaff.String(),
	domain.RoleManager.String(),
	domain.RoleAdmin.String(),
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	signer       *jwtx.EdDSASigner
	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	cookieSecure bool

	store       store.Store
	AuthService *service.AuthService
	UserService *service.UserService
	MFAService  *service.MFAService
}

func NewRouter(
	signer *jwtx.EdDSASigner,
	verifier jwtx.Verifier,
	buildVersion string,
	cookieSecure bool,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		signer:       signer,
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		cookieSecure: cookieSecure,
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerMFA()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Fresh County Admin Auth API
//	@version		0.1.0
//	@description	Authentication service for the Fresh County admin panel: password login,
//	@description	TOTP second factor with backup codes, and JWT bearer tokens signed with
//	@description	EdDSA (Ed25519).
//
//	@contact.name				Fresh County Engineering
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	login := &LoginHandler{
		AuthService:  r.AuthService,
		CookieSecure: r.cookieSecure,
		GraceTTL:     r.AuthService.GraceTTL,
	}

	// Login takes credentials: strict limit by IP.
	r.Mux.Handle("POST /api/auth/admin-login",
		httpx.Chain(login,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	profile := &ProfileHandler{UserService: r.UserService}
	r.Mux.Handle("GET /api/auth/profile",
		httpx.Chain(profile,
			httpx.RequireAuth(r.verifier, panelRoles...),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	// Logout must succeed even with a dead token, so auth is optional.
	logout := &LogoutHandler{AuthService: r.AuthService, CookieSecure: r.cookieSecure}
	r.Mux.Handle("POST /api/auth/enhanced-logout",
		httpx.Chain(logout,
			httpx.OptionalAuth(r.verifier),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerMFA() {
	h := &MFAHandler{MFAService: r.MFAService}

	authed := func(handler http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
		return httpx.Chain(handler,
			httpx.RequireAuth(r.verifier, panelRoles...),
			httpx.RateLimitByUser(limit),
		)
	}

	r.Mux.Handle("POST /api/auth/mfa/setup", authed(h.HandleSetup, httpx.ModerateLimit))
	r.Mux.Handle("POST /api/auth/mfa/status", authed(h.HandleStatus, httpx.LenientLimit))

	// Endpoints that accept codes or passwords get the strict limit.
	r.Mux.Handle("POST /api/auth/mfa/confirm", authed(h.HandleConfirm, httpx.StrictLimit))
	r.Mux.Handle("POST /api/auth/mfa/disable", authed(h.HandleDisable, httpx.StrictLimit))
	r.Mux.Handle("POST /api/auth/mfa/backup-codes", authed(h.HandleBackupCodes, httpx.StrictLimit))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.signer),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
