package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/freshcounty/adminauth/internal/adminauth/domain"
	"github.com/freshcounty/adminauth/internal/adminauth/service"
	"github.com/freshcounty/adminauth/pkg/adminsdk"
	"github.com/freshcounty/adminauth/pkg/httpx"
	"github.com/freshcounty/adminauth/pkg/slogx"
)

// LoginHandler implements POST /api/auth/admin-login. The endpoint is
// dual-purpose: a credential pair starts a login, and a code plus
// mfaLoginToken completes a pending second-factor challenge.
type LoginHandler struct {
	AuthService *service.AuthService

	// CookieSecure controls the Secure attribute on issued cookies.
	// Off for plain-http local development only.
	CookieSecure bool

	// GraceTTL bounds the grace cookie Max-Age; mirrors the service TTL.
	GraceTTL time.Duration
}

// ServeHTTP godoc
//
//	@Summary		Admin login
//	@Description	Authenticates an admin-panel account. For MFA-enabled accounts the first
//	@Description	call returns a single-use mfaLoginToken and the second call exchanges it,
//	@Description	together with a TOTP or backup code, for the bearer token.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		adminsdk.LoginRequest	true	"Credentials or MFA completion"
//	@Success		200		{object}	httpx.Envelope			"token and user profile"
//	@Failure		401		{object}	httpx.Envelope			"login failed"
//	@Failure		410		{object}	httpx.Envelope			"challenge expired or already used"
//	@Failure		429		{object}	httpx.Envelope			"too many attempts"
//	@Router			/api/auth/admin-login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req adminsdk.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteFailure(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	var (
		result domain.LoginResult
		err    error
	)
	remoteAddr := httpx.IPKeyExtractor(r)

	if strings.TrimSpace(req.MFALoginToken) != "" {
		result, err = h.AuthService.VerifyMFA(ctx, req.MFALoginToken, req.MFAToken, remoteAddr)
	} else {
		result, err = h.AuthService.Authenticate(ctx, req.Email, req.Password, remoteAddr)
	}
	if err != nil {
		h.writeLoginFailure(w, log, err)
		return
	}

	if result.MFARequired {
		httpx.WriteJSON(w, http.StatusOK, httpx.MFAChallengeEnvelope{
			Success:       false,
			RequiresMFA:   true,
			MFALoginToken: result.MFALoginToken,
		})
		return
	}

	h.setSessionCookies(w, result)
	httpx.WriteSuccess(w, adminsdk.LoginData{
		Token: result.Token,
		User:  profileOf(result.User),
	})
}

// writeLoginFailure maps service errors onto responses. Credential and
// code failures collapse into one generic message; the audit trail keeps
// the specific kind.
func (h *LoginHandler) writeLoginFailure(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrAccessDenied),
		errors.Is(err, service.ErrInvalidMFACode):
		httpx.WriteFailure(w, http.StatusUnauthorized, "Login failed")
	case errors.Is(err, service.ErrLoginTokenInvalid),
		errors.Is(err, service.ErrLoginTokenExpired):
		httpx.WriteFailure(w, http.StatusGone, "Login session expired, please sign in again")
	case errors.Is(err, service.ErrTooManyAttempts):
		httpx.WriteFailure(w, http.StatusTooManyRequests, "Too many failed attempts, please sign in again")
	default:
		log.Warn("login failed with internal error", "error", err)
		httpx.WriteFailure(w, http.StatusInternalServerError, "Something went wrong")
	}
}

// setSessionCookies writes the bearer mirror cookie and the short-lived
// grace marker. The grace marker lets the browser route guard pass the
// redirect that immediately follows login.
func (h *LoginHandler) setSessionCookies(w http.ResponseWriter, result domain.LoginResult) {
	graceTTL := h.GraceTTL
	if graceTTL <= 0 {
		graceTTL = service.DefaultGraceTTL
	}

	http.SetCookie(w, &http.Cookie{
		Name:     httpx.TokenCookieName,
		Value:    result.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     httpx.GraceCookieName,
		Value:    result.GraceMarker,
		Path:     "/",
		MaxAge:   int(graceTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func profileOf(p domain.Profile) adminsdk.Profile {
	return adminsdk.Profile{
		ID:         p.ID,
		Email:      p.Email,
		FullName:   p.FullName,
		Role:       p.Role.String(),
		MFAEnabled: p.MFAEnabled,
	}
}
