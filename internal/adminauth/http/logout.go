package http

import (
	"net/http"

	"github.com/freshcounty/adminauth/internal/adminauth/service"
	"github.com/freshcounty/adminauth/pkg/httpx"
)

// LogoutHandler implements POST /api/auth/enhanced-logout. Tokens are
// stateless, so the server's job is to clear the cookies and record the
// event; the client drops its own copy of the token.
type LogoutHandler struct {
	AuthService  *service.AuthService
	CookieSecure bool
}

// ServeHTTP godoc
//
//	@Summary		Logout
//	@Description	Clears the session cookies and records the logout. Always succeeds,
//	@Description	even without a valid token, so a half-broken client can still sign out.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	httpx.Envelope
//	@Router			/api/auth/enhanced-logout [post].
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Best effort: the token may be absent or expired.
	if claims, ok := httpx.ClaimsFromCtx(ctx); ok {
		h.AuthService.Logout(ctx, claims.Subject, claims.Email, httpx.IPKeyExtractor(r))
	}

	expire := func(name string) {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	expire(httpx.TokenCookieName)
	expire(httpx.GraceCookieName)

	httpx.WriteJSON(w, http.StatusOK, httpx.Envelope{
		Success: true,
		Message: "Logged out",
	})
}
