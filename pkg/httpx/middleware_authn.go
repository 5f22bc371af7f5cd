package httpx

import (
	"net/http"
	"strings"

	"github.com/freshcounty/adminauth/pkg/jwtx"
	"github.com/freshcounty/adminauth/pkg/slogx"
)

// Cookie names shared with the panel frontend. The bearer token cookie
// mirrors what the client keeps in storage; the session marker is the
// short-lived post-login grace credential.
const (
	TokenCookieName = "admin_token"
	GraceCookieName = "fresh_county_admin_session"
)

// bearerFromRequest extracts a candidate token. The Authorization header
// takes precedence over the cookie for API calls.
func bearerFromRequest(r *http.Request) string {
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))
	}
	if c, err := r.Cookie(TokenCookieName); err == nil {
		return c.Value
	}
	return ""
}

// RequireAuth guards API routes. Requests without a verifiable access
// token with a permitted role receive a structured error envelope.
//
// allowedRoles is the closed set of roles that may hold a panel session;
// any role outside it is rejected even when the token itself is valid.
func RequireAuth(v jwtx.Verifier, allowedRoles ...string) Middleware {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw := bearerFromRequest(r)
			if raw == "" {
				WriteFailure(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				log.Warn("token verification failed", "err", err)
				WriteFailure(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			if err := claims.ValidatePurpose(jwtx.PurposeAccess); err != nil {
				log.Warn("non-access token presented as bearer", "purpose", claims.Purpose)
				WriteFailure(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			if _, ok := allowed[claims.Role]; !ok {
				log.Warn("role not permitted", "role", claims.Role, "user_id", claims.Subject)
				WriteFailure(w, http.StatusForbidden, "Access denied")
				return
			}

			next.ServeHTTP(w, r.WithContext(contextWithAuth(ctx, claims)))
		})
	}
}

// OptionalAuth injects claims when a valid access token is present but
// never rejects the request. Used by logout, which must work even with
// a missing or expired token.
func OptionalAuth(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if raw := bearerFromRequest(r); raw != "" {
				if claims, err := v.Verify(raw); err == nil && claims.ValidatePurpose(jwtx.PurposeAccess) == nil {
					ctx = contextWithAuth(ctx, claims)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireBrowserAuth guards navigation routes. Rejected requests are
// redirected to the login entry point instead of receiving a JSON error.
//
// Immediately after login the freshly written token cookie may not yet be
// visible to the next request, so an unexpired grace marker (a signed,
// single-purpose token minted together with the bearer token) is accepted
// in its place. The marker carries no role and expires within seconds, so
// it cannot be used to reach API routes or to hold a session open.
func RequireBrowserAuth(v jwtx.Verifier, loginURL string, allowedRoles ...string) Middleware {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			if raw := bearerFromRequest(r); raw != "" {
				claims, err := v.Verify(raw)
				if err == nil && claims.ValidatePurpose(jwtx.PurposeAccess) == nil {
					if _, ok := allowed[claims.Role]; ok {
						next.ServeHTTP(w, r.WithContext(contextWithAuth(ctx, claims)))
						return
					}
				}
				if err != nil {
					log.Warn("browser token verification failed", "err", err)
				}
			}

			// Post-login grace window: accept only the signed marker.
			if c, err := r.Cookie(GraceCookieName); err == nil {
				claims, err := v.Verify(c.Value)
				if err == nil && claims.ValidatePurpose(jwtx.PurposeLoginGrace) == nil {
					next.ServeHTTP(w, r)
					return
				}
			}

			http.Redirect(w, r, loginURL, http.StatusSeeOther)
		})
	}
}
