package http

import (
	"errors"
	"net/http"

	"github.com/freshcounty/adminauth/internal/adminauth/service"
	"github.com/freshcounty/adminauth/internal/adminauth/store"
	"github.com/freshcounty/adminauth/pkg/httpx"
	"github.com/freshcounty/adminauth/pkg/slogx"
)

// ProfileHandler implements GET /api/auth/profile. It doubles as the
// token validity check for clients restoring a persisted session.
type ProfileHandler struct {
	UserService *service.UserService
}

// ServeHTTP godoc
//
//	@Summary		Current user profile
//	@Description	Returns the profile of the authenticated user. A 401 here means the
//	@Description	presented token is no longer valid and the client should clear it.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	httpx.Envelope	"user profile"
//	@Failure		401	{object}	httpx.Envelope	"missing or invalid token"
//	@Router			/api/auth/profile [get].
func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := httpx.UserIDFromCtx(ctx)
	if userID == "" {
		httpx.WriteFailure(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	profile, err := h.UserService.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Token outlived the account.
			httpx.WriteFailure(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		slogx.FromContext(ctx).Error("failed to load profile", "user_id", userID, "error", err)
		httpx.WriteFailure(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	httpx.WriteSuccess(w, profileOf(profile))
}
