package http

import (
	"net/http"
	"time"

	"github.com/freshcounty/adminauth/internal/adminauth/store"
	"github.com/freshcounty/adminauth/pkg/adminsdk"
	"github.com/freshcounty/adminauth/pkg/httpx"
	"github.com/freshcounty/adminauth/pkg/jwtx"
)

// ReadyzHandler godoc
//
//	@Summary		Readiness probe
//	@Description	Checks database connectivity and the token signer. Returns 503 with
//	@Description	per-dependency detail when the service is not ready to take logins.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	adminsdk.HealthResponse
//	@Failure		503	{object}	adminsdk.HealthResponse
//	@Router			/readyz [get].
func ReadyzHandler(startTime time.Time, version string, st store.Store, signer *jwtx.EdDSASigner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &adminsdk.HealthChecks{
			Database: "ok",
			Signer:   "ok",
		}
		status := "ok"
		code := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		if signer == nil || signer.KID() == "" {
			checks.Signer = "error: no signing key loaded"
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, adminsdk.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
