package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/freshcounty/adminauth/internal/adminauth/service"
	"github.com/freshcounty/adminauth/pkg/adminsdk"
	"github.com/freshcounty/adminauth/pkg/httpx"
	"github.com/freshcounty/adminauth/pkg/slogx"
)

// MFAHandler covers the authenticated second-factor management
// endpoints under /api/auth/mfa/.
type MFAHandler struct {
	MFAService *service.MFAService
}

// HandleSetup godoc
//
//	@Summary		Start TOTP enrollment
//	@Description	Generates a provisional TOTP secret and otpauth URL for the QR code.
//	@Description	MFA stays off until the first code is confirmed.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	httpx.Envelope	"secret and otpauth URL"
//	@Failure		400	{object}	httpx.Envelope	"MFA already enabled"
//	@Router			/api/auth/mfa/setup [post].
func (h *MFAHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	setup, err := h.MFAService.Setup(ctx, httpx.UserIDFromCtx(ctx))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpx.WriteSuccess(w, adminsdk.MFASetupData{
		Secret:     setup.Secret,
		OTPAuthURL: setup.OTPAuthURL,
		Issuer:     setup.Issuer,
		Account:    setup.Account,
	})
}

// HandleConfirm godoc
//
//	@Summary		Confirm TOTP enrollment
//	@Description	Verifies the first code against the pending secret, enables MFA, and
//	@Description	returns the backup codes. The codes are shown exactly once.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		adminsdk.MFAConfirmRequest	true	"first TOTP code"
//	@Success		200		{object}	httpx.Envelope				"backup codes"
//	@Failure		400		{object}	httpx.Envelope				"invalid code or no pending enrollment"
//	@Router			/api/auth/mfa/confirm [post].
func (h *MFAHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req adminsdk.MFAConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteFailure(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	codes, err := h.MFAService.Confirm(ctx, httpx.UserIDFromCtx(ctx), req.Code)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpx.WriteSuccess(w, adminsdk.BackupCodesData{BackupCodes: codes})
}

// HandleDisable godoc
//
//	@Summary		Disable MFA
//	@Description	Turns the second factor off. Requires the account password and a valid
//	@Description	current code so a captured browser session alone is not enough.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		adminsdk.MFAReconfirmRequest	true	"password and current code"
//	@Success		200		{object}	httpx.Envelope
//	@Failure		401		{object}	httpx.Envelope	"password or code did not verify"
//	@Router			/api/auth/mfa/disable [post].
func (h *MFAHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req adminsdk.MFAReconfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteFailure(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := h.MFAService.Disable(ctx, httpx.UserIDFromCtx(ctx), req.Password, req.Code); err != nil {
		h.writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, httpx.Envelope{
		Success: true,
		Message: "MFA disabled",
	})
}

// HandleBackupCodes godoc
//
//	@Summary		Regenerate backup codes
//	@Description	Replaces the full backup code set. Requires the account password and a
//	@Description	valid current code.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		adminsdk.MFAReconfirmRequest	true	"password and current code"
//	@Success		200		{object}	httpx.Envelope					"new backup codes"
//	@Failure		401		{object}	httpx.Envelope					"password or code did not verify"
//	@Router			/api/auth/mfa/backup-codes [post].
func (h *MFAHandler) HandleBackupCodes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req adminsdk.MFAReconfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteFailure(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	codes, err := h.MFAService.RegenerateBackupCodes(ctx, httpx.UserIDFromCtx(ctx), req.Password, req.Code)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpx.WriteSuccess(w, adminsdk.BackupCodesData{BackupCodes: codes})
}

// HandleStatus godoc
//
//	@Summary		MFA status
//	@Description	Reports whether MFA is enabled, when it was enrolled, and how many
//	@Description	backup codes remain.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	httpx.Envelope	"MFA status"
//	@Router			/api/auth/mfa/status [post].
func (h *MFAHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status, err := h.MFAService.Status(ctx, httpx.UserIDFromCtx(ctx))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpx.WriteSuccess(w, adminsdk.MFAStatusData{
		Enabled:         status.Enabled,
		EnrolledAt:      status.EnrolledAt,
		BackupCodesLeft: status.BackupCodesLeft,
		PendingSetup:    status.PendingSetup,
	})
}

func (h *MFAHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrMFAAlreadyEnabled):
		httpx.WriteFailure(w, http.StatusBadRequest, "MFA is already enabled")
	case errors.Is(err, service.ErrMFANotEnabled), errors.Is(err, service.ErrMFANotEnrolled):
		httpx.WriteFailure(w, http.StatusBadRequest, "MFA is not enabled")
	case errors.Is(err, service.ErrInvalidMFACode):
		httpx.WriteFailure(w, http.StatusUnauthorized, "Invalid code")
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteFailure(w, http.StatusUnauthorized, "Invalid password")
	default:
		slogx.FromContext(r.Context()).Error("MFA operation failed", "error", err)
		httpx.WriteFailure(w, http.StatusInternalServerError, "Something went wrong")
	}
}
