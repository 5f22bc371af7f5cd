package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/freshcounty/adminauth/internal/adminauth/domain"
	"github.com/freshcounty/adminauth/internal/adminauth/store"
	"github.com/freshcounty/adminauth/pkg/cryptox"
	"github.com/freshcounty/adminauth/pkg/slogx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// backupCodeCount is how many single-use recovery codes each enrollment
// receives. Regeneration always replaces the full set.
const backupCodeCount = 10

var (
	ErrMFANotEnabled     = errors.New("MFA not enabled for this account")
	ErrMFAAlreadyEnabled = errors.New("MFA already enabled for this account")
	ErrMFANotEnrolled    = errors.New("MFA enrollment not started")
)

// MFAService manages second-factor enrollment for an already
// authenticated account: setup, confirmation, disable, and backup codes.
type MFAService struct {
	Store store.Store
	Audit *AuditService

	// Issuer is the label shown in authenticator apps.
	Issuer string
}

// Setup generates a TOTP secret for the user and stores it without
// enabling MFA. The account stays password-only until the user proves
// possession of the secret via Confirm.
func (s *MFAService) Setup(ctx context.Context, userID string) (domain.MFASetup, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.MFASetup{}, err
	}
	if user.HasMFA() {
		return domain.MFASetup{}, ErrMFAAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: user.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return domain.MFASetup{}, fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	// Re-running setup before confirmation replaces the pending secret.
	if err := s.Store.Users().UpdateMFASecret(ctx, userID, key.Secret()); err != nil {
		return domain.MFASetup{}, fmt.Errorf("failed to store MFA secret: %w", err)
	}

	return domain.MFASetup{
		Secret:     key.Secret(),
		OTPAuthURL: key.URL(),
		Issuer:     s.Issuer,
		Account:    user.Email,
	}, nil
}

// Confirm verifies the first code against the pending secret, enables
// MFA, and returns the freshly generated backup codes. The plaintext
// codes exist only in this response; the store keeps fingerprints.
func (s *MFAService) Confirm(ctx context.Context, userID, code string) ([]string, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.HasMFA() {
		return nil, ErrMFAAlreadyEnabled
	}
	if user.MFASecret == nil || *user.MFASecret == "" {
		return nil, ErrMFANotEnrolled
	}

	if !validateTOTP(normalizeCode(code), *user.MFASecret, time.Now().UTC()) {
		return nil, ErrInvalidMFACode
	}

	codes, err := generateBackupCodes()
	if err != nil {
		return nil, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		for _, c := range codes {
			if err := tx.BackupCodes().CreateBackupCode(ctx, userID, cryptox.FingerprintToken(c)); err != nil {
				return fmt.Errorf("failed to store backup code: %w", err)
			}
		}
		return tx.Users().EnableMFA(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	s.Audit.Record(ctx, domain.AuditMFAEnabled, userID, user.Email, "")
	return codes, nil
}

// Disable turns the second factor off. It requires the account password
// and a valid current code (TOTP or backup) so a hijacked browser
// session alone cannot weaken the account.
func (s *MFAService) Disable(ctx context.Context, userID, password, code string) error {
	user, err := s.reconfirm(ctx, userID, password, code)
	if err != nil {
		return err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.BackupCodes().DeleteAllBackupCodes(ctx, userID); err != nil {
			return err
		}
		return tx.Users().DisableMFA(ctx, userID)
	})
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("MFA disabled", "user_id", userID)
	s.Audit.Record(ctx, domain.AuditMFADisabled, userID, user.Email, "")
	return nil
}

// RegenerateBackupCodes replaces the full backup code set. Like Disable
// it requires password plus a valid current code.
func (s *MFAService) RegenerateBackupCodes(ctx context.Context, userID, password, code string) ([]string, error) {
	user, err := s.reconfirm(ctx, userID, password, code)
	if err != nil {
		return nil, err
	}

	codes, err := generateBackupCodes()
	if err != nil {
		return nil, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.BackupCodes().DeleteAllBackupCodes(ctx, userID); err != nil {
			return err
		}
		for _, c := range codes {
			if err := tx.BackupCodes().CreateBackupCode(ctx, userID, cryptox.FingerprintToken(c)); err != nil {
				return fmt.Errorf("failed to store backup code: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Audit.Record(ctx, domain.AuditBackupCodeUse, userID, user.Email, "")
	return codes, nil
}

// Status summarises the second-factor state for the profile screen.
func (s *MFAService) Status(ctx context.Context, userID string) (domain.MFAStatus, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.MFAStatus{}, err
	}

	status := domain.MFAStatus{
		Enabled:      user.HasMFA(),
		EnrolledAt:   user.MFAEnabled,
		PendingSetup: !user.HasMFA() && user.MFASecret != nil && *user.MFASecret != "",
	}

	if status.Enabled {
		left, err := s.Store.BackupCodes().CountBackupCodes(ctx, userID)
		if err != nil {
			return domain.MFAStatus{}, err
		}
		status.BackupCodesLeft = left
	}

	return status, nil
}

// reconfirm checks password and a current second-factor code for the
// destructive MFA operations. A backup code used here is consumed.
func (s *MFAService) reconfirm(ctx context.Context, userID, password, code string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	if !user.HasMFA() || user.MFASecret == nil || *user.MFASecret == "" {
		return domain.User{}, ErrMFANotEnabled
	}

	if cryptox.VerifyPassword(password, user.PasswordHash) != nil {
		return domain.User{}, ErrInvalidCredentials
	}

	code = normalizeCode(code)
	if isTOTPCode(code) {
		if !validateTOTP(code, *user.MFASecret, time.Now().UTC()) {
			return domain.User{}, ErrInvalidMFACode
		}
		return user, nil
	}

	consumed, err := s.Store.BackupCodes().ConsumeBackupCode(ctx, userID, cryptox.FingerprintToken(code))
	if err != nil {
		return domain.User{}, err
	}
	if !consumed {
		return domain.User{}, ErrInvalidMFACode
	}
	return user, nil
}

func generateBackupCodes() ([]string, error) {
	codes := make([]string, backupCodeCount)
	for i := range codes {
		c, err := cryptox.GenerateBackupCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate backup code: %w", err)
		}
		codes[i] = c
	}
	return codes, nil
}
