package adminsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a thin HTTP client for the admin auth service. It is
// stateless; use Session for a client that tracks the current login.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// envelope mirrors the service's response wrapper. Data stays raw until
// the caller knows what shape to decode into.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`

	RequiresMFA   bool   `json:"requiresMFA"`
	MFALoginToken string `json:"mfaLoginToken"`
}

// Login starts a login with a credential pair. For MFA-enabled accounts
// it returns *MFARequiredError carrying the single-use challenge token.
func (c *Client) Login(ctx context.Context, email, password string) (LoginData, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/auth/admin-login", "", LoginRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return LoginData{}, err
	}

	if env.RequiresMFA {
		return LoginData{}, &MFARequiredError{MFALoginToken: env.MFALoginToken}
	}

	var data LoginData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return LoginData{}, fmt.Errorf("failed to decode login response: %w", err)
	}
	return data, nil
}

// VerifyMFA completes a pending challenge with a TOTP or backup code.
func (c *Client) VerifyMFA(ctx context.Context, mfaLoginToken, code string) (LoginData, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/auth/admin-login", "", LoginRequest{
		MFAToken:      code,
		MFALoginToken: mfaLoginToken,
	})
	if err != nil {
		return LoginData{}, err
	}

	var data LoginData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return LoginData{}, fmt.Errorf("failed to decode login response: %w", err)
	}
	return data, nil
}

// Profile fetches the current user. A *APIError with status 401 means
// the token is no longer valid.
func (c *Client) Profile(ctx context.Context, token string) (Profile, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/auth/profile", token, nil)
	if err != nil {
		return Profile{}, err
	}

	var p Profile
	if err := json.Unmarshal(env.Data, &p); err != nil {
		return Profile{}, fmt.Errorf("failed to decode profile response: %w", err)
	}
	return p, nil
}

// Logout tells the service to clear its cookies and record the event.
// The request succeeds even when the token is already dead.
func (c *Client) Logout(ctx context.Context, token string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/auth/enhanced-logout", token, nil)
	return err
}

// MFASetup starts TOTP enrollment for the authenticated user.
func (c *Client) MFASetup(ctx context.Context, token string) (MFASetupData, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/auth/mfa/setup", token, nil)
	if err != nil {
		return MFASetupData{}, err
	}

	var data MFASetupData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return MFASetupData{}, fmt.Errorf("failed to decode setup response: %w", err)
	}
	return data, nil
}

// MFAConfirm verifies the first code and returns the backup codes.
func (c *Client) MFAConfirm(ctx context.Context, token, code string) ([]string, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/auth/mfa/confirm", token, MFAConfirmRequest{Code: code})
	if err != nil {
		return nil, err
	}

	var data BackupCodesData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to decode backup codes response: %w", err)
	}
	return data.BackupCodes, nil
}

// MFADisable turns the second factor off.
func (c *Client) MFADisable(ctx context.Context, token, password, code string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/auth/mfa/disable", token, MFAReconfirmRequest{
		Password: password,
		Code:     code,
	})
	return err
}

// MFARegenerateBackupCodes replaces the backup code set.
func (c *Client) MFARegenerateBackupCodes(ctx context.Context, token, password, code string) ([]string, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/auth/mfa/backup-codes", token, MFAReconfirmRequest{
		Password: password,
		Code:     code,
	})
	if err != nil {
		return nil, err
	}

	var data BackupCodesData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to decode backup codes response: %w", err)
	}
	return data.BackupCodes, nil
}

// MFAStatus fetches the second-factor state of the account.
func (c *Client) MFAStatus(ctx context.Context, token string) (MFAStatusData, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/auth/mfa/status", token, nil)
	if err != nil {
		return MFAStatusData{}, err
	}

	var data MFAStatusData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return MFAStatusData{}, fmt.Errorf("failed to decode status response: %w", err)
	}
	return data, nil
}

// do sends a request and decodes the envelope. Non-2xx responses and
// {success:false} envelopes (other than MFA challenges) become *APIError.
func (c *Client) do(ctx context.Context, method, path, token string, body any) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	if env.RequiresMFA {
		return &env, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || !env.Success {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	return &env, nil
}
