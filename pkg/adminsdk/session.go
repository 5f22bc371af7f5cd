package adminsdk

import (
	"context"
	"errors"
	"sync"
)

// ErrNotAuthenticated is returned by session operations that need a
// current login.
var ErrNotAuthenticated = errors.New("adminsdk: not authenticated")

// ErrNoPendingChallenge is returned by CompleteMFA when no login is
// waiting on a second factor.
var ErrNoPendingChallenge = errors.New("adminsdk: no pending MFA challenge")

// Session is a client-side session store: it holds the current token and
// user, persists the token through an optional TokenStore, and notifies
// subscribers on every change. Safe for concurrent use.
type Session struct {
	client *Client
	store  TokenStore

	mu        sync.RWMutex
	token     string
	user      *Profile
	pending   string // mfaLoginToken of an in-flight challenge
	listeners []func()
}

// NewSession creates a session backed by the given client. store may be
// nil for a purely in-memory session.
func NewSession(client *Client, store TokenStore) *Session {
	return &Session{client: client, store: store}
}

// OnChange registers a callback invoked after every state change: login,
// MFA completion, logout, and restore. Callbacks run synchronously on
// the mutating goroutine and must not call back into the session.
func (s *Session) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Token returns the current bearer token, or "" when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the current user, or nil when logged out.
func (s *Session) User() *Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// IsAuthenticated reports whether a login is active.
func (s *Session) IsAuthenticated() bool {
	return s.Token() != ""
}

// Login authenticates with a credential pair. When the account has MFA
// enabled it returns *MFARequiredError and parks the challenge token;
// call CompleteMFA with the user's code to finish.
func (s *Session) Login(ctx context.Context, email, password string) error {
	data, err := s.client.Login(ctx, email, password)

	var mfaErr *MFARequiredError
	if errors.As(err, &mfaErr) {
		s.mu.Lock()
		s.pending = mfaErr.MFALoginToken
		s.mu.Unlock()
		return err
	}
	if err != nil {
		return err
	}

	s.adopt(data)
	return nil
}

// CompleteMFA finishes a login parked by Login with a TOTP or backup
// code. The challenge token is single-use: a second call after success
// fails server-side.
func (s *Session) CompleteMFA(ctx context.Context, code string) error {
	s.mu.RLock()
	pending := s.pending
	s.mu.RUnlock()

	if pending == "" {
		return ErrNoPendingChallenge
	}

	data, err := s.client.VerifyMFA(ctx, pending, code)
	if err != nil {
		// The challenge survives bad codes; only drop it when the
		// server says it is gone.
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode != 401 {
			s.mu.Lock()
			s.pending = ""
			s.mu.Unlock()
		}
		return err
	}

	s.adopt(data)
	return nil
}

// Logout notifies the server, then clears local state. The local clear
// happens even when the server call fails, so a dead backend cannot
// keep a client logged in.
func (s *Session) Logout(ctx context.Context) error {
	token := s.Token()

	var err error
	if token != "" {
		err = s.client.Logout(ctx, token)
	}

	s.clear()
	return err
}

// Restore loads a persisted token and validates it against the profile
// endpoint. An invalid token is discarded from the store.
func (s *Session) Restore(ctx context.Context) error {
	if s.store == nil {
		return ErrNotAuthenticated
	}

	token, err := s.store.Load()
	if err != nil || token == "" {
		return ErrNotAuthenticated
	}

	profile, err := s.client.Profile(ctx, token)
	if err != nil {
		_ = s.store.Clear()
		return err
	}

	s.mu.Lock()
	s.token = token
	s.user = &profile
	s.pending = ""
	listeners := append([]func(){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
	return nil
}

func (s *Session) adopt(data LoginData) {
	s.mu.Lock()
	s.token = data.Token
	user := data.User
	s.user = &user
	s.pending = ""
	listeners := append([]func(){}, s.listeners...)
	s.mu.Unlock()

	if s.store != nil {
		_ = s.store.Save(data.Token)
	}

	for _, fn := range listeners {
		fn()
	}
}

func (s *Session) clear() {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.pending = ""
	listeners := append([]func(){}, s.listeners...)
	s.mu.Unlock()

	if s.store != nil {
		_ = s.store.Clear()
	}

	for _, fn := range listeners {
		fn()
	}
}
