// Package session holds the authenticated state of the dashboard: the
// access token, the current user and the theme preference, persisted in a
// key/value store between runs.
package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/DamienReichhart/TradeForge-sub000/pkg/apiclient"
	"github.com/DamienReichhart/TradeForge-sub000/pkg/db"
)

// Storage keys.
const (
	KeyAccessToken = "accessToken"
	KeyThemeMode   = "themeMode"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

const (
	msgLoginFailed        = "Login failed. Please check your credentials."
	msgRegisterFailed     = "Registration failed. Please try again."
	msgRegisterBadRequest = "Invalid registration data. Please check your input."
	msgRegisterInvalid    = "Validation error. Please check all fields are correctly filled."
)

// Store is the durable key/value store. *db.Preferences satisfies it.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// AuthAPI is the part of the backend the session talks to. *apiclient.Client
// satisfies it; the client must read its token from the session.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (apiclient.Token, error)
	Register(ctx context.Context, req apiclient.RegisterRequest) (apiclient.User, error)
	Me(ctx context.Context) (apiclient.User, error)
}

// AuthError carries the message shown to the user for a failed login or
// registration.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }
func (e *AuthError) Unwrap() error { return e.Err }

// Session is created once at startup and passed to whoever needs the
// token. It is safe for concurrent use.
type Session struct {
	store Store
	api   AuthAPI
	log   zerolog.Logger
	now   func() time.Time

	mu    sync.RWMutex
	token string
	user  *apiclient.User
}

func New(store Store, api AuthAPI, log zerolog.Logger) *Session {
	return &Session{store: store, api: api, log: log, now: time.Now}
}

// Token implements apiclient.TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the current user, nil when logged out.
func (s *Session) User() *apiclient.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// Restore loads a persisted token. No token leaves the session logged out
// without error. An expired or undecodable token, or one the backend
// refuses, is removed and the session is logged out.
func (s *Session) Restore(ctx context.Context) error {
	token, err := s.store.Get(ctx, KeyAccessToken)
	if errors.Is(err, db.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := CheckToken(token, s.now()); err != nil {
		s.log.Info().Err(err).Msg("stored token rejected, logging out")
		s.Logout(ctx)
		return err
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	user, err := s.api.Me(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("auth check failed, logging out")
		s.Logout(ctx)
		return err
	}
	s.setUser(&user)
	return nil
}

// Login authenticates and persists the token.
func (s *Session) Login(ctx context.Context, username, password string) (apiclient.User, error) {
	tok, err := s.api.Login(ctx, username, password)
	if err != nil {
		return apiclient.User{}, &AuthError{Message: detailOr(err, msgLoginFailed), Err: err}
	}
	if err := s.store.Set(ctx, KeyAccessToken, tok.AccessToken); err != nil {
		return apiclient.User{}, err
	}
	s.mu.Lock()
	s.token = tok.AccessToken
	s.mu.Unlock()

	user, err := s.api.Me(ctx)
	if err != nil {
		s.Logout(ctx)
		return apiclient.User{}, &AuthError{Message: detailOr(err, msgLoginFailed), Err: err}
	}
	s.setUser(&user)
	s.log.Info().Str("user", user.Username).Msg("logged in")
	return user, nil
}

// Register creates the account and logs in with the same credentials.
func (s *Session) Register(ctx context.Context, req apiclient.RegisterRequest) (apiclient.User, error) {
	if _, err := s.api.Register(ctx, req); err != nil {
		return apiclient.User{}, &AuthError{Message: registerMessage(err), Err: err}
	}
	return s.Login(ctx, req.Username, req.Password)
}

// Logout forgets the token locally. It never fails the caller; a store
// error is logged.
func (s *Session) Logout(ctx context.Context) {
	if err := s.store.Delete(ctx, KeyAccessToken); err != nil {
		s.log.Warn().Err(err).Msg("remove stored token")
	}
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()
}

// Theme returns the persisted theme mode, light by default.
func (s *Session) Theme(ctx context.Context) string {
	v, err := s.store.Get(ctx, KeyThemeMode)
	if err != nil || (v != ThemeDark && v != ThemeLight) {
		return ThemeLight
	}
	return v
}

// SetTheme persists the theme mode.
func (s *Session) SetTheme(ctx context.Context, mode string) error {
	if mode != ThemeLight && mode != ThemeDark {
		return errors.New("theme mode must be light or dark")
	}
	return s.store.Set(ctx, KeyThemeMode, mode)
}

// ToggleTheme flips the theme mode and returns the new one.
func (s *Session) ToggleTheme(ctx context.Context) (string, error) {
	next := ThemeDark
	if s.Theme(ctx) == ThemeDark {
		next = ThemeLight
	}
	return next, s.SetTheme(ctx, next)
}

func (s *Session) setUser(u *apiclient.User) {
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
}

func detailOr(err error, fallback string) string {
	if d := apiclient.Detail(err); d != "" {
		return d
	}
	return fallback
}

func registerMessage(err error) string {
	if d := apiclient.Detail(err); d != "" {
		return d
	}
	switch apiclient.StatusCode(err) {
	case http.StatusBadRequest:
		return msgRegisterBadRequest
	case http.StatusUnprocessableEntity:
		return msgRegisterInvalid
	}
	return msgRegisterFailed
}
