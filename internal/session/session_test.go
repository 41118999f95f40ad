package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/DamienReichhart/TradeForge-sub000/pkg/apiclient"
	"github.com/DamienReichhart/TradeForge-sub000/pkg/db"
)

type memStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemStore() *memStore { return &memStore{data: map[string]string{}} }

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", db.ErrNotFound
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

type fakeAPI struct {
	sess        *Session
	token       string
	loginErr    error
	registerErr error
	meErr       error
	registered  []apiclient.RegisterRequest
}

func (f *fakeAPI) Login(_ context.Context, username, password string) (apiclient.Token, error) {
	if f.loginErr != nil {
		return apiclient.Token{}, f.loginErr
	}
	return apiclient.Token{AccessToken: f.token, TokenType: "bearer"}, nil
}

func (f *fakeAPI) Register(_ context.Context, req apiclient.RegisterRequest) (apiclient.User, error) {
	f.registered = append(f.registered, req)
	if f.registerErr != nil {
		return apiclient.User{}, f.registerErr
	}
	return apiclient.User{ID: 1, Username: req.Username}, nil
}

func (f *fakeAPI) Me(context.Context) (apiclient.User, error) {
	if f.meErr != nil {
		return apiclient.User{}, f.meErr
	}
	if f.sess.Token() != f.token {
		return apiclient.User{}, &apiclient.APIError{Status: 401, Detail: "Could not validate credentials"}
	}
	return apiclient.User{ID: 1, Username: "alice"}, nil
}

func makeToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": "alice"}
	if !exp.IsZero() {
		claims["exp"] = exp.Unix()
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func newTestSession(t *testing.T, token string) (*Session, *memStore, *fakeAPI) {
	store := newMemStore()
	api := &fakeAPI{token: token}
	s := New(store, api, zerolog.Nop())
	api.sess = s
	return s, store, api
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	got, err := TokenExpiry(makeToken(t, exp))
	if err != nil || !got.Equal(exp) {
		t.Fatalf("TokenExpiry = %v, %v", got, err)
	}
	if got, err := TokenExpiry(makeToken(t, time.Time{})); err != nil || !got.IsZero() {
		t.Fatalf("no exp = %v, %v", got, err)
	}
	if _, err := TokenExpiry("not-a-jwt"); err == nil {
		t.Fatal("expected decode error")
	}
	if err := CheckToken(makeToken(t, time.Now().Add(-time.Minute)), time.Now()); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestRestoreWithoutToken(t *testing.T) {
	s, _, _ := newTestSession(t, "")
	if err := s.Restore(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.IsAuthenticated() || s.Token() != "" {
		t.Fatal("should be logged out")
	}
}

func TestRestoreValidToken(t *testing.T) {
	tok := makeToken(t, time.Now().Add(time.Hour))
	s, store, _ := newTestSession(t, tok)
	store.data[KeyAccessToken] = tok

	if err := s.Restore(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !s.IsAuthenticated() || s.User().Username != "alice" || s.Token() != tok {
		t.Fatal("expected restored session")
	}
}

func TestRestoreExpiredTokenLogsOut(t *testing.T) {
	tok := makeToken(t, time.Now().Add(-time.Hour))
	s, store, _ := newTestSession(t, tok)
	store.data[KeyAccessToken] = tok

	if err := s.Restore(context.Background()); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if _, ok := store.data[KeyAccessToken]; ok {
		t.Fatal("expired token must be removed")
	}
	if s.IsAuthenticated() {
		t.Fatal("should be logged out")
	}
}

func TestRestoreGarbageTokenLogsOut(t *testing.T) {
	s, store, _ := newTestSession(t, "")
	store.data[KeyAccessToken] = "garbage"
	if err := s.Restore(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := store.data[KeyAccessToken]; ok {
		t.Fatal("garbage token must be removed")
	}
}

func TestRestoreRejectedByBackend(t *testing.T) {
	tok := makeToken(t, time.Now().Add(time.Hour))
	s, store, api := newTestSession(t, tok)
	store.data[KeyAccessToken] = tok
	api.meErr = &apiclient.APIError{Status: 401}

	if err := s.Restore(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if s.Token() != "" {
		t.Fatal("token must be cleared")
	}
}

func TestLoginPersistsToken(t *testing.T) {
	tok := makeToken(t, time.Now().Add(time.Hour))
	s, store, _ := newTestSession(t, tok)

	u, err := s.Login(context.Background(), "alice", "password1")
	if err != nil || u.Username != "alice" {
		t.Fatalf("Login = %+v, %v", u, err)
	}
	if store.data[KeyAccessToken] != tok {
		t.Fatal("token not persisted")
	}

	s.Logout(context.Background())
	if _, ok := store.data[KeyAccessToken]; ok || s.IsAuthenticated() {
		t.Fatal("logout must clear token and user")
	}
}

func TestLoginErrorMessages(t *testing.T) {
	s, _, api := newTestSession(t, "x")
	api.loginErr = &apiclient.APIError{Status: 401, Detail: "Incorrect username or password"}
	_, err := s.Login(context.Background(), "alice", "bad")
	var authErr *AuthError
	if !errors.As(err, &authErr) || authErr.Message != "Incorrect username or password" {
		t.Fatalf("err = %v", err)
	}

	api.loginErr = errors.New("connection refused")
	_, err = s.Login(context.Background(), "alice", "bad")
	if err.Error() != "Login failed. Please check your credentials." {
		t.Fatalf("err = %q", err.Error())
	}
}

func TestRegisterThenLogin(t *testing.T) {
	tok := makeToken(t, time.Now().Add(time.Hour))
	s, store, api := newTestSession(t, tok)
	req := apiclient.RegisterRequest{Email: "a@b.co", Username: "alice", Password: "password1"}

	if _, err := s.Register(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if len(api.registered) != 1 || store.data[KeyAccessToken] != tok {
		t.Fatal("register must be followed by login")
	}
}

func TestRegisterErrorMessages(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&apiclient.APIError{Status: 400, Detail: "Email already registered"}, "Email already registered"},
		{&apiclient.APIError{Status: 400}, "Invalid registration data. Please check your input."},
		{&apiclient.APIError{Status: 422}, "Validation error. Please check all fields are correctly filled."},
		{&apiclient.APIError{Status: 500}, "Registration failed. Please try again."},
		{errors.New("dial tcp: refused"), "Registration failed. Please try again."},
	}
	for _, c := range cases {
		s, _, api := newTestSession(t, "x")
		api.registerErr = c.err
		_, err := s.Register(context.Background(), apiclient.RegisterRequest{Username: "alice"})
		if err == nil || err.Error() != c.want {
			t.Errorf("Register(%v) = %v, want %q", c.err, err, c.want)
		}
	}
}

func TestTheme(t *testing.T) {
	s, store, _ := newTestSession(t, "")
	ctx := context.Background()
	if s.Theme(ctx) != ThemeLight {
		t.Fatal("default theme must be light")
	}
	mode, err := s.ToggleTheme(ctx)
	if err != nil || mode != ThemeDark || store.data[KeyThemeMode] != "dark" {
		t.Fatalf("ToggleTheme = %q, %v", mode, err)
	}
	if err := s.SetTheme(ctx, "blue"); err == nil {
		t.Fatal("expected error for unknown theme")
	}
}

func TestValidateRegistration(t *testing.T) {
	ok := apiclient.RegisterRequest{Email: "a@b.co", Username: "al-ice_1", Password: "password1"}
	if errs := ValidateRegistration(ok, "password1"); len(errs) != 0 {
		t.Fatalf("errs = %v", errs)
	}
	bad := apiclient.RegisterRequest{Email: "nope", Username: "a!", Password: "short"}
	errs := ValidateRegistration(bad, "other")
	want := map[string]string{
		"username":        "Username must be at least 3 characters",
		"email":           "Email is invalid",
		"password":        "Password must be at least 8 characters",
		"confirmPassword": "Passwords do not match",
	}
	for k, v := range want {
		if errs[k] != v {
			t.Errorf("%s = %q, want %q", k, errs[k], v)
		}
	}
	if errs := ValidateRegistration(apiclient.RegisterRequest{Email: "a@b.co", Username: "bad name", Password: "password1"}, "password1"); errs["username"] == "" {
		t.Fatal("expected username pattern error")
	}
}
