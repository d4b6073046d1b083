package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redforge/authsvc/internal/logging"
	"github.com/redforge/authsvc/internal/metrics"
)

// stubLimiter lets handler tests flip between allowing and rejecting.
type stubLimiter struct {
	allow bool
}

func (s *stubLimiter) Allow(context.Context, string, string) (bool, error) {
	return s.allow, nil
}

func newTestHandler(t *testing.T) (*Handler, *Service, *stubLimiter) {
	t.Helper()

	svc, _, _ := newTestService(t)
	limiter := &stubLimiter{allow: true}
	recorder := metrics.NewCollector(prometheus.NewRegistry())
	h := NewHandler(svc, limiter, recorder, logging.NewLogger(true))
	return h, svc, limiter
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestHandlerRegister_Created(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandler(t)

	w := postJSON(t, h.Register, "/auth/register", RegisterRequest{
		Email:     "a@x.com",
		Username:  "alice",
		Password:  "Passw0rd",
		FirstName: "Alice",
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "a@x.com", body["email"])
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, "user", body["role"])
	assert.NotContains(t, body, "hashed_password")
	assert.NotContains(t, body, "password_hash")
	assert.NotContains(t, body, "is_superuser")
}

func TestHandlerRegister_Conflicts(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandler(t)

	w := postJSON(t, h.Register, "/auth/register", RegisterRequest{Email: "a@x.com", Username: "alice", Password: "Passw0rd"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, h.Register, "/auth/register", RegisterRequest{Email: "a@x.com", Username: "bob", Password: "Passw0rd"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "email_exists")

	w = postJSON(t, h.Register, "/auth/register", RegisterRequest{Email: "b@x.com", Username: "alice", Password: "Passw0rd"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "username_exists")
}

func TestHandlerRegister_WeakPassword(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandler(t)

	w := postJSON(t, h.Register, "/auth/register", RegisterRequest{Email: "a@x.com", Username: "alice", Password: "short1A"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "weak_password")
}

func TestHandlerRegister_InvalidBody(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	h.Register(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlerRegister_RateLimited(t *testing.T) {
	t.Parallel()

	h, _, limiter := newTestHandler(t)
	limiter.allow = false

	w := postJSON(t, h.Register, "/auth/register", RegisterRequest{Email: "a@x.com", Username: "alice", Password: "Passw0rd"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "too_many_requests")
}

func TestHandlerLogin_Success(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandler(t)
	postJSON(t, h.Register, "/auth/register", RegisterRequest{Email: "a@x.com", Username: "alice", Password: "Passw0rd"})

	w := postJSON(t, h.Login, "/auth/login", LoginRequest{Email: "a@x.com", Password: "Passw0rd"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, int64(30*60), resp.ExpiresIn)
	assert.Equal(t, "a@x.com", resp.User.Email)
}

func TestHandlerLogin_IndistinguishableFailures(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandler(t)
	postJSON(t, h.Register, "/auth/register", RegisterRequest{Email: "a@x.com", Username: "alice", Password: "Passw0rd"})

	wrongPassword := postJSON(t, h.Login, "/auth/login", LoginRequest{Email: "a@x.com", Password: "WrongPass1"})
	unknownEmail := postJSON(t, h.Login, "/auth/login", LoginRequest{Email: "nobody@x.com", Password: "Passw0rd"})

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String(),
		"wrong password and unknown email must be indistinguishable")
}

func TestHandlerRefresh_Flow(t *testing.T) {
	t.Parallel()

	h, svc, _ := newTestHandler(t)
	postJSON(t, h.Register, "/auth/register", RegisterRequest{Email: "a@x.com", Username: "alice", Password: "Passw0rd"})

	tokens, _, err := svc.Login(context.Background(), "a@x.com", "Passw0rd")
	require.NoError(t, err)

	// Access token where a refresh token is expected is rejected.
	w := postJSON(t, h.Refresh, "/auth/refresh", RefreshRequest{RefreshToken: tokens.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_refresh_token")

	w = postJSON(t, h.Refresh, "/auth/refresh", RefreshRequest{RefreshToken: tokens.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code)

	var resp RefreshResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(30*60), resp.ExpiresIn)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.NotContains(t, raw, "refresh_token")
}

func TestHandlerRefresh_MissingToken(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandler(t)

	w := postJSON(t, h.Refresh, "/auth/refresh", RefreshRequest{RefreshToken: "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "refresh_token_required")
}

func TestHandlerLogout(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandler(t)

	w := postJSON(t, h.Logout, "/auth/logout", struct{}{})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "successfully logged out")
}
