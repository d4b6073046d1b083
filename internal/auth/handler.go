package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/redforge/authsvc/internal/httputil"
	"github.com/redforge/authsvc/internal/logging"
	"github.com/redforge/authsvc/internal/metrics"
	"github.com/redforge/authsvc/internal/user"
)

// RateLimiter is the throttling interface consulted before credential
// operations.
type RateLimiter interface {
	Allow(ctx context.Context, ip, purpose string) (bool, error)
}

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service     *Service
	rateLimiter RateLimiter
	recorder    metrics.Recorder
	logger      *logging.Logger
}

func NewHandler(service *Service, rateLimiter RateLimiter, recorder metrics.Recorder, logger *logging.Logger) *Handler {
	return &Handler{
		service:     service,
		rateLimiter: rateLimiter,
		recorder:    recorder,
		logger:      logger,
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Role      string `json:"role,omitempty"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the credential pair plus the sanitized user.
type LoginResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type"`
	ExpiresIn    int64         `json:"expires_in"`
	User         user.Response `json:"user"`
}

// RefreshRequest represents the token refresh request body
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshResponse carries the reissued access token.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if !h.allow(w, r, "register", h.recorder.RecordRegistration) {
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email, "username": req.Username})

	newUser, err := h.service.Register(r.Context(), RegisterParams{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      user.Role(req.Role),
	})
	if err != nil {
		h.recorder.RecordRegistration(metrics.ResultFailure)
		switch {
		case errors.Is(err, user.ErrDuplicateEmail):
			logger.Warn("registration failed: email already registered")
			respondError(w, "email already registered", httputil.CodeEmailExists, http.StatusConflict)
		case errors.Is(err, user.ErrDuplicateUsername):
			logger.Warn("registration failed: username already taken")
			respondError(w, "username already taken", httputil.CodeUsernameExists, http.StatusConflict)
		case errors.Is(err, ErrWeakPassword):
			logger.Warn("registration failed: weak password")
			respondError(w, err.Error(), httputil.CodeWeakPassword, http.StatusBadRequest)
		case errors.Is(err, ErrEmailRequired),
			errors.Is(err, ErrUsernameRequired),
			errors.Is(err, ErrInvalidEmailFormat),
			errors.Is(err, ErrInvalidRole):
			logger.Warn("registration failed: validation error", "error", err.Error())
			respondError(w, err.Error(), httputil.CodeValidationError, http.StatusBadRequest)
		default:
			logger.Error("registration failed: internal error", "error", err.Error())
			respondError(w, "failed to register user", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	h.recorder.RecordRegistration(metrics.ResultSuccess)
	logger.Info("user registered successfully", "user_id", newUser.ID)

	respondJSON(w, user.NewResponse(newUser), http.StatusCreated)
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if !h.allow(w, r, "login", h.recorder.RecordLogin) {
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	tokens, loggedIn, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.recorder.RecordLogin(metrics.ResultFailure)
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			logger.Warn("login failed: invalid credentials")
			respondError(w, "incorrect email or password", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
		case errors.Is(err, ErrInactiveAccount):
			logger.Warn("login failed: inactive account")
			respondError(w, "account is inactive", httputil.CodeInactiveAccount, http.StatusBadRequest)
		default:
			logger.Error("login failed: internal error", "error", err.Error())
			respondError(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	h.recorder.RecordLogin(metrics.ResultSuccess)
	logger.Info("user logged in successfully", "user_id", loggedIn.ID)

	respondJSON(w, LoginResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		TokenType:    tokens.TokenType,
		ExpiresIn:    tokens.ExpiresIn,
		User:         user.NewResponse(loggedIn),
	}, http.StatusOK)
}

// Refresh handles POST /auth/refresh.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid refresh request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	refreshToken := strings.TrimSpace(req.RefreshToken)
	if refreshToken == "" {
		logger.Warn("refresh token missing")
		respondError(w, "refresh token required", httputil.CodeRefreshTokenRequired, http.StatusBadRequest)
		return
	}

	tokens, err := h.service.RefreshAccessToken(r.Context(), refreshToken)
	if err != nil {
		h.recorder.RecordRefresh(metrics.ResultFailure)
		if errors.Is(err, ErrInvalidToken) {
			logger.Warn("token refresh failed: invalid refresh token")
			respondError(w, "invalid refresh token", httputil.CodeInvalidRefreshToken, http.StatusUnauthorized)
			return
		}
		logger.Error("token refresh failed: internal error", "error", err.Error())
		respondError(w, "failed to refresh token", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	h.recorder.RecordRefresh(metrics.ResultSuccess)
	logger.Info("access token refreshed successfully")

	respondJSON(w, RefreshResponse{
		AccessToken: tokens.AccessToken,
		TokenType:   tokens.TokenType,
		ExpiresIn:   tokens.ExpiresIn,
	}, http.StatusOK)
}

// Logout handles POST /auth/logout. Tokens are stateless, so there is
// nothing to revoke; the endpoint exists for client symmetry.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	logger.Info("user logged out")

	respondJSON(w, map[string]string{"message": "successfully logged out"}, http.StatusOK)
}

// allow consults the rate limiter for the client IP. Limiter errors are
// logged but never block the request.
func (h *Handler) allow(w http.ResponseWriter, r *http.Request, purpose string, record func(result string)) bool {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	ok, err := h.rateLimiter.Allow(r.Context(), ip, purpose)
	if err != nil {
		logger.Error("failed to check rate limit", "error", err.Error())
		return true
	}
	if !ok {
		record(metrics.ResultRejected)
		logger.Warn("rate limit exceeded", "ip", ip, "purpose", purpose)
		respondError(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return false
	}
	return true
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data any, statusCode int) {
	httputil.RespondJSON(w, data, statusCode)
}

// respondError sends an error response with a machine-readable code
func respondError(w http.ResponseWriter, message string, code string, statusCode int) {
	httputil.RespondErrorWithCode(w, message, code, statusCode)
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs, take the first one
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return strings.TrimSpace(xri)
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
