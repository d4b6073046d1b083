package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/redforge/authsvc/internal/httputil"
	"github.com/redforge/authsvc/internal/user"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const (
	UserIDContextKey    ContextKey = "user_id"
	UserEmailContextKey ContextKey = "user_email"
)

// Middleware guards protected routes. RequireAuth only accepts access
// tokens; a refresh token presented as a bearer credential is rejected.
type Middleware struct {
	tokens TokenVerifier
	store  user.Store
}

func NewMiddleware(tokens TokenVerifier, store user.Store) *Middleware {
	return &Middleware{tokens: tokens, store: store}
}

// RequireAuth validates the bearer access token and puts the caller's
// user id and email into the request context.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.RespondErrorWithCode(w, "invalid authorization header format", httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
			return
		}

		claims, err := m.tokens.VerifyToken(parts[1], TokenTypeAccess)
		if err != nil {
			if errors.Is(err, ErrExpiredToken) {
				httputil.RespondErrorWithCode(w, "token has expired", httputil.CodeTokenExpired, http.StatusUnauthorized)
				return
			}
			httputil.RespondErrorWithCode(w, "could not validate credentials", httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			httputil.RespondErrorWithCode(w, "could not validate credentials", httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDContextKey, userID)
		ctx = context.WithValue(ctx, UserEmailContextKey, claims.Subject)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole loads the authenticated user and rejects callers whose role
// is not in the allowed set or whose account is inactive. Must be mounted
// after RequireAuth.
func (m *Middleware) RequireRole(roles ...user.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserIDFromContext(r.Context())
			if !ok {
				httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
				return
			}

			current, err := m.store.FindByID(r.Context(), userID)
			if err != nil {
				httputil.RespondErrorWithCode(w, "could not validate credentials", httputil.CodeInvalidToken, http.StatusUnauthorized)
				return
			}

			if !current.IsActive {
				httputil.RespondErrorWithCode(w, "account is inactive", httputil.CodeInactiveAccount, http.StatusForbidden)
				return
			}

			for _, role := range roles {
				if current.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			httputil.RespondErrorWithCode(w, "insufficient permissions", httputil.CodeForbidden, http.StatusForbidden)
		})
	}
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDContextKey).(uuid.UUID)
	return userID, ok
}

// GetUserEmailFromContext extracts the user email from the request context
func GetUserEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(UserEmailContextKey).(string)
	return email, ok
}
