package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/redforge/authsvc/internal/logging"
	"github.com/redforge/authsvc/internal/user"
)

var (
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrInactiveAccount    = errors.New("account is inactive")
	ErrWeakPassword       = errors.New("password does not meet requirements")
	ErrEmailRequired      = errors.New("email is required")
	ErrUsernameRequired   = errors.New("username is required")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrInvalidRole        = errors.New("unknown role")
)

// AuthTokens is the credential pair returned at login. At refresh only the
// access token is populated.
type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// RegisterParams carries the registration input.
type RegisterParams struct {
	Email     string
	Username  string
	Password  string
	FirstName string
	LastName  string
	Role      user.Role
}

// Service handles registration, credential verification and the token
// lifecycle. It holds no mutable state of its own; the user store is the
// only shared resource.
type Service struct {
	store  user.Store
	tokens *JWTService
	logger *logging.Logger
}

func NewService(store user.Store, tokens *JWTService, logger *logging.Logger) *Service {
	return &Service{
		store:  store,
		tokens: tokens,
		logger: logger,
	}
}

// Register creates a new user account. The password must satisfy the
// policy (length >= 8, an uppercase letter, a lowercase letter and a
// digit). The role defaults to "user" when none is given; active is true
// and verified false on every new account.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*user.User, error) {
	if params.Email == "" {
		return nil, ErrEmailRequired
	}
	if len(params.Email) > 254 {
		return nil, ErrInvalidEmailFormat
	}
	if _, err := mail.ParseAddress(params.Email); err != nil {
		return nil, ErrInvalidEmailFormat
	}
	if params.Username == "" {
		return nil, ErrUsernameRequired
	}
	if err := validatePasswordPolicy(params.Password); err != nil {
		return nil, err
	}

	role := params.Role
	if role == "" {
		role = user.RoleUser
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, params.Role)
	}

	// Pre-checks give friendly errors early; the unique constraints at the
	// store boundary remain the authority under concurrent registration.
	if _, err := s.store.FindByEmail(ctx, params.Email); err == nil {
		return nil, user.ErrDuplicateEmail
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if _, err := s.store.FindByUsername(ctx, params.Username); err == nil {
		return nil, user.ErrDuplicateUsername
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	passwordHash, err := HashPassword(params.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.store.Insert(ctx, &user.User{
		ID:           uuid.New(),
		Email:        params.Email,
		Username:     params.Username,
		PasswordHash: passwordHash,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Role:         role,
		IsActive:     true,
		IsVerified:   false,
	})
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) || errors.Is(err, user.ErrDuplicateUsername) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return newUser, nil
}

// Login verifies credentials and issues an access/refresh token pair.
// Unknown email and wrong password yield the same ErrInvalidCredentials
// so callers cannot tell which field was wrong.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthTokens, *user.User, error) {
	if email == "" || password == "" {
		return nil, nil, ErrInvalidCredentials
	}

	existing, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !VerifyPassword(existing.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}

	if !existing.IsActive {
		return nil, nil, ErrInactiveAccount
	}

	accessToken, err := s.tokens.CreateAccessToken(existing.ID, existing.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create access token: %w", err)
	}

	refreshToken, err := s.tokens.CreateRefreshToken(existing.ID, existing.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create refresh token: %w", err)
	}

	// Best-effort: a failed stamp must not fail the login.
	if err := s.store.UpdateLastLogin(ctx, existing.ID); err != nil {
		s.logger.Warn("failed to update last login", "user_id", existing.ID, "error", err)
	} else {
		now := time.Now()
		existing.LastLoginAt = &now
	}

	return &AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, existing, nil
}

// RefreshAccessToken issues a fresh access token for a valid refresh
// token. Every failure mode - bad signature, expiry, malformed token,
// wrong token type, unknown or inactive subject - collapses into
// ErrInvalidToken so the response carries no hint of why.
//
// The refresh token itself is not rotated or invalidated; it stays usable
// until natural expiry.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	claims, err := s.tokens.VerifyToken(refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, ErrInvalidToken
	}

	existing, err := s.store.FindByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !existing.IsActive {
		return nil, ErrInvalidToken
	}

	accessToken, err := s.tokens.CreateAccessToken(existing.ID, existing.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	return &AuthTokens{
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}
