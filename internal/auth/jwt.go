package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidSignature = errors.New("token signature is invalid")
	ErrExpiredToken     = errors.New("token has expired")
	ErrMalformedToken   = errors.New("token is malformed")
	ErrInvalidToken     = errors.New("invalid token")
)

// Token types carried in the "type" claim. A refresh token must never be
// accepted where an access token is expected, and vice versa.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenClaims is the claim set carried by every token: subject (the
// user's email), user id, token type, issued-at and expiry.
type TokenClaims struct {
	UserID    string `json:"user_id"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// JWTService signs and verifies HMAC tokens. The secret and algorithm are
// fixed at construction and never mutated, so a single instance is safe
// for concurrent use.
type JWTService struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewJWTService creates a token service for the given symmetric secret and
// algorithm identifier. Only the HMAC family (HS256/HS384/HS512) is
// accepted.
func NewJWTService(secret []byte, algorithm string, accessTTL, refreshTTL time.Duration) (*JWTService, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret must not be empty")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token TTLs must be positive")
	}

	method := jwt.GetSigningMethod(strings.ToUpper(algorithm))
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}

	return &JWTService{
		secret:     secret,
		method:     method,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// CreateAccessToken issues a short-lived access token for the user.
func (s *JWTService) CreateAccessToken(userID uuid.UUID, email string) (string, error) {
	return s.createToken(userID, email, TokenTypeAccess, s.accessTTL)
}

// CreateRefreshToken issues a long-lived refresh token for the user.
func (s *JWTService) CreateRefreshToken(userID uuid.UUID, email string) (string, error) {
	return s.createToken(userID, email, TokenTypeRefresh, s.refreshTTL)
}

func (s *JWTService) createToken(userID uuid.UUID, email, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		UserID:    userID.String(),
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(s.method, claims)
	return token.SignedString(s.secret)
}

// VerifyToken validates the signature, expiry and type of a token and
// returns its claims. wantType must be TokenTypeAccess or TokenTypeRefresh;
// a token with a missing or mismatched type claim is rejected with
// ErrInvalidToken even when its signature verifies.
func (s *JWTService) VerifyToken(tokenStr, wantType string) (*TokenClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
	)

	token, err := parser.ParseWithClaims(tokenStr, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrMalformedToken
		}
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	// The type claim is never trusted by absence: a token without one is
	// invalid for any type-constrained use.
	if claims.TokenType == "" || claims.TokenType != wantType {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// AccessTTL returns the configured access token lifetime.
func (s *JWTService) AccessTTL() time.Duration {
	return s.accessTTL
}
