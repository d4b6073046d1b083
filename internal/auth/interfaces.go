package auth

// TokenVerifier is the subset of JWTService needed by the middleware.
// Splitting it out keeps the guard testable without a full service.
type TokenVerifier interface {
	VerifyToken(tokenStr, wantType string) (*TokenClaims, error)
}
