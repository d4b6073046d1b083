package httputil

// Machine-readable error codes attached to error responses.
const (
	CodeInvalidRequestBody   = "invalid_request_body"
	CodeEmailExists          = "email_exists"
	CodeUsernameExists       = "username_exists"
	CodeWeakPassword         = "weak_password"
	CodeValidationError      = "validation_error"
	CodeInvalidCredentials   = "invalid_credentials"
	CodeInactiveAccount      = "inactive_account"
	CodeInvalidRefreshToken  = "invalid_refresh_token"
	CodeRefreshTokenRequired = "refresh_token_required"
	CodeInvalidAuthHeader    = "invalid_auth_header"
	CodeMissingAuth          = "missing_auth"
	CodeTokenExpired         = "token_expired"
	CodeInvalidToken         = "invalid_token"
	CodeForbidden            = "forbidden"
	CodeTooManyRequests      = "too_many_requests"
	CodeInternalError        = "internal_error"
)
