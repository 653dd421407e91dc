package authplane

import "errors"

var (
	// ErrTokenInvalid covers malformed tokens, bad signatures, unknown
	// signing algorithms and missing required claims.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired marks a token past its expiry, beyond any leeway.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalidClaims marks a verified token presented as the wrong
	// kind: a refresh token where an access token is expected, or vice versa.
	ErrTokenInvalidClaims = errors.New("invalid token claims")
	// ErrTokenRevoked marks a blacklisted jti or a token overtaken by a
	// mass revocation of its subject.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrPrincipalNotFound means the token verified but its subject no
	// longer resolves through the user provider.
	ErrPrincipalNotFound = errors.New("principal not found")

	// ErrInvalidCredentials is returned for both unknown identity and
	// wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountExists is returned when signup collides on username or
	// email, without saying which.
	ErrAccountExists = errors.New("account already exists")

	// ErrRateLimited marks a request denied by an exhausted window.
	ErrRateLimited = errors.New("rate limited")
	// ErrRateLimitConfig marks a caller bug in limit, window or policy
	// parameters; it is raised before any store call.
	ErrRateLimitConfig = errors.New("invalid rate limit configuration")
	// ErrPrefixRegistered is returned when a rate limit category prefix is
	// registered twice.
	ErrPrefixRegistered = errors.New("rate limit prefix already registered")

	// ErrRedisUnavailable wraps store faults on operations that cannot
	// fail open, such as revocation writes.
	ErrRedisUnavailable = errors.New("redis unavailable")
	// ErrEngineNotReady is returned when a method needs a dependency the
	// builder never provided.
	ErrEngineNotReady = errors.New("engine not initialized")
)
