package flows

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ValidateFailureKind classifies why a validation flow rejected a token.
// The engine maps kinds onto its public sentinel errors.
type ValidateFailureKind uint8

const (
	ValidateOK ValidateFailureKind = iota
	ValidateFailInvalid
	ValidateFailExpired
	ValidateFailInvalidClaims
	ValidateFailRevoked
	ValidateFailPrincipalNotFound
)

// TokenInfo is the flow-local view of a parsed token. HasIssuedAt and
// HasExpiry distinguish an absent claim from the zero time.
type TokenInfo struct {
	Subject     string
	JTI         string
	TokenType   string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	HasIssuedAt bool
	HasExpiry   bool
}

// ValidateDeps captures validation dependencies for one expected token type.
type ValidateDeps struct {
	ExpectedType string

	Now   func() time.Time
	Parse func(token string) (*TokenInfo, error)

	IsRevoked       func(ctx context.Context, jti string) bool
	UserRevokedAt   func(ctx context.Context, subject string) (int64, bool)
	LookupPrincipal func(ctx context.Context, subject string) (*PrincipalRecord, error)
}

// ValidateResult is the flow-local validation outcome. Kind is ValidateOK on
// success; Cause carries the underlying parse error when one exists.
type ValidateResult struct {
	Kind      ValidateFailureKind
	Token     *TokenInfo
	Principal *PrincipalRecord
	Cause     error
}

// RunValidate executes the full validation pipeline: parse and verify the
// signature, require subject and expiry claims, match the expected token
// type, re-check expiry against the flow clock, consult the jti blacklist,
// then the per-subject revocation marker, and finally resolve the principal.
// Checks run cheapest-first so malformed tokens never touch the stores.
func RunValidate(ctx context.Context, token string, deps ValidateDeps) ValidateResult {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Parse == nil {
		return ValidateResult{Kind: ValidateFailInvalid}
	}

	info, err := deps.Parse(token)
	if err != nil {
		kind := ValidateFailInvalid
		if errors.Is(err, jwt.ErrTokenExpired) {
			kind = ValidateFailExpired
		}
		return ValidateResult{Kind: kind, Cause: err}
	}

	// A token without its required claims is no better than a malformed one.
	if info.Subject == "" || !info.HasExpiry {
		return ValidateResult{Kind: ValidateFailInvalid, Token: info}
	}
	if deps.ExpectedType != "" && info.TokenType != deps.ExpectedType {
		return ValidateResult{Kind: ValidateFailInvalidClaims, Token: info}
	}
	if !info.ExpiresAt.After(deps.Now()) {
		return ValidateResult{Kind: ValidateFailExpired, Token: info}
	}

	if deps.IsRevoked != nil && info.JTI != "" && deps.IsRevoked(ctx, info.JTI) {
		return ValidateResult{Kind: ValidateFailRevoked, Token: info}
	}

	// A mass-revocation marker invalidates every token minted strictly
	// before it. Tokens issued in the same second as the marker survive.
	if deps.UserRevokedAt != nil && info.HasIssuedAt {
		if markedAt, ok := deps.UserRevokedAt(ctx, info.Subject); ok && info.IssuedAt.Unix() < markedAt {
			return ValidateResult{Kind: ValidateFailRevoked, Token: info}
		}
	}

	if deps.LookupPrincipal == nil {
		return ValidateResult{Kind: ValidateOK, Token: info}
	}
	principal, err := deps.LookupPrincipal(ctx, info.Subject)
	if err != nil || principal == nil {
		return ValidateResult{Kind: ValidateFailPrincipalNotFound, Token: info, Cause: err}
	}

	return ValidateResult{Kind: ValidateOK, Token: info, Principal: principal}
}
