package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType discriminates the two token kinds the manager can mint.
type TokenType string

const (
	TypeAccess  TokenType = "access"
	TypeRefresh TokenType = "refresh"
)

var (
	// ErrEmptySubject is returned when a token is requested for an empty
	// subject identity.
	ErrEmptySubject = errors.New("token subject must not be empty")
)

// Config holds signing material and token lifetimes. Misconfiguration is
// rejected by NewManager; it never surfaces lazily at issue time.
type Config struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Secret     []byte
	Issuer     string
	Leeway     time.Duration
}

// Claims is the full claim set carried by every issued token. The jti lives
// in RegisteredClaims.ID and is the key used for targeted revocation.
type Claims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// Manager signs and verifies tokens with a single shared HS256 secret.
// It is immutable after construction and safe for concurrent use.
type Manager struct {
	config Config
}

// NewManager validates cfg and returns a token manager. A missing secret or
// non-positive TTL is a hard configuration error.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL <= 0 {
		return nil, errors.New("invalid access TTL configuration")
	}
	if cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid refresh TTL configuration")
	}
	if len(cfg.Secret) == 0 {
		return nil, errors.New("hs256 requires signing secret")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	return &Manager{config: cfg}, nil
}

// IssueAccess mints a signed access token for subject and returns the token
// string together with its jti.
func (m *Manager) IssueAccess(subject string) (string, string, error) {
	return m.issue(subject, TypeAccess, m.config.AccessTTL)
}

// IssueRefresh mints a signed refresh token for subject and returns the token
// string together with its jti.
func (m *Manager) IssueRefresh(subject string) (string, string, error) {
	return m.issue(subject, TypeRefresh, m.config.RefreshTTL)
}

func (m *Manager) issue(subject string, tokenType TokenType, ttl time.Duration) (string, string, error) {
	if subject == "" {
		return "", "", ErrEmptySubject
	}

	now := time.Now()
	jti := uuid.NewString()

	claims := Claims{
		TokenType: string(tokenType),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        jti,
		},
	}
	if m.config.Issuer != "" {
		claims.Issuer = m.config.Issuer
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(m.config.Secret)
	if err != nil {
		return "", "", err
	}

	return signed, jti, nil
}

// Parse verifies the signature and the standard claims of tokenStr and
// returns the decoded claim set. Expiry and signature failures come back as
// the upstream jwt sentinel errors so callers can classify them.
func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return m.config.Secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}

// AccessTTL reports the configured access token lifetime.
func (m *Manager) AccessTTL() time.Duration {
	return m.config.AccessTTL
}

// RefreshTTL reports the configured refresh token lifetime.
func (m *Manager) RefreshTTL() time.Duration {
	return m.config.RefreshTTL
}

// MaxTTL reports the longest lifetime any token issued by this manager can
// have. Revocation markers use it to bound their own TTLs.
func (m *Manager) MaxTTL() time.Duration {
	if m.config.RefreshTTL > m.config.AccessTTL {
		return m.config.RefreshTTL
	}
	return m.config.AccessTTL
}
