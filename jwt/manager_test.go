package jwt

import (
	"errors"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	m, err := NewManager(Config{
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
		Secret:     []byte("test-secret-0123456789abcdef0123"),
		Issuer:     "authplane-test",
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestIssueAccessRoundtrip(t *testing.T) {
	m := newTestManager(t)

	token, jti, err := m.IssueAccess("user-1")
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}
	if token == "" || jti == "" {
		t.Fatalf("expected non-empty token and jti, got %q %q", token, jti)
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("subject = %q, want user-1", claims.Subject)
	}
	if claims.TokenType != string(TypeAccess) {
		t.Fatalf("token type = %q, want %q", claims.TokenType, TypeAccess)
	}
	if claims.ID != jti {
		t.Fatalf("jti = %q, want %q", claims.ID, jti)
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		t.Fatal("expected exp and iat claims")
	}
}

func TestIssueRefreshCarriesRefreshType(t *testing.T) {
	m := newTestManager(t)

	token, _, err := m.IssueRefresh("user-1")
	if err != nil {
		t.Fatalf("IssueRefresh failed: %v", err)
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.TokenType != string(TypeRefresh) {
		t.Fatalf("token type = %q, want %q", claims.TokenType, TypeRefresh)
	}
}

func TestIssueEmptySubject(t *testing.T) {
	m := newTestManager(t)

	if _, _, err := m.IssueAccess(""); !errors.Is(err, ErrEmptySubject) {
		t.Fatalf("expected ErrEmptySubject, got %v", err)
	}
	if _, _, err := m.IssueRefresh(""); !errors.Is(err, ErrEmptySubject) {
		t.Fatalf("expected ErrEmptySubject, got %v", err)
	}
}

func TestJTIUniquePerToken(t *testing.T) {
	m := newTestManager(t)

	seen := make(map[string]struct{}, 32)
	for i := 0; i < 32; i++ {
		_, jti, err := m.IssueAccess("user-1")
		if err != nil {
			t.Fatalf("IssueAccess failed: %v", err)
		}
		if _, dup := seen[jti]; dup {
			t.Fatalf("duplicate jti %q", jti)
		}
		seen[jti] = struct{}{}
	}
}

func TestParseExpiredToken(t *testing.T) {
	m, err := NewManager(Config{
		AccessTTL:  time.Nanosecond,
		RefreshTTL: 24 * time.Hour,
		Secret:     []byte("test-secret-0123456789abcdef0123"),
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	token, _, err := m.IssueAccess("user-1")
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	if _, err := m.Parse(token); !errors.Is(err, jwtlib.ErrTokenExpired) {
		t.Fatalf("expected jwt.ErrTokenExpired, got %v", err)
	}
}

func TestParseWrongSecret(t *testing.T) {
	m := newTestManager(t)

	token, _, err := m.IssueAccess("user-1")
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	other, err := NewManager(Config{
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
		Secret:     []byte("a-completely-different-secret!!!"),
		Issuer:     "authplane-test",
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if _, err := other.Parse(token); err == nil {
		t.Fatal("expected signature verification failure")
	}
}

func TestParseGarbage(t *testing.T) {
	m := newTestManager(t)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := m.Parse(token); err == nil {
			t.Fatalf("expected parse failure for %q", token)
		}
	}
}

func TestNewManagerConfigValidation(t *testing.T) {
	secret := []byte("test-secret-0123456789abcdef0123")

	cases := []struct {
		name string
		cfg  Config
	}{
		{"zero access ttl", Config{RefreshTTL: time.Hour, Secret: secret}},
		{"zero refresh ttl", Config{AccessTTL: time.Hour, Secret: secret}},
		{"missing secret", Config{AccessTTL: time.Hour, RefreshTTL: time.Hour}},
		{"negative leeway", Config{AccessTTL: time.Hour, RefreshTTL: time.Hour, Secret: secret, Leeway: -time.Second}},
		{"excessive leeway", Config{AccessTTL: time.Hour, RefreshTTL: time.Hour, Secret: secret, Leeway: 10 * time.Minute}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewManager(tc.cfg); err == nil {
				t.Fatal("expected configuration error")
			}
		})
	}
}

func TestMaxTTL(t *testing.T) {
	m := newTestManager(t)

	if got := m.MaxTTL(); got != 24*time.Hour {
		t.Fatalf("MaxTTL = %s, want 24h", got)
	}
	if m.AccessTTL() != 15*time.Minute || m.RefreshTTL() != 24*time.Hour {
		t.Fatal("TTL accessors do not match configuration")
	}
}
