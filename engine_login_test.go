package authplane

import (
	"context"
	"errors"
	"testing"
)

func TestLoginSuccess(t *testing.T) {
	up := newMockUserProvider()
	hasher := newTestHasher(t)
	seedUser(t, up, hasher, "u1", "alice", "alice@example.com", "correct-password")

	engine, _, done := newTestEngine(t, testConfig(), withProvider(up))
	defer done()

	pair, err := engine.Login(context.Background(), "alice", "correct-password")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if pair.Subject != "u1" {
		t.Fatalf("subject = %q, want u1", pair.Subject)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}

	res, err := engine.ValidateAccess(context.Background(), pair.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccess failed: %v", err)
	}
	if res.User == nil || res.User.Username != "alice" {
		t.Fatalf("resolved user = %+v", res.User)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	up := newMockUserProvider()
	hasher := newTestHasher(t)
	seedUser(t, up, hasher, "u1", "alice", "", "correct-password")

	engine, _, done := newTestEngine(t, testConfig(), withProvider(up))
	defer done()

	if _, err := engine.Login(context.Background(), "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginUnknownUserSameError(t *testing.T) {
	up := newMockUserProvider()
	engine, _, done := newTestEngine(t, testConfig(), withProvider(up))
	defer done()

	if _, err := engine.Login(context.Background(), "nobody", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginWithoutProvider(t *testing.T) {
	engine, _, done := newTestEngine(t, testConfig())
	defer done()

	if _, err := engine.Login(context.Background(), "alice", "pw"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
}

func TestSignupCreatesPrincipal(t *testing.T) {
	up := newMockUserProvider()
	engine, _, done := newTestEngine(t, testConfig(), withProvider(up))
	defer done()

	pair, err := engine.Signup(context.Background(), "bob", "bob@example.com", "initial-password")
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if pair.Subject == "" || pair.AccessToken == "" {
		t.Fatalf("pair = %+v", pair)
	}

	// The new credentials log in.
	again, err := engine.Login(context.Background(), "bob", "initial-password")
	if err != nil {
		t.Fatalf("post-signup login failed: %v", err)
	}
	if again.Subject != pair.Subject {
		t.Fatalf("login subject %q != signup subject %q", again.Subject, pair.Subject)
	}
}

func TestSignupDuplicateUsernameAndEmail(t *testing.T) {
	up := newMockUserProvider()
	hasher := newTestHasher(t)
	seedUser(t, up, hasher, "u1", "alice", "alice@example.com", "pw")

	engine, _, done := newTestEngine(t, testConfig(), withProvider(up))
	defer done()

	ctx := context.Background()

	if _, err := engine.Signup(ctx, "alice", "fresh@example.com", "pw"); !errors.Is(err, ErrAccountExists) {
		t.Fatalf("duplicate username: expected ErrAccountExists, got %v", err)
	}
	if _, err := engine.Signup(ctx, "fresh", "alice@example.com", "pw"); !errors.Is(err, ErrAccountExists) {
		t.Fatalf("duplicate email: expected ErrAccountExists, got %v", err)
	}
}

func TestChangePasswordRotatesAndRevokes(t *testing.T) {
	up := newMockUserProvider()
	hasher := newTestHasher(t)
	seedUser(t, up, hasher, "u1", "alice", "", "old-password")

	engine, _, done := newTestEngine(t, testConfig(), withProvider(up))
	defer done()

	ctx := context.Background()

	if err := engine.ChangePassword(ctx, "u1", "old-password", "new-password"); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}

	if _, err := engine.Login(ctx, "alice", "old-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := engine.Login(ctx, "alice", "new-password"); err != nil {
		t.Fatalf("new password login failed: %v", err)
	}

	if _, ok := engine.UserRevocationMarker(ctx, "u1"); !ok {
		t.Fatal("expected a mass-revocation marker after password change")
	}
}

func TestChangePasswordWrongOld(t *testing.T) {
	up := newMockUserProvider()
	hasher := newTestHasher(t)
	seedUser(t, up, hasher, "u1", "alice", "", "old-password")

	engine, _, done := newTestEngine(t, testConfig(), withProvider(up))
	defer done()

	err := engine.ChangePassword(context.Background(), "u1", "wrong", "new-password")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if _, ok := engine.UserRevocationMarker(context.Background(), "u1"); ok {
		t.Fatal("no marker should be written on a failed change")
	}
}

func TestRefreshMintsNewPair(t *testing.T) {
	up := newMockUserProvider()
	hasher := newTestHasher(t)
	seedUser(t, up, hasher, "u1", "alice", "", "pw")

	engine, _, done := newTestEngine(t, testConfig(), withProvider(up))
	defer done()

	ctx := context.Background()

	pair, err := engine.Login(ctx, "alice", "pw")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	refreshed, err := engine.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if refreshed.Subject != "u1" {
		t.Fatalf("refreshed subject = %q", refreshed.Subject)
	}
	if _, err := engine.ValidateAccess(ctx, refreshed.AccessToken); err != nil {
		t.Fatalf("refreshed access token invalid: %v", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	up := newMockUserProvider()
	hasher := newTestHasher(t)
	seedUser(t, up, hasher, "u1", "alice", "", "pw")

	engine, _, done := newTestEngine(t, testConfig(), withProvider(up))
	defer done()

	ctx := context.Background()

	pair, err := engine.Login(ctx, "alice", "pw")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if _, err := engine.Refresh(ctx, pair.AccessToken); !errors.Is(err, ErrTokenInvalidClaims) {
		t.Fatalf("expected ErrTokenInvalidClaims, got %v", err)
	}
}

func TestRefreshRejectsRevokedToken(t *testing.T) {
	up := newMockUserProvider()
	hasher := newTestHasher(t)
	seedUser(t, up, hasher, "u1", "alice", "", "pw")

	engine, _, done := newTestEngine(t, testConfig(), withProvider(up))
	defer done()

	ctx := context.Background()

	pair, err := engine.Login(ctx, "alice", "pw")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := engine.Logout(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if _, err := engine.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked, got %v", err)
	}
}
