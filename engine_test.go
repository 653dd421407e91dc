package authplane

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/mwheeler712/authplane/password"
	"github.com/redis/go-redis/v9"
)

func testConfig() Config {
	cfg := defaultConfig()
	cfg.JWT.Secret = []byte("test-secret-0123456789abcdef0123")
	cfg.JWT.AccessTTL = 15 * time.Minute
	cfg.JWT.RefreshTTL = 24 * time.Hour
	return cfg
}

// newTestHasher uses the cheapest bcrypt cost so credential tests stay fast.
func newTestHasher(t *testing.T) password.Hasher {
	t.Helper()

	hasher, err := password.NewBcrypt(password.Config{Cost: 4})
	if err != nil {
		t.Fatalf("NewBcrypt failed: %v", err)
	}
	return hasher
}

type mockUserProvider struct {
	mu         sync.Mutex
	users      map[string]*UserRecord
	byUsername map[string]string
	byEmail    map[string]string
	nextID     int
}

func newMockUserProvider() *mockUserProvider {
	return &mockUserProvider{
		users:      make(map[string]*UserRecord),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
	}
}

func (m *mockUserProvider) add(user UserRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := user
	m.users[user.ID] = &copied
	m.byUsername[user.Username] = user.ID
	if user.Email != "" {
		m.byEmail[user.Email] = user.ID
	}
}

func (m *mockUserProvider) GetByID(_ context.Context, id string) (*UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (m *mockUserProvider) GetByUsername(_ context.Context, username string) (*UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byUsername[username]
	if !ok {
		return nil, nil
	}
	copied := *m.users[id]
	return &copied, nil
}

func (m *mockUserProvider) GetByEmail(_ context.Context, email string) (*UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byEmail[email]
	if !ok {
		return nil, nil
	}
	copied := *m.users[id]
	return &copied, nil
}

func (m *mockUserProvider) CreateOne(_ context.Context, in CreateUserInput) (*UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	user := &UserRecord{
		ID:           "u" + strconv.Itoa(m.nextID),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
	}
	m.users[user.ID] = user
	m.byUsername[user.Username] = user.ID
	if user.Email != "" {
		m.byEmail[user.Email] = user.ID
	}

	copied := *user
	return &copied, nil
}

func (m *mockUserProvider) UpdatePasswordHash(_ context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return nil
	}
	user.PasswordHash = passwordHash
	return nil
}

type engineOption func(*Builder)

func withProvider(up UserProvider) engineOption {
	return func(b *Builder) { b.WithUserProvider(up) }
}

func withSink(sink AuditSink) engineOption {
	return func(b *Builder) { b.WithAuditSink(sink) }
}

func newTestEngine(t *testing.T, cfg Config, opts ...engineOption) (*Engine, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	builder := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithPasswordHasher(newTestHasher(t))
	for _, opt := range opts {
		opt(builder)
	}

	engine, err := builder.Build()
	if err != nil {
		_ = rdb.Close()
		mr.Close()
		t.Fatalf("Build failed: %v", err)
	}

	return engine, mr, func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	}
}

func newPermissiveEngine(t *testing.T, cfg Config, opts ...engineOption) (*Engine, func()) {
	t.Helper()

	cfg.Enforcement = ModePermissive

	builder := New().
		WithConfig(cfg).
		WithPasswordHasher(newTestHasher(t))
	for _, opt := range opts {
		opt(builder)
	}

	engine, err := builder.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	return engine, func() { engine.Close() }
}

func seedUser(t *testing.T, up *mockUserProvider, hasher password.Hasher, id, username, email, plaintext string) {
	t.Helper()

	hash, err := hasher.Hash(plaintext)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	up.add(UserRecord{ID: id, Username: username, Email: email, PasswordHash: hash})
}
