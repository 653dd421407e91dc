package authplane

import "context"

// UserRecord is the engine's view of a stored principal. PasswordHash is the
// encoded hash in the hasher's own format.
type UserRecord struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
}

// CreateUserInput carries the fields Signup persists through the provider.
type CreateUserInput struct {
	Username     string
	Email        string
	PasswordHash string
}

// UserProvider is the host-supplied principal store. Lookups return
// (nil, nil) for "not found"; a non-nil error means the store itself failed.
type UserProvider interface {
	GetByID(ctx context.Context, id string) (*UserRecord, error)
	GetByUsername(ctx context.Context, username string) (*UserRecord, error)
	GetByEmail(ctx context.Context, email string) (*UserRecord, error)
	CreateOne(ctx context.Context, in CreateUserInput) (*UserRecord, error)
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
}

// TokenPair is an access/refresh pair minted for one subject.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	Subject      string
}

// RateLimitDecision is the quota snapshot returned alongside every rate
// limit answer. ResetTime is a unix timestamp in seconds.
type RateLimitDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetTime int64
	Key       string
}
