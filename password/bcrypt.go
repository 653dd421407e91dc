package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Hasher is the credential hashing capability the engine depends on. Verify
// must run in time independent of whether the hash matches.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) bool
}

// Config holds bcrypt parameters. A zero Cost uses bcrypt's default.
type Config struct {
	Cost int
}

// Bcrypt hashes credentials with bcrypt. Safe for concurrent use.
type Bcrypt struct {
	cost int
}

// NewBcrypt validates the cost and returns a Bcrypt hasher.
func NewBcrypt(cfg Config) (*Bcrypt, error) {
	cost := cfg.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, errors.New("bcrypt cost out of range")
	}
	return &Bcrypt{cost: cost}, nil
}

func (b *Bcrypt) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether password matches encodedHash. Malformed hashes
// verify as false; bcrypt's comparison is constant-time over the digest.
func (b *Bcrypt) Verify(password, encodedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password)) == nil
}
