package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost is the bcrypt work factor used when none is configured.
	DefaultCost = 12
	// DefaultMinLength is the shortest accepted password, in bytes.
	DefaultMinLength = 8

	maxPasswordBytes = 72
	dummyPassword    = "recipeauth-dummy-password"
)

var (
	// ErrTooShort is returned by Hash when the password is below the minimum length.
	ErrTooShort = errors.New("password is too short")
	// ErrTooLong is returned by Hash when the password exceeds bcrypt's 72 byte input limit.
	ErrTooLong = errors.New("password is too long")
	// ErrInvalidCost is returned by NewBcrypt for a cost outside bcrypt's range.
	ErrInvalidCost = errors.New("invalid bcrypt cost")
)

// Config controls hashing cost and the minimum password length.
type Config struct {
	Cost      int
	MinLength int
}

// DefaultConfig returns cost 12 and minimum length 8.
func DefaultConfig() Config {
	return Config{Cost: DefaultCost, MinLength: DefaultMinLength}
}

// Bcrypt hashes and verifies passwords. It holds no mutable state after
// construction and is safe for concurrent use.
type Bcrypt struct {
	config    Config
	dummyHash []byte
}

// NewBcrypt validates cfg and precomputes the hash used by DummyVerify.
func NewBcrypt(cfg Config) (*Bcrypt, error) {
	if cfg.Cost < bcrypt.MinCost || cfg.Cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCost, cfg.Cost)
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultMinLength
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte(dummyPassword), cfg.Cost)
	if err != nil {
		return nil, err
	}

	return &Bcrypt{config: cfg, dummyHash: dummy}, nil
}

// Cost returns the configured work factor.
func (b *Bcrypt) Cost() int {
	return b.config.Cost
}

// Hash returns a bcrypt hash of password at the configured cost.
//
// Password bytes are used exactly as provided (no Unicode normalization).
func (b *Bcrypt) Hash(password string) (string, error) {
	return b.HashWithCost(password, b.config.Cost)
}

// HashWithCost is Hash with an explicit work factor.
func (b *Bcrypt) HashWithCost(password string, cost int) (string, error) {
	if len(password) < b.config.MinLength {
		return "", ErrTooShort
	}
	if len(password) > maxPasswordBytes {
		return "", ErrTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// Verify reports whether password matches hash. Malformed hashes and empty
// input yield false, indistinguishable from a wrong password.
func (b *Bcrypt) Verify(password, hash string) bool {
	if password == "" || hash == "" {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// DummyVerify spends one comparison at the configured cost. Callers use it on
// paths where no stored hash exists so the failure takes as long as a real one.
func (b *Bcrypt) DummyVerify(password string) {
	_ = bcrypt.CompareHashAndPassword(b.dummyHash, []byte(password))
}

// NeedsRehash reports whether hash was produced with a cost below the
// configured one. Unparsable hashes always need a rehash.
func (b *Bcrypt) NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}

	return cost < b.config.Cost
}
