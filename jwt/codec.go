package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind distinguishes access tokens from refresh tokens.
type Kind string

const (
	// KindAccess marks short-lived per-request credentials.
	KindAccess Kind = "access"
	// KindRefresh marks credentials that may only mint new token pairs.
	KindRefresh Kind = "refresh"
)

const (
	// DefaultAccessTTL is the access token lifetime.
	DefaultAccessTTL = 900 * time.Second
	// DefaultRefreshTTL is the refresh token lifetime.
	DefaultRefreshTTL = 604800 * time.Second
	// MinSecretBytes is the shortest accepted HMAC secret.
	MinSecretBytes = 32
)

var (
	// ErrKindMismatch is returned when a token's type claim differs from the expected kind.
	ErrKindMismatch = errors.New("token kind mismatch")
	// ErrMissingClaims is returned when subject, kind or expiry are absent.
	ErrMissingClaims = errors.New("token missing required claims")
	// ErrUnknownKind is returned for a kind other than access or refresh.
	ErrUnknownKind = errors.New("unknown token kind")
)

// Config configures a Codec. RefreshSecret falls back to AccessSecret when
// empty; see Codec.SharedSecret.
type Config struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	AccessSecret  []byte
	RefreshSecret []byte
	Leeway        time.Duration
	Now           func() time.Time
	// NewID, when set, stamps every token with a unique jti claim so that two
	// tokens minted for the same subject in the same second differ.
	NewID func() string
}

// Claims is the JWT claim set on the wire.
type Claims struct {
	Email    string `json:"email"`
	Role     string `json:"role"`
	TenantID string `json:"tenantId,omitempty"`
	Kind     Kind   `json:"type"`
	jwt.RegisteredClaims
}

// Subject is the identity a token is minted for.
type Subject struct {
	ID       string
	Email    string
	Role     string
	TenantID string
}

// Payload is the decoded content of a token.
type Payload struct {
	ID        string    `json:"id,omitempty"`
	Subject   string    `json:"subject"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	TenantID  string    `json:"tenantId,omitempty"`
	Kind      Kind      `json:"kind"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Codec signs and verifies tokens. It holds only immutable configuration and
// is safe for concurrent use.
type Codec struct {
	config       Config
	sharedSecret bool
}

// NewCodec validates cfg, applies default TTLs and returns a Codec.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.AccessTTL < 0 || cfg.RefreshTTL < 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if len(cfg.AccessSecret) < MinSecretBytes {
		return nil, fmt.Errorf("access secret must be at least %d bytes", MinSecretBytes)
	}

	shared := false
	if len(cfg.RefreshSecret) == 0 {
		cfg.RefreshSecret = cfg.AccessSecret
		shared = true
	} else if len(cfg.RefreshSecret) < MinSecretBytes {
		return nil, fmt.Errorf("refresh secret must be at least %d bytes", MinSecretBytes)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Codec{config: cfg, sharedSecret: shared}, nil
}

// SharedSecret reports whether refresh tokens are signed with the access
// secret because no refresh secret was configured.
func (c *Codec) SharedSecret() bool {
	return c.sharedSecret
}

// TTL returns the lifetime for tokens of kind.
func (c *Codec) TTL(kind Kind) time.Duration {
	if kind == KindRefresh {
		return c.config.RefreshTTL
	}
	return c.config.AccessTTL
}

// SecretFor returns the secret used to sign and verify tokens of kind.
func (c *Codec) SecretFor(kind Kind) []byte {
	if kind == KindRefresh {
		return c.config.RefreshSecret
	}
	return c.config.AccessSecret
}

// Issue signs a token of kind for subject with the kind's secret and returns
// the token together with its payload.
func (c *Codec) Issue(subject Subject, kind Kind) (string, *Payload, error) {
	if kind != KindAccess && kind != KindRefresh {
		return "", nil, ErrUnknownKind
	}
	if strings.TrimSpace(subject.ID) == "" {
		return "", nil, ErrMissingClaims
	}

	now := c.config.Now().Truncate(time.Second)
	expires := now.Add(c.TTL(kind))

	claims := Claims{
		Email:    subject.Email,
		Role:     subject.Role,
		TenantID: subject.TenantID,
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.ID,
			ID:        c.newID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.SecretFor(kind))
	if err != nil {
		return "", nil, err
	}

	return token, claims.payload(), nil
}

func (c *Codec) newID() string {
	if c.config.NewID == nil {
		return ""
	}
	return c.config.NewID()
}

// Parse verifies signature and expiry against secret and, when expected is
// non-empty, that the token's kind matches it.
func (c *Codec) Parse(tokenStr string, secret []byte, expected Kind) (*Payload, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.config.Now),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Subject == "" || claims.Kind == "" {
		return nil, ErrMissingClaims
	}
	if expected != "" && claims.Kind != expected {
		return nil, fmt.Errorf("%w: got %q want %q", ErrKindMismatch, claims.Kind, expected)
	}

	return claims.payload(), nil
}

// Validate is Parse with every failure collapsed to nil.
func (c *Codec) Validate(tokenStr string, secret []byte, expected Kind) *Payload {
	payload, err := c.Parse(tokenStr, secret, expected)
	if err != nil {
		return nil
	}
	return payload
}

// ValidateAccess validates an access token with the access secret.
func (c *Codec) ValidateAccess(tokenStr string) *Payload {
	return c.Validate(tokenStr, c.config.AccessSecret, KindAccess)
}

// ValidateRefresh validates a refresh token with the refresh secret.
func (c *Codec) ValidateRefresh(tokenStr string) *Payload {
	return c.Validate(tokenStr, c.config.RefreshSecret, KindRefresh)
}

// Decode reads the claims without verifying the signature or expiry. The
// result must never be used for an authorization decision.
func (c *Codec) Decode(tokenStr string) *Payload {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil
	}
	if claims.Subject == "" {
		return nil
	}
	return claims.payload()
}

// TimeUntilExpiry returns the remaining lifetime of a decoded token, clamped at
// zero. ok is false when the token cannot be decoded or carries no expiry.
func (c *Codec) TimeUntilExpiry(tokenStr string) (remaining time.Duration, ok bool) {
	payload := c.Decode(tokenStr)
	if payload == nil || payload.ExpiresAt.IsZero() {
		return 0, false
	}

	remaining = payload.ExpiresAt.Sub(c.config.Now())
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// IsExpired reports whether the decoded token is past its expiry. Tokens that
// cannot be decoded count as expired.
func (c *Codec) IsExpired(tokenStr string) bool {
	payload := c.Decode(tokenStr)
	if payload == nil || payload.ExpiresAt.IsZero() {
		return true
	}
	return !c.config.Now().Before(payload.ExpiresAt)
}

func (c *Claims) payload() *Payload {
	p := &Payload{
		ID:       c.ID,
		Subject:  c.Subject,
		Email:    c.Email,
		Role:     c.Role,
		TenantID: c.TenantID,
		Kind:     c.Kind,
	}
	if c.IssuedAt != nil {
		p.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		p.ExpiresAt = c.ExpiresAt.Time
	}
	return p
}
