package recipeAuth

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/recipeAuth/jwt"
	"github.com/MrEthical07/recipeAuth/password"
	"github.com/MrEthical07/recipeAuth/permission"
	"golang.org/x/crypto/bcrypt"
)

// Config is the full engine configuration. Obtain a populated value from
// [DefaultConfig] and override fields before passing it to
// [Builder.WithConfig].
type Config struct {
	JWT               JWTConfig
	Password          PasswordConfig
	Lockout           LockoutConfig
	Account           AccountConfig
	PasswordReset     ChallengeConfig
	EmailVerification EmailVerificationConfig
	Security          SecurityConfig
	Revocation        RevocationConfig
	Audit             AuditConfig
	Metrics           MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig controls token lifetimes and signing secrets. An empty
// RefreshSecret makes refresh tokens share AccessSecret.
type JWTConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	AccessSecret  []byte
	RefreshSecret []byte
	Leeway        time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig controls hashing. HashConcurrency bounds parallel bcrypt
// operations; zero means GOMAXPROCS.
type PasswordConfig struct {
	Cost            int
	MinLength       int
	RehashOnLogin   bool
	HashConcurrency int
}

/*
====================================
LOCKOUT CONFIG
====================================
*/

// LockoutConfig controls automatic account locking on failed logins.
type LockoutConfig struct {
	Threshold int
	Reason    string
}

/*
====================================
ACCOUNT CONFIG
====================================
*/

// AccountConfig controls registration.
type AccountConfig struct {
	DefaultRole           permission.Role
	IssueTokensOnRegister bool
}

/*
====================================
ONE-TIME FLOWS
====================================
*/

// ChallengeConfig controls a redis-backed one-time token flow.
type ChallengeConfig struct {
	Enabled     bool
	TTL         time.Duration
	MaxAttempts int
}

// EmailVerificationConfig extends ChallengeConfig with delivery on sign-up.
type EmailVerificationConfig struct {
	ChallengeConfig
	SendOnRegister bool
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig groups anti-abuse behavior.
//
// MaskAccountState reports locked, unverified and inactive accounts as
// ErrInvalidCredentials. EnumerationFloor is the minimum duration of the
// password reset request and verification resend operations.
type SecurityConfig struct {
	MaskAccountState      bool
	EnumerationFloor      time.Duration
	EnableLoginThrottle   bool
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
}

// RevocationConfig enables the redis token deny-list consulted on
// validation and populated by logout and refresh rotation.
type RevocationConfig struct {
	Enabled bool
}

/*
====================================
OBSERVABILITY CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the production defaults. Secrets are left empty and
// must be supplied.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:  jwt.DefaultAccessTTL,
			RefreshTTL: jwt.DefaultRefreshTTL,
			Leeway:     30 * time.Second,
		},
		Password: PasswordConfig{
			Cost:          password.DefaultCost,
			MinLength:     password.DefaultMinLength,
			RehashOnLogin: true,
		},
		Lockout: LockoutConfig{
			Threshold: 5,
			Reason:    "too many failed login attempts",
		},
		Account: AccountConfig{
			DefaultRole: permission.RoleUser,
		},
		PasswordReset: ChallengeConfig{
			TTL:         time.Hour,
			MaxAttempts: 5,
		},
		EmailVerification: EmailVerificationConfig{
			ChallengeConfig: ChallengeConfig{
				TTL:         24 * time.Hour,
				MaxAttempts: 5,
			},
			SendOnRegister: true,
		},
		Security: SecurityConfig{
			EnumerationFloor:      300 * time.Millisecond,
			MaxLoginAttempts:      10,
			LoginCooldownDuration: 15 * time.Minute,
		},
		Audit: AuditConfig{
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(c Config) Config {
	out := c
	out.JWT.AccessSecret = cloneBytes(c.JWT.AccessSecret)
	out.JWT.RefreshSecret = cloneBytes(c.JWT.RefreshSecret)
	return out
}

func cloneBytes(in []byte) []byte {
	if in == nil {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}

// RequiresRedis reports whether any enabled feature needs a redis client.
func (c *Config) RequiresRedis() bool {
	return c.PasswordReset.Enabled ||
		c.EmailVerification.Enabled ||
		c.Security.EnableLoginThrottle ||
		c.Revocation.Enabled
}

// Validate checks c for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must be greater than AccessTTL")
	}
	if len(c.JWT.AccessSecret) < jwt.MinSecretBytes {
		return fmt.Errorf("JWT AccessSecret must be at least %d bytes", jwt.MinSecretBytes)
	}
	if len(c.JWT.RefreshSecret) > 0 && len(c.JWT.RefreshSecret) < jwt.MinSecretBytes {
		return fmt.Errorf("JWT RefreshSecret must be empty or at least %d bytes", jwt.MinSecretBytes)
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	if c.Password.Cost < bcrypt.MinCost || c.Password.Cost > bcrypt.MaxCost {
		return fmt.Errorf("Password Cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.Password.MinLength < password.DefaultMinLength {
		return fmt.Errorf("Password MinLength must be >= %d", password.DefaultMinLength)
	}
	if c.Password.HashConcurrency < 0 {
		return errors.New("Password HashConcurrency must be >= 0")
	}

	if c.Lockout.Threshold <= 0 {
		return errors.New("Lockout Threshold must be > 0")
	}

	if !c.Account.DefaultRole.Valid() {
		return fmt.Errorf("Account DefaultRole %q is not a known role", c.Account.DefaultRole)
	}

	if c.PasswordReset.Enabled {
		if err := c.PasswordReset.validate("PasswordReset"); err != nil {
			return err
		}
	}
	if c.EmailVerification.Enabled {
		if err := c.EmailVerification.validate("EmailVerification"); err != nil {
			return err
		}
	}

	if c.Security.EnumerationFloor < 0 {
		return errors.New("Security EnumerationFloor must be >= 0")
	}
	if c.Security.EnableLoginThrottle {
		if c.Security.MaxLoginAttempts <= 0 {
			return errors.New("Security MaxLoginAttempts must be > 0 when login throttle is enabled")
		}
		if c.Security.LoginCooldownDuration <= 0 {
			return errors.New("Security LoginCooldownDuration must be > 0 when login throttle is enabled")
		}
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}

func (c ChallengeConfig) validate(section string) error {
	if c.TTL <= 0 {
		return fmt.Errorf("%s TTL must be > 0", section)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("%s MaxAttempts must be > 0", section)
	}
	return nil
}
