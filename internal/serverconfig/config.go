package serverconfig

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	recipeAuth "github.com/MrEthical07/recipeAuth"
	"github.com/MrEthical07/recipeAuth/middleware"
	"github.com/MrEthical07/recipeAuth/permission"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "RECIPEAUTH_"

// Config is the recipeauth-server configuration file.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Auth     AuthConfig     `yaml:"auth"`
}

// ServerConfig contains HTTP listener settings.
type ServerConfig struct {
	Addr         string          `yaml:"addr"`
	ReadTimeout  time.Duration   `yaml:"read_timeout"`
	WriteTimeout time.Duration   `yaml:"write_timeout"`
	IdleTimeout  time.Duration   `yaml:"idle_timeout"`
	RateLimit    RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig contains the per-client request limiter settings.
type RateLimitConfig struct {
	PerSecond         float64       `yaml:"per_second"`
	Burst             int           `yaml:"burst"`
	IdleTTL           time.Duration `yaml:"idle_ttl"`
	TrustForwardedFor bool          `yaml:"trust_forwarded_for"`
}

// DatabaseConfig selects the user store. An empty DSN keeps users in memory.
type DatabaseConfig struct {
	DSN     string `yaml:"dsn"`
	Migrate bool   `yaml:"migrate"`
}

// RedisConfig selects the redis server. An empty Addr with Embedded set
// starts an in-process server, which only suits development.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Embedded bool   `yaml:"embedded"`
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// MetricsConfig controls engine counters and the /metrics endpoint.
type MetricsConfig struct {
	Enabled           bool `yaml:"enabled"`
	LatencyHistograms bool `yaml:"latency_histograms"`
}

// AuthConfig is the file form of the engine configuration.
type AuthConfig struct {
	AccessSecret  string        `yaml:"access_secret"`
	RefreshSecret string        `yaml:"refresh_secret"`
	AccessTTL     time.Duration `yaml:"access_ttl"`
	RefreshTTL    time.Duration `yaml:"refresh_ttl"`

	BcryptCost      int  `yaml:"bcrypt_cost"`
	MinPasswordLen  int  `yaml:"min_password_length"`
	RehashOnLogin   bool `yaml:"rehash_on_login"`
	HashConcurrency int  `yaml:"hash_concurrency"`

	LockoutThreshold      int    `yaml:"lockout_threshold"`
	DefaultRole           string `yaml:"default_role"`
	IssueTokensOnRegister bool   `yaml:"issue_tokens_on_register"`

	MaskAccountState bool          `yaml:"mask_account_state"`
	EnumerationFloor time.Duration `yaml:"enumeration_floor"`

	PasswordReset     ChallengeConfig `yaml:"password_reset"`
	EmailVerification ChallengeConfig `yaml:"email_verification"`
	LoginThrottle     ThrottleConfig  `yaml:"login_throttle"`

	Revocation bool        `yaml:"revocation"`
	Audit      AuditConfig `yaml:"audit"`
}

// ChallengeConfig configures a one-time token flow.
type ChallengeConfig struct {
	Enabled        bool          `yaml:"enabled"`
	TTL            time.Duration `yaml:"ttl"`
	MaxAttempts    int           `yaml:"max_attempts"`
	SendOnRegister bool          `yaml:"send_on_register,omitempty"`
}

// ThrottleConfig configures the per-email login throttle.
type ThrottleConfig struct {
	Enabled     bool          `yaml:"enabled"`
	PerIP       bool          `yaml:"per_ip"`
	MaxAttempts int           `yaml:"max_attempts"`
	Cooldown    time.Duration `yaml:"cooldown"`
}

// AuditConfig configures the audit dispatcher. Events go to the server log
// and, when File is set, are appended to it as JSON lines.
type AuditConfig struct {
	Enabled    bool   `yaml:"enabled"`
	BufferSize int    `yaml:"buffer_size"`
	DropIfFull bool   `yaml:"drop_if_full"`
	File       string `yaml:"file"`
}

// Load reads configuration from a YAML file and applies environment
// variable overrides.
//
// Defaults are applied first, then the file, then RECIPEAUTH_* variables.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg, os.LookupEnv); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns a Config seeded from the engine defaults.
func Default() *Config {
	engine := recipeAuth.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
			RateLimit: RateLimitConfig{
				PerSecond: 10,
				Burst:     20,
				IdleTTL:   5 * time.Minute,
			},
		},
		Database: DatabaseConfig{Migrate: true},
		Redis:    RedisConfig{Embedded: true},
		Logging:  LoggingConfig{Level: "info"},
		Metrics: MetricsConfig{
			Enabled:           engine.Metrics.Enabled,
			LatencyHistograms: true,
		},
		Auth: AuthConfig{
			AccessTTL:        engine.JWT.AccessTTL,
			RefreshTTL:       engine.JWT.RefreshTTL,
			BcryptCost:       engine.Password.Cost,
			MinPasswordLen:   engine.Password.MinLength,
			RehashOnLogin:    engine.Password.RehashOnLogin,
			LockoutThreshold: engine.Lockout.Threshold,
			DefaultRole:      engine.Account.DefaultRole.String(),
			MaskAccountState: engine.Security.MaskAccountState,
			EnumerationFloor: engine.Security.EnumerationFloor,
			PasswordReset: ChallengeConfig{
				TTL:         engine.PasswordReset.TTL,
				MaxAttempts: engine.PasswordReset.MaxAttempts,
			},
			EmailVerification: ChallengeConfig{
				TTL:            engine.EmailVerification.TTL,
				MaxAttempts:    engine.EmailVerification.MaxAttempts,
				SendOnRegister: engine.EmailVerification.SendOnRegister,
			},
			LoginThrottle: ThrottleConfig{
				MaxAttempts: engine.Security.MaxLoginAttempts,
				Cooldown:    engine.Security.LoginCooldownDuration,
			},
			Audit: AuditConfig{
				BufferSize: engine.Audit.BufferSize,
				DropIfFull: engine.Audit.DropIfFull,
			},
		},
	}
}

type lookupFunc func(key string) (string, bool)

// applyEnvOverrides applies RECIPEAUTH_* variables. Secrets and addresses
// are the values most often injected by the environment.
func applyEnvOverrides(cfg *Config, lookup lookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	str("SERVER_ADDR", &cfg.Server.Addr)
	str("DATABASE_DSN", &cfg.Database.DSN)
	str("REDIS_ADDR", &cfg.Redis.Addr)
	str("REDIS_PASSWORD", &cfg.Redis.Password)
	str("LOG_LEVEL", &cfg.Logging.Level)
	str("ACCESS_SECRET", &cfg.Auth.AccessSecret)
	str("REFRESH_SECRET", &cfg.Auth.RefreshSecret)

	bools := []struct {
		name string
		dst  *bool
	}{
		{"LOG_DEVELOPMENT", &cfg.Logging.Development},
		{"REDIS_EMBEDDED", &cfg.Redis.Embedded},
		{"PASSWORD_RESET_ENABLED", &cfg.Auth.PasswordReset.Enabled},
		{"EMAIL_VERIFICATION_ENABLED", &cfg.Auth.EmailVerification.Enabled},
		{"LOGIN_THROTTLE_ENABLED", &cfg.Auth.LoginThrottle.Enabled},
		{"REVOCATION_ENABLED", &cfg.Auth.Revocation},
	}
	for _, b := range bools {
		v, ok := lookup(EnvPrefix + b.name)
		if !ok || v == "" {
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, b.name, err)
		}
		*b.dst = parsed
	}

	if v, ok := lookup(EnvPrefix + "REDIS_DB"); ok && v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sREDIS_DB: %w", EnvPrefix, err)
		}
		cfg.Redis.DB = db
	}
	return nil
}

// Validate checks the server sections and the derived engine configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server.addr is required")
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.IdleTimeout < 0 {
		return errors.New("server timeouts must be >= 0")
	}
	if c.Server.RateLimit.PerSecond < 0 || c.Server.RateLimit.Burst < 0 {
		return errors.New("server.rate_limit values must be >= 0")
	}
	if c.Redis.DB < 0 {
		return errors.New("redis.db must be >= 0")
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	engine := c.EngineConfig()
	if engine.RequiresRedis() && c.Redis.Addr == "" && !c.Redis.Embedded {
		return errors.New("redis.addr is required by the enabled auth features")
	}
	if err := engine.Validate(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	return nil
}

// EngineConfig converts the auth section into an engine configuration.
func (c *Config) EngineConfig() recipeAuth.Config {
	a := c.Auth
	cfg := recipeAuth.DefaultConfig()

	cfg.JWT.AccessSecret = []byte(a.AccessSecret)
	if a.RefreshSecret != "" {
		cfg.JWT.RefreshSecret = []byte(a.RefreshSecret)
	}
	cfg.JWT.AccessTTL = a.AccessTTL
	cfg.JWT.RefreshTTL = a.RefreshTTL

	cfg.Password.Cost = a.BcryptCost
	cfg.Password.MinLength = a.MinPasswordLen
	cfg.Password.RehashOnLogin = a.RehashOnLogin
	cfg.Password.HashConcurrency = a.HashConcurrency

	cfg.Lockout.Threshold = a.LockoutThreshold
	cfg.Account.DefaultRole = permission.Role(strings.ToLower(strings.TrimSpace(a.DefaultRole)))
	cfg.Account.IssueTokensOnRegister = a.IssueTokensOnRegister

	cfg.Security.MaskAccountState = a.MaskAccountState
	cfg.Security.EnumerationFloor = a.EnumerationFloor
	cfg.Security.EnableLoginThrottle = a.LoginThrottle.Enabled
	cfg.Security.EnableIPThrottle = a.LoginThrottle.PerIP
	cfg.Security.MaxLoginAttempts = a.LoginThrottle.MaxAttempts
	cfg.Security.LoginCooldownDuration = a.LoginThrottle.Cooldown

	cfg.PasswordReset = recipeAuth.ChallengeConfig{
		Enabled:     a.PasswordReset.Enabled,
		TTL:         a.PasswordReset.TTL,
		MaxAttempts: a.PasswordReset.MaxAttempts,
	}
	cfg.EmailVerification = recipeAuth.EmailVerificationConfig{
		ChallengeConfig: recipeAuth.ChallengeConfig{
			Enabled:     a.EmailVerification.Enabled,
			TTL:         a.EmailVerification.TTL,
			MaxAttempts: a.EmailVerification.MaxAttempts,
		},
		SendOnRegister: a.EmailVerification.SendOnRegister,
	}

	cfg.Revocation.Enabled = a.Revocation
	cfg.Audit = recipeAuth.AuditConfig{
		Enabled:    a.Audit.Enabled,
		BufferSize: a.Audit.BufferSize,
		DropIfFull: a.Audit.DropIfFull,
	}
	cfg.Metrics = recipeAuth.MetricsConfig{
		Enabled:                 c.Metrics.Enabled,
		EnableLatencyHistograms: c.Metrics.Enabled && c.Metrics.LatencyHistograms,
	}
	return cfg
}

// RateLimit returns the middleware form of the limiter settings.
func (c *Config) RateLimit() middleware.RateLimitConfig {
	rl := c.Server.RateLimit
	return middleware.RateLimitConfig{
		PerSecond:         rl.PerSecond,
		Burst:             rl.Burst,
		IdleTTL:           rl.IdleTTL,
		TrustForwardedFor: rl.TrustForwardedFor,
	}
}

// NewLogger builds the server logger.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if c.Logging.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
