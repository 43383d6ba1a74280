package recipeAuth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/recipeAuth/permission"
)

func TestDefaultConfigNeedsOnlySecrets(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("default config without secrets must not validate")
	}

	cfg.JWT.AccessSecret = testAccessSecret
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config with a secret should validate: %v", err)
	}
	if cfg.RequiresRedis() {
		t.Fatal("defaults must run without redis")
	}
	if cfg.Lockout.Threshold != 5 || cfg.Password.Cost != 12 || cfg.JWT.AccessTTL != 15*time.Minute {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestConfigValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"access ttl":        func(c *Config) { c.JWT.AccessTTL = 0 },
		"refresh <= access": func(c *Config) { c.JWT.RefreshTTL = c.JWT.AccessTTL },
		"short secret":      func(c *Config) { c.JWT.AccessSecret = []byte("short") },
		"short refresh":     func(c *Config) { c.JWT.RefreshSecret = []byte("short") },
		"leeway":            func(c *Config) { c.JWT.Leeway = time.Hour },
		"cost":              func(c *Config) { c.Password.Cost = 40 },
		"min length":        func(c *Config) { c.Password.MinLength = 4 },
		"concurrency":       func(c *Config) { c.Password.HashConcurrency = -1 },
		"threshold":         func(c *Config) { c.Lockout.Threshold = 0 },
		"default role":      func(c *Config) { c.Account.DefaultRole = permission.Role("chef") },
		"reset ttl":         func(c *Config) { c.PasswordReset.Enabled = true; c.PasswordReset.TTL = 0 },
		"verify attempts":   func(c *Config) { c.EmailVerification.Enabled = true; c.EmailVerification.MaxAttempts = 0 },
		"floor":             func(c *Config) { c.Security.EnumerationFloor = -time.Second },
		"throttle max":      func(c *Config) { c.Security.EnableLoginThrottle = true; c.Security.MaxLoginAttempts = 0 },
		"audit buffer":      func(c *Config) { c.Audit.Enabled = true; c.Audit.BufferSize = 0 },
	}

	for name, mutate := range cases {
		cfg := testConfig()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestWithConfigCopiesSecrets(t *testing.T) {
	secret := []byte(strings.Repeat("s", 40))
	cfg := testConfig()
	cfg.JWT.AccessSecret = secret

	builder := New().WithConfig(cfg).WithUserStore(NewMemoryUserStore())
	secret[0] = 'x'

	engine, err := builder.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer engine.Close()

	if engine.config.JWT.AccessSecret[0] != 's' {
		t.Fatal("builder must not alias caller secrets")
	}
}

func TestBuilderIsSingleUse(t *testing.T) {
	builder := New().WithConfig(testConfig()).WithUserStore(NewMemoryUserStore())
	engine, err := builder.Build()
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	defer engine.Close()

	if _, err := builder.Build(); err == nil {
		t.Fatal("second build must fail")
	}
}

func TestBuilderRequiresStore(t *testing.T) {
	if _, err := New().WithConfig(testConfig()).Build(); err == nil {
		t.Fatal("expected error without a user store")
	}
}

func TestAuditEventsCarryReasonCodes(t *testing.T) {
	store := NewMemoryUserStore()
	cfg := testConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.DropIfFull = false
	sink := NewChannelAuditSink(16)

	engine, err := New().WithConfig(cfg).WithUserStore(store).WithAuditSink(sink).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	user := seedActiveUser(t, store, "cook@example.com", permission.RoleUser)

	ctx := WithClientIP(context.Background(), "198.51.100.7")
	_, _ = engine.Authenticate(ctx, Credentials{Email: user.Email, Password: "wrong-password"})
	engine.Close()

	select {
	case event := <-sink.Events():
		if event.Type != auditEventLoginFailure || event.Success {
			t.Fatalf("unexpected event: %+v", event)
		}
		if event.Reason != string(auditErrInvalidCredentials) || event.Metadata["reason"] != "password_mismatch" {
			t.Fatalf("unexpected reason fields: %+v", event)
		}
		if event.IP != "198.51.100.7" || event.UserID != user.ID {
			t.Fatalf("unexpected identity fields: %+v", event)
		}
	default:
		t.Fatal("expected an audit event")
	}
}

func TestAuditErrorCodeOrdering(t *testing.T) {
	cases := map[error]AuditErrorCode{
		ErrAccountLocked:     auditErrAccountLocked,
		ErrAccountUnverified: auditErrAccountUnverified,
		ErrAccountNotUsable:  auditErrAccountNotUsable,
		ErrPasswordReuse:     auditErrPasswordReuse,
		ErrInvalidEmail:      auditErrValidation,
		ErrEmailTaken:        auditErrDuplicate,
	}
	for err, want := range cases {
		if got := auditErrorCode(err); got != want {
			t.Fatalf("auditErrorCode(%v) = %q, want %q", err, got, want)
		}
	}
}

func TestSecurityReportReflectsConfig(t *testing.T) {
	store := NewMemoryUserStore()
	cfg := testConfig()
	cfg.Revocation.Enabled = true
	engine := newRedisEngine(t, cfg, store, nil)

	report := engine.SecurityReport()
	if report.SigningAlgorithm != "HS256" || report.Password.Algorithm != "bcrypt" {
		t.Fatalf("report = %+v", report)
	}
	if !report.SeparateRefreshSecret || !report.RevocationActive {
		t.Fatalf("report = %+v", report)
	}
	if report.LoginThrottleActive || report.AuditActive {
		t.Fatalf("disabled features reported active: %+v", report)
	}
	// testConfig lowers the bcrypt cost.
	if len(report.Warnings) != 1 {
		t.Fatalf("Warnings = %v, want only the cost warning", report.Warnings)
	}
}
