package recipeAuth

import (
	"context"
	"time"

	"github.com/MrEthical07/recipeAuth/internal/audit"
	"github.com/MrEthical07/recipeAuth/permission"
)

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

// Account lifecycle states.
const (
	StatusPendingVerification AccountStatus = "pending_verification"
	StatusActive              AccountStatus = "active"
	StatusLocked              AccountStatus = "locked"
	StatusSuspended           AccountStatus = "suspended"
	StatusInactive            AccountStatus = "inactive"
	StatusDeleted             AccountStatus = "deleted"
)

// EmailVerificationStatus tracks whether the account owner proved control of
// the email address.
type EmailVerificationStatus string

// Email verification states.
const (
	EmailUnverified EmailVerificationStatus = "unverified"
	EmailVerified   EmailVerificationStatus = "verified"
	EmailFailed     EmailVerificationStatus = "failed"
	EmailExpired    EmailVerificationStatus = "expired"
)

// User is the stored identity. PasswordHash never leaves the engine in a
// response; the HTTP layer renders a separate view.
type User struct {
	ID                      string
	Email                   string
	PasswordHash            string
	Role                    permission.Role
	Status                  AccountStatus
	EmailVerificationStatus EmailVerificationStatus
	FailedLoginAttempts     int
	LastFailedLoginAt       *time.Time
	LockedAt                *time.Time
	LockReason              string
	LastLoginAt             *time.Time
	PasswordChangedAt       *time.Time
	EmailVerifiedAt         *time.Time
	TenantID                string
	IsActive                bool
	IsDeleted               bool
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// CanLogin reports whether the account may authenticate under a lockout
// threshold.
func (u *User) CanLogin(threshold int) bool {
	if u == nil || u.IsDeleted {
		return false
	}
	return u.IsActive &&
		u.Status == StatusActive &&
		u.EmailVerificationStatus == EmailVerified &&
		u.FailedLoginAttempts < threshold
}

// CanRefresh reports whether a refresh token for this account may still be
// exchanged. Unverified accounts that received tokens at registration keep
// refreshing until they are locked or disabled.
func (u *User) CanRefresh() bool {
	if u == nil || u.IsDeleted || !u.IsActive {
		return false
	}
	switch u.Status {
	case StatusLocked, StatusSuspended, StatusInactive, StatusDeleted:
		return false
	}
	return true
}

// CreateUserInput is what the engine hands to [UserStore.Create].
type CreateUserInput struct {
	Email                   string
	PasswordHash            string
	Role                    permission.Role
	TenantID                string
	Status                  AccountStatus
	EmailVerificationStatus EmailVerificationStatus
	IsActive                bool
}

// LockoutPolicy travels with every failed-attempt increment so the store can
// lock in the same atomic step.
type LockoutPolicy struct {
	Threshold int
	Reason    string
}

// FailedLoginResult is the state after an increment.
type FailedLoginResult struct {
	Attempts int
	Locked   bool
}

// UserStore is the persistence contract the engine depends on. Emails are
// matched case-insensitively. Lookups of absent users return ErrUserNotFound.
//
// IncrementFailedLoginAttempts must increment the counter and, when the new
// value reaches policy.Threshold, set status locked, clear IsActive and stamp
// LockedAt and LockReason, all as one atomic operation.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, input CreateUserInput) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	IncrementFailedLoginAttempts(ctx context.Context, id string, policy LockoutPolicy) (FailedLoginResult, error)
	ResetFailedLoginAttempts(ctx context.Context, id string) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string, at time.Time) error
	MarkEmailVerified(ctx context.Context, id string, at time.Time) error
	Lock(ctx context.Context, id, reason string, at time.Time) error
	Unlock(ctx context.Context, id string) error
}

// Notifier delivers the out-of-band messages of the one-time flows. token is
// the opaque value the user presents back to the engine.
type Notifier interface {
	SendEmailVerification(ctx context.Context, user *User, token string) error
	SendPasswordReset(ctx context.Context, user *User, token string) error
}

// NoopNotifier drops every message.
type NoopNotifier struct{}

// SendEmailVerification discards the token.
func (NoopNotifier) SendEmailVerification(context.Context, *User, string) error { return nil }

// SendPasswordReset discards the token.
func (NoopNotifier) SendPasswordReset(context.Context, *User, string) error { return nil }

// Credentials is the login input.
type Credentials struct {
	Email    string
	Password string
}

// AuthResult is returned by login and refresh.
type AuthResult struct {
	User         *User
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	TokenType    string
}

// RegisterRequest is the sign-up input. Role is optional.
type RegisterRequest struct {
	Email           string
	Password        string
	ConfirmPassword string
	Role            string
	TenantID        string
}

// RegisterResult carries the created user and, when enabled, a token pair.
type RegisterResult struct {
	User   *User
	Tokens *AuthResult
}

// ChangePasswordRequest is the authenticated password change input.
type ChangePasswordRequest struct {
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}

// ResetPasswordRequest completes a password reset.
type ResetPasswordRequest struct {
	Token           string
	NewPassword     string
	ConfirmPassword string
}

type (
	// AuditEvent is one emitted audit record.
	AuditEvent = audit.Event
	// AuditSink receives audit events from the dispatcher goroutine.
	AuditSink = audit.Sink
	// NoOpAuditSink discards events.
	NoOpAuditSink = audit.NoOpSink
	// ChannelAuditSink buffers events into a channel.
	ChannelAuditSink = audit.ChannelSink
	// JSONWriterAuditSink writes JSON lines.
	JSONWriterAuditSink = audit.JSONWriterSink
	// ZapAuditSink logs events through zap.
	ZapAuditSink = audit.ZapSink
	// MultiAuditSink fans events out to several sinks.
	MultiAuditSink = audit.MultiSink
)

// Audit sink constructors re-exported from the audit package.
var (
	NewChannelAuditSink    = audit.NewChannelSink
	NewJSONWriterAuditSink = audit.NewJSONWriterSink
	NewZapAuditSink        = audit.NewZapSink
	FailedAuditEventsOnly  = audit.FailuresOnly
)
