package recipeAuth

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/recipeAuth/internal/audit"
	"github.com/MrEthical07/recipeAuth/internal/rate"
	"github.com/MrEthical07/recipeAuth/internal/stores"
	"github.com/MrEthical07/recipeAuth/jwt"
	"github.com/MrEthical07/recipeAuth/password"
	"github.com/MrEthical07/recipeAuth/permission"
	"go.uber.org/zap"
)

const tokenTypeBearer = "Bearer"

// Engine runs authentication and authorization for the platform. Build one
// with [New] and [Builder.Build].
type Engine struct {
	config     Config
	store      UserStore
	hasher     *password.Pool
	codec      *jwt.Codec
	resolver   *permission.Resolver
	throttle   *rate.Limiter
	challenges *stores.ChallengeStore
	denyList   *stores.DenyList
	notifier   Notifier
	audit      *audit.Dispatcher
	metrics    *Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// Close flushes pending audit events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// AuditDropped returns how many audit events were discarded under
// backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of every counter and
// histogram. It is empty when metrics are disabled.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return (*Metrics)(nil).Snapshot()
	}
	return e.metrics.Snapshot()
}

// Codec exposes the token codec for adapters that validate tokens without
// the engine, such as tests and offline tooling.
func (e *Engine) Codec() *jwt.Codec {
	return e.codec
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil {
		return
	}
	e.metrics.Inc(id)
}

// Authenticate runs the login state machine for creds.
//
// Unknown emails and wrong passwords both yield ErrInvalidCredentials. An
// account that may not log in yields a variant of ErrAccountNotUsable, or
// ErrInvalidCredentials when Security.MaskAccountState is set. Every wrong
// password increments the stored counter and locks the account once the
// lockout threshold is reached.
func (e *Engine) Authenticate(ctx context.Context, creds Credentials) (*AuthResult, error) {
	start := time.Now()
	defer func() { e.metrics.Observe(MetricLoginLatency, time.Since(start)) }()

	email := normalizeEmail(creds.Email)
	ip := clientIPFromContext(ctx)

	if e.throttle != nil {
		if err := e.throttle.CheckLogin(ctx, email, ip); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				e.metricInc(MetricLoginRateLimited)
				e.recordAudit(ctx, auditEventLoginRateLimited, "", "", ErrLoginRateLimited)
				return nil, ErrLoginRateLimited
			}
			return nil, err
		}
	}

	user, err := e.store.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			e.logger.Error("login lookup failed", zap.Error(err))
			return nil, err
		}
		if err := e.hasher.DummyVerify(ctx, creds.Password); err != nil {
			return nil, err
		}
		e.loginFailed(ctx, email, nil, "user_not_found")
		return nil, ErrInvalidCredentials
	}

	threshold := e.config.Lockout.Threshold
	if !user.CanLogin(threshold) {
		stateErr := accountStateError(user, threshold)
		e.metricInc(MetricLoginAccountNotUsable)
		e.loginFailed(ctx, email, user, "account_state")
		e.recordAudit(ctx, auditEventLoginFailure, user.ID, user.TenantID, stateErr, "status", string(user.Status))
		if e.config.Security.MaskAccountState {
			return nil, ErrInvalidCredentials
		}
		return nil, stateErr
	}

	ok, err := e.hasher.Verify(ctx, creds.Password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		result, err := e.store.IncrementFailedLoginAttempts(ctx, user.ID, LockoutPolicy{
			Threshold: threshold,
			Reason:    e.config.Lockout.Reason,
		})
		if err != nil {
			e.logger.Error("failed-attempt increment failed", zap.String("user_id", user.ID), zap.Error(err))
			return nil, err
		}
		if result.Locked {
			e.metricInc(MetricLockoutTriggered)
			e.logger.Warn("account locked by lockout policy",
				zap.String("user_id", user.ID),
				zap.Int("attempts", result.Attempts),
			)
			e.recordAudit(ctx, auditEventAccountLocked, user.ID, user.TenantID, nil, "source", "lockout_policy")
		}
		e.loginFailed(ctx, email, user, "password_mismatch")
		return nil, ErrInvalidCredentials
	}

	if err := e.store.ResetFailedLoginAttempts(ctx, user.ID); err != nil {
		return nil, err
	}
	now := e.now().UTC()
	if err := e.store.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.FailedLoginAttempts = 0
	user.LastFailedLoginAt = nil
	user.LastLoginAt = &now

	e.maybeRehash(ctx, user, creds.Password)

	if e.throttle != nil {
		if err := e.throttle.ResetLogin(ctx, email); err != nil {
			e.logger.Warn("login throttle reset failed", zap.Error(err))
		}
	}

	result, err := e.issuePair(user)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.recordAudit(ctx, auditEventLoginSuccess, user.ID, user.TenantID, nil)
	return result, nil
}

func (e *Engine) loginFailed(ctx context.Context, email string, user *User, reason string) {
	e.metricInc(MetricLoginFailure)
	e.logger.Info("login failed", zap.String("reason", reason))

	if e.throttle != nil {
		if err := e.throttle.IncrementLogin(ctx, email, clientIPFromContext(ctx)); err != nil {
			e.logger.Warn("login throttle increment failed", zap.Error(err))
		}
	}

	if reason == "account_state" {
		return
	}
	userID, tenantID := "", ""
	if user != nil {
		userID, tenantID = user.ID, user.TenantID
	}
	e.recordAudit(ctx, auditEventLoginFailure, userID, tenantID, ErrInvalidCredentials, "reason", reason)
}

// accountStateError picks the specific not-usable variant for a user that
// failed CanLogin.
func accountStateError(u *User, threshold int) error {
	switch {
	case u.Status == StatusLocked || u.FailedLoginAttempts >= threshold:
		return ErrAccountLocked
	case u.Status == StatusPendingVerification || u.EmailVerificationStatus != EmailVerified:
		return ErrAccountUnverified
	default:
		return ErrAccountInactive
	}
}

func (e *Engine) maybeRehash(ctx context.Context, user *User, plaintext string) {
	if !e.config.Password.RehashOnLogin || !e.hasher.Hasher().NeedsRehash(user.PasswordHash) {
		return
	}

	hash, err := e.hasher.Hash(ctx, plaintext)
	if err != nil {
		e.logger.Warn("password rehash failed", zap.String("user_id", user.ID), zap.Error(err))
		return
	}

	changedAt := user.CreatedAt
	if user.PasswordChangedAt != nil {
		changedAt = *user.PasswordChangedAt
	}
	if err := e.store.UpdatePassword(ctx, user.ID, hash, changedAt); err != nil {
		e.logger.Warn("password rehash store failed", zap.String("user_id", user.ID), zap.Error(err))
		return
	}
	user.PasswordHash = hash
	e.metricInc(MetricPasswordRehashed)
}

// Refresh exchanges a refresh token for a fresh access and refresh pair.
// Rejected tokens and accounts are reported as ErrUnauthorized. Store and
// deny-list failures are returned unchanged.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	payload := e.codec.ValidateRefresh(refreshToken)
	if payload == nil {
		return nil, e.refreshFailed(ctx, "", "invalid_token")
	}

	user, err := e.store.FindByID(ctx, payload.Subject)
	if errors.Is(err, ErrUserNotFound) {
		return nil, e.refreshFailed(ctx, payload.Subject, "user_not_found")
	}
	if err != nil {
		e.logger.Error("refresh lookup failed", zap.Error(err))
		e.metricInc(MetricRefreshFailure)
		e.recordAudit(ctx, auditEventRefreshFailure, payload.Subject, "", err, "reason", "store_unavailable")
		return nil, err
	}
	if !user.CanRefresh() {
		return nil, e.refreshFailed(ctx, user.ID, "account_state")
	}

	if e.denyList != nil {
		ttl, _ := e.codec.TimeUntilExpiry(refreshToken)
		first, err := e.denyList.RevokeOnce(ctx, refreshToken, ttl)
		if err != nil {
			e.logger.Error("refresh rotation revoke failed", zap.Error(err))
			e.metricInc(MetricRefreshFailure)
			e.recordAudit(ctx, auditEventRefreshFailure, user.ID, user.TenantID, err, "reason", "revocation_unavailable")
			return nil, err
		}
		if !first {
			e.metricInc(MetricRevokedTokenRejected)
			return nil, e.refreshFailed(ctx, user.ID, "revoked")
		}
	}

	result, err := e.issuePair(user)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricRefreshSuccess)
	e.recordAudit(ctx, auditEventRefreshSuccess, user.ID, user.TenantID, nil)
	return result, nil
}

func (e *Engine) refreshFailed(ctx context.Context, userID, reason string) error {
	e.metricInc(MetricRefreshFailure)
	e.logger.Info("refresh rejected", zap.String("reason", reason))
	e.recordAudit(ctx, auditEventRefreshFailure, userID, "", ErrUnauthorized, "reason", reason)
	return ErrUnauthorized
}

func subjectFor(user *User) jwt.Subject {
	return jwt.Subject{
		ID:       user.ID,
		Email:    user.Email,
		Role:     user.Role.String(),
		TenantID: user.TenantID,
	}
}

func (e *Engine) issuePair(user *User) (*AuthResult, error) {
	subject := subjectFor(user)

	access, _, err := e.codec.Issue(subject, jwt.KindAccess)
	if err != nil {
		return nil, err
	}
	refresh, _, err := e.codec.Issue(subject, jwt.KindRefresh)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		User:         user,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(e.codec.TTL(jwt.KindAccess) / time.Second),
		TokenType:    tokenTypeBearer,
	}, nil
}

// ValidateAccessToken returns the verified payload of an access token, or
// nil when the token is invalid, expired, of the wrong kind or revoked. A
// deny-list failure also yields nil; use VerifyAccessToken to tell it apart.
func (e *Engine) ValidateAccessToken(ctx context.Context, token string) *jwt.Payload {
	payload, _ := e.VerifyAccessToken(ctx, token)
	return payload
}

// VerifyAccessToken is ValidateAccessToken with the failure reported.
// Rejected tokens yield ErrUnauthorized; a deny-list lookup failure is
// returned unchanged so callers can answer 503 instead of 401.
func (e *Engine) VerifyAccessToken(ctx context.Context, token string) (*jwt.Payload, error) {
	start := time.Now()
	defer func() { e.metrics.Observe(MetricValidateLatency, time.Since(start)) }()

	payload := e.codec.ValidateAccess(token)
	if payload == nil {
		return nil, ErrUnauthorized
	}

	if e.denyList != nil {
		revoked, err := e.denyList.IsRevoked(ctx, token)
		if err != nil {
			e.logger.Error("deny-list lookup failed", zap.Error(err))
			return nil, err
		}
		if revoked {
			e.metricInc(MetricRevokedTokenRejected)
			return nil, ErrUnauthorized
		}
	}

	return payload, nil
}

// GetUserFromToken decodes token without verifying it and loads the subject.
// Callers must have validated the token first.
func (e *Engine) GetUserFromToken(ctx context.Context, token string) (*User, error) {
	payload := e.codec.Decode(token)
	if payload == nil {
		return nil, ErrUnauthorized
	}
	return e.store.FindByID(ctx, payload.Subject)
}

// Logout revokes both tokens until their natural expiry when revocation is
// enabled. Only tokens this engine signed are revoked; anything else cannot
// authenticate and is skipped. Without revocation tokens are stateless and
// Logout only records the event.
func (e *Engine) Logout(ctx context.Context, accessToken, refreshToken string) error {
	access := e.codec.ValidateAccess(accessToken)
	var userID string
	if access != nil {
		userID = access.Subject
	}

	if e.denyList != nil {
		verified := []struct {
			token string
			ok    bool
			kind  jwt.Kind
		}{
			{accessToken, access != nil, jwt.KindAccess},
			{refreshToken, refreshToken != "" && e.codec.ValidateRefresh(refreshToken) != nil, jwt.KindRefresh},
		}
		for _, v := range verified {
			if !v.ok {
				continue
			}
			ttl, ok := e.codec.TimeUntilExpiry(v.token)
			if !ok {
				continue
			}
			ttl = min(ttl, e.codec.TTL(v.kind))
			if err := e.denyList.Revoke(ctx, v.token, ttl); err != nil {
				e.logger.Error("logout revoke failed", zap.Error(err))
				return err
			}
		}
	}

	e.metricInc(MetricLogout)
	e.recordAudit(ctx, auditEventLogout, userID, "", nil, "revoked", strconv.FormatBool(e.denyList != nil))
	return nil
}

// RevocationEnabled reports whether logout and rotation use the deny-list.
func (e *Engine) RevocationEnabled() bool {
	return e.denyList != nil
}

// SharedTokenSecret reports whether refresh tokens are signed with the
// access secret.
func (e *Engine) SharedTokenSecret() bool {
	return e.codec.SharedSecret()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
