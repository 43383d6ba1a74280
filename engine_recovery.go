package recipeAuth

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/recipeAuth/internal"
	"github.com/MrEthical07/recipeAuth/internal/stores"
	"go.uber.org/zap"
)

// RequestPasswordReset sends a one-time reset token to email when it
// belongs to an account. The outcome is indistinguishable for unknown
// addresses: the call succeeds and never returns before
// Security.EnumerationFloor has elapsed. Only a failed lookup, which happens
// before existence is known, is returned.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) error {
	if !e.config.PasswordReset.Enabled {
		return ErrFeatureDisabled
	}
	start := time.Now()
	defer e.padResponse(ctx, start)

	e.metricInc(MetricPasswordResetRequest)
	email = normalizeEmail(email)

	user, err := e.store.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		e.recordAudit(ctx, auditEventPasswordResetRequest, "", "", nil)
		return nil
	}
	if err != nil {
		e.logger.Error("password reset lookup failed", zap.Error(err))
		e.recordAudit(ctx, auditEventPasswordResetRequest, "", "", err)
		return err
	}
	if user.IsDeleted {
		e.recordAudit(ctx, auditEventPasswordResetRequest, "", "", nil)
		return nil
	}

	token, err := e.issueChallenge(ctx, stores.PurposePasswordReset, user.ID, e.config.PasswordReset.TTL)
	if err != nil {
		e.logger.Error("password reset challenge failed", zap.String("user_id", user.ID), zap.Error(err))
		e.recordAudit(ctx, auditEventPasswordResetRequest, "", "", nil)
		return nil
	}
	if err := e.notifier.SendPasswordReset(ctx, user, token); err != nil {
		e.logger.Error("password reset delivery failed", zap.String("user_id", user.ID), zap.Error(err))
	}

	e.recordAudit(ctx, auditEventPasswordResetRequest, user.ID, user.TenantID, nil)
	return nil
}

// ConfirmPasswordReset consumes a reset token and stores the new password.
// The token survives a rejected new password so the user can retry.
func (e *Engine) ConfirmPasswordReset(ctx context.Context, req ResetPasswordRequest) error {
	if !e.config.PasswordReset.Enabled {
		return ErrFeatureDisabled
	}

	userID, err := e.confirmPasswordReset(ctx, req)
	if err != nil {
		e.metricInc(MetricPasswordResetConfirmFailure)
		e.recordAudit(ctx, auditEventPasswordResetConfirm, userID, "", err)
		return err
	}

	e.metricInc(MetricPasswordResetConfirmSuccess)
	e.recordAudit(ctx, auditEventPasswordResetConfirm, userID, "", nil)
	return nil
}

func (e *Engine) confirmPasswordReset(ctx context.Context, req ResetPasswordRequest) (string, error) {
	id, hash, err := internal.ParseChallengeToken(req.Token)
	if err != nil {
		return "", ErrChallengeInvalid
	}
	if req.NewPassword != req.ConfirmPassword {
		return "", ErrPasswordMismatch
	}
	if err := e.checkPasswordPolicy(req.NewPassword); err != nil {
		return "", err
	}

	record, err := e.challenges.Consume(ctx, stores.PurposePasswordReset, id, hash, e.config.PasswordReset.MaxAttempts)
	if err != nil {
		return "", challengeError(err)
	}

	newHash, err := e.hasher.Hash(ctx, req.NewPassword)
	if err != nil {
		return record.UserID, err
	}
	if err := e.store.UpdatePassword(ctx, record.UserID, newHash, e.now().UTC()); err != nil {
		return record.UserID, err
	}
	if err := e.store.ResetFailedLoginAttempts(ctx, record.UserID); err != nil {
		return record.UserID, err
	}
	return record.UserID, nil
}

// ResendVerification issues a new verification token for an unverified
// account. Like RequestPasswordReset it succeeds after the enumeration
// floor unless the lookup itself fails.
func (e *Engine) ResendVerification(ctx context.Context, email string) error {
	if !e.config.EmailVerification.Enabled {
		return ErrFeatureDisabled
	}
	start := time.Now()
	defer e.padResponse(ctx, start)

	email = normalizeEmail(email)
	user, err := e.store.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		e.metricInc(MetricEmailVerificationRequest)
		return nil
	}
	if err != nil {
		e.logger.Error("verification lookup failed", zap.Error(err))
		return err
	}
	if user.IsDeleted || user.EmailVerificationStatus == EmailVerified {
		e.metricInc(MetricEmailVerificationRequest)
		return nil
	}

	e.sendVerification(ctx, user)
	return nil
}

// sendVerification issues and delivers a verification token. Failures are
// logged only.
func (e *Engine) sendVerification(ctx context.Context, user *User) {
	e.metricInc(MetricEmailVerificationRequest)

	token, err := e.issueChallenge(ctx, stores.PurposeEmailVerification, user.ID, e.config.EmailVerification.TTL)
	if err != nil {
		e.logger.Error("verification challenge failed", zap.String("user_id", user.ID), zap.Error(err))
		return
	}
	if err := e.notifier.SendEmailVerification(ctx, user, token); err != nil {
		e.logger.Error("verification delivery failed", zap.String("user_id", user.ID), zap.Error(err))
	}
	e.recordAudit(ctx, auditEventEmailVerificationRequest, user.ID, user.TenantID, nil)
}

// VerifyEmail consumes a verification token and activates the account.
func (e *Engine) VerifyEmail(ctx context.Context, token string) error {
	if !e.config.EmailVerification.Enabled {
		return ErrFeatureDisabled
	}

	userID, err := e.verifyEmail(ctx, token)
	if err != nil {
		e.metricInc(MetricEmailVerificationFailure)
		e.recordAudit(ctx, auditEventEmailVerificationConfirm, userID, "", err)
		return err
	}

	e.metricInc(MetricEmailVerificationSuccess)
	e.recordAudit(ctx, auditEventEmailVerificationConfirm, userID, "", nil)
	return nil
}

func (e *Engine) verifyEmail(ctx context.Context, token string) (string, error) {
	id, hash, err := internal.ParseChallengeToken(token)
	if err != nil {
		return "", ErrChallengeInvalid
	}

	record, err := e.challenges.Consume(ctx, stores.PurposeEmailVerification, id, hash, e.config.EmailVerification.MaxAttempts)
	if err != nil {
		return "", challengeError(err)
	}
	if err := e.store.MarkEmailVerified(ctx, record.UserID, e.now().UTC()); err != nil {
		return record.UserID, err
	}
	return record.UserID, nil
}

func (e *Engine) issueChallenge(ctx context.Context, purpose stores.Purpose, userID string, ttl time.Duration) (string, error) {
	id, token, hash, err := internal.NewChallengeToken()
	if err != nil {
		return "", err
	}

	record := &stores.ChallengeRecord{
		UserID:     userID,
		SecretHash: hash,
		ExpiresAt:  time.Now().Add(ttl).Unix(),
		Purpose:    purpose,
	}
	if err := e.challenges.Save(ctx, id, record, ttl); err != nil {
		return "", err
	}
	return token, nil
}

func challengeError(err error) error {
	switch {
	case errors.Is(err, stores.ErrChallengeNotFound),
		errors.Is(err, stores.ErrChallengeMismatch),
		errors.Is(err, stores.ErrChallengeAttemptsExceeded):
		return ErrChallengeInvalid
	default:
		return err
	}
}

// padResponse blocks until the enumeration floor has passed since start or
// ctx ends.
func (e *Engine) padResponse(ctx context.Context, start time.Time) {
	remaining := e.config.Security.EnumerationFloor - time.Since(start)
	if remaining <= 0 {
		return
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
