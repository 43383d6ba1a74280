package recipeAuth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/MrEthical07/recipeAuth/password"
	"github.com/MrEthical07/recipeAuth/permission"
	"go.uber.org/zap"
)

const defaultAdminLockReason = "locked by administrator"

// Register creates an account in pending_verification state.
//
// Mismatched or weak passwords and unknown roles fail with ErrValidation
// before anything is stored. A taken email fails with ErrConflict.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	email := normalizeEmail(req.Email)

	user, err := e.register(ctx, email, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrConflict):
			e.metricInc(MetricRegisterDuplicate)
		case errors.Is(err, ErrValidation):
			e.metricInc(MetricRegisterInvalid)
		}
		e.recordAudit(ctx, auditEventRegisterFailure, "", req.TenantID, err)
		return nil, err
	}

	e.metricInc(MetricRegisterSuccess)
	e.recordAudit(ctx, auditEventRegisterSuccess, user.ID, user.TenantID, nil, "role", user.Role.String())

	if e.config.EmailVerification.Enabled && e.config.EmailVerification.SendOnRegister {
		e.sendVerification(ctx, user)
	}

	result := &RegisterResult{User: user}
	if e.config.Account.IssueTokensOnRegister {
		tokens, err := e.issuePair(user)
		if err != nil {
			return nil, err
		}
		result.Tokens = tokens
	}
	return result, nil
}

func (e *Engine) register(ctx context.Context, email string, req RegisterRequest) (*User, error) {
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if req.Password != req.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if err := e.checkPasswordPolicy(req.Password); err != nil {
		return nil, err
	}

	role := e.config.Account.DefaultRole
	if strings.TrimSpace(req.Role) != "" {
		parsed, ok := permission.ParseRole(req.Role)
		if !ok {
			return nil, ErrInvalidRole
		}
		role = parsed
	}

	exists, err := e.store.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := e.hasher.Hash(ctx, req.Password)
	if err != nil {
		if errors.Is(err, password.ErrTooShort) || errors.Is(err, password.ErrTooLong) {
			return nil, fmt.Errorf("%w: %v", ErrPasswordPolicy, err)
		}
		return nil, err
	}

	return e.store.Create(ctx, CreateUserInput{
		Email:                   email,
		PasswordHash:            hash,
		Role:                    role,
		TenantID:                strings.TrimSpace(req.TenantID),
		Status:                  StatusPendingVerification,
		EmailVerificationStatus: EmailUnverified,
		IsActive:                true,
	})
}

func validateEmail(email string) error {
	if email == "" {
		return ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}

// checkPasswordPolicy rejects passwords below the configured length or the
// strength threshold. The error carries the strength feedback.
func (e *Engine) checkPasswordPolicy(plaintext string) error {
	if len(plaintext) < e.config.Password.MinLength {
		return fmt.Errorf("%w: at least %d characters required", ErrPasswordPolicy, e.config.Password.MinLength)
	}
	strength := password.Evaluate(plaintext)
	if !strength.IsValid {
		return fmt.Errorf("%w: %s", ErrPasswordPolicy, strings.Join(strength.Feedback, "; "))
	}
	return nil
}

// ChangePassword replaces the password of an authenticated user after
// re-verifying the current one.
func (e *Engine) ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) (bool, error) {
	user, err := e.store.FindByID(ctx, userID)
	if err != nil {
		return false, err
	}

	if err := e.changePassword(ctx, user, req); err != nil {
		e.metricInc(MetricPasswordChangeFailure)
		e.recordAudit(ctx, auditEventPasswordChangeFailure, user.ID, user.TenantID, err)
		return false, err
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.recordAudit(ctx, auditEventPasswordChangeSuccess, user.ID, user.TenantID, nil)
	return true, nil
}

func (e *Engine) changePassword(ctx context.Context, user *User, req ChangePasswordRequest) error {
	ok, err := e.hasher.Verify(ctx, req.CurrentPassword, user.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCredentials
	}
	if req.NewPassword != req.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if err := e.checkPasswordPolicy(req.NewPassword); err != nil {
		return err
	}
	if req.NewPassword == req.CurrentPassword {
		return ErrPasswordReuse
	}

	hash, err := e.hasher.Hash(ctx, req.NewPassword)
	if err != nil {
		return err
	}
	return e.store.UpdatePassword(ctx, user.ID, hash, e.now().UTC())
}

// LockAccount locks userID administratively. An empty reason gets a default.
func (e *Engine) LockAccount(ctx context.Context, userID, reason string) error {
	if strings.TrimSpace(reason) == "" {
		reason = defaultAdminLockReason
	}
	if err := e.store.Lock(ctx, userID, reason, e.now().UTC()); err != nil {
		return err
	}

	e.metricInc(MetricAccountLocked)
	e.logger.Info("account locked", zap.String("user_id", userID), zap.String("actor_id", actorIDFromContext(ctx)))
	e.recordAudit(ctx, auditEventAccountLocked, userID, "", nil, "source", "administrator", "reason", reason)
	return nil
}

// UnlockAccount clears a lock and zeroes the failed-attempt counter.
func (e *Engine) UnlockAccount(ctx context.Context, userID string) error {
	if err := e.store.Unlock(ctx, userID); err != nil {
		return err
	}

	e.metricInc(MetricAccountUnlocked)
	e.logger.Info("account unlocked", zap.String("user_id", userID), zap.String("actor_id", actorIDFromContext(ctx)))
	e.recordAudit(ctx, auditEventAccountUnlocked, userID, "", nil)
	return nil
}

// ResetFailedLoginAttempts zeroes the counter. Calling it on a user with no
// failures is a no-op.
func (e *Engine) ResetFailedLoginAttempts(ctx context.Context, userID string) error {
	if err := e.store.ResetFailedLoginAttempts(ctx, userID); err != nil {
		return err
	}
	e.recordAudit(ctx, auditEventFailedAttemptsReset, userID, "", nil)
	return nil
}

// CheckPasswordStrength scores plaintext and lists feedback for weak
// choices. Nothing is hashed or stored.
func (e *Engine) CheckPasswordStrength(plaintext string) password.Strength {
	return password.Evaluate(plaintext)
}

// GenerateSecurePassword returns a random password with every character
// class. A length of zero uses the default length.
func (e *Engine) GenerateSecurePassword(length int) (string, error) {
	return password.Generate(length)
}
