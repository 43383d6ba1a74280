package recipeAuth

import (
	"github.com/MrEthical07/recipeAuth/internal/security"
)

// SecurityReport is the posture summary returned by [Engine.SecurityReport].
type SecurityReport = security.Report

// SecurityReport derives a posture summary from the engine configuration.
// Servers typically log it once at startup.
func (e *Engine) SecurityReport() SecurityReport {
	cfg := e.config
	return security.BuildReport(security.ReportInput{
		SigningAlgorithm:      "HS256",
		AccessTTL:             cfg.JWT.AccessTTL,
		RefreshTTL:            cfg.JWT.RefreshTTL,
		SeparateRefreshSecret: !e.codec.SharedSecret(),
		Password: security.PasswordReport{
			Algorithm: "bcrypt",
			Cost:      cfg.Password.Cost,
			MinLength: cfg.Password.MinLength,
		},
		LockoutThreshold:         cfg.Lockout.Threshold,
		MaskAccountState:         cfg.Security.MaskAccountState,
		RevocationEnabled:        e.denyList != nil,
		EnableLoginThrottle:      e.throttle != nil,
		MaxLoginAttempts:         cfg.Security.MaxLoginAttempts,
		LoginCooldownDuration:    cfg.Security.LoginCooldownDuration,
		EmailVerificationEnabled: cfg.EmailVerification.Enabled,
		PasswordResetEnabled:     cfg.PasswordReset.Enabled,
		EnumerationFloor:         cfg.Security.EnumerationFloor,
		AuditEnabled:             e.audit != nil,
	})
}
