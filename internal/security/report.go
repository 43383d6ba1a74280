package security

import "time"

// Recommended floors below which a report raises a warning.
const (
	MinRecommendedBcryptCost = 12
	MaxRecommendedAccessTTL  = time.Hour
)

// PasswordReport summarises the hashing configuration.
type PasswordReport struct {
	Algorithm string
	Cost      int
	MinLength int
}

// Report summarizes the security posture of a configured engine. It is
// derived from configuration only and holds no secrets.
type Report struct {
	SigningAlgorithm         string
	AccessTTL                time.Duration
	RefreshTTL               time.Duration
	SeparateRefreshSecret    bool
	Password                 PasswordReport
	LockoutThreshold         int
	MaskAccountState         bool
	RevocationActive         bool
	LoginThrottleActive      bool
	EmailVerificationActive  bool
	PasswordResetActive      bool
	EnumerationPaddingActive bool
	AuditActive              bool
	Warnings                 []string
}

// ReportInput is the configuration BuildReport inspects.
type ReportInput struct {
	SigningAlgorithm         string
	AccessTTL                time.Duration
	RefreshTTL               time.Duration
	SeparateRefreshSecret    bool
	Password                 PasswordReport
	LockoutThreshold         int
	MaskAccountState         bool
	RevocationEnabled        bool
	EnableLoginThrottle      bool
	MaxLoginAttempts         int
	LoginCooldownDuration    time.Duration
	EmailVerificationEnabled bool
	PasswordResetEnabled     bool
	EnumerationFloor         time.Duration
	AuditEnabled             bool
}

// BuildReport describes the effective security posture of input and
// lists the warnings it raises.
func BuildReport(input ReportInput) Report {
	throttle := input.EnableLoginThrottle &&
		input.MaxLoginAttempts > 0 &&
		input.LoginCooldownDuration > 0

	r := Report{
		SigningAlgorithm:         input.SigningAlgorithm,
		AccessTTL:                input.AccessTTL,
		RefreshTTL:               input.RefreshTTL,
		SeparateRefreshSecret:    input.SeparateRefreshSecret,
		Password:                 input.Password,
		LockoutThreshold:         input.LockoutThreshold,
		MaskAccountState:         input.MaskAccountState,
		RevocationActive:         input.RevocationEnabled,
		LoginThrottleActive:      throttle,
		EmailVerificationActive:  input.EmailVerificationEnabled,
		PasswordResetActive:      input.PasswordResetEnabled,
		EnumerationPaddingActive: input.EnumerationFloor > 0,
		AuditActive:              input.AuditEnabled,
	}

	if !r.SeparateRefreshSecret {
		r.Warnings = append(r.Warnings, "refresh tokens share the access token secret")
	}
	if r.Password.Cost < MinRecommendedBcryptCost {
		r.Warnings = append(r.Warnings, "bcrypt cost below recommended minimum")
	}
	if r.AccessTTL > MaxRecommendedAccessTTL {
		r.Warnings = append(r.Warnings, "access token lifetime above one hour")
	}
	if !r.RevocationActive {
		r.Warnings = append(r.Warnings, "logout cannot revoke issued tokens")
	}
	if (r.PasswordResetActive || r.EmailVerificationActive) && !r.EnumerationPaddingActive {
		r.Warnings = append(r.Warnings, "recovery endpoints are not padded against enumeration")
	}
	return r
}
