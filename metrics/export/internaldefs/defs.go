package internaldefs

import (
	"strconv"
	"strings"

	recipeAuth "github.com/MrEthical07/recipeAuth"
)

// CounterDef names the exported series for one engine counter.
type CounterDef struct {
	ID   recipeAuth.MetricID
	Name string
	Help string
}

// HistogramDef names the exported series for one latency histogram.
type HistogramDef struct {
	ID   recipeAuth.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter for events lost to dispatcher backpressure.
const AuditDroppedName = "recipeauth_audit_dropped_total"

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: recipeAuth.MetricLoginSuccess, Name: "recipeauth_login_success_total", Help: "Successful login attempts."},
	{ID: recipeAuth.MetricLoginFailure, Name: "recipeauth_login_failure_total", Help: "Failed login attempts."},
	{ID: recipeAuth.MetricLoginRateLimited, Name: "recipeauth_login_rate_limited_total", Help: "Login attempts rejected by the throttle."},
	{ID: recipeAuth.MetricLoginAccountNotUsable, Name: "recipeauth_login_account_not_usable_total", Help: "Login attempts against locked, unverified or inactive accounts."},
	{ID: recipeAuth.MetricLockoutTriggered, Name: "recipeauth_lockout_triggered_total", Help: "Accounts locked by the failed-attempt policy."},
	{ID: recipeAuth.MetricRefreshSuccess, Name: "recipeauth_refresh_success_total", Help: "Successful token refreshes."},
	{ID: recipeAuth.MetricRefreshFailure, Name: "recipeauth_refresh_failure_total", Help: "Rejected token refreshes."},
	{ID: recipeAuth.MetricRevokedTokenRejected, Name: "recipeauth_revoked_token_rejected_total", Help: "Tokens rejected by the deny-list."},
	{ID: recipeAuth.MetricLogout, Name: "recipeauth_logout_total", Help: "Logout operations."},
	{ID: recipeAuth.MetricRegisterSuccess, Name: "recipeauth_register_success_total", Help: "Successful registrations."},
	{ID: recipeAuth.MetricRegisterDuplicate, Name: "recipeauth_register_duplicate_total", Help: "Registrations rejected for a taken email."},
	{ID: recipeAuth.MetricRegisterInvalid, Name: "recipeauth_register_invalid_total", Help: "Registrations rejected by validation."},
	{ID: recipeAuth.MetricPasswordChangeSuccess, Name: "recipeauth_password_change_success_total", Help: "Successful password changes."},
	{ID: recipeAuth.MetricPasswordChangeFailure, Name: "recipeauth_password_change_failure_total", Help: "Rejected password changes."},
	{ID: recipeAuth.MetricPasswordRehashed, Name: "recipeauth_password_rehashed_total", Help: "Hashes upgraded to the configured cost on login."},
	{ID: recipeAuth.MetricPasswordResetRequest, Name: "recipeauth_password_reset_request_total", Help: "Password reset requests."},
	{ID: recipeAuth.MetricPasswordResetConfirmSuccess, Name: "recipeauth_password_reset_confirm_success_total", Help: "Successful password reset confirmations."},
	{ID: recipeAuth.MetricPasswordResetConfirmFailure, Name: "recipeauth_password_reset_confirm_failure_total", Help: "Failed password reset confirmations."},
	{ID: recipeAuth.MetricEmailVerificationRequest, Name: "recipeauth_email_verification_request_total", Help: "Email verification requests."},
	{ID: recipeAuth.MetricEmailVerificationSuccess, Name: "recipeauth_email_verification_success_total", Help: "Successful email verifications."},
	{ID: recipeAuth.MetricEmailVerificationFailure, Name: "recipeauth_email_verification_failure_total", Help: "Failed email verifications."},
	{ID: recipeAuth.MetricAccountLocked, Name: "recipeauth_account_locked_total", Help: "Administrative account locks."},
	{ID: recipeAuth.MetricAccountUnlocked, Name: "recipeauth_account_unlocked_total", Help: "Administrative account unlocks."},
}

// HistogramDefs lists every exported histogram in a stable order.
var HistogramDefs = []HistogramDef{
	{ID: recipeAuth.MetricLoginLatency, Name: "recipeauth_login_latency_seconds", Help: "Authenticate latency."},
	{ID: recipeAuth.MetricValidateLatency, Name: "recipeauth_validate_latency_seconds", Help: "Access token validation latency."},
}

// BucketCount includes the trailing +Inf bucket.
const BucketCount = len(recipeAuth.HistogramBoundsMillis) + 1

// UpperBoundsSeconds returns the finite bucket bounds in seconds.
func UpperBoundsSeconds() []float64 {
	out := make([]float64, len(recipeAuth.HistogramBoundsMillis))
	for i, ms := range recipeAuth.HistogramBoundsMillis {
		out[i] = float64(ms) / 1000
	}
	return out
}

// BoundSuffixes returns instrument-name-safe labels for every bucket, such as
// "0_005" and "inf".
func BoundSuffixes() []string {
	out := make([]string, 0, BucketCount)
	for _, b := range UpperBoundsSeconds() {
		out = append(out, strings.ReplaceAll(strconv.FormatFloat(b, 'f', -1, 64), ".", "_"))
	}
	return append(out, "inf")
}

// NormalizeBuckets pads or truncates raw to exactly BucketCount entries.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
