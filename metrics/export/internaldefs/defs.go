package internaldefs

import (
	authplane "github.com/mwheeler712/authplane"
)

// CounterDef binds an engine counter to its exported name.
type CounterDef struct {
	ID   authplane.MetricID
	Name string
	Help string
}

// HistogramDef binds an engine histogram to its exported name.
type HistogramDef struct {
	ID   authplane.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: authplane.MetricLoginSuccess, Name: "authplane_login_success_total", Help: "Successful login attempts."},
	{ID: authplane.MetricLoginFailure, Name: "authplane_login_failure_total", Help: "Failed login attempts."},
	{ID: authplane.MetricSignupSuccess, Name: "authplane_signup_success_total", Help: "Successful signups."},
	{ID: authplane.MetricSignupDuplicate, Name: "authplane_signup_duplicate_total", Help: "Signups rejected as duplicate."},
	{ID: authplane.MetricRefreshSuccess, Name: "authplane_refresh_success_total", Help: "Successful token refreshes."},
	{ID: authplane.MetricRefreshFailure, Name: "authplane_refresh_failure_total", Help: "Failed token refreshes."},
	{ID: authplane.MetricValidateSuccess, Name: "authplane_validate_success_total", Help: "Tokens that passed validation."},
	{ID: authplane.MetricValidateFailure, Name: "authplane_validate_failure_total", Help: "Tokens that failed validation."},
	{ID: authplane.MetricTokenRevoked, Name: "authplane_token_revoked_total", Help: "Single-token revocations."},
	{ID: authplane.MetricTokenRevokedHit, Name: "authplane_token_revoked_hit_total", Help: "Validations rejected by revocation state."},
	{ID: authplane.MetricUserRevocations, Name: "authplane_user_revocations_total", Help: "Per-subject mass revocations."},
	{ID: authplane.MetricRateLimitAllowed, Name: "authplane_rate_limit_allowed_total", Help: "Rate limit checks that admitted requests."},
	{ID: authplane.MetricRateLimitDenied, Name: "authplane_rate_limit_denied_total", Help: "Rate limit checks that denied requests."},
	{ID: authplane.MetricRateLimitDegraded, Name: "authplane_rate_limit_degraded_total", Help: "Rate limit checks that failed open on store faults."},
	{ID: authplane.MetricRevocationDegraded, Name: "authplane_revocation_degraded_total", Help: "Revocation reads that failed open on store faults."},
	{ID: authplane.MetricPasswordChangeSuccess, Name: "authplane_password_change_success_total", Help: "Successful password changes."},
	{ID: authplane.MetricPasswordChangeInvalidOld, Name: "authplane_password_change_invalid_old_total", Help: "Password change attempts with invalid old password."},
}

var HistogramDefs = []HistogramDef{
	{ID: authplane.MetricValidateLatency, Name: "authplane_validate_latency_seconds", Help: "Validate latency histogram."},
}

var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw snapshot slice to the fixed
// bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to the cumulative form the
// exposition formats expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
