package internaldefs

import (
	"github.com/ufacm/checkin"
)

// Def names one exported series.
type Def struct {
	ID   checkin.MetricID
	Name string
	Help string
}

// Counters lists every counter in export order.
var Counters = []Def{
	{ID: checkin.MetricSignupSuccess, Name: "checkin_signup_success_total", Help: "Accepted signups."},
	{ID: checkin.MetricSignupFailure, Name: "checkin_signup_failure_total", Help: "Rejected or failed signups."},
	{ID: checkin.MetricSignupDuplicate, Name: "checkin_signup_duplicate_total", Help: "Signups for an already confirmed address."},
	{ID: checkin.MetricOTPIssued, Name: "checkin_otp_issued_total", Help: "One-time codes issued."},
	{ID: checkin.MetricOTPSendFailure, Name: "checkin_otp_send_failure_total", Help: "One-time codes that could not be delivered."},
	{ID: checkin.MetricOTPVerifySuccess, Name: "checkin_otp_verify_success_total", Help: "Successful code confirmations."},
	{ID: checkin.MetricOTPVerifyFailure, Name: "checkin_otp_verify_failure_total", Help: "Failed code confirmations."},
	{ID: checkin.MetricOTPAttemptsExceeded, Name: "checkin_otp_attempts_exceeded_total", Help: "Codes discarded after too many wrong guesses."},
	{ID: checkin.MetricOTPResend, Name: "checkin_otp_resend_total", Help: "Accepted resend requests."},
	{ID: checkin.MetricSignInSuccess, Name: "checkin_signin_success_total", Help: "Successful password sign-ins."},
	{ID: checkin.MetricSignInFailure, Name: "checkin_signin_failure_total", Help: "Failed password sign-ins."},
	{ID: checkin.MetricSignInLocked, Name: "checkin_signin_locked_total", Help: "Sign-ins refused by the lockout."},
	{ID: checkin.MetricSessionCreated, Name: "checkin_session_created_total", Help: "Sessions issued."},
	{ID: checkin.MetricSessionRejected, Name: "checkin_session_rejected_total", Help: "Session tokens that did not resolve to a user."},
	{ID: checkin.MetricSignOut, Name: "checkin_signout_total", Help: "Sessions revoked by sign-out."},
	{ID: checkin.MetricAdminCreateUser, Name: "checkin_admin_create_user_total", Help: "Identities created by the provisioning path."},
	{ID: checkin.MetricAdminGenerateLink, Name: "checkin_admin_generate_link_total", Help: "Codes issued by the provisioning path."},
	{ID: checkin.MetricRateLimitHit, Name: "checkin_rate_limit_hit_total", Help: "Requests denied by a throttle."},
}

// Histograms lists every latency histogram.
var Histograms = []Def{
	{ID: checkin.MetricGetUserLatency, Name: "checkin_get_user_latency_seconds", Help: "Session resolution latency."},
}

// AuditDropped is exported next to the engine counters.
var AuditDropped = Def{Name: "checkin_audit_dropped_total", Help: "Audit events dropped because the dispatcher buffer was full."}

// Bounds are the upper bucket bounds in seconds, matching the engine's
// millisecond buckets. Suffixes are the same bounds usable in instrument
// names.
var (
	Bounds   = [8]string{"0.005", "0.01", "0.025", "0.05", "0.1", "0.25", "0.5", "+Inf"}
	Suffixes = [8]string{"0_005", "0_01", "0_025", "0_05", "0_1", "0_25", "0_5", "inf"}
)

// Cumulative converts per-bucket counts into cumulative counts. Missing
// buckets count as zero.
func Cumulative(raw []uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := range out {
		if i < len(raw) {
			running += raw[i]
		}
		out[i] = running
	}
	return out
}
