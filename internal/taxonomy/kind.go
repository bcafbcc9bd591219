// Package taxonomy converts vendor-specific failure shapes into a closed
// set of canonical error kinds with self-contained remediation metadata.
package taxonomy

import "fmt"

// Kind is the closed enumeration of canonical error kinds. Every failure
// surfaced to a caller is exactly one of these.
type Kind string

const (
	KindInvalidAPIKey          Kind = "INVALID_API_KEY"
	KindInsufficientQuota      Kind = "INSUFFICIENT_QUOTA"
	KindBillingHardLimit       Kind = "BILLING_HARD_LIMIT"
	KindPaymentRequired        Kind = "PAYMENT_REQUIRED"
	KindRateLimitExceeded      Kind = "RATE_LIMIT_EXCEEDED"
	KindDailyLimitReached      Kind = "DAILY_LIMIT_REACHED"
	KindModelNotFound          Kind = "MODEL_NOT_FOUND"
	KindContextLengthExceeded  Kind = "CONTEXT_LENGTH_EXCEEDED"
	KindNetworkError           Kind = "NETWORK_ERROR"
	KindTimeout                Kind = "TIMEOUT"
	KindServiceUnavailable     Kind = "SERVICE_UNAVAILABLE"
	KindContentPolicyViolation Kind = "CONTENT_POLICY_VIOLATION"
	KindPromptInjection        Kind = "PROMPT_INJECTION_DETECTED"
	KindCORSError              Kind = "CORS_ERROR"
	KindUnknown                Kind = "UNKNOWN_ERROR"
)

// CanonicalError is the single error type surfaced to callers. It is
// constructed fresh per failure and never mutated afterwards; everything
// needed to present it is on the struct.
type CanonicalError struct {
	Kind          Kind
	Icon          string
	Title         string
	Message       string
	Remediations  []string
	Alternatives  []Alternative
	ProviderLinks map[string]string
	AutoRetry     bool
	RetryDelayMs  int

	// Origin of the failure, kept for logging.
	Provider string
	Status   int
}

// Alternative names a free-tier provider the caller can switch to.
type Alternative struct {
	ProviderID string
	Name       string
	Note       string
}

func (e *CanonicalError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Provider, e.Message)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}
