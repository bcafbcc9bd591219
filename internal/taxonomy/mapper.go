package taxonomy

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
)

// vendorCodeTables maps machine-readable error codes per provider family.
// These take priority over everything else because they are the most
// specific signal a vendor gives us.
var vendorCodeTables = map[string]map[string]Kind{
	"openai": {
		"invalid_api_key":            KindInvalidAPIKey,
		"account_deactivated":        KindInvalidAPIKey,
		"insufficient_quota":         KindInsufficientQuota,
		"billing_hard_limit_reached": KindBillingHardLimit,
		"rate_limit_exceeded":        KindRateLimitExceeded,
		"model_not_found":            KindModelNotFound,
		"context_length_exceeded":    KindContextLengthExceeded,
		"content_policy_violation":   KindContentPolicyViolation,
		"server_error":               KindServiceUnavailable,
	},
	"anthropic": {
		"authentication_error": KindInvalidAPIKey,
		"permission_error":     KindInvalidAPIKey,
		"rate_limit_error":     KindRateLimitExceeded,
		"not_found_error":      KindModelNotFound,
		"overloaded_error":     KindServiceUnavailable,
		"api_error":            KindServiceUnavailable,
	},
	"gemini": {
		"API_KEY_INVALID": KindInvalidAPIKey,
	},
	"huggingface": {
		"authorization": KindInvalidAPIKey,
	},
}

// vendorStatusTable maps vendor status strings that appear outside a code
// field, mostly Google's canonical gRPC statuses.
var vendorStatusTable = map[string]Kind{
	"UNAUTHENTICATED":    KindInvalidAPIKey,
	"PERMISSION_DENIED":  KindInvalidAPIKey,
	"RESOURCE_EXHAUSTED": KindRateLimitExceeded,
	"NOT_FOUND":          KindModelNotFound,
	"INVALID_ARGUMENT":   KindUnknown,
	"DEADLINE_EXCEEDED":  KindTimeout,
	"UNAVAILABLE":        KindServiceUnavailable,
	"INTERNAL":           KindServiceUnavailable,
}

// httpStatusTable is the last-resort mapping when the body told us nothing.
var httpStatusTable = map[int]Kind{
	http.StatusBadRequest:          KindUnknown,
	http.StatusUnauthorized:        KindInvalidAPIKey,
	http.StatusPaymentRequired:     KindPaymentRequired,
	http.StatusForbidden:           KindInvalidAPIKey,
	http.StatusNotFound:            KindModelNotFound,
	http.StatusRequestTimeout:      KindTimeout,
	http.StatusRequestEntityTooLarge: KindContextLengthExceeded,
	http.StatusTooManyRequests:     KindRateLimitExceeded,
	http.StatusInternalServerError: KindServiceUnavailable,
	http.StatusBadGateway:          KindServiceUnavailable,
	http.StatusServiceUnavailable:  KindServiceUnavailable,
	http.StatusGatewayTimeout:      KindTimeout,
	529:                            KindServiceUnavailable, // anthropic overloaded
}

// vendorError is the superset of error body shapes we know how to read.
type vendorError struct {
	Error *struct {
		Code    json.RawMessage `json:"code"`
		Type    string          `json:"type"`
		Status  string          `json:"status"`
		Message string          `json:"message"`
	} `json:"error"`
	// Anthropic nests {type:"error", error:{...}} but the inner shape
	// matches the struct above. Hugging Face uses a bare string.
	BareError json.RawMessage `json:"-"`
}

// Map converts an HTTP failure into one canonical error. It is a pure
// function of (status, body, provider): the same triple always yields the
// same kind.
func Map(status int, body []byte, provider string) *CanonicalError {
	code, vendorStatus, message := parseErrorBody(body)

	family := codeTableFamily(provider)

	if code != "" {
		if table, ok := vendorCodeTables[family]; ok {
			if kind, ok := table[code]; ok {
				return build(kind, provider, status, message)
			}
		}
	}

	if vendorStatus != "" {
		if kind, ok := vendorStatusTable[vendorStatus]; ok {
			return build(kind, provider, status, message)
		}
	}

	// Some vendors only signal daily free-tier exhaustion in prose.
	if status == http.StatusTooManyRequests && message != "" {
		lower := strings.ToLower(message)
		if strings.Contains(lower, "daily") || strings.Contains(lower, "per day") {
			return build(KindDailyLimitReached, provider, status, message)
		}
	}

	if kind, ok := httpStatusTable[status]; ok {
		return build(kind, provider, status, message)
	}

	return build(KindUnknown, provider, status, message)
}

// MapTransport classifies a transport-level failure (no HTTP response).
func MapTransport(err error, provider string) *CanonicalError {
	switch {
	case err == nil:
		return build(KindUnknown, provider, 0, "")
	case errors.Is(err, context.DeadlineExceeded):
		return build(KindTimeout, provider, 0, "")
	case errors.Is(err, context.Canceled):
		return build(KindNetworkError, provider, 0, "request canceled")
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return build(KindTimeout, provider, 0, "")
	}

	if strings.Contains(strings.ToLower(err.Error()), "cors") {
		return build(KindCORSError, provider, 0, "")
	}

	return build(KindNetworkError, provider, 0, "")
}

// New builds a canonical error directly from a kind, for failures that
// never touched the network (guardrails, pre-flight context checks).
func New(kind Kind, provider, detail string) *CanonicalError {
	return build(kind, provider, 0, detail)
}

func parseErrorBody(body []byte) (code, status, message string) {
	if len(body) == 0 {
		return "", "", ""
	}

	var ve vendorError
	if err := json.Unmarshal(body, &ve); err != nil || ve.Error == nil {
		// Hugging Face style: {"error":"..."} or a bare string body.
		var flat struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(body, &flat); err == nil && flat.Error != "" {
			return "", "", flat.Error
		}

		return "", "", ""
	}

	message = ve.Error.Message
	status = ve.Error.Status

	// code can be a string, a number (Google), or absent
	if len(ve.Error.Code) > 0 {
		var s string
		if err := json.Unmarshal(ve.Error.Code, &s); err == nil {
			code = s
		}
	}

	if code == "" && ve.Error.Type != "" {
		code = ve.Error.Type
	}

	// Gemini nests the canonical status in details[].reason sometimes;
	// the top-level status string covers the common cases.

	return code, status, message
}

// codeTableFamily folds the OpenAI-compatible vendors onto the shared
// OpenAI code table; bespoke vendors keep their own.
func codeTableFamily(provider string) string {
	switch provider {
	case "anthropic", "gemini", "huggingface":
		return provider
	default:
		return "openai"
	}
}
