package taxonomy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_HTTPStatusFallback(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		provider string
		expected Kind
	}{
		{"401 unauthorized", 401, "openai", KindInvalidAPIKey},
		{"403 forbidden", 403, "groq", KindInvalidAPIKey},
		{"402 payment", 402, "openrouter", KindPaymentRequired},
		{"404 model", 404, "mistral", KindModelNotFound},
		{"413 too large", 413, "openai", KindContextLengthExceeded},
		{"429 rate limit", 429, "deepseek", KindRateLimitExceeded},
		{"500 server", 500, "together", KindServiceUnavailable},
		{"503 unavailable", 503, "anthropic", KindServiceUnavailable},
		{"529 overloaded", 529, "anthropic", KindServiceUnavailable},
		{"504 gateway timeout", 504, "openai", KindTimeout},
		{"418 teapot", 418, "openai", KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce := Map(tt.status, nil, tt.provider)
			assert.Equal(t, tt.expected, ce.Kind)
		})
	}
}

func TestMap_VendorCodePriority(t *testing.T) {
	// a 429 whose body names insufficient_quota is a quota error, not a
	// rate limit
	body := []byte(`{"error":{"code":"insufficient_quota","message":"You exceeded your current quota"}}`)

	ce := Map(429, body, "openai")

	assert.Equal(t, KindInsufficientQuota, ce.Kind)
	assert.Equal(t, "You exceeded your current quota", ce.Message)
	assert.NotEmpty(t, ce.Alternatives)
}

func TestMap_VendorTypeField(t *testing.T) {
	body := []byte(`{"error":{"type":"authentication_error","message":"invalid x-api-key"}}`)

	ce := Map(401, body, "anthropic")

	assert.Equal(t, KindInvalidAPIKey, ce.Kind)
	assert.Equal(t, "https://console.anthropic.com/settings/keys", ce.ProviderLinks["anthropic"])
}

func TestMap_GoogleStatusString(t *testing.T) {
	body := []byte(`{"error":{"code":429,"status":"RESOURCE_EXHAUSTED","message":"Quota exceeded"}}`)

	ce := Map(429, body, "gemini")

	assert.Equal(t, KindRateLimitExceeded, ce.Kind)
	assert.True(t, ce.AutoRetry)
	assert.Equal(t, 5000, ce.RetryDelayMs)
}

func TestMap_DailyLimitHeuristic(t *testing.T) {
	body := []byte(`{"error":{"message":"Rate limit reached: requests per day exceeded"}}`)

	ce := Map(429, body, "groq")

	assert.Equal(t, KindDailyLimitReached, ce.Kind)
}

func TestMap_HuggingFaceFlatError(t *testing.T) {
	ce := Map(503, []byte(`{"error":"Model meta-llama is currently loading"}`), "huggingface")

	assert.Equal(t, KindServiceUnavailable, ce.Kind)
	assert.Equal(t, "Model meta-llama is currently loading", ce.Message)
}

func TestMap_Deterministic(t *testing.T) {
	body := []byte(`{"error":{"code":"rate_limit_exceeded","message":"slow down"}}`)

	first := Map(429, body, "openai")
	for i := 0; i < 10; i++ {
		again := Map(429, body, "openai")
		require.Equal(t, first.Kind, again.Kind)
		require.Equal(t, first.Message, again.Message)
		require.Equal(t, first.Remediations, again.Remediations)
	}
}

func TestMap_RateLimitAutoRetry(t *testing.T) {
	for _, provider := range []string{"openai", "groq", "mistral", "deepseek", "openrouter", "together", "cerebras", "perplexity"} {
		ce := Map(429, nil, provider)
		require.Equal(t, KindRateLimitExceeded, ce.Kind, provider)
		require.True(t, ce.AutoRetry, provider)

		ce = Map(401, nil, provider)
		require.Equal(t, KindInvalidAPIKey, ce.Kind, provider)
	}
}

func TestMap_AlternativesExcludeFailingProvider(t *testing.T) {
	ce := Map(401, nil, "groq")

	for _, alt := range ce.Alternatives {
		assert.NotEqual(t, "groq", alt.ProviderID)
	}
}

func TestMapTransport(t *testing.T) {
	assert.Equal(t, KindTimeout, MapTransport(context.DeadlineExceeded, "openai").Kind)
	assert.Equal(t, KindNetworkError, MapTransport(context.Canceled, "openai").Kind)
	assert.Equal(t, KindNetworkError, MapTransport(errors.New("connection refused"), "openai").Kind)
	assert.Equal(t, KindCORSError, MapTransport(errors.New("blocked by CORS policy"), "anthropic").Kind)
}

func TestNew_Guardrail(t *testing.T) {
	ce := New(KindPromptInjection, "", "forbidden_pattern")

	assert.Equal(t, KindPromptInjection, ce.Kind)
	assert.False(t, ce.AutoRetry)
	assert.NotEmpty(t, ce.Title)
}

func TestCanonicalError_Error(t *testing.T) {
	ce := Map(401, nil, "openai")
	assert.Contains(t, ce.Error(), "INVALID_API_KEY")
	assert.Contains(t, ce.Error(), "openai")
}
