package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropic_Generate(t *testing.T) {
	var gotBody map[string]any
	var gotHeaders http.Header

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		writeSSE(t, w,
			`{"type":"message_start","message":{"id":"msg_1"}}`,
			`{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`,
			`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Paella"}}`,
			`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":" valenciana"}}`,
			`{"type":"content_block_stop","index":0}`,
			`{"type":"message_stop"}`,
		)
	}))
	defer srv.Close()

	adapter := newAnthropicAdapter(Options{Client: srv.Client()})
	adapter.call.desc.BaseURL = srv.URL
	adapter.call.desc.RequiresRelay = false

	s, err := adapter.Generate(context.Background(), GenerateRequest{
		SystemPrompt: "You are a chef.",
		UserPrompt:   "Seafood rice",
		Temperature:  0.6,
	}, "sk-ant-test")
	require.NoError(t, err)

	assert.Equal(t, []string{"Paella", " valenciana"}, collectChunks(t, s))

	// auth is x-api-key + version header, not a bearer token
	assert.Equal(t, "sk-ant-test", gotHeaders.Get("x-api-key"))
	assert.Equal(t, "2023-06-01", gotHeaders.Get("anthropic-version"))
	assert.Empty(t, gotHeaders.Get("Authorization"))

	// system prompt is a top-level field, not a system-role message
	assert.Equal(t, "You are a chef.", gotBody["system"])
	messages := gotBody["messages"].([]any)
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].(map[string]any)["role"])

	// max_tokens is mandatory and defaulted when unset
	assert.InDelta(t, 4096, gotBody["max_tokens"], 0.001)
}

func TestGemini_Generate(t *testing.T) {
	var gotBody map[string]any
	var gotQuery string
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")

		// incremental JSON array, not SSE
		_, _ = io.WriteString(w, `[{"candidates":[{"content":{"parts":[{"text":"Gazpacho"}]}}]},`)
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":" andaluz"}]}}]}]`)
	}))
	defer srv.Close()

	adapter := newGeminiAdapter(Options{Client: srv.Client()})
	adapter.call.desc.BaseURL = srv.URL

	s, err := adapter.Generate(context.Background(), GenerateRequest{
		SystemPrompt: "You are a chef.",
		UserPrompt:   "Cold soup",
	}, "AIza-test")
	require.NoError(t, err)

	assert.Equal(t, []string{"Gazpacho", " andaluz"}, collectChunks(t, s))

	// key rides in the URL query, no auth header
	assert.Equal(t, "key=AIza-test", gotQuery)
	assert.Empty(t, gotAuth)

	contents := gotBody["contents"].([]any)
	require.Len(t, contents, 1)
	first := contents[0].(map[string]any)
	assert.Equal(t, "user", first["role"])
	parts := first["parts"].([]any)
	assert.Equal(t, "Cold soup", parts[0].(map[string]any)["text"])

	assert.NotNil(t, gotBody["systemInstruction"])
	assert.Len(t, gotBody["safetySettings"].([]any), 4)
}

func TestHuggingFace_TGITokenStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "data:{\"token\":{\"text\":\"Tor\",\"special\":false}}\n")
		_, _ = io.WriteString(w, "data:{\"token\":{\"text\":\"tilla\",\"special\":false}}\n")
		_, _ = io.WriteString(w, "data:{\"token\":{\"text\":\"</s>\",\"special\":true},\"generated_text\":\"Tortilla\"}\n")
	}))
	defer srv.Close()

	adapter := newHuggingFaceAdapter(Options{Client: srv.Client()})
	adapter.call.desc.BaseURL = srv.URL
	adapter.call.desc.RequiresRelay = false

	s, err := adapter.Generate(context.Background(), GenerateRequest{UserPrompt: "Eggs and potatoes"}, "hf_test")
	require.NoError(t, err)

	assert.Equal(t, []string{"Tor", "tilla"}, collectChunks(t, s))
}

func TestHuggingFace_BufferedArrayShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"generated_text":"Tortilla de patatas"}]`)
	}))
	defer srv.Close()

	adapter := newHuggingFaceAdapter(Options{Client: srv.Client()})
	adapter.call.desc.BaseURL = srv.URL
	adapter.call.desc.RequiresRelay = false

	s, err := adapter.Generate(context.Background(), GenerateRequest{UserPrompt: "Eggs"}, "hf_test")
	require.NoError(t, err)

	assert.Equal(t, []string{"Tortilla de patatas"}, collectChunks(t, s))
}

func TestRegistry_AllProvidersRegistered(t *testing.T) {
	registry := NewRegistry(Options{})

	expected := []string{
		"anthropic", "cerebras", "deepseek", "gemini", "groq", "huggingface",
		"mistral", "openai", "openrouter", "perplexity", "together",
	}
	assert.Equal(t, expected, registry.List())

	for _, id := range expected {
		adapter, ok := registry.Get(id)
		require.True(t, ok, id)
		assert.Equal(t, id, adapter.Name())
		assert.Equal(t, id, adapter.Descriptor().ID)
		assert.NotEmpty(t, adapter.Descriptor().BaseURL, id)
		assert.NotEmpty(t, defaultModels[id], "default model for %s", id)
		assert.NotEmpty(t, staticModels(id), "static models for %s", id)
	}

	_, ok := registry.Get("unknown")
	assert.False(t, ok)
}

func TestRegistry_RelayFlagConsistency(t *testing.T) {
	registry := NewRegistry(Options{})

	for _, id := range registry.List() {
		adapter, _ := registry.Get(id)
		assert.Equal(t, adapter.Descriptor().RequiresRelay, adapter.NeedsRelay(), id)
	}
}

func TestEndpointURLs(t *testing.T) {
	registry := NewRegistry(Options{})

	tests := []struct {
		provider string
		model    string
		expected string
	}{
		{"openai", "", "https://api.openai.com/v1/chat/completions"},
		{"groq", "ignored", "https://api.groq.com/openai/v1/chat/completions"},
		{"anthropic", "", "https://api.anthropic.com/v1/messages"},
		{"gemini", "gemini-2.0-flash", "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:streamGenerateContent"},
		{"huggingface", "mistralai/Mistral-7B-Instruct-v0.3", "https://api-inference.huggingface.co/models/mistralai/Mistral-7B-Instruct-v0.3"},
	}

	for _, tt := range tests {
		adapter, ok := registry.Get(tt.provider)
		require.True(t, ok)
		assert.Equal(t, tt.expected, adapter.EndpointURL(tt.model), tt.provider)
	}
}

func TestContextWindowFor(t *testing.T) {
	assert.Equal(t, 128000, ContextWindowFor("openai", "gpt-4o-mini"))
	assert.Equal(t, 128000, ContextWindowFor("openai", "")) // default model
	assert.Equal(t, 8192, ContextWindowFor("openai", "unknown-model"))
	assert.Equal(t, 200000, ContextWindowFor("anthropic", ""))
}
