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

	"github.com/chefstream/chefstream/internal/stream"
)

func testCompatAdapter(t *testing.T, handler http.HandlerFunc) (*OpenAICompatAdapter, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	desc := Descriptor{ID: "groq", Name: "Groq", BaseURL: srv.URL}

	return newOpenAICompatAdapter(desc, Options{Client: srv.Client()}), srv
}

func writeSSE(t *testing.T, w http.ResponseWriter, lines ...string) {
	t.Helper()

	w.Header().Set("Content-Type", "text/event-stream")

	for _, line := range lines {
		_, err := io.WriteString(w, "data: "+line+"\n\n")
		require.NoError(t, err)
	}
}

func TestOpenAICompat_Generate(t *testing.T) {
	var gotBody map[string]any
	var gotAuth string

	adapter, _ := testCompatAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		writeSSE(t, w,
			`{"choices":[{"delta":{"content":"Arroz"}}]}`,
			`{"choices":[{"delta":{"content":" con pollo"}}]}`,
			`{"choices":[{"delta":{},"finish_reason":"stop"}]}`,
			`[DONE]`,
		)
	})

	s, err := adapter.Generate(context.Background(), GenerateRequest{
		SystemPrompt: "You are a chef.",
		UserPrompt:   "Chicken and rice",
		Temperature:  0.7,
		MaxTokens:    800,
	}, "gsk-test")
	require.NoError(t, err)

	chunks := collectChunks(t, s)
	assert.Equal(t, []string{"Arroz", " con pollo"}, chunks)

	assert.Equal(t, "Bearer gsk-test", gotAuth)
	assert.Equal(t, "llama-3.3-70b-versatile", gotBody["model"])
	assert.Equal(t, true, gotBody["stream"])
	assert.InDelta(t, 0.7, gotBody["temperature"], 0.001)
	assert.InDelta(t, 800, gotBody["max_tokens"], 0.001)

	messages := gotBody["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "user", messages[1].(map[string]any)["role"])
}

// collectChunks drains a stream and asserts the termination contract:
// exactly one Done chunk with empty content, then io.EOF.
func collectChunks(t *testing.T, s *Stream) []string {
	t.Helper()

	var contents []string

	for {
		chunk, err := s.Next()
		require.NoError(t, err)

		if chunk.Done {
			assert.Empty(t, chunk.Content)
			break
		}

		contents = append(contents, chunk.Content)
	}

	_, err := s.Next()
	assert.ErrorIs(t, err, io.EOF)

	return contents
}

func TestOpenAICompat_MalformedFramesSkipped(t *testing.T) {
	adapter, _ := testCompatAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		writeSSE(t, w,
			`{"choices":[{"delta":{"content":"ok"}}]}`,
			`{not json`,
			`{"choices":[{"delta":{"content":" fine"}}]}`,
			`[DONE]`,
		)
	})

	s, err := adapter.Generate(context.Background(), GenerateRequest{UserPrompt: "x"}, "k")
	require.NoError(t, err)

	assert.Equal(t, []string{"ok", " fine"}, collectChunks(t, s))
}

func TestOpenAICompat_UpstreamErrorIsRaw(t *testing.T) {
	adapter, _ := testCompatAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"invalid_api_key","message":"bad key"}}`))
	})

	_, err := adapter.Generate(context.Background(), GenerateRequest{UserPrompt: "x"}, "bad")
	require.Error(t, err)

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, 401, ue.Status)
	assert.Equal(t, "groq", ue.Provider)
	assert.Contains(t, string(ue.Body), "invalid_api_key")
}

func TestOpenAICompat_ValidateKey(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		valid     bool
		expectErr bool
	}{
		{"200 valid", 200, true, false},
		{"400 still valid", 400, true, false},
		{"401 invalid", 401, false, false},
		{"403 invalid", 403, false, false},
		{"503 inconclusive", 503, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter, _ := testCompatAdapter(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			check := adapter.ValidateKey(context.Background(), "k")
			assert.Equal(t, tt.valid, check.Valid)

			if tt.expectErr {
				assert.Error(t, check.Err)
			} else {
				assert.NoError(t, check.Err)
			}
		})
	}
}

func TestOpenAICompat_ListModels_Live(t *testing.T) {
	adapter, _ := testCompatAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":[{"id":"llama-3.3-70b-versatile"},{"id":"new-model"}]}`))
	})

	models := adapter.ListModels(context.Background(), "k")
	require.Len(t, models, 2)

	// known id gets catalog metadata, unknown id degrades to bare info
	assert.Equal(t, 128000, models[0].ContextWindow)
	assert.Equal(t, "new-model", models[1].Name)
}

func TestOpenAICompat_ListModels_FallsBack(t *testing.T) {
	adapter, _ := testCompatAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	withKey := adapter.ListModels(context.Background(), "k")
	withoutKey := adapter.ListModels(context.Background(), "")

	assert.Equal(t, staticModels("groq"), withKey)
	assert.Equal(t, staticModels("groq"), withoutKey)
	assert.NotEmpty(t, withKey)
}

func TestOpenAICompat_RelayRouting(t *testing.T) {
	var relayed *http.Request
	var relayBody []byte

	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		relayed = r.Clone(context.Background())
		relayBody, _ = io.ReadAll(r.Body)
		writeSSE(t, w, `{"choices":[{"delta":{"content":"hi"}}]}`, `[DONE]`)
	}))
	defer relay.Close()

	desc := Descriptor{ID: "mistral", BaseURL: "https://api.mistral.ai/v1", RequiresRelay: true}
	adapter := newOpenAICompatAdapter(desc, Options{RelayURL: relay.URL, Client: relay.Client()})

	s, err := adapter.Generate(context.Background(), GenerateRequest{UserPrompt: "x"}, "mk")
	require.NoError(t, err)

	assert.Equal(t, []string{"hi"}, collectChunks(t, s))

	require.NotNil(t, relayed)
	assert.Equal(t, "/relay", relayed.URL.Path)
	assert.Equal(t, "https://api.mistral.ai/v1/chat/completions", relayed.Header.Get("X-Target-URL"))
	assert.Equal(t, "mk", relayed.Header.Get("X-API-Key"))
	assert.Equal(t, "mistral", relayed.Header.Get("X-Provider"))
	assert.Contains(t, string(relayBody), `"stream":true`)
}

func TestStream_CloseAborts(t *testing.T) {
	adapter, _ := testCompatAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		writeSSE(t, w, `{"choices":[{"delta":{"content":"first"}}]}`)

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}

		<-r.Context().Done()
	})

	s, err := adapter.Generate(context.Background(), GenerateRequest{UserPrompt: "x"}, "k")
	require.NoError(t, err)

	chunk, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, "first", chunk.Content)

	// closing mid-stream must drop the upstream connection
	require.NoError(t, s.Close())

	_, err = s.Next()
	assert.Error(t, err)
}

func TestParseOpenAIFrame(t *testing.T) {
	chunk, skip, done := parseOpenAIFrame([]byte(`{"choices":[{"delta":{"content":"a"}}]}`))
	assert.Equal(t, stream.Chunk{Content: "a"}, chunk)
	assert.False(t, skip)
	assert.False(t, done)

	_, _, done = parseOpenAIFrame([]byte(`[DONE]`))
	assert.True(t, done)

	_, skip, _ = parseOpenAIFrame([]byte(`garbage`))
	assert.True(t, skip)
}
