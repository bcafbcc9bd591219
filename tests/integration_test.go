package tests

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chefstream/chefstream/internal/config"
	"github.com/chefstream/chefstream/internal/guardrails"
	"github.com/chefstream/chefstream/internal/providers"
	"github.com/chefstream/chefstream/internal/recipe"
	"github.com/chefstream/chefstream/internal/relay"
	"github.com/chefstream/chefstream/internal/server"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// vendorStub stands in for every allow-listed upstream host.
type vendorStub struct {
	upstream *httptest.Server
}

func (t vendorStub) RoundTrip(req *http.Request) (*http.Response, error) {
	u, err := url.Parse(t.upstream.URL)
	if err != nil {
		return nil, err
	}

	req.URL.Scheme = u.Scheme
	req.URL.Host = u.Host

	return t.upstream.Client().Transport.RoundTrip(req)
}

const generatedRecipe = `## 🍽️ Arroz con Pollo
**⏱️ Prep**: 10 min | **🍳 Cook**: 25 min | **👥 Servings**: 4
### Ingredients
- 200g chicken
- 1 cup rice
### Instructions
1. Cook rice.
2. Grill chicken.`

// TestGenerationPipelineThroughRelay drives the full path a relayed
// vendor takes: guardrails, prompt assembly, adapter, relay hop, SSE
// decoding, output validation, and recipe parsing.
func TestGenerationPipelineThroughRelay(t *testing.T) {
	// upstream vendor emitting the recipe as an SSE stream
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer mk-test", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)

		for _, line := range strings.Split(generatedRecipe, "\n") {
			payload := strings.ReplaceAll(line, `"`, `\"`)
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":\"%s\\n\"}}]}\n\n", payload)
			flusher.Flush()
		}

		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}))
	defer upstream.Close()

	relayHandler := relay.NewHandler(testLogger(), &http.Client{Transport: vendorStub{upstream: upstream}})
	relaySrv := httptest.NewServer(relayHandler)
	defer relaySrv.Close()

	registry := providers.NewRegistry(providers.Options{
		RelayURL: relaySrv.URL,
		Client:   relaySrv.Client(),
	})

	// mistral requires the relay hop
	adapter, ok := registry.Get("mistral")
	require.True(t, ok)
	require.True(t, adapter.NeedsRelay())

	validator := guardrails.New(testLogger())

	input := validator.ValidateInput("Tengo pollo y arroz")
	require.True(t, input.Valid)

	systemPrompt := guardrails.BuildSystemPrompt(guardrails.Profile{
		Allergies:  []string{"peanuts"},
		SkillLevel: "beginner",
	}, "Spanish")

	_, fits := validator.CheckContextFit("mistral", "", systemPrompt, input.Sanitized)
	require.True(t, fits)

	s, err := adapter.Generate(context.Background(), providers.GenerateRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   input.Sanitized,
		Temperature:  0.7,
	}, "mk-test")
	require.NoError(t, err)

	text, err := s.Collect()
	require.NoError(t, err)

	output := validator.ValidateOutput(text)
	require.True(t, output.Valid)

	parsed := recipe.Parse(text)
	assert.Equal(t, "Arroz con Pollo", parsed.Title)
	assert.Equal(t, 10, parsed.PrepTimeMinutes)
	assert.Equal(t, 25, parsed.CookTimeMinutes)
	assert.Equal(t, 4, parsed.Servings)
	require.Len(t, parsed.Ingredients, 2)
	assert.Equal(t, "chicken", parsed.Ingredients[0].Name)
	require.Len(t, parsed.Instructions, 2)
}

func TestServerRoutes(t *testing.T) {
	tmpDir := t.TempDir()
	cfgMgr := config.NewManager(tmpDir)
	require.NoError(t, cfgMgr.Save(&config.Config{APIKey: "service-secret"}))

	srv := server.New(cfgMgr, testLogger())
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	t.Run("health is open", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "OK", string(body))
	})

	t.Run("preflight bypasses auth", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/relay", nil)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "86400", resp.Header.Get("Access-Control-Max-Age"))
	})

	t.Run("relay requires service key", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/relay", "application/json", strings.NewReader("{}"))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("relay blocks unlisted hosts", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, ts.URL+"/relay", strings.NewReader("{}"))
		req.Header.Set("Authorization", "Bearer service-secret")
		req.Header.Set("X-Target-URL", "https://attacker.example.com/steal")
		req.Header.Set("X-API-Key", "sk-test")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}
