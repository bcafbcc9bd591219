package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/chefstream/chefstream/internal/stream"
)

// openAICompatDescriptors covers every vendor that speaks the OpenAI
// chat-completions dialect. One shared adapter serves all of them; only
// the descriptor and default model differ.
var openAICompatDescriptors = []Descriptor{
	{
		ID: "openai", Name: "OpenAI",
		BaseURL:      "https://api.openai.com/v1",
		DashboardURL: "https://platform.openai.com/api-keys",
		DocsURL:      "https://platform.openai.com/docs",
	},
	{
		ID: "groq", Name: "Groq",
		BaseURL: "https://api.groq.com/openai/v1",
		IsFree:  true,
		FreeModels: []string{
			"llama-3.3-70b-versatile",
			"llama-3.1-8b-instant",
		},
		DashboardURL: "https://console.groq.com/keys",
		DocsURL:      "https://console.groq.com/docs",
	},
	{
		ID: "mistral", Name: "Mistral",
		BaseURL:       "https://api.mistral.ai/v1",
		IsFree:        true,
		FreeModels:    []string{"mistral-small-latest", "open-mistral-nemo"},
		RequiresRelay: true,
		DashboardURL:  "https://console.mistral.ai/api-keys",
		DocsURL:       "https://docs.mistral.ai",
	},
	{
		ID: "deepseek", Name: "DeepSeek",
		BaseURL:       "https://api.deepseek.com/v1",
		RequiresRelay: true,
		DashboardURL:  "https://platform.deepseek.com/api_keys",
		DocsURL:       "https://api-docs.deepseek.com",
	},
	{
		ID: "openrouter", Name: "OpenRouter",
		BaseURL: "https://openrouter.ai/api/v1",
		IsFree:  true,
		FreeModels: []string{
			"meta-llama/llama-3.3-70b-instruct:free",
			"google/gemma-3-27b-it:free",
		},
		DashboardURL: "https://openrouter.ai/keys",
		DocsURL:      "https://openrouter.ai/docs",
	},
	{
		ID: "together", Name: "Together AI",
		BaseURL:       "https://api.together.xyz/v1",
		RequiresRelay: true,
		DashboardURL:  "https://api.together.xyz/settings/api-keys",
		DocsURL:       "https://docs.together.ai",
	},
	{
		ID: "cerebras", Name: "Cerebras",
		BaseURL:       "https://api.cerebras.ai/v1",
		IsFree:        true,
		FreeModels:    []string{"llama-3.3-70b"},
		RequiresRelay: true,
		DashboardURL:  "https://cloud.cerebras.ai/platform",
		DocsURL:       "https://inference-docs.cerebras.ai",
	},
	{
		ID: "perplexity", Name: "Perplexity",
		BaseURL:       "https://api.perplexity.ai",
		RequiresRelay: true,
		DashboardURL:  "https://www.perplexity.ai/settings/api",
		DocsURL:       "https://docs.perplexity.ai",
	},
}

// defaultModels supplies the model used when GenerateRequest.Model is
// empty, per vendor.
var defaultModels = map[string]string{
	"openai":      "gpt-4o-mini",
	"groq":        "llama-3.3-70b-versatile",
	"mistral":     "mistral-small-latest",
	"deepseek":    "deepseek-chat",
	"openrouter":  "meta-llama/llama-3.3-70b-instruct:free",
	"together":    "meta-llama/Llama-3.3-70B-Instruct-Turbo",
	"cerebras":    "llama-3.3-70b",
	"perplexity":  "sonar",
	"anthropic":   "claude-3-5-haiku-20241022",
	"gemini":      "gemini-2.0-flash",
	"huggingface": "mistralai/Mistral-7B-Instruct-v0.3",
}

// OpenAICompatAdapter implements the shared OpenAI chat-completions
// dialect: SSE streaming with `data:` JSON lines terminated by
// `data: [DONE]`, delta text in choices[0].delta.content.
type OpenAICompatAdapter struct {
	call caller
}

func newOpenAICompatAdapter(desc Descriptor, opts Options) *OpenAICompatAdapter {
	return &OpenAICompatAdapter{
		call: caller{
			desc:     desc,
			auth:     bearerAuth,
			client:   opts.Client,
			relayURL: opts.RelayURL,
		},
	}
}

func (a *OpenAICompatAdapter) Name() string           { return a.call.desc.ID }
func (a *OpenAICompatAdapter) Descriptor() Descriptor { return a.call.desc }
func (a *OpenAICompatAdapter) NeedsRelay() bool       { return a.call.desc.RequiresRelay }

func (a *OpenAICompatAdapter) EndpointURL(string) string {
	return a.call.desc.BaseURL + "/chat/completions"
}

func (a *OpenAICompatAdapter) modelsURL() string {
	return a.call.desc.BaseURL + "/models"
}

func (a *OpenAICompatAdapter) defaultModel() string {
	return defaultModels[a.call.desc.ID]
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

func (a *OpenAICompatAdapter) Generate(ctx context.Context, req GenerateRequest, apiKey string) (*Stream, error) {
	model := req.Model
	if model == "" {
		model = a.defaultModel()
	}

	payload, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
		Stream:      true,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", a.Name(), err)
	}

	resp, err := a.call.do(ctx, http.MethodPost, a.EndpointURL(model), apiKey, payload)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, drainUpstreamError(a.Name(), resp)
	}

	return newStream(a.Name(), resp.Body, stream.NewSSEDecoder(), parseOpenAIFrame), nil
}

// parseOpenAIFrame extracts delta text from one SSE payload. Malformed
// frames are skipped, not fatal.
func parseOpenAIFrame(frame []byte) (stream.Chunk, bool, bool) {
	if string(frame) == "[DONE]" {
		return stream.Chunk{}, false, true
	}

	var chunk struct {
		Choices []struct {
			Delta struct {
				Content string `json:"content"`
			} `json:"delta"`
			FinishReason *string `json:"finish_reason"`
		} `json:"choices"`
	}

	if err := json.Unmarshal(frame, &chunk); err != nil || len(chunk.Choices) == 0 {
		return stream.Chunk{}, true, false
	}

	return stream.Chunk{Content: chunk.Choices[0].Delta.Content}, false, false
}

// ValidateKey probes the models endpoint: the cheapest authenticated call
// every vendor in this family exposes.
func (a *OpenAICompatAdapter) ValidateKey(ctx context.Context, apiKey string) KeyCheck {
	resp, err := a.call.do(ctx, http.MethodGet, a.modelsURL(), apiKey, nil)
	if err != nil {
		return KeyCheck{Valid: false, Err: err}
	}
	defer resp.Body.Close()

	return classifyKeyProbe(resp.StatusCode)
}

// classifyKeyProbe applies the shared key-probe policy: 2xx and 400 mean
// the vendor accepted the key even if it disliked the payload; 401/403
// mean it did not; anything else is inconclusive.
func classifyKeyProbe(status int) KeyCheck {
	switch {
	case status >= 200 && status < 300, status == http.StatusBadRequest:
		return KeyCheck{Valid: true}
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KeyCheck{Valid: false}
	default:
		return KeyCheck{Valid: false, Err: fmt.Errorf("key probe returned status %d", status)}
	}
}

func (a *OpenAICompatAdapter) ListModels(ctx context.Context, apiKey string) []ModelInfo {
	fallback := staticModels(a.Name())
	if apiKey == "" {
		return fallback
	}

	resp, err := a.call.do(ctx, http.MethodGet, a.modelsURL(), apiKey, nil)
	if err != nil {
		return fallback
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fallback
	}

	var listing struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil || len(listing.Data) == 0 {
		return fallback
	}

	models := make([]ModelInfo, 0, len(listing.Data))
	for _, m := range listing.Data {
		models = append(models, enrichModel(a.Name(), m.ID))
	}

	return models
}
