package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/chefstream/chefstream/internal/stream"
)

var anthropicDescriptor = Descriptor{
	ID:            "anthropic",
	Name:          "Anthropic",
	BaseURL:       "https://api.anthropic.com/v1",
	RequiresRelay: true,
	DashboardURL:  "https://console.anthropic.com/settings/keys",
	DocsURL:       "https://docs.anthropic.com",
}

// AnthropicAdapter speaks the Messages API: system prompt as a top-level
// field, max_tokens mandatory, typed SSE events with delta text under
// delta.text.
type AnthropicAdapter struct {
	call caller
}

func newAnthropicAdapter(opts Options) *AnthropicAdapter {
	return &AnthropicAdapter{
		call: caller{
			desc:     anthropicDescriptor,
			auth:     anthropicAuth,
			client:   opts.Client,
			relayURL: opts.RelayURL,
		},
	}
}

func (a *AnthropicAdapter) Name() string           { return a.call.desc.ID }
func (a *AnthropicAdapter) Descriptor() Descriptor { return a.call.desc }
func (a *AnthropicAdapter) NeedsRelay() bool       { return a.call.desc.RequiresRelay }

func (a *AnthropicAdapter) EndpointURL(string) string {
	return a.call.desc.BaseURL + "/messages"
}

type anthropicRequest struct {
	Model       string        `json:"model"`
	System      string        `json:"system,omitempty"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

func (a *AnthropicAdapter) Generate(ctx context.Context, req GenerateRequest, apiKey string) (*Stream, error) {
	model := req.Model
	if model == "" {
		model = defaultModels[a.Name()]
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		// the Messages API rejects requests without max_tokens
		maxTokens = 4096
	}

	payload, err := json.Marshal(anthropicRequest{
		Model:       model,
		System:      req.SystemPrompt,
		Messages:    []chatMessage{{Role: "user", Content: req.UserPrompt}},
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		Stream:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal anthropic request: %w", err)
	}

	resp, err := a.call.do(ctx, http.MethodPost, a.EndpointURL(model), apiKey, payload)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, drainUpstreamError(a.Name(), resp)
	}

	return newStream(a.Name(), resp.Body, stream.NewSSEDecoder(), parseAnthropicFrame), nil
}

// parseAnthropicFrame handles the typed event stream. Text rides in
// content_block_delta events under delta.text; message_stop ends the
// stream.
func parseAnthropicFrame(frame []byte) (stream.Chunk, bool, bool) {
	var event struct {
		Type  string `json:"type"`
		Delta struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"delta"`
	}

	if err := json.Unmarshal(frame, &event); err != nil {
		return stream.Chunk{}, true, false
	}

	switch event.Type {
	case "message_stop":
		return stream.Chunk{}, false, true
	case "content_block_delta":
		if event.Delta.Type == "text_delta" {
			return stream.Chunk{Content: event.Delta.Text}, false, false
		}
	}

	return stream.Chunk{}, true, false
}

// ValidateKey issues a one-token completion; Anthropic has no free
// models-listing probe that exercises the key.
func (a *AnthropicAdapter) ValidateKey(ctx context.Context, apiKey string) KeyCheck {
	payload, err := json.Marshal(anthropicRequest{
		Model:     defaultModels[a.Name()],
		Messages:  []chatMessage{{Role: "user", Content: "hi"}},
		MaxTokens: 1,
	})
	if err != nil {
		return KeyCheck{Valid: false, Err: err}
	}

	resp, err := a.call.do(ctx, http.MethodPost, a.EndpointURL(""), apiKey, payload)
	if err != nil {
		return KeyCheck{Valid: false, Err: err}
	}
	defer resp.Body.Close()

	return classifyKeyProbe(resp.StatusCode)
}

func (a *AnthropicAdapter) ListModels(ctx context.Context, apiKey string) []ModelInfo {
	fallback := staticModels(a.Name())
	if apiKey == "" {
		return fallback
	}

	resp, err := a.call.do(ctx, http.MethodGet, a.call.desc.BaseURL+"/models", apiKey, nil)
	if err != nil {
		return fallback
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fallback
	}

	var listing struct {
		Data []struct {
			ID          string `json:"id"`
			DisplayName string `json:"display_name"`
		} `json:"data"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil || len(listing.Data) == 0 {
		return fallback
	}

	models := make([]ModelInfo, 0, len(listing.Data))

	for _, m := range listing.Data {
		info := enrichModel(a.Name(), m.ID)
		if m.DisplayName != "" {
			info.Name = m.DisplayName
		}

		models = append(models, info)
	}

	return models
}
