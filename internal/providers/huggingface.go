package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/chefstream/chefstream/internal/stream"
)

var huggingFaceDescriptor = Descriptor{
	ID:            "huggingface",
	Name:          "Hugging Face",
	BaseURL:       "https://api-inference.huggingface.co/models",
	IsFree:        true,
	FreeModels:    []string{"mistralai/Mistral-7B-Instruct-v0.3", "meta-llama/Meta-Llama-3-8B-Instruct"},
	RequiresRelay: true,
	DashboardURL:  "https://huggingface.co/settings/tokens",
	DocsURL:       "https://huggingface.co/docs/api-inference",
}

// HuggingFaceAdapter targets the serverless inference API. Responses come
// in two shapes depending on the backing deployment: TGI SSE token events
// (`token.text`) or one buffered JSON array with `generated_text`. The
// shape is detected per frame, not negotiated up front.
type HuggingFaceAdapter struct {
	call caller
}

func newHuggingFaceAdapter(opts Options) *HuggingFaceAdapter {
	return &HuggingFaceAdapter{
		call: caller{
			desc:     huggingFaceDescriptor,
			auth:     bearerAuth,
			client:   opts.Client,
			relayURL: opts.RelayURL,
		},
	}
}

func (a *HuggingFaceAdapter) Name() string           { return a.call.desc.ID }
func (a *HuggingFaceAdapter) Descriptor() Descriptor { return a.call.desc }
func (a *HuggingFaceAdapter) NeedsRelay() bool       { return a.call.desc.RequiresRelay }

func (a *HuggingFaceAdapter) EndpointURL(model string) string {
	if model == "" {
		model = defaultModels[a.Name()]
	}

	return a.call.desc.BaseURL + "/" + model
}

type hfRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters map[string]any `json:"parameters"`
	Stream     bool           `json:"stream"`
}

func (a *HuggingFaceAdapter) Generate(ctx context.Context, req GenerateRequest, apiKey string) (*Stream, error) {
	params := map[string]any{
		"temperature":      req.Temperature,
		"return_full_text": false,
	}
	if req.MaxTokens > 0 {
		params["max_new_tokens"] = req.MaxTokens
	}

	// no system role in the raw inference API; fold the system prompt
	// into the input text
	inputs := req.UserPrompt
	if req.SystemPrompt != "" {
		inputs = req.SystemPrompt + "\n\n" + req.UserPrompt
	}

	payload, err := json.Marshal(hfRequest{
		Inputs:     inputs,
		Parameters: params,
		Stream:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal huggingface request: %w", err)
	}

	resp, err := a.call.do(ctx, http.MethodPost, a.EndpointURL(req.Model), apiKey, payload)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, drainUpstreamError(a.Name(), resp)
	}

	// One line decoder serves both shapes: TGI SSE events arrive one per
	// line, and the buffered JSON array arrives as a single line.
	return newStream(a.Name(), resp.Body, stream.NewLineDecoder(), parseHuggingFaceFrame), nil
}

// parseHuggingFaceFrame detects the response shape per line. TGI lines
// are `data:{...}` SSE events with token.text; buffered responses are a
// single JSON array with generated_text.
func parseHuggingFaceFrame(frame []byte) (stream.Chunk, bool, bool) {
	line := frame
	if len(line) > 5 && string(line[:5]) == "data:" {
		line = line[5:]
		for len(line) > 0 && line[0] == ' ' {
			line = line[1:]
		}
	}

	// TGI token event
	var tok struct {
		Token *struct {
			Text    string `json:"text"`
			Special bool   `json:"special"`
		} `json:"token"`
		GeneratedText *string `json:"generated_text"`
		Details       any     `json:"details"`
	}

	if err := json.Unmarshal(line, &tok); err == nil && tok.Token != nil {
		// the final TGI event carries generated_text alongside the last
		// token; only the token increment is emitted
		if tok.Token.Special {
			return stream.Chunk{}, tok.GeneratedText == nil, tok.GeneratedText != nil
		}

		return stream.Chunk{Content: tok.Token.Text}, false, false
	}

	// buffered array shape
	var arr []struct {
		GeneratedText string `json:"generated_text"`
	}

	if err := json.Unmarshal(line, &arr); err == nil && len(arr) > 0 {
		return stream.Chunk{Content: arr[0].GeneratedText}, false, false
	}

	return stream.Chunk{}, true, false
}

// ValidateKey probes the account endpoint; it is free and exercises the
// token.
func (a *HuggingFaceAdapter) ValidateKey(ctx context.Context, apiKey string) KeyCheck {
	resp, err := a.call.do(ctx, http.MethodGet, "https://huggingface.co/api/whoami-v2", apiKey, nil)
	if err != nil {
		return KeyCheck{Valid: false, Err: err}
	}
	defer resp.Body.Close()

	return classifyKeyProbe(resp.StatusCode)
}

// ListModels returns the static table. The hub search endpoint lists
// hundreds of thousands of models; a live query is not a usable catalog
// for a recipe assistant.
func (a *HuggingFaceAdapter) ListModels(_ context.Context, _ string) []ModelInfo {
	return staticModels(a.Name())
}
