package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/chefstream/chefstream/internal/stream"
)

var geminiDescriptor = Descriptor{
	ID:           "gemini",
	Name:         "Google Gemini",
	BaseURL:      "https://generativelanguage.googleapis.com/v1beta",
	IsFree:       true,
	FreeModels:   []string{"gemini-2.0-flash", "gemini-2.0-flash-lite"},
	DashboardURL: "https://aistudio.google.com/apikey",
	DocsURL:      "https://ai.google.dev/gemini-api/docs",
}

// GeminiAdapter speaks the generateContent API. The streaming response is
// not SSE: it is a JSON array emitted incrementally, one candidate object
// per element, so the adapter frames it with the JSON-array decoder. The
// API key rides in the URL query, not a header.
type GeminiAdapter struct {
	call caller
}

func newGeminiAdapter(opts Options) *GeminiAdapter {
	return &GeminiAdapter{
		call: caller{
			desc:     geminiDescriptor,
			auth:     geminiAuth,
			client:   opts.Client,
			relayURL: opts.RelayURL,
		},
	}
}

func (a *GeminiAdapter) Name() string           { return a.call.desc.ID }
func (a *GeminiAdapter) Descriptor() Descriptor { return a.call.desc }
func (a *GeminiAdapter) NeedsRelay() bool       { return a.call.desc.RequiresRelay }

func (a *GeminiAdapter) EndpointURL(model string) string {
	if model == "" {
		model = defaultModels[a.Name()]
	}

	return fmt.Sprintf("%s/models/%s:streamGenerateContent", a.call.desc.BaseURL, model)
}

func (a *GeminiAdapter) keyedURL(base, apiKey string) string {
	if apiKey == "" {
		return base
	}

	return base + "?" + a.call.auth.KeyInQuery + "=" + url.QueryEscape(apiKey)
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	GenerationConfig  map[string]any  `json:"generationConfig,omitempty"`
	SafetySettings    []geminiSafety  `json:"safetySettings"`
}

type geminiSafety struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

// Recipes trip the dangerous-content filter surprisingly often (knives,
// alcohol, raw meat), so thresholds are relaxed across the board.
var geminiSafetySettings = []geminiSafety{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_ONLY_HIGH"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_ONLY_HIGH"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_ONLY_HIGH"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_ONLY_HIGH"},
}

func (a *GeminiAdapter) Generate(ctx context.Context, req GenerateRequest, apiKey string) (*Stream, error) {
	genConfig := map[string]any{
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		genConfig["maxOutputTokens"] = req.MaxTokens
	}

	body := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: req.UserPrompt}}},
		},
		GenerationConfig: genConfig,
		SafetySettings:   geminiSafetySettings,
	}

	if req.SystemPrompt != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.SystemPrompt}}}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal gemini request: %w", err)
	}

	target := a.keyedURL(a.EndpointURL(req.Model), apiKey)

	resp, err := a.call.do(ctx, http.MethodPost, target, apiKey, payload)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, drainUpstreamError(a.Name(), resp)
	}

	return newStream(a.Name(), resp.Body, stream.NewJSONArrayDecoder(), parseGeminiFrame), nil
}

// parseGeminiFrame extracts candidate text from one array element. The
// stream has no explicit terminator; it ends when the array closes.
func parseGeminiFrame(frame []byte) (stream.Chunk, bool, bool) {
	var element struct {
		Candidates []struct {
			Content struct {
				Parts []geminiPart `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	if err := json.Unmarshal(frame, &element); err != nil || len(element.Candidates) == 0 {
		return stream.Chunk{}, true, false
	}

	parts := element.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return stream.Chunk{}, true, false
	}

	return stream.Chunk{Content: parts[0].Text}, false, false
}

func (a *GeminiAdapter) ValidateKey(ctx context.Context, apiKey string) KeyCheck {
	target := a.keyedURL(a.call.desc.BaseURL+"/models", apiKey)

	resp, err := a.call.do(ctx, http.MethodGet, target, apiKey, nil)
	if err != nil {
		return KeyCheck{Valid: false, Err: err}
	}
	defer resp.Body.Close()

	return classifyKeyProbe(resp.StatusCode)
}

func (a *GeminiAdapter) ListModels(ctx context.Context, apiKey string) []ModelInfo {
	fallback := staticModels(a.Name())
	if apiKey == "" {
		return fallback
	}

	target := a.keyedURL(a.call.desc.BaseURL+"/models", apiKey)

	resp, err := a.call.do(ctx, http.MethodGet, target, apiKey, nil)
	if err != nil {
		return fallback
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fallback
	}

	var listing struct {
		Models []struct {
			Name             string `json:"name"` // "models/gemini-2.0-flash"
			DisplayName      string `json:"displayName"`
			InputTokenLimit  int    `json:"inputTokenLimit"`
			OutputTokenLimit int    `json:"outputTokenLimit"`
		} `json:"models"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil || len(listing.Models) == 0 {
		return fallback
	}

	models := make([]ModelInfo, 0, len(listing.Models))

	for _, m := range listing.Models {
		id := m.Name
		if idx := len("models/"); len(id) > idx && id[:idx] == "models/" {
			id = id[idx:]
		}

		models = append(models, ModelInfo{
			ID:              id,
			Name:            m.DisplayName,
			ContextWindow:   m.InputTokenLimit,
			MaxOutputTokens: m.OutputTokenLimit,
			IsFree:          true,
		})
	}

	return models
}
