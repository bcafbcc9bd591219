package providers

import "strings"

// Static model tables, one per vendor. These are the fallback when the
// vendor cannot be queried live; context figures are the published ones
// and get stale gracefully rather than fatally.
var staticModelTables = map[string][]ModelInfo{
	"openai": {
		{ID: "gpt-4o-mini", Name: "GPT-4o mini", ContextWindow: 128000, MaxOutputTokens: 16384},
		{ID: "gpt-4o", Name: "GPT-4o", ContextWindow: 128000, MaxOutputTokens: 16384},
		{ID: "gpt-4.1-mini", Name: "GPT-4.1 mini", ContextWindow: 1047576, MaxOutputTokens: 32768},
	},
	"groq": {
		{ID: "llama-3.3-70b-versatile", Name: "Llama 3.3 70B", ContextWindow: 128000, MaxOutputTokens: 32768, IsFree: true},
		{ID: "llama-3.1-8b-instant", Name: "Llama 3.1 8B", ContextWindow: 128000, MaxOutputTokens: 8192, IsFree: true},
		{ID: "mixtral-8x7b-32768", Name: "Mixtral 8x7B", ContextWindow: 32768, MaxOutputTokens: 8192, IsFree: true},
	},
	"mistral": {
		{ID: "mistral-small-latest", Name: "Mistral Small", ContextWindow: 32000, MaxOutputTokens: 8192, IsFree: true},
		{ID: "open-mistral-nemo", Name: "Mistral Nemo", ContextWindow: 128000, MaxOutputTokens: 8192, IsFree: true},
		{ID: "mistral-large-latest", Name: "Mistral Large", ContextWindow: 128000, MaxOutputTokens: 8192},
	},
	"deepseek": {
		{ID: "deepseek-chat", Name: "DeepSeek Chat", ContextWindow: 64000, MaxOutputTokens: 8192},
		{ID: "deepseek-reasoner", Name: "DeepSeek Reasoner", ContextWindow: 64000, MaxOutputTokens: 8192},
	},
	"openrouter": {
		{ID: "meta-llama/llama-3.3-70b-instruct:free", Name: "Llama 3.3 70B (free)", ContextWindow: 131072, MaxOutputTokens: 8192, IsFree: true},
		{ID: "google/gemma-3-27b-it:free", Name: "Gemma 3 27B (free)", ContextWindow: 96000, MaxOutputTokens: 8192, IsFree: true},
		{ID: "anthropic/claude-3.5-sonnet", Name: "Claude 3.5 Sonnet", ContextWindow: 200000, MaxOutputTokens: 8192},
	},
	"together": {
		{ID: "meta-llama/Llama-3.3-70B-Instruct-Turbo", Name: "Llama 3.3 70B Turbo", ContextWindow: 131072, MaxOutputTokens: 8192},
		{ID: "mistralai/Mixtral-8x7B-Instruct-v0.1", Name: "Mixtral 8x7B", ContextWindow: 32768, MaxOutputTokens: 8192},
	},
	"cerebras": {
		{ID: "llama-3.3-70b", Name: "Llama 3.3 70B", ContextWindow: 128000, MaxOutputTokens: 8192, IsFree: true},
		{ID: "llama-3.1-8b", Name: "Llama 3.1 8B", ContextWindow: 128000, MaxOutputTokens: 8192, IsFree: true},
	},
	"perplexity": {
		{ID: "sonar", Name: "Sonar", ContextWindow: 127000, MaxOutputTokens: 8192},
		{ID: "sonar-pro", Name: "Sonar Pro", ContextWindow: 200000, MaxOutputTokens: 8192},
	},
	"anthropic": {
		{ID: "claude-3-5-haiku-20241022", Name: "Claude 3.5 Haiku", ContextWindow: 200000, MaxOutputTokens: 8192},
		{ID: "claude-sonnet-4-20250514", Name: "Claude Sonnet 4", ContextWindow: 200000, MaxOutputTokens: 64000},
	},
	"gemini": {
		{ID: "gemini-2.0-flash", Name: "Gemini 2.0 Flash", ContextWindow: 1048576, MaxOutputTokens: 8192, IsFree: true},
		{ID: "gemini-2.0-flash-lite", Name: "Gemini 2.0 Flash Lite", ContextWindow: 1048576, MaxOutputTokens: 8192, IsFree: true},
		{ID: "gemini-1.5-pro", Name: "Gemini 1.5 Pro", ContextWindow: 2097152, MaxOutputTokens: 8192},
	},
	"huggingface": {
		{ID: "mistralai/Mistral-7B-Instruct-v0.3", Name: "Mistral 7B Instruct", ContextWindow: 32768, MaxOutputTokens: 4096, IsFree: true},
		{ID: "meta-llama/Meta-Llama-3-8B-Instruct", Name: "Llama 3 8B Instruct", ContextWindow: 8192, MaxOutputTokens: 4096, IsFree: true},
	},
}

// staticModels returns a copy of the fallback table so callers cannot
// mutate the catalog.
func staticModels(provider string) []ModelInfo {
	table := staticModelTables[provider]
	out := make([]ModelInfo, len(table))
	copy(out, table)

	return out
}

// enrichModel fills in catalog metadata for a live-listed model id. Ids
// missing from the static table get the id as display name and zero
// context figures; the listing is still useful for selection.
func enrichModel(provider, id string) ModelInfo {
	for _, m := range staticModelTables[provider] {
		if m.ID == id {
			return m
		}
	}

	return ModelInfo{
		ID:     id,
		Name:   id,
		IsFree: strings.HasSuffix(id, ":free"),
	}
}

// ContextWindowFor reports the context window for a provider/model pair,
// falling back to the vendor default model and then to a conservative
// floor. Used by the pre-flight prompt length check.
func ContextWindowFor(provider, model string) int {
	if model == "" {
		model = defaultModels[provider]
	}

	for _, m := range staticModelTables[provider] {
		if m.ID == model {
			return m.ContextWindow
		}
	}

	return 8192
}
