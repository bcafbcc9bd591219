package providers

import "fmt"

// Descriptor is the immutable identity card of a provider. Descriptors
// are built once at startup and only ever read afterwards; RequiresRelay
// is the single source of truth for routing.
type Descriptor struct {
	ID            string
	Name          string
	BaseURL       string
	IsFree        bool
	RequiresRelay bool
	FreeModels    []string
	DashboardURL  string
	DocsURL       string
}

// GenerateRequest is the provider-independent description of one
// generation call. Constructed per call, never reused.
type GenerateRequest struct {
	SystemPrompt string
	UserPrompt   string
	Model        string // empty means the adapter's default
	MaxTokens    int
	Temperature  float64
}

// ModelInfo describes one selectable model, from a live vendor query or
// the static fallback table.
type ModelInfo struct {
	ID              string
	Name            string
	ContextWindow   int
	MaxOutputTokens int
	IsFree          bool
}

// KeyCheck is the outcome of a key validation probe. Err is set when the
// probe was inconclusive (vendor outage), so callers can distinguish
// "bad key" from "could not check".
type KeyCheck struct {
	Valid bool
	Err   error
}

// UpstreamError carries a raw vendor HTTP failure out of an adapter.
// Adapters never translate these; taxonomy mapping is the caller's job.
type UpstreamError struct {
	Provider string
	Status   int
	Body     []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream returned %d: %s", e.Provider, e.Status, truncate(e.Body, 200))
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}

	return string(b[:n]) + "..."
}
