package providers

import (
	"context"
	"net/http"
	"sort"

	"github.com/chefstream/chefstream/internal/stream"
)

// Adapter is the vendor-specific half of the gateway. Implementations
// hold no mutable state; the API key travels with each call, so one
// adapter instance serves concurrent requests without synchronization.
type Adapter interface {
	Name() string
	Descriptor() Descriptor

	// Generate starts a streamed completion. The returned Stream yields
	// text chunks and terminates with exactly one Done chunk. Vendor HTTP
	// failures surface as *UpstreamError, untranslated.
	Generate(ctx context.Context, req GenerateRequest, apiKey string) (*Stream, error)

	// ValidateKey issues a minimal probe call. 2xx/400 means the vendor
	// accepted the key; 401/403 means it did not.
	ValidateKey(ctx context.Context, apiKey string) KeyCheck

	// ListModels prefers a live vendor query and falls back to the static
	// table on any failure. It never returns an error.
	ListModels(ctx context.Context, apiKey string) []ModelInfo

	EndpointURL(model string) string
	NeedsRelay() bool
}

// Options configures adapter construction. RelayURL is the base URL of a
// forwarding relay; when set, adapters whose descriptor requires relaying
// route every call through it.
type Options struct {
	RelayURL string
	Client   *http.Client
}

// Registry holds one adapter per provider id. Built at startup, read-only
// afterwards.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(opts Options) *Registry {
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}

	r := &Registry{adapters: make(map[string]Adapter)}

	for _, d := range openAICompatDescriptors {
		r.register(newOpenAICompatAdapter(d, opts))
	}

	r.register(newAnthropicAdapter(opts))
	r.register(newGeminiAdapter(opts))
	r.register(newHuggingFaceAdapter(opts))

	return r
}

func (r *Registry) register(a Adapter) {
	r.adapters[a.Name()] = a
}

// Get retrieves an adapter by provider id.
func (r *Registry) Get(id string) (Adapter, bool) {
	a, ok := r.adapters[id]
	return a, ok
}

// List returns all registered provider ids, sorted.
func (r *Registry) List() []string {
	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}

// Descriptors returns the descriptors of all registered providers, sorted
// by id.
func (r *Registry) Descriptors() []Descriptor {
	descs := make([]Descriptor, 0, len(r.adapters))
	for _, id := range r.List() {
		descs = append(descs, r.adapters[id].Descriptor())
	}

	return descs
}

// frameFunc interprets one decoded frame from a vendor stream. skip means
// the frame carried nothing useful (keep reading); done means the vendor
// signaled end of stream.
type frameFunc func(frame []byte) (chunk stream.Chunk, skip, done bool)
