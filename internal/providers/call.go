package providers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// authScheme is the closed description of how a vendor wants its
// credentials presented. Assembled once per call, never mutated.
type authScheme struct {
	HeaderName string // empty when the key rides in the URL instead
	Prefix     string // e.g. "Bearer "
	Extra      [][2]string
	KeyInQuery string // query parameter name, Gemini style
}

var (
	bearerAuth = authScheme{HeaderName: "Authorization", Prefix: "Bearer "}

	anthropicAuth = authScheme{
		HeaderName: "x-api-key",
		Extra:      [][2]string{{"anthropic-version", "2023-06-01"}},
	}

	geminiAuth = authScheme{KeyInQuery: "key"}
)

// caller issues vendor HTTP requests, transparently rerouting through the
// forwarding relay when the descriptor demands it. The API key travels
// with each call; a caller itself is shared and stateless.
type caller struct {
	desc     Descriptor
	auth     authScheme
	client   *http.Client
	relayURL string
}

// do issues one request. targetURL is the real vendor endpoint; when the
// call must relay, the target moves into the X-Target-URL header and the
// relay injects the vendor auth itself.
func (c *caller) do(ctx context.Context, method, targetURL, apiKey string, payload []byte) (*http.Response, error) {
	var (
		req *http.Request
		err error
	)

	if c.desc.RequiresRelay && c.relayURL != "" {
		req, err = c.buildRelay(ctx, method, targetURL, apiKey, payload)
	} else {
		req, err = c.buildDirect(ctx, method, targetURL, apiKey, payload)
	}

	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", c.desc.ID, err)
	}

	return resp, nil
}

func (c *caller) buildDirect(ctx context.Context, method, targetURL, apiKey string, payload []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, targetURL, bodyReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", c.desc.ID, err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.auth.HeaderName != "" && apiKey != "" {
		req.Header.Set(c.auth.HeaderName, c.auth.Prefix+apiKey)
	}

	for _, kv := range c.auth.Extra {
		req.Header.Set(kv[0], kv[1])
	}

	return req, nil
}

func (c *caller) buildRelay(ctx context.Context, method, targetURL, apiKey string, payload []byte) (*http.Request, error) {
	relayEndpoint := strings.TrimRight(c.relayURL, "/") + "/relay"

	req, err := http.NewRequestWithContext(ctx, method, relayEndpoint, bodyReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create relay request: %w", err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	req.Header.Set("X-Target-URL", targetURL)
	req.Header.Set("X-Provider", c.desc.ID)

	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	return req, nil
}

func bodyReader(payload []byte) io.Reader {
	if payload == nil {
		return nil
	}

	return bytes.NewReader(payload)
}

// drainUpstreamError reads a failed response into an UpstreamError and
// closes the body.
func drainUpstreamError(provider string, resp *http.Response) *UpstreamError {
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	return &UpstreamError{
		Provider: provider,
		Status:   resp.StatusCode,
		Body:     body,
	}
}
