package relay

import (
	"compress/gzip"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
)

// Custom headers carried by relay requests.
const (
	HeaderTargetURL = "X-Target-URL"
	HeaderAPIKey    = "X-API-Key"
	HeaderProvider  = "X-Provider"
)

// allowedProviders is the fixed set of provider ids the relay forwards
// for. A request naming any other provider is refused.
var allowedProviders = map[string]bool{
	"openai":      true,
	"groq":        true,
	"mistral":     true,
	"deepseek":    true,
	"openrouter":  true,
	"together":    true,
	"cerebras":    true,
	"perplexity":  true,
	"anthropic":   true,
	"gemini":      true,
	"huggingface": true,
}

// allowedHosts is one hostname substring per vendor. A target URL whose
// host matches none of these is refused regardless of the provider
// header, so the relay cannot be used as an open proxy.
var allowedHosts = []string{
	"api.openai.com",
	"api.groq.com",
	"api.mistral.ai",
	"api.deepseek.com",
	"openrouter.ai",
	"api.together.xyz",
	"api.cerebras.ai",
	"api.perplexity.ai",
	"api.anthropic.com",
	"generativelanguage.googleapis.com",
	"huggingface.co",
}

type Handler struct {
	logger *slog.Logger
	client *http.Client
}

func NewHandler(logger *slog.Logger, client *http.Client) *Handler {
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}

	return &Handler{
		logger: logger,
		client: client,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)

	switch r.Method {
	case http.MethodOptions:
		w.Header().Set("Access-Control-Max-Age", "86400")
		w.WriteHeader(http.StatusNoContent)

		return
	case http.MethodPost, http.MethodGet:
		h.forward(w, r)
	default:
		h.httpError(w, http.StatusMethodNotAllowed, "method %s not supported", r.Method)
	}
}

func (h *Handler) forward(w http.ResponseWriter, r *http.Request) {
	target := r.Header.Get(HeaderTargetURL)
	if target == "" {
		h.httpError(w, http.StatusBadRequest, "missing %s header", HeaderTargetURL)
		return
	}

	targetURL, err := url.Parse(target)
	if err != nil || targetURL.Scheme == "" || targetURL.Host == "" {
		h.httpError(w, http.StatusBadRequest, "invalid target URL: %s", target)
		return
	}

	provider := r.Header.Get(HeaderProvider)
	if provider != "" && !allowedProviders[provider] {
		h.httpError(w, http.StatusForbidden, "provider %q is not allowed", provider)
		return
	}

	if !hostAllowed(targetURL.Hostname()) {
		h.httpError(w, http.StatusForbidden, "target host %q is not allowed", targetURL.Hostname())
		return
	}

	apiKey := r.Header.Get(HeaderAPIKey)
	if apiKey == "" && !targetURL.Query().Has("key") {
		h.httpError(w, http.StatusBadRequest, "missing %s header", HeaderAPIKey)
		return
	}

	var body io.Reader
	if r.Method == http.MethodPost {
		body = r.Body
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, body)
	if err != nil {
		h.httpError(w, http.StatusInternalServerError, "failed to create upstream request: %v", err)
		return
	}

	req.Header.Set("Content-Type", "application/json")
	setAuthHeaders(req, provider, apiKey)

	h.logger.Info("Forwarding request",
		"method", r.Method,
		"provider", provider,
		"host", targetURL.Hostname(),
	)

	resp, err := h.client.Do(req)
	if err != nil {
		h.httpError(w, http.StatusBadGateway, "upstream request failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if isStreaming(resp) {
		h.pipeStreaming(w, resp)
	} else {
		h.pipeBuffered(w, resp)
	}
}

// setAuthHeaders injects vendor auth. Anthropic uses its own key header
// and version, Gemini carries the key in the target URL, everyone else
// takes a bearer token.
func setAuthHeaders(req *http.Request, provider, apiKey string) {
	switch provider {
	case "anthropic":
		req.Header.Set("x-api-key", apiKey)
		req.Header.Set("anthropic-version", "2023-06-01")
	case "gemini":
	default:
		if apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+apiKey)
		}
	}
}

// pipeStreaming copies the upstream body to the caller read by read,
// flushing after every write so chunk boundaries survive the hop.
func (h *Handler) pipeStreaming(w http.ResponseWriter, resp *http.Response) {
	h.copyHeaders(w, resp)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(resp.StatusCode)

	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 32*1024)

	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				h.logger.Warn("Client disconnected mid-stream", "error", werr)
				return
			}

			if flusher != nil {
				flusher.Flush()
			}
		}

		if err != nil {
			if err != io.EOF {
				h.logger.Error("Upstream stream read error", "error", err)
			}

			return
		}
	}
}

func (h *Handler) pipeBuffered(w http.ResponseWriter, resp *http.Response) {
	bodyReader, err := h.decompressReader(resp)
	if err != nil {
		h.httpError(w, http.StatusBadGateway, "decompression error: %v", err)
		return
	}

	if closer, ok := bodyReader.(io.Closer); ok {
		defer closer.Close()
	}

	respBody, err := io.ReadAll(bodyReader)
	if err != nil {
		h.httpError(w, http.StatusBadGateway, "failed to read upstream response: %v", err)
		return
	}

	h.copyHeaders(w, resp)
	w.WriteHeader(resp.StatusCode)

	if _, err := w.Write(respBody); err != nil {
		h.logger.Warn("Failed to write response", "error", err)
	}
}

func (h *Handler) decompressReader(resp *http.Response) (io.Reader, error) {
	var bodyReader io.Reader = resp.Body

	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}

		bodyReader = gzipReader
	case "br":
		bodyReader = brotli.NewReader(resp.Body)
	}

	return bodyReader, nil
}

func (h *Handler) copyHeaders(w http.ResponseWriter, resp *http.Response) {
	for key, values := range resp.Header {
		// decompression is handled here, so the encoding headers no
		// longer describe the body
		if key == "Content-Encoding" || key == "Content-Length" {
			continue
		}

		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
}

func (h *Handler) httpError(w http.ResponseWriter, code int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	h.logger.Error("Relay error", "code", code, "message", msg)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"error":%q}`, msg)
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers",
		strings.Join([]string{"Content-Type", HeaderTargetURL, HeaderAPIKey, HeaderProvider}, ", "))
}

func hostAllowed(host string) bool {
	for _, allowed := range allowedHosts {
		if strings.Contains(host, allowed) {
			return true
		}
	}

	return false
}

func isStreaming(resp *http.Response) bool {
	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "text/event-stream") || strings.Contains(contentType, "application/x-ndjson") {
		return true
	}

	for _, enc := range resp.TransferEncoding {
		if enc == "chunked" {
			return true
		}
	}

	return false
}
