/*
Package providers implements the provider abstraction layer for the
ChefStream gateway.

Each supported LLM vendor is served by an Adapter that hides its request
shape, streaming wire format, and model-listing endpoint behind one
contract. The rest of the system treats "streamed generation" as a single
lazy sequence of chunks regardless of vendor.

# Adapter families

Two parsing families cover all supported vendors:

  - OpenAI-compatible (openai, groq, mistral, deepseek, openrouter,
    together, cerebras, perplexity): one shared adapter. Requests are
    chat-completion JSON, responses are SSE `data:` lines terminated by
    `data: [DONE]`, delta text under choices[0].delta.content.
  - Bespoke adapters for Anthropic (typed SSE events, delta.text, mandatory
    max_tokens), Google Gemini (incrementally emitted JSON array,
    candidates[0].content.parts[0].text, key in the URL query), and
    Hugging Face (per-line shape detection between TGI token events and a
    buffered generated_text array).

# Routing

Descriptor.RequiresRelay is the single source of truth for routing. When
it is set and a relay URL is configured, every call for that provider is
reissued through the forwarding relay (X-Target-URL/X-API-Key/X-Provider
headers); adapters never special-case routing on their own.

# Error contract

Adapters perform no error translation. Vendor HTTP failures surface as
*UpstreamError carrying the raw status and body; the caller maps them
through the taxonomy package. Transport failures are returned as-is.

# Implementing a new vendor

A new OpenAI-compatible vendor is one Descriptor plus a default-model
entry and a static model table. A genuinely divergent vendor needs three
things: a request-shaping function, a frame-parsing function for its
stream format (pick or add a decoder in internal/stream), and a static
model table. Adapters must stay stateless; the API key travels with each
call.
*/
package providers
