// Package llm implements the structured-output caller: a vendor-agnostic
// "call(vendor, messages, schema) -> parsed object" primitive with adaptive
// output budgets, degeneration detection, retry, and health-scored vendor
// fallback. Stage code (internal/discovery, internal/profile) never talks to
// an SDK directly; it builds messages and a schema and calls a Caller.
package llm

import "context"

// Capability bits a vendor advertises. A vendor that lacks CapSchemaDirective
// still participates in Call: the schema is folded into the prompt instead
// and the response is validated after parsing rather than constrained during
// decode.
type Capability uint8

const (
	// CapSchemaDirective means the vendor accepts a structured-output/
	// response-format directive that constrains decoding to a JSON schema.
	CapSchemaDirective Capability = 1 << iota
	// CapSamplingControls means the vendor accepts temperature, presence
	// penalty, and frequency penalty on the request.
	CapSamplingControls
)

// Has reports whether cap is set in c.
func (c Capability) Has(cap Capability) bool { return c&cap != 0 }

// Message is one turn in a chat-style request, vendor-agnostic.
type Message struct {
	Role    string // "system", "user", or "assistant"
	Content string
}

// Schema describes the structured output a call must produce. Name is a
// short identifier vendors that require one (OpenAI's response_format) can
// use; Definition is the JSON Schema object itself.
type Schema struct {
	Name       string
	Definition map[string]any
}

// Sampling carries the decode-time controls the degeneration retry path
// adjusts. Vendors without CapSamplingControls pass on only the fields
// their API takes (PerplexityVendor sends Temperature alone).
type Sampling struct {
	Temperature      float64
	PresencePenalty  float64
	FrequencyPenalty float64
}

// BaselineSampling is the sampling profile used on a vendor's first attempt.
func BaselineSampling() Sampling {
	return Sampling{Temperature: 0.1, PresencePenalty: 0.3, FrequencyPenalty: 0.4}
}

// adjustForDegeneration returns the sampling profile used after a
// degeneration hit: push the model away from the rut it was stuck in, with
// no other change to the request.
func (s Sampling) adjustForDegeneration() Sampling {
	return Sampling{Temperature: 0.2, PresencePenalty: 0.6, FrequencyPenalty: 0.8}
}

// CallRequest is what a Vendor implementation actually receives, after the
// Caller has resolved the output budget and sampling profile for this
// attempt.
type CallRequest struct {
	Messages  []Message
	Schema    *Schema
	MaxTokens int
	Sampling  Sampling
}

// CallResponse is a vendor's raw decode output before degeneration scanning
// or JSON parsing.
type CallResponse struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Vendor is one LLM backend the Caller can route a structured-output request
// to. Implementations wrap a pkg/* HTTP client and translate CallRequest to
// and from that client's own request/response shapes.
type Vendor interface {
	// Name identifies the vendor for health tracking, rate-budget keys, and
	// logging — e.g. "anthropic", "openai", "perplexity".
	Name() string
	// Capabilities reports which of the two capability bits this vendor
	// supports.
	Capabilities() Capability
	// MaxOutputTokens is this vendor's own ceiling, used as the adaptive
	// budget's large-input tier.
	MaxOutputTokens() int
	// Call issues one request. Implementations fold req.Schema into the
	// prompt when Capabilities lacks CapSchemaDirective, and send only the
	// req.Sampling fields their API takes when Capabilities lacks
	// CapSamplingControls.
	Call(ctx context.Context, req CallRequest) (*CallResponse, error)
}
