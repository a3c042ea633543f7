package llm

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/FelpTB/fornecedor-orchestrator/pkg/anthropic"
)

const anthropicVendorMaxOutputTokens = 8_192

// AnthropicVendor wraps pkg/anthropic.Client as a Vendor. Anthropic accepts
// sampling controls but not a decode-time schema directive through the
// plain Messages API used here, so schema enforcement falls back to
// prompt-injection plus post-parse validation like PerplexityVendor —
// CapSamplingControls only.
type AnthropicVendor struct {
	client       anthropic.Client
	model        string
	systemPrompt []anthropic.SystemBlock
}

// NewAnthropicVendor builds an AnthropicVendor. systemPrompt, if non-nil, is
// sent on every call ahead of the per-call messages — used for the cached,
// stable profile-extraction system prompt built by anthropic.BuildCachedSystemBlocks.
func NewAnthropicVendor(client anthropic.Client, model string, systemPrompt []anthropic.SystemBlock) *AnthropicVendor {
	return &AnthropicVendor{client: client, model: model, systemPrompt: systemPrompt}
}

func (a *AnthropicVendor) Name() string { return "anthropic" }

func (a *AnthropicVendor) Capabilities() Capability { return CapSamplingControls }

func (a *AnthropicVendor) MaxOutputTokens() int { return anthropicVendorMaxOutputTokens }

func (a *AnthropicVendor) Call(ctx context.Context, req CallRequest) (*CallResponse, error) {
	messages := req.Messages
	if req.Schema != nil {
		messages = appendSchemaInstruction(messages, req.Schema)
	}

	temp := req.Sampling.Temperature
	sdkReq := anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   int64(req.MaxTokens),
		System:      a.systemPrompt,
		Messages:    toAnthropicMessages(messages),
		Temperature: &temp,
	}

	resp, err := a.client.CreateMessage(ctx, sdkReq)
	if err != nil {
		return nil, eris.Wrap(err, "llm: anthropic call")
	}

	return &CallResponse{
		Text:         concatText(resp.Content),
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}, nil
}

func toAnthropicMessages(messages []Message) []anthropic.Message {
	out := make([]anthropic.Message, 0, len(messages))
	var system []string
	for _, m := range messages {
		if m.Role == "system" {
			// The Anthropic messages API takes system content in its own
			// field; a "system" Message here is folded into the first user
			// turn instead of being dropped.
			system = append(system, m.Content)
			continue
		}
		out = append(out, anthropic.Message{Role: m.Role, Content: m.Content})
	}
	if len(system) == 0 {
		return out
	}
	prefix := strings.Join(system, "\n\n")
	for i := range out {
		if out[i].Role == "user" {
			out[i].Content = prefix + "\n\n" + out[i].Content
			return out
		}
	}
	return append([]anthropic.Message{{Role: "user", Content: prefix}}, out...)
}

func concatText(blocks []anthropic.ContentBlock) string {
	out := ""
	for _, b := range blocks {
		out += b.Text
	}
	return out
}

// appendSchemaInstruction folds the schema into the last user message for
// vendors without CapSchemaDirective, rather than creating a new trailing
// message, so the instruction sits next to the content it governs.
func appendSchemaInstruction(messages []Message, schema *Schema) []Message {
	if len(messages) == 0 {
		return []Message{{Role: "user", Content: renderSchemaPrompt(schema)}}
	}
	out := make([]Message, len(messages))
	copy(out, messages)
	last := len(out) - 1
	out[last].Content = out[last].Content + "\n\n" + renderSchemaPrompt(schema)
	return out
}
