package llm

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/FelpTB/fornecedor-orchestrator/pkg/perplexity"
)

const perplexityVendorMaxOutputTokens = 4_096

// PerplexityVendor wraps pkg/perplexity.Client as a Vendor with neither
// capability bit: Perplexity's chat-completions API takes no response
// schema and no presence/frequency penalties, only temperature, so it is
// the pack's concrete grounding for the schema-in-prompt fallback path.
type PerplexityVendor struct {
	client perplexity.Client
	model  string
}

// NewPerplexityVendor builds a PerplexityVendor for the given model.
func NewPerplexityVendor(client perplexity.Client, model string) *PerplexityVendor {
	return &PerplexityVendor{client: client, model: model}
}

func (p *PerplexityVendor) Name() string { return "perplexity" }

func (p *PerplexityVendor) Capabilities() Capability { return 0 }

func (p *PerplexityVendor) MaxOutputTokens() int { return perplexityVendorMaxOutputTokens }

func (p *PerplexityVendor) Call(ctx context.Context, req CallRequest) (*CallResponse, error) {
	messages := req.Messages
	if req.Schema != nil {
		messages = appendSchemaInstruction(messages, req.Schema)
	}

	temp := req.Sampling.Temperature
	maxTokens := req.MaxTokens
	sdkReq := perplexity.ChatCompletionRequest{
		Model:       p.model,
		Messages:    toPerplexityMessages(messages),
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	}

	resp, err := p.client.ChatCompletion(ctx, sdkReq)
	if err != nil {
		return nil, eris.Wrap(err, "llm: perplexity call")
	}
	if len(resp.Choices) == 0 {
		return nil, eris.New("llm: perplexity returned no choices")
	}

	return &CallResponse{
		Text:         resp.Choices[0].Message.Content,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

func toPerplexityMessages(messages []Message) []perplexity.Message {
	out := make([]perplexity.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, perplexity.Message{Role: m.Role, Content: m.Content})
	}
	return out
}
