package llm

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/FelpTB/fornecedor-orchestrator/pkg/openai"
)

const openAIVendorMaxOutputTokens = 16_384

// OpenAIVendor wraps pkg/openai.Client as a Vendor. It supports both
// capability bits: response_format carries the schema directive, and
// temperature/presence/frequency penalties carry the sampling controls.
type OpenAIVendor struct {
	client openai.Client
	model  string
}

// NewOpenAIVendor builds an OpenAIVendor for the given model.
func NewOpenAIVendor(client openai.Client, model string) *OpenAIVendor {
	return &OpenAIVendor{client: client, model: model}
}

func (o *OpenAIVendor) Name() string { return "openai" }

func (o *OpenAIVendor) Capabilities() Capability {
	return CapSchemaDirective | CapSamplingControls
}

func (o *OpenAIVendor) MaxOutputTokens() int { return openAIVendorMaxOutputTokens }

func (o *OpenAIVendor) Call(ctx context.Context, req CallRequest) (*CallResponse, error) {
	temp := req.Sampling.Temperature
	presence := req.Sampling.PresencePenalty
	frequency := req.Sampling.FrequencyPenalty

	sdkReq := openai.ChatRequest{
		Model:            o.model,
		Messages:         toOpenAIMessages(req.Messages),
		MaxTokens:        req.MaxTokens,
		Temperature:      &temp,
		PresencePenalty:  &presence,
		FrequencyPenalty: &frequency,
	}
	if req.Schema != nil {
		sdkReq.Schema = &openai.ResponseSchema{
			Name:   req.Schema.Name,
			Schema: req.Schema.Definition,
			Strict: true,
		}
	}

	resp, err := o.client.CreateChatCompletion(ctx, sdkReq)
	if err != nil {
		return nil, eris.Wrap(err, "llm: openai call")
	}

	return &CallResponse{
		Text:         resp.Content,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

func toOpenAIMessages(messages []Message) []openai.Message {
	out := make([]openai.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.Message{Role: m.Role, Content: m.Content})
	}
	return out
}
