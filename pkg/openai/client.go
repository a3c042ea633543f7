// Package openai wraps github.com/sashabaranov/go-openai behind a small
// interface that mirrors pkg/anthropic's shape: the package's own request
// and response types, not the SDK's, cross every exported boundary.
package openai

import (
	"context"
	"encoding/json"

	sdk "github.com/sashabaranov/go-openai"

	"github.com/rotisserie/eris"
)

// rawSchema adapts a plain JSON Schema map to the json.Marshaler the SDK's
// response_format field expects.
type rawSchema map[string]any

func (s rawSchema) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any(s))
}

// Client performs chat completions, optionally constrained to a JSON
// schema via the response_format directive.
type Client interface {
	CreateChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Message is one chat turn.
type Message struct {
	Role    string
	Content string
}

// ResponseSchema constrains decoding to a JSON schema via OpenAI's
// structured-output response_format, when Strict is supported by the model.
type ResponseSchema struct {
	Name   string
	Schema map[string]any
	Strict bool
}

// ChatRequest is this package's request shape.
type ChatRequest struct {
	Model            string
	Messages         []Message
	MaxTokens        int
	Temperature      *float64
	PresencePenalty  *float64
	FrequencyPenalty *float64
	Schema           *ResponseSchema
}

// ChatResponse is this package's response shape.
type ChatResponse struct {
	ID      string
	Model   string
	Content string
	Usage   TokenUsage
}

// TokenUsage reports token consumption for one call.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
}

type sdkClient struct {
	client *sdk.Client
}

// NewClient constructs a Client for api.openai.com using the given API key.
func NewClient(apiKey string) Client {
	return &sdkClient{client: sdk.NewClient(apiKey)}
}

// NewClientWithBaseURL constructs a Client against an OpenAI-compatible
// endpoint other than the default (used by vendors that expose the same
// chat-completions wire format under their own base URL).
func NewClientWithBaseURL(apiKey, baseURL string) Client {
	cfg := sdk.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &sdkClient{client: sdk.NewClientWithConfig(cfg)}
}

func (c *sdkClient) CreateChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	sdkReq := sdk.ChatCompletionRequest{
		Model:    req.Model,
		Messages: toSDKMessages(req.Messages),
	}
	if req.MaxTokens > 0 {
		sdkReq.MaxCompletionTokens = req.MaxTokens
	}
	if req.Temperature != nil {
		sdkReq.Temperature = float32(*req.Temperature)
	}
	if req.PresencePenalty != nil {
		sdkReq.PresencePenalty = float32(*req.PresencePenalty)
	}
	if req.FrequencyPenalty != nil {
		sdkReq.FrequencyPenalty = float32(*req.FrequencyPenalty)
	}
	if req.Schema != nil {
		sdkReq.ResponseFormat = &sdk.ChatCompletionResponseFormat{
			Type: sdk.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &sdk.ChatCompletionResponseFormatJSONSchema{
				Name:   req.Schema.Name,
				Schema: rawSchema(req.Schema.Schema),
				Strict: req.Schema.Strict,
			},
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, sdkReq)
	if err != nil {
		return nil, eris.Wrap(err, "openai: create chat completion")
	}
	if len(resp.Choices) == 0 {
		return nil, eris.New("openai: no choices returned")
	}

	return &ChatResponse{
		ID:      resp.ID,
		Model:   resp.Model,
		Content: resp.Choices[0].Message.Content,
		Usage: TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

func toSDKMessages(messages []Message) []sdk.ChatCompletionMessage {
	out := make([]sdk.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := m.Role
		switch role {
		case "system", "user", "assistant":
		default:
			role = sdk.ChatMessageRoleUser
		}
		out = append(out, sdk.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}
