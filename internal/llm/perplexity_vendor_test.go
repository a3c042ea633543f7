package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FelpTB/fornecedor-orchestrator/pkg/perplexity"
)

type fakePerplexityClient struct {
	req  perplexity.ChatCompletionRequest
	resp *perplexity.ChatCompletionResponse
	err  error
}

func (f *fakePerplexityClient) ChatCompletion(ctx context.Context, req perplexity.ChatCompletionRequest) (*perplexity.ChatCompletionResponse, error) {
	f.req = req
	return f.resp, f.err
}

func TestPerplexityVendor_Capabilities_None(t *testing.T) {
	v := NewPerplexityVendor(&fakePerplexityClient{}, "sonar-pro")
	assert.False(t, v.Capabilities().Has(CapSchemaDirective))
	assert.False(t, v.Capabilities().Has(CapSamplingControls))
}

func TestPerplexityVendor_Call_FoldsSchemaIntoPrompt(t *testing.T) {
	client := &fakePerplexityClient{
		resp: &perplexity.ChatCompletionResponse{
			Choices: []perplexity.Choice{{Message: perplexity.Message{Content: `{"status":"found"}`}}},
			Usage:   perplexity.Usage{PromptTokens: 30, CompletionTokens: 10},
		},
	}
	v := NewPerplexityVendor(client, "sonar-pro")

	resp, err := v.Call(context.Background(), CallRequest{
		Messages: []Message{{Role: "user", Content: "rank these hits"}},
		Schema:   &Schema{Definition: map[string]any{"type": "object"}},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"status":"found"}`, resp.Text)
	require.Len(t, client.req.Messages, 1)
	assert.Contains(t, client.req.Messages[0].Content, "rank these hits")
	assert.Contains(t, client.req.Messages[0].Content, "JSON object")
}

func TestPerplexityVendor_Call_NoChoices(t *testing.T) {
	client := &fakePerplexityClient{resp: &perplexity.ChatCompletionResponse{}}
	v := NewPerplexityVendor(client, "sonar-pro")

	_, err := v.Call(context.Background(), CallRequest{Messages: []Message{{Role: "user", Content: "hi"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestPerplexityVendor_Call_WrapsError(t *testing.T) {
	client := &fakePerplexityClient{err: assertError{"boom"}}
	v := NewPerplexityVendor(client, "sonar-pro")

	_, err := v.Call(context.Background(), CallRequest{Messages: []Message{{Role: "user", Content: "hi"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "perplexity call")
}
