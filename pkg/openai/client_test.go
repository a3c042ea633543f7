package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateChatCompletion_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"id":    "chatcmpl-1",
			"model": "gpt-4o-mini",
			"choices": []map[string]any{
				{"index": 0, "message": map[string]any{"role": "assistant", "content": "hello"}},
			},
			"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 3},
		})
	}))
	defer ts.Close()

	client := NewClientWithBaseURL("test-key", ts.URL)
	resp, err := client.CreateChatCompletion(context.Background(), ChatRequest{
		Model:    "gpt-4o-mini",
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "chatcmpl-1", resp.ID)
	assert.Equal(t, "hello", resp.Content)
	assert.Equal(t, 12, resp.Usage.PromptTokens)
	assert.Equal(t, 3, resp.Usage.CompletionTokens)
}

func TestCreateChatCompletion_WithSchema(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		rf, ok := body["response_format"].(map[string]any)
		require.True(t, ok, "response_format should be present")
		assert.Equal(t, "json_schema", rf["type"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"id":      "chatcmpl-2",
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": "{}"}}},
			"usage":   map[string]any{"prompt_tokens": 1, "completion_tokens": 1},
		})
	}))
	defer ts.Close()

	client := NewClientWithBaseURL("test-key", ts.URL)
	resp, err := client.CreateChatCompletion(context.Background(), ChatRequest{
		Model:    "gpt-4o-mini",
		Messages: []Message{{Role: "user", Content: "hi"}},
		Schema: &ResponseSchema{
			Name:   "profile",
			Schema: map[string]any{"type": "object"},
			Strict: true,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "{}", resp.Content)
}

func TestCreateChatCompletion_NoChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"id": "chatcmpl-3", "choices": []map[string]any{}, "usage": map[string]any{},
		})
	}))
	defer ts.Close()

	client := NewClientWithBaseURL("test-key", ts.URL)
	_, err := client.CreateChatCompletion(context.Background(), ChatRequest{
		Model:    "gpt-4o-mini",
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestCreateChatCompletion_Error(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"error": map[string]any{"message": "internal error", "type": "server_error"},
		})
	}))
	defer ts.Close()

	client := NewClientWithBaseURL("test-key", ts.URL)
	_, err := client.CreateChatCompletion(context.Background(), ChatRequest{
		Model:    "gpt-4o-mini",
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create chat completion")
}

func TestToSDKMessages_UnknownRoleDefaultsToUser(t *testing.T) {
	out := toSDKMessages([]Message{{Role: "weird", Content: "x"}})
	require.Len(t, out, 1)
	assert.Equal(t, "user", out[0].Role)
}

func TestNewClient_ReturnsNonNil(t *testing.T) {
	c := NewClient("key")
	require.NotNil(t, c)
	var _ Client = c //nolint:staticcheck
}
