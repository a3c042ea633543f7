package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, estimateTokens(""))
	assert.Equal(t, 1, estimateTokens("abcd"))
	assert.Equal(t, 2, estimateTokens("abcdefgh"))
}

func TestEstimateMessagesTokens_SumsAllMessages(t *testing.T) {
	messages := []Message{
		{Role: "system", Content: "abcd"},
		{Role: "user", Content: "abcdefgh"},
	}
	assert.Equal(t, 3, estimateMessagesTokens(messages))
}

func TestEstimateMessagesTokens_Empty(t *testing.T) {
	assert.Equal(t, 0, estimateMessagesTokens(nil))
}
