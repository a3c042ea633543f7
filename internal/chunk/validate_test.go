package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_PassesWhenAllUnderMax(t *testing.T) {
	chunks := []draft{{TokenCount: 5}, {TokenCount: 10}}
	assert.NoError(t, validate(chunks, 10))
}

func TestValidate_ErrorsWhenAnyChunkExceedsMax(t *testing.T) {
	chunks := []draft{{TokenCount: 5}, {TokenCount: 11}}
	err := validate(chunks, 10)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "chunk 1")
}
