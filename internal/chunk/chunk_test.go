package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FelpTB/fornecedor-orchestrator/internal/model"
)

func TestProcess_DeduplicatesAcrossPages(t *testing.T) {
	nav := "Home | About Us | Products | Services | Contact | Careers"
	pages := []model.CrawledPage{
		{URL: "https://example.com/", Content: nav + "\nWelcome to our homepage with unique content"},
		{URL: "https://example.com/about", Content: nav + "\nOur unique about page content goes here"},
	}

	chunks, err := Process(model.CompanyKey("12345678"), pages, Config{})
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	joined := chunks[0].Content
	assert.Equal(t, 1, strings.Count(joined, nav))
	assert.Contains(t, joined, "Welcome to our homepage")
	assert.Contains(t, joined, "Our unique about page content")
}

func TestProcess_StampsIndexTotalAndSources(t *testing.T) {
	pages := []model.CrawledPage{
		{URL: "https://example.com/a", Content: strings.Repeat("a unique sentence of real content. ", 2)},
		{URL: "https://example.com/b", Content: strings.Repeat("b unique sentence of real content. ", 2)},
	}

	chunks, err := Process(model.CompanyKey("12345678"), pages, Config{MaxTokens: 1_000_000})
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	c := chunks[0]
	assert.Equal(t, model.CompanyKey("12345678"), c.Key)
	assert.Equal(t, 0, c.Index)
	assert.Equal(t, 1, c.Total)
	assert.False(t, c.CreatedAt.IsZero())
	assert.ElementsMatch(t, []string{"https://example.com/a", "https://example.com/b"}, c.SourceURLs)
	assert.Equal(t, c.TokenCount, estimateTokens(c.Content))
}

func TestProcess_SkipsPagesWithEmptyContent(t *testing.T) {
	pages := []model.CrawledPage{
		{URL: "https://example.com/empty", Content: ""},
		{URL: "https://example.com/a", Content: "some real unique content worth keeping around"},
	}

	chunks, err := Process(model.CompanyKey("12345678"), pages, Config{})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, []string{"https://example.com/a"}, chunks[0].SourceURLs)
}

func TestProcess_SplitsAcrossMultipleChunksWhenOverBudget(t *testing.T) {
	pages := []model.CrawledPage{
		{URL: "https://example.com/a", Content: strings.Repeat("alpha content paragraph here.\n\n", 20)},
		{URL: "https://example.com/b", Content: strings.Repeat("beta content paragraph here.\n\n", 20)},
	}

	chunks, err := Process(model.CompanyKey("12345678"), pages, Config{MaxTokens: 50})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, len(chunks), c.Total)
		assert.LessOrEqual(t, c.TokenCount, 50)
	}
}

func TestProcess_ConcatenatedChunksEqualDeduplicatedInput(t *testing.T) {
	pages := []model.CrawledPage{
		{URL: "https://example.com/a", Content: "first page unique content block"},
		{URL: "https://example.com/b", Content: "second page unique content block"},
	}

	chunks, err := Process(model.CompanyKey("12345678"), pages, Config{MaxTokens: 1_000_000})
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	blocks := deduplicateAcrossPages(pages)
	var want strings.Builder
	for i, b := range blocks {
		if i > 0 {
			want.WriteString("\n\n")
		}
		want.WriteString(b.Content)
	}
	assert.Equal(t, want.String(), chunks[0].Content)
}
