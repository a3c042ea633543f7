// Package chunk turns the pages a scrape collected into the token-bounded
// ScrapedChunk rows the profile extractor consumes. Deduplicate, then pack,
// then validate — each step is pure and independently testable.
package chunk

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/FelpTB/fornecedor-orchestrator/internal/model"
)

// DefaultMaxTokens is the effective per-chunk budget after reserving
// headroom for the system prompt and the model's own response.
const DefaultMaxTokens = 14_700

// Config controls the chunking pipeline. Zero value uses DefaultMaxTokens.
type Config struct {
	MaxTokens int
}

func (c Config) withDefaults() Config {
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	return c
}

// Process runs deduplicate -> chunk -> validate over pages and returns the
// ScrapedChunk rows for key, stamped with index/total/created-at. Pages
// with empty content are skipped. The union of returned chunk contents,
// concatenated in index order, equals the deduplicated input verbatim.
func Process(key model.CompanyKey, pages []model.CrawledPage, cfg Config) ([]model.ScrapedChunk, error) {
	cfg = cfg.withDefaults()

	blocks := deduplicateAcrossPages(pages)

	drafts := packBlocks(blocks, cfg.MaxTokens)
	if err := validate(drafts, cfg.MaxTokens); err != nil {
		return nil, eris.Wrap(err, "chunk: process")
	}

	now := time.Now().UTC()
	chunks := make([]model.ScrapedChunk, len(drafts))
	for i, d := range drafts {
		chunks[i] = model.ScrapedChunk{
			Key:        key,
			Index:      i,
			Total:      len(drafts),
			Content:    d.Content,
			TokenCount: d.TokenCount,
			SourceURLs: d.SourceURLs,
			CreatedAt:  now,
		}
	}
	return chunks, nil
}

// deduplicateAcrossPages collapses line-level duplicates across the whole
// set of pages at document scope, preserving first occurrence and per-page
// structure so the packer can still cut on page boundaries.
func deduplicateAcrossPages(pages []model.CrawledPage) []pageBlock {
	seen := make(map[string]bool)
	blocks := make([]pageBlock, 0, len(pages))

	for _, page := range pages {
		if page.Content == "" {
			continue
		}
		deduped, _ := dedupeLinesWithSeen(page.Content, seen)
		content := normalizeWhitespace(deduped)
		if content == "" {
			continue
		}
		blocks = append(blocks, pageBlock{URL: page.URL, Content: content})
	}
	return blocks
}
