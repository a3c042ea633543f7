package profile

import (
	"fmt"

	"github.com/FelpTB/fornecedor-orchestrator/internal/llm"
	"github.com/FelpTB/fornecedor-orchestrator/internal/model"
)

// systemPrompt is the stable instruction sent with every chunk extraction
// call. It never changes per-chunk, only the user message does.
const systemPrompt = `You are a research analyst extracting a company's commercial profile from scraped website text.

Write all extracted text in Brazilian Portuguese, matching the language of the source pages.

Distinguish products (physical or packaged goods sold) from services (work performed). Do not list the same offering under both.

Hard caps, never exceed them:
- at most 40 product categories
- at most 60 items per product category
- at most 50 services
- at most 80 clients
- at most 50 partnerships
- at most 50 certifications
- at most 30 case studies

If you find yourself listing 5 or more consecutive items that share a common prefix or template (e.g. "Produto modelo A", "Produto modelo B", "Produto modelo C"...), stop that list — it is almost certainly a navigation menu or catalog filter, not real content.

Return only the JSON object matching the schema. No surrounding text, no markdown fences.`

const userMessageTemplate = `Company key: %s
Source page URLs for this chunk: %s

Website text chunk (%d of %d):
%s

Extract the company's commercial profile from this chunk. Fields not present in this chunk should be left empty — do not invent data.`

func buildMessages(key model.CompanyKey, chunk model.ScrapedChunk) []llm.Message {
	user := fmt.Sprintf(userMessageTemplate,
		key.String(),
		joinURLs(chunk.SourceURLs),
		chunk.Index+1, chunk.Total,
		chunk.Content,
	)
	return []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: user},
	}
}

func joinURLs(urls []string) string {
	if len(urls) == 0 {
		return "(unknown)"
	}
	out := urls[0]
	for _, u := range urls[1:] {
		out += ", " + u
	}
	return out
}
