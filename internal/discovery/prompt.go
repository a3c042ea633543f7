package discovery

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FelpTB/fornecedor-orchestrator/internal/llm"
	"github.com/FelpTB/fornecedor-orchestrator/internal/model"
)

const systemPrompt = `You are a research analyst identifying a Brazilian company's own official website from a list of search results.

You do not fetch any page; judge only from the title, URL, and snippet given. Prefer a root domain over a deep subpage. Reject business-data aggregators, directories, and social media profiles disguised as a company presence — choose the company's own domain only.

If no result plausibly belongs to the company, return chosen_url null and status not_found. If you are unsure whether a candidate truly belongs to this company, lower confidence rather than guessing found.

Return only the JSON object matching the schema. No surrounding text.`

const userMessageTemplate = `Company key: %s
Search query used: %s

Search results:
%s

Identify which result, if any, is this company's own official website.`

func buildMessages(result model.SearchResult) []llm.Message {
	user := fmt.Sprintf(userMessageTemplate, result.Key.String(), result.Query, formatHits(result.Hits))
	return []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: user},
	}
}

func formatHits(hits []model.SearchHit) string {
	var b strings.Builder
	for i, h := range hits {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(h.Title)
		b.WriteString("\n   URL: ")
		b.WriteString(h.URL)
		b.WriteString("\n   Snippet: ")
		b.WriteString(h.Snippet)
		b.WriteString("\n")
	}
	return b.String()
}
