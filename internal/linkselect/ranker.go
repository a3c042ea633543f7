package linkselect

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/FelpTB/fornecedor-orchestrator/internal/llm"
)

const rankerSystemPrompt = `You are selecting which in-site links from a company's website are most likely to contain commercial profile information: offerings, clients, partnerships, certifications, case studies, and company description.

Rank the numbered candidates from most to least likely to contain that content. Return only the JSON object matching the schema.`

const rankerUserTemplate = `Select and order the top %d most promising links out of these %d candidates:

%s`

const rankerSchemaName = "link_ranking"

type rawRanking struct {
	RankedIndexes []int `json:"ranked_indexes"`
}

// LLMRanker implements Ranker over a structured-output caller: it hands the
// candidate links to the model as a numbered list and asks for an ordering
// by index, which keeps the model from having to reproduce URLs verbatim.
type LLMRanker struct {
	caller *llm.Caller
}

// NewLLMRanker wraps caller as a Ranker.
func NewLLMRanker(caller *llm.Caller) *LLMRanker {
	return &LLMRanker{caller: caller}
}

func (r *LLMRanker) RankLinks(ctx context.Context, links []Link, budget int) ([]string, error) {
	var b strings.Builder
	for i, l := range links {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		if l.Text != "" {
			b.WriteString(l.Text)
			b.WriteString(" — ")
		}
		b.WriteString(l.URL)
		b.WriteString("\n")
	}

	messages := []llm.Message{
		{Role: "system", Content: rankerSystemPrompt},
		{Role: "user", Content: fmt.Sprintf(rankerUserTemplate, budget, len(links), b.String())},
	}

	var raw rawRanking
	if err := r.caller.Call(ctx, rankingSchema(), messages, &raw); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(raw.RankedIndexes))
	for _, idx := range raw.RankedIndexes {
		i := idx - 1
		if i < 0 || i >= len(links) {
			continue
		}
		out = append(out, links[i].URL)
	}
	return out, nil
}

func rankingSchema() *llm.Schema {
	return &llm.Schema{
		Name: rankerSchemaName,
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"ranked_indexes": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "integer"},
				},
			},
			"required": []string{"ranked_indexes"},
		},
	}
}
