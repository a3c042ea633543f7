package linkselect

import (
	"context"

	"go.uber.org/zap"
)

// DefaultBudget is the link budget applied when a caller doesn't specify
// one.
const DefaultBudget = 30

// Ranker re-orders candidate links with a model when the heuristic pass
// leaves more candidates than the budget allows. Implementations that
// cannot produce a ranking (vendor unavailable, unparseable output) return
// an error; Select falls back to the heuristic ordering in that case.
type Ranker interface {
	RankLinks(ctx context.Context, links []Link, budget int) ([]string, error)
}

// Select runs the heuristic pass over html's links, then escalates to
// ranker only if the candidate count exceeds budget. budget <= 0 uses
// DefaultBudget. A nil ranker, or one that errors, falls back to the
// heuristic top-budget ordering.
func Select(ctx context.Context, html, baseURL string, budget int, ranker Ranker, log *zap.Logger) ([]string, error) {
	if budget <= 0 {
		budget = DefaultBudget
	}
	if log == nil {
		log = zap.NewNop()
	}

	links, err := Extract(html, baseURL)
	if err != nil {
		return nil, err
	}

	scored := SortByScore(ScoreHeuristic(links))

	if len(scored) <= budget || ranker == nil {
		return topK(scored, budget), nil
	}

	ranked, err := ranker.RankLinks(ctx, scored, budget)
	if err != nil {
		log.Warn("linkselect: ranking fallback to heuristic order", zap.Error(err))
		return topK(scored, budget), nil
	}
	if len(ranked) == 0 {
		log.Warn("linkselect: ranker returned no links, falling back to heuristic order")
		return topK(scored, budget), nil
	}

	valid := make(map[string]bool, len(scored))
	for _, l := range scored {
		valid[l.URL] = true
	}
	var out []string
	for _, u := range ranked {
		if valid[u] {
			out = append(out, u)
		}
		if len(out) >= budget {
			break
		}
	}
	if len(out) == 0 {
		log.Warn("linkselect: ranker output contained no known links, falling back to heuristic order")
		return topK(scored, budget), nil
	}
	return out, nil
}

func topK(links []Link, k int) []string {
	if k > len(links) {
		k = len(links)
	}
	out := make([]string, k)
	for i := 0; i < k; i++ {
		out[i] = links[i].URL
	}
	return out
}
