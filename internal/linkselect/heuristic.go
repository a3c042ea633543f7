package linkselect

import (
	"sort"
	"strings"
)

const (
	lowValuePenalty  = -2.0
	highSignalBonus  = 3.0
	anchorTextBonus  = 0.5
	shallowPathBonus = 1.0
)

// ScoreHeuristic assigns each link a score from its path and anchor text:
// low-value paths (blog, login, legal) are penalized, high-signal paths
// (about, products, services, contact, team, cases) are rewarded, and a
// non-empty anchor is a small positive signal since navigation chrome
// usually has real anchor text.
func ScoreHeuristic(links []Link) []Link {
	scored := make([]Link, len(links))
	for i, l := range links {
		l.Score = heuristicScore(l)
		scored[i] = l
	}
	return scored
}

func heuristicScore(l Link) float64 {
	lower := strings.ToLower(l.URL)
	score := 0.0

	for _, marker := range lowValuePathMarkers {
		if strings.Contains(lower, marker) {
			score += lowValuePenalty
			break
		}
	}
	for _, marker := range highSignalPathMarkers {
		if strings.Contains(lower, marker) {
			score += highSignalBonus
			break
		}
	}
	if strings.TrimSpace(l.Text) != "" {
		score += anchorTextBonus
	}
	if depth(lower) <= 1 {
		score += shallowPathBonus
	}
	return score
}

func depth(rawURL string) int {
	idx := strings.Index(rawURL, "://")
	path := rawURL
	if idx >= 0 {
		path = rawURL[idx+3:]
		if slash := strings.Index(path, "/"); slash >= 0 {
			path = path[slash:]
		} else {
			path = ""
		}
	}
	path = strings.Trim(path, "/")
	if path == "" {
		return 0
	}
	return strings.Count(path, "/") + 1
}

// SortByScore orders links highest-score first, stable on ties so the
// heuristic's ordering is deterministic for a fixed input.
func SortByScore(links []Link) []Link {
	out := make([]Link, len(links))
	copy(out, links)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
