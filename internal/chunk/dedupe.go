package chunk

import "strings"

// minLineLength is the dedup exemption threshold: lines shorter than this
// are always kept, duplicate or not, since short lines are cheap and often
// carry meaning that depends on position (prices, labels, single words).
const minLineLength = 40

// DedupeStats summarizes what deduplicateLines removed.
type DedupeStats struct {
	OriginalLines int
	UniqueLines   int
	RemovedLines  int
}

// deduplicateLines collapses line-level duplicates across the whole
// document, keeping the first occurrence of each line at or above
// minLineLength and preserving order. Corporate sites repeat nav/footer
// blocks on every page; this is where most of the token reduction happens.
func deduplicateLines(content string) (string, DedupeStats) {
	seen := make(map[string]bool)
	kept, stats := dedupeLinesWithSeen(content, seen)
	return kept, stats
}

// dedupeLinesWithSeen is deduplicateLines against a caller-supplied seen
// set, letting multiple pages share one document-scope dedup pass while
// each page's surviving lines stay in their own block.
func dedupeLinesWithSeen(content string, seen map[string]bool) (string, DedupeStats) {
	lines := strings.Split(content, "\n")
	kept := make([]string, 0, len(lines))
	removed := 0

	for _, line := range lines {
		normalized := strings.TrimRight(line, " \t\r")
		if len(normalized) < minLineLength {
			kept = append(kept, line)
			continue
		}
		if seen[normalized] {
			removed++
			continue
		}
		seen[normalized] = true
		kept = append(kept, line)
	}

	stats := DedupeStats{
		OriginalLines: len(lines),
		UniqueLines:   len(kept),
		RemovedLines:  removed,
	}
	return strings.Join(kept, "\n"), stats
}

// normalizeWhitespace trims trailing whitespace from every line and
// collapses runs of 3+ blank lines down to 2, without disturbing paragraph
// structure elsewhere.
func normalizeWhitespace(content string) string {
	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))
	blank := 0

	for _, line := range lines {
		trimmed := strings.TrimRight(line, " \t\r")
		if trimmed == "" {
			blank++
			if blank <= 2 {
				out = append(out, "")
			}
			continue
		}
		blank = 0
		out = append(out, trimmed)
	}
	return strings.Join(out, "\n")
}
