package chunk

import "strings"

// pageBlock is one page's surviving content after document-scope line
// dedup, still tagged with the URL it came from so packed chunks can carry
// their source set.
type pageBlock struct {
	URL     string
	Content string
}

// draft is an in-progress or finished chunk before it is stamped with an
// index, total and key.
type draft struct {
	Content    string
	TokenCount int
	SourceURLs []string
}

func (d *draft) addSource(url string) {
	for _, u := range d.SourceURLs {
		if u == url {
			return
		}
	}
	d.SourceURLs = append(d.SourceURLs, url)
}

// packBlocks greedily packs page blocks into chunks up to maxTokens each.
// Cuts prefer page boundaries; a block that alone exceeds maxTokens is
// split internally, preferring paragraph boundaries over line boundaries,
// and never splitting inside a line.
func packBlocks(blocks []pageBlock, maxTokens int) []draft {
	var chunks []draft
	var current draft

	flush := func() {
		if current.Content != "" {
			chunks = append(chunks, current)
		}
		current = draft{}
	}

	for _, block := range blocks {
		if block.Content == "" {
			continue
		}
		blockTokens := estimateTokens(block.Content)

		if blockTokens > maxTokens {
			flush()
			chunks = append(chunks, splitOversizedBlock(block, maxTokens)...)
			continue
		}

		if current.Content != "" && estimateTokens(current.Content+"\n\n"+block.Content) > maxTokens {
			flush()
		}

		if current.Content == "" {
			current.Content = block.Content
		} else {
			current.Content += "\n\n" + block.Content
		}
		current.TokenCount = estimateTokens(current.Content)
		current.addSource(block.URL)
	}
	flush()

	return chunks
}

// splitOversizedBlock divides a single page's content into multiple
// chunks when the whole page exceeds maxTokens, cutting on paragraph
// boundaries first and falling back to line boundaries within any
// paragraph that is itself too large. A single line larger than maxTokens
// is kept whole in its own chunk; validate is left to reject it.
func splitOversizedBlock(block pageBlock, maxTokens int) []draft {
	paragraphs := strings.Split(block.Content, "\n\n")
	return packUnits(paragraphs, "\n\n", block.URL, maxTokens, true)
}

// packUnits greedily packs text units separated by sep into chunks bounded
// by maxTokens. When allowLineSplit is true, a unit that alone exceeds
// maxTokens is recursively split by lines instead of being rejected outright.
func packUnits(units []string, sep, sourceURL string, maxTokens int, allowLineSplit bool) []draft {
	var chunks []draft
	var current draft

	flush := func() {
		if current.Content != "" {
			current.addSource(sourceURL)
			chunks = append(chunks, current)
		}
		current = draft{}
	}

	for _, unit := range units {
		if unit == "" {
			continue
		}
		unitTokens := estimateTokens(unit)

		if unitTokens > maxTokens {
			flush()
			if allowLineSplit {
				lines := strings.Split(unit, "\n")
				chunks = append(chunks, packUnits(lines, "\n", sourceURL, maxTokens, false)...)
			} else {
				// Can't split further without cutting inside a line; keep
				// it whole and let validate report the overflow.
				chunks = append(chunks, draft{
					Content:    unit,
					TokenCount: unitTokens,
					SourceURLs: []string{sourceURL},
				})
			}
			continue
		}

		if current.Content != "" && estimateTokens(current.Content+sep+unit) > maxTokens {
			flush()
		}

		if current.Content == "" {
			current.Content = unit
		} else {
			current.Content += sep + unit
		}
		current.TokenCount = estimateTokens(current.Content)
	}
	flush()

	return chunks
}
