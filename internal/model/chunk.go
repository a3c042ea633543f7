package model

import "time"

// ScrapedChunk is a token-bounded slice of deduplicated, aggregated site
// text. N rows per company key; totally replaced on a re-scrape.
type ScrapedChunk struct {
	Key         CompanyKey `json:"key"`
	Index       int        `json:"index"`
	Total       int        `json:"total"`
	Content     string     `json:"content"`
	TokenCount  int        `json:"token_count"`
	SourceURLs  []string   `json:"source_urls"`
	CreatedAt   time.Time  `json:"created_at"`
}

// CrawledPage is a single fetched page prior to chunking.
type CrawledPage struct {
	URL        string
	Title      string
	Content    string
	StatusCode int
	Strategy   string
}
