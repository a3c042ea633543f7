package fetch

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/FelpTB/fornecedor-orchestrator/pkg/firecrawl"
)

// firecrawlBackend scrapes through Firecrawl's managed proxy and headless
// render, the most expensive and most capable tier. It backs
// StrategyAggressive.
type firecrawlBackend struct {
	client firecrawl.Client
}

func newFirecrawlBackend(client firecrawl.Client) *firecrawlBackend {
	return &firecrawlBackend{client: client}
}

func (fb *firecrawlBackend) Fetch(ctx context.Context, targetURL string) (*Result, error) {
	if fb.client == nil {
		return nil, eris.New("fetch: firecrawl backend not configured")
	}
	resp, err := fb.client.Scrape(ctx, firecrawl.ScrapeRequest{
		URL:     targetURL,
		Formats: []string{"markdown"},
	})
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: firecrawl scrape %s", targetURL)
	}
	if !resp.Success || resp.Data.Markdown == "" {
		return nil, eris.Errorf("fetch: firecrawl returned no content for %s", targetURL)
	}
	return &Result{
		Strategy:   StrategyAggressive,
		FinalURL:   resp.Data.URL,
		StatusCode: resp.Data.StatusCode,
		Body:       resp.Data.Markdown,
	}, nil
}

// BatchScrape fetches many URLs through Firecrawl's batch API in one call
// and reads the batch status once, without polling. The scrape stage does
// not call it: its link fetches go one per link through AdaptiveFetcher.Fetch.
func (fb *firecrawlBackend) BatchScrape(ctx context.Context, urls []string) ([]firecrawl.PageData, error) {
	if fb.client == nil {
		return nil, eris.New("fetch: firecrawl backend not configured")
	}
	resp, err := fb.client.BatchScrape(ctx, firecrawl.BatchScrapeRequest{
		URLs:    urls,
		Formats: []string{"markdown"},
	})
	if err != nil {
		return nil, eris.Wrap(err, "fetch: firecrawl batch scrape")
	}
	status, err := fb.client.GetBatchScrapeStatus(ctx, resp.ID)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: firecrawl batch scrape status")
	}
	return status.Data, nil
}
