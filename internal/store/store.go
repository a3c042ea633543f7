// Package store persists the documents each pipeline stage produces:
// search results, discovery results, scraped chunks, company profiles, and
// the per-site knowledge base that steers fetch strategy selection.
package store

import (
	"context"

	"github.com/FelpTB/fornecedor-orchestrator/internal/model"
)

// Store defines the persistence interface for the orchestrator. Queue state
// lives in internal/queue against the same database; Store only owns stage
// output documents.
type Store interface {
	// Search
	SaveSearchResult(ctx context.Context, r *model.SearchResult) error
	GetSearchResult(ctx context.Context, key model.CompanyKey) (*model.SearchResult, error)

	// Discovery
	UpsertDiscoveryResult(ctx context.Context, r *model.DiscoveryResult) error
	GetDiscoveryResult(ctx context.Context, key model.CompanyKey) (*model.DiscoveryResult, error)

	// Scrape — a re-scrape wholesale-replaces the prior chunk set.
	ReplaceScrapedChunks(ctx context.Context, key model.CompanyKey, chunks []model.ScrapedChunk) error
	GetScrapedChunks(ctx context.Context, key model.CompanyKey) ([]model.ScrapedChunk, error)

	// Profile
	UpsertCompanyProfile(ctx context.Context, p *model.CompanyProfile) error
	GetCompanyProfile(ctx context.Context, key model.CompanyKey) (*model.CompanyProfile, error)

	// Site knowledge, keyed by origin (scheme+host) so every company whose
	// site resolves to the same host shares one record.
	GetSiteKnowledge(ctx context.Context, origin string) (*model.SiteKnowledge, error)
	SaveSiteKnowledge(ctx context.Context, kb *model.SiteKnowledge) error

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}
