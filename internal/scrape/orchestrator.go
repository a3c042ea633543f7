// Package scrape drives one company through the synchronous scrape stage:
// probe the site, fetch the homepage and a budget of its best in-site
// links, pack whatever came back into token-bounded chunks, and replace the
// company's stored chunk set. Unlike the discovery and profile stages this
// never touches a queue — the facade calls it inline and waits.
package scrape

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/FelpTB/fornecedor-orchestrator/internal/chunk"
	"github.com/FelpTB/fornecedor-orchestrator/internal/fetch"
	"github.com/FelpTB/fornecedor-orchestrator/internal/linkselect"
	"github.com/FelpTB/fornecedor-orchestrator/internal/model"
	"github.com/FelpTB/fornecedor-orchestrator/internal/prober"
	"github.com/FelpTB/fornecedor-orchestrator/internal/resilience"
	"github.com/FelpTB/fornecedor-orchestrator/internal/store"
)

// Config bounds one Orchestrator's link fan-out.
type Config struct {
	// LinkBudget caps how many in-site links are followed beyond the
	// homepage. 0 uses linkselect.DefaultBudget.
	LinkBudget int
	// MaxConcurrentFetches bounds how many link fetches run at once.
	MaxConcurrentFetches int
	Chunk                chunk.Config
}

func (c Config) withDefaults() Config {
	if c.LinkBudget <= 0 {
		c.LinkBudget = linkselect.DefaultBudget
	}
	if c.MaxConcurrentFetches <= 0 {
		c.MaxConcurrentFetches = 10
	}
	return c
}

// siteProber is the slice of *prober.Prober this package depends on.
// Narrowing it to an interface at the point of use keeps Orchestrator
// testable without a real network fan-out over URL variants.
type siteProber interface {
	Probe(ctx context.Context, baseURL string, knowledge *model.SiteKnowledge) (*prober.Result, error)
}

// pageFetcher is the slice of *fetch.AdaptiveFetcher this package depends
// on, narrowed for the same reason as siteProber.
type pageFetcher interface {
	Fetch(ctx context.Context, targetURL string, knowledge *model.SiteKnowledge) (*fetch.Result, error)
}

// Orchestrator runs the probe -> fetch -> select-links -> fetch -> chunk ->
// store pipeline for one company at a time.
type Orchestrator struct {
	prober  siteProber
	fetcher pageFetcher
	ranker  linkselect.Ranker
	store   store.Store
	cfg     Config
	log     *zap.Logger
}

// New builds an Orchestrator. ranker may be nil, in which case link
// selection falls back to the heuristic ordering whenever the candidate
// count exceeds the link budget.
func New(p *prober.Prober, f *fetch.AdaptiveFetcher, ranker linkselect.Ranker, st store.Store, cfg Config, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		prober:  p,
		fetcher: f,
		ranker:  ranker,
		store:   st,
		cfg:     cfg.withDefaults(),
		log:     log,
	}
}

// Result summarizes one completed scrape for the facade's response body.
type Result struct {
	ChunksSaved int
	Pages       int
	Tokens      int
	Elapsed     time.Duration
}

// Run probes targetURL, fetches the homepage plus a budget of its best
// in-site links, and replaces key's stored chunk set with whatever content
// came back. A scrape that returns zero usable pages is a failure — a
// protection-detected error if the homepage was itself challenged, a
// transport error otherwise. Any page beyond the homepage that fails to
// fetch is skipped rather than aborting the whole scrape.
func (o *Orchestrator) Run(ctx context.Context, key model.CompanyKey, targetURL string) (*Result, error) {
	start := time.Now()
	log := o.log.With(zap.String("key", string(key)), zap.String("url", targetURL))

	origin := fetch.Origin(targetURL)
	knowledge, err := o.store.GetSiteKnowledge(ctx, origin)
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: load site knowledge for %s", origin)
	}
	if knowledge == nil {
		knowledge = &model.SiteKnowledge{Origin: origin}
	}

	probeRes, err := o.prober.Probe(ctx, targetURL, knowledge)
	if err != nil {
		return nil, resilience.WithKind(eris.Wrapf(err, "scrape: probe %s", targetURL), resilience.KindTransport)
	}
	knowledge.CanonicalURL = probeRes.URL
	knowledge.SiteType = probeRes.SiteType

	homeRes, homeErr := o.fetcher.Fetch(ctx, probeRes.URL, knowledge)
	if homeErr != nil {
		if saveErr := o.store.SaveSiteKnowledge(ctx, knowledge); saveErr != nil {
			log.Warn("scrape: save site knowledge after failed homepage fetch", zap.Error(saveErr))
		}
		return nil, classifyFetchFailure(homeErr, probeRes.URL)
	}

	pages := []model.CrawledPage{toPage(homeRes)}

	links, linkErr := linkselect.Select(ctx, homeRes.Body, probeRes.URL, o.cfg.LinkBudget, o.ranker, log)
	if linkErr != nil {
		log.Warn("scrape: link selection failed, scraping homepage only", zap.Error(linkErr))
		links = nil
	}

	pages = append(pages, o.fetchLinks(ctx, links, log)...)

	if err := o.store.SaveSiteKnowledge(ctx, knowledge); err != nil {
		log.Warn("scrape: save site knowledge", zap.Error(err))
	}

	chunks, err := chunk.Process(key, pages, o.cfg.Chunk)
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: chunk pages for %s", key)
	}
	if len(chunks) == 0 {
		return nil, resilience.WithKind(eris.Errorf("scrape: no content extracted for %s", key), resilience.KindTransport)
	}

	if err := o.store.ReplaceScrapedChunks(ctx, key, chunks); err != nil {
		return nil, eris.Wrapf(err, "scrape: save chunks for %s", key)
	}

	var tokens int
	for _, c := range chunks {
		tokens += c.TokenCount
	}

	return &Result{
		ChunksSaved: len(chunks),
		Pages:       len(pages),
		Tokens:      tokens,
		Elapsed:     time.Since(start),
	}, nil
}

// fetchLinks fetches every link concurrently, bounded by
// MaxConcurrentFetches, skipping any that fail. Link fetches never receive
// the shared knowledge pointer — Fetch mutates it in place and is not safe
// to call concurrently against the same knowledge from multiple goroutines;
// only the homepage fetch above updates it.
func (o *Orchestrator) fetchLinks(ctx context.Context, links []string, log *zap.Logger) []model.CrawledPage {
	if len(links) == 0 {
		return nil
	}

	var (
		mu    sync.Mutex
		pages []model.CrawledPage
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.MaxConcurrentFetches)

	for _, link := range links {
		link := link
		g.Go(func() error {
			res, err := o.fetcher.Fetch(gctx, link, nil)
			if err != nil {
				log.Debug("scrape: link fetch failed, skipping", zap.String("link", link), zap.Error(err))
				return nil
			}
			mu.Lock()
			pages = append(pages, toPage(res))
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // individual failures are already swallowed above

	return pages
}

func toPage(res *fetch.Result) model.CrawledPage {
	return model.CrawledPage{
		URL:        res.FinalURL,
		Content:    res.Body,
		StatusCode: res.StatusCode,
		Strategy:   string(res.Strategy),
	}
}

func classifyFetchFailure(err error, targetURL string) error {
	var perr *fetch.ProtectionError
	if errors.As(err, &perr) {
		return resilience.WithKind(eris.Wrapf(err, "scrape: homepage protected %s", targetURL), resilience.KindProtectionDetected)
	}
	if resilience.IsKind(err, resilience.KindRateLimited) || resilience.IsKind(err, resilience.KindUnavailableInput) {
		return err
	}
	return resilience.WithKind(eris.Wrapf(err, "scrape: homepage fetch %s", targetURL), resilience.KindTransport)
}
