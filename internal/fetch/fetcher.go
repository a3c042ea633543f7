// Package fetch implements the adaptive fetcher: a strategy ladder that
// climbs from a cheap direct HTTP GET up through a rendering proxy when a
// site resists the cheaper tiers, while recording what worked so the next
// fetch of the same site can start where this one left off.
package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/FelpTB/fornecedor-orchestrator/internal/model"
	"github.com/FelpTB/fornecedor-orchestrator/internal/ratebudget"
	"github.com/FelpTB/fornecedor-orchestrator/internal/resilience"
	"github.com/FelpTB/fornecedor-orchestrator/pkg/firecrawl"
	"github.com/FelpTB/fornecedor-orchestrator/pkg/jina"
)

// Result is what a single backend returns for one fetch attempt.
type Result struct {
	Strategy   Strategy
	FinalURL   string
	StatusCode int
	Body       string
}

// ProtectionError marks a fetch that reached a server but got back a
// challenge or block page instead of content. It is not a transport
// failure: callers must not count it toward a circuit breaker's failure
// budget, since a protected site otherwise poisons its own origin score.
type ProtectionError struct {
	Category model.ProtectionCategory
	URL      string
}

func (e *ProtectionError) Error() string {
	return "fetch: protection detected (" + string(e.Category) + ") at " + e.URL
}

// Backend performs one strategy's fetch of targetURL.
type Backend interface {
	Fetch(ctx context.Context, targetURL string) (*Result, error)
}

// Config bounds the four backends the fetcher builds.
type Config struct {
	FastTimeout       time.Duration
	RobustTimeout     time.Duration
	RobustMaxRetries  int
	AggressiveTimeout time.Duration
	UserAgents        []string
}

func (c Config) withDefaults() Config {
	if c.FastTimeout <= 0 {
		c.FastTimeout = 8 * time.Second
	}
	if c.RobustTimeout <= 0 {
		c.RobustTimeout = 20 * time.Second
	}
	if c.RobustMaxRetries <= 0 {
		c.RobustMaxRetries = 3
	}
	if c.AggressiveTimeout <= 0 {
		c.AggressiveTimeout = 45 * time.Second
	}
	if len(c.UserAgents) == 0 {
		c.UserAgents = []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
			"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
		}
	}
	return c
}

// AdaptiveFetcher escalates through StrategyFast, StrategyStandard,
// StrategyRobust and StrategyAggressive until one returns content, gating
// every attempt behind the shared rate budget and an origin-scoped circuit
// breaker.
type AdaptiveFetcher struct {
	backends map[Strategy]Backend
	budget   *ratebudget.Budget
	breakers *resilience.ServiceBreakers
	log      *zap.Logger
}

// New builds an AdaptiveFetcher wiring net/http for FAST and ROBUST, a
// Jina Reader client for STANDARD, and a Firecrawl client for AGGRESSIVE.
func New(cfg Config, jinaClient jina.Client, firecrawlClient firecrawl.Client, budget *ratebudget.Budget, breakers *resilience.ServiceBreakers, log *zap.Logger) *AdaptiveFetcher {
	cfg = cfg.withDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	return &AdaptiveFetcher{
		backends: map[Strategy]Backend{
			StrategyFast:       newDirectBackend(StrategyFast, cfg.FastTimeout, 1, nil),
			StrategyStandard:   newJinaBackend(jinaClient),
			StrategyRobust:     newDirectBackend(StrategyRobust, cfg.RobustTimeout, cfg.RobustMaxRetries, cfg.UserAgents),
			StrategyAggressive: newFirecrawlBackend(firecrawlClient),
		},
		budget:   budget,
		breakers: breakers,
		log:      log,
	}
}

// startingStrategy picks where to enter the ladder: a site with a recorded
// preference resumes there rather than re-paying for FAST when it has
// already been established as hopeless.
func startingStrategy(knowledge *model.SiteKnowledge) Strategy {
	if knowledge != nil && Strategy(knowledge.PreferredStrategy).Valid() {
		return Strategy(knowledge.PreferredStrategy)
	}
	return StrategyFast
}

// Fetch climbs the strategy ladder starting from knowledge's preferred
// strategy (or FAST if none is known), stopping at the first strategy that
// returns content. knowledge may be nil; when non-nil it is updated in
// place with the outcome of every attempt made.
func (f *AdaptiveFetcher) Fetch(ctx context.Context, targetURL string, knowledge *model.SiteKnowledge) (*Result, error) {
	strat := startingStrategy(knowledge)
	var lastErr error

	for {
		res, err := f.tryStrategy(ctx, strat, targetURL)

		outcome := model.FetchOutcome{Strategy: string(strat), At: time.Now().UTC()}
		if err == nil {
			outcome.Success = true
			if knowledge != nil {
				knowledge.RecordOutcome(outcome)
				knowledge.PreferredStrategy = string(strat)
			}
			return res, nil
		}

		var perr *ProtectionError
		if errors.As(err, &perr) {
			outcome.Protection = perr.Category
		}
		if knowledge != nil {
			knowledge.RecordOutcome(outcome)
		}
		lastErr = err

		next, ok := strat.Next()
		if !ok {
			break
		}
		f.log.Debug("fetch: escalating strategy",
			zap.String("from", string(strat)), zap.String("to", string(next)),
			zap.String("url", targetURL), zap.Error(err))
		strat = next
	}

	return nil, eris.Wrapf(lastErr, "fetch: exhausted all strategies for %s", targetURL)
}

func (f *AdaptiveFetcher) tryStrategy(ctx context.Context, strat Strategy, targetURL string) (*Result, error) {
	backend, ok := f.backends[strat]
	if !ok {
		return nil, eris.Errorf("fetch: no backend registered for strategy %s", strat)
	}

	if f.budget != nil {
		if err := f.budget.Acquire(ctx, "fetch", string(strat), 1, 10*time.Second); err != nil {
			return nil, resilience.WithKind(eris.Wrapf(err, "fetch: rate budget for %s", strat), resilience.KindRateLimited)
		}
	}

	breaker := f.breakerFor(targetURL)
	res, err := resilience.ExecuteVal(ctx, breaker, func(ctx context.Context) (*Result, error) {
		return backend.Fetch(ctx, targetURL)
	})
	if err != nil {
		if errors.Is(err, resilience.ErrCircuitOpen) {
			return nil, resilience.WithKind(err, resilience.KindUnavailableInput)
		}
		return nil, err
	}
	return res, nil
}

// breakerFor keys circuit breakers by origin (scheme+host), not by
// individual URL or strategy: all four strategies hitting the same site
// share one breaker's failure accounting.
func (f *AdaptiveFetcher) breakerFor(targetURL string) *resilience.CircuitBreaker {
	if f.breakers == nil {
		return resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{ShouldTrip: ShouldTrip})
	}
	return f.breakers.Get(Origin(targetURL))
}

// Origin reduces targetURL to its scheme+host, the granularity SiteKnowledge
// and the circuit breaker registry both key on: every page on a site shares
// one knowledge record and one failure budget.
func Origin(targetURL string) string {
	u, err := url.Parse(targetURL)
	if err != nil || u.Host == "" {
		return targetURL
	}
	return u.Scheme + "://" + u.Host
}

// ShouldTrip excludes protection_detected from the circuit breaker's
// failure count: a site that challenges every request is not an unhealthy
// vendor, and must not be driven to open just for being protected.
func ShouldTrip(err error) bool {
	if resilience.IsKind(err, resilience.KindProtectionDetected) {
		return false
	}
	var perr *ProtectionError
	if errors.As(err, &perr) {
		return false
	}
	return true
}

func readAll(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

func closeBody(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
}
