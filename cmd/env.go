package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/FelpTB/fornecedor-orchestrator/internal/chunk"
	"github.com/FelpTB/fornecedor-orchestrator/internal/fetch"
	"github.com/FelpTB/fornecedor-orchestrator/internal/linkselect"
	"github.com/FelpTB/fornecedor-orchestrator/internal/llm"
	"github.com/FelpTB/fornecedor-orchestrator/internal/model"
	"github.com/FelpTB/fornecedor-orchestrator/internal/prober"
	"github.com/FelpTB/fornecedor-orchestrator/internal/queue"
	"github.com/FelpTB/fornecedor-orchestrator/internal/ratebudget"
	"github.com/FelpTB/fornecedor-orchestrator/internal/resilience"
	"github.com/FelpTB/fornecedor-orchestrator/internal/scrape"
	"github.com/FelpTB/fornecedor-orchestrator/internal/store"
	"github.com/FelpTB/fornecedor-orchestrator/pkg/anthropic"
	"github.com/FelpTB/fornecedor-orchestrator/pkg/firecrawl"
	"github.com/FelpTB/fornecedor-orchestrator/pkg/jina"
	"github.com/FelpTB/fornecedor-orchestrator/pkg/openai"
	"github.com/FelpTB/fornecedor-orchestrator/pkg/perplexity"
)

// env holds every initialized client, the shared rate budget and circuit
// breakers, and the per-stage orchestrators/queues the serve and worker
// commands wire into their respective entry points.
type env struct {
	Store store.Store

	SearchClient jina.Client
	Caller       *llm.Caller

	Orchestrator *scrape.Orchestrator

	DiscoveryQueue *queue.Queue
	ProfileQueue   *queue.Queue
}

// Close releases resources held by the environment.
func (e *env) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv validates cfg for mode, opens the store, builds every vendor
// client, and wires the shared rate budget, circuit breakers, structured
// output caller, and scrape orchestrator every stage depends on. Callers
// should defer env.Close().
func initEnv(ctx context.Context, mode string) (*env, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
		MaxConns: cfg.Store.MaxConns,
		MinConns: cfg.Store.MinConns,
	})
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	budget := ratebudget.New(ratebudget.Config{
		RatePerSec: cfg.RateBudget.DefaultRatePerSec,
		Burst:      cfg.RateBudget.DefaultBurst,
	})
	breakers := resilience.NewServiceBreakers(resilience.CircuitBreakerConfig{
		FailureThreshold:  cfg.Circuit.FailureThreshold,
		ResetTimeout:      time.Duration(cfg.Circuit.ResetTimeoutSecs) * time.Second,
		HalfOpenMaxProbes: cfg.Circuit.HalfOpenMaxProbes,
	})
	// fetchBreakers is separate from the vendor-call breakers: origin breakers
	// must not trip on protection_detected, or a protected site's own circuit
	// would poison its score. ShouldTrip is what fetch.AdaptiveFetcher's dead
	// fallback path and its tests already assumed was wired in.
	fetchBreakers := resilience.NewServiceBreakers(resilience.CircuitBreakerConfig{
		FailureThreshold:  cfg.Circuit.FailureThreshold,
		ResetTimeout:      time.Duration(cfg.Circuit.ResetTimeoutSecs) * time.Second,
		HalfOpenMaxProbes: cfg.Circuit.HalfOpenMaxProbes,
		ShouldTrip:        fetch.ShouldTrip,
	})

	jinaClient := jina.NewClient(cfg.Jina.Key, jina.WithBaseURL(cfg.Jina.BaseURL), jina.WithSearchBaseURL(cfg.Jina.SearchBaseURL))
	firecrawlClient := firecrawl.NewClient(cfg.Firecrawl.Key, firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL))

	caller := buildCaller(budget, breakers)

	fetcher := fetch.New(fetch.Config{
		UserAgents: cfg.Fetch.UserAgents,
	}, jinaClient, firecrawlClient, budget, fetchBreakers, zap.L())

	prb := prober.New(prober.Config{
		Timeout: time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
	}, zap.L())

	var ranker linkselect.Ranker
	if caller != nil {
		ranker = linkselect.NewLLMRanker(caller)
	}

	orch := scrape.New(prb, fetcher, ranker, st, scrape.Config{
		Chunk: chunk.Config{MaxTokens: cfg.Chunk.MaxTokensPerChunk},
	}, zap.L())

	queueCfg := queue.Config{
		VisibilityTimeout: time.Duration(cfg.Queue.VisibilityTimeoutSecs) * time.Second,
		MaxAttempts:       cfg.Queue.MaxAttempts,
		InitialBackoff:    time.Duration(cfg.Queue.InitialBackoffSecs) * time.Second,
		MaxBackoff:        time.Duration(cfg.Queue.MaxBackoffSecs) * time.Second,
	}
	pool := st.Pool()

	return &env{
		Store:          st,
		SearchClient:   jinaClient,
		Caller:         caller,
		Orchestrator:   orch,
		DiscoveryQueue: queue.New(pool, queueCfg),
		ProfileQueue:   queue.New(pool, queueCfg),
	}, nil
}

// buildCaller wires every configured structured-output vendor into a
// Caller, in the order the config documents them: Anthropic first (sampling
// controls, schema folded into the prompt), OpenAI second (schema directives
// via response_format), Perplexity last (neither). A vendor with no API key
// configured is skipped rather than built with an empty credential.
func buildCaller(budget *ratebudget.Budget, breakers *resilience.ServiceBreakers) *llm.Caller {
	var vendors []llm.Vendor

	if cfg.Anthropic.Key != "" {
		client := anthropic.NewClient(cfg.Anthropic.Key)
		vendors = append(vendors, llm.NewAnthropicVendor(client, cfg.Anthropic.Model, nil))
	}
	if cfg.OpenAI.Key != "" {
		client := openai.NewClient(cfg.OpenAI.Key)
		vendors = append(vendors, llm.NewOpenAIVendor(client, cfg.OpenAI.Model))
	}
	if cfg.Perplexity.Key != "" {
		client := perplexity.NewClient(cfg.Perplexity.Key, perplexity.WithBaseURL(cfg.Perplexity.BaseURL), perplexity.WithModel(cfg.Perplexity.Model))
		vendors = append(vendors, llm.NewPerplexityVendor(client, cfg.Perplexity.Model))
	}
	if len(vendors) == 0 {
		return nil
	}
	return llm.New(vendors, budget, breakers, llm.Config{}, zap.L())
}

// queueNameToModel maps the facade/worker-facing queue identifiers to the
// durable queue names they drain.
var queueNameToModel = map[string]model.QueueName{
	"discovery": model.QueueDiscovery,
	"profile":   model.QueueProfile,
}
