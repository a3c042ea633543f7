// Package prober implements the site prober: given a base URL it finds the
// fastest reachable variant among the four {http, https} x {apex, www}
// combinations and classifies what it found.
package prober

import (
	"context"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/FelpTB/fornecedor-orchestrator/internal/fetch"
	"github.com/FelpTB/fornecedor-orchestrator/internal/model"
)

// Config bounds one Prober's probing behavior.
type Config struct {
	Timeout        time.Duration
	MaxConcurrent  int
	ClassifyBudget time.Duration
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 8
	}
	if c.ClassifyBudget <= 0 {
		c.ClassifyBudget = 8 * time.Second
	}
	return c
}

// Prober probes URL variants and classifies the winner.
type Prober struct {
	cfg    Config
	client *http.Client
	log    *zap.Logger
}

// New builds a Prober from cfg. A nil logger is replaced with a no-op one.
func New(cfg Config, log *zap.Logger) *Prober {
	cfg = cfg.withDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	return &Prober{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return eris.New("prober: too many redirects")
				}
				return nil
			},
		},
		log: log,
	}
}

// probeResult is one variant's outcome.
type probeResult struct {
	url        string
	latency    time.Duration
	statusCode int
}

// Result is the outcome of probing a site: the fastest reachable variant
// plus its classification.
type Result struct {
	URL        string
	Latency    time.Duration
	StatusCode int
	SiteType   model.SiteType
	Protection model.ProtectionCategory
}

// ErrNoVariantReachable is returned when every generated variant failed or
// returned a 4xx/5xx status.
var ErrNoVariantReachable = eris.New("prober: no URL variant responded")

// Probe generates the four variants of baseURL (promoting knowledge's
// canonical URL to the front, if known), probes them concurrently with a
// HEAD request, picks the fastest 2xx/3xx responder, then issues one GET
// against the winner to classify site type and protection category.
func (p *Prober) Probe(ctx context.Context, baseURL string, knowledge *model.SiteKnowledge) (*Result, error) {
	canonical := ""
	if knowledge != nil {
		canonical = knowledge.CanonicalURL
	}
	variants := Variants(baseURL, canonical)

	results, err := p.probeAll(ctx, variants)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNoVariantReachable
	}

	winner := results[0]

	classifyCtx, cancel := context.WithTimeout(ctx, p.cfg.ClassifyBudget)
	defer cancel()

	siteType, protection, err := p.classify(classifyCtx, winner.url)
	if err != nil {
		p.log.Warn("prober: classification fetch failed, falling back to unknown",
			zap.String("url", winner.url), zap.Error(err))
		siteType = model.SiteUnknown
	}

	return &Result{
		URL:        winner.url,
		Latency:    winner.latency,
		StatusCode: winner.statusCode,
		SiteType:   siteType,
		Protection: protection,
	}, nil
}

func (p *Prober) probeAll(ctx context.Context, variants []string) ([]probeResult, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.MaxConcurrent)

	var mu sync.Mutex
	var successful []probeResult

	for _, v := range variants {
		v := v
		g.Go(func() error {
			res, err := p.probeOne(gctx, v)
			if err != nil {
				p.log.Debug("prober: variant failed", zap.String("url", v), zap.Error(err))
				return nil // a failed variant does not abort the others
			}
			mu.Lock()
			successful = append(successful, *res)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(successful, func(i, j int) bool {
		a, b := successful[i], successful[j]
		if (a.statusCode >= 300) != (b.statusCode >= 300) {
			return a.statusCode < 300
		}
		return a.latency < b.latency
	})

	return successful, nil
}

func (p *Prober) probeOne(ctx context.Context, targetURL string) (*probeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "prober: build request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; fornecedor-orchestrator/1.0)")

	start := time.Now()
	resp, err := p.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return nil, eris.Wrapf(err, "prober: %s", targetURL)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("prober: %s returned %d", targetURL, resp.StatusCode)
	}

	return &probeResult{
		url:        resp.Request.URL.String(),
		latency:    elapsed,
		statusCode: resp.StatusCode,
	}, nil
}

func (p *Prober) classify(ctx context.Context, targetURL string) (model.SiteType, model.ProtectionCategory, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return model.SiteUnknown, model.ProtectionNone, eris.Wrap(err, "prober: build classify request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; fornecedor-orchestrator/1.0)")

	resp, err := p.client.Do(req)
	if err != nil {
		return model.SiteUnknown, model.ProtectionNone, eris.Wrapf(err, "prober: classify %s", targetURL)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return model.SiteUnknown, model.ProtectionNone, eris.Wrap(err, "prober: read classify body")
	}

	protection := fetch.Detect(resp, body)
	return ClassifySiteType(string(body)), protection, nil
}
