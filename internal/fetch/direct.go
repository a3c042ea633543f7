package fetch

import (
	"context"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/FelpTB/fornecedor-orchestrator/internal/model"
	"github.com/FelpTB/fornecedor-orchestrator/internal/resilience"
)

const maxBodyBytes = 4 << 20 // 4MB; protection pages and real content both fit comfortably under this.

// directBackend fetches a URL with net/http directly, with no rendering and
// no proxy. It backs both StrategyFast (single attempt, short timeout) and
// StrategyRobust (several attempts with user-agent rotation, via
// resilience.Do) depending on how it's constructed.
type directBackend struct {
	strategy   Strategy
	client     *http.Client
	maxRetries int
	userAgents []string
}

func newDirectBackend(strategy Strategy, timeout time.Duration, maxRetries int, userAgents []string) *directBackend {
	return &directBackend{
		strategy: strategy,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				MaxConnsPerHost:     20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		maxRetries: maxRetries,
		userAgents: userAgents,
	}
}

func (d *directBackend) userAgent(attempt int) string {
	if len(d.userAgents) == 0 {
		return "fornecedor-orchestrator/1.0"
	}
	if d.strategy == StrategyFast {
		return d.userAgents[0]
	}
	return d.userAgents[rand.IntN(len(d.userAgents))]
}

func (d *directBackend) Fetch(ctx context.Context, targetURL string) (*Result, error) {
	cfg := resilience.DefaultRetryConfig()
	cfg.MaxAttempts = d.maxRetries

	var result *Result
	attempt := 0
	err := resilience.Do(ctx, cfg, func(ctx context.Context) error {
		attempt++
		res, err := d.doOnce(ctx, targetURL, attempt)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (d *directBackend) doOnce(ctx context.Context, targetURL string, attempt int) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: build request")
	}
	req.Header.Set("User-Agent", d.userAgent(attempt))
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrapf(err, "fetch: %s", targetURL), 0)
	}
	defer closeBody(resp)

	body, err := readAll(resp.Body, maxBodyBytes)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: read body")
	}

	if cat := Detect(resp, body); cat != model.ProtectionNone {
		return nil, resilience.WithKind(&ProtectionError{Category: cat, URL: targetURL}, resilience.KindProtectionDetected)
	}

	if resp.StatusCode >= 500 {
		return nil, resilience.NewTransientError(eris.Errorf("fetch: http %d from %s", resp.StatusCode, targetURL), resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("fetch: http %d from %s", resp.StatusCode, targetURL)
	}

	return &Result{
		Strategy:   d.strategy,
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}, nil
}
