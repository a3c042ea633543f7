package llm

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/FelpTB/fornecedor-orchestrator/internal/ratebudget"
	"github.com/FelpTB/fornecedor-orchestrator/internal/resilience"
)

// rateResource is the ratebudget resource name every structured-output call
// is gated under, regardless of which vendor serves it.
const rateResource = "completion"

// Config tunes the per-vendor pool, rate gate, and retry policy.
type Config struct {
	// ConcurrencyPerVendor bounds how many calls to one vendor may be
	// in-flight at once. Default 4.
	ConcurrencyPerVendor int
	// MaxAttemptsPerVendor is the total attempts (including the first)
	// against one vendor before falling back to the next. Default 3.
	MaxAttemptsPerVendor int
	// AcquireTimeout bounds how long a call waits on the rate-budget gate
	// before giving up on this vendor. Default 30s.
	AcquireTimeout time.Duration
	// RateCost is the token cost charged against the rate budget per call.
	// Default 1.
	RateCost int
}

func (c Config) withDefaults() Config {
	if c.ConcurrencyPerVendor <= 0 {
		c.ConcurrencyPerVendor = 4
	}
	if c.MaxAttemptsPerVendor <= 0 {
		c.MaxAttemptsPerVendor = 3
	}
	if c.AcquireTimeout <= 0 {
		c.AcquireTimeout = 30 * time.Second
	}
	if c.RateCost <= 0 {
		c.RateCost = 1
	}
	return c
}

// Caller is the structured-output caller: it selects a
// vendor, enforces the adaptive output budget and schema directive, retries
// on transport errors and degeneration, and falls back across vendors by
// health score.
type Caller struct {
	cfg      Config
	registry *registry
	budget   *ratebudget.Budget
	breakers *resilience.ServiceBreakers
	pools    map[string]chan struct{}
	backoff  backoffConfig
	log      *zap.Logger
}

// New builds a Caller over vendors, tried in vendors' order when no call
// history exists yet and by blended health score once it does.
func New(vendors []Vendor, budget *ratebudget.Budget, breakers *resilience.ServiceBreakers, cfg Config, log *zap.Logger) *Caller {
	if log == nil {
		log = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	pools := make(map[string]chan struct{}, len(vendors))
	for _, v := range vendors {
		pools[v.Name()] = make(chan struct{}, cfg.ConcurrencyPerVendor)
	}
	return &Caller{
		cfg:      cfg,
		registry: newRegistry(vendors),
		budget:   budget,
		breakers: breakers,
		pools:    pools,
		backoff:  defaultBackoffConfig(),
		log:      log,
	}
}

// Call issues a structured-output request against schema and unmarshals the
// first successful JSON response into target, which must be a non-nil
// pointer. It walks the health-ranked vendor order until one succeeds or
// every vendor has exhausted its attempts.
func (c *Caller) Call(ctx context.Context, schema *Schema, messages []Message, target any) error {
	order := c.rankedVendors()
	if len(order) == 0 {
		return eris.New("llm: no vendors registered")
	}

	var lastErr error
	for _, name := range order {
		v := c.registry.get(name)
		text, err := c.callVendor(ctx, v, schema, messages)
		if err != nil {
			lastErr = err
			c.log.Warn("llm: vendor exhausted, falling back",
				zap.String("vendor", name), zap.Error(err))
			continue
		}
		if err := json.Unmarshal([]byte(text), target); err != nil {
			lastErr = resilience.WithKind(eris.Wrapf(err, "llm: parse response from %s", name), resilience.KindSchemaViolation)
			c.log.Warn("llm: schema violation, falling back",
				zap.String("vendor", name), zap.Error(err))
			continue
		}
		return nil
	}
	return resilience.WithKind(eris.Wrap(lastErr, "llm: all vendors exhausted"), resilience.KindExhausted)
}

// rankedVendors orders registered vendors by current blended health score,
// dropping any below healthScoreFloor unless that would leave none at all —
// in which case the floor is ignored rather than returning zero candidates.
func (c *Caller) rankedVendors() []string {
	names := c.registry.names()
	now := time.Now()

	type scored struct {
		name  string
		score float64
	}
	ranked := make([]scored, 0, len(names))
	for _, n := range names {
		ranked = append(ranked, scored{name: n, score: c.registry.statsFor(n).score(now)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	usable := make([]string, 0, len(ranked))
	for _, s := range ranked {
		if s.score >= healthScoreFloor {
			usable = append(usable, s.name)
		}
	}
	if len(usable) == 0 {
		c.log.Warn("llm: every vendor below health floor, ignoring floor")
		for _, s := range ranked {
			usable = append(usable, s.name)
		}
	}
	return usable
}

// callVendor drives the attempt loop against a single vendor: retry with
// backoff on transport/timeout errors, immediate retry with adjusted
// sampling on degeneration, stop on anything else.
func (c *Caller) callVendor(ctx context.Context, v Vendor, schema *Schema, messages []Message) (string, error) {
	inputTokens := estimateMessagesTokens(messages)
	maxTokens := adaptiveOutputBudget(inputTokens, v.MaxOutputTokens())
	sampling := BaselineSampling()

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxAttemptsPerVendor; attempt++ {
		text, err := c.attempt(ctx, v, schema, messages, maxTokens, sampling)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", err
		}

		if kind, ok := resilience.KindOf(err); ok && kind == resilience.KindDegeneration {
			sampling = sampling.adjustForDegeneration()
			continue // no delay: degeneration retries immediately with adjusted sampling
		}

		if !resilience.IsTransient(err) {
			return "", err
		}

		if attempt >= c.cfg.MaxAttemptsPerVendor-1 {
			break
		}
		delay := c.backoff.delay(attempt)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	return "", lastErr
}

// attempt runs one call: rate-budget gate, concurrency slot, circuit
// breaker, then the vendor's own Call, then degeneration scanning. It
// records the outcome against the vendor's rolling health stats regardless
// of how the attempt ends.
func (c *Caller) attempt(ctx context.Context, v Vendor, schema *Schema, messages []Message, maxTokens int, sampling Sampling) (string, error) {
	name := v.Name()
	stats := c.registry.statsFor(name)

	if c.budget != nil {
		if err := c.budget.Acquire(ctx, name, rateResource, c.cfg.RateCost, c.cfg.AcquireTimeout); err != nil {
			return "", resilience.WithKind(eris.Wrapf(err, "llm: rate budget for %s", name), resilience.KindRateLimited)
		}
	}

	pool := c.pools[name]
	select {
	case pool <- struct{}{}:
		defer func() { <-pool }()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	req := CallRequest{Messages: messages, Schema: schema, MaxTokens: maxTokens, Sampling: sampling}

	start := time.Now()
	stats.recordStart()

	var resp *CallResponse
	var err error
	if c.breakers != nil {
		breaker := c.breakers.Get(name)
		resp, err = resilience.ExecuteVal(ctx, breaker, func(ctx context.Context) (*CallResponse, error) {
			return v.Call(ctx, req)
		})
	} else {
		resp, err = v.Call(ctx, req)
	}
	latency := time.Since(start)

	if err != nil {
		rateLimited := resilience.IsKind(err, resilience.KindRateLimited)
		stats.recordEnd(false, rateLimited, latency, start)
		return "", err
	}

	if reason := detectDegeneration(resp.Text); reason != "" {
		stats.recordEnd(false, false, latency, start)
		return "", resilience.WithKind(eris.Errorf("llm: degeneration from %s: %s", name, reason), resilience.KindDegeneration)
	}

	stats.recordEnd(true, false, latency, start)
	return resp.Text, nil
}
