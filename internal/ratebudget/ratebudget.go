// Package ratebudget gates outbound calls per (vendor, resource) pair using
// token-bucket limiters, so a slow vendor never starves a fast one and a
// single hot company never monopolizes a shared budget.
package ratebudget

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Config controls the default token bucket shape for limiters this registry
// creates on first use.
type Config struct {
	RatePerSec float64
	Burst      int
}

// Budget is a registry of token-bucket limiters keyed by "vendor:resource".
// Buckets are created lazily with the configured defaults and can be
// retuned at runtime via Adjust.
type Budget struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	cfg      Config
}

// New returns a Budget that creates limiters with cfg's defaults on first
// use of a given key.
func New(cfg Config) *Budget {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 4
	}
	return &Budget{
		limiters: make(map[string]*rate.Limiter),
		cfg:      cfg,
	}
}

func key(vendor, resource string) string {
	return vendor + ":" + resource
}

func (b *Budget) limiterFor(vendor, resource string) *rate.Limiter {
	k := key(vendor, resource)

	b.mu.RLock()
	l, ok := b.limiters[k]
	b.mu.RUnlock()
	if ok {
		return l
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if l, ok = b.limiters[k]; ok {
		return l
	}
	l = rate.NewLimiter(rate.Limit(b.cfg.RatePerSec), b.cfg.Burst)
	b.limiters[k] = l
	return l
}

// Acquire blocks, respecting the caller's context and timeout, until cost
// tokens are available in the (vendor, resource) bucket. A cost of 0 is
// treated as 1 — every call consumes at least one token.
func (b *Budget) Acquire(ctx context.Context, vendor, resource string, cost int, timeout time.Duration) error {
	if cost <= 0 {
		cost = 1
	}
	limiter := b.limiterFor(vendor, resource)

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := limiter.WaitN(ctx, cost); err != nil {
		return eris.Wrapf(err, "ratebudget: acquire %s", key(vendor, resource))
	}
	return nil
}

// Adjust changes the configured rate for a (vendor, resource) pair,
// creating its bucket with the new rate if it doesn't exist yet. Used when
// a vendor signals it's rate-limiting us harder (or more leniently) than
// our static defaults assumed.
func (b *Budget) Adjust(vendor, resource string, ratePerSec float64, burst int) {
	k := key(vendor, resource)

	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.limiters[k]
	if !ok {
		l = rate.NewLimiter(rate.Limit(ratePerSec), burst)
		b.limiters[k] = l
		return
	}
	l.SetLimit(rate.Limit(ratePerSec))
	l.SetBurst(burst)
}

// Snapshot returns the current configured rate for every bucket created so
// far, for observability.
func (b *Budget) Snapshot() map[string]float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]float64, len(b.limiters))
	for k, l := range b.limiters {
		out[k] = float64(l.Limit())
	}
	return out
}

// String is a convenience for log fields naming a (vendor, resource) pair.
func String(vendor, resource string) string {
	return fmt.Sprintf("%s:%s", vendor, resource)
}
