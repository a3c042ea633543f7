package llm

import (
	"math"
	"math/rand/v2"
	"time"
)

// backoffConfig shapes the transport/timeout retry delay. It mirrors
// internal/resilience.RetryConfig's formula (exponential with jitter) but
// lives here as its own small type: resilience.Do retries every error under
// one delay rule, while the structured-output caller needs two different
// rules on the same attempt loop — backoff-and-wait for transport errors,
// zero-delay-and-resample for degeneration. Folding both into
// resilience.RetryConfig's single ShouldRetry hook would lose the
// distinction; a short local duplicate keeps the caller's control flow
// readable instead.
type backoffConfig struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	JitterFraction float64
}

func defaultBackoffConfig() backoffConfig {
	return backoffConfig{
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.25,
	}
}

func (c backoffConfig) delay(attempt int) time.Duration {
	d := float64(c.InitialBackoff) * math.Pow(c.Multiplier, float64(attempt))
	if d > float64(c.MaxBackoff) {
		d = float64(c.MaxBackoff)
	}
	if c.JitterFraction > 0 {
		jitterRange := d * c.JitterFraction
		d += (rand.Float64()*2 - 1) * jitterRange
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}
