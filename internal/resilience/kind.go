package resilience

import "errors"

// Kind classifies why an operation failed, independent of the underlying
// error type. Queue and circuit-breaker logic branch on Kind rather than on
// string matching or type assertions against vendor-specific error types.
type Kind string

const (
	KindTransport          Kind = "transport"
	KindRateLimited        Kind = "rate_limited"
	KindProtectionDetected Kind = "protection_detected"
	KindSchemaViolation    Kind = "schema_violation"
	KindDegeneration       Kind = "degeneration"
	KindUnavailableInput   Kind = "unavailable_input"
	KindExhausted          Kind = "exhausted"
	KindFatalConfig        Kind = "fatal_config"
)

// kindError attaches a Kind to a wrapped error without discarding it.
type kindError struct {
	kind Kind
	err  error
}

func (k *kindError) Error() string { return k.err.Error() }
func (k *kindError) Unwrap() error { return k.err }

// WithKind wraps err so KindOf can later recover kind from it. Wrapping nil
// returns nil.
func WithKind(err error, kind Kind) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, err: err}
}

// KindOf walks err's chain for an attached Kind, returning ok=false if none
// is present.
func KindOf(err error) (Kind, bool) {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind, true
	}
	return "", false
}

// IsKind reports whether err carries the given Kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
