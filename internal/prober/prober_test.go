package prober

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FelpTB/fornecedor-orchestrator/internal/model"
)

func TestProbe_SucceedsAgainstLiveServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><h1>Acme Corp</h1><p>We make widgets.</p></body></html>`))
	}))
	defer srv.Close()

	p := New(Config{Timeout: 2 * time.Second}, nil)

	// Variants() would generate http/https x apex/www of srv.URL's host, none
	// of which resolve except the literal test server URL, so probe it
	// directly by overriding the knowledge's canonical URL.
	knowledge := &model.SiteKnowledge{CanonicalURL: srv.URL}
	res, err := p.probeOnlyCanonical(context.Background(), knowledge.CanonicalURL)
	require.NoError(t, err)
	assert.Equal(t, 200, res.StatusCode)
	assert.Equal(t, model.SiteStatic, res.SiteType)
}

func TestProbe_NoVariantReachable(t *testing.T) {
	p := New(Config{Timeout: 500 * time.Millisecond, MaxConcurrent: 4}, nil)

	_, err := p.Probe(context.Background(), "http://127.0.0.1:1", nil)
	assert.Error(t, err)
}

// probeOnlyCanonical is a test seam: it skips the four-variant fan-out and
// probes a single known-good URL directly, since httptest.Server URLs don't
// have apex/www variants to fan out over.
func (p *Prober) probeOnlyCanonical(ctx context.Context, targetURL string) (*Result, error) {
	results, err := p.probeAll(ctx, []string{targetURL})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNoVariantReachable
	}
	winner := results[0]

	siteType, protection, err := p.classify(ctx, winner.url)
	if err != nil {
		return nil, err
	}
	return &Result{
		URL:        winner.url,
		Latency:    winner.latency,
		StatusCode: winner.statusCode,
		SiteType:   siteType,
		Protection: protection,
	}, nil
}
