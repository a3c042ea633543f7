package scrape

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FelpTB/fornecedor-orchestrator/internal/fetch"
	"github.com/FelpTB/fornecedor-orchestrator/internal/model"
	"github.com/FelpTB/fornecedor-orchestrator/internal/prober"
	"github.com/FelpTB/fornecedor-orchestrator/internal/resilience"
)

// fakeProber satisfies siteProber without any network fan-out.
type fakeProber struct {
	res *prober.Result
	err error
}

func (f *fakeProber) Probe(ctx context.Context, baseURL string, knowledge *model.SiteKnowledge) (*prober.Result, error) {
	return f.res, f.err
}

// fakeFetcher satisfies pageFetcher, returning a canned result per URL and
// recording every URL it was asked to fetch.
type fakeFetcher struct {
	results map[string]*fetch.Result
	errs    map[string]error
	calls   []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, targetURL string, knowledge *model.SiteKnowledge) (*fetch.Result, error) {
	f.calls = append(f.calls, targetURL)
	if err, ok := f.errs[targetURL]; ok {
		return nil, err
	}
	if res, ok := f.results[targetURL]; ok {
		return res, nil
	}
	return nil, eris.Errorf("fakeFetcher: no result configured for %s", targetURL)
}

// fakeStore implements store.Store in memory, enough to exercise one
// company's scrape cycle without a database.
type fakeStore struct {
	knowledge *model.SiteKnowledge
	chunks    []model.ScrapedChunk

	saveKnowledgeErr error
	replaceErr       error
}

func (s *fakeStore) SaveSearchResult(ctx context.Context, r *model.SearchResult) error { return nil }
func (s *fakeStore) GetSearchResult(ctx context.Context, key model.CompanyKey) (*model.SearchResult, error) {
	return nil, nil
}
func (s *fakeStore) UpsertDiscoveryResult(ctx context.Context, r *model.DiscoveryResult) error {
	return nil
}
func (s *fakeStore) GetDiscoveryResult(ctx context.Context, key model.CompanyKey) (*model.DiscoveryResult, error) {
	return nil, nil
}
func (s *fakeStore) ReplaceScrapedChunks(ctx context.Context, key model.CompanyKey, chunks []model.ScrapedChunk) error {
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.chunks = chunks
	return nil
}
func (s *fakeStore) GetScrapedChunks(ctx context.Context, key model.CompanyKey) ([]model.ScrapedChunk, error) {
	return s.chunks, nil
}
func (s *fakeStore) UpsertCompanyProfile(ctx context.Context, p *model.CompanyProfile) error {
	return nil
}
func (s *fakeStore) GetCompanyProfile(ctx context.Context, key model.CompanyKey) (*model.CompanyProfile, error) {
	return nil, nil
}
func (s *fakeStore) GetSiteKnowledge(ctx context.Context, origin string) (*model.SiteKnowledge, error) {
	return s.knowledge, nil
}
func (s *fakeStore) SaveSiteKnowledge(ctx context.Context, kb *model.SiteKnowledge) error {
	if s.saveKnowledgeErr != nil {
		return s.saveKnowledgeErr
	}
	s.knowledge = kb
	return nil
}
func (s *fakeStore) Ping(ctx context.Context) error    { return nil }
func (s *fakeStore) Migrate(ctx context.Context) error { return nil }
func (s *fakeStore) Close() error                      { return nil }

const homeHTML = `<html><body>
<a href="/about">About</a>
<a href="/products">Products</a>
</body></html>`

func TestOrchestrator_Run_Success(t *testing.T) {
	st := &fakeStore{}
	pr := &fakeProber{res: &prober.Result{URL: "https://acme.test", SiteType: model.SiteStatic}}
	ft := &fakeFetcher{
		results: map[string]*fetch.Result{
			"https://acme.test": {
				Strategy: "fast", FinalURL: "https://acme.test", StatusCode: 200,
				Body: homeHTML,
			},
			"https://acme.test/about": {
				Strategy: "fast", FinalURL: "https://acme.test/about", StatusCode: 200,
				Body: "About us: we make widgets.",
			},
			"https://acme.test/products": {
				Strategy: "fast", FinalURL: "https://acme.test/products", StatusCode: 200,
				Body: "Our products: widgets and gadgets.",
			},
		},
	}

	o := &Orchestrator{prober: pr, fetcher: ft, store: st, cfg: Config{}.withDefaults(), log: zap.NewNop()}

	res, err := o.Run(context.Background(), model.CompanyKey("10000000"), "https://acme.test")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Pages)
	assert.Greater(t, res.ChunksSaved, 0)
	assert.NotEmpty(t, st.chunks)
	require.NotNil(t, st.knowledge)
	assert.Equal(t, "https://acme.test", st.knowledge.CanonicalURL)
}

func TestOrchestrator_Run_HomepageProtected(t *testing.T) {
	st := &fakeStore{}
	pr := &fakeProber{res: &prober.Result{URL: "https://acme.test"}}
	ft := &fakeFetcher{
		errs: map[string]error{
			"https://acme.test": &fetch.ProtectionError{Category: model.ProtectionCaptcha, URL: "https://acme.test"},
		},
	}

	o := &Orchestrator{prober: pr, fetcher: ft, store: st, cfg: Config{}.withDefaults(), log: zap.NewNop()}

	_, err := o.Run(context.Background(), model.CompanyKey("10000000"), "https://acme.test")
	require.Error(t, err)
	assert.True(t, resilience.IsKind(err, resilience.KindProtectionDetected))
	require.NotNil(t, st.knowledge) // saved even on failure
}

func TestOrchestrator_Run_HomepageTransportFailure(t *testing.T) {
	st := &fakeStore{}
	pr := &fakeProber{res: &prober.Result{URL: "https://acme.test"}}
	ft := &fakeFetcher{
		errs: map[string]error{
			"https://acme.test": eris.New("connection reset"),
		},
	}

	o := &Orchestrator{prober: pr, fetcher: ft, store: st, cfg: Config{}.withDefaults(), log: zap.NewNop()}

	_, err := o.Run(context.Background(), model.CompanyKey("10000000"), "https://acme.test")
	require.Error(t, err)
	assert.True(t, resilience.IsKind(err, resilience.KindTransport))
}

func TestOrchestrator_Run_LinkFetchFailureIsSkipped(t *testing.T) {
	st := &fakeStore{}
	pr := &fakeProber{res: &prober.Result{URL: "https://acme.test"}}
	ft := &fakeFetcher{
		results: map[string]*fetch.Result{
			"https://acme.test": {
				Strategy: "fast", FinalURL: "https://acme.test", StatusCode: 200,
				Body: homeHTML,
			},
			"https://acme.test/about": {
				Strategy: "fast", FinalURL: "https://acme.test/about", StatusCode: 200,
				Body: "About us: we make widgets.",
			},
		},
		errs: map[string]error{
			"https://acme.test/products": eris.New("timeout"),
		},
	}

	o := &Orchestrator{prober: pr, fetcher: ft, store: st, cfg: Config{}.withDefaults(), log: zap.NewNop()}

	res, err := o.Run(context.Background(), model.CompanyKey("10000000"), "https://acme.test")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pages) // homepage + about, products skipped
}

func TestOrchestrator_Run_ProbeFailureIsTransport(t *testing.T) {
	st := &fakeStore{}
	pr := &fakeProber{err: eris.New("no variant reachable")}
	ft := &fakeFetcher{}

	o := &Orchestrator{prober: pr, fetcher: ft, store: st, cfg: Config{}.withDefaults(), log: zap.NewNop()}

	_, err := o.Run(context.Background(), model.CompanyKey("10000000"), "https://acme.test")
	require.Error(t, err)
	assert.True(t, resilience.IsKind(err, resilience.KindTransport))
}

func TestOrchestrator_Run_NoContentIsTransportFailure(t *testing.T) {
	st := &fakeStore{}
	pr := &fakeProber{res: &prober.Result{URL: "https://acme.test"}}
	ft := &fakeFetcher{
		results: map[string]*fetch.Result{
			"https://acme.test": {
				Strategy: "fast", FinalURL: "https://acme.test", StatusCode: 200,
				Body: "<html><body></body></html>",
			},
		},
	}

	o := &Orchestrator{prober: pr, fetcher: ft, store: st, cfg: Config{}.withDefaults(), log: zap.NewNop()}

	_, err := o.Run(context.Background(), model.CompanyKey("10000000"), "https://acme.test")
	require.Error(t, err)
	assert.True(t, resilience.IsKind(err, resilience.KindTransport))
}
