package fetch

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/FelpTB/fornecedor-orchestrator/pkg/jina"
)

// jinaBackend renders a page through Jina AI Reader, picking up client-side
// rendered content a direct fetch never sees. It backs StrategyStandard.
type jinaBackend struct {
	client jina.Client
}

func newJinaBackend(client jina.Client) *jinaBackend {
	return &jinaBackend{client: client}
}

func (j *jinaBackend) Fetch(ctx context.Context, targetURL string) (*Result, error) {
	if j.client == nil {
		return nil, eris.New("fetch: jina backend not configured")
	}
	resp, err := j.client.Read(ctx, targetURL)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: jina read %s", targetURL)
	}
	if resp.Data.Content == "" {
		return nil, eris.Errorf("fetch: jina returned empty content for %s", targetURL)
	}
	return &Result{
		Strategy:   StrategyStandard,
		FinalURL:   resp.Data.URL,
		StatusCode: 200,
		Body:       resp.Data.Content,
	}, nil
}
