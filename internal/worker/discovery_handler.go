package worker

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/FelpTB/fornecedor-orchestrator/internal/discovery"
	"github.com/FelpTB/fornecedor-orchestrator/internal/llm"
	"github.com/FelpTB/fornecedor-orchestrator/internal/model"
	"github.com/FelpTB/fornecedor-orchestrator/internal/store"
)

// DiscoveryHandler drains the discovery queue: reads the SearchResult for
// the entry's key, runs the site-discovery agent, and upserts the result.
type DiscoveryHandler struct {
	store  store.Store
	caller *llm.Caller
	log    *zap.Logger
}

// NewDiscoveryHandler builds a DiscoveryHandler.
func NewDiscoveryHandler(s store.Store, caller *llm.Caller, log *zap.Logger) *DiscoveryHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &DiscoveryHandler{store: s, caller: caller, log: log}
}

func (h *DiscoveryHandler) Handle(ctx context.Context, entry model.QueueEntry) error {
	search, err := h.store.GetSearchResult(ctx, entry.Key)
	if err != nil {
		return eris.Wrapf(err, "discovery handler: load search result for %s", entry.Key)
	}
	if search == nil {
		return eris.Errorf("discovery handler: no search result for %s", entry.Key)
	}

	result, err := discovery.FindSite(ctx, h.caller, *search)
	if err != nil {
		return eris.Wrapf(err, "discovery handler: find site for %s", entry.Key)
	}

	if err := h.store.UpsertDiscoveryResult(ctx, result); err != nil {
		return eris.Wrapf(err, "discovery handler: save result for %s", entry.Key)
	}
	return nil
}
