package worker

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/FelpTB/fornecedor-orchestrator/internal/llm"
	"github.com/FelpTB/fornecedor-orchestrator/internal/model"
	"github.com/FelpTB/fornecedor-orchestrator/internal/profile"
	"github.com/FelpTB/fornecedor-orchestrator/internal/store"
)

// ProfileHandler drains the profile queue: reads every scraped chunk for
// the entry's key, extracts a profile from each, merges the chunks that
// contributed, and upserts the result. A chunk whose extraction fails
// terminally is skipped rather than failing the whole entry — the merge
// proceeds on whatever contributed and carries a partial/error status.
type ProfileHandler struct {
	store  store.Store
	caller *llm.Caller
	log    *zap.Logger
}

// NewProfileHandler builds a ProfileHandler.
func NewProfileHandler(s store.Store, caller *llm.Caller, log *zap.Logger) *ProfileHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProfileHandler{store: s, caller: caller, log: log}
}

func (h *ProfileHandler) Handle(ctx context.Context, entry model.QueueEntry) error {
	chunks, err := h.store.GetScrapedChunks(ctx, entry.Key)
	if err != nil {
		return eris.Wrapf(err, "profile handler: load chunks for %s", entry.Key)
	}
	if len(chunks) == 0 {
		return eris.Errorf("profile handler: no scraped chunks for %s", entry.Key)
	}

	var contributed []*model.CompanyProfile
	for _, chunk := range chunks {
		p, err := profile.ExtractChunk(ctx, h.caller, entry.Key, chunk)
		if err != nil {
			h.log.Warn("profile handler: chunk extraction failed, skipping",
				zap.String("key", string(entry.Key)), zap.Int("chunk_index", chunk.Index), zap.Error(err))
			continue
		}
		contributed = append(contributed, p)
	}

	merged := profile.Merge(entry.Key, len(chunks), contributed)
	if err := h.store.UpsertCompanyProfile(ctx, merged); err != nil {
		return eris.Wrapf(err, "profile handler: save profile for %s", entry.Key)
	}

	if merged.Status == model.StageError {
		return eris.Errorf("profile handler: every chunk failed for %s", entry.Key)
	}
	return nil
}
