package facade

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/FelpTB/fornecedor-orchestrator/internal/model"
)

type searchRequest struct {
	Key         string `json:"key"`
	CompanyName string `json:"company_name"`
	TradeName   string `json:"trade_name,omitempty"`
	City        string `json:"city,omitempty"`
}

// handleSearch runs the search-engine query stage: build a query from the
// company's identifying fields, call the search vendor, and persist the
// hits for discovery to read.
func (f *Facade) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	key := model.CompanyKey(req.Key)
	if err := key.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	query := buildSearchQuery(req)
	resp, err := f.search.Search(r.Context(), query)
	if err != nil {
		f.log.Warn("facade: search vendor call failed", zap.String("key", req.Key), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "search vendor unreachable")
		return
	}

	hits := make([]model.SearchHit, 0, len(resp.Data))
	for _, d := range resp.Data {
		hits = append(hits, model.SearchHit{Title: d.Title, URL: d.URL, Snippet: d.Description})
	}

	result := &model.SearchResult{Key: key, Query: query, Hits: hits, CreatedAt: time.Now().UTC()}
	if err := f.store.SaveSearchResult(r.Context(), result); err != nil {
		f.log.Error("facade: save search result failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "save search result")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":           true,
		"search_id":    string(key),
		"result_count": len(hits),
		"query_used":   query,
	})
}

func buildSearchQuery(req searchRequest) string {
	parts := []string{req.CompanyName}
	if req.TradeName != "" {
		parts = append(parts, req.TradeName)
	}
	if req.City != "" {
		parts = append(parts, req.City)
	}
	return strings.Join(parts, " ")
}

type keyRequest struct {
	Key string `json:"key"`
}

// handleEncontrarSite enqueues the site-discovery stage for a company that
// already has a search row. Enqueuing twice before the first run lands is
// not an error — the existing entry covers it.
func (f *Facade) handleEncontrarSite(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	key := model.CompanyKey(req.Key)
	if err := key.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := f.store.GetSearchResult(r.Context(), key); err != nil {
		writeError(w, http.StatusNotFound, "no search row for key")
		return
	}

	if _, err := f.discovery.Enqueue(r.Context(), model.QueueDiscovery, key, nil); err != nil {
		f.log.Error("facade: enqueue discovery failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "enqueue discovery")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"enqueued": true})
}

type scrapeRequest struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// handleScrape runs the scrape stage inline and waits for it: probe, fetch,
// chunk, replace. Unlike discovery and profile this never touches a queue.
func (f *Facade) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	key := model.CompanyKey(req.Key)
	if err := key.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusNotFound, "no URL")
		return
	}

	res, err := f.scrape.Run(r.Context(), key, req.URL)
	if err != nil {
		f.log.Warn("facade: scrape failed", zap.String("key", req.Key), zap.Error(err))
		writeError(w, statusForError(err), err.Error())
		return
	}
	f.metrics.ScrapeChunks.Observe(float64(res.ChunksSaved))

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":           true,
		"chunks_saved": res.ChunksSaved,
		"tokens":       res.Tokens,
		"pages":        res.Pages,
		"ms":           res.Elapsed.Milliseconds(),
	})
}

// handleMontagemPerfil enqueues the profile-assembly stage for a company
// that has scraped chunks waiting.
func (f *Facade) handleMontagemPerfil(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	key := model.CompanyKey(req.Key)
	if err := key.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	chunks, err := f.store.GetScrapedChunks(r.Context(), key)
	if err != nil || len(chunks) == 0 {
		writeError(w, http.StatusNotFound, "no chunks for key")
		return
	}

	if _, err := f.profile.Enqueue(r.Context(), model.QueueProfile, key, nil); err != nil {
		f.log.Error("facade: enqueue profile failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "enqueue profile")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"enqueued": true})
}

// queueFromPath resolves the {queue} path segment to a registered queue, or
// writes a 404 and returns ok=false.
func (f *Facade) queueFromPath(w http.ResponseWriter, r *http.Request) (queuedStage, bool) {
	name := chi.URLParam(r, "queue")
	qs, ok := f.queues[name]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown queue "+name)
		return queuedStage{}, false
	}
	return qs, true
}

func (f *Facade) handleQueueEnqueue(w http.ResponseWriter, r *http.Request) {
	qs, ok := f.queueFromPath(w, r)
	if !ok {
		return
	}
	var req keyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	key := model.CompanyKey(req.Key)
	if err := key.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	inserted, err := qs.q.Enqueue(r.Context(), qs.name, key, nil)
	if err != nil {
		f.log.Error("facade: enqueue failed", zap.String("queue", string(qs.name)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "enqueue")
		return
	}
	result := "already_active"
	if inserted {
		result = "enqueued"
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": result})
}

type enqueueBatchRequest struct {
	Keys []string `json:"keys"`
}

func (f *Facade) handleQueueEnqueueBatch(w http.ResponseWriter, r *http.Request) {
	qs, ok := f.queueFromPath(w, r)
	if !ok {
		return
	}
	var req enqueueBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var enqueued, skipped []string
	for _, raw := range req.Keys {
		key := model.CompanyKey(raw)
		if err := key.Validate(); err != nil {
			skipped = append(skipped, raw)
			continue
		}
		inserted, err := qs.q.Enqueue(r.Context(), qs.name, key, nil)
		if err != nil {
			f.log.Error("facade: batch enqueue failed", zap.String("queue", string(qs.name)), zap.String("key", raw), zap.Error(err))
			skipped = append(skipped, raw)
			continue
		}
		if inserted {
			enqueued = append(enqueued, raw)
		} else {
			skipped = append(skipped, raw)
		}
	}

	writeJSON(w, http.StatusOK, map[string][]string{
		"enqueued": enqueued,
		"skipped":  skipped,
	})
}

func (f *Facade) handleQueueMetrics(w http.ResponseWriter, r *http.Request) {
	qs, ok := f.queueFromPath(w, r)
	if !ok {
		return
	}
	m, err := qs.q.GetMetrics(r.Context(), string(qs.name))
	if err != nil {
		f.log.Error("facade: queue metrics failed", zap.String("queue", string(qs.name)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "queue metrics")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"queued":     m.QueuedCount,
		"processing": m.ProcessingCount,
		"done":       m.DoneCount,
		"failed":     m.FailedCount,
	})
}
