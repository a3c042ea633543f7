// Package discovery implements the Site-Discovery Agent: given a company's
// search hits, decide which one (if any) is the company's own official
// website, without fetching anything.
package discovery

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/FelpTB/fornecedor-orchestrator/internal/llm"
	"github.com/FelpTB/fornecedor-orchestrator/internal/model"
)

type rawDecision struct {
	ChosenURL  *string `json:"chosen_url"`
	Status     string  `json:"status"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// FindSite filters result's hits through the non-company-domain blacklist
// and dedups by URL, then asks the structured-output caller to judge which
// remaining hit (if any) is the company's own site. If filtering leaves no
// candidates, it returns not_found without making a call.
func FindSite(ctx context.Context, caller *llm.Caller, result model.SearchResult) (*model.DiscoveryResult, error) {
	filtered := filterHits(result.Hits)
	if len(filtered) == 0 {
		return &model.DiscoveryResult{
			Key:       result.Key,
			Status:    model.DiscoveryNotFound,
			Reasoning: "no search hits remained after domain filtering",
			UpdatedAt: time.Now(),
		}, nil
	}

	narrowed := result
	narrowed.Hits = filtered

	var raw rawDecision
	messages := buildMessages(narrowed)
	if err := caller.Call(ctx, discoverySchema(), messages, &raw); err != nil {
		return nil, eris.Wrapf(err, "discovery: find site for %s", result.Key)
	}

	return toDiscoveryResult(result.Key, raw), nil
}

func toDiscoveryResult(key model.CompanyKey, raw rawDecision) *model.DiscoveryResult {
	status := model.DiscoveryStatus(raw.Status)
	switch status {
	case model.DiscoveryFound, model.DiscoveryNotFound, model.DiscoveryError:
	default:
		status = model.DiscoveryError
	}
	if status == model.DiscoveryFound && (raw.ChosenURL == nil || *raw.ChosenURL == "") {
		status = model.DiscoveryNotFound
	}

	confidence := raw.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return &model.DiscoveryResult{
		Key:        key,
		URL:        raw.ChosenURL,
		Status:     status,
		Confidence: confidence,
		Reasoning:  raw.Reasoning,
		UpdatedAt:  time.Now(),
	}
}

// filterHits drops hits on blacklisted domains and duplicate URLs,
// preserving order.
func filterHits(hits []model.SearchHit) []model.SearchHit {
	seen := make(map[string]struct{}, len(hits))
	out := make([]model.SearchHit, 0, len(hits))
	for _, h := range hits {
		if h.URL == "" {
			continue
		}
		if _, ok := seen[h.URL]; ok {
			continue
		}
		seen[h.URL] = struct{}{}
		if isBlacklistedDomain(h.URL) {
			continue
		}
		out = append(out, h)
	}
	return out
}
