package profile

import (
	"time"

	"github.com/FelpTB/fornecedor-orchestrator/internal/model"
)

// Merge combines the per-chunk profiles already extracted for one company
// into a single CompanyProfile. chunksTotal is how many chunks the scrape
// produced; chunks is only the ones that contributed (chunk calls that
// failed terminally are already excluded by the caller). Scalar fields take
// first-non-empty, then a longer-value replacement pass for description;
// list fields union under the same dedup key normalize uses, with caps
// re-applied; case studies merge on title+client identity.
func Merge(key model.CompanyKey, chunksTotal int, chunks []*model.CompanyProfile) *model.CompanyProfile {
	merged := &model.CompanyProfile{
		Key:          key,
		ChunksTotal:  chunksTotal,
		ChunksMerged: len(chunks),
		UpdatedAt:    time.Now(),
		Status:       mergeStatus(chunksTotal, len(chunks)),
	}

	var categories []model.ProductCategory
	var services, clients, partnerships, certifications []string
	var caseStudies []model.CaseStudy

	for _, c := range chunks {
		if merged.CompanyName == "" {
			merged.CompanyName = c.CompanyName
		}
		if merged.Industry == "" {
			merged.Industry = c.Industry
		}
		if merged.Description == "" || len(c.Description) > len(merged.Description) {
			merged.Description = c.Description
		}

		categories = append(categories, c.Offerings.ProductCategories...)
		services = append(services, c.Offerings.Services...)
		clients = append(clients, c.Clients...)
		partnerships = append(partnerships, c.Partnerships...)
		certifications = append(certifications, c.Certifications...)
		caseStudies = append(caseStudies, c.CaseStudies...)
	}

	merged.Offerings.ProductCategories = truncateCategories(dedupCategories(categories), model.MaxProductCategories)
	merged.Offerings.Services = truncate(dedupStrings(services), model.MaxServices)
	merged.Clients = truncate(dedupStrings(clients), model.MaxClients)
	merged.Partnerships = truncate(dedupStrings(partnerships), model.MaxPartnerships)
	merged.Certifications = truncate(dedupStrings(certifications), model.MaxCertifications)
	merged.CaseStudies = truncateCaseStudies(dedupCaseStudies(caseStudies), model.MaxCaseStudies)

	return merged
}

func mergeStatus(total, contributed int) model.StageStatus {
	switch {
	case total == 0 || contributed == 0:
		return model.StageError
	case contributed == total:
		return model.StageSuccess
	default:
		return model.StagePartial
	}
}
