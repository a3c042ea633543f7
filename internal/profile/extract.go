// Package profile implements the Profile Extractor and Merger: one
// structured-output call per scraped chunk, unconditional post-parse
// normalization, and a cross-chunk merge into a single CompanyProfile.
package profile

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/FelpTB/fornecedor-orchestrator/internal/llm"
	"github.com/FelpTB/fornecedor-orchestrator/internal/model"
)

// rawProfile is the shape the model returns for one chunk, before
// normalization. Field names match the schema's property names.
type rawProfile struct {
	CompanyName string `json:"company_name"`
	Industry    string `json:"industry"`
	Description string `json:"description"`
	Offerings   struct {
		ProductCategories []rawProductCategory `json:"product_categories"`
		Services          []string             `json:"services"`
	} `json:"offerings"`
	Clients        []string        `json:"clients"`
	Partnerships   []string        `json:"partnerships"`
	Certifications []string        `json:"certifications"`
	CaseStudies    []rawCaseStudy  `json:"case_studies"`
}

type rawProductCategory struct {
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

type rawCaseStudy struct {
	Title       string `json:"title"`
	ClientName  string `json:"client_name"`
	Description string `json:"description"`
}

// ExtractChunk runs one scraped chunk through the structured-output caller
// and returns a normalized, single-chunk CompanyProfile. It never returns a
// partially-parsed profile: a failed call returns a nil profile and an
// error, leaving the caller free to skip this chunk's contribution to the
// merge.
func ExtractChunk(ctx context.Context, caller *llm.Caller, key model.CompanyKey, chunk model.ScrapedChunk) (*model.CompanyProfile, error) {
	var raw rawProfile
	messages := buildMessages(key, chunk)
	if err := caller.Call(ctx, profileSchema(), messages, &raw); err != nil {
		return nil, eris.Wrapf(err, "profile: extract chunk %d/%d for %s", chunk.Index+1, chunk.Total, key)
	}

	p := &model.CompanyProfile{
		Key:         key,
		CompanyName: raw.CompanyName,
		Industry:    raw.Industry,
		Description: raw.Description,
		Offerings: model.Offerings{
			Services: raw.Offerings.Services,
		},
		Clients:        raw.Clients,
		Partnerships:   raw.Partnerships,
		Certifications: raw.Certifications,
	}
	for _, pc := range raw.Offerings.ProductCategories {
		p.Offerings.ProductCategories = append(p.Offerings.ProductCategories, model.ProductCategory{
			Category: pc.Category,
			Items:    pc.Items,
		})
	}
	for _, cs := range raw.CaseStudies {
		p.CaseStudies = append(p.CaseStudies, model.CaseStudy{
			Title:       cs.Title,
			ClientName:  cs.ClientName,
			Description: cs.Description,
		})
	}

	normalize(p)
	return p, nil
}
