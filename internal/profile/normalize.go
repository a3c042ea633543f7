package profile

import (
	"strings"

	"github.com/FelpTB/fornecedor-orchestrator/internal/model"
)

// antiTemplatePrefixWords is how many leading words of an item form its
// "template" key for the anti-template rule.
const antiTemplatePrefixWords = 3

// antiTemplateAdmitLimit is how many items sharing a prefix are admitted
// before the rest sharing that prefix are dropped as catalog-navigation
// noise rather than real content.
const antiTemplateAdmitLimit = 5

// normalize runs the unconditional post-parse pass over a single-chunk
// profile: dedup every list field, apply the anti-template rule to product
// category items, then truncate everything to its cap. The model's own
// output is never trusted to have respected any of this.
func normalize(p *model.CompanyProfile) {
	var categories []model.ProductCategory
	for _, c := range p.Offerings.ProductCategories {
		items := dedupStrings(c.Items)
		items = antiTemplate(items)
		items = truncate(items, model.MaxItemsPerProductCategory)
		if len(items) == 0 {
			continue
		}
		categories = append(categories, model.ProductCategory{Category: c.Category, Items: items})
	}
	p.Offerings.ProductCategories = truncateCategories(dedupCategories(categories), model.MaxProductCategories)

	p.Offerings.Services = truncate(dedupStrings(p.Offerings.Services), model.MaxServices)
	p.Clients = truncate(dedupStrings(p.Clients), model.MaxClients)
	p.Partnerships = truncate(dedupStrings(p.Partnerships), model.MaxPartnerships)
	p.Certifications = truncate(dedupStrings(p.Certifications), model.MaxCertifications)
	p.CaseStudies = truncateCaseStudies(dedupCaseStudies(p.CaseStudies), model.MaxCaseStudies)
}

// normalizeKey case-folds and whitespace-normalizes s for use as a dedup key.
func normalizeKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// dedupStrings preserves first occurrence under a case-folded,
// whitespace-normalized key.
func dedupStrings(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		key := normalizeKey(it)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, it)
	}
	return out
}

// antiTemplate drops items once their 3-word prefix has already admitted 5
// items, treating the rest of that run as navigation/catalog-filter noise.
func antiTemplate(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	counts := make(map[string]int)
	out := make([]string, 0, len(items))
	for _, it := range items {
		prefix := prefixKey(it)
		if counts[prefix] >= antiTemplateAdmitLimit {
			continue
		}
		counts[prefix]++
		out = append(out, it)
	}
	return out
}

func prefixKey(item string) string {
	words := strings.Fields(strings.ToLower(item))
	if len(words) > antiTemplatePrefixWords {
		words = words[:antiTemplatePrefixWords]
	}
	return strings.Join(words, " ")
}

func truncate(items []string, max int) []string {
	if len(items) > max {
		return items[:max]
	}
	return items
}

// dedupCategories merges same-named categories' items under a single entry,
// re-truncating the merged items to the per-category cap so a category that
// appears in more than one chunk can't accumulate past it.
func dedupCategories(categories []model.ProductCategory) []model.ProductCategory {
	if len(categories) == 0 {
		return nil
	}
	seen := make(map[string]int, len(categories))
	out := make([]model.ProductCategory, 0, len(categories))
	for _, c := range categories {
		key := normalizeKey(c.Category)
		if idx, ok := seen[key]; ok {
			out[idx].Items = truncate(dedupStrings(append(out[idx].Items, c.Items...)), model.MaxItemsPerProductCategory)
			continue
		}
		seen[key] = len(out)
		out = append(out, c)
	}
	return out
}

func truncateCategories(categories []model.ProductCategory, max int) []model.ProductCategory {
	if len(categories) > max {
		return categories[:max]
	}
	return categories
}

func dedupCaseStudies(studies []model.CaseStudy) []model.CaseStudy {
	if len(studies) == 0 {
		return nil
	}
	seen := make(map[string]int, len(studies))
	out := make([]model.CaseStudy, 0, len(studies))
	for _, cs := range studies {
		key := caseStudyKey(cs)
		if idx, ok := seen[key]; ok {
			out[idx] = mergeCaseStudy(out[idx], cs)
			continue
		}
		seen[key] = len(out)
		out = append(out, cs)
	}
	return out
}

// caseStudyKey identifies a case study by title+client name, the known
// identity pair for this nested object type.
func caseStudyKey(cs model.CaseStudy) string {
	return normalizeKey(cs.Title) + "\x00" + normalizeKey(cs.ClientName)
}

// mergeCaseStudy resolves conflicting fields between two case studies
// sharing the same identity key: longer non-null value wins per field.
func mergeCaseStudy(a, b model.CaseStudy) model.CaseStudy {
	if len(b.Description) > len(a.Description) {
		a.Description = b.Description
	}
	if a.ClientName == "" {
		a.ClientName = b.ClientName
	}
	return a
}

func truncateCaseStudies(studies []model.CaseStudy, max int) []model.CaseStudy {
	if len(studies) > max {
		return studies[:max]
	}
	return studies
}
