package profile

import (
	"github.com/FelpTB/fornecedor-orchestrator/internal/llm"
	"github.com/FelpTB/fornecedor-orchestrator/internal/model"
)

// profileSchemaName is the structured-output schema name passed to vendors
// that support a schema directive.
const profileSchemaName = "company_profile"

// profileSchema describes the JSON object the model must return for one
// chunk. The size caps here are hints only — internal/profile's own
// normalization step is what actually enforces them, never the model.
func profileSchema() *llm.Schema {
	stringArray := map[string]any{"type": "array", "items": map[string]any{"type": "string"}}

	return &llm.Schema{
		Name: profileSchemaName,
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"company_name": map[string]any{"type": "string"},
				"industry":     map[string]any{"type": "string"},
				"description":  map[string]any{"type": "string"},
				"offerings": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"product_categories": map[string]any{
							"type":     "array",
							"maxItems": model.MaxProductCategories,
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"category": map[string]any{"type": "string"},
									"items": map[string]any{
										"type":        "array",
										"maxItems":    model.MaxItemsPerProductCategory,
										"uniqueItems": true,
										"items":       map[string]any{"type": "string"},
									},
								},
							},
						},
						"services": map[string]any{
							"type":        "array",
							"maxItems":    model.MaxServices,
							"uniqueItems": true,
							"items":       map[string]any{"type": "string"},
						},
					},
				},
				"clients":        withMax(stringArray, model.MaxClients),
				"partnerships":   withMax(stringArray, model.MaxPartnerships),
				"certifications": withMax(stringArray, model.MaxCertifications),
				"case_studies": map[string]any{
					"type":     "array",
					"maxItems": model.MaxCaseStudies,
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"title":       map[string]any{"type": "string"},
							"client_name": map[string]any{"type": "string"},
							"description": map[string]any{"type": "string"},
						},
					},
				},
			},
			"required": []string{"company_name"},
		},
	}
}

func withMax(base map[string]any, max int) map[string]any {
	out := make(map[string]any, len(base)+2)
	for k, v := range base {
		out[k] = v
	}
	out["maxItems"] = max
	out["uniqueItems"] = true
	return out
}
