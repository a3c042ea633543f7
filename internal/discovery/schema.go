package discovery

import "github.com/FelpTB/fornecedor-orchestrator/internal/llm"

const discoverySchemaName = "site_discovery"

// discoverySchema is deliberately small: the agent never fetches anything,
// it only judges titles/URLs/snippets, so there is nothing else to ask for.
func discoverySchema() *llm.Schema {
	return &llm.Schema{
		Name: discoverySchemaName,
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"chosen_url": map[string]any{"type": []string{"string", "null"}},
				"status":     map[string]any{"type": "string", "enum": []string{"found", "not_found", "error"}},
				"confidence": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
				"reasoning":  map[string]any{"type": "string"},
			},
			"required": []string{"status", "confidence"},
		},
	}
}
