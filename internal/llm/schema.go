package llm

import "encoding/json"

// renderSchemaPrompt turns schema into instructional text for vendors that
// lack CapSchemaDirective: non-supporting vendors fall back to schema-in-
// prompt plus post-parse validation rather than a decode-time directive. It
// is appended as the last user-visible instruction, never folded into the
// system prompt's earlier content.
func renderSchemaPrompt(schema *Schema) string {
	if schema == nil {
		return ""
	}
	body, err := json.MarshalIndent(schema.Definition, "", "  ")
	if err != nil {
		body = []byte("{}")
	}
	return "Respond with a single JSON object matching exactly this schema. " +
		"Return only the JSON object, no surrounding text or markdown fences.\n\n" +
		string(body)
}
