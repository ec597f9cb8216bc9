package protocol

// Tool defines a function that can be called by the LLM.
// Parameters uses JSON Schema format to describe the function's input.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// StringParameters builds the common single-required-string-argument schema.
func StringParameters(name, description string) map[string]any {
	prop := map[string]any{"type": "string"}
	if description != "" {
		prop["description"] = description
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			name: prop,
		},
		"required": []string{name},
	}
}
