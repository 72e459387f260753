package ai

// BuildCandidateJSONSchema returns the JSON-Schema (draft 2020-12 subset) the
// model output must satisfy before the reconciler sees it. Nothing is
// required: the reconciler applies its own per-field validity gates and
// tolerates absence, the schema only rejects values of the wrong shape.
func BuildCandidateJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"vendor":         map[string]any{"type": "string"},
			"amount":         map[string]any{"type": "number"},
			"date":           map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}`},
			"invoice_number": map[string]any{"type": "string"},
			"tax_amount":     map[string]any{"type": "number"},
			"currency":       map[string]any{"type": "string", "minLength": 3, "maxLength": 3},
			"line_items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties": map[string]any{
						"description": map[string]any{"type": "string"},
						"amount":      map[string]any{"type": "number"},
					},
				},
			},
		},
	}
}
