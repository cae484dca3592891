package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildOperationSchema returns a JSON-Schema (draft 2020-12 subset) for the
// operation body as a generic map. The provider payload is validated before
// the extractor touches it so malformed responses fail loudly at the boundary
// instead of surfacing as empty field lists.
func BuildOperationSchema() map[string]any {
	fieldValue := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"type":        map[string]any{"type": "string"},
			"content":     map[string]any{"type": "string"},
			"valueString": map[string]any{"type": "string"},
			"valueNumber": map[string]any{"type": "number"},
			"valueDate":   map[string]any{"type": "string"},
			"confidence":  map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		},
	}
	kvElement := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"content": map[string]any{"type": "string"},
		},
	}

	return map[string]any{
		"type":     "object",
		"required": []string{"status"},
		"properties": map[string]any{
			"status": map[string]any{
				"type": "string",
				"enum": []string{"notStarted", "running", "succeeded", "failed"},
			},
			"analyzeResult": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"modelId": map[string]any{"type": "string"},
					"documents": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"fields": map[string]any{
									"type":                 "object",
									"additionalProperties": fieldValue,
								},
							},
						},
					},
					"keyValuePairs": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"key":        kvElement,
								"value":      kvElement,
								"confidence": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
							},
						},
					},
				},
			},
		},
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
