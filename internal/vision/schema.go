package vision

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Venkatesh01777/Personal-Finance-Assistant/constants"
)

// PromptVersion pins the instruction/schema pair sent to the model. Bump it
// whenever the field shapes change so responses stay attributable.
const PromptVersion = "receipt-extract/v1"

// BuildResultJSONSchema returns a JSON-Schema (draft 2020-12 subset) for the
// canonical per-field confidence-scored shape. Passed to the model in the
// prompt and used locally to validate its answer.
func BuildResultJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"merchant_name":      fieldProp("string"),
			"total_amount":       fieldProp("number"),
			"date":               fieldProp("string"), // YYYY-MM-DD
			"items":              itemsProp(),
			"tax_amount":         fieldProp("number"),
			"suggested_category": enumFieldProp(constants.CategoriesAsStrings()),
			"payment_method":     enumFieldProp(constants.PaymentMethodsAsStrings()),
			"raw_text":           map[string]any{"type": "string"},
		},
		"required": []string{
			"merchant_name", "total_amount", "date",
			"tax_amount", "suggested_category", "payment_method",
		},
	}
}

func fieldProp(valueType string) map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"value":      map[string]any{"type": []string{valueType, "null"}},
			"confidence": confidenceProp(),
		},
		"required": []string{"value", "confidence"},
	}
}

func enumFieldProp(allowed []string) map[string]any {
	vals := make([]any, 0, len(allowed)+1)
	vals = append(vals, nil)
	for _, a := range allowed {
		vals = append(vals, a)
	}
	p := fieldProp("string")
	p["properties"].(map[string]any)["value"] = map[string]any{"enum": vals}
	return p
}

func itemsProp() map[string]any {
	return map[string]any{
		"type":     "array",
		"maxItems": 20,
		"items": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]any{
				"name":        map[string]any{"type": "string", "minLength": 1},
				"quantity":    map[string]any{"type": []string{"number", "null"}},
				"unit_price":  map[string]any{"type": []string{"number", "null"}},
				"total_price": map[string]any{"type": []string{"number", "null"}},
				"confidence":  confidenceProp(),
			},
			"required": []string{"name", "confidence"},
		},
	}
}

func confidenceProp() map[string]any {
	return map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0}
}

// ValidateAgainstSchema validates raw JSON against the schema map.
func ValidateAgainstSchema(schemaMap map[string]any, data []byte) error {
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

// buildSystemPrompt is the fixed, versioned instruction requiring JSON-only
// output in the canonical shape, each field scored by the model itself.
func buildSystemPrompt() string {
	schemaJSON, _ := json.MarshalIndent(BuildResultJSONSchema(), "", "  ")

	parts := []string{
		"You are a receipt parser (" + PromptVersion + "). Return ONLY a JSON object matching the provided JSON Schema. No prose, no code fences.",
		"Every field is an object {\"value\": ..., \"confidence\": 0..1}. Score each field independently by how certain you are of the value you read.",
		"If a field is not visible on the receipt, use {\"value\": null, \"confidence\": 0}.",
		"Use ISO-8601 dates (YYYY-MM-DD). Amounts are plain numbers without currency symbols.",
		"suggested_category must be exactly one of: " + strings.Join(constants.CategoriesAsStrings(), ", ") + ".",
		"payment_method must be exactly one of: " + strings.Join(constants.PaymentMethodsAsStrings(), ", ") + ".",
		"Include up to 20 line items. Put the full transcribed receipt text in raw_text.",
		"JSON Schema:\n" + string(schemaJSON),
	}
	return strings.Join(parts, " ")
}
