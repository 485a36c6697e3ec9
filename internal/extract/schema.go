package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/rocktruck/doc-validator/internal/profile"
)

// BuildExtractionSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map for the given profile. We pass it to the model as a structured
// output constraint and also use it locally to validate the reply.
func BuildExtractionSchema(p *profile.DocumentTypeProfile) map[string]any {
	props := map[string]any{
		"matched_variant": map[string]any{"type": "boolean"},
	}
	required := []string{"matched_variant"}

	for _, f := range p.Fields {
		prop := map[string]any{"type": "string"}
		if f.Required {
			prop["minLength"] = 1
			required = append(required, f.Name)
		}
		props[f.Name] = prop
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

// ValidateAgainstSchema validates "data" against "schemaMap".
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

// SanitizeReply normalizes a model reply before validation:
//   - coerces numbers and booleans found in string fields to strings
//   - drops null and empty values for optional fields
//   - removes keys the schema does not know (additionalProperties = false)
//   - trims surrounding whitespace on strings
//
// It returns the cleaned JSON and the list of adjustments made.
func SanitizeReply(p *profile.DocumentTypeProfile, raw []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	known := map[string]bool{"matched_variant": true}
	for _, f := range p.Fields {
		known[f.Name] = true
	}

	var dropped []string
	for k, v := range m {
		if !known[k] {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
			continue
		}
		if k == "matched_variant" {
			continue
		}
		switch t := v.(type) {
		case string:
			s := strings.TrimSpace(t)
			if s == "" {
				if field, ok := p.FieldDef(k); ok && !field.Required {
					delete(m, k)
					dropped = append(dropped, k+"(empty)")
				}
			} else {
				m[k] = s
			}
		case float64:
			m[k] = fmt.Sprintf("%v", t)
			dropped = append(dropped, k+"(number)")
		case bool:
			m[k] = fmt.Sprintf("%t", t)
			dropped = append(dropped, k+"(bool)")
		case nil:
			delete(m, k)
			dropped = append(dropped, k+"(null)")
		default:
			delete(m, k)
			dropped = append(dropped, k+"(type)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	return out, dropped, nil
}
