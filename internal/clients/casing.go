package clients

import (
	"bytes"
	"encoding/json"

	"github.com/stoewer/go-strcase"
)

// ConvertKeysToSnakeCase rewrites object keys from camelCase to snake_case,
// recursing through nested objects and arrays. Scalars and nil are returned
// unchanged.
func ConvertKeysToSnakeCase(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[strcase.SnakeCase(k)] = ConvertKeysToSnakeCase(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = ConvertKeysToSnakeCase(val)
		}
		return out
	default:
		return v
	}
}

// MarshalSnakeCase encodes payload as JSON with snake_case keys.
func MarshalSnakeCase(payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}

	return json.Marshal(ConvertKeysToSnakeCase(generic))
}
