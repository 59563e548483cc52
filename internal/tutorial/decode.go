package tutorial

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/HSAndrewli/Tutorial-Codebase-Knowledge/internal/fileblocks"
)

// decodeYAML extracts the first ```yaml block from response and decodes it
// into a generic value for the stage's schema pass.
func decodeYAML(stage, response string) (any, error) {
	block, ok := fileblocks.First(response, "yaml")
	if !ok {
		return nil, newError(stage, ErrFenceMissing, nil, "response has no ```yaml block")
	}
	var v any
	if err := yaml.Unmarshal([]byte(strings.TrimSpace(block)), &v); err != nil {
		return nil, newError(stage, ErrSchema, nil, "invalid yaml: %v", err)
	}
	return v, nil
}

// asMap normalizes a decoded YAML mapping to string keys.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, vv := range m {
			out[fmt.Sprint(k)] = vv
		}
		return out, true
	default:
		return nil, false
	}
}

// missingKey returns the first of keys absent from m, or "".
func missingKey(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			return k
		}
	}
	return ""
}

// kindOf names the YAML shape of a decoded value for error messages.
func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "a sequence"
	case map[string]any, map[any]any:
		return "a mapping"
	case string:
		return "a string"
	default:
		return fmt.Sprintf("a %T", v)
	}
}

// text renders a scalar YAML value as a string; strings pass through.
func text(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
