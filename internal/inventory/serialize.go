package inventory

import (
	"encoding/json"
	"fmt"
)

// SerializeRows renders query results as indented JSON for prompt injection.
// An empty result set renders as "[]" so the model can see that the lookup
// matched nothing rather than receiving an empty string.
func SerializeRows(rows []map[string]any) (string, error) {
	if len(rows) == 0 {
		return "[]", nil
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", fmt.Errorf("inventory: serialize rows: %w", err)
	}
	return string(data), nil
}
