package provider

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeModelJSON extracts a JSON object from raw model output and
// unmarshals it into v. Models wrap JSON in markdown fences or prose
// more often than not; the decoder tolerates both. A returned error
// means "no usable structured output" and callers are expected to fall
// back, never to fail the request.
func DecodeModelJSON(raw string, v interface{}) error {
	trimmed := strings.TrimSpace(raw)

	// Strip markdown code fences
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}

	// Cut surrounding prose down to the outermost object
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON object found in model output")
	}

	if err := json.Unmarshal([]byte(trimmed[start:end+1]), v); err != nil {
		return fmt.Errorf("failed to decode model output: %w", err)
	}

	return nil
}
