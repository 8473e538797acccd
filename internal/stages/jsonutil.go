package stages

import (
	"encoding/json"
	"regexp"
	"strings"
)

// fenceRE extracts the content between markdown code fences, with or without
// a "json" language tag.
var fenceRE = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// cleanJSONResponse strips markdown code fences from an LLM response so the
// remainder can be parsed as JSON. Backends routinely wrap JSON output in
// ```json ... ``` despite instructions not to.
func cleanJSONResponse(response string) string {
	cleaned := strings.TrimSpace(response)
	if !strings.Contains(cleaned, "```") {
		return cleaned
	}
	if m := fenceRE.FindStringSubmatch(cleaned); m != nil {
		return strings.TrimSpace(m[1])
	}
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

// parseJSONResponse cleans an LLM response and unmarshals it into v.
func parseJSONResponse(response string, v any) error {
	return json.Unmarshal([]byte(cleanJSONResponse(response)), v)
}
