package utils

import (
	"encoding/json"
	"regexp"
	"strings"
)

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// DecodeLooseJSON parses an LLM reply into out using three strategies in
// order: direct parse, parse of the first {...} substring, and finally
// wrapping the raw text as {"text": raw}. It only fails when out cannot
// hold the wrapped form either.
func DecodeLooseJSON(raw string, out interface{}) error {
	trimmed := strings.TrimSpace(raw)

	// models often fence JSON in markdown
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	if err := json.Unmarshal([]byte(trimmed), out); err == nil {
		return nil
	}

	if match := jsonObjectPattern.FindString(trimmed); match != "" {
		if err := json.Unmarshal([]byte(match), out); err == nil {
			return nil
		}
	}

	wrapped, err := json.Marshal(map[string]string{"text": raw})
	if err != nil {
		return err
	}
	return json.Unmarshal(wrapped, out)
}
