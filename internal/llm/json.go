package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Models are asked for raw JSON but routinely wrap it in code fences or
// surround it with prose. These patterns clean up the common cases.
var (
	codeFenceRegex     = regexp.MustCompile("(?s)```(?:json)?\\s*\n?([\\s\\S]*?)\n?```")
	trailingCommaRegex = regexp.MustCompile(`,(\s*[}\]])`)
	objectRegex        = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
)

// ExtractJSON decodes a model response into T, tolerating code fences,
// trailing commas, and surrounding prose. Strategies are tried in
// order: direct parse, fence removal, comma cleanup, outermost-object
// extraction.
func ExtractJSON[T any](text string) (T, error) {
	var zero T
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return zero, fmt.Errorf("empty response")
	}

	candidates := []string{trimmed}
	if m := codeFenceRegex.FindStringSubmatch(trimmed); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	if m := objectRegex.FindString(trimmed); m != "" {
		candidates = append(candidates, m)
	}

	var lastErr error
	for _, c := range candidates {
		for _, attempt := range []string{c, trailingCommaRegex.ReplaceAllString(c, "$1")} {
			var out T
			dec := json.NewDecoder(strings.NewReader(attempt))
			if err := dec.Decode(&out); err != nil {
				lastErr = err
				continue
			}
			return out, nil
		}
	}
	return zero, fmt.Errorf("response is not valid JSON: %w", lastErr)
}
