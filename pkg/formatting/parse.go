package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParseFailed is returned when content cannot be decoded as JSON into the
// target type, either directly, from a markdown code fence, or from the
// outermost object embedded in surrounding prose.
var ErrParseFailed = errors.New("failed to parse response")

var jsonBlockRegex = regexp.MustCompile(`(?s)` + "```" + `(?:json)?\s*\n?(.*?)\n?` + "```")

// Parse attempts to unmarshal content as JSON into T. Language models often
// wrap JSON in a code fence or a sentence, so each candidate is tried in turn.
// The error of the last attempt is wrapped with ErrParseFailed, so decoding
// errors raised by T's own UnmarshalJSON stay visible to errors.Is.
func Parse[T any](content string) (T, error) {
	var zero T
	content = strings.TrimSpace(content)
	if content == "" {
		return zero, fmt.Errorf("%w: empty content", ErrParseFailed)
	}

	var lastErr error
	for _, candidate := range candidates(content) {
		var result T
		if err := json.Unmarshal([]byte(candidate), &result); err != nil {
			lastErr = err
			continue
		}
		return result, nil
	}

	return zero, fmt.Errorf("%w: %w", ErrParseFailed, lastErr)
}

func candidates(content string) []string {
	out := []string{content}

	if m := jsonBlockRegex.FindStringSubmatch(content); len(m) >= 2 {
		out = append(out, strings.TrimSpace(m[1]))
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start > 0 && end > start {
		out = append(out, content[start:end+1])
	}

	return out
}
