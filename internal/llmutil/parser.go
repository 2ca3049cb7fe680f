// internal/llmutil/parser.go
package llmutil

import (
	"fmt"
	"regexp"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// fenceRegex matches a whole response wrapped in a markdown code fence with an
// optional language tag. \x60 is a backtick.
var fenceRegex = regexp.MustCompile("(?s)^\x60\x60\x60[a-zA-Z]*[ \t]*\\r?\\n?(.*?)\\s*\x60\x60\x60$")

// StripCodeFence removes a surrounding ```json (or bare ```) fence from a
// model response. Text without a fence is returned trimmed.
func StripCodeFence(response string) string {
	response = strings.TrimSpace(response)
	if matches := fenceRegex.FindStringSubmatch(response); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}
	// An opening fence with no closing one still counts.
	if strings.HasPrefix(response, "```") {
		body := strings.TrimPrefix(response, "```")
		body = strings.TrimPrefix(body, "json")
		return strings.TrimSpace(body)
	}
	return response
}

// ParseJSONResponse decodes a model response into T after fence stripping.
func ParseJSONResponse[T any](response string) (*T, error) {
	body := StripCodeFence(response)

	var result T
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON response: %w. Raw response: %s", err, response)
	}
	return &result, nil
}
