package normalize

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// Strategy is one step of the extraction cascade.
// Extract is pure: it either returns a JSON object found in text or an error.
type Strategy struct {
	Name    string
	Extract func(text string) (map[string]any, error)
}

// Strategy names, exported for logs and metrics.
const (
	StrategyDirect = "direct"
	StrategyObject = "object"
	StrategyFenced = "fenced"
	StrategyBraces = "braces"
)

var (
	errNotObject = errors.New("JSON value is not an object")
	errNoBraces  = errors.New("no brace-delimited object in text")
)

// fencePattern matches opening and closing markdown fences, with or without a json tag.
var fencePattern = regexp.MustCompile("(?i)```(?:json)?[ \\t]*\\r?\\n?")

// TextStrategies is the cascade applied to effective text, in priority order.
var TextStrategies = []Strategy{
	{Name: StrategyFenced, Extract: extractFenced},
	{Name: StrategyBraces, Extract: extractBraces},
}

// StripFences removes every markdown fence marker and the surrounding whitespace.
func StripFences(text string) string {
	return strings.TrimSpace(fencePattern.ReplaceAllString(text, ""))
}

func extractFenced(text string) (map[string]any, error) {
	return parseObject(StripFences(text))
}

// extractBraces parses the greedy substring from the first '{' to the last '}'.
func extractBraces(text string) (map[string]any, error) {
	cleaned := StripFences(text)
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return nil, errNoBraces
	}
	return parseObject(cleaned[start : end+1])
}

func parseObject(text string) (map[string]any, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	return obj, nil
}
