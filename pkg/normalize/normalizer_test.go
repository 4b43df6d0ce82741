package normalize_test

import (
	"errors"
	"testing"

	"github.com/aretw0/povrewrite/pkg/domain"
	"github.com/aretw0/povrewrite/pkg/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelope(message map[string]any) map[string]any {
	return map[string]any{
		"id": "chatcmpl-1",
		"choices": []any{
			map[string]any{"index": 0.0, "message": message},
		},
	}
}

func TestNormalize_Success(t *testing.T) {
	tests := []struct {
		name     string
		raw      any
		expected map[string]any
		strategy string
		envelope bool
	}{
		{
			name:     "Fenced JSON String",
			raw:      "```json\n{\"description\":\"I am brave\"}\n```",
			expected: map[string]any{"description": "I am brave"},
			strategy: normalize.StrategyFenced,
		},
		{
			name:     "Uppercase Fence Tag",
			raw:      "```JSON\n{\"description\":\"I am brave\"}\n```",
			expected: map[string]any{"description": "I am brave"},
			strategy: normalize.StrategyFenced,
		},
		{
			name:     "Bare Fence",
			raw:      "```\n{\"first_mes\":\"Hi\"}\n```\n",
			expected: map[string]any{"first_mes": "Hi"},
			strategy: normalize.StrategyFenced,
		},
		{
			name:     "Plain JSON String",
			raw:      `{"personality":"I am kind","mes_example":"<START>"}`,
			expected: map[string]any{"personality": "I am kind", "mes_example": "<START>"},
			strategy: normalize.StrategyDirect,
		},
		{
			name:     "Prose Wrapped String",
			raw:      "Sure! Here it is: {\"description\":\"I am tall\"} Let me know.",
			expected: map[string]any{"description": "I am tall"},
			strategy: normalize.StrategyBraces,
		},
		{
			name:     "Array Holding An Object",
			raw:      `[{"description":"I am tall"}]`,
			expected: map[string]any{"description": "I am tall"},
			strategy: normalize.StrategyBraces,
		},
		{
			name:     "Envelope Object With Prose",
			raw:      envelope(map[string]any{"content": "Some text {\"personality\":\"I am kind\"} trailing"}),
			expected: map[string]any{"personality": "I am kind"},
			strategy: normalize.StrategyBraces,
			envelope: true,
		},
		{
			name:     "Envelope Object With Fence",
			raw:      envelope(map[string]any{"role": "assistant", "content": "```json\n{\"description\":\"I am brave\"}\n```"}),
			expected: map[string]any{"description": "I am brave"},
			strategy: normalize.StrategyFenced,
			envelope: true,
		},
		{
			name:     "Envelope As JSON String",
			raw:      `{"choices":[{"message":{"content":"{\"first_mes\":\"Hello\"}"}}]}`,
			expected: map[string]any{"first_mes": "Hello"},
			strategy: normalize.StrategyFenced,
			envelope: true,
		},
		{
			name:     "Envelope As Bytes",
			raw:      []byte(`{"choices":[{"message":{"content":"{\"first_mes\":\"Hello\"}"}}]}`),
			expected: map[string]any{"first_mes": "Hello"},
			strategy: normalize.StrategyFenced,
			envelope: true,
		},
		{
			name:     "Empty Choices Is A Plain Object",
			raw:      `{"choices":[],"description":"I am here"}`,
			expected: map[string]any{"choices": []any{}, "description": "I am here"},
			strategy: normalize.StrategyDirect,
		},
		{
			name: "Structured Object Pass Through",
			raw: map[string]any{
				"description":         "I am brave",
				"alternate_greetings": []any{"Hi"},
				"unrelated":           true,
			},
			expected: map[string]any{"description": "I am brave", "alternate_greetings": []any{"Hi"}},
			strategy: normalize.StrategyObject,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := normalize.Normalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, res.Fields)
			assert.Equal(t, tt.strategy, res.Strategy)
			assert.Equal(t, tt.envelope, res.Envelope)
		})
	}
}

func TestNormalize_Failures(t *testing.T) {
	tests := []struct {
		name   string
		raw    any
		reason string
	}{
		{"Not JSON At All", "not json at all", domain.ReasonNoJSON},
		{"Broken Braces", "{ this is not json }", domain.ReasonNoJSON},
		{"Empty String", "", domain.ReasonNoJSON},
		{"Envelope Without Message", map[string]any{"choices": []any{map[string]any{}}}, domain.ReasonNoJSON},
		{"Envelope With Prose Only", envelope(map[string]any{"content": "I refuse."}), domain.ReasonNoJSON},
		{"Object Missing Fields", map[string]any{"foo": "bar"}, domain.ReasonMissingFields},
		{"Nil", nil, domain.ReasonInvalidFormat},
		{"Number", 42, domain.ReasonInvalidFormat},
		{"Array Of Numbers", "[1, 2, 3]", domain.ReasonInvalidFormat},
		{"JSON Null", "null", domain.ReasonInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := normalize.Normalize(tt.raw)
			assert.Nil(t, res)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrNormalization)

			var nerr *domain.NormalizationError
			require.True(t, errors.As(err, &nerr))
			assert.Equal(t, tt.reason, nerr.Reason)
		})
	}
}

func TestNormalize_ReasoningFallback(t *testing.T) {
	raw := envelope(map[string]any{
		"content":   "",
		"reasoning": "Thinking... {\"personality\":\"I am calm\"}",
	})

	res, err := normalize.Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"personality": "I am calm"}, res.Fields)
	assert.True(t, res.UsedReasoning)

	strict := normalize.New(normalize.WithReasoningFallback(false))
	_, err = strict.Normalize(raw)
	assert.ErrorIs(t, err, domain.ErrNormalization)
}

func TestNormalize_ContentWinsOverReasoning(t *testing.T) {
	raw := envelope(map[string]any{
		"content":   `{"description":"from content"}`,
		"reasoning": `{"description":"from reasoning"}`,
	})
	res, err := normalize.Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "from content", res.Fields["description"])
	assert.False(t, res.UsedReasoning)
}

func TestNormalizer_CustomStrategies(t *testing.T) {
	fencedOnly := normalize.New(normalize.WithStrategies(normalize.TextStrategies[0]))

	_, err := fencedOnly.Normalize("prefix {\"description\":\"x\"}")
	assert.ErrorIs(t, err, domain.ErrNormalization)

	res, err := fencedOnly.Normalize("```json\n{\"description\":\"x\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "x", res.Fields["description"])
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, normalize.StripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, normalize.StripFences("  ```json {\"a\":1}```  "))
	assert.Equal(t, "plain", normalize.StripFences("plain"))
}
