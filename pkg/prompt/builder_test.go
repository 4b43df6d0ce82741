package prompt_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/aretw0/povrewrite/pkg/domain"
	"github.com/aretw0/povrewrite/pkg/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() *domain.Document {
	return &domain.Document{
		Name:               "Anna",
		Description:        "{{char}} is a knight.",
		Personality:        "Brave & <loyal>",
		Scenario:           "A tavern.",
		FirstMes:           "*Anna looks at you.*",
		MesExample:         "<START>",
		AlternateGreetings: []string{"Hello, {{user}}.", "Well met."},
		CreatorNotes:       "secret",
	}
}

func TestPayload_AllFieldsInDeclarationOrder(t *testing.T) {
	got := prompt.Payload(sampleDocument(), domain.DefaultFieldSelector)

	expected := `{
  "name": "Anna",
  "description": "{{char}} is a knight.",
  "personality": "Brave & <loyal>",
  "first_mes": "*Anna looks at you.*",
  "mes_example": "<START>",
  "alternate_greetings": [
    "Hello, {{user}}.",
    "Well met."
  ]
}`
	assert.Equal(t, expected, got)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(got), &decoded), "payload must stay valid JSON")
	assert.NotContains(t, decoded, "scenario")
	assert.NotContains(t, decoded, "creator_notes")
}

func TestPayload_NoFieldsOnlyName(t *testing.T) {
	got := prompt.Payload(sampleDocument(), domain.FieldSelector{})
	assert.Equal(t, "{\n  \"name\": \"Anna\"\n}", got)
}

func TestPayload_EmptyGreetingsAreAnArray(t *testing.T) {
	doc := &domain.Document{Name: "Anna"}
	got := prompt.Payload(doc, domain.SelectFields(domain.FieldAlternateGreetings))
	assert.Equal(t, "{\n  \"name\": \"Anna\",\n  \"alternate_greetings\": []\n}", got)
}

func TestBuild(t *testing.T) {
	tmpl := "Fields: {{FIELDS_LIST}}\nJSON:\n{{CHARACTER_JSON}}\nEnd"
	sel := domain.SelectFields(domain.FieldPersonality, domain.FieldDescription)

	got := prompt.Build(sampleDocument(), sel, tmpl)

	assert.True(t, strings.HasPrefix(got, "Fields: description, personality\nJSON:\n{\n  \"name\": \"Anna\""))
	assert.True(t, strings.HasSuffix(got, "}\nEnd"))
	assert.NotContains(t, got, "first_mes")
}

func TestBuild_OnlyFirstMarkerReplaced(t *testing.T) {
	tmpl := "{{FIELDS_LIST}} / {{FIELDS_LIST}}"
	got := prompt.Build(sampleDocument(), domain.SelectFields(domain.FieldDescription), tmpl)
	assert.Equal(t, "description / {{FIELDS_LIST}}", got)
}

func TestBuild_MissingMarkersDegrade(t *testing.T) {
	t.Run("Without Character JSON", func(t *testing.T) {
		got := prompt.Build(sampleDocument(), domain.DefaultFieldSelector, "Rewrite: {{FIELDS_LIST}}")
		assert.Equal(t, "Rewrite: description, personality, first_mes, mes_example, alternate_greetings", got)
		assert.NotContains(t, got, "Anna")
	})

	t.Run("Without Any Marker", func(t *testing.T) {
		got := prompt.Build(sampleDocument(), domain.DefaultFieldSelector, "Just rewrite it.")
		assert.Equal(t, "Just rewrite it.", got)
	})

	t.Run("Nil Document", func(t *testing.T) {
		got := prompt.Build(nil, domain.SelectFields(domain.FieldDescription), "{{CHARACTER_JSON}}")
		assert.Equal(t, "{\n  \"name\": \"\",\n  \"description\": \"\"\n}", got)
	})
}

func TestBuild_DefaultTemplate(t *testing.T) {
	got := prompt.Build(sampleDocument(), domain.DefaultFieldSelector, prompt.DefaultTemplate)
	assert.Contains(t, got, "Fields to Rewrite: description, personality, first_mes, mes_example, alternate_greetings")
	assert.Contains(t, got, "\"name\": \"Anna\"")
	assert.Empty(t, prompt.MissingMarkers(prompt.DefaultTemplate))
}

func TestMissingMarkers(t *testing.T) {
	assert.Equal(t, []string{prompt.MarkerCharacterJSON}, prompt.MissingMarkers("{{FIELDS_LIST}}"))
	assert.Equal(t, []string{prompt.MarkerFieldsList, prompt.MarkerCharacterJSON}, prompt.MissingMarkers(""))
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, prompt.EstimateTokens(""))
	assert.Equal(t, 1, prompt.EstimateTokens("abcd"))
	assert.Equal(t, 2, prompt.EstimateTokens("abcde"))
	assert.Equal(t, 1, prompt.EstimateTokens("äöü"))
}
