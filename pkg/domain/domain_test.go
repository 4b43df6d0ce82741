package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/povrewrite/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldSelector_EnabledKeepsDeclarationOrder(t *testing.T) {
	sel := domain.SelectFields(domain.FieldAlternateGreetings, domain.FieldDescription, domain.FieldMesExample)

	assert.Equal(t, []domain.Field{
		domain.FieldDescription,
		domain.FieldMesExample,
		domain.FieldAlternateGreetings,
	}, sel.Enabled())
	assert.Equal(t, "description, mes_example, alternate_greetings", sel.String())
	assert.False(t, sel.Has(domain.FieldPersonality))
}

func TestFieldSelector_Defaults(t *testing.T) {
	assert.Len(t, domain.DefaultFieldSelector.Enabled(), 5)
	assert.True(t, domain.FieldSelector{}.None())
	assert.False(t, domain.SelectFields(domain.Field("name")).Has(domain.Field("name")))
}

func TestParseField(t *testing.T) {
	f, ok := domain.ParseField("first_mes")
	assert.True(t, ok)
	assert.Equal(t, domain.FieldFirstMes, f)

	_, ok = domain.ParseField("scenario")
	assert.False(t, ok, "scenario is never rewritten")
}

func TestPartialDocument_ApplyTo(t *testing.T) {
	doc := &domain.Document{
		Name:               "Anna",
		Description:        "She is brave.",
		Personality:        "Kind.",
		AlternateGreetings: []string{"Hi", "Hello", "Hey"},
		Tags:               []string{"fantasy"},
	}
	partial := domain.PartialDocument{
		"description":         "I am brave.",
		"alternate_greetings": []any{"I say hi"},
	}

	merged, err := partial.ApplyTo(doc)
	require.NoError(t, err)

	assert.Equal(t, "I am brave.", merged.Description)
	assert.Equal(t, "Kind.", merged.Personality, "absent fields keep their value")
	assert.Equal(t, []string{"I say hi"}, merged.AlternateGreetings)
	assert.Equal(t, []string{"fantasy"}, merged.Tags)

	assert.Equal(t, "She is brave.", doc.Description, "original must not be mutated")
	assert.Len(t, doc.AlternateGreetings, 3)
}

func TestPartialDocument_ApplyToIgnoresUnknownKeys(t *testing.T) {
	doc := &domain.Document{Name: "Anna", Scenario: "A tavern."}
	merged, err := domain.PartialDocument{"scenario": "Overwritten", "name": "Bob"}.ApplyTo(doc)
	require.NoError(t, err)
	assert.Equal(t, "A tavern.", merged.Scenario)
	assert.Equal(t, "Anna", merged.Name)
}

func TestPartialDocument_ApplyToNullKeepsStoredValue(t *testing.T) {
	doc := &domain.Document{
		Name:               "Anna",
		Description:        "She is brave.",
		AlternateGreetings: []string{"Hello", "Well met"},
	}
	merged, err := domain.PartialDocument{
		"description":         nil,
		"alternate_greetings": nil,
	}.ApplyTo(doc)
	require.NoError(t, err)
	assert.Equal(t, "She is brave.", merged.Description)
	assert.Equal(t, []string{"Hello", "Well met"}, merged.AlternateGreetings)
}

func TestPartialDocument_ApplyToNilDocument(t *testing.T) {
	_, err := domain.PartialDocument{}.ApplyTo(nil)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestPartialDocument_Restrict(t *testing.T) {
	p := domain.PartialDocument{"description": "a", "personality": "b", "scenario": "c"}
	got := p.Restrict(domain.SelectFields(domain.FieldPersonality))
	assert.Equal(t, domain.PartialDocument{"personality": "b"}, got)
}

func TestPreview(t *testing.T) {
	doc := &domain.Document{
		Description:        "She is brave.",
		Personality:        "I am kind.",
		AlternateGreetings: []string{"Hello"},
	}
	partial := domain.PartialDocument{
		"personality":         "I am kind.",
		"description":         "I am brave.",
		"alternate_greetings": []any{"Hello"},
	}

	p := domain.NewPreview(doc, partial)
	require.Len(t, p.Changes, 3)
	assert.Equal(t, domain.FieldDescription, p.Changes[0].Field)
	assert.True(t, p.Changes[0].Changed)
	assert.False(t, p.Changes[1].Changed)
	assert.False(t, p.Changes[2].Changed)
	assert.Equal(t, 1, p.ChangedCount())

	md := p.Markdown()
	assert.Contains(t, md, "## Description")
	assert.Contains(t, md, "I am brave.")
	assert.Contains(t, md, "1. Hello")
}

func TestPreview_Empty(t *testing.T) {
	p := domain.NewPreview(&domain.Document{}, domain.PartialDocument{})
	assert.True(t, p.IsEmpty())
	assert.Contains(t, p.Markdown(), "No fields were rewritten")
}

func TestNormalizationError(t *testing.T) {
	cause := fmt.Errorf("unexpected end of JSON input")
	err := fmt.Errorf("rewrite: %w", &domain.NormalizationError{Reason: domain.ReasonNoJSON, Err: cause})

	assert.ErrorIs(t, err, domain.ErrNormalization)
	assert.ErrorIs(t, err, cause)

	var nerr *domain.NormalizationError
	require.True(t, errors.As(err, &nerr))
	assert.Equal(t, domain.ReasonNoJSON, nerr.Reason)
	assert.Contains(t, err.Error(), "no valid JSON found")
}

func TestOutcomes(t *testing.T) {
	assert.Equal(t, domain.StatusAborted, domain.Aborted().Status)
	assert.Equal(t, "Error: boom", domain.Failed(errors.New("boom")).Message)
	assert.False(t, domain.Pending().Terminal())
	assert.True(t, domain.Succeeded().Terminal())
}
