package reconcile_test

import (
	"testing"

	"github.com/aretw0/povrewrite/pkg/domain"
	"github.com/aretw0/povrewrite/pkg/reconcile"
	"github.com/stretchr/testify/assert"
)

func TestReconcile_DisabledFieldIsDropped(t *testing.T) {
	got := reconcile.Reconcile(reconcile.Request{
		Fields:   map[string]any{"description": "I am tall"},
		Original: &domain.Document{Name: "Anna"},
		Selector: domain.SelectFields(domain.FieldPersonality),
	})
	assert.Empty(t, got)
}

func TestReconcile_NoFieldsEnabled(t *testing.T) {
	got := reconcile.Reconcile(reconcile.Request{
		Fields: map[string]any{
			"description":         "a",
			"personality":         "b",
			"first_mes":           "c",
			"mes_example":         "d",
			"alternate_greetings": []any{"e"},
		},
		Selector: domain.FieldSelector{},
	})
	assert.Empty(t, got)
}

func TestReconcile_SelectorFidelity(t *testing.T) {
	fields := map[string]any{
		"name":                "Mallory",
		"description":         "I am Anna.",
		"personality":         "I like Bob.",
		"scenario":            "Changed scenario",
		"first_mes":           "Hello Bob!",
		"alternate_greetings": []any{"Hi Bob", "Anna here", 7},
	}

	got := reconcile.Reconcile(reconcile.Request{
		Fields:   fields,
		Original: &domain.Document{Name: "Anna"},
		Selector: domain.SelectFields(domain.FieldDescription, domain.FieldFirstMes, domain.FieldAlternateGreetings, domain.FieldMesExample),
		UserName: "Bob",
	})

	assert.Equal(t, domain.PartialDocument{
		"description":         "I am {{char}}.",
		"first_mes":           "Hello {{user}}!",
		"alternate_greetings": []any{"Hi {{user}}", "{{char}} here", 7},
	}, got)
	assert.NotContains(t, got, "personality", "disabled field must not leak")
	assert.NotContains(t, got, "scenario")
	assert.NotContains(t, got, "name")
	assert.NotContains(t, got, "mes_example", "absent field is omitted, not blanked")
}

func TestReconcile_ExplicitCharacterNameWins(t *testing.T) {
	got := reconcile.Reconcile(reconcile.Request{
		Fields:        map[string]any{"description": "Ann and Anna"},
		Original:      &domain.Document{Name: "Anna"},
		Selector:      domain.DefaultFieldSelector,
		CharacterName: "Ann",
	})
	assert.Equal(t, "{{char}} and Anna", got["description"])
}

func TestReconcile_NonStringValuesPassThrough(t *testing.T) {
	got := reconcile.Reconcile(reconcile.Request{
		Fields:   map[string]any{"personality": 12.0, "description": nil, "alternate_greetings": "Anna"},
		Original: &domain.Document{Name: "Anna"},
		Selector: domain.DefaultFieldSelector,
	})
	assert.Equal(t, 12.0, got["personality"])
	assert.Contains(t, got, "description")
	assert.Nil(t, got["description"])
	assert.Equal(t, "{{char}}", got["alternate_greetings"])
}

func TestReconcile_NoOriginalNoNames(t *testing.T) {
	got := reconcile.Reconcile(reconcile.Request{
		Fields:   map[string]any{"description": "Anna is here"},
		Selector: domain.DefaultFieldSelector,
	})
	assert.Equal(t, domain.PartialDocument{"description": "Anna is here"}, got)
}
