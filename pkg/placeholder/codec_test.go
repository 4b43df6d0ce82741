package placeholder_test

import (
	"testing"

	"github.com/aretw0/povrewrite/pkg/placeholder"
	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		char     string
		user     string
		expected string
	}{
		{"Character Name", "Anna smiles at you.", "Anna", "", "{{char}} smiles at you."},
		{"User Name", "I wave at Bob.", "", "Bob", "I wave at {{user}}."},
		{"Both Global", "Anna and Bob. Bob likes Anna.", "Anna", "Bob", "{{char}} and {{user}}. {{user}} likes {{char}}."},
		{"Whole Word Only", "Annabelle is not Anna.", "Anna", "", "Annabelle is not {{char}}."},
		{"Shorter Name Inside Longer", "Anna met Ann.", "Ann", "", "Anna met {{char}}."},
		{"Case Sensitive", "anna and ANNA and Anna", "Anna", "", "anna and ANNA and {{char}}"},
		{"Possessive", "Anna's sword", "Anna", "", "{{char}}'s sword"},
		{"Empty Names Skipped", "Anna and Bob", "", "", "Anna and Bob"},
		{"Metacharacters Literal", "Meet J.R. today, not JxR.", "J.R", "", "Meet {{char}}. today, not JxR."},
		{"Non Word Edges Never Match", "Hi (Bob)+ and Bob", "", "(Bob)+", "Hi (Bob)+ and Bob"},
		{"Multi Word Name", "Lady Anna waves. Anna waves.", "Lady Anna", "", "{{char}} waves. Anna waves."},
		{"Empty Text", "", "Anna", "Bob", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := placeholder.Decode(tt.text, tt.char, tt.user)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCodec_DecodeValue(t *testing.T) {
	c := placeholder.NewCodec("Anna", "Bob")

	assert.Equal(t, "{{char}} waves", c.DecodeValue("Anna waves"))
	assert.Equal(t, []any{"{{char}} hi", 42, "{{user}}"}, c.DecodeValue([]any{"Anna hi", 42, "Bob"}))
	assert.Equal(t, []string{"{{user}} and {{char}}"}, c.DecodeValue([]string{"Bob and Anna"}))
	assert.Equal(t, 3.5, c.DecodeValue(3.5))
	assert.Nil(t, c.DecodeValue(nil))

	obj := map[string]any{"text": "Anna"}
	assert.Equal(t, obj, c.DecodeValue(obj), "objects pass through untouched")
}

func TestCodec_NilIsNoop(t *testing.T) {
	var c *placeholder.Codec
	assert.Equal(t, "Anna", c.Decode("Anna"))
}
