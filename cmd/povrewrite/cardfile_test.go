package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/povrewrite/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocument(t *testing.T) {
	tests := []struct {
		name string
		data string
		ext  string
		want string
	}{
		{"Bare JSON", `{"name":"Anna","description":"She is brave."}`, ".json", "She is brave."},
		{"V2 JSON", `{"spec":"chara_card_v2","data":{"name":"Anna","description":"She is kind."}}`, ".json", "She is kind."},
		{"YAML", "name: Anna\ndescription: She is calm.\n", ".yaml", "She is calm."},
		{"V2 YAML", "spec: chara_card_v2\ndata:\n  name: Anna\n  description: She is shy.\n", ".yml", "She is shy."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := parseDocument([]byte(tt.data), tt.ext)
			require.NoError(t, err)
			assert.Equal(t, "Anna", doc.Name)
			assert.Equal(t, tt.want, doc.Description)
		})
	}
}

func TestParseDocument_Errors(t *testing.T) {
	_, err := parseDocument([]byte(`{"description":"nameless"}`), ".json")
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = parseDocument([]byte(`{not json`), ".json")
	assert.Error(t, err)
}

func TestReadDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anna.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"Anna","alternate_greetings":["Hi"]}`), 0o600))

	doc, err := readDocument(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hi"}, doc.AlternateGreetings)
	assert.Equal(t, "anna", idFromPath(path))
}
