package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/povrewrite/pkg/config"
	"github.com/aretw0/povrewrite/pkg/domain"
	"github.com/aretw0/povrewrite/pkg/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	s := config.Default()
	assert.True(t, s.Enabled)
	assert.True(t, s.ShowPreview)
	assert.Equal(t, 4000, s.MaxTokens)
	assert.Equal(t, domain.DefaultFieldSelector, s.Fields)
	assert.Equal(t, prompt.DefaultTemplate, s.PromptTemplate)
	assert.NoError(t, s.Validate())
	assert.Empty(t, s.Warnings())
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{config.EnvAPIKey, config.EnvBaseURL, config.EnvModel} {
		t.Setenv(k, "")
	}
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	clearEnv(t)
	s, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), s)
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "povrewrite.yaml")
	content := `
maxTokens: 1200
showPreview: false
fields:
  description: true
  personality: false
  first_mes: true
  mes_example: false
  alternate_greetings: false
provider:
  model: local-llama
  timeout: 45s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1200, s.MaxTokens)
	assert.False(t, s.ShowPreview)
	assert.True(t, s.Enabled, "keys absent from the file keep their default")
	assert.Equal(t, prompt.DefaultTemplate, s.PromptTemplate)
	assert.Equal(t, domain.SelectFields(domain.FieldDescription, domain.FieldFirstMes), s.Fields)
	assert.Equal(t, "local-llama", s.Provider.Model)
	assert.Equal(t, 45*time.Second, s.RequestTimeout())
}

func TestLoad_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "povrewrite.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"maxTokens": 50, "enabled": false}`), 0o644))

	s, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50, s.MaxTokens)
	assert.False(t, s.Enabled)
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"maxTokens": `), 0o644))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(config.EnvAPIKey, "sk-env")
	t.Setenv(config.EnvBaseURL, "http://localhost:11434/v1")
	t.Setenv(config.EnvModel, "qwen")

	s, err := config.Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "sk-env", s.Provider.APIKey)
	assert.Equal(t, "http://localhost:11434/v1", s.Provider.BaseURL)
	assert.Equal(t, "qwen", s.Provider.Model)
}

func TestSave_RoundTripOmitsAPIKey(t *testing.T) {
	clearEnv(t)
	for _, name := range []string{"settings.yaml", "settings.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			s := config.Default()
			s.MaxTokens = 321
			s.Provider.APIKey = "sk-secret"

			require.NoError(t, s.Save(path))

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.NotContains(t, string(raw), "sk-secret")

			loaded, err := config.Load(path)
			require.NoError(t, err)
			assert.Equal(t, 321, loaded.MaxTokens)
			assert.Equal(t, s.PromptTemplate, loaded.PromptTemplate)
			assert.Empty(t, loaded.Provider.APIKey)
		})
	}
}

func TestFromMap(t *testing.T) {
	raw := map[string]any{
		"enabled":   true,
		"maxTokens": "2500",
		"fields": map[string]any{
			"description":         true,
			"personality":         false,
			"first_mes":           true,
			"mes_example":         true,
			"alternate_greetings": false,
		},
	}

	s, filled, err := config.FromMap(raw)
	require.NoError(t, err)
	assert.Equal(t, 2500, s.MaxTokens, "weak decoding accepts numeric strings")
	assert.True(t, s.ShowPreview)
	assert.False(t, s.Fields.Personality)
	assert.ElementsMatch(t, []string{"promptTemplate", "showPreview"}, filled)
}

func TestFromMap_PartialFieldsKeepDefaults(t *testing.T) {
	s, _, err := config.FromMap(map[string]any{
		"fields": map[string]any{"personality": false},
	})
	require.NoError(t, err)
	assert.True(t, s.Fields.Description)
	assert.False(t, s.Fields.Personality)
}

func TestFromMap_BadType(t *testing.T) {
	_, _, err := config.FromMap(map[string]any{"maxTokens": []string{"x"}})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Settings)
	}{
		{"Zero MaxTokens", func(s *config.Settings) { s.MaxTokens = 0 }},
		{"Negative MaxTokens", func(s *config.Settings) { s.MaxTokens = -5 }},
		{"Bad Timeout", func(s *config.Settings) { s.Provider.Timeout = "soon" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := config.Default()
			tt.mutate(&s)
			assert.ErrorIs(t, s.Validate(), domain.ErrConfiguration)
		})
	}
}

func TestWarnings(t *testing.T) {
	s := config.Default()
	s.PromptTemplate = "Rewrite {{FIELDS_LIST}} please."
	s.Fields = domain.FieldSelector{}

	w := s.Warnings()
	require.Len(t, w, 2)
	assert.Contains(t, w[0], "no fields selected")
	assert.Contains(t, w[1], "{{CHARACTER_JSON}}")
}

func TestBlankTemplateIsOnlyAWarning(t *testing.T) {
	s := config.Default()
	s.PromptTemplate = "  \n"

	assert.NoError(t, s.Validate())
	w := s.Warnings()
	require.Len(t, w, 1)
	assert.Contains(t, w[0], "prompt template is empty")
}
