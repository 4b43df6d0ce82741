// Package config loads and validates rewrite settings.
//
// Settings come from three places, applied in order: built-in defaults, a YAML or
// JSON file (or a host-persisted settings map), then POVREWRITE_* environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/povrewrite/pkg/domain"
	"github.com/aretw0/povrewrite/pkg/prompt"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMaxTokens = 4000
	DefaultTimeout   = "2m"
	DefaultModel     = "gpt-4o-mini"
)

// Environment variables that override file settings.
const (
	EnvAPIKey  = "POVREWRITE_API_KEY"
	EnvBaseURL = "POVREWRITE_BASE_URL"
	EnvModel   = "POVREWRITE_MODEL"
)

// Settings controls a rewrite. Keys match the settings object persisted by chat hosts.
type Settings struct {
	Enabled        bool                 `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	PromptTemplate string               `yaml:"promptTemplate" json:"promptTemplate" mapstructure:"promptTemplate"`
	MaxTokens      int                  `yaml:"maxTokens" json:"maxTokens" mapstructure:"maxTokens"`
	ShowPreview    bool                 `yaml:"showPreview" json:"showPreview" mapstructure:"showPreview"`
	Fields         domain.FieldSelector `yaml:"fields" json:"fields" mapstructure:"fields"`
	Provider       Provider             `yaml:"provider" json:"provider" mapstructure:"provider"`
}

// Provider describes the chat-completions endpoint.
type Provider struct {
	BaseURL string `yaml:"baseURL,omitempty" json:"baseURL,omitempty" mapstructure:"baseURL"`
	Model   string `yaml:"model,omitempty" json:"model,omitempty" mapstructure:"model"`
	APIKey  string `yaml:"apiKey,omitempty" json:"apiKey,omitempty" mapstructure:"apiKey"`
	// Timeout is a Go duration string such as "90s".
	Timeout string `yaml:"timeout,omitempty" json:"timeout,omitempty" mapstructure:"timeout"`
}

// Default returns the settings a fresh installation starts with.
func Default() Settings {
	return Settings{
		Enabled:        true,
		PromptTemplate: prompt.DefaultTemplate,
		MaxTokens:      DefaultMaxTokens,
		ShowPreview:    true,
		Fields:         domain.DefaultFieldSelector,
		Provider: Provider{
			Model:   DefaultModel,
			Timeout: DefaultTimeout,
		},
	}
}

// Load reads settings from a YAML or JSON file (chosen by extension) on top of the
// defaults, then applies environment overrides. A missing file yields the defaults.
func Load(path string) (Settings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decodeFile(path, data, &s); err != nil {
			return Settings{}, err
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}

	s.ApplyEnv(os.LookupEnv)
	return s, nil
}

func decodeFile(path string, data []byte, s *Settings) error {
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, s); err != nil {
			return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Save writes settings as YAML, or JSON when path ends in .json.
// The API key is never written; it belongs in the environment.
func (s Settings) Save(path string) error {
	out := s
	out.Provider.APIKey = ""

	var (
		data []byte
		err  error
	)
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		data, err = json.MarshalIndent(out, "", "  ")
	} else {
		data, err = yaml.Marshal(out)
	}
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create settings dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

// FromMap decodes a host-persisted settings object. Keys the host never stored keep
// their default value and are reported in filled, so the caller can persist them back.
func FromMap(raw map[string]any) (s Settings, filled []string, err error) {
	s = Default()

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &s,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Settings{}, nil, fmt.Errorf("failed to create settings decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return Settings{}, nil, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}

	for _, key := range []string{"enabled", "promptTemplate", "maxTokens", "showPreview", "fields"} {
		if _, ok := raw[key]; !ok {
			filled = append(filled, key)
		}
	}
	return s, filled, nil
}

// ApplyEnv overrides provider settings from the environment.
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIKey); ok && v != "" {
		s.Provider.APIKey = v
	}
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		s.Provider.BaseURL = v
	}
	if v, ok := lookup(EnvModel); ok && v != "" {
		s.Provider.Model = v
	}
}

// RequestTimeout parses Provider.Timeout, falling back to the default.
func (s Settings) RequestTimeout() time.Duration {
	if d, err := time.ParseDuration(s.Provider.Timeout); err == nil && d > 0 {
		return d
	}
	d, _ := time.ParseDuration(DefaultTimeout)
	return d
}

// Validate rejects settings no rewrite can run with.
func (s Settings) Validate() error {
	if s.MaxTokens <= 0 {
		return fmt.Errorf("%w: maxTokens must be positive, got %d", domain.ErrConfiguration, s.MaxTokens)
	}
	if s.Provider.Timeout != "" {
		if _, err := time.ParseDuration(s.Provider.Timeout); err != nil {
			return fmt.Errorf("%w: invalid provider timeout %q", domain.ErrConfiguration, s.Provider.Timeout)
		}
	}
	return nil
}

// Warnings lists problems that degrade a rewrite without preventing it.
func (s Settings) Warnings() []string {
	var out []string
	if s.Fields.None() {
		out = append(out, "no fields selected, rewrites will leave the document unchanged")
	}
	if strings.TrimSpace(s.PromptTemplate) == "" {
		return append(out, "prompt template is empty, the model receives no instructions or character data")
	}
	for _, m := range prompt.MissingMarkers(s.PromptTemplate) {
		out = append(out, fmt.Sprintf("prompt template has no %s marker", m))
	}
	return out
}
