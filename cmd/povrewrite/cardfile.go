package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/povrewrite/pkg/domain"
	"gopkg.in/yaml.v3"
)

// cardFile accepts both bare character objects and V2 cards ({"spec": ..., "data": {...}}).
type cardFile struct {
	domain.Document `yaml:",inline"`
	Spec            string           `json:"spec" yaml:"spec"`
	Data            *domain.Document `json:"data" yaml:"data"`
}

func readDocument(path string) (*domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read card: %w", err)
	}
	return parseDocument(data, filepath.Ext(path))
}

func parseDocument(data []byte, ext string) (*domain.Document, error) {
	var card cardFile
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		err := yaml.Unmarshal(data, &card)
		if err != nil {
			return nil, fmt.Errorf("failed to parse card: %w", err)
		}
	default:
		err := json.Unmarshal(data, &card)
		if err != nil {
			return nil, fmt.Errorf("failed to parse card: %w", err)
		}
	}

	doc := card.Document
	if card.Data != nil {
		doc = *card.Data
	}
	if doc.Name == "" {
		return nil, fmt.Errorf("%w: card has no name", domain.ErrConfiguration)
	}
	return &doc, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// idFromPath derives a store ID from a card file name.
func idFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
