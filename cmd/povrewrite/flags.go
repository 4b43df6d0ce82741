package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/povrewrite/pkg/config"
	"github.com/aretw0/povrewrite/pkg/domain"
	"github.com/spf13/cobra"
)

// addFieldsFlag registers --fields on commands that build prompts.
func addFieldsFlag(cmd *cobra.Command) {
	cmd.Flags().String("fields", "", "Comma-separated fields to rewrite (overrides settings)")
}

// applyFieldsFlag replaces the configured field selection when --fields is set.
func applyFieldsFlag(cmd *cobra.Command, settings *config.Settings) error {
	raw, _ := cmd.Flags().GetString("fields")
	if !cmd.Flags().Changed("fields") {
		return nil
	}
	sel, err := parseFields(raw)
	if err != nil {
		return err
	}
	settings.Fields = sel
	return nil
}

func parseFields(raw string) (domain.FieldSelector, error) {
	var fields []domain.Field
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		f, ok := domain.ParseField(name)
		if !ok {
			return domain.FieldSelector{}, fmt.Errorf("%w: unknown field %q", domain.ErrConfiguration, name)
		}
		fields = append(fields, f)
	}
	return domain.SelectFields(fields...), nil
}

// loadTarget resolves the document a command works on: a card file given with
// --file, or a stored document named by the first argument.
func loadTarget(cmd *cobra.Command, args []string) (id string, doc *domain.Document, b backends, err error) {
	file, _ := cmd.Flags().GetString("file")
	if file != "" {
		doc, err = readDocument(file)
		return "", doc, backends{}, err
	}
	if len(args) == 0 {
		return "", nil, backends{}, fmt.Errorf("%w: give a document ID or --file", domain.ErrConfiguration)
	}

	b, err = openBackends(cmd)
	if err != nil {
		return "", nil, backends{}, err
	}
	doc, err = b.store.Load(cmd.Context(), args[0])
	if err != nil {
		b.Close()
		return "", nil, backends{}, err
	}
	return args[0], doc, b, nil
}
