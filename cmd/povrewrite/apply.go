package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/povrewrite/internal/presentation/tui"
	"github.com/aretw0/povrewrite/pkg/domain"
	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply <document-id>",
	Short: "Commit a pending rewrite into a stored document",
	Long: `Merges the fields printed by a pending 'povrewrite rewrite' into the stored
document. Only fields enabled in the settings are applied.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		if err := applyFieldsFlag(cmd, &settings); err != nil {
			return err
		}
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}

		path, _ := cmd.Flags().GetString("partial")
		partial, err := readPartial(path)
		if err != nil {
			return err
		}

		b, err := openBackends(cmd)
		if err != nil {
			return err
		}
		defer b.Close()

		engine, err := newEngine(b, settings, logger)
		if err != nil {
			return err
		}
		if _, err := engine.Apply(cmd.Context(), args[0], partial.Restrict(settings.Fields)); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, tui.Status(domain.Succeeded()))
		return nil
	},
}

func readPartial(path string) (domain.PartialDocument, error) {
	in := io.Reader(os.Stdin)
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open partial document: %w", err)
		}
		defer f.Close()
		in = f
	}

	var partial domain.PartialDocument
	if err := json.NewDecoder(in).Decode(&partial); err != nil {
		return nil, fmt.Errorf("%w: invalid partial document: %v", domain.ErrConfiguration, err)
	}
	return partial, nil
}

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().StringP("partial", "p", "-", "JSON file with the rewritten fields (- for stdin)")
	addFieldsFlag(applyCmd)
}
