package main

import (
	"fmt"
	"io"
	"os"

	"github.com/aretw0/povrewrite/pkg/config"
	"github.com/aretw0/povrewrite/pkg/domain"
	"github.com/aretw0/povrewrite/pkg/normalize"
	"github.com/aretw0/povrewrite/pkg/reconcile"
	"github.com/spf13/cobra"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [response-file]",
	Short: "Extract the JSON object from a raw model response",
	Long: `Reads a model response (raw text or a chat-completion envelope) from a file
or stdin and prints the recovered fields with the strategy that found them.
With --card the fields are also reconciled against that character: disabled
fields are dropped and names are turned back into {{char}} and {{user}}.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := io.Reader(os.Stdin)
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open response: %w", err)
			}
			defer f.Close()
			in = f
		}
		raw, err := io.ReadAll(in)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		res, err := normalize.New(normalize.WithLogger(logger)).Normalize(string(raw))
		if err != nil {
			return err
		}

		card, _ := cmd.Flags().GetString("card")
		if card == "" {
			return writeJSON(os.Stdout, map[string]any{
				"strategy": res.Strategy,
				"fields":   res.Fields,
			})
		}

		doc, err := readDocument(card)
		if err != nil {
			return err
		}
		settings, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		if err := applyFieldsFlag(cmd, &settings); err != nil {
			return err
		}
		return writeJSON(os.Stdout, reconcileFlags(cmd, res, doc, settings))
	},
}

func reconcileFlags(cmd *cobra.Command, res *normalize.Result, doc *domain.Document, settings config.Settings) domain.PartialDocument {
	char, _ := cmd.Flags().GetString("char")
	user, _ := cmd.Flags().GetString("user")
	return reconcile.Reconcile(reconcile.Request{
		Fields:        res.Fields,
		Original:      doc,
		Selector:      settings.Fields,
		CharacterName: char,
		UserName:      user,
	})
}

func init() {
	rootCmd.AddCommand(normalizeCmd)

	normalizeCmd.Flags().String("card", "", "Reconcile against this card file")
	normalizeCmd.Flags().String("char", "", "Character name to restore as {{char}} (defaults to the card name)")
	normalizeCmd.Flags().String("user", "", "User name to restore as {{user}}")
	addFieldsFlag(normalizeCmd)
}
