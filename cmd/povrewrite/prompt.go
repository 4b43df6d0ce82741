package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/povrewrite"
	"github.com/spf13/cobra"
)

var promptCmd = &cobra.Command{
	Use:   "prompt [document-id]",
	Short: "Print the prompt that would be sent for a character",
	Long: `Builds the rewrite prompt for a stored character or a card file without
calling the model. Token estimate and warnings go to stderr, the prompt to stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		if err := applyFieldsFlag(cmd, &settings); err != nil {
			return err
		}

		_, doc, b, err := loadTarget(cmd, args)
		if err != nil {
			return err
		}
		defer b.Close()

		engine, err := povrewrite.New()
		if err != nil {
			return err
		}
		preview, err := engine.Preview(doc, settings)
		if err != nil {
			return err
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			return writeJSON(os.Stdout, preview)
		}

		fields := make([]string, 0, len(preview.Fields))
		for _, f := range preview.Fields {
			fields = append(fields, string(f))
		}
		fmt.Fprintf(os.Stderr, "Estimated tokens: %d\n", preview.EstimatedTokens)
		fmt.Fprintf(os.Stderr, "Max response tokens: %d\n", preview.MaxTokens)
		fmt.Fprintf(os.Stderr, "Fields: %s\n", strings.Join(fields, ", "))
		for _, w := range preview.Warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
		}
		fmt.Fprintln(os.Stdout, preview.Prompt)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(promptCmd)

	promptCmd.Flags().StringP("file", "f", "", "Read the character from a card file (JSON or YAML)")
	promptCmd.Flags().Bool("json", false, "Print the preview as JSON")
	addFieldsFlag(promptCmd)
}
