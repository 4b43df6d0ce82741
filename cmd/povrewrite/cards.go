package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cardsCmd = &cobra.Command{
	Use:   "cards",
	Short: "Manage the character library",
}

var cardsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored characters",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackends(cmd)
		if err != nil {
			return err
		}
		defer b.Close()

		ids, err := b.store.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(os.Stdout, id)
		}
		return nil
	},
}

var cardsShowCmd = &cobra.Command{
	Use:   "show <document-id>",
	Short: "Print a stored character as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackends(cmd)
		if err != nil {
			return err
		}
		defer b.Close()

		doc, err := b.store.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return writeJSON(os.Stdout, doc)
	},
}

var cardsImportCmd = &cobra.Command{
	Use:   "import <card-file>...",
	Short: "Import card files (JSON or YAML) into the store",
	Long:  `Imports each card under its file name without extension, or under --id when a single file is given.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("id")
		if id != "" && len(args) > 1 {
			return fmt.Errorf("--id needs exactly one card file")
		}

		b, err := openBackends(cmd)
		if err != nil {
			return err
		}
		defer b.Close()

		for _, path := range args {
			doc, err := readDocument(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			target := id
			if target == "" {
				target = idFromPath(path)
			}
			if err := b.store.Save(cmd.Context(), target, doc); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			fmt.Fprintf(os.Stderr, "Imported %s as %s\n", doc.Name, target)
		}
		return nil
	},
}

var cardsDeleteCmd = &cobra.Command{
	Use:   "delete <document-id>",
	Short: "Remove a stored character",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := openBackends(cmd)
		if err != nil {
			return err
		}
		defer b.Close()
		return b.store.Delete(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(cardsCmd)
	cardsCmd.AddCommand(cardsListCmd, cardsShowCmd, cardsImportCmd, cardsDeleteCmd)

	cardsImportCmd.Flags().String("id", "", "Store ID for a single imported card")
}
