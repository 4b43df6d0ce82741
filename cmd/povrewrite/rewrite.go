package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/povrewrite"
	"github.com/aretw0/povrewrite/internal/presentation/tui"
	"github.com/aretw0/povrewrite/pkg/cancel"
	"github.com/aretw0/povrewrite/pkg/domain"
	"github.com/aretw0/povrewrite/pkg/observability"
	"github.com/spf13/cobra"
)

var rewriteCmd = &cobra.Command{
	Use:   "rewrite [document-id]",
	Short: "Rewrite a character into first-person voice",
	Long: `Sends the character to the configured model and rewrites the selected
fields into first person.

With showPreview enabled and a terminal attached, the changes are shown and
committed only after confirmation. Without a terminal the rewrite is left
pending and printed as JSON, ready for 'povrewrite apply'.

Press Ctrl+C once to abort: the request still completes but its answer is
discarded. Press it again to stop waiting.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		if err := applyFieldsFlag(cmd, &settings); err != nil {
			return err
		}
		if yes, _ := cmd.Flags().GetBool("yes"); yes {
			settings.ShowPreview = false
		}

		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}

		id, doc, b, err := loadTarget(cmd, args)
		if err != nil {
			return err
		}
		defer b.Close()

		opts := []povrewrite.Option{
			povrewrite.WithLifecycleHooks(observability.LogHooks(logger)),
		}
		if settings.ShowPreview && tui.IsInteractive() {
			opts = append(opts, povrewrite.WithConfirmer(&tui.Confirmer{
				In:     os.Stdin,
				Out:    os.Stderr,
				Render: tui.NewRenderer(),
			}))
		}
		engine, err := newEngine(b, settings, logger, opts...)
		if err != nil {
			return err
		}

		ctx, stop := context.WithCancel(cmd.Context())
		defer stop()
		token := cancel.Started()
		go abortOnSignal(ctx, token, stop)

		user, _ := cmd.Flags().GetString("user")
		char, _ := cmd.Flags().GetString("char")

		if tui.IsInteractive() {
			tui.PrintBanner(os.Stderr)
		}
		fmt.Fprintf(os.Stderr, "Rewriting %s (%s)...\n", doc.Name, settings.Fields)

		res, err := engine.Rewrite(ctx, povrewrite.Request{
			DocumentID:    id,
			Document:      doc,
			Settings:      settings,
			CharacterName: char,
			UserName:      user,
			Token:         token,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, tui.Status(res.Outcome))

		switch res.Outcome.Status {
		case domain.StatusPending:
			if id != "" {
				fmt.Fprintf(os.Stderr, "Save the JSON below and commit it with: povrewrite apply %s --partial <file>\n", id)
			}
			return writeJSON(os.Stdout, res.Partial)
		case domain.StatusSucceeded:
			if id == "" {
				return writeOutput(cmd, res.Document)
			}
		}
		return nil
	},
}

// abortOnSignal aborts the token on the first interrupt and stops waiting on the second.
func abortOnSignal(ctx context.Context, token *cancel.Token, stop context.CancelFunc) {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case <-ctx.Done():
		return
	case <-sigs:
		if token.Abort() {
			fmt.Fprintln(os.Stderr, "\nAborting. The response will be discarded when it arrives. Press Ctrl+C again to stop waiting.")
		}
	}

	select {
	case <-ctx.Done():
	case <-sigs:
		stop()
	}
}

// writeOutput writes a rewritten card file to --out, or stdout.
func writeOutput(cmd *cobra.Command, doc *domain.Document) error {
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		return writeJSON(os.Stdout, doc)
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer f.Close()
	return writeJSON(f, doc)
}

func init() {
	rootCmd.AddCommand(rewriteCmd)

	rewriteCmd.Flags().StringP("file", "f", "", "Rewrite a card file instead of a stored document")
	rewriteCmd.Flags().StringP("out", "o", "", "Where to write the rewritten card file (with --file)")
	rewriteCmd.Flags().BoolP("yes", "y", false, "Commit without showing a preview")
	rewriteCmd.Flags().String("user", "", "User name to restore as {{user}}")
	rewriteCmd.Flags().String("char", "", "Character name to restore as {{char}} (defaults to the card name)")
	addFieldsFlag(rewriteCmd)
}
