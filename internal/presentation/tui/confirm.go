package tui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/povrewrite/pkg/domain"
)

// Confirmer shows the rewrite preview and asks whether to apply it.
// It implements ports.Confirmer.
type Confirmer struct {
	In     io.Reader
	Out    io.Writer
	Render func(string) (string, error)
}

// Confirm renders the preview and reads a y/N answer. Anything but yes declines.
func (c *Confirmer) Confirm(ctx context.Context, preview *domain.Preview) (bool, error) {
	if preview.IsEmpty() {
		fmt.Fprintln(c.Out, "The model returned none of the selected fields. Nothing to apply.")
		return false, nil
	}

	render := c.Render
	if render == nil {
		render = PlainRenderer
	}
	out, err := render(preview.Markdown())
	if err != nil {
		return false, fmt.Errorf("failed to render preview: %w", err)
	}
	fmt.Fprint(c.Out, out)
	fmt.Fprint(c.Out, "\nApply these changes? [y/N] ")

	answers := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(c.In).ReadString('\n')
		answers <- line
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case line := <-answers:
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}
