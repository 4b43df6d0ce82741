package tui

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/povrewrite/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePreview() *domain.Preview {
	return domain.NewPreview(
		&domain.Document{Name: "Anna", Description: "She is brave."},
		domain.PartialDocument{"description": "I am brave."},
	)
}

func TestConfirmer_Answers(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"maybe\n", false},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			c := &Confirmer{In: strings.NewReader(tt.input), Out: &out, Render: PlainRenderer}

			ok, err := c.Confirm(context.Background(), samplePreview())
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.Contains(t, out.String(), "I am brave.")
			assert.Contains(t, out.String(), "Apply these changes? [y/N]")
		})
	}
}

func TestConfirmer_EmptyPreviewDeclines(t *testing.T) {
	var out bytes.Buffer
	c := &Confirmer{In: strings.NewReader("y\n"), Out: &out}

	ok, err := c.Confirm(context.Background(), domain.NewPreview(nil, domain.PartialDocument{}))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, out.String(), "Nothing to apply")
}

func TestConfirmer_ContextCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := &Confirmer{In: pr, Out: io.Discard}
	_, err := c.Confirm(ctx, samplePreview())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStatus_KeepsMessage(t *testing.T) {
	for _, o := range []domain.Outcome{domain.Succeeded(), domain.Aborted(), domain.Failed(assert.AnError)} {
		assert.Contains(t, Status(o), o.Message)
	}
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	assert.Greater(t, strings.Count(buf.String(), "\n"), 4)
}
