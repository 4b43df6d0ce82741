package ports

import "context"

// Completer issues a single, non-retried completion call.
// The returned value is the raw response: a string, raw JSON bytes, or a decoded
// chat-completion envelope. Its shape is resolved by the normalizer.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (any, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, prompt string, maxTokens int) (any, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt string, maxTokens int) (any, error) {
	return f(ctx, prompt, maxTokens)
}
