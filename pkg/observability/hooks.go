package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/povrewrite/pkg/domain"
)

// LogHooks writes one log line per lifecycle event.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPromptBuilt: func(ctx context.Context, e *domain.PromptEvent) {
			logger.DebugContext(ctx, "prompt built",
				"operation_id", e.OperationID,
				"fields", len(e.Fields),
				"estimated_tokens", e.EstimatedTokens)
		},
		OnCompletionReturned: func(ctx context.Context, e *domain.CompletionEvent) {
			logger.InfoContext(ctx, "completion returned",
				"operation_id", e.OperationID,
				"duration", e.Duration,
				"aborted", e.Aborted,
				"is_error", e.IsError)
		},
		OnNormalized: func(ctx context.Context, e *domain.NormalizeEvent) {
			logger.DebugContext(ctx, "response normalized",
				"operation_id", e.OperationID,
				"strategy", e.Strategy,
				"is_error", e.IsError)
		},
		OnFinished: func(ctx context.Context, e *domain.FinishEvent) {
			logger.InfoContext(ctx, "rewrite finished",
				"operation_id", e.OperationID,
				"status", e.Outcome.Status,
				"message", e.Outcome.Message)
		},
	}
}

// Combine chains hooks so each event reaches every non-nil callback in order.
func Combine(all ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range all {
		out.OnPromptBuilt = chain(out.OnPromptBuilt, h.OnPromptBuilt)
		out.OnCompletionReturned = chain(out.OnCompletionReturned, h.OnCompletionReturned)
		out.OnNormalized = chain(out.OnNormalized, h.OnNormalized)
		out.OnFinished = chain(out.OnFinished, h.OnFinished)
	}
	return out
}

func chain[E any](a, b func(context.Context, *E)) func(context.Context, *E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *E) {
		a(ctx, e)
		b(ctx, e)
	}
}
