package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/povrewrite/internal/logging"
	"github.com/aretw0/povrewrite/pkg/domain"
	"github.com/aretw0/povrewrite/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnPromptBuilt(ctx, &domain.PromptEvent{EstimatedTokens: 700})
	hooks.OnCompletionReturned(ctx, &domain.CompletionEvent{Duration: 2 * time.Second})
	hooks.OnCompletionReturned(ctx, &domain.CompletionEvent{Duration: time.Second, Aborted: true})
	hooks.OnNormalized(ctx, &domain.NormalizeEvent{Strategy: "fenced"})
	hooks.OnNormalized(ctx, &domain.NormalizeEvent{IsError: true})
	hooks.OnFinished(ctx, &domain.FinishEvent{
		Outcome: domain.Succeeded(),
		Fields:  []domain.Field{domain.FieldDescription, domain.FieldPersonality},
	})
	hooks.OnFinished(ctx, &domain.FinishEvent{Outcome: domain.Aborted()})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Outcomes.WithLabelValues("succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Outcomes.WithLabelValues("aborted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Strategies.WithLabelValues("fenced")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Strategies.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FieldsRewritten.WithLabelValues("description")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.FieldsRewritten.WithLabelValues("first_mes")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.CompletionDuration))
	assert.Equal(t, 1, testutil.CollectAndCount(m.PromptTokens))
}

func TestCombine(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{
		OnFinished: func(context.Context, *domain.FinishEvent) { calls = append(calls, "a") },
	}
	b := domain.LifecycleHooks{
		OnFinished:   func(context.Context, *domain.FinishEvent) { calls = append(calls, "b") },
		OnNormalized: func(context.Context, *domain.NormalizeEvent) { calls = append(calls, "b-norm") },
	}

	h := observability.Combine(a, domain.LifecycleHooks{}, b)
	h.OnFinished(context.Background(), &domain.FinishEvent{})
	h.OnNormalized(context.Background(), &domain.NormalizeEvent{})

	assert.Equal(t, []string{"a", "b", "b-norm"}, calls)
	assert.Nil(t, h.OnPromptBuilt)
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	hooks := observability.LogHooks(logging.NewWithWriter(&buf, slog.LevelDebug, logging.FormatText))

	hooks.OnFinished(context.Background(), &domain.FinishEvent{
		EventBase: domain.EventBase{OperationID: "op-9"},
		Outcome:   domain.Declined(),
	})

	assert.Contains(t, buf.String(), "operation_id=op-9")
	assert.Contains(t, buf.String(), "status=declined")
}
