package observability

import (
	"context"

	"github.com/aretw0/povrewrite/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the rewrite collectors.
type Metrics struct {
	Outcomes           *prometheus.CounterVec
	Strategies         *prometheus.CounterVec
	CompletionDuration *prometheus.HistogramVec
	PromptTokens       prometheus.Histogram
	FieldsRewritten    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "povrewrite_outcomes_total",
				Help: "Finished rewrites by outcome status",
			},
			[]string{"status"},
		),
		Strategies: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "povrewrite_normalize_total",
				Help: "Normalizer runs by the strategy that recovered the object",
			},
			[]string{"strategy"},
		),
		CompletionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "povrewrite_completion_duration_seconds",
				Help:    "Time spent waiting for the completion endpoint",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"result"},
		),
		PromptTokens: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "povrewrite_prompt_estimated_tokens",
				Help:    "Estimated prompt size in tokens",
				Buckets: prometheus.ExponentialBuckets(128, 2, 8),
			},
		),
		FieldsRewritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "povrewrite_fields_rewritten_total",
				Help: "Fields present in successful rewrites",
			},
			[]string{"field"},
		),
	}
	reg.MustRegister(m.Outcomes, m.Strategies, m.CompletionDuration, m.PromptTokens, m.FieldsRewritten)
	return m
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPromptBuilt: func(_ context.Context, e *domain.PromptEvent) {
			m.PromptTokens.Observe(float64(e.EstimatedTokens))
		},
		OnCompletionReturned: func(_ context.Context, e *domain.CompletionEvent) {
			result := "ok"
			switch {
			case e.Aborted:
				result = "aborted"
			case e.IsError:
				result = "error"
			}
			m.CompletionDuration.WithLabelValues(result).Observe(e.Duration.Seconds())
		},
		OnNormalized: func(_ context.Context, e *domain.NormalizeEvent) {
			strategy := e.Strategy
			if e.IsError {
				strategy = "failed"
			}
			m.Strategies.WithLabelValues(strategy).Inc()
		},
		OnFinished: func(_ context.Context, e *domain.FinishEvent) {
			m.Outcomes.WithLabelValues(string(e.Outcome.Status)).Inc()
			if e.Outcome.Status != domain.StatusSucceeded {
				return
			}
			for _, f := range e.Fields {
				m.FieldsRewritten.WithLabelValues(string(f)).Inc()
			}
		},
	}
}
