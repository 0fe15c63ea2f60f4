package observability

import (
	"context"
	"errors"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the funnel collectors.
type Metrics struct {
	StepEntries *prometheus.CounterVec
	StepSkips   *prometheus.CounterVec
	Responses   *prometheus.CounterVec
	Edits       *prometheus.CounterVec
	Truncated   *prometheus.HistogramVec
	Handoffs    *prometheus.CounterVec
	Errors      *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg skips registration.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		StepEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "funnel_step_entries_total",
			Help: "Total number of step entries.",
		}, []string{"product", "step_id", "persona"}),
		StepSkips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "funnel_step_skips_total",
			Help: "Total number of steps skipped by their condition.",
		}, []string{"product", "step_id"}),
		Responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "funnel_responses_total",
			Help: "Total number of processed widget responses.",
		}, []string{"product", "step_id"}),
		Edits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "funnel_edits_total",
			Help: "Total number of replayed edits.",
		}, []string{"product", "step_id"}),
		Truncated: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "funnel_edit_truncated_messages",
			Help:    "Messages discarded by an edit.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		}, []string{"product"}),
		Handoffs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "funnel_handoffs_total",
			Help: "Total number of journeys leaving through a handoff.",
		}, []string{"product", "handoff_id"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "funnel_errors_total",
			Help: "Total number of engine errors by kind.",
		}, []string{"product", "kind"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.StepEntries, m.StepSkips, m.Responses, m.Edits, m.Truncated, m.Handoffs, m.Errors} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks records every lifecycle event.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(_ context.Context, e *domain.StepEvent) {
			m.StepEntries.WithLabelValues(e.Product, e.StepID, string(e.Persona)).Inc()
		},
		OnStepSkip: func(_ context.Context, e *domain.StepEvent) {
			m.StepSkips.WithLabelValues(e.Product, e.StepID).Inc()
		},
		OnResponse: func(_ context.Context, e *domain.StepEvent) {
			m.Responses.WithLabelValues(e.Product, e.StepID).Inc()
		},
		OnEdit: func(_ context.Context, e *domain.EditEvent) {
			m.Edits.WithLabelValues(e.Product, e.StepID).Inc()
			m.Truncated.WithLabelValues(e.Product).Observe(float64(e.Truncated))
		},
		OnHandoff: func(_ context.Context, e *domain.HandoffEvent) {
			m.Handoffs.WithLabelValues(e.Product, e.HandoffID).Inc()
		},
		OnError: func(_ context.Context, e *domain.ErrorEvent) {
			m.Errors.WithLabelValues(e.Product, ErrorKind(e.Err)).Inc()
		},
	}
}

// ErrorKind buckets an engine error into a low-cardinality label.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrConfiguration):
		return "configuration"
	case errors.Is(err, domain.ErrReplayConflict):
		return "replay_conflict"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case err == nil:
		return "none"
	}
	return "dispatch"
}
