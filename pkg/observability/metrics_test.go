package observability_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func base(t domain.EventType) domain.EventBase {
	return domain.EventBase{Type: t, JourneyID: "j1", Product: "health"}
}

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnStepEnter(ctx, &domain.StepEvent{EventBase: base(domain.EventStepEnter), StepID: "family.age_ack", Persona: domain.PersonaYoungIndividual})
	hooks.OnStepEnter(ctx, &domain.StepEvent{EventBase: base(domain.EventStepEnter), StepID: "family.age_ack", Persona: domain.PersonaYoungIndividual})
	hooks.OnStepSkip(ctx, &domain.StepEvent{EventBase: base(domain.EventStepSkip), StepID: "health.condition_details"})
	hooks.OnEdit(ctx, &domain.EditEvent{EventBase: base(domain.EventEdit), StepID: "family.who_to_cover", Truncated: 5})
	hooks.OnHandoff(ctx, &domain.HandoffEvent{EventBase: base(domain.EventHandoff), HandoffID: "handoff.dashboard"})
	hooks.OnError(ctx, &domain.ErrorEvent{EventBase: base(domain.EventError), Err: fmt.Errorf("bad next: %w", domain.ErrConfiguration)})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StepEntries.WithLabelValues("health", "family.age_ack", "young_individual")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StepSkips.WithLabelValues("health", "health.condition_details")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Edits.WithLabelValues("health", "family.who_to_cover")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Handoffs.WithLabelValues("health", "handoff.dashboard")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Errors.WithLabelValues("health", "configuration")))

	expected := `
# HELP funnel_handoffs_total Total number of journeys leaving through a handoff.
# TYPE funnel_handoffs_total counter
funnel_handoffs_total{handoff_id="handoff.dashboard",product="health"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "funnel_handoffs_total"))
}

func TestNewMetrics_DoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	_, err = observability.NewMetrics(reg)
	assert.Error(t, err)

	_, err = observability.NewMetrics(nil)
	assert.NoError(t, err)
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "configuration", observability.ErrorKind(&domain.ConfigurationError{StepID: "x", Reason: "boom"}))
	assert.Equal(t, "replay_conflict", observability.ErrorKind(&domain.ReplayConflictError{MessageID: "m1"}))
	assert.Equal(t, "canceled", observability.ErrorKind(context.Canceled))
	assert.Equal(t, "dispatch", observability.ErrorKind(errors.New("socket closed")))
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	hooks := observability.LogHooks(logging.NewWithWriter(&buf, slog.LevelDebug, "text"))
	hooks.OnHandoff(context.Background(), &domain.HandoffEvent{EventBase: base(domain.EventHandoff), FromStepID: "payment.success", HandoffID: "handoff.dashboard"})
	hooks.OnError(context.Background(), &domain.ErrorEvent{EventBase: base(domain.EventError), StepID: "s", Err: errors.New("boom")})

	out := buf.String()
	assert.Contains(t, out, "handoff_id=handoff.dashboard")
	assert.Contains(t, out, "err=boom")
}
