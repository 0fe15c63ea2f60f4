package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/funnel/pkg/domain"
)

// LogHooks writes one structured line per lifecycle event.
// Message content is not logged; it may carry personal data.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step_enter", "journey_id", e.JourneyID, "product", e.Product, "step_id", e.StepID, "widget", e.Widget, "persona", e.Persona)
		},
		OnStepSkip: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step_skip", "journey_id", e.JourneyID, "step_id", e.StepID)
		},
		OnResponse: func(ctx context.Context, e *domain.StepEvent) {
			logger.InfoContext(ctx, "response", "journey_id", e.JourneyID, "product", e.Product, "step_id", e.StepID)
		},
		OnEdit: func(ctx context.Context, e *domain.EditEvent) {
			logger.InfoContext(ctx, "edit", "journey_id", e.JourneyID, "step_id", e.StepID, "truncated", e.Truncated)
		},
		OnHandoff: func(ctx context.Context, e *domain.HandoffEvent) {
			logger.InfoContext(ctx, "handoff", "journey_id", e.JourneyID, "product", e.Product, "from", e.FromStepID, "handoff_id", e.HandoffID)
		},
		OnError: func(ctx context.Context, e *domain.ErrorEvent) {
			logger.ErrorContext(ctx, "journey error", "journey_id", e.JourneyID, "step_id", e.StepID, "err", e.Err)
		},
	}
}
