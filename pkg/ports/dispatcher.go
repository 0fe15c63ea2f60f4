package ports

import (
	"context"

	"github.com/aretw0/funnel/pkg/domain"
)

// Prompt is one widget activation surfaced by the engine.
type Prompt struct {
	// Activation increases with every surfaced widget of a journey.
	Activation uint64            `json:"activation"`
	JourneyID  string            `json:"journey_id"`
	StepID     string            `json:"step_id"`
	Widget     domain.WidgetType `json:"widget"`
	Script     domain.Script     `json:"script"`
	// Inline is true for a widget rendered in place to edit a past answer.
	Inline bool `json:"inline,omitempty"`
}

// WidgetDispatcher is notified when the engine surfaces a widget.
// The response travels back through the journey (Respond / SubmitEdit), never
// through the return value, so abandoning a widget simply leaves the journey suspended.
type WidgetDispatcher interface {
	Present(ctx context.Context, prompt Prompt) error
}

// DispatcherFunc adapts a function to WidgetDispatcher.
type DispatcherFunc func(ctx context.Context, prompt Prompt) error

// Present calls f.
func (f DispatcherFunc) Present(ctx context.Context, prompt Prompt) error {
	return f(ctx, prompt)
}
