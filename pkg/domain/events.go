package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStepEnter EventType = "step_enter"
	EventStepSkip  EventType = "step_skip"
	EventMessage   EventType = "message"
	EventResponse  EventType = "response"
	EventEdit      EventType = "edit"
	EventHandoff   EventType = "handoff"
	EventError     EventType = "error"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	JourneyID string    `json:"journey_id"`
	Product   string    `json:"product"`
}

// StepEvent represents entry into or a silent skip of a step.
type StepEvent struct {
	EventBase
	StepID  string     `json:"step_id"`
	Widget  WidgetType `json:"widget"`
	Persona Persona    `json:"persona,omitempty"`
}

// MessageEvent represents a message appended to the history.
type MessageEvent struct {
	EventBase
	Message ChatMessage `json:"message"`
}

// EditEvent represents a submitted edit of a past answer.
type EditEvent struct {
	EventBase
	StepID    string `json:"step_id"`
	Truncated int    `json:"truncated"`
}

// HandoffEvent represents the flow leaving the registry.
type HandoffEvent struct {
	EventBase
	FromStepID string `json:"from_step_id"`
	HandoffID  string `json:"handoff_id"`
}

// ErrorEvent represents an engine-level error reported to the host.
type ErrorEvent struct {
	EventBase
	StepID string `json:"step_id"`
	Err    error  `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnStepEnter func(context.Context, *StepEvent)
	OnStepSkip  func(context.Context, *StepEvent)
	OnMessage   func(context.Context, *MessageEvent)
	OnResponse  func(context.Context, *StepEvent)
	OnEdit      func(context.Context, *EditEvent)
	OnHandoff   func(context.Context, *HandoffEvent)
	OnError     func(context.Context, *ErrorEvent)
}

// Merge returns hooks that call h first and then other, for every callback.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStepEnter: chain(h.OnStepEnter, other.OnStepEnter),
		OnStepSkip:  chain(h.OnStepSkip, other.OnStepSkip),
		OnMessage:   chain(h.OnMessage, other.OnMessage),
		OnResponse:  chain(h.OnResponse, other.OnResponse),
		OnEdit:      chain(h.OnEdit, other.OnEdit),
		OnHandoff:   chain(h.OnHandoff, other.OnHandoff),
		OnError:     chain(h.OnError, other.OnError),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
