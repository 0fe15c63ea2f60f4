package runtime

import (
	"context"

	"github.com/aretw0/funnel/pkg/domain"
)

func (j *Journey) base(t domain.EventType) domain.EventBase {
	s := j.store.State()
	return domain.EventBase{
		Timestamp: j.engine.now(),
		Type:      t,
		JourneyID: s.JourneyID,
		Product:   s.Product,
	}
}

func (j *Journey) emitStep(ctx context.Context, hook *func(context.Context, *domain.StepEvent), t domain.EventType, step *domain.Step, p domain.Persona) {
	if *hook == nil {
		return
	}
	(*hook)(ctx, &domain.StepEvent{
		EventBase: j.base(t),
		StepID:    step.ID,
		Widget:    step.Widget,
		Persona:   p,
	})
}

func (j *Journey) emitResponse(ctx context.Context, step *domain.Step) {
	j.emitStep(ctx, &j.engine.hooks.OnResponse, domain.EventResponse, step, j.personas.Persona())
}

func (j *Journey) emitMessage(ctx context.Context, msg domain.ChatMessage) {
	if j.engine.hooks.OnMessage == nil {
		return
	}
	j.engine.hooks.OnMessage(ctx, &domain.MessageEvent{
		EventBase: j.base(domain.EventMessage),
		Message:   msg,
	})
}

func (j *Journey) emitEdit(ctx context.Context, stepID string, truncated int) {
	if j.engine.hooks.OnEdit == nil {
		return
	}
	j.engine.hooks.OnEdit(ctx, &domain.EditEvent{
		EventBase: j.base(domain.EventEdit),
		StepID:    stepID,
		Truncated: truncated,
	})
}

func (j *Journey) emitHandoff(ctx context.Context, from, handoff string) {
	if j.engine.hooks.OnHandoff == nil {
		return
	}
	j.engine.hooks.OnHandoff(ctx, &domain.HandoffEvent{
		EventBase:  j.base(domain.EventHandoff),
		FromStepID: from,
		HandoffID:  handoff,
	})
}

func (j *Journey) emitError(ctx context.Context, stepID string, err error) {
	if j.engine.hooks.OnError == nil {
		return
	}
	j.engine.hooks.OnError(ctx, &domain.ErrorEvent{
		EventBase: j.base(domain.EventError),
		StepID:    stepID,
		Err:       err,
	})
}
