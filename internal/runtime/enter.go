package runtime

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
)

// enter runs the entry algorithm from id until a widget is surfaced, the flow
// hands off, the entry is a duplicate, or a configuration error halts it.
func (j *Journey) enter(ctx context.Context, epoch uint64, id string) (*ports.Prompt, error) {
	reg := j.engine.registry
	from := j.store.State().CurrentStepID

	for {
		if reg.IsHandoff(id) {
			j.complete(ctx, from, id)
			return nil, nil
		}

		step, ok := reg.Lookup(id)
		if !ok {
			return nil, j.halt(ctx, &domain.ConfigurationError{StepID: id, Reason: "unknown step"})
		}

		step, handoff, err := j.skip(ctx, step)
		if err != nil {
			return nil, j.halt(ctx, err)
		}
		if handoff != "" {
			j.complete(ctx, j.store.State().CurrentStepID, handoff)
			return nil, nil
		}

		state := j.store.State()
		fp := fingerprint(step, state)
		j.mu.Lock()
		_, dup := j.seen[fp]
		resumeAdvance := dup && j.advancing == fp
		j.seen[fp] = struct{}{}
		j.mu.Unlock()
		if resumeAdvance {
			// The bot turn was said before an interrupted auto-advance.
			next, err := j.advance(ctx, epoch, step, fp)
			if err != nil {
				return nil, err
			}
			from, id = step.ID, next
			continue
		}
		if dup {
			j.engine.logger.Debug("duplicate step entry ignored", "journey_id", state.JourneyID, "step_id", step.ID)
			return j.Prompt(), nil
		}

		j.store.Update(func(s *domain.State) {
			s.CurrentStepID = step.ID
			s.CurrentModule = step.Module()
			s.Status = domain.StatusActive
		})

		p := j.personas.Persona()
		script, err := guard(step.ID, "script generator", func() domain.Script {
			return step.Script(p, j.store.State())
		})
		if err != nil {
			return nil, j.halt(ctx, err)
		}
		j.emitStep(ctx, &j.engine.hooks.OnStepEnter, domain.EventStepEnter, step, p)

		if err := j.say(ctx, epoch, step, script); err != nil {
			if !errors.Is(err, domain.ErrStaleTurn) {
				j.interrupted(fp)
			}
			return nil, err
		}

		if step.Widget == domain.WidgetNone {
			next, err := j.advance(ctx, epoch, step, fp)
			if err != nil {
				return nil, err
			}
			from, id = step.ID, next
			continue
		}

		return j.activate(ctx, step, script, false), nil
	}
}

// advance waits out the auto-advance delay of a widgetless step and resolves
// its successor. An interrupted wait leaves fp marked so the next entry
// continues from here without repeating the bot turn.
func (j *Journey) advance(ctx context.Context, epoch uint64, step *domain.Step, fp string) (string, error) {
	j.mu.Lock()
	j.advancing = fp
	j.mu.Unlock()
	if err := j.wait(ctx, epoch, j.engine.delays.AutoAdvance); err != nil {
		return "", err
	}
	j.mu.Lock()
	j.advancing = ""
	j.mu.Unlock()

	next, err := guard(step.ID, "next-step resolver", func() string {
		return step.Next(nil, j.store.State())
	})
	if err == nil {
		err = j.checkTarget(step, next)
	}
	if err != nil {
		return "", j.halt(ctx, err)
	}
	return next, nil
}

// interrupted undoes an entry whose bot turn was cut short by the caller's
// context, so the next Start enters the step again.
func (j *Journey) interrupted(fp string) {
	j.mu.Lock()
	delete(j.seen, fp)
	j.mu.Unlock()
	j.store.Update(func(s *domain.State) { s.IsTyping = false })
}

// skip follows false conditions silently, bounded by the skip limit. It
// returns the first applicable step, or the handoff the chain ended in.
func (j *Journey) skip(ctx context.Context, step *domain.Step) (*domain.Step, string, error) {
	reg := j.engine.registry
	for skips := 0; ; skips++ {
		if step.Condition == nil {
			return step, "", nil
		}
		applies, err := guard(step.ID, "condition", func() bool {
			return step.Condition(j.store.State())
		})
		if err != nil {
			return nil, "", err
		}
		if applies {
			return step, "", nil
		}
		if skips >= j.engine.skipLimit {
			return nil, "", &domain.ConfigurationError{
				StepID: step.ID,
				Reason: fmt.Sprintf("skip chain exceeds %d steps", j.engine.skipLimit),
			}
		}

		next, err := guard(step.ID, "next-step resolver", func() string {
			return step.Next(nil, j.store.State())
		})
		if err != nil {
			return nil, "", err
		}
		if err := j.checkTarget(step, next); err != nil {
			return nil, "", err
		}

		j.engine.logger.Debug("step skipped", "journey_id", j.ID(), "step_id", step.ID, "next", next)
		j.emitStep(ctx, &j.engine.hooks.OnStepSkip, domain.EventStepSkip, step, "")
		j.store.Update(func(s *domain.State) {
			s.CurrentStepID = next
			s.CurrentModule = domain.ModuleOf(next)
		})

		if reg.IsHandoff(next) {
			return nil, next, nil
		}
		step, _ = reg.Lookup(next)
	}
}

// say emits the bot turn: typing flag held for a length-dependent delay, then
// the message is appended. Empty scripts produce no message.
func (j *Journey) say(ctx context.Context, epoch uint64, step *domain.Step, script domain.Script) error {
	text := script.Text()
	if text == "" {
		return nil
	}

	j.store.Update(func(s *domain.State) { s.IsTyping = true })
	if err := j.wait(ctx, epoch, j.engine.delays.Typing(text)); err != nil {
		return err
	}

	msg := domain.ChatMessage{
		ID:      j.engine.newID(),
		Role:    domain.RoleBot,
		Content: text,
		StepID:  step.ID,
	}
	j.store.Update(func(s *domain.State) {
		s.History = append(s.History, msg)
		s.IsTyping = false
	})
	j.emitMessage(ctx, msg)
	return nil
}

// activate surfaces a widget. Inline activations (edits) do not replace the
// active prompt of the conversation.
func (j *Journey) activate(ctx context.Context, step *domain.Step, script domain.Script, inline bool) *ports.Prompt {
	j.mu.Lock()
	j.activation++
	prompt := &ports.Prompt{
		Activation: j.activation,
		JourneyID:  j.store.State().JourneyID,
		StepID:     step.ID,
		Widget:     step.Widget,
		Script:     script,
		Inline:     inline,
	}
	if !inline {
		j.prompt = prompt
	}
	j.mu.Unlock()

	if !inline {
		j.store.Update(func(s *domain.State) {
			s.Status = domain.StatusAwaitingInput
			s.ActiveWidget = step.Widget
		})
	}

	if j.dispatcher != nil {
		if err := j.dispatcher.Present(ctx, *prompt); err != nil {
			// The journey stays suspended; the host may re-present Prompt().
			j.engine.logger.Warn("widget dispatch failed", "journey_id", prompt.JourneyID, "step_id", step.ID, "err", err)
			j.emitError(ctx, step.ID, err)
		}
	}

	out := *prompt
	return &out
}

// fingerprint identifies an entry context: the step, the values of its
// watched fields and the number of answered turns.
func fingerprint(step *domain.Step, state *domain.State) string {
	watched := make(map[string]any, len(step.Watch))
	for _, k := range step.Watch {
		watched[k] = state.Get(k)
	}
	// Map keys are marshaled sorted, so the encoding is stable.
	data, err := json.Marshal(watched)
	if err != nil {
		data = []byte(fmt.Sprintf("%v", watched))
	}

	h := sha256.New()
	h.Write([]byte(step.ID))
	h.Write([]byte{0})
	h.Write(data)
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(state.AnsweredTurns())))
	return hex.EncodeToString(h.Sum(nil))
}
