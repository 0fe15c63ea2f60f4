package runtime

import (
	"context"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
)

// EditConfirmation is shown before an answer is reopened.
const EditConfirmation = "Changing this answer may change the questions and answers that follow it. Do you want to continue?"

// EditRequest is a pending revision of a past answer.
type EditRequest struct {
	MessageID    string `json:"message_id"`
	StepID       string `json:"step_id"`
	Confirmation string `json:"confirmation"`
	Confirmed    bool   `json:"confirmed"`
	// Prompt is the inline widget, set once the edit is confirmed.
	Prompt *ports.Prompt `json:"prompt,omitempty"`
}

// RequestEdit opens an edit on an editable user message. Nothing changes until
// the edit is confirmed and submitted.
func (j *Journey) RequestEdit(ctx context.Context, messageID string) (*EditRequest, error) {
	j.turnMu.Lock()
	defer j.turnMu.Unlock()

	if err := j.checkRunnable(); err != nil {
		return nil, err
	}

	step, err := j.editTarget(messageID)
	if err != nil {
		return nil, err
	}

	req := EditRequest{
		MessageID:    messageID,
		StepID:       step.ID,
		Confirmation: EditConfirmation,
	}
	j.mu.Lock()
	j.edit = &req
	j.mu.Unlock()

	j.engine.logger.Debug("edit requested", "journey_id", j.ID(), "step_id", step.ID, "message_id", messageID)
	out := req
	return &out, nil
}

// ConfirmEdit renders the edited step's widget inline, from the current state,
// without touching the active prompt.
func (j *Journey) ConfirmEdit(ctx context.Context) (*ports.Prompt, error) {
	j.turnMu.Lock()
	defer j.turnMu.Unlock()

	if err := j.checkRunnable(); err != nil {
		return nil, err
	}

	j.mu.Lock()
	edit := j.edit
	j.mu.Unlock()
	if edit == nil {
		return nil, domain.ErrNoPendingEdit
	}

	step, err := j.editTarget(edit.MessageID)
	if err != nil {
		j.CancelEdit()
		return nil, err
	}

	p := j.personas.Persona()
	script, err := guard(step.ID, "script generator", func() domain.Script {
		return step.Script(p, j.store.State())
	})
	if err != nil {
		return nil, j.halt(ctx, err)
	}

	prompt := j.activate(ctx, step, script, true)

	j.mu.Lock()
	if j.edit != nil {
		j.edit.Confirmed = true
		j.edit.Prompt = prompt
	}
	j.mu.Unlock()
	return prompt, nil
}

// SubmitEdit replays the conversation from the edited step: the history is
// truncated right before the edited answer, the new answer is recorded and
// reduced, fingerprints are forgotten and the flow continues from the step's
// next id.
func (j *Journey) SubmitEdit(ctx context.Context, response any) (*ports.Prompt, error) {
	ctx, epoch, done := j.beginTurn(ctx)
	defer done()

	if err := j.checkRunnable(); err != nil {
		return nil, err
	}

	j.mu.Lock()
	edit := j.edit
	j.mu.Unlock()
	if edit == nil || !edit.Confirmed {
		return nil, domain.ErrNoPendingEdit
	}

	step, err := j.editTarget(edit.MessageID)
	if err != nil {
		j.CancelEdit()
		return nil, err
	}

	truncated := 0
	j.store.Update(func(s *domain.State) {
		idx := domain.IndexOfMessage(s.History, edit.MessageID)
		truncated = len(s.History) - idx
		s.History = s.History[:idx:idx]
		s.IsTyping = false
		s.ActiveWidget = ""
		s.Status = domain.StatusActive
	})

	j.mu.Lock()
	clear(j.seen)
	j.advancing = ""
	j.prompt = nil
	j.edit = nil
	j.mu.Unlock()

	j.engine.logger.Info("answer edited", "journey_id", j.ID(), "step_id", step.ID, "truncated", truncated)
	j.emitEdit(ctx, step.ID, truncated)

	next, err := j.answer(ctx, epoch, step, edit.Prompt.Script, response, true)
	if err != nil {
		return nil, err
	}
	return j.enter(ctx, epoch, next)
}

// CancelEdit drops a pending edit. It is a no-op without one.
func (j *Journey) CancelEdit() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.edit = nil
}

// PendingEdit returns the pending edit, or nil.
func (j *Journey) PendingEdit() *EditRequest {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.edit == nil {
		return nil
	}
	req := *j.edit
	return &req
}

// editTarget resolves the step of an editable answer still in the history.
func (j *Journey) editTarget(messageID string) (*domain.Step, error) {
	history := j.store.State().History
	idx := domain.IndexOfMessage(history, messageID)
	if idx < 0 {
		return nil, &domain.ReplayConflictError{MessageID: messageID, Reason: "message is no longer in the history"}
	}

	msg := history[idx]
	if msg.Role != domain.RoleUser || !msg.Editable {
		return nil, &domain.ReplayConflictError{MessageID: messageID, StepID: msg.StepID, Reason: "message is not an editable answer"}
	}

	step, ok := j.engine.registry.Lookup(msg.StepID)
	if !ok || step.Widget == domain.WidgetNone {
		return nil, &domain.ReplayConflictError{MessageID: messageID, StepID: msg.StepID, Reason: "step cannot be answered again"}
	}
	return step, nil
}
