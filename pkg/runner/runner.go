package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/internal/runtime"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
)

// Conversation is the journey surface the runner drives.
type Conversation interface {
	Start(ctx context.Context) (*ports.Prompt, error)
	Respond(ctx context.Context, activation uint64, response any) (*ports.Prompt, error)
	State() *domain.State
}

// Editor is implemented by conversations that support editing past answers.
type Editor interface {
	RequestEdit(ctx context.Context, messageID string) (*runtime.EditRequest, error)
	ConfirmEdit(ctx context.Context) (*ports.Prompt, error)
	SubmitEdit(ctx context.Context, response any) (*ports.Prompt, error)
	CancelEdit()
}

// Restarter is implemented by conversations that can start over.
type Restarter interface {
	Restart(ctx context.Context) (*ports.Prompt, error)
}

// Runner drives a conversation through an IOHandler until it completes, the
// input ends or the context is canceled.
type Runner struct {
	Handler IOHandler
	Logger  *slog.Logger

	printed map[string]struct{}
}

// Option configures a Runner.
type Option func(*Runner)

// WithHandler sets the IO strategy. Defaults to a TextHandler on stdio.
func WithHandler(h IOHandler) Option {
	return func(r *Runner) {
		r.Handler = h
	}
}

// WithLogger sets the runner logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// NewRunner creates a Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{Logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(nil, nil)
	}
	return r
}

// Run starts conv and loops until a terminal state. End of input and a
// quit command return nil, leaving the journey suspended for a later resume.
func (r *Runner) Run(ctx context.Context, conv Conversation) error {
	r.printed = make(map[string]struct{})

	prompt, err := conv.Start(ctx)
	for {
		if ferr := r.flush(ctx, conv.State()); ferr != nil {
			return fmt.Errorf("output error: %w", ferr)
		}
		if err != nil {
			return err
		}

		st := conv.State()
		switch st.Status {
		case domain.StatusCompleted:
			r.Logger.Debug("journey completed", "journey_id", st.JourneyID, "handoff", st.HandoffID)
			return r.Handler.SystemOutput(ctx, "Journey complete: "+st.HandoffID)
		case domain.StatusHalted:
			return fmt.Errorf("journey halted: %s", st.LastError)
		}
		if prompt == nil {
			return fmt.Errorf("journey %s is suspended without a prompt", st.JourneyID)
		}

		answer, aerr := r.Handler.Ask(ctx, *prompt)
		if aerr != nil {
			if errors.Is(aerr, io.EOF) {
				return nil
			}
			return aerr
		}

		if cmd, ok := answer.(Command); ok {
			if cmd.Name == CommandQuit {
				return nil
			}
			prompt, err = r.command(ctx, conv, cmd, prompt)
			continue
		}
		prompt, err = conv.Respond(ctx, prompt.Activation, answer)
	}
}

// flush outputs the bot turns not shown yet.
func (r *Runner) flush(ctx context.Context, st *domain.State) error {
	var pending []domain.ChatMessage
	for _, m := range st.History {
		if m.Role != domain.RoleBot {
			continue
		}
		if _, ok := r.printed[m.ID]; ok {
			continue
		}
		r.printed[m.ID] = struct{}{}
		pending = append(pending, m)
	}
	if len(pending) == 0 {
		return nil
	}
	return r.Handler.Output(ctx, pending)
}

func (r *Runner) command(ctx context.Context, conv Conversation, cmd Command, current *ports.Prompt) (*ports.Prompt, error) {
	switch cmd.Name {
	case CommandEdit:
		editor, ok := conv.(Editor)
		if !ok {
			return current, r.Handler.SystemOutput(ctx, "Editing is not available here.")
		}
		return r.edit(ctx, conv, editor, cmd.Arg, current)
	case CommandRestart:
		restarter, ok := conv.(Restarter)
		if !ok {
			return current, r.Handler.SystemOutput(ctx, "Restarting is not available here.")
		}
		r.Logger.Info("journey restarted", "journey_id", conv.State().JourneyID)
		return restarter.Restart(ctx)
	}
	return current, r.Handler.SystemOutput(ctx, fmt.Sprintf("Unknown command %q. Try /edit, /restart or /quit.", cmd.Name))
}

// edit lists the editable answers when arg is empty, otherwise reopens the
// answer picked by its number or message id.
func (r *Runner) edit(ctx context.Context, conv Conversation, editor Editor, arg string, current *ports.Prompt) (*ports.Prompt, error) {
	answers := editable(conv.State())
	if len(answers) == 0 {
		return current, r.Handler.SystemOutput(ctx, "There is nothing to edit yet.")
	}
	if arg == "" {
		var b strings.Builder
		b.WriteString("Which answer do you want to change? Type /edit <number>.")
		for i, m := range answers {
			fmt.Fprintf(&b, "\n  %d) %s", i+1, m.Content)
		}
		return current, r.Handler.SystemOutput(ctx, b.String())
	}

	messageID := arg
	if i, err := strconv.Atoi(arg); err == nil && i >= 1 && i <= len(answers) {
		messageID = answers[i-1].ID
	}
	req, err := editor.RequestEdit(ctx, messageID)
	if err != nil {
		var conflict *domain.ReplayConflictError
		if errors.As(err, &conflict) {
			return current, r.Handler.SystemOutput(ctx, "That answer cannot be edited.")
		}
		return current, err
	}

	confirm, err := r.Handler.Ask(ctx, ports.Prompt{
		JourneyID: conv.State().JourneyID,
		StepID:    req.StepID,
		Widget:    domain.WidgetSingleChoice,
		Script: domain.Script{
			Messages: []string{req.Confirmation},
			Options:  []domain.Option{{ID: "yes", Label: "Yes, change it"}, {ID: "no", Label: "No, keep it"}},
		},
		Inline: true,
	})
	if err != nil {
		editor.CancelEdit()
		return current, err
	}
	if confirm != "yes" {
		editor.CancelEdit()
		return current, nil
	}

	inline, err := editor.ConfirmEdit(ctx)
	if err != nil {
		return current, err
	}
	answer, err := r.Handler.Ask(ctx, *inline)
	if err != nil {
		editor.CancelEdit()
		return current, err
	}
	if _, ok := answer.(Command); ok {
		editor.CancelEdit()
		return current, r.Handler.SystemOutput(ctx, "Edit canceled.")
	}
	r.Logger.Debug("submitting edit", "step_id", req.StepID)
	return editor.SubmitEdit(ctx, answer)
}

func editable(st *domain.State) []domain.ChatMessage {
	var out []domain.ChatMessage
	for _, m := range st.History {
		if m.Role == domain.RoleUser && m.Editable {
			out = append(out, m)
		}
	}
	return out
}
