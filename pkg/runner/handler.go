package runner

import (
	"context"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (terminal) and JSON (structured) modes.
type IOHandler interface {
	// Output presents bot turns.
	Output(ctx context.Context, msgs []domain.ChatMessage) error

	// Ask presents the widget of a prompt and reads one answer. The answer is
	// either a widget response or a Command.
	Ask(ctx context.Context, prompt ports.Prompt) (any, error)

	// SystemOutput presents a meta-message (status, errors, edit menus),
	// distinct from the conversation itself.
	SystemOutput(ctx context.Context, msg string) error
}

// Command is an out-of-band instruction typed instead of an answer.
type Command struct {
	Name string `json:"command"`
	Arg  string `json:"arg,omitempty"`
}

// Commands understood by the runner.
const (
	CommandEdit    = "edit"
	CommandRestart = "restart"
	CommandQuit    = "quit"
)

// ContentRenderer transforms a bot turn before it is printed.
// This allows for markdown rendering without coupling the core package.
type ContentRenderer func(string) (string, error)
