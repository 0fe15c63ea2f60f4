package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
)

// JSONHandler implements IOHandler over JSON Lines, for hosts driving the
// funnel through a pipe.
type JSONHandler struct {
	Reader  *bufio.Reader
	Encoder *json.Encoder
}

// Event is one line written by the JSONHandler.
type Event struct {
	Type    string              `json:"type"`
	Message *domain.ChatMessage `json:"message,omitempty"`
	Prompt  *ports.Prompt       `json:"prompt,omitempty"`
	Text    string              `json:"text,omitempty"`
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Output(ctx context.Context, msgs []domain.ChatMessage) error {
	for i := range msgs {
		if err := h.Encoder.Encode(Event{Type: "message", Message: &msgs[i]}); err != nil {
			return err
		}
	}
	return nil
}

// Ask emits the prompt and reads one line. A JSON value is used as the
// response verbatim; an object with a "command" key is a Command; anything
// else is taken as a plain string.
func (h *JSONHandler) Ask(ctx context.Context, prompt ports.Prompt) (any, error) {
	if err := h.Encoder.Encode(Event{Type: "prompt", Prompt: &prompt}); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return nil, err
	}
	text = strings.TrimSpace(text)

	var cmd Command
	if json.Unmarshal([]byte(text), &cmd) == nil && cmd.Name != "" {
		return cmd, nil
	}
	var val any
	if err := json.Unmarshal([]byte(text), &val); err == nil {
		return val, nil
	}
	return SanitizeInput(text)
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.Encoder.Encode(Event{Type: "system", Text: msg})
}
