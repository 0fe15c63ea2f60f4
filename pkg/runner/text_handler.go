package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
)

// TextHandler implements the interactive terminal interface.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer
	// BotName prefixes bot turns.
	BotName string

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithBotName sets the speaker shown before bot turns.
func WithBotName(name string) TextHandlerOption {
	return func(h *TextHandler) {
		h.BotName = name
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader:  bufio.NewReader(r),
		Writer:  w,
		BotName: "Maya",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

// pump reads lines in the background so that Ask can honor cancellation.
func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				h.inputChan <- inputResult{err: err}
			}
			close(h.inputChan)
			return
		}
	}
}

func (h *TextHandler) Output(ctx context.Context, msgs []domain.ChatMessage) error {
	for _, m := range msgs {
		text := m.Content
		if h.Renderer != nil {
			if rendered, err := h.Renderer(text); err == nil {
				text = strings.TrimSpace(rendered)
			}
		}
		if _, err := fmt.Fprintf(h.Writer, "%s: %s\n", h.BotName, text); err != nil {
			return err
		}
	}
	return nil
}

func (h *TextHandler) Ask(ctx context.Context, prompt ports.Prompt) (any, error) {
	if prompt.Inline {
		fmt.Fprintln(h.Writer, prompt.Script.Text())
	}
	for i, o := range prompt.Script.Options {
		fmt.Fprintf(h.Writer, "  %d) %s\n", i+1, o.Label)
	}
	if c, ok := Capabilities[prompt.Widget]; ok {
		if hint := c.Hint(prompt); hint != "" {
			fmt.Fprintf(h.Writer, "  (%s)\n", hint)
		}
	}

	for {
		line, err := h.readLine(ctx)
		if err != nil {
			return nil, err
		}
		if name, arg, ok := parseCommand(line); ok {
			return Command{Name: name, Arg: arg}, nil
		}
		resp, err := ParseResponse(prompt, line)
		var verr *ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintf(h.Writer, "Error: %s. Please try again.\n", verr.Reason)
			continue
		}
		return resp, err
	}
}

func (h *TextHandler) readLine(ctx context.Context) (string, error) {
	h.initPump()
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			fmt.Fprint(h.Writer, "> ")
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			clean, err := SanitizeInput(res.text)
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			return clean, nil
		}
	}
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	_, err := fmt.Fprintf(h.Writer, "[System] %s\n", msg)
	return err
}

// parseCommand recognizes "/name arg".
func parseCommand(line string) (name, arg string, ok bool) {
	if !strings.HasPrefix(line, "/") {
		return "", "", false
	}
	name, arg, _ = strings.Cut(strings.TrimPrefix(line, "/"), " ")
	return strings.ToLower(name), strings.TrimSpace(arg), name != ""
}
