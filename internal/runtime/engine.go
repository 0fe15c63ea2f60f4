package runtime

import (
	"log/slog"
	"time"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/persona"
	"github.com/aretw0/funnel/pkg/registry"
	"github.com/google/uuid"
)

// Delays simulate conversational latency. Zero values disable a wait.
type Delays struct {
	// TypingPerRune is added to TypingMin for every rune of a bot turn.
	TypingPerRune time.Duration
	TypingMin     time.Duration
	// TypingMax caps the typing delay. Zero means uncapped.
	TypingMax time.Duration
	// AutoAdvance is the pause after a step without widget.
	AutoAdvance time.Duration
	// Transition is the pause between a response and the next step.
	Transition time.Duration
}

// Typing returns the typing delay for a bot turn of text.
// It never decreases as text grows.
func (d Delays) Typing(text string) time.Duration {
	delay := d.TypingMin + d.TypingPerRune*time.Duration(len([]rune(text)))
	if d.TypingMax > 0 && delay > d.TypingMax {
		delay = d.TypingMax
	}
	return delay
}

// DefaultDelays are tuned for an interactive chat.
var DefaultDelays = Delays{
	TypingPerRune: 8 * time.Millisecond,
	TypingMin:     300 * time.Millisecond,
	TypingMax:     2 * time.Second,
	AutoAdvance:   600 * time.Millisecond,
	Transition:    250 * time.Millisecond,
}

// Engine holds what journeys of one product share: the registry, the persona
// rules, hooks and timing. It is safe for concurrent use.
type Engine struct {
	registry   *registry.Registry
	classifier *persona.Classifier
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	delays     Delays
	skipLimit  int
	newID      func() string
	now        func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithDelays overrides the conversational delays.
func WithDelays(d Delays) EngineOption {
	return func(e *Engine) {
		e.delays = d
	}
}

// WithSkipLimit caps consecutive silent skips.
func WithSkipLimit(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.skipLimit = n
		}
	}
}

// WithIDGenerator replaces the chat message id generator.
func WithIDGenerator(fn func() string) EngineOption {
	return func(e *Engine) {
		e.newID = fn
	}
}

// WithClock replaces the event timestamp source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an engine over a product registry and its persona rules.
func NewEngine(reg *registry.Registry, classifier *persona.Classifier, opts ...EngineOption) *Engine {
	e := &Engine{
		registry:   reg,
		classifier: classifier,
		logger:     logging.NewNop(),
		delays:     DefaultDelays,
		skipLimit:  domain.DefaultSkipLimit,
		newID:      uuid.NewString,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("product", reg.Product())
	return e
}

// Registry returns the product registry.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Classifier returns the persona rules.
func (e *Engine) Classifier() *persona.Classifier {
	return e.classifier
}
