package runtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/persona"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/aretw0/funnel/pkg/session"
)

// Journey runs one conversation over its own State Store.
//
// Turns are serialized: Start, Respond and the edit operations hold the turn
// lock until the next widget is surfaced (or the flow completes or halts).
// Reset is the exception: it invalidates the running turn first so pending
// timers stop before the state is replaced.
type Journey struct {
	engine     *Engine
	store      *session.Store
	personas   *persona.Resolver
	dispatcher ports.WidgetDispatcher

	turnMu sync.Mutex

	mu         sync.Mutex
	seen       map[string]struct{}
	advancing  string
	prompt     *ports.Prompt
	activation uint64
	epoch      uint64
	cancel     context.CancelFunc
	edit       *EditRequest
}

// JourneyOption configures a Journey.
type JourneyOption func(*Journey)

// WithDispatcher sets the widget dispatcher prompts are surfaced to.
func WithDispatcher(d ports.WidgetDispatcher) JourneyOption {
	return func(j *Journey) {
		j.dispatcher = d
	}
}

// NewJourney binds a journey to state. The state is not entered until Start.
func (e *Engine) NewJourney(state *domain.State, opts ...JourneyOption) *Journey {
	if state == nil {
		state = domain.NewState("", e.registry.Product(), e.registry.Entry())
	}
	store := session.NewStore(state)
	j := &Journey{
		engine:   e,
		store:    store,
		personas: persona.NewResolver(e.classifier, store),
		seen:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// ID returns the journey id.
func (j *Journey) ID() string {
	return j.store.State().JourneyID
}

// Store returns the journey's State Store, for subscribers.
func (j *Journey) Store() *session.Store {
	return j.store
}

// State returns a copy of the current state.
func (j *Journey) State() *domain.State {
	return j.store.State()
}

// Persona returns the current persona.
func (j *Journey) Persona() domain.Persona {
	return j.personas.Persona()
}

// Prompt returns the active widget activation, or nil.
func (j *Journey) Prompt() *ports.Prompt {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.prompt == nil {
		return nil
	}
	p := *j.prompt
	return &p
}

// Close releases the journey's subscriptions and cancels pending timers.
func (j *Journey) Close() {
	j.invalidate()
	j.personas.Close()
}

// Start enters the current step. Calling it again with an unchanged state is a
// no-op thanks to the entry fingerprint; the active prompt is returned.
func (j *Journey) Start(ctx context.Context) (*ports.Prompt, error) {
	ctx, epoch, done := j.beginTurn(ctx)
	defer done()

	if err := j.checkRunnable(); err != nil {
		return nil, err
	}
	return j.enter(ctx, epoch, j.store.State().CurrentStepID)
}

// Respond feeds the response for a widget activation. An activation of 0
// targets whatever prompt is active.
func (j *Journey) Respond(ctx context.Context, activation uint64, response any) (*ports.Prompt, error) {
	ctx, epoch, done := j.beginTurn(ctx)
	defer done()

	if err := j.checkRunnable(); err != nil {
		return nil, err
	}

	j.mu.Lock()
	prompt := j.prompt
	last := j.activation
	j.mu.Unlock()

	if prompt == nil {
		if activation != 0 && activation <= last {
			return nil, domain.ErrStalePrompt
		}
		return nil, domain.ErrNoActivePrompt
	}
	if activation != 0 && activation != prompt.Activation {
		return nil, domain.ErrStalePrompt
	}

	step, ok := j.engine.registry.Lookup(prompt.StepID)
	if !ok {
		return nil, j.halt(ctx, &domain.ConfigurationError{StepID: prompt.StepID, Reason: "active step is not registered"})
	}

	j.mu.Lock()
	j.prompt = nil
	j.mu.Unlock()

	next, err := j.answer(ctx, epoch, step, prompt.Script, response, false)
	if err != nil {
		return nil, err
	}
	return j.enter(ctx, epoch, next)
}

// answer records a response at step: user message, reducer merge, hidden
// widget, transition delay, next-step resolution.
func (j *Journey) answer(ctx context.Context, epoch uint64, step *domain.Step, script domain.Script, response any, edited bool) (string, error) {
	msg := domain.ChatMessage{
		ID:       j.engine.newID(),
		Role:     domain.RoleUser,
		Content:  ResponseLabel(script, response),
		StepID:   step.ID,
		Editable: true,
	}
	j.store.Update(func(s *domain.State) {
		s.History = append(s.History, msg)
	})
	j.emitMessage(ctx, msg)

	patch, err := guard(step.ID, "response processor", func() domain.Patch {
		if step.Process == nil {
			return nil
		}
		return step.Process(response, j.store.State())
	})
	if err != nil {
		return "", j.halt(ctx, err)
	}
	changed := j.store.Merge(patch)
	j.engine.logger.Debug("response merged", "journey_id", j.ID(), "step_id", step.ID, "fields", changed, "edited", edited)
	j.emitResponse(ctx, step)

	j.store.Update(func(s *domain.State) {
		s.ActiveWidget = ""
		s.Status = domain.StatusActive
	})

	if err := j.wait(ctx, epoch, j.engine.delays.Transition); err != nil {
		return "", err
	}

	next, err := guard(step.ID, "next-step resolver", func() string {
		return step.Next(response, j.store.State())
	})
	if err != nil {
		return "", j.halt(ctx, err)
	}
	if err := j.checkTarget(step, next); err != nil {
		return "", j.halt(ctx, err)
	}
	return next, nil
}

// Reset replaces the state and forgets fingerprints, the active prompt and any
// pending edit. A turn in flight is invalidated and returns ErrStaleTurn.
func (j *Journey) Reset(state *domain.State) {
	j.invalidate()

	j.turnMu.Lock()
	defer j.turnMu.Unlock()

	if state == nil {
		cur := j.store.State()
		state = domain.NewState(cur.JourneyID, cur.Product, j.engine.registry.Entry())
	}
	j.store.Replace(state)

	j.mu.Lock()
	clear(j.seen)
	j.advancing = ""
	j.prompt = nil
	j.edit = nil
	j.mu.Unlock()

	j.engine.logger.Debug("journey reset", "journey_id", state.JourneyID, "step_id", state.CurrentStepID)
}

func (j *Journey) invalidate() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.epoch++
	if j.cancel != nil {
		j.cancel()
		j.cancel = nil
	}
}

// beginTurn takes the turn lock and derives a context cancelled by Reset.
func (j *Journey) beginTurn(ctx context.Context) (context.Context, uint64, func()) {
	j.turnMu.Lock()

	turnCtx, cancel := context.WithCancel(ctx)
	j.mu.Lock()
	epoch := j.epoch
	j.cancel = cancel
	j.mu.Unlock()

	return turnCtx, epoch, func() {
		cancel()
		j.turnMu.Unlock()
	}
}

func (j *Journey) live(epoch uint64) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.epoch == epoch
}

func (j *Journey) checkRunnable() error {
	s := j.store.State()
	switch s.Status {
	case domain.StatusHalted:
		return fmt.Errorf("%w: %s", domain.ErrHalted, s.LastError)
	case domain.StatusCompleted:
		return fmt.Errorf("%w: handed off to %s", domain.ErrCompleted, s.HandoffID)
	}
	return nil
}

// checkTarget enforces the closed world: next must be registered (or a
// handoff) and declared by step.
func (j *Journey) checkTarget(step *domain.Step, next string) error {
	reg := j.engine.registry
	if !reg.Resolvable(next) {
		return &domain.ConfigurationError{StepID: step.ID, Reason: fmt.Sprintf("next step %q is not in the %s registry", next, reg.Product())}
	}
	if !reg.Allows(step, next) {
		return &domain.ConfigurationError{StepID: step.ID, Reason: fmt.Sprintf("next step %q is not a declared target", next)}
	}
	return nil
}

// halt stops all transitions and reports err to the host.
func (j *Journey) halt(ctx context.Context, err error) error {
	var stepID string
	j.store.Update(func(s *domain.State) {
		stepID = s.CurrentStepID
		s.Status = domain.StatusHalted
		s.LastError = err.Error()
		s.IsTyping = false
		s.ActiveWidget = ""
	})

	j.mu.Lock()
	j.prompt = nil
	j.edit = nil
	j.mu.Unlock()

	j.engine.logger.Error("journey halted", "journey_id", j.ID(), "step_id", stepID, "err", err)
	j.emitError(ctx, stepID, err)
	return err
}

func (j *Journey) complete(ctx context.Context, from, handoff string) {
	j.store.Update(func(s *domain.State) {
		s.Status = domain.StatusCompleted
		s.HandoffID = handoff
		s.IsTyping = false
		s.ActiveWidget = ""
	})
	j.engine.logger.Info("journey handed off", "journey_id", j.ID(), "from", from, "handoff", handoff)
	j.emitHandoff(ctx, from, handoff)
}
