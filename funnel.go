package funnel

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/internal/runtime"
	"github.com/aretw0/funnel/pkg/adapters/memory"
	"github.com/aretw0/funnel/pkg/display"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/persona"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/aretw0/funnel/pkg/products"
	"github.com/aretw0/funnel/pkg/products/common"
	"github.com/aretw0/funnel/pkg/registry"
	"github.com/aretw0/funnel/pkg/snapshot"
)

// Version is stamped at build time.
var Version = "dev"

// Funnel runs journeys of one product and owns its snapshot slot.
type Funnel struct {
	product   *common.Product
	engine    *runtime.Engine
	snapshots *snapshot.Adapter
	mapper    *display.Mapper
	logger    *slog.Logger

	newID      func() string
	dispatcher ports.WidgetDispatcher
}

// Option configures a Funnel.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	hooks      domain.LifecycleHooks
	store      ports.KeyValueStore
	owner      string
	delays     *runtime.Delays
	skipLimit  int
	newID      func() string
	dispatcher ports.WidgetDispatcher
}

// WithLogger sets the logger shared by the engine, the persona classifier
// and the snapshot adapter.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks. Repeated calls merge.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *options) {
		o.hooks = o.hooks.Merge(hooks)
	}
}

// WithStore sets the key-value store snapshots persist to. Defaults to memory.
func WithStore(store ports.KeyValueStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithOwner scopes snapshots to one user.
func WithOwner(owner string) Option {
	return func(o *options) {
		o.owner = owner
	}
}

// WithDelays overrides the typing and auto-advance delays.
func WithDelays(d runtime.Delays) Option {
	return func(o *options) {
		o.delays = &d
	}
}

// WithSkipLimit bounds consecutive skips within one entry.
func WithSkipLimit(n int) Option {
	return func(o *options) {
		o.skipLimit = n
	}
}

// WithIDGenerator sets how journey and message ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) {
		o.newID = fn
	}
}

// WithDispatcher surfaces every widget activation of every journey to d.
func WithDispatcher(d ports.WidgetDispatcher) Option {
	return func(o *options) {
		o.dispatcher = d
	}
}

// New loads the named product and prepares an engine for it.
func New(product string, opts ...Option) (*Funnel, error) {
	o := options{
		logger: logging.NewNop(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.store == nil {
		o.store = memory.NewStore()
	}

	p, err := products.Load(product, persona.WithLogger(o.logger))
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}

	engineOpts := []runtime.EngineOption{
		runtime.WithLogger(o.logger),
		runtime.WithLifecycleHooks(o.hooks),
		runtime.WithIDGenerator(o.newID),
	}
	if o.delays != nil {
		engineOpts = append(engineOpts, runtime.WithDelays(*o.delays))
	}
	if o.skipLimit > 0 {
		engineOpts = append(engineOpts, runtime.WithSkipLimit(o.skipLimit))
	}

	adapter := snapshot.NewAdapter(o.store, snapshot.WithLogger(o.logger)).For(o.owner)

	f := &Funnel{
		product:   p,
		engine:    runtime.NewEngine(p.Registry, p.Personas, engineOpts...),
		snapshots: adapter,
		mapper:    display.NewMapper(p.Display),
		logger:    o.logger,

		newID:      o.newID,
		dispatcher: o.dispatcher,
	}
	return f, nil
}

// Product returns the product definition.
func (f *Funnel) Product() *common.Product {
	return f.product
}

// Registry returns the product's step registry.
func (f *Funnel) Registry() *registry.Registry {
	return f.product.Registry
}

// Snapshots returns the owner-scoped snapshot adapter.
func (f *Funnel) Snapshots() *snapshot.Adapter {
	return f.snapshots
}

// StartOptions configures one journey.
type StartOptions struct {
	// JourneyID defaults to a generated id.
	JourneyID string
	// Resume rehydrates the saved snapshot, when one exists and parses.
	Resume bool
	// Dispatcher overrides the funnel-wide dispatcher for this journey.
	Dispatcher ports.WidgetDispatcher
}

// Start creates a journey and enters its first step. With Resume set, a valid
// snapshot re-enters the journey at the step its checkpoint maps to; a
// missing or corrupt snapshot starts fresh.
func (f *Funnel) Start(ctx context.Context, opts StartOptions) (*Journey, *ports.Prompt, error) {
	id := opts.JourneyID
	if id == "" {
		id = f.newID()
	}

	state := domain.NewState(id, f.product.Name, f.product.Registry.Entry())
	if opts.Resume {
		if snap := f.saved(ctx); snap != nil {
			state = f.product.Policy.Rehydrate(id, snap)
			f.logger.Info("journey resumed", "journey_id", id, "checkpoint", snap.CurrentStepID, "step_id", state.CurrentStepID)
		}
	}

	dispatcher := opts.Dispatcher
	if dispatcher == nil {
		dispatcher = f.dispatcher
	}
	var journeyOpts []runtime.JourneyOption
	if dispatcher != nil {
		journeyOpts = append(journeyOpts, runtime.WithDispatcher(dispatcher))
	}

	inner := f.engine.NewJourney(state, journeyOpts...)
	j := &Journey{
		Journey: inner,
		funnel:  f,
		stop:    snapshot.Observe(inner.Store(), f.snapshots, f.product.Policy),
	}

	prompt, err := j.Start(ctx)
	if err != nil {
		return j, nil, err
	}
	return j, prompt, nil
}

// ResumeCard maps the saved snapshot to its display card. It reports false
// when there is nothing to resume.
func (f *Funnel) ResumeCard(ctx context.Context) (display.Card, bool) {
	snap := f.saved(ctx)
	if snap == nil {
		return display.Card{}, false
	}
	return f.mapper.Map(f.product.Name, snap)
}

// saved loads the snapshot and drops it when its fields fail the policy shapes.
func (f *Funnel) saved(ctx context.Context) *domain.Snapshot {
	snap := f.snapshots.Load(ctx, f.product.Name)
	if snap == nil {
		return nil
	}
	if err := f.product.Policy.Check(snap); err != nil {
		f.logger.Warn("discarding snapshot", "product", f.product.Name, "checkpoint", snap.CurrentStepID, "err", err)
		return nil
	}
	return snap
}

// Discard clears the saved snapshot.
func (f *Funnel) Discard(ctx context.Context) error {
	return f.snapshots.Clear(ctx, f.product.Name)
}

// Journey is a live conversation that checkpoints as it goes.
type Journey struct {
	*runtime.Journey

	funnel *Funnel
	stop   func()
}

// Restart drops the saved snapshot and starts over from the entry step,
// keeping the journey id. A turn in flight is invalidated. A backend that
// fails to clear the slot does not block the restart.
func (j *Journey) Restart(ctx context.Context) (*ports.Prompt, error) {
	if err := j.funnel.Discard(ctx); err != nil {
		j.funnel.logger.Warn("snapshot discard failed, restarting anyway", "journey_id", j.ID(), "product", j.funnel.product.Name, "err", err)
	}
	j.Reset(nil)
	return j.Start(ctx)
}

// Close stops checkpointing and releases the journey.
func (j *Journey) Close() {
	j.stop()
	j.Journey.Close()
}
