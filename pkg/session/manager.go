package session

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/domain"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager keeps the live journeys of a process, keyed by journey id, and
// serializes work per journey. Locks are reference counted and garbage
// collected once unused.
type Manager[T any] struct {
	mu       sync.Mutex
	locks    map[string]*lockEntry
	journeys map[string]T

	logger *slog.Logger
}

// Option configures the Manager.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// NewManager creates an empty Manager.
func NewManager[T any](opts ...Option) *Manager[T] {
	o := options{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Manager[T]{
		locks:    make(map[string]*lockEntry),
		journeys: make(map[string]T),
		logger:   o.logger,
	}
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(id) after unlocking.
func (m *Manager[T]) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager[T]) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// WithLock executes fn while holding the lock for the journey.
func (m *Manager[T]) WithLock(ctx context.Context, id string, fn func(context.Context) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

// Get returns the journey registered under id.
func (m *Manager[T]) Get(id string) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.journeys[id]
	if !ok {
		var zero T
		return zero, domain.ErrJourneyNotFound
	}
	return j, nil
}

// LoadOrStart returns the journey under id, creating it with start when absent.
// Concurrent callers for the same id observe a single creation.
func (m *Manager[T]) LoadOrStart(ctx context.Context, id string, start func(context.Context) (T, error)) (T, error) {
	var out T
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		j, err := m.Get(id)
		if err == nil {
			out = j
			return nil
		}
		if !errors.Is(err, domain.ErrJourneyNotFound) {
			return err
		}

		j, err = start(ctx)
		if err != nil {
			return err
		}

		m.mu.Lock()
		m.journeys[id] = j
		m.mu.Unlock()

		m.logger.Debug("journey registered", "journey_id", id)
		out = j
		return nil
	})
	return out, err
}

// Delete forgets the journey. Unknown ids are ignored.
func (m *Manager[T]) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		m.mu.Lock()
		delete(m.journeys, id)
		m.mu.Unlock()
		m.logger.Debug("journey removed", "journey_id", id)
		return nil
	})
}

// List returns the registered journey ids, sorted.
func (m *Manager[T]) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.journeys))
	for id := range m.journeys {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
