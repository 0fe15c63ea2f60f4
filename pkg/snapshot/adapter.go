package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
)

// DefaultPrefix namespaces snapshot slots in the key-value store.
const DefaultPrefix = "funnel:snapshot:"

// Adapter reads and writes the per-product snapshot slot.
// Load never fails: missing, corrupt or unreadable slots are reported as nil.
type Adapter struct {
	store  ports.KeyValueStore
	prefix string
	owner  string
	now    func() time.Time
	logger *slog.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(a *Adapter) {
		a.prefix = prefix
	}
}

// WithClock sets the SavedAt source.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) {
		a.now = now
	}
}

// WithLogger sets the logger used to report degraded persistence.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// NewAdapter creates an Adapter over store.
func NewAdapter(store ports.KeyValueStore, opts ...Option) *Adapter {
	a := &Adapter{
		store:  store,
		prefix: DefaultPrefix,
		now:    time.Now,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// For returns an Adapter whose slots belong to owner (a user or device id).
func (a *Adapter) For(owner string) *Adapter {
	next := *a
	next.owner = owner
	return &next
}

func (a *Adapter) key(product string) string {
	if a.owner == "" {
		return a.prefix + product
	}
	return a.prefix + a.owner + ":" + product
}

// Save overwrites the slot of product with fields saved at stepID.
func (a *Adapter) Save(ctx context.Context, product, stepID string, fields map[string]any) error {
	snap := domain.Snapshot{
		Version:       domain.SnapshotVersion,
		Product:       product,
		CurrentStepID: stepID,
		SavedAt:       a.now().UTC(),
		Fields:        maps.Clone(fields),
	}
	if snap.Fields == nil {
		snap.Fields = map[string]any{}
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal %s snapshot: %w", product, err)
	}
	if err := a.store.Set(ctx, a.key(product), string(data)); err != nil {
		a.logger.Warn("snapshot save failed", "product", product, "step_id", stepID, "err", err)
		return fmt.Errorf("failed to save %s snapshot: %w", product, err)
	}
	a.logger.Debug("snapshot saved", "product", product, "step_id", stepID)
	return nil
}

// Load returns the snapshot of product, or nil when there is none or it
// cannot be read.
func (a *Adapter) Load(ctx context.Context, product string) *domain.Snapshot {
	raw, err := a.store.Get(ctx, a.key(product))
	if err != nil {
		if !errors.Is(err, domain.ErrKeyNotFound) {
			a.logger.Warn("snapshot load failed", "product", product, "err", err)
		}
		return nil
	}

	var snap domain.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		a.logger.Warn("discarding corrupt snapshot", "product", product, "err", err)
		return nil
	}
	if snap.Version != domain.SnapshotVersion || snap.Product != product || snap.CurrentStepID == "" {
		a.logger.Warn("discarding incompatible snapshot", "product", product, "version", snap.Version, "slot_product", snap.Product)
		return nil
	}
	if snap.Fields == nil {
		snap.Fields = map[string]any{}
	}
	return &snap
}

// Clear deletes the slot of product. Clearing an empty slot is a no-op.
func (a *Adapter) Clear(ctx context.Context, product string) error {
	if err := a.store.Delete(ctx, a.key(product)); err != nil {
		a.logger.Warn("snapshot clear failed", "product", product, "err", err)
		return fmt.Errorf("failed to clear %s snapshot: %w", product, err)
	}
	a.logger.Debug("snapshot cleared", "product", product)
	return nil
}

// Products lists the products with a slot for this owner. The store must
// implement ports.Lister.
func (a *Adapter) Products(ctx context.Context) ([]string, error) {
	lister, ok := a.store.(ports.Lister)
	if !ok {
		return nil, fmt.Errorf("snapshot store %T cannot list keys", a.store)
	}

	prefix := a.key("")
	keys, err := lister.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	products := make([]string, 0, len(keys))
	for _, k := range keys {
		p := strings.TrimPrefix(k, prefix)
		if p == "" || (a.owner == "" && strings.Contains(p, ":")) {
			continue
		}
		products = append(products, p)
	}
	return products, nil
}
