package snapshot_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/funnel/pkg/adapters/memory"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

func newAdapter() (*snapshot.Adapter, *memory.Store) {
	store := memory.NewStore()
	return snapshot.NewAdapter(store, snapshot.WithClock(func() time.Time { return fixedNow })), store
}

func TestAdapter_RoundTrip(t *testing.T) {
	ctx := context.Background()
	adapter, _ := newAdapter()

	fields := map[string]any{
		"name":        "Asha",
		"coverageFor": []string{"self", "spouse"},
		"sumInsured":  2500000,
	}
	require.NoError(t, adapter.Save(ctx, "health", "recommendation.plans", fields))

	snap := adapter.Load(ctx, "health")
	require.NotNil(t, snap)
	assert.Equal(t, domain.SnapshotVersion, snap.Version)
	assert.Equal(t, "health", snap.Product)
	assert.Equal(t, "recommendation.plans", snap.CurrentStepID)
	assert.Equal(t, fixedNow, snap.SavedAt)

	// Exactly the saved fields, with JSON value types.
	assert.Len(t, snap.Fields, 3)
	assert.Equal(t, "Asha", snap.Fields["name"])
	assert.Equal(t, []any{"self", "spouse"}, snap.Fields["coverageFor"])
	n, ok := domain.AsInt(snap.Fields["sumInsured"])
	require.True(t, ok)
	assert.Equal(t, 2500000, n)

	// Last write wins.
	require.NoError(t, adapter.Save(ctx, "health", "payment.checkout", map[string]any{"name": "Asha"}))
	snap = adapter.Load(ctx, "health")
	require.NotNil(t, snap)
	assert.Equal(t, "payment.checkout", snap.CurrentStepID)
	assert.Len(t, snap.Fields, 1)
}

func TestAdapter_ClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	adapter, _ := newAdapter()

	require.NoError(t, adapter.Save(ctx, "motor", "vehicle.details", nil))
	require.NoError(t, adapter.Clear(ctx, "motor"))
	assert.Nil(t, adapter.Load(ctx, "motor"))
	require.NoError(t, adapter.Clear(ctx, "motor"))
	assert.Nil(t, adapter.Load(ctx, "motor"))
}

func TestAdapter_LoadDegradesToNil(t *testing.T) {
	ctx := context.Background()
	adapter, store := newAdapter()

	assert.Nil(t, adapter.Load(ctx, "health"), "missing slot")

	require.NoError(t, store.Set(ctx, snapshot.DefaultPrefix+"health", "{not json"))
	assert.Nil(t, adapter.Load(ctx, "health"), "corrupt slot")

	require.NoError(t, store.Set(ctx, snapshot.DefaultPrefix+"health", `{"version":99,"product":"health","current_step_id":"x"}`))
	assert.Nil(t, adapter.Load(ctx, "health"), "future version")

	require.NoError(t, store.Set(ctx, snapshot.DefaultPrefix+"health", `{"version":1,"product":"motor","current_step_id":"x"}`))
	assert.Nil(t, adapter.Load(ctx, "health"), "slot of another product")

	failing := snapshot.NewAdapter(failingStore{})
	assert.Nil(t, failing.Load(ctx, "health"), "backend failure")
	assert.Error(t, failing.Save(ctx, "health", "x", nil))
	assert.Error(t, failing.Clear(ctx, "health"))
}

func TestAdapter_OwnersAndProducts(t *testing.T) {
	ctx := context.Background()
	adapter, _ := newAdapter()

	require.NoError(t, adapter.Save(ctx, "health", "family.pincode", nil))
	require.NoError(t, adapter.For("user-1").Save(ctx, "motor", "vehicle.details", nil))
	require.NoError(t, adapter.For("user-1").Save(ctx, "life", "life.cover", nil))

	assert.Nil(t, adapter.For("user-2").Load(ctx, "health"))
	assert.NotNil(t, adapter.For("user-1").Load(ctx, "motor"))

	products, err := adapter.Products(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"health"}, products)

	products, err = adapter.For("user-1").Products(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"life", "motor"}, products)

	_, err = snapshot.NewAdapter(failingStore{}).Products(ctx)
	assert.Error(t, err)
}

type failingStore struct{}

var errBackend = errors.New("backend down")

func (failingStore) Get(context.Context, string) (string, error) { return "", errBackend }
func (failingStore) Set(context.Context, string, string) error   { return errBackend }
func (failingStore) Delete(context.Context, string) error        { return errBackend }
