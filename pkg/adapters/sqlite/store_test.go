package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/funnel/pkg/adapters/sqlite"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, path string) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_Contract(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "funnel.db"))
	ports.RunKeyValueStoreContract(t, store)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "funnel.db")

	first, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "snapshot:health", `{"version":1}`))
	require.NoError(t, first.Close())

	second := openStore(t, path)
	got, err := second.Get(ctx, "snapshot:health")
	require.NoError(t, err)
	assert.Equal(t, `{"version":1}`, got)

	require.NoError(t, second.Delete(ctx, "snapshot:health"))
	_, err = second.Get(ctx, "snapshot:health")
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)
}

func TestSQLiteStore_List(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, filepath.Join(t.TempDir(), "funnel.db"))

	require.NoError(t, store.Set(ctx, "a:2", "x"))
	require.NoError(t, store.Set(ctx, "a:1", "x"))
	require.NoError(t, store.Set(ctx, "b:1", "x"))

	keys, err := store.List(ctx, "a:")
	require.NoError(t, err)
	assert.Equal(t, []string{"a:1", "a:2"}, keys)
}

func TestSQLiteStore_RequiresPath(t *testing.T) {
	_, err := sqlite.Open("  ")
	assert.Error(t, err)
}
