package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunKeyValueStoreContract runs a suite of tests to verify that a KeyValueStore
// implementation adheres to the defined interface contract.
func RunKeyValueStoreContract(t *testing.T, store KeyValueStore) {
	ctx := context.Background()
	key := "contract-test-" + time.Now().Format("20060102150405.000000000")

	t.Run("Set and Get", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, key, `{"current_step_id":"family.pincode"}`))

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, `{"current_step_id":"family.pincode"}`, got)
	})

	t.Run("Set Overwrites", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, key, "first"))
		require.NoError(t, store.Set(ctx, key, "second"))

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "second", got, "last write must win")
	})

	t.Run("Get Missing", func(t *testing.T) {
		_, err := store.Get(ctx, "missing-"+key)
		assert.ErrorIs(t, err, domain.ErrKeyNotFound)
	})

	t.Run("Delete Is Idempotent", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, key, "value"))
		require.NoError(t, store.Delete(ctx, key))
		require.NoError(t, store.Delete(ctx, key), "second delete must be a no-op")

		_, err := store.Get(ctx, key)
		assert.ErrorIs(t, err, domain.ErrKeyNotFound)
	})

	t.Run("Keys Are Isolated", func(t *testing.T) {
		a, b := key+":health", key+":motor"
		require.NoError(t, store.Set(ctx, a, "h"))
		require.NoError(t, store.Set(ctx, b, "m"))
		defer func() {
			_ = store.Delete(ctx, a)
			_ = store.Delete(ctx, b)
		}()

		require.NoError(t, store.Delete(ctx, a))
		got, err := store.Get(ctx, b)
		require.NoError(t, err)
		assert.Equal(t, "m", got)
	})
}
