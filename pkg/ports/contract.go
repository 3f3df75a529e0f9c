package ports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunKVStoreContract runs a suite of tests to verify that a KVStore implementation
// adheres to the defined interface contract.
func RunKVStoreContract(t *testing.T, store KVStore) {
	ctx := context.Background()
	prefix := fmt.Sprintf("contract-%d:", time.Now().UnixNano())

	t.Run("Set and Get", func(t *testing.T) {
		key := prefix + "templateDrafts"
		value := []byte(`[{"id":"1","name":"Intake"}]`)

		require.NoError(t, store.Set(ctx, key, value), "Set should not return error")

		got, err := store.Get(ctx, key)
		require.NoError(t, err, "Get should not return error")
		assert.Equal(t, value, got)
	})

	t.Run("Overwrite", func(t *testing.T) {
		key := prefix + "overwrite"
		require.NoError(t, store.Set(ctx, key, []byte("one")))
		require.NoError(t, store.Set(ctx, key, []byte("two")))

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("two"), got)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, prefix+"missing")
		assert.ErrorIs(t, err, domain.ErrKeyNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		key := prefix + "delete-me"
		require.NoError(t, store.Set(ctx, key, []byte("x")))

		require.NoError(t, store.Delete(ctx, key), "Delete should not return error")

		_, err := store.Get(ctx, key)
		assert.ErrorIs(t, err, domain.ErrKeyNotFound, "Get after Delete should return ErrKeyNotFound")

		assert.NoError(t, store.Delete(ctx, key), "Deleting a missing key is not an error")
	})

	t.Run("Keys With Separators", func(t *testing.T) {
		key := prefix + "session:abc/def"
		require.NoError(t, store.Set(ctx, key, []byte("nested")))
		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("nested"), got)
		_ = store.Delete(ctx, key)
	})

	t.Run("List", func(t *testing.T) {
		listPrefix := prefix + "list:"
		k1 := listPrefix + "b"
		k2 := listPrefix + "a"
		require.NoError(t, store.Set(ctx, k1, []byte("1")))
		require.NoError(t, store.Set(ctx, k2, []byte("2")))
		require.NoError(t, store.Set(ctx, prefix+"other", []byte("3")))

		defer func() {
			_ = store.Delete(ctx, k1)
			_ = store.Delete(ctx, k2)
			_ = store.Delete(ctx, prefix+"other")
		}()

		keys, err := store.List(ctx, listPrefix)
		require.NoError(t, err)
		assert.Equal(t, []string{k2, k1}, keys)
	})

	t.Run("Stored Value Is Copied", func(t *testing.T) {
		key := prefix + "copy"
		value := []byte("original")
		require.NoError(t, store.Set(ctx, key, value))
		value[0] = 'X'

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("original"), got)
	})
}
