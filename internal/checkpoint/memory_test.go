package checkpoint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PutGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, found, err := store.Get(ctx, "inv-1", "step-a")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Put(ctx, "inv-1", "step-a", []byte(`"value"`)))

	raw, found, err := store.Get(ctx, "inv-1", "step-a")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte(`"value"`), raw)
}

func TestMemoryStore_StepsAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, "inv-1", "step-a", []byte("1")))

	_, found, err := store.Get(ctx, "inv-1", "step-b")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = store.Get(ctx, "inv-2", "step-a")
	require.NoError(t, err)
	assert.False(t, found, "checkpoints must not leak across invocations")
}

func TestMemoryStore_ClearRemovesInvocation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, "inv-1", "step-a", []byte("1")))
	require.NoError(t, store.Put(ctx, "inv-2", "step-a", []byte("2")))
	require.NoError(t, store.Clear(ctx, "inv-1"))

	_, found, err := store.Get(ctx, "inv-1", "step-a")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = store.Get(ctx, "inv-2", "step-a")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	original := []byte("abc")
	require.NoError(t, store.Put(ctx, "inv-1", "step-a", original))
	original[0] = 'z'

	raw, found, err := store.Get(ctx, "inv-1", "step-a")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("abc"), raw)

	raw[0] = 'z'
	again, _, err := store.Get(ctx, "inv-1", "step-a")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}
