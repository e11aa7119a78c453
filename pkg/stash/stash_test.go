package stash

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/opsdeck/pkg/entity"
)

// storeUnderTest runs the same contract tests against every backend.
func storeUnderTest(t *testing.T) map[string]Store {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  NewRedisStoreWithClient(client),
	}
}

func item(id string, ref entity.Ref, created time.Time) Item {
	return Item{
		ID:        id,
		Ref:       ref,
		Kind:      string(ref.Type) + "-item",
		Title:     "item " + id,
		CreatedAt: created,
	}
}

func TestStore_AddGetRemove(t *testing.T) {
	for name, store := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			ref := entity.Ref{Type: entity.TypeTask, ID: 7}
			it := item(NewID(), ref, time.Now().UTC().Truncate(time.Second))

			require.NoError(t, store.Add(ctx, it))

			got, err := store.Get(ctx, it.ID)
			require.NoError(t, err)
			assert.Equal(t, it.Ref, got.Ref)
			assert.Equal(t, it.Title, got.Title)

			require.NoError(t, store.Remove(ctx, it.ID))
			_, err = store.Get(ctx, it.ID)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_RemoveAbsentIsNoError(t *testing.T) {
	for name, store := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, store.Remove(context.Background(), "never-added"))
		})
	}
}

func TestStore_ListOldestFirst(t *testing.T) {
	for name, store := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Now().UTC().Truncate(time.Second)

			newest := item("c", entity.Ref{Type: entity.TypeProject, ID: 3}, base.Add(2*time.Minute))
			oldest := item("a", entity.Ref{Type: entity.TypeProject, ID: 1}, base)
			middle := item("b", entity.Ref{Type: entity.TypeProject, ID: 2}, base.Add(time.Minute))

			for _, it := range []Item{newest, oldest, middle} {
				require.NoError(t, store.Add(ctx, it))
			}

			items, err := store.List(ctx)
			require.NoError(t, err)
			require.Len(t, items, 3)
			assert.Equal(t, []string{"a", "b", "c"}, []string{items[0].ID, items[1].ID, items[2].ID})
		})
	}
}

func TestStore_Clear(t *testing.T) {
	for name, store := range storeUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := int64(1); i <= 3; i++ {
				it := item(NewID(), entity.Ref{Type: entity.TypeGoal, ID: i}, time.Now().UTC())
				require.NoError(t, store.Add(ctx, it))
			}

			require.NoError(t, store.Clear(ctx))

			items, err := store.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, items)
		})
	}
}

func TestRedisStore_RoundTripsPayload(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	store := NewRedisStoreWithClient(client)

	ctx := context.Background()
	it := Item{
		ID:       NewID(),
		Ref:      entity.Ref{Type: entity.TypeInventory, ID: 42},
		Kind:     "inventory-item",
		Title:    "M4 hex bolts",
		Subtitle: "qty 200",
		Payload:  map[string]string{"origin": "inventory-list"},
	}
	require.NoError(t, store.Add(ctx, it))

	got, err := store.Get(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, it.Payload, got.Payload)
	assert.Equal(t, "qty 200", got.Subtitle)
}
