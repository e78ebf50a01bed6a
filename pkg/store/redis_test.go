package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a test store client backed by miniredis
func setupTestStore(t *testing.T) (*Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := &Client{
		Redis: redis.NewClient(&redis.Options{Addr: mr.Addr()}),
	}

	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})

	return client, mr
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "users:u1:usage:MESSAGE", UsageKey("u1", "MESSAGE"))
	assert.Equal(t, "users:u1:analysis:latest", AnalysisKey("u1"))
	assert.Equal(t, "users:u1:memory", MemoryKey("u1"))
}

func TestGetSetJSON(t *testing.T) {
	client, _ := setupTestStore(t)
	ctx := context.Background()

	type doc struct {
		Name  string `json:"name"`
		Score int    `json:"score"`
	}

	// Missing document reads as absent, not as an error.
	var out doc
	found, err := client.GetJSON(ctx, "users:u1:analysis:latest", &out)
	require.NoError(t, err)
	assert.False(t, found)

	err = client.SetJSON(ctx, "users:u1:analysis:latest", doc{Name: "octocat", Score: 7}, 0)
	require.NoError(t, err)

	found, err = client.GetJSON(ctx, "users:u1:analysis:latest", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, doc{Name: "octocat", Score: 7}, out)
}

func TestPushCapped_EvictsOldest(t *testing.T) {
	client, _ := setupTestStore(t)
	ctx := context.Background()

	type item struct {
		Content string `json:"content"`
	}

	for i, content := range []string{"a", "b", "c", "d", "e"} {
		err := client.PushCapped(ctx, MemoryKey("u1"), item{Content: content}, 3)
		require.NoError(t, err, "push %d", i)
	}

	items, err := ListJSON[item](ctx, client, MemoryKey("u1"))
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "c", items[0].Content)
	assert.Equal(t, "e", items[2].Content)
}

func TestPushCapped_ZeroLimitWritesNothing(t *testing.T) {
	client, _ := setupTestStore(t)
	ctx := context.Background()

	err := client.PushCapped(ctx, MemoryKey("u1"), map[string]string{"content": "x"}, 0)
	require.NoError(t, err)

	items, err := ListJSON[map[string]string](ctx, client, MemoryKey("u1"))
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDeletePattern(t *testing.T) {
	client, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, client.SetJSON(ctx, "users:u1:usage:MESSAGE", 1, time.Hour))
	require.NoError(t, client.SetJSON(ctx, "users:u1:analysis:latest", 1, time.Hour))
	require.NoError(t, client.SetJSON(ctx, "users:u2:analysis:latest", 1, time.Hour))

	deleted, err := client.DeletePattern(ctx, "users:u1:*")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	var out int
	found, err := client.GetJSON(ctx, "users:u2:analysis:latest", &out)
	require.NoError(t, err)
	assert.True(t, found, "other users' documents survive a reset")
}
