package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Champion2005/amicooked-sub000/pkg/logger"
	"github.com/Champion2005/amicooked-sub000/pkg/store"
)

func setupJanitor(t *testing.T) (*UsageJanitor, *store.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	st := &store.Client{Redis: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	return NewUsageJanitor(st, logger.New("error", "text"), 30), st
}

func seedCounter(t *testing.T, st *store.Client, key string, count int, windowStart time.Time) {
	t.Helper()
	require.NoError(t, st.HSet(context.Background(), key, "count", count, "window_start", windowStart.Unix()))
}

func TestPruneExpiredWindows(t *testing.T) {
	janitor, st := setupJanitor(t)
	ctx := context.Background()

	seedCounter(t, st, store.UsageKey("u1", "MESSAGE"), 3, time.Now().Add(-40*24*time.Hour))
	seedCounter(t, st, store.UsageKey("u1", "REANALYSIS"), 1, time.Now().Add(-1*time.Hour))
	seedCounter(t, st, store.UsageKey("u2", "MESSAGE"), 7, time.Now().Add(-31*24*time.Hour))

	pruned, err := janitor.PruneExpiredWindows(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, pruned)

	// The live counter survived.
	fields, err := st.HGetAll(ctx, store.UsageKey("u1", "REANALYSIS"))
	require.NoError(t, err)
	assert.Equal(t, "1", fields["count"])

	fields, err = st.HGetAll(ctx, store.UsageKey("u1", "MESSAGE"))
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestPruneExpiredWindows_SkipsMalformed(t *testing.T) {
	janitor, st := setupJanitor(t)
	ctx := context.Background()

	require.NoError(t, st.HSet(ctx, store.UsageKey("u1", "MESSAGE"), "count", 1, "window_start", "not-a-number"))

	pruned, err := janitor.PruneExpiredWindows(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, pruned)
}

func TestStats(t *testing.T) {
	janitor, st := setupJanitor(t)
	ctx := context.Background()

	seedCounter(t, st, store.UsageKey("u1", "MESSAGE"), 3, time.Now())
	seedCounter(t, st, store.UsageKey("u2", "MESSAGE"), 4, time.Now())
	seedCounter(t, st, store.UsageKey("u2", "PROJECT_CHAT"), 2, time.Now())

	totals, err := janitor.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, totals["MESSAGE"])
	assert.Equal(t, 2, totals["PROJECT_CHAT"])
	assert.Equal(t, 0, totals["REANALYSIS"])
}
