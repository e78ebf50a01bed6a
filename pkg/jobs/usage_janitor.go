package jobs

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Champion2005/amicooked-sub000/pkg/logger"
	"github.com/Champion2005/amicooked-sub000/pkg/store"
)

// UsageJanitor sweeps usage counter hashes. Expired windows already read as
// zero, so pruning them is purely a storage concern.
type UsageJanitor struct {
	store  *store.Client
	logger logger.Logger
	period time.Duration
}

// NewUsageJanitor creates a janitor for counters older than periodDays.
func NewUsageJanitor(st *store.Client, log logger.Logger, periodDays int) *UsageJanitor {
	return &UsageJanitor{
		store:  st,
		logger: log,
		period: time.Duration(periodDays) * 24 * time.Hour,
	}
}

// PruneExpiredWindows deletes counter hashes whose rolling window has lapsed.
// Returns the number of keys removed.
func (j *UsageJanitor) PruneExpiredWindows(ctx context.Context) (int, error) {
	keys, err := j.store.ScanKeys(ctx, "users:*:usage:*")
	if err != nil {
		return 0, fmt.Errorf("failed to list usage keys: %w", err)
	}

	pruned := 0
	now := time.Now()
	for _, key := range keys {
		fields, err := j.store.HGetAll(ctx, key)
		if err != nil {
			return pruned, fmt.Errorf("failed to read %s: %w", key, err)
		}
		windowUnix, err := strconv.ParseInt(fields["window_start"], 10, 64)
		if err != nil {
			continue
		}
		if now.Sub(time.Unix(windowUnix, 0)) >= j.period {
			if err := j.store.Delete(ctx, key); err != nil {
				return pruned, err
			}
			pruned++
		}
	}
	return pruned, nil
}

// Stats aggregates counter totals per usage type across all users.
func (j *UsageJanitor) Stats(ctx context.Context) (map[string]int, error) {
	keys, err := j.store.ScanKeys(ctx, "users:*:usage:*")
	if err != nil {
		return nil, fmt.Errorf("failed to list usage keys: %w", err)
	}

	totals := make(map[string]int)
	for _, key := range keys {
		fields, err := j.store.HGetAll(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
		count, err := strconv.Atoi(fields["count"])
		if err != nil {
			continue
		}
		// Key layout: users:{id}:usage:{TYPE}
		parts := strings.Split(key, ":")
		usageType := parts[len(parts)-1]
		totals[usageType] += count
	}
	return totals, nil
}
