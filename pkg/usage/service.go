// Package usage implements the rolling-window usage accounting and the
// plan-gating limit check. Checking and incrementing are deliberately
// separate operations: callers check before the guarded AI call and
// increment only after it succeeds, so failed calls are never charged.
package usage

import (
	"context"
	"strconv"
	"time"

	"github.com/Champion2005/amicooked-sub000/pkg/domain"
	"github.com/Champion2005/amicooked-sub000/pkg/logger"
	"github.com/Champion2005/amicooked-sub000/pkg/models"
	"github.com/Champion2005/amicooked-sub000/pkg/plans"
	"github.com/Champion2005/amicooked-sub000/pkg/store"
)

// incrScript bumps a counter hash atomically, resetting the window first
// when it has expired. Running inside Redis serializes concurrent increments
// for the same (user, usage type) pair.
//
// KEYS[1] = usage hash, ARGV[1] = now (unix seconds), ARGV[2] = period seconds
const incrScript = `
local window = redis.call('HGET', KEYS[1], 'window_start')
local now = tonumber(ARGV[1])
local period = tonumber(ARGV[2])
if (not window) or (now - tonumber(window) >= period) then
  redis.call('HSET', KEYS[1], 'count', 1, 'window_start', now)
  return {1, now}
end
local count = redis.call('HINCRBY', KEYS[1], 'count', 1)
return {count, tonumber(window)}
`

// readRetryBackoff is the single-retry delay for usage reads. The limit
// decision itself fails closed when the store stays unreachable.
const readRetryBackoff = 100 * time.Millisecond

// Service is the usage counter store plus limit checker.
type Service struct {
	store  *store.Client
	logger logger.Logger
	period time.Duration
	now    func() time.Time
}

// New creates a usage service with a periodDays rolling window.
func New(st *store.Client, log logger.Logger, periodDays int) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		store:  st,
		logger: log,
		period: time.Duration(periodDays) * 24 * time.Hour,
		now:    time.Now,
	}
}

// GetUsage reads the counter for one (user, usage type) pair, creating a
// zeroed record on first read. An expired window reads as zero usage; the
// stored counter is only rewritten by the next increment.
func (s *Service) GetUsage(ctx context.Context, userID string, usageType models.UsageType) (models.UsageRecord, error) {
	key := store.UsageKey(userID, string(usageType))

	fields, err := s.store.HGetAll(ctx, key)
	if err != nil {
		return models.UsageRecord{}, domain.NewStoreUnavailableError(err)
	}

	if len(fields) == 0 {
		now := s.now()
		if err := s.store.HSet(ctx, key, "count", 0, "window_start", now.Unix()); err != nil {
			return models.UsageRecord{}, domain.NewStoreUnavailableError(err)
		}
		return models.UsageRecord{Current: 0, WindowStart: now}, nil
	}

	rec := parseRecord(fields)
	if s.expired(rec.WindowStart) {
		rec.Current = 0
	}
	return rec, nil
}

// Increment atomically charges one unit of usage. If the rolling window has
// expired the counter restarts at 1 with a fresh window, never at stale+1.
func (s *Service) Increment(ctx context.Context, userID string, usageType models.UsageType) error {
	key := store.UsageKey(userID, string(usageType))
	_, err := s.store.Eval(ctx, incrScript, []string{key}, s.now().Unix(), int64(s.period.Seconds()))
	if err != nil {
		return domain.NewStoreUnavailableError(err)
	}
	return nil
}

// CheckLimit decides whether a guarded action may proceed and which model it
// should use. It never increments; that is the caller's job after success.
//
// Store failures fail closed: a denied result plus a STORE_UNAVAILABLE error,
// so an outage can never turn into unmetered paid-model calls.
func (s *Service) CheckLimit(ctx context.Context, userID string, planID plans.PlanID, usageType models.UsageType) (models.LimitCheckResult, error) {
	plan := plans.Get(planID)
	limit := plans.Limit(planID, usageType)

	rec, err := s.GetUsage(ctx, userID, usageType)
	if err != nil {
		// One retry with a short backoff before denying.
		select {
		case <-ctx.Done():
			return models.LimitCheckResult{}, ctx.Err()
		case <-time.After(readRetryBackoff):
		}
		rec, err = s.GetUsage(ctx, userID, usageType)
		if err != nil {
			s.logger.Error("usage read failed, denying", "user_id", userID, "usage_type", usageType, "error", err)
			return models.LimitCheckResult{Allowed: false, Limit: limit}, err
		}
	}

	result := models.LimitCheckResult{Current: rec.Current, Limit: limit}

	switch {
	case limit == nil:
		result.Allowed = true
		result.Model = plan.PrimaryModel
	case rec.Current < *limit:
		result.Allowed = true
		result.Model = plan.PrimaryModel
	case plan.HasFallback:
		result.Allowed = true
		result.UsingFallback = true
		result.Model = plan.FallbackModel
	default:
		result.Allowed = false
	}

	return result, nil
}

// GetSummary reports consumption across every usage type for one user.
func (s *Service) GetSummary(ctx context.Context, userID string, planID plans.PlanID) (models.UsageSummary, error) {
	plan := plans.Get(planID)
	summary := models.UsageSummary{
		Plan:   string(plan.ID),
		Usage:  make(map[models.UsageType]int, len(models.AllUsageTypes)),
		Limits: make(map[models.UsageType]*int, len(models.AllUsageTypes)),
	}

	var earliestWindow time.Time
	for _, ut := range models.AllUsageTypes {
		rec, err := s.GetUsage(ctx, userID, ut)
		if err != nil {
			return models.UsageSummary{}, err
		}
		summary.Usage[ut] = rec.Current
		summary.Limits[ut] = plans.Limit(planID, ut)
		if earliestWindow.IsZero() || rec.WindowStart.Before(earliestWindow) {
			earliestWindow = rec.WindowStart
		}
	}
	summary.ResetAt = earliestWindow.Add(s.period)

	return summary, nil
}

// Reset deletes every usage counter for a user. Owned by the explicit
// account-reset flow only.
func (s *Service) Reset(ctx context.Context, userID string) error {
	_, err := s.store.DeletePattern(ctx, store.UsageKey(userID, "*"))
	if err != nil {
		return domain.NewStoreUnavailableError(err)
	}
	return nil
}

func (s *Service) expired(windowStart time.Time) bool {
	return s.now().Sub(windowStart) >= s.period
}

func parseRecord(fields map[string]string) models.UsageRecord {
	count, _ := strconv.Atoi(fields["count"])
	windowUnix, _ := strconv.ParseInt(fields["window_start"], 10, 64)
	return models.UsageRecord{
		Current:     count,
		WindowStart: time.Unix(windowUnix, 0),
	}
}
