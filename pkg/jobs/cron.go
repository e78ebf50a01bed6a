package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Champion2005/amicooked-sub000/pkg/logger"
	"github.com/Champion2005/amicooked-sub000/pkg/store"
)

// CronManager manages scheduled jobs
type CronManager struct {
	cron    *cron.Cron
	janitor *UsageJanitor
	logger  logger.Logger
}

// NewCronManager creates a new cron manager
func NewCronManager(st *store.Client, log logger.Logger, usagePeriodDays int) *CronManager {
	return &CronManager{
		cron:    cron.New(),
		janitor: NewUsageJanitor(st, log, usagePeriodDays),
		logger:  log,
	}
}

// SetupJobs configures all scheduled jobs
func (cm *CronManager) SetupJobs() error {
	// Daily at 3 AM: prune usage counters whose window has lapsed.
	_, err := cm.cron.AddFunc("0 3 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		pruned, err := cm.janitor.PruneExpiredWindows(ctx)
		if err != nil {
			cm.logger.Error("usage window prune failed", "error", err)
			return
		}
		cm.logger.Info("usage window prune completed", "pruned", pruned)
	})
	if err != nil {
		return err
	}

	// Daily at 4 AM: log aggregate usage statistics.
	_, err = cm.cron.AddFunc("0 4 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		totals, err := cm.janitor.Stats(ctx)
		if err != nil {
			cm.logger.Error("usage stats job failed", "error", err)
			return
		}
		cm.logger.Info("usage totals",
			"messages", totals["MESSAGE"],
			"reanalyses", totals["REANALYSIS"],
			"project_chats", totals["PROJECT_CHAT"])
	})
	if err != nil {
		return err
	}

	cm.logger.Info("cron jobs configured",
		"prune", "daily 03:00",
		"stats", "daily 04:00")
	return nil
}

// Start starts the cron scheduler
func (cm *CronManager) Start() {
	cm.cron.Start()
}

// Stop stops the cron scheduler
func (cm *CronManager) Stop() {
	cm.cron.Stop()
}

// Janitor returns the usage janitor for manual triggers.
func (cm *CronManager) Janitor() *UsageJanitor {
	return cm.janitor
}
