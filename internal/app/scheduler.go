package app

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/prode/internal/platform/logging"
	"github.com/robfig/cron/v3"
)

// syncTrigger is the part of the sync service the scheduler drives.
type syncTrigger interface {
	Trigger(ctx context.Context) bool
}

// syncScheduler fires a fixture sync on a cron schedule. A tick that lands
// while a cycle is still running is dropped by the sync service.
type syncScheduler struct {
	cron   *cron.Cron
	logger *logging.Logger
}

func newSyncScheduler(ctx context.Context, spec string, loc *time.Location, trigger syncTrigger, logger *logging.Logger) (*syncScheduler, error) {
	c := cron.New(cron.WithLocation(loc))
	_, err := c.AddFunc(spec, func() {
		if !trigger.Trigger(ctx) {
			logger.InfoContext(ctx, "scheduled sync skipped", "reason", "sync in progress")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule sync %q: %w", spec, err)
	}
	return &syncScheduler{cron: c, logger: logger}, nil
}

func (s *syncScheduler) Start() {
	s.cron.Start()
	s.logger.Info("sync scheduler started", "entries", len(s.cron.Entries()))
}

// Stop waits for a running tick callback to return.
func (s *syncScheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("sync scheduler stopped")
}
