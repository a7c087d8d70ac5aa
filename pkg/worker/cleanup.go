package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-booking/pkg/metrics"
)

// OutboxPurger deletes processed outbox events.
type OutboxPurger interface {
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}

// OutboxCleanupWorker purges processed events older than the retention on a
// cron schedule.
type OutboxCleanupWorker struct {
	repo      OutboxPurger
	retention time.Duration
	logger    zerolog.Logger
	metrics   *metrics.Metrics
	cron      *cron.Cron
	now       func() time.Time
}

func NewOutboxCleanupWorker(repo OutboxPurger, schedule string, retention time.Duration, logger zerolog.Logger, m *metrics.Metrics) (*OutboxCleanupWorker, error) {
	if retention <= 0 {
		return nil, fmt.Errorf("retention must be positive")
	}

	w := &OutboxCleanupWorker{
		repo:      repo,
		retention: retention,
		logger:    logger,
		metrics:   m,
		cron:      cron.New(),
		now:       time.Now,
	}
	if _, err := w.cron.AddFunc(schedule, func() {
		if _, err := w.Cleanup(context.Background()); err != nil {
			w.logger.Error().Err(err).Msg("outbox cleanup failed")
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", schedule, err)
	}
	return w, nil
}

// Start runs the schedule until ctx is cancelled, then waits for a running
// job to finish.
func (w *OutboxCleanupWorker) Start(ctx context.Context) {
	w.cron.Start()
	w.logger.Info().Dur("retention", w.retention).Msg("outbox cleanup scheduled")

	<-ctx.Done()
	<-w.cron.Stop().Done()
}

func (w *OutboxCleanupWorker) Cleanup(ctx context.Context) (int64, error) {
	cutoff := w.now().Add(-w.retention)

	rows, err := w.repo.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete processed events: %w", err)
	}

	w.metrics.OutboxEventsPurged.Add(float64(rows))
	w.logger.Info().Int64("deleted", rows).Time("cutoff", cutoff).Msg("purged processed outbox events")
	return rows, nil
}
