package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Dan9191/finance-scheduler/internal/models"
)

// Janitor purges stale notifications: expired ones, and terminal ones
// older than the retention window. Best effort and idempotent, with no
// dependency on the other jobs.
type Janitor struct {
	store     JanitorStore
	log       *logrus.Logger
	retention time.Duration
}

// NewJanitor initializes a new notification janitor.
func NewJanitor(store JanitorStore, log *logrus.Logger, retention time.Duration) *Janitor {
	return &Janitor{store: store, log: log, retention: retention}
}

// Run deletes notifications expired as of asOf and terminal ones beyond
// the retention window.
func (j *Janitor) Run(ctx context.Context, asOf time.Time) (models.JobSummary, error) {
	var summary models.JobSummary

	expired, err := j.store.DeleteExpiredNotifications(ctx, asOf)
	if err != nil {
		return summary, fmt.Errorf("failed to delete expired notifications: %w", err)
	}
	summary.Processed += int(expired)

	terminal, err := j.store.DeleteTerminalNotificationsBefore(ctx, asOf.Add(-j.retention))
	if err != nil {
		summary.RecordError(fmt.Errorf("failed to delete terminal notifications: %w", err))
		return summary, nil
	}
	summary.Processed += int(terminal)

	j.log.Infof("Notification cleanup done: %d expired, %d past retention", expired, terminal)
	return summary, nil
}
