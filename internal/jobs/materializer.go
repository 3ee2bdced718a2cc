package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Dan9191/finance-scheduler/internal/models"
	"github.com/Dan9191/finance-scheduler/internal/recurrence"
)

// Materializer turns due recurrence definitions into concrete
// occurrences and transactions, exactly once each.
type Materializer struct {
	store   MaterializerStore
	log     *logrus.Logger
	workers int
}

// NewMaterializer initializes a new materializer. workers bounds how
// many definitions are processed concurrently; definitions belong to
// independent profiles, so they carry no ordering dependency between
// each other.
func NewMaterializer(store MaterializerStore, log *logrus.Logger, workers int) *Materializer {
	if workers < 1 {
		workers = 1
	}
	return &Materializer{store: store, log: log, workers: workers}
}

// Run materializes every active definition up to asOf. Failures are
// isolated per definition: a failed batch is recorded in the summary
// and leaves that definition's cursor untouched, so its dates are
// retried on the next invocation. The returned error is non-nil only
// when the job could not start at all.
func (m *Materializer) Run(ctx context.Context, asOf time.Time) (models.JobSummary, error) {
	var summary models.JobSummary

	defs, err := m.store.ListActiveDefinitions(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to list definitions: %w", err)
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, m.workers)

	for i := range defs {
		def := &defs[i]
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			created, skipped, err := m.materializeOne(ctx, def, asOf)

			mu.Lock()
			defer mu.Unlock()
			summary.Processed++
			summary.Created += created
			summary.Skipped += skipped
			if err != nil {
				summary.RecordError(fmt.Errorf("definition %d: %w", def.ID, err))
			}
		}()
	}
	wg.Wait()

	m.log.Infof("Materialization done: %d definitions, %d created, %d skipped, %d failed",
		summary.Processed, summary.Created, summary.Skipped, summary.Failed)
	return summary, nil
}

func (m *Materializer) materializeOne(ctx context.Context, def *models.RecurrenceDefinition, asOf time.Time) (created, skipped int, err error) {
	dues, err := recurrence.DueDates(def, asOf)
	if err != nil {
		return 0, 0, err
	}
	if len(dues) == 0 {
		return 0, 0, nil
	}

	created, skipped, err = m.store.MaterializeBatch(ctx, def, dues)
	if err != nil {
		m.log.Errorf("Materialization failed for definition %d: %v", def.ID, err)
		return 0, 0, err
	}

	m.log.Debugf("Definition %d: %d occurrences created, %d already present, cursor at %s",
		def.ID, created, skipped, dues[len(dues)-1].Format("2006-01-02"))
	return created, skipped, nil
}
