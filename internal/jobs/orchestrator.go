package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/finance-scheduler/internal/models"
	"github.com/Dan9191/finance-scheduler/internal/recurrence"
)

// Orchestrator runs the scheduler's jobs in dependency order, isolates
// their failures and records one JobRun per job.
type Orchestrator struct {
	runs         RunStore
	materializer *Materializer
	rates        *RateRefresher
	budgets      *BudgetAggregator
	goals        *GoalEstimator
	janitor      *Janitor
	log          *logrus.Logger
	jobTimeout   time.Duration
}

// NewOrchestrator initializes a new job orchestrator. jobTimeout bounds
// the execution budget of each job.
func NewOrchestrator(
	runs RunStore,
	materializer *Materializer,
	rates *RateRefresher,
	budgets *BudgetAggregator,
	goals *GoalEstimator,
	janitor *Janitor,
	log *logrus.Logger,
	jobTimeout time.Duration,
) *Orchestrator {
	return &Orchestrator{
		runs:         runs,
		materializer: materializer,
		rates:        rates,
		budgets:      budgets,
		goals:        goals,
		janitor:      janitor,
		log:          log,
		jobTimeout:   jobTimeout,
	}
}

// JobResult is the recorded outcome of one job within a batch.
type JobResult struct {
	Name    string            `json:"name"`
	Status  string            `json:"status"`
	Summary models.JobSummary `json:"summary"`
}

// RunReport aggregates the outcomes of one orchestrator invocation.
type RunReport struct {
	BatchID uuid.UUID   `json:"batch_id"`
	AsOf    time.Time   `json:"as_of"`
	Jobs    []JobResult `json:"jobs"`
}

// RunAllDailyJobs executes the full batch for the asOf period:
// materialize occurrences, refresh exchange rates, update budgets,
// update goal probabilities, clean notifications. A job's failure is
// recorded and does not abort the remaining jobs; a failed rate refresh
// degrades budget and goal updates to stale instead of failing them.
// When force is false, jobs already recorded SUCCESS for this period
// are skipped; re-running with force is safe because every job is
// idempotent.
func (o *Orchestrator) RunAllDailyJobs(ctx context.Context, asOf time.Time, force bool) *RunReport {
	asOf = recurrence.DateOf(asOf)
	report := &RunReport{BatchID: uuid.New(), AsOf: asOf}
	o.log.Infof("Starting daily batch %s for %s", report.BatchID, asOf.Format("2006-01-02"))

	report.Jobs = append(report.Jobs, o.runJob(ctx, report.BatchID, models.JobProcessRecurring, asOf, force,
		func(ctx context.Context) (models.JobSummary, error) {
			return o.materializer.Run(ctx, asOf)
		}))

	ratesResult := o.runJob(ctx, report.BatchID, models.JobUpdateRates, asOf, force,
		func(ctx context.Context) (models.JobSummary, error) {
			return o.rates.Run(ctx, asOf)
		})
	report.Jobs = append(report.Jobs, ratesResult)
	stale := ratesResult.Status == models.JobRunFailed

	report.Jobs = append(report.Jobs, o.runJob(ctx, report.BatchID, models.JobUpdateBudgets, asOf, force,
		func(ctx context.Context) (models.JobSummary, error) {
			return o.budgets.Run(ctx, asOf, stale)
		}))

	report.Jobs = append(report.Jobs, o.runJob(ctx, report.BatchID, models.JobUpdateGoals, asOf, force,
		func(ctx context.Context) (models.JobSummary, error) {
			return o.goals.Run(ctx, asOf, stale)
		}))

	report.Jobs = append(report.Jobs, o.runJob(ctx, report.BatchID, models.JobCleanNotifications, asOf, force,
		func(ctx context.Context) (models.JobSummary, error) {
			return o.janitor.Run(ctx, asOf)
		}))

	o.log.Infof("Daily batch %s finished", report.BatchID)
	return report
}

// ProcessRecurringTransactions runs the occurrence materializer alone.
func (o *Orchestrator) ProcessRecurringTransactions(ctx context.Context, asOf time.Time) JobResult {
	asOf = recurrence.DateOf(asOf)
	return o.runJob(ctx, uuid.New(), models.JobProcessRecurring, asOf, true,
		func(ctx context.Context) (models.JobSummary, error) {
			return o.materializer.Run(ctx, asOf)
		})
}

// UpdateExchangeRates runs the rate refresh alone.
func (o *Orchestrator) UpdateExchangeRates(ctx context.Context, asOf time.Time) JobResult {
	asOf = recurrence.DateOf(asOf)
	return o.runJob(ctx, uuid.New(), models.JobUpdateRates, asOf, true,
		func(ctx context.Context) (models.JobSummary, error) {
			return o.rates.Run(ctx, asOf)
		})
}

// UpdateBudgetSpent runs the budget aggregation alone.
func (o *Orchestrator) UpdateBudgetSpent(ctx context.Context, asOf time.Time) JobResult {
	asOf = recurrence.DateOf(asOf)
	return o.runJob(ctx, uuid.New(), models.JobUpdateBudgets, asOf, true,
		func(ctx context.Context) (models.JobSummary, error) {
			return o.budgets.Run(ctx, asOf, false)
		})
}

// UpdateGoalProbabilities runs the goal estimation alone.
func (o *Orchestrator) UpdateGoalProbabilities(ctx context.Context, asOf time.Time) JobResult {
	asOf = recurrence.DateOf(asOf)
	return o.runJob(ctx, uuid.New(), models.JobUpdateGoals, asOf, true,
		func(ctx context.Context) (models.JobSummary, error) {
			return o.goals.Run(ctx, asOf, false)
		})
}

// CleanupOldNotifications runs the notification janitor alone.
func (o *Orchestrator) CleanupOldNotifications(ctx context.Context, asOf time.Time) JobResult {
	asOf = recurrence.DateOf(asOf)
	return o.runJob(ctx, uuid.New(), models.JobCleanNotifications, asOf, true,
		func(ctx context.Context) (models.JobSummary, error) {
			return o.janitor.Run(ctx, asOf)
		})
}

// runJob wraps one job execution: period-idempotency check, JobRun
// bookkeeping, bounded execution budget, failure capture.
func (o *Orchestrator) runJob(ctx context.Context, batchID uuid.UUID, name string, asOf time.Time, force bool, fn func(context.Context) (models.JobSummary, error)) JobResult {
	result := JobResult{Name: name}

	if !force {
		done, err := o.runs.HasSuccessfulRun(ctx, name, asOf)
		if err != nil {
			o.log.Warnf("Job %s: period check failed, running anyway: %v", name, err)
		} else if done {
			o.log.Infof("Job %s already succeeded for %s, skipping", name, asOf.Format("2006-01-02"))
			result.Status = models.JobRunSkipped
			o.recordRun(ctx, batchID, name, asOf, models.JobRunSkipped, result.Summary)
			return result
		}
	}

	run := &models.JobRun{BatchID: batchID, JobName: name, AsOf: asOf}
	if err := o.runs.CreateJobRun(ctx, run); err != nil {
		o.log.Errorf("Job %s could not start: %v", name, err)
		result.Status = models.JobRunFailed
		result.Summary.RecordError(err)
		return result
	}

	jobCtx, cancel := context.WithTimeout(ctx, o.jobTimeout)
	defer cancel()

	summary, err := fn(jobCtx)
	result.Summary = summary
	result.Status = models.JobRunSuccess
	if err != nil {
		result.Status = models.JobRunFailed
		result.Summary.RecordError(err)
		o.log.Errorf("Job %s failed: %v", name, err)
	}

	if err := o.runs.CompleteJobRun(ctx, run.ID, result.Status, result.Summary); err != nil {
		o.log.Errorf("Job %s: failed to record outcome: %v", name, err)
	}
	return result
}

// recordRun writes a completed JobRun in one step, used for skips.
func (o *Orchestrator) recordRun(ctx context.Context, batchID uuid.UUID, name string, asOf time.Time, status string, summary models.JobSummary) {
	run := &models.JobRun{BatchID: batchID, JobName: name, AsOf: asOf}
	if err := o.runs.CreateJobRun(ctx, run); err != nil {
		o.log.Warnf("Job %s: failed to record %s run: %v", name, status, err)
		return
	}
	if err := o.runs.CompleteJobRun(ctx, run.ID, status, summary); err != nil {
		o.log.Warnf("Job %s: failed to record %s run: %v", name, status, err)
	}
}
