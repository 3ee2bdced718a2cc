package models

import (
	"time"

	"github.com/google/uuid"
)

// JobRun statuses.
const (
	JobRunRunning = "RUNNING"
	JobRunSuccess = "SUCCESS"
	JobRunFailed  = "FAILED"
	JobRunSkipped = "SKIPPED"
)

// Job names as recorded in job runs.
const (
	JobProcessRecurring   = "process_recurring_transactions"
	JobUpdateRates        = "update_exchange_rates"
	JobUpdateBudgets      = "update_budget_spent"
	JobUpdateGoals        = "update_goal_probabilities"
	JobCleanNotifications = "cleanup_old_notifications"
)

// JobSummary is the structured outcome of one job execution.
type JobSummary struct {
	Processed  int      `json:"processed"`
	Created    int      `json:"created"`
	Skipped    int      `json:"skipped"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors,omitempty"`
	Stale      bool     `json:"stale,omitempty"`
	Incomplete bool     `json:"incomplete,omitempty"`
}

// RecordError counts one failed unit of work and keeps its message.
func (s *JobSummary) RecordError(err error) {
	s.Failed++
	s.Errors = append(s.Errors, err.Error())
}

// JobRun is an append-only audit record of one execution of one
// scheduled job. BatchID groups the runs of a single orchestrator
// invocation.
type JobRun struct {
	ID          int64      `json:"id"`
	BatchID     uuid.UUID  `json:"batch_id"`
	JobName     string     `json:"job_name"`
	AsOf        time.Time  `json:"as_of"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Status      string     `json:"status"`
	Summary     JobSummary `json:"summary"`
}
