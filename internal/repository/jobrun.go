package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/Dan9191/finance-scheduler/internal/models"
)

// CreateJobRun appends a new job run in RUNNING state.
func (r *Repository) CreateJobRun(ctx context.Context, run *models.JobRun) error {
	query := `
		INSERT INTO scheduler.job_runs (batch_id, job_name, as_of, started_at, status)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP, $4)
		RETURNING id, started_at`
	err := r.db.QueryRowContext(ctx, query, run.BatchID, run.JobName, run.AsOf, models.JobRunRunning).
		Scan(&run.ID, &run.StartedAt)
	if err != nil {
		return persistence("create job run", err)
	}
	run.Status = models.JobRunRunning
	return nil
}

// CompleteJobRun records the final status and summary of a job run.
func (r *Repository) CompleteJobRun(ctx context.Context, runID int64, status string, summary models.JobSummary) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return persistence("encode job summary", err)
	}
	query := `
		UPDATE scheduler.job_runs
		SET status = $1, summary = $2, completed_at = CURRENT_TIMESTAMP
		WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, status, raw, runID); err != nil {
		return persistence("complete job run", err)
	}
	return nil
}

// HasSuccessfulRun reports whether the named job already completed
// successfully for the given as-of date.
func (r *Repository) HasSuccessfulRun(ctx context.Context, jobName string, asOf time.Time) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM scheduler.job_runs
			WHERE job_name = $1 AND as_of = $2 AND status = $3
		)`
	if err := r.db.QueryRowContext(ctx, query, jobName, asOf, models.JobRunSuccess).Scan(&exists); err != nil {
		return false, persistence("check job run", err)
	}
	return exists, nil
}

// ListJobRuns retrieves the most recent job runs, newest first.
func (r *Repository) ListJobRuns(ctx context.Context, limit int) ([]models.JobRun, error) {
	query := `
		SELECT id, batch_id, job_name, as_of, started_at, completed_at, status, COALESCE(summary, '{}')
		FROM scheduler.job_runs
		ORDER BY started_at DESC, id DESC
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, persistence("list job runs", err)
	}
	defer rows.Close()

	var runs []models.JobRun
	for rows.Next() {
		var run models.JobRun
		var completed sql.NullTime
		var raw []byte
		err := rows.Scan(&run.ID, &run.BatchID, &run.JobName, &run.AsOf, &run.StartedAt, &completed, &run.Status, &raw)
		if err != nil {
			return nil, persistence("scan job run", err)
		}
		if completed.Valid {
			t := completed.Time
			run.CompletedAt = &t
		}
		if err := json.Unmarshal(raw, &run.Summary); err != nil {
			return nil, persistence("decode job summary", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, persistence("list job runs", err)
	}
	return runs, nil
}
