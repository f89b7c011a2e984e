package postgres

import (
	"context"
	"fmt"

	"github.com/hccplan/dispo/pkg/db"
)

// SaveJob upserts the reminder job for a plan period. A period carries
// at most one pending job, so the period ID is the key.
func (d *DB) SaveJob(ctx context.Context, job db.ReminderJob) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO reminder_job (plan_period_id, fire_at, callback)
		VALUES ($1, $2, $3)
		ON CONFLICT (plan_period_id) DO UPDATE
			SET fire_at = EXCLUDED.fire_at, callback = EXCLUDED.callback
	`, job.PlanPeriodID, job.FireAt, job.Callback)
	if err != nil {
		return fmt.Errorf("failed to save reminder job: %w", mapError(err))
	}
	return nil
}

// DeleteJob removes the job for a plan period. Absent jobs are fine.
func (d *DB) DeleteJob(ctx context.Context, planPeriodID string) error {
	_, err := d.pool.Exec(ctx, `DELETE FROM reminder_job WHERE plan_period_id = $1`, planPeriodID)
	if err != nil {
		return fmt.Errorf("failed to delete reminder job: %w", mapError(err))
	}
	return nil
}

// ListJobs returns all persisted reminder jobs
func (d *DB) ListJobs(ctx context.Context) ([]db.ReminderJob, error) {
	rows, err := d.pool.Query(ctx, `SELECT plan_period_id, fire_at, callback FROM reminder_job`)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminder jobs: %w", mapError(err))
	}
	defer rows.Close()

	var jobs []db.ReminderJob
	for rows.Next() {
		var job db.ReminderJob
		if err := rows.Scan(&job.PlanPeriodID, &job.FireAt, &job.Callback); err != nil {
			return nil, fmt.Errorf("failed to scan reminder job: %w", mapError(err))
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminder jobs: %w", err)
	}
	return jobs, nil
}

var _ db.Store = (*DB)(nil)
