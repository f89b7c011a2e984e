package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hccplan/dispo/pkg/core/model"
	"github.com/hccplan/dispo/pkg/db"
)

func scanPlanPeriod(row pgx.Row) (model.PlanPeriod, error) {
	var pp model.PlanPeriod
	err := row.Scan(&pp.ID, &pp.TeamID, &pp.Start, &pp.End, &pp.Deadline,
		&pp.Notes, &pp.Closed, &pp.CreatedAt, &pp.UpdatedAt)
	if err != nil {
		return model.PlanPeriod{}, fmt.Errorf("failed to scan plan period: %w", mapError(err))
	}
	return pp, nil
}

// CreatePlanPeriod inserts a new plan period. The insert takes a
// per-team advisory lock so two concurrent creates for the same team
// serialize and cannot both pass the service-level overlap check.
func (d *DB) CreatePlanPeriod(ctx context.Context, pp *model.PlanPeriod) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, pp.TeamID); err != nil {
		return fmt.Errorf("failed to lock team: %w", mapError(err))
	}

	var overlaps bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM plan_period
			WHERE team_id = $1 AND start_date <= $3 AND end_date >= $2
		)
	`, pp.TeamID, pp.Start, pp.End).Scan(&overlaps)
	if err != nil {
		return fmt.Errorf("failed to check overlap: %w", mapError(err))
	}
	if overlaps {
		return fmt.Errorf("%w: plan period overlaps an existing one", db.ErrInvariant)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO plan_period (id, team_id, start_date, end_date, deadline,
			notes, closed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, pp.ID, pp.TeamID, pp.Start, pp.End, pp.Deadline,
		pp.Notes, pp.Closed, pp.CreatedAt, pp.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert plan period: %w", mapError(err))
	}
	return tx.Commit(ctx)
}

// GetPlanPeriod retrieves a plan period by ID
func (d *DB) GetPlanPeriod(ctx context.Context, id string) (model.PlanPeriod, error) {
	return scanPlanPeriod(d.pool.QueryRow(ctx, `
		SELECT id, team_id, start_date, end_date, deadline, notes, closed, created_at, updated_at
		FROM plan_period WHERE id = $1
	`, id))
}

// UpdatePlanPeriod overwrites a plan period record
func (d *DB) UpdatePlanPeriod(ctx context.Context, pp model.PlanPeriod) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE plan_period SET start_date = $2, end_date = $3, deadline = $4,
			notes = $5, closed = $6, updated_at = $7
		WHERE id = $1
	`, pp.ID, pp.Start, pp.End, pp.Deadline, pp.Notes, pp.Closed, pp.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update plan period: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

// DeletePlanPeriod removes a plan period and, as an owned cascade, its
// availabilities and avail days in one transaction.
func (d *DB) DeletePlanPeriod(ctx context.Context, id string) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		DELETE FROM avail_day WHERE availables_id IN
			(SELECT id FROM availables WHERE plan_period_id = $1)
	`, id); err != nil {
		return fmt.Errorf("failed to delete avail days: %w", mapError(err))
	}
	if _, err := tx.Exec(ctx, `DELETE FROM availables WHERE plan_period_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete availabilities: %w", mapError(err))
	}
	if _, err := tx.Exec(ctx, `DELETE FROM reminder_job WHERE plan_period_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete reminder job: %w", mapError(err))
	}
	tag, err := tx.Exec(ctx, `DELETE FROM plan_period WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete plan period: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return tx.Commit(ctx)
}

// PlanPeriodsOfTeam lists a team's plan periods ordered by start date
func (d *DB) PlanPeriodsOfTeam(ctx context.Context, teamID string) ([]model.PlanPeriod, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, team_id, start_date, end_date, deadline, notes, closed, created_at, updated_at
		FROM plan_period WHERE team_id = $1 ORDER BY start_date
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query plan periods: %w", mapError(err))
	}
	defer rows.Close()

	var periods []model.PlanPeriod
	for rows.Next() {
		pp, err := scanPlanPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, pp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plan periods: %w", err)
	}
	return periods, nil
}
