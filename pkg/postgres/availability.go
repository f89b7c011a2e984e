package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hccplan/dispo/pkg/core/model"
	"github.com/hccplan/dispo/pkg/db"
)

// ReplaceAvailability upserts the (person, period) envelope and swaps
// its day set in one transaction. A resubmission fully replaces the
// previous one; the envelope row and its ID survive.
func (d *DB) ReplaceAvailability(ctx context.Context, envelope model.Availables, days []model.AvailDay) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var envelopeID string
	err = tx.QueryRow(ctx, `
		INSERT INTO availables (id, plan_period_id, person_id, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (person_id, plan_period_id) DO UPDATE
			SET notes = EXCLUDED.notes, updated_at = EXCLUDED.updated_at
		RETURNING id
	`, envelope.ID, envelope.PlanPeriodID, envelope.PersonID, envelope.Notes,
		envelope.CreatedAt, envelope.UpdatedAt).Scan(&envelopeID)
	if err != nil {
		return fmt.Errorf("failed to upsert availability envelope: %w", mapError(err))
	}

	if _, err := tx.Exec(ctx, `DELETE FROM avail_day WHERE availables_id = $1`, envelopeID); err != nil {
		return fmt.Errorf("failed to clear avail days: %w", mapError(err))
	}

	for _, day := range days {
		_, err := tx.Exec(ctx, `
			INSERT INTO avail_day (id, availables_id, day, time_of_day, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, day.ID, envelopeID, day.Day, day.TimeOfDay, day.CreatedAt, day.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert avail day: %w", mapError(err))
		}
	}
	return tx.Commit(ctx)
}

// GetAvailability returns one actor's submission for a plan period, or
// ok=false when none exists.
func (d *DB) GetAvailability(ctx context.Context, personID, planPeriodID string) (db.Submission, bool, error) {
	var sub db.Submission
	err := d.pool.QueryRow(ctx, `
		SELECT id, plan_period_id, person_id, notes, created_at, updated_at
		FROM availables WHERE person_id = $1 AND plan_period_id = $2
	`, personID, planPeriodID).Scan(&sub.Envelope.ID, &sub.Envelope.PlanPeriodID,
		&sub.Envelope.PersonID, &sub.Envelope.Notes, &sub.Envelope.CreatedAt, &sub.Envelope.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return db.Submission{}, false, nil
		}
		return db.Submission{}, false, fmt.Errorf("failed to get availability: %w", mapError(err))
	}

	days, err := d.daysOfEnvelope(ctx, sub.Envelope.ID)
	if err != nil {
		return db.Submission{}, false, err
	}
	sub.Days = days
	return sub, true, nil
}

// AvailabilitiesOfPeriod returns every submission for a plan period
func (d *DB) AvailabilitiesOfPeriod(ctx context.Context, planPeriodID string) ([]db.Submission, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, plan_period_id, person_id, notes, created_at, updated_at
		FROM availables WHERE plan_period_id = $1
	`, planPeriodID)
	if err != nil {
		return nil, fmt.Errorf("failed to query availabilities: %w", mapError(err))
	}
	defer rows.Close()

	var subs []db.Submission
	for rows.Next() {
		var sub db.Submission
		err := rows.Scan(&sub.Envelope.ID, &sub.Envelope.PlanPeriodID, &sub.Envelope.PersonID,
			&sub.Envelope.Notes, &sub.Envelope.CreatedAt, &sub.Envelope.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan availability: %w", mapError(err))
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating availabilities: %w", err)
	}

	for i := range subs {
		days, err := d.daysOfEnvelope(ctx, subs[i].Envelope.ID)
		if err != nil {
			return nil, err
		}
		subs[i].Days = days
	}
	return subs, nil
}

func (d *DB) daysOfEnvelope(ctx context.Context, envelopeID string) ([]model.AvailDay, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, availables_id, day, time_of_day, created_at, updated_at
		FROM avail_day WHERE availables_id = $1 ORDER BY day
	`, envelopeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query avail days: %w", mapError(err))
	}
	defer rows.Close()

	var days []model.AvailDay
	for rows.Next() {
		var day model.AvailDay
		err := rows.Scan(&day.ID, &day.AvailablesID, &day.Day, &day.TimeOfDay,
			&day.CreatedAt, &day.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan avail day: %w", mapError(err))
		}
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating avail days: %w", err)
	}
	return days, nil
}
