package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hccplan/dispo/pkg/core/model"
	"github.com/hccplan/dispo/pkg/db"
)

func scanTeam(row pgx.Row) (model.Team, error) {
	var t model.Team
	if err := row.Scan(&t.ID, &t.Name, &t.DispatcherID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return model.Team{}, fmt.Errorf("failed to scan team: %w", mapError(err))
	}
	return t, nil
}

// CreateTeam inserts a new team record
func (d *DB) CreateTeam(ctx context.Context, team *model.Team) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO team (id, name, dispatcher_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, team.ID, team.Name, team.DispatcherID, team.CreatedAt, team.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert team: %w", mapError(err))
	}
	return nil
}

// GetTeam retrieves a team by ID
func (d *DB) GetTeam(ctx context.Context, id string) (model.Team, error) {
	return scanTeam(d.pool.QueryRow(ctx, `
		SELECT id, name, dispatcher_id, created_at, updated_at FROM team WHERE id = $1
	`, id))
}

// UpdateTeam overwrites a team record
func (d *DB) UpdateTeam(ctx context.Context, team model.Team) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE team SET name = $2, dispatcher_id = $3, updated_at = $4 WHERE id = $1
	`, team.ID, team.Name, team.DispatcherID, team.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update team: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

// DeleteTeam removes a team record and detaches its actors. Plan
// periods must already be gone: the delete is ordered in the service
// layer, not cascaded here.
func (d *DB) DeleteTeam(ctx context.Context, id string) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var hasPeriods bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM plan_period WHERE team_id = $1)`, id).Scan(&hasPeriods); err != nil {
		return fmt.Errorf("failed to check team periods: %w", mapError(err))
	}
	if hasPeriods {
		return fmt.Errorf("%w: team still has plan periods", db.ErrInvariant)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE person SET actor_team_id = NULL WHERE actor_team_id = $1`, id); err != nil {
		return fmt.Errorf("failed to detach actors: %w", mapError(err))
	}
	tag, err := tx.Exec(ctx, `DELETE FROM team WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete team: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return tx.Commit(ctx)
}

func (d *DB) queryTeams(ctx context.Context, query string, args ...any) ([]model.Team, error) {
	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", mapError(err))
	}
	defer rows.Close()

	var teams []model.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating teams: %w", err)
	}
	return teams, nil
}

// TeamsOfDispatcher lists the teams dispatched by a person
func (d *DB) TeamsOfDispatcher(ctx context.Context, dispatcherID string) ([]model.Team, error) {
	return d.queryTeams(ctx, `
		SELECT id, name, dispatcher_id, created_at, updated_at
		FROM team WHERE dispatcher_id = $1 ORDER BY name
	`, dispatcherID)
}

// TeamsOfProject lists every team whose dispatcher belongs to a project
func (d *DB) TeamsOfProject(ctx context.Context, projectID string) ([]model.Team, error) {
	return d.queryTeams(ctx, `
		SELECT t.id, t.name, t.dispatcher_id, t.created_at, t.updated_at
		FROM team t JOIN person p ON p.id = t.dispatcher_id
		WHERE p.project_id = $1 ORDER BY t.name
	`, projectID)
}
