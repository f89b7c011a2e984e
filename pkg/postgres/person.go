package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hccplan/dispo/pkg/core/model"
	"github.com/hccplan/dispo/pkg/db"
)

const personColumns = `id, first_name, last_name, email, password_hash,
	project_id, COALESCE(actor_team_id::text, ''), created_at, updated_at`

func scanPerson(row pgx.Row) (model.Person, error) {
	var p model.Person
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.PasswordHash,
		&p.ProjectID, &p.ActorTeamID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return model.Person{}, fmt.Errorf("failed to scan person: %w", mapError(err))
	}
	return p, nil
}

// CreatePerson inserts a new person record
func (d *DB) CreatePerson(ctx context.Context, person *model.Person) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO person (id, first_name, last_name, email, password_hash,
			project_id, actor_team_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::uuid, $8, $9)
	`, person.ID, person.FirstName, person.LastName, person.Email, person.PasswordHash,
		person.ProjectID, person.ActorTeamID, person.CreatedAt, person.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert person: %w", mapError(err))
	}
	return nil
}

// GetPerson retrieves a person by ID
func (d *DB) GetPerson(ctx context.Context, id string) (model.Person, error) {
	return scanPerson(d.pool.QueryRow(ctx,
		`SELECT `+personColumns+` FROM person WHERE id = $1`, id))
}

// GetPersonByEmail retrieves a person by login email
func (d *DB) GetPersonByEmail(ctx context.Context, email string) (model.Person, error) {
	return scanPerson(d.pool.QueryRow(ctx,
		`SELECT `+personColumns+` FROM person WHERE lower(email) = lower($1)`, email))
}

// UpdatePerson overwrites a person record
func (d *DB) UpdatePerson(ctx context.Context, person model.Person) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE person SET first_name = $2, last_name = $3, email = $4,
			password_hash = $5, actor_team_id = NULLIF($6, '')::uuid, updated_at = $7
		WHERE id = $1
	`, person.ID, person.FirstName, person.LastName, person.Email,
		person.PasswordHash, person.ActorTeamID, person.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update person: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

// DeletePerson removes a person and their availability submissions.
// A person who still administers the project or dispatches a team must
// not be deleted.
func (d *DB) DeletePerson(ctx context.Context, id string) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var isAdmin, isDispatcher bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM project WHERE admin_id = $1),
		       EXISTS (SELECT 1 FROM team WHERE dispatcher_id = $1)
	`, id).Scan(&isAdmin, &isDispatcher)
	if err != nil {
		return fmt.Errorf("failed to check person facets: %w", mapError(err))
	}
	if isAdmin {
		return fmt.Errorf("%w: project would be left without an admin", db.ErrInvariant)
	}
	if isDispatcher {
		return fmt.Errorf("%w: person still dispatches a team", db.ErrInvariant)
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM avail_day WHERE availables_id IN
			(SELECT id FROM availables WHERE person_id = $1)
	`, id); err != nil {
		return fmt.Errorf("failed to delete avail days: %w", mapError(err))
	}
	if _, err := tx.Exec(ctx, `DELETE FROM availables WHERE person_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete availabilities: %w", mapError(err))
	}
	tag, err := tx.Exec(ctx, `DELETE FROM person WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete person: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return tx.Commit(ctx)
}

func (d *DB) queryPersons(ctx context.Context, query string, args ...any) ([]model.Person, error) {
	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query persons: %w", mapError(err))
	}
	defer rows.Close()

	var persons []model.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		persons = append(persons, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating persons: %w", err)
	}
	return persons, nil
}

// PersonsOfProject lists every person of a project
func (d *DB) PersonsOfProject(ctx context.Context, projectID string) ([]model.Person, error) {
	return d.queryPersons(ctx,
		`SELECT `+personColumns+` FROM person WHERE project_id = $1 ORDER BY last_name, first_name`,
		projectID)
}

// ActorsOfTeam lists the actor-members of a team
func (d *DB) ActorsOfTeam(ctx context.Context, teamID string) ([]model.Person, error) {
	return d.queryPersons(ctx,
		`SELECT `+personColumns+` FROM person WHERE actor_team_id = $1 ORDER BY last_name, first_name`,
		teamID)
}
