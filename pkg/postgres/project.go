package postgres

import (
	"context"
	"fmt"

	"github.com/hccplan/dispo/pkg/core/model"
	"github.com/hccplan/dispo/pkg/db"
)

// CreateProject inserts a new project record
func (d *DB) CreateProject(ctx context.Context, project *model.Project) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO project (id, name, admin_id, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5)
	`, project.ID, project.Name, project.AdminID, project.CreatedAt, project.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", mapError(err))
	}
	return nil
}

// GetProject retrieves a project by ID
func (d *DB) GetProject(ctx context.Context, id string) (model.Project, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT id, name, COALESCE(admin_id::text, ''), created_at, updated_at
		FROM project WHERE id = $1
	`, id)

	var p model.Project
	if err := row.Scan(&p.ID, &p.Name, &p.AdminID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return model.Project{}, fmt.Errorf("failed to scan project: %w", mapError(err))
	}
	return p, nil
}

// UpdateProject overwrites a project record
func (d *DB) UpdateProject(ctx context.Context, project model.Project) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE project SET name = $2, admin_id = NULLIF($3, '')::uuid, updated_at = $4
		WHERE id = $1
	`, project.ID, project.Name, project.AdminID, project.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return nil
}

// DeleteProject removes a project and its remaining persons. Teams must
// already be gone; the dispatcher foreign key enforces the ordering.
func (d *DB) DeleteProject(ctx context.Context, id string) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE project SET admin_id = NULL WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to clear project admin: %w", mapError(err))
	}
	if _, err := tx.Exec(ctx, `DELETE FROM person WHERE project_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete project persons: %w", mapError(err))
	}
	tag, err := tx.Exec(ctx, `DELETE FROM project WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return db.ErrNotFound
	}
	return tx.Commit(ctx)
}
