package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hccplan/dispo/pkg/db"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// mapError translates driver errors into the shared store error kinds
// so callers never match on SQLSTATE.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return db.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return db.ErrUniqueness
		case pgForeignKeyViolation:
			return db.ErrNotFound
		case pgCheckViolation:
			return db.ErrInvariant
		}
	}
	return err
}
