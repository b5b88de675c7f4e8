package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned on unique or foreign-key violations, e.g. a
	// concurrent snapshot racing for the same (idea_id, version).
	ErrConflict = errors.New("storage conflict")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// mapPgError converts constraint violations to ErrConflict and leaves other
// errors untouched so callers can distinguish conflicts from outages.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgForeignKeyViolation, pgCheckViolation:
			return ErrConflict
		}
	}
	return err
}
