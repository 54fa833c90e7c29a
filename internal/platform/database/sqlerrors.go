package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes relevant to the repositories.
const (
	pgUniqueViolation = "23505"
)

var (
	// ErrUniqueViolation is a storage-agnostic unique constraint violation.
	// Repositories return it instead of leaking driver errors upward.
	ErrUniqueViolation = errors.New("unique constraint violation")
)

// MapSQLError translates a pgx/pgconn error into a storage-agnostic error.
// Errors that cannot be classified are returned unchanged so integrity
// failures propagate instead of being masked.
func MapSQLError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgUniqueViolation {
			return ErrUniqueViolation
		}
	}
	return err
}

// IsUniqueViolation reports whether err is (or wraps) a unique constraint
// violation, either already mapped or still a raw driver error.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, ErrUniqueViolation) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
