package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes recognized by Errors.Map.
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// Errors names the domain errors a repository maps database failures to.
// A nil field leaves the matching failure unmapped.
type Errors struct {
	NotFound  error
	Duplicate error
	Conflict  error
}

// Map translates a database error to a domain error. sql.ErrNoRows maps to
// NotFound, a unique violation to Duplicate, and serialization failures and
// deadlocks to Conflict. Other errors are returned unchanged.
func (e Errors) Map(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) && e.NotFound != nil {
		return e.NotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		if e.Duplicate != nil {
			return e.Duplicate
		}
	case pgSerializationFailure, pgDeadlockDetected:
		if e.Conflict != nil {
			return e.Conflict
		}
	}

	return err
}
