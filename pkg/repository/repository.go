// Package repository runs typed SQL against database/sql handles and maps
// Postgres failures onto domain errors.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// DB is the part of *sql.DB, *sql.Tx and *sql.Conn the helpers run against,
// so the same repository code works inside and outside a transaction.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Row is satisfied by *sql.Row and *sql.Rows.
type Row interface {
	Scan(dest ...any) error
}

// ScanFunc reads one entity from a row.
type ScanFunc[T any] func(Row) (T, error)

// Tx runs fn in a transaction opened with opts (nil for driver defaults).
// The transaction commits only when fn succeeds; a failed rollback is joined
// onto fn's error.
func Tx[T any](ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(*sql.Tx) (T, error)) (T, error) {
	var zero T

	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return zero, fmt.Errorf("begin transaction: %w", err)
	}

	result, err := fn(tx)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return zero, err
	}

	if err := tx.Commit(); err != nil {
		return zero, fmt.Errorf("commit transaction: %w", err)
	}
	return result, nil
}

// One scans the single row query returns. A missing row surfaces as
// sql.ErrNoRows from scan.
func One[T any](ctx context.Context, db DB, scan ScanFunc[T], query string, args ...any) (T, error) {
	return scan(db.QueryRowContext(ctx, query, args...))
}

// All scans every row query returns, yielding an empty (non-nil) slice when
// there are none.
func All[T any](ctx context.Context, db DB, scan ScanFunc[T], query string, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Scalar reads the first column of a single-row result, such as a COUNT(*)
// or an EXISTS probe.
func Scalar[T any](ctx context.Context, db DB, query string, args ...any) (T, error) {
	var v T
	err := db.QueryRowContext(ctx, query, args...).Scan(&v)
	return v, err
}

// ExecOne runs a statement that must touch exactly one row and reports
// sql.ErrNoRows when it touched none.
func ExecOne(ctx context.Context, db DB, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	switch {
	case err != nil:
		return err
	case n == 0:
		return sql.ErrNoRows
	}
	return nil
}
