package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/msomdec/quill/internal/domain"
)

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// queryStrings runs a single-column query and collects the results.
// The returned slice is never nil.
func queryStrings(ctx context.Context, q querier, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// requireRow returns domain.ErrNotFound when query yields no rows.
func requireRow(ctx context.Context, q querier, query string, args ...any) error {
	var one int
	err := q.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

// toggleMembership deletes the (a, b) pair and, if nothing was deleted,
// inserts it. It must run inside a transaction. Reports whether the pair
// is present afterwards.
func toggleMembership(ctx context.Context, tx *sql.Tx, deleteSQL, insertSQL string, a, b string) (bool, error) {
	result, err := tx.ExecContext(ctx, deleteSQL, a, b)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if _, err := tx.ExecContext(ctx, insertSQL, a, b, time.Now().UTC()); err != nil {
		return false, err
	}
	return true, nil
}
