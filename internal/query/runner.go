package query

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	errx "github.com/trade-chatbot/server/internal/core/error"
	"github.com/trade-chatbot/server/internal/intent"
)

// Row is one result row keyed by column name.
type Row map[string]any

// Runner executes a built query and returns its rows.
type Runner interface {
	Query(ctx context.Context, sql string, args []any) ([]Row, error)
}

// PoolRunner runs queries against the statistics database through a shared
// pgx pool. The pool is created at process start and owned by main.
type PoolRunner struct {
	pool *pgxpool.Pool
}

func NewPoolRunner(pool *pgxpool.Pool) *PoolRunner {
	return &PoolRunner{pool: pool}
}

// Query executes sql and materialises at most MaxTopN rows as column maps.
func (r *PoolRunner) Query(ctx context.Context, sql string, args []any) ([]Row, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, errx.WrapDB(err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []Row
	for rows.Next() {
		if len(out) >= intent.MaxTopN {
			break
		}
		vals, err := rows.Values()
		if err != nil {
			return nil, errx.WrapDB(err)
		}
		row := make(Row, len(fields))
		for i, f := range fields {
			row[string(f.Name)] = vals[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errx.WrapDB(err)
	}
	return out, nil
}

var _ Runner = (*PoolRunner)(nil)

// ResolveLatest finds the most recent (year, month) available in a view.
// Returns zeros without error when the view is empty; callers surface that
// through the no_data path.
func ResolveLatest(ctx context.Context, r Runner, view string) (int, int, error) {
	rows, err := r.Query(ctx, BuildLatestPeriod(view), nil)
	if err != nil {
		return 0, 0, err
	}
	if len(rows) == 0 {
		return 0, 0, nil
	}
	return AsInt(rows[0]["year"]), AsInt(rows[0]["month"]), nil
}
