package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// New returns Queries bound to the given jobs table. An empty table means "jobs".
func New(db DBTX, table string) *Queries {
	if table == "" {
		table = DefaultJobsTable
	}
	return &Queries{
		db:      db,
		table:   table,
		queries: buildJobQueries(pgx.Identifier{table}.Sanitize()),
	}
}

type Queries struct {
	db      DBTX
	table   string
	queries jobQueries
}

func (q *Queries) Table() string {
	return q.table
}

type jobQueries struct {
	create     string
	get        string
	processing string
	completed  string
	failed     string
}

func buildJobQueries(table string) jobQueries {
	return jobQueries{
		create: fmt.Sprintf(`INSERT INTO %s (id, source_asset_id, target_asset_id, status)
VALUES ($1, $2, $3, 'pending')`, table),
		get: fmt.Sprintf(`SELECT id, source_asset_id, target_asset_id, status, result_asset_id, preview_asset_id, error_message, created_at, updated_at
FROM %s
WHERE id = $1`, table),
		processing: fmt.Sprintf(`UPDATE %s
SET status = 'processing', updated_at = NOW()
WHERE id = $1`, table),
		completed: fmt.Sprintf(`UPDATE %s
SET status = 'completed', result_asset_id = $2, preview_asset_id = $3, error_message = NULL, updated_at = NOW()
WHERE id = $1`, table),
		failed: fmt.Sprintf(`UPDATE %s
SET status = 'failed', error_message = $2, result_asset_id = NULL, preview_asset_id = NULL, updated_at = NOW()
WHERE id = $1`, table),
	}
}
