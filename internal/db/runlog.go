//-------------------------------------------------------------------------
//
// salesdw - e-commerce data warehouse ETL
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"salesdw/internal/logging"
	"salesdw/internal/warehouse"
	"salesdw/pkg/version"
)

const runLogTable = "etl_run"

// createRunLogTableSQL creates the run history table if it doesn't exist.
const createRunLogTableSQL = `
CREATE TABLE IF NOT EXISTS etl_run (
    run_id             SERIAL PRIMARY KEY,
    started_at         TIMESTAMPTZ NOT NULL,
    finished_at        TIMESTAMPTZ NOT NULL,
    loader_version     TEXT NOT NULL,
    source_rows        INTEGER NOT NULL,
    facts_loaded       INTEGER NOT NULL,
    dimensions_loaded  INTEGER NOT NULL,
    parse_errors       INTEGER NOT NULL,
    validation_errors  INTEGER NOT NULL,
    persistence_errors INTEGER NOT NULL,
    duplicate_facts    INTEGER NOT NULL
)`

// SaveRunSummary appends one pipeline run to the run history table,
// creating the table on first use.
func SaveRunSummary(ctx context.Context, pool *pgxpool.Pool, summary *warehouse.RunSummary) error {
	if _, err := pool.Exec(ctx, createRunLogTableSQL); err != nil {
		return fmt.Errorf("failed to create run history table: %w", err)
	}

	_, err := pool.Exec(ctx, `
        INSERT INTO etl_run
            (started_at, finished_at, loader_version, source_rows,
             facts_loaded, dimensions_loaded, parse_errors,
             validation_errors, persistence_errors, duplicate_facts)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `, summary.StartedAt, summary.FinishedAt, version.Short(),
		summary.SourceRows, summary.FactsLoaded(), summary.DimensionsLoaded(),
		summary.ParseErrors, summary.ValidationErrors,
		summary.PersistenceErrors, summary.DuplicateFacts)
	if err != nil {
		return fmt.Errorf("failed to save run summary: %w", err)
	}

	logging.Debug().
		Int("facts_loaded", summary.FactsLoaded()).
		Msg("Saved run summary")

	return nil
}

// RunRecord is one row of the run history table.
type RunRecord struct {
	RunID             int
	StartedAt         string
	FinishedAt        string
	LoaderVersion     string
	SourceRows        int
	FactsLoaded       int
	DimensionsLoaded  int
	ParseErrors       int
	ValidationErrors  int
	PersistenceErrors int
	DuplicateFacts    int
}

// RecentRuns returns the latest n runs, newest first. An empty result is
// not an error; the table may not exist before the first load.
func RecentRuns(ctx context.Context, pool *pgxpool.Pool, n int) ([]RunRecord, error) {
	var exists bool
	err := pool.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM information_schema.tables
            WHERE table_name = $1
        )`, runLogTable).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	rows, err := pool.Query(ctx, `
        SELECT run_id, started_at::TEXT, finished_at::TEXT, loader_version,
               source_rows, facts_loaded, dimensions_loaded, parse_errors,
               validation_errors, persistence_errors, duplicate_facts
        FROM etl_run
        ORDER BY run_id DESC
        LIMIT $1`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.RunID, &r.StartedAt, &r.FinishedAt,
			&r.LoaderVersion, &r.SourceRows, &r.FactsLoaded,
			&r.DimensionsLoaded, &r.ParseErrors, &r.ValidationErrors,
			&r.PersistenceErrors, &r.DuplicateFacts); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DropRunLog drops the run history table.
func DropRunLog(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", runLogTable))
	return err
}
