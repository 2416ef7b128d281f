package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"salesdw/internal/db"
	"salesdw/internal/etl"
	"salesdw/internal/logging"
	"salesdw/internal/warehouse"
)

var (
	loadBatchSize   int
	loadSkipRefresh bool
	loadSkipRunLog  bool
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Run the ETL pipeline",
	Long: `Read the source files from the data directory, clean them, resolve
dimension surrogate keys and load the sales facts into the warehouse.

Re-running the load is safe: dimension rows and facts already present are
skipped, not duplicated. After a successful load the materialized view is
refreshed and the run is appended to the run history table.

Example:
  salesdw load --connection "postgres://..." --data-dir ./data`,
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().IntVar(&loadBatchSize, "batch-size", 0,
		"fact rows per batched insert")
	loadCmd.Flags().BoolVar(&loadSkipRefresh, "skip-refresh", false,
		"do not refresh the materialized view after loading")
	loadCmd.Flags().BoolVar(&loadSkipRunLog, "skip-run-log", false,
		"do not record this run in the run history table")
}

func runLoad(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if loadBatchSize > 0 {
		cfg.Load.BatchSize = loadBatchSize
	}
	if loadSkipRefresh {
		cfg.Load.RefreshViews = false
	}

	if err := cfg.ValidateLoad(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	pipeline := &etl.Pipeline{
		DB:        pool,
		DataDir:   cfg.DataDir,
		BatchSize: cfg.Load.BatchSize,
	}

	summary, err := pipeline.Run(ctx)
	if err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}
	summary.Log()

	if cfg.Load.RefreshViews {
		logging.Info().Msg("Refreshing materialized view")
		if err := warehouse.RefreshViews(ctx, pool); err != nil {
			return fmt.Errorf("failed to refresh views: %w", err)
		}
	}

	if !loadSkipRunLog {
		if err := db.SaveRunSummary(ctx, pool, summary); err != nil {
			return fmt.Errorf("failed to save run summary: %w", err)
		}
	}

	return nil
}
