package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"salesdw/internal/db"
	"salesdw/internal/report"
)

var (
	reportOutput      string
	reportTopProducts int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the HTML dashboard",
	Long: `Run the aggregation queries against the warehouse and render a
static HTML dashboard with inline SVG charts: revenue by category, the
monthly trend, the regional distribution, top products, customer segment
mix and quarterly performance.

Example:
  salesdw report --connection "postgres://..." --output dashboard.html`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportOutput, "output", "",
		"path of the rendered HTML file")
	reportCmd.Flags().IntVar(&reportTopProducts, "top-products", 0,
		"number of products in the top-products chart")
}

func runReport(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if reportOutput != "" {
		cfg.Report.Output = reportOutput
	}
	if reportTopProducts > 0 {
		cfg.Report.TopProducts = reportTopProducts
	}

	if err := cfg.ValidateReport(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	data, err := report.Gather(ctx, pool, cfg.Report.TopProducts)
	if err != nil {
		return fmt.Errorf("failed to query warehouse: %w", err)
	}

	return report.WriteFile(cfg.Report.Output, data)
}
