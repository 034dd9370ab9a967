package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/retailops/retail-etl/internal/db"
	"github.com/retailops/retail-etl/internal/pipeline"
)

var (
	runLoadTimeout int
	runTolerance   float64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full ETL pipeline against an initialized warehouse",
	Long: `Execute one complete pipeline run: extract the CSV, validate and audit
it, build the keyed dimensions and facts, replace the warehouse contents in
a single transaction, and reconcile the loaded aggregates against the
source.

Schema violations, quality findings and reconciliation mismatches are
reported but never abort the run; extract and load failures do.

Example:
  retail-etl run --csv Superstore_data.csv --connection "postgres://..."`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVar(&runLoadTimeout, "load-timeout", 0,
		"load phase timeout in seconds")
	runCmd.Flags().Float64Var(&runTolerance, "tolerance", 0,
		"reconciliation tolerance for sales/profit sums")
}

func runRun(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if runLoadTimeout > 0 {
		cfg.Load.TimeoutSeconds = runLoadTimeout
	}
	if runTolerance > 0 {
		cfg.Reconcile.Tolerance = runTolerance
	}

	if err := cfg.ValidateRun(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	report, runErr := pipeline.New(cfg, pool).Run(ctx)

	// The partial report is printed even when the run failed.
	printReport(cmd, report)

	return runErr
}

func printReport(cmd *cobra.Command, report *pipeline.RunReport) {
	if report == nil {
		return
	}
	cmd.Println()
	cmd.Println("Run summary:")
	cmd.Printf("  source rows:    %d\n", report.SourceRows)
	cmd.Printf("  validation:     %s\n", report.Validation.Summary())
	if report.Quality != nil {
		cmd.Printf("  quality:        %s\n", report.Quality.String())
	}
	cmd.Printf("  loaded:         customers=%d products=%d locations=%d dates=%d facts=%d\n",
		report.Counts.Customers, report.Counts.Products, report.Counts.Locations,
		report.Counts.Dates, report.Counts.Facts)
	if len(report.Reconciliation.Metrics) > 0 {
		cmd.Printf("  reconciliation: %s\n", report.Reconciliation.Summary())
		for _, m := range report.Reconciliation.Metrics {
			cmd.Printf("    %-15s source=%.4f loaded=%.4f delta=%.4f passed=%t\n",
				m.Name, m.Source, m.Loaded, m.Delta, m.Passed)
		}
	}
	cmd.Printf("  elapsed:        %s\n", report.Elapsed)
}
