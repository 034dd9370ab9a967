// Package pipeline orchestrates the full ETL run:
// extract -> validate -> audit -> transform -> load -> reconcile.
//
// Validation findings, quality metrics and reconciliation mismatches are
// reported but never abort the run; extract and load failures do.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/retailops/retail-etl/internal/config"
	"github.com/retailops/retail-etl/internal/extract"
	"github.com/retailops/retail-etl/internal/load"
	"github.com/retailops/retail-etl/internal/logging"
	"github.com/retailops/retail-etl/internal/quality"
	"github.com/retailops/retail-etl/internal/reconcile"
	"github.com/retailops/retail-etl/internal/transform"
	"github.com/retailops/retail-etl/internal/validate"
)

// RunReport aggregates the sub-reports of one pipeline run. On a fatal
// error the report carries whatever stages completed before the failure.
type RunReport struct {
	SourceRows     int
	Validation     validate.Report
	Quality        quality.Report
	Counts         load.Counts
	Reconciliation reconcile.Report
	Elapsed        time.Duration
}

// Pipeline drives a single full-reload run against one warehouse.
type Pipeline struct {
	cfg  *config.Config
	pool *pgxpool.Pool
}

// New creates a pipeline. Configuration is passed in explicitly; the
// pipeline holds no process-global state.
func New(cfg *config.Config, pool *pgxpool.Pool) *Pipeline {
	return &Pipeline{cfg: cfg, pool: pool}
}

// Run executes the pipeline end to end and returns the run report. The
// returned report is non-nil even on error, holding the partial results
// produced before the failure.
func (p *Pipeline) Run(ctx context.Context) (*RunReport, error) {
	start := time.Now()
	report := &RunReport{}

	// Extract
	ds, err := extract.ReadCSV(p.cfg.CSVPath)
	if err != nil {
		report.Elapsed = time.Since(start)
		return report, err
	}
	report.SourceRows = len(ds)

	// Validate: observe, don't block. The dataset continues unmodified.
	report.Validation = validate.Validate(ds)
	if report.Validation.Passed() {
		logging.Info().Int("rows", len(ds)).Msg("Schema validation passed")
	} else {
		logging.Warn().
			Int("violations", len(report.Validation.Violations)).
			Msg("Schema validation found violations; continuing with unmodified data")
	}

	// Audit: advisory only.
	report.Quality = quality.Audit(ds)
	logging.Info().Str("metrics", report.Quality.String()).Msg("Quality audit complete")

	// Transform: dimensions carry their surrogate keys out of the builder,
	// so the fact builder and loader never read keys back from the store.
	dims := transform.BuildDimensions(ds)
	facts := transform.BuildFacts(ds, dims)
	logging.Info().
		Int("customers", len(dims.Customers)).
		Int("products", len(dims.Products)).
		Int("locations", len(dims.Locations)).
		Int("dates", len(dims.Dates)).
		Int("facts", len(facts)).
		Msg("Transform complete")

	// Load: bounded by a deadline since it truncates live tables under an
	// advisory lock.
	loadCtx, cancel := context.WithTimeout(ctx,
		time.Duration(p.cfg.Load.TimeoutSeconds)*time.Second)
	defer cancel()

	report.Counts, err = load.NewLoader(p.pool).Load(loadCtx, dims, facts)
	if err != nil {
		report.Elapsed = time.Since(start)
		return report, fmt.Errorf("load failed: %w", err)
	}

	// Reconcile: detection only, after the load has committed.
	loaded, err := reconcile.LoadedTotals(ctx, p.pool)
	if err != nil {
		report.Elapsed = time.Since(start)
		return report, fmt.Errorf("reconciliation query failed: %w", err)
	}
	report.Reconciliation = reconcile.Compare(
		reconcile.SourceTotals(ds), loaded, p.cfg.Reconcile.Tolerance)

	if report.Reconciliation.Passed {
		logging.Info().Msg("Reconciliation passed")
	} else {
		logging.Warn().Str("detail", report.Reconciliation.Summary()).
			Msg("Reconciliation mismatch; load is committed, verdict is advisory")
	}

	report.Elapsed = time.Since(start)
	logging.Info().
		Dur("elapsed", report.Elapsed).
		Int("source_rows", report.SourceRows).
		Int64("fact_rows", report.Counts.Facts).
		Bool("reconciled", report.Reconciliation.Passed).
		Msg("Pipeline run complete")

	return report, nil
}
