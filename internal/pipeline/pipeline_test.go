package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/retailops/retail-etl/internal/config"
	"github.com/retailops/retail-etl/internal/load"
	"github.com/retailops/retail-etl/internal/seed"
	"github.com/retailops/retail-etl/internal/testutil"
)

func TestPipelineEndToEnd(t *testing.T) {
	connStr := testutil.SkipIfNoPostgres(t)
	testConnStr := testutil.CreateTestDB(t, connStr, "pipeline")
	cleanup := testutil.NewTestCleanup(t, connStr, testutil.GetDBNameFromConnStr(testConnStr))
	defer cleanup.Cleanup()

	pool := testutil.ConnectTestDB(t, testConnStr)
	cleanup.SetPool(pool)

	ctx := context.Background()
	if err := load.CreateSchema(ctx, pool); err != nil {
		t.Fatalf("CreateSchema failed: %v", err)
	}

	csvPath := filepath.Join(t.TempDir(), "sample.csv")
	if err := seed.WriteCSV(csvPath, 300, 42); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.Connection = testConnStr
	cfg.CSVPath = csvPath

	p := New(cfg, pool)

	first, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if first.SourceRows != 300 {
		t.Errorf("source rows = %d, want 300", first.SourceRows)
	}
	if first.Counts.Facts != int64(first.SourceRows) {
		t.Errorf("fact rows = %d, want %d", first.Counts.Facts, first.SourceRows)
	}
	if !first.Validation.Passed() {
		t.Errorf("seeded data should validate: %+v", first.Validation.Violations)
	}
	if !first.Reconciliation.Passed {
		t.Errorf("reconciliation failed: %s", first.Reconciliation.Summary())
	}

	// Idempotence: an unchanged source reloads to identical row counts and
	// an identical reconciliation verdict.
	second, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if second.Counts != first.Counts {
		t.Errorf("counts changed across identical runs: %+v vs %+v",
			first.Counts, second.Counts)
	}
	if second.Reconciliation.Passed != first.Reconciliation.Passed {
		t.Error("reconciliation verdict changed across identical runs")
	}
}

func TestPipelineExtractFailureReturnsPartialReport(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Connection = "postgres://unused"
	cfg.CSVPath = filepath.Join(t.TempDir(), "does-not-exist.csv")

	report, err := New(cfg, nil).Run(context.Background())
	if err == nil {
		t.Fatal("expected extract failure")
	}
	if report == nil {
		t.Fatal("partial report must be returned on failure")
	}
	if report.SourceRows != 0 {
		t.Errorf("source rows = %d, want 0", report.SourceRows)
	}
	if report.Elapsed <= 0 {
		t.Error("elapsed must be recorded on failure")
	}
}
