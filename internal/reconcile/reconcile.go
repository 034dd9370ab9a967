// Package reconcile verifies a completed load by recomputing aggregate
// metrics from the in-memory source and from the persisted warehouse, and
// comparing them under a tolerance. It is a detection mechanism only: a
// mismatch is reported, never rolled back.
package reconcile

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/retailops/retail-etl/internal/dataset"
	"github.com/retailops/retail-etl/internal/db"
)

// Totals holds the four scalar aggregates compared by reconciliation.
type Totals struct {
	Sales    float64
	Profit   float64
	Rows     int64
	Quantity int64
}

// Metric is one compared aggregate.
type Metric struct {
	Name   string
	Source float64
	Loaded float64
	Delta  float64
	// Exact metrics must match exactly; others within the tolerance.
	Exact  bool
	Passed bool
}

// Report is the outcome of a reconciliation pass.
type Report struct {
	Tolerance float64
	Metrics   []Metric
	Passed    bool
}

// Summary returns a one-line human-readable verdict.
func (r Report) Summary() string {
	if r.Passed {
		return "all reconciliation metrics within tolerance"
	}
	var failed []string
	for _, m := range r.Metrics {
		if !m.Passed {
			failed = append(failed, fmt.Sprintf("%s (delta %.4f)", m.Name, m.Delta))
		}
	}
	return "reconciliation mismatch: " + strings.Join(failed, ", ")
}

// SourceTotals recomputes the aggregates directly from the source dataset.
func SourceTotals(ds dataset.Dataset) Totals {
	var t Totals
	t.Rows = int64(len(ds))
	for _, row := range ds {
		t.Sales += row.Sales
		t.Profit += row.Profit
		t.Quantity += int64(row.Quantity)
	}
	return t
}

// LoadedTotals recomputes the aggregates from the persisted warehouse via
// the pre-aggregated KPI view plus a fact row count.
func LoadedTotals(ctx context.Context, q db.Querier) (Totals, error) {
	var t Totals

	err := q.QueryRow(ctx, `
        SELECT total_sales, total_profit, total_quantity FROM vw_overall_kpis
    `).Scan(&t.Sales, &t.Profit, &t.Quantity)
	if err != nil {
		return t, fmt.Errorf("failed to read kpi view: %w", err)
	}

	err = q.QueryRow(ctx, `SELECT COUNT(*) FROM fact_orders`).Scan(&t.Rows)
	if err != nil {
		return t, fmt.Errorf("failed to count fact rows: %w", err)
	}

	return t, nil
}

// Compare evaluates source against loaded totals. Sales and profit sums
// match within tolerance (absorbing floating-point drift); row count and
// quantity sum must match exactly. The overall verdict is the AND of all
// four.
func Compare(source, loaded Totals, tolerance float64) Report {
	report := Report{Tolerance: tolerance}

	report.Metrics = []Metric{
		approx("total_sales", source.Sales, loaded.Sales, tolerance),
		approx("total_profit", source.Profit, loaded.Profit, tolerance),
		exact("row_count", source.Rows, loaded.Rows),
		exact("total_quantity", source.Quantity, loaded.Quantity),
	}

	report.Passed = true
	for _, m := range report.Metrics {
		if !m.Passed {
			report.Passed = false
			break
		}
	}

	return report
}

func approx(name string, source, loaded, tolerance float64) Metric {
	delta := math.Abs(source - loaded)
	return Metric{
		Name:   name,
		Source: source,
		Loaded: loaded,
		Delta:  delta,
		Passed: delta < tolerance,
	}
}

func exact(name string, source, loaded int64) Metric {
	return Metric{
		Name:   name,
		Source: float64(source),
		Loaded: float64(loaded),
		Delta:  math.Abs(float64(source - loaded)),
		Exact:  true,
		Passed: source == loaded,
	}
}
