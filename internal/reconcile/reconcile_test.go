package reconcile

import (
	"strings"
	"testing"

	"github.com/retailops/retail-etl/internal/dataset"
)

func TestSourceTotals(t *testing.T) {
	ds := dataset.Dataset{
		{Sales: 10.00, Profit: 1, Quantity: 2},
		{Sales: 20.00, Profit: 2, Quantity: 3},
		{Sales: 30.005, Profit: -1, Quantity: 5},
	}

	totals := SourceTotals(ds)

	if totals.Rows != 3 {
		t.Errorf("rows = %d, want 3", totals.Rows)
	}
	if totals.Quantity != 10 {
		t.Errorf("quantity = %d, want 10", totals.Quantity)
	}
	if totals.Sales < 60.004 || totals.Sales > 60.006 {
		t.Errorf("sales = %f, want ~60.005", totals.Sales)
	}
	if totals.Profit != 2 {
		t.Errorf("profit = %f, want 2", totals.Profit)
	}
}

func TestCompareWithinTolerance(t *testing.T) {
	source := Totals{Sales: 60.005, Profit: 2, Rows: 3, Quantity: 10}
	loaded := Totals{Sales: 60.00, Profit: 2, Rows: 3, Quantity: 10}

	report := Compare(source, loaded, 1.0)

	if !report.Passed {
		t.Fatalf("expected pass, got %s", report.Summary())
	}
	for _, m := range report.Metrics {
		if !m.Passed {
			t.Errorf("metric %s failed: delta %f", m.Name, m.Delta)
		}
	}
}

func TestCompareBeyondTolerance(t *testing.T) {
	source := Totals{Sales: 60.00, Profit: 2, Rows: 3, Quantity: 10}
	loaded := Totals{Sales: 55.00, Profit: 2, Rows: 3, Quantity: 10}

	report := Compare(source, loaded, 1.0)

	if report.Passed {
		t.Fatal("expected mismatch for 5.00 sales delta under tolerance 1")
	}
	if !strings.Contains(report.Summary(), "total_sales") {
		t.Errorf("summary should name the failed metric: %s", report.Summary())
	}
}

func TestCompareExactMetrics(t *testing.T) {
	tests := []struct {
		name   string
		loaded Totals
	}{
		{"row count off by one", Totals{Sales: 60, Profit: 2, Rows: 4, Quantity: 10}},
		{"quantity off by one", Totals{Sales: 60, Profit: 2, Rows: 3, Quantity: 11}},
	}

	source := Totals{Sales: 60, Profit: 2, Rows: 3, Quantity: 10}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Exact metrics tolerate no delta at all, whatever the tolerance.
			if report := Compare(source, tt.loaded, 100); report.Passed {
				t.Error("expected mismatch")
			}
		})
	}
}

func TestCompareOverallVerdictIsANDOfAllFour(t *testing.T) {
	source := Totals{Sales: 60, Profit: 2, Rows: 3, Quantity: 10}
	loaded := Totals{Sales: 60, Profit: 50, Rows: 3, Quantity: 10}

	report := Compare(source, loaded, 1.0)

	if report.Passed {
		t.Fatal("one failed metric must fail the run")
	}
	var failed int
	for _, m := range report.Metrics {
		if !m.Passed {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("failed metrics = %d, want 1", failed)
	}
}
