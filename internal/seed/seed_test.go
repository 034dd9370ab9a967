package seed

import (
	"path/filepath"
	"reflect"
	"slices"
	"testing"

	"github.com/retailops/retail-etl/internal/dataset"
	"github.com/retailops/retail-etl/internal/extract"
	"github.com/retailops/retail-etl/internal/validate"
)

func TestGenerateRowCount(t *testing.T) {
	for _, n := range []int{1, 10, 137} {
		if got := len(Generate(n, 42)); got != n {
			t.Errorf("Generate(%d) produced %d rows", n, got)
		}
	}
}

func TestGenerateDeterministicWithSeed(t *testing.T) {
	a := Generate(100, 42)
	b := Generate(100, 42)

	if !reflect.DeepEqual(a, b) {
		t.Error("same seed produced different output")
	}
}

func TestGenerateRoundTripsThroughExtractAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.csv")
	if err := WriteCSV(path, 200, 7); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	ds, err := extract.ReadCSV(path)
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if len(ds) != 200 {
		t.Fatalf("rows = %d, want 200", len(ds))
	}

	if report := validate.Validate(ds); !report.Passed() {
		t.Errorf("seeded data should satisfy the contract, got %+v", report.Violations[:min(5, len(report.Violations))])
	}

	for i, row := range ds {
		if !slices.Contains(dataset.Segments, row.Segment) {
			t.Fatalf("row %d: bad segment %q", i, row.Segment)
		}
		if !slices.Contains(dataset.Categories, row.Category) {
			t.Fatalf("row %d: bad category %q", i, row.Category)
		}
		if row.ShipDate.Before(row.OrderDate) {
			t.Fatalf("row %d: ship date %v before order date %v", i, row.ShipDate, row.OrderDate)
		}
	}
}

func TestGenerateRepeatsNaturalKeys(t *testing.T) {
	records := Generate(500, 42)

	customers := make(map[string]struct{})
	for _, rec := range records {
		customers[rec[5]] = struct{}{}
	}
	// Customers are drawn from a pool of ~n/8, so repeats must occur.
	if len(customers) >= 500 {
		t.Errorf("expected repeated customers, got %d distinct in 500 rows", len(customers))
	}
}
