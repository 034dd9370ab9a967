package load

import (
	"context"
	"testing"
	"time"

	"github.com/retailops/retail-etl/internal/dataset"
	"github.com/retailops/retail-etl/internal/reconcile"
	"github.com/retailops/retail-etl/internal/testutil"
	"github.com/retailops/retail-etl/internal/transform"
)

func str(s string) *string { return &s }

func sampleDataset(rows int) dataset.Dataset {
	var ds dataset.Dataset
	for i := 0; i < rows; i++ {
		order := time.Date(2023, 5, 1+i%20, 0, 0, 0, 0, time.UTC)
		row := dataset.Row{
			OrderID:      "US-2023-" + string(rune('A'+i%7)),
			OrderDate:    order,
			ShipDate:     order.AddDate(0, 0, 3),
			ShipMode:     "Standard Class",
			CustomerID:   "C-" + string(rune('A'+i%3)),
			CustomerName: "Customer " + string(rune('A'+i%3)),
			Segment:      dataset.Segments[i%3],
			Country:      "United States",
			City:         "Seattle",
			State:        "Washington",
			PostalCode:   str("98101"),
			Region:       dataset.Regions[i%4],
			ProductID:    "P-" + string(rune('A'+i%5)),
			ProductName:  "Product " + string(rune('A'+i%5)),
			Category:     dataset.Categories[i%3],
			SubCategory:  "Misc",
			Sales:        float64(10 * (i + 1)),
			Quantity:     1 + i%4,
			Discount:     0.1,
			Profit:       float64(i) - 2,
		}
		ds = append(ds, row)
	}
	return ds
}

func setupWarehouse(t *testing.T) *testutil.TestCleanup {
	t.Helper()

	connStr := testutil.SkipIfNoPostgres(t)
	testConnStr := testutil.CreateTestDB(t, connStr, "load")
	cleanup := testutil.NewTestCleanup(t, connStr, testutil.GetDBNameFromConnStr(testConnStr))

	pool := testutil.ConnectTestDB(t, testConnStr)
	cleanup.SetPool(pool)

	if err := CreateSchema(context.Background(), pool); err != nil {
		cleanup.Cleanup()
		t.Fatalf("CreateSchema failed: %v", err)
	}

	return cleanup
}

func factCount(t *testing.T, tc *testutil.TestCleanup, ctx context.Context) int64 {
	t.Helper()
	var n int64
	if err := tc.Pool().QueryRow(ctx, "SELECT COUNT(*) FROM fact_orders").Scan(&n); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	return n
}

func TestLoaderFullReplace(t *testing.T) {
	tc := setupWarehouse(t)
	defer tc.Cleanup()
	ctx := context.Background()

	first := sampleDataset(40)
	dims := transform.BuildDimensions(first)
	facts := transform.BuildFacts(first, dims)

	counts, err := NewLoader(tc.Pool()).Load(ctx, dims, facts)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if counts.Facts != int64(len(first)) {
		t.Errorf("fact count = %d, want %d", counts.Facts, len(first))
	}
	if got := factCount(t, tc, ctx); got != int64(len(first)) {
		t.Errorf("persisted facts = %d, want %d", got, len(first))
	}

	// A second run with a smaller snapshot replaces everything: the
	// warehouse describes exactly the latest input, not a merge.
	second := sampleDataset(10)
	dims2 := transform.BuildDimensions(second)
	facts2 := transform.BuildFacts(second, dims2)

	counts2, err := NewLoader(tc.Pool()).Load(ctx, dims2, facts2)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if counts2.Facts != int64(len(second)) {
		t.Errorf("fact count = %d, want %d", counts2.Facts, len(second))
	}
	if got := factCount(t, tc, ctx); got != int64(len(second)) {
		t.Errorf("persisted facts after reload = %d, want %d", got, len(second))
	}

	var minKey, maxKey int64
	err = tc.Pool().QueryRow(ctx,
		"SELECT MIN(customer_key), MAX(customer_key) FROM dim_customer").Scan(&minKey, &maxKey)
	if err != nil {
		t.Fatalf("key range query failed: %v", err)
	}
	if minKey != 1 || maxKey != int64(len(dims2.Customers)) {
		t.Errorf("customer keys [%d,%d], want [1,%d]", minKey, maxKey, len(dims2.Customers))
	}
}

func TestLoaderReconciles(t *testing.T) {
	tc := setupWarehouse(t)
	defer tc.Cleanup()
	ctx := context.Background()

	ds := sampleDataset(30)
	dims := transform.BuildDimensions(ds)
	facts := transform.BuildFacts(ds, dims)

	if _, err := NewLoader(tc.Pool()).Load(ctx, dims, facts); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	loaded, err := reconcile.LoadedTotals(ctx, tc.Pool())
	if err != nil {
		t.Fatalf("LoadedTotals failed: %v", err)
	}
	report := reconcile.Compare(reconcile.SourceTotals(ds), loaded, 1.0)
	if !report.Passed {
		t.Errorf("expected reconciliation pass: %s", report.Summary())
	}
}

func TestLoaderRollsBackOnFailure(t *testing.T) {
	tc := setupWarehouse(t)
	defer tc.Cleanup()
	ctx := context.Background()

	good := sampleDataset(20)
	dims := transform.BuildDimensions(good)
	facts := transform.BuildFacts(good, dims)

	if _, err := NewLoader(tc.Pool()).Load(ctx, dims, facts); err != nil {
		t.Fatalf("initial Load failed: %v", err)
	}

	// Poison one fact with a dangling foreign key. The copy fails on the
	// FK constraint and the whole reload rolls back.
	bad := transform.BuildFacts(good, dims)
	dangling := int64(9999)
	bad[0].CustomerKey = &dangling

	if _, err := NewLoader(tc.Pool()).Load(ctx, dims, bad); err == nil {
		t.Fatal("expected load failure for dangling foreign key")
	}

	if got := factCount(t, tc, ctx); got != int64(len(good)) {
		t.Errorf("prior snapshot not intact after failed reload: facts = %d, want %d",
			got, len(good))
	}
}

func TestLoaderNilForeignKeys(t *testing.T) {
	tc := setupWarehouse(t)
	defer tc.Cleanup()
	ctx := context.Background()

	ds := sampleDataset(5)
	dims := transform.BuildDimensions(ds)
	facts := transform.BuildFacts(ds, dims)
	// Unresolved natural keys surface as null columns, not rejected rows.
	facts[0].CustomerKey = nil
	facts[0].LocationKey = nil

	counts, err := NewLoader(tc.Pool()).Load(ctx, dims, facts)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if counts.Facts != int64(len(ds)) {
		t.Errorf("fact count = %d, want %d", counts.Facts, len(ds))
	}

	var nulls int64
	err = tc.Pool().QueryRow(ctx,
		"SELECT COUNT(*) FROM fact_orders WHERE customer_key IS NULL").Scan(&nulls)
	if err != nil {
		t.Fatalf("null count query failed: %v", err)
	}
	if nulls != 1 {
		t.Errorf("null customer keys = %d, want 1", nulls)
	}
}
