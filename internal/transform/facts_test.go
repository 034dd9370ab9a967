package transform

import (
	"testing"

	"github.com/retailops/retail-etl/internal/dataset"
)

func TestBuildFactsRowCountEqualsSourceRowCount(t *testing.T) {
	var ds dataset.Dataset
	for i := 0; i < 25; i++ {
		ds = append(ds, baseRow()) // exact duplicates are never deduplicated
	}

	dims := BuildDimensions(ds)
	facts := BuildFacts(ds, dims)

	if len(facts) != len(ds) {
		t.Fatalf("facts = %d, want %d", len(facts), len(ds))
	}
}

func TestBuildFactsResolvesAllKeys(t *testing.T) {
	row := baseRow()
	ds := dataset.Dataset{row}

	facts := BuildFacts(ds, BuildDimensions(ds))

	f := facts[0]
	if f.CustomerKey == nil || *f.CustomerKey != 1 {
		t.Errorf("customer key = %v, want 1", f.CustomerKey)
	}
	if f.ProductKey == nil || *f.ProductKey != 1 {
		t.Errorf("product key = %v, want 1", f.ProductKey)
	}
	if f.LocationKey == nil || *f.LocationKey != 1 {
		t.Errorf("location key = %v, want 1", f.LocationKey)
	}
	if f.OrderDateKey == nil || *f.OrderDateKey != 1 {
		t.Errorf("order date key = %v, want 1", f.OrderDateKey)
	}
	if f.ShipDateKey == nil || *f.ShipDateKey != 2 {
		t.Errorf("ship date key = %v, want 2", f.ShipDateKey)
	}
	if f.OrderID != row.OrderID || f.Sales != row.Sales || f.Quantity != row.Quantity {
		t.Errorf("measures not carried over: %+v", f)
	}
}

func TestBuildFactsUnresolvedKeysAreNil(t *testing.T) {
	row := baseRow()
	ds := dataset.Dataset{row}

	// Dimensions built from a different dataset: nothing resolves, yet the
	// row is still emitted with nil foreign keys.
	other := baseRow()
	other.CustomerID = "ZZ-99999"
	other.ProductID = "OFF-BI-999999"
	other.City = "Portland"
	other.OrderDate = date(2020, 1, 1)
	other.ShipDate = date(2020, 1, 2)
	dims := BuildDimensions(dataset.Dataset{other})

	facts := BuildFacts(ds, dims)

	if len(facts) != 1 {
		t.Fatalf("facts = %d, want 1", len(facts))
	}
	f := facts[0]
	if f.CustomerKey != nil || f.ProductKey != nil || f.LocationKey != nil {
		t.Errorf("expected nil dimension keys, got %+v", f)
	}
	if f.OrderDateKey != nil || f.ShipDateKey != nil {
		t.Errorf("expected nil date keys, got %+v", f)
	}
}

func TestBuildFactsLocationJoinUsesFullTuple(t *testing.T) {
	a := baseRow()
	b := baseRow()
	b.State = "Oregon" // same postal+city, different state -> distinct location
	ds := dataset.Dataset{a, b}

	dims := BuildDimensions(ds)
	if len(dims.Locations) != 2 {
		t.Fatalf("locations = %d, want 2", len(dims.Locations))
	}

	facts := BuildFacts(ds, dims)
	if *facts[0].LocationKey == *facts[1].LocationKey {
		t.Errorf("facts bound to the same location despite differing tuples")
	}
	if *facts[0].LocationKey != 1 || *facts[1].LocationKey != 2 {
		t.Errorf("facts bound to wrong locations: %d, %d",
			*facts[0].LocationKey, *facts[1].LocationKey)
	}
}
