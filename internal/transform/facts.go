package transform

import (
	"github.com/retailops/retail-etl/internal/dataset"
)

// FactRow is one row of fact_orders: one per source row, never
// deduplicated. Foreign keys are nullable: a natural key that fails to
// resolve against its dimension leaves the key nil rather than rejecting
// the row.
type FactRow struct {
	OrderID      string
	OrderDateKey *int64
	ShipDateKey  *int64
	CustomerKey  *int64
	ProductKey   *int64
	LocationKey  *int64
	Sales        float64
	Quantity     int
	Discount     float64
	Profit       float64
	ShipMode     string
}

// BuildFacts joins every source row against the keyed dimensions. Left-join
// semantics: the output always has exactly one row per input row. The
// location join uses the same full-tuple key the dimension deduplicates on,
// so a fact row always binds to the location row derived from it.
func BuildFacts(ds dataset.Dataset, dims Dimensions) []FactRow {
	customers := make(map[string]int64, len(dims.Customers))
	for _, c := range dims.Customers {
		customers[c.CustomerID] = c.Key
	}
	products := make(map[string]int64, len(dims.Products))
	for _, p := range dims.Products {
		products[p.ProductID] = p.Key
	}
	locations := make(map[locationKey]int64, len(dims.Locations))
	for _, l := range dims.Locations {
		locations[locKeyOf(l.PostalCode, l.City, l.State, l.Region, l.Country)] = l.Key
	}
	dates := make(map[string]int64, len(dims.Dates))
	for _, d := range dims.Dates {
		dates[dateKey(d.Date)] = d.Key
	}

	facts := make([]FactRow, 0, len(ds))
	for _, row := range ds {
		fact := FactRow{
			OrderID:  row.OrderID,
			Sales:    row.Sales,
			Quantity: row.Quantity,
			Discount: row.Discount,
			Profit:   row.Profit,
			ShipMode: row.ShipMode,
		}

		if key, ok := customers[row.CustomerID]; ok {
			fact.CustomerKey = &key
		}
		if key, ok := products[row.ProductID]; ok {
			fact.ProductKey = &key
		}
		if key, ok := locations[locKeyOf(row.PostalCode, row.City, row.State, row.Region, row.Country)]; ok {
			fact.LocationKey = &key
		}
		if key, ok := dates[dateKey(row.OrderDate)]; ok {
			fact.OrderDateKey = &key
		}
		if key, ok := dates[dateKey(row.ShipDate)]; ok {
			fact.ShipDateKey = &key
		}

		facts = append(facts, fact)
	}

	return facts
}
