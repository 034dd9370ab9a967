// Package dataset defines the in-memory source data model shared by every
// pipeline stage. One Row corresponds to one order line item in the export;
// order identifiers repeat across rows (one order, many line items).
package dataset

import "time"

// Row is a single order line item from the source export.
type Row struct {
	OrderID   string
	OrderDate time.Time
	ShipDate  time.Time
	ShipMode  string

	CustomerID   string
	CustomerName string
	Segment      string

	Country string
	City    string
	State   string
	// PostalCode is nil when the export has no postal code for the row.
	PostalCode *string
	Region     string

	ProductID   string
	ProductName string
	Category    string
	SubCategory string

	Sales    float64
	Quantity int
	Discount float64
	Profit   float64
}

// Dataset is an ordered collection of source rows. Order matters:
// dimension deduplication is first-occurrence-wins in source order.
type Dataset []Row

// Closed enums declared by the source contract.
var (
	Segments   = []string{"Consumer", "Corporate", "Home Office"}
	Regions    = []string{"East", "West", "Central", "South"}
	Categories = []string{"Furniture", "Office Supplies", "Technology"}
)
