// Package transform reshapes the flat source dataset into a star schema:
// four conformed dimensions plus the order-line fact rows.
//
// Surrogate keys are assigned here, in memory, so the loader persists
// already-keyed rows and the fact builder never has to read keys back from
// the store mid-run. Keys start at 1 and are sequential within a run.
package transform

import (
	"sort"
	"time"

	"github.com/retailops/retail-etl/internal/dataset"
)

// CustomerRow is one row of dim_customer.
type CustomerRow struct {
	Key        int64
	CustomerID string
	Name       string
	Segment    string
}

// ProductRow is one row of dim_product.
type ProductRow struct {
	Key         int64
	ProductID   string
	Name        string
	Category    string
	SubCategory string
}

// LocationRow is one row of dim_location. There is no natural identifier
// column; the row itself (the full attribute tuple) is the natural key.
type LocationRow struct {
	Key        int64
	PostalCode *string
	City       string
	State      string
	Region     string
	Country    string
}

// DateRow is one row of dim_date. All attributes other than the date itself
// are pure calendar derivations (Gregorian, Monday-based week).
type DateRow struct {
	Key       int64
	Date      time.Time
	Year      int
	Quarter   int
	Month     int
	MonthName string
	Week      int
	DayOfWeek int
	DayName   string
	IsWeekend bool
}

// Dimensions bundles the four dimension tables with keys assigned.
type Dimensions struct {
	Customers []CustomerRow
	Products  []ProductRow
	Locations []LocationRow
	Dates     []DateRow
}

// BuildDimensions derives all four dimensions from the source dataset.
func BuildDimensions(ds dataset.Dataset) Dimensions {
	return Dimensions{
		Customers: BuildCustomerDim(ds),
		Products:  BuildProductDim(ds),
		Locations: BuildLocationDim(ds),
		Dates:     BuildDateDim(ds),
	}
}

// BuildCustomerDim deduplicates customers by customer id. The fold is an
// explicit first-occurrence-wins pass in source order: the first row seen
// for an id fixes the name and segment, later rows are ignored.
func BuildCustomerDim(ds dataset.Dataset) []CustomerRow {
	seen := make(map[string]struct{})
	var dim []CustomerRow

	for _, row := range ds {
		if _, ok := seen[row.CustomerID]; ok {
			continue
		}
		seen[row.CustomerID] = struct{}{}
		dim = append(dim, CustomerRow{
			Key:        int64(len(dim) + 1),
			CustomerID: row.CustomerID,
			Name:       row.CustomerName,
			Segment:    row.Segment,
		})
	}

	return dim
}

// BuildProductDim deduplicates products by product id, first occurrence
// wins. Later rows with the same id but different name or category are
// silently dropped, not merged or flagged.
func BuildProductDim(ds dataset.Dataset) []ProductRow {
	seen := make(map[string]struct{})
	var dim []ProductRow

	for _, row := range ds {
		if _, ok := seen[row.ProductID]; ok {
			continue
		}
		seen[row.ProductID] = struct{}{}
		dim = append(dim, ProductRow{
			Key:         int64(len(dim) + 1),
			ProductID:   row.ProductID,
			Name:        row.ProductName,
			Category:    row.Category,
			SubCategory: row.SubCategory,
		})
	}

	return dim
}

// locationKey is the composite natural key of a location: the full
// five-attribute tuple. A nil postal code is distinct from every literal
// value, so the same city with and without a postal code yields two rows.
type locationKey struct {
	hasPostal bool
	postal    string
	city      string
	state     string
	region    string
	country   string
}

func locKeyOf(postal *string, city, state, region, country string) locationKey {
	k := locationKey{city: city, state: state, region: region, country: country}
	if postal != nil {
		k.hasPostal = true
		k.postal = *postal
	}
	return k
}

// BuildLocationDim deduplicates locations on the full attribute tuple in
// source order.
func BuildLocationDim(ds dataset.Dataset) []LocationRow {
	seen := make(map[locationKey]struct{})
	var dim []LocationRow

	for _, row := range ds {
		key := locKeyOf(row.PostalCode, row.City, row.State, row.Region, row.Country)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		dim = append(dim, LocationRow{
			Key:        int64(len(dim) + 1),
			PostalCode: row.PostalCode,
			City:       row.City,
			State:      row.State,
			Region:     row.Region,
			Country:    row.Country,
		})
	}

	return dim
}

// BuildDateDim derives the date dimension from the union of all order dates
// and all ship dates. A date used only as a ship date still gets a row.
// Rows are sorted ascending by date and keyed in that order.
func BuildDateDim(ds dataset.Dataset) []DateRow {
	seen := make(map[string]time.Time)
	for _, row := range ds {
		seen[dateKey(row.OrderDate)] = row.OrderDate
		seen[dateKey(row.ShipDate)] = row.ShipDate
	}

	dates := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	dim := make([]DateRow, 0, len(dates))
	for i, d := range dates {
		dim = append(dim, newDateRow(int64(i+1), d))
	}

	return dim
}

func newDateRow(key int64, d time.Time) DateRow {
	_, week := d.ISOWeek()
	dow := mondayIndex(d.Weekday())
	return DateRow{
		Key:       key,
		Date:      d,
		Year:      d.Year(),
		Quarter:   (int(d.Month()) + 2) / 3,
		Month:     int(d.Month()),
		MonthName: d.Month().String(),
		Week:      week,
		DayOfWeek: dow,
		DayName:   d.Weekday().String(),
		IsWeekend: dow >= 5,
	}
}

// mondayIndex maps a weekday to the Monday=0..Sunday=6 convention.
func mondayIndex(w time.Weekday) int {
	return (int(w) + 6) % 7
}

func dateKey(d time.Time) string {
	return d.Format("2006-01-02")
}
