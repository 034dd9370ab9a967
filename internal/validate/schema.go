// Package validate checks a dataset against the declared column contract.
//
// Validation is observational: violations are collected and reported but the
// pipeline always proceeds with the unmodified dataset. No rows are dropped
// or corrected here.
package validate

import (
	"fmt"
	"slices"

	"github.com/retailops/retail-etl/internal/dataset"
)

// Kind is the declared type of a column.
type Kind int

const (
	KindString Kind = iota
	KindDate
	KindFloat
	KindInt
)

// Column declares the contract for one source column: its type, whether it
// may be null, and an optional value constraint (enum membership or a
// numeric range with open or closed bounds).
type Column struct {
	Name     string
	Kind     Kind
	Nullable bool

	// Enum lists allowed values; empty means unconstrained.
	Enum []string

	// Min/Max bound numeric columns; nil means unbounded. MinExclusive
	// makes the lower bound strict (value must be > Min, not >= Min).
	Min          *float64
	MinExclusive bool
	Max          *float64
}

// Violation records one failed check for one row and column.
type Violation struct {
	// Row is the zero-based index into the source dataset.
	Row    int
	Column string
	Check  string
	Value  string
}

// Report is the outcome of validating a dataset.
type Report struct {
	Rows       int
	Violations []Violation
}

// Passed reports whether the dataset satisfied the full contract.
func (r Report) Passed() bool {
	return len(r.Violations) == 0
}

// Summary returns a one-line human-readable verdict.
func (r Report) Summary() string {
	if r.Passed() {
		return fmt.Sprintf("all %d rows passed schema validation", r.Rows)
	}
	return fmt.Sprintf("%d violations across %d rows", len(r.Violations), r.Rows)
}

func bound(v float64) *float64 { return &v }

// Contract returns the declared column contract for the order-line export.
func Contract() []Column {
	return []Column{
		{Name: "Order ID", Kind: KindString},
		{Name: "Order Date", Kind: KindDate},
		{Name: "Ship Date", Kind: KindDate},
		{Name: "Customer ID", Kind: KindString},
		{Name: "Customer Name", Kind: KindString},
		{Name: "Segment", Kind: KindString, Enum: dataset.Segments},
		{Name: "City", Kind: KindString},
		{Name: "State", Kind: KindString},
		{Name: "Postal Code", Kind: KindString, Nullable: true},
		{Name: "Region", Kind: KindString, Enum: dataset.Regions},
		{Name: "Product ID", Kind: KindString},
		{Name: "Category", Kind: KindString, Enum: dataset.Categories},
		{Name: "Sub-Category", Kind: KindString},
		{Name: "Product Name", Kind: KindString},
		{Name: "Sales", Kind: KindFloat, Min: bound(0)},
		{Name: "Quantity", Kind: KindInt, Min: bound(0), MinExclusive: true},
		{Name: "Discount", Kind: KindFloat, Min: bound(0), Max: bound(1)},
		{Name: "Profit", Kind: KindFloat},
	}
}

// Validate checks ds against the standard contract.
func Validate(ds dataset.Dataset) Report {
	return ValidateWith(ds, Contract())
}

// ValidateWith checks ds against an explicit contract.
func ValidateWith(ds dataset.Dataset, contract []Column) Report {
	report := Report{Rows: len(ds)}

	for i, row := range ds {
		for _, col := range contract {
			if v := checkColumn(i, row, col); v != nil {
				report.Violations = append(report.Violations, *v)
			}
		}
	}

	return report
}

func checkColumn(i int, row dataset.Row, col Column) *Violation {
	str, num, null := columnValue(row, col.Name)

	if null {
		if col.Nullable {
			return nil
		}
		return &Violation{Row: i, Column: col.Name, Check: "not_null", Value: ""}
	}

	if len(col.Enum) > 0 && !slices.Contains(col.Enum, str) {
		return &Violation{Row: i, Column: col.Name, Check: "enum", Value: str}
	}

	if col.Kind == KindFloat || col.Kind == KindInt {
		if col.Min != nil {
			if col.MinExclusive && num <= *col.Min {
				return &Violation{Row: i, Column: col.Name, Check: fmt.Sprintf("gt_%g", *col.Min), Value: str}
			}
			if !col.MinExclusive && num < *col.Min {
				return &Violation{Row: i, Column: col.Name, Check: fmt.Sprintf("ge_%g", *col.Min), Value: str}
			}
		}
		if col.Max != nil && num > *col.Max {
			return &Violation{Row: i, Column: col.Name, Check: fmt.Sprintf("le_%g", *col.Max), Value: str}
		}
	}

	return nil
}

// columnValue extracts the value of a named column from a row. The string
// form is used for null/enum checks and reporting, the numeric form for
// range checks.
func columnValue(row dataset.Row, name string) (str string, num float64, null bool) {
	switch name {
	case "Order ID":
		return row.OrderID, 0, row.OrderID == ""
	case "Order Date":
		return row.OrderDate.Format("2006-01-02"), 0, row.OrderDate.IsZero()
	case "Ship Date":
		return row.ShipDate.Format("2006-01-02"), 0, row.ShipDate.IsZero()
	case "Customer ID":
		return row.CustomerID, 0, row.CustomerID == ""
	case "Customer Name":
		return row.CustomerName, 0, row.CustomerName == ""
	case "Segment":
		return row.Segment, 0, row.Segment == ""
	case "Country":
		return row.Country, 0, row.Country == ""
	case "City":
		return row.City, 0, row.City == ""
	case "State":
		return row.State, 0, row.State == ""
	case "Postal Code":
		if row.PostalCode == nil {
			return "", 0, true
		}
		return *row.PostalCode, 0, false
	case "Region":
		return row.Region, 0, row.Region == ""
	case "Product ID":
		return row.ProductID, 0, row.ProductID == ""
	case "Product Name":
		return row.ProductName, 0, row.ProductName == ""
	case "Category":
		return row.Category, 0, row.Category == ""
	case "Sub-Category":
		return row.SubCategory, 0, row.SubCategory == ""
	case "Ship Mode":
		return row.ShipMode, 0, row.ShipMode == ""
	case "Sales":
		return fmt.Sprintf("%g", row.Sales), row.Sales, false
	case "Quantity":
		return fmt.Sprintf("%d", row.Quantity), float64(row.Quantity), false
	case "Discount":
		return fmt.Sprintf("%g", row.Discount), row.Discount, false
	case "Profit":
		return fmt.Sprintf("%g", row.Profit), row.Profit, false
	}
	return "", 0, true
}
