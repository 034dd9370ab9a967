// Package extract reads the source order-line CSV export into a Dataset.
// The export uses a Western-European single-byte encoding (Latin-1), so the
// file is decoded through charmap before CSV parsing.
package extract

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"

	"github.com/retailops/retail-etl/internal/dataset"
	"github.com/retailops/retail-etl/internal/logging"
)

// Columns the extractor requires in the header. Column order in the file
// does not matter; fields are resolved by header name.
var requiredColumns = []string{
	"Order ID", "Order Date", "Ship Date", "Ship Mode",
	"Customer ID", "Customer Name", "Segment",
	"Country", "City", "State", "Postal Code", "Region",
	"Product ID", "Category", "Sub-Category", "Product Name",
	"Sales", "Quantity", "Discount", "Profit",
}

// Date layouts seen in Superstore exports.
var dateLayouts = []string{"1/2/2006", "2006-01-02", "02-01-2006"}

// ReadCSV reads and parses the export at path. Any malformed row is a fatal
// extract error: the pipeline never loads a partially parsed snapshot.
func ReadCSV(path string) (dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source file: %w", err)
	}
	defer f.Close()

	ds, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	logging.Info().
		Str("path", path).
		Int("rows", len(ds)).
		Msg("Extracted source data")

	return ds, nil
}

// Read parses CSV data from r, decoding Latin-1 to UTF-8 first.
func Read(r io.Reader) (dataset.Dataset, error) {
	cr := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(r))
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}

	field := func(rec []string, name string) string {
		return strings.TrimSpace(rec[idx[name]])
	}

	var ds dataset.Dataset
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		row := dataset.Row{
			OrderID:      field(rec, "Order ID"),
			ShipMode:     field(rec, "Ship Mode"),
			CustomerID:   field(rec, "Customer ID"),
			CustomerName: field(rec, "Customer Name"),
			Segment:      field(rec, "Segment"),
			Country:      field(rec, "Country"),
			City:         field(rec, "City"),
			State:        field(rec, "State"),
			Region:       field(rec, "Region"),
			ProductID:    field(rec, "Product ID"),
			ProductName:  field(rec, "Product Name"),
			Category:     field(rec, "Category"),
			SubCategory:  field(rec, "Sub-Category"),
		}

		if row.OrderDate, err = parseDate(field(rec, "Order Date")); err != nil {
			return nil, fmt.Errorf("line %d: order date: %w", line, err)
		}
		if row.ShipDate, err = parseDate(field(rec, "Ship Date")); err != nil {
			return nil, fmt.Errorf("line %d: ship date: %w", line, err)
		}
		if row.Sales, err = parseFloat(field(rec, "Sales")); err != nil {
			return nil, fmt.Errorf("line %d: sales: %w", line, err)
		}
		if row.Quantity, err = strconv.Atoi(field(rec, "Quantity")); err != nil {
			return nil, fmt.Errorf("line %d: quantity: %w", line, err)
		}
		if row.Discount, err = parseFloat(field(rec, "Discount")); err != nil {
			return nil, fmt.Errorf("line %d: discount: %w", line, err)
		}
		if row.Profit, err = parseFloat(field(rec, "Profit")); err != nil {
			return nil, fmt.Errorf("line %d: profit: %w", line, err)
		}

		row.PostalCode = normalizePostal(field(rec, "Postal Code"))

		ds = append(ds, row)
	}

	return ds, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

// normalizePostal maps a missing postal code to nil. Numeric exports render
// missing values as empty or "nan"; neither is a real postal code.
func normalizePostal(s string) *string {
	if s == "" || strings.EqualFold(s, "nan") {
		return nil
	}
	// Some exports render postal codes as floats ("10024.0").
	s = strings.TrimSuffix(s, ".0")
	return &s
}
