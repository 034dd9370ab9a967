// Package quality computes advisory data-quality metrics over the source
// dataset. No metric failure halts the pipeline.
package quality

import (
	"fmt"
	"sort"
	"strings"

	"github.com/retailops/retail-etl/internal/dataset"
)

// Metric names emitted by Audit.
const (
	MetricCriticalNulls      = "critical_nulls"
	MetricDuplicateRows      = "duplicate_rows"
	MetricShipBeforeOrder    = "ship_before_order"
	MetricNegativeSales      = "negative_sales"
	MetricDiscountOutOfRange = "discount_out_of_range"
	MetricNonPositiveQty     = "non_positive_quantity"
	MetricDistinctOrders     = "distinct_orders"
	MetricTotalRows          = "total_rows"
)

// Report is a flat mapping of metric name to value.
type Report map[string]int64

// Audit computes the fixed battery of quality metrics.
func Audit(ds dataset.Dataset) Report {
	report := Report{
		MetricCriticalNulls:      0,
		MetricDuplicateRows:      0,
		MetricShipBeforeOrder:    0,
		MetricNegativeSales:      0,
		MetricDiscountOutOfRange: 0,
		MetricNonPositiveQty:     0,
		MetricDistinctOrders:     0,
		MetricTotalRows:          int64(len(ds)),
	}

	orders := make(map[string]struct{})
	seen := make(map[string]struct{}, len(ds))

	for _, row := range ds {
		// Nulls across the critical-column set. Sales is a parsed float and
		// cannot be null in memory; the identifiers can be empty.
		if row.OrderID == "" {
			report[MetricCriticalNulls]++
		}
		if row.CustomerID == "" {
			report[MetricCriticalNulls]++
		}
		if row.ProductID == "" {
			report[MetricCriticalNulls]++
		}

		// Duplicates under the composite line-item key.
		key := strings.Join([]string{
			row.OrderID, row.ProductID, row.CustomerID,
			row.OrderDate.Format("2006-01-02"),
		}, "|")
		if _, ok := seen[key]; ok {
			report[MetricDuplicateRows]++
		} else {
			seen[key] = struct{}{}
		}

		if row.ShipDate.Before(row.OrderDate) {
			report[MetricShipBeforeOrder]++
		}
		if row.Sales < 0 {
			report[MetricNegativeSales]++
		}
		if row.Discount < 0 || row.Discount > 1 {
			report[MetricDiscountOutOfRange]++
		}
		if row.Quantity <= 0 {
			report[MetricNonPositiveQty]++
		}

		if row.OrderID != "" {
			orders[row.OrderID] = struct{}{}
		}
	}

	report[MetricDistinctOrders] = int64(len(orders))

	return report
}

// Clean reports whether every advisory metric is at its expected value.
func (r Report) Clean() bool {
	return r[MetricCriticalNulls] == 0 &&
		r[MetricDuplicateRows] == 0 &&
		r[MetricShipBeforeOrder] == 0 &&
		r[MetricNegativeSales] == 0 &&
		r[MetricDiscountOutOfRange] == 0 &&
		r[MetricNonPositiveQty] == 0
}

// String renders the metrics in stable order.
func (r Report) String() string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%d", name, r[name]))
	}
	return strings.Join(parts, " ")
}
