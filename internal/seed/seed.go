// Package seed generates a sample order-line CSV shaped like the real
// Superstore export, so the pipeline can be exercised without it. Customers,
// products and locations repeat across rows to exercise the dedup paths.
package seed

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/retailops/retail-etl/internal/dataset"
	"github.com/retailops/retail-etl/internal/logging"
)

var header = []string{
	"Row ID", "Order ID", "Order Date", "Ship Date", "Ship Mode",
	"Customer ID", "Customer Name", "Segment", "Country", "City", "State",
	"Postal Code", "Region", "Product ID", "Category", "Sub-Category",
	"Product Name", "Sales", "Quantity", "Discount", "Profit",
}

var shipModes = []string{"Standard Class", "Second Class", "First Class", "Same Day"}

var subCategories = map[string][]string{
	"Furniture":       {"Chairs", "Tables", "Bookcases", "Furnishings"},
	"Office Supplies": {"Binders", "Paper", "Storage", "Appliances", "Art", "Labels"},
	"Technology":      {"Phones", "Accessories", "Machines", "Copiers"},
}

var discounts = []float64{0, 0, 0, 0.1, 0.15, 0.2, 0.2, 0.3, 0.4, 0.5}

type customer struct {
	id, name, segment string
}

type product struct {
	id, name, category, subCategory string
}

type location struct {
	postal                       string // empty = missing
	city, state, region, country string
}

// Generate produces CSV records (header excluded) for n order line items.
// A non-zero seed makes the output deterministic.
func Generate(n int, seed uint64) [][]string {
	f := gofakeit.New(seed)

	customers := makeCustomers(f, max(1, n/8))
	products := makeProducts(f, max(1, n/6))
	locations := makeLocations(f, max(1, n/10))

	records := make([][]string, 0, n)
	orderSeq := 100000
	row := 0
	for row < n {
		// One order spans one to four line items from one customer at one
		// location.
		orderSeq++
		orderID := fmt.Sprintf("US-%d-%d", 2022+f.Number(0, 2), orderSeq)
		cust := customers[f.Number(0, len(customers)-1)]
		loc := locations[f.Number(0, len(locations)-1)]

		orderDate := f.DateRange(
			time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		)
		shipDate := orderDate.AddDate(0, 0, f.Number(0, 7))

		lines := f.Number(1, 4)
		for i := 0; i < lines && row < n; i++ {
			row++
			prod := products[f.Number(0, len(products)-1)]
			sales := f.Price(5, 2000)
			profit := sales * (float64(f.Number(-20, 40)) / 100)

			records = append(records, []string{
				strconv.Itoa(row),
				orderID,
				orderDate.Format("1/2/2006"),
				shipDate.Format("1/2/2006"),
				shipModes[f.Number(0, len(shipModes)-1)],
				cust.id,
				cust.name,
				cust.segment,
				loc.country,
				loc.city,
				loc.state,
				loc.postal,
				loc.region,
				prod.id,
				prod.category,
				prod.subCategory,
				prod.name,
				strconv.FormatFloat(sales, 'f', 2, 64),
				strconv.Itoa(f.Number(1, 14)),
				strconv.FormatFloat(discounts[f.Number(0, len(discounts)-1)], 'f', 2, 64),
				strconv.FormatFloat(profit, 'f', 4, 64),
			})
		}
	}

	return records
}

// WriteCSV writes a generated sample export to path.
func WriteCSV(path string, rows int, seed uint64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := w.WriteAll(Generate(rows, seed)); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}

	logging.Info().Str("path", path).Int("rows", rows).Msg("Sample export written")
	return nil
}

func makeCustomers(f *gofakeit.Faker, n int) []customer {
	out := make([]customer, n)
	for i := range out {
		first, last := f.FirstName(), f.LastName()
		out[i] = customer{
			id:      fmt.Sprintf("%c%c-%d", first[0], last[0], 10000+i),
			name:    first + " " + last,
			segment: dataset.Segments[f.Number(0, len(dataset.Segments)-1)],
		}
	}
	return out
}

func makeProducts(f *gofakeit.Faker, n int) []product {
	out := make([]product, n)
	for i := range out {
		category := dataset.Categories[f.Number(0, len(dataset.Categories)-1)]
		subs := subCategories[category]
		sub := subs[f.Number(0, len(subs)-1)]
		out[i] = product{
			id:          fmt.Sprintf("%s-%s-%d", category[:3], sub[:2], 100000+i),
			name:        f.ProductName(),
			category:    category,
			subCategory: sub,
		}
	}
	return out
}

func makeLocations(f *gofakeit.Faker, n int) []location {
	out := make([]location, n)
	for i := range out {
		loc := location{
			city:    f.City(),
			state:   f.State(),
			region:  dataset.Regions[f.Number(0, len(dataset.Regions)-1)],
			country: "United States",
		}
		// A few rows ship without a postal code, like the real export.
		if f.Number(0, 19) != 0 {
			loc.postal = f.Zip()
		}
		out[i] = loc
	}
	return out
}
