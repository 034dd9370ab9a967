package load

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/retailops/retail-etl/internal/logging"
	"github.com/retailops/retail-etl/internal/transform"
)

// reloadLockID is the advisory lock taken for the duration of a reload.
// Concurrent pipeline runs against the same database serialize on it.
const reloadLockID = 0x7265746C

// Counts reports how many rows each table received.
type Counts struct {
	Customers int64
	Products  int64
	Locations int64
	Dates     int64
	Facts     int64
}

// Loader performs full-replace loads into the warehouse.
type Loader struct {
	pool *pgxpool.Pool
}

// NewLoader creates a loader backed by the given pool.
func NewLoader(pool *pgxpool.Pool) *Loader {
	return &Loader{pool: pool}
}

// Load replaces the entire warehouse contents with the given dimensions and
// facts. The wipe, dimension inserts and fact inserts all run in a single
// transaction holding an advisory lock: a failure at any point rolls back
// to the previous snapshot, and no partially loaded state is ever visible.
func (l *Loader) Load(ctx context.Context, dims transform.Dimensions, facts []transform.FactRow) (Counts, error) {
	var counts Counts

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return counts, fmt.Errorf("failed to begin load transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", reloadLockID); err != nil {
		return counts, fmt.Errorf("failed to acquire reload lock: %w", err)
	}

	// Facts truncate before dimensions (child before parent) and RESTART
	// IDENTITY resets every surrogate-key sequence to 1.
	if _, err := tx.Exec(ctx, `
        TRUNCATE fact_orders, dim_customer, dim_product, dim_location, dim_date
        RESTART IDENTITY CASCADE
    `); err != nil {
		return counts, fmt.Errorf("failed to truncate warehouse: %w", err)
	}

	if counts.Customers, err = copyCustomers(ctx, tx, dims.Customers); err != nil {
		return counts, fmt.Errorf("failed to load dim_customer: %w", err)
	}
	if counts.Products, err = copyProducts(ctx, tx, dims.Products); err != nil {
		return counts, fmt.Errorf("failed to load dim_product: %w", err)
	}
	if counts.Locations, err = copyLocations(ctx, tx, dims.Locations); err != nil {
		return counts, fmt.Errorf("failed to load dim_location: %w", err)
	}
	if counts.Dates, err = copyDates(ctx, tx, dims.Dates); err != nil {
		return counts, fmt.Errorf("failed to load dim_date: %w", err)
	}
	if counts.Facts, err = copyFacts(ctx, tx, facts); err != nil {
		return counts, fmt.Errorf("failed to load fact_orders: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return counts, fmt.Errorf("failed to commit load transaction: %w", err)
	}

	logging.Info().
		Int64("customers", counts.Customers).
		Int64("products", counts.Products).
		Int64("locations", counts.Locations).
		Int64("dates", counts.Dates).
		Int64("facts", counts.Facts).
		Msg("Warehouse loaded")

	return counts, nil
}

func copyCustomers(ctx context.Context, tx pgx.Tx, rows []transform.CustomerRow) (int64, error) {
	return tx.CopyFrom(ctx,
		pgx.Identifier{"dim_customer"},
		[]string{"customer_key", "customer_id", "customer_name", "segment"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{r.Key, r.CustomerID, r.Name, r.Segment}, nil
		}),
	)
}

func copyProducts(ctx context.Context, tx pgx.Tx, rows []transform.ProductRow) (int64, error) {
	return tx.CopyFrom(ctx,
		pgx.Identifier{"dim_product"},
		[]string{"product_key", "product_id", "product_name", "category", "sub_category"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{r.Key, r.ProductID, r.Name, r.Category, r.SubCategory}, nil
		}),
	)
}

func copyLocations(ctx context.Context, tx pgx.Tx, rows []transform.LocationRow) (int64, error) {
	return tx.CopyFrom(ctx,
		pgx.Identifier{"dim_location"},
		[]string{"location_key", "postal_code", "city", "state", "region", "country"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{r.Key, r.PostalCode, r.City, r.State, r.Region, r.Country}, nil
		}),
	)
}

func copyDates(ctx context.Context, tx pgx.Tx, rows []transform.DateRow) (int64, error) {
	return tx.CopyFrom(ctx,
		pgx.Identifier{"dim_date"},
		[]string{"date_key", "full_date", "year", "quarter", "month", "month_name",
			"week", "day_of_week", "day_name", "is_weekend"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{r.Key, r.Date, r.Year, r.Quarter, r.Month, r.MonthName,
				r.Week, r.DayOfWeek, r.DayName, r.IsWeekend}, nil
		}),
	)
}

func copyFacts(ctx context.Context, tx pgx.Tx, rows []transform.FactRow) (int64, error) {
	return tx.CopyFrom(ctx,
		pgx.Identifier{"fact_orders"},
		[]string{"order_id", "order_date_key", "ship_date_key", "customer_key",
			"product_key", "location_key", "sales", "quantity", "discount",
			"profit", "ship_mode"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			r := rows[i]
			return []any{r.OrderID, r.OrderDateKey, r.ShipDateKey, r.CustomerKey,
				r.ProductKey, r.LocationKey, r.Sales, r.Quantity, r.Discount,
				r.Profit, r.ShipMode}, nil
		}),
	)
}
