// Package load persists the star schema: DDL for the warehouse tables and
// read views, and the full-replace bulk loader.
package load

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/retailops/retail-etl/internal/logging"
)

// Warehouse tables. Surrogate keys are identity columns so each reload can
// reset the sequences with TRUNCATE ... RESTART IDENTITY, but the loader
// always supplies keys explicitly.
const createTablesSQL = `
CREATE TABLE IF NOT EXISTS dim_customer (
    customer_key  INTEGER GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
    customer_id   TEXT NOT NULL,
    customer_name TEXT NOT NULL,
    segment       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS dim_product (
    product_key  INTEGER GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
    product_id   TEXT NOT NULL,
    product_name TEXT NOT NULL,
    category     TEXT NOT NULL,
    sub_category TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS dim_location (
    location_key INTEGER GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
    postal_code  TEXT,
    city         TEXT NOT NULL,
    state        TEXT NOT NULL,
    region       TEXT NOT NULL,
    country      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS dim_date (
    date_key    INTEGER GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
    full_date   DATE NOT NULL,
    year        INTEGER NOT NULL,
    quarter     INTEGER NOT NULL,
    month       INTEGER NOT NULL,
    month_name  TEXT NOT NULL,
    week        INTEGER NOT NULL,
    day_of_week INTEGER NOT NULL,
    day_name    TEXT NOT NULL,
    is_weekend  BOOLEAN NOT NULL
);

CREATE TABLE IF NOT EXISTS fact_orders (
    order_id       TEXT NOT NULL,
    order_date_key INTEGER REFERENCES dim_date(date_key),
    ship_date_key  INTEGER REFERENCES dim_date(date_key),
    customer_key   INTEGER REFERENCES dim_customer(customer_key),
    product_key    INTEGER REFERENCES dim_product(product_key),
    location_key   INTEGER REFERENCES dim_location(location_key),
    sales          DOUBLE PRECISION NOT NULL,
    quantity       INTEGER NOT NULL,
    discount       DOUBLE PRECISION NOT NULL,
    profit         DOUBLE PRECISION NOT NULL,
    ship_mode      TEXT
);

CREATE INDEX IF NOT EXISTS idx_fact_orders_order_date_key ON fact_orders (order_date_key);
CREATE INDEX IF NOT EXISTS idx_fact_orders_customer_key ON fact_orders (customer_key);
CREATE INDEX IF NOT EXISTS idx_fact_orders_product_key ON fact_orders (product_key);
CREATE INDEX IF NOT EXISTS idx_fact_orders_location_key ON fact_orders (location_key);
`

// Read views consumed by the reconciler and the dashboard.
const createViewsSQL = `
CREATE OR REPLACE VIEW vw_overall_kpis AS
SELECT
    COALESCE(SUM(f.sales), 0)                                   AS total_sales,
    COALESCE(SUM(f.profit), 0)                                  AS total_profit,
    COUNT(DISTINCT f.order_id)                                  AS total_orders,
    COALESCE(SUM(f.quantity), 0)                                AS total_quantity,
    ROUND((100 * SUM(f.profit) / NULLIF(SUM(f.sales), 0))::numeric, 2) AS profit_margin_pct,
    ROUND((SUM(f.sales) / NULLIF(COUNT(DISTINCT f.order_id), 0))::numeric, 2) AS avg_order_value,
    COUNT(DISTINCT f.customer_key)                              AS unique_customers,
    COUNT(DISTINCT f.product_key)                               AS unique_products
FROM fact_orders f;

CREATE OR REPLACE VIEW vw_daily_sales AS
SELECT
    d.full_date,
    SUM(f.sales)              AS total_sales,
    SUM(f.profit)             AS total_profit,
    SUM(f.quantity)           AS total_quantity,
    COUNT(DISTINCT f.order_id) AS total_orders
FROM fact_orders f
JOIN dim_date d ON d.date_key = f.order_date_key
GROUP BY d.full_date
ORDER BY d.full_date;

CREATE OR REPLACE VIEW vw_monthly_trend AS
SELECT
    d.year,
    d.month,
    SUM(f.sales)  AS total_sales,
    SUM(f.profit) AS total_profit
FROM fact_orders f
JOIN dim_date d ON d.date_key = f.order_date_key
GROUP BY d.year, d.month
ORDER BY d.year, d.month;

CREATE OR REPLACE VIEW vw_sales_by_region AS
SELECT
    l.region,
    SUM(f.sales)  AS total_sales,
    SUM(f.profit) AS total_profit,
    ROUND((100 * SUM(f.profit) / NULLIF(SUM(f.sales), 0))::numeric, 2) AS profit_margin_pct
FROM fact_orders f
JOIN dim_location l ON l.location_key = f.location_key
GROUP BY l.region
ORDER BY total_sales DESC;

CREATE OR REPLACE VIEW vw_sales_by_category AS
SELECT
    p.category,
    p.sub_category,
    SUM(f.sales)  AS total_sales,
    SUM(f.profit) AS total_profit,
    ROUND((100 * SUM(f.profit) / NULLIF(SUM(f.sales), 0))::numeric, 2) AS profit_margin_pct
FROM fact_orders f
JOIN dim_product p ON p.product_key = f.product_key
GROUP BY p.category, p.sub_category
ORDER BY total_sales DESC;

CREATE OR REPLACE VIEW vw_sales_by_segment AS
SELECT
    c.segment,
    SUM(f.sales)  AS total_sales,
    SUM(f.profit) AS total_profit,
    COUNT(DISTINCT f.order_id) AS total_orders
FROM fact_orders f
JOIN dim_customer c ON c.customer_key = f.customer_key
GROUP BY c.segment
ORDER BY total_sales DESC;

CREATE OR REPLACE VIEW vw_top_products AS
SELECT
    p.product_name,
    p.category,
    SUM(f.sales)  AS total_sales,
    SUM(f.profit) AS total_profit
FROM fact_orders f
JOIN dim_product p ON p.product_key = f.product_key
GROUP BY p.product_name, p.category
ORDER BY total_sales DESC
LIMIT 10;

CREATE OR REPLACE VIEW vw_top_customers AS
SELECT
    c.customer_name,
    c.segment,
    COUNT(DISTINCT f.order_id) AS total_orders,
    SUM(f.sales)               AS total_sales
FROM fact_orders f
JOIN dim_customer c ON c.customer_key = f.customer_key
GROUP BY c.customer_name, c.segment
ORDER BY total_sales DESC
LIMIT 10;
`

const dropSchemaSQL = `
DROP VIEW IF EXISTS
    vw_overall_kpis, vw_daily_sales, vw_monthly_trend,
    vw_sales_by_region, vw_sales_by_category, vw_sales_by_segment,
    vw_top_products, vw_top_customers CASCADE;
DROP TABLE IF EXISTS fact_orders CASCADE;
DROP TABLE IF EXISTS dim_customer, dim_product, dim_location, dim_date CASCADE;
`

// CreateSchema creates the warehouse tables and read views.
func CreateSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, createTablesSQL); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	if _, err := pool.Exec(ctx, createViewsSQL); err != nil {
		return fmt.Errorf("failed to create views: %w", err)
	}
	logging.Info().Msg("Warehouse schema created")
	return nil
}

// DropSchema drops the warehouse tables and read views.
func DropSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, dropSchemaSQL); err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}
	logging.Info().Msg("Warehouse schema dropped")
	return nil
}
