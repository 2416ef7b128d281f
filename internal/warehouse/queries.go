//-------------------------------------------------------------------------
//
// salesdw - e-commerce data warehouse ETL
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// The reporting contract: each aggregation query is a read-only
// projection over the fact/dimension join, returning a small typed
// result set consumed by the charting layer.

// CategoryRevenue is one row of the revenue-by-category result.
type CategoryRevenue struct {
	Category string
	Revenue  float64
	Orders   int64
}

// MonthlyRevenue is one row of the monthly trend result.
type MonthlyRevenue struct {
	Year            int
	Month           int
	Revenue         float64
	UniqueCustomers int64
}

// RegionRevenue is one row of the regional distribution result.
type RegionRevenue struct {
	Region  string
	Revenue float64
	Orders  int64
}

// ProductRevenue is one row of the top-products result.
type ProductRevenue struct {
	Product   string
	Revenue   float64
	UnitsSold int64
}

// SegmentRevenue is one row of the customer segment mix result.
type SegmentRevenue struct {
	Segment   string
	Customers int64
	Revenue   float64
}

// QuarterRevenue is one row of the quarterly performance result.
type QuarterRevenue struct {
	Year    int
	Quarter int
	Revenue float64
}

// RevenueByCategory returns revenue per product category, descending.
// Served by the vw_revenue_by_category view.
func RevenueByCategory(ctx context.Context, db DB) ([]CategoryRevenue, error) {
	rows, err := db.Query(ctx, `
        SELECT category, revenue, order_count
        FROM vw_revenue_by_category
        ORDER BY revenue DESC`)
	if err != nil {
		return nil, fmt.Errorf("revenue by category: %w", err)
	}
	return collect(rows, func(row pgx.Rows) (CategoryRevenue, error) {
		var r CategoryRevenue
		err := row.Scan(&r.Category, &r.Revenue, &r.Orders)
		return r, err
	})
}

// MonthlyTrend returns revenue and distinct buyers per calendar month.
// Served by the materialized view; call RefreshViews after a load to see
// the latest rows.
func MonthlyTrend(ctx context.Context, db DB) ([]MonthlyRevenue, error) {
	rows, err := db.Query(ctx, `
        SELECT year, month, revenue, unique_customers
        FROM mv_monthly_revenue
        ORDER BY year, month`)
	if err != nil {
		return nil, fmt.Errorf("monthly trend: %w", err)
	}
	return collect(rows, func(row pgx.Rows) (MonthlyRevenue, error) {
		var r MonthlyRevenue
		err := row.Scan(&r.Year, &r.Month, &r.Revenue, &r.UniqueCustomers)
		return r, err
	})
}

// RevenueByRegion returns the revenue distribution across regions,
// descending.
func RevenueByRegion(ctx context.Context, db DB) ([]RegionRevenue, error) {
	rows, err := db.Query(ctx, `
        SELECT r.region_name,
               SUM(f.total_amount) AS revenue,
               COUNT(f.sale_key)   AS orders
        FROM fact_sales f
        JOIN dim_region r ON f.region_key = r.region_key
        GROUP BY r.region_name
        ORDER BY revenue DESC`)
	if err != nil {
		return nil, fmt.Errorf("revenue by region: %w", err)
	}
	return collect(rows, func(row pgx.Rows) (RegionRevenue, error) {
		var r RegionRevenue
		err := row.Scan(&r.Region, &r.Revenue, &r.Orders)
		return r, err
	})
}

// TopProducts returns the N best-selling products by revenue.
func TopProducts(ctx context.Context, db DB, limit int) ([]ProductRevenue, error) {
	rows, err := db.Query(ctx, `
        SELECT p.product_name,
               SUM(f.total_amount) AS revenue,
               SUM(f.quantity)     AS units_sold
        FROM fact_sales f
        JOIN dim_product p ON f.product_key = p.product_key
        GROUP BY p.product_name
        ORDER BY revenue DESC
        LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	return collect(rows, func(row pgx.Rows) (ProductRevenue, error) {
		var r ProductRevenue
		err := row.Scan(&r.Product, &r.Revenue, &r.UnitsSold)
		return r, err
	})
}

// SegmentMix returns revenue and distinct buyers per customer segment,
// descending by revenue.
func SegmentMix(ctx context.Context, db DB) ([]SegmentRevenue, error) {
	rows, err := db.Query(ctx, `
        SELECT c.segment,
               COUNT(DISTINCT c.customer_key) AS customer_count,
               SUM(f.total_amount)            AS total_revenue
        FROM fact_sales f
        JOIN dim_customer c ON f.customer_key = c.customer_key
        GROUP BY c.segment
        ORDER BY total_revenue DESC`)
	if err != nil {
		return nil, fmt.Errorf("segment mix: %w", err)
	}
	return collect(rows, func(row pgx.Rows) (SegmentRevenue, error) {
		var r SegmentRevenue
		err := row.Scan(&r.Segment, &r.Customers, &r.Revenue)
		return r, err
	})
}

// QuarterlyPerformance returns revenue per calendar quarter.
func QuarterlyPerformance(ctx context.Context, db DB) ([]QuarterRevenue, error) {
	rows, err := db.Query(ctx, `
        SELECT d.year, d.quarter, SUM(f.total_amount) AS revenue
        FROM fact_sales f
        JOIN dim_date d ON f.date_key = d.date_key
        GROUP BY d.year, d.quarter
        ORDER BY d.year, d.quarter`)
	if err != nil {
		return nil, fmt.Errorf("quarterly performance: %w", err)
	}
	return collect(rows, func(row pgx.Rows) (QuarterRevenue, error) {
		var r QuarterRevenue
		err := row.Scan(&r.Year, &r.Quarter, &r.Revenue)
		return r, err
	})
}

func collect[T any](rows pgx.Rows, scan func(pgx.Rows) (T, error)) ([]T, error) {
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
