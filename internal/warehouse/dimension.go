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
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"salesdw/internal/clean"
	"salesdw/internal/logging"
)

// ErrMissingNaturalKey marks a dimension row whose natural key is empty.
// The offending source row is skipped; the run continues.
var ErrMissingNaturalKey = errors.New("missing natural key")

const dateKeyLayout = "2006-01-02"

// Resolver maps natural keys to surrogate keys for the four dimensions.
// It owns one process-local cache per dimension, seeded from the existing
// warehouse rows, so repeated pipeline runs never duplicate dimension
// rows. A Resolver is built once per run and is not safe for concurrent
// use; the pipeline is single-threaded by design.
type Resolver struct {
	db DB

	products  map[string]int
	dates     map[string]int
	customers map[string]int
	regions   map[string]int

	// created counts new dimension rows inserted during this run.
	created map[string]int
}

// NewResolver builds a resolver and seeds every dimension cache from the
// warehouse. A seed failure is a connectivity error and aborts the run.
func NewResolver(ctx context.Context, db DB) (*Resolver, error) {
	r := &Resolver{
		db:        db,
		products:  make(map[string]int),
		dates:     make(map[string]int),
		customers: make(map[string]int),
		regions:   make(map[string]int),
		created:   make(map[string]int),
	}

	if err := r.seedStringKeys(ctx, "SELECT product_id, product_key FROM dim_product", r.products); err != nil {
		return nil, fmt.Errorf("failed to seed product cache: %w", err)
	}
	if err := r.seedStringKeys(ctx, "SELECT customer_id, customer_key FROM dim_customer", r.customers); err != nil {
		return nil, fmt.Errorf("failed to seed customer cache: %w", err)
	}
	if err := r.seedStringKeys(ctx, "SELECT region_name, region_key FROM dim_region", r.regions); err != nil {
		return nil, fmt.Errorf("failed to seed region cache: %w", err)
	}
	if err := r.seedDates(ctx); err != nil {
		return nil, fmt.Errorf("failed to seed date cache: %w", err)
	}

	logging.Debug().
		Int("products", len(r.products)).
		Int("customers", len(r.customers)).
		Int("regions", len(r.regions)).
		Int("dates", len(r.dates)).
		Msg("Seeded dimension caches")

	return r, nil
}

func (r *Resolver) seedStringKeys(ctx context.Context, query string, cache map[string]int) error {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var naturalKey string
		var surrogateKey int
		if err := rows.Scan(&naturalKey, &surrogateKey); err != nil {
			return err
		}
		cache[naturalKey] = surrogateKey
	}
	return rows.Err()
}

func (r *Resolver) seedDates(ctx context.Context) error {
	rows, err := r.db.Query(ctx, "SELECT full_date, date_key FROM dim_date")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var fullDate time.Time
		var surrogateKey int
		if err := rows.Scan(&fullDate, &surrogateKey); err != nil {
			return err
		}
		r.dates[fullDate.Format(dateKeyLayout)] = surrogateKey
	}
	return rows.Err()
}

// Product resolves a product record to its surrogate key, inserting the
// dimension row on first encounter.
func (r *Resolver) Product(ctx context.Context, p clean.Product) (int, error) {
	if p.ProductID == "" {
		return 0, fmt.Errorf("product: %w", ErrMissingNaturalKey)
	}
	if key, ok := r.products[p.ProductID]; ok {
		return key, nil
	}

	key, created, err := r.insertOnce(ctx,
		`INSERT INTO dim_product (product_id, product_name, category, subcategory, unit_price)
         VALUES ($1, $2, $3, $4, $5)
         ON CONFLICT (product_id) DO NOTHING
         RETURNING product_key`,
		"SELECT product_key FROM dim_product WHERE product_id = $1",
		[]any{p.ProductID, p.Name, p.Category, p.Subcategory, p.UnitPrice},
		p.ProductID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert product %s: %w", p.ProductID, err)
	}

	r.products[p.ProductID] = key
	if created {
		r.created["dim_product"]++
	}
	return key, nil
}

// Customer resolves a customer record to its surrogate key.
func (r *Resolver) Customer(ctx context.Context, c clean.Customer) (int, error) {
	if c.CustomerID == "" {
		return 0, fmt.Errorf("customer: %w", ErrMissingNaturalKey)
	}
	if key, ok := r.customers[c.CustomerID]; ok {
		return key, nil
	}

	key, created, err := r.insertOnce(ctx,
		`INSERT INTO dim_customer (customer_id, customer_name, segment, country, city)
         VALUES ($1, $2, $3, $4, $5)
         ON CONFLICT (customer_id) DO NOTHING
         RETURNING customer_key`,
		"SELECT customer_key FROM dim_customer WHERE customer_id = $1",
		[]any{c.CustomerID, c.Name, c.Segment, c.Country, c.City},
		c.CustomerID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert customer %s: %w", c.CustomerID, err)
	}

	r.customers[c.CustomerID] = key
	if created {
		r.created["dim_customer"]++
	}
	return key, nil
}

// Region resolves a region record to its surrogate key.
func (r *Resolver) Region(ctx context.Context, reg clean.Region) (int, error) {
	if reg.Name == "" {
		return 0, fmt.Errorf("region: %w", ErrMissingNaturalKey)
	}
	if key, ok := r.regions[reg.Name]; ok {
		return key, nil
	}

	key, created, err := r.insertOnce(ctx,
		`INSERT INTO dim_region (region_name, country, continent)
         VALUES ($1, $2, $3)
         ON CONFLICT (region_name) DO NOTHING
         RETURNING region_key`,
		"SELECT region_key FROM dim_region WHERE region_name = $1",
		[]any{reg.Name, reg.Country, reg.Continent},
		reg.Name)
	if err != nil {
		return 0, fmt.Errorf("failed to insert region %s: %w", reg.Name, err)
	}

	r.regions[reg.Name] = key
	if created {
		r.created["dim_region"]++
	}
	return key, nil
}

// Date resolves a calendar date to its surrogate key. The derived
// attributes are pure functions of the date, computed once on insert.
func (r *Resolver) Date(ctx context.Context, date time.Time) (int, error) {
	naturalKey := date.Format(dateKeyLayout)
	if key, ok := r.dates[naturalKey]; ok {
		return key, nil
	}

	attrs := DeriveDate(date)
	key, created, err := r.insertOnce(ctx,
		`INSERT INTO dim_date (full_date, day, month, year, quarter, day_of_week, is_weekend)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
         ON CONFLICT (full_date) DO NOTHING
         RETURNING date_key`,
		"SELECT date_key FROM dim_date WHERE full_date = $1",
		[]any{date, attrs.Day, attrs.Month, attrs.Year, attrs.Quarter, attrs.DayOfWeek, attrs.IsWeekend},
		date)
	if err != nil {
		return 0, fmt.Errorf("failed to insert date %s: %w", naturalKey, err)
	}

	r.dates[naturalKey] = key
	if created {
		r.created["dim_date"]++
	}
	return key, nil
}

// LookupProduct returns the surrogate key for a product natural id, if
// the product dimension already holds it. Facts referencing products
// outside the catalog fail resolution here.
func (r *Resolver) LookupProduct(productID string) (int, bool) {
	key, ok := r.products[productID]
	return key, ok
}

// LookupCustomer returns the surrogate key for a customer natural id.
func (r *Resolver) LookupCustomer(customerID string) (int, bool) {
	key, ok := r.customers[customerID]
	return key, ok
}

// LookupRegion returns the surrogate key for a canonical region name.
func (r *Resolver) LookupRegion(regionName string) (int, bool) {
	key, ok := r.regions[regionName]
	return key, ok
}

// Created reports how many new rows this run inserted per dimension table.
func (r *Resolver) Created() map[string]int {
	out := make(map[string]int, len(r.created))
	for k, v := range r.created {
		out[k] = v
	}
	return out
}

// insertOnce inserts a dimension row, falling back to a lookup when a
// concurrent or earlier run already inserted the natural key. Returns the
// surrogate key and whether this call created the row.
func (r *Resolver) insertOnce(ctx context.Context, insertSQL, selectSQL string, args []any, naturalKey any) (int, bool, error) {
	var key int
	err := r.db.QueryRow(ctx, insertSQL, args...).Scan(&key)
	if err == nil {
		return key, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, err
	}

	// Conflict: the row exists, fetch its key.
	if err := r.db.QueryRow(ctx, selectSQL, naturalKey).Scan(&key); err != nil {
		return 0, false, err
	}
	return key, false, nil
}
