//-------------------------------------------------------------------------
//
// salesdw - e-commerce data warehouse ETL
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

//go:build integration
// +build integration

// Integration tests for the warehouse package.
// Run with: go test -tags=integration ./internal/warehouse/...
// Requires PostgreSQL to be available.
// Set SALESDW_TEST_CONN environment variable to override connection string.

package warehouse_test

import (
	"context"
	"testing"
	"time"

	"salesdw/internal/clean"
	"salesdw/internal/testutil"
	"salesdw/internal/warehouse"
)

func setupWarehouse(t *testing.T) (context.Context, *testutil.TestCleanup, warehouse.DB) {
	t.Helper()

	baseConnStr := testutil.SkipIfNoPostgres(t)
	testConnStr := testutil.CreateTestDB(t, baseConnStr)
	dbName := testutil.GetDBNameFromConnStr(testConnStr)

	cleanup := testutil.NewTestCleanup(t, baseConnStr, dbName)
	t.Cleanup(cleanup.Cleanup)

	pool := testutil.ConnectTestDB(t, testConnStr)
	cleanup.SetPool(pool)

	ctx := context.Background()
	if err := warehouse.CreateSchema(ctx, pool); err != nil {
		t.Fatalf("CreateSchema: %v", err)
	}
	return ctx, cleanup, pool
}

func TestResolverIdempotency(t *testing.T) {
	ctx, _, pool := setupWarehouse(t)

	product := clean.Product{ProductID: "PROD00001", Name: "Desk Lamp",
		Category: "Furniture", Subcategory: "Furnishings", UnitPrice: 45.50}
	customer := clean.Customer{CustomerID: "CUST00001", Name: "Ada Quinn",
		Segment: "Consumer", Country: "USA", City: "Chicago"}
	region := clean.Region{Name: "North America", Country: "USA",
		Continent: "North America"}
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	r1, err := warehouse.NewResolver(ctx, pool)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	pk1, err := r1.Product(ctx, product)
	if err != nil {
		t.Fatalf("Product: %v", err)
	}
	ck1, err := r1.Customer(ctx, customer)
	if err != nil {
		t.Fatalf("Customer: %v", err)
	}
	rk1, err := r1.Region(ctx, region)
	if err != nil {
		t.Fatalf("Region: %v", err)
	}
	dk1, err := r1.Date(ctx, date)
	if err != nil {
		t.Fatalf("Date: %v", err)
	}

	created := r1.Created()
	for _, table := range []string{"dim_product", "dim_customer", "dim_region", "dim_date"} {
		if created[table] != 1 {
			t.Errorf("created[%s] = %d, want 1", table, created[table])
		}
	}

	// A fresh resolver simulates a re-run: the seeded caches must return
	// the same surrogate keys without inserting anything.
	r2, err := warehouse.NewResolver(ctx, pool)
	if err != nil {
		t.Fatalf("NewResolver (second run): %v", err)
	}

	pk2, _ := r2.Product(ctx, product)
	ck2, _ := r2.Customer(ctx, customer)
	rk2, _ := r2.Region(ctx, region)
	dk2, _ := r2.Date(ctx, date)

	if pk1 != pk2 || ck1 != ck2 || rk1 != rk2 || dk1 != dk2 {
		t.Errorf("surrogate keys changed across runs: (%d %d %d %d) vs (%d %d %d %d)",
			pk1, ck1, rk1, dk1, pk2, ck2, rk2, dk2)
	}
	if len(r2.Created()) != 0 {
		t.Errorf("second run created rows: %v", r2.Created())
	}

	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM dim_product").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("dim_product has %d rows, want 1", count)
	}
}

func TestFactLoadAndRerun(t *testing.T) {
	ctx, _, pool := setupWarehouse(t)

	resolver, err := warehouse.NewResolver(ctx, pool)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	pk, err := resolver.Product(ctx, clean.Product{ProductID: "PROD00001",
		Name: "Desk Lamp", Category: "Furniture", Subcategory: "Furnishings",
		UnitPrice: 19.99})
	if err != nil {
		t.Fatal(err)
	}
	ck, err := resolver.Customer(ctx, clean.Customer{CustomerID: "CUST00001",
		Name: "Ada Quinn", Segment: "Consumer", Country: "USA", City: "Chicago"})
	if err != nil {
		t.Fatal(err)
	}
	rk, err := resolver.Region(ctx, clean.Region{Name: "North America",
		Country: "USA", Continent: "North America"})
	if err != nil {
		t.Fatal(err)
	}
	dk, err := resolver.Date(ctx, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}

	row := warehouse.FactRow{
		SaleID:     "SALE0000001",
		ProductKey: pk, DateKey: dk, CustomerKey: ck, RegionKey: rk,
		Quantity: 3, UnitPrice: 19.99, Discount: 0.10,
		TotalAmount: warehouse.TotalAmount(3, 19.99, 0.10),
	}

	loader := warehouse.NewFactLoader(pool, 10)
	if err := loader.Add(ctx, row); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := loader.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if loader.Loaded() != 1 || loader.Duplicates() != 0 {
		t.Errorf("loaded = %d, duplicates = %d", loader.Loaded(), loader.Duplicates())
	}

	// Re-running the same fact must be a counted duplicate, not an error
	// and not a second row.
	rerun := warehouse.NewFactLoader(pool, 10)
	if err := rerun.Add(ctx, row); err != nil {
		t.Fatalf("Add (rerun): %v", err)
	}
	if err := rerun.Flush(ctx); err != nil {
		t.Fatalf("Flush (rerun): %v", err)
	}
	if rerun.Loaded() != 0 || rerun.Duplicates() != 1 {
		t.Errorf("rerun loaded = %d, duplicates = %d", rerun.Loaded(), rerun.Duplicates())
	}

	var count int
	var total float64
	if err := pool.QueryRow(ctx,
		"SELECT COUNT(*), COALESCE(SUM(total_amount), 0) FROM fact_sales").
		Scan(&count, &total); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("fact_sales has %d rows, want 1", count)
	}
	if total != 53.97 {
		t.Errorf("total_amount = %v, want 53.97", total)
	}
}

func TestRevenueByCategory(t *testing.T) {
	ctx, _, pool := setupWarehouse(t)

	resolver, err := warehouse.NewResolver(ctx, pool)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	pkA, err := resolver.Product(ctx, clean.Product{ProductID: "PROD00001",
		Name: "Laptop", Category: "A", Subcategory: "Laptops", UnitPrice: 100})
	if err != nil {
		t.Fatal(err)
	}
	pkB, err := resolver.Product(ctx, clean.Product{ProductID: "PROD00002",
		Name: "Chair", Category: "B", Subcategory: "Chairs", UnitPrice: 50})
	if err != nil {
		t.Fatal(err)
	}
	ck, err := resolver.Customer(ctx, clean.Customer{CustomerID: "CUST00001",
		Name: "Ada Quinn", Segment: "Consumer", Country: "USA", City: "Chicago"})
	if err != nil {
		t.Fatal(err)
	}
	rk, err := resolver.Region(ctx, clean.Region{Name: "North America",
		Country: "USA", Continent: "North America"})
	if err != nil {
		t.Fatal(err)
	}
	dk, err := resolver.Date(ctx, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}

	loader := warehouse.NewFactLoader(pool, 10)
	facts := []warehouse.FactRow{
		{SaleID: "SALE0000001", ProductKey: pkA, DateKey: dk, CustomerKey: ck,
			RegionKey: rk, Quantity: 1, UnitPrice: 100, TotalAmount: 100},
		{SaleID: "SALE0000002", ProductKey: pkB, DateKey: dk, CustomerKey: ck,
			RegionKey: rk, Quantity: 1, UnitPrice: 50, TotalAmount: 50},
	}
	for _, f := range facts {
		if err := loader.Add(ctx, f); err != nil {
			t.Fatal(err)
		}
	}
	if err := loader.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	rows, err := warehouse.RevenueByCategory(ctx, pool)
	if err != nil {
		t.Fatalf("RevenueByCategory: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d categories, want 2", len(rows))
	}
	if rows[0].Category != "A" || rows[0].Revenue != 100 || rows[0].Orders != 1 {
		t.Errorf("first row = %+v, want A/100/1", rows[0])
	}
	if rows[1].Category != "B" || rows[1].Revenue != 50 {
		t.Errorf("second row = %+v, want B/50", rows[1])
	}
}

func TestConstraintViolationIsRowLevel(t *testing.T) {
	ctx, _, pool := setupWarehouse(t)

	resolver, err := warehouse.NewResolver(ctx, pool)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	pk, err := resolver.Product(ctx, clean.Product{ProductID: "PROD00001",
		Name: "Laptop", Category: "Technology", Subcategory: "Laptops", UnitPrice: 100})
	if err != nil {
		t.Fatal(err)
	}
	ck, err := resolver.Customer(ctx, clean.Customer{CustomerID: "CUST00001",
		Name: "Ada Quinn", Segment: "Consumer", Country: "USA", City: "Chicago"})
	if err != nil {
		t.Fatal(err)
	}
	rk, err := resolver.Region(ctx, clean.Region{Name: "North America",
		Country: "USA", Continent: "North America"})
	if err != nil {
		t.Fatal(err)
	}
	dk, err := resolver.Date(ctx, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}

	loader := warehouse.NewFactLoader(pool, 10)
	// The second row violates the quantity CHECK constraint; the batch must
	// fall back to row-by-row replay, keep the good row and tag the bad one.
	good := warehouse.FactRow{SaleID: "SALE0000001", ProductKey: pk, DateKey: dk,
		CustomerKey: ck, RegionKey: rk, Quantity: 1, UnitPrice: 100, TotalAmount: 100}
	bad := warehouse.FactRow{SaleID: "SALE0000002", ProductKey: pk, DateKey: dk,
		CustomerKey: ck, RegionKey: rk, Quantity: -1, UnitPrice: 100, TotalAmount: 100}

	if err := loader.Add(ctx, good); err != nil {
		t.Fatal(err)
	}
	if err := loader.Add(ctx, bad); err != nil {
		t.Fatal(err)
	}
	if err := loader.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if loader.Loaded() != 1 {
		t.Errorf("loaded = %d, want 1", loader.Loaded())
	}
	failures := loader.Failures()
	if len(failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(failures))
	}
	if failures[0].SaleID != "SALE0000002" {
		t.Errorf("failed sale = %s, want SALE0000002", failures[0].SaleID)
	}

	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM fact_sales").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("fact_sales has %d rows, want 1", count)
	}
}
