//go:build integration
// +build integration

// End-to-end pipeline test: generate source files, load them twice into
// a scratch database and check the second run is a no-op.
// Run with: go test -tags=integration ./internal/etl/...

package etl_test

import (
	"context"
	"testing"

	"salesdw/internal/datagen"
	"salesdw/internal/etl"
	"salesdw/internal/testutil"
	"salesdw/internal/warehouse"
)

func TestPipelineEndToEnd(t *testing.T) {
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

	dataDir := t.TempDir()
	if err := datagen.NewGenerator(42, 100, 60, 500).Generate(dataDir); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	pipeline := &etl.Pipeline{DB: pool, DataDir: dataDir, BatchSize: 100}

	first, err := pipeline.Run(ctx)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.SourceRows != 500 {
		t.Errorf("source rows = %d, want 500", first.SourceRows)
	}
	if first.FactsLoaded() != 500 {
		t.Errorf("facts loaded = %d, want 500", first.FactsLoaded())
	}
	if first.Loaded["dim_customer"] == 0 || first.Loaded["dim_product"] == 0 ||
		first.Loaded["dim_region"] == 0 || first.Loaded["dim_date"] == 0 {
		t.Errorf("dimension counts = %v, want all non-zero", first.Loaded)
	}
	if first.PersistenceErrors != 0 || first.ValidationErrors != 0 {
		t.Errorf("errors on clean synthetic data: %+v", first)
	}

	// Second run over the same files: everything is already loaded.
	second, err := pipeline.Run(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.FactsLoaded() != 0 {
		t.Errorf("second run loaded %d facts, want 0", second.FactsLoaded())
	}
	if second.DuplicateFacts != 500 {
		t.Errorf("second run duplicates = %d, want 500", second.DuplicateFacts)
	}
	if second.DimensionsLoaded() != 0 {
		t.Errorf("second run created %d dimension rows, want 0", second.DimensionsLoaded())
	}

	// Every fact FK must resolve.
	var orphans int
	err = pool.QueryRow(ctx, `
        SELECT COUNT(*)
        FROM fact_sales f
        LEFT JOIN dim_product p ON f.product_key = p.product_key
        LEFT JOIN dim_customer c ON f.customer_key = c.customer_key
        LEFT JOIN dim_region r ON f.region_key = r.region_key
        LEFT JOIN dim_date d ON f.date_key = d.date_key
        WHERE p.product_key IS NULL OR c.customer_key IS NULL
           OR r.region_key IS NULL OR d.date_key IS NULL`).Scan(&orphans)
	if err != nil {
		t.Fatal(err)
	}
	if orphans != 0 {
		t.Errorf("%d facts with unresolved dimension keys", orphans)
	}
}
