//-------------------------------------------------------------------------
//
// salesdw - e-commerce data warehouse ETL
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package etl wires the pipeline together: source readers, cleaning,
// dimension resolution, fact loading. One Run processes all rows
// sequentially and returns a RunSummary; row-level problems are counted
// and skipped, only warehouse connectivity failures abort.
package etl

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"salesdw/internal/clean"
	"salesdw/internal/logging"
	"salesdw/internal/source"
	"salesdw/internal/warehouse"
)

// Source file names expected under the data directory.
const (
	SalesFile     = "sales.csv"
	ProductsFile  = "products.csv"
	CustomersFile = "customers.json"
	RegionsFile   = "regions.xlsx"
)

// Pipeline is one ETL run configuration.
type Pipeline struct {
	DB        warehouse.DB
	DataDir   string
	BatchSize int
}

// Run executes the pipeline: extract, clean, resolve dimensions, load
// facts. The returned summary is valid whenever err is nil.
func (p *Pipeline) Run(ctx context.Context) (*warehouse.RunSummary, error) {
	summary := warehouse.NewRunSummary()

	// Extract
	sales, err := source.ReadSales(filepath.Join(p.DataDir, SalesFile))
	if err != nil {
		return nil, err
	}
	products, err := source.ReadProducts(filepath.Join(p.DataDir, ProductsFile))
	if err != nil {
		return nil, err
	}
	customers, err := source.ReadCustomers(filepath.Join(p.DataDir, CustomersFile))
	if err != nil {
		return nil, err
	}
	regions, err := source.ReadRegions(filepath.Join(p.DataDir, RegionsFile))
	if err != nil {
		return nil, err
	}
	summary.SourceRows = len(sales.Rows)
	summary.ParseErrors += sales.Skipped + products.Skipped + customers.Skipped + regions.Skipped

	// Clean
	cleanSales, skipped := clean.Sales(sales.Rows)
	summary.ParseErrors += skipped
	cleanProducts, skipped := clean.Products(products.Rows)
	summary.ParseErrors += skipped
	cleanCustomers := clean.Customers(customers.Rows)
	cleanRegions := clean.Regions(regions.Rows)

	logging.Info().
		Int("sales", len(cleanSales)).
		Int("products", len(cleanProducts)).
		Int("customers", len(cleanCustomers)).
		Int("regions", len(cleanRegions)).
		Msg("Sources cleaned")

	// Dimension load
	resolver, err := warehouse.NewResolver(ctx, p.DB)
	if err != nil {
		return nil, err
	}

	for _, r := range cleanRegions {
		if _, err := resolver.Region(ctx, r); err != nil {
			if skipValidation(err, summary) {
				continue
			}
			return nil, err
		}
	}
	for _, pr := range cleanProducts {
		if _, err := resolver.Product(ctx, pr); err != nil {
			if skipValidation(err, summary) {
				continue
			}
			return nil, err
		}
	}
	for _, c := range cleanCustomers {
		if _, err := resolver.Customer(ctx, c); err != nil {
			if skipValidation(err, summary) {
				continue
			}
			return nil, err
		}
	}

	// Fact load
	normalizer := clean.NewRegionNormalizer(cleanRegions)
	transformer := warehouse.NewTransformer(resolver, normalizer)
	loader := warehouse.NewFactLoader(p.DB, p.BatchSize)

	for _, s := range cleanSales {
		fact, rejected, err := transformer.Transform(ctx, s)
		if err != nil {
			return nil, err
		}
		if rejected != nil {
			logging.Debug().Str("sale_id", rejected.SaleID).
				Str("reason", rejected.Reason).Msg("Sale rejected")
			summary.ValidationErrors++
			continue
		}
		if err := loader.Add(ctx, fact); err != nil {
			return nil, err
		}
	}
	if err := loader.Flush(ctx); err != nil {
		return nil, err
	}

	for table, count := range resolver.Created() {
		summary.Loaded[table] = count
	}
	summary.Loaded["fact_sales"] = loader.Loaded()
	summary.DuplicateFacts = loader.Duplicates()
	summary.PersistenceErrors = len(loader.Failures())
	summary.Failures = loader.Failures()
	summary.FinishedAt = time.Now().UTC()

	return summary, nil
}

// skipValidation records a validation error on the summary and reports
// whether the error was row-level (and the run should continue).
func skipValidation(err error, summary *warehouse.RunSummary) bool {
	if errors.Is(err, warehouse.ErrMissingNaturalKey) {
		logging.Warn().Err(err).Msg("Dimension row skipped")
		summary.ValidationErrors++
		return true
	}
	return false
}
