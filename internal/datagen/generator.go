//-------------------------------------------------------------------------
//
// salesdw - e-commerce data warehouse ETL
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"salesdw/internal/logging"
	"salesdw/internal/source"
)

// catalog taxonomy: category to subcategories.
var categories = map[string][]string{
	"Technology":      {"Smartphones", "Laptops", "Tablets", "Accessories"},
	"Furniture":       {"Chairs", "Tables", "Bookcases", "Furnishings"},
	"Office Supplies": {"Paper", "Binders", "Art", "Storage"},
}

var categoryOrder = []string{"Technology", "Furniture", "Office Supplies"}

var segments = []string{"Consumer", "Corporate", "Home Office"}

// regionRef is the canonical regional reference data, one row per
// region/country pair. Multiple countries may share a region name.
var regionRef = []source.RegionRow{
	{RegionName: "North America", Country: "USA", Continent: "North America"},
	{RegionName: "North America", Country: "Canada", Continent: "North America"},
	{RegionName: "Europe West", Country: "UK", Continent: "Europe"},
	{RegionName: "Europe West", Country: "France", Continent: "Europe"},
	{RegionName: "Europe Central", Country: "Germany", Continent: "Europe"},
	{RegionName: "Europe South", Country: "Spain", Continent: "Europe"},
	{RegionName: "Europe South", Country: "Italy", Continent: "Europe"},
	{RegionName: "Asia Pacific", Country: "Australia", Continent: "Oceania"},
}

var citiesByCountry = map[string][]string{
	"USA":       {"New York", "Los Angeles", "Chicago", "Houston", "Phoenix"},
	"Canada":    {"Toronto", "Vancouver", "Montreal", "Calgary"},
	"UK":        {"London", "Manchester", "Birmingham", "Leeds"},
	"Germany":   {"Berlin", "Munich", "Hamburg", "Frankfurt"},
	"France":    {"Paris", "Lyon", "Marseille", "Toulouse"},
	"Spain":     {"Madrid", "Barcelona", "Valencia", "Seville"},
	"Italy":     {"Rome", "Milan", "Naples", "Turin"},
	"Australia": {"Sydney", "Melbourne", "Brisbane", "Perth"},
}

// discount ladder: most orders carry no discount.
var discounts = []float64{0, 0.05, 0.10, 0.15, 0.20}
var discountWeights = []int{4, 1, 1, 1, 1}

// missingDiscountRate is the fraction of sales written with an empty
// discount field, a deliberate defect for the cleaning stage to absorb.
const missingDiscountRate = 0.02

// Generator produces the four source files from one seeded faker.
type Generator struct {
	faker       *Faker
	customers   int
	maxProducts int
	sales       int
}

// NewGenerator creates a generator for the given row counts. The same
// seed always produces the same files.
func NewGenerator(seed uint64, customers, products, sales int) *Generator {
	return &Generator{
		faker:       NewFakerWithSeed(seed),
		customers:   customers,
		maxProducts: products,
		sales:       sales,
	}
}

// Generate writes customers.json, products.csv, regions.xlsx and
// sales.csv into dir, creating it if needed.
func (g *Generator) Generate(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	customers, err := g.writeCustomers(filepath.Join(dir, "customers.json"))
	if err != nil {
		return err
	}
	products, err := g.writeProducts(filepath.Join(dir, "products.csv"))
	if err != nil {
		return err
	}
	if err := g.writeRegions(filepath.Join(dir, "regions.xlsx")); err != nil {
		return err
	}
	if err := g.writeSales(filepath.Join(dir, "sales.csv"), customers, products); err != nil {
		return err
	}

	logging.Info().
		Int("customers", len(customers)).
		Int("products", len(products)).
		Int("regions", len(regionRef)).
		Int("sales", g.sales).
		Str("dir", dir).
		Msg("Source files generated")

	return nil
}

func (g *Generator) writeCustomers(path string) ([]source.CustomerRow, error) {
	countries := make([]string, 0, len(regionRef))
	for _, r := range regionRef {
		countries = append(countries, r.Country)
	}

	rows := make([]source.CustomerRow, 0, g.customers)
	for i := 0; i < g.customers; i++ {
		country := Choose(g.faker, countries)
		rows = append(rows, source.CustomerRow{
			CustomerID:   fmt.Sprintf("CUST%05d", i+1),
			CustomerName: g.faker.Name(),
			Segment:      Choose(g.faker, segments),
			Country:      country,
			City:         Choose(g.faker, citiesByCountry[country]),
		})
	}

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode customers: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return rows, nil
}

func (g *Generator) writeProducts(path string) ([]source.ProductRow, error) {
	var rows []source.ProductRow
	id := 1
	for _, category := range categoryOrder {
		for _, subcategory := range categories[category] {
			n := g.faker.Int(10, 20)
			for i := 0; i < n && id <= g.maxProducts; i++ {
				rows = append(rows, source.ProductRow{
					ProductID:   fmt.Sprintf("PROD%05d", id),
					ProductName: fmt.Sprintf("%s %s", g.faker.ProductName(), subcategory),
					Category:    category,
					Subcategory: subcategory,
					UnitPrice:   strconv.FormatFloat(g.faker.Price(10, 2000), 'f', 2, 64),
				})
				id++
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"product_id", "product_name", "category", "subcategory", "unit_price"}); err != nil {
		return nil, err
	}
	for _, r := range rows {
		if err := w.Write([]string{r.ProductID, r.ProductName, r.Category, r.Subcategory, r.UnitPrice}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return rows, nil
}

func (g *Generator) writeRegions(path string) error {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &[]string{"region_name", "country", "continent"}); err != nil {
		return err
	}
	for i, r := range regionRef {
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &[]string{r.RegionName, r.Country, r.Continent}); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func (g *Generator) writeSales(path string, customers []source.CustomerRow, products []source.ProductRow) error {
	regionByCountry := make(map[string]string, len(regionRef))
	for _, r := range regionRef {
		if _, ok := regionByCountry[r.Country]; !ok {
			regionByCountry[r.Country] = r.RegionName
		}
	}

	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(-2, 0, 0)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"sale_id", "order_date", "customer_id", "product_id",
		"region", "quantity", "unit_price", "discount"}); err != nil {
		return err
	}

	for i := 0; i < g.sales; i++ {
		customer := Choose(g.faker, customers)
		product := Choose(g.faker, products)

		region, ok := regionByCountry[customer.Country]
		if !ok {
			region = "Other"
		}

		discount := strconv.FormatFloat(ChooseWeighted(g.faker, discounts, discountWeights), 'f', 2, 64)
		if g.faker.Float64(0, 1) < missingDiscountRate {
			discount = ""
		}

		record := []string{
			fmt.Sprintf("SALE%07d", i+1),
			g.faker.DateRange(start, end).Format("2006-01-02"),
			customer.CustomerID,
			product.ProductID,
			region,
			strconv.Itoa(g.faker.Int(1, 10)),
			product.UnitPrice,
			discount,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
