//-------------------------------------------------------------------------
//
// salesdw - e-commerce data warehouse ETL
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package clean turns raw source rows into typed, normalized records:
// type coercion, null handling, deduplication and referential-tag
// normalization (category casing, region aliases).
package clean

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"salesdw/internal/logging"
	"salesdw/internal/source"
)

const dateLayout = "2006-01-02"

var titleCaser = cases.Title(language.English)

// Sale is a cleaned, typed sales transaction.
type Sale struct {
	SaleID     string
	OrderDate  time.Time
	CustomerID string
	ProductID  string
	Region     string
	Quantity   int
	UnitPrice  float64
	Discount   float64
}

// Product is a cleaned catalog record.
type Product struct {
	ProductID   string
	Name        string
	Category    string
	Subcategory string
	UnitPrice   float64
}

// Customer is a cleaned, deduplicated customer record.
type Customer struct {
	CustomerID string
	Name       string
	Segment    string
	Country    string
	City       string
}

// Region is a cleaned regional reference record.
type Region struct {
	Name      string
	Country   string
	Continent string
}

// Sales coerces raw sale rows into typed records. A row whose numeric or
// date fields fail to coerce is malformed: it is skipped and counted.
// A missing discount is a known data-quality defect and cleans to 0.
func Sales(rows []source.SaleRow) ([]Sale, int) {
	out := make([]Sale, 0, len(rows))
	skipped := 0

	for _, r := range rows {
		date, err := time.Parse(dateLayout, strings.TrimSpace(r.OrderDate))
		if err != nil {
			logging.Warn().Str("sale_id", r.SaleID).Str("order_date", r.OrderDate).
				Msg("Skipping sale with unparseable date")
			skipped++
			continue
		}

		qty, err := strconv.Atoi(strings.TrimSpace(r.Quantity))
		if err != nil {
			logging.Warn().Str("sale_id", r.SaleID).Str("quantity", r.Quantity).
				Msg("Skipping sale with non-integer quantity")
			skipped++
			continue
		}

		price, err := strconv.ParseFloat(strings.TrimSpace(r.UnitPrice), 64)
		if err != nil {
			logging.Warn().Str("sale_id", r.SaleID).Str("unit_price", r.UnitPrice).
				Msg("Skipping sale with non-numeric unit price")
			skipped++
			continue
		}

		discount := 0.0
		if s := strings.TrimSpace(r.Discount); s != "" {
			discount, err = strconv.ParseFloat(s, 64)
			if err != nil {
				logging.Warn().Str("sale_id", r.SaleID).Str("discount", r.Discount).
					Msg("Skipping sale with non-numeric discount")
				skipped++
				continue
			}
		}

		out = append(out, Sale{
			SaleID:     strings.TrimSpace(r.SaleID),
			OrderDate:  date,
			CustomerID: strings.TrimSpace(r.CustomerID),
			ProductID:  strings.TrimSpace(r.ProductID),
			Region:     strings.TrimSpace(r.Region),
			Quantity:   qty,
			UnitPrice:  price,
			Discount:   discount,
		})
	}

	return out, skipped
}

// Products coerces raw product rows and normalizes category casing.
func Products(rows []source.ProductRow) ([]Product, int) {
	out := make([]Product, 0, len(rows))
	skipped := 0

	for _, r := range rows {
		price, err := strconv.ParseFloat(strings.TrimSpace(r.UnitPrice), 64)
		if err != nil {
			logging.Warn().Str("product_id", r.ProductID).Str("unit_price", r.UnitPrice).
				Msg("Skipping product with non-numeric unit price")
			skipped++
			continue
		}

		out = append(out, Product{
			ProductID:   strings.TrimSpace(r.ProductID),
			Name:        strings.TrimSpace(r.ProductName),
			Category:    TitleCase(r.Category),
			Subcategory: TitleCase(r.Subcategory),
			UnitPrice:   price,
		})
	}

	return out, skipped
}

// Customers trims and deduplicates customer records by customer_id,
// keeping the first occurrence.
func Customers(rows []source.CustomerRow) []Customer {
	seen := make(map[string]bool, len(rows))
	out := make([]Customer, 0, len(rows))

	for _, r := range rows {
		id := strings.TrimSpace(r.CustomerID)
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, Customer{
			CustomerID: id,
			Name:       strings.TrimSpace(r.CustomerName),
			Segment:    strings.TrimSpace(r.Segment),
			Country:    strings.TrimSpace(r.Country),
			City:       strings.TrimSpace(r.City),
		})
	}

	if dropped := len(rows) - len(out); dropped > 0 {
		logging.Info().Int("dropped", dropped).Msg("Deduplicated customer records")
	}
	return out
}

// Regions trims and deduplicates region records by region name.
func Regions(rows []source.RegionRow) []Region {
	seen := make(map[string]bool, len(rows))
	out := make([]Region, 0, len(rows))

	for _, r := range rows {
		name := strings.TrimSpace(r.RegionName)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, Region{
			Name:      name,
			Country:   strings.TrimSpace(r.Country),
			Continent: strings.TrimSpace(r.Continent),
		})
	}

	return out
}

// TitleCase normalizes a referential tag to canonical title casing.
func TitleCase(s string) string {
	return titleCaser.String(strings.ToLower(strings.TrimSpace(s)))
}
