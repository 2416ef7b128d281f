package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"salesdw/internal/logging"
)

// salesColumns are the required headers of the sales transaction file.
// The transaction id column may be named either sale_id or order_id;
// both spellings occur in exported data.
var salesColumns = []string{"order_date", "customer_id", "product_id",
	"region", "quantity", "unit_price", "discount"}

// productColumns are the required headers of the product catalog file.
var productColumns = []string{"product_id", "product_name", "category",
	"subcategory", "unit_price"}

// ReadSales reads the delimited sales transaction file.
// Records with the wrong field count are skipped and counted.
func ReadSales(path string) (Result[SaleRow], error) {
	f, err := os.Open(path)
	if err != nil {
		return Result[SaleRow]{}, fmt.Errorf("failed to open sales file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // validated per record so bad rows don't abort the file

	header, err := r.Read()
	if err != nil {
		return Result[SaleRow]{}, fmt.Errorf("failed to read sales header: %w", err)
	}

	idx, err := headerIndex(header, salesColumns)
	if err != nil {
		return Result[SaleRow]{}, fmt.Errorf("sales file: %w", err)
	}

	idIdx, ok := findColumn(header, "sale_id")
	if !ok {
		if idIdx, ok = findColumn(header, "order_id"); !ok {
			return Result[SaleRow]{}, fmt.Errorf("sales file: missing required column sale_id or order_id")
		}
	}

	var res Result[SaleRow]
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			logging.Warn().Str("file", path).Int("line", line).Err(err).Msg("Skipping malformed record")
			res.Skipped++
			continue
		}
		if len(record) != len(header) {
			logging.Warn().Str("file", path).Int("line", line).
				Int("fields", len(record)).Msg("Skipping record with wrong field count")
			res.Skipped++
			continue
		}

		res.Rows = append(res.Rows, SaleRow{
			SaleID:     record[idIdx],
			OrderDate:  record[idx["order_date"]],
			CustomerID: record[idx["customer_id"]],
			ProductID:  record[idx["product_id"]],
			Region:     record[idx["region"]],
			Quantity:   record[idx["quantity"]],
			UnitPrice:  record[idx["unit_price"]],
			Discount:   record[idx["discount"]],
		})
	}

	logging.Debug().Str("file", path).Int("rows", len(res.Rows)).
		Int("skipped", res.Skipped).Msg("Read sales file")
	return res, nil
}

// ReadProducts reads the delimited product catalog file.
func ReadProducts(path string) (Result[ProductRow], error) {
	f, err := os.Open(path)
	if err != nil {
		return Result[ProductRow]{}, fmt.Errorf("failed to open products file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return Result[ProductRow]{}, fmt.Errorf("failed to read products header: %w", err)
	}

	idx, err := headerIndex(header, productColumns)
	if err != nil {
		return Result[ProductRow]{}, fmt.Errorf("products file: %w", err)
	}

	var res Result[ProductRow]
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil || len(record) != len(header) {
			logging.Warn().Str("file", path).Int("line", line).Msg("Skipping malformed record")
			res.Skipped++
			continue
		}

		res.Rows = append(res.Rows, ProductRow{
			ProductID:   record[idx["product_id"]],
			ProductName: record[idx["product_name"]],
			Category:    record[idx["category"]],
			Subcategory: record[idx["subcategory"]],
			UnitPrice:   record[idx["unit_price"]],
		})
	}

	logging.Debug().Str("file", path).Int("rows", len(res.Rows)).
		Int("skipped", res.Skipped).Msg("Read products file")
	return res, nil
}

// headerIndex maps each required column name to its position in the header.
func headerIndex(header, required []string) (map[string]int, error) {
	idx := make(map[string]int, len(required))
	for _, col := range required {
		pos, ok := findColumn(header, col)
		if !ok {
			return nil, fmt.Errorf("missing required column %s", col)
		}
		idx[col] = pos
	}
	return idx, nil
}

func findColumn(header []string, name string) (int, bool) {
	for i, h := range header {
		if h == name {
			return i, true
		}
	}
	return 0, false
}
