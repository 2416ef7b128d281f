//-------------------------------------------------------------------------
//
// salesdw - e-commerce data warehouse ETL
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package source reads the heterogeneous input files into uniform raw row
// records. Readers only deal with structure (columns, headers, encoding);
// type coercion and semantic cleanup happen in the clean package.
//
// A malformed record is a parse error: it is logged, counted, and skipped.
// Only an unreadable file aborts the run.
package source

// SaleRow is a raw transaction row from the delimited sales file.
// All fields are uncoerced strings exactly as they appear in the source.
type SaleRow struct {
	SaleID     string
	OrderDate  string
	CustomerID string
	ProductID  string
	Region     string
	Quantity   string
	UnitPrice  string
	Discount   string
}

// ProductRow is a raw catalog row from the delimited products file.
type ProductRow struct {
	ProductID   string
	ProductName string
	Category    string
	Subcategory string
	UnitPrice   string
}

// CustomerRow is a raw customer record from the semi-structured JSON file.
type CustomerRow struct {
	CustomerID   string `json:"customer_id"`
	CustomerName string `json:"customer_name"`
	Segment      string `json:"segment"`
	Country      string `json:"country"`
	City         string `json:"city"`
}

// RegionRow is a raw region reference row from the spreadsheet file.
type RegionRow struct {
	RegionName string
	Country    string
	Continent  string
}

// Result carries the rows read from one source file plus the number of
// malformed records that were skipped.
type Result[T any] struct {
	Rows    []T
	Skipped int
}
