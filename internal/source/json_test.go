package source

import (
	"path/filepath"
	"testing"
)

func TestReadCustomers(t *testing.T) {
	path := writeFile(t, "customers.json", `[
  {"customer_id": "CUST00001", "customer_name": "Ada Quinn",
   "segment": "Consumer", "country": "USA", "city": "Chicago"},
  {"customer_id": "CUST00002", "customer_name": "Ben Ito",
   "segment": "Corporate", "country": "Canada", "city": "Toronto"},
  {"customer_name": "No ID", "segment": "Consumer", "country": "UK", "city": "Leeds"}
]`)

	res, err := ReadCustomers(path)
	if err != nil {
		t.Fatalf("ReadCustomers: %v", err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(res.Rows))
	}
	if res.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", res.Skipped)
	}
	if res.Rows[0].CustomerID != "CUST00001" || res.Rows[0].City != "Chicago" {
		t.Errorf("unexpected first row: %+v", res.Rows[0])
	}
}

func TestReadCustomersInvalidJSON(t *testing.T) {
	path := writeFile(t, "customers.json", `{"not": "an array"}`)
	if _, err := ReadCustomers(path); err == nil {
		t.Fatal("expected error for non-array JSON")
	}
}

func TestReadCustomersMissingFile(t *testing.T) {
	if _, err := ReadCustomers(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
