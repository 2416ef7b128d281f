package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"salesdw/internal/warehouse"
)

func sampleData() *Data {
	return &Data{
		GeneratedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Categories: []warehouse.CategoryRevenue{
			{Category: "Technology", Revenue: 120000, Orders: 420},
			{Category: "Furniture", Revenue: 80000, Orders: 310},
		},
		Monthly: []warehouse.MonthlyRevenue{
			{Year: 2026, Month: 6, Revenue: 90000, UniqueCustomers: 150},
			{Year: 2026, Month: 7, Revenue: 110000, UniqueCustomers: 180},
		},
		Regions: []warehouse.RegionRevenue{
			{Region: "North America", Revenue: 130000, Orders: 400},
			{Region: "Europe West", Revenue: 70000, Orders: 330},
		},
		TopProducts: []warehouse.ProductRevenue{
			{Product: "Ergonomic Laptop Stand", Revenue: 40000, UnitsSold: 200},
		},
		Segments: []warehouse.SegmentRevenue{
			{Segment: "Consumer", Customers: 300, Revenue: 100000},
			{Segment: "Corporate", Customers: 120, Revenue: 100000},
		},
		Quarters: []warehouse.QuarterRevenue{
			{Year: 2026, Quarter: 2, Revenue: 90000},
			{Year: 2026, Quarter: 3, Revenue: 110000},
		},
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleData()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"<!doctype html>",
		"Sales Warehouse Dashboard",
		"Revenue by Category",
		"Monthly Revenue Trend",
		"Revenue by Region",
		"Top Products",
		"Customer Segments",
		"Quarterly Performance",
		"Technology",
		"North America",
		"Ergonomic Laptop Stand",
		"2026 Q2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered dashboard missing %q", want)
		}
	}

	if got := strings.Count(out, "<svg"); got != 6 {
		t.Errorf("dashboard has %d charts, want 6", got)
	}
}

func TestRenderEmptyData(t *testing.T) {
	var buf bytes.Buffer
	d := &Data{GeneratedAt: time.Now()}
	if err := Render(&buf, d); err != nil {
		t.Fatalf("Render empty: %v", err)
	}
	if !strings.Contains(buf.String(), "no data") {
		t.Error("empty dashboard should render placeholder charts")
	}
}

func TestTotals(t *testing.T) {
	d := sampleData()
	if got := d.TotalRevenue(); got != 200000 {
		t.Errorf("TotalRevenue = %v, want 200000", got)
	}
	if got := d.TotalOrders(); got != 730 {
		t.Errorf("TotalOrders = %v, want 730", got)
	}
}
