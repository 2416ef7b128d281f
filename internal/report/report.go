//-------------------------------------------------------------------------
//
// salesdw - e-commerce data warehouse ETL
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package report renders the warehouse aggregates as a static HTML
// dashboard with inline SVG charts.
package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	gomponents "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"

	"salesdw/internal/logging"
	"salesdw/internal/warehouse"
)

// Data holds the six aggregate result sets one dashboard is built from.
type Data struct {
	GeneratedAt time.Time

	Categories  []warehouse.CategoryRevenue
	Monthly     []warehouse.MonthlyRevenue
	Regions     []warehouse.RegionRevenue
	TopProducts []warehouse.ProductRevenue
	Segments    []warehouse.SegmentRevenue
	Quarters    []warehouse.QuarterRevenue
}

// Gather runs all aggregation queries against the warehouse.
func Gather(ctx context.Context, db warehouse.DB, topProducts int) (*Data, error) {
	d := &Data{GeneratedAt: time.Now().UTC()}

	var err error
	if d.Categories, err = warehouse.RevenueByCategory(ctx, db); err != nil {
		return nil, err
	}
	if d.Monthly, err = warehouse.MonthlyTrend(ctx, db); err != nil {
		return nil, err
	}
	if d.Regions, err = warehouse.RevenueByRegion(ctx, db); err != nil {
		return nil, err
	}
	if d.TopProducts, err = warehouse.TopProducts(ctx, db, topProducts); err != nil {
		return nil, err
	}
	if d.Segments, err = warehouse.SegmentMix(ctx, db); err != nil {
		return nil, err
	}
	if d.Quarters, err = warehouse.QuarterlyPerformance(ctx, db); err != nil {
		return nil, err
	}
	return d, nil
}

// TotalRevenue sums revenue across categories.
func (d *Data) TotalRevenue() float64 {
	total := 0.0
	for _, c := range d.Categories {
		total += c.Revenue
	}
	return total
}

// TotalOrders sums order counts across categories.
func (d *Data) TotalOrders() int64 {
	var total int64
	for _, c := range d.Categories {
		total += c.Orders
	}
	return total
}

// Render writes the dashboard HTML to w.
func Render(w io.Writer, d *Data) error {
	return page(d).Render(w)
}

// WriteFile renders the dashboard to a file.
func WriteFile(path string, d *Data) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	if err := Render(f, d); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	logging.Info().Str("path", path).Msg("Dashboard written")
	return nil
}

const dashboardCSS = `
body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif;
       margin: 0; background: #f5f6f8; color: #333; }
header { background: #2c3e50; color: #fff; padding: 20px 32px; }
header h1 { margin: 0; font-size: 22px; }
header p { margin: 4px 0 0; color: #bdc3c7; font-size: 13px; }
.stats { display: flex; gap: 16px; padding: 20px 32px 0; }
.stat { background: #fff; border-radius: 6px; padding: 14px 20px;
        box-shadow: 0 1px 2px rgba(0,0,0,.08); }
.stat .value { font-size: 22px; font-weight: 600; }
.stat .label { font-size: 12px; color: #888; }
.grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(640px, 1fr));
        gap: 20px; padding: 20px 32px 40px; }
.card { background: #fff; border-radius: 6px; padding: 16px 20px;
        box-shadow: 0 1px 2px rgba(0,0,0,.08); }
.card h2 { margin: 0 0 12px; font-size: 15px; }
`

func page(d *Data) gomponents.Node {
	return html.Doctype(
		html.HTML(
			html.Lang("en"),
			html.Head(
				html.Meta(html.Charset("utf-8")),
				html.TitleEl(gomponents.Text("Sales Warehouse Dashboard")),
				html.StyleEl(gomponents.Raw(dashboardCSS)),
			),
			html.Body(
				html.Header(
					html.H1(gomponents.Text("Sales Warehouse Dashboard")),
					html.P(gomponents.Textf("Generated %s",
						d.GeneratedAt.Format("2006-01-02 15:04 UTC"))),
				),
				statsRow(d),
				html.Div(html.Class("grid"),
					card("Revenue by Category", categoryChart(d.Categories)),
					card("Monthly Revenue Trend", monthlyChart(d.Monthly)),
					card("Revenue by Region", regionChart(d.Regions)),
					card("Top Products", topProductsChart(d.TopProducts)),
					card("Customer Segments", segmentChart(d.Segments)),
					card("Quarterly Performance", quarterChart(d.Quarters)),
				),
			),
		),
	)
}

func statsRow(d *Data) gomponents.Node {
	return html.Div(html.Class("stats"),
		stat(fmtMoney(d.TotalRevenue()), "Total revenue"),
		stat(fmt.Sprintf("%d", d.TotalOrders()), "Orders"),
		stat(fmt.Sprintf("%d", len(d.Regions)), "Regions"),
		stat(fmt.Sprintf("%d", len(d.Monthly)), "Months of data"),
	)
}

func stat(value, label string) gomponents.Node {
	return html.Div(html.Class("stat"),
		html.Div(html.Class("value"), gomponents.Text(value)),
		html.Div(html.Class("label"), gomponents.Text(label)),
	)
}

func card(title string, chart gomponents.Node) gomponents.Node {
	return html.Div(html.Class("card"),
		html.H2(gomponents.Text(title)),
		chart,
	)
}

func categoryChart(rows []warehouse.CategoryRevenue) gomponents.Node {
	labels := make([]string, len(rows))
	values := make([]float64, len(rows))
	for i, r := range rows {
		labels[i] = r.Category
		values[i] = r.Revenue
	}
	return barChart(labels, values)
}

func monthlyChart(rows []warehouse.MonthlyRevenue) gomponents.Node {
	labels := make([]string, len(rows))
	values := make([]float64, len(rows))
	for i, r := range rows {
		labels[i] = fmt.Sprintf("%d-%02d", r.Year, r.Month)
		values[i] = r.Revenue
	}
	return lineChart(labels, values)
}

func regionChart(rows []warehouse.RegionRevenue) gomponents.Node {
	labels := make([]string, len(rows))
	values := make([]float64, len(rows))
	for i, r := range rows {
		labels[i] = r.Region
		values[i] = r.Revenue
	}
	return pieChart(labels, values)
}

func topProductsChart(rows []warehouse.ProductRevenue) gomponents.Node {
	labels := make([]string, len(rows))
	values := make([]float64, len(rows))
	for i, r := range rows {
		labels[i] = r.Product
		values[i] = r.Revenue
	}
	return hBarChart(labels, values)
}

func segmentChart(rows []warehouse.SegmentRevenue) gomponents.Node {
	labels := make([]string, len(rows))
	values := make([]float64, len(rows))
	for i, r := range rows {
		labels[i] = fmt.Sprintf("%s (%d customers)", r.Segment, r.Customers)
		values[i] = r.Revenue
	}
	return donutChart(labels, values)
}

func quarterChart(rows []warehouse.QuarterRevenue) gomponents.Node {
	labels := make([]string, len(rows))
	values := make([]float64, len(rows))
	for i, r := range rows {
		labels[i] = fmt.Sprintf("%d Q%d", r.Year, r.Quarter)
		values[i] = r.Revenue
	}
	return barChart(labels, values)
}
