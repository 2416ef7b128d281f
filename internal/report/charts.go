//-------------------------------------------------------------------------
//
// salesdw - e-commerce data warehouse ETL
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package report

import (
	"fmt"
	"math"
	"strconv"

	gomponents "maragu.dev/gomponents"
)

// All charts render to inline SVG so the dashboard is a single static
// file with no script or network dependencies.

var palette = []string{
	"#4e79a7", "#f28e2b", "#e15759", "#76b7b2",
	"#59a14f", "#edc949", "#b07aa1", "#ff9da7",
}

func seriesColor(i int) string {
	return palette[i%len(palette)]
}

func svgRoot(width, height int, children ...gomponents.Node) gomponents.Node {
	return gomponents.El("svg",
		gomponents.Attr("xmlns", "http://www.w3.org/2000/svg"),
		gomponents.Attr("viewBox", fmt.Sprintf("0 0 %d %d", width, height)),
		gomponents.Attr("width", strconv.Itoa(width)),
		gomponents.Attr("height", strconv.Itoa(height)),
		gomponents.Attr("role", "img"),
		gomponents.Group(children),
	)
}

func svgRect(x, y, w, h float64, fill string) gomponents.Node {
	return gomponents.El("rect",
		gomponents.Attr("x", fmtCoord(x)),
		gomponents.Attr("y", fmtCoord(y)),
		gomponents.Attr("width", fmtCoord(w)),
		gomponents.Attr("height", fmtCoord(h)),
		gomponents.Attr("fill", fill),
	)
}

func svgText(x, y float64, size int, anchor, s string) gomponents.Node {
	return gomponents.El("text",
		gomponents.Attr("x", fmtCoord(x)),
		gomponents.Attr("y", fmtCoord(y)),
		gomponents.Attr("font-size", strconv.Itoa(size)),
		gomponents.Attr("text-anchor", anchor),
		gomponents.Attr("fill", "#333"),
		gomponents.Text(s),
	)
}

func fmtCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func fmtMoney(v float64) string {
	switch {
	case v >= 1e6:
		return fmt.Sprintf("$%.1fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("$%.0fK", v/1e3)
	default:
		return fmt.Sprintf("$%.0f", v)
	}
}

func maxValue(values []float64) float64 {
	max := 0.0
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	if max == 0 {
		max = 1
	}
	return max
}

// barChart draws one vertical bar per label, scaled to the largest value.
func barChart(labels []string, values []float64) gomponents.Node {
	const width, height = 640, 320
	const marginLeft, marginBottom, marginTop = 20.0, 40.0, 24.0

	if len(labels) == 0 {
		return emptyChart(width, height)
	}

	plotW := float64(width) - 2*marginLeft
	plotH := float64(height) - marginBottom - marginTop
	max := maxValue(values)

	step := plotW / float64(len(labels))
	barW := step * 0.6

	nodes := make([]gomponents.Node, 0, len(labels)*3)
	for i, v := range values {
		h := v / max * plotH
		x := marginLeft + float64(i)*step + (step-barW)/2
		y := marginTop + plotH - h
		nodes = append(nodes,
			svgRect(x, y, barW, h, seriesColor(i)),
			svgText(x+barW/2, y-4, 11, "middle", fmtMoney(v)),
			svgText(x+barW/2, float64(height)-12, 11, "middle", labels[i]),
		)
	}
	return svgRoot(width, height, nodes...)
}

// lineChart draws a single series as a polyline with point markers.
func lineChart(labels []string, values []float64) gomponents.Node {
	const width, height = 640, 320
	const marginLeft, marginRight, marginBottom, marginTop = 40.0, 20.0, 40.0, 24.0

	if len(values) == 0 {
		return emptyChart(width, height)
	}

	plotW := float64(width) - marginLeft - marginRight
	plotH := float64(height) - marginBottom - marginTop
	max := maxValue(values)

	pointX := func(i int) float64 {
		if len(values) == 1 {
			return marginLeft + plotW/2
		}
		return marginLeft + float64(i)/float64(len(values)-1)*plotW
	}
	pointY := func(v float64) float64 {
		return marginTop + plotH - v/max*plotH
	}

	points := ""
	for i, v := range values {
		points += fmt.Sprintf("%s,%s ", fmtCoord(pointX(i)), fmtCoord(pointY(v)))
	}

	nodes := []gomponents.Node{
		gomponents.El("polyline",
			gomponents.Attr("points", points),
			gomponents.Attr("fill", "none"),
			gomponents.Attr("stroke", seriesColor(0)),
			gomponents.Attr("stroke-width", "2"),
		),
	}

	// Label every n-th point so long series stay readable.
	labelEvery := 1 + len(labels)/8
	for i, v := range values {
		nodes = append(nodes, gomponents.El("circle",
			gomponents.Attr("cx", fmtCoord(pointX(i))),
			gomponents.Attr("cy", fmtCoord(pointY(v))),
			gomponents.Attr("r", "3"),
			gomponents.Attr("fill", seriesColor(0)),
		))
		if i%labelEvery == 0 {
			nodes = append(nodes, svgText(pointX(i), float64(height)-12, 10, "middle", labels[i]))
		}
	}

	return svgRoot(width, height, nodes...)
}

// pieChart draws one slice per label with a legend on the right.
func pieChart(labels []string, values []float64) gomponents.Node {
	return circleChart(labels, values, 0)
}

// donutChart is a pie chart with a hollow center.
func donutChart(labels []string, values []float64) gomponents.Node {
	return circleChart(labels, values, 55)
}

func circleChart(labels []string, values []float64, innerRadius float64) gomponents.Node {
	const width, height = 640, 320
	const cx, cy, r = 160.0, 160.0, 120.0

	if len(values) == 0 {
		return emptyChart(width, height)
	}

	total := 0.0
	for _, v := range values {
		total += v
	}
	if total == 0 {
		return emptyChart(width, height)
	}

	nodes := make([]gomponents.Node, 0, len(values)*2)
	angle := -math.Pi / 2
	for i, v := range values {
		sweep := v / total * 2 * math.Pi
		nodes = append(nodes, pieSlice(cx, cy, r, angle, angle+sweep, seriesColor(i)))
		angle += sweep

		// legend
		ly := 40.0 + float64(i)*24
		nodes = append(nodes,
			svgRect(340, ly-10, 12, 12, seriesColor(i)),
			svgText(360, ly, 12, "start",
				fmt.Sprintf("%s — %s (%.1f%%)", labels[i], fmtMoney(v), v/total*100)),
		)
	}

	if innerRadius > 0 {
		nodes = append(nodes, gomponents.El("circle",
			gomponents.Attr("cx", fmtCoord(cx)),
			gomponents.Attr("cy", fmtCoord(cy)),
			gomponents.Attr("r", fmtCoord(innerRadius)),
			gomponents.Attr("fill", "#fff"),
		))
	}

	return svgRoot(width, height, nodes...)
}

func pieSlice(cx, cy, r, from, to float64, fill string) gomponents.Node {
	// A full-circle slice degenerates to a zero-length arc; draw a circle.
	if to-from >= 2*math.Pi-1e-9 {
		return gomponents.El("circle",
			gomponents.Attr("cx", fmtCoord(cx)),
			gomponents.Attr("cy", fmtCoord(cy)),
			gomponents.Attr("r", fmtCoord(r)),
			gomponents.Attr("fill", fill),
		)
	}

	x1, y1 := cx+r*math.Cos(from), cy+r*math.Sin(from)
	x2, y2 := cx+r*math.Cos(to), cy+r*math.Sin(to)
	largeArc := 0
	if to-from > math.Pi {
		largeArc = 1
	}

	d := fmt.Sprintf("M %s %s L %s %s A %s %s 0 %d 1 %s %s Z",
		fmtCoord(cx), fmtCoord(cy),
		fmtCoord(x1), fmtCoord(y1),
		fmtCoord(r), fmtCoord(r), largeArc,
		fmtCoord(x2), fmtCoord(y2))

	return gomponents.El("path",
		gomponents.Attr("d", d),
		gomponents.Attr("fill", fill),
	)
}

// hBarChart draws one horizontal bar per label, longest at the top.
func hBarChart(labels []string, values []float64) gomponents.Node {
	const width = 640
	const rowH, marginLeft, marginTop = 28.0, 220.0, 16.0

	if len(labels) == 0 {
		return emptyChart(width, 120)
	}

	height := int(marginTop*2 + rowH*float64(len(labels)))
	plotW := float64(width) - marginLeft - 70
	max := maxValue(values)

	nodes := make([]gomponents.Node, 0, len(labels)*3)
	for i, v := range values {
		w := v / max * plotW
		y := marginTop + float64(i)*rowH
		nodes = append(nodes,
			svgText(marginLeft-8, y+rowH/2+4, 11, "end", truncateLabel(labels[i], 34)),
			svgRect(marginLeft, y+4, w, rowH-8, seriesColor(i)),
			svgText(marginLeft+w+6, y+rowH/2+4, 11, "start", fmtMoney(v)),
		)
	}
	return svgRoot(width, height, nodes...)
}

func truncateLabel(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func emptyChart(width, height int) gomponents.Node {
	return svgRoot(width, height,
		svgText(float64(width)/2, float64(height)/2, 14, "middle", "no data"))
}
