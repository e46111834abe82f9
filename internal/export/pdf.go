// Package export renders finished layouts and routed networks to PDF, DXF,
// XLSX and PNG files.
package export

import (
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/PlantLayout/internal/model"
	"github.com/piwi3910/PlantLayout/internal/routing"
)

// stationColor represents an RGB color for a placed station.
type stationColor struct {
	R, G, B int
}

var stationColors = []stationColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	legendHeight = 20.0
	drawAreaTop  = marginTop + headerHeight + 5.0
)

// ExportPDF writes a layout sheet: the factory floor with station bodies,
// clearance halos and, when net is non-nil, the routed path network,
// followed by summary pages with the station and route tables.
func ExportPDF(path string, layout model.LayoutResult, net *routing.Network) error {
	if err := layout.Validate(); err != nil {
		return err
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	pdf.AddPage()
	renderFloorPage(pdf, layout, net)

	pdf.AddPage()
	renderSummaryPage(pdf, layout, net)

	return pdf.OutputFileAndClose(path)
}

// floorCanvas maps grid coordinates onto the page.
type floorCanvas struct {
	scale, offsetX, offsetY float64
	width, height           float64
}

func (c floorCanvas) x(cells float64) float64 { return c.offsetX + cells*c.scale }
func (c floorCanvas) y(cells float64) float64 { return c.offsetY + cells*c.scale }

func newFloorCanvas(layout model.LayoutResult) floorCanvas {
	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom - legendHeight

	scale := math.Min(drawWidth/float64(layout.FactoryWidth), drawHeight/float64(layout.FactoryHeight))
	w := float64(layout.FactoryWidth) * scale
	h := float64(layout.FactoryHeight) * scale
	return floorCanvas{
		scale:   scale,
		offsetX: marginLeft + (drawWidth-w)/2,
		offsetY: drawAreaTop,
		width:   w,
		height:  h,
	}
}

// renderFloorPage draws the factory floor on the current PDF page.
func renderFloorPage(pdf *fpdf.Fpdf, layout model.LayoutResult, net *routing.Network) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Factory Layout (%d x %d cells)", layout.FactoryWidth, layout.FactoryHeight)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Stations: %d | Fitness: %.4f | Distance: %.2f | Throughput: %.2f units/h",
		len(layout.ProcessSequence), layout.Fitness, layout.TotalDistance, layout.Throughput)
	if net != nil {
		stats += fmt.Sprintf(" | Path length: %d | Failed segments: %d", net.TotalLength(), net.Failures())
	}
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	c := newFloorCanvas(layout)

	// Floor and grid
	pdf.SetFillColor(245, 245, 240)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Rect(c.offsetX, c.offsetY, c.width, c.height, "FD")
	drawGridLines(pdf, layout, c)

	defs := layout.StationMap()
	for i, id := range layout.ProcessSequence {
		drawClearanceHalo(pdf, layout, defs[id], layout.Positions[id], c)
		drawStation(pdf, defs[id], layout.Positions[id], stationColors[i%len(stationColors)], c)
	}

	if net != nil {
		drawNetwork(pdf, net, c)
	}

	drawDimensionAnnotations(pdf, layout, c)
	drawStationLegend(pdf, layout, c.offsetY+c.height+5)
}

func drawGridLines(pdf *fpdf.Fpdf, layout model.LayoutResult, c floorCanvas) {
	if c.scale < 2 {
		return
	}
	pdf.SetDrawColor(220, 220, 220)
	pdf.SetLineWidth(0.1)
	for x := 1; x < layout.FactoryWidth; x++ {
		pdf.Line(c.x(float64(x)), c.offsetY, c.x(float64(x)), c.offsetY+c.height)
	}
	for y := 1; y < layout.FactoryHeight; y++ {
		pdf.Line(c.offsetX, c.y(float64(y)), c.offsetX+c.width, c.y(float64(y)))
	}
}

// drawClearanceHalo outlines the clearance zone, clipped to the floor.
func drawClearanceHalo(pdf *fpdf.Fpdf, layout model.LayoutResult, def model.StationSpec, pos model.StationPosition, c floorCanvas) {
	if def.Clearance == 0 {
		return
	}
	x0 := max(pos.X-def.Clearance, 0)
	y0 := max(pos.Y-def.Clearance, 0)
	x1 := min(pos.X+def.Width+def.Clearance, layout.FactoryWidth)
	y1 := min(pos.Y+def.Height+def.Clearance, layout.FactoryHeight)

	pdf.SetAlpha(0.35, "Normal")
	pdf.SetFillColor(255, 220, 220)
	pdf.Rect(c.x(float64(x0)), c.y(float64(y0)), float64(x1-x0)*c.scale, float64(y1-y0)*c.scale, "F")
	pdf.SetAlpha(1, "Normal")

	pdf.SetDrawColor(200, 0, 0)
	pdf.SetLineWidth(0.2)
	pdf.SetDashPattern([]float64{1, 1}, 0)
	pdf.Rect(c.x(float64(x0)), c.y(float64(y0)), float64(x1-x0)*c.scale, float64(y1-y0)*c.scale, "D")
	pdf.SetDashPattern([]float64{}, 0)
}

func drawStation(pdf *fpdf.Fpdf, def model.StationSpec, pos model.StationPosition, col stationColor, c floorCanvas) {
	sw := float64(def.Width) * c.scale
	sh := float64(def.Height) * c.scale
	sx := c.x(float64(pos.X))
	sy := c.y(float64(pos.Y))

	pdf.SetFillColor(col.R, col.G, col.B)
	pdf.SetDrawColor(30, 30, 30)
	pdf.SetLineWidth(0.3)
	pdf.Rect(sx, sy, sw, sh, "FD")

	pdf.SetFont("Helvetica", "B", labelFontSize(sw, sh))
	pdf.SetTextColor(0, 0, 0)
	idLabel := fmt.Sprintf("%d", def.ID)
	idW := pdf.GetStringWidth(idLabel)
	if idW < sw-1 {
		pdf.SetXY(sx+(sw-idW)/2, sy+sh/2-4)
		pdf.CellFormat(idW, 4, idLabel, "", 0, "C", false, 0, "")
	}

	if sh > 10 {
		pdf.SetFont("Helvetica", "", labelFontSize(sw, sh)-1)
		nameW := pdf.GetStringWidth(def.Name)
		if nameW < sw-2 {
			pdf.SetXY(sx+(sw-nameW)/2, sy+sh/2)
			pdf.CellFormat(nameW, 4, def.Name, "", 0, "C", false, 0, "")
		}
	}
}

// drawNetwork draws each segment through cell centers. Placeholder segments
// are dashed red straight lines.
func drawNetwork(pdf *fpdf.Fpdf, net *routing.Network, c floorCanvas) {
	center := func(p model.Point) (float64, float64) {
		return c.x(float64(p.X) + 0.5), c.y(float64(p.Y) + 0.5)
	}

	for i, seg := range net.Segments {
		if seg.Found {
			pdf.SetDrawColor(20, 20, 120)
			pdf.SetLineWidth(0.6)
		} else {
			pdf.SetDrawColor(200, 0, 0)
			pdf.SetLineWidth(0.4)
			pdf.SetDashPattern([]float64{2, 1}, 0)
		}
		for j := 1; j < len(seg.Path); j++ {
			x1, y1 := center(seg.Path[j-1])
			x2, y2 := center(seg.Path[j])
			pdf.Line(x1, y1, x2, y2)
		}
		pdf.SetDashPattern([]float64{}, 0)

		if len(seg.Path) > 0 {
			mx, my := center(seg.Path[len(seg.Path)/2])
			pdf.SetFont("Helvetica", "B", 6)
			pdf.SetTextColor(20, 20, 120)
			label := fmt.Sprintf("%d", i+1)
			pdf.SetXY(mx+0.5, my-3)
			pdf.CellFormat(pdf.GetStringWidth(label), 3, label, "", 0, "L", false, 0, "")
		}
	}

	pdf.SetFillColor(0, 0, 0)
	r := math.Max(0.6, c.scale/5)
	for _, p := range net.AccessPoints {
		x, y := center(p)
		pdf.Circle(x, y, r, "F")
	}
	pdf.SetTextColor(0, 0, 0)
}

// drawDimensionAnnotations adds width and height labels outside the floor rectangle.
func drawDimensionAnnotations(pdf *fpdf.Fpdf, layout model.LayoutResult, c floorCanvas) {
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)

	widthLabel := fmt.Sprintf("%d cells", layout.FactoryWidth)
	wLabelW := pdf.GetStringWidth(widthLabel)
	pdf.SetXY(c.offsetX+(c.width-wLabelW)/2, c.offsetY+c.height+1)
	pdf.CellFormat(wLabelW, 4, widthLabel, "", 0, "C", false, 0, "")

	heightLabel := fmt.Sprintf("%d cells", layout.FactoryHeight)
	pdf.TransformBegin()
	pdf.TransformRotate(90, c.offsetX-3, c.offsetY+c.height/2)
	hLabelW := pdf.GetStringWidth(heightLabel)
	pdf.SetXY(c.offsetX-3-hLabelW/2, c.offsetY+c.height/2-2)
	pdf.CellFormat(hLabelW, 4, heightLabel, "", 0, "C", false, 0, "")
	pdf.TransformEnd()

	pdf.SetTextColor(0, 0, 0)
}

// drawStationLegend renders a compact legend of stations in sequence order.
func drawStationLegend(pdf *fpdf.Fpdf, layout model.LayoutResult, startY float64) {
	defs := layout.StationMap()

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, startY)
	pdf.CellFormat(30, 4, "Sequence:", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	xPos := marginLeft + 32
	maxX := pageWidth - marginRight

	for i, id := range layout.ProcessSequence {
		col := stationColors[i%len(stationColors)]
		def := defs[id]
		label := fmt.Sprintf("%d %s (%dx%d)", def.ID, def.Name, def.Width, def.Height)
		labelW := pdf.GetStringWidth(label) + 6

		if xPos+labelW > maxX {
			startY += 5
			xPos = marginLeft
		}

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Rect(xPos, startY+0.5, 3, 3, "F")

		pdf.SetXY(xPos+4, startY)
		pdf.CellFormat(labelW-4, 4, label, "", 0, "L", false, 0, "")

		xPos += labelW + 2
	}
}

// tableWriter draws bordered table rows and starts a new page when the
// current one is full.
type tableWriter struct {
	pdf     *fpdf.Fpdf
	y       float64
	widths  []float64
	headers []string
	rows    int
}

func (tw *tableWriter) header() {
	tw.pdf.SetFont("Helvetica", "B", 9)
	tw.pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, h := range tw.headers {
		tw.pdf.SetXY(xPos, tw.y)
		tw.pdf.CellFormat(tw.widths[i], 6, h, "1", 0, "C", true, 0, "")
		xPos += tw.widths[i]
	}
	tw.y += 6
	tw.pdf.SetFont("Helvetica", "", 9)
}

func (tw *tableWriter) row(cells ...string) {
	if tw.y+6 > pageHeight-marginBottom-6 {
		tw.pdf.AddPage()
		tw.y = marginTop
		tw.header()
	}
	if tw.rows%2 == 0 {
		tw.pdf.SetFillColor(245, 245, 245)
	} else {
		tw.pdf.SetFillColor(255, 255, 255)
	}
	xPos := marginLeft
	for j, cell := range cells {
		tw.pdf.SetXY(xPos, tw.y)
		tw.pdf.CellFormat(tw.widths[j], 6, cell, "1", 0, "C", true, 0, "")
		xPos += tw.widths[j]
	}
	tw.y += 6
	tw.rows++
}

func sectionTitle(pdf *fpdf.Fpdf, y float64, title string) float64 {
	if y+20 > pageHeight-marginBottom {
		pdf.AddPage()
		y = marginTop
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, title, "", 0, "L", false, 0, "")
	return y + 9
}

// renderSummaryPage draws the summary with overall statistics and the
// station and route tables.
func renderSummaryPage(pdf *fpdf.Fpdf, layout model.LayoutResult, net *routing.Network) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Layout Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := sectionTitle(pdf, marginTop+18, "Overall Statistics")

	summaryItems := []struct {
		label string
		value string
	}{
		{"Run ID", layout.RunID},
		{"Factory", fmt.Sprintf("%d x %d cells", layout.FactoryWidth, layout.FactoryHeight)},
		{"Stations", fmt.Sprintf("%d", len(layout.ProcessSequence))},
		{"Fitness", fmt.Sprintf("%.4f", layout.Fitness)},
		{"Total Distance", fmt.Sprintf("%.2f cells", layout.TotalDistance)},
		{"Throughput", fmt.Sprintf("%.2f units/h", layout.Throughput)},
	}
	if net != nil {
		summaryItems = append(summaryItems,
			struct{ label, value string }{"Path Length", fmt.Sprintf("%d cells", net.TotalLength())},
			struct{ label, value string }{"Failed Segments", fmt.Sprintf("%d of %d", net.Failures(), len(net.Segments))},
		)
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range summaryItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(100, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}

	y = sectionTitle(pdf, y+5, "Stations")
	stations := &tableWriter{
		pdf:     pdf,
		y:       y,
		widths:  []float64{15, 15, 60, 30, 30, 35, 35, 45},
		headers: []string{"Step", "ID", "Name", "Size", "Clearance", "Cycle Time", "Origin", "Center"},
	}
	stations.header()
	defs := layout.StationMap()
	for i, id := range layout.ProcessSequence {
		def, pos := defs[id], layout.Positions[id]
		stations.row(
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%d", id),
			def.Name,
			fmt.Sprintf("%d x %d", def.Width, def.Height),
			fmt.Sprintf("%d", def.Clearance),
			fmt.Sprintf("%.1f s", def.CycleTime),
			fmt.Sprintf("(%d, %d)", pos.X, pos.Y),
			fmt.Sprintf("(%.1f, %.1f)", pos.CenterX, pos.CenterY),
		)
	}
	y = stations.y

	if net != nil && len(net.Segments) > 0 {
		y = sectionTitle(pdf, y+8, "Routes")
		routes := &tableWriter{
			pdf:     pdf,
			y:       y,
			widths:  []float64{20, 40, 45, 45, 30, 30},
			headers: []string{"Segment", "Stations", "Start", "Goal", "Length", "Status"},
		}
		routes.header()
		for i, seg := range net.Segments {
			status, length := "ok", fmt.Sprintf("%d", seg.Path.Steps())
			if !seg.Found {
				status, length = "NOT FOUND", "-"
			}
			routes.row(
				fmt.Sprintf("%d", i+1),
				fmt.Sprintf("%d -> %d", seg.From, seg.To),
				fmt.Sprintf("(%d, %d)", seg.Start.X, seg.Start.Y),
				fmt.Sprintf("(%d, %d)", seg.Goal.X, seg.Goal.Y),
				length,
				status,
			)
		}
		y = routes.y
	}

	if net != nil && len(net.Unresolved) > 0 {
		y += 8
		if y+10 > pageHeight-marginBottom {
			pdf.AddPage()
			y = marginTop
		}
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(200, 0, 0)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(250, 7, fmt.Sprintf("WARNING: No access point for stations %v", net.Unresolved), "", 0, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by PlantLayout - Facility Layout Optimizer", "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// labelFontSize returns an appropriate font size based on the rectangle dimensions.
func labelFontSize(w, h float64) float64 {
	minDim := math.Min(w, h)
	switch {
	case minDim > 40:
		return 10
	case minDim > 20:
		return 8
	default:
		return 7
	}
}
