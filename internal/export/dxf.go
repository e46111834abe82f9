package export

import (
	"fmt"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"
	"github.com/yofu/dxf/table"

	"github.com/piwi3910/PlantLayout/internal/model"
	"github.com/piwi3910/PlantLayout/internal/routing"
)

// DXF layer names.
const (
	LayerFloor     = "FLOOR"
	LayerStations  = "STATIONS"
	LayerClearance = "CLEARANCE"
	LayerRoutes    = "ROUTES"
	LayerFailed    = "ROUTES_FAILED"
)

// ExportDXF writes the layout as a CAD drawing in drawing units of cellSize
// per grid cell. The grid's y axis points down, so rows are flipped to keep
// the drawing the same way up as the PDF sheet.
func ExportDXF(path string, layout model.LayoutResult, net *routing.Network, cellSize float64) error {
	if err := layout.Validate(); err != nil {
		return err
	}
	if cellSize <= 0 {
		cellSize = 1
	}

	d := dxf.NewDrawing()
	w := &dxfWriter{d: d, cell: cellSize, height: float64(layout.FactoryHeight)}

	layers := []struct {
		name string
		col  color.ColorNumber
		lt   *table.LineType
	}{
		{LayerFloor, color.White, table.LT_CONTINUOUS},
		{LayerStations, color.Green, table.LT_CONTINUOUS},
		{LayerClearance, color.Red, table.LT_HIDDEN},
		{LayerRoutes, color.Blue, table.LT_CONTINUOUS},
		{LayerFailed, color.Magenta, table.LT_HIDDEN},
	}
	for _, l := range layers {
		if _, err := d.AddLayer(l.name, l.col, l.lt, false); err != nil {
			return fmt.Errorf("failed to add layer %s: %w", l.name, err)
		}
	}

	if err := d.ChangeLayer(LayerFloor); err != nil {
		return err
	}
	w.rect(0, 0, layout.FactoryWidth, layout.FactoryHeight)

	defs := layout.StationMap()
	for _, id := range layout.ProcessSequence {
		def, pos := defs[id], layout.Positions[id]

		if err := d.ChangeLayer(LayerStations); err != nil {
			return err
		}
		w.rect(pos.X, pos.Y, pos.X+def.Width, pos.Y+def.Height)
		textH := 0.3 * cellSize
		if _, err := d.Text(fmt.Sprintf("%d %s", id, def.Name), w.x(pos.CenterX), w.y(pos.CenterY), 0, textH); err != nil {
			return fmt.Errorf("failed to label station %d: %w", id, err)
		}

		if def.Clearance > 0 {
			if err := d.ChangeLayer(LayerClearance); err != nil {
				return err
			}
			w.rect(
				max(pos.X-def.Clearance, 0),
				max(pos.Y-def.Clearance, 0),
				min(pos.X+def.Width+def.Clearance, layout.FactoryWidth),
				min(pos.Y+def.Height+def.Clearance, layout.FactoryHeight),
			)
		}
	}

	if net != nil {
		for _, seg := range net.Segments {
			layer := LayerRoutes
			if !seg.Found {
				layer = LayerFailed
			}
			if err := d.ChangeLayer(layer); err != nil {
				return err
			}
			if err := w.path(seg.Path); err != nil {
				return fmt.Errorf("failed to draw segment %d -> %d: %w", seg.From, seg.To, err)
			}
		}
	}

	return d.SaveAs(path)
}

type dxfWriter struct {
	d      *drawing.Drawing
	cell   float64
	height float64
}

func (w *dxfWriter) x(cells float64) float64 { return cells * w.cell }
func (w *dxfWriter) y(cells float64) float64 { return (w.height - cells) * w.cell }

// rect draws a closed outline between grid corners (x0, y0) and (x1, y1).
func (w *dxfWriter) rect(x0, y0, x1, y1 int) {
	fx0, fy0 := w.x(float64(x0)), w.y(float64(y0))
	fx1, fy1 := w.x(float64(x1)), w.y(float64(y1))
	w.d.LwPolyline(true,
		[]float64{fx0, fy0},
		[]float64{fx1, fy0},
		[]float64{fx1, fy1},
		[]float64{fx0, fy1},
	)
}

// path draws an open polyline through the centers of the path's cells.
func (w *dxfWriter) path(p model.Path) error {
	if len(p) < 2 {
		return nil
	}
	vertices := make([][]float64, len(p))
	for i, c := range p {
		vertices[i] = []float64{w.x(float64(c.X) + 0.5), w.y(float64(c.Y) + 0.5)}
	}
	_, err := w.d.LwPolyline(false, vertices...)
	return err
}
