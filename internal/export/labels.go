package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/PlantLayout/internal/model"
	"github.com/piwi3910/PlantLayout/internal/routing"
)

// LabelInfo holds the data encoded into each station label's QR code.
type LabelInfo struct {
	StationID int          `json:"station"`
	Name      string       `json:"name"`
	Step      int          `json:"step"`
	Width     int          `json:"width"`
	Height    int          `json:"height"`
	X         int          `json:"x"`
	Y         int          `json:"y"`
	Access    *model.Point `json:"access,omitempty"`
	RunID     string       `json:"run_id,omitempty"`
}

// Label layout constants for Avery 5160-compatible labels (3 columns, 10 rows per page).
const (
	labelPageWidth  = 215.9 // US Letter width in mm
	labelPageHeight = 279.4 // US Letter height in mm
	labelMarginTop  = 12.7
	labelMarginLeft = 4.8
	labelWidth      = 66.7
	labelHeight     = 25.4
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0
	labelPadding    = 2.0
)

// ExportLabels generates a PDF of QR-coded floor labels, one per station in
// sequence order. net may be nil; when present each label carries the
// station's access point.
func ExportLabels(path string, layout model.LayoutResult, net *routing.Network) error {
	if err := layout.Validate(); err != nil {
		return err
	}
	labels := CollectLabelInfos(layout, net)

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*labelWidth
		y := labelMarginTop + float64(row)*labelHeight

		if err := renderLabel(pdf, x, y, label); err != nil {
			return fmt.Errorf("failed to render label for station %d: %w", label.StationID, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// renderLabel draws a single label at the given position.
func renderLabel(pdf *fpdf.Fpdf, x, y float64, info LabelInfo) error {
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal label info: %w", err)
	}

	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_station_%d", info.StationID)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)

	name := fmt.Sprintf("%d %s", info.StationID, info.Name)
	if pdf.GetStringWidth(name) > textW {
		for len(name) > 0 && pdf.GetStringWidth(name+"...") > textW {
			name = name[:len(name)-1]
		}
		name += "..."
	}
	pdf.CellFormat(textW, 4.5, name, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	pdf.CellFormat(textW, 3.5, fmt.Sprintf("Step %d | %d x %d cells", info.Step, info.Width, info.Height), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+9)
	pdf.CellFormat(textW, 3, fmt.Sprintf("Origin (%d, %d)", info.X, info.Y), "", 1, "L", false, 0, "")

	if info.Access != nil {
		pdf.SetXY(textX, y+labelPadding+12.5)
		pdf.SetTextColor(20, 20, 120)
		pdf.CellFormat(textW, 3, fmt.Sprintf("Access (%d, %d)", info.Access.X, info.Access.Y), "", 0, "L", false, 0, "")
	}

	pdf.SetTextColor(0, 0, 0)
	return nil
}

// CollectLabelInfos extracts label information for every station of the
// sequence, in sequence order.
func CollectLabelInfos(layout model.LayoutResult, net *routing.Network) []LabelInfo {
	defs := layout.StationMap()
	labels := make([]LabelInfo, 0, len(layout.ProcessSequence))
	for i, id := range layout.ProcessSequence {
		def, pos := defs[id], layout.Positions[id]
		info := LabelInfo{
			StationID: id,
			Name:      def.Name,
			Step:      i + 1,
			Width:     def.Width,
			Height:    def.Height,
			X:         pos.X,
			Y:         pos.Y,
			RunID:     layout.RunID,
		}
		if net != nil {
			if p, ok := net.AccessPoints[id]; ok {
				info.Access = &p
			}
		}
		labels = append(labels, info)
	}
	return labels
}
