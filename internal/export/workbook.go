package export

import (
	"errors"
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/PlantLayout/internal/engine"
	"github.com/piwi3910/PlantLayout/internal/model"
	"github.com/piwi3910/PlantLayout/internal/routing"
)

// Workbook sheet names.
const (
	SheetStations    = "Stations"
	SheetConvergence = "Convergence"
	SheetRoutes      = "Routes"
	SheetComparison  = "Comparison"
)

// Report collects what ExportWorkbook writes. Each non-empty part becomes
// its own sheet.
type Report struct {
	Layout     *model.LayoutResult
	History    []model.GenerationStats
	Network    *routing.Network
	Comparison []engine.ComparisonResult
}

// ExportWorkbook writes an XLSX report. Non-finite numbers are left as
// blank cells.
func ExportWorkbook(path string, report Report) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E6E6E6"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	var sheets []string
	add := func(name string, headers []string, rows [][]interface{}, widths ...float64) error {
		if len(sheets) == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return err
		}
		sheets = append(sheets, name)

		if err := f.SetSheetRow(name, "A1", &headers); err != nil {
			return err
		}
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		if err := f.SetCellStyle(name, "A1", last, bold); err != nil {
			return err
		}
		for i, row := range rows {
			cell, _ := excelize.CoordinatesToCellName(1, i+2)
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				return err
			}
		}
		for i, w := range widths {
			col, _ := excelize.ColumnNumberToName(i + 1)
			if err := f.SetColWidth(name, col, col, w); err != nil {
				return err
			}
		}
		return nil
	}

	if report.Layout != nil {
		if err := add(SheetStations,
			[]string{"Step", "ID", "Name", "Width", "Height", "Clearance", "Cycle Time (s)", "X", "Y", "Center X", "Center Y"},
			stationRows(*report.Layout), 8, 8, 24); err != nil {
			return fmt.Errorf("failed to write %s sheet: %w", SheetStations, err)
		}
	}
	if len(report.History) > 0 {
		if err := add(SheetConvergence,
			[]string{"Generation", "Best Fitness", "Average Fitness", "Best Distance", "Best Throughput", "Valid Ratio"},
			convergenceRows(report.History), 12, 16, 16, 16, 16, 12); err != nil {
			return fmt.Errorf("failed to write %s sheet: %w", SheetConvergence, err)
		}
	}
	if report.Network != nil {
		if err := add(SheetRoutes,
			[]string{"Segment", "From", "To", "Start X", "Start Y", "Goal X", "Goal Y", "Length", "Found"},
			routeRows(report.Network)); err != nil {
			return fmt.Errorf("failed to write %s sheet: %w", SheetRoutes, err)
		}
	}
	if len(report.Comparison) > 0 {
		if err := add(SheetComparison,
			[]string{"Scenario", "Fitness", "Total Distance", "Throughput", "Valid Ratio", "Best Generation", "Generations", "Seed"},
			comparisonRows(report.Comparison), 36, 14, 14, 14, 12, 16, 12, 22); err != nil {
			return fmt.Errorf("failed to write %s sheet: %w", SheetComparison, err)
		}
	}

	if len(sheets) == 0 {
		return errors.New("nothing to export")
	}
	return f.SaveAs(path)
}

// finite returns v, or nil so that the cell stays blank.
func finite(v float64) interface{} {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return v
}

func stationRows(layout model.LayoutResult) [][]interface{} {
	defs := layout.StationMap()
	rows := make([][]interface{}, 0, len(layout.ProcessSequence))
	for i, id := range layout.ProcessSequence {
		def, pos := defs[id], layout.Positions[id]
		rows = append(rows, []interface{}{
			i + 1, id, def.Name, def.Width, def.Height, def.Clearance, def.CycleTime,
			pos.X, pos.Y, pos.CenterX, pos.CenterY,
		})
	}
	return rows
}

func convergenceRows(history []model.GenerationStats) [][]interface{} {
	rows := make([][]interface{}, 0, len(history))
	for _, h := range history {
		rows = append(rows, []interface{}{
			h.Generation, finite(h.BestFitness), finite(h.AvgFitness),
			finite(h.BestDistance), finite(h.BestThroughput), h.ValidRatio,
		})
	}
	return rows
}

func routeRows(net *routing.Network) [][]interface{} {
	rows := make([][]interface{}, 0, len(net.Segments))
	for i, seg := range net.Segments {
		var length interface{}
		if seg.Found {
			length = seg.Path.Steps()
		}
		rows = append(rows, []interface{}{
			i + 1, seg.From, seg.To, seg.Start.X, seg.Start.Y, seg.Goal.X, seg.Goal.Y, length, seg.Found,
		})
	}
	return rows
}

func comparisonRows(results []engine.ComparisonResult) [][]interface{} {
	rows := make([][]interface{}, 0, len(results))
	for _, r := range results {
		var generations, seed interface{}
		if r.Result != nil {
			generations, seed = r.Result.Generations, r.Result.Seed
		}
		rows = append(rows, []interface{}{
			r.Scenario.Name, finite(r.Fitness), finite(r.TotalDistance), finite(r.Throughput),
			r.ValidRatio, r.BestGeneration, generations, seed,
		})
	}
	return rows
}
