package export

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/piwi3910/PlantLayout/internal/model"
)

func TestExportConvergenceChart_CreatesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "convergence.png")

	history := []model.GenerationStats{
		{Generation: 0, BestFitness: math.Inf(-1), AvgFitness: math.Inf(-1)},
		{Generation: 1, BestFitness: 0.2, AvgFitness: 0.1},
		{Generation: 2, BestFitness: 0.35, AvgFitness: 0.2},
		{Generation: 3, BestFitness: 0.35, AvgFitness: 0.3},
	}
	if err := ExportConvergenceChart(path, history); err != nil {
		t.Fatalf("ExportConvergenceChart returned error: %v", err)
	}
	assertNonEmptyFile(t, path, 1000)
}

func TestExportConvergenceChart_DrawsFourPanels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "convergence.svg")

	history := []model.GenerationStats{
		{Generation: 0, BestFitness: 0.1, AvgFitness: 0.05, BestDistance: 40, BestThroughput: 20, ValidRatio: 0.4},
		{Generation: 1, BestFitness: 0.3, AvgFitness: 0.1, BestDistance: 31, BestThroughput: 28, ValidRatio: 0.7},
	}
	if err := ExportConvergenceChart(path, history); err != nil {
		t.Fatalf("ExportConvergenceChart returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, title := range []string{"Fitness convergence", "Best layout distance", "Best layout throughput", "Valid individuals"} {
		if !strings.Contains(string(data), title) {
			t.Errorf("chart is missing panel %q", title)
		}
	}
}

func TestExportConvergenceChart_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.bmp")
	history := []model.GenerationStats{{Generation: 0, BestFitness: 0.1, AvgFitness: 0.1}}
	if err := ExportConvergenceChart(path, history); err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("no file should be created for an unsupported format")
	}
}

func TestExportConvergenceChart_NoFiniteValues(t *testing.T) {
	history := []model.GenerationStats{
		{Generation: 0, BestFitness: math.Inf(-1), AvgFitness: math.Inf(-1)},
	}
	err := ExportConvergenceChart(filepath.Join(t.TempDir(), "c.png"), history)
	if !errors.Is(err, ErrNoChartData) {
		t.Fatalf("expected ErrNoChartData, got %v", err)
	}
}

func TestExportConvergenceChart_EmptyHistory(t *testing.T) {
	err := ExportConvergenceChart(filepath.Join(t.TempDir(), "c.png"), nil)
	if !errors.Is(err, ErrNoChartData) {
		t.Fatalf("expected ErrNoChartData, got %v", err)
	}
}
