package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/piwi3910/PlantLayout/internal/model"
	"github.com/piwi3910/PlantLayout/internal/routing"
)

// RouteReportVersion is written into every route report.
const RouteReportVersion = "1.0.0"

// RouteReport is the persisted outcome of routing one layout.
type RouteReport struct {
	Version      string              `json:"version"`
	CreatedAt    string              `json:"created_at"`
	RunID        string              `json:"run_id,omitempty"`
	AccessPoints map[int]model.Point `json:"access_points"`
	Unresolved   []int               `json:"unresolved"`
	Segments     []routing.Segment   `json:"segments"`
	Failures     int                 `json:"failures"`
	TotalLength  int                 `json:"total_length"`
}

// NewRouteReport summarizes a routed network.
func NewRouteReport(runID string, net *routing.Network) RouteReport {
	unresolved := net.Unresolved
	if unresolved == nil {
		unresolved = []int{}
	}
	return RouteReport{
		Version:      RouteReportVersion,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
		RunID:        runID,
		AccessPoints: net.AccessPoints,
		Unresolved:   unresolved,
		Segments:     net.Segments,
		Failures:     net.Failures(),
		TotalLength:  net.TotalLength(),
	}
}

// SaveRoutes writes a route report as indented JSON.
func SaveRoutes(path string, report RouteReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal route report: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write route report: %w", err)
	}
	return nil
}

// LoadRoutes reads a route report written by SaveRoutes.
func LoadRoutes(path string) (RouteReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RouteReport{}, fmt.Errorf("failed to read route report: %w", err)
	}
	var report RouteReport
	if err := json.Unmarshal(data, &report); err != nil {
		return RouteReport{}, fmt.Errorf("failed to parse route report: %w", err)
	}
	if report.Version == "" {
		return RouteReport{}, fmt.Errorf("invalid route report: missing version field")
	}
	if report.Unresolved == nil {
		report.Unresolved = []int{}
	}
	return report, nil
}
