package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/PlantLayout/internal/model"
	"github.com/piwi3910/PlantLayout/internal/routing"
)

func TestSaveAndLoadRoutes(t *testing.T) {
	net := &routing.Network{
		AccessPoints: map[int]model.Point{1: {X: 0, Y: 1}, 2: {X: 3, Y: 1}},
		Segments: []routing.Segment{{
			From: 1, To: 2,
			Start: model.Point{X: 0, Y: 1}, Goal: model.Point{X: 3, Y: 1},
			Path:  model.Path{{X: 0, Y: 1}, {X: 1, Y: 1}, {X: 2, Y: 1}, {X: 3, Y: 1}},
			Found: true,
		}},
	}
	path := filepath.Join(t.TempDir(), "reports", "routes.json")

	report := NewRouteReport("run-9", net)
	require.NoError(t, SaveRoutes(path, report))

	loaded, err := LoadRoutes(path)
	require.NoError(t, err)
	assert.Equal(t, RouteReportVersion, loaded.Version)
	assert.NotEmpty(t, loaded.CreatedAt)
	assert.Equal(t, "run-9", loaded.RunID)
	assert.Equal(t, 3, loaded.TotalLength)
	assert.Zero(t, loaded.Failures)
	assert.Equal(t, []int{}, loaded.Unresolved)
	assert.Equal(t, net.Segments, loaded.Segments)
	assert.Equal(t, net.AccessPoints, loaded.AccessPoints)
}

func TestLoadRoutesMissingVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"segments":[]}`), 0644))

	_, err := LoadRoutes(path)
	assert.Error(t, err)
}

func TestLoadRoutesInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json}"), 0644))

	_, err := LoadRoutes(path)
	assert.Error(t, err)
}
