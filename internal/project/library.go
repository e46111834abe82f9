package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/PlantLayout/internal/model"
)

// StationLibrary is a reusable station catalogue kept outside any single
// run configuration.
type StationLibrary struct {
	Stations []model.StationSpec `json:"stations"`
}

// DefaultLibraryPath returns ~/.plantlayout/stations.json.
func DefaultLibraryPath() string {
	return filepath.Join(DefaultConfigDir(), "stations.json")
}

// SaveLibrary writes the library to the specified JSON file.
// It creates parent directories if they do not exist.
func SaveLibrary(path string, lib StationLibrary) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(lib, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadLibrary reads a station library from the specified JSON file.
// If the file does not exist, it returns the demo catalogue and saves it.
func LoadLibrary(path string) (StationLibrary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			lib := StationLibrary{Stations: model.DefaultStations()}
			if saveErr := SaveLibrary(path, lib); saveErr != nil {
				return lib, saveErr
			}
			return lib, nil
		}
		return StationLibrary{}, err
	}
	var lib StationLibrary
	if err := json.Unmarshal(data, &lib); err != nil {
		return StationLibrary{}, fmt.Errorf("failed to parse station library %s: %w", path, err)
	}
	for _, s := range lib.Stations {
		if err := validate.Struct(s); err != nil {
			return StationLibrary{}, fmt.Errorf("invalid station %d in %s: %w", s.ID, path, err)
		}
	}
	return lib, nil
}

// MergeStations appends the imported stations whose ids are not already
// present. It returns the merged catalogue and the skipped ids.
func MergeStations(existing, imported []model.StationSpec) ([]model.StationSpec, []int) {
	merged := append([]model.StationSpec(nil), existing...)
	ids := make(map[int]bool, len(existing))
	for _, s := range existing {
		ids[s.ID] = true
	}

	var skipped []int
	for _, s := range imported {
		if ids[s.ID] {
			skipped = append(skipped, s.ID)
			continue
		}
		merged = append(merged, s)
		ids[s.ID] = true
	}
	return merged, skipped
}
