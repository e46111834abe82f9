package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/PlantLayout/internal/model"
)

// SaveLayout writes the layout artifact as indented JSON, creating parent
// directories as needed.
func SaveLayout(path string, layout model.LayoutResult) error {
	data, err := json.MarshalIndent(layout, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal layout: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create layout directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write layout file: %w", err)
	}
	return nil
}

// LoadLayout reads and validates a layout artifact. Unparseable or
// inconsistent files return an error wrapping model.ErrMalformedLayout.
func LoadLayout(path string) (model.LayoutResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.LayoutResult{}, fmt.Errorf("failed to read layout file: %w", err)
	}
	var layout model.LayoutResult
	if err := json.Unmarshal(data, &layout); err != nil {
		return model.LayoutResult{}, fmt.Errorf("%w: %v", model.ErrMalformedLayout, err)
	}
	if err := layout.Validate(); err != nil {
		return model.LayoutResult{}, err
	}
	return layout, nil
}
