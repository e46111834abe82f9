// Package importer provides CSV and Excel import functionality for station
// catalogues. It supports automatic delimiter detection, flexible column
// mapping, and case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/PlantLayout/internal/model"
)

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Stations []model.StationSpec
	Errors   []string
	Warnings []string
}

// ColumnMapping maps semantic column roles to their indices in the data.
type ColumnMapping struct {
	ID        int
	Name      int
	Width     int
	Height    int
	Clearance int
	CycleTime int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"id":         {"id", "station id", "station", "no", "number", "#"},
	"name":       {"name", "label", "station name", "description", "desc", "process"},
	"width":      {"width", "w", "size x", "x"},
	"height":     {"height", "h", "depth", "size y", "y"},
	"clearance":  {"clearance", "buffer", "margin", "spacing"},
	"cycle_time": {"cycle_time", "cycle time", "cycle", "ct", "time", "seconds", "takt"},
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		// Prefer delimiters with higher consistency and more columns
		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// It performs case-insensitive matching against known aliases for each column role.
// Returns the mapping and true if a header was detected, or a default positional
// mapping (Name, Width, Height, Clearance, CycleTime, ID) and false otherwise.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{ID: -1, Name: -1, Width: -1, Height: -1, Clearance: -1, CycleTime: -1}
	slots := map[string]*int{
		"id":         &mapping.ID,
		"name":       &mapping.Name,
		"width":      &mapping.Width,
		"height":     &mapping.Height,
		"clearance":  &mapping.Clearance,
		"cycle_time": &mapping.CycleTime,
	}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized == alias {
					isHeader = true
					if *slots[role] == -1 {
						*slots[role] = i
					}
				}
			}
		}
	}

	if !isHeader {
		return ColumnMapping{Name: 0, Width: 1, Height: 2, Clearance: 3, CycleTime: 4, ID: 5}, false
	}
	return mapping, true
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseCells parses a whole-number cell. Values such as "3.0" written by
// spreadsheets are accepted.
func parseCells(s string) (int, error) {
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("not a whole number")
	}
	return int(f), nil
}

// parseRow extracts a StationSpec from a row using the given column mapping.
// Returns the station, any error message, and any warning message.
func parseRow(row []string, mapping ColumnMapping, rowLabel string, nextID int) (model.StationSpec, string, string) {
	var warning string

	id := nextID
	if idStr := getCell(row, mapping.ID); idStr != "" {
		v, err := parseCells(idStr)
		if err != nil || v < 0 {
			return model.StationSpec{}, fmt.Sprintf("%s: Invalid id '%s'", rowLabel, idStr), ""
		}
		id = v
	}

	name := getCell(row, mapping.Name)
	if name == "" {
		name = fmt.Sprintf("Station %d", id)
	}

	widthStr := getCell(row, mapping.Width)
	if widthStr == "" {
		return model.StationSpec{}, fmt.Sprintf("%s: Missing width value", rowLabel), ""
	}
	width, err := parseCells(widthStr)
	if err != nil {
		return model.StationSpec{}, fmt.Sprintf("%s: Invalid width '%s'", rowLabel, widthStr), ""
	}

	heightStr := getCell(row, mapping.Height)
	if heightStr == "" {
		return model.StationSpec{}, fmt.Sprintf("%s: Missing height value", rowLabel), ""
	}
	height, err := parseCells(heightStr)
	if err != nil {
		return model.StationSpec{}, fmt.Sprintf("%s: Invalid height '%s'", rowLabel, heightStr), ""
	}

	ctStr := getCell(row, mapping.CycleTime)
	if ctStr == "" {
		return model.StationSpec{}, fmt.Sprintf("%s: Missing cycle time value", rowLabel), ""
	}
	cycle, err := strconv.ParseFloat(ctStr, 64)
	if err != nil {
		return model.StationSpec{}, fmt.Sprintf("%s: Invalid cycle time '%s'", rowLabel, ctStr), ""
	}

	if width <= 0 || height <= 0 {
		return model.StationSpec{}, fmt.Sprintf("%s: Width and height must be positive", rowLabel), ""
	}
	if cycle < 0 {
		return model.StationSpec{}, fmt.Sprintf("%s: Cycle time must not be negative", rowLabel), ""
	}

	clearance := 0
	if clStr := getCell(row, mapping.Clearance); clStr != "" {
		v, err := parseCells(clStr)
		if err != nil || v < 0 {
			warning = fmt.Sprintf("%s: Invalid clearance '%s', defaulting to 0", rowLabel, clStr)
		} else {
			clearance = v
		}
	}

	return model.NewStation(id, name, width, height, clearance, cycle), "", warning
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportCSV imports stations from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
// Supports comma, semicolon, tab, and pipe delimiters.
func ImportCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", result.Warnings)
}

// ImportCSVFromReader imports stations from a CSV reader with a specific delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	result := ImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", nil)
}

// ImportExcel imports stations from an Excel (.xlsx) file.
// Reads the first sheet and auto-detects column mapping from headers.
func ImportExcel(path string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}

	return importFromRows(rows, "Row", nil)
}

// importFromRows is the shared import logic for both CSV and Excel data.
// It detects headers, maps columns, and parses each row into stations.
// Rows without an id are numbered after the highest id seen so far.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{
		Warnings: initialWarnings,
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		missing := []string{}
		if mapping.Width == -1 {
			missing = append(missing, "Width")
		}
		if mapping.Height == -1 {
			missing = append(missing, "Height")
		}
		if mapping.CycleTime == -1 {
			missing = append(missing, "Cycle time")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if len(rows[0]) >= 3 {
		if _, err := strconv.ParseFloat(strings.TrimSpace(rows[0][1]), 64); err != nil {
			// Unrecognized header: skip it but keep positional mapping
			startRow = 1
			result.Warnings = append(result.Warnings, "Detected header row, skipping")
		}
	}

	seen := make(map[int]string)
	nextID := 0
	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		lineNum := i + 1

		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, lineNum)
		station, errMsg, warning := parseRow(row, mapping, rowLabel, nextID)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if prev, dup := seen[station.ID]; dup {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: Duplicate station id %d (first used by %s)", rowLabel, station.ID, prev))
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}

		seen[station.ID] = rowLabel
		if station.ID >= nextID {
			nextID = station.ID + 1
		}
		result.Stations = append(result.Stations, station)
	}

	return result
}
