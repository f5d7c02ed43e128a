// Package importer reads seed layouts (square positions and rotations) from
// CSV, Excel and DXF files. CSV import supports automatic delimiter detection,
// flexible column mapping and case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/SquarePack/internal/geometry"
)

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Squares  []geometry.Square
	Errors   []string
	Warnings []string
}

// Err folds the collected error messages into a single error, or nil.
func (r ImportResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return fmt.Errorf("import failed: %s", strings.Join(r.Errors, "; "))
}

// ColumnMapping maps semantic column roles to their indices in the data.
type ColumnMapping struct {
	X       int
	Y       int
	Theta   int // Rotation in radians
	Degrees int // Rotation in degrees, used when Theta is absent
	Side    int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"x":       {"x", "cx", "center x", "centre x", "x center"},
	"y":       {"y", "cy", "center y", "centre y", "y center"},
	"theta":   {"theta", "rotation", "rot", "angle", "radians", "rad"},
	"degrees": {"degrees", "deg", "angle deg", "rotation deg"},
	"side":    {"side", "size", "s", "length"},
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

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// Returns the mapping and true if a header was detected, or the positional
// mapping x, y, theta and false if no header was found.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{X: -1, Y: -1, Theta: -1, Degrees: -1, Side: -1}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				switch role {
				case "x":
					if mapping.X == -1 {
						mapping.X = i
					}
				case "y":
					if mapping.Y == -1 {
						mapping.Y = i
					}
				case "theta":
					if mapping.Theta == -1 {
						mapping.Theta = i
					}
				case "degrees":
					if mapping.Degrees == -1 {
						mapping.Degrees = i
					}
				case "side":
					if mapping.Side == -1 {
						mapping.Side = i
					}
				}
			}
		}
	}

	if !isHeader {
		return ColumnMapping{X: 0, Y: 1, Theta: 2, Degrees: -1, Side: -1}, false
	}
	return mapping, true
}

// getCell safely retrieves a cell value from a row by column index.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseRow extracts a square from a row using the given column mapping.
// Returns the square, any error message, and any warning message.
func parseRow(row []string, mapping ColumnMapping, rowLabel string) (geometry.Square, string, string) {
	xStr := getCell(row, mapping.X)
	if xStr == "" {
		return geometry.Square{}, fmt.Sprintf("%s: Missing x value", rowLabel), ""
	}
	x, err := strconv.ParseFloat(xStr, 64)
	if err != nil {
		return geometry.Square{}, fmt.Sprintf("%s: Invalid x '%s'", rowLabel, xStr), ""
	}

	yStr := getCell(row, mapping.Y)
	if yStr == "" {
		return geometry.Square{}, fmt.Sprintf("%s: Missing y value", rowLabel), ""
	}
	y, err := strconv.ParseFloat(yStr, 64)
	if err != nil {
		return geometry.Square{}, fmt.Sprintf("%s: Invalid y '%s'", rowLabel, yStr), ""
	}

	var warning string
	theta := 0.0
	if s := getCell(row, mapping.Theta); s != "" {
		if theta, err = strconv.ParseFloat(s, 64); err != nil {
			theta = 0
			warning = fmt.Sprintf("%s: Invalid rotation '%s', defaulting to 0", rowLabel, s)
		}
	} else if s := getCell(row, mapping.Degrees); s != "" {
		deg, err := strconv.ParseFloat(s, 64)
		if err != nil {
			warning = fmt.Sprintf("%s: Invalid rotation '%s', defaulting to 0", rowLabel, s)
		} else {
			theta = deg * math.Pi / 180
		}
	}

	side := 0.0
	if s := getCell(row, mapping.Side); s != "" {
		side, err = strconv.ParseFloat(s, 64)
		if err != nil || side <= 0 {
			return geometry.Square{}, fmt.Sprintf("%s: Side must be a positive number, got '%s'", rowLabel, s), ""
		}
	}

	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return geometry.Square{}, fmt.Sprintf("%s: Coordinates must be finite", rowLabel), ""
	}

	return geometry.NewSquare(x, y, theta, side), "", warning
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

// ImportLayout dispatches on the file extension: .dxf, .xlsx/.xls or CSV.
func ImportLayout(path string) ImportResult {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dxf":
		return ImportDXF(path)
	case ".xlsx", ".xls", ".xlsm":
		return ImportExcel(path)
	default:
		return ImportCSV(path)
	}
}

// ImportCSV imports a seed layout from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
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
	var warnings []string
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		warnings = append(warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	records, err := readCSV(bytes.NewReader(data), delimiter)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	return importFromRows(records, "Line", warnings)
}

// ImportCSVFromReader imports a seed layout from a CSV reader with a specific
// delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	records, err := readCSV(reader, delimiter)
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot read CSV: %v", err)}}
	}
	return importFromRows(records, "Line", nil)
}

func readCSV(r io.Reader, delimiter rune) ([][]string, error) {
	csvReader := csv.NewReader(r)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1
	csvReader.Comment = '#'
	return csvReader.ReadAll()
}

// ImportExcel imports a seed layout from the first sheet of an Excel file.
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

	return importFromRows(rows, "Row", nil)
}

// importFromRows is the shared import logic for both CSV and Excel data.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{Warnings: initialWarnings}

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
		if mapping.X == -1 {
			missing = append(missing, "X")
		}
		if mapping.Y == -1 {
			missing = append(missing, "Y")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if _, err := strconv.ParseFloat(getCell(rows[0], 0), 64); err != nil {
		// Unrecognised header: skip it but keep positional mapping
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		sq, errMsg, warning := parseRow(row, mapping, rowLabel)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}
		result.Squares = append(result.Squares, sq)
	}

	if len(result.Squares) == 0 && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "No squares found")
	}
	return result
}
