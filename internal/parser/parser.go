package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"review-rag/internal/models"
	"review-rag/internal/ragerror"
)

// RequiredColumns are the exact, case-sensitive headers the tabular source
// must expose.
var RequiredColumns = []string{"Title", "Review", "Rating", "Date"}

// Load reads a tabular review source into records. Supported formats are
// decided by file extension.
func Load(path string) ([]models.Record, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, ragerror.New(ragerror.KindSourceNotFound, "parser.Load", err).
			With("path", path)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return loadCSV(path)
	case ".xlsx":
		return loadXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", ext)
	}
}

func loadCSV(path string) ([]models.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ragerror.New(ragerror.KindSourceNotFound, "parser.loadCSV", err).
			With("path", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, schemaError("parser.loadCSV", path, RequiredColumns)
		}
		return nil, err
	}

	cols, err := columnIndex("parser.loadCSV", path, header)
	if err != nil {
		return nil, err
	}

	var records []models.Record
	for rowIdx := 0; ; rowIdx++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		cell := func(name string) string {
			i := cols[name]
			if i < 0 || i >= len(row) {
				return ""
			}
			return row[i]
		}
		records = append(records, newRecord(cell, rowIdx))
	}
	return records, nil
}

func loadXLSX(path string) ([]models.Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, schemaError("parser.loadXLSX", path, RequiredColumns)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, schemaError("parser.loadXLSX", path, RequiredColumns)
	}

	cols, err := columnIndex("parser.loadXLSX", path, rows[0])
	if err != nil {
		return nil, err
	}

	records := make([]models.Record, 0, len(rows)-1)
	for rowIdx, row := range rows[1:] {
		row := row
		cell := func(name string) string {
			i := cols[name]
			if i < 0 || i >= len(row) {
				return ""
			}
			return row[i]
		}
		records = append(records, newRecord(cell, rowIdx))
	}
	return records, nil
}

// columnIndex maps required column names to their positions, failing with
// the sorted list of missing names.
func columnIndex(op, path string, header []string) (map[string]int, error) {
	cols := make(map[string]int, len(RequiredColumns))
	for _, name := range RequiredColumns {
		cols[name] = -1
	}
	for i, h := range header {
		if _, ok := cols[h]; ok {
			cols[h] = i
		}
	}
	var missing []string
	for _, name := range RequiredColumns {
		if cols[name] < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, schemaError(op, path, missing)
	}
	return cols, nil
}

func schemaError(op, path string, missing []string) error {
	sorted := append([]string(nil), missing...)
	sort.Strings(sorted)
	return ragerror.New(ragerror.KindSchema, op, fmt.Errorf("missing required columns: %s", strings.Join(sorted, ", "))).
		With("path", path).
		With("missing", sorted)
}

// newRecord builds a record from one data row. Empty cells stay empty
// strings; an unparseable rating becomes 0.
func newRecord(cell func(string) string, rowIdx int) models.Record {
	rating, err := strconv.ParseFloat(strings.TrimSpace(cell("Rating")), 64)
	if err != nil {
		rating = 0
	}
	return models.Record{
		Title:    cell("Title"),
		Body:     cell("Review"),
		Rating:   rating,
		Date:     cell("Date"),
		RowIndex: rowIdx,
	}
}
