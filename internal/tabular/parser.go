package tabular

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Tag columns attached by the readers.
const (
	ColSourceSheet = "__source_sheet"
	ColJSONKey     = "__json_key"
)

// Parse reads a local file into zero or more tables, dispatching on the
// file extension (case-insensitive). Unknown extensions yield no tables
// and no error; parse failures are reported so callers and tests can
// tell "empty" from "broken".
func Parse(path string) ([]*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		t, err := readCSVFile(path)
		if err != nil {
			return nil, err
		}
		return []*Table{t}, nil
	case ".xlsx", ".xls":
		return readWorkbook(path)
	case ".json":
		return readJSONTables(path)
	default:
		return nil, nil
	}
}

// ReadTabular is the import-pipeline boundary: any parse failure becomes
// "no fragments" and the error never propagates past this point.
func ReadTabular(path string) []*Table {
	tables, err := Parse(path)
	if err != nil {
		fmt.Printf("[Tabular] Skipping unreadable file %s: %v\n", filepath.Base(path), err)
		return nil
	}
	return tables
}
