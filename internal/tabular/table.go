// Package tabular provides the in-memory table type shared by the
// parsers, the accumulated dataset and the importer, plus the
// extension-dispatched readers that turn source files into tables.
package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
)

// Table is a wide table with an explicit, ordered column set. Cell values
// are strings; a row missing a column reads as empty. Rows are
// append-only.
type Table struct {
	Columns []string
	Rows    []map[string]string
}

// New returns an empty table.
func New() *Table {
	return &Table{}
}

// RowCount returns the number of data rows.
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// HasColumn reports whether the column is part of the table.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AddColumns appends any not-yet-present columns, preserving the given
// order.
func (t *Table) AddColumns(names ...string) {
	for _, n := range names {
		if !t.HasColumn(n) {
			t.Columns = append(t.Columns, n)
		}
	}
}

// Get returns the cell value, empty for absent cells.
func (t *Table) Get(row int, column string) string {
	if row < 0 || row >= len(t.Rows) {
		return ""
	}
	return t.Rows[row][column]
}

// AppendRow adds one row. Keys not yet registered as columns are added
// in sorted order; parsers that care about column order register columns
// with AddColumns first.
func (t *Table) AppendRow(values map[string]string) {
	var unseen []string
	for k := range values {
		if !t.HasColumn(k) {
			unseen = append(unseen, k)
		}
	}
	sort.Strings(unseen)
	t.Columns = append(t.Columns, unseen...)

	row := make(map[string]string, len(values))
	for k, v := range values {
		row[k] = v
	}
	t.Rows = append(t.Rows, row)
}

// SetConst adds (or overwrites) a column holding the same value in every
// row. Used for sheet tags and provenance columns.
func (t *Table) SetConst(column, value string) {
	t.AddColumns(column)
	for _, row := range t.Rows {
		row[column] = value
	}
}

// Append merges another table into this one with column-union semantics:
// the other table's new columns are appended in their order, its rows are
// appended as-is, and cells absent on either side stay empty.
func (t *Table) Append(other *Table) {
	if other == nil {
		return
	}
	t.AddColumns(other.Columns...)
	for _, row := range other.Rows {
		copied := make(map[string]string, len(row))
		for k, v := range row {
			copied[k] = v
		}
		t.Rows = append(t.Rows, copied)
	}
}

// EncodeCSV serializes the table as UTF-8 delimited text with a header
// row. An empty table encodes to an empty header line.
func (t *Table) EncodeCSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(t.Columns); err != nil {
		return nil, fmt.Errorf("writing csv header: %w", err)
	}

	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, col := range t.Columns {
			record[i] = row[col]
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("writing csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing csv: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeCSV parses delimited text with a header row into a table.
func DecodeCSV(data []byte) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("parsing csv: no header row")
	}

	t := New()
	t.AddColumns(records[0]...)
	for _, record := range records[1:] {
		row := make(map[string]string, len(record))
		for i, v := range record {
			if i < len(records[0]) {
				row[records[0][i]] = v
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
