package tabular

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// readWorkbook parses a spreadsheet into one table per sheet, each tagged
// with the sheet name. Legacy binary .xls files are dispatched here too;
// excelize cannot open them, so they fall into the parse-failure path.
func readWorkbook(path string) ([]*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	var tables []*Table
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
		}

		t := New()
		if len(rows) > 0 {
			header := rows[0]
			t.AddColumns(header...)
			for _, record := range rows[1:] {
				row := make(map[string]string, len(record))
				for i, v := range record {
					if i < len(header) {
						row[header[i]] = v
					}
				}
				t.Rows = append(t.Rows, row)
			}
		}
		t.SetConst(ColSourceSheet, sheet)
		tables = append(tables, t)
	}
	return tables, nil
}
