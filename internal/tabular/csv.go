package tabular

import (
	"fmt"
	"os"
)

// readCSVFile parses one delimited-text file into a single table. A file
// without a header row is a parse failure, matching the behavior of the
// other readers for structurally empty input.
func readCSVFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return DecodeCSV(data)
}
