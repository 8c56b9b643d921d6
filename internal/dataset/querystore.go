package dataset

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/marcboeker/go-duckdb"

	"github.com/drive-merger/backend/internal/tabular"
)

// QueryStore mirrors the accumulated dataset into a DuckDB file so the
// API can serve counted, paginated row queries without holding the whole
// table in memory per request. The mirror is rebuilt whenever the
// underlying dataset changes; merged.csv stays the source of truth.
type QueryStore struct {
	mu       sync.Mutex
	db       *sql.DB
	dbPath   string
	columns  []string
	rowCount int

	// Limits concurrent row queries to avoid memory spikes.
	querySem chan struct{}
}

// NewQueryStore creates the DuckDB mirror file inside dir.
func NewQueryStore(dir string) (*QueryStore, error) {
	dbPath := filepath.Join(dir, "dataset.duckdb")
	os.Remove(dbPath)

	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			"PRAGMA memory_limit='512MB'",
			"PRAGMA threads=2",
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating duckdb connector: %w", err)
	}

	return &QueryStore{
		db:       sql.OpenDB(connector),
		dbPath:   dbPath,
		querySem: make(chan struct{}, 3),
	}, nil
}

// quoteIdent quotes a column name for DuckDB. Source columns come from
// arbitrary spreadsheet headers, so nothing about them is assumed.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Rebuild replaces the mirror's contents with the given table. All
// columns are VARCHAR; the dataset's cell model is strings throughout.
func (qs *QueryStore) Rebuild(t *tabular.Table) error {
	qs.mu.Lock()
	defer qs.mu.Unlock()

	if _, err := qs.db.Exec("DROP TABLE IF EXISTS dataset"); err != nil {
		return fmt.Errorf("dropping mirror table: %w", err)
	}

	qs.columns = append([]string(nil), t.Columns...)
	qs.rowCount = t.RowCount()

	if len(t.Columns) == 0 {
		return nil
	}

	defs := make([]string, 0, len(t.Columns)+1)
	defs = append(defs, "rowid INTEGER PRIMARY KEY")
	for _, col := range t.Columns {
		defs = append(defs, quoteIdent(col)+" VARCHAR")
	}
	create := "CREATE TABLE dataset (" + strings.Join(defs, ", ") + ")"
	if _, err := qs.db.Exec(create); err != nil {
		return fmt.Errorf("creating mirror table: %w", err)
	}

	conn, err := qs.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("getting connection: %w", err)
	}
	defer conn.Close()

	// The Appender API is far faster than row-at-a-time INSERTs.
	err = conn.Raw(func(driverConn interface{}) error {
		dConn, ok := driverConn.(*duckdb.Conn)
		if !ok {
			return fmt.Errorf("failed to cast to duckdb.Conn")
		}

		appender, err := duckdb.NewAppenderFromConn(dConn, "", "dataset")
		if err != nil {
			return fmt.Errorf("creating appender: %w", err)
		}
		defer appender.Close()

		for i, row := range t.Rows {
			args := make([]driver.Value, 0, len(t.Columns)+1)
			args = append(args, int32(i))
			for _, col := range t.Columns {
				args = append(args, row[col])
			}
			if err := appender.AppendRow(args...); err != nil {
				return fmt.Errorf("appending row %d: %w", i, err)
			}
		}
		return appender.Flush()
	})
	if err != nil {
		return err
	}

	fmt.Printf("[QueryStore] Mirror rebuilt: %d rows, %d columns\n", qs.rowCount, len(qs.columns))
	return nil
}

// Columns returns the mirrored column set.
func (qs *QueryStore) Columns() []string {
	qs.mu.Lock()
	defer qs.mu.Unlock()
	return append([]string(nil), qs.columns...)
}

// Len returns the mirrored row count.
func (qs *QueryStore) Len() int {
	qs.mu.Lock()
	defer qs.mu.Unlock()
	return qs.rowCount
}

// QueryRows returns one page of rows in insertion order.
func (qs *QueryStore) QueryRows(ctx context.Context, offset, limit int) ([]map[string]string, error) {
	select {
	case qs.querySem <- struct{}{}:
		defer func() { <-qs.querySem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	qs.mu.Lock()
	columns := append([]string(nil), qs.columns...)
	qs.mu.Unlock()

	if len(columns) == 0 {
		return []map[string]string{}, nil
	}

	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = quoteIdent(col)
	}
	query := fmt.Sprintf(
		"SELECT %s FROM dataset ORDER BY rowid LIMIT ? OFFSET ?",
		strings.Join(quoted, ", "),
	)

	rows, err := qs.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying dataset: %w", err)
	}
	defer rows.Close()

	out := make([]map[string]string, 0, limit)
	values := make([]sql.NullString, len(columns))
	scan := make([]any, len(columns))
	for i := range values {
		scan[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		row := make(map[string]string, len(columns))
		for i, col := range columns {
			row[col] = values[i].String
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Close releases the database and removes the mirror file.
func (qs *QueryStore) Close() error {
	qs.mu.Lock()
	defer qs.mu.Unlock()

	var err error
	if qs.db != nil {
		err = qs.db.Close()
		qs.db = nil
	}
	os.Remove(qs.dbPath)
	return err
}
