package dataset

import (
	"context"
	"fmt"
	"testing"

	"github.com/drive-merger/backend/internal/tabular"
)

func newTestQueryStore(t *testing.T) *QueryStore {
	t.Helper()
	qs, err := NewQueryStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewQueryStore failed: %v", err)
	}
	t.Cleanup(func() { qs.Close() })
	return qs
}

func TestRebuildEmptyTable(t *testing.T) {
	qs := newTestQueryStore(t)

	if err := qs.Rebuild(tabular.New()); err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}
	if qs.Len() != 0 {
		t.Errorf("Len = %d, want 0", qs.Len())
	}

	rows, err := qs.QueryRows(context.Background(), 0, 10)
	if err != nil {
		t.Fatalf("QueryRows failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("Expected no rows, got %d", len(rows))
	}
}

func TestRebuildAndQueryPages(t *testing.T) {
	qs := newTestQueryStore(t)

	src := tabular.New()
	src.AddColumns("name", "value")
	for i := 0; i < 25; i++ {
		src.AppendRow(map[string]string{
			"name":  fmt.Sprintf("row-%02d", i),
			"value": fmt.Sprintf("%d", i*10),
		})
	}
	if err := qs.Rebuild(src); err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}

	if qs.Len() != 25 {
		t.Errorf("Len = %d, want 25", qs.Len())
	}
	cols := qs.Columns()
	if len(cols) != 2 || cols[0] != "name" || cols[1] != "value" {
		t.Errorf("Unexpected columns: %v", cols)
	}

	page, err := qs.QueryRows(context.Background(), 10, 5)
	if err != nil {
		t.Fatalf("QueryRows failed: %v", err)
	}
	if len(page) != 5 {
		t.Fatalf("Expected 5 rows, got %d", len(page))
	}
	// Insertion order must survive the round trip through the mirror.
	for i, row := range page {
		want := fmt.Sprintf("row-%02d", 10+i)
		if row["name"] != want {
			t.Errorf("Row %d name = %q, want %q", i, row["name"], want)
		}
	}

	tail, err := qs.QueryRows(context.Background(), 20, 10)
	if err != nil {
		t.Fatalf("QueryRows failed: %v", err)
	}
	if len(tail) != 5 {
		t.Errorf("Expected 5 trailing rows, got %d", len(tail))
	}
}

func TestRebuildReplacesPreviousContents(t *testing.T) {
	qs := newTestQueryStore(t)

	first := tabular.New()
	first.AddColumns("a")
	first.AppendRow(map[string]string{"a": "old"})
	if err := qs.Rebuild(first); err != nil {
		t.Fatalf("First rebuild failed: %v", err)
	}

	second := tabular.New()
	second.AddColumns("b")
	second.AppendRow(map[string]string{"b": "new-1"})
	second.AppendRow(map[string]string{"b": "new-2"})
	if err := qs.Rebuild(second); err != nil {
		t.Fatalf("Second rebuild failed: %v", err)
	}

	if qs.Len() != 2 {
		t.Errorf("Len = %d, want 2", qs.Len())
	}
	rows, err := qs.QueryRows(context.Background(), 0, 10)
	if err != nil {
		t.Fatalf("QueryRows failed: %v", err)
	}
	if len(rows) != 2 || rows[0]["b"] != "new-1" {
		t.Errorf("Unexpected rows after rebuild: %v", rows)
	}
	if _, ok := rows[0]["a"]; ok {
		t.Error("Old column must not survive a rebuild")
	}
}

func TestQueryRowsHandlesHostileColumnNames(t *testing.T) {
	qs := newTestQueryStore(t)

	src := tabular.New()
	src.AddColumns(`col "quoted"`, "select", "__source_file")
	src.AppendRow(map[string]string{
		`col "quoted"`:  "v1",
		"select":        "v2",
		"__source_file": "q1.csv",
	})
	if err := qs.Rebuild(src); err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}

	rows, err := qs.QueryRows(context.Background(), 0, 1)
	if err != nil {
		t.Fatalf("QueryRows failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	if rows[0][`col "quoted"`] != "v1" || rows[0]["select"] != "v2" {
		t.Errorf("Unexpected row: %v", rows[0])
	}
}
