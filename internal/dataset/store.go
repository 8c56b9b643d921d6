// Package dataset persists the ever-growing merged table as merged.csv
// inside the extract location, and mirrors it into DuckDB for queries.
package dataset

import (
	"fmt"

	"github.com/drive-merger/backend/internal/storage"
	"github.com/drive-merger/backend/internal/tabular"
)

// FileName is the accumulated dataset's fixed name inside the extract
// location.
const FileName = "merged.csv"

// LoadResult distinguishes a dataset that was actually loaded from one
// defaulted because merged.csv was absent or unparseable.
type LoadResult struct {
	Table  *tabular.Table
	Loaded bool
}

// Store reads and writes the accumulated dataset through a storage
// location.
type Store struct {
	store storage.Store
}

// NewStore creates a dataset store over the given storage backend.
func NewStore(s storage.Store) *Store {
	return &Store{store: s}
}

// Load fetches merged.csv from the extract location. Missing or
// unparseable content yields an empty table with Loaded=false; only
// transport failures are returned as errors.
func (s *Store) Load(extractID string) (LoadResult, error) {
	rec, err := s.store.FindByName(extractID, FileName)
	if err != nil {
		return LoadResult{}, fmt.Errorf("locating %s: %w", FileName, err)
	}
	if rec == nil {
		return LoadResult{Table: tabular.New()}, nil
	}

	data, err := s.store.ReadFile(rec.ID)
	if err != nil {
		return LoadResult{}, fmt.Errorf("downloading %s: %w", FileName, err)
	}

	t, err := tabular.DecodeCSV(data)
	if err != nil {
		return LoadResult{Table: tabular.New()}, nil
	}
	return LoadResult{Table: t, Loaded: true}, nil
}

// Save serializes the full table and creates-or-updates merged.csv.
func (s *Store) Save(extractID string, t *tabular.Table) error {
	data, err := t.EncodeCSV()
	if err != nil {
		return fmt.Errorf("encoding dataset: %w", err)
	}
	if _, err := s.store.CreateOrUpdate(extractID, FileName, data, "text/csv"); err != nil {
		return fmt.Errorf("saving %s: %w", FileName, err)
	}
	return nil
}
