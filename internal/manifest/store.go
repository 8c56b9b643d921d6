// Package manifest persists the processed-file manifest inside the
// extract location as a single JSON document.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/drive-merger/backend/internal/models"
	"github.com/drive-merger/backend/internal/storage"
)

// FileName is the manifest's fixed name inside the extract location.
const FileName = "manifest.json"

// LoadResult distinguishes a manifest that was actually loaded from one
// defaulted because the document was absent or malformed.
type LoadResult struct {
	Manifest *models.Manifest
	Loaded   bool
}

// Store reads and writes the manifest document through a storage location.
type Store struct {
	store storage.Store
}

// NewStore creates a manifest store over the given storage backend.
func NewStore(s storage.Store) *Store {
	return &Store{store: s}
}

// Load fetches manifest.json from the extract location. A missing or
// unparseable document yields an empty manifest with Loaded=false; only
// transport failures are returned as errors.
func (s *Store) Load(extractID string) (LoadResult, error) {
	rec, err := s.store.FindByName(extractID, FileName)
	if err != nil {
		return LoadResult{}, fmt.Errorf("locating %s: %w", FileName, err)
	}
	if rec == nil {
		return LoadResult{Manifest: models.NewManifest()}, nil
	}

	data, err := s.store.ReadFile(rec.ID)
	if err != nil {
		return LoadResult{}, fmt.Errorf("downloading %s: %w", FileName, err)
	}

	var m models.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return LoadResult{Manifest: models.NewManifest()}, nil
	}
	if m.Processed == nil {
		m.Processed = make(map[string]models.ManifestEntry)
	}
	return LoadResult{Manifest: &m, Loaded: true}, nil
}

// Save writes the full manifest back, creating or overwriting
// manifest.json. Output is indented UTF-8 with Unicode left unescaped.
func (s *Store) Save(extractID string, m *models.Manifest) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	if _, err := s.store.CreateOrUpdate(extractID, FileName, buf.Bytes(), "application/json"); err != nil {
		return fmt.Errorf("saving %s: %w", FileName, err)
	}
	return nil
}
