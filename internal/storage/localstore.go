package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/drive-merger/backend/internal/models"
)

// indexEntry is the persisted metadata of one stored file.
type indexEntry struct {
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modifiedTime"`
	Location     string `json:"location"`
}

// LocalStore implements Store on the local filesystem. It stands in for
// the cloud drive: files get uuid IDs that survive moves, locations are
// logical parent folders, and metadata lives in an index document that
// is rewritten in full after every mutation.
//
// Blobs are stored under <root>/objects/<id>; the index is
// <root>/index.json.
type LocalStore struct {
	mu    sync.RWMutex
	root  string
	index map[string]*indexEntry
}

// NewLocalStore opens (or initializes) a store rooted at dir.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, "objects"), 0755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	s := &LocalStore{
		root:  dir,
		index: make(map[string]*indexEntry),
	}

	if err := s.loadIndex(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *LocalStore) indexPath() string {
	return filepath.Join(s.root, "index.json")
}

func (s *LocalStore) blobPath(id string) string {
	return filepath.Join(s.root, "objects", id)
}

func (s *LocalStore) loadIndex() error {
	data, err := os.ReadFile(s.indexPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading store index: %w", err)
	}
	if err := json.Unmarshal(data, &s.index); err != nil {
		return fmt.Errorf("parsing store index: %w", err)
	}
	return nil
}

// saveIndexLocked persists the index. Callers hold the write lock.
func (s *LocalStore) saveIndexLocked() error {
	data, err := json.MarshalIndent(s.index, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding store index: %w", err)
	}
	if err := os.WriteFile(s.indexPath(), data, 0644); err != nil {
		return fmt.Errorf("writing store index: %w", err)
	}
	return nil
}

func (s *LocalStore) record(id string, e *indexEntry) models.FileRecord {
	return models.FileRecord{
		ID:           id,
		Name:         e.Name,
		MimeType:     e.MimeType,
		Size:         e.Size,
		ModifiedTime: e.ModifiedTime,
	}
}

// stamp produces an opaque modification timestamp for a write.
func stamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// ListChildren returns every file whose parent is locationID.
func (s *LocalStore) ListChildren(locationID string) ([]models.FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.FileRecord, 0)
	for id, e := range s.index {
		if e.Location == locationID {
			out = append(out, s.record(id, e))
		}
	}

	// Stable listing order; the index map has none of its own.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Download copies a file's bytes into destDir under its sanitized name.
// For native document kinds the export extension is applied; the local
// backend stores bytes as-is, so no format conversion happens here.
func (s *LocalStore) Download(rec models.FileRecord, destDir string) (string, error) {
	data, err := s.ReadFile(rec.ID)
	if err != nil {
		return "", err
	}

	name := SafeFileName(rec.Name)
	if exp, ok := NativeExports[rec.MimeType]; ok {
		name += exp.Extension
	}

	local := filepath.Join(destDir, name)
	if err := os.WriteFile(local, data, 0644); err != nil {
		return "", fmt.Errorf("staging download %s: %w", rec.ID, err)
	}
	return local, nil
}

// ReadFile returns the raw bytes of a stored file.
func (s *LocalStore) ReadFile(fileID string) ([]byte, error) {
	s.mu.RLock()
	_, ok := s.index[fileID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("file not found: %s", fileID)
	}

	data, err := os.ReadFile(s.blobPath(fileID))
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", fileID, err)
	}
	return data, nil
}

// FindByName returns the file with the exact name in a location, or nil.
func (s *LocalStore) FindByName(locationID, name string) (*models.FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, e := range s.index {
		if e.Location == locationID && e.Name == name {
			rec := s.record(id, e)
			return &rec, nil
		}
	}
	return nil, nil
}

// CreateOrUpdate overwrites an existing file with the same name in the
// location, or creates a new one. The modification timestamp is bumped
// on every write.
func (s *LocalStore) CreateOrUpdate(locationID, filename string, data []byte, mimeType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := ""
	for fid, e := range s.index {
		if e.Location == locationID && e.Name == filename {
			id = fid
			break
		}
	}
	if id == "" {
		id = uuid.New().String()
	}

	if err := os.WriteFile(s.blobPath(id), data, 0644); err != nil {
		return "", fmt.Errorf("writing file %s: %w", filename, err)
	}

	s.index[id] = &indexEntry{
		Name:         filename,
		MimeType:     mimeType,
		Size:         int64(len(data)),
		ModifiedTime: stamp(),
		Location:     locationID,
	}

	if err := s.saveIndexLocked(); err != nil {
		return "", err
	}
	return id, nil
}

// Move reparents a file. The ID and modification timestamp are unchanged.
func (s *LocalStore) Move(fileID, fromLocationID, toLocationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.index[fileID]
	if !ok {
		return fmt.Errorf("file not found: %s", fileID)
	}
	if e.Location != fromLocationID {
		return fmt.Errorf("file %s is not in location %s", fileID, fromLocationID)
	}

	e.Location = toLocationID
	return s.saveIndexLocked()
}

// Ensure LocalStore implements Store
var _ Store = (*LocalStore)(nil)
