// mock_store.go - In-memory storage.Store implementation for testing
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/drive-merger/backend/internal/models"
	"github.com/drive-merger/backend/internal/storage"
)

type mockFile struct {
	rec  models.FileRecord
	loc  string
	data []byte
}

// MockStore implements storage.Store in memory. Test helpers allow
// seeding files with chosen IDs and timestamps, and injecting failures
// to exercise the transient-error paths.
type MockStore struct {
	mu    sync.RWMutex
	files map[string]*mockFile
	seq   int

	// Err, when set, is returned by every operation.
	Err error
}

// NewMockStore creates an empty mock store.
func NewMockStore() *MockStore {
	return &MockStore{files: make(map[string]*mockFile)}
}

func (m *MockStore) nextID() string {
	m.seq++
	return fmt.Sprintf("mock-id-%d", m.seq)
}

func (m *MockStore) ListChildren(locationID string) ([]models.FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}

	out := make([]models.FileRecord, 0)
	for _, f := range m.files {
		if f.loc == locationID {
			out = append(out, f.rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockStore) Download(rec models.FileRecord, destDir string) (string, error) {
	data, err := m.ReadFile(rec.ID)
	if err != nil {
		return "", err
	}

	name := storage.SafeFileName(rec.Name)
	if exp, ok := storage.NativeExports[rec.MimeType]; ok {
		name += exp.Extension
	}

	local := filepath.Join(destDir, name)
	if err := os.WriteFile(local, data, 0644); err != nil {
		return "", err
	}
	return local, nil
}

func (m *MockStore) ReadFile(fileID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}

	f, ok := m.files[fileID]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", fileID)
	}
	return f.data, nil
}

func (m *MockStore) FindByName(locationID, name string) (*models.FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}

	for _, f := range m.files {
		if f.loc == locationID && f.rec.Name == name {
			rec := f.rec
			return &rec, nil
		}
	}
	return nil, nil
}

func (m *MockStore) CreateOrUpdate(locationID, filename string, data []byte, mimeType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}

	for id, f := range m.files {
		if f.loc == locationID && f.rec.Name == filename {
			f.data = append([]byte(nil), data...)
			f.rec.Size = int64(len(data))
			f.rec.MimeType = mimeType
			f.rec.ModifiedTime = m.tick()
			return id, nil
		}
	}

	id := m.nextID()
	m.files[id] = &mockFile{
		rec: models.FileRecord{
			ID:           id,
			Name:         filename,
			MimeType:     mimeType,
			Size:         int64(len(data)),
			ModifiedTime: m.tick(),
		},
		loc:  locationID,
		data: append([]byte(nil), data...),
	}
	return id, nil
}

func (m *MockStore) Move(fileID, fromLocationID, toLocationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}

	f, ok := m.files[fileID]
	if !ok {
		return fmt.Errorf("file not found: %s", fileID)
	}
	if f.loc != fromLocationID {
		return fmt.Errorf("file %s is not in location %s", fileID, fromLocationID)
	}
	f.loc = toLocationID
	return nil
}

// tick produces a distinct opaque timestamp per mutation. Callers hold
// the write lock (via CreateOrUpdate) or use helpers.
func (m *MockStore) tick() string {
	m.seq++
	return fmt.Sprintf("ts-%d", m.seq)
}

// Ensure MockStore implements storage.Store
var _ storage.Store = (*MockStore)(nil)

// Test Helper Methods

// AddFile seeds a file with an explicit ID and timestamp.
func (m *MockStore) AddFile(id, locationID, name, mimeType, modifiedTime string, data []byte) models.FileRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := models.FileRecord{
		ID:           id,
		Name:         name,
		MimeType:     mimeType,
		Size:         int64(len(data)),
		ModifiedTime: modifiedTime,
	}
	m.files[id] = &mockFile{rec: rec, loc: locationID, data: append([]byte(nil), data...)}
	return rec
}

// Touch bumps a file's modification timestamp, simulating an external
// rewrite of the same file.
func (m *MockStore) Touch(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.files[id]; ok {
		f.rec.ModifiedTime = m.tick()
	}
}

// Location returns which location currently holds the file.
func (m *MockStore) Location(id string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if f, ok := m.files[id]; ok {
		return f.loc
	}
	return ""
}

// FileData returns a stored file's bytes by name within a location.
func (m *MockStore) FileData(locationID, name string) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, f := range m.files {
		if f.loc == locationID && f.rec.Name == name {
			return f.data
		}
	}
	return nil
}
