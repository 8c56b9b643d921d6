package models

// ManifestEntry is the last-seen fingerprint of one processed source file.
type ManifestEntry struct {
	ModifiedTime string `json:"modifiedTime"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
}

// Manifest maps source file IDs to their last-seen state. It is read in
// full, mutated in memory, and written back in full.
type Manifest struct {
	Processed map[string]ManifestEntry `json:"processed"`
}

// NewManifest returns an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{Processed: make(map[string]ManifestEntry)}
}

// Seen reports whether the record is already processed with an identical
// modification timestamp. Any other relation, including absence, means
// the record must be (re)imported.
func (m *Manifest) Seen(rec FileRecord) bool {
	entry, ok := m.Processed[rec.ID]
	return ok && entry.ModifiedTime == rec.ModifiedTime
}

// Mark records the current state of a source file. This happens even when
// the file produced no tabular content, so unparseable files are not
// retried on the next run.
func (m *Manifest) Mark(rec FileRecord) {
	if m.Processed == nil {
		m.Processed = make(map[string]ManifestEntry)
	}
	m.Processed[rec.ID] = ManifestEntry{
		ModifiedTime: rec.ModifiedTime,
		Name:         rec.Name,
		MimeType:     rec.MimeType,
	}
}
