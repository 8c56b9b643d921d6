package storage

import (
	"strings"

	"github.com/drive-merger/backend/internal/models"
)

// Export describes the format-converting download applied to a
// drive-native document kind.
type Export struct {
	MimeType  string
	Extension string
}

// NativeExports maps native document kinds to their fixed export target.
var NativeExports = map[string]Export{
	models.MimeNativeSpreadsheet: {
		MimeType:  "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Extension: ".xlsx",
	},
	models.MimeNativeDocument: {
		MimeType:  "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		Extension: ".docx",
	},
	models.MimeNativePresentation: {
		MimeType:  "application/vnd.openxmlformats-officedocument.presentationml.presentation",
		Extension: ".pptx",
	},
	models.MimeNativeDrawing: {
		MimeType:  "image/png",
		Extension: ".png",
	},
}

// Store is the storage location abstraction. A location is an opaque
// folder identifier; files are addressed by their own opaque IDs, which
// stay stable when a file is moved between locations.
//
// The store keeps no import state of its own. Callers that run the
// importer concurrently against the same locations get last-writer-wins
// on CreateOrUpdate; serializing runs is a caller responsibility.
type Store interface {
	// ListChildren returns all direct entries of a location, paginating
	// internally until the listing is exhausted. Folder entries are
	// included; callers filter.
	ListChildren(locationID string) ([]models.FileRecord, error)

	// Download fetches a file's bytes into destDir and returns the local
	// path. Native document kinds are exported to their fixed target
	// format; everything else is fetched unchanged. The caller owns
	// cleanup of destDir.
	Download(rec models.FileRecord, destDir string) (string, error)

	// ReadFile returns the raw bytes of a file by ID.
	ReadFile(fileID string) ([]byte, error)

	// FindByName returns the file with the exact given name inside a
	// location, or nil if no such file exists.
	FindByName(locationID, name string) (*models.FileRecord, error)

	// CreateOrUpdate overwrites the bytes of the file named filename in
	// the location if one exists, otherwise creates it. Returns the
	// file's ID. Lookup-then-write is the only conflict rule offered.
	CreateOrUpdate(locationID, filename string, data []byte, mimeType string) (string, error)

	// Move reparents a file from one location to another. Fails if the
	// file no longer exists.
	Move(fileID, fromLocationID, toLocationID string) error
}

const maxFileNameLen = 200

// SafeFileName strips path-hostile characters from a display name before
// it is used on the local filesystem, and truncates to 200 characters.
func SafeFileName(name string) string {
	name = strings.TrimSpace(name)
	var b strings.Builder
	b.Grow(len(name))
	replaced := false
	for _, r := range name {
		switch r {
		case '\\', '/', ':', '*', '?', '"', '<', '>', '|':
			// runs of disallowed characters collapse to one underscore
			if !replaced {
				b.WriteRune('_')
				replaced = true
			}
		default:
			b.WriteRune(r)
			replaced = false
		}
	}
	out := b.String()
	if len(out) > maxFileNameLen {
		out = out[:maxFileNameLen]
	}
	return out
}
