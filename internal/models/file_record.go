package models

// Well-known drive MIME types. Folders are never imported; the native
// document kinds require a format-converting export on download.
const (
	MimeFolder = "application/vnd.google-apps.folder"

	MimeNativeSpreadsheet  = "application/vnd.google-apps.spreadsheet"
	MimeNativeDocument     = "application/vnd.google-apps.document"
	MimeNativePresentation = "application/vnd.google-apps.presentation"
	MimeNativeDrawing      = "application/vnd.google-apps.drawing"
)

// FileRecord describes one entry of a storage location listing.
// ModifiedTime is an opaque string: it is compared only for equality
// against the manifest, never parsed as a time value.
type FileRecord struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modifiedTime"`
}

// IsFolder reports whether the record is a folder-kind entry.
func (r FileRecord) IsFolder() bool {
	return r.MimeType == MimeFolder
}
