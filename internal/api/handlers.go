// Package api exposes the import service over HTTP: file uploads into
// the raw location, import run control, and read access to the
// accumulated dataset.
package api

import (
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/drive-merger/backend/internal/dataset"
	"github.com/drive-merger/backend/internal/importer"
	"github.com/drive-merger/backend/internal/runs"
	"github.com/drive-merger/backend/internal/storage"
)

// Handler holds the dependencies shared by all endpoints.
type Handler struct {
	store   storage.Store
	imp     *importer.Importer
	runsMgr *runs.Manager
	locs    importer.Locations
	version string

	// Dataset query mirror; nil disables the paged rows endpoint.
	query   *dataset.QueryStore
	queryMu sync.Mutex
	queryFP string
}

// NewHandler creates the API handler. query may be nil.
func NewHandler(store storage.Store, imp *importer.Importer, runsMgr *runs.Manager,
	locs importer.Locations, query *dataset.QueryStore, version string) *Handler {
	return &Handler{
		store:   store,
		imp:     imp,
		runsMgr: runsMgr,
		locs:    locs,
		query:   query,
		version: version,
	}
}

// RegisterRoutes attaches all endpoints under /api.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")

	g.GET("/health", h.HandleHealth)

	g.POST("/files/upload", h.HandleUploadFile)
	g.POST("/files/upload/binary", h.HandleUploadBinary)
	g.GET("/files", h.HandleListFiles)

	g.POST("/import", h.HandleStartImport)
	g.GET("/import/runs", h.HandleListRuns)
	g.GET("/import/runs/:id", h.HandleGetRun)

	g.GET("/dataset", h.HandleDatasetSummary)
	g.GET("/dataset/download", h.HandleDatasetDownload)
	g.GET("/dataset/rows", h.HandleDatasetRows)
}

// resolveLocation maps a logical location name to its configured ID.
func (h *Handler) resolveLocation(name string) (string, bool) {
	switch name {
	case "raw":
		return h.locs.Raw, true
	case "archive":
		return h.locs.Archive, true
	case "extract":
		return h.locs.Extract, true
	default:
		return "", false
	}
}
