// handlers_import.go - Import run control endpoints.
package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/drive-merger/backend/internal/importer"
	"github.com/drive-merger/backend/internal/runs"
)

// HandleStartImport launches an incremental import run over the
// configured locations. Runs are serialized: a second start while one is
// active is a conflict, not a queue.
func (h *Handler) HandleStartImport(c echo.Context) error {
	run, err := h.runsMgr.Start(h.locs)
	if err != nil {
		if errors.Is(err, runs.ErrRunInProgress) {
			return NewConflictError(err.Error())
		}
		if errors.Is(err, importer.ErrMissingLocation) {
			return NewBadRequestError("import locations not configured", err)
		}
		return NewInternalError("failed to start import", err)
	}

	return c.JSON(http.StatusAccepted, map[string]any{
		"runId":  run.ID,
		"status": run.Status,
	})
}

// HandleListRuns returns the run history, newest first.
func (h *Handler) HandleListRuns(c echo.Context) error {
	return c.JSON(http.StatusOK, h.runsMgr.List())
}

// HandleGetRun returns one run by ID.
func (h *Handler) HandleGetRun(c echo.Context) error {
	id := c.Param("id")
	run, ok := h.runsMgr.Get(id)
	if !ok {
		return NewNotFoundError("run", id)
	}
	return c.JSON(http.StatusOK, run)
}
