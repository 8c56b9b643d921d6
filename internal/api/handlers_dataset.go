// handlers_dataset.go - Read access to the accumulated dataset.
package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/drive-merger/backend/internal/importer"
)

const (
	defaultPageSize = 100
	maxPageSize     = 5000
)

// HandleDatasetSummary returns the dataset's column set and row count.
func (h *Handler) HandleDatasetSummary(c echo.Context) error {
	t, err := h.imp.Dataset(h.locs.Extract)
	if err != nil {
		return NewInternalError("failed to load dataset", err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"columns":  t.Columns,
		"rowCount": t.RowCount(),
	})
}

// HandleDatasetDownload streams the merged dataset as CSV.
func (h *Handler) HandleDatasetDownload(c echo.Context) error {
	t, err := h.imp.Dataset(h.locs.Extract)
	if err != nil {
		return NewInternalError("failed to load dataset", err)
	}

	data, err := t.EncodeCSV()
	if err != nil {
		return NewInternalError("failed to encode dataset", err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="merged.csv"`)
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", data)
}

// datasetRowsResponse is the paged rows payload, JSON or msgpack encoded.
type datasetRowsResponse struct {
	Rows     []map[string]string `json:"rows" msgpack:"rows"`
	Total    int                 `json:"total" msgpack:"total"`
	Page     int                 `json:"page" msgpack:"page"`
	PageSize int                 `json:"pageSize" msgpack:"pageSize"`
}

// HandleDatasetRows serves one page of dataset rows through the DuckDB
// mirror. `format=msgpack` switches to msgpack encoding for bulk reads.
func (h *Handler) HandleDatasetRows(c echo.Context) error {
	if h.query == nil {
		return NewInternalError("dataset queries are not enabled", nil)
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.QueryParam("pageSize"))
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	if err := h.refreshQueryStore(); err != nil {
		return NewInternalError("failed to refresh dataset mirror", err)
	}

	rows, err := h.query.QueryRows(c.Request().Context(), (page-1)*pageSize, pageSize)
	if err != nil {
		return NewInternalError("failed to query dataset", err)
	}

	resp := datasetRowsResponse{
		Rows:     rows,
		Total:    h.query.Len(),
		Page:     page,
		PageSize: pageSize,
	}

	if c.QueryParam("format") == "msgpack" {
		data, err := msgpack.Marshal(resp)
		if err != nil {
			return NewInternalError("failed to encode rows", err)
		}
		return c.Blob(http.StatusOK, "application/x-msgpack", data)
	}
	return c.JSON(http.StatusOK, resp)
}

// refreshQueryStore rebuilds the DuckDB mirror when the extract
// location's content fingerprint has changed since the last rebuild.
func (h *Handler) refreshQueryStore() error {
	children, err := h.store.ListChildren(h.locs.Extract)
	if err != nil {
		return err
	}
	fp := importer.Fingerprint(h.locs.Extract, children)

	h.queryMu.Lock()
	defer h.queryMu.Unlock()

	if fp == h.queryFP {
		return nil
	}

	t, err := h.imp.Dataset(h.locs.Extract)
	if err != nil {
		return err
	}
	if err := h.query.Rebuild(t); err != nil {
		return err
	}
	h.queryFP = fp
	return nil
}
