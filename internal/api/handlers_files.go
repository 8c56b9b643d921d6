// handlers_files.go - Upload and listing endpoints for the storage
// locations. Uploads land in the raw location and are picked up by the
// next import run.
package api

import (
	"encoding/base64"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"
)

type uploadFileRequest struct {
	Name string `json:"name"`
	Data string `json:"data"`
}

func (r *uploadFileRequest) validate() error {
	if r.Name == "" {
		return NewValidationError("name")
	}
	if r.Data == "" {
		return NewValidationError("data")
	}
	return nil
}

// guessMimeType resolves a content type from the file name, matching how
// uploads were typed in the original flow.
func guessMimeType(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// HandleUploadFile accepts a file as base64 JSON and stores it in the
// raw location.
func (h *Handler) HandleUploadFile(c echo.Context) error {
	var req uploadFileRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	decoded, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		return NewBadRequestError("invalid base64 data", err)
	}

	id, err := h.store.CreateOrUpdate(h.locs.Raw, req.Name, decoded, guessMimeType(req.Name))
	if err != nil {
		return NewInternalError("failed to save file", err)
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"id":   id,
		"name": req.Name,
	})
}

// HandleUploadBinary accepts a raw multipart/form-data upload into the
// raw location.
func (h *Handler) HandleUploadBinary(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("no file provided", err)
	}

	src, err := file.Open()
	if err != nil {
		return NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return NewInternalError("failed to read uploaded file", err)
	}

	id, err := h.store.CreateOrUpdate(h.locs.Raw, file.Filename, data, guessMimeType(file.Filename))
	if err != nil {
		return NewInternalError("failed to save file", err)
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"id":   id,
		"name": file.Filename,
	})
}

// HandleListFiles lists the children of one logical location
// (raw, archive or extract).
func (h *Handler) HandleListFiles(c echo.Context) error {
	name := c.QueryParam("location")
	if name == "" {
		name = "raw"
	}

	locationID, ok := h.resolveLocation(name)
	if !ok {
		return NewValidationError("location")
	}

	records, err := h.store.ListChildren(locationID)
	if err != nil {
		return NewInternalError("failed to list location", err)
	}

	return c.JSON(http.StatusOK, records)
}
