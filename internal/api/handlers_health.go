// handlers_health.go - Health check handler
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HandleHealth returns server health status.
func (h *Handler) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"version": h.version,
	})
}
