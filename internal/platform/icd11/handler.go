package icd11

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/termbridge/termbridge/internal/platform/fhir"
)

// Handler exposes the lookup client for diagnostics.
type Handler struct {
	client *Client
}

// NewHandler creates a Handler.
func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

// RegisterRoutes registers the ICD-11 routes under api.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/icd11")
	g.GET("/search", h.Search)
	g.GET("/cache/stats", h.CacheStats)
}

// Search handles GET /api/v1/icd11/search?q=&max=
func (h *Handler) Search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return c.JSON(http.StatusBadRequest, fhir.RequiredFieldOutcome("q"))
	}
	max := DefaultMaxResults
	if raw := c.QueryParam("max"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 50 {
			return c.JSON(http.StatusBadRequest, fhir.ErrorOutcome("max must be an integer between 1 and 50"))
		}
		max = n
	}
	results := h.client.Search(c.Request().Context(), q, max)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"query":   q,
		"total":   len(results),
		"results": results,
	})
}

// CacheStats handles GET /api/v1/icd11/cache/stats
func (h *Handler) CacheStats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.client.Stats())
}
