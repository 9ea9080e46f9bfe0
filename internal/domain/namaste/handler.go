package namaste

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/termbridge/termbridge/internal/platform/fhir"
	"github.com/termbridge/termbridge/pkg/pagination"
)

// Handler provides REST and FHIR endpoints for the NAMASTE catalog.
type Handler struct {
	svc *Service
}

// NewHandler creates a new catalog handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers catalog routes on the API and FHIR groups.
func (h *Handler) RegisterRoutes(api *echo.Group, fhirGroup *echo.Group) {
	api.GET("/namaste", h.SearchConcepts)
	api.GET("/namaste/:code", h.GetConcept)

	fhirGroup.GET("/CodeSystem/namaste", h.GetCodeSystem)
	fhirGroup.GET("/CodeSystem/$lookup", h.Lookup)
	fhirGroup.POST("/CodeSystem/$lookup", h.Lookup)
	fhirGroup.GET("/ValueSet/$expand", h.ExpandValueSet)
}

func errorResponse(c echo.Context, err error) error {
	status, outcome := fhir.OutcomeForError(err)
	return c.JSON(status, outcome)
}

// SearchConcepts handles GET /api/v1/namaste?q=...
func (h *Handler) SearchConcepts(c echo.Context) error {
	ctx := c.Request().Context()
	p := pagination.FromContext(c)
	q := c.QueryParam("q")

	var (
		items []*SourceConcept
		total int
		err   error
	)
	if q == "" {
		items, total, err = h.svc.Browse(ctx, p.Limit, p.Offset)
	} else {
		items, total, err = h.svc.Search(ctx, q, p.Limit, p.Offset)
	}
	if err != nil {
		return errorResponse(c, err)
	}

	resp := pagination.NewResponse(items, total, p)
	filters := url.Values{}
	if q != "" {
		filters.Set("q", q)
	}
	resp.Links = p.Links(c.Request().URL.Path, filters, total)
	return c.JSON(http.StatusOK, resp)
}

// GetConcept handles GET /api/v1/namaste/:code
func (h *Handler) GetConcept(c echo.Context) error {
	concept, err := h.svc.Get(c.Request().Context(), c.Param("code"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, concept)
}

// GetCodeSystem handles GET /fhir/CodeSystem/namaste
func (h *Handler) GetCodeSystem(c echo.Context) error {
	cs, err := h.svc.CodeSystem(c.Request().Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, cs)
}

type lookupRequest struct {
	System string `json:"system" query:"system"`
	Code   string `json:"code" query:"code"`
}

// Lookup handles GET|POST /fhir/CodeSystem/$lookup
func (h *Handler) Lookup(c echo.Context) error {
	var req lookupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.ErrorOutcome(err.Error()))
	}
	if req.Code == "" {
		return c.JSON(http.StatusBadRequest, fhir.RequiredFieldOutcome("code"))
	}
	params, err := h.svc.Lookup(c.Request().Context(), req.System, req.Code)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, params)
}

// ExpandValueSet handles GET /fhir/ValueSet/$expand
func (h *Handler) ExpandValueSet(c echo.Context) error {
	if u := c.QueryParam("url"); u != "" && u != ValueSetURL && u != SystemURI {
		return c.JSON(http.StatusNotFound, fhir.NotFoundOutcome("ValueSet", u))
	}

	count := 100
	if v, err := strconv.Atoi(c.QueryParam("count")); err == nil && v > 0 {
		count = v
	}
	offset := 0
	if v, err := strconv.Atoi(c.QueryParam("offset")); err == nil && v >= 0 {
		offset = v
	}

	vs, err := h.svc.Expand(c.Request().Context(), c.QueryParam("filter"), count, offset)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, vs)
}
