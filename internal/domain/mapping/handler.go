package mapping

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/termbridge/termbridge/internal/domain/namaste"
	"github.com/termbridge/termbridge/internal/platform/apperr"
	"github.com/termbridge/termbridge/internal/platform/fhir"
	"github.com/termbridge/termbridge/internal/platform/icd11"
)

const (
	maxResultsCeiling = 50
	// DefaultBatchMaxItems bounds the codes accepted by one batch request.
	DefaultBatchMaxItems = 100
)

// Handler provides REST and FHIR endpoints for concept mapping.
type Handler struct {
	svc       *Service
	assembler *Assembler
	maxBatch  int
}

// NewHandler creates a new mapping handler.
func NewHandler(svc *Service, assembler *Assembler, maxBatch int) *Handler {
	if maxBatch <= 0 {
		maxBatch = DefaultBatchMaxItems
	}
	return &Handler{svc: svc, assembler: assembler, maxBatch: maxBatch}
}

// RegisterRoutes registers mapping routes on the API and FHIR groups.
func (h *Handler) RegisterRoutes(api *echo.Group, fhirGroup *echo.Group) {
	m := api.Group("/mappings")
	m.POST("/namaste-to-icd11", h.MapForward)
	m.GET("/icd11-to-namaste/:code", h.MapReverse)
	m.POST("/batch", h.MapBatch)

	fhirGroup.GET("/ConceptMap/$translate", h.Translate)
	fhirGroup.POST("/ConceptMap/$translate", h.Translate)
	fhirGroup.GET("/ConceptMap/namaste-to-icd11", h.GetConceptMap)
	fhirGroup.POST("/Condition/$dual-code", h.DualCode)
}

func errorResponse(c echo.Context, err error) error {
	status, outcome := fhir.OutcomeForError(err)
	return c.JSON(status, outcome)
}

// optionsRequest carries the optional tuning fields shared by mapping calls.
type optionsRequest struct {
	MaxResults          *int     `json:"maxResults"`
	ConfidenceThreshold *float64 `json:"confidenceThreshold"`
}

func (r optionsRequest) toOptions() (Options, error) {
	const op = "mapping.Options"
	var opts Options
	if r.MaxResults != nil {
		if *r.MaxResults < 1 || *r.MaxResults > maxResultsCeiling {
			return opts, apperr.InvalidInput(op, "maxResults must be between 1 and %d", maxResultsCeiling)
		}
		opts.MaxResults = *r.MaxResults
	}
	if r.ConfidenceThreshold != nil {
		if *r.ConfidenceThreshold < 0 || *r.ConfidenceThreshold > 1 {
			return opts, apperr.InvalidInput(op, "confidenceThreshold must be between 0 and 1")
		}
		opts.ConfidenceThreshold = r.ConfidenceThreshold
	}
	return opts, nil
}

// optionsFromQuery reads maxResults and confidenceThreshold query parameters.
func optionsFromQuery(c echo.Context) (Options, error) {
	var r optionsRequest
	if raw := c.QueryParam("maxResults"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Options{}, apperr.InvalidInput("mapping.Options", "maxResults must be an integer")
		}
		r.MaxResults = &n
	}
	if raw := c.QueryParam("confidenceThreshold"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Options{}, apperr.InvalidInput("mapping.Options", "confidenceThreshold must be a number")
		}
		r.ConfidenceThreshold = &f
	}
	return r.toOptions()
}

type forwardRequest struct {
	Code string `json:"code"`
	optionsRequest
}

type forwardResponse struct {
	Source   *namaste.SourceConcept `json:"source"`
	Mappings []Mapping              `json:"mappings"`
	Total    int                    `json:"total"`
}

// MapForward handles POST /api/v1/mappings/namaste-to-icd11
func (h *Handler) MapForward(c echo.Context) error {
	var req forwardRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.ErrorOutcome(err.Error()))
	}
	if strings.TrimSpace(req.Code) == "" {
		return c.JSON(http.StatusBadRequest, fhir.RequiredFieldOutcome("code"))
	}
	opts, err := req.toOptions()
	if err != nil {
		return errorResponse(c, err)
	}

	source, mappings, err := h.svc.MapCode(c.Request().Context(), req.Code, opts)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, forwardResponse{Source: source, Mappings: mappings, Total: len(mappings)})
}

type reverseResponse struct {
	Target   *icd11.ExternalConcept `json:"target"`
	Mappings []Mapping              `json:"mappings"`
	Total    int                    `json:"total"`
}

// MapReverse handles GET /api/v1/mappings/icd11-to-namaste/:code
func (h *Handler) MapReverse(c echo.Context) error {
	opts, err := optionsFromQuery(c)
	if err != nil {
		return errorResponse(c, err)
	}
	target, mappings, err := h.svc.MapTargetToSource(c.Request().Context(), c.Param("code"), opts)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, reverseResponse{Target: target, Mappings: mappings, Total: len(mappings)})
}

type batchRequest struct {
	Codes []string `json:"codes"`
	optionsRequest
}

// MapBatch handles POST /api/v1/mappings/batch
func (h *Handler) MapBatch(c echo.Context) error {
	var req batchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.ErrorOutcome(err.Error()))
	}
	if len(req.Codes) == 0 {
		return c.JSON(http.StatusBadRequest, fhir.RequiredFieldOutcome("codes"))
	}
	if len(req.Codes) > h.maxBatch {
		return errorResponse(c, apperr.InvalidInput("mapping.MapBatch", "at most %d codes per batch", h.maxBatch))
	}
	opts, err := req.toOptions()
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, h.svc.MapBatch(c.Request().Context(), req.Codes, opts))
}

type translateRequest struct {
	Code   string `json:"code" query:"code"`
	System string `json:"system" query:"system"`
	Target string `json:"target" query:"target"`
}

// Translate handles GET|POST /fhir/ConceptMap/$translate. A code from the
// ICD-11 system is translated back to NAMASTE; anything else is treated as
// a NAMASTE code.
func (h *Handler) Translate(c echo.Context) error {
	var req translateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.ErrorOutcome(err.Error()))
	}
	if strings.TrimSpace(req.Code) == "" {
		return c.JSON(http.StatusBadRequest, fhir.RequiredFieldOutcome("code"))
	}
	ctx := c.Request().Context()

	switch req.System {
	case icd11.SystemURI:
		_, mappings, err := h.svc.MapTargetToSource(ctx, req.Code, Options{})
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(http.StatusOK, h.assembler.Translate(mappings, true))
	case "", namaste.SystemURI:
		_, mappings, err := h.svc.MapCode(ctx, req.Code, Options{})
		if err != nil {
			return errorResponse(c, err)
		}
		return c.JSON(http.StatusOK, h.assembler.Translate(mappings, false))
	default:
		return errorResponse(c, apperr.InvalidInput("mapping.Translate", "unsupported system %q", req.System))
	}
}

// GetConceptMap handles GET /fhir/ConceptMap/namaste-to-icd11?code=
func (h *Handler) GetConceptMap(c echo.Context) error {
	code := c.QueryParam("code")
	if strings.TrimSpace(code) == "" {
		return c.JSON(http.StatusBadRequest, fhir.RequiredFieldOutcome("code"))
	}
	opts, err := optionsFromQuery(c)
	if err != nil {
		return errorResponse(c, err)
	}
	_, mappings, err := h.svc.MapCode(c.Request().Context(), code, opts)
	if err != nil {
		return errorResponse(c, err)
	}
	cm, _ := h.assembler.ConceptMap(mappings)
	return c.JSON(http.StatusOK, cm)
}

type dualCodeRequest struct {
	Code    string `json:"code"`
	Subject string `json:"subject"`
}

// DualCode handles POST /fhir/Condition/$dual-code. The best ICD-11 mapping,
// if any, is attached as a second coding.
func (h *Handler) DualCode(c echo.Context) error {
	var req dualCodeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.ErrorOutcome(err.Error()))
	}
	if strings.TrimSpace(req.Code) == "" {
		return c.JSON(http.StatusBadRequest, fhir.RequiredFieldOutcome("code"))
	}
	if strings.TrimSpace(req.Subject) == "" {
		return c.JSON(http.StatusBadRequest, fhir.RequiredFieldOutcome("subject"))
	}

	source, mappings, err := h.svc.MapCode(c.Request().Context(), req.Code, Options{MaxResults: 1})
	if err != nil {
		return errorResponse(c, err)
	}
	var best *Mapping
	if len(mappings) > 0 {
		best = &mappings[0]
	}

	res := h.assembler.Assemble(source, best, SubjectReference(req.Subject))
	if !res.Validation.Valid {
		return c.JSON(http.StatusUnprocessableEntity, res.Validation.ToOperationOutcome())
	}
	return c.JSON(http.StatusCreated, res)
}
