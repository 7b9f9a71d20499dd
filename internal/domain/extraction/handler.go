package extraction

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/scribe/scribe/internal/platform/auth"
	"github.com/scribe/scribe/internal/platform/llm"
	"github.com/scribe/scribe/internal/schema"
	"github.com/scribe/scribe/pkg/pagination"
)

// Handler provides HTTP handlers for visit extractions.
type Handler struct {
	svc *Service
}

// NewHandler creates an extraction handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the extraction routes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	role := auth.RequireRole("physician", "nurse", "scribe")

	g := api.Group("", role)
	g.POST("/visits/:visitID/extraction", h.RunExtraction)
	g.GET("/visits/:visitID/extraction", h.GetExtraction)
	g.PATCH("/visits/:visitID/extraction", h.ApplyEdit)
	g.GET("/extractions", h.ListExtractions)
}

type runExtractionRequest struct {
	Sources []Source `json:"sources"`
}

type applyEditRequest struct {
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value"`
}

type extractionResponse struct {
	ID       uuid.UUID                  `json:"id"`
	VisitID  uuid.UUID                  `json:"visitId"`
	Record   *schema.ClinicalExtraction `json:"record"`
	Analysis AnalysisMetadata           `json:"analysis"`
}

func toResponse(v *VisitExtraction) extractionResponse {
	return extractionResponse{
		ID:       v.ID,
		VisitID:  v.VisitID,
		Record:   v.Record,
		Analysis: v.Analysis(),
	}
}

func (h *Handler) RunExtraction(c echo.Context) error {
	visitID, err := uuid.Parse(c.Param("visitID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid visit id")
	}
	var req runExtractionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	v, err := h.svc.RunExtraction(c.Request().Context(), visitID, req.Sources)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, toResponse(v))
}

func (h *Handler) GetExtraction(c echo.Context) error {
	visitID, err := uuid.Parse(c.Param("visitID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid visit id")
	}
	v, err := h.svc.GetCurrent(c.Request().Context(), visitID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, toResponse(v))
}

func (h *Handler) ApplyEdit(c echo.Context) error {
	visitID, err := uuid.Parse(c.Param("visitID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid visit id")
	}
	var req applyEditRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Path == "" || len(req.Value) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "path and value are required")
	}

	v, err := h.svc.ApplyEdit(c.Request().Context(), visitID, req.Path, req.Value)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, toResponse(v))
}

func (h *Handler) ListExtractions(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return mapError(err)
	}
	responses := make([]extractionResponse, len(items))
	for i, item := range items {
		responses[i] = toResponse(item)
	}
	resp := pagination.NewResponse(responses, total, pg.Limit, pg.Offset)
	resp.Links = pg.Links(c.Request().URL.Path, total)
	return c.JSON(http.StatusOK, resp)
}

// mapError translates domain errors into HTTP responses so callers can tell
// "retry the extraction" from "the request itself was bad" from
// "infrastructure is broken".
func mapError(err error) error {
	var (
		extractionErr *ExtractionFailure
		validationErr schema.ValidationErrors
		editErr       *EditError
		sourceErr     *InvalidSourceError
		notFoundErr   *NotFoundError
		configErr     *llm.ConfigurationError
	)
	switch {
	case errors.Is(err, ErrNoSources):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.As(err, &sourceErr):
		return echo.NewHTTPError(http.StatusBadRequest, sourceErr.Error())
	case errors.As(err, &editErr):
		return echo.NewHTTPError(http.StatusBadRequest, map[string]interface{}{
			"error":    editErr.Error(),
			"path":     editErr.Path,
			"expected": editErr.Expected,
		})
	case errors.As(err, &notFoundErr):
		return echo.NewHTTPError(http.StatusNotFound, notFoundErr.Error())
	case errors.As(err, &validationErr):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, map[string]interface{}{
			"error":       "extracted record failed validation",
			"fieldErrors": []schema.FieldError(validationErr),
		})
	case errors.As(err, &extractionErr):
		return echo.NewHTTPError(http.StatusBadGateway, map[string]interface{}{
			"error":     extractionErr.Error(),
			"retryable": true,
		})
	case errors.As(err, &configErr):
		return echo.NewHTTPError(http.StatusInternalServerError, configErr.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
