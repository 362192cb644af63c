package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"docrisk/internal/domain"
	"docrisk/internal/export"
	"docrisk/internal/service"
)

// AssessmentHandler serves stored assessment results.
type AssessmentHandler struct {
	assessmentService service.AssessmentService
}

// NewAssessmentHandler creates a new AssessmentHandler.
func NewAssessmentHandler(assessmentService service.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{assessmentService: assessmentService}
}

// parseAssessmentFilters extracts listing filters from query params.
func parseAssessmentFilters(c *gin.Context) (domain.AssessmentFilters, error) {
	filters := domain.AssessmentFilters{
		Offset: 0,
		Limit:  20,
	}

	if ratioStr := c.Query("min_risk_ratio"); ratioStr != "" {
		ratio, err := strconv.ParseFloat(ratioStr, 64)
		if err != nil || ratio < 0 || ratio > 1 {
			return filters, fmt.Errorf("invalid 'min_risk_ratio': must be a number between 0 and 1")
		}
		filters.MinRiskRatio = &ratio
	}

	if plausibleStr := c.Query("is_plausible"); plausibleStr != "" {
		plausible, err := strconv.ParseBool(plausibleStr)
		if err != nil {
			return filters, fmt.Errorf("invalid 'is_plausible': must be true or false")
		}
		filters.IsPlausible = &plausible
	}

	filters.Assessment = c.Query("assessment")

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return filters, fmt.Errorf("invalid 'offset': must be a non-negative integer")
		}
		filters.Offset = offset
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > 100 {
			return filters, fmt.Errorf("invalid 'limit': must be between 1 and 100")
		}
		filters.Limit = limit
	}

	return filters, nil
}

// List handles GET /api/v1/assessments
func (h *AssessmentHandler) List(c *gin.Context) {
	filters, err := parseAssessmentFilters(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_FILTER", err.Error())
		return
	}

	records, total, err := h.assessmentService.List(c.Request.Context(), filters)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, records, PagMeta{
		Total:  total,
		Offset: filters.Offset,
		Limit:  filters.Limit,
	})
}

// Summary handles GET /api/v1/assessments/summary
func (h *AssessmentHandler) Summary(c *gin.Context) {
	summary, err := h.assessmentService.Summary(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, summary)
}

// GetByID handles GET /api/v1/assessments/:document_id
func (h *AssessmentHandler) GetByID(c *gin.Context) {
	record, err := h.assessmentService.Get(c.Request.Context(), c.Param("document_id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, record)
}

// Questions handles GET /api/v1/assessments/:document_id/questions
func (h *AssessmentHandler) Questions(c *gin.Context) {
	rows, err := h.assessmentService.QuestionRows(c.Request.Context(), c.Param("document_id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, rows)
}

// ReportCSV handles GET /api/v1/assessments/:document_id/report.csv
func (h *AssessmentHandler) ReportCSV(c *gin.Context) {
	documentID := c.Param("document_id")
	rows, err := h.assessmentService.QuestionRows(c.Request.Context(), documentID)
	if err != nil {
		HandleError(c, err)
		return
	}

	var buf bytes.Buffer
	buf.Write(export.BOM)
	w := export.NewCSVWriter(&buf)
	if err := w.WriteHeader(); err != nil {
		HandleError(c, err)
		return
	}
	if err := w.WriteRows(rows); err != nil {
		HandleError(c, err)
		return
	}
	w.Flush()
	if err := w.Error(); err != nil {
		HandleError(c, err)
		return
	}

	filename := export.ReportFilename(documentID, time.Now().UTC())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
