package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"agridocs/internal/service"
)

// ExtractionHandler handles document extraction endpoints.
type ExtractionHandler struct {
	extractionService service.ExtractionService
}

// NewExtractionHandler creates a new ExtractionHandler.
func NewExtractionHandler(extractionService service.ExtractionService) *ExtractionHandler {
	return &ExtractionHandler{extractionService: extractionService}
}

// Extract handles POST /api/v1/extractions
func (h *ExtractionHandler) Extract(c *gin.Context) {
	var req service.ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	resp, err := h.extractionService.Extract(c.Request.Context(), &req)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, resp)
}

// GetLatest handles GET /api/v1/extractions/:documentId
func (h *ExtractionHandler) GetLatest(c *gin.Context) {
	documentID := c.Param("documentId")

	record, err := h.extractionService.GetLatest(c.Request.Context(), documentID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, record)
}

// History handles GET /api/v1/extractions/:documentId/history
func (h *ExtractionHandler) History(c *gin.Context) {
	documentID := c.Param("documentId")

	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	records, total, err := h.extractionService.History(c.Request.Context(), documentID, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, records, PagMeta{Total: total, Offset: offset, Limit: limit})
}
