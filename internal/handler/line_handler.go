package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"expenso/internal/csvexport"
	"expenso/internal/service"
)

// LineHandler handles expense line endpoints outside the ingestion pipeline.
type LineHandler struct {
	lineService service.LineService
}

// NewLineHandler creates a new LineHandler.
func NewLineHandler(lineService service.LineService) *LineHandler {
	return &LineHandler{lineService: lineService}
}

// ListByReport handles GET /api/v1/reports/:id/lines
func (h *LineHandler) ListByReport(c *gin.Context) {
	reportID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid report ID")
		return
	}

	lines, err := h.lineService.ListByReport(c.Request.Context(), reportID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, lines)
}

// ReorderRequest is the JSON body for PUT /api/v1/reports/:id/lines/order.
type ReorderRequest struct {
	LineIDs []uuid.UUID `json:"line_ids" binding:"required"`
}

// Reorder handles PUT /api/v1/reports/:id/lines/order
func (h *LineHandler) Reorder(c *gin.Context) {
	reportID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid report ID")
		return
	}

	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body: "+err.Error())
		return
	}
	if len(req.LineIDs) == 0 {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "line_ids must not be empty")
		return
	}

	if err := h.lineService.Reorder(c.Request.Context(), reportID, req.LineIDs); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"message": "lines reordered"})
}

// Delete handles DELETE /api/v1/reports/:id/lines/:lineID
func (h *LineHandler) Delete(c *gin.Context) {
	reportID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid report ID")
		return
	}
	lineID, err := uuid.Parse(c.Param("lineID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid line ID")
		return
	}

	if err := h.lineService.Delete(c.Request.Context(), reportID, lineID); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"message": "line deleted"})
}

// ExportCSV handles GET /api/v1/reports/:id/lines/export/csv
func (h *LineHandler) ExportCSV(c *gin.Context) {
	reportID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid report ID")
		return
	}

	lines, err := h.lineService.ListByReport(c.Request.Context(), reportID)
	if err != nil {
		HandleError(c, err)
		return
	}

	filename := csvexport.BuildFilename("report_" + reportID.String())
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)

	if _, err := c.Writer.Write(csvexport.BOM); err != nil {
		log.Printf("lineHandler.ExportCSV: writing BOM: %v", err)
		return
	}

	w := csvexport.NewWriter(c.Writer)
	if err := w.WriteHeader(); err != nil {
		log.Printf("lineHandler.ExportCSV: writing header: %v", err)
		return
	}
	if err := w.WriteLines(lines); err != nil {
		log.Printf("lineHandler.ExportCSV: writing rows: %v", err)
		return
	}
	w.Flush()
	if err := w.Error(); err != nil {
		log.Printf("lineHandler.ExportCSV: flushing: %v", err)
	}
}
