package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"expenso/internal/service"
)

// BatchHandler exposes batch ingestion control endpoints.
type BatchHandler struct {
	batchService service.BatchService
}

// NewBatchHandler creates a new BatchHandler.
func NewBatchHandler(batchService service.BatchService) *BatchHandler {
	return &BatchHandler{batchService: batchService}
}

// StartBatchRequest is the JSON body for POST /api/v1/batches.
type StartBatchRequest struct {
	ReportID       uuid.UUID   `json:"report_id" binding:"required"`
	FileIDs        []uuid.UUID `json:"file_ids" binding:"required"`
	SubmissionDate string      `json:"submission_date"`
	Country        string      `json:"country"`
	NotifyEmail    string      `json:"notify_email"`
}

// Start handles POST /api/v1/batches
func (h *BatchHandler) Start(c *gin.Context) {
	var req StartBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body: "+err.Error())
		return
	}

	submissionDate := time.Now().UTC()
	if req.SubmissionDate != "" {
		parsed, err := time.Parse("2006-01-02", req.SubmissionDate)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_DATE", "submission_date must be YYYY-MM-DD")
			return
		}
		submissionDate = parsed
	}

	batchID, err := h.batchService.Start(c.Request.Context(), &service.StartBatchInput{
		ReportID:       req.ReportID,
		FileIDs:        req.FileIDs,
		SubmissionDate: submissionDate,
		Country:        req.Country,
		NotifyEmail:    req.NotifyEmail,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondAccepted(c, gin.H{"batch_id": batchID})
}

// Status handles GET /api/v1/batches/:id
func (h *BatchHandler) Status(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid batch ID")
		return
	}

	progress, err := h.batchService.Status(batchID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, progress)
}

// Cancel handles POST /api/v1/batches/:id/cancel
func (h *BatchHandler) Cancel(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid batch ID")
		return
	}

	if err := h.batchService.Cancel(batchID); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"message": "batch cancelled"})
}
