package handler

import (
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"expenso/internal/config"
	"expenso/internal/domain"
	"expenso/internal/port"
	"expenso/internal/recognition"
)

// CallbackHandler receives out-of-band results from the recognition service
// and writes them to the correlation store. It never touches expense lines
// directly; the poller and the dedup guard decide what happens to a stored
// result.
type CallbackHandler struct {
	store  port.ResultStore
	recCfg *config.RecognitionConfig
}

// NewCallbackHandler creates a new CallbackHandler.
func NewCallbackHandler(store port.ResultStore, recCfg *config.RecognitionConfig) *CallbackHandler {
	return &CallbackHandler{store: store, recCfg: recCfg}
}

// Receive handles POST /api/v1/recognition/callback/:key
func (h *CallbackHandler) Receive(c *gin.Context) {
	correlationKey := c.Param("key")
	if correlationKey == "" {
		RespondError(c, http.StatusBadRequest, "MISSING_KEY", "correlation key is required")
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 4<<20))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_CALLBACK", "reading callback body failed")
		return
	}

	result, err := recognition.DecodeResultArray(body)
	if err != nil {
		HandleError(c, err)
		return
	}

	stored := &domain.StoredResult{Status: domain.StoredResultCompleted, Data: result}
	if !result.Success {
		stored = &domain.StoredResult{Status: domain.StoredResultError, Error: firstError(result)}
	}

	if err := h.store.Put(c.Request.Context(), correlationKey, stored, h.recCfg.ResultTTL()); err != nil {
		log.Printf("callbackHandler.Receive: storing result for key %s failed: %v", correlationKey, err)
		RespondError(c, http.StatusInternalServerError, "STORE_FAILED", "persisting callback result failed")
		return
	}

	log.Printf("callbackHandler.Receive: stored %s result for key %s", stored.Status, correlationKey)
	RespondOK(c, gin.H{"message": "result accepted"})
}

func firstError(r *domain.RecognitionResult) string {
	if len(r.Errors) > 0 {
		return r.Errors[0]
	}
	return "recognition service reported failure"
}
