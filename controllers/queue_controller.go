package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"squadlink_server/services"
)

// QueueController exposes the resilient operation queue
type QueueController struct {
	Queue *services.RetryQueueService
}

// NewQueueController creates a new QueueController instance
func NewQueueController(queue *services.RetryQueueService) *QueueController {
	return &QueueController{Queue: queue}
}

// Enqueue handles queuing an operation directly
func (qc *QueueController) Enqueue(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Type     string          `json:"type"`
		Payload  json.RawMessage `json:"payload"`
		OwnerID  string          `json:"ownerId"`
		Priority string          `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", services.ErrInvalidInput), "")
		return
	}

	operationID, err := qc.Queue.Enqueue(r.Context(), body.Type, body.Payload, body.OwnerID, body.Priority)
	if err != nil {
		writeError(w, err, "")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"success":     true,
		"operationId": operationID,
	})
}

// GetQueueStats handles the queue counters snapshot
func (qc *QueueController) GetQueueStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"stats":   qc.Queue.Stats(),
	})
}
