package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"squadlink_server/models"
	"squadlink_server/services"

	"github.com/gorilla/mux"
)

// MatchRequestController handles HTTP requests for the request lifecycle
type MatchRequestController struct {
	MatchRequestService *services.MatchRequestService
}

// NewMatchRequestController creates a new MatchRequestController instance
func NewMatchRequestController(matchRequestService *services.MatchRequestService) *MatchRequestController {
	return &MatchRequestController{MatchRequestService: matchRequestService}
}

// SendMatchRequest handles creating a new match request
func (mrc *MatchRequestController) SendMatchRequest(w http.ResponseWriter, r *http.Request) {
	var request models.MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", services.ErrInvalidInput), "")
		return
	}

	requestID, retryID, err := mrc.MatchRequestService.SendMatchRequest(r.Context(), request)
	if err != nil {
		writeError(w, err, retryID)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":   true,
		"requestId": requestID,
	})
}

// RespondToMatchRequest handles the recipient's accept/decline
func (mrc *MatchRequestController) RespondToMatchRequest(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["requestId"]

	var body struct {
		UserID   string `json:"userId"`
		Response string `json:"response"` // "accepted" or "declined"
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", services.ErrInvalidInput), "")
		return
	}
	if body.Response != models.RequestStatusAccepted && body.Response != models.RequestStatusDeclined {
		writeError(w, fmt.Errorf("%w: response must be accepted or declined", services.ErrInvalidInput), "")
		return
	}

	retryID, err := mrc.MatchRequestService.RespondToMatchRequest(r.Context(), requestID, body.UserID, body.Response == models.RequestStatusAccepted)
	if err != nil {
		writeError(w, err, retryID)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// GetIncomingRequests handles fetching the pending requests addressed to a user
func (mrc *MatchRequestController) GetIncomingRequests(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	requests, err := mrc.MatchRequestService.GetIncomingRequests(r.Context(), userID)
	if err != nil {
		writeError(w, err, "")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"requests": requests,
	})
}
