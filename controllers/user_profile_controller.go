package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"squadlink_server/models"
	"squadlink_server/services"

	"github.com/gorilla/mux"
)

// UserProfileController handles HTTP requests for matchmaking profiles
type UserProfileController struct {
	UserProfileService *services.UserProfileService
}

// NewUserProfileController creates a new UserProfileController instance
func NewUserProfileController(userProfileService *services.UserProfileService) *UserProfileController {
	return &UserProfileController{UserProfileService: userProfileService}
}

// CreateMatchingProfile handles creating a new matchmaking profile
func (upc *UserProfileController) CreateMatchingProfile(w http.ResponseWriter, r *http.Request) {
	var profile models.MatchingProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", services.ErrInvalidInput), "")
		return
	}

	created, err := upc.UserProfileService.CreateMatchingProfile(r.Context(), profile)
	if err != nil {
		writeError(w, err, "")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":   true,
		"profileId": created.UserID,
		"profile":   created,
	})
}

// UpdateMatchingProfile handles partial updates to an existing profile
func (upc *UserProfileController) UpdateMatchingProfile(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	var updates map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request body", services.ErrInvalidInput), "")
		return
	}

	retryID, err := upc.UserProfileService.UpdateMatchingProfile(r.Context(), userID, updates)
	if err != nil {
		writeError(w, err, retryID)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
