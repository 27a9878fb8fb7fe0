package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"squadlink_server/models"
	"squadlink_server/services"

	"github.com/gorilla/mux"
)

// MatchController handles HTTP requests for the search endpoints
type MatchController struct {
	MatchService *services.MatchService
}

// NewMatchController creates a new MatchController instance
func NewMatchController(matchService *services.MatchService) *MatchController {
	return &MatchController{MatchService: matchService}
}

// FindMatches handles ranked candidate search with optional query filters
func (mc *MatchController) FindMatches(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	filters := parseFilters(r.URL.Query())

	matches, err := mc.MatchService.FindMatches(r.Context(), userID, filters)
	if err != nil {
		writeError(w, err, "")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"matches": matches,
	})
}

// FindMatchesByLocation handles geographic candidate search
func (mc *MatchController) FindMatchesByLocation(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	var body struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
		RadiusKm  float64  `json:"radiusKm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Latitude == nil || body.Longitude == nil {
		writeError(w, fmt.Errorf("%w: latitude and longitude are required", services.ErrInvalidInput), "")
		return
	}

	matches, err := mc.MatchService.FindMatchesByLocation(r.Context(), userID, *body.Latitude, *body.Longitude, body.RadiusKm)
	if err != nil {
		writeError(w, err, "")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"matches": matches,
	})
}

// GetSmartRecommendations handles history-biased recommendations
func (mc *MatchController) GetSmartRecommendations(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	recommendations, err := mc.MatchService.GetSmartRecommendations(r.Context(), userID)
	if err != nil {
		writeError(w, err, "")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"recommendations": recommendations,
	})
}

// parseFilters builds MatchFilters from query parameters.
func parseFilters(query map[string][]string) models.MatchFilters {
	first := func(key string) string {
		if values, ok := query[key]; ok && len(values) > 0 {
			return values[0]
		}
		return ""
	}

	filters := models.MatchFilters{
		Game:           first("game"),
		LookingFor:     first("lookingFor"),
		SkillLevel:     first("skillLevel"),
		Location:       first("location"),
		RecentlyActive: first("recentlyActive") == "true",
		OnlineOnly:     first("onlineOnly") == "true",
	}

	if langs := first("languages"); langs != "" {
		filters.Languages = strings.Split(langs, ",")
	}
	if size, err := strconv.Atoi(first("teamSize")); err == nil && size > 0 {
		filters.TeamSize = size
	}

	minAge, minErr := strconv.Atoi(first("minAge"))
	maxAge, maxErr := strconv.Atoi(first("maxAge"))
	if minErr == nil && maxErr == nil {
		filters.AgeRange = &models.AgeRange{Min: minAge, Max: maxAge}
	}

	return filters
}
