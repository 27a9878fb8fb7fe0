package routes

import (
	"squadlink_server/controllers"
	"squadlink_server/services"

	"github.com/gorilla/mux"
)

// RegisterMatchRoutes sets up routes for the search endpoints under /api/matches
func RegisterMatchRoutes(r *mux.Router, matchService *services.MatchService) {
	controller := controllers.NewMatchController(matchService)

	matchRouter := r.PathPrefix("/api/matches").Subrouter()
	matchRouter.HandleFunc("/{userId}", controller.FindMatches).Methods("GET")
	matchRouter.HandleFunc("/{userId}/nearby", controller.FindMatchesByLocation).Methods("POST")
	matchRouter.HandleFunc("/{userId}/recommendations", controller.GetSmartRecommendations).Methods("GET")
}
