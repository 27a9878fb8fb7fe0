package routes

import (
	"squadlink_server/controllers"
	"squadlink_server/services"

	"github.com/gorilla/mux"
)

// RegisterMatchRequestRoutes sets up routes for the request lifecycle under /api/requests
func RegisterMatchRequestRoutes(r *mux.Router, matchRequestService *services.MatchRequestService) {
	controller := controllers.NewMatchRequestController(matchRequestService)

	requestRouter := r.PathPrefix("/api/requests").Subrouter()
	requestRouter.HandleFunc("", controller.SendMatchRequest).Methods("POST")
	requestRouter.HandleFunc("/{requestId}/respond", controller.RespondToMatchRequest).Methods("POST")
	requestRouter.HandleFunc("/incoming/{userId}", controller.GetIncomingRequests).Methods("GET")
}
