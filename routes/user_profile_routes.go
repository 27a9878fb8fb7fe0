package routes

import (
	"squadlink_server/controllers"
	"squadlink_server/services"

	"github.com/gorilla/mux"
)

// RegisterUserProfileRoutes sets up routes for profile operations under /api/profiles
func RegisterUserProfileRoutes(r *mux.Router, userProfileService *services.UserProfileService) {
	controller := controllers.NewUserProfileController(userProfileService)

	profileRouter := r.PathPrefix("/api/profiles").Subrouter()
	profileRouter.HandleFunc("", controller.CreateMatchingProfile).Methods("POST")
	profileRouter.HandleFunc("/{userId}", controller.UpdateMatchingProfile).Methods("PATCH")
}
