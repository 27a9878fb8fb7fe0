package routes

import (
	"squadlink_server/controllers"
	"squadlink_server/services"

	"github.com/gorilla/mux"
)

// RegisterQueueRoutes sets up routes for the operation queue under /api/queue
func RegisterQueueRoutes(r *mux.Router, queue *services.RetryQueueService) {
	controller := controllers.NewQueueController(queue)

	queueRouter := r.PathPrefix("/api/queue").Subrouter()
	queueRouter.HandleFunc("/operations", controller.Enqueue).Methods("POST")
	queueRouter.HandleFunc("/stats", controller.GetQueueStats).Methods("GET")
}
