package routes

import (
	"vibematch_server/controllers"

	"github.com/gorilla/mux"
)

// RegisterSelfieRoutes sets up routes for selfie submissions under /api/selfies
func RegisterSelfieRoutes(r *mux.Router, matcher controllers.SelfieMatcher, reconciler controllers.ConnectionReconciler, candidates controllers.CandidateCreator) {
	controller := controllers.NewSelfieController(matcher, reconciler, candidates)

	selfieRouter := r.PathPrefix("/api/selfies").Subrouter()
	selfieRouter.HandleFunc("/upload", controller.UploadSelfie).Methods("POST")
}
