package server

import (
	"net/http"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check and info.
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /v1/info", s.handleInfo)

	// Whole-document views.
	mux.HandleFunc("GET /v1/document", s.handleDocument)
	mux.HandleFunc("GET /v1/summary", s.handleSummary)
	mux.HandleFunc("GET /v1/identity/key", s.handleIdentityKey)

	// Jobs collection.
	mux.HandleFunc("POST /v1/jobs", s.handleCreateJob)
	mux.HandleFunc("GET /v1/jobs", s.handleListJobs)

	// Single job.
	mux.HandleFunc("GET /v1/jobs/{id}", s.handleGetJob)
	mux.HandleFunc("POST /v1/jobs/{id}/status", s.handleUpdateStatus)
	mux.HandleFunc("POST /v1/jobs/{id}/chat", s.handleAppendChat)
	mux.HandleFunc("POST /v1/jobs/{id}/deliveries", s.handleCreateDelivery)
	mux.HandleFunc("POST /v1/jobs/{id}/payment", s.handleSettlePayment)

	// Profile.
	mux.HandleFunc("PATCH /v1/profile", s.handleUpdateProfile)
	mux.HandleFunc("POST /v1/profile/ratings", s.handleRecordRating)

	return mux
}
