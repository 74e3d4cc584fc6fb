package server

import (
	"net/http"

	"morphire/internal/api"
)

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := s.callerIdentity(w, r)
	if !ok {
		return
	}
	var req api.ProfileUpdateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	profile, err := s.service.UpdateProfile(r.Context(), id, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleRecordRating(w http.ResponseWriter, r *http.Request) {
	id, ok := s.callerIdentity(w, r)
	if !ok {
		return
	}
	var req api.RatingRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	resp, err := s.service.RecordRating(r.Context(), id, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}
