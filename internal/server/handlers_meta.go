package server

import (
	"net/http"

	"morphire/internal/api"
	"morphire/internal/identity"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.info)
}

func (s *Server) handleIdentityKey(w http.ResponseWriter, r *http.Request) {
	id, ok := s.callerIdentity(w, r)
	if !ok {
		return
	}
	key := identity.DeriveKey(id)
	s.writeJSON(w, http.StatusOK, api.IdentityKeyResponse{
		Identity:   id,
		StorageKey: key.String(),
		FileName:   key.FileName(),
	})
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := s.callerIdentity(w, r)
	if !ok {
		return
	}
	doc, err := s.service.Document(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := s.callerIdentity(w, r)
	if !ok {
		return
	}
	summary, err := s.service.Summary(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}
