package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"morphire/internal/api"
	"morphire/internal/ledger"
	"morphire/internal/models"
)

// callerIdentity returns the identity attached by withIdentity.
func (s *Server) callerIdentity(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		s.writeErrorReq(w, r, http.StatusUnauthorized, unauthorized(fmt.Errorf("%s header is required", api.IdentityHeader)))
		return "", false
	}
	return id, true
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	id, ok := s.callerIdentity(w, r)
	if !ok {
		return
	}
	var req api.JobCreateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	job, err := s.service.CreateJob(r.Context(), id, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, job)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	id, ok := s.callerIdentity(w, r)
	if !ok {
		return
	}
	filter, err := parseJobFilter(r)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	jobs, err := s.service.ListJobs(r.Context(), id, filter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := s.callerIdentity(w, r)
	if !ok {
		return
	}
	job, err := s.service.Job(r.Context(), id, r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := s.callerIdentity(w, r)
	if !ok {
		return
	}
	var req api.JobStatusRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	job, err := s.service.UpdateStatus(r.Context(), id, r.PathValue("id"), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleAppendChat(w http.ResponseWriter, r *http.Request) {
	id, ok := s.callerIdentity(w, r)
	if !ok {
		return
	}
	var req api.ChatRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	msg, err := s.service.AppendChat(r.Context(), id, r.PathValue("id"), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleCreateDelivery(w http.ResponseWriter, r *http.Request) {
	id, ok := s.callerIdentity(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.multipartMaxMemory); err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, classifyMultipartError(err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, badRequestCode(fmt.Errorf("file is required"), ErrCodeMissingRequired))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, classifyMultipartError(err))
		return
	}

	artifact, err := s.service.RecordDelivery(r.Context(), id, r.PathValue("id"), ledger.DeliveryInput{
		Filename: firstNonEmpty(r.FormValue("filename"), header.Filename),
		Uploader: strings.TrimSpace(r.FormValue("uploader")),
		Data:     data,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, artifact)
}

func (s *Server) handleSettlePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := s.callerIdentity(w, r)
	if !ok {
		return
	}
	var req api.PaymentRequest
	if r.ContentLength != 0 && !s.decodeJSONReq(w, r, &req) {
		return
	}

	resp, err := s.service.SettlePayment(r.Context(), id, r.PathValue("id"), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func parseJobFilter(r *http.Request) (JobFilter, error) {
	query := r.URL.Query()
	var filter JobFilter
	for _, raw := range splitCSV(query.Get("status")) {
		status, err := models.ParseJobStatus(raw)
		if err != nil {
			return JobFilter{}, badRequestCode(err, ErrCodeInvalidQuery)
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	if raw := strings.TrimSpace(query.Get("role")); raw != "" {
		role, err := models.ParseRole(raw)
		if err != nil {
			return JobFilter{}, badRequestCode(err, ErrCodeInvalidQuery)
		}
		filter.Role = role
	}
	filter.Tag = strings.TrimSpace(query.Get("tag"))
	return filter, nil
}

func splitCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func classifyMultipartError(err error) error {
	if err == nil {
		return nil
	}
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) || strings.Contains(strings.ToLower(err.Error()), "request body too large") {
		return badRequestCode(fmt.Errorf("request body too large"), ErrCodeRequestTooLarge)
	}
	return badRequestCode(err, ErrCodeInvalidArgument)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}
