package api

import "morphire/internal/models"

const (
	IdentityHeader  = "X-Morphire-Identity"
	AccessHeader    = "X-Morphire-Access"
	RequestIDHeader = "X-Request-ID"
)

// ErrorResponse is a generic JSON error wrapper.
type ErrorResponse struct {
	Error     string             `json:"error"`
	Code      string             `json:"code,omitempty"`
	ErrorCode int                `json:"error_code,omitempty"`
	Details   *TransitionDetails `json:"details,omitempty"`
}

// TransitionDetails accompanies a rejected status change.
type TransitionDetails struct {
	Current   string   `json:"current"`
	Requested string   `json:"requested"`
	Allowed   []string `json:"allowed"`
}

// InfoResponse describes the running server's backends.
type InfoResponse struct {
	DocumentVersion string `json:"document_version"`
	StoreBackend    string `json:"store_backend"`
	ContentAddress  string `json:"content_address"`
	Webhook         bool   `json:"webhook"`
	AccessGate      bool   `json:"access_gate"`
}

// JobCreateRequest is the payload for creating a job.
type JobCreateRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Requirements string   `json:"requirements,omitempty"`
	Reward       int64    `json:"reward"`
	Role         string   `json:"role,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// JobStatusRequest moves a job to a new status. Agent and handle name the
// counterpart when the job is taken up.
type JobStatusRequest struct {
	Status string `json:"status"`
	Agent  string `json:"agent,omitempty"`
	Handle string `json:"handle,omitempty"`
}

// ChatRequest appends a chat message.
type ChatRequest struct {
	Sender string `json:"sender,omitempty"`
	Text   string `json:"text"`
}

// PaymentRequest settles a completed job.
type PaymentRequest struct {
	Counterpart string `json:"counterpart,omitempty"`
}

// PaymentResponse carries the paid job and its settlement record.
type PaymentResponse struct {
	Job         models.Job         `json:"job"`
	Transaction models.Transaction `json:"transaction"`
}

// ProfileUpdateRequest updates profile fields; omitted fields are unchanged.
type ProfileUpdateRequest struct {
	Name   *string  `json:"name,omitempty"`
	Bio    *string  `json:"bio,omitempty"`
	Skills []string `json:"skills,omitempty"`
}

// RatingRequest records one 1..5 rating.
type RatingRequest struct {
	Rating float64 `json:"rating"`
}

// RatingResponse reports the recomputed credit score.
type RatingResponse struct {
	CreditScore int `json:"credit_score"`
	Ratings     int `json:"ratings"`
}

// IdentityKeyResponse names where the caller's document is stored.
type IdentityKeyResponse struct {
	Identity   string `json:"identity"`
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
}

// SummaryResponse is the dashboard view of one document.
type SummaryResponse struct {
	Profile           models.Profile           `json:"profile"`
	JobCounts         map[models.JobStatus]int `json:"job_counts"`
	TotalJobs         int                      `json:"total_jobs"`
	PotentialEarnings int64                    `json:"potential_earnings"`
	TotalPayouts      int64                    `json:"total_payouts"`
	LastUpdated       string                   `json:"last_updated"`
}
