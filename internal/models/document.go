package models

import "time"

// Document is the complete isolated state owned by one identity.
type Document struct {
	Meta         Meta          `json:"meta"`
	Jobs         []Job         `json:"jobs"`
	Profile      Profile       `json:"profile"`
	Transactions []Transaction `json:"transactions"`
}

// Meta carries document bookkeeping.
type Meta struct {
	Version       string    `json:"version"`
	OwnerIdentity string    `json:"owner_identity"`
	CreatedAt     time.Time `json:"created_at"`
	LastUpdated   time.Time `json:"lastUpdated"`
	TotalPayouts  int64     `json:"totalPayouts"`
}

// Profile is the public face of the document owner.
type Profile struct {
	Name        string    `json:"name"`
	Bio         string    `json:"bio"`
	Skills      []string  `json:"skills"`
	CreditScore int       `json:"credit_score"`
	Ratings     []float64 `json:"ratings,omitempty"`
}

// Job is one posted or accepted piece of work.
type Job struct {
	ID                string             `json:"id"`
	Title             string             `json:"title"`
	Description       string             `json:"description"`
	Requirements      string             `json:"requirements"`
	Reward            int64              `json:"reward"`
	Role              Role               `json:"role"`
	PostedBy          string             `json:"posted_by"`
	PostedAt          time.Time          `json:"posted_at"`
	Status            JobStatus          `json:"status"`
	Tags              []string           `json:"tags"`
	ChatHistory       []ChatMessage      `json:"chat_history"`
	DeliveryArtifacts []DeliveryArtifact `json:"delivery_artifacts"`
}

// ChatMessage is an append-only entry in a job's conversation.
type ChatMessage struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// DeliveryArtifact references one uploaded deliverable by content id.
type DeliveryArtifact struct {
	ContentID  string    `json:"cid"`
	Filename   string    `json:"filename"`
	Uploader   string    `json:"uploader"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Transaction is a settlement record for a paid job.
type Transaction struct {
	Reference   string    `json:"reference"`
	Amount      int64     `json:"amount"`
	Counterpart string    `json:"counterpart"`
	Timestamp   time.Time `json:"timestamp"`
	JobID       string    `json:"job_id"`
}

// NewDocument returns the default document for a first-time identity.
func NewDocument(identity string, now time.Time) *Document {
	now = now.In(JST)
	return &Document{
		Meta: Meta{
			Version:       DocumentVersion,
			OwnerIdentity: identity,
			CreatedAt:     now,
			LastUpdated:   now,
		},
		Jobs: []Job{},
		Profile: Profile{
			Name:        DefaultProfileName,
			Bio:         DefaultProfileBio,
			Skills:      []string{},
			CreditScore: DefaultCreditScore,
		},
		Transactions: []Transaction{},
	}
}

// Normalize replaces nil collections so encoded documents keep their shape.
func (d *Document) Normalize() {
	if d.Jobs == nil {
		d.Jobs = []Job{}
	}
	if d.Transactions == nil {
		d.Transactions = []Transaction{}
	}
	if d.Profile.Skills == nil {
		d.Profile.Skills = []string{}
	}
	for i := range d.Jobs {
		job := &d.Jobs[i]
		if job.Tags == nil {
			job.Tags = []string{}
		}
		if job.ChatHistory == nil {
			job.ChatHistory = []ChatMessage{}
		}
		if job.DeliveryArtifacts == nil {
			job.DeliveryArtifacts = []DeliveryArtifact{}
		}
	}
}

// Job returns a pointer into d.Jobs for id, or nil.
func (d *Document) Job(id string) *Job {
	for i := range d.Jobs {
		if d.Jobs[i].ID == id {
			return &d.Jobs[i]
		}
	}
	return nil
}

// HasJob reports whether id is already used in d.
func (d *Document) HasJob(id string) bool {
	return d.Job(id) != nil
}

// PotentialEarnings sums rewards over all jobs in the document.
func (d *Document) PotentialEarnings() int64 {
	var total int64
	for _, job := range d.Jobs {
		total += job.Reward
	}
	return total
}
