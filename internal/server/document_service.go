package server

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"morphire/internal/api"
	"morphire/internal/ledger"
	"morphire/internal/models"
	"morphire/internal/notify"
	"morphire/internal/store"
)

var jobIDRegex = regexp.MustCompile(`^(MF|JOB)-[A-Z0-9]{5}$`)

// DocumentService runs every request as one load-mutate-save session on the
// caller's document. Notifications raised during a session are sent only
// after the document is saved.
type DocumentService struct {
	store    store.DocumentStore
	ledger   *ledger.Ledger
	notifier notify.Notifier
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(st store.DocumentStore, l *ledger.Ledger, notifier notify.Notifier) *DocumentService {
	if l == nil {
		l = ledger.New(nil, nil)
	}
	return &DocumentService{store: st, ledger: l, notifier: notifier}
}

// JobFilter narrows ListJobs.
type JobFilter struct {
	Statuses []models.JobStatus
	Role     models.Role
	Tag      string
}

func (f JobFilter) matches(job models.Job) bool {
	if len(f.Statuses) > 0 {
		found := false
		for _, status := range f.Statuses {
			if job.Status == status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Role != "" && job.Role != f.Role {
		return false
	}
	if f.Tag != "" {
		for _, tag := range job.Tags {
			if strings.EqualFold(tag, f.Tag) {
				return true
			}
		}
		return false
	}
	return true
}

func normalizeJobID(raw string) (string, error) {
	id := strings.ToUpper(strings.TrimSpace(raw))
	if !jobIDRegex.MatchString(id) {
		return "", badRequestCode(fmt.Errorf("invalid job id %q", raw), ErrCodeInvalidID)
	}
	return id, nil
}

// session runs fn inside one store update and flushes its notifications
// once the update is saved.
func (s *DocumentService) session(ctx context.Context, identity string, fn func(*ledger.Ledger, *models.Document) error) error {
	pending := &notify.Recorder{}
	l := s.ledger.WithNotifier(pending)
	if _, err := s.store.Update(ctx, identity, func(doc *models.Document) error {
		return fn(l, doc)
	}); err != nil {
		return classifyError(err)
	}
	if s.notifier != nil {
		for _, event := range pending.Events() {
			s.notifier.Dispatch(event)
		}
	}
	return nil
}

func (s *DocumentService) Document(ctx context.Context, identity string) (*models.Document, error) {
	doc, err := s.store.Load(ctx, identity)
	if err != nil {
		return nil, classifyError(err)
	}
	return doc, nil
}

func (s *DocumentService) Summary(ctx context.Context, identity string) (api.SummaryResponse, error) {
	doc, err := s.Document(ctx, identity)
	if err != nil {
		return api.SummaryResponse{}, err
	}
	counts := make(map[models.JobStatus]int, len(models.AllStatuses()))
	for _, status := range models.AllStatuses() {
		counts[status] = 0
	}
	for _, job := range doc.Jobs {
		counts[job.Status]++
	}
	return api.SummaryResponse{
		Profile:           doc.Profile,
		JobCounts:         counts,
		TotalJobs:         len(doc.Jobs),
		PotentialEarnings: doc.PotentialEarnings(),
		TotalPayouts:      doc.Meta.TotalPayouts,
		LastUpdated:       doc.Meta.LastUpdated.Format(time.RFC3339),
	}, nil
}

func (s *DocumentService) ListJobs(ctx context.Context, identity string, filter JobFilter) ([]models.Job, error) {
	doc, err := s.Document(ctx, identity)
	if err != nil {
		return nil, err
	}
	out := make([]models.Job, 0, len(doc.Jobs))
	for _, job := range doc.Jobs {
		if filter.matches(job) {
			out = append(out, job)
		}
	}
	return out, nil
}

func (s *DocumentService) Job(ctx context.Context, identity, rawID string) (models.Job, error) {
	id, err := normalizeJobID(rawID)
	if err != nil {
		return models.Job{}, err
	}
	doc, err := s.Document(ctx, identity)
	if err != nil {
		return models.Job{}, err
	}
	job := doc.Job(id)
	if job == nil {
		return models.Job{}, notFound(fmt.Errorf("job %q: %w", id, models.ErrNotFound))
	}
	return *job, nil
}

func (s *DocumentService) CreateJob(ctx context.Context, identity string, req api.JobCreateRequest) (models.Job, error) {
	var job models.Job
	err := s.session(ctx, identity, func(l *ledger.Ledger, doc *models.Document) error {
		var err error
		job, err = l.CreateJob(doc, ledger.JobInput{
			Title:        req.Title,
			Description:  req.Description,
			Requirements: req.Requirements,
			Reward:       req.Reward,
			Role:         req.Role,
			Tags:         req.Tags,
		})
		return err
	})
	return job, err
}

func (s *DocumentService) UpdateStatus(ctx context.Context, identity, rawID string, req api.JobStatusRequest) (models.Job, error) {
	id, err := normalizeJobID(rawID)
	if err != nil {
		return models.Job{}, err
	}
	to, err := models.ParseJobStatus(req.Status)
	if err != nil {
		return models.Job{}, badRequestCode(err, ErrCodeInvalidStatus)
	}

	var job models.Job
	err = s.session(ctx, identity, func(l *ledger.Ledger, doc *models.Document) error {
		var err error
		job, err = l.TransitionStatusWithMatch(doc, id, to, ledger.MatchInfo{AgentLabel: req.Agent, Handle: req.Handle})
		return err
	})
	return job, err
}

func (s *DocumentService) AppendChat(ctx context.Context, identity, rawID string, req api.ChatRequest) (models.ChatMessage, error) {
	id, err := normalizeJobID(rawID)
	if err != nil {
		return models.ChatMessage{}, err
	}
	var msg models.ChatMessage
	err = s.session(ctx, identity, func(l *ledger.Ledger, doc *models.Document) error {
		var err error
		msg, err = l.AppendChatMessage(doc, id, req.Sender, req.Text)
		return err
	})
	return msg, err
}

func (s *DocumentService) RecordDelivery(ctx context.Context, identity, rawID string, in ledger.DeliveryInput) (models.DeliveryArtifact, error) {
	id, err := normalizeJobID(rawID)
	if err != nil {
		return models.DeliveryArtifact{}, err
	}
	var artifact models.DeliveryArtifact
	err = s.session(ctx, identity, func(l *ledger.Ledger, doc *models.Document) error {
		var err error
		artifact, err = l.RecordDelivery(ctx, doc, id, in)
		return err
	})
	return artifact, err
}

func (s *DocumentService) SettlePayment(ctx context.Context, identity, rawID string, req api.PaymentRequest) (api.PaymentResponse, error) {
	id, err := normalizeJobID(rawID)
	if err != nil {
		return api.PaymentResponse{}, err
	}
	var resp api.PaymentResponse
	err = s.session(ctx, identity, func(l *ledger.Ledger, doc *models.Document) error {
		txn, err := l.SettlePayment(doc, id, req.Counterpart)
		if err != nil {
			return err
		}
		resp.Transaction = txn
		resp.Job = *doc.Job(id)
		return nil
	})
	return resp, err
}

func (s *DocumentService) UpdateProfile(ctx context.Context, identity string, req api.ProfileUpdateRequest) (models.Profile, error) {
	var profile models.Profile
	err := s.session(ctx, identity, func(l *ledger.Ledger, doc *models.Document) error {
		var err error
		profile, err = l.UpdateProfile(doc, ledger.ProfileInput{Name: req.Name, Bio: req.Bio, Skills: req.Skills})
		return err
	})
	return profile, err
}

func (s *DocumentService) RecordRating(ctx context.Context, identity string, req api.RatingRequest) (api.RatingResponse, error) {
	var resp api.RatingResponse
	err := s.session(ctx, identity, func(l *ledger.Ledger, doc *models.Document) error {
		score, err := l.RecordRating(doc, req.Rating)
		if err != nil {
			return err
		}
		resp = api.RatingResponse{CreditScore: score, Ratings: len(doc.Profile.Ratings)}
		return nil
	})
	return resp, err
}
