// Package ledger applies job mutations to a single identity's document.
//
// Nothing here persists. Callers wrap one or more operations in a store
// update so that a batch of mutations is saved at once.
package ledger

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	"morphire/internal/contentaddr"
	"morphire/internal/models"
	"morphire/internal/notify"
	"morphire/internal/reputation"
	"morphire/internal/txsim"
)

const defaultDeliverableName = "deliverable"

// ErrContentAddress wraps failures to address a deliverable.
var ErrContentAddress = errors.New("content addressing failed")

// Ledger orchestrates the job lifecycle over injected capabilities.
type Ledger struct {
	content  contentaddr.Store
	notifier notify.Notifier
	tx       *txsim.Simulator
	entropy  io.Reader
	clock    models.Clock
	logger   *slog.Logger
}

type Option func(*Ledger)

// WithEntropy sets the random source used for job ids.
func WithEntropy(r io.Reader) Option {
	return func(l *Ledger) { l.entropy = r }
}

func WithClock(clock models.Clock) Option {
	return func(l *Ledger) { l.clock = clock }
}

func WithSimulator(sim *txsim.Simulator) Option {
	return func(l *Ledger) { l.tx = sim }
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// New builds a Ledger. A nil content store uses the simulated backend and a
// nil notifier drops every event.
func New(content contentaddr.Store, notifier notify.Notifier, opts ...Option) *Ledger {
	l := &Ledger{
		content:  content,
		notifier: notifier,
		entropy:  rand.Reader,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.content == nil {
		l.content = contentaddr.NewSimulated(nil, l.logger)
	}
	if l.tx == nil {
		l.tx = txsim.New()
	}
	return l
}

// WithNotifier returns a copy of l that sends events to n. Sessions use it
// to hold events until their document is saved.
func (l *Ledger) WithNotifier(n notify.Notifier) *Ledger {
	clone := *l
	clone.notifier = n
	return &clone
}

// JobInput carries the caller-supplied fields of a new job.
type JobInput struct {
	Title        string
	Description  string
	Requirements string
	Reward       int64
	Role         string
	Tags         []string
}

// MatchInfo names the counterpart when a job is taken up.
type MatchInfo struct {
	AgentLabel string
	Handle     string
}

// DeliveryInput is an uploaded deliverable.
type DeliveryInput struct {
	Filename string
	Uploader string
	Data     []byte
}

// ProfileInput updates profile fields; nil fields are left unchanged.
type ProfileInput struct {
	Name   *string
	Bio    *string
	Skills []string
}

// CreateJob validates in and appends a pending job to doc.
func (l *Ledger) CreateJob(doc *models.Document, in JobInput) (models.Job, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Job{}, models.Invalid("title", "is required")
	}
	if in.Reward <= 0 {
		return models.Job{}, models.Invalid("reward", "must be a positive integer")
	}
	role := models.RoleRecruiter
	if strings.TrimSpace(in.Role) != "" {
		parsed, err := models.ParseRole(in.Role)
		if err != nil {
			return models.Job{}, models.Invalid("role", "%s", err.Error())
		}
		role = parsed
	}

	id, err := GenerateID(l.entropy, role.IDPrefix(), doc.HasJob)
	if err != nil {
		return models.Job{}, err
	}

	job := models.Job{
		ID:                id,
		Title:             title,
		Description:       strings.TrimSpace(in.Description),
		Requirements:      strings.TrimSpace(in.Requirements),
		Reward:            in.Reward,
		Role:              role,
		PostedBy:          doc.Profile.Name,
		PostedAt:          l.clock.Now(),
		Status:            models.StatusPending,
		Tags:              normalizeTags(in.Tags),
		ChatHistory:       []models.ChatMessage{},
		DeliveryArtifacts: []models.DeliveryArtifact{},
	}
	doc.Jobs = append(doc.Jobs, job)
	return job, nil
}

// TransitionStatus moves a job along the lifecycle table.
func (l *Ledger) TransitionStatus(doc *models.Document, jobID string, to models.JobStatus) (models.Job, error) {
	return l.TransitionStatusWithMatch(doc, jobID, to, MatchInfo{})
}

// TransitionStatusWithMatch is TransitionStatus with the counterpart named
// for the match notification.
func (l *Ledger) TransitionStatusWithMatch(doc *models.Document, jobID string, to models.JobStatus, match MatchInfo) (models.Job, error) {
	job, err := findJob(doc, jobID)
	if err != nil {
		return models.Job{}, err
	}
	from := job.Status
	if err := checkTransition(from, to); err != nil {
		return models.Job{}, err
	}
	job.Status = to

	if models.IsMatchTransition(from, to) {
		agent := strings.TrimSpace(match.AgentLabel)
		if agent == "" {
			agent = doc.Profile.Name
		}
		l.dispatch(notify.Match{Job: *job, AgentLabel: agent, Handle: strings.TrimSpace(match.Handle)})
	}
	return *job, nil
}

// AppendChatMessage adds a message to a job's conversation.
func (l *Ledger) AppendChatMessage(doc *models.Document, jobID, sender, text string) (models.ChatMessage, error) {
	job, err := findJob(doc, jobID)
	if err != nil {
		return models.ChatMessage{}, err
	}
	if strings.TrimSpace(text) == "" {
		return models.ChatMessage{}, models.Invalid("text", "is required")
	}
	sender = strings.TrimSpace(sender)
	if sender == "" {
		sender = doc.Profile.Name
	}

	msg := models.ChatMessage{Sender: sender, Text: text, Timestamp: l.clock.Now()}
	job.ChatHistory = append(job.ChatHistory, msg)
	l.dispatch(notify.Chat{JobID: job.ID, JobTitle: job.Title, Sender: sender, Text: text})
	return msg, nil
}

// RecordDelivery addresses the payload and attaches it to the job.
func (l *Ledger) RecordDelivery(ctx context.Context, doc *models.Document, jobID string, in DeliveryInput) (models.DeliveryArtifact, error) {
	job, err := findJob(doc, jobID)
	if err != nil {
		return models.DeliveryArtifact{}, err
	}
	filename := strings.TrimSpace(in.Filename)
	if filename == "" {
		filename = defaultDeliverableName
	}
	uploader := strings.TrimSpace(in.Uploader)
	if uploader == "" {
		uploader = doc.Profile.Name
	}

	id, err := l.content.Store(ctx, in.Data, filename)
	if err != nil {
		return models.DeliveryArtifact{}, fmt.Errorf("%w: %w", ErrContentAddress, err)
	}

	artifact := models.DeliveryArtifact{
		ContentID:  id,
		Filename:   filename,
		Uploader:   uploader,
		UploadedAt: l.clock.Now(),
	}
	job.DeliveryArtifacts = append(job.DeliveryArtifacts, artifact)
	l.dispatch(notify.Delivery{JobID: job.ID, JobTitle: job.Title, AgentLabel: uploader, ContentID: id})
	return artifact, nil
}

// SettlePayment marks a completed job paid and records a simulated
// settlement against counterpart.
func (l *Ledger) SettlePayment(doc *models.Document, jobID, counterpart string) (models.Transaction, error) {
	job, err := findJob(doc, jobID)
	if err != nil {
		return models.Transaction{}, err
	}
	if err := checkTransition(job.Status, models.StatusPaid); err != nil {
		return models.Transaction{}, err
	}
	ref, err := l.tx.Reference()
	if err != nil {
		return models.Transaction{}, fmt.Errorf("settlement reference: %w", err)
	}

	job.Status = models.StatusPaid
	txn := models.Transaction{
		Reference:   ref,
		Amount:      job.Reward,
		Counterpart: strings.TrimSpace(counterpart),
		Timestamp:   l.clock.Now(),
		JobID:       job.ID,
	}
	doc.Transactions = append(doc.Transactions, txn)
	doc.Meta.TotalPayouts += job.Reward
	return txn, nil
}

// RecordRating appends a 1..5 rating and returns the recomputed credit score.
func (l *Ledger) RecordRating(doc *models.Document, rating float64) (int, error) {
	if math.IsNaN(rating) || math.IsInf(rating, 0) || rating < models.MinRating || rating > models.MaxRating {
		return 0, models.Invalid("rating", "must be between %d and %d", models.MinRating, models.MaxRating)
	}
	doc.Profile.Ratings = append(doc.Profile.Ratings, rating)
	doc.Profile.CreditScore = reputation.CreditScore(doc.Profile.Ratings)
	return doc.Profile.CreditScore, nil
}

func (l *Ledger) UpdateProfile(doc *models.Document, in ProfileInput) (models.Profile, error) {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return models.Profile{}, models.Invalid("name", "cannot be empty")
		}
		doc.Profile.Name = name
	}
	if in.Bio != nil {
		doc.Profile.Bio = strings.TrimSpace(*in.Bio)
	}
	if in.Skills != nil {
		doc.Profile.Skills = normalizeTags(in.Skills)
	}
	return doc.Profile, nil
}

func (l *Ledger) dispatch(event notify.Event) {
	if l.notifier == nil {
		return
	}
	if !l.notifier.Dispatch(event) {
		l.logger.Debug("notification not queued", "kind", event.Kind())
	}
}

func findJob(doc *models.Document, jobID string) (*models.Job, error) {
	job := doc.Job(strings.TrimSpace(jobID))
	if job == nil {
		return nil, fmt.Errorf("job %q: %w", jobID, models.ErrNotFound)
	}
	return job, nil
}

func checkTransition(from, to models.JobStatus) error {
	if !models.CanTransition(from, to) {
		return &models.InvalidTransitionError{
			Current:   from,
			Requested: to,
			Allowed:   models.AllowedTransitions(from),
		}
	}
	return nil
}

// normalizeTags trims, drops empties, and dedupes while keeping order.
func normalizeTags(values []string) []string {
	out := make([]string, 0, len(values))
	seen := map[string]struct{}{}
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
