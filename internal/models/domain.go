package models

import (
	"fmt"
	"strings"
)

// JobStatus defines allowed lifecycle states for jobs.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusInProgress JobStatus = "in_progress"
	StatusCompleted  JobStatus = "completed"
	StatusPaid       JobStatus = "paid"
	StatusHired      JobStatus = "hired"
	StatusCancelled  JobStatus = "cancelled"
)

// Role records which side of a job the document owner is on.
type Role string

const (
	RoleRecruiter Role = "recruiter"
	RoleAgent     Role = "agent"
)

const (
	DefaultProfileName = "Anonymous Agent"
	DefaultProfileBio  = "I am a morphire agent."
	DefaultCreditScore = 50
	DocumentVersion    = "Morphire.ai v2.0 (Private)"

	MinRating = 1
	MaxRating = 5
)

var allStatuses = []JobStatus{
	StatusPending,
	StatusInProgress,
	StatusCompleted,
	StatusPaid,
	StatusHired,
	StatusCancelled,
}

// transitions lists the allowed targets per source state, in display order.
var transitions = map[JobStatus][]JobStatus{
	StatusPending:    {StatusInProgress, StatusHired, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {StatusPaid},
}

var validRoles = map[Role]struct{}{
	RoleRecruiter: {},
	RoleAgent:     {},
}

// AllStatuses returns every job status in lifecycle order.
func AllStatuses() []JobStatus {
	out := make([]JobStatus, len(allStatuses))
	copy(out, allStatuses)
	return out
}

func IsValidJobStatus(status JobStatus) bool {
	for _, s := range allStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves status.
func IsTerminal(status JobStatus) bool {
	return len(transitions[status]) == 0
}

// AllowedTransitions returns the states reachable from status in one step.
func AllowedTransitions(from JobStatus) []JobStatus {
	allowed := transitions[from]
	out := make([]JobStatus, len(allowed))
	copy(out, allowed)
	return out
}

func CanTransition(from, to JobStatus) bool {
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// IsMatchTransition reports whether moving from -> to means a job was taken up.
func IsMatchTransition(from, to JobStatus) bool {
	return from == StatusPending && (to == StatusInProgress || to == StatusHired)
}

func ParseJobStatus(raw string) (JobStatus, error) {
	value := JobStatus(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("status is required")
	}
	if !IsValidJobStatus(value) {
		return "", fmt.Errorf("invalid status: %s", value)
	}
	return value, nil
}

func ParseRole(raw string) (Role, error) {
	value := Role(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("role is required")
	}
	if _, ok := validRoles[value]; !ok {
		return "", fmt.Errorf("invalid role: %s", value)
	}
	return value, nil
}

// IDPrefix returns the job id prefix used for jobs owned in role.
func (r Role) IDPrefix() string {
	if r == RoleAgent {
		return "JOB"
	}
	return "MF"
}

func statusStrings(values []JobStatus) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		out = append(out, string(value))
	}
	return out
}
