package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"morphire/internal/api"
	"morphire/internal/format"
	"morphire/internal/models"
)

var (
	stdout          io.Writer        = os.Stdout
	outputFormatter format.Formatter = format.JSONFormatter{}
)

func writeJSON(payload any) error {
	return outputFormatter.Write(stdout, payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(stdout, format, args...)
	return err
}

// writeOutput emits payload as JSON or falls back to the plain renderer.
func writeOutput(opts *globalOptions, payload any, plain func() error) error {
	if opts != nil && opts.json {
		return writeJSON(payload)
	}
	return plain()
}

func writeJobList(jobs []models.Job) error {
	if len(jobs) == 0 {
		return writePlain("no jobs\n")
	}
	for _, job := range jobs {
		if err := writePlain("%s\n", formatJobLine(job)); err != nil {
			return err
		}
	}
	return nil
}

func formatJobLine(job models.Job) string {
	return fmt.Sprintf("%s %s [%s] %d - %s", statusGlyph(job.Status), job.ID, job.Status, job.Reward, job.Title)
}

func statusGlyph(status models.JobStatus) string {
	switch status {
	case models.StatusPending:
		return "○"
	case models.StatusInProgress, models.StatusHired:
		return "◐"
	case models.StatusCompleted:
		return "●"
	case models.StatusPaid:
		return "✓"
	default:
		return "✗"
	}
}

func writeJobDetail(job models.Job) error {
	lines := []string{
		fmt.Sprintf("id: %s", job.ID),
		fmt.Sprintf("title: %s", job.Title),
		fmt.Sprintf("status: %s", job.Status),
		fmt.Sprintf("role: %s", job.Role),
		fmt.Sprintf("reward: %d", job.Reward),
		fmt.Sprintf("posted_by: %s", job.PostedBy),
		fmt.Sprintf("posted_at: %s", formatTime(job.PostedAt)),
	}
	if job.Description != "" {
		lines = append(lines, fmt.Sprintf("description: %s", job.Description))
	}
	if job.Requirements != "" {
		lines = append(lines, fmt.Sprintf("requirements: %s", job.Requirements))
	}
	if len(job.Tags) > 0 {
		lines = append(lines, fmt.Sprintf("tags: %s", strings.Join(job.Tags, ", ")))
	}
	if len(job.ChatHistory) > 0 {
		lines = append(lines, "chat:")
		for _, msg := range job.ChatHistory {
			lines = append(lines, fmt.Sprintf("  [%s] %s: %s", formatTime(msg.Timestamp), msg.Sender, msg.Text))
		}
	}
	if len(job.DeliveryArtifacts) > 0 {
		lines = append(lines, "deliveries:")
		for _, artifact := range job.DeliveryArtifacts {
			lines = append(lines, fmt.Sprintf("  - %s %s (%s)", artifact.ContentID, artifact.Filename, artifact.Uploader))
		}
	}
	return writePlain("%s\n", strings.Join(lines, "\n"))
}

func writeProfile(profile models.Profile) error {
	lines := []string{
		fmt.Sprintf("name: %s", profile.Name),
		fmt.Sprintf("bio: %s", profile.Bio),
		fmt.Sprintf("credit_score: %d", profile.CreditScore),
		fmt.Sprintf("ratings: %d", len(profile.Ratings)),
	}
	if len(profile.Skills) > 0 {
		lines = append(lines, fmt.Sprintf("skills: %s", strings.Join(profile.Skills, ", ")))
	}
	return writePlain("%s\n", strings.Join(lines, "\n"))
}

func writeSummary(summary api.SummaryResponse) error {
	lines := []string{
		fmt.Sprintf("profile: %s (credit %d)", summary.Profile.Name, summary.Profile.CreditScore),
		fmt.Sprintf("jobs: %d", summary.TotalJobs),
	}
	for _, status := range models.AllStatuses() {
		if count := summary.JobCounts[status]; count > 0 {
			lines = append(lines, fmt.Sprintf("  %s: %d", status, count))
		}
	}
	lines = append(lines,
		fmt.Sprintf("potential_earnings: %d", summary.PotentialEarnings),
		fmt.Sprintf("total_payouts: %d", summary.TotalPayouts),
		fmt.Sprintf("last_updated: %s", summary.LastUpdated),
	)
	return writePlain("%s\n", strings.Join(lines, "\n"))
}

func formatTime(t time.Time) string {
	return t.In(models.JST).Format(time.RFC3339)
}
