// Package notify delivers marketplace events to a single webhook sink.
// Delivery is best effort: failures are logged and never reach callers.
package notify

import (
	"fmt"
	"strings"
	"time"

	"morphire/internal/models"
)

const (
	DefaultUsername = "🐾 Morphire.ai"

	ColorMatch    = 0xFF6EC7
	ColorChat     = 0x7873F5
	ColorDelivery = 0x66BB6A

	gatewayBaseURL = "https://gateway.pinata.cloud/ipfs/"
	matchFooter    = "Morphire.ai — morph, earn, evolve 🚀"
)

// Payload is the JSON body posted to the webhook.
type Payload struct {
	Content  string  `json:"content"`
	Username string  `json:"username"`
	Embeds   []Embed `json:"embeds,omitempty"`
}

type Embed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
	Footer      Footer `json:"footer"`
	Timestamp   string `json:"timestamp"`
}

type Footer struct {
	Text string `json:"text"`
}

// Event is one notification-worthy marketplace occurrence.
type Event interface {
	Kind() string
	Payload(now time.Time) Payload
}

// Match fires when a pending job is taken up or hired.
type Match struct {
	Job        models.Job
	AgentLabel string
	Handle     string
}

func (Match) Kind() string { return "match" }

func (e Match) Payload(now time.Time) Payload {
	mention := ""
	if e.Handle != "" {
		mention = fmt.Sprintf(" (Discord: **%s**)", e.Handle)
	}
	postedBy := e.Job.PostedBy
	if postedBy == "" {
		postedBy = "Unknown"
	}
	desc := strings.Join([]string{
		fmt.Sprintf("**Agent:** %s%s", e.AgentLabel, mention),
		fmt.Sprintf("**Job:** %s", e.Job.Title),
		fmt.Sprintf("**Reward:** 🪙 %d SKR", e.Job.Reward),
		fmt.Sprintf("**Posted by:** %s", postedBy),
	}, "\n")

	atMention := ""
	if strings.HasPrefix(e.Handle, "@") {
		atMention = fmt.Sprintf("<@%s> ", e.Handle)
	}
	return Payload{
		Content:  fmt.Sprintf("%s🐾 Match! %s applied to **%s**!", atMention, e.AgentLabel, e.Job.Title),
		Username: DefaultUsername,
		Embeds: []Embed{{
			Title:       "🤝 New match! " + e.Job.Title,
			Description: desc,
			Color:       ColorMatch,
			Footer:      Footer{Text: matchFooter},
			Timestamp:   timestamp(now),
		}},
	}
}

// Chat fires for every message appended to a job conversation.
type Chat struct {
	JobID    string
	JobTitle string
	Sender   string
	Text     string
}

func (Chat) Kind() string { return "chat" }

func (e Chat) Payload(now time.Time) Payload {
	return Payload{
		Content:  fmt.Sprintf("💬 [%s] %s: %s", e.JobID, e.Sender, e.Text),
		Username: DefaultUsername,
		Embeds: []Embed{{
			Title:       "💬 Task Chat — " + e.JobTitle,
			Description: fmt.Sprintf("**%s:** %s", e.Sender, e.Text),
			Color:       ColorChat,
			Footer:      Footer{Text: jobFooter(e.JobID)},
			Timestamp:   timestamp(now),
		}},
	}
}

// Delivery fires when an artifact is attached to a job.
type Delivery struct {
	JobID      string
	JobTitle   string
	AgentLabel string
	ContentID  string
}

func (Delivery) Kind() string { return "delivery" }

func (e Delivery) Payload(now time.Time) Payload {
	desc := strings.Join([]string{
		fmt.Sprintf("**Agent:** %s", e.AgentLabel),
		fmt.Sprintf("**IPFS Hash:** `%s`", e.ContentID),
		fmt.Sprintf("**Gateway:** %s%s", gatewayBaseURL, e.ContentID),
	}, "\n")
	return Payload{
		Content:  fmt.Sprintf("📦 [%s] %s delivered!", e.JobID, e.AgentLabel),
		Username: DefaultUsername,
		Embeds: []Embed{{
			Title:       "📦 Delivered! " + e.JobTitle,
			Description: desc,
			Color:       ColorDelivery,
			Footer:      Footer{Text: jobFooter(e.JobID)},
			Timestamp:   timestamp(now),
		}},
	}
}

func jobFooter(jobID string) string {
	return fmt.Sprintf("Job: %s | Morphire.ai 🐾", jobID)
}

func timestamp(now time.Time) string {
	return now.In(models.JST).Format(time.RFC3339Nano)
}
