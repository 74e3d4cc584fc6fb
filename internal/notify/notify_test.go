package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"morphire/internal/models"
)

var fixedNow = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

func TestMatchPayload(t *testing.T) {
	job := models.Job{ID: "MF-AB123", Title: "Data labeling", Reward: 100, PostedBy: "Kenta"}
	p := Match{Job: job, AgentLabel: "Suke", Handle: "@suke"}.Payload(fixedNow)

	if p.Username != DefaultUsername {
		t.Fatalf("unexpected username %q", p.Username)
	}
	if !strings.HasPrefix(p.Content, "<@@suke> ") {
		t.Fatalf("expected mention prefix, got %q", p.Content)
	}
	if len(p.Embeds) != 1 {
		t.Fatalf("expected one embed, got %d", len(p.Embeds))
	}
	embed := p.Embeds[0]
	if embed.Color != ColorMatch {
		t.Fatalf("unexpected color %#x", embed.Color)
	}
	for _, want := range []string{"Suke", "(Discord: **@suke**)", "Data labeling", "100 SKR", "Kenta"} {
		if !strings.Contains(embed.Description, want) {
			t.Fatalf("expected %q in description %q", want, embed.Description)
		}
	}
	if embed.Timestamp != "2026-04-01T09:00:00+09:00" {
		t.Fatalf("expected JST timestamp, got %q", embed.Timestamp)
	}

	plain := Match{Job: job, AgentLabel: "Suke", Handle: "suke#1"}.Payload(fixedNow)
	if strings.HasPrefix(plain.Content, "<@") {
		t.Fatalf("handle without @ must not mention: %q", plain.Content)
	}
}

func TestChatAndDeliveryPayloads(t *testing.T) {
	chat := Chat{JobID: "MF-1", JobTitle: "Scraper", Sender: "Kenta", Text: "ping"}.Payload(fixedNow)
	if chat.Content != "💬 [MF-1] Kenta: ping" {
		t.Fatalf("unexpected chat content %q", chat.Content)
	}
	if chat.Embeds[0].Color != ColorChat || chat.Embeds[0].Footer.Text != "Job: MF-1 | Morphire.ai 🐾" {
		t.Fatalf("unexpected chat embed %+v", chat.Embeds[0])
	}

	delivery := Delivery{JobID: "MF-1", JobTitle: "Scraper", AgentLabel: "Suke", ContentID: "QmABC"}.Payload(fixedNow)
	if delivery.Embeds[0].Color != ColorDelivery {
		t.Fatalf("unexpected delivery color %#x", delivery.Embeds[0].Color)
	}
	if !strings.Contains(delivery.Embeds[0].Description, "https://gateway.pinata.cloud/ipfs/QmABC") {
		t.Fatalf("expected gateway link, got %q", delivery.Embeds[0].Description)
	}
}

func TestWebhookSend(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{name: "ok", status: http.StatusOK, want: true},
		{name: "no content", status: http.StatusNoContent, want: true},
		{name: "rate limited", status: http.StatusTooManyRequests, want: false},
		{name: "server error", status: http.StatusInternalServerError, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Payload
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
					t.Errorf("unexpected request %s %s", r.Method, r.Header.Get("Content-Type"))
				}
				_ = json.NewDecoder(r.Body).Decode(&got)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			hook := NewWebhook(srv.URL, nil)
			payload := Chat{JobID: "MF-1", JobTitle: "t", Sender: "s", Text: "x"}.Payload(fixedNow)
			if ok := hook.Send(context.Background(), payload); ok != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, ok)
			}
			if got.Content != payload.Content {
				t.Fatalf("payload not delivered intact: %+v", got)
			}
		})
	}
}

func TestWebhookDisabledAndUnreachable(t *testing.T) {
	if NewWebhook("", nil).Send(context.Background(), Payload{}) {
		t.Fatal("expected unconfigured webhook to return false")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()
	if NewWebhook(url, nil).Send(context.Background(), Payload{}) {
		t.Fatal("expected unreachable webhook to return false")
	}
}

type captureSender struct {
	mu       sync.Mutex
	enabled  bool
	payloads []Payload
	sent     chan struct{}
}

func (s *captureSender) Enabled() bool { return s.enabled }

func (s *captureSender) Send(ctx context.Context, payload Payload) bool {
	s.mu.Lock()
	s.payloads = append(s.payloads, payload)
	s.mu.Unlock()
	if s.sent != nil {
		s.sent <- struct{}{}
	}
	return true
}

func TestDispatcherDeliversInOrder(t *testing.T) {
	sender := &captureSender{enabled: true}
	d := NewDispatcher(sender, DispatcherOptions{RatePerSecond: 1000, Burst: 10}, nil)

	for _, text := range []string{"one", "two", "three"} {
		if !d.Dispatch(Chat{JobID: "MF-1", Sender: "s", Text: text}) {
			t.Fatalf("dispatch %q rejected", text)
		}
	}
	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.payloads) != 3 {
		t.Fatalf("expected 3 payloads, got %d", len(sender.payloads))
	}
	for i, text := range []string{"one", "two", "three"} {
		if !strings.HasSuffix(sender.payloads[i].Content, text) {
			t.Fatalf("payload %d out of order: %q", i, sender.payloads[i].Content)
		}
	}
}

func TestDispatcherRejects(t *testing.T) {
	t.Run("disabled sink", func(t *testing.T) {
		d := NewDispatcher(&captureSender{enabled: false}, DispatcherOptions{}, nil)
		defer d.Close(context.Background())
		if d.Dispatch(Chat{}) {
			t.Fatal("expected dispatch without endpoint to return false")
		}
	})

	t.Run("closed", func(t *testing.T) {
		d := NewDispatcher(&captureSender{enabled: true}, DispatcherOptions{}, nil)
		if err := d.Close(context.Background()); err != nil {
			t.Fatalf("close: %v", err)
		}
		if d.Dispatch(Chat{}) {
			t.Fatal("expected dispatch after close to return false")
		}
	})

	t.Run("queue full", func(t *testing.T) {
		sender := &captureSender{enabled: true, sent: make(chan struct{})}
		d := NewDispatcher(sender, DispatcherOptions{QueueSize: 1, RatePerSecond: 1000, Burst: 10}, nil)

		// First event is taken by the worker, which then blocks on sent.
		if !d.Dispatch(Chat{Text: "a"}) {
			t.Fatal("first dispatch rejected")
		}
		deadline := time.After(2 * time.Second)
		for accepted := true; accepted; {
			select {
			case <-deadline:
				t.Fatal("queue never filled")
			default:
			}
			accepted = d.Dispatch(Chat{Text: "b"})
		}

		go func() {
			for range sender.sent {
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = d.Close(ctx)
		close(sender.sent)
	})
}

func TestRecorder(t *testing.T) {
	var r Recorder
	r.Dispatch(Chat{Text: "x"})
	r.Dispatch(Delivery{ContentID: "Qm"})
	events := r.Events()
	if len(events) != 2 || events[0].Kind() != "chat" || events[1].Kind() != "delivery" {
		t.Fatalf("unexpected events %+v", events)
	}
}
