package notify

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"

	"morphire/internal/models"
)

const (
	DefaultQueueSize     = 64
	DefaultRatePerSecond = 1.0
	DefaultBurst         = 5
)

// Notifier accepts events without blocking the caller.
type Notifier interface {
	Dispatch(event Event) bool
}

// DispatcherOptions tunes the outbound queue.
type DispatcherOptions struct {
	QueueSize     int
	RatePerSecond float64
	Burst         int
	Clock         models.Clock
}

// Dispatcher hands events to a single background worker that posts them in
// order, paced by a token bucket so bursts stay under webhook rate limits.
type Dispatcher struct {
	sender  Sender
	limiter *rate.Limiter
	clock   models.Clock
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan Event

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewDispatcher(sender Sender, opts DispatcherOptions, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = DefaultRatePerSecond
	}
	if opts.Burst <= 0 {
		opts.Burst = DefaultBurst
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		sender:  sender,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.Burst),
		clock:   opts.Clock,
		logger:  logger,
		queue:   make(chan Event, opts.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

// Dispatch enqueues event. It returns false when no sink is configured, the
// dispatcher is closed, or the queue is full.
func (d *Dispatcher) Dispatch(event Event) bool {
	if d == nil || event == nil || d.sender == nil || !d.sender.Enabled() {
		return false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}
	select {
	case d.queue <- event:
		return true
	default:
		d.logger.Warn("notification queue full; dropping event", "kind", event.Kind())
		return false
	}
}

// Close stops intake and drains queued events until ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-d.done
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for event := range d.queue {
		if err := d.limiter.Wait(d.ctx); err != nil {
			d.logger.Debug("notification dropped during shutdown", "kind", event.Kind())
			continue
		}
		ok := d.sender.Send(d.ctx, event.Payload(d.clock.Now()))
		d.logger.Debug("notification sent", "kind", event.Kind(), "delivered", ok)
	}
}

// Recorder is a Notifier that keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Dispatch(event Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return true
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

var (
	_ Notifier = (*Dispatcher)(nil)
	_ Notifier = (*Recorder)(nil)
)
