package telegraph

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/zulandar/planboard/internal/hub"
	"github.com/zulandar/planboard/internal/logging"
	"github.com/zulandar/planboard/internal/models"
)

// EventType identifies the kind of event detected by the watcher.
type EventType string

const (
	EventTicketStatusChange EventType = "ticket_status_change"
	EventSprintStatusChange EventType = "sprint_status_change"
	EventLoadError          EventType = "load_error"
	EventDigest             EventType = "digest"
)

// DetectedEvent is a raw event detected by the watcher before formatting.
type DetectedEvent struct {
	Type      EventType
	Timestamp time.Time

	// Ticket and sprint events
	TicketID  string
	Title     string // ticket title or sprint name
	Owner     string
	Sprint    int
	Bug       bool
	OldStatus string
	NewStatus string

	// Load errors and digests
	Path   string
	Source string // syncer event that failed, e.g. "backlog"
	Body   string
}

// ticketSnapshot holds the last-known state of one ticket.
type ticketSnapshot struct {
	Status string
	Sprint int
}

// Watcher observes hub messages and turns snapshot differences into
// DetectedEvents: ticket and sprint status transitions plus load errors.
// The first snapshot only establishes the baseline.
type Watcher struct {
	hub *hub.Hub
	log *slog.Logger
	now func() time.Time

	mu      sync.Mutex
	tickets map[string]ticketSnapshot // ticket key -> last-known state
	sprints map[int]string            // sprint number -> last-known status
	seeded  bool
}

// WatcherOpts holds parameters for creating a Watcher.
type WatcherOpts struct {
	Hub    *hub.Hub
	Logger *slog.Logger // defaults to logging.Logger()
}

// NewWatcher creates a Watcher.
func NewWatcher(opts WatcherOpts) (*Watcher, error) {
	if opts.Hub == nil {
		return nil, fmt.Errorf("telegraph: watcher: hub is required")
	}
	log := opts.Logger
	if log == nil {
		log = logging.Logger()
	}
	return &Watcher{
		hub:     opts.Hub,
		log:     log.With("component", "telegraph"),
		now:     time.Now,
		tickets: make(map[string]ticketSnapshot),
		sprints: make(map[int]string),
	}, nil
}

// Run subscribes to the hub and sends detected events to the returned
// channel. The channel is closed when the context is cancelled or the hub
// closes. If the hub drops the watcher as a slow observer it resubscribes;
// the fresh state message is diffed against the last snapshot, so no
// transition is lost.
func (w *Watcher) Run(ctx context.Context) <-chan DetectedEvent {
	ch := make(chan DetectedEvent, 64)
	go func() {
		defer close(ch)
		for {
			obs := w.hub.Subscribe("telegraph")
			received, ok := w.drain(ctx, obs, ch)
			w.hub.Unsubscribe(obs)
			if !ok || received == 0 {
				return
			}
			w.log.Warn("notifier dropped by hub, resubscribing")
		}
	}()
	return ch
}

// drain consumes one subscription. ok is false when ctx ended.
func (w *Watcher) drain(ctx context.Context, obs *hub.Observer, ch chan<- DetectedEvent) (received int, ok bool) {
	for {
		select {
		case <-ctx.Done():
			return received, false
		case msg, open := <-obs.C():
			if !open {
				return received, true
			}
			received++
			for _, e := range w.Handle(msg) {
				select {
				case ch <- e:
				case <-ctx.Done():
					return received, false
				}
			}
		}
	}
}

// Handle converts one hub message into detected events.
func (w *Watcher) Handle(msg hub.Message) []DetectedEvent {
	switch p := msg.Payload.(type) {
	case *models.ProjectState:
		return w.Observe(p)
	case hub.Update:
		return w.Observe(p.State)
	case hub.ErrorPayload:
		return []DetectedEvent{{
			Type:      EventLoadError,
			Timestamp: w.now(),
			Path:      p.Path,
			Source:    p.Event,
			Body:      p.Error,
		}}
	default:
		return nil
	}
}

// Observe diffs state against the last snapshot and records it as the new
// baseline. Tickets that first appear produce no event.
func (w *Watcher) Observe(state *models.ProjectState) []DetectedEvent {
	w.mu.Lock()
	defer w.mu.Unlock()

	tickets := make(map[string]ticketSnapshot)
	sprints := make(map[int]string)
	var events []DetectedEvent
	now := w.now()

	if state != nil && state.Backlog != nil {
		for _, sp := range state.Backlog.Sprints {
			status := string(sp.Status)
			sprints[sp.Number] = status
			if old, seen := w.sprints[sp.Number]; w.seeded && seen && old != status {
				events = append(events, DetectedEvent{
					Type:      EventSprintStatusChange,
					Timestamp: now,
					Sprint:    sp.Number,
					Title:     sp.Name,
					OldStatus: old,
					NewStatus: status,
					Body:      sp.Goal,
				})
			}
			for _, t := range sp.Tickets {
				events = w.diffTicket(events, tickets, t, sp.Number, false, now)
			}
		}
		for _, t := range state.Backlog.Bugs {
			events = w.diffTicket(events, tickets, t, 0, true, now)
		}
	}

	w.tickets = tickets
	w.sprints = sprints
	w.seeded = true
	return events
}

func (w *Watcher) diffTicket(events []DetectedEvent, next map[string]ticketSnapshot, t models.Ticket, sprint int, bug bool, now time.Time) []DetectedEvent {
	key := t.ID
	if bug {
		key = "bug:" + t.ID
	}
	status := string(t.Status)
	next[key] = ticketSnapshot{Status: status, Sprint: sprint}

	old, seen := w.tickets[key]
	if !w.seeded || !seen || old.Status == status {
		return events
	}
	return append(events, DetectedEvent{
		Type:      EventTicketStatusChange,
		Timestamp: now,
		TicketID:  t.ID,
		Title:     t.Title,
		Owner:     t.Owner,
		Sprint:    sprint,
		Bug:       bug,
		OldStatus: old.Status,
		NewStatus: status,
	})
}
