// Package hub fans state messages out to connected observers. Delivery is
// best effort: an observer whose buffer is full is dropped so it can never
// stall the others.
package hub

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zulandar/planboard/internal/logging"
	"github.com/zulandar/planboard/internal/models"
)

// Message types.
const (
	TypeState  = "state"
	TypeUpdate = "update"
	TypeError  = "error"
)

// DefaultBuffer is the per-observer queue length.
const DefaultBuffer = 32

// Message is one push-protocol frame.
type Message struct {
	Type      string `json:"type"`
	Payload   any    `json:"payload"`
	Timestamp string `json:"timestamp"`
}

// Update is the payload of an update message.
type Update struct {
	Event string               `json:"event"`
	Path  string               `json:"path"`
	State *models.ProjectState `json:"state"`
}

// ErrorPayload is the payload of an error message.
type ErrorPayload struct {
	Event string `json:"event,omitempty"`
	Path  string `json:"path,omitempty"`
	Error string `json:"error"`
}

// Snapshotter supplies the current state for new observers.
type Snapshotter interface {
	Get() *models.ProjectState
}

// Observer is one subscriber.
type Observer struct {
	ID    string
	Label string
	ch    chan Message
}

// C returns the observer's message queue. It is closed when the observer
// is unsubscribed or dropped.
func (o *Observer) C() <-chan Message {
	return o.ch
}

// Opts holds parameters for creating a Hub.
type Opts struct {
	Source Snapshotter
	Buffer int          // defaults to DefaultBuffer
	Logger *slog.Logger // defaults to logging.Logger()
}

// Hub tracks observers.
type Hub struct {
	source Snapshotter
	buffer int
	log    *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	observers map[string]*Observer
	closed    bool
}

// New creates a Hub.
func New(opts Opts) *Hub {
	buf := opts.Buffer
	if buf <= 0 {
		buf = DefaultBuffer
	}
	log := opts.Logger
	if log == nil {
		log = logging.Logger()
	}
	return &Hub{
		source:    opts.Source,
		buffer:    buf,
		log:       log.With("component", "hub"),
		now:       time.Now,
		observers: make(map[string]*Observer),
	}
}

func (h *Hub) message(typ string, payload any) Message {
	return Message{Type: typ, Payload: payload, Timestamp: h.now().UTC().Format(time.RFC3339)}
}

// Subscribe registers a new observer and queues one state message holding
// the current snapshot. Registration and the snapshot read happen under the
// broadcast lock, so the observer sees either the snapshot before an update
// and then the update, or the snapshot after it.
func (h *Hub) Subscribe(label string) *Observer {
	o := &Observer{
		ID:    uuid.NewString(),
		Label: label,
		ch:    make(chan Message, h.buffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(o.ch)
		return o
	}
	var snap *models.ProjectState
	if h.source != nil {
		snap = h.source.Get()
	}
	o.ch <- h.message(TypeState, snap)
	h.observers[o.ID] = o
	h.log.Debug("observer subscribed", "observer", o.ID, "label", label, "observers", len(h.observers))
	return o
}

// Unsubscribe removes an observer and closes its queue. Unknown or already
// removed observers are ignored.
func (h *Hub) Unsubscribe(o *Observer) {
	if o == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.observers[o.ID]; !ok {
		return
	}
	delete(h.observers, o.ID)
	close(o.ch)
}

// Broadcast queues msg for every observer without blocking. Observers with a
// full queue are dropped. It returns the number of observers reached.
func (h *Hub) Broadcast(msg Message) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for id, o := range h.observers {
		select {
		case o.ch <- msg:
			delivered++
		default:
			delete(h.observers, id)
			close(o.ch)
			h.log.Warn("dropping slow observer", "observer", id, "label", o.Label)
		}
	}
	return delivered
}

// BroadcastUpdate sends an update message for a processed change.
func (h *Hub) BroadcastUpdate(event, path string, state *models.ProjectState) int {
	return h.Broadcast(h.message(TypeUpdate, Update{Event: event, Path: path, State: state}))
}

// BroadcastError sends an error message.
func (h *Hub) BroadcastError(event, path string, err error) int {
	return h.Broadcast(h.message(TypeError, ErrorPayload{Event: event, Path: path, Error: err.Error()}))
}

// Len returns the number of connected observers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.observers)
}

// Close drops every observer. Later subscriptions receive a closed queue.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, o := range h.observers {
		delete(h.observers, id)
		close(o.ch)
	}
}
