package telegraph

import (
	"context"
	"testing"
	"time"

	"github.com/zulandar/planboard/internal/hub"
	"github.com/zulandar/planboard/internal/logging"
	"github.com/zulandar/planboard/internal/models"
	"github.com/zulandar/planboard/internal/store"
)

// backlogState builds a one-sprint state; statuses are given per ticket.
func backlogState(sprintStatus models.SprintStatus, statuses ...models.TicketStatus) *models.ProjectState {
	st := models.NewProjectState()
	sp := models.Sprint{Number: 1, Name: "Setup", Goal: "Scaffold", Status: sprintStatus}
	for i, s := range statuses {
		sp.Tickets = append(sp.Tickets, models.Ticket{
			ID:     []string{"T-1", "T-2", "T-3"}[i],
			Title:  "ticket",
			Owner:  "backend",
			Status: s,
		})
	}
	st.Backlog = &models.BacklogDocument{ProjectName: "Shop", Sprints: []models.Sprint{sp}}
	return st
}

func newTestWatcher(t *testing.T, h *hub.Hub) *Watcher {
	t.Helper()
	if h == nil {
		h = hub.New(hub.Opts{Logger: logging.Discard()})
	}
	w, err := NewWatcher(WatcherOpts{Hub: h, Logger: logging.Discard()})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	return w
}

func TestNewWatcher_RequiresHub(t *testing.T) {
	if _, err := NewWatcher(WatcherOpts{}); err == nil {
		t.Fatal("expected error for nil hub")
	}
}

func TestObserve_FirstSnapshotSeedsOnly(t *testing.T) {
	w := newTestWatcher(t, nil)
	events := w.Observe(backlogState(models.SprintActive, models.StatusDone, models.StatusTodo))
	if len(events) != 0 {
		t.Errorf("seed produced %d events, want 0", len(events))
	}
}

func TestObserve_TicketTransition(t *testing.T) {
	w := newTestWatcher(t, nil)
	w.Observe(backlogState(models.SprintActive, models.StatusInProgress, models.StatusTodo))

	events := w.Observe(backlogState(models.SprintActive, models.StatusInProgress, models.StatusInProgress))
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	e := events[0]
	if e.Type != EventTicketStatusChange {
		t.Errorf("Type = %q", e.Type)
	}
	if e.TicketID != "T-2" || e.OldStatus != "todo" || e.NewStatus != "in_progress" {
		t.Errorf("event = %+v, want T-2 todo → in_progress", e)
	}
	if e.Sprint != 1 || e.Owner != "backend" {
		t.Errorf("event sprint/owner = %d/%q", e.Sprint, e.Owner)
	}

	// Same state again: nothing new.
	if again := w.Observe(backlogState(models.SprintActive, models.StatusInProgress, models.StatusInProgress)); len(again) != 0 {
		t.Errorf("repeat produced %d events, want 0", len(again))
	}
}

func TestObserve_SprintTransition(t *testing.T) {
	w := newTestWatcher(t, nil)
	w.Observe(backlogState(models.SprintActive, models.StatusInProgress))

	events := w.Observe(backlogState(models.SprintComplete, models.StatusDone))
	var sprintEvents, ticketEvents int
	for _, e := range events {
		switch e.Type {
		case EventSprintStatusChange:
			sprintEvents++
			if e.OldStatus != "active" || e.NewStatus != "complete" || e.Title != "Setup" {
				t.Errorf("sprint event = %+v", e)
			}
		case EventTicketStatusChange:
			ticketEvents++
		}
	}
	if sprintEvents != 1 || ticketEvents != 1 {
		t.Errorf("sprint/ticket events = %d/%d, want 1/1", sprintEvents, ticketEvents)
	}
}

func TestObserve_NewTicketsAreSilent(t *testing.T) {
	w := newTestWatcher(t, nil)
	w.Observe(backlogState(models.SprintActive, models.StatusTodo))
	events := w.Observe(backlogState(models.SprintActive, models.StatusTodo, models.StatusDone))
	if len(events) != 0 {
		t.Errorf("events = %d, want 0 for a newly added ticket", len(events))
	}
}

func TestObserve_Bugs(t *testing.T) {
	w := newTestWatcher(t, nil)
	st := backlogState(models.SprintActive)
	st.Backlog.Bugs = []models.Ticket{{ID: "T-1", Status: models.StatusTodo}}
	w.Observe(st)

	next := backlogState(models.SprintActive)
	next.Backlog.Bugs = []models.Ticket{{ID: "T-1", Status: models.StatusDone}}
	events := w.Observe(next)
	if len(events) != 1 || !events[0].Bug || events[0].Sprint != 0 {
		t.Errorf("events = %+v, want one bug transition", events)
	}
}

func TestObserve_NilBacklogResetsBaseline(t *testing.T) {
	w := newTestWatcher(t, nil)
	w.Observe(backlogState(models.SprintActive, models.StatusTodo))
	if events := w.Observe(&models.ProjectState{}); len(events) != 0 {
		t.Errorf("removal produced %d events", len(events))
	}
	// Everything reappears as new, so still silent.
	if events := w.Observe(backlogState(models.SprintActive, models.StatusDone)); len(events) != 0 {
		t.Errorf("reappearance produced %d events", len(events))
	}
}

func TestHandle_ErrorPayload(t *testing.T) {
	w := newTestWatcher(t, nil)
	events := w.Handle(hub.Message{
		Type:    hub.TypeError,
		Payload: hub.ErrorPayload{Event: "backlog", Path: "BACKLOG.md", Error: "permission denied"},
	})
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].Type != EventLoadError || events[0].Path != "BACKLOG.md" || events[0].Body != "permission denied" {
		t.Errorf("event = %+v", events[0])
	}
}

func TestHandle_UnknownPayload(t *testing.T) {
	w := newTestWatcher(t, nil)
	if events := w.Handle(hub.Message{Type: "other", Payload: 42}); events != nil {
		t.Errorf("events = %+v, want nil", events)
	}
}

func TestRun_DetectsTransitionsFromHub(t *testing.T) {
	st := store.New(backlogState(models.SprintActive, models.StatusTodo))
	h := hub.New(hub.Opts{Source: st, Logger: logging.Discard()})
	w := newTestWatcher(t, h)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := w.Run(ctx)

	waitForObservers(t, h, 1)

	next := st.Replace(store.BacklogPatch{Backlog: backlogState(models.SprintActive, models.StatusDone).Backlog})
	h.BroadcastUpdate("backlog", "BACKLOG.md", next)

	select {
	case e := <-events:
		if e.TicketID != "T-1" || e.NewStatus != "done" {
			t.Errorf("event = %+v, want T-1 done", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}

	cancel()
	select {
	case _, ok := <-events:
		if ok {
			t.Error("expected channel closed after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestRun_StopsWhenHubCloses(t *testing.T) {
	h := hub.New(hub.Opts{Logger: logging.Discard()})
	w := newTestWatcher(t, h)
	events := w.Run(context.Background())
	waitForObservers(t, h, 1)

	h.Close()
	select {
	case _, ok := <-events:
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after hub closed")
	}
}

func waitForObservers(t *testing.T, h *hub.Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Len() < n {
		if time.Now().After(deadline) {
			t.Fatalf("observers = %d, want %d", h.Len(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
