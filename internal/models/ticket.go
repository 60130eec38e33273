package models

import "time"

// TicketStatus is the closed set of ticket states.
type TicketStatus string

const (
	StatusTodo       TicketStatus = "todo"
	StatusInProgress TicketStatus = "in_progress"
	StatusQAReview   TicketStatus = "qa_review"
	StatusDone       TicketStatus = "done"
	StatusBlocked    TicketStatus = "blocked"
)

// TicketStatuses lists every ticket status in workflow order.
var TicketStatuses = []TicketStatus{
	StatusTodo,
	StatusInProgress,
	StatusQAReview,
	StatusDone,
	StatusBlocked,
}

// Valid reports whether s is one of the known ticket statuses.
func (s TicketStatus) Valid() bool {
	for _, known := range TicketStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Ticket is an atomic unit of work parsed from a backlog table row.
//
// CompletedAt normally implies Status == done, but hand-edited documents can
// disagree and consumers must tolerate the mismatch.
type Ticket struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Status          TicketStatus `json:"status"`
	Owner           string       `json:"owner"`
	Agent           string       `json:"agent,omitempty"`
	ModelTier       string       `json:"modelTier"`
	StoryPoints     int          `json:"storyPoints"`
	Dependencies    []string     `json:"dependencies"`
	StartedAt       *time.Time   `json:"startedAt,omitempty"`
	CompletedAt     *time.Time   `json:"completedAt,omitempty"`
	DurationMinutes *int         `json:"durationMinutes,omitempty"`
}

// IsDone reports whether the ticket is in the done state.
func (t Ticket) IsDone() bool {
	return t.Status == StatusDone
}
