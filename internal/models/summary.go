package models

import "time"

// TicketExecution is one row of sprint execution telemetry.
type TicketExecution struct {
	TicketID        string     `json:"ticketId"`
	Agent           string     `json:"agent,omitempty"`
	ModelTier       string     `json:"modelTier,omitempty"`
	Status          string     `json:"status,omitempty"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	DurationMinutes *int       `json:"durationMinutes,omitempty"`
	Tokens          int        `json:"tokens,omitempty"`
}

// SprintSummary is supplementary telemetry parsed from a sprint summary file.
type SprintSummary struct {
	Sprint       int               `json:"sprint"`
	Title        string            `json:"title"`
	Path         string            `json:"path"`
	StartedAt    *time.Time        `json:"startedAt,omitempty"`
	CompletedAt  *time.Time        `json:"completedAt,omitempty"`
	Executions   []TicketExecution `json:"executions"`
	TotalTokens  int               `json:"totalTokens"`
	TotalCostUSD float64           `json:"totalCostUsd"`
	Notes        []string          `json:"notes"`
}

// Execution returns the telemetry row for a ticket id.
func (s *SprintSummary) Execution(ticketID string) (*TicketExecution, bool) {
	if s == nil {
		return nil, false
	}
	for i := range s.Executions {
		if s.Executions[i].TicketID == ticketID {
			return &s.Executions[i], true
		}
	}
	return nil, false
}
