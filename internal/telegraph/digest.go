package telegraph

import (
	"time"

	"github.com/zulandar/planboard/internal/metrics"
	"github.com/zulandar/planboard/internal/models"
)

// digestWindow is how far back "completed recently" looks.
const digestWindow = 24 * time.Hour

// BuildDigest summarizes backlog progress as a digest event. It returns nil
// when the backlog has no tickets.
func BuildDigest(state *models.ProjectState, now time.Time) *DetectedEvent {
	if state == nil || state.Backlog == nil {
		return nil
	}
	stats := metrics.BacklogStats(state.Backlog)
	if stats.TotalTickets == 0 {
		return nil
	}

	recent := completedSince(state, now.Add(-digestWindow))
	formatted := FormatPulse(state.Backlog.ProjectName, stats, recent)
	return &DetectedEvent{
		Type:      EventDigest,
		Timestamp: now,
		Title:     formatted.Title,
		Body:      formatted.Body,
	}
}

// completedSince counts done sprint tickets whose completion time is after since.
func completedSince(state *models.ProjectState, since time.Time) int {
	n := 0
	for _, sp := range state.Backlog.Sprints {
		summary := state.Summaries[sp.Number]
		for _, t := range sp.Tickets {
			if t.Status != models.StatusDone {
				continue
			}
			if at := metrics.CompletionTime(t, summary); at != nil && at.After(since) {
				n++
			}
		}
	}
	return n
}
