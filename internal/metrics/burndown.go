// Package metrics derives burndown series and completion statistics from a
// project state. Every function here is pure.
package metrics

import (
	"sort"
	"time"

	"github.com/zulandar/planboard/internal/models"
)

const dateLayout = "2006-01-02"

// CompletionTime returns when a done ticket was completed. A backlog row
// without an end timestamp borrows the completion time recorded in its
// sprint summary, if any.
func CompletionTime(t models.Ticket, summary *models.SprintSummary) *time.Time {
	if t.CompletedAt != nil {
		return t.CompletedAt
	}
	if e, ok := summary.Execution(t.ID); ok {
		return e.CompletedAt
	}
	return nil
}

// ComputeBurndown builds the burndown series for the backlog in state.
//
// Total points are summed over every sprint ticket. Done tickets with a known
// completion time are grouped by calendar day (UTC) and applied in date
// order after an initial point carrying the full total. Ideal is
// total - completed. The series is empty when no completion times exist.
func ComputeBurndown(state *models.ProjectState) []models.BurndownPoint {
	points := []models.BurndownPoint{}
	if state == nil || state.Backlog == nil {
		return points
	}

	total := 0
	byDate := map[string]int{}
	for _, sp := range state.Backlog.Sprints {
		summary := state.Summaries[sp.Number]
		for _, t := range sp.Tickets {
			total += t.StoryPoints
			if !t.IsDone() {
				continue
			}
			at := CompletionTime(t, summary)
			if at == nil {
				continue
			}
			byDate[at.UTC().Format(dateLayout)] += t.StoryPoints
		}
	}
	if len(byDate) == 0 {
		return points
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	points = append(points, models.BurndownPoint{
		Date:      dates[0],
		Remaining: total,
		Completed: 0,
		Ideal:     total,
	})
	completed := 0
	for _, d := range dates {
		completed += byDate[d]
		remaining := total - completed
		points = append(points, models.BurndownPoint{
			Date:      d,
			Remaining: remaining,
			Completed: completed,
			Ideal:     remaining,
		})
	}
	return points
}

// CompletionPercentage returns done/total as a whole percentage rounded half
// up. A zero total yields 0.
func CompletionPercentage(done, total int) int {
	if total <= 0 || done <= 0 {
		return 0
	}
	return (done*200 + total) / (total * 2)
}
