package telegraph

import (
	"fmt"
	"strings"

	"github.com/zulandar/planboard/internal/metrics"
)

// Color constants for event severity.
const (
	ColorSuccess = "#36a64f"
	ColorInfo    = "#2196f3"
	ColorWarning = "#ff9800"
	ColorError   = "#e53935"
)

// severityColor maps a severity string to a sidebar color.
func severityColor(severity string) string {
	switch severity {
	case "success":
		return ColorSuccess
	case "info":
		return ColorInfo
	case "warning":
		return ColorWarning
	case "error":
		return ColorError
	default:
		return ColorInfo
	}
}

// ticketStatusVerb returns a human-friendly verb for a ticket status transition.
func ticketStatusVerb(newStatus string) string {
	switch newStatus {
	case "todo":
		return "reopened"
	case "in_progress":
		return "started"
	case "qa_review":
		return "ready for review"
	case "done":
		return "completed"
	case "blocked":
		return "blocked"
	default:
		return newStatus
	}
}

// ticketStatusSeverity returns the appropriate severity for a ticket status.
func ticketStatusSeverity(newStatus string) string {
	switch newStatus {
	case "done":
		return "success"
	case "blocked":
		return "warning"
	default:
		return "info"
	}
}

// FormatTicketEvent formats a ticket status change event.
func FormatTicketEvent(event DetectedEvent) FormattedEvent {
	verb := ticketStatusVerb(event.NewStatus)
	severity := ticketStatusSeverity(event.NewStatus)

	kind := "Ticket"
	if event.Bug {
		kind = "Bug"
	}
	title := fmt.Sprintf("%s %s %s", kind, event.TicketID, verb)

	var bodyParts []string
	if event.Title != "" {
		bodyParts = append(bodyParts, event.Title)
	}
	if event.OldStatus != "" {
		bodyParts = append(bodyParts, fmt.Sprintf("%s → %s", event.OldStatus, event.NewStatus))
	}
	body := strings.Join(bodyParts, "\n")

	fields := []Field{
		{Name: kind, Value: event.TicketID, Short: true},
		{Name: "Status", Value: event.NewStatus, Short: true},
	}
	if event.Sprint > 0 {
		fields = append(fields, Field{Name: "Sprint", Value: fmt.Sprintf("%d", event.Sprint), Short: true})
	}
	if event.Owner != "" {
		fields = append(fields, Field{Name: "Owner", Value: event.Owner, Short: true})
	}

	return FormattedEvent{
		Title:    title,
		Body:     body,
		Severity: severity,
		Color:    severityColor(severity),
		Fields:   fields,
	}
}

// FormatSprintEvent formats a sprint status change event.
func FormatSprintEvent(event DetectedEvent) FormattedEvent {
	var verb, severity string
	switch event.NewStatus {
	case "active":
		verb, severity = "started", "info"
	case "complete":
		verb, severity = "completed", "success"
	default:
		verb, severity = "back to "+event.NewStatus, "warning"
	}

	title := fmt.Sprintf("Sprint %d %s", event.Sprint, verb)
	if event.Title != "" {
		title = fmt.Sprintf("Sprint %d (%s) %s", event.Sprint, event.Title, verb)
	}

	fields := []Field{
		{Name: "Sprint", Value: fmt.Sprintf("%d", event.Sprint), Short: true},
		{Name: "Status", Value: event.NewStatus, Short: true},
	}

	return FormattedEvent{
		Title:    title,
		Body:     event.Body,
		Severity: severity,
		Color:    severityColor(severity),
		Fields:   fields,
	}
}

// FormatLoadError formats a document that could not be read.
func FormatLoadError(event DetectedEvent) FormattedEvent {
	title := fmt.Sprintf("Could not load %s", event.Path)
	if event.Path == "" {
		title = "Document load failed"
	}
	fields := []Field{}
	if event.Source != "" {
		fields = append(fields, Field{Name: "Event", Value: event.Source, Short: true})
	}
	return FormattedEvent{
		Title:    title,
		Body:     event.Body,
		Severity: "error",
		Color:    ColorError,
		Fields:   fields,
	}
}

// FormatPulse formats a progress digest from backlog stats.
func FormatPulse(project string, stats metrics.Stats, completedToday int) FormattedEvent {
	var bodyLines []string
	bodyLines = append(bodyLines, fmt.Sprintf("**Tickets**: %d of %d done (%d%%)",
		stats.CompletedTickets, stats.TotalTickets, stats.CompletionPercentage))
	bodyLines = append(bodyLines, fmt.Sprintf("**Points**: %d of %d done",
		stats.CompletedPoints, stats.TotalPoints))
	if stats.CurrentSprint != nil {
		bodyLines = append(bodyLines, fmt.Sprintf("**Current sprint**: %d %s",
			stats.CurrentSprint.Number, stats.CurrentSprint.Name))
	}
	if completedToday > 0 {
		bodyLines = append(bodyLines, fmt.Sprintf("**Completed in the last day**: %d", completedToday))
	}
	body := strings.Join(bodyLines, "\n")

	fields := []Field{
		{Name: "Done", Value: fmt.Sprintf("%d/%d", stats.CompletedTickets, stats.TotalTickets), Short: true},
		{Name: "Completion", Value: fmt.Sprintf("%d%%", stats.CompletionPercentage), Short: true},
		{Name: "Sprints", Value: fmt.Sprintf("%d", stats.TotalSprints), Short: true},
	}
	if stats.InProgressTickets > 0 {
		fields = append(fields, Field{Name: "In progress", Value: fmt.Sprintf("%d", stats.InProgressTickets), Short: true})
	}
	if stats.BlockedTickets > 0 {
		fields = append(fields, Field{Name: "Blocked", Value: fmt.Sprintf("%d", stats.BlockedTickets), Short: true})
	}

	title := "Planboard Pulse"
	if project != "" {
		title = fmt.Sprintf("%s Pulse", project)
	}
	return FormattedEvent{
		Title:    title,
		Body:     body,
		Severity: "info",
		Color:    ColorInfo,
		Fields:   fields,
	}
}
