package parser

import (
	"regexp"
	"strings"

	"github.com/zulandar/planboard/internal/models"
)

// statusEmoji maps the primary UI encoding of each status. Variation
// selectors are ignored by matching on the base code point.
var statusEmoji = []struct {
	glyph  string
	status models.TicketStatus
}{
	{"✅", models.StatusDone},
	{"🔄", models.StatusInProgress},
	{"🧪", models.StatusQAReview},
	{"⏸", models.StatusBlocked},
	{"🔲", models.StatusTodo},
}

// statusKeywords are checked in order after emoji matching fails.
var statusKeywords = []struct {
	pattern *regexp.Regexp
	status  models.TicketStatus
}{
	{regexp.MustCompile(`\bqa[ _-]?review\b|\bqa\b|\breview\b`), models.StatusQAReview},
	{regexp.MustCompile(`\bin[ _-]?progress\b|\bwip\b`), models.StatusInProgress},
	{regexp.MustCompile(`\bblocked\b|\bon hold\b`), models.StatusBlocked},
	{regexp.MustCompile(`\bdone\b|\bcomplete(d)?\b`), models.StatusDone},
	{regexp.MustCompile(`\bto[ _-]?do\b`), models.StatusTodo},
}

// ResolveStatus maps a free-form status cell to a ticket status. Emoji wins
// over keywords; anything unrecognized is todo.
func ResolveStatus(cell string) models.TicketStatus {
	if s, ok := statusFromEmoji(cell); ok {
		return s
	}
	if s, ok := statusFromKeyword(cell); ok {
		return s
	}
	return models.StatusTodo
}

func statusFromEmoji(cell string) (models.TicketStatus, bool) {
	for _, e := range statusEmoji {
		if strings.Contains(cell, e.glyph) {
			return e.status, true
		}
	}
	return "", false
}

func statusFromKeyword(cell string) (models.TicketStatus, bool) {
	lower := strings.ToLower(cell)
	for _, k := range statusKeywords {
		if k.pattern.MatchString(lower) {
			return k.status, true
		}
	}
	return "", false
}

// DeriveSprintStatus computes a sprint's status. An explicit heading marker
// always wins over the ticket-derived value.
func DeriveSprintStatus(marker string, tickets []models.Ticket) models.SprintStatus {
	switch strings.ToUpper(marker) {
	case "ACTIVE":
		return models.SprintActive
	case "COMPLETE", "COMPLETED":
		return models.SprintComplete
	case "PLANNED":
		return models.SprintPlanned
	}
	if len(tickets) == 0 {
		return models.SprintPlanned
	}
	allDone := true
	for _, t := range tickets {
		switch t.Status {
		case models.StatusInProgress, models.StatusQAReview:
			return models.SprintActive
		}
		if t.Status != models.StatusDone {
			allDone = false
		}
	}
	if allDone {
		return models.SprintComplete
	}
	return models.SprintPlanned
}
