package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/zulandar/planboard/internal/models"
)

var (
	firstInt     = regexp.MustCompile(`\d+`)
	depSplitter  = regexp.MustCompile(`[,;\s]+`)
	emptyMarkers = map[string]bool{"": true, "-": true, "—": true, "–": true, "none": true, "n/a": true, "na": true}
)

// timeLayouts are the timestamp forms accepted in start/end cells.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
	"01/02/2006 15:04",
	"01/02/2006",
}

// ParseTimestamp parses a loosely formatted timestamp. It returns nil for
// empty or unparseable input.
func ParseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(cleanInline(s))
	if emptyMarkers[strings.ToLower(s)] {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// durationMinutes returns the whole minutes between start and end, or nil
// when either is missing or end precedes start.
func durationMinutes(start, end *time.Time) *int {
	if start == nil || end == nil || end.Before(*start) {
		return nil
	}
	d := int(end.Sub(*start).Minutes())
	return &d
}

// parsePoints extracts the first non-negative integer from a cell.
func parsePoints(cell string) int {
	m := firstInt.FindString(cell)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// parseDependencies splits a dependency cell into ticket ids. Placeholders
// like "-" or "None" yield an empty list.
func parseDependencies(cell string) []string {
	deps := []string{}
	cell = cleanInline(cell)
	if emptyMarkers[strings.ToLower(cell)] {
		return deps
	}
	seen := map[string]bool{}
	for _, part := range depSplitter.Split(cell, -1) {
		part = strings.Trim(part, "`*()[]")
		if emptyMarkers[strings.ToLower(part)] || seen[part] {
			continue
		}
		seen[part] = true
		deps = append(deps, part)
	}
	return deps
}

// cleanCell strips emphasis and normalizes placeholder dashes to "".
func cleanCell(cell string) string {
	cell = cleanInline(cell)
	switch cell {
	case "-", "—", "–":
		return ""
	}
	return cell
}

// parseTicketRow converts a data row into a ticket. Rows that are too short
// or have no id are rejected.
func parseTicketRow(cells []string, cols ColumnMap) (models.Ticket, bool) {
	if len(cells) < minTableCells {
		return models.Ticket{}, false
	}
	id := cleanCell(cols.Cell(cells, ColID))
	if id == "" {
		return models.Ticket{}, false
	}
	t := models.Ticket{
		ID:           id,
		Title:        cleanCell(cols.Cell(cells, ColTitle)),
		Status:       ResolveStatus(cols.Cell(cells, ColStatus)),
		Owner:        cleanCell(cols.Cell(cells, ColOwner)),
		Agent:        cleanCell(cols.Cell(cells, ColAgent)),
		ModelTier:    strings.ToLower(cleanCell(cols.Cell(cells, ColModel))),
		StoryPoints:  parsePoints(cols.Cell(cells, ColPoints)),
		Dependencies: parseDependencies(cols.Cell(cells, ColDependencies)),
		StartedAt:    ParseTimestamp(cols.Cell(cells, ColStart)),
		CompletedAt:  ParseTimestamp(cols.Cell(cells, ColEnd)),
	}
	if t.Owner == "" {
		t.Owner = t.Agent
	}
	t.DurationMinutes = durationMinutes(t.StartedAt, t.CompletedAt)
	return t, true
}

// parseTicketTable extracts every valid ticket from the first table in text.
func parseTicketTable(text string) []models.Ticket {
	tickets := []models.Ticket{}
	tbl, ok := FindTable(text)
	if !ok {
		return tickets
	}
	cols := MapColumns(tbl.Header)
	for _, row := range tbl.Rows {
		if t, ok := parseTicketRow(row, cols); ok {
			tickets = append(tickets, t)
		}
	}
	return tickets
}
