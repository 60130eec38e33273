// Package parser turns loosely structured project-management markdown into
// models. Markdown parsing never fails: malformed rows are dropped and
// missing sections default to empty. Only structured (JSON/YAML) input can
// return an error.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/zulandar/planboard/internal/models"
)

// Default parser settings.
const (
	DefaultBugPrefix     = "BUG-"
	DefaultFallbackLimit = 10
)

// Options tunes the heuristics used by the parsers.
type Options struct {
	BugPrefix     string // id prefix that marks a bug ticket
	FallbackLimit int    // bullets promoted to requirements when no section exists
}

// DefaultOptions returns the stock parser settings.
func DefaultOptions() Options {
	return Options{BugPrefix: DefaultBugPrefix, FallbackLimit: DefaultFallbackLimit}
}

func (o Options) withDefaults() Options {
	if o.BugPrefix == "" {
		o.BugPrefix = DefaultBugPrefix
	}
	if o.FallbackLimit <= 0 {
		o.FallbackLimit = DefaultFallbackLimit
	}
	return o
}

var (
	sprintNumber   = regexp.MustCompile(`(?i)\bsprint\s+(\d+)`)
	sprintMarker   = regexp.MustCompile(`\b(ACTIVE|COMPLETED|COMPLETE|PLANNED)\b`)
	nameSeparators = " \t:–—-|()[]"
	backlogLabel   = regexp.MustCompile(`(?i)^(?:project\s+)?backlog\s*[:–—-]\s*|\s*[:–—-]\s*(?:project\s+)?backlog$`)
)

// sprintHeading is the structured form of a sprint heading line.
type sprintHeading struct {
	Number int
	Name   string
	Marker string
}

// parseSprintHeading extracts number, name and explicit marker from heading
// text such as "🏃 Sprint 2: Checkout — ACTIVE".
func parseSprintHeading(text string) (sprintHeading, bool) {
	loc := sprintNumber.FindStringSubmatchIndex(text)
	if loc == nil {
		return sprintHeading{}, false
	}
	n, err := strconv.Atoi(text[loc[2]:loc[3]])
	if err != nil {
		return sprintHeading{}, false
	}
	h := sprintHeading{Number: n}
	rest := text[loc[1]:]
	if m := sprintMarker.FindStringSubmatch(text); m != nil {
		h.Marker = m[1]
		if h.Marker == "COMPLETED" {
			h.Marker = "COMPLETE"
		}
		rest = sprintMarker.ReplaceAllString(rest, "")
	}
	h.Name = cleanInline(strings.Trim(strings.TrimSpace(rest), nameSeparators))
	return h, true
}

// sprintSection is the raw text of one sprint heading and its body.
type sprintSection struct {
	Heading sprintHeading
	Body    string
}

// splitSprintSections returns sprint sections in document order. A section
// ends at the next sprint heading or at any heading of the same or a higher
// level, so trailing top-level sections never leak into the last sprint.
func splitSprintSections(text string) []sprintSection {
	lines := strings.Split(text, "\n")
	var (
		sections []sprintSection
		cur      *sprintSection
		curLevel int
		body     []string
	)
	flush := func() {
		if cur != nil {
			cur.Body = strings.Join(body, "\n")
			sections = append(sections, *cur)
		}
		cur, body = nil, nil
	}
	for _, line := range lines {
		level, heading, ok := parseHeading(line)
		if ok {
			if sh, isSprint := parseSprintHeading(heading); isSprint {
				flush()
				cur = &sprintSection{Heading: sh}
				curLevel = level
				continue
			}
			if cur != nil && level <= curLevel {
				flush()
				continue
			}
		}
		if cur != nil {
			body = append(body, line)
		}
	}
	flush()
	return sections
}

// extractGoal returns the sprint goal from a `**Goal:**` line in the section.
func extractGoal(section string) string {
	return labeledValue(section, "Goal")
}

// buildSprint assembles a sprint from a single section.
func buildSprint(sec sprintSection) models.Sprint {
	tickets := parseTicketTable(sec.Body)
	return models.Sprint{
		Number:           sec.Heading.Number,
		Name:             sec.Heading.Name,
		Goal:             extractGoal(sec.Body),
		Marker:           sec.Heading.Marker,
		Status:           DeriveSprintStatus(sec.Heading.Marker, tickets),
		Tickets:          tickets,
		Dependencies:     subsectionList(sec.Body, "Dependencies"),
		DefinitionOfDone: subsectionList(sec.Body, "Definition of Done"),
	}
}

// mergeSprint folds a later section with the same number into an earlier
// one: tickets and lists are concatenated, first non-empty name and goal
// win, the last explicit marker wins.
func mergeSprint(into *models.Sprint, next models.Sprint) {
	if into.Name == "" {
		into.Name = next.Name
	}
	if into.Goal == "" {
		into.Goal = next.Goal
	}
	if next.Marker != "" {
		into.Marker = next.Marker
	}
	into.Tickets = append(into.Tickets, next.Tickets...)
	into.Dependencies = append(into.Dependencies, next.Dependencies...)
	into.DefinitionOfDone = append(into.DefinitionOfDone, next.DefinitionOfDone...)
	into.Status = DeriveSprintStatus(into.Marker, into.Tickets)
}

// parseBugs collects bug tickets from every non-sprint section whose heading
// mentions bugs. Only ids carrying the bug prefix are kept.
func parseBugs(text, prefix string) []models.Ticket {
	bugs := []models.Ticket{}
	upperPrefix := strings.ToUpper(prefix)
	isBugHeading := func(h string) bool {
		if _, isSprint := parseSprintHeading(h); isSprint {
			return false
		}
		return strings.Contains(strings.ToLower(h), "bug")
	}
	for _, span := range spansMatching(text, isBugHeading) {
		for _, t := range parseTicketTable(span.Body) {
			if strings.HasPrefix(strings.ToUpper(t.ID), upperPrefix) {
				bugs = append(bugs, t)
			}
		}
	}
	return bugs
}

// projectName derives the project name from the document title.
func projectName(text string) string {
	title := documentTitle(text)
	return strings.TrimSpace(backlogLabel.ReplaceAllString(title, ""))
}

// ParseBacklog parses a backlog document. It never fails; unrecognized
// content is skipped.
func ParseBacklog(text string, opts Options) *models.BacklogDocument {
	opts = opts.withDefaults()
	doc := models.EmptyBacklog()
	doc.ProjectName = projectName(text)
	doc.Created = labeledValue(text, "Created")
	doc.LastUpdated = labeledValue(text, "Last Updated")

	index := map[int]int{}
	for _, sec := range splitSprintSections(text) {
		sp := buildSprint(sec)
		if i, dup := index[sp.Number]; dup {
			mergeSprint(&doc.Sprints[i], sp)
			continue
		}
		index[sp.Number] = len(doc.Sprints)
		doc.Sprints = append(doc.Sprints, sp)
	}
	doc.Bugs = parseBugs(text, opts.BugPrefix)
	return doc
}
