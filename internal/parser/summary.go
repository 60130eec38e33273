package parser

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/zulandar/planboard/internal/models"
)

var (
	summaryFileNumber = regexp.MustCompile(`(?i)sprint[-_ ]?(\d+)`)
	costValue         = regexp.MustCompile(`[\d][\d,]*(?:\.\d+)?`)
	durationNumber    = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
	durationUnits     = strings.NewReplacer("hours", "h", "hour", "h", "hrs", "h", "hr", "h",
		"minutes", "m", "minute", "m", "mins", "m", "min", "m", "seconds", "s", "secs", "s", "sec", "s")
)

// SummaryNumber returns the sprint number a summary file belongs to, from
// its file name first and its title heading second.
func SummaryNumber(path, text string) (int, bool) {
	for _, candidate := range []string{filepath.Base(path), documentTitle(text)} {
		if m := summaryFileNumber.FindStringSubmatch(candidate); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// parseIntLoose parses integers written with thousands separators.
func parseIntLoose(s string) int {
	m := costValue.FindString(s)
	if m == "" {
		return 0
	}
	m = strings.ReplaceAll(m, ",", "")
	if dot := strings.IndexByte(m, '.'); dot >= 0 {
		m = m[:dot]
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

func parseFloatLoose(s string) float64 {
	m := costValue.FindString(s)
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return 0
	}
	return f
}

// parseDurationMinutes accepts "45", "45m", "1h 30m", "90 min" or "1.5 hours".
func parseDurationMinutes(s string) *int {
	s = strings.ToLower(cleanInline(s))
	if s == "" || s == "-" {
		return nil
	}
	if durationNumber.MatchString(s) {
		f, _ := strconv.ParseFloat(s, 64)
		n := int(f)
		return &n
	}
	compact := strings.ReplaceAll(durationUnits.Replace(s), " ", "")
	d, err := time.ParseDuration(compact)
	if err != nil || d < 0 {
		return nil
	}
	n := int(d.Minutes())
	return &n
}

// executionColumns maps summary table headers to execution fields.
func executionColumns(header []string) map[string]int {
	cols := map[string]int{}
	claim := func(key string, i int) {
		if _, ok := cols[key]; !ok {
			cols[key] = i
		}
	}
	for i, raw := range header {
		h := normalizeHeader(raw)
		switch {
		case strings.Contains(h, "ticket"), h == "id", h == "#":
			claim("ticket", i)
		case strings.Contains(h, "agent"):
			claim("agent", i)
		case strings.Contains(h, "model"), strings.Contains(h, "tier"):
			claim("model", i)
		case strings.Contains(h, "status"):
			claim("status", i)
		case strings.Contains(h, "start"):
			claim("start", i)
		case strings.Contains(h, "complete"), strings.Contains(h, "end"), strings.Contains(h, "finish"):
			claim("end", i)
		case strings.Contains(h, "duration"), strings.Contains(h, "time"):
			claim("duration", i)
		case strings.Contains(h, "token"):
			claim("tokens", i)
		}
	}
	return cols
}

func cellAt(cells []string, cols map[string]int, key string) string {
	i, ok := cols[key]
	if !ok || i >= len(cells) {
		return ""
	}
	return cells[i]
}

// parseExecutions reads the first table in text as execution telemetry.
func parseExecutions(text string) []models.TicketExecution {
	execs := []models.TicketExecution{}
	tbl, ok := FindTable(text)
	if !ok {
		return execs
	}
	cols := executionColumns(tbl.Header)
	if _, ok := cols["ticket"]; !ok {
		cols["ticket"] = 0
	}
	for _, row := range tbl.Rows {
		if len(row) < 2 {
			continue
		}
		id := cleanCell(cellAt(row, cols, "ticket"))
		if id == "" {
			continue
		}
		e := models.TicketExecution{
			TicketID:    id,
			Agent:       cleanCell(cellAt(row, cols, "agent")),
			ModelTier:   strings.ToLower(cleanCell(cellAt(row, cols, "model"))),
			StartedAt:   ParseTimestamp(cellAt(row, cols, "start")),
			CompletedAt: ParseTimestamp(cellAt(row, cols, "end")),
			Tokens:      parseIntLoose(cellAt(row, cols, "tokens")),
		}
		if status := cellAt(row, cols, "status"); status != "" {
			e.Status = string(ResolveStatus(status))
		}
		e.DurationMinutes = parseDurationMinutes(cellAt(row, cols, "duration"))
		if e.DurationMinutes == nil {
			e.DurationMinutes = durationMinutes(e.StartedAt, e.CompletedAt)
		}
		execs = append(execs, e)
	}
	return execs
}

// ParseSprintSummary parses a sprint summary file. The second return value
// is false when no sprint number can be determined.
func ParseSprintSummary(path, text string) (*models.SprintSummary, bool) {
	n, ok := SummaryNumber(path, text)
	if !ok {
		return nil, false
	}
	sum := &models.SprintSummary{
		Sprint:       n,
		Title:        documentTitle(text),
		Path:         path,
		StartedAt:    ParseTimestamp(labeledValue(text, "Started")),
		CompletedAt:  ParseTimestamp(labeledValue(text, "Completed")),
		Executions:   parseExecutions(text),
		TotalTokens:  parseIntLoose(labeledValue(text, "Total Tokens")),
		TotalCostUSD: parseFloatLoose(labeledValue(text, "Total Cost")),
		Notes:        subsectionList(text, "Notes"),
	}
	if sum.TotalTokens == 0 {
		for _, e := range sum.Executions {
			sum.TotalTokens += e.Tokens
		}
	}
	return sum, true
}
