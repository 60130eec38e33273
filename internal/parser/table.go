package parser

import (
	"regexp"
	"strings"
)

// minTableCells is the smallest row that can be a ticket table header or
// a usable data row.
const minTableCells = 4

var separatorCell = regexp.MustCompile(`^:?-+:?$`)

// Column identifies a semantic ticket field.
type Column string

const (
	ColID           Column = "id"
	ColTitle        Column = "title"
	ColStatus       Column = "status"
	ColOwner        Column = "owner"
	ColModel        Column = "model"
	ColPoints       Column = "points"
	ColDependencies Column = "dependencies"
	ColAgent        Column = "agent"
	ColStart        Column = "start"
	ColEnd          Column = "end"
)

// columnAliases is checked in order; the first alias rule that matches a
// header cell claims it. id is first so "Ticket ID" never lands on title.
var columnAliases = []struct {
	col     Column
	matches func(h string) bool
}{
	{ColID, func(h string) bool {
		return h == "id" || h == "#" || h == "key" || strings.HasSuffix(h, " id")
	}},
	{ColStatus, func(h string) bool { return strings.Contains(h, "status") || h == "state" }},
	{ColDependencies, func(h string) bool {
		return strings.Contains(h, "depend") || h == "deps" || strings.Contains(h, "blocked by")
	}},
	{ColAgent, func(h string) bool { return strings.Contains(h, "agent") }},
	{ColOwner, func(h string) bool {
		return strings.Contains(h, "owner") || strings.Contains(h, "assignee") || h == "role"
	}},
	{ColModel, func(h string) bool { return strings.Contains(h, "model") || strings.Contains(h, "tier") }},
	{ColPoints, func(h string) bool {
		return strings.Contains(h, "point") || h == "pts" || h == "sp" || strings.Contains(h, "estimate")
	}},
	{ColStart, func(h string) bool { return strings.Contains(h, "start") }},
	{ColEnd, func(h string) bool {
		return h == "end" || strings.Contains(h, "ended") || strings.Contains(h, "finish") ||
			strings.Contains(h, "completed") || strings.HasPrefix(h, "end ")
	}},
	{ColTitle, func(h string) bool {
		return strings.Contains(h, "title") || strings.Contains(h, "ticket") ||
			strings.Contains(h, "task") || h == "name" || strings.Contains(h, "summary")
	}},
}

// positionalColumns is used when a header carries no recognizable id alias.
var positionalColumns = []Column{ColID, ColTitle, ColStatus, ColOwner, ColModel, ColPoints, ColDependencies}

// ColumnMap resolves semantic columns to cell indexes.
type ColumnMap map[Column]int

// Cell returns the trimmed cell for col, or "" when absent.
func (m ColumnMap) Cell(cells []string, col Column) string {
	idx, ok := m[col]
	if !ok || idx >= len(cells) {
		return ""
	}
	return cells[idx]
}

// Table is a markdown table split into a header and data rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// isTableLine reports whether a line is a pipe-delimited table row: either
// it starts with a pipe, or it has enough inner pipes to hold a ticket row
// without outer ones.
func isTableLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "|") || strings.Count(trimmed, "|") >= minTableCells-1
}

// splitRow splits a pipe-delimited row into trimmed cells. Leading and
// trailing pipes are optional.
func splitRow(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	parts := strings.Split(line, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

// isSeparatorRow reports whether every cell is a dash run like "---" or ":--:".
func isSeparatorRow(cells []string) bool {
	if len(cells) == 0 {
		return false
	}
	for _, c := range cells {
		if !separatorCell.MatchString(c) {
			return false
		}
	}
	return true
}

// FindTable locates the first table in text whose header has at least four
// cells. Rows following it (until the first non-table line) are returned
// as-is; short rows are kept so callers decide how to drop them.
func FindTable(text string) (*Table, bool) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !isTableLine(line) {
			continue
		}
		header := splitRow(line)
		if len(header) < minTableCells || isSeparatorRow(header) {
			continue
		}
		tbl := &Table{Header: header}
		for _, next := range lines[i+1:] {
			if !isTableLine(next) {
				break
			}
			cells := splitRow(next)
			if isSeparatorRow(cells) {
				continue
			}
			tbl.Rows = append(tbl.Rows, cells)
		}
		return tbl, true
	}
	return nil, false
}

// normalizeHeader lowercases a header cell and strips markdown emphasis.
func normalizeHeader(h string) string {
	h = strings.ToLower(stripEmphasis(h))
	return strings.Join(strings.Fields(h), " ")
}

// MapColumns builds a column index from header cell text. When no id column
// is recognized the positional layout is assumed.
func MapColumns(header []string) ColumnMap {
	m := ColumnMap{}
	for i, raw := range header {
		h := normalizeHeader(raw)
		if h == "" {
			continue
		}
		for _, alias := range columnAliases {
			if _, taken := m[alias.col]; taken {
				continue
			}
			if alias.matches(h) {
				m[alias.col] = i
				break
			}
		}
	}
	if _, ok := m[ColID]; !ok {
		m = ColumnMap{}
		for i, col := range positionalColumns {
			if i < len(header) {
				m[col] = i
			}
		}
	}
	return m
}
