package parser

import (
	"errors"
	"regexp"
	"strings"

	"github.com/zulandar/planboard/internal/models"
)

// ParseSpec parses a role spec. Markdown specs never fail; a spec whose
// content is JSON or YAML returns a *ParseError carrying path when it does
// not decode.
func ParseSpec(role, path, text string, opts Options) (*models.SpecDoc, error) {
	req, err := ParseRequirements(text, opts)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			return nil, &ParseError{Format: pe.Format, Path: path, Err: pe.Err}
		}
		return nil, err
	}
	spec := &models.SpecDoc{
		Role:         role,
		Path:         path,
		Format:       req.Format,
		Title:        req.ProjectName,
		Requirements: req,
		Sections:     []models.Section{},
	}
	if req.Format == FormatMarkdown {
		spec.Sections = SplitSections(text)
		spec.Screens = ParseScreens(text)
	}
	return spec, nil
}

func isScreensHeading(h string) bool {
	return strings.Contains(strings.ToLower(h), "screen")
}

// ParseScreens extracts the UI screen list from the first "Screens" section.
// The section may hold a table, one subsection per screen, or bullets of the
// form "Name — description".
func ParseScreens(text string) []models.Screen {
	spans := spansMatching(text, isScreensHeading)
	if len(spans) == 0 {
		return nil
	}
	body := spans[0].Body
	if screens := screensFromTable(body); len(screens) > 0 {
		return screens
	}
	if screens := screensFromSubsections(body); len(screens) > 0 {
		return screens
	}
	return screensFromBullets(body)
}

func screensFromTable(body string) []models.Screen {
	tbl, ok := FindTable(body)
	if !ok {
		// Screen tables are often narrower than ticket tables.
		tbl, ok = findNarrowTable(body)
		if !ok {
			return nil
		}
	}
	cols := map[string]int{}
	for i, raw := range tbl.Header {
		h := normalizeHeader(raw)
		switch {
		case strings.Contains(h, "route"), strings.Contains(h, "path"), strings.Contains(h, "url"):
			cols["route"] = i
		case strings.Contains(h, "component"):
			cols["components"] = i
		case strings.Contains(h, "description"), strings.Contains(h, "purpose"):
			cols["description"] = i
		case strings.Contains(h, "screen"), strings.Contains(h, "name"), strings.Contains(h, "page"):
			if _, ok := cols["name"]; !ok {
				cols["name"] = i
			}
		}
	}
	if _, ok := cols["name"]; !ok {
		cols["name"] = 0
	}
	var screens []models.Screen
	for _, row := range tbl.Rows {
		name := cleanCell(cellAt(row, cols, "name"))
		if name == "" {
			continue
		}
		screens = append(screens, models.Screen{
			Name:        name,
			Route:       cleanCell(cellAt(row, cols, "route")),
			Description: cleanCell(cellAt(row, cols, "description")),
			Components:  splitList(cellAt(row, cols, "components")),
		})
	}
	return screens
}

// findNarrowTable accepts two- and three-column tables.
func findNarrowTable(text string) (*Table, bool) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !isTableLine(line) {
			continue
		}
		header := splitRow(line)
		if len(header) < 2 || isSeparatorRow(header) {
			continue
		}
		tbl := &Table{Header: header}
		for _, next := range lines[i+1:] {
			if !isTableLine(next) {
				break
			}
			if cells := splitRow(next); !isSeparatorRow(cells) {
				tbl.Rows = append(tbl.Rows, cells)
			}
		}
		return tbl, true
	}
	return nil, false
}

func screensFromSubsections(body string) []models.Screen {
	var screens []models.Screen
	for _, sec := range SplitSections(body) {
		if sec.Heading == "" {
			continue
		}
		s := models.Screen{
			Name:       cleanInline(sec.Heading),
			Route:      labeledValue(sec.Body, "Route"),
			Components: splitList(labeledValue(sec.Body, "Components")),
		}
		if s.Route == "" {
			s.Route = labeledValue(sec.Body, "Path")
		}
		if d := labeledValue(sec.Body, "Description"); d != "" {
			s.Description = d
		} else {
			s.Description = firstParagraph(withoutLabels(sec.Body))
		}
		screens = append(screens, s)
	}
	return screens
}

var labelLine = regexp.MustCompile(`^\s*(?:[-*]\s+)?\*\*[^*]+(?::\*\*|\*\*\s*:)`)

// withoutLabels drops "**Label:** value" lines so they do not leak into
// free-text descriptions.
func withoutLabels(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if !labelLine.MatchString(line) {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

var screenBulletSeparators = []string{" — ", " – ", " - ", ": "}

func screensFromBullets(body string) []models.Screen {
	var screens []models.Screen
	for _, item := range extractBullets(body) {
		s := models.Screen{Name: item, Components: []string{}}
		for _, sep := range screenBulletSeparators {
			if name, desc, ok := strings.Cut(item, sep); ok {
				s.Name, s.Description = strings.TrimSpace(name), strings.TrimSpace(desc)
				break
			}
		}
		if open := strings.Index(s.Name, "("); open > 0 && strings.HasSuffix(s.Name, ")") {
			s.Route = strings.TrimSpace(s.Name[open+1 : len(s.Name)-1])
			s.Name = strings.TrimSpace(s.Name[:open])
		}
		screens = append(screens, s)
	}
	return screens
}

// splitList splits a comma separated cell into trimmed items.
func splitList(cell string) []string {
	items := []string{}
	for _, part := range strings.Split(cleanInline(cell), ",") {
		if p := strings.TrimSpace(part); p != "" && p != "-" {
			items = append(items, p)
		}
	}
	return items
}

// ParsePrompt extracts prompt metadata.
func ParsePrompt(name, path, text string) *models.PromptDoc {
	title := documentTitle(text)
	if title == "" {
		for _, line := range strings.Split(text, "\n") {
			if _, h, ok := parseHeading(line); ok {
				title = cleanInline(h)
				break
			}
			if t := strings.TrimSpace(line); t != "" {
				title = cleanInline(t)
				break
			}
		}
	}
	return &models.PromptDoc{
		Name:  name,
		Path:  path,
		Title: title,
		Words: len(strings.Fields(text)),
	}
}
