package parser

import (
	"regexp"
	"strings"
	"sync"

	"github.com/zulandar/planboard/internal/models"
)

var (
	headingLine  = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*#*\s*$`)
	bulletLine   = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+(.+)$`)
	checkboxMark = regexp.MustCompile(`^\[[ xX]\]\s*`)
	boldText     = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicText   = regexp.MustCompile(`\*([^*]+)\*`)
	codeText     = regexp.MustCompile("`([^`]+)`")
)

// parseHeading returns the level and text of a markdown heading line.
func parseHeading(line string) (level int, text string, ok bool) {
	m := headingLine.FindStringSubmatch(strings.TrimRight(line, "\r"))
	if m == nil {
		return 0, "", false
	}
	return len(m[1]), strings.TrimSpace(m[2]), true
}

// stripEmphasis removes bold, italic and inline-code markers.
func stripEmphasis(text string) string {
	text = boldText.ReplaceAllString(text, "$1")
	text = codeText.ReplaceAllString(text, "$1")
	text = italicText.ReplaceAllString(text, "$1")
	return text
}

// cleanInline strips emphasis and collapses whitespace.
func cleanInline(text string) string {
	return strings.Join(strings.Fields(stripEmphasis(text)), " ")
}

// SplitSections walks a markdown document and returns one Section per
// heading. Text before the first heading is returned as a level-0 section
// only when it is non-empty.
func SplitSections(text string) []models.Section {
	var (
		sections []models.Section
		cur      = models.Section{}
		body     []string
	)
	flush := func() {
		cur.Body = strings.TrimSpace(strings.Join(body, "\n"))
		cur.Bullets = extractBullets(cur.Body)
		if cur.Heading != "" || cur.Body != "" {
			sections = append(sections, cur)
		}
		body = nil
	}
	for _, line := range strings.Split(text, "\n") {
		if level, heading, ok := parseHeading(line); ok {
			flush()
			cur = models.Section{Heading: heading, Level: level}
			continue
		}
		body = append(body, line)
	}
	flush()
	return sections
}

// extractBullets returns cleaned bullet and numbered-list items in order.
// Checklist boxes are removed.
func extractBullets(text string) []string {
	items := []string{}
	for _, line := range strings.Split(text, "\n") {
		m := bulletLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		item := checkboxMark.ReplaceAllString(strings.TrimSpace(m[1]), "")
		item = cleanInline(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// firstParagraph returns the first non-empty, non-list, non-table paragraph.
func firstParagraph(text string) string {
	var para []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			if len(para) > 0 {
				return cleanInline(strings.Join(para, " "))
			}
		case bulletLine.MatchString(line), isTableLine(line), strings.HasPrefix(trimmed, ">"):
			if len(para) > 0 {
				return cleanInline(strings.Join(para, " "))
			}
		default:
			para = append(para, trimmed)
		}
	}
	return cleanInline(strings.Join(para, " "))
}

// labeledValue finds a `**Label:** value` (or `Label: value`) line and
// returns the value. Only the given text is searched.
func labeledValue(text, label string) string {
	m := labelPattern(label).FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	value := strings.TrimSpace(m[1])
	value = strings.TrimPrefix(value, "**")
	return cleanInline(value)
}

// labelPatterns caches compiled label matchers by label.
var labelPatterns sync.Map

func labelPattern(label string) *regexp.Regexp {
	if re, ok := labelPatterns.Load(label); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`(?im)^\s*(?:[-*]\s+)?\**` + regexp.QuoteMeta(label) + `\**\s*:(.*)$`)
	actual, _ := labelPatterns.LoadOrStore(label, re)
	return actual.(*regexp.Regexp)
}

// subsectionList returns the bullets under the first heading in text whose
// title contains name (case-insensitive). The list ends at the next heading.
func subsectionList(text, name string) []string {
	want := strings.ToLower(name)
	var (
		inside bool
		body   []string
	)
	for _, line := range strings.Split(text, "\n") {
		if _, heading, ok := parseHeading(line); ok {
			if inside {
				break
			}
			inside = strings.Contains(strings.ToLower(cleanInline(heading)), want)
			continue
		}
		if inside {
			body = append(body, line)
		}
	}
	return extractBullets(strings.Join(body, "\n"))
}

// documentTitle returns the text of the first level-1 heading.
func documentTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if level, heading, ok := parseHeading(line); ok && level == 1 {
			return cleanInline(heading)
		}
	}
	return ""
}

// headingSpan is a heading plus everything beneath it, nested subsections
// included, up to the next heading of the same or a higher level.
type headingSpan struct {
	Heading string
	Level   int
	Body    string
}

// spansMatching returns the spans of every heading accepted by match.
// Spans nested inside an already matched span are not reported twice.
func spansMatching(text string, match func(heading string) bool) []headingSpan {
	lines := strings.Split(text, "\n")
	var spans []headingSpan
	for i := 0; i < len(lines); i++ {
		level, heading, ok := parseHeading(lines[i])
		if !ok || !match(cleanInline(heading)) {
			continue
		}
		end := len(lines)
		for j := i + 1; j < len(lines); j++ {
			if l, _, ok := parseHeading(lines[j]); ok && l <= level {
				end = j
				break
			}
		}
		spans = append(spans, headingSpan{
			Heading: cleanInline(heading),
			Level:   level,
			Body:    strings.Join(lines[i+1:end], "\n"),
		})
		i = end - 1
	}
	return spans
}
