package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zulandar/planboard/internal/models"
)

// Requirement document formats, in sniffing order.
const (
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatMarkdown = "markdown"
	FormatList     = "list"
)

// RequirementFormat pairs a content predicate with its extractor.
type RequirementFormat struct {
	Name    string
	Detect  func(text string) bool
	Extract func(text string, opts Options) (*models.RequirementDoc, error)
}

// requirementFormats is checked in order; the first format whose Detect
// matches handles the document.
var requirementFormats = []RequirementFormat{
	{FormatJSON, looksJSON, parseRequirementsJSON},
	{FormatYAML, looksYAML, parseRequirementsYAML},
	{FormatMarkdown, looksMarkdown, parseRequirementsMarkdown},
	{FormatList, func(string) bool { return true }, parseRequirementsList},
}

var (
	yamlKeyLine   = regexp.MustCompile(`^[A-Za-z_][\w .-]*:(\s|$)`)
	markdownHead  = regexp.MustCompile(`(?m)^#{1,6}\s+\S`)
	requirementID = regexp.MustCompile(`^([A-Z]{1,5}-?\d+(?:\.\d+)*)\s*[:.)\-–—]?\s+(.+)$`)
	priorityTag   = regexp.MustCompile(`(?i)\s*[\[(]\s*(must(?:[ -]have)?|should(?:[ -]have)?|nice[ -]to[ -]have|could(?:[ -]have)?|p[0-3]|high|medium|low)\s*[\])]\s*`)
)

// DetectRequirementFormat returns the name of the format that would parse text.
func DetectRequirementFormat(text string) string {
	for _, f := range requirementFormats {
		if f.Detect(text) {
			return f.Name
		}
	}
	return FormatList
}

// ParseRequirements sniffs the document format and extracts requirements.
// JSON and YAML failures return a *ParseError, except that text failing YAML
// decoding but carrying markdown headings is read as markdown. Markdown and
// plain lists never fail.
func ParseRequirements(text string, opts Options) (*models.RequirementDoc, error) {
	opts = opts.withDefaults()
	for _, f := range requirementFormats {
		if !f.Detect(text) {
			continue
		}
		doc, err := f.Extract(text, opts)
		if err != nil {
			if f.Name == FormatYAML && looksMarkdown(text) {
				// A markdown document that opens with a "Key: value" line.
				continue
			}
			return nil, err
		}
		doc.Format = f.Name
		return doc, nil
	}
	return parseRequirementsList(text, opts)
}

func looksJSON(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "{")
}

// looksYAML checks only the first non-blank line so a markdown document
// with an incidental "Key: value" line further down is not misrouted.
func looksYAML(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if trimmed == "---" {
			// Front matter on a markdown document is not a YAML document.
			return !markdownHead.MatchString(text)
		}
		return yamlKeyLine.MatchString(trimmed)
	}
	return false
}

func looksMarkdown(text string) bool {
	return markdownHead.MatchString(text)
}

func newRequirementDoc() *models.RequirementDoc {
	return &models.RequirementDoc{
		Requirements: []models.Requirement{},
		Constraints:  []string{},
		Assumptions:  []string{},
		OutOfScope:   []string{},
	}
}

// NormalizePriority maps free-form priority labels onto the closed set.
// Unknown labels are should_have.
func NormalizePriority(s string) models.Priority {
	k := normKey(s)
	switch {
	case strings.HasPrefix(k, "must"), k == "p0", k == "high", k == "critical":
		return models.PriorityMustHave
	case strings.HasPrefix(k, "nice"), strings.HasPrefix(k, "could"), k == "low", k == "p2", k == "p3":
		return models.PriorityNiceToHave
	default:
		return models.PriorityShouldHave
	}
}

// normalizeType maps a type label to functional or non_functional.
func normalizeType(s string) models.RequirementType {
	k := normKey(s)
	if strings.HasPrefix(k, "non") || k == "nfr" {
		return models.RequirementNonFunctional
	}
	return models.RequirementFunctional
}

// normKey lowercases and drops separators so "out_of_scope", "outOfScope"
// and "Out of Scope" compare equal.
func normKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch r {
		case '_', '-', ' ', '\t':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// --- JSON ---

func parseRequirementsJSON(text string, opts Options) (*models.RequirementDoc, error) {
	var raw any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, &ParseError{Format: FormatJSON, Err: err}
	}
	doc, err := requirementsFromValue(raw)
	if err != nil {
		return nil, &ParseError{Format: FormatJSON, Err: err}
	}
	return doc, nil
}

// requirementsFromValue maps a decoded JSON value onto a RequirementDoc.
func requirementsFromValue(raw any) (*models.RequirementDoc, error) {
	doc := newRequirementDoc()
	switch v := raw.(type) {
	case []any:
		doc.Requirements = requirementList(v, models.RequirementFunctional)
		return doc, nil
	case map[string]any:
		fields := make(map[string]any, len(v))
		for k, val := range v {
			fields[normKey(k)] = val
		}
		doc.ProjectName = firstString(fields, "projectname", "name", "project", "title")
		doc.Description = firstString(fields, "description", "overview", "summary")
		doc.ProblemStatement = firstString(fields, "problemstatement", "problem")
		doc.SuccessState = firstString(fields, "successstate", "success")
		if list, ok := fields["requirements"].([]any); ok {
			doc.Requirements = append(doc.Requirements, requirementList(list, models.RequirementFunctional)...)
		}
		if list, ok := fields["functionalrequirements"].([]any); ok {
			doc.Requirements = append(doc.Requirements, requirementList(list, models.RequirementFunctional)...)
		}
		if list, ok := fields["nonfunctionalrequirements"].([]any); ok {
			doc.Requirements = append(doc.Requirements, requirementList(list, models.RequirementNonFunctional)...)
		}
		doc.Constraints = stringList(fields["constraints"])
		doc.Assumptions = stringList(fields["assumptions"])
		doc.OutOfScope = stringList(firstValue(fields, "outofscope", "nongoals"))
		if ts := stringList(firstValue(fields, "techstack", "stack", "technologies")); len(ts) > 0 {
			doc.TechStack = ts
		}
		assignRequirementIDs(doc.Requirements)
		return doc, nil
	default:
		return nil, errors.New("expected an object or a list of requirements")
	}
}

func firstValue(fields map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := fields[k]; ok {
			return v
		}
	}
	return nil
}

func firstString(fields map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := fields[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// stringList flattens a list of strings (or a string-keyed map) into text
// items. Objects contribute their name or description.
func stringList(v any) []string {
	out := []string{}
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			out = append(out, s)
		}
	case []any:
		for _, item := range t {
			switch it := item.(type) {
			case string:
				if s := strings.TrimSpace(it); s != "" {
					out = append(out, s)
				}
			case map[string]any:
				fields := map[string]any{}
				for k, val := range it {
					fields[normKey(k)] = val
				}
				if s := firstString(fields, "name", "description", "text"); s != "" {
					out = append(out, s)
				}
			case nil:
			default:
				out = append(out, fmt.Sprint(it))
			}
		}
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = append(out, fmt.Sprintf("%s: %v", k, t[k]))
		}
	}
	return out
}

func requirementList(items []any, defaultType models.RequirementType) []models.Requirement {
	reqs := []models.Requirement{}
	for _, item := range items {
		switch it := item.(type) {
		case string:
			if r, ok := requirementFromText(it, defaultType, models.PriorityShouldHave); ok {
				reqs = append(reqs, r)
			}
		case map[string]any:
			fields := map[string]any{}
			for k, val := range it {
				fields[normKey(k)] = val
			}
			r := models.Requirement{
				ID:          firstString(fields, "id", "key"),
				Description: firstString(fields, "description", "text", "title", "name"),
				Priority:    NormalizePriority(firstString(fields, "priority", "moscow")),
				Type:        defaultType,
			}
			if t := firstString(fields, "type", "kind"); t != "" {
				r.Type = normalizeType(t)
			}
			if r.Description != "" {
				reqs = append(reqs, r)
			}
		}
	}
	return reqs
}

// assignRequirementIDs fills missing ids as FR-001 / NFR-001 sequences.
func assignRequirementIDs(reqs []models.Requirement) {
	var fr, nfr int
	for i := range reqs {
		if reqs[i].Type == models.RequirementNonFunctional {
			nfr++
			if reqs[i].ID == "" {
				reqs[i].ID = fmt.Sprintf("NFR-%03d", nfr)
			}
			continue
		}
		fr++
		if reqs[i].ID == "" {
			reqs[i].ID = fmt.Sprintf("FR-%03d", fr)
		}
	}
}

// --- YAML ---

// parseRequirementsYAML decodes YAML, converts it to JSON and hands it to
// the JSON extractor so both formats share one mapping.
func parseRequirementsYAML(text string, opts Options) (*models.RequirementDoc, error) {
	var raw any
	if err := yaml.Unmarshal([]byte(text), &raw); err != nil {
		return nil, &ParseError{Format: FormatYAML, Err: err}
	}
	data, err := json.Marshal(jsonCompatible(raw))
	if err != nil {
		return nil, &ParseError{Format: FormatYAML, Err: err}
	}
	doc, err := parseRequirementsJSON(string(data), opts)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			return nil, &ParseError{Format: FormatYAML, Err: pe.Err}
		}
		return nil, &ParseError{Format: FormatYAML, Err: err}
	}
	return doc, nil
}

// jsonCompatible rewrites map[any]any nodes into map[string]any.
func jsonCompatible(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = jsonCompatible(val)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = jsonCompatible(val)
		}
		return out
	case []any:
		for i, val := range t {
			t[i] = jsonCompatible(val)
		}
		return t
	default:
		return v
	}
}

// --- Markdown ---

// requirementFromText splits an optional id and priority tag off a bullet.
func requirementFromText(text string, typ models.RequirementType, priority models.Priority) (models.Requirement, bool) {
	text = cleanInline(text)
	if text == "" {
		return models.Requirement{}, false
	}
	r := models.Requirement{Type: typ, Priority: priority}
	if m := priorityTag.FindStringSubmatch(text); m != nil {
		r.Priority = NormalizePriority(m[1])
		text = strings.TrimSpace(priorityTag.ReplaceAllString(text, " "))
	}
	if m := requirementID.FindStringSubmatch(text); m != nil {
		r.ID = m[1]
		text = m[2]
	}
	r.Description = strings.TrimSpace(text)
	return r, r.Description != ""
}

// requirementSection classifies a markdown heading for requirement
// extraction.
type requirementSection int

const (
	secOther requirementSection = iota
	secFunctional
	secNonFunctional
	secDescription
	secProblem
	secSuccess
	secConstraints
	secAssumptions
	secOutOfScope
	secTechStack
)

func classifyRequirementHeading(heading string) requirementSection {
	h := strings.ToLower(cleanInline(heading))
	switch {
	case strings.Contains(h, "non-functional"), strings.Contains(h, "nonfunctional"), strings.Contains(h, "non functional"):
		return secNonFunctional
	case strings.Contains(h, "functional requirement"), h == "requirements", strings.Contains(h, "user stories"), h == "features":
		return secFunctional
	case strings.Contains(h, "out of scope"), strings.Contains(h, "non-goals"), strings.Contains(h, "non goals"):
		return secOutOfScope
	case strings.Contains(h, "problem"):
		return secProblem
	case strings.Contains(h, "success"):
		return secSuccess
	case strings.Contains(h, "constraint"):
		return secConstraints
	case strings.Contains(h, "assumption"):
		return secAssumptions
	case strings.Contains(h, "tech stack"), strings.Contains(h, "technology"), strings.Contains(h, "technologies"):
		return secTechStack
	case strings.Contains(h, "description"), strings.Contains(h, "overview"), strings.Contains(h, "summary"), strings.Contains(h, "about"):
		return secDescription
	default:
		return secOther
	}
}

// headingPriority returns the MoSCoW priority named by a subsection heading.
func headingPriority(heading string) (models.Priority, bool) {
	h := normKey(cleanInline(heading))
	switch {
	case strings.Contains(h, "musthave"):
		return models.PriorityMustHave, true
	case strings.Contains(h, "shouldhave"):
		return models.PriorityShouldHave, true
	case strings.Contains(h, "nicetohave"), strings.Contains(h, "couldhave"):
		return models.PriorityNiceToHave, true
	}
	return "", false
}

func parseRequirementsMarkdown(text string, opts Options) (*models.RequirementDoc, error) {
	doc := newRequirementDoc()
	doc.ProjectName = documentTitle(text)
	sections := SplitSections(text)

	var (
		reqType     models.RequirementType
		reqLevel    int
		inReqs      bool
		foundReqSec bool
		consumed    = map[int]bool{}
	)
	for i, sec := range sections {
		kind := classifyRequirementHeading(sec.Heading)

		if inReqs && sec.Level > reqLevel && kind == secOther {
			consumed[i] = true
			priority, ok := headingPriority(sec.Heading)
			if !ok {
				priority = models.PriorityShouldHave
			}
			doc.Requirements = append(doc.Requirements, bulletRequirements(sec.Bullets, reqType, priority)...)
			continue
		}
		if inReqs && sec.Level <= reqLevel {
			inReqs = false
		}

		switch kind {
		case secFunctional, secNonFunctional:
			reqType = models.RequirementFunctional
			if kind == secNonFunctional {
				reqType = models.RequirementNonFunctional
			}
			inReqs, reqLevel = true, sec.Level
			consumed[i] = true
			if kind == secFunctional {
				foundReqSec = true
			}
			doc.Requirements = append(doc.Requirements, bulletRequirements(sec.Bullets, reqType, models.PriorityShouldHave)...)
		case secDescription:
			if doc.Description == "" {
				doc.Description = firstParagraph(sec.Body)
			}
		case secProblem:
			doc.ProblemStatement = firstParagraph(sec.Body)
		case secSuccess:
			doc.SuccessState = firstParagraph(sec.Body)
		case secConstraints:
			doc.Constraints = append(doc.Constraints, sec.Bullets...)
		case secAssumptions:
			doc.Assumptions = append(doc.Assumptions, sec.Bullets...)
		case secOutOfScope:
			doc.OutOfScope = append(doc.OutOfScope, sec.Bullets...)
		case secTechStack:
			doc.TechStack = append(doc.TechStack, sec.Bullets...)
		}
	}

	if doc.Description == "" {
		for _, sec := range sections {
			if sec.Level <= 1 {
				if p := firstParagraph(sec.Body); p != "" {
					doc.Description = p
					break
				}
			}
		}
	}

	if !foundReqSec {
		doc.Requirements = append(fallbackRequirements(sections, consumed, opts.FallbackLimit), doc.Requirements...)
	}
	assignRequirementIDs(doc.Requirements)
	return doc, nil
}

func bulletRequirements(bullets []string, typ models.RequirementType, priority models.Priority) []models.Requirement {
	var reqs []models.Requirement
	for _, b := range bullets {
		if r, ok := requirementFromText(b, typ, priority); ok {
			reqs = append(reqs, r)
		}
	}
	return reqs
}

// fallbackRequirements promotes the first limit bullets anywhere in the
// document to functional requirements. Used only when the document has no
// functional-requirements section.
func fallbackRequirements(sections []models.Section, consumed map[int]bool, limit int) []models.Requirement {
	var reqs []models.Requirement
	for i, sec := range sections {
		if consumed[i] {
			continue
		}
		for _, b := range sec.Bullets {
			if len(reqs) >= limit {
				return reqs
			}
			if r, ok := requirementFromText(b, models.RequirementFunctional, models.PriorityShouldHave); ok {
				reqs = append(reqs, r)
			}
		}
	}
	return reqs
}

// --- Plain list ---

func parseRequirementsList(text string, opts Options) (*models.RequirementDoc, error) {
	doc := newRequirementDoc()
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if m := bulletLine.FindStringSubmatch(line); m != nil {
			if r, ok := requirementFromText(m[1], models.RequirementFunctional, models.PriorityShouldHave); ok {
				doc.Requirements = append(doc.Requirements, r)
			}
			continue
		}
		if doc.Description == "" {
			doc.Description = cleanInline(trimmed)
		}
	}
	assignRequirementIDs(doc.Requirements)
	doc.Format = FormatList
	return doc, nil
}
