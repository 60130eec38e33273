package parser

import (
	"errors"
	"testing"

	"github.com/zulandar/planboard/internal/models"
)

func TestDetectRequirementFormat(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"json object", `  {"requirements": []}`, FormatJSON},
		{"yaml key", "project_name: Shop\nrequirements: []\n", FormatYAML},
		{"yaml document marker", "---\nname: Shop\n", FormatYAML},
		{"markdown heading", "# Shop\n\nSome text.", FormatMarkdown},
		{"front matter is markdown", "---\ntitle: x\n---\n# Shop\n", FormatMarkdown},
		{"colon deep in markdown", "Intro line\n\nKey: value\n\n## Goals\n", FormatMarkdown},
		{"plain list", "- login\n- search\n", FormatList},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectRequirementFormat(tt.text); got != tt.want {
				t.Errorf("DetectRequirementFormat = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseRequirements_JSON(t *testing.T) {
	text := `{
  "projectName": "Shop",
  "description": "An online shop",
  "requirements": [{"description": "Login", "priority": "must"}, "Search"],
  "nonFunctionalRequirements": ["Fast pages"],
  "outOfScope": ["Payments"]
}`
	doc, err := ParseRequirements(text, DefaultOptions())
	if err != nil {
		t.Fatalf("ParseRequirements: %v", err)
	}
	if doc.Format != FormatJSON {
		t.Errorf("Format = %q, want %q", doc.Format, FormatJSON)
	}
	if doc.ProjectName != "Shop" || doc.Description != "An online shop" {
		t.Errorf("name/description = %q/%q", doc.ProjectName, doc.Description)
	}
	want := []models.Requirement{
		{ID: "FR-001", Description: "Login", Priority: models.PriorityMustHave, Type: models.RequirementFunctional},
		{ID: "FR-002", Description: "Search", Priority: models.PriorityShouldHave, Type: models.RequirementFunctional},
		{ID: "NFR-001", Description: "Fast pages", Priority: models.PriorityShouldHave, Type: models.RequirementNonFunctional},
	}
	assertRequirements(t, doc.Requirements, want)
	if len(doc.OutOfScope) != 1 || doc.OutOfScope[0] != "Payments" {
		t.Errorf("OutOfScope = %v", doc.OutOfScope)
	}
}

func TestParseRequirements_YAMLMatchesJSON(t *testing.T) {
	yamlText := `project_name: Shop
requirements:
  - id: R-1
    description: Login
    priority: Must Have
  - description: Search
    type: non-functional
constraints:
  - Go only
`
	jsonText := `{"project_name": "Shop",
 "requirements": [
   {"id": "R-1", "description": "Login", "priority": "Must Have"},
   {"description": "Search", "type": "non-functional"}],
 "constraints": ["Go only"]}`

	fromYAML, err := ParseRequirements(yamlText, DefaultOptions())
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	fromJSON, err := ParseRequirements(jsonText, DefaultOptions())
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	if fromYAML.Format != FormatYAML {
		t.Errorf("Format = %q, want %q", fromYAML.Format, FormatYAML)
	}
	assertRequirements(t, fromYAML.Requirements, fromJSON.Requirements)
	if fromYAML.Requirements[0].ID != "R-1" || fromYAML.Requirements[1].ID != "NFR-001" {
		t.Errorf("ids = %q, %q", fromYAML.Requirements[0].ID, fromYAML.Requirements[1].ID)
	}
	if len(fromYAML.Constraints) != 1 || fromYAML.Constraints[0] != "Go only" {
		t.Errorf("Constraints = %v", fromYAML.Constraints)
	}
}

func TestParseRequirements_MalformedStructuredInput(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		format string
	}{
		{"json", `{"projectName": `, FormatJSON},
		{"json scalar", `{"a": 1} trailing`, FormatJSON},
		{"yaml", "name: [unclosed\n", FormatYAML},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseRequirements(tt.text, DefaultOptions())
			if err == nil {
				t.Fatalf("expected an error, got %+v", doc)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error %T is not a *ParseError", err)
			}
			if pe.Format != tt.format {
				t.Errorf("Format = %q, want %q", pe.Format, tt.format)
			}
		})
	}
}

func TestParseRequirements_Markdown(t *testing.T) {
	text := `# Shop Platform

An online shop.

## Problem Statement

Customers cannot order online.

## Functional Requirements

### Must Have
- FR-10: Users can log in
- Users can search (P0)

### Nice to Have
- Wishlists

## Non-Functional Requirements
- Pages load under 2s

## Constraints
- Go 1.22

## Out of Scope
- Mobile apps
`
	doc, err := ParseRequirements(text, DefaultOptions())
	if err != nil {
		t.Fatalf("ParseRequirements: %v", err)
	}
	if doc.Format != FormatMarkdown {
		t.Errorf("Format = %q, want %q", doc.Format, FormatMarkdown)
	}
	if doc.ProjectName != "Shop Platform" {
		t.Errorf("ProjectName = %q", doc.ProjectName)
	}
	if doc.Description != "An online shop." {
		t.Errorf("Description = %q", doc.Description)
	}
	if doc.ProblemStatement != "Customers cannot order online." {
		t.Errorf("ProblemStatement = %q", doc.ProblemStatement)
	}
	want := []models.Requirement{
		{ID: "FR-10", Description: "Users can log in", Priority: models.PriorityMustHave, Type: models.RequirementFunctional},
		{ID: "FR-002", Description: "Users can search", Priority: models.PriorityMustHave, Type: models.RequirementFunctional},
		{ID: "FR-003", Description: "Wishlists", Priority: models.PriorityNiceToHave, Type: models.RequirementFunctional},
		{ID: "NFR-001", Description: "Pages load under 2s", Priority: models.PriorityShouldHave, Type: models.RequirementNonFunctional},
	}
	assertRequirements(t, doc.Requirements, want)
	if len(doc.Constraints) != 1 || doc.Constraints[0] != "Go 1.22" {
		t.Errorf("Constraints = %v", doc.Constraints)
	}
	if len(doc.OutOfScope) != 1 || doc.OutOfScope[0] != "Mobile apps" {
		t.Errorf("OutOfScope = %v", doc.OutOfScope)
	}
}

func TestParseRequirements_MarkdownFallback(t *testing.T) {
	text := `# Notes

## Ideas
- a1
- a2
- a3

## More
- b1
- b2

## Non-Functional Requirements
- Secure
`
	doc, err := ParseRequirements(text, DefaultOptions())
	if err != nil {
		t.Fatalf("ParseRequirements: %v", err)
	}
	if len(doc.Requirements) != 6 {
		t.Fatalf("got %d requirements, want 6: %+v", len(doc.Requirements), doc.Requirements)
	}
	if doc.Requirements[0].Description != "a1" || doc.Requirements[4].Description != "b2" {
		t.Errorf("fallback order wrong: %+v", doc.Requirements)
	}
	if last := doc.Requirements[5]; last.Type != models.RequirementNonFunctional || last.Description != "Secure" {
		t.Errorf("last = %+v, want the non-functional requirement", last)
	}

	limited, err := ParseRequirements(text, Options{FallbackLimit: 3})
	if err != nil {
		t.Fatalf("ParseRequirements: %v", err)
	}
	if len(limited.Requirements) != 4 {
		t.Errorf("got %d requirements with limit 3, want 4", len(limited.Requirements))
	}
}

func TestParseRequirements_PlainList(t *testing.T) {
	doc, err := ParseRequirements("Shop requirements\n- Login\n- Search [must]\n", DefaultOptions())
	if err != nil {
		t.Fatalf("ParseRequirements: %v", err)
	}
	if doc.Format != FormatList {
		t.Errorf("Format = %q, want %q", doc.Format, FormatList)
	}
	if doc.Description != "Shop requirements" {
		t.Errorf("Description = %q", doc.Description)
	}
	want := []models.Requirement{
		{ID: "FR-001", Description: "Login", Priority: models.PriorityShouldHave, Type: models.RequirementFunctional},
		{ID: "FR-002", Description: "Search", Priority: models.PriorityMustHave, Type: models.RequirementFunctional},
	}
	assertRequirements(t, doc.Requirements, want)
}

func TestNormalizePriority(t *testing.T) {
	tests := map[string]models.Priority{
		"Must Have":    models.PriorityMustHave,
		"must_have":    models.PriorityMustHave,
		"P0":           models.PriorityMustHave,
		"should":       models.PriorityShouldHave,
		"Nice-to-have": models.PriorityNiceToHave,
		"could have":   models.PriorityNiceToHave,
		"whenever":     models.PriorityShouldHave,
	}
	for in, want := range tests {
		if got := NormalizePriority(in); got != want {
			t.Errorf("NormalizePriority(%q) = %q, want %q", in, got, want)
		}
	}
}

func assertRequirements(t *testing.T, got, want []models.Requirement) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d requirements, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("requirement[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}
